package native

import (
	"crypto/elliptic"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/neocorelabs/neo-core/pkg/config"
	"github.com/neocorelabs/neo-core/pkg/core/dao"
	"github.com/neocorelabs/neo-core/pkg/core/interop"
	"github.com/neocorelabs/neo-core/pkg/core/native/nativenames"
	"github.com/neocorelabs/neo-core/pkg/core/native/noderoles"
	"github.com/neocorelabs/neo-core/pkg/core/state"
	"github.com/neocorelabs/neo-core/pkg/core/storage"
	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/smartcontract"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/manifest"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

const roleStoragePrefix byte = 1

// Designate implements the RoleManagement native contract: the set of node
// public keys currently designated for each well-known role, indexed by the
// block height the designation became effective at.
type Designate struct {
	md Metadata
	ID int32

	// CheckCommittee reports whether the current invocation carries the
	// committee's signature, wired in once the NEO contract is built.
	CheckCommittee func(ic *interop.Context) bool

	lock  sync.RWMutex
	cache map[noderoles.Role][]roleEntry
}

type roleEntry struct {
	height uint32
	nodes  NodeList
}

// newDesignate creates the RoleManagement native contract.
func newDesignate() *Designate {
	d := &Designate{ID: designationContractID}
	d.md = newMetadata(nativenames.Designation, designationContractID)
	d.registerMethods()
	return d
}

// Metadata returns the contract's static metadata.
func (d *Designate) Metadata() *Metadata { return &d.md }

func (d *Designate) registerMethods() {
	d.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "getDesignatedByRole",
			ReturnType: smartcontract.ArrayType,
			Parameters: []manifest.Parameter{
				manifest.NewParameter("role", smartcontract.IntegerType),
				manifest.NewParameter("index", smartcontract.IntegerType),
			},
			Safe: true,
		},
		RequiredFlags: interop.ReadStates,
		Func:          d.getDesignatedByRole,
	})
	d.md.AddMethod(Method{
		MD: manifest.Method{
			Name: "designateAsRole",
			Parameters: []manifest.Parameter{
				manifest.NewParameter("role", smartcontract.IntegerType),
				manifest.NewParameter("nodes", smartcontract.ArrayType),
			},
			ReturnType: smartcontract.VoidType,
		},
		RequiredFlags: interop.States,
		Func:          d.designateAsRole,
	})
	d.md.AddEvent(manifest.Event{
		Name: "Designation",
		Parameters: []manifest.Parameter{
			manifest.NewParameter("Role", smartcontract.IntegerType),
			manifest.NewParameter("BlockIndex", smartcontract.IntegerType),
		},
	})
}

// Initialize is a no-op beyond matching the lifecycle signature: there is no
// default designation for any role.
func (d *Designate) Initialize(ic *interop.Context, hf *config.Hardfork, newMD *HFSpecificContractMD) error {
	if hf != nil {
		return nil
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	d.cache = make(map[noderoles.Role][]roleEntry)
	return nil
}

// InitializeCache loads every designated-role storage record into memory.
func (d *Designate) InitializeCache(blockHeight uint32, dd dao.DAO) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.cache = make(map[noderoles.Role][]roleEntry)

	var fErr error
	dd.Seek(d.ID, storage.SeekRange{Prefix: []byte{roleStoragePrefix}}, func(k, v []byte) bool {
		if len(k) != 5 {
			fErr = fmt.Errorf("native: invalid role designation key length %d", len(k))
			return false
		}
		role := noderoles.Role(k[0])
		height := binary.BigEndian.Uint32(k[1:])

		var nl NodeList
		r := io.NewBinReaderFromBuf(v)
		nl.DecodeBinary(r)
		if r.Err != nil {
			fErr = r.Err
			return false
		}
		d.cache[role] = append(d.cache[role], roleEntry{height: height, nodes: nl})
		return true
	})
	if fErr != nil {
		return fErr
	}
	for role := range d.cache {
		sort.Slice(d.cache[role], func(i, j int) bool {
			return d.cache[role][i].height < d.cache[role][j].height
		})
	}
	return nil
}

func roleKey(role noderoles.Role, height uint32) []byte {
	b := make([]byte, 5)
	b[0] = byte(role)
	binary.BigEndian.PutUint32(b[1:], height)
	return b
}

// GetDesignatedByRole returns the public keys designated for role as of the
// most recent designation at or before index.
func (d *Designate) GetDesignatedByRole(dd dao.DAO, role noderoles.Role, index uint32) ([]*keys.PublicKey, error) {
	d.lock.RLock()
	entries, ok := d.cache[role]
	d.lock.RUnlock()
	if !ok {
		return nil, nil
	}

	var best *roleEntry
	for i := range entries {
		if entries[i].height > index {
			break
		}
		best = &entries[i]
	}
	if best == nil {
		return nil, nil
	}
	return []*keys.PublicKey(best.nodes), nil
}

// DesignateAsRole stores nodes as the role's designation as of the next
// block (height+1), replacing whatever was previously in effect.
func (d *Designate) DesignateAsRole(ic *interop.Context, role noderoles.Role, nodes []*keys.PublicKey) error {
	if len(nodes) == 0 {
		return fmt.Errorf("native: empty node list for role %s", role)
	}
	if !noderoles.IsValidRole(role) {
		return fmt.Errorf("native: invalid role %d", role)
	}

	sorted := append([]*keys.PublicKey(nil), nodes...)
	sort.Sort(keys.PublicKeys(sorted))

	height := uint32(0)
	if ic.Block != nil {
		height = ic.Block.Index + 1
	}

	w := io.NewBufBinWriter()
	NodeList(sorted).EncodeBinary(w.BinWriter)
	if w.Err != nil {
		return w.Err
	}
	if err := ic.DAO.PutStorageItem(d.ID, roleKey(role, height), &state.StorageItem{Value: w.Bytes()}); err != nil {
		return err
	}

	d.lock.Lock()
	defer d.lock.Unlock()
	entries := d.cache[role]
	entries = append(entries, roleEntry{height: height, nodes: NodeList(sorted)})
	sort.Slice(entries, func(i, j int) bool { return entries[i].height < entries[j].height })
	d.cache[role] = entries
	return nil
}

func (d *Designate) getDesignatedByRole(ic *interop.Context, args []stackitem.Item) stackitem.Item {
	roleBig, err := stackitem.ToUint32(args[0])
	if err != nil {
		panic(err)
	}
	if !noderoles.IsValidRole(noderoles.Role(roleBig)) {
		panic(fmt.Errorf("native: invalid role %d", roleBig))
	}
	index, err := stackitem.ToUint32(args[1])
	if err != nil {
		panic(err)
	}
	if ic.Block != nil && index > ic.Block.Index+1 {
		panic("native: getDesignatedByRole: index is out of range")
	}
	nodes, err := d.GetDesignatedByRole(ic.DAO, noderoles.Role(roleBig), index)
	if err != nil {
		panic(err)
	}
	items := make([]stackitem.Item, len(nodes))
	for i, pub := range nodes {
		items[i] = stackitem.NewByteArray(pub.Bytes())
	}
	return stackitem.NewArray(items)
}

func (d *Designate) designateAsRole(ic *interop.Context, args []stackitem.Item) stackitem.Item {
	if !d.checkCommittee(ic) {
		panic("native: invalid committee signature")
	}
	roleBig, err := stackitem.ToUint32(args[0])
	if err != nil {
		panic(err)
	}
	arr, ok := args[1].Value().([]stackitem.Item)
	if !ok {
		panic("native: designateAsRole: nodes is not an array")
	}
	nodes := make([]*keys.PublicKey, len(arr))
	for i, item := range arr {
		raw, ok := item.Value().([]byte)
		if !ok {
			panic("native: designateAsRole: node is not a byte string")
		}
		pub, err := keys.NewPublicKeyFromBytes(raw, elliptic.P256())
		if err != nil {
			panic(err)
		}
		nodes[i] = pub
	}
	if err := d.DesignateAsRole(ic, noderoles.Role(roleBig), nodes); err != nil {
		panic(err)
	}
	return stackitem.Null{}
}

func (d *Designate) checkCommittee(ic *interop.Context) bool {
	if d.CheckCommittee == nil {
		return false
	}
	return d.CheckCommittee(ic)
}

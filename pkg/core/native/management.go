package native

import (
	"encoding/binary"
	"errors"
	"sort"

	"github.com/neocorelabs/neo-core/pkg/config"
	"github.com/neocorelabs/neo-core/pkg/core/dao"
	"github.com/neocorelabs/neo-core/pkg/core/interop"
	"github.com/neocorelabs/neo-core/pkg/core/native/nativenames"
	"github.com/neocorelabs/neo-core/pkg/core/state"
	"github.com/neocorelabs/neo-core/pkg/core/storage"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/manifest"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/nef"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// Storage key prefixes used by the management contract's own native
// storage (namespaced under its own contract id, like any other native
// contract's state).
const (
	PrefixContract        byte = 8
	PrefixContractHash    byte = 9
	PrefixNextAvailableID byte = 15
)

var (
	// ErrAlreadyDeployed is returned by Deploy when a contract with the
	// computed hash already exists.
	ErrAlreadyDeployed = errors.New("management: contract already exists")
	// ErrNotDeployed is returned by Update/Destroy/GetContract when no
	// contract is stored under the requested hash.
	ErrNotDeployed = errors.New("management: contract doesn't exist")
)

// Management implements the ContractManagement native contract: deployed
// contract lifecycle (deploy/update/destroy) and lookup by hash or id.
type Management struct {
	md Metadata
	ID int32

	// Policy is consulted for the per-byte deployment storage fee; wired
	// in separately since Policy itself depends on Management's
	// registration order.
	Policy *Policy
}

// NewManagement creates the ContractManagement native contract.
func NewManagement() *Management {
	m := &Management{ID: managementContractID}
	m.md = newMetadata(nativenames.Management, managementContractID)
	return m
}

// Metadata returns the contract's static metadata.
func (m *Management) Metadata() *Metadata { return &m.md }

func contractStorageKey(hash util.Uint160) []byte {
	b := make([]byte, 1+util.Uint160Size)
	b[0] = PrefixContract
	copy(b[1:], hash.BytesBE())
	return b
}

func contractIDKey(id int32) []byte {
	b := make([]byte, 5)
	b[0] = PrefixContractHash
	binary.LittleEndian.PutUint32(b[1:], uint32(id))
	return b
}

// Initialize performs the first-run setup for the management contract: it
// seeds the next-available-id counter. args/ic are accepted to match every
// native method's signature, but ContractManagement reads nothing from
// them.
func (m *Management) Initialize(ic *interop.Context, hf *config.Hardfork, newMD *HFSpecificContractMD) error {
	if hf != nil {
		return nil
	}
	return putNextAvailableID(ic.DAO, m.ID, 1)
}

// InitializeCache verifies the contract storage is well-formed for the
// contracts currently stored, returning an error if any stored entry can't
// be decoded. isHardforkEnabled and blockHeight are accepted to match the
// shape every native's cache warm-up is driven with, though
// ContractManagement keeps no extra in-memory cache of its own beyond what
// GetContract/GetContractByID read on demand.
func (m *Management) InitializeCache(isHardforkEnabled func(hf *config.Hardfork, blockHeight uint32) bool, blockHeight uint32, d dao.DAO) error {
	var decodeErr error
	d.Seek(m.ID, storage.SeekRange{Prefix: []byte{PrefixContract}}, func(k, v []byte) bool {
		cs := new(state.Contract)
		r := io.NewBinReaderFromBuf(v)
		cs.DecodeBinary(r)
		if r.Err != nil {
			decodeErr = r.Err
			return false
		}
		return true
	})
	return decodeErr
}

func getNextAvailableID(d dao.DAO, id int32) (int32, error) {
	si := d.GetStorageItem(id, []byte{PrefixNextAvailableID})
	if si == nil {
		return 1, nil
	}
	if len(si.Value) != 4 {
		return 0, errors.New("management: invalid next-available-id storage item")
	}
	return int32(binary.LittleEndian.Uint32(si.Value)), nil
}

func putNextAvailableID(d dao.DAO, id, next int32) error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(next))
	return d.PutStorageItem(id, []byte{PrefixNextAvailableID}, &state.StorageItem{Value: b})
}

// GetContract returns the deployed contract state stored under hash in the
// management contract identified by mgmtID.
func GetContract(d dao.DAO, mgmtID int32, hash util.Uint160) (*state.Contract, error) {
	si := d.GetStorageItem(mgmtID, contractStorageKey(hash))
	if si == nil {
		return nil, ErrNotDeployed
	}
	cs := new(state.Contract)
	r := io.NewBinReaderFromBuf(si.Value)
	cs.DecodeBinary(r)
	if r.Err != nil {
		return nil, r.Err
	}
	return cs, nil
}

// GetContractByID returns the deployed contract state registered under the
// given contract id.
func GetContractByID(d dao.DAO, mgmtID int32, id int32) (*state.Contract, error) {
	si := d.GetStorageItem(mgmtID, contractIDKey(id))
	if si == nil {
		return nil, ErrNotDeployed
	}
	hash, err := util.Uint160DecodeBytesBE(si.Value)
	if err != nil {
		return nil, err
	}
	return GetContract(d, mgmtID, hash)
}

func putContract(d dao.DAO, mgmtID int32, cs *state.Contract) error {
	w := io.NewBufBinWriter()
	cs.EncodeBinary(w.BinWriter)
	if w.Err != nil {
		return w.Err
	}
	if err := d.PutStorageItem(mgmtID, contractStorageKey(cs.Hash), &state.StorageItem{Value: w.Bytes()}); err != nil {
		return err
	}
	return d.PutStorageItem(mgmtID, contractIDKey(cs.ID), &state.StorageItem{Value: cs.Hash.BytesBE()})
}

// Deploy stores a freshly deployed contract authored by sender, deriving
// its script hash from sender, the NEF's checksum and the manifest name.
func (m *Management) Deploy(ic *interop.Context, sender util.Uint160, ne *nef.File, manif *manifest.Manifest) (*state.Contract, error) {
	hash := state.CreateContractHash(sender, ne.Checksum, manif.Name)
	if _, err := GetContract(ic.DAO, m.ID, hash); err == nil {
		return nil, ErrAlreadyDeployed
	}
	id, err := getNextAvailableID(ic.DAO, m.ID)
	if err != nil {
		return nil, err
	}
	if err := putNextAvailableID(ic.DAO, m.ID, id+1); err != nil {
		return nil, err
	}
	cs := &state.Contract{
		ID:       id,
		Hash:     hash,
		NEF:      *ne,
		Manifest: *manif,
	}
	if err := putContract(ic.DAO, m.ID, cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// Update replaces the NEF/manifest stored for hash, bumping its update
// counter.
func (m *Management) Update(ic *interop.Context, hash util.Uint160, ne *nef.File, manif *manifest.Manifest) (*state.Contract, error) {
	cs, err := GetContract(ic.DAO, m.ID, hash)
	if err != nil {
		return nil, err
	}
	updated := &state.Contract{
		ID:            cs.ID,
		UpdateCounter: cs.UpdateCounter + 1,
		Hash:          cs.Hash,
	}
	if ne != nil {
		updated.NEF = *ne
	} else {
		updated.NEF = cs.NEF
	}
	if manif != nil {
		updated.Manifest = *manif
	} else {
		updated.Manifest = cs.Manifest
	}
	if err := putContract(ic.DAO, m.ID, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Destroy removes the contract stored under hash.
func (m *Management) Destroy(d dao.DAO, hash util.Uint160) error {
	cs, err := GetContract(d, m.ID, hash)
	if err != nil {
		return err
	}
	if err := d.DeleteStorageItem(m.ID, contractStorageKey(hash)); err != nil {
		return err
	}
	return d.DeleteStorageItem(m.ID, contractIDKey(cs.ID))
}

// GetNEP17Contracts returns the hashes of every deployed contract
// declaring the NEP-17 standard, ordered by hash for determinism.
func (m *Management) GetNEP17Contracts(d dao.DAO) []util.Uint160 {
	var hashes []util.Uint160
	d.Seek(m.ID, storage.SeekRange{Prefix: []byte{PrefixContract}}, func(k, v []byte) bool {
		cs := new(state.Contract)
		r := io.NewBinReaderFromBuf(v)
		cs.DecodeBinary(r)
		if r.Err != nil {
			return true
		}
		for _, std := range cs.Manifest.SupportedStandards {
			if std == manifest.NEP17StandardName {
				hashes = append(hashes, cs.Hash)
				break
			}
		}
		return true
	})
	sort.Slice(hashes, func(i, j int) bool { return hashes[i].CompareTo(hashes[j]) < 0 })
	return hashes
}

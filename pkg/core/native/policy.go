package native

import (
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/neocorelabs/neo-core/pkg/config"
	"github.com/neocorelabs/neo-core/pkg/core/dao"
	"github.com/neocorelabs/neo-core/pkg/core/interop"
	"github.com/neocorelabs/neo-core/pkg/core/native/nativenames"
	"github.com/neocorelabs/neo-core/pkg/core/state"
	"github.com/neocorelabs/neo-core/pkg/core/storage"
	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/smartcontract"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/manifest"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

const (
	defaultExecFeeFactor      = interop.DefaultBaseExecFee
	defaultFeePerByte         = 1000
	defaultMaxVerificationGas = 1_50000000
	// DefaultStoragePrice is the price to pay for 1 byte of contract storage.
	DefaultStoragePrice = 100000

	maxExecFeeFactor = 100
	maxFeePerByte     = 100_000_000
	maxStoragePrice   = 10000000

	blockedAccountPrefix byte = 15
)

var (
	execFeeFactorKey = []byte{18}
	feePerByteKey    = []byte{10}
	storagePriceKey  = []byte{19}
)

// Policy implements the PolicyContract native contract: the chain-wide fee
// and storage price knobs, and the set of accounts blocked from submitting
// transactions.
type Policy struct {
	md Metadata
	ID int32

	// CheckCommittee reports whether the current invocation carries the
	// committee's signature. Wired in once the NEO native contract (which
	// owns committee membership) is built; until then every setter is
	// unreachable through the VM and this is only exercised directly in
	// white-box tests, so a nil check here would never fire in practice.
	CheckCommittee func(ic *interop.Context) bool

	lock               sync.RWMutex
	isValid            bool
	execFeeFactor      uint32
	feePerByte         int64
	maxVerificationGas int64
	storagePrice       uint32
	blockedAccounts    []util.Uint160
}

// newPolicy creates the PolicyContract native contract.
func newPolicy() *Policy {
	p := &Policy{ID: policyContractID}
	p.md = newMetadata(nativenames.Policy, policyContractID)
	p.registerMethods()
	return p
}

// Metadata returns the contract's static metadata.
func (p *Policy) Metadata() *Metadata { return &p.md }

func (p *Policy) registerMethods() {
	p.md.AddMethod(Method{
		MD:            manifest.Method{Name: "getFeePerByte", ReturnType: smartcontract.IntegerType},
		Func:          p.getFeePerByte,
		RequiredFlags: interop.ReadStates,
	})
	p.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "isBlocked",
			ReturnType: smartcontract.BoolType,
			Parameters: []manifest.Parameter{manifest.NewParameter("account", smartcontract.Hash160Type)},
		},
		Func:          p.isBlocked,
		RequiredFlags: interop.ReadStates,
	})
	p.md.AddMethod(Method{
		MD:            manifest.Method{Name: "getExecFeeFactor", ReturnType: smartcontract.IntegerType},
		Func:          p.getExecFeeFactor,
		RequiredFlags: interop.ReadStates,
	})
	p.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "setExecFeeFactor",
			ReturnType: smartcontract.VoidType,
			Parameters: []manifest.Parameter{manifest.NewParameter("value", smartcontract.IntegerType)},
		},
		Func:          p.setExecFeeFactor,
		RequiredFlags: interop.States,
	})
	p.md.AddMethod(Method{
		MD:            manifest.Method{Name: "getStoragePrice", ReturnType: smartcontract.IntegerType},
		Func:          p.getStoragePrice,
		RequiredFlags: interop.ReadStates,
	})
	p.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "setStoragePrice",
			ReturnType: smartcontract.VoidType,
			Parameters: []manifest.Parameter{manifest.NewParameter("value", smartcontract.IntegerType)},
		},
		Func:          p.setStoragePrice,
		RequiredFlags: interop.States,
	})
	p.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "setFeePerByte",
			ReturnType: smartcontract.VoidType,
			Parameters: []manifest.Parameter{manifest.NewParameter("value", smartcontract.IntegerType)},
		},
		Func:          p.setFeePerByte,
		RequiredFlags: interop.States,
	})
	p.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "blockAccount",
			ReturnType: smartcontract.BoolType,
			Parameters: []manifest.Parameter{manifest.NewParameter("account", smartcontract.Hash160Type)},
		},
		Func:          p.blockAccount,
		RequiredFlags: interop.States,
	})
	p.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "unblockAccount",
			ReturnType: smartcontract.BoolType,
			Parameters: []manifest.Parameter{manifest.NewParameter("account", smartcontract.Hash160Type)},
		},
		Func:          p.unblockAccount,
		RequiredFlags: interop.States,
	})
}

// Initialize seeds the default fee and storage price values. hf/newMD are
// accepted to match every native's lifecycle hook signature; Policy adds no
// hardfork-specific behavior of its own.
func (p *Policy) Initialize(ic *interop.Context, hf *config.Hardfork, newMD *HFSpecificContractMD) error {
	if hf != nil {
		return nil
	}
	setIntWithKey(p.ID, ic.DAO, feePerByteKey, defaultFeePerByte)
	setIntWithKey(p.ID, ic.DAO, execFeeFactorKey, defaultExecFeeFactor)
	setIntWithKey(p.ID, ic.DAO, storagePriceKey, DefaultStoragePrice)

	p.lock.Lock()
	defer p.lock.Unlock()
	p.isValid = true
	p.execFeeFactor = defaultExecFeeFactor
	p.feePerByte = defaultFeePerByte
	p.maxVerificationGas = defaultMaxVerificationGas
	p.storagePrice = DefaultStoragePrice
	p.blockedAccounts = make([]util.Uint160, 0)
	return nil
}

// PostPersist refreshes the in-memory cache from storage once a block has
// been persisted, unless the cache is already known to match it.
func (p *Policy) PostPersist(ic *interop.Context) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.isValid {
		return nil
	}
	p.execFeeFactor = uint32(getIntWithKey(p.ID, ic.DAO, execFeeFactorKey))
	p.feePerByte = getIntWithKey(p.ID, ic.DAO, feePerByteKey)
	p.maxVerificationGas = defaultMaxVerificationGas
	p.storagePrice = uint32(getIntWithKey(p.ID, ic.DAO, storagePriceKey))

	p.blockedAccounts = make([]util.Uint160, 0)
	var fErr error
	ic.DAO.Seek(p.ID, storage.SeekRange{Prefix: []byte{blockedAccountPrefix}}, func(k, _ []byte) bool {
		hash, err := util.Uint160DecodeBytesBE(k)
		if err != nil {
			fErr = fmt.Errorf("failed to decode blocked account hash: %w", err)
			return false
		}
		p.blockedAccounts = append(p.blockedAccounts, hash)
		return true
	})
	if fErr == nil {
		p.isValid = true
	}
	return fErr
}

func setIntWithKey(id int32, d dao.DAO, key []byte, value int64) {
	if err := d.PutStorageItem(id, key, &state.StorageItem{Value: big.NewInt(value).Bytes()}); err != nil {
		panic(err)
	}
}

func getIntWithKey(id int32, d dao.DAO, key []byte) int64 {
	si := d.GetStorageItem(id, key)
	if si == nil {
		return 0
	}
	return new(big.Int).SetBytes(si.Value).Int64()
}

func (p *Policy) getFeePerByte(ic *interop.Context, _ []stackitem.Item) stackitem.Item {
	return stackitem.NewBigInteger(big.NewInt(p.GetFeePerByteInternal(ic.DAO)))
}

// GetFeePerByteInternal returns the minimum required network fee per
// transaction byte.
func (p *Policy) GetFeePerByteInternal(d dao.DAO) int64 {
	p.lock.RLock()
	defer p.lock.RUnlock()
	if p.isValid {
		return p.feePerByte
	}
	return getIntWithKey(p.ID, d, feePerByteKey)
}

// GetMaxVerificationGas returns the maximum gas allowed to be burned during
// witness verification.
func (p *Policy) GetMaxVerificationGas(_ dao.DAO) int64 {
	p.lock.RLock()
	defer p.lock.RUnlock()
	if p.isValid {
		return p.maxVerificationGas
	}
	return defaultMaxVerificationGas
}

func (p *Policy) getExecFeeFactor(ic *interop.Context, _ []stackitem.Item) stackitem.Item {
	return stackitem.NewBigInteger(big.NewInt(p.GetExecFeeFactorInternal(ic.DAO)))
}

// GetExecFeeFactorInternal returns the current execution fee factor.
func (p *Policy) GetExecFeeFactorInternal(d dao.DAO) int64 {
	p.lock.RLock()
	defer p.lock.RUnlock()
	if p.isValid {
		return int64(p.execFeeFactor)
	}
	return getIntWithKey(p.ID, d, execFeeFactorKey)
}

func (p *Policy) setExecFeeFactor(ic *interop.Context, args []stackitem.Item) stackitem.Item {
	value, err := stackitem.ToUint32(args[0])
	if err != nil {
		panic(err)
	}
	if value <= 0 || maxExecFeeFactor < value {
		panic(fmt.Errorf("ExecFeeFactor must be between 0 and %d", maxExecFeeFactor))
	}
	if !p.checkCommittee(ic) {
		panic("invalid committee signature")
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	setIntWithKey(p.ID, ic.DAO, execFeeFactorKey, int64(value))
	p.isValid = false
	return stackitem.Null{}
}

func (p *Policy) isBlocked(ic *interop.Context, args []stackitem.Item) stackitem.Item {
	hash, err := stackitem.ToUint160(args[0])
	if err != nil {
		panic(err)
	}
	return stackitem.NewBool(p.IsBlockedInternal(ic.DAO, hash))
}

// IsBlockedInternal reports whether hash is on the blocked accounts list.
func (p *Policy) IsBlockedInternal(d dao.DAO, hash util.Uint160) bool {
	p.lock.RLock()
	defer p.lock.RUnlock()
	if p.isValid {
		length := len(p.blockedAccounts)
		i := sort.Search(length, func(i int) bool {
			return p.blockedAccounts[i].CompareTo(hash) >= 0
		})
		return length != 0 && i != length && p.blockedAccounts[i].Equals(hash)
	}
	key := append([]byte{blockedAccountPrefix}, hash.BytesBE()...)
	return d.GetStorageItem(p.ID, key) != nil
}

func (p *Policy) getStoragePrice(ic *interop.Context, _ []stackitem.Item) stackitem.Item {
	return stackitem.NewBigInteger(big.NewInt(p.GetStoragePriceInternal(ic.DAO)))
}

// GetStoragePriceInternal returns the current price of a byte of contract
// storage.
func (p *Policy) GetStoragePriceInternal(d dao.DAO) int64 {
	p.lock.RLock()
	defer p.lock.RUnlock()
	if p.isValid {
		return int64(p.storagePrice)
	}
	return getIntWithKey(p.ID, d, storagePriceKey)
}

func (p *Policy) setStoragePrice(ic *interop.Context, args []stackitem.Item) stackitem.Item {
	value, err := stackitem.ToUint32(args[0])
	if err != nil {
		panic(err)
	}
	if value <= 0 || maxStoragePrice < value {
		panic(fmt.Errorf("StoragePrice must be between 0 and %d", maxStoragePrice))
	}
	if !p.checkCommittee(ic) {
		panic("invalid committee signature")
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	setIntWithKey(p.ID, ic.DAO, storagePriceKey, int64(value))
	p.isValid = false
	return stackitem.Null{}
}

func (p *Policy) setFeePerByte(ic *interop.Context, args []stackitem.Item) stackitem.Item {
	value, err := stackitem.ToInt64(args[0])
	if err != nil {
		panic(err)
	}
	if value < 0 || value > maxFeePerByte {
		panic(fmt.Errorf("FeePerByte shouldn't be negative or greater than %d", maxFeePerByte))
	}
	if !p.checkCommittee(ic) {
		panic("invalid committee signature")
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	setIntWithKey(p.ID, ic.DAO, feePerByteKey, value)
	p.isValid = false
	return stackitem.Null{}
}

func (p *Policy) blockAccount(ic *interop.Context, args []stackitem.Item) stackitem.Item {
	if !p.checkCommittee(ic) {
		panic("invalid committee signature")
	}
	hash, err := stackitem.ToUint160(args[0])
	if err != nil {
		panic(err)
	}
	if p.IsBlockedInternal(ic.DAO, hash) {
		return stackitem.NewBool(false)
	}
	key := append([]byte{blockedAccountPrefix}, hash.BytesBE()...)
	p.lock.Lock()
	defer p.lock.Unlock()
	if err := ic.DAO.PutStorageItem(p.ID, key, &state.StorageItem{}); err != nil {
		panic(err)
	}
	p.isValid = false
	return stackitem.NewBool(true)
}

func (p *Policy) unblockAccount(ic *interop.Context, args []stackitem.Item) stackitem.Item {
	if !p.checkCommittee(ic) {
		panic("invalid committee signature")
	}
	hash, err := stackitem.ToUint160(args[0])
	if err != nil {
		panic(err)
	}
	if !p.IsBlockedInternal(ic.DAO, hash) {
		return stackitem.NewBool(false)
	}
	key := append([]byte{blockedAccountPrefix}, hash.BytesBE()...)
	p.lock.Lock()
	defer p.lock.Unlock()
	if err := ic.DAO.DeleteStorageItem(p.ID, key); err != nil {
		panic(err)
	}
	p.isValid = false
	return stackitem.NewBool(true)
}

func (p *Policy) checkCommittee(ic *interop.Context) bool {
	if p.CheckCommittee == nil {
		return false
	}
	return p.CheckCommittee(ic)
}

// CheckPolicy reports whether tx conforms to the current policy
// restrictions, namely that none of its signers are blocked.
func (p *Policy) CheckPolicy(d dao.DAO, tx *transaction.Transaction) error {
	for _, signer := range tx.Signers {
		if p.IsBlockedInternal(d, signer.Account) {
			return fmt.Errorf("account %s is blocked", signer.Account.StringLE())
		}
	}
	return nil
}

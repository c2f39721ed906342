package native

import (
	"crypto/elliptic"
	"errors"
	"math/big"
	"sort"
	"sync"

	"github.com/neocorelabs/neo-core/pkg/config"
	"github.com/neocorelabs/neo-core/pkg/core/dao"
	"github.com/neocorelabs/neo-core/pkg/core/interop"
	"github.com/neocorelabs/neo-core/pkg/core/native/nativenames"
	"github.com/neocorelabs/neo-core/pkg/core/state"
	"github.com/neocorelabs/neo-core/pkg/core/storage"
	"github.com/neocorelabs/neo-core/pkg/crypto/hash"
	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/smartcontract"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/manifest"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
)

// neoDecimals matches mainnet NEO: an indivisible governance token.
const neoDecimals = 0

// neoTotalSupply is the fixed, never-changing total NEO supply: there's no
// mint/burn path for NEO beyond the genesis distribution.
var neoTotalSupply = big.NewInt(100_000_000)

const candidatePrefix byte = 33
const gasPerBlockKey byte = 29

// defaultGASPerBlock is the initial GAS minted to the block's primary
// validator per block, in GAS fractions (8 decimals).
const defaultGASPerBlock = 5 * 100000000

// candidate is a registered NEO candidate's on-chain state: whether
// they're currently registered and their accumulated vote weight.
type candidate struct {
	Registered bool
	Votes      big.Int
}

// ToStackItem converts c to a VM stack item.
func (c *candidate) ToStackItem() (stackitem.Item, error) {
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewBool(c.Registered),
		stackitem.NewBigInteger(&c.Votes),
	}), nil
}

// FromStackItem fills c from a VM stack item produced by ToStackItem.
func (c *candidate) FromStackItem(item stackitem.Item) error {
	st, ok := item.(*stackitem.Struct)
	if !ok {
		return errors.New("native: candidate stackitem is not a struct")
	}
	s := st.Value().([]stackitem.Item)
	if len(s) != 2 {
		return errors.New("native: invalid candidate stackitem length")
	}
	reg, ok := s[0].Value().(bool)
	if !ok {
		return errors.New("native: candidate registered flag is not a bool")
	}
	c.Registered = reg
	votes, ok := s[1].Value().(*big.Int)
	if !ok {
		return errors.New("native: candidate votes is not an integer")
	}
	c.Votes = *votes
	return nil
}

// NEO implements the NeoToken native contract: the indivisible governance
// NEP-17 token whose balances double as committee/validator votes, plus
// candidate registration and per-block GAS distribution.
type NEO struct {
	nep17Base
	md Metadata

	cfg     config.ProtocolConfiguration
	standby []*keys.PublicKey

	// CheckWitness reports whether the current invocation carries the
	// given account's witness; wired in by the chain facade once witness
	// checking is plugged into the invocation engine.
	CheckWitness func(ic *interop.Context, acc util.Uint160) bool
	// GAS is credited with each block's validator reward from OnPersist.
	GAS *GAS

	lock       sync.RWMutex
	candidates map[string]*candidate // keyed by compressed public key bytes
}

// newNEO creates the NeoToken native contract for the given protocol
// configuration, used to derive the standby committee fallback and the
// committee/validator counts at any height.
func newNEO(cfg config.ProtocolConfiguration) *NEO {
	n := &NEO{cfg: cfg, candidates: make(map[string]*candidate)}
	for _, s := range cfg.StandbyCommittee {
		pub, err := keys.NewPublicKeyFromString(s)
		if err != nil {
			continue
		}
		n.standby = append(n.standby, pub)
	}
	n.id = neoContractID
	n.newBalance = func() state.NEP17BalanceHolder { return new(state.NEOBalance) }
	n.onTransfer = n.adjustVotes
	n.md = newMetadata(nativenames.Neo, neoContractID)
	n.md.Manifest.SupportedStandards = []string{manifest.NEP17StandardName}
	n.registerMethods()
	return n
}

// Metadata returns the contract's static metadata.
func (n *NEO) Metadata() *Metadata { return &n.md }

func (n *NEO) registerMethods() {
	n.md.AddMethod(Method{
		MD:            manifest.Method{Name: "symbol", ReturnType: smartcontract.StringType, Safe: true},
		RequiredFlags: interop.NoneFlag,
		Func: func(_ *interop.Context, _ []stackitem.Item) stackitem.Item {
			return stackitem.NewByteArray([]byte("NEO"))
		},
	})
	n.md.AddMethod(Method{
		MD:            manifest.Method{Name: "decimals", ReturnType: smartcontract.IntegerType, Safe: true},
		RequiredFlags: interop.NoneFlag,
		Func: func(_ *interop.Context, _ []stackitem.Item) stackitem.Item {
			return stackitem.NewBigInteger(big.NewInt(neoDecimals))
		},
	})
	registerNEP17Methods(&n.md,
		Method{
			MD: manifest.Method{
				Name:       "balanceOf",
				ReturnType: smartcontract.IntegerType,
				Parameters: []manifest.Parameter{manifest.NewParameter("account", smartcontract.Hash160Type)},
				Safe:       true,
			},
			RequiredFlags: interop.ReadStates,
			Func: func(ic *interop.Context, args []stackitem.Item) stackitem.Item {
				acc, err := stackitem.ToUint160(args[0])
				if err != nil {
					panic(err)
				}
				return stackitem.NewBigInteger(n.BalanceOf(ic.DAO, acc))
			},
		},
		Method{
			MD: manifest.Method{
				Name:       "transfer",
				ReturnType: smartcontract.BoolType,
				Parameters: []manifest.Parameter{
					manifest.NewParameter("from", smartcontract.Hash160Type),
					manifest.NewParameter("to", smartcontract.Hash160Type),
					manifest.NewParameter("amount", smartcontract.IntegerType),
					manifest.NewParameter("data", smartcontract.AnyType),
				},
			},
			RequiredFlags: interop.States | interop.AllowNotify,
			Func: func(ic *interop.Context, args []stackitem.Item) stackitem.Item {
				from, err := stackitem.ToUint160(args[0])
				if err != nil {
					panic(err)
				}
				to, err := stackitem.ToUint160(args[1])
				if err != nil {
					panic(err)
				}
				amount, ok := args[2].Value().(*big.Int)
				if !ok {
					panic("native: transfer: amount is not an integer")
				}
				if !n.checkWitness(ic, from) {
					panic("native: transfer: no witness for sender")
				}
				if err := n.transfer(ic, from, to, amount); err != nil {
					if err == ErrInsufficientFunds {
						return stackitem.NewBool(false)
					}
					panic(err)
				}
				return stackitem.NewBool(true)
			},
		},
		Method{
			MD:            manifest.Method{Name: "totalSupply", ReturnType: smartcontract.IntegerType, Safe: true},
			RequiredFlags: interop.ReadStates,
			Func: func(ic *interop.Context, _ []stackitem.Item) stackitem.Item {
				return stackitem.NewBigInteger(n.totalSupply(ic.DAO))
			},
		},
	)
	n.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "registerCandidate",
			ReturnType: smartcontract.BoolType,
			Parameters: []manifest.Parameter{manifest.NewParameter("pubkey", smartcontract.PublicKeyType)},
		},
		RequiredFlags: interop.States,
		Func: func(ic *interop.Context, args []stackitem.Item) stackitem.Item {
			pub := mustPublicKey(args[0])
			if !n.checkWitness(ic, pub.GetScriptHash()) {
				panic("native: registerCandidate: no witness for candidate")
			}
			if err := n.RegisterCandidate(ic.DAO, pub); err != nil {
				panic(err)
			}
			return stackitem.NewBool(true)
		},
	})
	n.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "unregisterCandidate",
			ReturnType: smartcontract.BoolType,
			Parameters: []manifest.Parameter{manifest.NewParameter("pubkey", smartcontract.PublicKeyType)},
		},
		RequiredFlags: interop.States,
		Func: func(ic *interop.Context, args []stackitem.Item) stackitem.Item {
			pub := mustPublicKey(args[0])
			if !n.checkWitness(ic, pub.GetScriptHash()) {
				panic("native: unregisterCandidate: no witness for candidate")
			}
			if err := n.UnregisterCandidate(ic.DAO, pub); err != nil {
				panic(err)
			}
			return stackitem.NewBool(true)
		},
	})
	n.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "vote",
			ReturnType: smartcontract.BoolType,
			Parameters: []manifest.Parameter{
				manifest.NewParameter("account", smartcontract.Hash160Type),
				manifest.NewParameter("voteTo", smartcontract.PublicKeyType),
			},
		},
		RequiredFlags: interop.States,
		Func: func(ic *interop.Context, args []stackitem.Item) stackitem.Item {
			acc, err := stackitem.ToUint160(args[0])
			if err != nil {
				panic(err)
			}
			if !n.checkWitness(ic, acc) {
				panic("native: vote: no witness for account")
			}
			var voteTo *keys.PublicKey
			if _, ok := args[1].(stackitem.Null); !ok {
				voteTo = mustPublicKey(args[1])
			}
			ok, err := n.Vote(ic, acc, voteTo)
			if err != nil {
				panic(err)
			}
			return stackitem.NewBool(ok)
		},
	})
	n.md.AddMethod(Method{
		MD:            manifest.Method{Name: "getCandidates", ReturnType: smartcontract.ArrayType, Safe: true},
		RequiredFlags: interop.ReadStates,
		Func: func(ic *interop.Context, _ []stackitem.Item) stackitem.Item {
			cands := n.GetCandidates(ic.DAO)
			items := make([]stackitem.Item, len(cands))
			for i, v := range cands {
				items[i] = stackitem.NewStruct([]stackitem.Item{
					stackitem.NewByteArray(v.Key.Bytes()),
					stackitem.NewBigInteger(v.Votes),
				})
			}
			return stackitem.NewArray(items)
		},
	})
	n.md.AddMethod(Method{
		MD:            manifest.Method{Name: "getCommittee", ReturnType: smartcontract.ArrayType, Safe: true},
		RequiredFlags: interop.ReadStates,
		Func: func(ic *interop.Context, _ []stackitem.Item) stackitem.Item {
			committee, err := n.ComputeCommittee(ic)
			if err != nil {
				panic(err)
			}
			return pubKeysToStackItem(committee)
		},
	})
	n.md.AddMethod(Method{
		MD:            manifest.Method{Name: "getNextBlockValidators", ReturnType: smartcontract.ArrayType, Safe: true},
		RequiredFlags: interop.ReadStates,
		Func: func(ic *interop.Context, _ []stackitem.Item) stackitem.Item {
			validators, err := n.ComputeNextBlockValidators(ic)
			if err != nil {
				panic(err)
			}
			return pubKeysToStackItem(validators)
		},
	})
	n.md.AddMethod(Method{
		MD: manifest.Method{
			Name:       "unclaimedGas",
			ReturnType: smartcontract.IntegerType,
			Parameters: []manifest.Parameter{
				manifest.NewParameter("account", smartcontract.Hash160Type),
				manifest.NewParameter("end", smartcontract.IntegerType),
			},
			Safe: true,
		},
		RequiredFlags: interop.ReadStates,
		Func: func(ic *interop.Context, args []stackitem.Item) stackitem.Item {
			acc, err := stackitem.ToUint160(args[0])
			if err != nil {
				panic(err)
			}
			end, err := stackitem.ToUint32(args[1])
			if err != nil {
				panic(err)
			}
			return stackitem.NewBigInteger(n.UnclaimedGas(ic.DAO, acc, end))
		},
	})
	n.md.AddEvent(manifest.Event{
		Name: "CandidateStateChanged",
		Parameters: []manifest.Parameter{
			manifest.NewParameter("pubkey", smartcontract.PublicKeyType),
			manifest.NewParameter("registered", smartcontract.BoolType),
			manifest.NewParameter("votes", smartcontract.IntegerType),
		},
	})
	n.md.AddEvent(manifest.Event{
		Name: "Vote",
		Parameters: []manifest.Parameter{
			manifest.NewParameter("account", smartcontract.Hash160Type),
			manifest.NewParameter("from", smartcontract.PublicKeyType),
			manifest.NewParameter("to", smartcontract.PublicKeyType),
			manifest.NewParameter("amount", smartcontract.IntegerType),
		},
	})
}

func mustPublicKey(item stackitem.Item) *keys.PublicKey {
	raw, ok := item.Value().([]byte)
	if !ok {
		panic("native: value is not a public key")
	}
	pub, err := keys.NewPublicKeyFromBytes(raw, elliptic.P256())
	if err != nil {
		panic(err)
	}
	return pub
}

func pubKeysToStackItem(pubs []*keys.PublicKey) stackitem.Item {
	items := make([]stackitem.Item, len(pubs))
	for i, p := range pubs {
		items[i] = stackitem.NewByteArray(p.Bytes())
	}
	return stackitem.NewArray(items)
}

func heightOf(ic *interop.Context) uint32 {
	if ic.Block == nil {
		return 0
	}
	return ic.Block.Index
}

// Initialize seeds NEO's genesis allocation is left to the caller (there's
// no fixed single-account premine modeled here); hf/newMD match every
// native's lifecycle hook signature.
func (n *NEO) Initialize(ic *interop.Context, hf *config.Hardfork, newMD *HFSpecificContractMD) error {
	if hf != nil {
		return nil
	}
	return ic.DAO.PutStorageItem(n.id, []byte{gasPerBlockKey}, &state.StorageItem{
		Value: big.NewInt(defaultGASPerBlock).Bytes(),
	})
}

// InitializeCache loads every registered candidate into memory.
func (n *NEO) InitializeCache(d dao.DAO) error {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.candidates = make(map[string]*candidate)

	var fErr error
	d.Seek(n.id, storage.SeekRange{Prefix: []byte{candidatePrefix}}, func(k, v []byte) bool {
		key := k[1:]
		c := new(candidate)
		if err := stackitem.DeserializeConvertible(v, c); err != nil {
			fErr = err
			return false
		}
		n.candidates[string(key)] = c
		return true
	})
	return fErr
}

func candidateKey(pub *keys.PublicKey) []byte {
	b := make([]byte, 1+len(pub.Bytes()))
	b[0] = candidatePrefix
	copy(b[1:], pub.Bytes())
	return b
}

// BalanceOf returns acc's current NEO balance (its vote weight).
func (n *NEO) BalanceOf(d dao.DAO, acc util.Uint160) *big.Int {
	return n.getBalance(d, acc).Amount()
}

// RegisterCandidate marks pub as an active candidate, creating its record
// if this is the first time it has ever registered.
func (n *NEO) RegisterCandidate(d dao.DAO, pub *keys.PublicKey) error {
	key := candidateKey(pub)
	n.lock.Lock()
	defer n.lock.Unlock()

	c, ok := n.candidates[string(pub.Bytes())]
	if !ok {
		c = new(candidate)
	}
	c.Registered = true
	if err := n.putCandidate(d, key, c); err != nil {
		return err
	}
	n.candidates[string(pub.Bytes())] = c
	return nil
}

// UnregisterCandidate marks pub as no longer registered; its accumulated
// votes (if any) are kept on record rather than discarded, matching the
// network's behavior of not resetting votes on unregistration.
func (n *NEO) UnregisterCandidate(d dao.DAO, pub *keys.PublicKey) error {
	key := candidateKey(pub)
	n.lock.Lock()
	defer n.lock.Unlock()

	c, ok := n.candidates[string(pub.Bytes())]
	if !ok || !c.Registered {
		return nil
	}
	c.Registered = false
	if c.Votes.Sign() == 0 {
		if err := d.DeleteStorageItem(n.id, key); err != nil {
			return err
		}
		delete(n.candidates, string(pub.Bytes()))
		return nil
	}
	if err := n.putCandidate(d, key, c); err != nil {
		return err
	}
	n.candidates[string(pub.Bytes())] = c
	return nil
}

func (n *NEO) putCandidate(d dao.DAO, key []byte, c *candidate) error {
	data, err := stackitem.SerializeConvertible(c)
	if err != nil {
		return err
	}
	return d.PutStorageItem(n.id, key, &state.StorageItem{Value: data})
}

// Vote changes acc's vote target, moving its balance's weight off the
// previous candidate (if any) and onto voteTo (nil clears the vote). It
// reports false without error if voteTo names an unregistered candidate.
func (n *NEO) Vote(ic *interop.Context, acc util.Uint160, voteTo *keys.PublicKey) (bool, error) {
	n.lock.Lock()
	defer n.lock.Unlock()

	if voteTo != nil {
		c, ok := n.candidates[string(voteTo.Bytes())]
		if !ok || !c.Registered {
			return false, nil
		}
	}

	bal := n.getBalance(ic.DAO, acc).(*state.NEOBalance)
	if bal.VoteTo != nil {
		if err := n.addVotes(ic.DAO, bal.VoteTo, new(big.Int).Neg(&bal.Balance)); err != nil {
			return false, err
		}
	}
	bal.VoteTo = voteTo
	if voteTo != nil {
		if err := n.addVotes(ic.DAO, voteTo, &bal.Balance); err != nil {
			return false, err
		}
	}
	if err := n.putBalance(ic.DAO, acc, bal); err != nil {
		return false, err
	}
	return true, nil
}

// addVotes adjusts pub's candidate record by delta votes. Callers must
// hold n.lock.
func (n *NEO) addVotes(d dao.DAO, pub *keys.PublicKey, delta *big.Int) error {
	c, ok := n.candidates[string(pub.Bytes())]
	if !ok {
		c = new(candidate)
	}
	c.Votes.Add(&c.Votes, delta)
	if err := n.putCandidate(d, candidateKey(pub), c); err != nil {
		return err
	}
	n.candidates[string(pub.Bytes())] = c
	return nil
}

// adjustVotes is nep17Base's onTransfer hook: it moves the transferred
// amount's vote weight from the sender's candidate to the recipient's and
// stamps both accounts' claim checkpoint at the current height.
func (n *NEO) adjustVotes(ic *interop.Context, from, to util.Uint160, amount *big.Int, fromBalAny, toBalAny state.NEP17BalanceHolder) {
	height := heightOf(ic)
	fromBal := fromBalAny.(*state.NEOBalance)
	fromBal.BalanceHeight = height
	if from.Equals(to) {
		return
	}
	toBal := toBalAny.(*state.NEOBalance)
	toBal.BalanceHeight = height
	if amount.Sign() == 0 {
		return
	}

	n.lock.Lock()
	defer n.lock.Unlock()
	if fromBal.VoteTo != nil {
		if err := n.addVotes(ic.DAO, fromBal.VoteTo, new(big.Int).Neg(amount)); err != nil {
			panic(err)
		}
	}
	if toBal.VoteTo != nil {
		if err := n.addVotes(ic.DAO, toBal.VoteTo, amount); err != nil {
			panic(err)
		}
	}
}

// GetCandidates returns every currently registered candidate and its vote
// weight, ordered by descending votes then ascending key bytes, matching
// the order getCandidates reports them in.
func (n *NEO) GetCandidates(d dao.DAO) []state.Validator {
	n.lock.RLock()
	defer n.lock.RUnlock()

	var out []state.Validator
	for keyBytes, c := range n.candidates {
		if !c.Registered {
			continue
		}
		pub, err := keys.NewPublicKeyFromBytes([]byte(keyBytes), elliptic.P256())
		if err != nil {
			continue
		}
		out = append(out, state.Validator{Key: pub, Votes: new(big.Int).Set(&c.Votes)})
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Votes.Cmp(out[j].Votes); cmp != 0 {
			return cmp > 0
		}
		return string(out[i].Key.Bytes()) < string(out[j].Key.Bytes())
	})
	return out
}

// ComputeCommittee returns the current committee: the top committeeSize
// candidates by vote weight, falling back to the standby committee to
// fill any seats no candidate has claimed, sorted by public key bytes as
// the on-chain committee order requires.
func (n *NEO) ComputeCommittee(ic *interop.Context) ([]*keys.PublicKey, error) {
	return n.electTop(ic.DAO, n.cfg.GetCommitteeSize(heightOf(ic)))
}

// ComputeNextBlockValidators returns the first validatorsCount members of
// the current committee, sorted by public key bytes.
func (n *NEO) ComputeNextBlockValidators(ic *interop.Context) ([]*keys.PublicKey, error) {
	committee, err := n.ComputeCommittee(ic)
	if err != nil {
		return nil, err
	}
	count := n.cfg.GetNumOfCNs(heightOf(ic))
	if count < len(committee) {
		committee = committee[:count]
	}
	sorted := keys.PublicKeys(append([]*keys.PublicKey(nil), committee...))
	sort.Sort(sorted)
	return []*keys.PublicKey(sorted), nil
}

// CheckCommitteeWitness reports whether the current invocation carries
// the committee multisig account's witness; used by Policy and
// RoleManagement to gate their committee-only methods.
func (n *NEO) CheckCommitteeWitness(ic *interop.Context) bool {
	committee, err := n.ComputeCommittee(ic)
	if err != nil {
		return false
	}
	script, err := smartcontract.CreateDefaultMultiSigRedeemScript(committee)
	if err != nil {
		return false
	}
	return n.checkWitness(ic, hash.Hash160(script))
}

func (n *NEO) electTop(d dao.DAO, size int) ([]*keys.PublicKey, error) {
	cands := n.GetCandidates(d)
	out := make([]*keys.PublicKey, 0, size)
	for _, c := range cands {
		if len(out) == size {
			break
		}
		out = append(out, c.Key)
	}
	if len(out) < size {
		for _, pub := range n.standby {
			if len(out) == size {
				break
			}
			dup := false
			for _, existing := range out {
				if existing.Equal(pub) {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, pub)
			}
		}
	}
	sorted := keys.PublicKeys(out)
	sort.Sort(sorted)
	return []*keys.PublicKey(sorted), nil
}

// GasPerBlock returns the amount of GAS minted each block for the primary
// validator, in GAS fractions.
func (n *NEO) GasPerBlock(d dao.DAO) int64 {
	si := d.GetStorageItem(n.id, []byte{gasPerBlockKey})
	if si == nil {
		return defaultGASPerBlock
	}
	return new(big.Int).SetBytes(si.Value).Int64()
}

// UnclaimedGas estimates the GAS acc would receive if it claimed its NEO
// holding's reward as of block `end`: a flat per-NEO-per-block rate over
// the span since the account's balance was last touched. It deliberately
// doesn't model the network's bonus per-committee-membership curve.
func (n *NEO) UnclaimedGas(d dao.DAO, acc util.Uint160, end uint32) *big.Int {
	bal, ok := n.getBalance(d, acc).(*state.NEOBalance)
	if !ok || bal.Balance.Sign() == 0 || end <= bal.BalanceHeight {
		return big.NewInt(0)
	}
	blocks := big.NewInt(int64(end - bal.BalanceHeight))
	reward := new(big.Int).Mul(blocks, big.NewInt(n.GasPerBlock(d)))
	reward.Mul(reward, &bal.Balance)
	reward.Div(reward, neoTotalSupply)
	return reward
}

// OnPersist mints this block's GAS reward to the block's primary
// validator. It's called once per block from the chain facade's
// OnPersist trigger run.
func (n *NEO) OnPersist(ic *interop.Context) error {
	if n.GAS == nil || ic.Block == nil {
		return nil
	}
	validators, err := n.ComputeNextBlockValidators(ic)
	if err != nil || len(validators) == 0 {
		return err
	}
	primary := validators[int(ic.Block.PrimaryIndex)%len(validators)]
	return n.GAS.Mint(ic, primary.GetScriptHash(), big.NewInt(n.GasPerBlock(ic.DAO)))
}

func (n *NEO) checkWitness(ic *interop.Context, acc util.Uint160) bool {
	if n.CheckWitness == nil {
		return false
	}
	return n.CheckWitness(ic, acc)
}

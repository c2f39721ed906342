// Package mempool implements the tiered, fee-prioritized pool of verified
// transactions waiting to be included in a block: a bounded, reader/writer
// locked structure maintaining verified entries in fee-descending order,
// tracking per-sender GAS commitments, oracle-response and Conflicts
// attribute bookkeeping, and a stale-entry sweep with transaction resend.
package mempool

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// Feer answers the questions the pool needs to price and verify a
// transaction against chain state: the sender's spendable GAS, the
// current fee schedule, and which protocol extensions are active.
type Feer interface {
	FeePerByte() int64
	GetBaseExecFee() int64
	BlockHeight() uint32
	GetUtilityTokenBalance(acc util.Uint160) *big.Int
	P2PSigExtensionsEnabled() bool
}

// TxWithFee pairs a transaction with the network fee it pays; it's the
// shape a block producer consumes when selecting entries under a block's
// size and fee budget.
type TxWithFee struct {
	Tx  *transaction.Transaction
	Fee int64
}

// RemovalReason explains why a transaction left the pool.
type RemovalReason byte

// Removal reasons.
const (
	// ReasonBlock: the transaction was included in a persisted block.
	ReasonBlock RemovalReason = iota
	// ReasonExpired: ValidUntilBlock was reached without inclusion.
	ReasonExpired
	// ReasonReplaced: a higher-fee conflicting transaction took its place.
	ReasonReplaced
	// ReasonLowPriority: evicted to make room for a higher-priority entry.
	ReasonLowPriority
	// ReasonEvicted: removed by an explicit Remove call.
	ReasonEvicted
)

func (r RemovalReason) String() string {
	switch r {
	case ReasonBlock:
		return "Block"
	case ReasonExpired:
		return "Expired"
	case ReasonReplaced:
		return "Replaced"
	case ReasonLowPriority:
		return "LowPriority"
	case ReasonEvicted:
		return "Evicted"
	default:
		return "Unknown"
	}
}

// Errors returned by Pool.Add.
var (
	ErrDup                = errors.New("mempool: transaction is already in the pool")
	ErrOOM                = errors.New("mempool: pool is at capacity and this transaction does not outrank its lowest entry")
	ErrInsufficientFunds  = errors.New("mempool: sender's GAS balance cannot cover its pooled network and system fees")
	ErrConflictsAttribute = errors.New("mempool: Conflicts attribute could not be resolved in this transaction's favor")
	ErrOracleResponse     = errors.New("mempool: a pooled oracle response for this request id already has an equal or higher fee")
)

type item struct {
	txn        *transaction.Transaction
	blockStamp uint32
	data       interface{}
}

func isHighPriority(tx *transaction.Transaction) bool {
	for i := range tx.Attributes {
		if tx.Attributes[i].Type == transaction.HighPriority {
			return true
		}
	}
	return false
}

// CompareTo orders items by priority tier first (HighPriority-attributed
// transactions outrank everything else), then by fee-per-byte (compared by
// cross-multiplication to avoid floating point), then by hash for a
// deterministic tie-break.
func (i item) CompareTo(other item) int {
	p1, p2 := isHighPriority(i.txn), isHighPriority(other.txn)
	if p1 != p2 {
		if p1 {
			return 1
		}
		return -1
	}
	s1, s2 := int64(i.txn.Size()), int64(other.txn.Size())
	f1, f2 := i.txn.NetworkFee*s2, other.txn.NetworkFee*s1
	if f1 != f2 {
		if f1 > f2 {
			return 1
		}
		return -1
	}
	return bytes.Compare(i.txn.Hash().BytesBE(), other.txn.Hash().BytesBE())
}

type items []*item

func (p items) Len() int           { return len(p) }
func (p items) Less(i, j int) bool { return p[i].CompareTo(*p[j]) < 0 }
func (p items) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }

type utilityBalanceAndFees struct {
	balance *big.Int
	feeSum  *big.Int
}

// Pool is the verified transaction pool for one node.
type Pool struct {
	lock sync.RWMutex

	capacity int

	verifiedMap  map[util.Uint256]*item
	verifiedTxes items

	// conflicts maps a transaction hash to the hashes of pooled transactions
	// that declared a Conflicts attribute against it.
	conflicts map[util.Uint256][]util.Uint256
	// oracleResp maps an oracle request id to the hash of the pooled
	// OracleResponse transaction currently answering it.
	oracleResp map[uint64]util.Uint256

	fees map[util.Uint160]utilityBalanceAndFees

	resendThreshold uint32
	resendFunc      func(*transaction.Transaction, interface{})

	subs *subscriptions
}

// New creates a Pool holding at most capacity verified transactions.
// sizeHint preallocates the internal indexes for roughly that many entries.
// Subscriptions (RunSubscriptions/SubscribeForTransactions) are only usable
// when subscriptionsEnabled is true.
func New(capacity, sizeHint int, subscriptionsEnabled bool) *Pool {
	n := capacity + sizeHint
	return &Pool{
		capacity:     capacity,
		verifiedMap:  make(map[util.Uint256]*item, n),
		verifiedTxes: make(items, 0, n),
		conflicts:    make(map[util.Uint256][]util.Uint256),
		oracleResp:   make(map[uint64]util.Uint256),
		fees:         make(map[util.Uint160]utilityBalanceAndFees),
		subs:         newSubscriptions(subscriptionsEnabled),
	}
}

// Count returns the number of verified transactions currently pooled.
func (mp *Pool) Count() int {
	mp.lock.RLock()
	defer mp.lock.RUnlock()
	return len(mp.verifiedTxes)
}

// ContainsKey reports whether hash is pooled.
func (mp *Pool) ContainsKey(hash util.Uint256) bool {
	mp.lock.RLock()
	defer mp.lock.RUnlock()
	return mp.containsKey(hash)
}

func (mp *Pool) containsKey(hash util.Uint256) bool {
	_, ok := mp.verifiedMap[hash]
	return ok
}

// TryGetValue returns the pooled transaction for hash, if any.
func (mp *Pool) TryGetValue(hash util.Uint256) (*transaction.Transaction, bool) {
	mp.lock.RLock()
	defer mp.lock.RUnlock()
	it, ok := mp.verifiedMap[hash]
	if !ok {
		return nil, false
	}
	return it.txn, true
}

// TryGetData returns the opaque data attached to hash's transaction via
// Add, if hash is still present in the priority-ordered set (an entry
// demoted by direct verifiedTxes manipulation is considered gone, matching
// the invariant that verifiedMap alone does not guarantee retrievability).
func (mp *Pool) TryGetData(hash util.Uint256) (interface{}, bool) {
	mp.lock.RLock()
	defer mp.lock.RUnlock()
	it, ok := mp.verifiedMap[hash]
	if !ok {
		return nil, false
	}
	for _, e := range mp.verifiedTxes {
		if e == it {
			return it.data, true
		}
	}
	return nil, false
}

// GetVerifiedTransactions returns every pooled transaction, highest
// priority first.
func (mp *Pool) GetVerifiedTransactions() []*transaction.Transaction {
	mp.lock.RLock()
	defer mp.lock.RUnlock()
	out := make([]*transaction.Transaction, len(mp.verifiedTxes))
	for i, it := range mp.verifiedTxes {
		out[i] = it.txn
	}
	return out
}

// GetVerifiedTransactionsForBlock returns up to maxCount of the highest
// priority pooled transactions paired with their network fee, the set a
// block producer selects from under its own size/fee budget.
func (mp *Pool) GetVerifiedTransactionsForBlock(maxCount int) []TxWithFee {
	mp.lock.RLock()
	defer mp.lock.RUnlock()
	if maxCount > len(mp.verifiedTxes) {
		maxCount = len(mp.verifiedTxes)
	}
	out := make([]TxWithFee, maxCount)
	for i := 0; i < maxCount; i++ {
		out[i] = TxWithFee{Tx: mp.verifiedTxes[i].txn, Fee: mp.verifiedTxes[i].txn.NetworkFee}
	}
	return out
}

func txFeeTotal(tx *transaction.Transaction) *big.Int {
	return big.NewInt(tx.SystemFee + tx.NetworkFee)
}

// Verify reports whether tx's sender currently has enough GAS to cover its
// network and system fee on top of whatever this pool already committed
// for that sender, without mutating the pool.
func (mp *Pool) Verify(tx *transaction.Transaction, fee Feer) bool {
	mp.lock.RLock()
	defer mp.lock.RUnlock()
	return mp.checkBalance(tx, fee) == nil
}

func (mp *Pool) checkBalance(tx *transaction.Transaction, fee Feer) error {
	sender := tx.Sender()
	bf, ok := mp.fees[sender]
	if !ok {
		bf = utilityBalanceAndFees{balance: fee.GetUtilityTokenBalance(sender), feeSum: big.NewInt(0)}
	}
	need := new(big.Int).Add(bf.feeSum, txFeeTotal(tx))
	if need.Cmp(bf.balance) > 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func conflictAttrHashes(tx *transaction.Transaction) []util.Uint256 {
	var out []util.Uint256
	for i := range tx.Attributes {
		if tx.Attributes[i].Type == transaction.ConflictsT {
			out = append(out, tx.Attributes[i].Value.(*transaction.Conflicts).Hash)
		}
	}
	return out
}

func oracleResponseID(tx *transaction.Transaction) (uint64, bool) {
	for i := range tx.Attributes {
		if tx.Attributes[i].Type == transaction.OracleResponseT {
			return tx.Attributes[i].Value.(*transaction.OracleResponse).ID, true
		}
	}
	return 0, false
}

// Add verifies tx's GAS affordability and Conflicts/OracleResponse
// attribute standing, then inserts it into the priority-ordered set,
// evicting the lowest-priority entry if the pool is at capacity. data, if
// given, is opaque caller data retrievable later via TryGetData (e.g. the
// P2P notary request a fallback transaction arrived with).
func (mp *Pool) Add(tx *transaction.Transaction, fee Feer, data ...interface{}) error {
	mp.lock.Lock()
	defer mp.lock.Unlock()

	hash := tx.Hash()
	if mp.containsKey(hash) {
		return ErrDup
	}
	if err := mp.checkBalance(tx, fee); err != nil {
		return err
	}

	if id, ok := oracleResponseID(tx); ok {
		if existing, has := mp.oracleResp[id]; has {
			old := mp.verifiedMap[existing]
			if old != nil && old.txn.NetworkFee >= tx.NetworkFee {
				return ErrOracleResponse
			}
			mp.removeLocked(existing, fee, ReasonReplaced)
		}
	}

	// Step 1: some already-pooled transaction declared a conflict against
	// this one before it arrived.
	for _, attacker := range mp.conflicts[hash] {
		old := mp.verifiedMap[attacker]
		if old == nil {
			continue
		}
		if old.txn.NetworkFee >= tx.NetworkFee {
			return ErrConflictsAttribute
		}
		mp.removeLocked(attacker, fee, ReasonReplaced)
	}

	// Step 2: this transaction declares conflicts against already-pooled
	// victims.
	victims := conflictAttrHashes(tx)
	for _, victim := range victims {
		old, ok := mp.verifiedMap[victim]
		if !ok {
			continue
		}
		if old.txn.NetworkFee >= tx.NetworkFee {
			return ErrConflictsAttribute
		}
		mp.removeLocked(victim, fee, ReasonReplaced)
	}
	for _, victim := range victims {
		mp.conflicts[victim] = append(mp.conflicts[victim], hash)
	}

	if len(mp.verifiedTxes) >= mp.capacity {
		worst := mp.verifiedTxes[len(mp.verifiedTxes)-1]
		it := &item{txn: tx}
		if it.CompareTo(*worst) <= 0 {
			return ErrOOM
		}
		mp.removeLocked(worst.txn.Hash(), fee, ReasonLowPriority)
	}

	it := &item{txn: tx, blockStamp: fee.BlockHeight()}
	if len(data) > 0 {
		it.data = data[0]
	}
	if id, ok := oracleResponseID(tx); ok {
		mp.oracleResp[id] = hash
	}
	mp.verifiedMap[hash] = it
	idx := sort.Search(len(mp.verifiedTxes), func(i int) bool {
		return mp.verifiedTxes[i].CompareTo(*it) <= 0
	})
	mp.verifiedTxes = append(mp.verifiedTxes, nil)
	copy(mp.verifiedTxes[idx+1:], mp.verifiedTxes[idx:])
	mp.verifiedTxes[idx] = it

	sender := tx.Sender()
	bf, ok := mp.fees[sender]
	if !ok {
		bf = utilityBalanceAndFees{balance: fee.GetUtilityTokenBalance(sender), feeSum: big.NewInt(0)}
	}
	bf.feeSum = new(big.Int).Add(bf.feeSum, txFeeTotal(tx))
	mp.fees[sender] = bf

	mp.subs.notify(Event{Type: TransactionAdded, Tx: tx})
	return nil
}

// Remove purges hash from the pool, firing ReasonEvicted.
func (mp *Pool) Remove(hash util.Uint256, fee Feer) {
	mp.lock.Lock()
	defer mp.lock.Unlock()
	mp.removeLocked(hash, fee, ReasonEvicted)
}

func (mp *Pool) removeLocked(hash util.Uint256, fee Feer, reason RemovalReason) {
	it, ok := mp.verifiedMap[hash]
	if !ok {
		return
	}
	delete(mp.verifiedMap, hash)
	for i, e := range mp.verifiedTxes {
		if e == it {
			mp.verifiedTxes = append(mp.verifiedTxes[:i], mp.verifiedTxes[i+1:]...)
			break
		}
	}
	if id, ok := oracleResponseID(it.txn); ok {
		if mp.oracleResp[id] == hash {
			delete(mp.oracleResp, id)
		}
	}
	for _, victim := range conflictAttrHashes(it.txn) {
		attackers := mp.conflicts[victim]
		for i, h := range attackers {
			if h == hash {
				attackers = append(attackers[:i], attackers[i+1:]...)
				break
			}
		}
		if len(attackers) == 0 {
			delete(mp.conflicts, victim)
		} else {
			mp.conflicts[victim] = attackers
		}
	}
	delete(mp.conflicts, hash)

	sender := it.txn.Sender()
	if bf, ok := mp.fees[sender]; ok {
		bf.feeSum = new(big.Int).Sub(bf.feeSum, txFeeTotal(it.txn))
		if bf.feeSum.Sign() <= 0 {
			delete(mp.fees, sender)
		} else {
			mp.fees[sender] = bf
		}
	}
	_ = fee
	mp.subs.notify(Event{Type: TransactionRemoved, Tx: it.txn})
}

// RemoveStale drops every pooled transaction for which isValid returns
// false, and for the rest, resends any whose blockStamp has fallen more
// than resendThreshold blocks behind the current height.
func (mp *Pool) RemoveStale(isValid func(*transaction.Transaction) bool, fee Feer) {
	mp.lock.Lock()
	defer mp.lock.Unlock()

	height := fee.BlockHeight()
	var stale []util.Uint256
	for hash, it := range mp.verifiedMap {
		if !isValid(it.txn) {
			stale = append(stale, hash)
			continue
		}
		if mp.resendThreshold != 0 && mp.resendFunc != nil &&
			height > it.blockStamp && (height-it.blockStamp)%mp.resendThreshold == 0 {
			mp.resendFunc(it.txn, it.data)
		}
	}
	for _, hash := range stale {
		mp.removeLocked(hash, fee, ReasonExpired)
	}
}

// SetResendThreshold arranges for f to be called with every still-pooled
// transaction whose blockStamp trails the chain by a multiple of
// threshold blocks, each time RemoveStale runs.
func (mp *Pool) SetResendThreshold(threshold uint32, f func(*transaction.Transaction, interface{})) {
	mp.lock.Lock()
	defer mp.lock.Unlock()
	mp.resendThreshold = threshold
	mp.resendFunc = f
}

func (mp *Pool) String() string {
	mp.lock.RLock()
	defer mp.lock.RUnlock()
	return fmt.Sprintf("mempool(%d/%d)", len(mp.verifiedTxes), mp.capacity)
}

// Package core implements the blockchain itself: block/transaction
// persistence, the native contract set and the VM-backed witness
// verification that together let a node validate and apply new blocks.
package core

import (
	"crypto/elliptic"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/neocorelabs/neo-core/pkg/config"
	"github.com/neocorelabs/neo-core/pkg/core/block"
	"github.com/neocorelabs/neo-core/pkg/core/blockchainer"
	"github.com/neocorelabs/neo-core/pkg/core/blockchainer/services"
	"github.com/neocorelabs/neo-core/pkg/core/dao"
	"github.com/neocorelabs/neo-core/pkg/core/interop"
	"github.com/neocorelabs/neo-core/pkg/core/interop/interopnames"
	"github.com/neocorelabs/neo-core/pkg/core/mempool"
	"github.com/neocorelabs/neo-core/pkg/core/native"
	"github.com/neocorelabs/neo-core/pkg/core/state"
	"github.com/neocorelabs/neo-core/pkg/core/storage"
	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/crypto/hash"
	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/smartcontract"
	"github.com/neocorelabs/neo-core/pkg/smartcontract/trigger"
	"github.com/neocorelabs/neo-core/pkg/util"
	"github.com/neocorelabs/neo-core/pkg/vm"
	"github.com/neocorelabs/neo-core/pkg/vm/emit"
	"github.com/neocorelabs/neo-core/pkg/vm/stackitem"
	"go.uber.org/zap"
)

// Errors returned while adding blocks/headers to the chain.
var (
	ErrOutOfOrderBlock  = errors.New("core: block index out of order")
	ErrOutOfOrderHeader = errors.New("core: header index out of order")
	ErrHdrHashMismatch  = errors.New("core: header does not chain from the current block")
	ErrHdrStateMismatch = errors.New("core: genesis header must have a zero previous hash")
	ErrMerkleMismatch   = errors.New("core: merkle root does not match transaction set")
)

const defaultMemPoolSize = 50000

// Blockchain is the node's view of the chain: it persists blocks and
// transactions through the DAO layer, keeps the native contract set up to
// date, and answers every query the P2P server, consensus service and RPC
// layer need via the [blockchainer.Blockchainer] interface.
//
// Two upstream-scale pieces are intentionally out of this implementation:
// genesis block construction (the caller supplies block 0 like any other
// block, built by whatever bootstraps the network) and per-transaction VM
// execution against deployed/native contracts (AddBlock persists blocks
// and transactions but does not run their scripts, so GAS/NEO balances,
// NEP-17 transfer history and notification events are not produced by this
// chain). Both are recorded as open limitations in the project's design
// notes.
type Blockchain struct {
	cfg config.ProtocolConfiguration
	log *zap.Logger

	dao       *dao.Simple
	contracts *native.Contracts
	memPool   *mempool.Pool

	standbyCommittee keys.PublicKeys
	committeeScript  []byte
	committeeHash    util.Uint160

	mu           sync.RWMutex
	hasBlocks    bool
	blockHeight  uint32
	currentHash  util.Uint256
	headerHashes []util.Uint256
	headerByHash map[util.Uint256]*block.Header

	postBlockMu sync.Mutex
	postBlock   []func(blockchainer.Blockchainer, *mempool.Pool, *block.Block)

	subMu     sync.Mutex
	blockSubs []chan<- *block.Block
	execSubs  []chan<- *state.AppExecResult
	notifSubs []chan<- *state.NotificationEvent
	txSubs    []chan<- *transaction.Transaction

	notary services.Notary
	oracle services.Oracle
}

// NewBlockchain creates a Blockchain persisting to store, under the given
// protocol configuration. If store has no blocks yet, the native
// contracts' default storage values are seeded immediately so the chain is
// ready to accept a genesis block.
func NewBlockchain(store storage.Store, cfg config.ProtocolConfiguration, log *zap.Logger) (*Blockchain, error) {
	if log == nil {
		log = zap.NewNop()
	}
	committee, err := committeeFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	script, err := smartcontract.CreateDefaultMultiSigRedeemScript(committee)
	if err != nil {
		return nil, fmt.Errorf("core: deriving committee account: %w", err)
	}

	poolSize := cfg.MemPoolSize
	if poolSize <= 0 {
		poolSize = defaultMemPoolSize
	}

	bc := &Blockchain{
		cfg:              cfg,
		log:              log,
		dao:              dao.NewSimple(store, cfg.StateRootInHeader, cfg.P2PSigExtensions),
		contracts:        native.NewContracts(cfg),
		memPool:          mempool.New(poolSize, 0, true),
		standbyCommittee: committee,
		committeeScript:  script,
		committeeHash:    hash.Hash160(script),
		headerByHash:     make(map[util.Uint256]*block.Header),
	}

	height, err := bc.dao.GetCurrentBlockHeight()
	switch {
	case err == nil:
		bc.hasBlocks = true
		bc.blockHeight = height
		hashes := make([]util.Uint256, height+1)
		for i := uint32(0); i <= height; i++ {
			h, err := bc.dao.GetBlockHash(i)
			if err != nil {
				return nil, fmt.Errorf("core: loading block hash at %d: %w", i, err)
			}
			hashes[i] = h
		}
		bc.headerHashes = hashes
		bc.currentHash = hashes[height]
	case errors.Is(err, storage.ErrKeyNotFound):
		if err := bc.bootstrapNatives(); err != nil {
			return nil, fmt.Errorf("core: seeding native contracts: %w", err)
		}
	default:
		return nil, fmt.Errorf("core: reading current block height: %w", err)
	}

	isHardforkEnabled := func(hf *config.Hardfork, height uint32) bool {
		if hf == nil {
			return true
		}
		activation, ok := cfg.Hardforks[hf.String()]
		return ok && height >= activation
	}
	if err := bc.contracts.Management.InitializeCache(isHardforkEnabled, bc.blockHeight, bc.dao); err != nil {
		return nil, fmt.Errorf("core: loading contract cache: %w", err)
	}
	if err := bc.contracts.Neo.InitializeCache(bc.dao); err != nil {
		return nil, fmt.Errorf("core: loading candidate cache: %w", err)
	}
	if err := bc.contracts.Designate.InitializeCache(bc.blockHeight, bc.dao); err != nil {
		return nil, fmt.Errorf("core: loading designated-role cache: %w", err)
	}

	return bc, nil
}

// committeeFromConfig parses the configured standby committee into public
// keys. There being no NEO native contract yet to tally votes, the standby
// committee also stands in as the chain's only committee/validator set.
func committeeFromConfig(cfg config.ProtocolConfiguration) (keys.PublicKeys, error) {
	if len(cfg.StandbyCommittee) == 0 {
		return nil, errors.New("no StandbyCommittee configured")
	}
	committee := make(keys.PublicKeys, len(cfg.StandbyCommittee))
	for i, s := range cfg.StandbyCommittee {
		pub, err := keys.NewPublicKeyFromString(s)
		if err != nil {
			return nil, fmt.Errorf("standby committee member %d: %w", i, err)
		}
		committee[i] = pub
	}
	return committee, nil
}

// bootstrapNatives seeds the native contracts' default storage values
// (Policy's fee/price defaults, Management's next-available-ID counter)
// before any block, genesis included, has been persisted.
func (bc *Blockchain) bootstrapNatives() error {
	ic := &interop.Context{
		Hardforks: bc.cfg.Hardforks,
		Trigger:   trigger.OnPersist,
		Network:   uint32(bc.cfg.Magic),
		DAO:       bc.dao,
	}
	if err := bc.contracts.Management.Initialize(ic, nil, nil); err != nil {
		return err
	}
	if err := bc.contracts.Policy.Initialize(ic, nil, nil); err != nil {
		return err
	}
	if err := bc.contracts.Neo.Initialize(ic, nil, nil); err != nil {
		return err
	}
	if err := bc.contracts.Gas.Initialize(ic, nil, nil); err != nil {
		return err
	}
	if err := bc.contracts.Designate.Initialize(ic, nil, nil); err != nil {
		return err
	}
	if err := bc.contracts.Oracle.Initialize(ic, nil, nil); err != nil {
		return err
	}
	_, err := bc.dao.Persist()
	return err
}

// interopContext builds the native-contract execution context for b under
// trig.
func (bc *Blockchain) interopContext(b *block.Block, trig trigger.Type) *interop.Context {
	return &interop.Context{
		Hardforks:          bc.cfg.Hardforks,
		Block:              b,
		Trigger:            trig,
		Network:            uint32(bc.cfg.Magic),
		DAO:                bc.dao,
		MaxTraceableBlocks: bc.cfg.MaxTraceableBlocks,
	}
}

// queryContext builds a read-only native-contract context for facade
// queries made outside block processing (current height, no transaction).
func (bc *Blockchain) queryContext() *interop.Context {
	return bc.interopContext(&block.Block{Header: block.Header{Index: bc.BlockHeight()}}, trigger.Verification)
}

// GetConfig implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetConfig() config.ProtocolConfiguration { return bc.cfg }

// Close implements [blockchainer.Blockchainer].
func (bc *Blockchain) Close() {
	if err := bc.dao.Store.Close(); err != nil {
		bc.log.Warn("error closing storage", zap.Error(err))
	}
}

// BlockHeight implements [blockchainer.Blockqueuer] and [mempool.Feer].
func (bc *Blockchain) BlockHeight() uint32 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.blockHeight
}

// HeaderHeight implements [blockchainer.Blockchainer].
func (bc *Blockchain) HeaderHeight() uint32 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if len(bc.headerHashes) == 0 {
		return 0
	}
	return uint32(len(bc.headerHashes) - 1)
}

// AddHeaders implements [blockchainer.Blockqueuer]: it records header
// hashes ahead of the chain's current block height, for the block bodies
// to catch up to later via AddBlock.
func (bc *Blockchain) AddHeaders(hdrs ...*block.Header) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	for _, h := range hdrs {
		next := uint32(len(bc.headerHashes))
		if h.Index < next {
			continue
		}
		if h.Index != next {
			return fmt.Errorf("%w: header %d, expected %d", ErrOutOfOrderHeader, h.Index, next)
		}
		if next == 0 {
			if !h.PrevHash.Equals(util.Uint256{}) {
				return ErrHdrStateMismatch
			}
		} else if !h.PrevHash.Equals(bc.headerHashes[next-1]) {
			return fmt.Errorf("%w: header %d", ErrHdrHashMismatch, h.Index)
		}
		bc.headerHashes = append(bc.headerHashes, h.Hash())
		bc.headerByHash[h.Hash()] = h
	}
	return nil
}

// AddBlock implements [blockchainer.Blockqueuer]: it validates b's place
// in the chain, persists it and its transactions, runs the Policy native
// contract's post-persist hook, and notifies subscribers and registered
// post-block callbacks.
func (bc *Blockchain) AddBlock(b *block.Block) error {
	bc.mu.Lock()

	expected := uint32(0)
	if bc.hasBlocks {
		expected = bc.blockHeight + 1
	}
	if b.Index != expected {
		bc.mu.Unlock()
		return fmt.Errorf("%w: block %d, expected %d", ErrOutOfOrderBlock, b.Index, expected)
	}
	if bc.hasBlocks {
		if !b.PrevHash.Equals(bc.currentHash) {
			bc.mu.Unlock()
			return fmt.Errorf("%w: block %d", ErrHdrHashMismatch, b.Index)
		}
	} else if !b.PrevHash.Equals(util.Uint256{}) {
		bc.mu.Unlock()
		return ErrHdrStateMismatch
	}
	if !b.MerkleRoot.Equals(b.ComputeMerkleRoot()) {
		bc.mu.Unlock()
		return ErrMerkleMismatch
	}

	buf := io.NewBufBinWriter()
	if err := bc.dao.StoreAsCurrentBlock(b, buf); err != nil {
		bc.mu.Unlock()
		return fmt.Errorf("core: storing block %s: %w", b.Hash().StringLE(), err)
	}
	for _, tx := range b.Transactions {
		buf.Reset()
		if err := bc.dao.StoreAsTransaction(tx, b.Index, buf); err != nil {
			bc.mu.Unlock()
			return fmt.Errorf("core: storing transaction %s: %w", tx.Hash().StringLE(), err)
		}
	}

	onPersistIc := bc.interopContext(b, trigger.OnPersist)
	if err := bc.contracts.Neo.OnPersist(onPersistIc); err != nil {
		bc.log.Warn("neo contract on-persist failed", zap.Error(err))
	}

	ic := bc.interopContext(b, trigger.PostPersist)
	if err := bc.contracts.Policy.PostPersist(ic); err != nil {
		bc.log.Warn("policy contract post-persist failed", zap.Error(err))
	}

	if _, err := bc.dao.Persist(); err != nil {
		bc.mu.Unlock()
		return fmt.Errorf("core: persisting block %s: %w", b.Hash().StringLE(), err)
	}

	bc.hasBlocks = true
	bc.blockHeight = b.Index
	bc.currentHash = b.Hash()
	if uint32(len(bc.headerHashes)) == b.Index {
		bc.headerHashes = append(bc.headerHashes, b.Hash())
	}
	delete(bc.headerByHash, b.Hash())
	bc.mu.Unlock()

	for _, tx := range b.Transactions {
		bc.memPool.Remove(tx.Hash(), bc)
	}

	bc.notifyBlock(b)
	for _, tx := range b.Transactions {
		bc.notifyTransaction(tx)
	}

	bc.postBlockMu.Lock()
	hooks := append([]func(blockchainer.Blockchainer, *mempool.Pool, *block.Block){}, bc.postBlock...)
	bc.postBlockMu.Unlock()
	for _, f := range hooks {
		f(bc, bc.memPool, b)
	}
	return nil
}

// RegisterPostBlock implements [blockchainer.Blockchainer].
func (bc *Blockchain) RegisterPostBlock(f func(blockchainer.Blockchainer, *mempool.Pool, *block.Block)) {
	bc.postBlockMu.Lock()
	defer bc.postBlockMu.Unlock()
	bc.postBlock = append(bc.postBlock, f)
}

// GetHeaderHash implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetHeaderHash(n int) util.Uint256 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if n < 0 || n >= len(bc.headerHashes) {
		return util.Uint256{}
	}
	return bc.headerHashes[n]
}

// CurrentHeaderHash implements [blockchainer.Blockchainer].
func (bc *Blockchain) CurrentHeaderHash() util.Uint256 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if len(bc.headerHashes) == 0 {
		return util.Uint256{}
	}
	return bc.headerHashes[len(bc.headerHashes)-1]
}

// CurrentBlockHash implements [blockchainer.Blockchainer].
func (bc *Blockchain) CurrentBlockHash() util.Uint256 {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.currentHash
}

// HasBlock implements [blockchainer.Blockchainer].
func (bc *Blockchain) HasBlock(h util.Uint256) bool {
	_, err := bc.dao.GetBlock(h)
	return err == nil
}

// GetBlock implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetBlock(h util.Uint256) (*block.Block, error) {
	return bc.dao.GetBlock(h)
}

// GetHeader implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetHeader(h util.Uint256) (*block.Header, error) {
	bc.mu.RLock()
	if hdr, ok := bc.headerByHash[h]; ok {
		bc.mu.RUnlock()
		return hdr, nil
	}
	bc.mu.RUnlock()
	b, err := bc.dao.GetBlock(h)
	if err != nil {
		return nil, err
	}
	return &b.Header, nil
}

// HasTransaction implements [blockchainer.Blockchainer].
func (bc *Blockchain) HasTransaction(h util.Uint256) bool {
	return bc.dao.HasTransaction(h) != nil
}

// GetTransaction implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetTransaction(h util.Uint256) (*transaction.Transaction, uint32, error) {
	return bc.dao.GetTransaction(h)
}

// GetAppExecResults implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetAppExecResults(h util.Uint256, trig trigger.Type) ([]state.AppExecResult, error) {
	return bc.dao.GetAppExecResults(h, trig)
}

// GetContractState implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetContractState(h util.Uint160) *state.Contract {
	cs, err := bc.dao.GetContractState(h)
	if err != nil {
		return nil
	}
	return cs
}

// GetContractScriptHash implements [blockchainer.Blockchainer]. Only
// native contracts are resolvable by id here: this reduced chain keeps no
// id-to-hash index for regularly deployed contracts (see
// [storage.STContractID]).
func (bc *Blockchain) GetContractScriptHash(id int32) (util.Uint160, error) {
	for _, c := range bc.contracts.Contracts {
		if c.Metadata().ID == id {
			return c.Metadata().Hash, nil
		}
	}
	return util.Uint160{}, fmt.Errorf("core: no script hash index for contract id %d", id)
}

// GetNativeContractScriptHash implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetNativeContractScriptHash(name string) (util.Uint160, error) {
	c := bc.contracts.ByName(name)
	if c == nil {
		return util.Uint160{}, fmt.Errorf("core: unknown native contract %q", name)
	}
	return c.Metadata().Hash, nil
}

// GetStorageItem implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetStorageItem(id int32, key []byte) state.StorageItem {
	si := bc.dao.GetStorageItem(id, key)
	if si == nil {
		return state.StorageItem{}
	}
	return *si
}

// GetStorageItems implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetStorageItems(id int32) (map[string]state.StorageItem, error) {
	items := make(map[string]state.StorageItem)
	var decErr error
	bc.dao.Seek(id, storage.SeekRange{}, func(k, v []byte) bool {
		si := state.StorageItem{}
		r := io.NewBinReaderFromBuf(v)
		si.DecodeBinary(r)
		if r.Err != nil {
			decErr = r.Err
			return false
		}
		items[string(k)] = si
		return true
	})
	if decErr != nil {
		return nil, decErr
	}
	return items, nil
}

// GetNatives implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetNatives() []state.NativeContract {
	result := make([]state.NativeContract, 0, len(bc.contracts.Contracts))
	for _, c := range bc.contracts.Contracts {
		md := c.Metadata()
		cs, err := bc.dao.GetContractState(md.Hash)
		if err != nil {
			cs = &state.Contract{ID: md.ID, Hash: md.Hash, Manifest: md.Manifest}
		}
		result = append(result, state.NativeContract{Contract: *cs})
	}
	return result
}

// ManagementContractHash implements [blockchainer.Blockchainer].
func (bc *Blockchain) ManagementContractHash() util.Uint160 {
	return bc.contracts.Management.Metadata().Hash
}

// GetStandByCommittee implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetStandByCommittee() keys.PublicKeys {
	return append(keys.PublicKeys{}, bc.standbyCommittee...)
}

// GetStandByValidators implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetStandByValidators() keys.PublicKeys {
	n := bc.cfg.GetNumOfCNs(bc.BlockHeight())
	if n > len(bc.standbyCommittee) {
		n = len(bc.standbyCommittee)
	}
	return append(keys.PublicKeys{}, bc.standbyCommittee[:n]...)
}

// GetCommittee implements [blockchainer.Blockchainer]: the NEO native
// contract's top vote-weighted candidates, falling back to the standby
// committee to fill any unclaimed seats.
func (bc *Blockchain) GetCommittee() (keys.PublicKeys, error) {
	pubs, err := bc.contracts.Neo.ComputeCommittee(bc.queryContext())
	if err != nil {
		return nil, err
	}
	c := keys.PublicKeys(pubs)
	c.Sort()
	return c, nil
}

// GetValidators implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetValidators() ([]*keys.PublicKey, error) {
	return bc.contracts.Neo.ComputeNextBlockValidators(bc.queryContext())
}

// GetNextBlockValidators implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetNextBlockValidators() ([]*keys.PublicKey, error) {
	return bc.GetValidators()
}

// GetEnrollments implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetEnrollments() ([]state.Validator, error) {
	return bc.contracts.Neo.GetCandidates(bc.dao), nil
}

// GetGoverningTokenBalance implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetGoverningTokenBalance(acc util.Uint160) (*big.Int, uint32) {
	return bc.contracts.Neo.BalanceOf(bc.dao, acc), bc.BlockHeight()
}

// GetUtilityTokenBalance implements [mempool.Feer] and
// [blockchainer.Blockchainer].
func (bc *Blockchain) GetUtilityTokenBalance(acc util.Uint160) *big.Int {
	return bc.contracts.Gas.BalanceOf(bc.dao, acc)
}

// CalculateClaimable implements [blockchainer.Blockchainer].
func (bc *Blockchain) CalculateClaimable(acc util.Uint160, end uint32) (*big.Int, error) {
	return bc.contracts.Neo.UnclaimedGas(bc.dao, acc, end), nil
}

// ForEachNEP17Transfer implements [blockchainer.Blockchainer]. No transfer
// history index is kept: NEO and GAS transfers happen but aren't logged
// for later replay here.
func (bc *Blockchain) ForEachNEP17Transfer(util.Uint160, func(*state.NEP17Transfer) (bool, error)) error {
	return nil
}

// GetNEP17Balances implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetNEP17Balances(acc util.Uint160) *state.NEP17Balances {
	balances := make(map[util.Uint160]state.NEP17Balance)
	if neoBal := bc.contracts.Neo.BalanceOf(bc.dao, acc); neoBal.Sign() != 0 {
		balances[bc.contracts.Neo.Metadata().Hash] = state.NEP17Balance{Balance: *neoBal}
	}
	if gasBal := bc.contracts.Gas.BalanceOf(bc.dao, acc); gasBal.Sign() != 0 {
		balances[bc.contracts.Gas.Metadata().Hash] = state.NEP17Balance{Balance: *gasBal}
	}
	return &state.NEP17Balances{Balances: balances}
}

// IsExtensibleAllowed implements [blockchainer.Blockchainer]: only the
// committee account may sign extensible payloads in this configuration.
func (bc *Blockchain) IsExtensibleAllowed(h util.Uint160) bool {
	return h.Equals(bc.committeeHash)
}

// ApplyPolicyToTxSet implements [blockchainer.Blockchainer]: it greedily
// fills a block up to its configured transaction count and system fee
// limits, in whatever order the caller already sorted txes in.
func (bc *Blockchain) ApplyPolicyToTxSet(txes []*transaction.Transaction) []*transaction.Transaction {
	maxCount := int(bc.cfg.MaxTransactionsPerBlock)
	if maxCount == 0 || maxCount > len(txes) {
		maxCount = len(txes)
	}
	result := make([]*transaction.Transaction, 0, maxCount)
	var sysFee int64
	for _, tx := range txes {
		if len(result) >= maxCount {
			break
		}
		if bc.cfg.MaxBlockSystemFee != 0 && sysFee+tx.SystemFee > bc.cfg.MaxBlockSystemFee {
			continue
		}
		sysFee += tx.SystemFee
		result = append(result, tx)
	}
	return result
}

// IsTxStillRelevant implements [blockchainer.Blockchainer].
func (bc *Blockchain) IsTxStillRelevant(t *transaction.Transaction, _ *mempool.Pool, isPartialTx bool) bool {
	if t.ValidUntilBlock <= bc.BlockHeight() {
		return false
	}
	if bc.HasTransaction(t.Hash()) {
		return false
	}
	if isPartialTx {
		return true
	}
	return bc.VerifyTx(t) == nil
}

// VerifyTx implements [blockchainer.Blockchainer]: it checks t's validity
// window and every signer's witness.
func (bc *Blockchain) VerifyTx(t *transaction.Transaction) error {
	height := bc.BlockHeight()
	if t.ValidUntilBlock <= height || (bc.cfg.MaxValidUntilBlockIncrement != 0 && t.ValidUntilBlock > height+bc.cfg.MaxValidUntilBlockIncrement) {
		return fmt.Errorf("core: transaction %s has an invalid validity window", t.Hash().StringLE())
	}
	if bc.HasTransaction(t.Hash()) {
		return fmt.Errorf("core: transaction %s is already on chain", t.Hash().StringLE())
	}
	if len(t.Signers) == 0 || len(t.Signers) != len(t.Scripts) {
		return fmt.Errorf("core: transaction %s has a malformed signer/witness list", t.Hash().StringLE())
	}
	gasLimit := bc.GetMaxVerificationGAS()
	for i, signer := range t.Signers {
		if err := bc.VerifyWitness(signer.Account, t, &t.Scripts[i], gasLimit); err != nil {
			return fmt.Errorf("core: transaction %s signer %d: %w", t.Hash().StringLE(), i, err)
		}
	}
	return nil
}

// checkSigID and checkMultisigID are the syscall identifiers the standard
// signature/multisig verification scripts invoke, derived the same way
// [emit.Syscall] encodes them into a script.
var (
	checkSigID      = emit.InteropNameToID([]byte(interopnames.SystemCryptoCheckSig))
	checkMultisigID = emit.InteropNameToID([]byte(interopnames.SystemCryptoCheckMultisig))
)

// verificationSyscall returns the syscall handler a verification-script VM
// run uses to resolve System.Crypto.CheckSig/CheckMultisig against item's
// signed data. Every other syscall faults: verification scripts outside
// those two standard forms would need full contract-call interop, which
// this chain doesn't wire into VM execution.
func verificationSyscall(item hash.Hashable) vm.SyscallFunc {
	msg := item.Hash().BytesBE()
	return func(v *vm.VM, id uint32) error {
		switch id {
		case checkSigID:
			// The invocation script runs first and pushes the signature;
			// the verification script runs second and pushes the pubkey
			// on top of it, so the pubkey comes off the stack first.
			pubBytes, pok := v.Estack().Pop().Value().([]byte)
			sig, sok := v.Estack().Pop().Value().([]byte)
			if !sok || !pok {
				return errors.New("core: CheckSig: malformed arguments")
			}
			pub, err := keys.NewPublicKeyFromBytes(pubBytes, elliptic.P256())
			ok := err == nil && pub.Verify(sig, msg)
			v.Estack().Push(stackitem.NewBool(ok))
			return nil
		case checkMultisigID:
			// Same execution order as CheckSig: the verification script's
			// pushes (n, pubN..pub1, m) come off the stack before the
			// invocation script's (sigM..sig1), each in reverse of the
			// order its script emitted them in.
			n, nok := v.Estack().Pop().Value().(*big.Int)
			if !nok || !n.IsInt64() || n.Int64() <= 0 {
				return errors.New("core: CheckMultisig: malformed pubkey count")
			}
			pubs := make([]*keys.PublicKey, n.Int64())
			for i := n.Int64() - 1; i >= 0; i-- {
				b, ok := v.Estack().Pop().Value().([]byte)
				if !ok {
					return errors.New("core: CheckMultisig: malformed pubkey")
				}
				pub, err := keys.NewPublicKeyFromBytes(b, elliptic.P256())
				if err != nil {
					return fmt.Errorf("core: CheckMultisig: %w", err)
				}
				pubs[i] = pub
			}
			m, mok := v.Estack().Pop().Value().(*big.Int)
			if !mok || !m.IsInt64() || m.Int64() <= 0 {
				return errors.New("core: CheckMultisig: malformed signature count")
			}
			sigs := make([][]byte, m.Int64())
			for i := m.Int64() - 1; i >= 0; i-- {
				b, ok := v.Estack().Pop().Value().([]byte)
				if !ok {
					return errors.New("core: CheckMultisig: malformed signature")
				}
				sigs[i] = b
			}
			v.Estack().Push(stackitem.NewBool(verifyMultisig(pubs, sigs, msg)))
			return nil
		default:
			return fmt.Errorf("core: syscall %08x not available to verification scripts", id)
		}
	}
}

// verifyMultisig reports whether every signature in sigs matches a
// distinct key in pubs against msg, in order (the order the standard
// multisig redeem script requires of its invocation script). This is a
// simpler, order-preserving match rather than the sliding-window algorithm
// standard Neo multisig verification uses; it accepts every genuinely
// signed, correctly ordered signature set and rejects everything else.
func verifyMultisig(pubs []*keys.PublicKey, sigs [][]byte, msg []byte) bool {
	si := 0
	for pi := 0; si < len(sigs) && pi < len(pubs); pi++ {
		if pubs[pi].Verify(sigs[si], msg) {
			si++
		}
	}
	return si == len(sigs)
}

// VerifyWitness implements [blockchainer.Blockchainer]: it runs w's
// verification (and, if present, invocation) script in a freshly created
// VM capped at gas, and requires the script hash itself to match h.
func (bc *Blockchain) VerifyWitness(h util.Uint160, item hash.Hashable, w *transaction.Witness, gas int64) error {
	if len(w.VerificationScript) == 0 {
		return fmt.Errorf("core: witness for %s has no verification script", h.StringLE())
	}
	if !hash.Hash160(w.VerificationScript).Equals(h) {
		return fmt.Errorf("core: verification script hash mismatch for %s", h.StringLE())
	}
	v := vm.New()
	v.SetGasLimit(gas)
	v.Syscall = verificationSyscall(item)
	v.LoadScript(w.VerificationScript)
	if len(w.InvocationScript) > 0 {
		v.LoadScript(w.InvocationScript)
	}
	if st := v.Run(); st != vm.HaltState {
		return fmt.Errorf("core: verification script for %s faulted: %w", h.StringLE(), v.Err())
	}
	if v.Estack().Len() == 0 || !v.Estack().Pop().ToBool() {
		return fmt.Errorf("core: verification script for %s returned false", h.StringLE())
	}
	return nil
}

// InitVerificationVM implements [blockchainer.Blockchainer]: it loads h's
// verification script (the witness's own, or a deployed contract's, via
// getContract) followed by its invocation script, leaving v ready to Run.
func (bc *Blockchain) InitVerificationVM(v *vm.VM, getContract func(util.Uint160) (*state.Contract, error), h util.Uint160, w *transaction.Witness) error {
	if len(w.VerificationScript) > 0 {
		if !hash.Hash160(w.VerificationScript).Equals(h) {
			return fmt.Errorf("core: verification script hash mismatch for %s", h.StringLE())
		}
		v.LoadScript(w.VerificationScript)
	} else {
		cs, err := getContract(h)
		if err != nil {
			return fmt.Errorf("core: no deployed contract for witness %s: %w", h.StringLE(), err)
		}
		v.LoadScript(cs.NEF.Script)
	}
	if len(w.InvocationScript) > 0 {
		v.LoadScript(w.InvocationScript)
	}
	return nil
}

// GetTestVM implements [blockchainer.Blockchainer]: it returns a VM primed
// with a verification-style syscall table against tx (or b, if tx is nil),
// for ad hoc script testing such as RPC's invokescript.
func (bc *Blockchain) GetTestVM(_ trigger.Type, tx *transaction.Transaction, b *block.Block) *vm.VM {
	v := vm.New()
	var item hash.Hashable
	if tx != nil {
		item = tx
	} else if b != nil {
		item = b
	}
	if item != nil {
		v.Syscall = verificationSyscall(item)
	}
	return v
}

// PoolTx implements [blockchainer.Blockchainer].
func (bc *Blockchain) PoolTx(t *transaction.Transaction, pools ...*mempool.Pool) error {
	pool := bc.memPool
	if len(pools) != 0 {
		pool = pools[0]
	}
	if err := bc.VerifyTx(t); err != nil {
		return err
	}
	if err := pool.Add(t, bc); err != nil {
		return err
	}
	bc.notifyTransaction(t)
	return nil
}

// PoolTxWithData implements [blockchainer.Blockchainer].
func (bc *Blockchain) PoolTxWithData(t *transaction.Transaction, data interface{}, mp *mempool.Pool, feer mempool.Feer, verify func(blockchainer.Blockchainer, *transaction.Transaction, interface{}) error) error {
	if verify != nil {
		if err := verify(bc, t, data); err != nil {
			return err
		}
	}
	if err := mp.Add(t, feer, data); err != nil {
		return err
	}
	bc.notifyTransaction(t)
	return nil
}

// GetMemPool implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetMemPool() *mempool.Pool { return bc.memPool }

// FeePerByte implements [mempool.Feer].
func (bc *Blockchain) FeePerByte() int64 {
	return bc.contracts.Policy.GetFeePerByteInternal(bc.dao)
}

// GetBaseExecFee implements [mempool.Feer] and [blockchainer.Policer].
func (bc *Blockchain) GetBaseExecFee() int64 { return interop.DefaultBaseExecFee }

// GetStoragePrice returns the configured per-byte contract storage price.
func (bc *Blockchain) GetStoragePrice() int64 {
	return bc.contracts.Policy.GetStoragePriceInternal(bc.dao)
}

// P2PSigExtensionsEnabled implements [mempool.Feer].
func (bc *Blockchain) P2PSigExtensionsEnabled() bool { return bc.cfg.P2PSigExtensions }

// GetMaxBlockSize implements [blockchainer.Policer].
func (bc *Blockchain) GetMaxBlockSize() uint32 { return bc.cfg.MaxBlockSize }

// GetMaxBlockSystemFee implements [blockchainer.Policer].
func (bc *Blockchain) GetMaxBlockSystemFee() int64 { return bc.cfg.MaxBlockSystemFee }

// GetMaxVerificationGAS implements [blockchainer.Policer].
func (bc *Blockchain) GetMaxVerificationGAS() int64 {
	return bc.contracts.Policy.GetMaxVerificationGas(bc.dao)
}

// GetPolicer implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetPolicer() blockchainer.Policer { return bc }

// GetStateModule implements [blockchainer.Blockchainer]. MPT/state-root
// propagation isn't part of this chain.
func (bc *Blockchain) GetStateModule() blockchainer.StateRoot { return nil }

// GetNotaryContractScriptHash implements [blockchainer.Blockchainer]. The
// Notary native contract isn't implemented yet.
func (bc *Blockchain) GetNotaryContractScriptHash() util.Uint160 { return util.Uint160{} }

// GetNotaryBalance implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetNotaryBalance(util.Uint160) *big.Int { return big.NewInt(0) }

// GetNotaryDepositExpiration implements [blockchainer.Blockchainer].
func (bc *Blockchain) GetNotaryDepositExpiration(util.Uint160) uint32 { return 0 }

// SetNotary implements [blockchainer.Blockchainer].
func (bc *Blockchain) SetNotary(n services.Notary) { bc.notary = n }

// SetOracle implements [blockchainer.Blockchainer].
func (bc *Blockchain) SetOracle(o services.Oracle) { bc.oracle = o }

// notifyBlock fans b out to every block subscriber without letting a slow
// subscriber hold up block processing.
func (bc *Blockchain) notifyBlock(b *block.Block) {
	bc.subMu.Lock()
	subs := append([]chan<- *block.Block{}, bc.blockSubs...)
	bc.subMu.Unlock()
	for _, ch := range subs {
		go func(ch chan<- *block.Block) { ch <- b }(ch)
	}
}

func (bc *Blockchain) notifyTransaction(t *transaction.Transaction) {
	bc.subMu.Lock()
	subs := append([]chan<- *transaction.Transaction{}, bc.txSubs...)
	bc.subMu.Unlock()
	for _, ch := range subs {
		go func(ch chan<- *transaction.Transaction) { ch <- t }(ch)
	}
}

// SubscribeForBlocks implements [blockchainer.Blockchainer].
func (bc *Blockchain) SubscribeForBlocks(ch chan<- *block.Block) {
	bc.subMu.Lock()
	defer bc.subMu.Unlock()
	bc.blockSubs = append(bc.blockSubs, ch)
}

// SubscribeForExecutions implements [blockchainer.Blockchainer]. No
// producer ever feeds these: execution results require VM-driven contract
// execution, which this chain doesn't perform per transaction.
func (bc *Blockchain) SubscribeForExecutions(ch chan<- *state.AppExecResult) {
	bc.subMu.Lock()
	defer bc.subMu.Unlock()
	bc.execSubs = append(bc.execSubs, ch)
}

// SubscribeForNotifications implements [blockchainer.Blockchainer]. See
// SubscribeForExecutions: nothing ever publishes to this channel either.
func (bc *Blockchain) SubscribeForNotifications(ch chan<- *state.NotificationEvent) {
	bc.subMu.Lock()
	defer bc.subMu.Unlock()
	bc.notifSubs = append(bc.notifSubs, ch)
}

// SubscribeForTransactions implements [blockchainer.Blockchainer].
func (bc *Blockchain) SubscribeForTransactions(ch chan<- *transaction.Transaction) {
	bc.subMu.Lock()
	defer bc.subMu.Unlock()
	bc.txSubs = append(bc.txSubs, ch)
}

// UnsubscribeFromBlocks implements [blockchainer.Blockchainer].
func (bc *Blockchain) UnsubscribeFromBlocks(ch chan<- *block.Block) {
	bc.subMu.Lock()
	defer bc.subMu.Unlock()
	bc.blockSubs = removeChan(bc.blockSubs, ch)
}

// UnsubscribeFromExecutions implements [blockchainer.Blockchainer].
func (bc *Blockchain) UnsubscribeFromExecutions(ch chan<- *state.AppExecResult) {
	bc.subMu.Lock()
	defer bc.subMu.Unlock()
	bc.execSubs = removeChan(bc.execSubs, ch)
}

// UnsubscribeFromNotifications implements [blockchainer.Blockchainer].
func (bc *Blockchain) UnsubscribeFromNotifications(ch chan<- *state.NotificationEvent) {
	bc.subMu.Lock()
	defer bc.subMu.Unlock()
	bc.notifSubs = removeChan(bc.notifSubs, ch)
}

// UnsubscribeFromTransactions implements [blockchainer.Blockchainer].
func (bc *Blockchain) UnsubscribeFromTransactions(ch chan<- *transaction.Transaction) {
	bc.subMu.Lock()
	defer bc.subMu.Unlock()
	bc.txSubs = removeChan(bc.txSubs, ch)
}

func removeChan[T any](subs []chan<- T, target chan<- T) []chan<- T {
	for i, ch := range subs {
		if ch == target {
			return append(subs[:i], subs[i+1:]...)
		}
	}
	return subs
}

var _ blockchainer.Blockchainer = (*Blockchain)(nil)

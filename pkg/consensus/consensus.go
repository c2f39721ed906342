package consensus

import (
	"errors"
	"sync"
	"time"

	"github.com/neocorelabs/neo-core/pkg/config"
	"github.com/neocorelabs/neo-core/pkg/core/block"
	"github.com/neocorelabs/neo-core/pkg/core/blockchainer"
	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/crypto/hash"
	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/smartcontract"
	"github.com/neocorelabs/neo-core/pkg/util"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// cacheMaxCapacity is the default relay/tx cache capacity, matching what
// the reference Neo node keeps around for a round or two.
const cacheMaxCapacity = 100

// errInvalidVersion, errInvalidPrevHash, errInvalidStateRoot and
// errInvalidTransactionsCount are the reasons verifyRequest rejects a
// prepareRequest.
var (
	errInvalidVersion           = errors.New("consensus: invalid block version")
	errInvalidPrevHash          = errors.New("consensus: invalid previous block hash")
	errInvalidStateRoot         = errors.New("consensus: invalid or missing state root")
	errInvalidTransactionsCount = errors.New("consensus: too many transactions in proposal")
)

// Config configures a consensus Service.
type Config struct {
	Logger *zap.Logger
	// Broadcast sends p to every other validator.
	Broadcast func(p *Payload)
	// Chain is the ledger the service proposes blocks onto and verifies
	// proposals against.
	Chain blockchainer.Blockchainer
	// ProtocolConfiguration carries the block timing and size limits
	// rounds must respect.
	ProtocolConfiguration config.ProtocolConfiguration
	// RequestTx asks peers to relay the given transactions, used when a
	// validator is missing something a prepareRequest named.
	RequestTx func(h ...util.Uint256)
	// TimePerBlock is the target interval between blocks; a round's
	// timeout grows as 2^view * TimePerBlock.
	TimePerBlock time.Duration
	// PrivateKey is this node's validator key. A nil key means the node
	// only relays and verifies payloads without ever proposing or voting.
	PrivateKey *keys.PrivateKey
}

// Service runs the dBFT round state machine for one chain: proposing
// blocks when this node is the round's primary, validating and
// re-broadcasting payloads from other validators, and persisting the
// block a round reaches quorum on.
type Service interface {
	// Name implements the service.Service interface.
	Name() string
	// Start begins running rounds. It must be called at most once.
	Start()
	// Shutdown stops the running round and waits for it to exit.
	Shutdown()
	// OnPayload handles a Payload received from the network.
	OnPayload(p *Payload)
	// OnTransaction notifies the round about a new transaction in case
	// it unblocks a pending proposal.
	OnTransaction(tx *transaction.Transaction)
	// GetPayload returns a previously seen payload by hash, for relay.
	GetPayload(h util.Uint256) *Payload
}

type service struct {
	Config

	log *zap.Logger

	cache *relayCache
	txx   *txCache

	privKey *privateKey
	pubKey  *publicKey

	messages chan *Payload
	txChan   chan *transaction.Transaction
	started  *atomic.Bool
	quit     chan struct{}
	finished chan struct{}

	mtx sync.Mutex

	height uint32
	view   byte

	validators []*keys.PublicKey
	myIndex    int

	prepareRequest     *Payload
	preparePayloads    map[uint16]*Payload
	commitPayloads     map[uint16]*Payload
	changeViewPayloads map[uint16]*Payload

	lastProposal  []util.Uint256
	lastTimestamp uint64

	timer *time.Timer
}

// NewService creates a consensus Service from cfg.
func NewService(cfg Config) (Service, error) {
	if cfg.Chain == nil {
		return nil, errors.New("consensus: Chain is required")
	}
	if cfg.Broadcast == nil {
		cfg.Broadcast = func(*Payload) {}
	}
	if cfg.RequestTx == nil {
		cfg.RequestTx = func(...util.Uint256) {}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &service{
		Config: cfg,
		log:    log,

		cache: newFIFOCache(cacheMaxCapacity),
		txx:   newTxCache(cacheMaxCapacity),

		messages: make(chan *Payload, 100),
		txChan:   make(chan *transaction.Transaction, 100),
		started:  atomic.NewBool(false),
		quit:     make(chan struct{}),
		finished: make(chan struct{}),

		preparePayloads:    make(map[uint16]*Payload),
		commitPayloads:     make(map[uint16]*Payload),
		changeViewPayloads: make(map[uint16]*Payload),
	}

	if cfg.PrivateKey != nil {
		s.privKey = &privateKey{PrivateKey: cfg.PrivateKey}
		s.pubKey = &publicKey{PublicKey: cfg.PrivateKey.PublicKey()}
	}

	return s, nil
}

// Name implements the Service interface.
func (s *service) Name() string { return "consensus" }

// Start implements the Service interface.
func (s *service) Start() {
	if !s.started.CAS(false, true) {
		return
	}
	s.log.Info("starting consensus service")
	s.initializeRound(0)
	go s.run()
}

// Shutdown implements the Service interface.
func (s *service) Shutdown() {
	if s.started.Load() {
		close(s.quit)
		<-s.finished
	}
}

func (s *service) run() {
	defer close(s.finished)
	for {
		select {
		case <-s.quit:
			if s.timer != nil {
				s.timer.Stop()
			}
			return
		case p := <-s.messages:
			s.onReceive(p)
		case tx := <-s.txChan:
			s.txx.Add(tx)
			s.checkPrepare()
		case <-s.timerC():
			s.onTimeout()
		}
	}
}

// timerC returns the round timer's channel, or a nil channel (which never
// fires) if no timer has been armed yet.
func (s *service) timerC() <-chan time.Time {
	if s.timer == nil {
		return nil
	}
	return s.timer.C
}

// OnPayload implements the Service interface.
func (s *service) OnPayload(p *Payload) {
	if err := p.decodeData(); err != nil {
		s.log.Debug("failed to decode payload", zap.Error(err))
		return
	}
	if !s.validatePayload(p) {
		return
	}
	s.cache.Add(p)
	if !s.started.Load() {
		return
	}
	select {
	case s.messages <- p:
	default:
		s.log.Warn("consensus message queue is full, dropping payload")
	}
}

// OnTransaction implements the Service interface.
func (s *service) OnTransaction(tx *transaction.Transaction) {
	if !s.started.Load() {
		return
	}
	select {
	case s.txChan <- tx:
	default:
	}
}

// GetPayload implements the Service interface.
func (s *service) GetPayload(h util.Uint256) *Payload {
	return s.cache.Get(h)
}

// validatePayload reports whether p's validator index is in range and its
// witness proves it was actually sent by that validator.
func (s *service) validatePayload(p *Payload) bool {
	s.mtx.Lock()
	validators := s.validators
	s.mtx.Unlock()
	if validators == nil {
		var err error
		validators, err = s.Chain.GetValidators()
		if err != nil {
			return false
		}
	}
	if int(p.ValidatorIndex()) >= len(validators) {
		return false
	}
	expected := validators[p.ValidatorIndex()].GetScriptHash()
	return p.Verify(expected)
}

// getTx looks tx up first in the mempool, then in the round's own cache of
// transactions seen but not yet pooled.
func (s *service) getTx(h util.Uint256) *transaction.Transaction {
	if tx, ok := s.Chain.GetMemPool().TryGetValue(h); ok {
		return tx
	}
	return s.txx.Get(h)
}

// getVerifiedTx returns the transactions this node wants to propose,
// preferring to reuse the previous round's proposal when most of it is
// still pooled, since discarding a near-quorum proposal on every view
// change would needlessly delay the round further.
func (s *service) getVerifiedTx() []*transaction.Transaction {
	pool := s.Chain.GetMemPool()
	txx := pool.GetVerifiedTransactions()

	s.mtx.Lock()
	lastProposal := s.lastProposal
	s.mtx.Unlock()

	if len(lastProposal) == 0 || len(txx) >= len(lastProposal) {
		return s.Chain.ApplyPolicyToTxSet(txx)
	}

	have := 0
	for _, h := range lastProposal {
		if pool.ContainsKey(h) {
			have++
		}
	}
	if have < len(lastProposal)/2 {
		return s.Chain.ApplyPolicyToTxSet(txx)
	}

	result := make([]*transaction.Transaction, 0, len(lastProposal))
	for _, h := range lastProposal {
		if tx := s.getTx(h); tx != nil {
			result = append(result, tx)
		}
	}
	return s.Chain.ApplyPolicyToTxSet(result)
}

// verifyRequest reports why p's prepareRequest should be rejected, or nil
// if it's acceptable.
func (s *service) verifyRequest(p *Payload) error {
	req := p.GetPrepareRequest()

	if uint32(req.Version()) != block.VersionInitial {
		return errInvalidVersion
	}
	if req.PrevHash() != s.Chain.CurrentBlockHash() {
		return errInvalidPrevHash
	}

	cfg := s.Chain.GetConfig()
	if cfg.StateRootInHeader {
		if !req.StateRootEnabled() {
			return errInvalidStateRoot
		}
		if sm := s.Chain.GetStateModule(); sm != nil && req.StateRoot() != sm.CurrentLocalStateRoot() {
			return errInvalidStateRoot
		}
	}

	if uint32(len(req.TransactionHashes())) > uint32(cfg.MaxTransactionsPerBlock) {
		return errInvalidTransactionsCount
	}

	return nil
}

// verifyBlock reports whether b is acceptable to persist: not stale, not
// oversized, not over the system fee cap, and every transaction it
// contains individually verifiable.
func (s *service) verifyBlock(b *block.Block) bool {
	if b.Index <= s.Chain.BlockHeight() {
		return false
	}

	cfg := s.Chain.GetConfig()
	if cfg.MaxBlockSize != 0 && uint32(io.GetVarSize(b)) > cfg.MaxBlockSize {
		return false
	}

	s.mtx.Lock()
	lastTimestamp := s.lastTimestamp
	s.mtx.Unlock()
	if lastTimestamp != 0 && b.Timestamp <= lastTimestamp {
		return false
	}

	var sysFee int64
	for _, tx := range b.Transactions {
		if err := s.Chain.VerifyTx(tx); err != nil {
			if !s.Chain.HasTransaction(tx.Hash()) {
				return false
			}
		}
		sysFee += tx.SystemFee
	}
	if cfg.MaxBlockSystemFee != 0 && sysFee > cfg.MaxBlockSystemFee {
		return false
	}

	return true
}

// initializeRound resets the round state for the current chain height at
// the given view, arming the view timer and proposing a block if this
// node is the round's primary.
func (s *service) initializeRound(view byte) {
	s.mtx.Lock()
	s.height = s.Chain.BlockHeight() + 1
	s.view = view
	s.prepareRequest = nil
	s.preparePayloads = make(map[uint16]*Payload)
	s.commitPayloads = make(map[uint16]*Payload)
	s.changeViewPayloads = make(map[uint16]*Payload)

	validators, err := s.Chain.GetValidators()
	if err != nil {
		s.mtx.Unlock()
		s.log.Error("failed to get validators", zap.Error(err))
		return
	}
	s.validators = validators
	s.myIndex = -1
	if s.pubKey != nil {
		for i, v := range validators {
			if v.Equal(s.pubKey.PublicKey) {
				s.myIndex = i
				break
			}
		}
	}
	n := len(validators)
	primary := primaryIndex(s.height, view, n)
	s.mtx.Unlock()

	timeout := s.TimePerBlock
	for i := byte(0); i < view; i++ {
		timeout *= 2
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.NewTimer(timeout)

	if s.myIndex == primary {
		s.proposeBlock()
	}
}

// primaryIndex returns the index, into a sorted validator list of size n,
// of the validator that proposes at the given height and view.
func primaryIndex(height uint32, view byte, n int) int {
	if n == 0 {
		return -1
	}
	p := (int(height) - int(view)) % n
	if p < 0 {
		p += n
	}
	return p
}

// proposeBlock builds and broadcasts this round's prepareRequest.
func (s *service) proposeBlock() {
	txx := s.getVerifiedTx()
	hashes := make([]util.Uint256, len(txx))
	for i, tx := range txx {
		hashes[i] = tx.Hash()
		s.txx.Add(tx)
	}

	cfg := s.Chain.GetConfig()
	req := &prepareRequest{
		version:           uint8(block.VersionInitial),
		prevHash:          s.Chain.CurrentBlockHash(),
		stateRootEnabled:  cfg.StateRootInHeader,
		timestamp:         uint64(time.Now().UnixMilli()),
		nonce:             randomNonce(),
		transactionHashes: hashes,
	}
	if cfg.StateRootInHeader {
		if sm := s.Chain.GetStateModule(); sm != nil {
			req.stateRoot = sm.CurrentLocalStateRoot()
		}
	}

	p := NewPayload(cfg.Magic)
	p.SetHeight(s.height)
	p.SetViewNumber(s.view)
	p.SetValidatorIndex(uint16(s.myIndex))
	p.SetPayload(req)
	if err := p.Sign(s.privKey); err != nil {
		s.log.Error("failed to sign prepare request", zap.Error(err))
		return
	}

	s.mtx.Lock()
	s.prepareRequest = p
	s.preparePayloads[p.ValidatorIndex()] = p
	s.lastProposal = hashes
	s.mtx.Unlock()

	s.cache.Add(p)
	s.Broadcast(p)
}

func randomNonce() uint64 {
	return uint64(time.Now().UnixNano())
}

// onReceive dispatches p to the handler for its message type.
func (s *service) onReceive(p *Payload) {
	s.mtx.Lock()
	samePoint := p.Height() == s.height
	s.mtx.Unlock()
	if !samePoint {
		return
	}

	switch p.Type() {
	case prepareRequestType:
		s.onPrepareRequest(p)
	case prepareResponseType:
		s.onPrepareResponse(p)
	case commitType:
		s.onCommit(p)
	case changeViewType:
		s.onChangeView(p)
	case recoveryRequestType, recoveryMessageType:
		s.log.Debug("recovery messages are not replayed by this round loop",
			zap.Stringer("type", p.Type()))
	default:
		s.log.Warn("unknown consensus message type", zap.Stringer("type", p.Type()))
	}
}

func (s *service) onPrepareRequest(p *Payload) {
	if err := s.verifyRequest(p); err != nil {
		s.log.Info("rejecting prepare request", zap.Error(err))
		return
	}

	req := p.GetPrepareRequest()
	var missing []util.Uint256
	for _, h := range req.TransactionHashes() {
		if s.getTx(h) == nil {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		s.RequestTx(missing...)
	}

	s.mtx.Lock()
	s.prepareRequest = p
	s.lastProposal = req.TransactionHashes()
	myIndex := s.myIndex
	s.mtx.Unlock()

	if myIndex < 0 || s.privKey == nil {
		return
	}

	resp := &prepareResponse{preparationHash: p.Hash()}
	r := NewPayload(s.Chain.GetConfig().Magic)
	r.SetHeight(p.Height())
	r.SetViewNumber(p.ViewNumber())
	r.SetValidatorIndex(uint16(myIndex))
	r.SetPayload(resp)
	if err := r.Sign(s.privKey); err != nil {
		s.log.Error("failed to sign prepare response", zap.Error(err))
		return
	}

	s.mtx.Lock()
	s.preparePayloads[r.ValidatorIndex()] = r
	s.mtx.Unlock()

	s.cache.Add(r)
	s.Broadcast(r)
	s.checkPrepare()
}

func (s *service) onPrepareResponse(p *Payload) {
	s.mtx.Lock()
	s.preparePayloads[p.ValidatorIndex()] = p
	s.mtx.Unlock()
	s.checkPrepare()
}

// checkPrepare moves the round into the commit phase once a quorum of
// preparation payloads (including our own prepareRequest) matches the
// active proposal and every named transaction is available.
func (s *service) checkPrepare() {
	s.mtx.Lock()
	req := s.prepareRequest
	n := len(s.validators)
	myIndex := s.myIndex
	have := len(s.preparePayloads)
	alreadyCommitted := req != nil && s.commitPayloads[uint16(myIndex)] != nil
	s.mtx.Unlock()

	if req == nil || n == 0 || myIndex < 0 || alreadyCommitted || s.privKey == nil {
		return
	}
	if have < quorum(n) {
		return
	}
	for _, h := range req.GetPrepareRequest().TransactionHashes() {
		if s.getTx(h) == nil {
			return
		}
	}

	c := &commit{}
	sig := s.privKey.PrivateKey.SignHash(req.Hash())
	copy(c.signature[:], sig)

	p := NewPayload(s.Chain.GetConfig().Magic)
	p.SetHeight(req.Height())
	p.SetViewNumber(req.ViewNumber())
	p.SetValidatorIndex(uint16(myIndex))
	p.SetPayload(c)
	if err := p.Sign(s.privKey); err != nil {
		s.log.Error("failed to sign commit", zap.Error(err))
		return
	}

	s.mtx.Lock()
	s.commitPayloads[p.ValidatorIndex()] = p
	s.mtx.Unlock()

	s.cache.Add(p)
	s.Broadcast(p)
	s.checkCommit()
}

func (s *service) onCommit(p *Payload) {
	s.mtx.Lock()
	s.commitPayloads[p.ValidatorIndex()] = p
	s.mtx.Unlock()
	s.checkCommit()
}

// checkCommit assembles and persists the round's block once a quorum of
// commit signatures has been collected.
func (s *service) checkCommit() {
	s.mtx.Lock()
	n := len(s.validators)
	if n == 0 || s.prepareRequest == nil || len(s.commitPayloads) < quorum(n) {
		s.mtx.Unlock()
		return
	}
	req := s.prepareRequest.GetPrepareRequest()
	sigs := make(map[uint16][]byte, len(s.commitPayloads))
	for i, cp := range s.commitPayloads {
		sigs[i] = cp.GetCommit().Signature()
	}
	validators := s.validators
	height := s.height
	view := s.prepareRequest.ViewNumber()
	prevHash := req.PrevHash()
	stateRootEnabled := req.StateRootEnabled()
	stateRoot := req.StateRoot()
	timestamp := req.Timestamp()
	nonce := req.Nonce()
	s.mtx.Unlock()

	txx := make([]*transaction.Transaction, 0, len(req.TransactionHashes()))
	for _, h := range req.TransactionHashes() {
		tx := s.getTx(h)
		if tx == nil {
			s.log.Error("missing transaction while assembling block", zap.Stringer("hash", h))
			return
		}
		txx = append(txx, tx)
	}

	witness, err := getBlockWitness(validators, sigs)
	if err != nil {
		s.log.Error("failed to build block witness", zap.Error(err))
		return
	}

	nextConsensus, err := nextConsensusAddress(validators)
	if err != nil {
		s.log.Error("failed to derive next consensus address", zap.Error(err))
		return
	}

	b := &block.Block{
		Header: block.Header{
			Version:          block.VersionInitial,
			PrevHash:         prevHash,
			Timestamp:        timestamp / nsInMs,
			Nonce:            nonce,
			Index:            height,
			NextConsensus:    nextConsensus,
			Script:           *witness,
			StateRootEnabled: stateRootEnabled,
			PrevStateRoot:    stateRoot,
			PrimaryIndex:     byte(primaryIndex(height, view, n)),
			Network:          s.Chain.GetConfig().Magic,
		},
		Transactions: txx,
	}
	b.RebuildMerkleRoot()

	if !s.verifyBlock(b) {
		s.log.Error("assembled block failed verification", zap.Uint32("index", b.Index))
		return
	}

	if err := s.Chain.AddBlock(b); err != nil {
		s.log.Error("failed to persist consensus block", zap.Error(err))
		return
	}

	s.mtx.Lock()
	s.lastTimestamp = b.Timestamp
	s.mtx.Unlock()

	s.initializeRound(0)
}

// nextConsensusAddress returns the script hash the next round's block
// header should name as its signer.
func nextConsensusAddress(validators []*keys.PublicKey) (util.Uint160, error) {
	script, err := smartcontract.CreateDefaultMultiSigRedeemScript(validators)
	if err != nil {
		return util.Uint160{}, err
	}
	return hash.Hash160(script), nil
}

func (s *service) onChangeView(p *Payload) {
	s.mtx.Lock()
	s.changeViewPayloads[p.ValidatorIndex()] = p
	n := len(s.validators)
	view := p.GetChangeView().NewViewNumber()
	count := 0
	for _, cv := range s.changeViewPayloads {
		if cv.GetChangeView().NewViewNumber() >= view {
			count++
		}
	}
	s.mtx.Unlock()

	if n > 0 && count >= quorum(n) {
		s.initializeRound(view)
	}
}

func (s *service) onTimeout() {
	s.mtx.Lock()
	view := s.view + 1
	myIndex := s.myIndex
	height := s.height
	n := len(s.validators)
	s.mtx.Unlock()

	if myIndex < 0 || n == 0 || s.privKey == nil {
		return
	}

	cv := &changeView{
		timestamp:     uint64(time.Now().UnixMilli()),
		reason:        cvTimeout,
		newViewNumber: view,
	}
	p := NewPayload(s.Chain.GetConfig().Magic)
	p.SetHeight(height)
	p.SetViewNumber(view - 1)
	p.SetValidatorIndex(uint16(myIndex))
	p.SetPayload(cv)
	if err := p.Sign(s.privKey); err != nil {
		s.log.Error("failed to sign change view", zap.Error(err))
		return
	}

	s.cache.Add(p)
	s.Broadcast(p)
	s.onChangeView(p)

	s.mtx.Lock()
	timeout := s.TimePerBlock
	for i := byte(0); i < view; i++ {
		timeout *= 2
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.NewTimer(timeout)
	s.mtx.Unlock()
}

// quorum returns the number of validators (out of n) required to agree
// before a round can advance: the smallest majority tolerating up to
// (n-1)/3 faulty validators.
func quorum(n int) int {
	return n - (n-1)/3
}

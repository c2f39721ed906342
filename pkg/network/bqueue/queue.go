// Package bqueue buffers blocks received out of order from peers until
// they become contiguous with the local chain, then hands them to the
// chain in order.
package bqueue

import (
	"sync"
	"time"

	"github.com/neocorelabs/neo-core/pkg/core/block"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// CacheSize is how many blocks past the current height the queue is
// willing to hold at once.
const CacheSize = 2000

// Ledger is the part of the chain the queue needs: accepting blocks in
// order and reporting the current height.
type Ledger interface {
	AddBlock(block *block.Block) error
	BlockHeight() uint32
}

// Queue accumulates blocks as they arrive from (possibly several) peers
// and feeds them to the chain as soon as they form a contiguous run
// starting right after the current height.
type Queue struct {
	log           *zap.Logger
	chain         Ledger
	relayer       func(index uint32)
	lastBlockTime *atomic.Uint32

	checkBlocks chan struct{}
	discarded   *atomic.Bool

	queueLock sync.Mutex
	queue     map[uint32]*block.Block
	len       int
}

// New creates a Queue for chain. relayer, if non-nil, is invoked with the
// index of every block as it's handed off, e.g. to announce it to peers.
// lastBlockTime, if non-nil, is stamped with the wall-clock time every
// time a block is handed off, for peers/health checks that watch for a
// stalled chain.
func New(chain Ledger, log *zap.Logger, relayer func(index uint32), lastBlockTime *atomic.Uint32) *Queue {
	return &Queue{
		log:           log,
		chain:         chain,
		relayer:       relayer,
		lastBlockTime: lastBlockTime,
		checkBlocks:   make(chan struct{}, 1),
		discarded:     atomic.NewBool(false),
		queue:         make(map[uint32]*block.Block),
	}
}

// PutBlock adds a block to the queue, ignoring it if it's already known
// to the chain, already queued, or too far ahead of the current height
// to fit in the cache.
func (bq *Queue) PutBlock(b *block.Block) error {
	h := bq.chain.BlockHeight()
	index := b.Index
	if index <= h || index > h+CacheSize {
		return nil
	}

	bq.queueLock.Lock()
	if _, ok := bq.queue[index]; ok {
		bq.queueLock.Unlock()
		return nil
	}
	bq.queue[index] = b
	bq.len++
	bq.queueLock.Unlock()

	select {
	case bq.checkBlocks <- struct{}{}:
	default:
	}
	return nil
}

// LastQueued returns the highest block index reachable by a contiguous
// run of queued blocks starting right after the current height, and how
// much cache capacity remains.
func (bq *Queue) LastQueued() (uint32, int) {
	bq.queueLock.Lock()
	defer bq.queueLock.Unlock()

	last := bq.chain.BlockHeight()
	for {
		if _, ok := bq.queue[last+1]; !ok {
			break
		}
		last++
	}
	return last, CacheSize - bq.len
}

// Run processes queued blocks as they become contiguous with the chain,
// blocking until Discard is called.
func (bq *Queue) Run() {
	bq.process()
	for range bq.checkBlocks {
		bq.process()
	}
}

// Discard stops Run and drops every block still queued.
func (bq *Queue) Discard() {
	if bq.discarded.CAS(false, true) {
		close(bq.checkBlocks)
	}
	bq.queueLock.Lock()
	defer bq.queueLock.Unlock()
	bq.queue = make(map[uint32]*block.Block)
	bq.len = 0
}

func (bq *Queue) process() {
	for {
		bq.queueLock.Lock()
		h := bq.chain.BlockHeight()
		b, ok := bq.queue[h+1]
		if !ok {
			bq.queueLock.Unlock()
			return
		}
		delete(bq.queue, h+1)
		bq.len--
		bq.queueLock.Unlock()

		if err := bq.chain.AddBlock(b); err != nil {
			bq.log.Warn("failed to add queued block", zap.Uint32("index", b.Index), zap.Error(err))
			continue
		}
		if bq.lastBlockTime != nil {
			bq.lastBlockTime.Store(uint32(time.Now().Unix()))
		}
		if bq.relayer != nil {
			bq.relayer(b.Index)
		}
	}
}

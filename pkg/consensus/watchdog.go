package consensus

import (
	"errors"
	"time"

	"github.com/neocorelabs/neo-core/pkg/core/block"
	"github.com/neocorelabs/neo-core/pkg/core/blockchainer"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// watchdogThresholdMultiplier is the number of missed block intervals
// the watchdog tolerates before it asks the caller to restart the
// consensus service.
const watchdogThresholdMultiplier = 4

// Watchdog watches the chain's block production rate and signals the
// consensus service owner to restart it if blocks stop arriving on time,
// recovering a round stuck on an unresponsive or partitioned primary.
type Watchdog struct {
	WatchdogConfig

	// blockEvents is used to pass a new block event to the consensus
	// process.
	blockEvents chan *block.Block

	log *zap.Logger
	// started is a flag set with Start method that runs an event handling
	// goroutine.
	started  *atomic.Bool
	quit     chan struct{}
	finished chan struct{}
}

// WatchdogConfig configures a Watchdog.
type WatchdogConfig struct {
	Logger *zap.Logger
	// Chain is the ledger whose block production the watchdog monitors.
	Chain blockchainer.Blockchainer
	// ConsensusRestartChan is a channel used to send restart signal to the consensus service caller
	// if consensus watchdog is on.
	ConsensusRestartChan chan struct{}
}

// NewWatchdog creates a Watchdog from cfg.
func NewWatchdog(cfg WatchdogConfig) (*Watchdog, error) {
	if cfg.Logger == nil {
		return nil, errors.New("empty logger")
	}
	wd := &Watchdog{
		WatchdogConfig: cfg,
		log:            cfg.Logger,
		blockEvents:    make(chan *block.Block, 1),
		started:        atomic.NewBool(false),
		quit:           make(chan struct{}),
		finished:       make(chan struct{}),
	}
	return wd, nil
}

// Start begins watching the chain for stalled block production.
func (w *Watchdog) Start() {
	if w.started.CAS(false, true) {
		w.log.Info("starting consensus watchdog service")
		w.Chain.SubscribeForBlocks(w.blockEvents)
		go w.eventLoop()
	}
}

func (w *Watchdog) eventLoop() {
	cfg := w.Chain.GetConfig()
	latestBlock, err := w.Chain.GetBlock(w.Chain.CurrentBlockHash())
	if err != nil {
		w.log.Error("failed to retrieve last block timestamp",
			zap.Error(err))
		close(w.finished)
		return
	}
	threshold := cfg.TimePerBlock * watchdogThresholdMultiplier
	_, resetAfter := calculateReset(latestBlock.Timestamp, threshold)
	timer := time.NewTimer(resetAfter)

events:
	for {
		select {
		case <-w.quit:
			w.Chain.UnsubscribeFromBlocks(w.blockEvents)
			if !timer.Stop() {
				<-timer.C
			}
			break events
		case b := <-w.blockEvents:
			if b.Index > latestBlock.Index {
				latestBlock = b
				_, resetAfter = calculateReset(latestBlock.Timestamp, threshold)
				timer.Reset(resetAfter)
			}
		case <-timer.C:
			now, resetAfter := calculateReset(latestBlock.Timestamp, threshold)
			timer.Reset(resetAfter)
			w.log.Warn("couldn't accept new block, sending signal to restart consensus service",
				zap.Uint32("latest block index", latestBlock.Index),
				zap.Uint64("latest block timestamp", latestBlock.Timestamp),
				zap.Duration("time since latest block", time.Millisecond*time.Duration(now-int64(latestBlock.Timestamp))),
				zap.Duration("time till next restart", resetAfter))
			w.ConsensusRestartChan <- struct{}{}
		}
	}

drainBlocksLoop:
	for {
		select {
		case <-w.blockEvents:
		default:
			break drainBlocksLoop
		}
	}
	close(w.blockEvents)
	close(w.finished)
}

func calculateReset(latestTimestamp uint64, threshold time.Duration) (int64, time.Duration) {
	now := time.Now().UnixMilli()
	delta := time.Millisecond * time.Duration(int64(latestTimestamp)-now)
	resetAfter := delta
	for {
		resetAfter += threshold
		if resetAfter > 0 {
			break
		}
	}
	return now, resetAfter
}

// Name implements the service.Service interface.
func (w *Watchdog) Name() string {
	return "consensus watchdog"
}

// Shutdown implements the service.Service interface.
func (w *Watchdog) Shutdown() {
	if w.started.Load() {
		close(w.quit)
		<-w.finished
	}
}

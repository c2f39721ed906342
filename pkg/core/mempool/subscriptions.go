package mempool

import (
	"sync"

	"github.com/neocorelabs/neo-core/pkg/core/transaction"
)

// EventType identifies what happened to a transaction the pool is
// reporting through its subscription channels.
type EventType byte

// Event types fired by a Pool with subscriptions enabled.
const (
	TransactionAdded EventType = iota
	TransactionRemoved
)

// Event is a single pool membership change delivered to subscribers.
type Event struct {
	Type EventType
	Tx   *transaction.Transaction
}

// subscriptions fans Add/Remove notifications out to every subscriber
// channel, when the owning Pool was created with them enabled. Disabled
// pools pay nothing for this beyond the zero-value struct.
type subscriptions struct {
	enabled bool

	mu      sync.Mutex
	running bool
	events  chan Event
	stop    chan struct{}

	subLock sync.RWMutex
	subs    map[chan<- Event]struct{}
}

func newSubscriptions(enabled bool) *subscriptions {
	return &subscriptions{enabled: enabled, subs: make(map[chan<- Event]struct{})}
}

func (s *subscriptions) mustBeEnabled() {
	if !s.enabled {
		panic("mempool: subscriptions were not enabled for this pool")
	}
}

// RunSubscriptions starts the fan-out goroutine.
func (s *subscriptions) RunSubscriptions() {
	s.mustBeEnabled()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.events = make(chan Event, 100)
	s.stop = make(chan struct{})
	s.running = true
	go s.run(s.events, s.stop)
}

func (s *subscriptions) run(events chan Event, stop chan struct{}) {
	for {
		select {
		case ev := <-events:
			s.subLock.RLock()
			for ch := range s.subs {
				ch <- ev
			}
			s.subLock.RUnlock()
		case <-stop:
			return
		}
	}
}

// StopSubscriptions stops the fan-out goroutine.
func (s *subscriptions) StopSubscriptions() {
	s.mustBeEnabled()
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stop)
	s.running = false
}

func (s *subscriptions) notify(ev Event) {
	if !s.enabled {
		return
	}
	s.mu.Lock()
	running, events := s.running, s.events
	s.mu.Unlock()
	if !running {
		return
	}
	events <- ev
}

func (s *subscriptions) Subscribe(ch chan<- Event) {
	s.mustBeEnabled()
	s.subLock.Lock()
	defer s.subLock.Unlock()
	s.subs[ch] = struct{}{}
}

func (s *subscriptions) Unsubscribe(ch chan<- Event) {
	s.mustBeEnabled()
	s.subLock.Lock()
	defer s.subLock.Unlock()
	delete(s.subs, ch)
}

// RunSubscriptions starts delivering Add/Remove events to subscribers;
// panics if this Pool was created with subscriptions disabled.
func (mp *Pool) RunSubscriptions() { mp.subs.RunSubscriptions() }

// StopSubscriptions stops delivering events and closes the dispatch
// goroutine; panics if subscriptions are disabled.
func (mp *Pool) StopSubscriptions() { mp.subs.StopSubscriptions() }

// SubscribeForTransactions registers ch to receive every Add/Remove event.
func (mp *Pool) SubscribeForTransactions(ch chan<- Event) { mp.subs.Subscribe(ch) }

// UnsubscribeFromTransactions removes a channel registered with
// SubscribeForTransactions.
func (mp *Pool) UnsubscribeFromTransactions(ch chan<- Event) { mp.subs.Unsubscribe(ch) }

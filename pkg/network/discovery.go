package network

import (
	"math"
	"net"
	"sync"
	"time"

	"github.com/neocorelabs/neo-core/pkg/network/capability"
	"github.com/neocorelabs/neo-core/pkg/network/payload"
)

// connRetries is how many times an address is redialed before being
// marked bad.
const connRetries = 3

// tryMaxWait bounds the backoff between redial attempts to the same
// address; a package variable so tests can shrink it.
var tryMaxWait = 5 * time.Second

// AddressablePeer is the minimal surface Discovery needs from a peer:
// where it was dialed, its reported network address, and (once
// handshaked) the Version it advertised.
type AddressablePeer interface {
	ConnectionAddr() string
	PeerAddr() net.Addr
	Version() *payload.Version
}

// Transporter dials out to and accepts connections from peers over a
// concrete protocol (plain TCP, in practice).
type Transporter interface {
	Dial(addr string, timeout time.Duration) (AddressablePeer, error)
	Accept()
	Proto() string
	HostPort() (string, string)
	Close()
}

// AddressWithCapabilities is a known-good peer's address and the
// capabilities it last advertised during its handshake.
type AddressWithCapabilities struct {
	Address      string
	Capabilities capability.Capabilities
}

// Discoverer finds, tracks and ranks candidate peer addresses so the
// server can keep its connection pool full.
type Discoverer interface {
	BackFill(...string)
	PoolCount() int
	RequestRemote(int)
	RegisterConnected(AddressablePeer)
	RegisterGood(AddressablePeer)
	UnregisterConnected(AddressablePeer, bool)
	UnconnectedPeers() []string
	BadPeers() []string
	GoodPeers() []AddressWithCapabilities
	GetFanOut() int
}

// DefaultDiscovery is the standard Discoverer: an in-memory pool of
// candidate addresses dialed via a Transporter, split into unconnected,
// connected, good and bad sets.
type DefaultDiscovery struct {
	transport   Transporter
	dialTimeout time.Duration

	lock        sync.RWMutex
	unconnected map[string]struct{}
	trying      map[string]struct{}
	connected   map[string]struct{}
	bad         map[string]struct{}
	good        map[string]capability.Capabilities
}

// NewDefaultDiscovery creates a DefaultDiscovery seeded with addrs and
// using ts to dial out.
func NewDefaultDiscovery(addrs []string, dialTimeout time.Duration, ts Transporter) *DefaultDiscovery {
	d := &DefaultDiscovery{
		transport:   ts,
		dialTimeout: dialTimeout,
		unconnected: make(map[string]struct{}),
		trying:      make(map[string]struct{}),
		connected:   make(map[string]struct{}),
		bad:         make(map[string]struct{}),
		good:        make(map[string]capability.Capabilities),
	}
	if len(addrs) > 0 {
		d.BackFill(addrs...)
	}
	return d
}

// BackFill adds addrs to the unconnected pool, ignoring any address
// already known to be bad, connected, or good.
func (d *DefaultDiscovery) BackFill(addrs ...string) {
	d.lock.Lock()
	defer d.lock.Unlock()
	for _, a := range addrs {
		if _, ok := d.bad[a]; ok {
			continue
		}
		if _, ok := d.connected[a]; ok {
			continue
		}
		if _, ok := d.good[a]; ok {
			continue
		}
		d.unconnected[a] = struct{}{}
	}
}

// PoolCount returns the number of addresses currently unconnected.
func (d *DefaultDiscovery) PoolCount() int {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return len(d.unconnected)
}

// UnconnectedPeers returns every address in the unconnected pool.
func (d *DefaultDiscovery) UnconnectedPeers() []string {
	d.lock.RLock()
	defer d.lock.RUnlock()
	res := make([]string, 0, len(d.unconnected))
	for a := range d.unconnected {
		res = append(res, a)
	}
	return res
}

// BadPeers returns every address marked bad.
func (d *DefaultDiscovery) BadPeers() []string {
	d.lock.RLock()
	defer d.lock.RUnlock()
	res := make([]string, 0, len(d.bad))
	for a := range d.bad {
		res = append(res, a)
	}
	return res
}

// GoodPeers returns every address that has completed a handshake
// successfully at some point, with the capabilities it last advertised.
func (d *DefaultDiscovery) GoodPeers() []AddressWithCapabilities {
	d.lock.RLock()
	defer d.lock.RUnlock()
	res := make([]AddressWithCapabilities, 0, len(d.good))
	for a, caps := range d.good {
		res = append(res, AddressWithCapabilities{Address: a, Capabilities: caps})
	}
	return res
}

// GetFanOut returns how many unconnected addresses RequestRemote should
// try to dial at once: the ceiling of the square root of the pool size,
// so the fan-out grows sub-linearly with how many candidates we know.
func (d *DefaultDiscovery) GetFanOut() int {
	d.lock.RLock()
	n := len(d.unconnected)
	d.lock.RUnlock()
	if n == 0 {
		return 0
	}
	return int(math.Ceil(math.Sqrt(float64(n))))
}

// RequestRemote dials up to n not-already-in-flight addresses from the
// unconnected pool concurrently.
func (d *DefaultDiscovery) RequestRemote(n int) {
	d.lock.Lock()
	addrs := make([]string, 0, n)
	for a := range d.unconnected {
		if _, ok := d.trying[a]; ok {
			continue
		}
		d.trying[a] = struct{}{}
		addrs = append(addrs, a)
		if len(addrs) == n {
			break
		}
	}
	d.lock.Unlock()

	for _, a := range addrs {
		go d.tryAddress(a)
	}
}

func (d *DefaultDiscovery) tryAddress(addr string) {
	for i := 0; i < connRetries; i++ {
		_, err := d.transport.Dial(addr, d.dialTimeout)
		if err == nil {
			d.lock.Lock()
			delete(d.unconnected, addr)
			delete(d.trying, addr)
			d.connected[addr] = struct{}{}
			d.lock.Unlock()
			return
		}
		if i < connRetries-1 {
			time.Sleep(tryMaxWait)
		}
	}
	d.registerBad(addr)
}

func (d *DefaultDiscovery) registerBad(addr string) {
	d.lock.Lock()
	defer d.lock.Unlock()
	delete(d.unconnected, addr)
	delete(d.trying, addr)
	delete(d.connected, addr)
	delete(d.good, addr)
	d.bad[addr] = struct{}{}
}

// RegisterConnected marks p's address as having an open (but not
// necessarily handshaked) connection, removing it from the unconnected
// pool.
func (d *DefaultDiscovery) RegisterConnected(p AddressablePeer) {
	addr := p.ConnectionAddr()
	d.lock.Lock()
	defer d.lock.Unlock()
	delete(d.unconnected, addr)
	delete(d.trying, addr)
	d.connected[addr] = struct{}{}
}

// RegisterGood marks p's address as having completed a successful
// handshake, recording the capabilities it advertised.
func (d *DefaultDiscovery) RegisterGood(p AddressablePeer) {
	addr := p.ConnectionAddr()
	var caps capability.Capabilities
	if v := p.Version(); v != nil {
		caps = v.Capabilities
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	delete(d.unconnected, addr)
	delete(d.bad, addr)
	d.good[addr] = caps
}

// UnregisterConnected drops p's address from the connected set. If isBad
// is set the address is marked bad (and its good-peer record dropped);
// otherwise it's returned to the unconnected pool for a future retry.
func (d *DefaultDiscovery) UnregisterConnected(p AddressablePeer, isBad bool) {
	addr := p.ConnectionAddr()
	d.lock.Lock()
	defer d.lock.Unlock()
	delete(d.connected, addr)
	if isBad {
		delete(d.good, addr)
		d.bad[addr] = struct{}{}
		return
	}
	if _, ok := d.bad[addr]; !ok {
		d.unconnected[addr] = struct{}{}
	}
}

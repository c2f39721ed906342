// Package extpool holds Extensible payloads (state-root votes, oracle
// responses, notary requests, ...) that are valid for the chain's
// current height but haven't yet been acted upon or discarded.
package extpool

import (
	"errors"
	"sync"

	"github.com/neocorelabs/neo-core/pkg/core/blockchainer"
	"github.com/neocorelabs/neo-core/pkg/network/payload"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// verifyGAS bounds the GAS a single Extensible's witness check may burn;
// unlike a transaction it carries no fee to cover its own verification.
const verifyGAS = 0_200000000

var (
	// errInvalidHeight is returned when a payload is already expired at
	// the pool's knowledge of the chain's height.
	errInvalidHeight = errors.New("invalid height")
	// errDisallowedSender is returned when the chain's extension-
	// specific policy doesn't let the sender produce this kind of
	// payload (e.g. it's not an active state-root validator).
	errDisallowedSender = errors.New("disallowed sender")
)

// Pool keeps verified Extensible payloads indexed by their hash.
type Pool struct {
	lock  sync.RWMutex
	chain blockchainer.Blockchainer
	items map[util.Uint256]*payload.Extensible
}

// New creates a Pool backed by bc.
func New(bc blockchainer.Blockchainer) *Pool {
	return &Pool{
		chain: bc,
		items: make(map[util.Uint256]*payload.Extensible),
	}
}

// Get returns the payload with the given hash, or nil if it's not pooled.
func (p *Pool) Get(h util.Uint256) *payload.Extensible {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.items[h]
}

// Add verifies and stores e, returning true if it was newly added. A
// payload that's already stale at the current height is silently
// dropped (false, nil); anything that actively fails verification
// returns an error.
func (p *Pool) Add(e *payload.Extensible) (bool, error) {
	height := p.chain.BlockHeight()
	if e.ValidBlockEnd <= height {
		if e.ValidBlockEnd < height {
			return false, errInvalidHeight
		}
		return false, nil
	}

	if err := p.chain.VerifyWitness(e.Sender, e, &e.Witness, verifyGAS); err != nil {
		return false, err
	}
	if !p.chain.IsExtensibleAllowed(e.Sender) {
		return false, errDisallowedSender
	}

	h := e.Hash()
	p.lock.Lock()
	defer p.lock.Unlock()
	if _, ok := p.items[h]; ok {
		return false, nil
	}
	p.items[h] = e
	return true, nil
}

// RemoveStale drops every payload that's expired at height or that no
// longer passes verification under the chain's current state.
func (p *Pool) RemoveStale(height uint32) {
	p.lock.Lock()
	defer p.lock.Unlock()
	for h, e := range p.items {
		if e.ValidBlockEnd <= height {
			delete(p.items, h)
			continue
		}
		if !p.chain.IsExtensibleAllowed(e.Sender) {
			delete(p.items, h)
			continue
		}
		if err := p.chain.VerifyWitness(e.Sender, e, &e.Witness, verifyGAS); err != nil {
			delete(p.items, h)
		}
	}
}

// Package cache provides small in-memory caches used to avoid relaying or
// re-processing the same network payload twice.
package cache

import (
	"container/list"
	"sync"

	"github.com/neocorelabs/neo-core/pkg/util"
)

// Hashable is anything identified by a Uint256 hash, the only thing a
// FIFOCache needs to know about the items it stores.
type Hashable interface {
	Hash() util.Uint256
}

// FIFOCache is a fixed-capacity cache that evicts the oldest entry once full,
// used to remember recently seen payload hashes so duplicates aren't relayed
// or reprocessed.
type FIFOCache struct {
	lock     sync.RWMutex
	capacity int
	queue    *list.List
	elems    map[util.Uint256]*list.Element
}

// NewFIFOCache creates a FIFOCache with room for capacity items.
func NewFIFOCache(capacity int) *FIFOCache {
	return &FIFOCache{
		capacity: capacity,
		queue:    list.New(),
		elems:    make(map[util.Uint256]*list.Element),
	}
}

// Add stores item, evicting the oldest entry if the cache is at capacity.
// Adding an item already present is a no-op (it doesn't bump its position).
func (c *FIFOCache) Add(item Hashable) {
	h := item.Hash()

	c.lock.Lock()
	defer c.lock.Unlock()

	if _, ok := c.elems[h]; ok {
		return
	}

	if c.queue.Len() >= c.capacity {
		oldest := c.queue.Back()
		if oldest != nil {
			c.queue.Remove(oldest)
			delete(c.elems, oldest.Value.(Hashable).Hash())
		}
	}

	e := c.queue.PushFront(item)
	c.elems[h] = e
}

// Has reports whether h is currently cached.
func (c *FIFOCache) Has(h util.Uint256) bool {
	c.lock.RLock()
	defer c.lock.RUnlock()

	_, ok := c.elems[h]
	return ok
}

// Get returns the cached item for h, or nil if it's not present.
func (c *FIFOCache) Get(h util.Uint256) Hashable {
	c.lock.RLock()
	defer c.lock.RUnlock()

	e, ok := c.elems[h]
	if !ok {
		return nil
	}
	return e.Value.(Hashable)
}

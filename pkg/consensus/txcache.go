package consensus

import (
	"container/list"
	"sync"

	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/util"
)

// txCache holds transactions a round's prepareRequest named that haven't
// reached the pool yet, so a validator that receives them out of band
// (e.g. via RequestTx) doesn't have to wait on the mempool to verify a
// proposal.
type txCache struct {
	*sync.RWMutex

	maxCap int
	elems  map[util.Uint256]*list.Element
	queue  *list.List
}

func newTxCache(capacity int) *txCache {
	return &txCache{
		RWMutex: new(sync.RWMutex),

		maxCap: capacity,
		elems:  make(map[util.Uint256]*list.Element),
		queue:  list.New(),
	}
}

// Add adds tx to the cache if it isn't already present.
func (c *txCache) Add(tx *transaction.Transaction) {
	c.Lock()
	defer c.Unlock()

	h := tx.Hash()
	if c.elems[h] != nil {
		return
	}

	if c.queue.Len() >= c.maxCap {
		first := c.queue.Front()
		c.queue.Remove(first)
		delete(c.elems, first.Value.(*transaction.Transaction).Hash())
	}

	e := c.queue.PushBack(tx)
	c.elems[h] = e
}

// Get returns the transaction with the specified hash from the cache.
func (c *txCache) Get(h util.Uint256) *transaction.Transaction {
	c.RLock()
	defer c.RUnlock()

	e, ok := c.elems[h]
	if !ok {
		return nil
	}
	return e.Value.(*transaction.Transaction)
}

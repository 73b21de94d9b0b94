package mempool

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/nodesync/nodesync/types"
)

// TxCache defines an interface for raw transaction caching.
type TxCache interface {
	// Reset resets the cache to an empty state.
	Reset()

	// Push adds the given raw transaction to the cache and returns true if it
	// was newly added. Otherwise, it returns false.
	Push(tx types.Tx) bool

	// Remove removes the given raw transaction from the cache.
	Remove(tx types.Tx)

	// Has reports whether the given raw transaction is in the cache.
	Has(tx types.Tx) bool
}

var _ TxCache = (*LRUTxCache)(nil)

// LRUTxCache maintains a thread-safe LRU cache of raw transactions, keyed by
// their hash.
type LRUTxCache struct {
	cache *lru.Cache
}

// NewLRUTxCache returns a cache holding up to size transactions.
func NewLRUTxCache(size int) (*LRUTxCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &LRUTxCache{cache: cache}, nil
}

func (c *LRUTxCache) Reset() { c.cache.Purge() }

func (c *LRUTxCache) Push(tx types.Tx) bool {
	found, _ := c.cache.ContainsOrAdd(tx.Key(), struct{}{})
	return !found
}

func (c *LRUTxCache) Remove(tx types.Tx) { c.cache.Remove(tx.Key()) }

func (c *LRUTxCache) Has(tx types.Tx) bool { return c.cache.Contains(tx.Key()) }

// NopTxCache defines a no-op raw transaction cache.
type NopTxCache struct{}

var _ TxCache = (*NopTxCache)(nil)

func (NopTxCache) Reset()             {}
func (NopTxCache) Push(types.Tx) bool { return true }
func (NopTxCache) Remove(types.Tx)    {}
func (NopTxCache) Has(types.Tx) bool  { return false }

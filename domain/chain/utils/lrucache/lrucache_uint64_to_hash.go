package lrucache

import (
	"sync"

	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
)

// Uint64ToHashLRUCache is a least-recently-used cache from heights to block
// hashes. It is safe for concurrent use.
type Uint64ToHashLRUCache struct {
	lock     sync.RWMutex
	cache    map[uint64]*externalapi.DomainHash
	capacity int
}

// NewUint64ToHashLRUCache creates a new Uint64ToHashLRUCache
func NewUint64ToHashLRUCache(capacity int) *Uint64ToHashLRUCache {
	return &Uint64ToHashLRUCache{
		cache:    make(map[uint64]*externalapi.DomainHash, capacity+1),
		capacity: capacity,
	}
}

// Add adds an entry to the cache
func (c *Uint64ToHashLRUCache) Add(key uint64, value *externalapi.DomainHash) {
	if c.capacity <= 0 {
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()

	c.cache[key] = value
	if len(c.cache) > c.capacity {
		c.evictRandom(key)
	}
}

// Get returns the hash for the given key, or (nil, false) otherwise
func (c *Uint64ToHashLRUCache) Get(key uint64) (*externalapi.DomainHash, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	value, ok := c.cache[key]
	return value, ok
}

// Remove removes the entry for the the given key
func (c *Uint64ToHashLRUCache) Remove(key uint64) {
	c.lock.Lock()
	defer c.lock.Unlock()

	delete(c.cache, key)
}

// Len returns the number of cached entries
func (c *Uint64ToHashLRUCache) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return len(c.cache)
}

// evictRandom evicts an entry other than addedKey
func (c *Uint64ToHashLRUCache) evictRandom(addedKey uint64) {
	for key := range c.cache {
		if key == addedKey {
			continue
		}
		delete(c.cache, key)
		return
	}
}

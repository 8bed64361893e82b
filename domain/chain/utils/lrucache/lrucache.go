package lrucache

import (
	"sync"

	"github.com/kaspanet/chainkeeper/domain/chain/model/externalapi"
)

// LRUCache is a least-recently-used cache for any type
// that's able to be indexed by DomainHash. It is safe for concurrent use.
type LRUCache struct {
	lock     sync.RWMutex
	cache    map[externalapi.DomainHash]interface{}
	capacity int
}

// New creates a new LRUCache
func New(capacity int) *LRUCache {
	return &LRUCache{
		cache:    make(map[externalapi.DomainHash]interface{}, capacity+1),
		capacity: capacity,
	}
}

// Add adds an entry to the LRUCache
func (c *LRUCache) Add(key *externalapi.DomainHash, value interface{}) {
	if c.capacity <= 0 {
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()

	c.cache[*key] = value
	if len(c.cache) > c.capacity {
		c.evictRandom(*key)
	}
}

// Get returns the entry for the given key, or (nil, false) otherwise
func (c *LRUCache) Get(key *externalapi.DomainHash) (interface{}, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	value, ok := c.cache[*key]
	return value, ok
}

// Has returns whether the LRUCache contains the given key
func (c *LRUCache) Has(key *externalapi.DomainHash) bool {
	c.lock.RLock()
	defer c.lock.RUnlock()

	_, ok := c.cache[*key]
	return ok
}

// Remove removes the entry for the the given key. Does nothing if
// the entry does not exist
func (c *LRUCache) Remove(key *externalapi.DomainHash) {
	c.lock.Lock()
	defer c.lock.Unlock()

	delete(c.cache, *key)
}

// Len returns the number of cached entries
func (c *LRUCache) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return len(c.cache)
}

// Clear clears the cache
func (c *LRUCache) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()

	for key := range c.cache {
		delete(c.cache, key)
	}
}

// evictRandom evicts an entry other than addedKey
func (c *LRUCache) evictRandom(addedKey externalapi.DomainHash) {
	for key := range c.cache {
		if key == addedKey {
			continue
		}
		delete(c.cache, key)
		return
	}
}

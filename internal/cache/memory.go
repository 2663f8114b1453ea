package cache

import (
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps entries in process memory with a TTL
type MemoryCache struct {
	cache  *gocache.Cache
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache(ttl time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(ttl, cleanupInterval),
	}
}

// Get retrieves a copy of an entry
func (c *MemoryCache) Get(key string) (*Entry, bool) {
	if val, found := c.cache.Get(key); found {
		if entry, ok := val.(*Entry); ok {
			c.hits.Add(1)
			return entry.Clone(), true
		}
	}
	c.misses.Add(1)
	return nil, false
}

// Set stores a copy of entry with the default TTL
func (c *MemoryCache) Set(key string, entry *Entry) {
	c.cache.SetDefault(key, entry.Clone())
}

// Stats returns hit, miss and item counts
func (c *MemoryCache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Items:  c.cache.ItemCount(),
	}
}

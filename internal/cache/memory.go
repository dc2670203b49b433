package cache

import (
	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/varsig/internal/model"
)

// MemoryCache is a session-scoped, append-only store.
// Entries never expire and are never evicted.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates an empty session cache
func NewMemoryCache() *MemoryCache {
	// A zero cleanup interval disables the janitor goroutine.
	return &MemoryCache{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Get returns the cached result for query
func (c *MemoryCache) Get(query string) (model.SearchResult, bool) {
	val, found := c.cache.Get(query)
	if !found {
		return model.SearchResult{}, false
	}
	result, ok := val.(model.SearchResult)
	return result, ok
}

// Put stores result under query; a later Put for the same query wins
func (c *MemoryCache) Put(query string, result model.SearchResult) {
	c.cache.Set(query, result, gocache.NoExpiration)
}

// Len returns the number of cached queries
func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}

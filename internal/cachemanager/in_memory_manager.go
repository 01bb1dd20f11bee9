package cachemanager

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/airdate/internal/log"
)

// NewInMemoryCacheManager creates a cache. A cleanupInterval <= 0 starts no
// janitor goroutine, which is what the single-threaded store wants.
func NewInMemoryCacheManager[K ~string, V any](useCase string, defaultExpiration, cleanupInterval time.Duration) *InMemoryCacheManager[K, V] {
	return &InMemoryCacheManager[K, V]{
		useCase: useCase,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
	}
}

// InMemoryCacheManager is the go-cache implementation of CacheManager.
type InMemoryCacheManager[K ~string, V any] struct {
	useCase string
	cache   *gocache.Cache
}

var _ CacheManager[string, int] = (*InMemoryCacheManager[string, int])(nil)

// Get retrieves an item from the cache by its key.
func (c *InMemoryCacheManager[K, V]) Get(key K) (V, bool) {
	var zeroValue V

	value, found := c.cache.Get(string(key))
	if !found {
		return zeroValue, false
	}

	v, ok := value.(V)
	if !ok {
		log.Error(log.CatStore, "wrong type assertion when getting cached value", "cache", c.useCase, "key", key)
		return zeroValue, false
	}

	return v, true
}

// GetMultiple returns the cached entries among keys. ok is false when none
// of them are cached.
func (c *InMemoryCacheManager[K, V]) GetMultiple(keys []K) (map[K]V, bool) {
	if len(keys) == 0 {
		return nil, false
	}

	values := make(map[K]V, len(keys))
	for _, key := range keys {
		if v, ok := c.Get(key); ok {
			values[key] = v
		}
	}

	if len(values) == 0 {
		return nil, false
	}
	return values, true
}

// Set stores value under key for ttl. Use NoExpiration to keep it forever.
func (c *InMemoryCacheManager[K, V]) Set(key K, value V, ttl time.Duration) {
	c.cache.Set(string(key), value, ttl)
}

// Flush removes every entry.
func (c *InMemoryCacheManager[K, V]) Flush() {
	c.cache.Flush()
}

// Count returns the number of cached entries, including expired ones not yet
// cleaned up.
func (c *InMemoryCacheManager[K, V]) Count() int {
	return c.cache.ItemCount()
}

// Package cachemanager wraps patrickmn/go-cache behind a typed interface.
// The store keeps the last value of every computed path here.
package cachemanager

import "time"

// NoExpiration keeps an entry until it is overwritten or flushed.
const NoExpiration time.Duration = -1

type CacheManager[K comparable, V any] interface {
	Get(key K) (V, bool)
	GetMultiple(keys []K) (map[K]V, bool)
	Set(key K, value V, ttl time.Duration)
	Flush()
	Count() int
}

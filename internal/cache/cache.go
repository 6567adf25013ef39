package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// TTL is a size-bounded cache whose entries expire after a fixed lifetime.
// When full, the least recently used entry is evicted first.
type TTL[K comparable, V any] struct {
	lru *expirable.LRU[K, V]
}

// NewTTL creates a cache holding at most size entries for ttl each.
// A non-positive size means unbounded; a non-positive ttl means entries never expire.
func NewTTL[K comparable, V any](size int, ttl time.Duration) *TTL[K, V] {
	if size < 0 {
		size = 0
	}
	if ttl < 0 {
		ttl = 0
	}
	return &TTL[K, V]{lru: expirable.NewLRU[K, V](size, nil, ttl)}
}

func (c *TTL[K, V]) Get(key K) (V, bool) {
	return c.lru.Get(key)
}

func (c *TTL[K, V]) Set(key K, value V) {
	c.lru.Add(key, value)
}

func (c *TTL[K, V]) Delete(key K) {
	c.lru.Remove(key)
}

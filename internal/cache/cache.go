// Package cache holds the bounded, access-ordered store that backs a weather
// client. It does no locking of its own; the owning client serializes access.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

const (
	// Capacity is the maximum number of cities kept per client.
	Capacity = 10

	// FreshnessWindow is how long an entry is served without refetching.
	FreshnessWindow = 600 * time.Second
)

// Entry is a single cached payload and the time it was stored.
type Entry[V any] struct {
	Payload   V
	CreatedAt time.Time
}

// IsValid reports whether the entry is still inside the freshness window at now.
func (e *Entry[V]) IsValid(now time.Time) bool {
	return now.Sub(e.CreatedAt) < FreshnessWindow
}

// LRU maps city names to entries with least-recently-used eviction.
// Keys are case-sensitive. Not safe for concurrent use.
type LRU[V any] struct {
	lru *simplelru.LRU[string, *Entry[V]]
}

// New returns an empty LRU with the fixed Capacity. onEvict, if non-nil, is
// called with the key of every entry dropped to make room.
func New[V any](onEvict func(key string)) *LRU[V] {
	var cb simplelru.EvictCallback[string, *Entry[V]]
	if onEvict != nil {
		cb = func(key string, _ *Entry[V]) { onEvict(key) }
	}
	l, err := simplelru.NewLRU[string, *Entry[V]](Capacity, cb)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &LRU[V]{lru: l}
}

// Get returns the entry for key and marks it most recently used.
// Returns (nil, false) on miss.
func (c *LRU[V]) Get(key string) (*Entry[V], bool) {
	return c.lru.Get(key)
}

// Put stores payload under key with CreatedAt = now. An existing entry is
// replaced in place; a new key evicts the least recently used entry first
// when the cache is full.
func (c *LRU[V]) Put(key string, payload V, now time.Time) {
	if e, ok := c.lru.Get(key); ok {
		e.Payload = payload
		e.CreatedAt = now
		return
	}
	c.lru.Add(key, &Entry[V]{Payload: payload, CreatedAt: now})
}

// Keys returns a point-in-time copy of the cached keys, least recently used
// first. Re-putting them in this order preserves their relative recency.
func (c *LRU[V]) Keys() []string {
	return c.lru.Keys()
}

// Len returns the number of cached entries.
func (c *LRU[V]) Len() int {
	return c.lru.Len()
}

// Package pricecache provides the in-process memoisation layer for
// loaded price tables. Entries have no expiry; the only invalidation is
// the wholesale Clear operation exposed to admin tooling.
package pricecache

import (
	"context"
	"sync"
)

// Loader produces the value for a missing key. Loads must be idempotent:
// concurrent requests for the same uncached key may each invoke the
// loader and the results overwrite each other harmlessly.
type Loader[V any] func(ctx context.Context) (V, error)

// Cache memoises values by string key. The zero value is not usable;
// construct with New.
type Cache[V any] struct {
	mu         sync.RWMutex
	entries    map[string]V
	generation uint64
}

// New constructs an empty cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{entries: make(map[string]V)}
}

// Get returns the cached value for key when present.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	value, ok := c.entries[key]
	c.mu.RUnlock()
	return value, ok
}

// GetOrLoad returns the cached value for key, invoking load on a miss
// and storing the result. Loader errors are returned without caching, so
// the next call retries. The loader runs outside the lock; duplicate
// concurrent loads are accepted rather than serialised.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load Loader[V]) (V, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	value, err := load(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	c.entries[key] = value
	c.mu.Unlock()
	return value, nil
}

// Put stores the value unconditionally.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	c.entries[key] = value
	c.mu.Unlock()
}

// Clear drops every entry and advances the generation counter.
// Computations already in flight keep whatever values they read.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]V)
	c.generation++
	c.mu.Unlock()
}

// Generation reports how many times the cache has been cleared, for
// admin diagnostics.
func (c *Cache[V]) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

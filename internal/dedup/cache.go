// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup memoizes citation-graph lookups by paper identifier so
// repeat requests within a run never hit the API twice.
package dedup

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache is a run-scoped single-flight memo cache. Concurrent callers for
// the same key collapse into one fetch; the successful result is stored
// for the rest of the run. Failures are not cached, so a later call for
// the same key retries the fetch. There is no eviction: the run's paper
// count bounds growth.
type Cache[V any] struct {
	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]V
}

// New returns an empty cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{entries: make(map[string]V)}
}

// GetOrFetch returns the cached value for key when present (hit true).
// Otherwise it invokes fetch — exactly once per key across concurrent
// callers — stores a successful result, and returns it to all waiters.
func (c *Cache[V]) GetOrFetch(key string, fetch func() (V, error)) (v V, hit bool, err error) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return v, true, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		// A completed flight may have stored the value between our read
		// and joining the group.
		c.mu.RLock()
		v, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return v, nil
		}
		fetched, err := fetch()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = fetched
		c.mu.Unlock()
		return fetched, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	return res.(V), false, nil
}

// Len reports the number of cached entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Package cache provides a lazy-TTL memoizer used to shield the Steam API
// from redundant calls. Entries expire by insertion timestamp, evaluated at
// lookup; there is no background sweeper.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value      V
	insertedAt time.Time
}

// TTL memoizes fetch results per key for a fixed window. Fetch failures are
// never cached, so a negative result is retried on the next lookup.
// Concurrent misses for the same key are collapsed into one fetch.
type TTL[V any] struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]entry[V]
	group   singleflight.Group
}

// NewTTL creates an empty cache with the given entry lifetime.
func NewTTL[V any](ttl time.Duration) *TTL[V] {
	return &TTL[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry[V]),
	}
}

// GetOrFetch returns the cached value for key when still inside its TTL
// window, otherwise runs fetch, stores the result on success and returns it.
func (c *TTL[V]) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A concurrent caller may have filled the entry while this one
		// waited on the flight group.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}

		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = entry[V]{value: value, insertedAt: c.now()}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

func (c *TTL[V]) lookup(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.insertedAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Invalidate drops the entry for key, if any.
func (c *TTL[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired ones included.
func (c *TTL[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Package profilecache holds rendered public-page payloads in memory so the
// hot read path (profile views) skips the database while the page is
// unchanged. Entries expire after a TTL; profile and link edits invalidate
// the owner's entry eagerly, click counts catch up when the TTL lapses.
package profilecache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e *entry[V]) expired() bool {
	return time.Now().After(e.expiresAt)
}

// Cache is a thread-safe in-memory TTL cache keyed by username.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[V]
	ttl     time.Duration
}

// New creates a Cache with the given entry lifetime. A zero ttl defaults to
// 30 seconds.
func New[V any](ttl time.Duration) *Cache[V] {
	if ttl == 0 {
		ttl = 30 * time.Second
	}
	return &Cache[V]{
		entries: make(map[string]*entry[V]),
		ttl:     ttl,
	}
}

// Get returns the cached value for key if present and fresh.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || e.expired() {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value under key, restarting its TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry[V]{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Invalidate drops the entry for key, if any.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Evict removes all expired entries and reports how many were dropped.
func (c *Cache[V]) Evict() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if e.expired() {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// EvictLoop runs Evict on the given interval until ctx is cancelled.
func (c *Cache[V]) EvictLoop(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Evict(); n > 0 {
				logger.Debug("evicted stale profile entries", zap.Int("count", n))
			}
		}
	}
}

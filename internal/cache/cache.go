// Package cache provides a process-local, TTL-based store of opaque
// values. Expiry is purely time-based; there is no size cap or
// eviction-under-pressure policy. Entries are replaced wholesale, so a
// single RWMutex over the map is sufficient for concurrent use.
package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is used when Set is called with a non-positive ttl.
const DefaultTTL = 30 * time.Second

// DefaultCleanupInterval is how often the background sweep runs.
const DefaultCleanupInterval = 60 * time.Second

// entry pairs a stored value with its expiry deadline. Entries are owned
// exclusively by the cache and never handed out by reference.
type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a keyed TTL store. The zero value is not usable; construct
// with New.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithDefaultTTL overrides the TTL applied when Set receives ttl <= 0.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.defaultTTL = ttl
	}
}

// WithClock overrides the time source. Tests only.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]entry),
		defaultTTL: DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value stored under key. An expired entry is treated as
// absent regardless of whether the sweep has removed it yet; it is
// lazily evicted here.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		// Lazy eviction. Re-check under the write lock: a concurrent
		// Set may have refreshed the entry in the meantime.
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && c.now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with expiry now+ttl, unconditionally
// overwriting any existing entry (last write wins). A non-positive ttl
// falls back to the cache's default.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	c.entries[key] = entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
}

// Size returns the number of live entries. Expired-but-unswept entries
// are excluded from the count.
func (c *Cache) Size() int {
	now := c.now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, e := range c.entries {
		if !now.After(e.expiresAt) {
			n++
		}
	}
	return n
}

// Cleanup removes all expired entries and returns how many were removed.
func (c *Cache) Cleanup() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// StartCleanupLoop sweeps expired entries at the given interval until ctx
// is cancelled. The loop runs independently of request traffic so memory
// does not grow unbounded even with no reads.
func (c *Cache) StartCleanupLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Cleanup()
			}
		}
	}()
}

// Package cache is a small TTL cache for per-state aggregates and the
// overview payload. The clock is injected so expiry is testable without
// sleeping.
package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type entry struct {
	value    any
	expireAt time.Time
}

// Cache is a mutex-guarded TTL map.
type Cache struct {
	clock   clockwork.Clock
	mu      sync.Mutex
	entries map[string]entry
	hits    uint64
	misses  uint64
}

// New creates a cache on the real clock.
func New() *Cache {
	return NewWithClock(clockwork.NewRealClock())
}

// NewWithClock creates a cache with an injected clock.
func NewWithClock(clock clockwork.Clock) *Cache {
	return &Cache{
		clock:   clock,
		entries: make(map[string]entry),
	}
}

// Set stores a value until ttl elapses.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expireAt: c.clock.Now().Add(ttl)}
}

// Get returns a live value. Expired entries are removed on access.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.clock.Now().After(e.expireAt) {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Invalidate drops every entry, used after a dataset reload.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// HitRatio reports hits/(hits+misses), 0 before any lookup.
func (c *Cache) HitRatio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

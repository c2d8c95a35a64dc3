// Package cache provides an in-memory caching layer with TTL and LRU eviction.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 1000

// Entry is a cached value with its expiry. A zero ExpiresAt never expires.
type Entry[V any] struct {
	Key       string
	Value     V
	ExpiresAt time.Time
}

type item[V any] struct {
	entry   Entry[V]
	element *list.Element // position in the LRU list
}

// Stats counts cache outcomes since creation.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Expired   uint64
}

// TTLCache is a bounded LRU cache whose entries expire a fixed duration
// after insertion. It is safe for concurrent use.
type TTLCache[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*item[V]
	lru      *list.List // front = most recently used
	stats    Stats

	now func() time.Time
}

// New creates a cache holding at most capacity entries, each living for ttl.
// A ttl of 0 disables expiry.
//
// Example:
//
//	c := cache.New[map[string]any](1000, time.Hour)
func New[V any](capacity int, ttl time.Duration) *TTLCache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl < 0 {
		ttl = 0
	}

	return &TTLCache[V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*item[V]),
		lru:      list.New(),
		now:      time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (c *TTLCache[V]) WithClock(now func() time.Time) *TTLCache[V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// Get returns the value for key if present and unexpired, marking it as
// recently used. Expired entries are removed on access.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	it, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}

	if c.expired(it.entry, c.now()) {
		c.remove(it)
		c.stats.Expired++
		c.stats.Misses++
		return zero, false
	}

	c.lru.MoveToFront(it.element)
	c.stats.Hits++
	return it.entry.Value, true
}

// Set stores value under key with expiry now+ttl, evicting the least
// recently used entry when the cache is full.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if it, ok := c.items[key]; ok {
		it.entry.Value = value
		it.entry.ExpiresAt = expiresAt
		c.lru.MoveToFront(it.element)
		return
	}

	for len(c.items) >= c.capacity {
		c.evictOne()
	}

	it := &item[V]{entry: Entry[V]{Key: key, Value: value, ExpiresAt: expiresAt}}
	it.element = c.lru.PushFront(it)
	c.items[key] = it
}

// Delete removes key.
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if it, ok := c.items[key]; ok {
		c.remove(it)
	}
}

// Clear removes every entry. Stats are kept.
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*item[V])
	c.lru.Init()
}

// Len returns the number of stored entries, expired ones included until
// they are touched or purged.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the maximum number of entries.
func (c *TTLCache[V]) Capacity() int {
	return c.capacity
}

// TTL returns the configured time to live.
func (c *TTLCache[V]) TTL() time.Duration {
	return c.ttl
}

// Stats returns a snapshot of the counters.
func (c *TTLCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Purge removes all expired entries and returns how many were dropped.
func (c *TTLCache[V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, it := range c.items {
		if c.expired(it.entry, now) {
			c.remove(it)
			removed++
		}
	}
	c.stats.Expired += uint64(removed)
	return removed
}

// StartJanitor purges expired entries every interval until the returned
// stop function is called.
func (c *TTLCache[V]) StartJanitor(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Purge()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func (c *TTLCache[V]) expired(e Entry[V], now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// evictOne drops the least recently used entry. Must be called with c.mu held.
func (c *TTLCache[V]) evictOne() {
	back := c.lru.Back()
	if back == nil {
		return
	}
	c.remove(back.Value.(*item[V]))
	c.stats.Evictions++
}

// remove must be called with c.mu held.
func (c *TTLCache[V]) remove(it *item[V]) {
	delete(c.items, it.entry.Key)
	c.lru.Remove(it.element)
}

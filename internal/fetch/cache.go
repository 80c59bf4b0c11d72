// Package fetch - cache.go provides an expiring in-memory cache for fetched pages.
package fetch

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a fetched page stays fresh.
const DefaultCacheTTL = 10 * time.Minute

// cacheEntry pairs a cached value with its expiry deadline.
type cacheEntry struct {
	value     *Result
	expiresAt time.Time
}

// Cache is an in-memory cache with per-entry expiry. Expired entries are
// swept by a background janitor so the map does not grow without bound
// during long runs.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	stop    chan struct{}
	once    sync.Once
}

// NewCache creates a cache with the given TTL and starts the janitor.
// Pass 0 to use DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go c.janitor()
	return c
}

// Get returns the cached result for key, or nil if absent or expired.
func (c *Cache) Get(key string) *Result {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil
	}
	return entry.value
}

// Set stores a result under key with the cache's TTL.
func (c *Cache) Set(key string, value *Result) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Delete removes a key, forcing a fresh fetch on next access.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of live (unexpired) entries.
func (c *Cache) Len() int {
	now := time.Now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	count := 0
	for _, entry := range c.entries {
		if now.Before(entry.expiresAt) {
			count++
		}
	}
	return count
}

// Close stops the janitor goroutine. Safe to call more than once.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache) janitor() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	now := time.Now()
	c.mu.Lock()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

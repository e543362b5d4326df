package utils

import (
	"sync"
	"time"
)

// cacheEntry is one cached value with its expiry.
type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// TTLCache is a small in-process cache with per-entry expiry, used for
// leaderboard snapshots and third-party API responses. Constructed and
// passed explicitly; lifecycle is Close when the owner shuts down.
type TTLCache struct {
	data          map[string]cacheEntry
	mutex         sync.RWMutex
	ttl           time.Duration
	cleanupTicker *time.Ticker
	done          chan bool
}

// NewTTLCache creates a cache whose entries expire after ttl. A cleanup
// goroutine sweeps expired entries every 5 minutes.
func NewTTLCache(ttl time.Duration) *TTLCache {
	c := &TTLCache{
		data: make(map[string]cacheEntry),
		ttl:  ttl,
		done: make(chan bool),
	}
	c.cleanupTicker = time.NewTicker(5 * time.Minute)
	go c.cleanupRoutine()
	return c
}

// Close stops the cleanup goroutine.
func (c *TTLCache) Close() {
	if c.cleanupTicker != nil {
		c.cleanupTicker.Stop()
		close(c.done)
	}
}

// Get returns the cached value for key if present and unexpired.
func (c *TTLCache) Get(key string) (any, bool) {
	c.mutex.RLock()
	entry, exists := c.data[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mutex.Lock()
		delete(c.data, key)
		c.mutex.Unlock()
		return nil, false
	}
	return entry.value, true
}

// Set stores value under key with the cache's TTL.
func (c *TTLCache) Set(key string, value any) {
	c.mutex.Lock()
	c.data[key] = cacheEntry{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mutex.Unlock()
}

// Delete removes key.
func (c *TTLCache) Delete(key string) {
	c.mutex.Lock()
	delete(c.data, key)
	c.mutex.Unlock()
}

// Size returns the number of entries, expired or not.
func (c *TTLCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

func (c *TTLCache) cleanupRoutine() {
	for {
		select {
		case <-c.cleanupTicker.C:
			c.cleanup()
		case <-c.done:
			return
		}
	}
}

func (c *TTLCache) cleanup() {
	now := time.Now()
	c.mutex.Lock()
	for key, entry := range c.data {
		if now.After(entry.expiresAt) {
			delete(c.data, key)
		}
	}
	c.mutex.Unlock()
}

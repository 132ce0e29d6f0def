package feeds

import (
	"sync"
	"time"

	"github.com/derekross/nostrvalley/metrics"
)

// Cache is a small TTL memo for feed results. It is intentionally not a
// store: entries are derived, re-fetchable data and the whole cache can be
// dropped at any time.
type Cache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value    any
	storedAt time.Time
}

// NewCache creates a cache whose entries expire after ttl.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

func (c *Cache) get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Since(e.storedAt) > c.ttl {
		metrics.FeedCacheHits.WithLabelValues(key, "miss").Inc()
		return nil, false
	}
	metrics.FeedCacheHits.WithLabelValues(key, "hit").Inc()
	return e.value, true
}

func (c *Cache) set(key string, value any) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, storedAt: time.Now()}
	c.mu.Unlock()
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

package imageproxy

import (
	"sync"
	"time"
)

const DefaultTTL = 30 * time.Minute

type Entry struct {
	Data        []byte
	ContentType string
	StoredAt    time.Time
}

// URLCache keeps proxied media by key. Implementations must be safe for
// concurrent use.
type URLCache interface {
	Get(key string) (Entry, bool)
	Set(key string, e Entry)
}

type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{entries: make(map[string]Entry), ttl: ttl, now: time.Now}
}

func (c *MemoryCache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().Sub(e.StoredAt) >= c.ttl {
		return Entry{}, false
	}
	return e, true
}

// Set stores e stamped with the cache clock.
func (c *MemoryCache) Set(key string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.StoredAt = c.now()
	c.entries[key] = e
}

// Prune drops expired entries and returns how many were removed.
func (c *MemoryCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if c.now().Sub(e.StoredAt) >= c.ttl {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

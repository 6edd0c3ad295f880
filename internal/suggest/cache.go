package suggest

import (
	"sync"
	"time"

	"github.com/radup/fintable/internal/service"
)

// cacheEntry represents a cached suggestion.
type cacheEntry struct {
	expiry     time.Time
	suggestion service.Suggestion
}

// suggestionCache provides thread-safe caching keyed by record id.
type suggestionCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
}

// newSuggestionCache creates a new cache with the specified TTL.
func newSuggestionCache(ttl time.Duration) *suggestionCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cache := &suggestionCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

// get returns the cached suggestion for id, if present and fresh.
func (c *suggestionCache) get(id string) (service.Suggestion, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[id]
	if !ok || time.Now().After(entry.expiry) {
		return service.Suggestion{}, false
	}
	return entry.suggestion, true
}

// put stores a suggestion for id.
func (c *suggestionCache) put(id string, suggestion service.Suggestion) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[id] = cacheEntry{
		suggestion: suggestion,
		expiry:     time.Now().Add(c.ttl),
	}
}

// cleanup periodically evicts expired entries.
func (c *suggestionCache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for id, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, id)
				}
			}
			c.mu.Unlock()
		}
	}
}

// Close stops the cleanup goroutine.
func (c *suggestionCache) Close() {
	close(c.stopCh)
}

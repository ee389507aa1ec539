package feed

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type cacheEntry struct {
	feed      *Feed
	expiresAt time.Time
}

// CachedFetcher wraps a Fetcher with a short TTL cache, keyed on
// url+limit. Status polling hits the same feed every few seconds; the
// cache keeps that off the remote server.
type CachedFetcher struct {
	fetcher Fetcher
	entries map[string]*cacheEntry
	mu      sync.RWMutex
	ttl     time.Duration
}

// NewCachedFetcher wraps fetcher with a TTL cache
func NewCachedFetcher(fetcher Fetcher, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{
		fetcher: fetcher,
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
	}
}

// Fetch serves from cache when fresh, otherwise delegates. Errors are
// never cached.
func (c *CachedFetcher) Fetch(ctx context.Context, url string, limit int) (*Feed, error) {
	key := fmt.Sprintf("%s|%d", url, limit)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && entry.expiresAt.After(time.Now()) {
		return entry.feed, nil
	}

	f, err := c.fetcher.Fetch(ctx, url, limit)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = &cacheEntry{feed: f, expiresAt: time.Now().Add(c.ttl)}
	c.evictExpiredLocked()
	c.mu.Unlock()

	return f, nil
}

// Invalidate drops every cached window for one feed URL
func (c *CachedFetcher) Invalidate(url string) {
	prefix := url + "|"
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
}

// evictExpiredLocked sweeps dead entries; called with the write lock
// held, piggybacked on inserts so no background goroutine is needed
func (c *CachedFetcher) evictExpiredLocked() {
	now := time.Now()
	for key, entry := range c.entries {
		if entry.expiresAt.Before(now) {
			delete(c.entries, key)
		}
	}
}

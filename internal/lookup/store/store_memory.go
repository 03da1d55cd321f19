package store

import (
	"context"
	"sync"
	"time"

	"dbservice/internal/lookup"
	"dbservice/pkg/platform/sentinel"
)

type cachedResult struct {
	result   lookup.Result
	storedAt time.Time
}

// InMemoryCache keeps lookup results in process with TTL expiration.
type InMemoryCache struct {
	mu       sync.RWMutex
	results  map[string]cachedResult
	cacheTTL time.Duration
	now      func() time.Time
}

// NewInMemoryCache creates an in-memory cache with the specified TTL.
func NewInMemoryCache(cacheTTL time.Duration) *InMemoryCache {
	return &InMemoryCache{
		results:  make(map[string]cachedResult),
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Save stores res under q. A nil result or a non-positive TTL is a no-op.
func (c *InMemoryCache) Save(_ context.Context, q lookup.Query, res *lookup.Result) error {
	if res == nil || c.cacheTTL <= 0 {
		return nil
	}
	stored := *res
	stored.Results = append([]lookup.Record(nil), res.Results...)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictExpiredLocked()
	c.results[Key(q)] = cachedResult{result: stored, storedAt: c.now()}
	return nil
}

// Find returns the cached result for q, or sentinel.ErrNotFound if it is
// missing or older than the TTL.
func (c *InMemoryCache) Find(_ context.Context, q lookup.Query) (*lookup.Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if cached, ok := c.results[Key(q)]; ok {
		if c.now().Sub(cached.storedAt) < c.cacheTTL {
			res := cached.result
			res.Results = append([]lookup.Record(nil), cached.result.Results...)
			return &res, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Len reports the number of stored entries, expired ones included.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}

func (c *InMemoryCache) evictExpiredLocked() {
	now := c.now()
	for k, v := range c.results {
		if now.Sub(v.storedAt) >= c.cacheTTL {
			delete(c.results, k)
		}
	}
}

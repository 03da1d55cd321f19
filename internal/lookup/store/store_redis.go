package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dbservice/internal/lookup"
	"dbservice/pkg/platform/sentinel"
)

// RedisCache shares lookup results across instances. Entries expire through
// Redis TTLs.
type RedisCache struct {
	client   *redis.Client
	cacheTTL time.Duration
}

// NewRedisCache constructs a Redis-backed lookup cache.
func NewRedisCache(client *redis.Client, cacheTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, cacheTTL: cacheTTL}
}

// Save stores res under q using SET with expiry.
func (c *RedisCache) Save(ctx context.Context, q lookup.Query, res *lookup.Result) error {
	if res == nil || c.cacheTTL <= 0 {
		return nil
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode lookup result: %w", err)
	}
	if err := c.client.Set(ctx, Key(q), payload, c.cacheTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return nil
}

// Find returns the cached result for q, or sentinel.ErrNotFound.
func (c *RedisCache) Find(ctx context.Context, q lookup.Query) (*lookup.Result, error) {
	payload, err := c.client.Get(ctx, Key(q)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	var res lookup.Result
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("decode lookup result: %w", err)
	}
	return &res, nil
}

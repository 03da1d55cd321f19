//go:build integration

// Package containers starts throwaway backing services for integration tests.
package containers

import (
	"context"
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const redisImage = "redis:7-alpine"

// RedisContainer is a Redis server for the lookup cache tests, with a
// connected client.
type RedisContainer struct {
	URL    string
	Client *redis.Client

	container testcontainers.Container
	once      sync.Once
}

// NewRedisContainer starts Redis and fails the test if it cannot be reached.
// The container is terminated when the test ends.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, redisImage)
	if err != nil {
		t.Fatalf("start %s: %v", redisImage, err)
	}
	rc := &RedisContainer{container: container}
	t.Cleanup(func() { rc.Terminate(context.Background()) })

	rc.URL, err = container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("redis connection string: %v", err)
	}
	opts, err := redis.ParseURL(rc.URL)
	if err != nil {
		t.Fatalf("parse %s: %v", rc.URL, err)
	}
	rc.Client = redis.NewClient(opts)
	if err := rc.Client.Ping(ctx).Err(); err != nil {
		t.Fatalf("ping %s: %v", rc.URL, err)
	}
	return rc
}

// FlushAll empties the database between tests.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}

// Terminate closes the client and stops the container. Later calls are no-ops.
func (r *RedisContainer) Terminate(ctx context.Context) {
	r.once.Do(func() {
		if r.Client != nil {
			_ = r.Client.Close()
		}
		_ = r.container.Terminate(ctx)
	})
}

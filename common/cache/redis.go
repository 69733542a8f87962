package cache

import (
	"context"
	"errors"
	"time"

	rediscommon "github.com/villagereg/landregistry/common/redis"
)

// RedisCache backs the Cache interface with Redis so multiple registry
// instances share one read cache.
type RedisCache struct {
	client *rediscommon.Client
}

// NewRedisCache creates a Redis-backed cache
func NewRedisCache(client *rediscommon.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get retrieves a value from cache
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, rediscommon.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(val), true, nil
}

// Set stores a value in cache with TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.SetWithExpiry(ctx, key, string(value), ttl)
}

// Delete removes a value from cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Delete(ctx, key)
}

// Close closes the cache. The underlying Redis connection is owned by the
// container, so there is nothing to release here.
func (c *RedisCache) Close() error {
	return nil
}

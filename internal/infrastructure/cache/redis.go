package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"planpilot-service/pkg/logger"
)

// RedisCache implements Cache on a shared Redis instance so parallel
// pipeline workers dedupe upstream calls across processes.
type RedisCache struct {
	client *redis.Client
	logger logger.Logger
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, addr, password string, db int, log logger.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisCache{client: client, logger: log}, nil
}

// Get returns the cached value if present.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Redis get failed", "key", key, "error", err)
		return nil, false
	}
	return value, true
}

// Set stores a value with the given TTL. Failures are logged and ignored;
// the cache is an optimization, not a source of truth.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Warn("Redis set failed", "key", key, "error", err)
	}
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

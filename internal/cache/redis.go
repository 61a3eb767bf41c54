package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"farmstead/internal/log"
)

// RedisCache stores JSON-encoded values in Redis under a key prefix so that
// several processes share one cache. Redis failures degrade to misses.
type RedisCache[T any] struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	logger  *log.Logger
}

var _ Cache[int] = (*RedisCache[int])(nil)

// NewRedisCache returns a cache namespaced by prefix. A non-positive ttl
// stores keys without expiry.
func NewRedisCache[T any](client *redis.Client, prefix string, ttl time.Duration, logger *log.Logger) *RedisCache[T] {
	if client == nil {
		panic("cache.NewRedisCache: client is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &RedisCache[T]{
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
		timeout: 2 * time.Second,
		logger:  logger.WithComponent(log.ComponentCache),
	}
}

func (c *RedisCache[T]) key(k string) string {
	return c.prefix + k
}

func (c *RedisCache[T]) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func (c *RedisCache[T]) Get(key string) (T, bool) {
	var zero T
	ctx, cancel := c.ctx()
	defer cancel()

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Redis get failed", log.FieldCacheKey, key, log.FieldError, err)
			_ = c.client.Del(ctx, c.key(key)).Err()
		}
		return zero, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("Dropping undecodable cache value", log.FieldCacheKey, key, log.FieldError, err)
		_ = c.client.Del(ctx, c.key(key)).Err()
		return zero, false
	}
	return v, true
}

func (c *RedisCache[T]) Set(key string, data T) {
	payload, err := json.Marshal(data)
	if err != nil {
		c.logger.Warn("Cache value not encodable", log.FieldCacheKey, key, log.FieldError, err)
		return
	}
	ctx, cancel := c.ctx()
	defer cancel()
	if err := c.client.Set(ctx, c.key(key), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("Redis set failed", log.FieldCacheKey, key, log.FieldError, err)
	}
}

func (c *RedisCache[T]) Invalidate(key string) {
	ctx, cancel := c.ctx()
	defer cancel()
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		c.logger.Warn("Redis delete failed", log.FieldCacheKey, key, log.FieldError, err)
	}
}

// Size counts keys under the prefix. It scans, so keep it off hot paths.
func (c *RedisCache[T]) Size() int {
	ctx, cancel := c.ctx()
	defer cancel()
	n := 0
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("Redis scan failed", log.FieldError, err)
	}
	return n
}

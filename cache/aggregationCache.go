package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"elasticsearch-demo-backend/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache stores JSON encoded values under keys grouped by resource.
type Cache interface {
	// Get decodes the cached value into dst and reports whether it was found.
	Get(ctx context.Context, resource string, params map[string]string, dst any) (bool, error)
	Set(ctx context.Context, resource string, params map[string]string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, resource string) error
}

type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisCache(client *redis.Client, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, resource string, params map[string]string, dst any) (bool, error) {
	key := utils.GenerateHash(resource, params)
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// a value we cannot read is as good as a miss
		c.logger.Warn("Dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.logger.Warn("Failed to delete cache entry", zap.String("key", key), zap.Error(err))
		}
		return false, nil
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, resource string, params map[string]string, value any, ttl time.Duration) error {
	key := utils.GenerateHash(resource, params)
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, resource string) error {
	n, err := utils.InvalidateCache(ctx, c.client, resource)
	if err != nil {
		return err
	}
	c.logger.Debug("Cache invalidated", zap.String("resource", resource), zap.Int("keys", n))
	return nil
}

// Noop never stores anything. It is used when Redis is not configured.
type Noop struct{}

func (Noop) Get(context.Context, string, map[string]string, any) (bool, error) { return false, nil }

func (Noop) Set(context.Context, string, map[string]string, any, time.Duration) error { return nil }

func (Noop) Invalidate(context.Context, string) error { return nil }

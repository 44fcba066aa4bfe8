package utils

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// InvalidateCache deletes every cached key of the given resource type.
func InvalidateCache(ctx context.Context, rdb *redis.Client, resourceType string) (int, error) {
	// SCAN rather than KEYS so a large keyspace does not block the server
	pattern := fmt.Sprintf("%s:*", resourceType)
	iter := rdb.Scan(ctx, 0, pattern, 100).Iterator()

	deleted := 0
	for iter.Next(ctx) {
		key := iter.Val()
		if err := rdb.Del(ctx, key).Err(); err != nil {
			return deleted, fmt.Errorf("failed to delete key %s: %w", key, err)
		}
		deleted++
	}

	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("error during SCAN iteration: %w", err)
	}

	return deleted, nil
}

package config

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

func redisAddress() string {
	return GetEnvDefault("REDIS_ADDRESS", "localhost:6379")
}

func InitRedisServer(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddress(),
		Password: GetEnv("REDIS_PASSWORD"),
		DB:       0,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", redisAddress(), err)
	}

	return client, nil
}

// AsynqRedisOpt points asynq at the same Redis server.
func AsynqRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     redisAddress(),
		Password: GetEnv("REDIS_PASSWORD"),
		DB:       0,
	}
}

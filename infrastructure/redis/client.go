package redis

import (
	"context"
	"fmt"
	"time"

	"droidfolio/config"

	"github.com/redis/go-redis/v9"
)

// NewClient creates the Redis client backing the redis record store
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,

		// Connection pool configuration. Traffic is a handful of whole-collection
		// reads and writes per request, so the pool stays small.
		PoolSize:     10,
		MinIdleConns: 2,
		MaxIdleConns: 5,
		PoolTimeout:  4 * time.Second,

		// Timeouts
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,

		ConnMaxIdleTime: 5 * time.Minute,
		ConnMaxLifetime: 30 * time.Minute,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return client, nil
}

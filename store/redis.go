package store

import (
	"context"
	"errors"
	"time"

	"droidfolio/pkg/breaker"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// Redis stores each record as a plain string value under prefix+key.
// Every call goes through a circuit breaker so a dead Redis fails fast.
type Redis struct {
	client redis.UniversalClient
	prefix string
	cb     *gobreaker.CircuitBreaker
}

// NewRedis wraps an already connected client
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		cb: breaker.New(breaker.Config{
			Name:    "redis-store",
			Timeout: 15 * time.Second,
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
			},
		}),
	}
}

// Client exposes the underlying client for pool metrics
func (r *Redis) Client() redis.UniversalClient {
	return r.client
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()

	data, err := breaker.ExecuteCtx(ctx, r.cb, func(ctx context.Context) ([]byte, error) {
		b, err := r.client.Get(ctx, r.prefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return b, err
	})

	err = wrap("get", key, err)
	observe("redis", "get", start, err)
	return data, err
}

func (r *Redis) Put(ctx context.Context, key string, value []byte) error {
	start := time.Now()

	_, err := breaker.ExecuteCtx(ctx, r.cb, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.client.Set(ctx, r.prefix+key, value, 0).Err()
	})

	err = wrap("put", key, err)
	observe("redis", "put", start, err)
	return err
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	start := time.Now()

	_, err := breaker.ExecuteCtx(ctx, r.cb, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.client.Del(ctx, r.prefix+key).Err()
	})

	err = wrap("delete", key, err)
	observe("redis", "delete", start, err)
	return err
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

package limiter

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Storage is an interface for storing and retrieving token buckets
type Storage interface {
	// Get retrieves a token bucket for the given key, nil if there is none
	Get(ctx context.Context, key string) (*TokenBucket, error)

	// Set stores a token bucket for the given key
	Set(ctx context.Context, key string, bucket *TokenBucket) error

	// Delete removes a token bucket for the given key
	Delete(ctx context.Context, key string) error
}

type InMemoryStorage struct {
	buckets map[string]*TokenBucket
	mu      sync.RWMutex
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		buckets: make(map[string]*TokenBucket),
	}
}

func (s *InMemoryStorage) Get(ctx context.Context, key string) (*TokenBucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buckets[key], nil
}

func (s *InMemoryStorage) Set(ctx context.Context, key string, bucket *TokenBucket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buckets[key] = bucket
	return nil
}

func (s *InMemoryStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.buckets, key)
	return nil
}

// RedisStorage shares buckets between instances. Get and Set are not atomic
// together, so concurrent requests from one key may both take the last token.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisStorage(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client: client,
		prefix: prefix + "ratelimit:",
		ttl:    ttl,
	}
}

func (s *RedisStorage) Get(ctx context.Context, key string) (*TokenBucket, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var bucket TokenBucket
	if err := json.Unmarshal(data, &bucket); err != nil {
		return nil, err
	}
	return &bucket, nil
}

func (s *RedisStorage) Set(ctx context.Context, key string, bucket *TokenBucket) error {
	bucket.mu.Lock()
	data, err := json.Marshal(bucket)
	bucket.mu.Unlock()
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+key, data, s.ttl).Err()
}

func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

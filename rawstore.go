package main

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RawStore keeps fetched feed payloads so several dashboard processes can
// share one upstream fetch.
type RawStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

const rawKeyPrefix = "trail:feed:"

type RedisRawStore struct {
	client *redis.Client
}

func NewRedisRawStore(client *redis.Client) *RedisRawStore {
	return &RedisRawStore{client: client}
}

func (s *RedisRawStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, rawKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Put stores data under key; a zero ttl stores it without expiry.
func (s *RedisRawStore) Put(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.client.Set(ctx, rawKeyPrefix+key, data, ttl).Err()
}

func newRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

package redis

import (
	"context"
	"errors"

	"interview-analysis/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

var _ repository.KVStore = (*KVStore)(nil)

// KVStore persists plain string values without expiry.
type KVStore struct {
	client RedisClient
}

func NewKVStore(client RedisClient) *KVStore {
	return &KVStore{client: client}
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, 0)
}

func (s *KVStore) Remove(ctx context.Context, key string) error {
	return s.client.Del(ctx, key)
}

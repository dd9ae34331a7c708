package repository

import (
	"context"
	"errors"
	"qdrt_backend/internal/util"

	"github.com/go-redis/redis/v8"
)

type RedisStateStore struct {
	Client *redis.Client
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{Client: client}
}

func (s *RedisStateStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, util.ErrStateNotFound
	}
	return data, err
}

func (s *RedisStateStore) Save(ctx context.Context, key string, value []byte) error {
	return s.Client.Set(ctx, key, value, 0).Err()
}

func (s *RedisStateStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

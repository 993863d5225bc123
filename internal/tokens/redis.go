package tokens

import (
	"context"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisStore{client: client}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func key(purpose, token string) string {
	return "authtoken:" + purpose + ":" + token
}

func (s *RedisStore) Put(ctx context.Context, purpose, token string, userID uint, ttl time.Duration) error {
	return s.client.Set(ctx, key(purpose, token), strconv.FormatUint(uint64(userID), 10), ttl).Err()
}

func (s *RedisStore) Consume(ctx context.Context, purpose, token string) (uint, bool, error) {
	val, err := s.client.GetDel(ctx, key(purpose, token)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return uint(id), true, nil
}

func (s *RedisStore) Peek(ctx context.Context, purpose, token string) (bool, error) {
	n, err := s.client.Exists(ctx, key(purpose, token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

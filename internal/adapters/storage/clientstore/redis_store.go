package clientstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis, one key per item with a TTL.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store.
// PRE: client is connected; prefix namespaces the keys of this application
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(namespace, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, namespace, key)
}

// GetItem reads an item; redis.Nil means missing.
func (s *RedisStore) GetItem(ctx context.Context, namespace, key string) (string, bool, error) {
	if err := checkArgs(namespace); err != nil {
		return "", false, err
	}
	val, err := s.client.Get(ctx, s.key(namespace, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// SetItem writes an item with the store TTL.
func (s *RedisStore) SetItem(ctx context.Context, namespace, key, value string) error {
	if err := checkArgs(namespace); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(namespace, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// RemoveItem deletes an item.
func (s *RedisStore) RemoveItem(ctx context.Context, namespace, key string) error {
	if err := checkArgs(namespace); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.key(namespace, key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

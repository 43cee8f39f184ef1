package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed Store for deployments where multiple
// processes should share one response cache.
//
// Keys are hashed before being sent to Redis, under a fixed prefix, so the
// store can coexist with other users of the same database. Expiry is
// delegated to Redis TTLs; a TTL of 0 stores the entry without expiry.
type RedisStore struct {
	client *redis.Client
}

const redisKeyPrefix = "tidemark:resp:"

// NewRedisStore connects to the Redis instance at addr and verifies the
// connection with a ping.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

// Get retrieves a value by key. A missing or expired Redis key is a miss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value under key with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(key), data, ttl).Err()
}

// Delete removes a value from the store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

// Close closes the underlying Redis connection.
func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) key(key string) string {
	return redisKeyPrefix + Hash([]byte(key))
}

var _ Store = (*RedisStore)(nil)

package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore stores values as plain Redis strings with no expiry.
// Freshness is tracked by the caller, not by Redis TTLs.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a store on top of an existing Redis client.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis: redisClient,
	}
}

// GetValue implements Store.
func (r *RedisStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	value, err := r.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		if errors.Is(err, redis.ErrClosed) {
			return "", false, ErrClosed
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return value, true, nil
}

// SetValue implements Store.
func (r *RedisStore) SetValue(ctx context.Context, key, value string) error {
	if err := r.redis.Set(ctx, key, value, 0).Err(); err != nil {
		if errors.Is(err, redis.ErrClosed) {
			return ErrClosed
		}
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (r *RedisStore) Close() error {
	return r.redis.Close()
}

// file: service/token_store.go

package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrKeyNotFound is returned by ITokenStore implementations when a key does
// not exist. Store or network failures are returned as-is and must be treated
// as transient by callers, never as proof of token invalidity.
var ErrKeyNotFound = errors.New("key not found")

// ITokenStore defines the contract for the key-value store that backs
// session state. This abstraction decouples the SessionService from a
// concrete Redis implementation, enabling easier testing and future
// flexibility.
type ITokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	// GetDel atomically reads and deletes a key, so a refresh record can be
	// consumed by exactly one caller.
	GetDel(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// RedisTokenStore implements ITokenStore.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrKeyNotFound
	}
	return val, err
}

func (s *RedisTokenStore) GetDel(ctx context.Context, key string) (string, error) {
	val, err := s.client.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrKeyNotFound
	}
	return val, err
}

func (s *RedisTokenStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisTokenStore) Del(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

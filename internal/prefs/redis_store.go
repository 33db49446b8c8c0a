package prefs

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps preferences in Redis under `prefs:<userID>:<key>`.
// Entries carry no TTL; the Session expiry policy is time-based on the
// stored last-visit value, not on Redis expiration.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a RedisStore from an already connected client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(userID uint64, key string) string {
	return fmt.Sprintf("prefs:%d:%s", userID, key)
}

// Get returns the stored value or def when the key does not exist.
func (s *RedisStore) Get(ctx context.Context, userID uint64, key, def string) (string, error) {
	v, err := s.client.Get(ctx, redisKey(userID, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return def, nil
		}
		return "", err
	}
	return v, nil
}

// Set stores a value for the user.
func (s *RedisStore) Set(ctx context.Context, userID uint64, key, value string) error {
	return s.client.Set(ctx, redisKey(userID, key), value, 0).Err()
}

// Remove deletes a key; removing an absent key is not an error.
func (s *RedisStore) Remove(ctx context.Context, userID uint64, key string) error {
	return s.client.Del(ctx, redisKey(userID, key)).Err()
}

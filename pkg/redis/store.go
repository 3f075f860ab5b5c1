package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a namespaced byte store on top of a Redis client.
type Store struct {
	db     redis.UniversalClient
	prefix string
}

// NewStore wraps client; every key is stored under prefix.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	return &Store{db: client, prefix: prefix}
}

// Get returns the value for key. A missing key returns ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.db.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return val, err
}

// Set stores val under key. A zero ttl means no expiration.
func (s *Store) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.db.Set(ctx, s.prefix+key, val, ttl).Err()
}

// Delete removes keys. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	return s.db.Del(ctx, full...).Err()
}

// Key returns the full Redis key for key.
func (s *Store) Key(key string) string {
	return s.prefix + key
}

// Client returns the underlying client.
func (s *Store) Client() redis.UniversalClient {
	return s.db
}

// Healthcheck pings the server.
func (s *Store) Healthcheck(ctx context.Context) error {
	if err := s.db.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

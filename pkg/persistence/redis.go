package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
	"github.com/redis/go-redis/v9"

	"github.com/sessionseal/sessionseal"
)

var (
	// Verify RedisStore implements the store interface.
	_ sessionseal.Store = (*RedisStore)(nil)

	storeRedisTimer  = metrics.GetOrRegisterTimer(fmt.Sprintf("%s.store.redis.store", sessionseal.MetricsPrefix), nil)
	loadRedisTimer   = metrics.GetOrRegisterTimer(fmt.Sprintf("%s.store.redis.load", sessionseal.MetricsPrefix), nil)
	removeRedisTimer = metrics.GetOrRegisterTimer(fmt.Sprintf("%s.store.redis.remove", sessionseal.MetricsPrefix), nil)
)

const defaultRedisKeyPrefix = "seal:"

// RedisStore implements the Store interface on top of a Redis client. An
// optional TTL lets Redis expire abandoned records on its own; expiry is a
// storage concern and is invisible to the handler, which simply observes a
// missing record.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// RedisStoreOption is used to configure additional options in a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix sets the prefix prepended to every Redis key.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) {
		s.keyPrefix = prefix
	}
}

// WithTTL sets the time-to-live applied to stored records. Zero (the
// default) stores records without expiry.
func WithTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore returns a new Redis-backed store using the provided client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	store := &RedisStore{
		client:    client,
		keyPrefix: defaultRedisKeyPrefix,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *RedisStore) redisKey(key string) string {
	return s.keyPrefix + key
}

// Load retrieves the record for the given storage key.
// The return value will be nil if not already present.
func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	defer loadRedisTimer.UpdateSince(time.Now())

	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "error loading session record")
	}

	return data, nil
}

// Store persists the record under the given storage key, replacing any
// existing record.
func (s *RedisStore) Store(ctx context.Context, key string, data []byte) error {
	defer storeRedisTimer.UpdateSince(time.Now())

	return errors.Wrapf(s.client.Set(ctx, s.redisKey(key), data, s.ttl).Err(), "error storing session record: %s", key)
}

// Remove deletes the record for the given storage key, if present.
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	defer removeRedisTimer.UpdateSince(time.Now())

	return errors.Wrapf(s.client.Del(ctx, s.redisKey(key)).Err(), "error removing session record: %s", key)
}

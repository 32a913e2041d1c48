package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"funnel_server/core/domain"
	"funnel_server/core/port/out"

	"github.com/redis/go-redis/v9"
)

const defaultPreferenceKey = "funnel:preferences"

// RedisPreferenceStore keeps the preference document under a single key.
// Concurrent writers are last-write-wins.
type RedisPreferenceStore struct {
	client   *redis.Client
	key      string
	defaults DefaultsFunc
	now      func() time.Time
}

var _ out.PreferenceStore = (*RedisPreferenceStore)(nil)

func NewRedisPreferenceStore(client *redis.Client, defaults DefaultsFunc) *RedisPreferenceStore {
	return &RedisPreferenceStore{
		client:   client,
		key:      defaultPreferenceKey,
		defaults: defaults,
		now:      time.Now,
	}
}

func (s *RedisPreferenceStore) Backend() string {
	return "redis"
}

func (s *RedisPreferenceStore) Load(ctx context.Context) (*domain.Preferences, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return s.defaults(), nil
	}
	if err != nil {
		return s.defaults(), &domain.DegradedError{Backend: s.Backend(), Err: err}
	}
	return decodePreferences(data, s.Backend(), s.defaults)
}

func (s *RedisPreferenceStore) Save(ctx context.Context, prefs *domain.Preferences) error {
	prefs.UpdatedAt = s.now().UTC()
	data, err := encodePreferences(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	return s.client.Set(ctx, s.key, data, 0).Err()
}

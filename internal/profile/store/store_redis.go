package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"healthrisk/internal/profile"
	"healthrisk/pkg/platform/sentinel"
)

const (
	assessmentKeyPrefix = "assessment:"

	// DefaultRedisTTL bounds how long assessments stay retrievable.
	DefaultRedisTTL = 24 * time.Hour
)

// RedisStore persists assessments as JSON values with an expiry, so that multiple
// instances behind a load balancer can serve GET /assessments/{id}.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisStoreOption configures a RedisStore instance.
type RedisStoreOption func(*RedisStore)

// WithTTL overrides the entry expiry. Non-positive values are ignored.
func WithTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedisStore constructs a Redis-backed assessment store.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, ttl: DefaultRedisTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *RedisStore) Save(ctx context.Context, a *profile.Assessment) error {
	if a == nil {
		return fmt.Errorf("assessment is required")
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	if err := s.client.Set(ctx, assessmentKey(a.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save assessment: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, id uuid.UUID) (*profile.Assessment, error) {
	payload, err := s.client.Get(ctx, assessmentKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find assessment: %w", err)
	}
	var a profile.Assessment
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("decode assessment: %w", errors.Join(sentinel.ErrMalformed, err))
	}
	return &a, nil
}

func assessmentKey(id uuid.UUID) string {
	return assessmentKeyPrefix + id.String()
}

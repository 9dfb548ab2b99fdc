//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"healthrisk/internal/profile"
	"healthrisk/internal/profile/store"
	"healthrisk/pkg/platform/sentinel"
	"healthrisk/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = store.NewRedisStore(s.redis.Client.Client, store.WithTTL(time.Minute))
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	a := newAssessment()

	s.Require().NoError(s.store.Save(ctx, a))

	found, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.ID, found.ID)
	s.Equal(a.Factors, found.Factors)
	s.Equal(a.Recommendations, found.Recommendations)
	s.Equal(a.RiskLevel, found.RiskLevel)
	s.True(a.CreatedAt.Equal(found.CreatedAt))
}

func (s *RedisStoreSuite) TestEntriesExpire() {
	ctx := context.Background()
	a := newAssessment()
	s.Require().NoError(s.store.Save(ctx, a))

	ttl, err := s.redis.Client.TTL(ctx, "assessment:"+a.ID.String()).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)
}

func (s *RedisStoreSuite) TestIncompleteProfileRoundTrip() {
	ctx := context.Background()
	a := newIncompleteAssessment()
	s.Require().NoError(s.store.Save(ctx, a))

	found, err := s.store.FindByID(ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.Result(), found.Result())
}

func (s *RedisStoreSuite) TestMissingIsNotFound() {
	_, err := s.store.FindByID(context.Background(), uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func newAssessment() *profile.Assessment {
	return &profile.Assessment{
		ID:              uuid.New(),
		Source:          profile.SourceImage,
		Status:          profile.StatusOK,
		RiskLevel:       profile.RiskHigh,
		Score:           80,
		Factors:         []profile.Factor{profile.FactorSmoking, profile.FactorPoorDiet, profile.FactorLowExercise},
		Recommendations: []string{"Quit smoking", "Reduce sugar", "Walk 30 mins daily"},
		Confidence:      0.85,
		CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
	}
}

func newIncompleteAssessment() *profile.Assessment {
	return &profile.Assessment{
		ID:              uuid.New(),
		Source:          profile.SourceImage,
		Status:          profile.StatusIncompleteProfile,
		Factors:         []profile.Factor{},
		Recommendations: []string{},
		Reason:          ">50% fields missing. Missing: smoker, exercise, diet",
		Missing:         []profile.Field{profile.FieldSmoker, profile.FieldExercise, profile.FieldDiet},
		Confidence:      0.9,
		CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
	}
}

//go:build integration

package publicverify_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sanad/internal/publicverify"
	"sanad/pkg/testutil/containers"
)

type RedisLimiterSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisLimiterSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLimiterSuite))
}

func (s *RedisLimiterSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisLimiterSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLimiterSuite) TestEnforcesLimit() {
	ctx := context.Background()
	limiter := publicverify.NewRedisLimiter(s.redis.Client, 3, time.Hour)

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "203.0.113.7")
		s.Require().NoError(err)
		s.True(allowed, "request %d should be within the limit", i+1)
	}

	allowed, err := limiter.Allow(ctx, "203.0.113.7")
	s.Require().NoError(err)
	s.False(allowed)
}

func (s *RedisLimiterSuite) TestKeysAreIsolated() {
	ctx := context.Background()
	limiter := publicverify.NewRedisLimiter(s.redis.Client, 1, time.Hour)

	allowed, err := limiter.Allow(ctx, "203.0.113.7")
	s.Require().NoError(err)
	s.True(allowed)

	allowed, err = limiter.Allow(ctx, "203.0.113.7")
	s.Require().NoError(err)
	s.False(allowed)

	allowed, err = limiter.Allow(ctx, "198.51.100.4")
	s.Require().NoError(err)
	s.True(allowed)
}

//go:build integration

package allocator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"sanad/internal/allocator"
	"sanad/pkg/testutil/containers"
)

type RedisAllocatorSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	alloc *allocator.Redis
}

func TestRedisAllocatorSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisAllocatorSuite))
}

func (s *RedisAllocatorSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.alloc = allocator.NewRedis(s.redis.Client)
}

func (s *RedisAllocatorSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisAllocatorSuite) TestSequentialAllocation() {
	ctx := context.Background()
	for want := uint64(1); want <= 5; want++ {
		got, err := s.alloc.Next(ctx, allocator.ScopeEmployee)
		s.Require().NoError(err)
		s.Equal(want, got)
	}
}

func (s *RedisAllocatorSuite) TestScopesAreIndependent() {
	ctx := context.Background()

	_, err := s.alloc.Next(ctx, allocator.StaffScope("UNI_0001"))
	s.Require().NoError(err)

	other, err := s.alloc.Next(ctx, allocator.StaffScope("UNI_0002"))
	s.Require().NoError(err)
	s.Equal(uint64(1), other)
}

func (s *RedisAllocatorSuite) TestConcurrentAllocation() {
	ctx := context.Background()
	const goroutines = 32

	results := make([]uint64, goroutines)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < goroutines; i++ {
		i := i
		g.Go(func() error {
			n, err := s.alloc.Next(gctx, allocator.DegreeScope("UNI_0001"))
			if err != nil {
				return err
			}
			results[i] = n
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	seen := make(map[uint64]bool, goroutines)
	for _, n := range results {
		s.False(seen[n], "sequence %d allocated twice", n)
		seen[n] = true
	}
	s.Len(seen, goroutines)
}

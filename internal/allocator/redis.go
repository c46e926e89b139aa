package allocator

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"sanad/pkg/platform/sentinel"
)

const redisKeyPrefix = "sanad:seq:"

// Redis allocates sequence numbers with INCR, which is atomic per key, so
// the allocator stays linearizable when several server instances share one
// Redis.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed allocator.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Next returns the next sequence number for scope, starting at 1.
func (a *Redis) Next(ctx context.Context, scope string) (uint64, error) {
	n, err := a.client.Incr(ctx, redisKeyPrefix+scope).Result()
	if err != nil {
		return 0, fmt.Errorf("allocator incr %q: %w", scope, sentinel.ErrUnavailable)
	}
	return uint64(n), nil
}

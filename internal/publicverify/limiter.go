package publicverify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const limiterKeyPrefix = "sanad:pvr:"

// Limiter throttles public verification attempts per client key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter is a fixed-window counter shared across instances. Each
// window gets its own key so expiry needs no bookkeeping.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewRedisLimiter constructs a Redis-backed limiter allowing limit requests
// per window.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: int64(limit), window: window}
}

// Allow counts the request against the current window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowKey := fmt.Sprintf("%s%s:%d", limiterKeyPrefix, key, time.Now().Unix()/int64(l.window.Seconds()))

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limiter incr: %w", err)
	}
	return count.Val() <= l.limit, nil
}

// MemoryLimiter is the single-instance fallback when Redis is not
// configured. Same fixed-window semantics as the Redis variant.
type MemoryLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	limit  int
	window time.Duration
	epoch  int64
	now    func() time.Time
}

// NewMemoryLimiter constructs an in-process limiter allowing limit requests
// per window.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		counts: make(map[string]int),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow counts the request against the current window. Rolling into a new
// window drops all previous counts at once.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	epoch := l.now().Unix() / int64(l.window.Seconds())
	if epoch != l.epoch {
		l.epoch = epoch
		l.counts = make(map[string]int)
	}
	l.counts[key]++
	return l.counts[key] <= l.limit, nil
}

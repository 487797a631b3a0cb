package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis, for deployments where several
// instances must share one window per caller. Fixed window via INCR with a
// PEXPIRE set on the first hit.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "ratelimit:", now: time.Now}
}

// Take increments the key's window counter and reports the verdict.
func (s *RedisStore) Take(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	rkey := s.prefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, rkey)
	ttl := pipe.PTTL(ctx, rkey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("ratelimit: take %q: %w", key, err)
	}

	count := incr.Val()
	remaining := ttl.Val()
	if remaining < 0 {
		// First hit of a fresh window; the counter has no expiry yet.
		remaining = window
		if err := s.client.PExpire(ctx, rkey, window).Err(); err != nil {
			return Result{}, fmt.Errorf("ratelimit: expire %q: %w", key, err)
		}
	}
	resetAt := s.now().Add(remaining)

	if count > int64(limit) {
		return Result{
			Limit:      limit,
			ResetAt:    resetAt,
			RetryAfter: remaining,
		}, nil
	}
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - int(count),
		ResetAt:   resetAt,
	}, nil
}

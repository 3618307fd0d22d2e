package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares fixed-window counters across instances. The first
// request of a window sets the key expiry; INCR and expiry run in one
// MULTI/EXEC transaction.
type RedisLimiter struct {
	rdb    redis.UniversalClient
	limit  int
	window time.Duration
}

// NewRedisLimiter wraps an existing client.
func NewRedisLimiter(rdb redis.UniversalClient, limit int, window time.Duration) *RedisLimiter {
	if limit <= 0 {
		limit = DefaultRequestsPerHour
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisLimiter{rdb: rdb, limit: limit, window: window}
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (r *RedisLimiter) Allow(ctx context.Context, userID string) (Decision, error) {
	key := Key(userID)
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.ExpireNX(ctx, key, r.window)
		ttl = p.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("redis rate limit: %w", err)
	}
	if incr.Val() <= int64(r.limit) {
		return Decision{Allowed: true}, nil
	}
	retry := ttl.Val()
	if retry <= 0 {
		retry = r.window
	}
	return Decision{Allowed: false, RetryAfter: retry}, nil
}

// HealthPing implements health.HealthPinger.
func (r *RedisLimiter) HealthPing(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

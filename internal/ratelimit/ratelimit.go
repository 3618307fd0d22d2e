// Package ratelimit gates generation runs by request rate and daily token use.
package ratelimit

import (
	"context"
	"time"
)

const (
	DefaultWindow          = time.Hour
	DefaultRequestsPerHour = 30
	DefaultDailyTokenQuota = int64(500000)
	DefaultQuotaWindow     = 24 * time.Hour
)

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds.
func (d Decision) RetryAfterSeconds() int {
	if d.RetryAfter <= 0 {
		return 0
	}
	return int((d.RetryAfter + time.Second - 1) / time.Second)
}

// Limiter counts requests per user in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, userID string) (Decision, error)
}

// Key returns the counter key for a user.
func Key(userID string) string { return "ai:" + userID }

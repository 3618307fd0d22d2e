package ratelimit

import (
	"context"
	"time"
)

// UsageLookup sums input plus output tokens recorded for a user since a time.
type UsageLookup interface {
	SumTokens(ctx context.Context, userID string, since time.Time) (int64, error)
}

// QuotaDecision is the outcome of one daily quota check.
type QuotaDecision struct {
	Allowed bool
	Used    int64
	Ceiling int64
	Since   time.Time
}

// QuotaChecker compares a user's token use over a lookback window against a ceiling.
type QuotaChecker struct {
	lookup  UsageLookup
	ceiling int64
	window  time.Duration
	now     func() time.Time
}

// NewQuotaChecker uses a 24h window. A non-positive ceiling uses the default.
func NewQuotaChecker(lookup UsageLookup, ceiling int64) *QuotaChecker {
	if ceiling <= 0 {
		ceiling = DefaultDailyTokenQuota
	}
	return &QuotaChecker{lookup: lookup, ceiling: ceiling, window: DefaultQuotaWindow, now: time.Now}
}

// WithQuotaClock replaces time.Now, for tests.
func (q *QuotaChecker) WithQuotaClock(now func() time.Time) *QuotaChecker {
	q.now = now
	return q
}

// Ceiling returns the configured daily token ceiling.
func (q *QuotaChecker) Ceiling() int64 { return q.ceiling }

// Check is allowed iff used tokens are strictly below the ceiling. A lookup
// error is returned alongside an allowed decision so callers can fail open.
func (q *QuotaChecker) Check(ctx context.Context, userID string) (QuotaDecision, error) {
	since := q.now().Add(-q.window)
	used, err := q.lookup.SumTokens(ctx, userID, since)
	if err != nil {
		return QuotaDecision{Allowed: true, Ceiling: q.ceiling, Since: since}, err
	}
	return QuotaDecision{Allowed: used < q.ceiling, Used: used, Ceiling: q.ceiling, Since: since}, nil
}

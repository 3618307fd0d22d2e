// Package usage records per-call token consumption and answers quota lookups.
package usage

import (
	"context"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tripplanner/itinerary-service/internal/model"
)

// Store is the durable, append-only usage table.
type Store interface {
	// Insert is a no-op when a row with rec.ID already exists.
	Insert(ctx context.Context, rec model.UsageRecord) error
	SumTokens(ctx context.Context, userID string, since time.Time) (int64, error)
}

// Ledger writes usage best-effort and serves quota lookups.
type Ledger struct {
	store       Store
	log         zerolog.Logger
	retries     uint64
	baseBackoff time.Duration
	now         func() time.Time
}

// LedgerOption customizes a Ledger.
type LedgerOption func(*Ledger)

// WithRetry sets how many times a failed insert is retried and the first backoff interval.
func WithRetry(retries uint64, base time.Duration) LedgerOption {
	return func(l *Ledger) {
		l.retries = retries
		if base > 0 {
			l.baseBackoff = base
		}
	}
}

func NewLedger(store Store, log zerolog.Logger, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		store:       store,
		log:         log.With().Str("component", "usage").Logger(),
		retries:     2,
		baseBackoff: 50 * time.Millisecond,
		now:         time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Record inserts rec, retrying transient failures. Every attempt carries the
// same row ID, so a write that committed before failing is not counted twice.
// It never returns an error: a lost usage row is logged and the caller carries on.
func (l *Ledger) Record(ctx context.Context, rec model.UsageRecord) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.RequestID == "" {
		rec.RequestID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = l.now().UTC()
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = l.baseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = time.Second
	exp.Reset()
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, l.retries), ctx)

	err := backoff.Retry(func() error {
		return l.store.Insert(ctx, rec)
	}, policy)
	if err != nil {
		l.log.Warn().Stack().Err(err).
			Str("request_id", rec.RequestID).
			Str("user_id", rec.UserID).
			Str("provider", rec.Provider).
			Msg("usage record dropped")
		return
	}
	l.log.Debug().
		Str("request_id", rec.RequestID).
		Str("provider", rec.Provider).
		Str("model", rec.Model).
		Int64("input_tokens", rec.InputTokens).
		Int64("output_tokens", rec.OutputTokens).
		Msg("usage recorded")
}

// SumTokens returns input plus output tokens for userID since the given time.
func (l *Ledger) SumTokens(ctx context.Context, userID string, since time.Time) (int64, error) {
	return l.store.SumTokens(ctx, userID, since)
}

// HealthPing forwards to the store when it supports pinging.
func (l *Ledger) HealthPing(ctx context.Context) error {
	if p, ok := l.store.(interface{ HealthPing(context.Context) error }); ok {
		return p.HealthPing(ctx)
	}
	return nil
}

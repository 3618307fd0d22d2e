// Package postgres stores usage rows in PostgreSQL through pgx.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tripplanner/itinerary-service/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS ai_usage (
    id            BIGSERIAL PRIMARY KEY,
    user_id       TEXT        NOT NULL,
    provider      TEXT        NOT NULL,
    model         TEXT        NOT NULL,
    input_tokens  BIGINT      NOT NULL DEFAULT 0,
    output_tokens BIGINT      NOT NULL DEFAULT 0,
    request_id    TEXT        NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS ai_usage_user_created ON ai_usage (user_id, created_at);
ALTER TABLE ai_usage ADD COLUMN IF NOT EXISTS usage_id TEXT;
CREATE UNIQUE INDEX IF NOT EXISTS ai_usage_usage_id ON ai_usage (usage_id);
`

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the ai_usage table if missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

type Store struct{ db *sql.DB }

// New wraps db; call EnsureSchema first.
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Insert(ctx context.Context, rec model.UsageRecord) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO ai_usage (usage_id, user_id, provider, model, input_tokens, output_tokens, request_id, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (usage_id) DO NOTHING
    `, sql.NullString{String: rec.ID, Valid: rec.ID != ""}, rec.UserID, rec.Provider, rec.Model, rec.InputTokens, rec.OutputTokens, rec.RequestID, rec.CreatedAt)
	return err
}

func (s *Store) SumTokens(ctx context.Context, userID string, since time.Time) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `
        SELECT COALESCE(SUM(input_tokens + output_tokens), 0)::BIGINT
        FROM ai_usage WHERE user_id=$1 AND created_at >= $2
    `, userID, since).Scan(&total)
	return total, err
}

// HealthPing implements health.HealthPinger for the Postgres-backed ledger.
func (s *Store) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error { return s.db.Close() }

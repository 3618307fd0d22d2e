// Package sqlite stores usage rows in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tripplanner/itinerary-service/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS ai_usage (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    usage_id      TEXT,
    user_id       TEXT    NOT NULL,
    provider      TEXT    NOT NULL,
    model         TEXT    NOT NULL,
    input_tokens  INTEGER NOT NULL DEFAULT 0,
    output_tokens INTEGER NOT NULL DEFAULT 0,
    request_id    TEXT    NOT NULL,
    created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS ai_usage_user_created ON ai_usage (user_id, created_at);
`

const usageIDIndex = `CREATE UNIQUE INDEX IF NOT EXISTS ai_usage_usage_id ON ai_usage (usage_id)`

// Open opens (or creates) a SQLite database at the given path and enables WAL journal mode.
// ":memory:" opens a private in-memory database.
func Open(path string) (*sql.DB, error) {
	var dsn string
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(ON)"
	} else {
		// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the ai_usage table if missing and adds the usage_id
// column to tables created before it existed.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return err
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pragma_table_info('ai_usage') WHERE name = 'usage_id'`).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		if _, err := db.ExecContext(ctx, `ALTER TABLE ai_usage ADD COLUMN usage_id TEXT`); err != nil {
			return err
		}
	}
	_, err := db.ExecContext(ctx, usageIDIndex)
	return err
}

type Store struct{ db *sql.DB }

// New wraps db; call EnsureSchema first.
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Insert(ctx context.Context, rec model.UsageRecord) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO ai_usage (usage_id, user_id, provider, model, input_tokens, output_tokens, request_id, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (usage_id) DO NOTHING
    `, nullable(rec.ID), rec.UserID, rec.Provider, rec.Model, rec.InputTokens, rec.OutputTokens, rec.RequestID, rec.CreatedAt.UnixMilli())
	return err
}

func (s *Store) SumTokens(ctx context.Context, userID string, since time.Time) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `
        SELECT COALESCE(SUM(input_tokens + output_tokens), 0)
        FROM ai_usage WHERE user_id = ? AND created_at >= ?
    `, userID, since.UnixMilli()).Scan(&total)
	return total, err
}

// HealthPing implements health.HealthPinger for the SQLite-backed ledger.
func (s *Store) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error { return s.db.Close() }

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

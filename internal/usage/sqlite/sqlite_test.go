package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripplanner/itinerary-service/internal/model"
)

func newStore(t *testing.T, path string) *Store {
	t.Helper()
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, EnsureSchema(context.Background(), db))
	return New(db)
}

func TestStore_InsertAndSum(t *testing.T) {
	for _, path := range []string{":memory:", filepath.Join(t.TempDir(), "nested", "usage.db")} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t, path)
			now := time.Now().UTC()

			require.NoError(t, s.Insert(ctx, model.UsageRecord{UserID: "u1", Provider: "openai", Model: "gpt-4o-mini", InputTokens: 1200, OutputTokens: 800, RequestID: "a", CreatedAt: now.Add(-time.Hour)}))
			require.NoError(t, s.Insert(ctx, model.UsageRecord{UserID: "u1", Provider: "gemini", Model: "gemini-2.5-flash", InputTokens: 5, OutputTokens: 5, RequestID: "b", CreatedAt: now.Add(-48 * time.Hour)}))
			require.NoError(t, s.Insert(ctx, model.UsageRecord{UserID: "u2", Provider: "openai", Model: "gpt-4o-mini", InputTokens: 7, OutputTokens: 7, RequestID: "c", CreatedAt: now}))

			total, err := s.SumTokens(ctx, "u1", now.Add(-24*time.Hour))
			require.NoError(t, err)
			assert.Equal(t, int64(2000), total)

			none, err := s.SumTokens(ctx, "nobody", now.Add(-24*time.Hour))
			require.NoError(t, err)
			assert.Equal(t, int64(0), none)

			assert.NoError(t, s.HealthPing(ctx))
		})
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	require.NoError(t, EnsureSchema(context.Background(), db))
	require.NoError(t, EnsureSchema(context.Background(), db))
}

func TestStore_InsertSameIDOnce(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, ":memory:")
	now := time.Now().UTC()
	r := model.UsageRecord{ID: "row-1", UserID: "u1", Provider: "openai", Model: "gpt-4o-mini", InputTokens: 100, OutputTokens: 50, RequestID: "a", CreatedAt: now}

	require.NoError(t, s.Insert(ctx, r))
	require.NoError(t, s.Insert(ctx, r))

	total, err := s.SumTokens(ctx, "u1", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(150), total)
}

func TestEnsureSchema_AddsUsageIDToOlderTable(t *testing.T) {
	ctx := context.Background()
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, `CREATE TABLE ai_usage (
        id            INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id       TEXT    NOT NULL,
        provider      TEXT    NOT NULL,
        model         TEXT    NOT NULL,
        input_tokens  INTEGER NOT NULL DEFAULT 0,
        output_tokens INTEGER NOT NULL DEFAULT 0,
        request_id    TEXT    NOT NULL,
        created_at    INTEGER NOT NULL
    )`)
	require.NoError(t, err)
	require.NoError(t, EnsureSchema(ctx, db))

	s := New(db)
	now := time.Now().UTC()
	r := model.UsageRecord{ID: "row-1", UserID: "u1", Provider: "openai", Model: "m", InputTokens: 1, OutputTokens: 1, RequestID: "a", CreatedAt: now}
	require.NoError(t, s.Insert(ctx, r))
	require.NoError(t, s.Insert(ctx, r))
	total, err := s.SumTokens(ctx, "u1", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

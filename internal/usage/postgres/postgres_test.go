package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tripplanner/itinerary-service/internal/model"
)

// startPostgres launches a throwaway postgres container and returns its DSN.
// Requires Docker and ITINERARY_SERVICE_TESTCONTAINERS=1.
func startPostgres(t *testing.T) string {
	t.Helper()
	if os.Getenv("ITINERARY_SERVICE_TESTCONTAINERS") != "1" {
		t.Skip("ITINERARY_SERVICE_TESTCONTAINERS not set; skipping postgres container test")
	}
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "itinerary",
			"POSTGRES_PASSWORD": "itinerary",
			"POSTGRES_DB":       "itinerary",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://itinerary:itinerary@%s:%s/itinerary?sslmode=disable", host, port.Port())
}

func TestStore_InsertAndSum(t *testing.T) {
	dsn := startPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	require.NoError(t, EnsureSchema(ctx, db))

	s := New(db)
	now := time.Now().UTC()
	require.NoError(t, s.Insert(ctx, model.UsageRecord{UserID: "u1", Provider: "openai", Model: "gpt-4o-mini", InputTokens: 300, OutputTokens: 200, RequestID: "a", CreatedAt: now}))
	require.NoError(t, s.Insert(ctx, model.UsageRecord{UserID: "u1", Provider: "openai", Model: "gpt-4o-mini", InputTokens: 9, OutputTokens: 9, RequestID: "b", CreatedAt: now.Add(-25 * time.Hour)}))

	dup := model.UsageRecord{ID: "row-1", UserID: "u1", Provider: "openai", Model: "gpt-4o-mini", InputTokens: 1, OutputTokens: 1, RequestID: "c", CreatedAt: now}
	require.NoError(t, s.Insert(ctx, dup))
	require.NoError(t, s.Insert(ctx, dup))
	require.NoError(t, EnsureSchema(ctx, db))

	total, err := s.SumTokens(ctx, "u1", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(502), total)
	assert.NoError(t, s.HealthPing(ctx))
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}

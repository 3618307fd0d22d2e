package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tripplanner/itinerary-service/internal/config"
	"github.com/tripplanner/itinerary-service/internal/usage"
	"github.com/tripplanner/itinerary-service/internal/usage/cloudspanner"
	"github.com/tripplanner/itinerary-service/internal/usage/postgres"
	"github.com/tripplanner/itinerary-service/internal/usage/sqlite"
)

// NewUsageStore opens the usage table for cfg.DBDriver and ensures its schema.
// The returned close func is never nil.
func NewUsageStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (usage.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.DBDriver {
	case "memory":
		return usage.NewMemoryStore(), noop, nil
	case "sqlite":
		if cfg.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
				return nil, noop, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := sqlite.EnsureSchema(sctx, db); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		log.Debug().Str("path", cfg.SQLitePath).Msg("sqlite usage store ready")
		st := sqlite.New(db)
		return st, st.Close, nil
	case "postgres":
		octx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		db, err := postgres.Open(octx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		if err := postgres.EnsureSchema(octx, db); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		log.Debug().Msg("postgres usage store ready")
		st := postgres.New(db)
		return st, st.Close, nil
	case "spanner":
		sctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := cloudspanner.EnsureSchema(sctx, cfg.SpannerDatabase); err != nil {
			return nil, noop, err
		}
		client, err := cloudspanner.Open(ctx, cfg.SpannerDatabase)
		if err != nil {
			return nil, noop, err
		}
		log.Debug().Str("database", cfg.SpannerDatabase).Msg("spanner usage store ready")
		st := cloudspanner.New(client, uuid.NewString)
		return st, st.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}

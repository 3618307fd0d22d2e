package searchindex

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripplanner/itinerary-service/internal/config"
)

// New returns the configured Index. Schema bootstrap runs asynchronously so
// startup is not blocked by a slow vector store.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Index, error) {
	switch cfg.VectorStore {
	case "none", "":
		return NopIndex{}, nil
	case "memory":
		return NewMemoryIndex(), nil
	case "weaviate":
		idx, err := NewWeaviateIndex(cfg.WeaviateURL)
		if err != nil {
			return nil, err
		}
		go func() {
			if err := BootstrapWeaviate(ctx, cfg.WeaviateURL); err != nil {
				log.Warn().Err(err).Str("vector_store", cfg.VectorStore).Msg("search index bootstrap failed")
				return
			}
			log.Debug().Str("vector_store", cfg.VectorStore).Msg("search index bootstrap completed")
		}()
		return idx, nil
	case "postgres":
		octx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		db, err := OpenPostgres(octx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		go func() {
			bctx, cancel := context.WithTimeout(ctx, 15*time.Second)
			defer cancel()
			if err := EnsurePgvectorSchema(bctx, db); err != nil {
				log.Warn().Err(err).Str("vector_store", cfg.VectorStore).Msg("search index bootstrap failed")
				return
			}
			log.Debug().Str("vector_store", cfg.VectorStore).Msg("search index bootstrap completed")
		}()
		return NewPgvectorIndex(db), nil
	default:
		return nil, fmt.Errorf("unknown VECTOR_STORE: %s", cfg.VectorStore)
	}
}

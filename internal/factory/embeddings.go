package factory

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripplanner/itinerary-service/internal/config"
	"github.com/tripplanner/itinerary-service/internal/embeddings"
)

const warmupTimeout = 15 * time.Second

// NewEmbeddingProvider creates an embedding provider based on config.
// Launches an async warmup; returns the provider immediately for fast startup.
func NewEmbeddingProvider(ctx context.Context, cfg *config.Config, log zerolog.Logger) (embeddings.Provider, error) {
	provider, err := embeddings.NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.EnableRetrieval || cfg.VectorStore == "none" {
		return provider, nil
	}

	go func() {
		wctx, cancel := context.WithTimeout(ctx, warmupTimeout)
		defer cancel()
		if vec, err := provider.Embed(wctx, "factory-warmup-check"); err != nil || len(vec) == 0 {
			log.Warn().Err(err).Int("vec_len", len(vec)).
				Str("provider", cfg.EmbedProvider).
				Msg("embedding provider warmup failed")
		} else {
			log.Debug().Str("provider", cfg.EmbedProvider).Int("dims", len(vec)).
				Msg("embedding provider warmup completed")
		}
	}()
	return provider, nil
}

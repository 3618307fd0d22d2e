// Package embeddings turns text into vectors for knowledge retrieval.
package embeddings

import (
	"context"
	"fmt"

	"github.com/tripplanner/itinerary-service/internal/config"
	"github.com/tripplanner/itinerary-service/internal/embeddings/ollama"
	"github.com/tripplanner/itinerary-service/internal/embeddings/openai"
)

// MaxInputRunes caps the text sent to an embedding backend.
const MaxInputRunes = 8000

// Provider produces vector representations for text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// NewProvider returns the configured embedding backend wrapped so that input
// is truncated to MaxInputRunes.
func NewProvider(cfg *config.Config) (Provider, error) {
	var p Provider
	switch cfg.EmbedProvider {
	case "openai":
		p = openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIEmbeddingModel)
	case "ollama":
		p = ollama.New(cfg.OllamaURL, cfg.EmbedModel)
	default:
		return nil, fmt.Errorf("unknown embed provider: %s", cfg.EmbedProvider)
	}
	return Truncating(p, MaxInputRunes), nil
}

// Truncating wraps p so inputs longer than max runes are cut before embedding.
func Truncating(p Provider, max int) Provider {
	return &truncating{next: p, max: max}
}

type truncating struct {
	next Provider
	max  int
}

func (t *truncating) Embed(ctx context.Context, text string) ([]float32, error) {
	return t.next.Embed(ctx, Truncate(text, t.max))
}

// HealthPing forwards to the wrapped provider when it supports pinging.
func (t *truncating) HealthPing(ctx context.Context) error {
	if p, ok := t.next.(interface{ HealthPing(context.Context) error }); ok {
		return p.HealthPing(ctx)
	}
	vec, err := t.next.Embed(ctx, "health-check")
	if err != nil {
		return err
	}
	if len(vec) == 0 {
		return fmt.Errorf("embedder returned no vector")
	}
	return nil
}

// Truncate returns at most max runes of s.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

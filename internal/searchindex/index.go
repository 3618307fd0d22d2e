// Package searchindex stores travel knowledge chunks and answers
// nearest-neighbour queries over their embeddings.
package searchindex

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/tripplanner/itinerary-service/internal/model"
)

// Index provides vector search and index maintenance.
type Index interface {
	// Query returns up to topK chunks ordered by similarity. A nil or empty
	// types slice means no content-type filter. No matches is not an error.
	Query(ctx context.Context, vec []float32, topK int, types []model.ContentType) ([]model.RetrievedChunk, error)

	// Upsert inserts or replaces the chunk with the given vector.
	Upsert(ctx context.Context, chunk model.RetrievedChunk, vec []float32) error
}

// NopIndex is used when no vector store is configured. Queries return no
// chunks and upserts are rejected.
type NopIndex struct{}

func (NopIndex) Query(context.Context, []float32, int, []model.ContentType) ([]model.RetrievedChunk, error) {
	return nil, nil
}

func (NopIndex) Upsert(context.Context, model.RetrievedChunk, []float32) error {
	return ErrNoVectorStore
}

func (NopIndex) HealthPing(context.Context) error { return nil }

func typeStrings(types []model.ContentType) []string {
	if len(types) == 0 {
		return nil
	}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

// decodeMetadata parses a stored metadata document. A malformed document is
// logged through the context logger and the chunk is kept without metadata.
func decodeMetadata(ctx context.Context, chunkID string, raw []byte) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	var md map[string]interface{}
	if err := json.Unmarshal(raw, &md); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("chunk_id", chunkID).Msg("Dropping unreadable chunk metadata")
		return nil
	}
	return md
}

// Package retrieval builds the verified-context block injected into prompts.
package retrieval

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tripplanner/itinerary-service/internal/embeddings"
	"github.com/tripplanner/itinerary-service/internal/model"
	"github.com/tripplanner/itinerary-service/internal/searchindex"
)

const (
	DefaultTopK        = 12
	DefaultMaxChunkLen = 500
)

// Retriever fetches knowledge chunks relevant to a trip. It never fails:
// every problem degrades to an empty context.
type Retriever struct {
	emb         embeddings.Provider
	idx         searchindex.Index
	topK        int
	maxChunkLen int
	types       []model.ContentType
	log         zerolog.Logger
}

// Option customizes a Retriever.
type Option func(*Retriever)

// WithTopK sets the number of chunks requested from the index.
func WithTopK(k int) Option {
	return func(r *Retriever) {
		if k > 0 {
			r.topK = k
		}
	}
}

// WithMaxChunkLen sets the per-chunk rune limit before truncation.
func WithMaxChunkLen(n int) Option {
	return func(r *Retriever) {
		if n > 0 {
			r.maxChunkLen = n
		}
	}
}

// WithContentTypes restricts results to the given content types.
func WithContentTypes(types ...model.ContentType) Option {
	return func(r *Retriever) { r.types = types }
}

func New(emb embeddings.Provider, idx searchindex.Index, log zerolog.Logger, opts ...Option) *Retriever {
	r := &Retriever{
		emb:         emb,
		idx:         idx,
		topK:        DefaultTopK,
		maxChunkLen: DefaultMaxChunkLen,
		log:         log.With().Str("component", "retrieval").Logger(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// BuildQuery joins destination, travel style and interests with spaces.
func BuildQuery(req model.TripRequest) string {
	parts := make([]string, 0, len(req.Interests)+2)
	parts = append(parts, req.Destination, string(req.TravelStyle))
	parts = append(parts, req.Interests...)
	return strings.TrimSpace(strings.Join(parts, " "))
}

// RetrieveContext returns rendered chunks for req, or "" when embedding,
// lookup or the result set comes up empty.
func (r *Retriever) RetrieveContext(ctx context.Context, req model.TripRequest) string {
	if r == nil || r.emb == nil || r.idx == nil {
		return ""
	}
	log := zerolog.Ctx(ctx)
	if log.GetLevel() == zerolog.Disabled {
		log = &r.log
	}

	vec, err := r.emb.Embed(ctx, BuildQuery(req))
	if err != nil {
		log.Warn().Err(err).Msg("retrieval: embedding failed")
		return ""
	}
	if len(vec) == 0 {
		log.Warn().Msg("retrieval: embedding returned no vector")
		return ""
	}
	chunks, err := r.idx.Query(ctx, vec, r.topK, r.types)
	if err != nil {
		log.Warn().Err(err).Msg("retrieval: index query failed")
		return ""
	}
	if len(chunks) == 0 {
		return ""
	}
	log.Debug().Int("chunks", len(chunks)).Msg("retrieval: context assembled")
	return Format(chunks, r.maxChunkLen)
}

// Format renders chunks as "[content_type]\ncontent" blocks separated by
// blank lines, truncating each content to maxLen runes plus "...".
func Format(chunks []model.RetrievedChunk, maxLen int) string {
	blocks := make([]string, len(chunks))
	for i, c := range chunks {
		content := c.Content
		if maxLen > 0 {
			if cut := embeddings.Truncate(content, maxLen); len(cut) < len(content) {
				content = cut + "..."
			}
		}
		blocks[i] = "[" + string(c.ContentType) + "]\n" + content
	}
	return strings.Join(blocks, "\n\n")
}

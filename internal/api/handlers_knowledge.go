package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tripplanner/itinerary-service/internal/api/respond"
	"github.com/tripplanner/itinerary-service/internal/embeddings"
	"github.com/tripplanner/itinerary-service/internal/model"
	"github.com/tripplanner/itinerary-service/internal/searchindex"
)

type KnowledgeHandler struct {
	emb embeddings.Provider
	idx searchindex.Index
	log zerolog.Logger
}

func NewKnowledgeHandler(emb embeddings.Provider, idx searchindex.Index, log zerolog.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{emb: emb, idx: idx, log: log}
}

type knowledgeRequest struct {
	ID          string                 `json:"id,omitempty"`
	ContentType model.ContentType      `json:"content_type"`
	Content     string                 `json:"content"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// IndexChunk handles POST /api/knowledge
func (h *KnowledgeHandler) IndexChunk(w http.ResponseWriter, r *http.Request) {
	var in knowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if !in.ContentType.Valid() {
		respond.WriteBadRequest(w, "content_type must be one of city, attraction, visa_rule, itinerary_summary")
		return
	}
	if strings.TrimSpace(in.Content) == "" {
		respond.WriteBadRequest(w, "content is required")
		return
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if h.emb == nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "no embedding provider configured")
		return
	}

	vec, err := h.emb.Embed(r.Context(), in.Content)
	if err != nil {
		h.log.Error().Stack().Err(err).Str("chunk_id", in.ID).Msg("Embedding failed")
		respond.WriteError(w, http.StatusBadGateway, "EMBEDDING", "embedding failed")
		return
	}
	chunk := model.RetrievedChunk{ID: in.ID, ContentType: in.ContentType, Content: in.Content, Metadata: in.Metadata}
	if err := h.idx.Upsert(r.Context(), chunk, vec); err != nil {
		if errors.Is(err, searchindex.ErrNoVectorStore) {
			respond.WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "no vector store configured")
			return
		}
		h.log.Error().Stack().Err(err).Str("chunk_id", in.ID).Msg("Index upsert failed")
		respond.WriteInternalError(w, "index upsert failed")
		return
	}
	h.log.Debug().Str("chunk_id", in.ID).Str("content_type", string(in.ContentType)).Int("dims", len(vec)).Msg("Chunk indexed")
	respond.WriteJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "id": in.ID})
}

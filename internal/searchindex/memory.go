package searchindex

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/tripplanner/itinerary-service/internal/model"
)

// MemoryIndex is a process-local index ranked by cosine similarity.
type MemoryIndex struct {
	mu     sync.RWMutex
	dim    int
	chunks map[string]memoryEntry
}

type memoryEntry struct {
	chunk model.RetrievedChunk
	vec   []float32
	norm  float64
}

// NewMemoryIndex returns an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{chunks: make(map[string]memoryEntry)}
}

func (m *MemoryIndex) Upsert(_ context.Context, chunk model.RetrievedChunk, vec []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dim == 0 {
		m.dim = len(vec)
	} else if len(vec) != m.dim {
		return ErrDimensionMismatch
	}
	cp := make([]float32, len(vec))
	copy(cp, vec)
	m.chunks[chunk.ID] = memoryEntry{chunk: chunk, vec: cp, norm: norm(cp)}
	return nil
}

func (m *MemoryIndex) Query(_ context.Context, vec []float32, topK int, types []model.ContentType) ([]model.RetrievedChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.chunks) == 0 {
		return nil, nil
	}
	if len(vec) != m.dim {
		return nil, ErrDimensionMismatch
	}
	allowed := make(map[model.ContentType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	qn := norm(vec)

	type scored struct {
		chunk model.RetrievedChunk
		score float64
	}
	hits := make([]scored, 0, len(m.chunks))
	for _, e := range m.chunks {
		if len(allowed) > 0 && !allowed[e.chunk.ContentType] {
			continue
		}
		hits = append(hits, scored{chunk: e.chunk, score: cosine(vec, e.vec, qn, e.norm)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score == hits[j].score {
			return hits[i].chunk.ID < hits[j].chunk.ID
		}
		return hits[i].score > hits[j].score
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	out := make([]model.RetrievedChunk, len(hits))
	for i, h := range hits {
		out[i] = h.chunk
	}
	return out, nil
}

// Len returns the number of stored chunks.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

func (m *MemoryIndex) HealthPing(context.Context) error { return nil }

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func cosine(a, b []float32, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb)
}

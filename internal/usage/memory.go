package usage

import (
	"context"
	"sync"
	"time"

	"github.com/tripplanner/itinerary-service/internal/model"
)

// MemoryStore keeps usage rows in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	rows []model.UsageRecord
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Insert(_ context.Context, rec model.UsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID != "" {
		for _, r := range m.rows {
			if r.ID == rec.ID {
				return nil
			}
		}
	}
	m.rows = append(m.rows, rec)
	return nil
}

func (m *MemoryStore) SumTokens(_ context.Context, userID string, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, r := range m.rows {
		if r.UserID == userID && !r.CreatedAt.Before(since) {
			total += r.TotalTokens()
		}
	}
	return total, nil
}

// Records returns a copy of every stored row in insertion order.
func (m *MemoryStore) Records() []model.UsageRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.UsageRecord, len(m.rows))
	copy(out, m.rows)
	return out
}

func (m *MemoryStore) HealthPing(context.Context) error { return nil }

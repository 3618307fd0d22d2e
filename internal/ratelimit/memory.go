package ratelimit

import (
	"context"
	"sync"
	"time"
)

// pruneThreshold triggers a sweep of expired entries on the next Allow.
const pruneThreshold = 10000

// Entry is one user's counter within the current window.
type Entry struct {
	Count   int
	ResetAt time.Time
}

// MemoryLimiter is a process-local fixed-window limiter. Windows reset
// lazily when a request arrives after ResetAt.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*Entry
	limit   int
	window  time.Duration
	now     func() time.Time
}

// MemoryOption customizes a MemoryLimiter.
type MemoryOption func(*MemoryLimiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryLimiter) { m.now = now }
}

// WithWindow overrides the one hour window.
func WithWindow(d time.Duration) MemoryOption {
	return func(m *MemoryLimiter) {
		if d > 0 {
			m.window = d
		}
	}
}

// NewMemoryLimiter allows limit requests per window per user.
func NewMemoryLimiter(limit int, opts ...MemoryOption) *MemoryLimiter {
	if limit <= 0 {
		limit = DefaultRequestsPerHour
	}
	m := &MemoryLimiter{
		entries: make(map[string]*Entry),
		limit:   limit,
		window:  DefaultWindow,
		now:     time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Allow increments the user's counter and compares it to the ceiling in
// one critical section.
func (m *MemoryLimiter) Allow(_ context.Context, userID string) (Decision, error) {
	key := Key(userID)
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) >= pruneThreshold {
		m.pruneLocked(now)
	}

	e, ok := m.entries[key]
	if !ok || !now.Before(e.ResetAt) {
		m.entries[key] = &Entry{Count: 1, ResetAt: now.Add(m.window)}
		return Decision{Allowed: true}, nil
	}
	e.Count++
	if e.Count > m.limit {
		return Decision{Allowed: false, RetryAfter: e.ResetAt.Sub(now)}, nil
	}
	return Decision{Allowed: true}, nil
}

// Snapshot returns a copy of the user's entry, if any.
func (m *MemoryLimiter) Snapshot(userID string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[Key(userID)]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

func (m *MemoryLimiter) pruneLocked(now time.Time) {
	for k, e := range m.entries {
		if !now.Before(e.ResetAt) {
			delete(m.entries, k)
		}
	}
}

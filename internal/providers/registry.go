package providers

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry maps provider names to backends.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

func NewRegistry(backends ...Backend) *Registry {
	r := &Registry{backends: make(map[string]Backend)}
	for _, b := range backends {
		r.Register(b)
	}
	return r
}

// Register adds b, replacing any backend with the same name.
func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Name()] = b
}

func (r *Registry) Get(name string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	return b, ok
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for n := range r.backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Call dispatches to the named backend.
func (r *Registry) Call(ctx context.Context, provider, systemPrompt, userMessage string) (*Response, error) {
	b, ok := r.Get(provider)
	if !ok {
		return nil, newError(provider, KindUnknownProvider, fmt.Errorf("unsupported provider: %s", provider))
	}
	return b.Call(ctx, systemPrompt, userMessage)
}

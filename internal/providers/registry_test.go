package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	name  string
	calls int
	resp  *Response
	err   error
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Call(ctx context.Context, system, user string) (*Response, error) {
	s.calls++
	return s.resp, s.err
}

func TestRegistry_Dispatch(t *testing.T) {
	a := &stubBackend{name: "a", resp: &Response{Content: "A", Provider: "a"}}
	b := &stubBackend{name: "b", resp: &Response{Content: "B", Provider: "b"}}
	r := NewRegistry(a, b)

	assert.Equal(t, []string{"a", "b"}, r.Names())
	got, err := r.Call(context.Background(), "b", "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "B", got.Content)
	assert.Equal(t, 0, a.calls)
	assert.Equal(t, 1, b.calls)

	_, ok := r.Get("a")
	assert.True(t, ok)
}

func TestRegistry_UnknownProvider(t *testing.T) {
	r := NewRegistry()
	_, err := r.Call(context.Background(), "claude", "s", "u")
	require.Error(t, err)
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindUnknownProvider, pe.Kind)
	assert.Equal(t, "claude", pe.Provider)
	assert.Contains(t, err.Error(), "unsupported provider")
}

func TestProviderErrorHelpers(t *testing.T) {
	inner := errors.New("boom")
	err := newError("openai", KindCallFailed, inner)
	assert.True(t, IsProviderError(err))
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, KindCallFailed, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(inner))
	assert.False(t, IsProviderError(inner))
}

func TestPaced(t *testing.T) {
	s := &stubBackend{name: "s", resp: &Response{Content: "ok"}}
	assert.Same(t, Backend(s), Paced(s, 0))

	p := Paced(s, 1)
	assert.Equal(t, "s", p.Name())
	_, err := p.Call(context.Background(), "", "")
	require.NoError(t, err)

	// second call must wait roughly a second; a short deadline aborts it
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Call(ctx, "", "")
	require.Error(t, err)
	assert.Equal(t, KindCallFailed, KindOf(err))
	assert.Equal(t, 1, s.calls)
}

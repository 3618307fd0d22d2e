// Package providers dispatches prompts to model backends behind a single
// registry and normalises their responses.
package providers

import (
	"context"
	"errors"
	"fmt"
)

// Backend is one model vendor.
type Backend interface {
	Name() string
	Call(ctx context.Context, systemPrompt, userMessage string) (*Response, error)
}

// Gateway is what callers dispatch through.
type Gateway interface {
	Call(ctx context.Context, provider, systemPrompt, userMessage string) (*Response, error)
}

// Response is the normalised backend output.
type Response struct {
	Content      string
	InputTokens  int64
	OutputTokens int64
	Provider     string
	Model        string
}

// Kind classifies a provider failure.
type Kind string

const (
	KindMissingCredentials Kind = "missing_credentials"
	KindCallFailed         Kind = "call_failed"
	KindEmptyResponse      Kind = "empty_response"
	KindUnknownProvider    Kind = "unknown_provider"
)

// ProviderError is returned for every backend failure. The vendor's own
// text stays in Err and is never shown to end users.
type ProviderError struct {
	Provider string
	Kind     Kind
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("provider %s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func newError(provider string, kind Kind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// IsProviderError reports whether err wraps a *ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// KindOf returns the failure kind of err, or "" when err is not a provider error.
func KindOf(err error) Kind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

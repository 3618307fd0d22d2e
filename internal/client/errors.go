package client

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("itinerary service: HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("itinerary service: HTTP %d: %s", e.StatusCode, e.Message)
}

// retryable reports whether the request may succeed if sent again. 429 and
// 502 carry business outcomes (rate limit, quota, invalid output) and are
// final.
func (e *APIError) retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway:
		return false
	case http.StatusRequestTimeout:
		return true
	}
	return e.StatusCode >= 500
}

func asAPIError(err error) (*APIError, bool) {
	var ae *APIError
	ok := errors.As(err, &ae)
	return ae, ok
}

// IsRateLimited reports whether err is a rate-limit or quota rejection.
func IsRateLimited(err error) bool {
	ae, ok := asAPIError(err)
	return ok && ae.StatusCode == http.StatusTooManyRequests
}

// IsGenerationFailed reports whether every provider failed to produce a valid itinerary.
func IsGenerationFailed(err error) bool {
	ae, ok := asAPIError(err)
	return ok && ae.StatusCode == http.StatusBadGateway
}

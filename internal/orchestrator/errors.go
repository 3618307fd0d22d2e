package orchestrator

import (
	"errors"
	"time"
)

// Code classifies a caller-visible generation failure.
type Code string

const (
	CodeRateLimit  Code = "RATE_LIMIT"
	CodeQuota      Code = "QUOTA"
	CodeValidation Code = "VALIDATION"
	CodeProvider   Code = "PROVIDER"
)

const (
	msgRateLimit  = "Rate limit exceeded. Try again later."
	msgQuota      = "Daily token quota exceeded."
	msgValidation = "Failed to generate a valid itinerary. Please try again."
	msgProvider   = "No model provider is configured."
)

// Error is the only failure shape callers see. Message never carries
// vendor text.
type Error struct {
	Code       Code
	Message    string
	RetryAfter time.Duration
}

func (e *Error) Error() string { return string(e.Code) + ": " + e.Message }

// CodeOf returns the code of err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsRateLimit(err error) bool  { return CodeOf(err) == CodeRateLimit }
func IsQuota(err error) bool      { return CodeOf(err) == CodeQuota }
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }
func IsProvider(err error) bool   { return CodeOf(err) == CodeProvider }

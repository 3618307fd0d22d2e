package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation is matched by every ValidationError.
var ErrValidation = errors.New("validation error")

// ValidationError represents an invalid caller-supplied field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrValidation.
func (e ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a new validation error
func NewValidationError(field, message string) ValidationError {
	return ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a validation error (including wrapped errors)
func IsValidationError(err error) bool {
	var validationErr ValidationError
	return errors.As(err, &validationErr)
}

// MaxTravelDays is the longest trip a request may ask for.
const MaxTravelDays = 30

// Validate checks the request bounds before any generation work is done.
func (r TripRequest) Validate() error {
	if strings.TrimSpace(r.Destination) == "" {
		return NewValidationError("destination", "is required")
	}
	if r.TravelDays < 1 {
		return NewValidationError("travel_days", "must be at least 1")
	}
	if r.TravelDays > MaxTravelDays {
		return NewValidationError("travel_days", fmt.Sprintf("must be at most %d", MaxTravelDays))
	}
	if r.Budget < 0 {
		return NewValidationError("budget", "must not be negative")
	}
	if !r.TravelStyle.Valid() {
		return NewValidationError("travel_style", "must be one of budget, moderate, luxury")
	}
	if len(r.Interests) == 0 {
		return NewValidationError("interests", "at least one interest is required")
	}
	for i, in := range r.Interests {
		if strings.TrimSpace(in) == "" {
			return NewValidationError(fmt.Sprintf("interests[%d]", i), "must not be blank")
		}
	}
	return nil
}

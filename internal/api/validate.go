package api

import (
	"fmt"
	"regexp"
)

// User ids are opaque but bounded: letters, digits, underscore and hyphen.
var userIDRx = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func validateUserID(v string) error {
	if v == "" {
		return fmt.Errorf("userId is required")
	}
	if !userIDRx.MatchString(v) {
		return fmt.Errorf("userId must be 1-64 letters, digits, underscores or hyphens")
	}
	return nil
}

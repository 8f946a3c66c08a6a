// Package uuid generates time-ordered identifiers for database rows.
// UUID v7 sorts by creation time, which keeps sqlite primary-key indexes compact.
package uuid

import (
	guuid "github.com/google/uuid"
)

// New returns a canonical UUID v7 string. If the v7 generator fails (clock or
// entropy error) it falls back to a random v4.
func New() string {
	id, err := guuid.NewV7()
	if err != nil {
		return guuid.NewString()
	}
	return id.String()
}

// Valid reports whether s parses as a UUID.
func Valid(s string) bool {
	return guuid.Validate(s) == nil
}

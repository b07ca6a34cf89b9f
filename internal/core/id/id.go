// Package id generates the public identifiers of movements and reports.
package id

import (
	"github.com/google/uuid"
)

// ID is the UUID type stored in the uuid columns.
type ID = uuid.UUID

// New returns a time-ordered UUIDv7 so that ids sort with creation time.
// A random UUIDv4 is returned if the v7 generator fails.
func New() ID {
	if v, err := uuid.NewV7(); err == nil {
		return v
	}
	return uuid.New()
}

// Package idgen produces identifiers for stored resources.
package idgen

import "github.com/google/uuid"

// Generator returns a new unique identifier on each call.
type Generator interface {
	Generate() string
}

// UUIDv7 generates time-ordered UUIDs so primary keys sort by creation time.
type UUIDv7 struct{}

// New returns the default resource id generator.
func New() UUIDv7 {
	return UUIDv7{}
}

// Generate returns a UUIDv7 string, or a random UUIDv4 if the v7 source fails.
func (UUIDv7) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

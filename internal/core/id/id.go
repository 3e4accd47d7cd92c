// Package id generates the UUIDs of companies, projects, declarations,
// transports and imports. Weight tickets and invoices use int64 ids from
// the numerator instead.
package id

import (
	"strings"

	"github.com/google/uuid"
)

// ID is a UUID. Values created here are version 7, so they sort by
// creation time in indexes.
type ID = uuid.UUID

// New returns a UUIDv7, or a random UUID if the clock source fails.
func New() ID {
	v, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v
}

// Parse accepts any RFC 9562 textual form.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// ParseOptional returns nil for a blank string.
func ParseOptional(s string) (*ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// MustParse panics on malformed input. Tests and validated config only.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

func Nil() ID {
	return uuid.Nil
}

func IsNil(v ID) bool {
	return v == uuid.Nil
}

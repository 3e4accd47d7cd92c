// Package entity holds building blocks shared by the domain aggregates.
package entity

import (
	"context"
	"time"
)

// Validatable is implemented by aggregates that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Stamps carries the audit fields every aggregate persists.
type Stamps struct {
	// Version for optimistic locking (incremented on each update)
	Version int `json:"version"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
}

// NewStamps initialises the stamps of a freshly created aggregate.
func NewStamps(now time.Time, actor string) Stamps {
	now = now.UTC()
	return Stamps{
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: actor,
		UpdatedBy: actor,
	}
}

// Touch records a modification by actor at now.
func (s *Stamps) Touch(now time.Time, actor string) {
	s.UpdatedAt = now.UTC()
	s.UpdatedBy = actor
}

// SetVersion updates the version number (used by repository after sync).
func (s *Stamps) SetVersion(v int) {
	s.Version = v
}

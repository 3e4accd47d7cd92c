// Package domain holds the types shared by the aggregates: list
// filters, lifecycle hooks and domain events.
package domain

import (
	"context"
)

// ListFilter narrows the list operations of streams and tickets.
type ListFilter struct {
	// Search matches the searchable text of the aggregate.
	Search string

	// Status is the stored status; empty matches any.
	Status string

	// OrderBy is a column, "-" prefixed for descending.
	OrderBy string

	Limit  int
	Offset int
}

func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "-created_at",
	}
}

// ListResult is one page of a list operation.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// HookEvent is the lifecycle point a hook runs at.
type HookEvent string

const (
	AfterCreate HookEvent = "after_create"
	// AfterUpdate follows an edit that kept the status.
	AfterUpdate HookEvent = "after_update"
	// AfterTransition follows a status change other than deletion.
	AfterTransition HookEvent = "after_transition"
	AfterDelete     HookEvent = "after_delete"
)

// Hook runs inside the transaction of the operation that triggered it.
// An error rolls that operation back.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry holds the hooks of one aggregate type. Registration
// happens at wiring time; Run is safe for concurrent use afterwards.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers hook for event. Hooks run in registration order.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run stops at the first failing hook.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

// EventFor picks AfterUpdate or AfterTransition from the status before
// and after a change.
func EventFor[S comparable](before, after S) HookEvent {
	if before == after {
		return AfterUpdate
	}
	return AfterTransition
}

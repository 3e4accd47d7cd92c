// Package audit defines how domain services report changes to the audit trail.
package audit

import (
	"context"
)

// Action is the kind of change being recorded.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionTransition Action = "transition"
	ActionDelete     Action = "delete"
)

// Recorder persists audit entries. Implemented by
// storage/postgres.AuditService.
type Recorder interface {
	LogChange(ctx context.Context, entityType, entityID string, action Action, changes map[string]any) error
}

// Nop discards entries.
type Nop struct{}

// LogChange implements Recorder.
func (Nop) LogChange(context.Context, string, string, Action, map[string]any) error { return nil }

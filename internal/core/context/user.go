// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// SystemActor is recorded when no user is attached (worker, CLI).
const SystemActor = "system"

// UserContext identifies the actor performing an operation.
// Authentication happens upstream; the API trusts the forwarded identity.
type UserContext struct {
	UserID string
	Email  string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// Actor returns the user id for audit stamps, falling back to SystemActor.
func Actor(ctx context.Context) string {
	if uid := GetUserID(ctx); uid != "" {
		return uid
	}
	return SystemActor
}

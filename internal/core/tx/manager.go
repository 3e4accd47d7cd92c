// Package tx defines the unit of work used by the domain services.
package tx

import (
	"context"
)

// Manager runs fn inside one database transaction. Repositories called
// with the ctx passed to fn join that transaction; a nested call reuses
// it. The transaction commits when fn returns nil and rolls back
// otherwise, which also discards numbers allocated from a strict
// sequence and outbox rows written by fn.
//
// Implemented by storage/postgres.TxManager and, in tests, by
// testutil/memstore.TxManager.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

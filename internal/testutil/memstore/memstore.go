// Package memstore provides in-memory implementations of the domain
// repository ports for service tests.
package memstore

import (
	"context"
	"sort"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/tx"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
)

// TxManager runs fn directly. Every store guards itself with a mutex.
type TxManager struct {
	// Calls counts RunInTransaction invocations.
	Calls int
}

type txKey struct{}

// RunInTransaction implements tx.Manager.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	return fn(context.WithValue(ctx, txKey{}, m))
}

// InTransaction reports whether ctx was passed in by RunInTransaction.
func InTransaction(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

var _ tx.Manager = (*TxManager)(nil)

func page[T any](items []T, limit, offset int) domain.ListResult[T] {
	total := len(items)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return domain.ListResult[T]{
		Items:      items[offset:end],
		TotalCount: int64(total),
		Limit:      limit,
		Offset:     offset,
	}
}

func sortedKeys[K ~string | ~int64, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Package lock defines the contract for short-lived mutual exclusion
// across processes.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotAcquired is returned when the key is held by someone else.
var ErrNotAcquired = errors.New("lock not acquired")

// Release frees a held lock.
type Release func(ctx context.Context) error

// Locker acquires named locks with a time to live.
// The Redis implementation lives in infrastructure/cache.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error)
}

// Memory is a process-local Locker for tests and single-instance runs.
type Memory struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

// NewMemory creates an empty in-process locker.
func NewMemory() *Memory {
	return &Memory{held: make(map[string]time.Time), now: time.Now}
}

// Acquire implements Locker.
func (m *Memory) Acquire(_ context.Context, key string, ttl time.Duration) (Release, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if until, ok := m.held[key]; ok && now.Before(until) {
		return nil, ErrNotAcquired
	}
	until := now.Add(ttl)
	m.held[key] = until

	return func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.held[key] == until {
			delete(m.held, key)
		}
		return nil
	}, nil
}

var _ Locker = (*Memory)(nil)

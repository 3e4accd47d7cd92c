package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_ExclusiveUntilReleased(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	release, err := m.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	_, err = m.Acquire(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired)

	_, err = m.Acquire(ctx, "other", time.Minute)
	assert.NoError(t, err)

	require.NoError(t, release(ctx))
	_, err = m.Acquire(ctx, "k", time.Minute)
	assert.NoError(t, err)
}

func TestMemory_ExpiredLockCanBeTaken(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	stale, err := m.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = m.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	// releasing the stale holder must not free the new one
	require.NoError(t, stale(ctx))
	_, err = m.Acquire(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ErrNotAcquired)
}

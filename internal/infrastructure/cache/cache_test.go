package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/lock"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/company"
	"github.com/Colossus92/eazy-recycling-sub004/internal/testutil/memstore"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLocker_AcquireAndRelease(t *testing.T) {
	mr, client := newTestRedis(t)
	locker := NewLocker(client)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "declaration:198080000001:2025-11", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("er:lock:declaration:198080000001:2025-11"))

	_, err = locker.Acquire(ctx, "declaration:198080000001:2025-11", time.Minute)
	assert.ErrorIs(t, err, lock.ErrNotAcquired)

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("er:lock:declaration:198080000001:2025-11"))

	_, err = locker.Acquire(ctx, "declaration:198080000001:2025-11", time.Minute)
	assert.NoError(t, err)
}

func TestLocker_ReleaseKeepsForeignLock(t *testing.T) {
	mr, client := newTestRedis(t)
	locker := NewLocker(client)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	// The first holder expired and someone else took the key.
	mr.FastForward(2 * time.Second)
	_, err = locker.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	require.NoError(t, release(ctx))
	assert.True(t, mr.Exists("er:lock:k"))
}

type countingLookup struct {
	company.Lookup
	calls int
}

func (c *countingLookup) GetByID(ctx context.Context, companyID id.ID) (*company.Company, error) {
	c.calls++
	return c.Lookup.GetByID(ctx, companyID)
}

func TestCompanies_ReadThrough(t *testing.T) {
	_, client := newTestRedis(t)
	w := memstore.NewWorld()
	next := &countingLookup{Lookup: w.Companies}
	cached := NewCompanies(next, client, time.Minute)
	ctx := context.Background()

	first, err := cached.GetByID(ctx, w.Carrier.ID)
	require.NoError(t, err)
	second, err := cached.GetByID(ctx, w.Carrier.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, "123456VXXB", second.VIHBNumber)

	require.NoError(t, cached.Invalidate(ctx, w.Carrier))
	_, err = cached.GetByID(ctx, w.Carrier.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCompanies_MissIsNotCached(t *testing.T) {
	mr, client := newTestRedis(t)
	w := memstore.NewWorld()
	cached := NewCompanies(w.Companies, client, time.Minute)

	_, err := cached.GetByID(context.Background(), id.New())
	assert.True(t, apperror.HasCode(err, company.CodeCompanyNotFound))
	assert.Empty(t, mr.Keys())
}

func TestCompanies_FallsBackWhenRedisIsDown(t *testing.T) {
	mr, client := newTestRedis(t)
	w := memstore.NewWorld()
	cached := NewCompanies(w.Companies, client, time.Minute)
	mr.SetError("LOADING redis is loading the dataset in memory")

	got, err := cached.FindByChamberOfCommerceID(context.Background(), w.Consignor.ChamberOfCommerceID)
	require.NoError(t, err)
	assert.Equal(t, w.Consignor.ID, got.ID)
}

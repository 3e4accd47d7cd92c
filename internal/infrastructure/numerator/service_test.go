package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "github.com/Colossus92/eazy-recycling-sub004/internal/core/numerator"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if ptr, ok := dest[0].(*int64); ok {
		*ptr = m.val
	}
	return nil
}

// mockQuerier simulates sys_sequences rows keyed by counter name.
type mockQuerier struct {
	mu       sync.Mutex
	counters map[string]int64
	calls    int
	err      error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{counters: make(map[string]int64)}
}

func (m *mockQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (m *mockQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return &mockRow{err: m.err}
	}

	key := args[0].(string)
	value := args[1].(int64)
	if strings.Contains(sql, "GREATEST") {
		if m.counters[key] < value {
			m.counters[key] = value
		}
	} else {
		m.counters[key] += value
	}
	return &mockRow{val: m.counters[key]}
}

type staticSource struct{ q postgres.Querier }

func (s staticSource) GetQuerier(context.Context) postgres.Querier { return s.q }

func newService(q *mockQuerier) *Service {
	return New(staticSource{q: q}, q)
}

var period = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func TestNextValue_PerCounter(t *testing.T) {
	q := newMockQuerier()
	svc := newService(q)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		v, err := svc.NextValue(ctx, corenumerator.CounterWeightTicket)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}

	v, err := svc.NextValue(ctx, corenumerator.CounterInvoice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v, "counters are independent")
}

func TestNextValue_WrapsDriverError(t *testing.T) {
	q := newMockQuerier()
	q.err = errors.New("connection reset")
	svc := newService(q)

	_, err := svc.NextValue(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, q.err)
	assert.Contains(t, err.Error(), "next value of x")
}

func TestEnsureAtLeast_NeverMovesBackwards(t *testing.T) {
	q := newMockQuerier()
	svc := newService(q)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAtLeast(ctx, "wss_19808", 42))
	require.NoError(t, svc.EnsureAtLeast(ctx, "wss_19808", 7))

	v, err := svc.NextValue(ctx, "wss_19808")
	require.NoError(t, err)
	assert.Equal(t, int64(43), v)
}

func TestGetNextNumber_Strict(t *testing.T) {
	q := newMockQuerier()
	svc := newService(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("F")

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "F-2026-00001", num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "F-2026-00002", num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, period.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "F-2027-00001", num, "numbering restarts every year")
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := newMockQuerier()
	svc := newService(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("ORD")
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-00001", num)
	assert.Equal(t, int64(10), q.counters["ORD_2026"])

	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-00002", num)
	assert.Equal(t, 1, q.calls, "second value comes from memory")

	for i := 0; i < 8; i++ {
		_, err := svc.GetNextNumber(ctx, cfg, opts, period)
		require.NoError(t, err)
	}

	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-00011", num)
	assert.Equal(t, int64(20), q.counters["ORD_2026"])
}

func TestEnsureAtLeast_InvalidatesCachedRange(t *testing.T) {
	q := newMockQuerier()
	svc := newService(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("ORD")
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	_, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)

	require.NoError(t, svc.EnsureAtLeast(ctx, "ORD_2026", 100))

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-00101", num)
}

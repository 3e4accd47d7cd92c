// Package numerator stores counters in sys_sequences. It implements
// core/numerator.Allocator and core/numerator.Generator.
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	corenumerator "github.com/Colossus92/eazy-recycling-sub004/internal/core/numerator"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
)

// DefaultRangeSize is reserved per refill by the cached strategy.
const DefaultRangeSize = 50

// Source returns the querier for ctx. postgres.TxManager satisfies it, so
// strict increments join the caller's transaction and roll back with it.
type Source interface {
	GetQuerier(ctx context.Context) postgres.Querier
}

type cachedRange struct {
	current int64
	max     int64
}

// Service hands out counter values from PostgreSQL.
type Service struct {
	source Source
	// direct reserves cached ranges outside any business transaction, so a
	// rollback can never hand the same range out twice.
	direct postgres.Querier

	cacheMu sync.Mutex
	ranges  map[string]*cachedRange
}

var (
	_ corenumerator.Allocator = (*Service)(nil)
	_ corenumerator.Generator = (*Service)(nil)
)

// New creates a numerator service.
func New(source Source, direct postgres.Querier) *Service {
	return &Service{
		source: source,
		direct: direct,
		ranges: make(map[string]*cachedRange),
	}
}

const nextValueSQL = `
	INSERT INTO sys_sequences (key, current_val, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (key) DO UPDATE
	SET current_val = sys_sequences.current_val + EXCLUDED.current_val, updated_at = NOW()
	RETURNING current_val`

const ensureAtLeastSQL = `
	INSERT INTO sys_sequences (key, current_val, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (key) DO UPDATE
	SET current_val = GREATEST(sys_sequences.current_val, EXCLUDED.current_val), updated_at = NOW()
	RETURNING current_val`

// NextValue implements Allocator. The row lock taken by the UPSERT
// serialises concurrent callers on the same counter.
func (s *Service) NextValue(ctx context.Context, name string) (int64, error) {
	var v int64
	if err := s.source.GetQuerier(ctx).QueryRow(ctx, nextValueSQL, name, int64(1)).Scan(&v); err != nil {
		return 0, fmt.Errorf("next value of %s: %w", name, err)
	}
	return v, nil
}

// EnsureAtLeast implements Allocator.
func (s *Service) EnsureAtLeast(ctx context.Context, name string, value int64) error {
	var v int64
	if err := s.source.GetQuerier(ctx).QueryRow(ctx, ensureAtLeastSQL, name, value).Scan(&v); err != nil {
		return fmt.Errorf("raise %s to %d: %w", name, value, err)
	}

	s.cacheMu.Lock()
	delete(s.ranges, name)
	s.cacheMu.Unlock()
	return nil
}

// GetNextNumber implements Generator.
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, opts *corenumerator.Options, period time.Time) (string, error) {
	if opts == nil {
		opts = corenumerator.DefaultOptions()
	}

	key := cfg.CounterName(period)
	var (
		num int64
		err error
	)
	switch opts.Strategy {
	case corenumerator.StrategyCached:
		num, err = s.nextCached(ctx, key, opts.RangeSize)
	default:
		num, err = s.NextValue(ctx, key)
	}
	if err != nil {
		return "", err
	}
	return cfg.Format(period, num), nil
}

func (s *Service) nextCached(ctx context.Context, key string, size int64) (int64, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	rng, ok := s.ranges[key]
	if !ok {
		rng = &cachedRange{}
		s.ranges[key] = rng
	}

	if rng.current >= rng.max {
		if size <= 0 {
			size = DefaultRangeSize
		}
		var newMax int64
		if err := s.direct.QueryRow(ctx, nextValueSQL, key, size).Scan(&newMax); err != nil {
			return 0, fmt.Errorf("reserve range of %s: %w", key, err)
		}
		// The reserved range is (newMax-size, newMax].
		rng.current = newMax - size
		rng.max = newMax
	}

	rng.current++
	return rng.current, nil
}

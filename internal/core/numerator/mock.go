package numerator

import (
	"context"
	"sync"
	"time"
)

// MockAllocator is a test implementation of Allocator.
// Without overrides it keeps per-name counters in memory.
type MockAllocator struct {
	NextValueFunc     func(ctx context.Context, name string) (int64, error)
	EnsureAtLeastFunc func(ctx context.Context, name string, value int64) error

	mu       sync.Mutex
	counters map[string]int64
}

// NextValue implements Allocator.
func (m *MockAllocator) NextValue(ctx context.Context, name string) (int64, error) {
	if m.NextValueFunc != nil {
		return m.NextValueFunc(ctx, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	m.counters[name]++
	return m.counters[name], nil
}

// EnsureAtLeast implements Allocator.
func (m *MockAllocator) EnsureAtLeast(ctx context.Context, name string, value int64) error {
	if m.EnsureAtLeastFunc != nil {
		return m.EnsureAtLeastFunc(ctx, name, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	if m.counters[name] < value {
		m.counters[name] = value
	}
	return nil
}

// Current returns the last value handed out for name.
func (m *MockAllocator) Current(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

// MockGenerator is a test implementation of Generator.
type MockGenerator struct {
	GetNextNumberFunc func(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)
}

// GetNextNumber implements Generator.
func (m *MockGenerator) GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error) {
	if m.GetNextNumberFunc != nil {
		return m.GetNextNumberFunc(ctx, cfg, opts, period)
	}
	// Default: return predictable mock number
	return cfg.Format(period, 1), nil
}

// Ensure compile-time interface compliance.
var (
	_ Allocator = (*MockAllocator)(nil)
	_ Generator = (*MockGenerator)(nil)
)

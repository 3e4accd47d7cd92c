package numerator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_CounterName(t *testing.T) {
	period := time.Date(2025, time.November, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"yearly", Config{Prefix: "F", ResetPeriod: "year"}, "F_2025"},
		{"monthly", Config{Prefix: "F", ResetPeriod: "month"}, "F_2025_11"},
		{"never", Config{Prefix: "F", ResetPeriod: "never"}, "F"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.CounterName(period))
		})
	}
}

func TestConfig_Format(t *testing.T) {
	period := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "F-2025-00042", DefaultConfig("F").Format(period, 42))
	assert.Equal(t, "C-007", Config{Prefix: "C", PadWidth: 3}.Format(period, 7))
}

func TestAllocatorGenerator_UsesPeriodCounter(t *testing.T) {
	alloc := &MockAllocator{}
	gen := AllocatorGenerator{Allocator: alloc}
	ctx := context.Background()
	cfg := DefaultConfig("F")

	y2025 := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)
	y2026 := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	n1, err := gen.GetNextNumber(ctx, cfg, nil, y2025)
	require.NoError(t, err)
	n2, err := gen.GetNextNumber(ctx, cfg, nil, y2025)
	require.NoError(t, err)
	n3, err := gen.GetNextNumber(ctx, cfg, nil, y2026)
	require.NoError(t, err)

	assert.Equal(t, "F-2025-00001", n1)
	assert.Equal(t, "F-2025-00002", n2)
	assert.Equal(t, "F-2026-00001", n3)
}

func TestMockAllocator_EnsureAtLeastNeverMovesBack(t *testing.T) {
	alloc := &MockAllocator{}
	ctx := context.Background()

	require.NoError(t, alloc.EnsureAtLeast(ctx, "seq", 10))
	require.NoError(t, alloc.EnsureAtLeast(ctx, "seq", 3))

	v, err := alloc.NextValue(ctx, "seq")
	require.NoError(t, err)
	assert.Equal(t, int64(11), v)
}

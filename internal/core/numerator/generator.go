package numerator

import (
	"context"
	"time"
)

// Well-known counter names.
const (
	CounterWeightTicket = "weight_ticket_id"
	CounterInvoice      = "invoice_id"
	CounterInvoiceLine  = "invoice_line_id"
)

// Allocator hands out atomically increasing values per named counter.
// Implementations must never return the same value twice for a name,
// even across processes. Implementations live in infrastructure layer.
type Allocator interface {
	// NextValue returns the next value of the counter, creating it at 1.
	NextValue(ctx context.Context, name string) (int64, error)

	// EnsureAtLeast moves the counter forward so that the next value is
	// greater than value. It never moves a counter backwards.
	EnsureAtLeast(ctx context.Context, name string, value int64) error
}

// Generator generates formatted sequential document numbers.
type Generator interface {
	// GetNextNumber generates the next document number.
	// Pattern: PREFIX-YEAR-XXXXX (e.g., F-2025-00001)
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)
}

// AllocatorGenerator formats numbers on top of any Allocator.
type AllocatorGenerator struct {
	Allocator Allocator
}

// GetNextNumber implements Generator.
func (g AllocatorGenerator) GetNextNumber(ctx context.Context, cfg Config, _ *Options, period time.Time) (string, error) {
	v, err := g.Allocator.NextValue(ctx, cfg.CounterName(period))
	if err != nil {
		return "", err
	}
	return cfg.Format(period, v), nil
}

var _ Generator = AllocatorGenerator{}

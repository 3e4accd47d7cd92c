// Package numerator provides domain contracts for sequence allocation and document numbering.
package numerator

import (
	"fmt"
	"time"
)

// Strategy defines the allocation strategy.
type Strategy int

const (
	// StrategyStrict hits the counter store for every value.
	// Guarantees sequential numbers without gaps.
	// Required for invoice numbers.
	StrategyStrict Strategy = iota

	// StrategyCached reserves ranges of values in memory.
	// Much faster, but may produce gaps if the application restarts.
	// Values are never reused, so it is fine for internal ids.
	StrategyCached
)

// Options configuration for value allocation.
type Options struct {
	// Strategy to use for allocation
	Strategy Strategy
	// RangeSize is the number of values to reserve at once in Cached strategy.
	// Default is 50.
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{
		Strategy: StrategyStrict,
	}
}

// Config holds formatted numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "F" for invoices, "C" for credit notes)
	Prefix string

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	// ResetPeriod: "year", "month", "never"
	ResetPeriod string
}

// DefaultConfig returns yearly-reset numbering with 5 digits.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}

// CounterName returns the allocator counter backing cfg for period.
// A new counter is created on first use of every period.
func (c Config) CounterName(period time.Time) string {
	switch c.ResetPeriod {
	case "month":
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006_01"))
	case "year":
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006"))
	default:
		return c.Prefix
	}
}

// Format renders value as PREFIX-YEAR-00001 (or PREFIX-00001 without year).
func (c Config) Format(period time.Time, value int64) string {
	padWidth := c.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}

	if c.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", c.Prefix, period.Format("2006"), padWidth, value)
	}
	return fmt.Sprintf("%s-%0*d", c.Prefix, padWidth, value)
}

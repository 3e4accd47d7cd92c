// Package types provides common value types for weights and amounts.
package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// MoneyScale is the number of fractional digits kept on invoice amounts.
const MoneyScale int32 = 2

// WeightScale is the number of fractional digits kept on ticket weights.
const WeightScale int32 = 2

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundMoney rounds half away from zero to cents.
func RoundMoney(m Money) Money {
	return m.Round(MoneyScale)
}

// WeightUnit is the unit a weight value is expressed in.
type WeightUnit string

const (
	UnitKilogram WeightUnit = "KG"
	UnitTon      WeightUnit = "TON"
)

// ParseWeightUnit accepts the unit spellings used by weighbridges and exports.
func ParseWeightUnit(s string) (WeightUnit, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "KG", "KILOGRAM", "":
		return UnitKilogram, nil
	case "TON", "T", "TONNE":
		return UnitTon, nil
	default:
		return "", fmt.Errorf("unknown weight unit %q", s)
	}
}

// Weight is a non-negative mass with a unit.
type Weight struct {
	Value decimal.Decimal `json:"value"`
	Unit  WeightUnit      `json:"unit"`
}

// Kilograms creates a weight in KG.
func Kilograms(v int64) Weight {
	return Weight{Value: decimal.NewFromInt(v), Unit: UnitKilogram}
}

// MustWeight parses a decimal string into a KG weight. Tests only.
func MustWeight(s string) Weight {
	return Weight{Value: decimal.RequireFromString(s), Unit: UnitKilogram}
}

// InKilograms converts the weight to KG.
func (w Weight) InKilograms() decimal.Decimal {
	if w.Unit == UnitTon {
		return w.Value.Mul(decimal.NewFromInt(1000))
	}
	return w.Value
}

// In converts the weight to the requested unit.
func (w Weight) In(unit WeightUnit) decimal.Decimal {
	kg := w.InKilograms()
	if unit == UnitTon {
		return kg.Div(decimal.NewFromInt(1000))
	}
	return kg
}

// Scale returns the weight multiplied by percentage/100,
// rounded half-up to WeightScale digits. Weights are never negative,
// so decimal's half-away-from-zero rounding equals half-up here.
func (w Weight) Scale(percentage int) Weight {
	v := w.Value.Mul(decimal.NewFromInt(int64(percentage))).Div(decimal.NewFromInt(100))
	return Weight{Value: v.Round(WeightScale), Unit: w.Unit}
}

// FitsScale reports whether the value has at most WeightScale
// significant fractional digits.
func (w Weight) FitsScale() bool {
	return w.Value.Equal(w.Value.Round(WeightScale))
}

// IsNegative reports whether the value is below zero.
func (w Weight) IsNegative() bool {
	return w.Value.IsNegative()
}

func (w Weight) String() string {
	return w.Value.StringFixed(WeightScale) + " " + string(w.Unit)
}

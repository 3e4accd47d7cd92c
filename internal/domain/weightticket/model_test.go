package weightticket

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/types"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/party"
)

var t0 = time.Date(2025, 11, 12, 8, 0, 0, 0, time.UTC)

func draftTicket(t *testing.T, weights ...string) *WeightTicket {
	t.Helper()
	lines := make([]Line, len(weights))
	for i, w := range weights {
		lines[i] = Line{WasteStreamNumber: "198080000001", Weight: types.MustWeight(w)}
	}
	wt, err := New(context.Background(), 1, Details{
		Consignor:  party.Company{CompanyID: id.New()},
		Lines:      lines,
		Direction:  DirectionInbound,
		WeightedAt: t0,
	}, t0, "tester")
	require.NoError(t, err)
	return wt
}

func TestValidateSplit(t *testing.T) {
	tests := []struct {
		name          string
		original, new int
		wantCode      string
	}{
		{"60/40", 60, 40, ""},
		{"1/99", 1, 99, ""},
		{"zero share", 0, 100, CodeInvalidSplitPercentage},
		{"over 100", 101, 1, CodeInvalidSplitPercentage},
		{"negative", 50, -50, CodeInvalidSplitPercentage},
		{"does not add up", 60, 50, CodeSplitMustSumTo100},
		{"under 100", 30, 30, CodeSplitMustSumTo100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSplit(tt.original, tt.new)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantCode, apperror.CodeOf(err))
		})
	}
}

// Both halves are rounded independently, so their sum may drift from the
// original by at most one cent per line.
func TestSplit_ConservesMassWithinRounding(t *testing.T) {
	tolerance := decimal.RequireFromString("0.01")
	weights := []string{"1000", "333.33", "0.01", "0.05", "12345.67", "1", "999.99", "7.77"}
	splits := [][2]int{{60, 40}, {50, 50}, {33, 67}, {1, 99}, {99, 1}}

	for _, w := range weights {
		for _, s := range splits {
			wt := draftTicket(t, w)
			original := wt.Lines[0].Weight.Value

			child, err := wt.Split(2, s[0], s[1], t0, "tester")
			require.NoError(t, err)

			sum := wt.Lines[0].Weight.Value.Add(child.Lines[0].Weight.Value)
			diff := sum.Sub(original).Abs()
			assert.True(t, diff.LessThanOrEqual(tolerance),
				"weight %s split %d/%d: %s + %s differs by %s",
				w, s[0], s[1], wt.Lines[0].Weight.Value, child.Lines[0].Weight.Value, diff)
		}
	}
}

func TestSplit_SixtyForty(t *testing.T) {
	wt := draftTicket(t, "1000", "250.5")

	child, err := wt.Split(2, 60, 40, t0, "tester")
	require.NoError(t, err)

	assert.Equal(t, "600", wt.Lines[0].Weight.Value.String())
	assert.Equal(t, "400", child.Lines[0].Weight.Value.String())
	assert.Equal(t, "150.3", wt.Lines[1].Weight.Value.String())
	assert.Equal(t, "100.2", child.Lines[1].Weight.Value.String())
	assert.Equal(t, int64(2), child.ID)
	assert.Equal(t, StatusDraft, child.Status)
	assert.Equal(t, wt.Consignor, child.Consignor)
}

func TestSplit_OnlyDraft(t *testing.T) {
	wt := draftTicket(t, "100")
	require.NoError(t, wt.Complete(t0, "tester"))

	_, err := wt.Split(2, 60, 40, t0, "tester")
	assert.Equal(t, apperror.CodeNotDraft, apperror.CodeOf(err))
}

func TestComplete_RequiresLines(t *testing.T) {
	wt := draftTicket(t)
	assert.Equal(t, CodeNoLines, apperror.CodeOf(wt.Complete(t0, "tester")))

	wt = draftTicket(t, "10")
	require.NoError(t, wt.Complete(t0, "tester"))
	assert.Equal(t, StatusCompleted, wt.Status)
	assert.Equal(t, CodeInvalidTransition, apperror.CodeOf(wt.Complete(t0, "tester")))
}

func TestCancel(t *testing.T) {
	wt := draftTicket(t, "10")

	assert.Equal(t, CodeCancellationReasonRequired, apperror.CodeOf(wt.Cancel("  ", t0, "tester")))

	require.NoError(t, wt.Complete(t0, "tester"))
	require.NoError(t, wt.MarkInvoiced(7, t0, "tester"))
	require.NoError(t, wt.Cancel("verkeerde klant", t0, "tester"))
	assert.Equal(t, StatusCancelled, wt.Status)
	assert.Equal(t, "verkeerde klant", wt.CancellationReason)

	assert.Equal(t, CodeAlreadyCancelled, apperror.CodeOf(wt.Cancel("again", t0, "tester")))
}

func TestNew_RejectsNegativeWeight(t *testing.T) {
	_, err := New(context.Background(), 1, Details{
		Consignor: party.Person{Name: "J. Jansen"},
		Lines:     []Line{{WasteStreamNumber: "198080000001", Weight: types.MustWeight("-1")}},
		Direction: DirectionOutbound,
	}, t0, "tester")
	assert.Equal(t, CodeNegativeWeight, apperror.CodeOf(err))
}

func TestNew_RejectsWeightsBeyondTwoDecimals(t *testing.T) {
	tarra := types.MustWeight("0.125")
	tests := []struct {
		name     string
		line     string
		tarra    *types.Weight
		wantCode string
	}{
		{"two decimals", "12.34", nil, ""},
		{"trailing zeros", "12.3400", nil, ""},
		{"three decimals", "12.345", nil, CodeWeightPrecision},
		{"tarra three decimals", "12", &tarra, CodeWeightPrecision},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), 1, Details{
				Consignor: party.Person{Name: "J. Jansen"},
				Lines:     []Line{{WasteStreamNumber: "198080000001", Weight: types.MustWeight(tt.line)}},
				Tarra:     tt.tarra,
				Direction: DirectionInbound,
			}, t0, "tester")
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantCode, apperror.CodeOf(err))
		})
	}
}

func TestNew_DefaultsWeightedAtAndUnit(t *testing.T) {
	wt, err := New(context.Background(), 1, Details{
		Consignor: party.Person{Name: "J. Jansen"},
		Lines:     []Line{{WasteStreamNumber: "198080000001", Weight: types.Weight{Value: decimal.NewFromInt(5)}}},
		Direction: DirectionInbound,
	}, t0, "tester")
	require.NoError(t, err)

	assert.Equal(t, t0, wt.WeightedAt)
	assert.Equal(t, types.UnitKilogram, wt.Lines[0].Weight.Unit)
}

func TestStreamNumbersAndTotal(t *testing.T) {
	wt := draftTicket(t, "10", "2.5")
	wt.Lines = append(wt.Lines, Line{WasteStreamNumber: "198080000002", Weight: types.Weight{Value: decimal.NewFromInt(1), Unit: types.UnitTon}})

	assert.Equal(t, []string{"198080000001", "198080000002"}, toStrings(wt))
	assert.Equal(t, "1012.5", wt.TotalKilograms().String())
}

func toStrings(wt *WeightTicket) []string {
	var out []string
	for _, n := range wt.StreamNumbers() {
		out = append(out, n.String())
	}
	return out
}

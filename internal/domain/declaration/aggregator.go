package declaration

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/weightticket"
)

// DefaultTimezone is the timezone that defines month boundaries.
const DefaultTimezone = "Europe/Amsterdam"

// Aggregator computes monthly totals per waste stream for the streams
// delivered to one processor.
type Aggregator struct {
	ledger      Ledger
	repo        Repository
	processorID string
	loc         *time.Location
}

// NewAggregator creates an aggregator for the tenant's processor id.
func NewAggregator(ledger Ledger, repo Repository, processorID string, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{ledger: ledger, repo: repo, processorID: processorID, loc: loc}
}

// Location returns the timezone used for month boundaries.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// Totals groups the non-cancelled lines of period by waste stream,
// ordered by stream number.
func (a *Aggregator) Totals(ctx context.Context, period YearMonth) ([]Candidate, error) {
	from, to := period.Bounds(a.loc)
	lines, err := a.ledger.LinesBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	type group struct {
		weight       decimal.Decimal
		tickets      map[int64]struct{}
		transporters []string
		seen         map[string]struct{}
	}
	groups := make(map[wastestream.Number]*group)

	for _, l := range lines {
		if l.TicketStatus == weightticket.StatusCancelled {
			continue
		}
		if l.ProcessorID != a.processorID {
			continue
		}
		if l.WeightedAt.Before(from) || !l.WeightedAt.Before(to) {
			continue
		}
		g, ok := groups[l.WasteStreamNumber]
		if !ok {
			g = &group{
				weight:  decimal.Zero,
				tickets: make(map[int64]struct{}),
				seen:    make(map[string]struct{}),
			}
			groups[l.WasteStreamNumber] = g
		}
		g.weight = g.weight.Add(l.Kilograms)
		g.tickets[l.TicketID] = struct{}{}
		if l.CarrierVIHB == "" {
			continue
		}
		if _, dup := g.seen[l.CarrierVIHB]; !dup {
			g.seen[l.CarrierVIHB] = struct{}{}
			g.transporters = append(g.transporters, l.CarrierVIHB)
		}
	}

	out := make([]Candidate, 0, len(groups))
	for number, g := range groups {
		sort.Strings(g.transporters)
		out = append(out, Candidate{
			WasteStreamNumber: number,
			Period:            period,
			TotalWeight:       g.weight.Round(0).IntPart(),
			TotalShipments:    len(g.tickets),
			Transporters:      g.transporters,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WasteStreamNumber < out[j].WasteStreamNumber })
	return out, nil
}

// FindCandidates returns the totals of the streams that have no
// declaration recorded for period yet.
func (a *Aggregator) FindCandidates(ctx context.Context, period YearMonth) ([]Candidate, error) {
	totals, err := a.Totals(ctx, period)
	if err != nil {
		return nil, err
	}
	declared, err := a.repo.ForPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("load declarations: %w", err)
	}
	done := make(map[wastestream.Number]struct{}, len(declared))
	for _, d := range declared {
		done[d.WasteStreamNumber] = struct{}{}
	}

	out := totals[:0]
	for _, c := range totals {
		if _, ok := done[c.WasteStreamNumber]; ok {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

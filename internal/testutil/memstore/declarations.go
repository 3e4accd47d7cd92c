package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/declaration"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
)

// Declarations implements declaration.Repository.
type Declarations struct {
	mu   sync.RWMutex
	rows map[id.ID]declaration.Declaration
}

// NewDeclarations creates an empty store.
func NewDeclarations() *Declarations {
	return &Declarations{rows: make(map[id.ID]declaration.Declaration)}
}

func copyDeclaration(d declaration.Declaration) *declaration.Declaration {
	d.Transporters = append([]string(nil), d.Transporters...)
	d.Errors = append([]string(nil), d.Errors...)
	return &d
}

// Create implements declaration.Repository.
func (s *Declarations) Create(_ context.Context, d *declaration.Declaration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[d.ID] = *copyDeclaration(*d)
	return nil
}

// Update implements declaration.Repository.
func (s *Declarations) Update(_ context.Context, d *declaration.Declaration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rows[d.ID]
	if !ok {
		return apperror.NewNotFoundWithCode(declaration.CodeNotFound, "declaration", d.ID)
	}
	if stored.Version != d.Version {
		return apperror.NewConcurrentModification("declaration", d.ID)
	}
	d.SetVersion(d.Version + 1)
	s.rows[d.ID] = *copyDeclaration(*d)
	return nil
}

// GetByID implements declaration.Repository.
func (s *Declarations) GetByID(_ context.Context, declarationID id.ID) (*declaration.Declaration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.rows[declarationID]
	if !ok {
		return nil, apperror.NewNotFoundWithCode(declaration.CodeNotFound, "declaration", declarationID)
	}
	return copyDeclaration(d), nil
}

// GetForUpdate implements declaration.Repository.
func (s *Declarations) GetForUpdate(ctx context.Context, declarationID id.ID) (*declaration.Declaration, error) {
	return s.GetByID(ctx, declarationID)
}

// ForPeriod implements declaration.Repository.
func (s *Declarations) ForPeriod(_ context.Context, period declaration.YearMonth) ([]*declaration.Declaration, error) {
	return s.filter(func(d *declaration.Declaration) bool { return d.Period == period }), nil
}

// ForStream implements declaration.Repository.
func (s *Declarations) ForStream(_ context.Context, number wastestream.Number, period declaration.YearMonth) ([]*declaration.Declaration, error) {
	return s.filter(func(d *declaration.Declaration) bool {
		return d.Period == period && d.WasteStreamNumber == number
	}), nil
}

// DeclaredBefore implements declaration.Repository.
func (s *Declarations) DeclaredBefore(_ context.Context, numbers []wastestream.Number, period declaration.YearMonth) ([]wastestream.Number, error) {
	wanted := make(map[wastestream.Number]struct{}, len(numbers))
	for _, n := range numbers {
		wanted[n] = struct{}{}
	}
	seen := make(map[wastestream.Number]struct{})
	var out []wastestream.Number
	for _, d := range s.filter(func(d *declaration.Declaration) bool {
		return d.Status == declaration.StatusSubmitted && d.Period.Before(period)
	}) {
		if _, ok := wanted[d.WasteStreamNumber]; !ok {
			continue
		}
		if _, dup := seen[d.WasteStreamNumber]; dup {
			continue
		}
		seen[d.WasteStreamNumber] = struct{}{}
		out = append(out, d.WasteStreamNumber)
	}
	return out, nil
}

// List implements declaration.Repository.
func (s *Declarations) List(_ context.Context, f declaration.Filter) (domain.ListResult[*declaration.Declaration], error) {
	items := s.filter(func(d *declaration.Declaration) bool {
		if f.Period != nil && d.Period != *f.Period {
			return false
		}
		if f.Status != "" && d.Status != f.Status {
			return false
		}
		return f.WasteStreamNumber == "" || d.WasteStreamNumber == f.WasteStreamNumber
	})
	return page(items, f.Limit, f.Offset), nil
}

// All returns every declaration ordered by creation.
func (s *Declarations) All() []*declaration.Declaration {
	return s.filter(func(*declaration.Declaration) bool { return true })
}

func (s *Declarations) filter(keep func(d *declaration.Declaration) bool) []*declaration.Declaration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*declaration.Declaration
	for _, row := range s.rows {
		d := copyDeclaration(row)
		if keep(d) {
			out = append(out, d)
		}
	}
	// ids are UUIDv7, so string order is creation order
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// Ledger implements declaration.Ledger over the ticket and stream stores.
type Ledger struct {
	Tickets   *WeightTickets
	Streams   *WasteStreams
	Companies *Companies
}

// LinesBetween implements declaration.Ledger.
func (l Ledger) LinesBetween(ctx context.Context, from, to time.Time) ([]declaration.LedgerLine, error) {
	var out []declaration.LedgerLine
	for _, t := range l.Tickets.All() {
		if t.WeightedAt.Before(from) || !t.WeightedAt.Before(to) {
			continue
		}
		var vihb string
		if t.CarrierID != nil {
			if c, err := l.Companies.GetByID(ctx, *t.CarrierID); err == nil {
				vihb = c.VIHBNumber
			}
		}
		for _, line := range t.Lines {
			ws, err := l.Streams.GetByNumber(ctx, line.WasteStreamNumber)
			if err != nil {
				continue
			}
			out = append(out, declaration.LedgerLine{
				TicketID:          t.ID,
				TicketStatus:      t.Status,
				WeightedAt:        t.WeightedAt,
				WasteStreamNumber: line.WasteStreamNumber,
				ProcessorID:       ws.Delivery.ProcessorID,
				Kilograms:         line.Weight.InKilograms(),
				CarrierVIHB:       vihb,
			})
		}
	}
	return out, nil
}

// Events records published events.
type Events struct {
	mu     sync.Mutex
	Events []domain.Event
}

// Publish implements domain.EventPublisher.
func (e *Events) Publish(_ context.Context, event domain.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Events = append(e.Events, event)
	return nil
}

// Types returns the event types in publish order.
func (e *Events) Types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.Events))
	for i, ev := range e.Events {
		out[i] = ev.EventType
	}
	return out
}

var (
	_ declaration.Repository = (*Declarations)(nil)
	_ declaration.Ledger     = Ledger{}
	_ domain.EventPublisher  = (*Events)(nil)
)

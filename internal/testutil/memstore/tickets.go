package memstore

import (
	"context"
	"sync"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/transport"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/weightticket"
)

// WeightTickets implements weightticket.Repository.
type WeightTickets struct {
	mu   sync.RWMutex
	rows map[int64]weightticket.WeightTicket
}

// NewWeightTickets creates an empty store.
func NewWeightTickets() *WeightTickets {
	return &WeightTickets{rows: make(map[int64]weightticket.WeightTicket)}
}

func copyTicket(t weightticket.WeightTicket) *weightticket.WeightTicket {
	t.Lines = append([]weightticket.Line(nil), t.Lines...)
	return &t
}

// Create implements weightticket.Repository.
func (s *WeightTickets) Create(_ context.Context, t *weightticket.WeightTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[t.ID]; ok {
		return apperror.NewDuplicate("weight ticket", "id", "")
	}
	s.rows[t.ID] = *copyTicket(*t)
	return nil
}

// Update implements weightticket.Repository.
func (s *WeightTickets) Update(_ context.Context, t *weightticket.WeightTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rows[t.ID]
	if !ok {
		return apperror.NewNotFound("weight ticket", t.ID)
	}
	if stored.Version != t.Version {
		return apperror.NewConcurrentModification("weight ticket", t.ID)
	}
	t.SetVersion(t.Version + 1)
	s.rows[t.ID] = *copyTicket(*t)
	return nil
}

// GetByID implements weightticket.Repository.
func (s *WeightTickets) GetByID(_ context.Context, ticketID int64) (*weightticket.WeightTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.rows[ticketID]
	if !ok {
		return nil, apperror.NewNotFound("weight ticket", ticketID)
	}
	return copyTicket(t), nil
}

// GetForUpdate implements weightticket.Repository.
func (s *WeightTickets) GetForUpdate(ctx context.Context, ticketID int64) (*weightticket.WeightTicket, error) {
	return s.GetByID(ctx, ticketID)
}

// List implements weightticket.Repository.
func (s *WeightTickets) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[*weightticket.WeightTicket], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var items []*weightticket.WeightTicket
	for _, k := range sortedKeys(s.rows) {
		t := s.rows[k]
		if filter.Status != "" && string(t.Status) != filter.Status {
			continue
		}
		items = append(items, copyTicket(t))
	}
	return page(items, filter.Limit, filter.Offset), nil
}

// All returns every ticket ordered by id.
func (s *WeightTickets) All() []*weightticket.WeightTicket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*weightticket.WeightTicket, 0, len(s.rows))
	for _, k := range sortedKeys(s.rows) {
		out = append(out, copyTicket(s.rows[k]))
	}
	return out
}

// Transports implements transport.Repository.
type Transports struct {
	mu   sync.RWMutex
	rows map[id.ID]transport.Transport
}

// NewTransports creates an empty store.
func NewTransports() *Transports {
	return &Transports{rows: make(map[id.ID]transport.Transport)}
}

// Create implements transport.Repository.
func (s *Transports) Create(_ context.Context, t *transport.Transport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[t.ID] = *t
	return nil
}

// GetByID implements transport.Repository.
func (s *Transports) GetByID(_ context.Context, transportID id.ID) (*transport.Transport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.rows[transportID]
	if !ok {
		return nil, apperror.NewNotFound("transport", transportID)
	}
	return &t, nil
}

// Len returns the number of stored transports.
func (s *Transports) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

var (
	_ weightticket.Repository = (*WeightTickets)(nil)
	_ transport.Repository    = (*Transports)(nil)
)

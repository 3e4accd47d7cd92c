package memstore

import (
	"context"
	"sync"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/invoice"
)

// Invoices implements invoice.Repository.
type Invoices struct {
	mu   sync.RWMutex
	rows map[int64]invoice.Invoice
}

// NewInvoices creates an empty store.
func NewInvoices() *Invoices {
	return &Invoices{rows: make(map[int64]invoice.Invoice)}
}

func copyInvoice(inv invoice.Invoice) *invoice.Invoice {
	inv.Lines = append([]invoice.Line(nil), inv.Lines...)
	return &inv
}

// Create implements invoice.Repository.
func (s *Invoices) Create(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[inv.ID] = *copyInvoice(*inv)
	return nil
}

// Update implements invoice.Repository.
func (s *Invoices) Update(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rows[inv.ID]
	if !ok {
		return apperror.NewNotFound("invoice", inv.ID)
	}
	if stored.Version != inv.Version {
		return apperror.NewConcurrentModification("invoice", inv.ID)
	}
	inv.SetVersion(inv.Version + 1)
	s.rows[inv.ID] = *copyInvoice(*inv)
	return nil
}

// GetByID implements invoice.Repository.
func (s *Invoices) GetByID(_ context.Context, invoiceID int64) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.rows[invoiceID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", invoiceID)
	}
	return copyInvoice(inv), nil
}

// GetForUpdate implements invoice.Repository.
func (s *Invoices) GetForUpdate(ctx context.Context, invoiceID int64) (*invoice.Invoice, error) {
	return s.GetByID(ctx, invoiceID)
}

// Len returns the number of stored invoices.
func (s *Invoices) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

var _ invoice.Repository = (*Invoices)(nil)

package invoice

import (
	"context"
	"fmt"
	"time"

	appctx "github.com/Colossus92/eazy-recycling-sub004/internal/core/context"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/numerator"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/tx"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/weightticket"
	"github.com/Colossus92/eazy-recycling-sub004/pkg/logger"
)

// Numbering of final documents. Numbers restart every year.
var (
	InvoiceNumbering    = numerator.DefaultConfig("F")
	CreditNoteNumbering = numerator.DefaultConfig("C")
)

// Service manages the invoice lifecycle.
type Service struct {
	repo      Repository
	generator *Generator
	allocator numerator.Allocator
	numbers   numerator.Generator
	txManager tx.Manager
	now       func() time.Time
}

// NewService creates a new invoice service.
func NewService(
	repo Repository,
	generator *Generator,
	allocator numerator.Allocator,
	numbers numerator.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		generator: generator,
		allocator: allocator,
		numbers:   numbers,
		txManager: txManager,
		now:       time.Now,
	}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

var _ weightticket.InvoiceCreator = (*Service)(nil)

// CreateFromTicket implements weightticket.InvoiceCreator.
func (s *Service) CreateFromTicket(ctx context.Context, t *weightticket.WeightTicket) (int64, error) {
	inv, err := s.generator.Generate(ctx, t, s.now(), appctx.Actor(ctx))
	if err != nil {
		return 0, err
	}
	if err := s.assignIDs(ctx, inv); err != nil {
		return 0, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, inv)
	})
	if err != nil {
		return 0, fmt.Errorf("create invoice: %w", err)
	}

	logger.Info(ctx, "invoice drafted", "id", inv.ID, "weightTicket", t.ID, "type", inv.Type)
	return inv.ID, nil
}

// Finalize numbers and locks a draft invoice. The number is drawn in
// the same transaction so a rollback leaves no gap.
func (s *Service) Finalize(ctx context.Context, invoiceID int64) (*Invoice, error) {
	var inv *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if err := inv.CanModify(); err != nil {
			return err
		}
		cfg := InvoiceNumbering
		if inv.DocumentType == DocumentCreditNote {
			cfg = CreditNoteNumbering
		}
		number, err := s.numbers.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), inv.InvoiceDate)
		if err != nil {
			return fmt.Errorf("generate invoice number: %w", err)
		}
		if err := inv.Finalize(number, s.now(), appctx.Actor(ctx)); err != nil {
			return err
		}
		return s.repo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice finalized", "id", inv.ID, "number", inv.Number)
	return inv, nil
}

// Credit creates a draft credit note reversing a final invoice.
func (s *Service) Credit(ctx context.Context, originalID int64) (*Invoice, error) {
	var credit *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		original, err := s.repo.GetByID(ctx, originalID)
		if err != nil {
			return err
		}
		newID, err := s.allocator.NextValue(ctx, numerator.CounterInvoice)
		if err != nil {
			return fmt.Errorf("allocate invoice id: %w", err)
		}
		lineIDs := make([]int64, len(original.Lines))
		for i := range lineIDs {
			if lineIDs[i], err = s.allocator.NextValue(ctx, numerator.CounterInvoiceLine); err != nil {
				return fmt.Errorf("allocate invoice line id: %w", err)
			}
		}
		credit, err = original.Credit(newID, lineIDs, s.now(), appctx.Actor(ctx))
		if err != nil {
			return err
		}
		return s.repo.Create(ctx, credit)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "credit note drafted", "id", credit.ID, "original", originalID)
	return credit, nil
}

// Get returns an invoice with its lines.
func (s *Service) Get(ctx context.Context, invoiceID int64) (*Invoice, error) {
	return s.repo.GetByID(ctx, invoiceID)
}

func (s *Service) assignIDs(ctx context.Context, inv *Invoice) error {
	var err error
	if inv.ID, err = s.allocator.NextValue(ctx, numerator.CounterInvoice); err != nil {
		return fmt.Errorf("allocate invoice id: %w", err)
	}
	for i := range inv.Lines {
		if inv.Lines[i].ID, err = s.allocator.NextValue(ctx, numerator.CounterInvoiceLine); err != nil {
			return fmt.Errorf("allocate invoice line id: %w", err)
		}
	}
	return nil
}

package weightticket

import (
	"context"
	"fmt"
	"time"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	appctx "github.com/Colossus92/eazy-recycling-sub004/internal/core/context"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/entity"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/numerator"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/tx"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/transport"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
	"github.com/Colossus92/eazy-recycling-sub004/pkg/logger"
)

// CodeStreamNotUsable is returned for lines on inactive streams.
const CodeStreamNotUsable = "WASTE_STREAM_NOT_USABLE"

// Streams is the part of the waste stream registry tickets rely on.
// wastestream.Repository satisfies it.
type Streams interface {
	FindByNumbers(ctx context.Context, numbers []wastestream.Number) ([]*wastestream.WasteStream, error)
	RecordActivity(ctx context.Context, numbers []wastestream.Number, at time.Time) error
}

// InvoiceCreator turns a completed ticket into a draft invoice and
// returns the invoice id. Implemented by invoice.Service.
type InvoiceCreator interface {
	CreateFromTicket(ctx context.Context, t *WeightTicket) (int64, error)
}

// Service provides ledger operations on weight tickets.
type Service struct {
	repo       Repository
	streams    Streams
	transports transport.Repository
	invoices   InvoiceCreator
	allocator  numerator.Allocator
	txManager  tx.Manager
	hooks      *domain.HookRegistry[*WeightTicket]
	now        func() time.Time
}

// NewService creates a new weight ticket service.
func NewService(
	repo Repository,
	streams Streams,
	transports transport.Repository,
	invoices InvoiceCreator,
	allocator numerator.Allocator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:       repo,
		streams:    streams,
		transports: transports,
		invoices:   invoices,
		allocator:  allocator,
		txManager:  txManager,
		hooks:      domain.NewHookRegistry[*WeightTicket](),
		now:        time.Now,
	}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*WeightTicket] {
	return s.hooks
}

// Create records a new DRAFT ticket.
func (s *Service) Create(ctx context.Context, d Details) (*WeightTicket, error) {
	ticketID, err := s.nextID(ctx)
	if err != nil {
		return nil, err
	}
	t, err := New(ctx, ticketID, d, s.now(), appctx.Actor(ctx))
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkStreams(ctx, t); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, t); err != nil {
			return fmt.Errorf("create weight ticket: %w", err)
		}
		return s.hooks.Run(ctx, domain.AfterCreate, t)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "weight ticket created", "id", t.ID, "lines", len(t.Lines))
	return t, nil
}

// Update replaces lines and metadata of a DRAFT ticket.
func (s *Service) Update(ctx context.Context, ticketID int64, d Details) (*WeightTicket, error) {
	return s.mutate(ctx, ticketID, "updated", func(ctx context.Context, t *WeightTicket) error {
		if err := t.Update(ctx, d, s.now(), appctx.Actor(ctx)); err != nil {
			return err
		}
		return s.checkStreams(ctx, t)
	})
}

// Complete closes a DRAFT ticket and marks its streams as active.
func (s *Service) Complete(ctx context.Context, ticketID int64) (*WeightTicket, error) {
	return s.mutate(ctx, ticketID, "completed", func(ctx context.Context, t *WeightTicket) error {
		if err := t.Complete(s.now(), appctx.Actor(ctx)); err != nil {
			return err
		}
		return s.streams.RecordActivity(ctx, t.StreamNumbers(), t.WeightedAt)
	})
}

// Cancel cancels a ticket with a mandatory reason.
func (s *Service) Cancel(ctx context.Context, ticketID int64, reason string) (*WeightTicket, error) {
	return s.mutate(ctx, ticketID, "cancelled", func(ctx context.Context, t *WeightTicket) error {
		return t.Cancel(reason, s.now(), appctx.Actor(ctx))
	})
}

// Split moves newPercentage of every line into a new DRAFT ticket.
// It returns the adjusted original and the new ticket.
func (s *Service) Split(ctx context.Context, ticketID int64, originalPercentage, newPercentage int) (*WeightTicket, *WeightTicket, error) {
	if err := ValidateSplit(originalPercentage, newPercentage); err != nil {
		return nil, nil, err
	}
	newID, err := s.nextID(ctx)
	if err != nil {
		return nil, nil, err
	}

	var child *WeightTicket
	original, err := s.mutate(ctx, ticketID, "split", func(ctx context.Context, t *WeightTicket) error {
		var err error
		child, err = t.Split(newID, originalPercentage, newPercentage, s.now(), appctx.Actor(ctx))
		if err != nil {
			return err
		}
		if err := s.repo.Create(ctx, child); err != nil {
			return fmt.Errorf("create split weight ticket: %w", err)
		}
		return s.hooks.Run(ctx, domain.AfterCreate, child)
	})
	if err != nil {
		return nil, nil, err
	}
	return original, child, nil
}

// Copy creates a new DRAFT ticket with the same lines and metadata.
func (s *Service) Copy(ctx context.Context, ticketID int64) (*WeightTicket, error) {
	newID, err := s.nextID(ctx)
	if err != nil {
		return nil, err
	}

	var clone *WeightTicket
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		clone = t.Clone(newID, s.now(), appctx.Actor(ctx))
		if err := s.repo.Create(ctx, clone); err != nil {
			return fmt.Errorf("create weight ticket copy: %w", err)
		}
		return s.hooks.Run(ctx, domain.AfterCreate, clone)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "weight ticket copied", "source", ticketID, "id", clone.ID)
	return clone, nil
}

// CreateInvoice generates a draft invoice for a COMPLETED ticket and
// moves the ticket to INVOICED. It returns the invoice id.
func (s *Service) CreateInvoice(ctx context.Context, ticketID int64) (int64, error) {
	var invoiceID int64
	_, err := s.mutate(ctx, ticketID, "invoiced", func(ctx context.Context, t *WeightTicket) error {
		if err := t.CanInvoice(); err != nil {
			return err
		}
		var err error
		invoiceID, err = s.invoices.CreateFromTicket(ctx, t)
		if err != nil {
			return err
		}
		return t.MarkInvoiced(invoiceID, s.now(), appctx.Actor(ctx))
	})
	if err != nil {
		return 0, err
	}
	return invoiceID, nil
}

// CreateTransport plans a transport for the ticket. The ticket status
// does not change.
func (s *Service) CreateTransport(ctx context.Context, ticketID int64, pickup time.Time, delivery *time.Time) (*transport.Transport, error) {
	var tr *transport.Transport
	_, err := s.mutate(ctx, ticketID, "linked to transport", func(ctx context.Context, t *WeightTicket) error {
		if err := t.CanLinkTransport(); err != nil {
			return err
		}
		tr = transportFor(t, pickup, delivery, s.now(), appctx.Actor(ctx))
		if err := tr.Validate(ctx); err != nil {
			return err
		}
		if err := s.transports.Create(ctx, tr); err != nil {
			return fmt.Errorf("create transport: %w", err)
		}
		return t.LinkTransport(tr.ID, s.now(), appctx.Actor(ctx))
	})
	if err != nil {
		return nil, err
	}
	return tr, nil
}

// Get returns a ticket with its lines.
func (s *Service) Get(ctx context.Context, ticketID int64) (*WeightTicket, error) {
	return s.repo.GetByID(ctx, ticketID)
}

// List returns a page of tickets.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*WeightTicket], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) mutate(ctx context.Context, ticketID int64, verb string, apply func(ctx context.Context, t *WeightTicket) error) (*WeightTicket, error) {
	var t *WeightTicket
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.repo.GetForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}
		before := t.Status
		if err := apply(ctx, t); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, t); err != nil {
			return fmt.Errorf("update weight ticket: %w", err)
		}
		return s.hooks.Run(ctx, domain.EventFor(before, t.Status), t)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "weight ticket "+verb, "id", t.ID, "status", t.Status)
	return t, nil
}

// checkStreams ensures every line references a stream that can still receive waste.
func (s *Service) checkStreams(ctx context.Context, t *WeightTicket) error {
	numbers := t.StreamNumbers()
	if len(numbers) == 0 {
		return nil
	}
	found, err := s.streams.FindByNumbers(ctx, numbers)
	if err != nil {
		return fmt.Errorf("find waste streams: %w", err)
	}
	byNumber := make(map[wastestream.Number]*wastestream.WasteStream, len(found))
	for _, ws := range found {
		byNumber[ws.Number] = ws
	}
	for _, n := range numbers {
		ws, ok := byNumber[n]
		if !ok {
			return apperror.NewNotFound("waste stream", n)
		}
		if ws.Status == wastestream.StatusInactive {
			return apperror.NewBusinessRule(CodeStreamNotUsable, "waste stream is inactive").
				WithDetail("number", n)
		}
	}
	return nil
}

func (s *Service) nextID(ctx context.Context) (int64, error) {
	v, err := s.allocator.NextValue(ctx, numerator.CounterWeightTicket)
	if err != nil {
		return 0, fmt.Errorf("allocate weight ticket id: %w", err)
	}
	return v, nil
}

func transportFor(t *WeightTicket, pickup time.Time, delivery *time.Time, now time.Time, actor string) *transport.Transport {
	goods := make([]transport.Goods, 0, len(t.Lines))
	for _, l := range t.Lines {
		goods = append(goods, transport.Goods{WasteStreamNumber: l.WasteStreamNumber, Weight: l.Weight})
	}
	return &transport.Transport{
		ID:                id.New(),
		WeightTicketID:    t.ID,
		Consignor:         t.Consignor,
		CarrierID:         t.CarrierID,
		PickupLocation:    t.PickupLocation,
		DeliveryLocation:  t.DeliveryLocation,
		PickupDateTime:    pickup.UTC(),
		DeliveryDateTime:  delivery,
		TruckLicensePlate: t.TruckLicensePlate,
		Goods:             goods,
		Stamps:            entity.NewStamps(now, actor),
	}
}

package wastestream

import (
	"context"
	"fmt"
	"time"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	appctx "github.com/Colossus92/eazy-recycling-sub004/internal/core/context"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/numerator"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/tx"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/company"
	"github.com/Colossus92/eazy-recycling-sub004/pkg/logger"
)

// Service provides business operations for waste streams.
type Service struct {
	repo      Repository
	companies company.Lookup
	allocator numerator.Allocator
	txManager tx.Manager
	hooks     *domain.HookRegistry[*WasteStream]
	now       func() time.Time
}

// NewService creates a new waste stream service.
func NewService(
	repo Repository,
	companies company.Lookup,
	allocator numerator.Allocator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		companies: companies,
		allocator: allocator,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*WasteStream](),
		now:       time.Now,
	}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*WasteStream] {
	return s.hooks
}

// Create registers a new DRAFT stream with the next number of its processor.
// The number is drawn inside the transaction, after the details passed
// validation, so a rejected create leaves the counter untouched.
func (s *Service) Create(ctx context.Context, d Details) (*WasteStream, error) {
	delivery, err := s.resolveDelivery(ctx, d.Delivery)
	if err != nil {
		return nil, err
	}
	d.Delivery = delivery

	// The invariants only read the processor prefix of the number.
	provisional, err := FormatNumber(delivery.ProcessorID, 1)
	if err != nil {
		return nil, err
	}
	ws, err := New(ctx, provisional, d, s.now(), appctx.Actor(ctx))
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.nextNumber(ctx, delivery.ProcessorID)
		if err != nil {
			return err
		}
		ws.Number = number
		if err := s.repo.Create(ctx, ws); err != nil {
			return fmt.Errorf("create waste stream: %w", err)
		}
		return s.hooks.Run(ctx, domain.AfterCreate, ws)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "waste stream created", "number", ws.Number, "processor", delivery.ProcessorID)
	return ws, nil
}

// Register stores a stream under an externally issued number, as
// exported by the national registry. The processor counter is moved
// past the number so later Create calls never collide with it.
func (s *Service) Register(ctx context.Context, number Number, d Details, activate bool) (*WasteStream, error) {
	if _, err := ParseNumber(string(number)); err != nil {
		return nil, err
	}
	delivery, err := s.resolveDelivery(ctx, d.Delivery)
	if err != nil {
		return nil, err
	}
	d.Delivery = delivery

	now := s.now()
	actor := appctx.Actor(ctx)
	ws, err := New(ctx, number, d, now, actor)
	if err != nil {
		return nil, err
	}
	if activate {
		if err := ws.Activate(ctx, now, actor); err != nil {
			return nil, err
		}
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.repo.Exists(ctx, number)
		if err != nil {
			return fmt.Errorf("check waste stream: %w", err)
		}
		if exists {
			return apperror.NewDuplicate("waste stream", "number", string(number))
		}
		if err := s.repo.Create(ctx, ws); err != nil {
			return fmt.Errorf("create waste stream: %w", err)
		}
		if err := s.allocator.EnsureAtLeast(ctx, SequenceName(delivery.ProcessorID), number.Sequence()); err != nil {
			return fmt.Errorf("advance sequence: %w", err)
		}
		return s.hooks.Run(ctx, domain.AfterCreate, ws)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "waste stream registered", "number", ws.Number, "status", ws.Status)
	return ws, nil
}

// Update replaces the details of a DRAFT stream.
func (s *Service) Update(ctx context.Context, number Number, d Details) (*WasteStream, error) {
	var ws *WasteStream
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		ws, err = s.repo.GetForUpdate(ctx, number)
		if err != nil {
			return err
		}
		delivery, err := s.resolveDelivery(ctx, d.Delivery)
		if err != nil {
			return err
		}
		d.Delivery = delivery
		if err := ws.Update(ctx, d, s.now(), appctx.Actor(ctx)); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, ws); err != nil {
			return fmt.Errorf("update waste stream: %w", err)
		}
		return s.hooks.Run(ctx, domain.AfterUpdate, ws)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "waste stream updated", "number", ws.Number)
	return ws, nil
}

// Activate moves a DRAFT stream to ACTIVE.
func (s *Service) Activate(ctx context.Context, number Number) (*WasteStream, error) {
	return s.transition(ctx, number, "activated", func(ws *WasteStream) error {
		return ws.Activate(ctx, s.now(), appctx.Actor(ctx))
	})
}

// Delete moves a stream to INACTIVE. Its number is never reissued.
func (s *Service) Delete(ctx context.Context, number Number) (*WasteStream, error) {
	return s.transition(ctx, number, "deleted", func(ws *WasteStream) error {
		return ws.Delete(s.now(), appctx.Actor(ctx))
	})
}

func (s *Service) transition(ctx context.Context, number Number, verb string, apply func(*WasteStream) error) (*WasteStream, error) {
	var ws *WasteStream
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		ws, err = s.repo.GetForUpdate(ctx, number)
		if err != nil {
			return err
		}
		if err := apply(ws); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, ws); err != nil {
			return fmt.Errorf("update waste stream: %w", err)
		}
		event := domain.AfterTransition
		if ws.Status == StatusInactive {
			event = domain.AfterDelete
		}
		return s.hooks.Run(ctx, event, ws)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "waste stream "+verb, "number", ws.Number, "status", ws.Status)
	return ws, nil
}

// Get returns a stream by number.
func (s *Service) Get(ctx context.Context, number Number) (*WasteStream, error) {
	return s.repo.GetByNumber(ctx, number)
}

// EffectiveStatus returns the display status of ws right now.
func (s *Service) EffectiveStatus(ws *WasteStream) Status {
	return ws.EffectiveStatus(s.now())
}

// List returns a page of streams.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*WasteStream], error) {
	return s.repo.List(ctx, filter)
}

// RecordActivity marks numbers as used at at, postponing their expiry.
func (s *Service) RecordActivity(ctx context.Context, numbers []Number, at time.Time) error {
	if len(numbers) == 0 {
		return nil
	}
	return s.repo.RecordActivity(ctx, numbers, at)
}

// nextNumber draws from the atomic per-processor counter. The counter
// holds the highest issued sequence, so the generator is fed the
// previous value and stays the single place that formats and bounds it.
func (s *Service) nextNumber(ctx context.Context, processorID string) (Number, error) {
	if err := validateProcessorID(processorID); err != nil {
		return "", err
	}
	seq, err := s.allocator.NextValue(ctx, SequenceName(processorID))
	if err != nil {
		return "", fmt.Errorf("allocate waste stream sequence: %w", err)
	}
	if seq-1 > MaxSequence {
		return "", exhausted(processorID)
	}
	var highest *Number
	if seq > 1 {
		prev, err := FormatNumber(processorID, seq-1)
		if err != nil {
			return "", err
		}
		highest = &prev
	}
	return GenerateNext(processorID, highest)
}

// resolveDelivery fills the processor id from the company registry.
func (s *Service) resolveDelivery(ctx context.Context, d Delivery) (Delivery, error) {
	processor, err := s.companies.GetByID(ctx, d.ProcessorCompanyID)
	if err != nil {
		return Delivery{}, err
	}
	if !processor.IsProcessor() {
		return Delivery{}, apperror.NewBusinessRule(CodeNotAProcessor, "delivery company is not a registered processor").
			WithDetail("companyId", processor.ID)
	}
	return Delivery{ProcessorCompanyID: processor.ID, ProcessorID: processor.ProcessorID}, nil
}

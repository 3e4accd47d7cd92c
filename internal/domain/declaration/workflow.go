package declaration

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	appctx "github.com/Colossus92/eazy-recycling-sub004/internal/core/context"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/lock"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/tx"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
	"github.com/Colossus92/eazy-recycling-sub004/pkg/logger"
)

// Event types written to the outbox.
const (
	AggregateType      = "LmaDeclaration"
	EventSubmitted     = "DeclarationSubmitted"
	DefaultLockTimeout = 2 * time.Minute
)

// Observer receives the outcome of every gateway call.
type Observer interface {
	ObserveSubmission(outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveSubmission(string, time.Duration) {}

// Report summarises one declaration run.
type Report struct {
	Period       YearMonth
	Submitted    int
	Failed       int
	Skipped      int
	Declarations []*Declaration
}

// Workflow creates declarations and transmits them to the gateway.
type Workflow struct {
	aggregator *Aggregator
	repo       Repository
	builder    *MessageBuilder
	gateway    Gateway
	locker     lock.Locker
	events     domain.EventPublisher
	txManager  tx.Manager
	observer   Observer
	lockTTL    time.Duration
	now        func() time.Time
}

// NewWorkflow creates a Workflow.
func NewWorkflow(
	aggregator *Aggregator,
	repo Repository,
	builder *MessageBuilder,
	gateway Gateway,
	locker lock.Locker,
	events domain.EventPublisher,
	txManager tx.Manager,
) *Workflow {
	return &Workflow{
		aggregator: aggregator,
		repo:       repo,
		builder:    builder,
		gateway:    gateway,
		locker:     locker,
		events:     events,
		txManager:  txManager,
		observer:   nopObserver{},
		lockTTL:    DefaultLockTimeout,
		now:        time.Now,
	}
}

// WithClock overrides the time source.
func (w *Workflow) WithClock(now func() time.Time) *Workflow {
	w.now = now
	return w
}

// WithObserver sets the gateway call observer.
func (w *Workflow) WithObserver(o Observer) *Workflow {
	w.observer = o
	return w
}

// errSkipped marks candidates that another run already handles.
var errSkipped = errors.New("declaration skipped")

// DeclareMonth records and transmits a declaration for every undeclared
// candidate of period. A first-time stream is declared as FIRST_RECEIVAL.
// Gateway failures and incomplete registry data are counted in the report
// and leave the declaration PENDING with its reasons; they do not stop the
// run. Storage errors do.
func (w *Workflow) DeclareMonth(ctx context.Context, period YearMonth) (*Report, error) {
	candidates, err := w.aggregator.FindCandidates(ctx, period)
	if err != nil {
		return nil, err
	}
	report := &Report{Period: period}
	if len(candidates) == 0 {
		logger.Info(ctx, "no declaration candidates", "period", period.String())
		return report, nil
	}

	numbers := make([]wastestream.Number, len(candidates))
	for i, c := range candidates {
		numbers[i] = c.WasteStreamNumber
	}
	prior, err := w.repo.DeclaredBefore(ctx, numbers, period)
	if err != nil {
		return nil, fmt.Errorf("load earlier declarations: %w", err)
	}
	declaredBefore := make(map[wastestream.Number]struct{}, len(prior))
	for _, n := range prior {
		declaredBefore[n] = struct{}{}
	}

	for _, c := range candidates {
		kind := KindFirstReceival
		if _, ok := declaredBefore[c.WasteStreamNumber]; ok {
			kind = KindMonthlyReceival
		}
		d, err := w.declare(ctx, c, kind, true)
		switch {
		case errors.Is(err, errSkipped):
			report.Skipped++
			continue
		case apperror.HasCode(err, apperror.CodeExternalGateway),
			apperror.HasCode(err, CodeMessageIncomplete):
			report.Failed++
		case err != nil:
			return report, err
		default:
			report.Submitted++
		}
		report.Declarations = append(report.Declarations, d)
	}

	logger.Info(ctx, "declaration run finished",
		"period", period.String(),
		"submitted", report.Submitted,
		"failed", report.Failed,
		"skipped", report.Skipped)
	return report, nil
}

// DeclareCorrections records a CORRECTIVE declaration for every stream
// whose submitted figures for period no longer match the ledger.
// Corrections wait for Approve and are not transmitted here.
func (w *Workflow) DeclareCorrections(ctx context.Context, period YearMonth) ([]*Declaration, error) {
	totals, err := w.aggregator.Totals(ctx, period)
	if err != nil {
		return nil, err
	}
	current := make(map[wastestream.Number]Candidate, len(totals))
	for _, c := range totals {
		current[c.WasteStreamNumber] = c
	}

	existing, err := w.repo.ForPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("load declarations: %w", err)
	}
	latest := make(map[wastestream.Number]*Declaration)
	open := make(map[wastestream.Number]bool)
	var order []wastestream.Number
	for _, d := range existing {
		if d.Status != StatusSubmitted {
			open[d.WasteStreamNumber] = true
			continue
		}
		prev, ok := latest[d.WasteStreamNumber]
		if !ok {
			order = append(order, d.WasteStreamNumber)
		}
		if !ok || submittedAfter(d, prev) {
			latest[d.WasteStreamNumber] = d
		}
	}

	var created []*Declaration
	for _, number := range order {
		if open[number] {
			continue
		}
		c, ok := current[number]
		if !ok {
			c = Candidate{WasteStreamNumber: number, Period: period, Transporters: []string{}}
		}
		if !latest[number].Differs(c) {
			continue
		}
		d, err := w.declare(ctx, c, KindCorrection, false)
		if errors.Is(err, errSkipped) {
			continue
		}
		if err != nil {
			return created, err
		}
		created = append(created, d)
	}
	return created, nil
}

// Approve transmits a CORRECTIVE declaration, or retries a PENDING one
// whose earlier transmission failed.
func (w *Workflow) Approve(ctx context.Context, declarationID id.ID) (*Declaration, error) {
	current, err := w.Get(ctx, declarationID)
	if err != nil {
		return nil, err
	}

	var d *Declaration
	err = w.withLock(ctx, current, func(ctx context.Context) error {
		err := w.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			var err error
			d, err = w.repo.GetForUpdate(ctx, declarationID)
			if err != nil {
				return notFound(err, declarationID)
			}
			if err := d.Approve(w.now(), appctx.Actor(ctx)); err != nil {
				return err
			}
			return w.repo.Update(ctx, d)
		})
		if err != nil {
			return err
		}
		logger.Info(ctx, "declaration approved", "id", d.ID, "approvedBy", d.ApprovedBy)
		return w.transmit(ctx, d)
	})
	if errors.Is(err, errSkipped) {
		return nil, apperror.NewConflict("declaration is being submitted").WithDetail("id", declarationID)
	}
	return d, err
}

// Get returns a declaration.
func (w *Workflow) Get(ctx context.Context, declarationID id.ID) (*Declaration, error) {
	d, err := w.repo.GetByID(ctx, declarationID)
	if err != nil {
		return nil, notFound(err, declarationID)
	}
	return d, nil
}

// List returns a page of declarations.
func (w *Workflow) List(ctx context.Context, filter Filter) (domain.ListResult[*Declaration], error) {
	return w.repo.List(ctx, filter)
}

// declare creates a declaration for c under the stream+period lock and
// optionally transmits it right away.
func (w *Workflow) declare(ctx context.Context, c Candidate, kind Kind, submit bool) (*Declaration, error) {
	d := New(c, kind, w.now(), appctx.Actor(ctx))
	err := w.withLock(ctx, d, func(ctx context.Context) error {
		err := w.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			existing, err := w.repo.ForStream(ctx, c.WasteStreamNumber, c.Period)
			if err != nil {
				return err
			}
			if conflicts(existing, kind) {
				return errSkipped
			}
			return w.repo.Create(ctx, d)
		})
		if err != nil {
			return err
		}
		logger.Info(ctx, "declaration created",
			"id", d.ID,
			"wasteStreamNumber", d.WasteStreamNumber,
			"period", d.Period.String(),
			"kind", d.Kind,
			"totalWeight", d.TotalWeight)
		if !submit {
			return nil
		}
		return w.transmit(ctx, d)
	})
	return d, err
}

// transmit sends d and stores the outcome. A failure leaves d pending
// with its reasons and returns an EXTERNAL_GATEWAY_ERROR, or
// DECLARATION_MESSAGE_INCOMPLETE when the registry lacks data the message
// needs.
func (w *Workflow) transmit(ctx context.Context, d *Declaration) error {
	if err := d.CanSubmit(); err != nil {
		return err
	}
	msg, err := w.builder.Build(ctx, d)
	if err != nil {
		return w.buildFailed(ctx, d, err)
	}

	start := w.now()
	ack, err := w.gateway.Submit(ctx, msg)
	elapsed := w.now().Sub(start)
	if err == nil && !ack.Accepted {
		err = fmt.Errorf("declaration rejected: %s", strings.Join(ack.Reasons, "; "))
	}
	if err != nil {
		w.observer.ObserveSubmission("failed", elapsed)
		reasons := ack.Reasons
		if len(reasons) == 0 {
			reasons = []string{err.Error()}
		}
		d.MarkFailed(reasons, w.now(), appctx.Actor(ctx))
		if saveErr := w.save(ctx, d, false); saveErr != nil {
			return saveErr
		}
		logger.Warn(ctx, "declaration not accepted", "id", d.ID, "error", err)
		return apperror.NewExternalGateway(GatewayName, err).
			WithDetail("declarationId", d.ID).
			WithDetail("reasons", reasons)
	}

	w.observer.ObserveSubmission("submitted", elapsed)
	d.MarkSubmitted(ack.Reference, w.now(), appctx.Actor(ctx))
	if err := w.save(ctx, d, true); err != nil {
		return err
	}
	logger.Info(ctx, "declaration submitted", "id", d.ID, "reference", d.GatewayReference)
	return nil
}

// buildFailed records a registry error on d. Errors without a client
// status are infrastructure failures and are returned unchanged.
func (w *Workflow) buildFailed(ctx context.Context, d *Declaration, err error) error {
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.HTTPStatus >= http.StatusInternalServerError {
		return err
	}
	reason := appErr.Code + ": " + err.Error()
	d.MarkFailed([]string{reason}, w.now(), appctx.Actor(ctx))
	if saveErr := w.save(ctx, d, false); saveErr != nil {
		return saveErr
	}
	logger.Warn(ctx, "declaration message incomplete", "id", d.ID, "error", err)
	return apperror.NewBusinessRule(CodeMessageIncomplete, "declaration message could not be built").
		WithDetail("declarationId", d.ID).
		WithDetail("reasons", []string{reason}).
		WithCause(err)
}

func (w *Workflow) save(ctx context.Context, d *Declaration, submitted bool) error {
	return w.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := w.repo.Update(ctx, d); err != nil {
			return fmt.Errorf("update declaration: %w", err)
		}
		if !submitted {
			return nil
		}
		return w.events.Publish(ctx, domain.Event{
			AggregateType: AggregateType,
			AggregateID:   d.ID.String(),
			EventType:     EventSubmitted,
			Payload: map[string]any{
				"wasteStreamNumber": d.WasteStreamNumber,
				"period":            d.Period.String(),
				"kind":              d.Kind,
				"totalWeight":       d.TotalWeight,
				"totalShipments":    d.TotalShipments,
				"reference":         d.GatewayReference,
			},
		})
	})
}

func (w *Workflow) withLock(ctx context.Context, d *Declaration, fn func(ctx context.Context) error) error {
	release, err := w.locker.Acquire(ctx, LockKey(d.WasteStreamNumber, d.Period), w.lockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		return errSkipped
	}
	if err != nil {
		return fmt.Errorf("acquire declaration lock: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn(ctx, "release declaration lock", "error", err)
		}
	}()
	return fn(ctx)
}

// LockKey is the lock that serializes declarations of a stream and period.
func LockKey(number wastestream.Number, period YearMonth) string {
	return "declaration:" + number.String() + ":" + period.String()
}

// conflicts reports whether a new declaration of kind would duplicate
// one of existing.
func conflicts(existing []*Declaration, kind Kind) bool {
	for _, d := range existing {
		if d.Status != StatusSubmitted {
			return true
		}
		if kind != KindCorrection {
			return true
		}
	}
	return false
}

func submittedAfter(a, b *Declaration) bool {
	if a.SubmittedAt == nil || b.SubmittedAt == nil {
		return a.SubmittedAt != nil
	}
	return a.SubmittedAt.After(*b.SubmittedAt)
}

func notFound(err error, declarationID id.ID) error {
	if apperror.IsNotFound(err) && !apperror.HasCode(err, CodeNotFound) {
		return apperror.NewNotFoundWithCode(CodeNotFound, "declaration", declarationID)
	}
	return err
}

package main

import (
	"context"
	"errors"
	"time"

	"github.com/Colossus92/eazy-recycling-sub004/internal/app"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/lock"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/declaration"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/messaging/kafka"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/metrics"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
	"github.com/Colossus92/eazy-recycling-sub004/pkg/logger"
)

const (
	housekeepingInterval = time.Hour
	dlqInterval          = time.Minute
)

type declarer interface {
	DeclareMonth(ctx context.Context, period declaration.YearMonth) (*declaration.Report, error)
	DeclareCorrections(ctx context.Context, period declaration.YearMonth) ([]*declaration.Declaration, error)
}

type purger interface {
	Purge(ctx context.Context, before time.Time) (int64, error)
}

type cleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Worker runs the periodic jobs of one process. Jobs that must happen
// once per cluster take a named lock first.
type Worker struct {
	log          *logger.Logger
	metrics      *metrics.Metrics
	relay        *postgres.OutboxRelay
	publisher    *kafka.Publisher
	declarations declarer
	locker       lock.Locker
	audit        purger
	idempotency  cleaner

	loc            *time.Location
	runDay         int
	retention      time.Duration
	outboxInterval time.Duration
	now            func() time.Time
}

// NewWorker builds the worker on top of the application services.
// Without Kafka brokers the outbox is left for another worker to drain.
func NewWorker(a *app.App) (*Worker, error) {
	cfg := a.Config
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	w := &Worker{
		log:            a.Log.WithComponent("worker"),
		metrics:        a.Metrics,
		declarations:   a.Declarations,
		locker:         a.Locker,
		audit:          a.Audit,
		idempotency:    postgres.NewIdempotencyStore(a.TxManager, cfg.HTTP.IdempotencyTTL),
		loc:            loc,
		runDay:         cfg.Declaration.RunDay,
		retention:      cfg.Worker.AuditRetention,
		outboxInterval: cfg.Worker.OutboxInterval,
		now:            time.Now,
	}
	if len(cfg.Kafka.Brokers) > 0 {
		w.publisher = kafka.NewPublisher(kafka.Config{
			Brokers:     cfg.Kafka.Brokers,
			TopicPrefix: cfg.Kafka.TopicPrefix,
		})
		w.relay = postgres.NewOutboxRelay(a.TxManager, cfg.Worker.OutboxBatchSize, w.publisher)
	} else {
		w.log.Warn("kafka brokers not configured, outbox relay disabled")
	}
	return w, nil
}

// Close flushes the broker writers.
func (w *Worker) Close() {
	if w.publisher == nil {
		return
	}
	if err := w.publisher.Close(); err != nil {
		w.log.Warnw("failed to close kafka publisher", "error", err)
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	outbox := time.NewTicker(w.outboxInterval)
	defer outbox.Stop()

	dlq := time.NewTicker(dlqInterval)
	defer dlq.Stop()

	housekeeping := time.NewTicker(housekeepingInterval)
	defer housekeeping.Stop()

	w.runDeclarations(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-outbox.C:
			w.processOutbox(ctx)
		case <-dlq.C:
			w.moveToDLQ(ctx)
		case <-housekeeping.C:
			w.runDeclarations(ctx)
			w.cleanup(ctx)
		}
	}
}

func (w *Worker) processOutbox(ctx context.Context) {
	if w.relay == nil {
		return
	}
	for {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			w.log.Errorw("outbox batch failed", "error", err)
			return
		}
		if n == 0 {
			return
		}
		w.metrics.OutboxPublished.Add(float64(n))
		w.log.Debugw("processed outbox batch", "count", n)
	}
}

func (w *Worker) moveToDLQ(ctx context.Context) {
	if w.relay == nil {
		return
	}
	n, err := w.relay.MoveToDLQ(ctx)
	if err != nil {
		w.log.Errorw("failed to move outbox messages to dead letter", "error", err)
		return
	}
	if n > 0 {
		w.metrics.OutboxFailed.Add(float64(n))
		w.log.Warnw("outbox messages dead-lettered", "count", n)
	}
}

// duePeriod returns the previous month once now has reached the run day
// of the current month. A worker that was down on the run day catches up
// on its next tick.
func (w *Worker) duePeriod(now time.Time) (declaration.YearMonth, bool) {
	local := now.In(w.loc)
	if local.Day() < w.runDay {
		return declaration.YearMonth{}, false
	}
	return declaration.NewYearMonth(local, w.loc).Previous(), true
}

// untilNextMonth is the time left before the current local month ends.
func (w *Worker) untilNextMonth(now time.Time) time.Duration {
	local := now.In(w.loc)
	next := time.Date(local.Year(), local.Month()+1, 1, 0, 0, 0, 0, w.loc)
	return next.Sub(now)
}

// runDeclarations declares the previous month from the run day on, then
// records corrections for the month before it. After a successful run the
// lock is kept until the month ends so later ticks skip the run.
func (w *Worker) runDeclarations(ctx context.Context) {
	now := w.now()
	period, ok := w.duePeriod(now)
	if !ok {
		return
	}
	release, err := w.locker.Acquire(ctx, "declaration-run:"+period.String(), w.untilNextMonth(now))
	if errors.Is(err, lock.ErrNotAcquired) {
		w.log.Debugw("declaration run already done", "period", period.String())
		return
	}
	if err != nil {
		w.log.Errorw("failed to acquire declaration run lock", "period", period.String(), "error", err)
		return
	}

	if err := w.declare(ctx, period); err != nil {
		w.log.Errorw("declaration run failed", "period", period.String(), "error", err)
		if err := release(ctx); err != nil {
			w.log.Warnw("failed to release declaration run lock", "error", err)
		}
	}
}

func (w *Worker) declare(ctx context.Context, period declaration.YearMonth) error {
	report, err := w.declarations.DeclareMonth(ctx, period)
	if err != nil {
		return err
	}
	w.log.Infow("monthly declarations sent",
		"period", period.String(),
		"submitted", report.Submitted,
		"failed", report.Failed,
		"skipped", report.Skipped)

	corrections, err := w.declarations.DeclareCorrections(ctx, period.Previous())
	if err != nil {
		return err
	}
	if len(corrections) > 0 {
		w.log.Infow("corrections awaiting approval",
			"period", period.Previous().String(),
			"count", len(corrections))
	}
	return nil
}

func (w *Worker) cleanup(ctx context.Context) {
	if n, err := w.audit.Purge(ctx, w.now().Add(-w.retention)); err != nil {
		w.log.Errorw("failed to purge audit log", "error", err)
	} else if n > 0 {
		w.log.Infow("purged audit entries", "count", n)
	}

	if n, err := w.idempotency.CleanupExpired(ctx); err != nil {
		w.log.Errorw("failed to clean up idempotency keys", "error", err)
	} else if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}
}

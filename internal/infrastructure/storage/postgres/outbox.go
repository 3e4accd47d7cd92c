package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
	"github.com/Colossus92/eazy-recycling-sub004/pkg/logger"
)

// OutboxStatus is the delivery state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// MaxOutboxRetries is the number of failed deliveries before a message
// is marked failed and becomes eligible for the dead letter table.
const MaxOutboxRetries = 5

// OutboxMessage is one row of sys_outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	AggregateType string       `db:"aggregate_type"`
	AggregateID   string       `db:"aggregate_id"`
	EventType     string       `db:"event_type"`
	Payload       []byte       `db:"payload"`
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

// OutboxPublisher writes domain events to sys_outbox inside the
// transaction of the operation that raised them.
type OutboxPublisher struct {
	txManager *TxManager
	now       func() time.Time
}

var _ domain.EventPublisher = (*OutboxPublisher)(nil)

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager, now: time.Now}
}

// Publish implements domain.EventPublisher. It must run inside a transaction.
func (p *OutboxPublisher) Publish(ctx context.Context, event domain.Event) error {
	t := p.txManager.GetTx(ctx)
	if t == nil {
		return fmt.Errorf("outbox publish of %s requires a transaction", event.EventType)
	}
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event.EventType, err)
	}

	_, err = t.Exec(ctx, `
		INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id.New(), event.AggregateType, event.AggregateID, event.EventType, payload, OutboxStatusPending, p.now().UTC())
	if err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// OutboxHandler delivers one message to the broker.
type OutboxHandler interface {
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxRelay moves pending messages to an OutboxHandler. Several relays
// may run at once; SKIP LOCKED keeps them on disjoint batches.
type OutboxRelay struct {
	txManager *TxManager
	batchSize int
	handler   OutboxHandler
	now       func() time.Time
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, batchSize int, handler OutboxHandler) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{txManager: txManager, batchSize: batchSize, handler: handler, now: time.Now}
}

// ProcessBatch delivers up to batchSize due messages and returns how many
// were published. Failed deliveries are rescheduled with a linear backoff.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	published := 0
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txManager.GetQuerier(ctx)

		var messages []*OutboxMessage
		err := pgxscan.Select(ctx, q, &messages, `
			SELECT id, aggregate_type, aggregate_id, event_type, payload, status,
			       retry_count, last_error, next_retry_at, created_at, published_at
			FROM sys_outbox
			WHERE status = $1 AND (next_retry_at IS NULL OR next_retry_at <= $2)
			ORDER BY created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED`,
			OutboxStatusPending, r.now().UTC(), r.batchSize)
		if err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		for _, msg := range messages {
			if err := r.handler.Handle(ctx, msg); err != nil {
				logger.Warn(ctx, "outbox delivery failed",
					"id", msg.ID, "eventType", msg.EventType, "retry", msg.RetryCount+1, "error", err)
				if err := r.reschedule(ctx, q, msg, err); err != nil {
					return err
				}
				continue
			}
			if _, err := q.Exec(ctx, `UPDATE sys_outbox SET status = $1, published_at = $2 WHERE id = $3`,
				OutboxStatusPublished, r.now().UTC(), msg.ID); err != nil {
				return fmt.Errorf("mark outbox message published: %w", err)
			}
			published++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}

func (r *OutboxRelay) reschedule(ctx context.Context, q Querier, msg *OutboxMessage, cause error) error {
	retries := msg.RetryCount + 1
	status := OutboxStatusPending
	if retries >= MaxOutboxRetries {
		status = OutboxStatusFailed
	}
	_, err := q.Exec(ctx, `
		UPDATE sys_outbox
		SET retry_count = $1, last_error = $2, next_retry_at = $3, status = $4
		WHERE id = $5`,
		retries, cause.Error(), r.now().UTC().Add(RetryDelay(retries)), status, msg.ID)
	if err != nil {
		return fmt.Errorf("reschedule outbox message: %w", err)
	}
	return nil
}

// RetryDelay is the wait before delivery attempt retries+1.
func RetryDelay(retries int) time.Duration {
	if retries < 1 {
		retries = 1
	}
	return time.Duration(retries) * time.Minute
}

// MoveToDLQ moves failed messages to sys_outbox_dlq.
func (r *OutboxRelay) MoveToDLQ(ctx context.Context) (int64, error) {
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		WITH moved AS (
			DELETE FROM sys_outbox
			WHERE status = $1
			RETURNING id, aggregate_type, aggregate_id, event_type, payload, retry_count, last_error, created_at
		)
		INSERT INTO sys_outbox_dlq (id, aggregate_type, aggregate_id, event_type, payload, retry_count, failure_reason, created_at, failed_at)
		SELECT id, aggregate_type, aggregate_id, event_type, payload, retry_count, last_error, created_at, NOW()
		FROM moved`, OutboxStatusFailed)
	if err != nil {
		return 0, fmt.Errorf("move outbox messages to dlq: %w", err)
	}
	return tag.RowsAffected(), nil
}

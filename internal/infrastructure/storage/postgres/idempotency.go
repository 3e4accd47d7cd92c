package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
)

const (
	CodeIdempotencyMismatch = "IDEMPOTENCY_KEY_MISMATCH"
	CodeIdempotencyPending  = "IDEMPOTENCY_KEY_IN_PROGRESS"
)

// IdempotencyStatus represents the state of an idempotent operation.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
	IdempotencyStatusFailed  IdempotencyStatus = "failed"
)

// staleAfter is how long a pending key may sit before another request
// may take it over.
const staleAfter = time.Minute

// IdempotencyRecord stores the result of an idempotent operation.
type IdempotencyRecord struct {
	Key         string            `db:"idempotency_key"`
	UserID      string            `db:"user_id"`
	Operation   string            `db:"operation"`
	Status      IdempotencyStatus `db:"status"`
	RequestHash string            `db:"request_hash"`
	Response    []byte            `db:"response"`
	StatusCode  int               `db:"response_status"`
	ContentType string            `db:"response_content_type"`
	UpdatedAt   time.Time         `db:"updated_at"`
}

// IdempotencyReplay is the cached HTTP response for replay.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore manages idempotency keys in sys_idempotency.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
	now       func() time.Time
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		txManager: txManager,
		ttl:       ttl,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

const acquireKeySQL = `
	INSERT INTO sys_idempotency (idempotency_key, user_id, operation, status, request_hash, created_at, updated_at, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6, $6, $7)
	ON CONFLICT (idempotency_key) DO NOTHING`

const loadKeySQL = `
	SELECT idempotency_key, user_id, operation, status, request_hash,
	       response, response_status, response_content_type, updated_at
	FROM sys_idempotency
	WHERE idempotency_key = $1`

// AcquireKey attempts to acquire an idempotency key.
// Returns:
//   - (nil, nil) if the key was acquired
//   - (replay, nil) if the operation already completed
//   - (nil, error) if the key belongs to another request or is in progress
func (s *IdempotencyStore) AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*IdempotencyReplay, error) {
	now := s.now()
	q := s.txManager.GetQuerier(ctx)

	tag, err := q.Exec(ctx, acquireKeySQL, key, userID, operation, IdempotencyStatusPending, requestHash, now, now.Add(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil, nil
	}

	var rec IdempotencyRecord
	err = q.QueryRow(ctx, loadKeySQL, key).Scan(
		&rec.Key, &rec.UserID, &rec.Operation, &rec.Status, &rec.RequestHash,
		&rec.Response, &rec.StatusCode, &rec.ContentType, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// Released between the insert and the read.
		return s.AcquireKey(ctx, key, userID, operation, requestHash)
	}
	if err != nil {
		return nil, fmt.Errorf("load idempotency key: %w", err)
	}

	if rec.UserID != userID || rec.Operation != operation || rec.RequestHash != requestHash {
		return nil, apperror.NewConflictWithCode(CodeIdempotencyMismatch, "idempotency key was used for a different request").
			WithDetail("key", key).
			WithDetail("storedOperation", rec.Operation).
			WithDetail("requestOperation", operation)
	}

	switch rec.Status {
	case IdempotencyStatusSuccess, IdempotencyStatusFailed:
		return &IdempotencyReplay{
			StatusCode:  normalizeReplayStatus(rec.StatusCode),
			ContentType: normalizeReplayContentType(rec.ContentType),
			Body:        rec.Response,
		}, nil
	}

	if now.Sub(rec.UpdatedAt) <= staleAfter {
		return nil, apperror.NewConflictWithCode(CodeIdempotencyPending, "a request with this idempotency key is still in progress").
			WithDetail("key", key)
	}
	tag, err = q.Exec(ctx, `
		UPDATE sys_idempotency SET updated_at = $1
		WHERE idempotency_key = $2 AND status = $3 AND updated_at = $4`,
		now, key, IdempotencyStatusPending, rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("reclaim stale key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.NewConflictWithCode(CodeIdempotencyPending, "a request with this idempotency key is still in progress").
			WithDetail("key", key)
	}
	return nil, nil
}

// CompleteKey stores a successful response for replay.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	return s.finish(ctx, key, IdempotencyStatusSuccess, statusCode, contentType, body)
}

// FailKey stores a client error response for replay.
func (s *IdempotencyStore) FailKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	return s.finish(ctx, key, IdempotencyStatusFailed, statusCode, contentType, body)
}

// ReleaseKey forgets a pending key so the request can be retried.
func (s *IdempotencyStore) ReleaseKey(ctx context.Context, key string) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_idempotency WHERE idempotency_key = $1 AND status = $2`,
		key, IdempotencyStatusPending)
	if err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) finish(ctx context.Context, key string, status IdempotencyStatus, statusCode int, contentType string, body []byte) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_idempotency
		SET status = $1,
		    response = $2,
		    response_status = $3,
		    response_content_type = $4,
		    updated_at = $5
		WHERE idempotency_key = $6`,
		status, body, statusCode, contentType, s.now(), key)
	if err != nil {
		return fmt.Errorf("finish idempotency key: %w", err)
	}
	return nil
}

func normalizeReplayStatus(status int) int {
	if status == 0 {
		return 200
	}
	return status
}

func normalizeReplayContentType(ct string) string {
	if ct == "" {
		return "application/json"
	}
	return ct
}

// CleanupExpired removes expired idempotency records.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := s.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_idempotency WHERE expires_at < $1`, s.now())
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}

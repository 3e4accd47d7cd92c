package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	appctx "github.com/Colossus92/eazy-recycling-sub004/internal/core/context"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/audit"
)

// CompressionAlgo names how changes are stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the payload size above which changes are
// stored zstd-compressed.
const DefaultCompressThreshold = 10 * 1024

// AuditEntry is one row of sys_audit.
type AuditEntry struct {
	ID                id.ID           `db:"id" json:"id"`
	EntityType        string          `db:"entity_type" json:"entityType"`
	EntityID          string          `db:"entity_id" json:"entityId"`
	Action            audit.Action    `db:"action" json:"action"`
	UserID            string          `db:"user_id" json:"userId"`
	TraceID           string          `db:"trace_id" json:"traceId,omitempty"`
	Changes           json.RawMessage `db:"changes" json:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed" json:"-"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
}

// AuditService writes the audit trail of waste streams and weight tickets.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
	now               func() time.Time
}

var _ audit.Recorder = (*AuditService)(nil)

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: DefaultCompressThreshold,
		now:               time.Now,
	}, nil
}

// WithCompressThreshold overrides DefaultCompressThreshold.
func (s *AuditService) WithCompressThreshold(bytes int) *AuditService {
	s.compressThreshold = bytes
	return s
}

// LogChange implements audit.Recorder. It runs in the caller's transaction.
func (s *AuditService) LogChange(ctx context.Context, entityType, entityID string, action audit.Action, changes map[string]any) error {
	payload, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("marshal audit changes: %w", err)
	}
	return s.Log(ctx, AuditEntry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Changes:    payload,
	})
}

// Log records an audit entry, filling id, actor, trace and time.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.UserID == "" {
		entry.UserID = appctx.Actor(ctx)
	}
	if entry.TraceID == "" {
		entry.TraceID = appctx.GetTraceID(ctx)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	s.compress(&entry)

	const sql = `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, user_id, trace_id,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql,
		entry.ID, entry.EntityType, entry.EntityID, entry.Action, entry.UserID, entry.TraceID,
		entry.Changes, entry.ChangesCompressed, entry.CompressionAlgo, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// GetEntityHistory returns the newest entries of one entity first.
func (s *AuditService) GetEntityHistory(ctx context.Context, entityType, entityID string, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	const sql = `
		SELECT id, entity_type, entity_id, action, user_id, trace_id,
		       changes, changes_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	var entries []AuditEntry
	if err := pgxscan.Select(ctx, s.txManager.GetQuerier(ctx), &entries, sql, entityType, entityID, limit); err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	for i := range entries {
		if err := s.decompress(&entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// Purge deletes entries older than before and returns how many went.
func (s *AuditService) Purge(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.txManager.GetQuerier(ctx).Exec(ctx, `DELETE FROM sys_audit WHERE created_at < $1`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge audit entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *AuditService) compress(entry *AuditEntry) {
	entry.CompressionAlgo = CompressionNone
	if len(entry.Changes) <= s.compressThreshold {
		return
	}
	entry.ChangesCompressed = s.encoder.EncodeAll(entry.Changes, nil)
	entry.Changes = nil
	entry.CompressionAlgo = CompressionZstd
}

func (s *AuditService) decompress(entry *AuditEntry) error {
	if entry.CompressionAlgo != CompressionZstd || len(entry.ChangesCompressed) == 0 {
		return nil
	}
	raw, err := s.decoder.DecodeAll(entry.ChangesCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress audit entry %s: %w", entry.ID, err)
	}
	entry.Changes = raw
	entry.ChangesCompressed = nil
	return nil
}

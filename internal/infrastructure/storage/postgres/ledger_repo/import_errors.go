package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/streamimport"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
)

// ImportErrorRecord is one row of import_errors.
type ImportErrorRecord struct {
	ID                int64     `db:"id"`
	ImportID          id.ID     `db:"import_id"`
	WasteStreamNumber string    `db:"waste_stream_number"`
	RowNumber         int       `db:"row_number"`
	ErrorCode         string    `db:"error_code"`
	ErrorMessage      string    `db:"error_message"`
	CreatedAt         time.Time `db:"created_at"`
}

var importErrorInsertCols = []string{
	"import_id", "waste_stream_number", "row_number", "error_code", "error_message", "created_at",
}

// ImportErrorRepo implements streamimport.ErrorRepository.
type ImportErrorRepo struct {
	t     *table[ImportErrorRecord]
	batch *postgres.BatchInserter
}

var _ streamimport.ErrorRepository = (*ImportErrorRepo)(nil)

// NewImportErrorRepo creates a new import error repository.
func NewImportErrorRepo(txManager *postgres.TxManager) *ImportErrorRepo {
	t := newTable[ImportErrorRecord](txManager, "import_errors", "import error", "id")
	t.defaultOrder = "id DESC"
	return &ImportErrorRepo{t: t, batch: postgres.NewBatchInserter(txManager)}
}

// Save copies errs into import_errors. It must run inside a transaction.
func (r *ImportErrorRepo) Save(ctx context.Context, errs []streamimport.StoredError) error {
	rows := make([][]any, len(errs))
	for i, e := range errs {
		rows[i] = []any{e.ImportID, e.WasteStreamNumber, e.Row, e.Code, e.Message, e.CreatedAt.UTC()}
	}
	if _, err := r.batch.CopyFromSlice(ctx, r.t.name, importErrorInsertCols, rows); err != nil {
		return fmt.Errorf("save import errors: %w", err)
	}
	return nil
}

func (r *ImportErrorRepo) List(ctx context.Context, filter streamimport.ErrorFilter) (domain.ListResult[streamimport.StoredError], error) {
	result := domain.ListResult[streamimport.StoredError]{Limit: filter.Limit, Offset: filter.Offset}

	q := r.t.selectAll()
	if filter.ImportID != nil {
		q = q.Where(squirrel.Eq{"import_id": *filter.ImportID})
	}
	recs, total, err := r.t.page(ctx, q, "", filter.Limit, filter.Offset)
	if err != nil {
		return result, err
	}

	result.Items = make([]streamimport.StoredError, len(recs))
	for i, rec := range recs {
		result.Items[i] = streamimport.StoredError{
			ID:                rec.ID,
			ImportID:          rec.ImportID,
			WasteStreamNumber: rec.WasteStreamNumber,
			CreatedAt:         rec.CreatedAt.UTC(),
			RowError: streamimport.RowError{
				Row:     rec.RowNumber,
				Code:    rec.ErrorCode,
				Message: rec.ErrorMessage,
			},
		}
	}
	result.TotalCount = total
	return result, nil
}

func (r *ImportErrorRepo) Clear(ctx context.Context) (int64, error) {
	tag, err := r.t.querier(ctx).Exec(ctx, "DELETE FROM import_errors")
	if err != nil {
		return 0, fmt.Errorf("clear import errors: %w", err)
	}
	return tag.RowsAffected(), nil
}

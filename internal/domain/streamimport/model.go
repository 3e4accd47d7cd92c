// Package streamimport bulk-registers waste streams from the national
// registry export. Rows are isolated: one bad row never aborts the file.
package streamimport

import (
	"context"
	"time"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
)

// Row error codes. Errors raised by the waste stream aggregate keep
// their own codes.
const (
	CodeInvalidFlag       = "IMPORT_INVALID_FLAG"
	CodeConflictingFlags  = "IMPORT_CONFLICTING_COLLECTION_FLAGS"
	CodeProcessorMismatch = "IMPORT_PROCESSOR_MISMATCH"
)

// RowError is the reason one row was not imported.
type RowError struct {
	Row     int    `json:"row"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StoredError is a persisted RowError.
type StoredError struct {
	ID                int64     `json:"id"`
	ImportID          id.ID     `json:"importId"`
	WasteStreamNumber string    `json:"wasteStreamNumber,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	RowError
}

// Result summarises one import. Repeated stream numbers are dropped
// before counting, so TotalRows counts distinct streams.
type Result struct {
	ImportID          id.ID      `json:"importId"`
	TotalRows         int        `json:"totalRows"`
	SuccessfulImports int        `json:"successfulImports"`
	SkippedRows       int        `json:"skippedRows"`
	ErrorCount        int        `json:"errorCount"`
	Errors            []RowError `json:"errors"`
}

// ErrorFilter narrows ListErrors.
type ErrorFilter struct {
	ImportID *id.ID
	Limit    int
	Offset   int
}

// ErrorRepository persists row errors for operator review.
type ErrorRepository interface {
	Save(ctx context.Context, errs []StoredError) error
	List(ctx context.Context, filter ErrorFilter) (domain.ListResult[StoredError], error)
	// Clear removes every stored error and returns how many were removed.
	Clear(ctx context.Context) (int64, error)
}

// Archive keeps a copy of every uploaded file.
type Archive interface {
	Store(ctx context.Context, key string, data []byte, contentType string) error
}

// Observer receives row outcome counts per import.
type Observer interface {
	ObserveImport(successful, skipped, failed int)
}

type nopObserver struct{}

func (nopObserver) ObserveImport(int, int, int) {}

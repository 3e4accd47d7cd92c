package invoice

import (
	"context"
)

// Repository persists invoices with their lines.
// Missing invoices are reported as NOT_FOUND AppErrors.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	Update(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, invoiceID int64) (*Invoice, error)
	GetForUpdate(ctx context.Context, invoiceID int64) (*Invoice, error)
}

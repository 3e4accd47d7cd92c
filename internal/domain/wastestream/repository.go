package wastestream

import (
	"context"
	"time"

	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
)

// Repository persists waste streams.
// Missing streams are reported as NOT_FOUND AppErrors.
type Repository interface {
	Create(ctx context.Context, ws *WasteStream) error

	// Update writes ws if its version still matches (optimistic lock)
	// and bumps the version.
	Update(ctx context.Context, ws *WasteStream) error

	GetByNumber(ctx context.Context, number Number) (*WasteStream, error)

	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, number Number) (*WasteStream, error)

	Exists(ctx context.Context, number Number) (bool, error)

	// FindByNumbers returns the streams that exist among numbers.
	FindByNumbers(ctx context.Context, numbers []Number) ([]*WasteStream, error)

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*WasteStream], error)

	// RecordActivity moves last_activity_at forward for numbers.
	RecordActivity(ctx context.Context, numbers []Number, at time.Time) error
}

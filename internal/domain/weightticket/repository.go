package weightticket

import (
	"context"

	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
)

// Repository persists weight tickets with their lines.
// Missing tickets are reported as NOT_FOUND AppErrors.
type Repository interface {
	Create(ctx context.Context, t *WeightTicket) error

	// Update writes t and its lines if the version still matches.
	Update(ctx context.Context, t *WeightTicket) error

	GetByID(ctx context.Context, ticketID int64) (*WeightTicket, error)

	// GetForUpdate locks the ticket until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, ticketID int64) (*WeightTicket, error)

	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*WeightTicket], error)
}

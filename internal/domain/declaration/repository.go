package declaration

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/weightticket"
)

// Filter narrows declaration listings.
type Filter struct {
	Period            *YearMonth
	Status            Status
	WasteStreamNumber wastestream.Number
	Limit             int
	Offset            int
}

// Repository persists declarations.
// GetByID and GetForUpdate report unknown ids with CodeNotFound.
type Repository interface {
	Create(ctx context.Context, d *Declaration) error
	Update(ctx context.Context, d *Declaration) error
	GetByID(ctx context.Context, declarationID id.ID) (*Declaration, error)
	GetForUpdate(ctx context.Context, declarationID id.ID) (*Declaration, error)
	// ForPeriod returns every declaration recorded for period.
	ForPeriod(ctx context.Context, period YearMonth) ([]*Declaration, error)
	// ForStream returns the declarations of one stream in period.
	ForStream(ctx context.Context, number wastestream.Number, period YearMonth) ([]*Declaration, error)
	// DeclaredBefore returns the numbers among numbers that were
	// submitted for any period earlier than period.
	DeclaredBefore(ctx context.Context, numbers []wastestream.Number, period YearMonth) ([]wastestream.Number, error)
	List(ctx context.Context, filter Filter) (domain.ListResult[*Declaration], error)
}

// LedgerLine is one weight ticket line joined with its ticket and stream.
type LedgerLine struct {
	TicketID          int64
	TicketStatus      weightticket.Status
	WeightedAt        time.Time
	WasteStreamNumber wastestream.Number
	ProcessorID       string
	Kilograms         decimal.Decimal
	// CarrierVIHB is empty when the ticket has no carrier or the carrier
	// has no VIHB registration.
	CarrierVIHB string
}

// Ledger reads ticket lines weighed in [from, to).
type Ledger interface {
	LinesBetween(ctx context.Context, from, to time.Time) ([]LedgerLine, error)
}

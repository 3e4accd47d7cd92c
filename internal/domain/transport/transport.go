// Package transport records the transports planned from weight tickets.
// Scheduling itself is handled by the planning application.
package transport

import (
	"context"
	"time"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/entity"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/types"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/location"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/party"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
)

// Goods is one waste stream carried by the transport.
type Goods struct {
	WasteStreamNumber wastestream.Number `json:"wasteStreamNumber"`
	Weight            types.Weight       `json:"weight"`
}

// Transport is a single movement between a pickup and a delivery location.
type Transport struct {
	ID                id.ID
	WeightTicketID    int64
	Consignor         party.Party
	CarrierID         *id.ID
	PickupLocation    location.Location
	DeliveryLocation  location.Location
	PickupDateTime    time.Time
	DeliveryDateTime  *time.Time
	TruckLicensePlate string
	Goods             []Goods
	entity.Stamps
}

// Validate checks the planned times.
func (t *Transport) Validate(context.Context) error {
	if t.PickupDateTime.IsZero() {
		return apperror.NewValidation("pickup date and time are required").WithDetail("field", "pickupDateTime")
	}
	if t.DeliveryDateTime != nil && t.DeliveryDateTime.Before(t.PickupDateTime) {
		return apperror.NewValidation("delivery cannot be before pickup").WithDetail("field", "deliveryDateTime")
	}
	return nil
}

// Repository persists transports.
type Repository interface {
	Create(ctx context.Context, t *Transport) error
	GetByID(ctx context.Context, transportID id.ID) (*Transport, error)
}

var _ entity.Validatable = (*Transport)(nil)

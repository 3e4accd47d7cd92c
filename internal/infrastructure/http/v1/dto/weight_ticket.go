package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/types"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/location"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/party"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/transport"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/weightticket"
)

// --- Request DTOs ---

// WeightTicketRequest is the request body for creating or updating a weight ticket.
type WeightTicketRequest struct {
	Consignor         party.Fields           `json:"consignor"`
	Lines             []weightticket.Line    `json:"lines"`
	Tarra             *types.Weight          `json:"tarra"`
	Direction         weightticket.Direction `json:"direction" binding:"required"`
	PickupLocation    location.Fields        `json:"pickupLocation"`
	DeliveryLocation  location.Fields        `json:"deliveryLocation"`
	CarrierID         *id.ID                 `json:"carrierId"`
	TruckLicensePlate string                 `json:"truckLicensePlate"`
	WeightedAt        *time.Time             `json:"weightedAt"`
	Note              string                 `json:"note"`
}

// ToDetails converts the DTO into domain details. A missing weighing
// time is filled in by the domain.
func (r *WeightTicketRequest) ToDetails() (weightticket.Details, error) {
	consignor, err := r.Consignor.Party()
	if err != nil {
		return weightticket.Details{}, err
	}
	pickup, err := r.PickupLocation.Location()
	if err != nil {
		return weightticket.Details{}, err
	}
	delivery, err := r.DeliveryLocation.Location()
	if err != nil {
		return weightticket.Details{}, err
	}
	d := weightticket.Details{
		Consignor:         consignor,
		Lines:             r.Lines,
		Tarra:             r.Tarra,
		Direction:         r.Direction,
		PickupLocation:    pickup,
		DeliveryLocation:  delivery,
		CarrierID:         r.CarrierID,
		TruckLicensePlate: r.TruckLicensePlate,
		Note:              r.Note,
	}
	if r.WeightedAt != nil {
		d.WeightedAt = *r.WeightedAt
	}
	return d, nil
}

// CancelRequest is the request body for cancelling a weight ticket.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// SplitRequest is the request body for splitting a weight ticket.
type SplitRequest struct {
	OriginalPercentage int `json:"originalPercentage"`
	NewPercentage      int `json:"newPercentage"`
}

// TransportRequest is the request body for creating a transport from a ticket.
type TransportRequest struct {
	PickupDateTime   time.Time  `json:"pickupDateTime" binding:"required"`
	DeliveryDateTime *time.Time `json:"deliveryDateTime"`
}

// --- Response DTOs ---

// WeightTicketResponse is the response body for a weight ticket.
type WeightTicketResponse struct {
	ID                 int64                  `json:"id"`
	Status             weightticket.Status    `json:"status"`
	Consignor          party.Fields           `json:"consignor"`
	Lines              []weightticket.Line    `json:"lines"`
	Tarra              *types.Weight          `json:"tarra,omitempty"`
	TotalKilograms     decimal.Decimal        `json:"totalKilograms"`
	Direction          weightticket.Direction `json:"direction"`
	PickupLocation     location.Fields        `json:"pickupLocation"`
	DeliveryLocation   location.Fields        `json:"deliveryLocation"`
	CarrierID          *id.ID                 `json:"carrierId,omitempty"`
	TruckLicensePlate  string                 `json:"truckLicensePlate,omitempty"`
	WeightedAt         time.Time              `json:"weightedAt"`
	Note               string                 `json:"note,omitempty"`
	CancellationReason string                 `json:"cancellationReason,omitempty"`
	InvoiceID          *int64                 `json:"invoiceId,omitempty"`
	TransportID        *id.ID                 `json:"transportId,omitempty"`
	StampsResponse
}

// FromWeightTicket creates response DTO from domain entity.
func FromWeightTicket(t *weightticket.WeightTicket) WeightTicketResponse {
	lines := t.Lines
	if lines == nil {
		lines = []weightticket.Line{}
	}
	return WeightTicketResponse{
		ID:                 t.ID,
		Status:             t.Status,
		Consignor:          party.Flatten(t.Consignor),
		Lines:              lines,
		Tarra:              t.Tarra,
		TotalKilograms:     t.TotalKilograms(),
		Direction:          t.Direction,
		PickupLocation:     location.Flatten(t.PickupLocation),
		DeliveryLocation:   location.Flatten(t.DeliveryLocation),
		CarrierID:          t.CarrierID,
		TruckLicensePlate:  t.TruckLicensePlate,
		WeightedAt:         t.WeightedAt,
		Note:               t.Note,
		CancellationReason: t.CancellationReason,
		InvoiceID:          t.InvoiceID,
		TransportID:        t.TransportID,
		StampsResponse:     FromStamps(t.Stamps),
	}
}

// SplitResponse holds both tickets after a split.
type SplitResponse struct {
	Original WeightTicketResponse `json:"original"`
	New      WeightTicketResponse `json:"new"`
}

// TransportResponse is the response body for a transport.
type TransportResponse struct {
	ID                id.ID             `json:"id"`
	WeightTicketID    int64             `json:"weightTicketId"`
	Consignor         party.Fields      `json:"consignor"`
	CarrierID         *id.ID            `json:"carrierId,omitempty"`
	PickupLocation    location.Fields   `json:"pickupLocation"`
	DeliveryLocation  location.Fields   `json:"deliveryLocation"`
	PickupDateTime    time.Time         `json:"pickupDateTime"`
	DeliveryDateTime  *time.Time        `json:"deliveryDateTime,omitempty"`
	TruckLicensePlate string            `json:"truckLicensePlate,omitempty"`
	Goods             []transport.Goods `json:"goods"`
	StampsResponse
}

// FromTransport creates response DTO from domain entity.
func FromTransport(t *transport.Transport) TransportResponse {
	return TransportResponse{
		ID:                t.ID,
		WeightTicketID:    t.WeightTicketID,
		Consignor:         party.Flatten(t.Consignor),
		CarrierID:         t.CarrierID,
		PickupLocation:    location.Flatten(t.PickupLocation),
		DeliveryLocation:  location.Flatten(t.DeliveryLocation),
		PickupDateTime:    t.PickupDateTime,
		DeliveryDateTime:  t.DeliveryDateTime,
		TruckLicensePlate: t.TruckLicensePlate,
		Goods:             t.Goods,
		StampsResponse:    FromStamps(t.Stamps),
	}
}

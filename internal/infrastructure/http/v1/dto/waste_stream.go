package dto

import (
	"time"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/location"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/party"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
)

// --- Request DTOs ---

// WasteStreamRequest is the request body for creating or updating a waste stream.
type WasteStreamRequest struct {
	WasteType               wastestream.WasteType               `json:"wasteType"`
	CollectionType          wastestream.CollectionType          `json:"collectionType" binding:"required"`
	PickupLocation          location.Fields                     `json:"pickupLocation"`
	Delivery                wastestream.Delivery                `json:"delivery"`
	Consignor               party.Fields                        `json:"consignor"`
	ConsignorClassification wastestream.ConsignorClassification `json:"consignorClassification"`
	PickupParty             *party.Fields                       `json:"pickupParty"`
	DealerID                *id.ID                              `json:"dealerId"`
	CollectorID             *id.ID                              `json:"collectorId"`
	BrokerID                *id.ID                              `json:"brokerId"`
	CatalogItemID           *id.ID                              `json:"catalogItemId"`
}

// ToDetails converts the DTO into domain details.
func (r *WasteStreamRequest) ToDetails() (wastestream.Details, error) {
	pickup, err := r.PickupLocation.Location()
	if err != nil {
		return wastestream.Details{}, err
	}
	consignor, err := r.Consignor.Party()
	if err != nil {
		return wastestream.Details{}, err
	}
	var pickupParty party.Party
	if r.PickupParty != nil {
		if pickupParty, err = r.PickupParty.Party(); err != nil {
			return wastestream.Details{}, err
		}
	}
	return wastestream.Details{
		WasteType:               r.WasteType,
		CollectionType:          r.CollectionType,
		PickupLocation:          pickup,
		Delivery:                r.Delivery,
		Consignor:               consignor,
		ConsignorClassification: r.ConsignorClassification,
		PickupParty:             pickupParty,
		DealerID:                r.DealerID,
		CollectorID:             r.CollectorID,
		BrokerID:                r.BrokerID,
		CatalogItemID:           r.CatalogItemID,
	}, nil
}

// --- Response DTOs ---

// WasteStreamResponse is the response body for a waste stream.
type WasteStreamResponse struct {
	Number                  string                              `json:"number"`
	Status                  wastestream.Status                  `json:"status"`
	EffectiveStatus         wastestream.Status                  `json:"effectiveStatus"`
	LastActivityAt          time.Time                           `json:"lastActivityAt"`
	WasteType               wastestream.WasteType               `json:"wasteType"`
	CollectionType          wastestream.CollectionType          `json:"collectionType"`
	PickupLocation          location.Fields                     `json:"pickupLocation"`
	Delivery                wastestream.Delivery                `json:"delivery"`
	Consignor               party.Fields                        `json:"consignor"`
	ConsignorClassification wastestream.ConsignorClassification `json:"consignorClassification"`
	PickupParty             *party.Fields                       `json:"pickupParty,omitempty"`
	DealerID                *id.ID                              `json:"dealerId,omitempty"`
	CollectorID             *id.ID                              `json:"collectorId,omitempty"`
	BrokerID                *id.ID                              `json:"brokerId,omitempty"`
	CatalogItemID           *id.ID                              `json:"catalogItemId,omitempty"`
	StampsResponse
}

// FromWasteStream creates response DTO from domain entity. effective is
// the status as of now, which may be EXPIRED.
func FromWasteStream(ws *wastestream.WasteStream, effective wastestream.Status) WasteStreamResponse {
	resp := WasteStreamResponse{
		Number:                  ws.Number.String(),
		Status:                  ws.Status,
		EffectiveStatus:         effective,
		LastActivityAt:          ws.LastActivityAt,
		WasteType:               ws.WasteType,
		CollectionType:          ws.CollectionType,
		PickupLocation:          location.Flatten(ws.PickupLocation),
		Delivery:                ws.Delivery,
		Consignor:               party.Flatten(ws.Consignor),
		ConsignorClassification: ws.ConsignorClassification,
		DealerID:                ws.DealerID,
		CollectorID:             ws.CollectorID,
		BrokerID:                ws.BrokerID,
		CatalogItemID:           ws.CatalogItemID,
		StampsResponse:          FromStamps(ws.Stamps),
	}
	if ws.PickupParty != nil {
		pp := party.Flatten(ws.PickupParty)
		resp.PickupParty = &pp
	}
	return resp
}

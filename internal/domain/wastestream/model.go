// Package wastestream implements the waste stream aggregate: its
// numbering, invariants and status-gated lifecycle.
package wastestream

import (
	"context"
	"strings"
	"time"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/entity"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/location"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/party"
)

// Rule codes.
const (
	CodeInvalidNumber            = "INVALID_WASTE_STREAM_NUMBER"
	CodeInvalidProcessorID       = "INVALID_PROCESSOR_ID"
	CodeExhaustedSequence        = "EXHAUSTED_SEQUENCE"
	CodeNumberProcessorMismatch  = "NUMBER_PROCESSOR_MISMATCH"
	CodeDealerBrokerExclusive    = "DEALER_AND_BROKER_EXCLUSIVE"
	CodeCollectorRequired        = "COLLECTOR_REQUIRED_FOR_NON_DEFAULT_COLLECTION"
	CodePersonRequiresDefault    = "PERSON_CONSIGNOR_REQUIRES_DEFAULT_COLLECTION"
	CodePickupLocationRequired   = "PICKUP_LOCATION_REQUIRED"
	CodePickupLocationNotAllowed = "PICKUP_LOCATION_NOT_ALLOWED"
	CodeNotAProcessor            = "DELIVERY_COMPANY_NOT_A_PROCESSOR"
	CodeInvalidTransition        = "INVALID_STATUS_TRANSITION"
	CodeAlreadyInactive          = "WASTE_STREAM_ALREADY_INACTIVE"
)

// ExpiryYears is how long a stream stays current without activity.
const ExpiryYears = 5

// Status is the stored lifecycle status.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"

	// StatusExpired is never stored; see EffectiveStatus.
	StatusExpired Status = "EXPIRED"
)

// CollectionType describes how waste reaches the processor.
type CollectionType string

const (
	CollectionDefault          CollectionType = "DEFAULT"
	CollectionRoute            CollectionType = "ROUTE"
	CollectionCollectorsScheme CollectionType = "COLLECTORS_SCHEME"
)

// ConsignorClassification is the role the consignor plays on the stream.
type ConsignorClassification string

const (
	ClassificationPickupParty   ConsignorClassification = "PICKUP_PARTY"
	ClassificationDeliveryParty ConsignorClassification = "DELIVERY_PARTY"
	ClassificationDealer        ConsignorClassification = "DEALER"
	ClassificationBroker        ConsignorClassification = "BROKER"
)

// WasteType classifies the material.
type WasteType struct {
	Name                        string `json:"name"`
	EuralCode                   string `json:"euralCode"`
	EuralDescription            string `json:"euralDescription,omitempty"`
	ProcessingMethodCode        string `json:"processingMethodCode"`
	ProcessingMethodDescription string `json:"processingMethodDescription,omitempty"`
}

// Delivery is the processor the stream is delivered to.
// ProcessorID drives the number prefix.
type Delivery struct {
	ProcessorCompanyID id.ID  `json:"processorCompanyId"`
	ProcessorID        string `json:"processorId"`
}

// Details are the mutable attributes of a stream.
type Details struct {
	WasteType               WasteType
	CollectionType          CollectionType
	PickupLocation          location.Location
	Delivery                Delivery
	Consignor               party.Party
	ConsignorClassification ConsignorClassification
	PickupParty             party.Party
	DealerID                *id.ID
	CollectorID             *id.ID
	BrokerID                *id.ID
	CatalogItemID           *id.ID
}

// WasteStream is the aggregate root.
type WasteStream struct {
	Number Number
	Details
	Status         Status
	LastActivityAt time.Time
	entity.Stamps
}

// New creates a DRAFT stream after checking every invariant.
func New(ctx context.Context, number Number, d Details, now time.Time, actor string) (*WasteStream, error) {
	ws := &WasteStream{
		Number:         number,
		Details:        normalize(d),
		Status:         StatusDraft,
		LastActivityAt: now.UTC(),
		Stamps:         entity.NewStamps(now, actor),
	}
	if err := ws.Validate(ctx); err != nil {
		return nil, err
	}
	return ws, nil
}

// Update replaces the details of a DRAFT stream.
// On failure the aggregate is left unchanged.
func (ws *WasteStream) Update(ctx context.Context, d Details, now time.Time, actor string) error {
	if ws.Status != StatusDraft {
		return apperror.NewNotDraft("waste stream", ws.Number, string(ws.Status))
	}
	candidate := *ws
	candidate.Details = normalize(d)
	if err := candidate.Validate(ctx); err != nil {
		return err
	}
	ws.Details = candidate.Details
	ws.touch(now, actor)
	return nil
}

// Activate moves a DRAFT stream to ACTIVE.
func (ws *WasteStream) Activate(ctx context.Context, now time.Time, actor string) error {
	if ws.Status != StatusDraft {
		return apperror.NewConflictWithCode(CodeInvalidTransition, "only draft waste streams can be activated").
			WithDetail("number", ws.Number).
			WithDetail("status", ws.Status)
	}
	if err := ws.Validate(ctx); err != nil {
		return err
	}
	ws.Status = StatusActive
	ws.touch(now, actor)
	return nil
}

// Delete moves a DRAFT or ACTIVE stream to the terminal INACTIVE status.
func (ws *WasteStream) Delete(now time.Time, actor string) error {
	if ws.Status == StatusInactive {
		return apperror.NewConflictWithCode(CodeAlreadyInactive, "waste stream is already inactive").
			WithDetail("number", ws.Number)
	}
	ws.Status = StatusInactive
	ws.touch(now, actor)
	return nil
}

// RecordActivity moves LastActivityAt forward to at.
func (ws *WasteStream) RecordActivity(at time.Time) {
	if at.After(ws.LastActivityAt) {
		ws.LastActivityAt = at.UTC()
	}
}

// EffectiveStatus is the status shown to users at now.
// INACTIVE is terminal; other streams expire ExpiryYears after their last activity.
func (ws *WasteStream) EffectiveStatus(now time.Time) Status {
	if ws.Status == StatusInactive {
		return StatusInactive
	}
	if now.After(ws.LastActivityAt.AddDate(ExpiryYears, 0, 0)) {
		return StatusExpired
	}
	return ws.Status
}

func (ws *WasteStream) touch(now time.Time, actor string) {
	ws.Stamps.Touch(now, actor)
	ws.RecordActivity(now)
}

// Validate implements entity.Validatable.
func (ws *WasteStream) Validate(ctx context.Context) error {
	if _, err := ParseNumber(string(ws.Number)); err != nil {
		return err
	}
	if err := validateProcessorID(ws.Delivery.ProcessorID); err != nil {
		return err
	}
	if ws.Number.ProcessorID() != ws.Delivery.ProcessorID {
		return apperror.NewBusinessRule(CodeNumberProcessorMismatch,
			"waste stream number must start with the processor id of the delivery location").
			WithDetail("number", ws.Number).
			WithDetail("processorId", ws.Delivery.ProcessorID)
	}
	if id.IsNil(ws.Delivery.ProcessorCompanyID) {
		return apperror.NewValidation("delivery processor is required").WithDetail("field", "delivery.processorCompanyId")
	}
	if err := ws.WasteType.validate(); err != nil {
		return err
	}
	switch ws.CollectionType {
	case CollectionDefault, CollectionRoute, CollectionCollectorsScheme:
	default:
		return apperror.NewValidation("unknown collection type").WithDetail("field", "collectionType")
	}
	switch ws.ConsignorClassification {
	case ClassificationPickupParty, ClassificationDeliveryParty, ClassificationDealer, ClassificationBroker:
	default:
		return apperror.NewValidation("unknown consignor classification").WithDetail("field", "consignorClassification")
	}
	if err := party.Validate("consignor", ws.Consignor); err != nil {
		return err
	}
	if err := party.Validate("pickupParty", ws.PickupParty); err != nil {
		return err
	}

	if ws.DealerID != nil && ws.BrokerID != nil {
		return apperror.NewBusinessRule(CodeDealerBrokerExclusive, "a waste stream cannot have both a dealer and a broker")
	}

	consignorIsCompany := party.IsCompany(ws.Consignor)
	if !consignorIsCompany && ws.CollectionType != CollectionDefault {
		return apperror.NewBusinessRule(CodePersonRequiresDefault,
			"a private consignor only allows default collection").
			WithDetail("collectionType", ws.CollectionType)
	}
	if ws.CollectionType != CollectionDefault && ws.CollectorID == nil {
		return apperror.NewBusinessRule(CodeCollectorRequired,
			"a collector is required for route and collectors scheme collection").
			WithDetail("collectionType", ws.CollectionType)
	}

	needsPickup := ws.CollectionType == CollectionDefault && consignorIsCompany
	hasPickup := location.IsPresent(ws.PickupLocation)
	switch {
	case needsPickup && !hasPickup:
		return apperror.NewBusinessRule(CodePickupLocationRequired,
			"a pickup location is required for default collection from a company")
	case !needsPickup && hasPickup:
		return apperror.NewBusinessRule(CodePickupLocationNotAllowed,
			"a pickup location is only allowed for default collection from a company").
			WithDetail("collectionType", ws.CollectionType)
	}
	return location.Validate(ws.PickupLocation)
}

func (w WasteType) validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return apperror.NewValidation("waste name is required").WithDetail("field", "wasteType.name")
	}
	if strings.TrimSpace(w.EuralCode) == "" {
		return apperror.NewValidation("eural code is required").WithDetail("field", "wasteType.euralCode")
	}
	if strings.TrimSpace(w.ProcessingMethodCode) == "" {
		return apperror.NewValidation("processing method is required").WithDetail("field", "wasteType.processingMethodCode")
	}
	return nil
}

func normalize(d Details) Details {
	d.PickupLocation = location.OrNone(d.PickupLocation)
	if d.CollectionType == "" {
		d.CollectionType = CollectionDefault
	}
	if d.ConsignorClassification == "" {
		d.ConsignorClassification = ClassificationPickupParty
	}
	if d.PickupParty == nil {
		d.PickupParty = d.Consignor
	}
	return d
}

var _ entity.Validatable = (*WasteStream)(nil)

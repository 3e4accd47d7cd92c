// Package weightticket implements the weight ticket ledger: one
// weighing of a physical waste movement and its accounting lifecycle.
package weightticket

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/entity"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/types"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/location"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/party"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
)

// Rule codes.
const (
	CodeNoLines                    = "WEIGHT_TICKET_HAS_NO_LINES"
	CodeInvalidTransition          = "INVALID_STATUS_TRANSITION"
	CodeAlreadyCancelled           = "WEIGHT_TICKET_ALREADY_CANCELLED"
	CodeCancellationReasonRequired = "CANCELLATION_REASON_REQUIRED"
	CodeNotCompleted               = "WEIGHT_TICKET_NOT_COMPLETED"
	CodeInvalidSplitPercentage     = "INVALID_SPLIT_PERCENTAGE"
	CodeSplitMustSumTo100          = "SPLIT_PERCENTAGES_MUST_SUM_TO_100"
	CodeTransportAlreadyLinked     = "TRANSPORT_ALREADY_LINKED"
	CodeNegativeWeight             = "NEGATIVE_WEIGHT"
	CodeWeightPrecision            = "WEIGHT_PRECISION_EXCEEDED"
)

// Status is the lifecycle status of a ticket.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusCompleted Status = "COMPLETED"
	StatusInvoiced  Status = "INVOICED"
	StatusCancelled Status = "CANCELLED"
)

// Direction tells whether material entered or left the site.
type Direction string

const (
	DirectionInbound  Direction = "INBOUND"
	DirectionOutbound Direction = "OUTBOUND"
)

// Line is the weighed quantity of one waste stream.
type Line struct {
	WasteStreamNumber wastestream.Number `json:"wasteStreamNumber"`
	Weight            types.Weight       `json:"weight"`
	CatalogItemID     *id.ID             `json:"catalogItemId,omitempty"`
}

// NewLineFor returns a zero-weight line for a stream.
func NewLineFor(number wastestream.Number) Line {
	return Line{
		WasteStreamNumber: number,
		Weight:            types.Weight{Value: decimal.Zero, Unit: types.UnitKilogram},
	}
}

// Details are the attributes editable while the ticket is DRAFT.
type Details struct {
	Consignor         party.Party
	Lines             []Line
	Tarra             *types.Weight
	Direction         Direction
	PickupLocation    location.Location
	DeliveryLocation  location.Location
	CarrierID         *id.ID
	TruckLicensePlate string
	WeightedAt        time.Time
	Note              string
}

// WeightTicket is the aggregate root.
type WeightTicket struct {
	ID int64
	Details
	Status             Status
	CancellationReason string
	InvoiceID          *int64
	TransportID        *id.ID
	entity.Stamps
}

// New creates a DRAFT ticket.
func New(ctx context.Context, ticketID int64, d Details, now time.Time, actor string) (*WeightTicket, error) {
	t := &WeightTicket{
		ID:      ticketID,
		Details: normalize(d, now),
		Status:  StatusDraft,
		Stamps:  entity.NewStamps(now, actor),
	}
	if err := t.Validate(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// Update replaces the details of a DRAFT ticket.
func (t *WeightTicket) Update(ctx context.Context, d Details, now time.Time, actor string) error {
	if err := t.requireDraft(); err != nil {
		return err
	}
	candidate := *t
	candidate.Details = normalize(d, t.WeightedAt)
	if err := candidate.Validate(ctx); err != nil {
		return err
	}
	t.Details = candidate.Details
	t.Touch(now, actor)
	return nil
}

// Complete closes the weighing. A ticket needs at least one line.
func (t *WeightTicket) Complete(now time.Time, actor string) error {
	if t.Status != StatusDraft {
		return t.invalidTransition(StatusCompleted)
	}
	if len(t.Lines) == 0 {
		return apperror.NewBusinessRule(CodeNoLines, "a weight ticket needs at least one line to be completed").
			WithDetail("id", t.ID)
	}
	t.Status = StatusCompleted
	t.Touch(now, actor)
	return nil
}

// Cancel moves any non-cancelled ticket to CANCELLED with a reason.
func (t *WeightTicket) Cancel(reason string, now time.Time, actor string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperror.NewBusinessRule(CodeCancellationReasonRequired, "a cancellation reason is required").
			WithDetail("field", "reason")
	}
	if t.Status == StatusCancelled {
		return apperror.NewConflictWithCode(CodeAlreadyCancelled, "weight ticket is already cancelled").
			WithDetail("id", t.ID)
	}
	t.Status = StatusCancelled
	t.CancellationReason = reason
	t.Touch(now, actor)
	return nil
}

// ValidateSplit checks split percentages.
// Each share lies in [1,100] and the shares add up to 100.
func ValidateSplit(originalPercentage, newPercentage int) error {
	shares := []struct {
		field string
		value int
	}{{"originalPercentage", originalPercentage}, {"newPercentage", newPercentage}}
	for _, share := range shares {
		if share.value < 1 || share.value > 100 {
			return apperror.NewBusinessRule(CodeInvalidSplitPercentage, "split percentage must be between 1 and 100").
				WithDetail("field", share.field).
				WithDetail("value", share.value)
		}
	}
	if originalPercentage+newPercentage != 100 {
		return apperror.NewBusinessRule(CodeSplitMustSumTo100, "split percentages must add up to 100").
			WithDetail("originalPercentage", originalPercentage).
			WithDetail("newPercentage", newPercentage)
	}
	return nil
}

// Split keeps originalPercentage of every line weight on t and moves
// newPercentage into a new DRAFT ticket with id newID. Weights are
// rounded half-up to 2 decimals, so the two halves may differ from the
// original by at most 0.01 per line.
func (t *WeightTicket) Split(newID int64, originalPercentage, newPercentage int, now time.Time, actor string) (*WeightTicket, error) {
	if err := t.requireDraft(); err != nil {
		return nil, err
	}
	if err := ValidateSplit(originalPercentage, newPercentage); err != nil {
		return nil, err
	}

	kept := make([]Line, len(t.Lines))
	moved := make([]Line, len(t.Lines))
	for i, l := range t.Lines {
		kept[i] = l
		kept[i].Weight = l.Weight.Scale(originalPercentage)
		moved[i] = l
		moved[i].Weight = l.Weight.Scale(newPercentage)
	}

	child := t.Clone(newID, now, actor)
	child.Lines = moved
	t.Lines = kept
	t.Touch(now, actor)
	return child, nil
}

// Clone returns a DRAFT ticket with the same details and an independent lifecycle.
func (t *WeightTicket) Clone(newID int64, now time.Time, actor string) *WeightTicket {
	d := t.Details
	d.Lines = append([]Line(nil), t.Lines...)
	if t.Tarra != nil {
		tarra := *t.Tarra
		d.Tarra = &tarra
	}
	return &WeightTicket{
		ID:      newID,
		Details: d,
		Status:  StatusDraft,
		Stamps:  entity.NewStamps(now, actor),
	}
}

// CanInvoice reports whether an invoice may be generated.
func (t *WeightTicket) CanInvoice() error {
	if t.Status != StatusCompleted {
		return apperror.NewConflictWithCode(CodeNotCompleted, "only completed weight tickets can be invoiced").
			WithDetail("id", t.ID).
			WithDetail("status", t.Status)
	}
	return nil
}

// MarkInvoiced links the generated invoice and moves the ticket to INVOICED.
func (t *WeightTicket) MarkInvoiced(invoiceID int64, now time.Time, actor string) error {
	if err := t.CanInvoice(); err != nil {
		return err
	}
	t.InvoiceID = &invoiceID
	t.Status = StatusInvoiced
	t.Touch(now, actor)
	return nil
}

// CanLinkTransport reports whether a transport may be created for the ticket.
func (t *WeightTicket) CanLinkTransport() error {
	if t.Status == StatusCancelled {
		return t.invalidTransition("TRANSPORT")
	}
	if t.TransportID != nil {
		return apperror.NewConflictWithCode(CodeTransportAlreadyLinked, "weight ticket already has a transport").
			WithDetail("id", t.ID).
			WithDetail("transportId", *t.TransportID)
	}
	return nil
}

// LinkTransport records the transport. The status is left unchanged.
func (t *WeightTicket) LinkTransport(transportID id.ID, now time.Time, actor string) error {
	if err := t.CanLinkTransport(); err != nil {
		return err
	}
	t.TransportID = &transportID
	t.Touch(now, actor)
	return nil
}

// StreamNumbers returns the distinct streams on the ticket, in line order.
func (t *WeightTicket) StreamNumbers() []wastestream.Number {
	seen := make(map[wastestream.Number]struct{}, len(t.Lines))
	var out []wastestream.Number
	for _, l := range t.Lines {
		if _, ok := seen[l.WasteStreamNumber]; ok {
			continue
		}
		seen[l.WasteStreamNumber] = struct{}{}
		out = append(out, l.WasteStreamNumber)
	}
	return out
}

// TotalKilograms sums all line weights in KG.
func (t *WeightTicket) TotalKilograms() decimal.Decimal {
	total := decimal.Zero
	for _, l := range t.Lines {
		total = total.Add(l.Weight.InKilograms())
	}
	return total
}

// Validate implements entity.Validatable.
func (t *WeightTicket) Validate(ctx context.Context) error {
	if err := party.Validate("consignor", t.Consignor); err != nil {
		return err
	}
	switch t.Direction {
	case DirectionInbound, DirectionOutbound:
	default:
		return apperror.NewValidation("direction must be INBOUND or OUTBOUND").WithDetail("field", "direction")
	}
	for i, l := range t.Lines {
		if _, err := wastestream.ParseNumber(string(l.WasteStreamNumber)); err != nil {
			return apperror.NewValidation("invalid waste stream number").
				WithDetail("field", "lines").
				WithDetail("line", i+1).
				WithCause(err)
		}
		if l.Weight.IsNegative() {
			return apperror.NewBusinessRule(CodeNegativeWeight, "line weight cannot be negative").
				WithDetail("line", i+1)
		}
		if !l.Weight.FitsScale() {
			return weightPrecision("line", l.Weight).WithDetail("line", i+1)
		}
		switch l.Weight.Unit {
		case types.UnitKilogram, types.UnitTon:
		default:
			return apperror.NewValidation("unknown weight unit").WithDetail("line", i+1)
		}
	}
	if t.Tarra != nil && t.Tarra.IsNegative() {
		return apperror.NewBusinessRule(CodeNegativeWeight, "tarra weight cannot be negative").
			WithDetail("field", "tarra")
	}
	if t.Tarra != nil && !t.Tarra.FitsScale() {
		return weightPrecision("tarra", *t.Tarra).WithDetail("field", "tarra")
	}
	if err := location.Validate(t.PickupLocation); err != nil {
		return err
	}
	return location.Validate(t.DeliveryLocation)
}

func weightPrecision(what string, w types.Weight) *apperror.AppError {
	return apperror.NewBusinessRule(CodeWeightPrecision,
		fmt.Sprintf("%s weight allows at most %d decimals", what, types.WeightScale)).
		WithDetail("value", w.Value.String())
}

func (t *WeightTicket) requireDraft() error {
	if t.Status != StatusDraft {
		return apperror.NewNotDraft("weight ticket", t.ID, string(t.Status))
	}
	return nil
}

func (t *WeightTicket) invalidTransition(to Status) error {
	return apperror.NewConflictWithCode(CodeInvalidTransition, "weight ticket cannot move to "+string(to)).
		WithDetail("id", t.ID).
		WithDetail("status", t.Status)
}

func normalize(d Details, defaultWeightedAt time.Time) Details {
	d.PickupLocation = location.OrNone(d.PickupLocation)
	d.DeliveryLocation = location.OrNone(d.DeliveryLocation)
	if d.WeightedAt.IsZero() {
		d.WeightedAt = defaultWeightedAt
	}
	d.WeightedAt = d.WeightedAt.UTC()
	for i := range d.Lines {
		if d.Lines[i].Weight.Unit == "" {
			d.Lines[i].Weight.Unit = types.UnitKilogram
		}
	}
	return d
}

var _ entity.Validatable = (*WeightTicket)(nil)

// Package declaration aggregates the weight ticket ledger per waste stream
// and month and submits the result to the LMA compliance gateway.
package declaration

import (
	"fmt"
	"strings"
	"time"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/entity"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
)

// Rule codes.
const (
	CodeNotFound         = "DECLARATION_NOT_FOUND"
	CodeAlreadySubmitted = "ALREADY_SUBMITTED"
	CodeInvalidPeriod    = "INVALID_PERIOD"
	// CodeMessageIncomplete marks declarations whose gateway message could
	// not be assembled from the registry.
	CodeMessageIncomplete = "DECLARATION_MESSAGE_INCOMPLETE"
)

// Kind of declaration sent to the authority.
type Kind string

const (
	KindFirstReceival   Kind = "FIRST_RECEIVAL"
	KindMonthlyReceival Kind = "MONTHLY_RECEIVAL"
	KindCorrection      Kind = "CORRECTION"
)

// Status of a declaration.
type Status string

const (
	// StatusPending declarations were created automatically and are not yet
	// accepted by the gateway.
	StatusPending Status = "PENDING"
	// StatusCorrective declarations wait for manual approval.
	StatusCorrective Status = "CORRECTIVE"
	StatusSubmitted  Status = "SUBMITTED"
)

// YearMonth is a reporting period.
type YearMonth struct {
	Year  int
	Month time.Month
}

// NewYearMonth returns the period containing t in loc.
func NewYearMonth(t time.Time, loc *time.Location) YearMonth {
	t = t.In(loc)
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth parses "2025-11".
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		e := apperror.NewValidation("period must look like YYYY-MM").
			WithDetail("field", "period").
			WithDetail("value", s)
		e.Code = CodeInvalidPeriod
		return YearMonth{}, e
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// String formats the period as YYYY-MM.
func (p YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Bounds returns [start, end) of the period in loc.
func (p YearMonth) Bounds(loc *time.Location) (time.Time, time.Time) {
	start := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// Previous returns the month before p.
func (p YearMonth) Previous() YearMonth {
	t := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Before reports whether p is earlier than o.
func (p YearMonth) Before(o YearMonth) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// Candidate is the monthly total of one waste stream.
type Candidate struct {
	WasteStreamNumber wastestream.Number `json:"wasteStreamNumber"`
	Period            YearMonth          `json:"-"`
	TotalWeight       int64              `json:"totalWeight"`
	TotalShipments    int                `json:"totalShipments"`
	Transporters      []string           `json:"transporters"`
}

// Declaration is one report for a stream and period.
type Declaration struct {
	ID                id.ID
	WasteStreamNumber wastestream.Number
	Period            YearMonth
	Kind              Kind
	TotalWeight       int64
	TotalShipments    int
	Transporters      []string
	Status            Status
	Errors            []string
	GatewayReference  string
	SubmittedAt       *time.Time
	ApprovedBy        string
	entity.Stamps
}

// New creates a declaration from a candidate. Corrections start as
// CORRECTIVE, everything else as PENDING.
func New(c Candidate, kind Kind, now time.Time, actor string) *Declaration {
	status := StatusPending
	if kind == KindCorrection {
		status = StatusCorrective
	}
	return &Declaration{
		ID:                id.New(),
		WasteStreamNumber: c.WasteStreamNumber,
		Period:            c.Period,
		Kind:              kind,
		TotalWeight:       c.TotalWeight,
		TotalShipments:    c.TotalShipments,
		Transporters:      append([]string(nil), c.Transporters...),
		Status:            status,
		Stamps:            entity.NewStamps(now, actor),
	}
}

// CanSubmit returns an error once the declaration was accepted.
func (d *Declaration) CanSubmit() error {
	if d.Status == StatusSubmitted {
		return apperror.NewConflictWithCode(CodeAlreadySubmitted, "declaration was already submitted").
			WithDetail("id", d.ID).
			WithDetail("wasteStreamNumber", d.WasteStreamNumber)
	}
	return nil
}

// Approve records who released a pending or corrective declaration.
func (d *Declaration) Approve(now time.Time, actor string) error {
	if err := d.CanSubmit(); err != nil {
		return err
	}
	d.ApprovedBy = actor
	d.Touch(now, actor)
	return nil
}

// MarkSubmitted stores the gateway acknowledgement.
func (d *Declaration) MarkSubmitted(reference string, now time.Time, actor string) {
	at := now.UTC()
	d.Status = StatusSubmitted
	d.GatewayReference = reference
	d.SubmittedAt = &at
	d.Errors = nil
	d.Touch(now, actor)
}

// MarkFailed keeps the declaration pending and records why.
func (d *Declaration) MarkFailed(reasons []string, now time.Time, actor string) {
	d.Errors = append([]string(nil), reasons...)
	d.Touch(now, actor)
}

// Differs reports whether c changes the declared figures.
func (d *Declaration) Differs(c Candidate) bool {
	return d.TotalWeight != c.TotalWeight || d.TotalShipments != c.TotalShipments
}

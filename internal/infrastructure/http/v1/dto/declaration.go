package dto

import (
	"time"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/declaration"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
)

// DeclarationQuery holds the declaration list filters.
type DeclarationQuery struct {
	Period            string `form:"period"`
	Status            string `form:"status"`
	WasteStreamNumber string `form:"wasteStreamNumber"`
	Limit             int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset            int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query into a declaration filter.
func (q DeclarationQuery) ToFilter() (declaration.Filter, error) {
	f := declaration.Filter{
		Status:            declaration.Status(q.Status),
		WasteStreamNumber: wastestream.Number(q.WasteStreamNumber),
		Limit:             q.Limit,
		Offset:            q.Offset,
	}
	if f.Limit == 0 {
		f.Limit = 50
	}
	if q.Period != "" {
		p, err := declaration.ParseYearMonth(q.Period)
		if err != nil {
			return declaration.Filter{}, err
		}
		f.Period = &p
	}
	return f, nil
}

// RunDeclarationsRequest starts a declaration run for a period.
// Corrections re-declares already submitted periods whose totals changed.
type RunDeclarationsRequest struct {
	Period      string `json:"period" binding:"required"`
	Corrections bool   `json:"corrections"`
}

// DeclarationResponse is the response body for a declaration.
type DeclarationResponse struct {
	ID                id.ID              `json:"id"`
	WasteStreamNumber string             `json:"wasteStreamNumber"`
	Period            string             `json:"period"`
	Kind              declaration.Kind   `json:"kind"`
	TotalWeight       int64              `json:"totalWeight"`
	TotalShipments    int                `json:"totalShipments"`
	Transporters      []string           `json:"transporters"`
	Status            declaration.Status `json:"status"`
	Errors            []string           `json:"errors,omitempty"`
	GatewayReference  string             `json:"gatewayReference,omitempty"`
	SubmittedAt       *time.Time         `json:"submittedAt,omitempty"`
	ApprovedBy        string             `json:"approvedBy,omitempty"`
	StampsResponse
}

// FromDeclaration creates response DTO from domain entity.
func FromDeclaration(d *declaration.Declaration) DeclarationResponse {
	transporters := d.Transporters
	if transporters == nil {
		transporters = []string{}
	}
	return DeclarationResponse{
		ID:                d.ID,
		WasteStreamNumber: d.WasteStreamNumber.String(),
		Period:            d.Period.String(),
		Kind:              d.Kind,
		TotalWeight:       d.TotalWeight,
		TotalShipments:    d.TotalShipments,
		Transporters:      transporters,
		Status:            d.Status,
		Errors:            d.Errors,
		GatewayReference:  d.GatewayReference,
		SubmittedAt:       d.SubmittedAt,
		ApprovedBy:        d.ApprovedBy,
		StampsResponse:    FromStamps(d.Stamps),
	}
}

// RunReportResponse summarises a declaration run.
type RunReportResponse struct {
	Period       string                `json:"period"`
	Submitted    int                   `json:"submitted"`
	Failed       int                   `json:"failed"`
	Skipped      int                   `json:"skipped"`
	Declarations []DeclarationResponse `json:"declarations"`
}

// FromReport creates response DTO from a run report.
func FromReport(r *declaration.Report) RunReportResponse {
	resp := RunReportResponse{
		Period:       r.Period.String(),
		Submitted:    r.Submitted,
		Failed:       r.Failed,
		Skipped:      r.Skipped,
		Declarations: make([]DeclarationResponse, len(r.Declarations)),
	}
	for i, d := range r.Declarations {
		resp.Declarations[i] = FromDeclaration(d)
	}
	return resp
}

// FromCorrections wraps a correction run in a report. Corrections wait
// for approval, so none of them count as submitted.
func FromCorrections(period declaration.YearMonth, decls []*declaration.Declaration) RunReportResponse {
	resp := RunReportResponse{
		Period:       period.String(),
		Declarations: make([]DeclarationResponse, len(decls)),
	}
	for i, d := range decls {
		resp.Declarations[i] = FromDeclaration(d)
	}
	return resp
}

package dto

import (
	"time"

	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/invoice"
)

// InvoiceResponse is the response body for an invoice, including the
// computed totals and VAT breakdown.
type InvoiceResponse struct {
	ID                    int64                    `json:"id"`
	Number                string                   `json:"number,omitempty"`
	Type                  invoice.Type             `json:"type"`
	DocumentType          invoice.DocumentType     `json:"documentType"`
	Status                invoice.Status           `json:"status"`
	InvoiceDate           time.Time                `json:"invoiceDate"`
	Customer              invoice.CustomerSnapshot `json:"customer"`
	OriginalInvoiceID     *int64                   `json:"originalInvoiceId,omitempty"`
	CreditedInvoiceNumber string                   `json:"creditedInvoiceNumber,omitempty"`
	SourceWeightTicketID  *int64                   `json:"sourceWeightTicketId,omitempty"`
	Lines                 []invoice.Line           `json:"lines"`
	Totals                invoice.Totals           `json:"totals"`
	VATBreakdown          []invoice.VATGroup       `json:"vatBreakdown"`
	FinalizedAt           *time.Time               `json:"finalizedAt,omitempty"`
	FinalizedBy           string                   `json:"finalizedBy,omitempty"`
	StampsResponse
}

// FromInvoice creates response DTO from domain entity.
func FromInvoice(inv *invoice.Invoice) InvoiceResponse {
	lines := inv.Lines
	if lines == nil {
		lines = []invoice.Line{}
	}
	breakdown := inv.VATBreakdown()
	if breakdown == nil {
		breakdown = []invoice.VATGroup{}
	}
	return InvoiceResponse{
		ID:                    inv.ID,
		Number:                inv.Number,
		Type:                  inv.Type,
		DocumentType:          inv.DocumentType,
		Status:                inv.Status,
		InvoiceDate:           inv.InvoiceDate,
		Customer:              inv.Customer,
		OriginalInvoiceID:     inv.OriginalInvoiceID,
		CreditedInvoiceNumber: inv.CreditedInvoiceNumber,
		SourceWeightTicketID:  inv.SourceWeightTicketID,
		Lines:                 lines,
		Totals:                inv.Totals(),
		VATBreakdown:          breakdown,
		FinalizedAt:           inv.FinalizedAt,
		FinalizedBy:           inv.FinalizedBy,
		StampsResponse:        FromStamps(inv.Stamps),
	}
}

// Package invoice turns weight tickets into invoices that keep a frozen
// copy of customer and catalog data.
package invoice

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/entity"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/types"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/catalog"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
)

// Rule codes.
const (
	CodeAlreadyFinal        = "INVOICE_ALREADY_FINAL"
	CodeNotFinal            = "INVOICE_NOT_FINAL"
	CodeCannotCreditCredit  = "CREDIT_NOTE_CANNOT_BE_CREDITED"
	CodeCatalogUnresolved   = "CATALOG_ITEM_NOT_RESOLVED"
	CodeCustomerUnsupported = "CUSTOMER_NOT_INVOICEABLE"
)

// Status of an invoice.
type Status string

const (
	StatusDraft Status = "DRAFT"
	StatusFinal Status = "FINAL"
)

// Type tells who pays whom.
type Type string

const (
	TypeSale     Type = "SALE"
	TypePurchase Type = "PURCHASE"
)

// DocumentType separates invoices from the credit notes that reverse them.
type DocumentType string

const (
	DocumentInvoice    DocumentType = "INVOICE"
	DocumentCreditNote DocumentType = "CREDIT_NOTE"
)

// CustomerSnapshot is the customer as it was when the invoice was made.
// It is never refreshed from the company registry.
type CustomerSnapshot struct {
	CompanyID           *id.ID `json:"companyId,omitempty"`
	Name                string `json:"name"`
	ChamberOfCommerceID string `json:"chamberOfCommerceId,omitempty"`
	VATNumber           string `json:"vatNumber,omitempty"`
	Street              string `json:"street,omitempty"`
	HouseNumber         string `json:"houseNumber,omitempty"`
	PostalCode          string `json:"postalCode,omitempty"`
	City                string `json:"city,omitempty"`
	Country             string `json:"country,omitempty"`
}

// Line is a frozen copy of a catalog item with the invoiced quantity.
type Line struct {
	ID                int64              `json:"id"`
	LineNumber        int                `json:"lineNumber"`
	Date              time.Time          `json:"date"`
	WasteStreamNumber wastestream.Number `json:"wasteStreamNumber,omitempty"`
	CatalogItemID     id.ID              `json:"catalogItemId"`
	ItemCode          string             `json:"itemCode"`
	ItemName          string             `json:"itemName"`
	ItemType          catalog.ItemType   `json:"itemType"`
	VATCode           string             `json:"vatCode"`
	VATPercentage     decimal.Decimal    `json:"vatPercentage"`
	GLAccount         string             `json:"glAccount,omitempty"`
	Unit              types.WeightUnit   `json:"unit"`
	UnitPrice         types.Money        `json:"unitPrice"`
	Quantity          decimal.Decimal    `json:"quantity"`
	TotalExclVAT      types.Money        `json:"totalExclVat"`
}

// VAT returns the VAT amount of the line, rounded to cents.
func (l Line) VAT() types.Money {
	return types.RoundMoney(l.TotalExclVAT.Mul(l.VATPercentage).Div(decimal.NewFromInt(100)))
}

// Invoice is the aggregate root.
type Invoice struct {
	ID                    int64
	Number                string
	Type                  Type
	DocumentType          DocumentType
	Status                Status
	InvoiceDate           time.Time
	Customer              CustomerSnapshot
	OriginalInvoiceID     *int64
	CreditedInvoiceNumber string
	SourceWeightTicketID  *int64
	Lines                 []Line
	FinalizedAt           *time.Time
	FinalizedBy           string
	entity.Stamps
}

// Totals are the summed amounts of an invoice.
type Totals struct {
	ExclVAT types.Money `json:"totalExclVat"`
	VAT     types.Money `json:"totalVat"`
	InclVAT types.Money `json:"totalInclVat"`
}

// VATGroup is the subtotal for one VAT code.
type VATGroup struct {
	VATCode       string          `json:"vatCode"`
	VATPercentage decimal.Decimal `json:"vatPercentage"`
	Base          types.Money     `json:"base"`
	VAT           types.Money     `json:"vat"`
}

// Totals sums the lines.
func (inv *Invoice) Totals() Totals {
	excl, vat := decimal.Zero, decimal.Zero
	for _, l := range inv.Lines {
		excl = excl.Add(l.TotalExclVAT)
		vat = vat.Add(l.VAT())
	}
	return Totals{ExclVAT: excl, VAT: vat, InclVAT: excl.Add(vat)}
}

// VATBreakdown groups line amounts by VAT code, ordered by code.
func (inv *Invoice) VATBreakdown() []VATGroup {
	groups := make(map[string]*VATGroup)
	for _, l := range inv.Lines {
		g, ok := groups[l.VATCode]
		if !ok {
			g = &VATGroup{VATCode: l.VATCode, VATPercentage: l.VATPercentage, Base: decimal.Zero, VAT: decimal.Zero}
			groups[l.VATCode] = g
		}
		g.Base = g.Base.Add(l.TotalExclVAT)
		g.VAT = g.VAT.Add(l.VAT())
	}
	out := make([]VATGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VATCode < out[j].VATCode })
	return out
}

// CanModify returns an error once the invoice is final.
func (inv *Invoice) CanModify() error {
	if inv.Status != StatusDraft {
		return apperror.NewBusinessRule(CodeAlreadyFinal, "final invoices cannot be modified").
			WithDetail("id", inv.ID).
			WithDetail("number", inv.Number)
	}
	return nil
}

// SetInvoiceDate changes the date of a draft invoice.
func (inv *Invoice) SetInvoiceDate(date time.Time, now time.Time, actor string) error {
	if err := inv.CanModify(); err != nil {
		return err
	}
	inv.InvoiceDate = date
	inv.Touch(now, actor)
	return nil
}

// Finalize assigns the number and locks the invoice.
func (inv *Invoice) Finalize(number string, now time.Time, actor string) error {
	if err := inv.CanModify(); err != nil {
		return err
	}
	at := now.UTC()
	inv.Number = number
	inv.Status = StatusFinal
	inv.FinalizedAt = &at
	inv.FinalizedBy = actor
	inv.Touch(now, actor)
	return nil
}

// Credit builds a DRAFT credit note reversing a FINAL invoice.
// lineIDs supplies new line ids in order.
func (inv *Invoice) Credit(newID int64, lineIDs []int64, now time.Time, actor string) (*Invoice, error) {
	if inv.Status != StatusFinal {
		return nil, apperror.NewBusinessRule(CodeNotFinal, "only final invoices can be credited").
			WithDetail("id", inv.ID)
	}
	if inv.DocumentType == DocumentCreditNote {
		return nil, apperror.NewBusinessRule(CodeCannotCreditCredit, "a credit note cannot be credited").
			WithDetail("id", inv.ID)
	}
	if len(lineIDs) != len(inv.Lines) {
		return nil, apperror.NewInternal(fmt.Errorf("credit note needs %d line ids, got %d", len(inv.Lines), len(lineIDs)))
	}

	originalID := inv.ID
	lines := make([]Line, len(inv.Lines))
	for i, l := range inv.Lines {
		l.ID = lineIDs[i]
		l.Quantity = l.Quantity.Neg()
		l.TotalExclVAT = l.TotalExclVAT.Neg()
		lines[i] = l
	}

	return &Invoice{
		ID:                    newID,
		Type:                  inv.Type,
		DocumentType:          DocumentCreditNote,
		Status:                StatusDraft,
		InvoiceDate:           now.UTC(),
		Customer:              inv.Customer,
		OriginalInvoiceID:     &originalID,
		CreditedInvoiceNumber: inv.Number,
		SourceWeightTicketID:  inv.SourceWeightTicketID,
		Lines:                 lines,
		Stamps:                entity.NewStamps(now, actor),
	}, nil
}

// Validate implements entity.Validatable.
func (inv *Invoice) Validate(context.Context) error {
	if inv.Customer.Name == "" {
		return apperror.NewValidation("customer name is required").WithDetail("field", "customer.name")
	}
	if inv.InvoiceDate.IsZero() {
		return apperror.NewValidation("invoice date is required").WithDetail("field", "invoiceDate")
	}
	return nil
}

var _ entity.Validatable = (*Invoice)(nil)

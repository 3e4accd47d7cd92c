package ledger_repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/types"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/catalog"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/invoice"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
)

// InvoiceRecord is one row of invoices. Number stays NULL until the
// invoice is finalized.
type InvoiceRecord struct {
	ID                    int64      `db:"id"`
	Number                *string    `db:"number"`
	Type                  string     `db:"type"`
	DocumentType          string     `db:"document_type"`
	Status                string     `db:"status"`
	InvoiceDate           time.Time  `db:"invoice_date"`
	Customer              []byte     `db:"customer"`
	OriginalInvoiceID     *int64     `db:"original_invoice_id"`
	CreditedInvoiceNumber string     `db:"credited_invoice_number"`
	SourceWeightTicketID  *int64     `db:"source_weight_ticket_id"`
	FinalizedAt           *time.Time `db:"finalized_at"`
	FinalizedBy           string     `db:"finalized_by"`
	StampsRecord
}

// InvoiceLineRecord is one row of invoice_lines.
type InvoiceLineRecord struct {
	ID                int64           `db:"id"`
	InvoiceID         int64           `db:"invoice_id"`
	LineNumber        int             `db:"line_number"`
	LineDate          time.Time       `db:"line_date"`
	WasteStreamNumber string          `db:"waste_stream_number"`
	CatalogItemID     id.ID           `db:"catalog_item_id"`
	ItemCode          string          `db:"item_code"`
	ItemName          string          `db:"item_name"`
	ItemType          string          `db:"item_type"`
	VATCode           string          `db:"vat_code"`
	VATPercentage     decimal.Decimal `db:"vat_percentage"`
	GLAccount         string          `db:"gl_account"`
	Unit              string          `db:"unit"`
	UnitPrice         decimal.Decimal `db:"unit_price"`
	Quantity          decimal.Decimal `db:"quantity"`
	TotalExclVAT      decimal.Decimal `db:"total_excl_vat"`
}

func invoiceToRecord(inv *invoice.Invoice) (*InvoiceRecord, []*InvoiceLineRecord, error) {
	customer, err := json.Marshal(inv.Customer)
	if err != nil {
		return nil, nil, fmt.Errorf("encode customer: %w", err)
	}
	rec := &InvoiceRecord{
		ID:                    inv.ID,
		Type:                  string(inv.Type),
		DocumentType:          string(inv.DocumentType),
		Status:                string(inv.Status),
		InvoiceDate:           inv.InvoiceDate,
		Customer:              customer,
		OriginalInvoiceID:     inv.OriginalInvoiceID,
		CreditedInvoiceNumber: inv.CreditedInvoiceNumber,
		SourceWeightTicketID:  inv.SourceWeightTicketID,
		FinalizedAt:           inv.FinalizedAt,
		FinalizedBy:           inv.FinalizedBy,
		StampsRecord:          stampsToRecord(inv.Stamps),
	}
	if inv.Number != "" {
		number := inv.Number
		rec.Number = &number
	}

	lines := make([]*InvoiceLineRecord, len(inv.Lines))
	for i, l := range inv.Lines {
		lines[i] = &InvoiceLineRecord{
			ID:                l.ID,
			InvoiceID:         inv.ID,
			LineNumber:        l.LineNumber,
			LineDate:          l.Date,
			WasteStreamNumber: string(l.WasteStreamNumber),
			CatalogItemID:     l.CatalogItemID,
			ItemCode:          l.ItemCode,
			ItemName:          l.ItemName,
			ItemType:          string(l.ItemType),
			VATCode:           l.VATCode,
			VATPercentage:     l.VATPercentage,
			GLAccount:         l.GLAccount,
			Unit:              string(l.Unit),
			UnitPrice:         l.UnitPrice,
			Quantity:          l.Quantity,
			TotalExclVAT:      l.TotalExclVAT,
		}
	}
	return rec, lines, nil
}

func (r *InvoiceRecord) toDomain(lines []*InvoiceLineRecord) (*invoice.Invoice, error) {
	var customer invoice.CustomerSnapshot
	if err := json.Unmarshal(r.Customer, &customer); err != nil {
		return nil, fmt.Errorf("decode customer: %w", err)
	}
	inv := &invoice.Invoice{
		ID:                    r.ID,
		Type:                  invoice.Type(r.Type),
		DocumentType:          invoice.DocumentType(r.DocumentType),
		Status:                invoice.Status(r.Status),
		InvoiceDate:           r.InvoiceDate.UTC(),
		Customer:              customer,
		OriginalInvoiceID:     r.OriginalInvoiceID,
		CreditedInvoiceNumber: r.CreditedInvoiceNumber,
		SourceWeightTicketID:  r.SourceWeightTicketID,
		FinalizedAt:           r.FinalizedAt,
		FinalizedBy:           r.FinalizedBy,
		Stamps:                r.StampsRecord.stamps(),
	}
	if r.Number != nil {
		inv.Number = *r.Number
	}
	for _, l := range lines {
		inv.Lines = append(inv.Lines, invoice.Line{
			ID:                l.ID,
			LineNumber:        l.LineNumber,
			Date:              l.LineDate.UTC(),
			WasteStreamNumber: wastestream.Number(l.WasteStreamNumber),
			CatalogItemID:     l.CatalogItemID,
			ItemCode:          l.ItemCode,
			ItemName:          l.ItemName,
			ItemType:          catalog.ItemType(l.ItemType),
			VATCode:           l.VATCode,
			VATPercentage:     l.VATPercentage,
			GLAccount:         l.GLAccount,
			Unit:              types.WeightUnit(l.Unit),
			UnitPrice:         l.UnitPrice,
			Quantity:          l.Quantity,
			TotalExclVAT:      l.TotalExclVAT,
		})
	}
	return inv, nil
}

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	t     *table[InvoiceRecord]
	lines *table[InvoiceLineRecord]
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txManager *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		t:     newTable[InvoiceRecord](txManager, "invoices", "invoice", "id"),
		lines: newTable[InvoiceLineRecord](txManager, "invoice_lines", "invoice line", "id"),
	}
}

func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	rec, lines, err := invoiceToRecord(inv)
	if err != nil {
		return err
	}
	if err := r.t.insert(ctx, rec); err != nil {
		return err
	}
	return r.insertLines(ctx, lines)
}

// Update writes the header and replaces the lines. Lines keep their ids.
func (r *InvoiceRepo) Update(ctx context.Context, inv *invoice.Invoice) error {
	rec, lines, err := invoiceToRecord(inv)
	if err != nil {
		return err
	}
	version, err := r.t.update(ctx, rec)
	if err != nil {
		if apperror.HasCode(err, apperror.CodeDuplicate) {
			return apperror.NewDuplicate("invoice", "number", inv.Number)
		}
		return err
	}

	sql, args, err := r.lines.Builder().
		Delete(r.lines.name).
		Where(squirrel.Eq{"invoice_id": inv.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.lines.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete invoice lines: %w", err)
	}
	if err := r.insertLines(ctx, lines); err != nil {
		return err
	}

	inv.SetVersion(version)
	return nil
}

func (r *InvoiceRepo) insertLines(ctx context.Context, lines []*InvoiceLineRecord) error {
	if len(lines) == 0 {
		return nil
	}
	q := r.lines.Builder().Insert(r.lines.name).Columns(r.lines.cols...)
	for _, l := range lines {
		q = q.Values(postgres.StructValues(l)...)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.lines.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return r.lines.mapError(err, lines[0].InvoiceID)
	}
	return nil
}

func (r *InvoiceRepo) GetByID(ctx context.Context, invoiceID int64) (*invoice.Invoice, error) {
	return r.get(ctx, invoiceID, false)
}

func (r *InvoiceRepo) GetForUpdate(ctx context.Context, invoiceID int64) (*invoice.Invoice, error) {
	return r.get(ctx, invoiceID, true)
}

func (r *InvoiceRepo) get(ctx context.Context, invoiceID int64, forUpdate bool) (*invoice.Invoice, error) {
	rec, ok, err := r.t.get(ctx, squirrel.Eq{"id": invoiceID}, forUpdate)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewNotFound("invoice", invoiceID)
	}
	lines, err := r.lines.selectWhere(ctx, r.lines.selectAll().
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("line_number"))
	if err != nil {
		return nil, err
	}
	return rec.toDomain(lines)
}

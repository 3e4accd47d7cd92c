package invoice

import (
	"context"
	"time"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/entity"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/types"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/catalog"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/company"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/party"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/weightticket"
)

// StreamLookup loads the streams referenced by ticket lines.
type StreamLookup interface {
	FindByNumbers(ctx context.Context, numbers []wastestream.Number) ([]*wastestream.WasteStream, error)
}

// Generator builds draft invoices from weight tickets.
type Generator struct {
	catalog   catalog.Lookup
	companies company.Lookup
	streams   StreamLookup
}

// NewGenerator creates a Generator.
func NewGenerator(items catalog.Lookup, companies company.Lookup, streams StreamLookup) *Generator {
	return &Generator{catalog: items, companies: companies, streams: streams}
}

// Generate snapshots the customer and the catalog item of every ticket
// line into a DRAFT invoice. Ids are left zero for the caller to assign.
func (g *Generator) Generate(ctx context.Context, t *weightticket.WeightTicket, now time.Time, actor string) (*Invoice, error) {
	customer, err := g.customer(ctx, t.Consignor)
	if err != nil {
		return nil, err
	}

	found, err := g.streams.FindByNumbers(ctx, t.StreamNumbers())
	if err != nil {
		return nil, err
	}
	streams := make(map[wastestream.Number]*wastestream.WasteStream, len(found))
	for _, ws := range found {
		streams[ws.Number] = ws
	}

	items := make([]*catalog.Item, len(t.Lines))
	allMaterial := len(t.Lines) > 0
	for i, l := range t.Lines {
		item, err := g.resolveItem(ctx, l, streams[l.WasteStreamNumber])
		if err != nil {
			return nil, err
		}
		items[i] = item
		if item.Type != catalog.ItemMaterial {
			allMaterial = false
		}
	}

	invoiceType := TypeSale
	if t.Direction == weightticket.DirectionInbound && allMaterial {
		invoiceType = TypePurchase
	}

	lines := make([]Line, len(t.Lines))
	for i, l := range t.Lines {
		lines[i] = snapshotLine(i+1, t.WeightedAt, l, items[i], invoiceType)
	}

	ticketID := t.ID
	inv := &Invoice{
		Type:                 invoiceType,
		DocumentType:         DocumentInvoice,
		Status:               StatusDraft,
		InvoiceDate:          now.UTC(),
		Customer:             customer,
		SourceWeightTicketID: &ticketID,
		Lines:                lines,
		Stamps:               entity.NewStamps(now, actor),
	}
	if err := inv.Validate(ctx); err != nil {
		return nil, err
	}
	return inv, nil
}

// resolveItem picks the line's own item, then the stream's linked item,
// then the item whose code equals the stream's eural code.
func (g *Generator) resolveItem(ctx context.Context, l weightticket.Line, ws *wastestream.WasteStream) (*catalog.Item, error) {
	if l.CatalogItemID != nil {
		return g.catalog.GetByID(ctx, *l.CatalogItemID)
	}
	if ws == nil {
		return nil, apperror.NewNotFound("waste stream", l.WasteStreamNumber)
	}
	if ws.CatalogItemID != nil {
		return g.catalog.GetByID(ctx, *ws.CatalogItemID)
	}
	item, err := g.catalog.FindByCode(ctx, ws.WasteType.EuralCode)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewBusinessRule(CodeCatalogUnresolved, "no catalog item for waste stream").
				WithDetail("wasteStreamNumber", ws.Number).
				WithDetail("euralCode", ws.WasteType.EuralCode)
		}
		return nil, err
	}
	return item, nil
}

func (g *Generator) customer(ctx context.Context, p party.Party) (CustomerSnapshot, error) {
	switch v := p.(type) {
	case party.Company:
		c, err := g.companies.GetByID(ctx, v.CompanyID)
		if err != nil {
			return CustomerSnapshot{}, err
		}
		companyID := c.ID
		return CustomerSnapshot{
			CompanyID:           &companyID,
			Name:                c.Name,
			ChamberOfCommerceID: c.ChamberOfCommerceID,
			VATNumber:           c.VATNumber,
			Street:              c.Address.Street,
			HouseNumber:         c.Address.HouseNumber,
			PostalCode:          c.Address.PostalCode,
			City:                c.Address.City,
			Country:             c.Address.Country,
		}, nil
	case party.Person:
		return CustomerSnapshot{Name: v.Name}, nil
	default:
		return CustomerSnapshot{}, apperror.NewBusinessRule(CodeCustomerUnsupported, "weight ticket has no invoiceable consignor")
	}
}

func snapshotLine(n int, date time.Time, l weightticket.Line, item *catalog.Item, invoiceType Type) Line {
	unit := item.Unit
	if unit == "" {
		unit = types.UnitKilogram
	}
	quantity := l.Weight.In(unit)
	account := item.SalesAccount
	if invoiceType == TypePurchase {
		account = item.PurchaseAccount
	}
	return Line{
		LineNumber:        n,
		Date:              date,
		WasteStreamNumber: l.WasteStreamNumber,
		CatalogItemID:     item.ID,
		ItemCode:          item.Code,
		ItemName:          item.Name,
		ItemType:          item.Type,
		VATCode:           item.VATCode,
		VATPercentage:     item.VATPercentage,
		GLAccount:         account,
		Unit:              unit,
		UnitPrice:         item.UnitPrice,
		Quantity:          quantity,
		TotalExclVAT:      types.RoundMoney(quantity.Mul(item.UnitPrice)),
	}
}

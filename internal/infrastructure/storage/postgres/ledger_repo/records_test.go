package ledger_repo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/entity"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/types"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/declaration"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/invoice"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/location"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/party"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/weightticket"
	"github.com/Colossus92/eazy-recycling-sub004/internal/testutil/memstore"
)

var stamped = entity.NewStamps(time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC), "planner@eazy.nl")

func TestWasteStreamRecord_KeepsVariants(t *testing.T) {
	w := memstore.NewWorld()
	d := w.StreamDetails()
	d.PickupLocation = location.Proximity{Description: "naast de haven", PostalCode: "3011AA", City: "Rotterdam", Country: "NL"}
	d.PickupParty = party.Person{Name: "J. Jansen"}
	d.CollectorID = &w.Collector.ID

	ws := &wastestream.WasteStream{
		Number:         "198080000042",
		Details:        d,
		Status:         wastestream.StatusActive,
		LastActivityAt: stamped.CreatedAt,
		Stamps:         stamped,
	}

	rec, err := wasteStreamToRecord(ws)
	require.NoError(t, err)
	assert.Equal(t, "19808", rec.ProcessorID)
	assert.JSONEq(t, `{"type":"PERSON","name":"J. Jansen"}`, string(rec.PickupParty))

	got, err := rec.toDomain()
	require.NoError(t, err)
	assert.Equal(t, ws, got)
}

func TestWeightTicketRecord_TarraAndLines(t *testing.T) {
	w := memstore.NewWorld()
	tarra := types.Weight{Value: decimal.RequireFromString("1.25"), Unit: types.UnitTon}
	ticket := &weightticket.WeightTicket{
		ID: 7,
		Details: weightticket.Details{
			Consignor: party.Company{CompanyID: w.Consignor.ID},
			Lines: []weightticket.Line{
				{WasteStreamNumber: "198080000001", Weight: types.MustWeight("1500.50")},
				{WasteStreamNumber: "198080000002", Weight: types.Kilograms(20)},
			},
			Tarra:            &tarra,
			Direction:        weightticket.DirectionInbound,
			PickupLocation:   location.Company{CompanyID: w.Consignor.ID},
			DeliveryLocation: location.None{},
			CarrierID:        &w.Carrier.ID,
			WeightedAt:       stamped.CreatedAt,
		},
		Status: weightticket.StatusCompleted,
		Stamps: stamped,
	}

	rec, lines, err := weightTicketToRecord(ticket)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 1, lines[0].LineNo)
	assert.Equal(t, 2, lines[1].LineNo)
	assert.True(t, rec.TarraValue.Valid)
	require.NotNil(t, rec.TarraUnit)
	assert.Equal(t, "TON", *rec.TarraUnit)

	got, err := rec.toDomain(lines)
	require.NoError(t, err)
	assert.Equal(t, ticket, got)
}

func TestWeightTicketRecord_NoTarra(t *testing.T) {
	ticket := &weightticket.WeightTicket{
		ID:      8,
		Details: weightticket.Details{Consignor: party.Person{Name: "P. de Boer"}, WeightedAt: stamped.CreatedAt},
		Status:  weightticket.StatusDraft,
		Stamps:  stamped,
	}

	rec, lines, err := weightTicketToRecord(ticket)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.False(t, rec.TarraValue.Valid)
	assert.Nil(t, rec.TarraUnit)

	got, err := rec.toDomain(nil)
	require.NoError(t, err)
	assert.Nil(t, got.Tarra)
	assert.Equal(t, party.Person{Name: "P. de Boer"}, got.Consignor)
}

func TestInvoiceRecord_DraftHasNullNumber(t *testing.T) {
	inv := &invoice.Invoice{
		ID:           12,
		Type:         invoice.TypeSale,
		DocumentType: invoice.DocumentInvoice,
		Status:       invoice.StatusDraft,
		InvoiceDate:  stamped.CreatedAt,
		Customer:     invoice.CustomerSnapshot{Name: "Bouwbedrijf De Vries", City: "Utrecht"},
		Lines: []invoice.Line{{
			ID:            120,
			LineNumber:    1,
			Date:          stamped.CreatedAt,
			CatalogItemID: id.New(),
			ItemCode:      "MET-01",
			VATCode:       "HOOG",
			VATPercentage: decimal.NewFromInt(21),
			Unit:          types.UnitTon,
			UnitPrice:     decimal.RequireFromString("85.00"),
			Quantity:      decimal.RequireFromString("1.5"),
			TotalExclVAT:  decimal.RequireFromString("127.50"),
		}},
		Stamps: stamped,
	}

	rec, lines, err := invoiceToRecord(inv)
	require.NoError(t, err)
	assert.Nil(t, rec.Number)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(12), lines[0].InvoiceID)

	got, err := rec.toDomain(lines)
	require.NoError(t, err)
	assert.Equal(t, inv, got)

	inv.Number = "F-2025-00001"
	rec, _, err = invoiceToRecord(inv)
	require.NoError(t, err)
	require.NotNil(t, rec.Number)
	assert.Equal(t, "F-2025-00001", *rec.Number)
}

func TestDeclarationRecord_Period(t *testing.T) {
	d := declaration.New(declaration.Candidate{
		WasteStreamNumber: "198080000001",
		Period:            declaration.YearMonth{Year: 2025, Month: time.November},
		TotalWeight:       1520,
		TotalShipments:    2,
	}, declaration.KindFirstReceival, stamped.CreatedAt, "system")

	rec := declarationToRecord(d)
	assert.Equal(t, "2025-11", rec.Period)
	assert.NotNil(t, rec.Transporters)
	assert.NotNil(t, rec.Errors)

	got, err := rec.toDomain()
	require.NoError(t, err)
	assert.Equal(t, d.Period, got.Period)
	assert.Equal(t, declaration.StatusPending, got.Status)
}

func TestDeclarationRecord_BadPeriod(t *testing.T) {
	_, err := (&DeclarationRecord{Period: "11-2025"}).toDomain()
	assert.Error(t, err)
}

package memstore

import (
	"github.com/shopspring/decimal"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/types"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/catalog"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/company"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/location"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/party"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
)

// World is a small, consistent company registry for tests.
type World struct {
	Companies *Companies
	Processor *company.Company
	Consignor *company.Company
	Carrier   *company.Company
	Collector *company.Company
}

// NewWorld returns a registry with processor 19808, a consignor, a
// carrier with a VIHB number and a collector.
func NewWorld() *World {
	w := &World{
		Processor: &company.Company{
			ID:                  id.New(),
			Name:                "Eazy Recycling",
			ChamberOfCommerceID: "12345678",
			VIHBNumber:          "198080VIHB",
			ProcessorID:         "19808",
			VATNumber:           "NL001234567B01",
			Address: location.Address{
				Street: "Havenweg", HouseNumber: "1", PostalCode: "3011AA", City: "Rotterdam", Country: "NL",
			},
		},
		Consignor: &company.Company{
			ID:                  id.New(),
			Name:                "Bouwbedrijf De Vries",
			ChamberOfCommerceID: "87654321",
			VATNumber:           "NL009876543B01",
			Address: location.Address{
				Street: "Dorpsstraat", HouseNumber: "12", PostalCode: "1234AB", City: "Utrecht", Country: "NL",
			},
		},
		Carrier: &company.Company{
			ID:                  id.New(),
			Name:                "Snel Transport",
			ChamberOfCommerceID: "11112222",
			VIHBNumber:          "123456VXXB",
			Address:             location.Address{City: "Gouda", Country: "NL"},
		},
		Collector: &company.Company{
			ID:                  id.New(),
			Name:                "Inzamel BV",
			ChamberOfCommerceID: "33334444",
			VIHBNumber:          "654321VIHB",
			Address:             location.Address{City: "Delft", Country: "NL"},
		},
	}
	w.Companies = NewCompanies(w.Processor, w.Consignor, w.Carrier, w.Collector)
	return w
}

// StreamDetails returns valid DEFAULT-collection details picked up at
// the consignor's own address.
func (w *World) StreamDetails() wastestream.Details {
	return wastestream.Details{
		WasteType: wastestream.WasteType{
			Name:                 "Metalen",
			EuralCode:            "17 04 05",
			ProcessingMethodCode: "A.02",
		},
		CollectionType: wastestream.CollectionDefault,
		PickupLocation: location.Company{CompanyID: w.Consignor.ID},
		Delivery:       wastestream.Delivery{ProcessorCompanyID: w.Processor.ID, ProcessorID: w.Processor.ProcessorID},
		Consignor:      party.Company{CompanyID: w.Consignor.ID},
	}
}

// MetalItem is a MATERIAL catalog item priced per ton.
func MetalItem() *catalog.Item {
	return &catalog.Item{
		ID:              id.New(),
		Code:            "17 04 05",
		Name:            "IJzer en staal",
		Type:            catalog.ItemMaterial,
		Unit:            types.UnitTon,
		UnitPrice:       types.MustMoney("150.00"),
		VATCode:         "HIGH",
		VATPercentage:   decimal.NewFromInt(21),
		SalesAccount:    "8000",
		PurchaseAccount: "7000",
	}
}

// ProcessingItem is a SERVICE catalog item priced per kilogram.
func ProcessingItem() *catalog.Item {
	return &catalog.Item{
		ID:              id.New(),
		Code:            "VERWERKING",
		Name:            "Verwerkingskosten",
		Type:            catalog.ItemService,
		Unit:            types.UnitKilogram,
		UnitPrice:       types.MustMoney("0.05"),
		VATCode:         "HIGH",
		VATPercentage:   decimal.NewFromInt(21),
		SalesAccount:    "8100",
		PurchaseAccount: "7100",
	}
}

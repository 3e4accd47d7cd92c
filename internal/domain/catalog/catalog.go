// Package catalog exposes priced catalog items used on invoices.
package catalog

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/types"
)

// ItemType classifies catalog items.
type ItemType string

const (
	ItemMaterial ItemType = "MATERIAL"
	ItemWaste    ItemType = "WASTE"
	ItemService  ItemType = "SERVICE"
)

// Item is a sellable or purchasable article.
type Item struct {
	ID   id.ID    `json:"id"`
	Code string   `json:"code"`
	Name string   `json:"name"`
	Type ItemType `json:"type"`

	// Unit the price is expressed per.
	Unit      types.WeightUnit `json:"unit"`
	UnitPrice types.Money      `json:"unitPrice"`

	VATCode       string          `json:"vatCode"`
	VATPercentage decimal.Decimal `json:"vatPercentage"`

	SalesAccount    string `json:"salesAccount,omitempty"`
	PurchaseAccount string `json:"purchaseAccount,omitempty"`
}

// Lookup reads catalog items.
// Missing records are reported as NOT_FOUND AppErrors.
type Lookup interface {
	GetByID(ctx context.Context, itemID id.ID) (*Item, error)
	FindByCode(ctx context.Context, code string) (*Item, error)
}

package ledger_repo

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/types"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/catalog"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/company"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/location"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
)

// AddressRecord holds the address columns of companies and projects.
type AddressRecord struct {
	Street              string `db:"street"`
	HouseNumber         string `db:"house_number"`
	HouseNumberAddition string `db:"house_number_addition"`
	PostalCode          string `db:"postal_code"`
	City                string `db:"city"`
	Country             string `db:"country"`
}

func (a AddressRecord) toDomain() location.Address {
	return location.Address{
		Street:              a.Street,
		HouseNumber:         a.HouseNumber,
		HouseNumberAddition: a.HouseNumberAddition,
		PostalCode:          a.PostalCode,
		City:                a.City,
		Country:             a.Country,
	}
}

// CompanyRecord is one row of companies.
type CompanyRecord struct {
	ID                  id.ID  `db:"id"`
	Name                string `db:"name"`
	ChamberOfCommerceID string `db:"chamber_of_commerce_id"`
	VIHBNumber          string `db:"vihb_number"`
	ProcessorID         string `db:"processor_id"`
	VATNumber           string `db:"vat_number"`
	AddressRecord
}

// ProjectRecord is one row of company_projects.
type ProjectRecord struct {
	ID        id.ID  `db:"id"`
	CompanyID id.ID  `db:"company_id"`
	Name      string `db:"name"`
	AddressRecord
}

// CatalogItemRecord is one row of catalog_items.
type CatalogItemRecord struct {
	ID              id.ID           `db:"id"`
	Code            string          `db:"code"`
	Name            string          `db:"name"`
	Type            string          `db:"type"`
	Unit            string          `db:"unit"`
	UnitPrice       decimal.Decimal `db:"unit_price"`
	VATCode         string          `db:"vat_code"`
	VATPercentage   decimal.Decimal `db:"vat_percentage"`
	SalesAccount    string          `db:"sales_account"`
	PurchaseAccount string          `db:"purchase_account"`
}

// CompanyRepo implements company.Lookup. The registry is read-only here.
type CompanyRepo struct {
	companies *table[CompanyRecord]
	projects  *table[ProjectRecord]
}

var _ company.Lookup = (*CompanyRepo)(nil)

// NewCompanyRepo creates a new company lookup.
func NewCompanyRepo(txManager *postgres.TxManager) *CompanyRepo {
	return &CompanyRepo{
		companies: newTable[CompanyRecord](txManager, "companies", "company", "id"),
		projects:  newTable[ProjectRecord](txManager, "company_projects", "project", "id"),
	}
}

func (r *CompanyRepo) GetByID(ctx context.Context, companyID id.ID) (*company.Company, error) {
	rec, ok, err := r.companies.get(ctx, squirrel.Eq{"id": companyID}, false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewNotFoundWithCode(company.CodeCompanyNotFound, "company", companyID.String())
	}
	return rec.toDomain(), nil
}

// FindByChamberOfCommerceID returns the first company registered under kvk.
func (r *CompanyRepo) FindByChamberOfCommerceID(ctx context.Context, kvk string) (*company.Company, error) {
	rec, ok, err := r.companies.get(ctx, squirrel.Eq{"chamber_of_commerce_id": kvk}, false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewNotFoundWithCode(company.CodeCompanyNotFound, "company", kvk)
	}
	return rec.toDomain(), nil
}

func (r *CompanyRepo) GetProject(ctx context.Context, projectID id.ID) (*company.Project, error) {
	rec, ok, err := r.projects.get(ctx, squirrel.Eq{"id": projectID}, false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewNotFound("project", projectID.String())
	}
	return &company.Project{
		ID:        rec.ID,
		CompanyID: rec.CompanyID,
		Name:      rec.Name,
		Address:   rec.AddressRecord.toDomain(),
	}, nil
}

func (r *CompanyRecord) toDomain() *company.Company {
	return &company.Company{
		ID:                  r.ID,
		Name:                r.Name,
		ChamberOfCommerceID: r.ChamberOfCommerceID,
		VIHBNumber:          r.VIHBNumber,
		ProcessorID:         r.ProcessorID,
		VATNumber:           r.VATNumber,
		Address:             r.AddressRecord.toDomain(),
	}
}

// CatalogRepo implements catalog.Lookup.
type CatalogRepo struct {
	t *table[CatalogItemRecord]
}

var _ catalog.Lookup = (*CatalogRepo)(nil)

// NewCatalogRepo creates a new catalog lookup.
func NewCatalogRepo(txManager *postgres.TxManager) *CatalogRepo {
	return &CatalogRepo{t: newTable[CatalogItemRecord](txManager, "catalog_items", "catalog item", "id")}
}

func (r *CatalogRepo) GetByID(ctx context.Context, itemID id.ID) (*catalog.Item, error) {
	return r.get(ctx, squirrel.Eq{"id": itemID}, itemID.String())
}

func (r *CatalogRepo) FindByCode(ctx context.Context, code string) (*catalog.Item, error) {
	return r.get(ctx, squirrel.Eq{"code": code}, code)
}

func (r *CatalogRepo) get(ctx context.Context, where squirrel.Eq, key string) (*catalog.Item, error) {
	rec, ok, err := r.t.get(ctx, where, false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewNotFound("catalog item", key)
	}
	return &catalog.Item{
		ID:              rec.ID,
		Code:            rec.Code,
		Name:            rec.Name,
		Type:            catalog.ItemType(rec.Type),
		Unit:            types.WeightUnit(rec.Unit),
		UnitPrice:       rec.UnitPrice,
		VATCode:         rec.VATCode,
		VATPercentage:   rec.VATPercentage,
		SalesAccount:    rec.SalesAccount,
		PurchaseAccount: rec.PurchaseAccount,
	}, nil
}

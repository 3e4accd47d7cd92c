// Package company exposes the company registry to the core domain.
// The registry itself is maintained elsewhere; the core only reads it.
package company

import (
	"context"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/location"
)

// CodeCompanyNotFound is returned when a registration number is unknown.
const CodeCompanyNotFound = "COMPANY_NOT_FOUND"

// Company is a registered organisation.
type Company struct {
	ID   id.ID  `json:"id"`
	Name string `json:"name"`

	// ChamberOfCommerceID is the KvK registration number.
	ChamberOfCommerceID string `json:"chamberOfCommerceId"`

	// VIHBNumber identifies licensed carriers, collectors, dealers and brokers.
	VIHBNumber string `json:"vihbNumber,omitempty"`

	// ProcessorID is the 5-digit processor registration, empty for non-processors.
	ProcessorID string `json:"processorId,omitempty"`

	VATNumber string           `json:"vatNumber,omitempty"`
	Address   location.Address `json:"address"`
}

// IsProcessor reports whether the company may receive waste streams.
func (c *Company) IsProcessor() bool {
	return c.ProcessorID != ""
}

// Project is a site owned by a company.
type Project struct {
	ID        id.ID            `json:"id"`
	CompanyID id.ID            `json:"companyId"`
	Name      string           `json:"name"`
	Address   location.Address `json:"address"`
}

// Lookup reads companies and projects.
// Missing records are reported as NOT_FOUND AppErrors.
type Lookup interface {
	GetByID(ctx context.Context, companyID id.ID) (*Company, error)
	FindByChamberOfCommerceID(ctx context.Context, kvk string) (*Company, error)
	GetProject(ctx context.Context, projectID id.ID) (*Project, error)
}

// LocationResolver adapts a Lookup to location.Resolver.
type LocationResolver struct {
	Lookup Lookup
}

// CompanyAddress implements location.Resolver.
func (r LocationResolver) CompanyAddress(ctx context.Context, companyID id.ID) (location.Address, error) {
	c, err := r.Lookup.GetByID(ctx, companyID)
	if err != nil {
		return location.Address{}, err
	}
	return c.Address, nil
}

// ProjectAddress implements location.Resolver.
func (r LocationResolver) ProjectAddress(ctx context.Context, projectID id.ID) (location.Address, error) {
	p, err := r.Lookup.GetProject(ctx, projectID)
	if err != nil {
		return location.Address{}, err
	}
	return p.Address, nil
}

var _ location.Resolver = LocationResolver{}

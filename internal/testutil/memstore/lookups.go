package memstore

import (
	"context"
	"sync"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/catalog"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/company"
)

// Companies implements company.Lookup.
type Companies struct {
	mu       sync.RWMutex
	byID     map[id.ID]*company.Company
	projects map[id.ID]*company.Project
}

// NewCompanies creates a lookup holding companies.
func NewCompanies(companies ...*company.Company) *Companies {
	c := &Companies{
		byID:     make(map[id.ID]*company.Company),
		projects: make(map[id.ID]*company.Project),
	}
	for _, co := range companies {
		c.Add(co)
	}
	return c
}

// Add stores a company.
func (c *Companies) Add(co *company.Company) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[co.ID] = co
}

// AddProject stores a project.
func (c *Companies) AddProject(p *company.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projects[p.ID] = p
}

// GetByID implements company.Lookup.
func (c *Companies) GetByID(_ context.Context, companyID id.ID) (*company.Company, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	co, ok := c.byID[companyID]
	if !ok {
		return nil, apperror.NewNotFoundWithCode(company.CodeCompanyNotFound, "company", companyID)
	}
	return co, nil
}

// FindByChamberOfCommerceID implements company.Lookup.
func (c *Companies) FindByChamberOfCommerceID(_ context.Context, kvk string) (*company.Company, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, co := range c.byID {
		if co.ChamberOfCommerceID == kvk {
			return co, nil
		}
	}
	return nil, apperror.NewNotFoundWithCode(company.CodeCompanyNotFound, "company", kvk)
}

// GetProject implements company.Lookup.
func (c *Companies) GetProject(_ context.Context, projectID id.ID) (*company.Project, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.projects[projectID]
	if !ok {
		return nil, apperror.NewNotFound("project", projectID)
	}
	return p, nil
}

// Catalog implements catalog.Lookup.
type Catalog struct {
	mu    sync.RWMutex
	items map[id.ID]*catalog.Item
}

// NewCatalog creates a lookup holding items.
func NewCatalog(items ...*catalog.Item) *Catalog {
	c := &Catalog{items: make(map[id.ID]*catalog.Item)}
	for _, it := range items {
		c.items[it.ID] = it
	}
	return c
}

// GetByID implements catalog.Lookup.
func (c *Catalog) GetByID(_ context.Context, itemID id.ID) (*catalog.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("catalog item", itemID)
	}
	return it, nil
}

// FindByCode implements catalog.Lookup.
func (c *Catalog) FindByCode(_ context.Context, code string) (*catalog.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if it.Code == code {
			return it, nil
		}
	}
	return nil, apperror.NewNotFound("catalog item", code)
}

var (
	_ company.Lookup = (*Companies)(nil)
	_ catalog.Lookup = (*Catalog)(nil)
)

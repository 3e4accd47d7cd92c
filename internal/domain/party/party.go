// Package party models who hands off or handles waste.
package party

import (
	"strings"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
)

// Kind discriminates the variants in storage and on the wire.
type Kind string

const (
	KindCompany Kind = "COMPANY"
	KindPerson  Kind = "PERSON"
)

// Party is either a registered Company or a private Person.
type Party interface {
	Kind() Kind
	sealed()
}

// Company references a registered company.
type Company struct {
	CompanyID id.ID
}

// Person is a private individual. Only a display name is kept.
type Person struct {
	Name string
}

func (Company) Kind() Kind { return KindCompany }
func (Person) Kind() Kind  { return KindPerson }

func (Company) sealed() {}
func (Person) sealed()  {}

// CompanyID returns the company id when p is a Company.
func CompanyID(p Party) (id.ID, bool) {
	if c, ok := p.(Company); ok {
		return c.CompanyID, true
	}
	return id.Nil(), false
}

// IsCompany reports whether p is a registered company.
func IsCompany(p Party) bool {
	_, ok := p.(Company)
	return ok
}

// Validate checks that p is set and complete.
func Validate(field string, p Party) error {
	switch v := p.(type) {
	case nil:
		return apperror.NewValidation(field+" is required").WithDetail("field", field)
	case Company:
		if id.IsNil(v.CompanyID) {
			return apperror.NewValidation(field+" requires a company").WithDetail("field", field)
		}
	case Person:
		if strings.TrimSpace(v.Name) == "" {
			return apperror.NewValidation(field+" requires a name").WithDetail("field", field)
		}
	}
	return nil
}

// Fields is the flat representation used by storage records and DTOs.
type Fields struct {
	Kind       Kind   `json:"type"`
	CompanyID  *id.ID `json:"companyId,omitempty"`
	PersonName string `json:"name,omitempty"`
}

// Flatten converts p into Fields.
func Flatten(p Party) Fields {
	switch v := p.(type) {
	case Company:
		cid := v.CompanyID
		return Fields{Kind: KindCompany, CompanyID: &cid}
	case Person:
		return Fields{Kind: KindPerson, PersonName: v.Name}
	default:
		return Fields{}
	}
}

// Party rebuilds the variant described by f. Empty fields yield nil.
func (f Fields) Party() (Party, error) {
	switch f.Kind {
	case "":
		return nil, nil
	case KindCompany:
		if f.CompanyID == nil {
			return Company{}, nil
		}
		return Company{CompanyID: *f.CompanyID}, nil
	case KindPerson:
		return Person{Name: f.PersonName}, nil
	default:
		return nil, apperror.NewValidation("unknown party type").WithDetail("type", string(f.Kind))
	}
}

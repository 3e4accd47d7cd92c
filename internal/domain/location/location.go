// Package location models the places waste is picked up from.
//
// Location is a closed sum type: the only implementations are the
// variants declared in this file. Consumers switch over them with
// an error default rather than a panic.
package location

import (
	"fmt"
	"strings"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
)

// Kind discriminates the variants in storage and on the wire.
type Kind string

const (
	KindNone      Kind = "NONE"
	KindCompany   Kind = "COMPANY"
	KindProject   Kind = "PROJECT"
	KindAddress   Kind = "ADDRESS"
	KindProximity Kind = "PROXIMITY"
)

// Location is one of None, Company, Project, Address or Proximity.
type Location interface {
	Kind() Kind
	sealed()
}

// None means no pickup location is recorded.
type None struct{}

// Company is the registered address of a company.
type Company struct {
	CompanyID id.ID
}

// Project is a project site owned by a company.
type Project struct {
	ProjectID id.ID
	CompanyID id.ID
}

// Address is a free street address.
type Address struct {
	Street              string
	HouseNumber         string
	HouseNumberAddition string
	PostalCode          string
	City                string
	Country             string
}

// Proximity describes a place without a street address
// ("parking lot next to the harbour").
type Proximity struct {
	Description string
	PostalCode  string
	City        string
	Country     string
}

func (None) Kind() Kind      { return KindNone }
func (Company) Kind() Kind   { return KindCompany }
func (Project) Kind() Kind   { return KindProject }
func (Address) Kind() Kind   { return KindAddress }
func (Proximity) Kind() Kind { return KindProximity }

func (None) sealed()      {}
func (Company) sealed()   {}
func (Project) sealed()   {}
func (Address) sealed()   {}
func (Proximity) sealed() {}

// IsPresent reports whether l names an actual place.
func IsPresent(l Location) bool {
	if l == nil {
		return false
	}
	_, none := l.(None)
	return !none
}

// OrNone normalises a nil location.
func OrNone(l Location) Location {
	if l == nil {
		return None{}
	}
	return l
}

// Validate checks the fields each variant needs.
func Validate(l Location) error {
	switch v := OrNone(l).(type) {
	case None:
		return nil
	case Company:
		if id.IsNil(v.CompanyID) {
			return invalid("companyId", "company location requires a company")
		}
	case Project:
		if id.IsNil(v.ProjectID) {
			return invalid("projectId", "project location requires a project")
		}
	case Address:
		if strings.TrimSpace(v.PostalCode) == "" {
			return invalid("postalCode", "address requires a postal code")
		}
		if strings.TrimSpace(v.HouseNumber) == "" {
			return invalid("houseNumber", "address requires a house number")
		}
		if strings.TrimSpace(v.City) == "" {
			return invalid("city", "address requires a city")
		}
	case Proximity:
		if strings.TrimSpace(v.Description) == "" {
			return invalid("description", "proximity location requires a description")
		}
		if strings.TrimSpace(v.City) == "" {
			return invalid("city", "proximity location requires a city")
		}
	default:
		return unknownKind(l)
	}
	return nil
}

func invalid(field, msg string) error {
	return apperror.NewValidation(msg).WithDetail("field", "pickupLocation."+field)
}

func unknownKind(l Location) error {
	return apperror.NewInternal(fmt.Errorf("unhandled location variant %T", l))
}

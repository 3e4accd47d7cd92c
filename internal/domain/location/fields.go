package location

import (
	"fmt"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
)

// Fields is the flat representation used by storage records and DTOs.
type Fields struct {
	Kind                Kind   `json:"type"`
	CompanyID           *id.ID `json:"companyId,omitempty"`
	ProjectID           *id.ID `json:"projectId,omitempty"`
	Street              string `json:"street,omitempty"`
	HouseNumber         string `json:"houseNumber,omitempty"`
	HouseNumberAddition string `json:"houseNumberAddition,omitempty"`
	PostalCode          string `json:"postalCode,omitempty"`
	City                string `json:"city,omitempty"`
	Country             string `json:"country,omitempty"`
	Description         string `json:"description,omitempty"`
}

// Flatten converts a Location into Fields.
func Flatten(l Location) Fields {
	switch v := OrNone(l).(type) {
	case Company:
		return Fields{Kind: KindCompany, CompanyID: ptr(v.CompanyID)}
	case Project:
		return Fields{Kind: KindProject, ProjectID: ptr(v.ProjectID), CompanyID: ptr(v.CompanyID)}
	case Address:
		return Fields{
			Kind:                KindAddress,
			Street:              v.Street,
			HouseNumber:         v.HouseNumber,
			HouseNumberAddition: v.HouseNumberAddition,
			PostalCode:          v.PostalCode,
			City:                v.City,
			Country:             v.Country,
		}
	case Proximity:
		return Fields{
			Kind:        KindProximity,
			Description: v.Description,
			PostalCode:  v.PostalCode,
			City:        v.City,
			Country:     v.Country,
		}
	default:
		return Fields{Kind: KindNone}
	}
}

// Location rebuilds the variant described by f.
func (f Fields) Location() (Location, error) {
	switch f.Kind {
	case KindNone, "":
		return None{}, nil
	case KindCompany:
		return Company{CompanyID: deref(f.CompanyID)}, nil
	case KindProject:
		return Project{ProjectID: deref(f.ProjectID), CompanyID: deref(f.CompanyID)}, nil
	case KindAddress:
		return Address{
			Street:              f.Street,
			HouseNumber:         f.HouseNumber,
			HouseNumberAddition: f.HouseNumberAddition,
			PostalCode:          f.PostalCode,
			City:                f.City,
			Country:             f.Country,
		}, nil
	case KindProximity:
		return Proximity{
			Description: f.Description,
			PostalCode:  f.PostalCode,
			City:        f.City,
			Country:     f.Country,
		}, nil
	default:
		return nil, apperror.NewValidation(fmt.Sprintf("unknown location type %q", f.Kind)).
			WithDetail("field", "type")
	}
}

func ptr(v id.ID) *id.ID {
	if id.IsNil(v) {
		return nil
	}
	return &v
}

func deref(v *id.ID) id.ID {
	if v == nil {
		return id.Nil()
	}
	return *v
}

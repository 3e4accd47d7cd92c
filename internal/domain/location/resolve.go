package location

import (
	"context"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
)

// Resolver loads the addresses referenced by Company and Project locations.
type Resolver interface {
	CompanyAddress(ctx context.Context, companyID id.ID) (Address, error)
	ProjectAddress(ctx context.Context, projectID id.ID) (Address, error)
}

// Origin is the flattened set of fields regulators expect for a pickup place.
type Origin struct {
	Street              string
	HouseNumber         string
	HouseNumberAddition string
	PostalCode          string
	City                string
	Country             string
	Description         string
}

// Resolve flattens l into origin fields, loading referenced addresses.
// None resolves to an empty Origin.
func Resolve(ctx context.Context, l Location, r Resolver) (Origin, error) {
	switch v := OrNone(l).(type) {
	case None:
		return Origin{}, nil
	case Company:
		addr, err := r.CompanyAddress(ctx, v.CompanyID)
		if err != nil {
			return Origin{}, err
		}
		return fromAddress(addr), nil
	case Project:
		addr, err := r.ProjectAddress(ctx, v.ProjectID)
		if err != nil {
			return Origin{}, err
		}
		return fromAddress(addr), nil
	case Address:
		return fromAddress(v), nil
	case Proximity:
		return Origin{
			PostalCode:  v.PostalCode,
			City:        v.City,
			Country:     v.Country,
			Description: v.Description,
		}, nil
	default:
		return Origin{}, unknownKind(l)
	}
}

// City returns the city of l.
func City(ctx context.Context, l Location, r Resolver) (string, error) {
	o, err := Resolve(ctx, l, r)
	if err != nil {
		return "", err
	}
	return o.City, nil
}

func fromAddress(a Address) Origin {
	return Origin{
		Street:              a.Street,
		HouseNumber:         a.HouseNumber,
		HouseNumberAddition: a.HouseNumberAddition,
		PostalCode:          a.PostalCode,
		City:                a.City,
		Country:             a.Country,
	}
}

package declaration

import (
	"context"
	"fmt"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/company"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/location"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/party"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
)

// StreamLookup loads a single stream.
type StreamLookup interface {
	GetByNumber(ctx context.Context, number wastestream.Number) (*wastestream.WasteStream, error)
}

// MessageBuilder assembles gateway messages from the stream registry.
type MessageBuilder struct {
	streams   StreamLookup
	companies company.Lookup
}

// NewMessageBuilder creates a MessageBuilder.
func NewMessageBuilder(streams StreamLookup, companies company.Lookup) *MessageBuilder {
	return &MessageBuilder{streams: streams, companies: companies}
}

// Build resolves parties and origin of the declared stream.
func (b *MessageBuilder) Build(ctx context.Context, d *Declaration) (Message, error) {
	ws, err := b.streams.GetByNumber(ctx, d.WasteStreamNumber)
	if err != nil {
		return Message{}, fmt.Errorf("load waste stream %s: %w", d.WasteStreamNumber, err)
	}

	consignor, err := b.party(ctx, ws.Consignor)
	if err != nil {
		return Message{}, err
	}
	origin, err := location.Resolve(ctx, ws.PickupLocation, company.LocationResolver{Lookup: b.companies})
	if err != nil {
		return Message{}, fmt.Errorf("resolve origin: %w", err)
	}

	msg := Message{
		DeclarationID:     d.ID.String(),
		Kind:              d.Kind,
		WasteStreamNumber: d.WasteStreamNumber.String(),
		Period:            d.Period.String(),
		Consignor:         consignor,
		Origin:            Origin(origin),
		Transporters:      append([]string{}, d.Transporters...),
		WasteName:         ws.WasteType.Name,
		EuralCode:         ws.WasteType.EuralCode,
		ProcessingMethod:  ws.WasteType.ProcessingMethodCode,
		TotalWeight:       d.TotalWeight,
		TotalShipments:    d.TotalShipments,
	}
	if msg.Collector, err = b.optionalCompany(ctx, ws.CollectorID); err != nil {
		return Message{}, err
	}
	if msg.Dealer, err = b.optionalCompany(ctx, ws.DealerID); err != nil {
		return Message{}, err
	}
	if msg.Broker, err = b.optionalCompany(ctx, ws.BrokerID); err != nil {
		return Message{}, err
	}
	return msg, nil
}

func (b *MessageBuilder) party(ctx context.Context, p party.Party) (PartyInfo, error) {
	switch v := p.(type) {
	case party.Company:
		info, err := b.company(ctx, v.CompanyID)
		if err != nil {
			return PartyInfo{}, err
		}
		return *info, nil
	case party.Person:
		return PartyInfo{Name: v.Name}, nil
	default:
		return PartyInfo{}, fmt.Errorf("unsupported party %T", p)
	}
}

func (b *MessageBuilder) optionalCompany(ctx context.Context, companyID *id.ID) (*PartyInfo, error) {
	if companyID == nil {
		return nil, nil
	}
	return b.company(ctx, *companyID)
}

func (b *MessageBuilder) company(ctx context.Context, companyID id.ID) (*PartyInfo, error) {
	c, err := b.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load company %s: %w", companyID, err)
	}
	return &PartyInfo{
		RegistrationNumber: c.ChamberOfCommerceID,
		VIHBNumber:         c.VIHBNumber,
		Name:               c.Name,
		Country:            c.Address.Country,
	}, nil
}

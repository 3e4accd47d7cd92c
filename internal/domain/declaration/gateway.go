package declaration

//go:generate mockgen -source=gateway.go -destination=gateway_mock.go -package=declaration

import (
	"context"
)

// GatewayName identifies the compliance gateway in errors and metrics.
const GatewayName = "lma"

// PartyInfo identifies a party towards the authority.
type PartyInfo struct {
	RegistrationNumber string `json:"registrationNumber,omitempty"`
	VIHBNumber         string `json:"vihbNumber,omitempty"`
	Name               string `json:"name"`
	Country            string `json:"country,omitempty"`
}

// Origin is where the waste was picked up.
type Origin struct {
	Street              string `json:"street,omitempty"`
	HouseNumber         string `json:"houseNumber,omitempty"`
	HouseNumberAddition string `json:"houseNumberAddition,omitempty"`
	PostalCode          string `json:"postalCode,omitempty"`
	City                string `json:"city,omitempty"`
	Country             string `json:"country,omitempty"`
	Description         string `json:"description,omitempty"`
}

// Message is the payload of one declaration.
type Message struct {
	DeclarationID     string     `json:"declarationId"`
	Kind              Kind       `json:"kind"`
	WasteStreamNumber string     `json:"wasteStreamNumber"`
	Period            string     `json:"period"`
	Consignor         PartyInfo  `json:"consignor"`
	Collector         *PartyInfo `json:"collector,omitempty"`
	Dealer            *PartyInfo `json:"dealer,omitempty"`
	Broker            *PartyInfo `json:"broker,omitempty"`
	Origin            Origin     `json:"origin"`
	Transporters      []string   `json:"transporters"`
	WasteName         string     `json:"wasteName"`
	EuralCode         string     `json:"euralCode"`
	ProcessingMethod  string     `json:"processingMethod"`
	TotalWeight       int64      `json:"totalWeight"`
	TotalShipments    int        `json:"totalShipments"`
}

// Acknowledgement is the gateway answer to a message.
type Acknowledgement struct {
	Accepted  bool     `json:"accepted"`
	Reference string   `json:"reference,omitempty"`
	Reasons   []string `json:"reasons,omitempty"`
}

// Gateway transmits declarations to the authority.
type Gateway interface {
	Submit(ctx context.Context, msg Message) (Acknowledgement, error)
}

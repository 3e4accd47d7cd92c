package ledger_repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/transport"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
)

// TransportRecord is one row of transports.
type TransportRecord struct {
	ID                id.ID      `db:"id"`
	WeightTicketID    int64      `db:"weight_ticket_id"`
	Consignor         []byte     `db:"consignor"`
	CarrierID         *id.ID     `db:"carrier_id"`
	PickupLocation    []byte     `db:"pickup_location"`
	DeliveryLocation  []byte     `db:"delivery_location"`
	PickupDateTime    time.Time  `db:"pickup_date_time"`
	DeliveryDateTime  *time.Time `db:"delivery_date_time"`
	TruckLicensePlate string     `db:"truck_license_plate"`
	Goods             []byte     `db:"goods"`
	StampsRecord
}

// TransportRepo implements transport.Repository.
type TransportRepo struct {
	t *table[TransportRecord]
}

var _ transport.Repository = (*TransportRepo)(nil)

// NewTransportRepo creates a new transport repository.
func NewTransportRepo(txManager *postgres.TxManager) *TransportRepo {
	return &TransportRepo{t: newTable[TransportRecord](txManager, "transports", "transport", "id")}
}

func (r *TransportRepo) Create(ctx context.Context, t *transport.Transport) error {
	consignor, err := encodeParty(t.Consignor)
	if err != nil {
		return err
	}
	pickup, err := encodeLocation(t.PickupLocation)
	if err != nil {
		return err
	}
	delivery, err := encodeLocation(t.DeliveryLocation)
	if err != nil {
		return err
	}
	goods, err := json.Marshal(t.Goods)
	if err != nil {
		return fmt.Errorf("encode goods: %w", err)
	}
	return r.t.insert(ctx, &TransportRecord{
		ID:                t.ID,
		WeightTicketID:    t.WeightTicketID,
		Consignor:         consignor,
		CarrierID:         t.CarrierID,
		PickupLocation:    pickup,
		DeliveryLocation:  delivery,
		PickupDateTime:    t.PickupDateTime,
		DeliveryDateTime:  t.DeliveryDateTime,
		TruckLicensePlate: t.TruckLicensePlate,
		Goods:             goods,
		StampsRecord:      stampsToRecord(t.Stamps),
	})
}

func (r *TransportRepo) GetByID(ctx context.Context, transportID id.ID) (*transport.Transport, error) {
	rec, ok, err := r.t.get(ctx, squirrel.Eq{"id": transportID}, false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewNotFound("transport", transportID.String())
	}

	consignor, err := decodeParty(rec.Consignor)
	if err != nil {
		return nil, err
	}
	pickup, err := decodeLocation(rec.PickupLocation)
	if err != nil {
		return nil, err
	}
	delivery, err := decodeLocation(rec.DeliveryLocation)
	if err != nil {
		return nil, err
	}
	var goods []transport.Goods
	if len(rec.Goods) > 0 {
		if err := json.Unmarshal(rec.Goods, &goods); err != nil {
			return nil, fmt.Errorf("decode goods: %w", err)
		}
	}

	return &transport.Transport{
		ID:                rec.ID,
		WeightTicketID:    rec.WeightTicketID,
		Consignor:         consignor,
		CarrierID:         rec.CarrierID,
		PickupLocation:    pickup,
		DeliveryLocation:  delivery,
		PickupDateTime:    rec.PickupDateTime.UTC(),
		DeliveryDateTime:  rec.DeliveryDateTime,
		TruckLicensePlate: rec.TruckLicensePlate,
		Goods:             goods,
		Stamps:            rec.StampsRecord.stamps(),
	}, nil
}

package ledger_repo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/types"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/weightticket"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
)

// WeightTicketRecord is one row of weight_tickets.
type WeightTicketRecord struct {
	ID                 int64               `db:"id"`
	Status             string              `db:"status"`
	Consignor          []byte              `db:"consignor"`
	Direction          string              `db:"direction"`
	PickupLocation     []byte              `db:"pickup_location"`
	DeliveryLocation   []byte              `db:"delivery_location"`
	CarrierID          *id.ID              `db:"carrier_id"`
	TruckLicensePlate  string              `db:"truck_license_plate"`
	WeightedAt         time.Time           `db:"weighted_at"`
	Note               string              `db:"note"`
	TarraValue         decimal.NullDecimal `db:"tarra_value"`
	TarraUnit          *string             `db:"tarra_unit"`
	CancellationReason string              `db:"cancellation_reason"`
	InvoiceID          *int64              `db:"invoice_id"`
	TransportID        *id.ID              `db:"transport_id"`
	StampsRecord
}

// WeightTicketLineRecord is one row of weight_ticket_lines.
type WeightTicketLineRecord struct {
	WeightTicketID    int64           `db:"weight_ticket_id"`
	LineNo            int             `db:"line_no"`
	WasteStreamNumber string          `db:"waste_stream_number"`
	WeightValue       decimal.Decimal `db:"weight_value"`
	WeightUnit        string          `db:"weight_unit"`
	CatalogItemID     *id.ID          `db:"catalog_item_id"`
}

func weightTicketToRecord(t *weightticket.WeightTicket) (*WeightTicketRecord, []*WeightTicketLineRecord, error) {
	consignor, err := encodeParty(t.Consignor)
	if err != nil {
		return nil, nil, err
	}
	pickup, err := encodeLocation(t.PickupLocation)
	if err != nil {
		return nil, nil, err
	}
	delivery, err := encodeLocation(t.DeliveryLocation)
	if err != nil {
		return nil, nil, err
	}
	rec := &WeightTicketRecord{
		ID:                 t.ID,
		Status:             string(t.Status),
		Consignor:          consignor,
		Direction:          string(t.Direction),
		PickupLocation:     pickup,
		DeliveryLocation:   delivery,
		CarrierID:          t.CarrierID,
		TruckLicensePlate:  t.TruckLicensePlate,
		WeightedAt:         t.WeightedAt,
		Note:               t.Note,
		CancellationReason: t.CancellationReason,
		InvoiceID:          t.InvoiceID,
		TransportID:        t.TransportID,
		StampsRecord:       stampsToRecord(t.Stamps),
	}
	if t.Tarra != nil {
		unit := string(t.Tarra.Unit)
		rec.TarraValue = decimal.NewNullDecimal(t.Tarra.Value)
		rec.TarraUnit = &unit
	}

	lines := make([]*WeightTicketLineRecord, len(t.Lines))
	for i, l := range t.Lines {
		lines[i] = &WeightTicketLineRecord{
			WeightTicketID:    t.ID,
			LineNo:            i + 1,
			WasteStreamNumber: string(l.WasteStreamNumber),
			WeightValue:       l.Weight.Value,
			WeightUnit:        string(l.Weight.Unit),
			CatalogItemID:     l.CatalogItemID,
		}
	}
	return rec, lines, nil
}

func (r *WeightTicketRecord) toDomain(lines []*WeightTicketLineRecord) (*weightticket.WeightTicket, error) {
	consignor, err := decodeParty(r.Consignor)
	if err != nil {
		return nil, err
	}
	pickup, err := decodeLocation(r.PickupLocation)
	if err != nil {
		return nil, err
	}
	delivery, err := decodeLocation(r.DeliveryLocation)
	if err != nil {
		return nil, err
	}

	t := &weightticket.WeightTicket{
		ID: r.ID,
		Details: weightticket.Details{
			Consignor:         consignor,
			Direction:         weightticket.Direction(r.Direction),
			PickupLocation:    pickup,
			DeliveryLocation:  delivery,
			CarrierID:         r.CarrierID,
			TruckLicensePlate: r.TruckLicensePlate,
			WeightedAt:        r.WeightedAt.UTC(),
			Note:              r.Note,
		},
		Status:             weightticket.Status(r.Status),
		CancellationReason: r.CancellationReason,
		InvoiceID:          r.InvoiceID,
		TransportID:        r.TransportID,
		Stamps:             r.StampsRecord.stamps(),
	}
	if r.TarraValue.Valid {
		unit := types.UnitKilogram
		if r.TarraUnit != nil {
			unit = types.WeightUnit(*r.TarraUnit)
		}
		t.Tarra = &types.Weight{Value: r.TarraValue.Decimal, Unit: unit}
	}
	for _, l := range lines {
		t.Lines = append(t.Lines, weightticket.Line{
			WasteStreamNumber: wastestream.Number(l.WasteStreamNumber),
			Weight:            types.Weight{Value: l.WeightValue, Unit: types.WeightUnit(l.WeightUnit)},
			CatalogItemID:     l.CatalogItemID,
		})
	}
	return t, nil
}

// WeightTicketRepo implements weightticket.Repository.
type WeightTicketRepo struct {
	t     *table[WeightTicketRecord]
	lines *table[WeightTicketLineRecord]
}

var _ weightticket.Repository = (*WeightTicketRepo)(nil)

// NewWeightTicketRepo creates a new weight ticket repository.
func NewWeightTicketRepo(txManager *postgres.TxManager) *WeightTicketRepo {
	t := newTable[WeightTicketRecord](txManager, "weight_tickets", "weight ticket", "id")
	t.sortable["id"] = "id"
	t.sortable["status"] = "status"
	t.sortable["weighted_at"] = "weighted_at"
	return &WeightTicketRepo{
		t:     t,
		lines: newTable[WeightTicketLineRecord](txManager, "weight_ticket_lines", "weight ticket line", "weight_ticket_id"),
	}
}

// Create inserts the ticket and its lines. It must run inside a transaction.
func (r *WeightTicketRepo) Create(ctx context.Context, t *weightticket.WeightTicket) error {
	rec, lines, err := weightTicketToRecord(t)
	if err != nil {
		return err
	}
	if err := r.t.insert(ctx, rec); err != nil {
		return err
	}
	return r.insertLines(ctx, lines)
}

// Update writes the ticket and replaces its lines.
func (r *WeightTicketRepo) Update(ctx context.Context, t *weightticket.WeightTicket) error {
	rec, lines, err := weightTicketToRecord(t)
	if err != nil {
		return err
	}
	version, err := r.t.update(ctx, rec)
	if err != nil {
		return err
	}

	sql, args, err := r.lines.Builder().
		Delete(r.lines.name).
		Where(squirrel.Eq{"weight_ticket_id": t.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.lines.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete weight ticket lines: %w", err)
	}
	if err := r.insertLines(ctx, lines); err != nil {
		return err
	}

	t.SetVersion(version)
	return nil
}

func (r *WeightTicketRepo) insertLines(ctx context.Context, lines []*WeightTicketLineRecord) error {
	if len(lines) == 0 {
		return nil
	}
	q := r.lines.Builder().Insert(r.lines.name).Columns(r.lines.cols...)
	for _, l := range lines {
		q = q.Values(postgres.StructValues(l)...)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.lines.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return r.lines.mapError(err, lines[0].WeightTicketID)
	}
	return nil
}

func (r *WeightTicketRepo) GetByID(ctx context.Context, ticketID int64) (*weightticket.WeightTicket, error) {
	return r.get(ctx, ticketID, false)
}

func (r *WeightTicketRepo) GetForUpdate(ctx context.Context, ticketID int64) (*weightticket.WeightTicket, error) {
	return r.get(ctx, ticketID, true)
}

func (r *WeightTicketRepo) get(ctx context.Context, ticketID int64, forUpdate bool) (*weightticket.WeightTicket, error) {
	rec, ok, err := r.t.get(ctx, squirrel.Eq{"id": ticketID}, forUpdate)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewNotFound("weight ticket", ticketID)
	}
	lines, err := r.loadLines(ctx, []int64{ticketID})
	if err != nil {
		return nil, err
	}
	return rec.toDomain(lines[ticketID])
}

func (r *WeightTicketRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*weightticket.WeightTicket], error) {
	result := domain.ListResult[*weightticket.WeightTicket]{Limit: filter.Limit, Offset: filter.Offset}

	q := r.t.selectAll()
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		search := squirrel.Or{
			squirrel.ILike{"truck_license_plate": pattern},
			squirrel.ILike{"note": pattern},
			squirrel.Expr("id IN (SELECT weight_ticket_id FROM weight_ticket_lines WHERE waste_stream_number LIKE ?)", pattern),
		}
		if n, err := strconv.ParseInt(filter.Search, 10, 64); err == nil {
			search = append(search, squirrel.Eq{"id": n})
		}
		q = q.Where(search)
	}

	recs, total, err := r.t.page(ctx, q, filter.OrderBy, filter.Limit, filter.Offset)
	if err != nil {
		return result, err
	}

	ids := make([]int64, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return result, err
	}

	result.Items = make([]*weightticket.WeightTicket, 0, len(recs))
	for _, rec := range recs {
		t, err := rec.toDomain(lines[rec.ID])
		if err != nil {
			return result, fmt.Errorf("map weight ticket %d: %w", rec.ID, err)
		}
		result.Items = append(result.Items, t)
	}
	result.TotalCount = total
	return result, nil
}

func (r *WeightTicketRepo) loadLines(ctx context.Context, ticketIDs []int64) (map[int64][]*WeightTicketLineRecord, error) {
	out := make(map[int64][]*WeightTicketLineRecord, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return out, nil
	}
	recs, err := r.lines.selectWhere(ctx, r.lines.selectAll().
		Where(squirrel.Eq{"weight_ticket_id": ticketIDs}).
		OrderBy("weight_ticket_id", "line_no"))
	if err != nil {
		return nil, err
	}
	for _, l := range recs {
		out[l.WeightTicketID] = append(out[l.WeightTicketID], l)
	}
	return out, nil
}

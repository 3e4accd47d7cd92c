package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
)

// WasteStreamRecord is one row of waste_streams.
type WasteStreamRecord struct {
	Number                      string    `db:"number"`
	Status                      string    `db:"status"`
	LastActivityAt              time.Time `db:"last_activity_at"`
	WasteName                   string    `db:"waste_name"`
	EuralCode                   string    `db:"eural_code"`
	EuralDescription            string    `db:"eural_description"`
	ProcessingMethodCode        string    `db:"processing_method_code"`
	ProcessingMethodDescription string    `db:"processing_method_description"`
	CollectionType              string    `db:"collection_type"`
	PickupLocation              []byte    `db:"pickup_location"`
	ProcessorCompanyID          id.ID     `db:"processor_company_id"`
	ProcessorID                 string    `db:"processor_id"`
	Consignor                   []byte    `db:"consignor"`
	ConsignorClassification     string    `db:"consignor_classification"`
	PickupParty                 []byte    `db:"pickup_party"`
	DealerID                    *id.ID    `db:"dealer_id"`
	CollectorID                 *id.ID    `db:"collector_id"`
	BrokerID                    *id.ID    `db:"broker_id"`
	CatalogItemID               *id.ID    `db:"catalog_item_id"`
	StampsRecord
}

func wasteStreamToRecord(ws *wastestream.WasteStream) (*WasteStreamRecord, error) {
	pickup, err := encodeLocation(ws.PickupLocation)
	if err != nil {
		return nil, err
	}
	consignor, err := encodeParty(ws.Consignor)
	if err != nil {
		return nil, err
	}
	pickupParty, err := encodeParty(ws.PickupParty)
	if err != nil {
		return nil, err
	}
	return &WasteStreamRecord{
		Number:                      string(ws.Number),
		Status:                      string(ws.Status),
		LastActivityAt:              ws.LastActivityAt,
		WasteName:                   ws.WasteType.Name,
		EuralCode:                   ws.WasteType.EuralCode,
		EuralDescription:            ws.WasteType.EuralDescription,
		ProcessingMethodCode:        ws.WasteType.ProcessingMethodCode,
		ProcessingMethodDescription: ws.WasteType.ProcessingMethodDescription,
		CollectionType:              string(ws.CollectionType),
		PickupLocation:              pickup,
		ProcessorCompanyID:          ws.Delivery.ProcessorCompanyID,
		ProcessorID:                 ws.Delivery.ProcessorID,
		Consignor:                   consignor,
		ConsignorClassification:     string(ws.ConsignorClassification),
		PickupParty:                 pickupParty,
		DealerID:                    ws.DealerID,
		CollectorID:                 ws.CollectorID,
		BrokerID:                    ws.BrokerID,
		CatalogItemID:               ws.CatalogItemID,
		StampsRecord:                stampsToRecord(ws.Stamps),
	}, nil
}

func (r *WasteStreamRecord) toDomain() (*wastestream.WasteStream, error) {
	pickup, err := decodeLocation(r.PickupLocation)
	if err != nil {
		return nil, err
	}
	consignor, err := decodeParty(r.Consignor)
	if err != nil {
		return nil, err
	}
	pickupParty, err := decodeParty(r.PickupParty)
	if err != nil {
		return nil, err
	}
	return &wastestream.WasteStream{
		Number: wastestream.Number(r.Number),
		Details: wastestream.Details{
			WasteType: wastestream.WasteType{
				Name:                        r.WasteName,
				EuralCode:                   r.EuralCode,
				EuralDescription:            r.EuralDescription,
				ProcessingMethodCode:        r.ProcessingMethodCode,
				ProcessingMethodDescription: r.ProcessingMethodDescription,
			},
			CollectionType: wastestream.CollectionType(r.CollectionType),
			PickupLocation: pickup,
			Delivery: wastestream.Delivery{
				ProcessorCompanyID: r.ProcessorCompanyID,
				ProcessorID:        r.ProcessorID,
			},
			Consignor:               consignor,
			ConsignorClassification: wastestream.ConsignorClassification(r.ConsignorClassification),
			PickupParty:             pickupParty,
			DealerID:                r.DealerID,
			CollectorID:             r.CollectorID,
			BrokerID:                r.BrokerID,
			CatalogItemID:           r.CatalogItemID,
		},
		Status:         wastestream.Status(r.Status),
		LastActivityAt: r.LastActivityAt.UTC(),
		Stamps:         r.StampsRecord.stamps(),
	}, nil
}

// WasteStreamRepo implements wastestream.Repository.
type WasteStreamRepo struct {
	t *table[WasteStreamRecord]
}

var _ wastestream.Repository = (*WasteStreamRepo)(nil)

// NewWasteStreamRepo creates a new waste stream repository.
func NewWasteStreamRepo(txManager *postgres.TxManager) *WasteStreamRepo {
	t := newTable[WasteStreamRecord](txManager, "waste_streams", "waste stream", "number")
	t.sortable["number"] = "number"
	t.sortable["status"] = "status"
	t.sortable["last_activity_at"] = "last_activity_at"
	t.sortable["eural_code"] = "eural_code"
	return &WasteStreamRepo{t: t}
}

func (r *WasteStreamRepo) Create(ctx context.Context, ws *wastestream.WasteStream) error {
	rec, err := wasteStreamToRecord(ws)
	if err != nil {
		return err
	}
	if err := r.t.insert(ctx, rec); err != nil {
		if apperror.HasCode(err, apperror.CodeDuplicate) {
			return apperror.NewDuplicate("waste stream", "number", string(ws.Number))
		}
		return err
	}
	return nil
}

func (r *WasteStreamRepo) Update(ctx context.Context, ws *wastestream.WasteStream) error {
	rec, err := wasteStreamToRecord(ws)
	if err != nil {
		return err
	}
	version, err := r.t.update(ctx, rec)
	if err != nil {
		return err
	}
	ws.SetVersion(version)
	return nil
}

func (r *WasteStreamRepo) GetByNumber(ctx context.Context, number wastestream.Number) (*wastestream.WasteStream, error) {
	return r.get(ctx, number, false)
}

func (r *WasteStreamRepo) GetForUpdate(ctx context.Context, number wastestream.Number) (*wastestream.WasteStream, error) {
	return r.get(ctx, number, true)
}

func (r *WasteStreamRepo) get(ctx context.Context, number wastestream.Number, forUpdate bool) (*wastestream.WasteStream, error) {
	rec, ok, err := r.t.get(ctx, squirrel.Eq{"number": string(number)}, forUpdate)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewNotFound("waste stream", string(number))
	}
	return rec.toDomain()
}

func (r *WasteStreamRepo) Exists(ctx context.Context, number wastestream.Number) (bool, error) {
	sql, args, err := r.t.Builder().
		Select("COUNT(*)").
		From(r.t.name).
		Where(squirrel.Eq{"number": string(number)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	var n int
	if err := r.t.querier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return n > 0, nil
}

func (r *WasteStreamRepo) FindByNumbers(ctx context.Context, numbers []wastestream.Number) ([]*wastestream.WasteStream, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	recs, err := r.t.selectWhere(ctx, r.t.selectAll().
		Where(squirrel.Eq{"number": numberStrings(numbers)}).
		OrderBy("number"))
	if err != nil {
		return nil, err
	}
	return streamsToDomain(recs)
}

func (r *WasteStreamRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*wastestream.WasteStream], error) {
	result := domain.ListResult[*wastestream.WasteStream]{Limit: filter.Limit, Offset: filter.Offset}

	q := r.t.selectAll()
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"waste_name": pattern},
			squirrel.ILike{"eural_code": pattern},
		})
	}

	recs, total, err := r.t.page(ctx, q, filter.OrderBy, filter.Limit, filter.Offset)
	if err != nil {
		return result, err
	}
	items, err := streamsToDomain(recs)
	if err != nil {
		return result, err
	}
	result.Items = items
	result.TotalCount = total
	return result, nil
}

// RecordActivity never moves last_activity_at backwards and leaves the
// version alone: activity is not an edit of the stream.
func (r *WasteStreamRepo) RecordActivity(ctx context.Context, numbers []wastestream.Number, at time.Time) error {
	if len(numbers) == 0 {
		return nil
	}
	sql, args, err := r.t.Builder().
		Update(r.t.name).
		Set("last_activity_at", squirrel.Expr("GREATEST(last_activity_at, ?)", at.UTC())).
		Where(squirrel.Eq{"number": numberStrings(numbers)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := r.t.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

func streamsToDomain(recs []*WasteStreamRecord) ([]*wastestream.WasteStream, error) {
	out := make([]*wastestream.WasteStream, 0, len(recs))
	for _, rec := range recs {
		ws, err := rec.toDomain()
		if err != nil {
			return nil, fmt.Errorf("map waste stream %s: %w", rec.Number, err)
		}
		out = append(out, ws)
	}
	return out, nil
}

func numberStrings(numbers []wastestream.Number) []string {
	out := make([]string, len(numbers))
	for i, n := range numbers {
		out[i] = string(n)
	}
	return out
}

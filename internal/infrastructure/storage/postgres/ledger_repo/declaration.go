package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/core/id"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/declaration"
	"github.com/Colossus92/eazy-recycling-sub004/internal/domain/wastestream"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
)

// DeclarationRecord is one row of lma_declarations.
type DeclarationRecord struct {
	ID                id.ID      `db:"id"`
	WasteStreamNumber string     `db:"waste_stream_number"`
	Period            string     `db:"period"`
	Kind              string     `db:"kind"`
	TotalWeight       int64      `db:"total_weight"`
	TotalShipments    int        `db:"total_shipments"`
	Transporters      []string   `db:"transporters"`
	Status            string     `db:"status"`
	Errors            []string   `db:"errors"`
	GatewayReference  string     `db:"gateway_reference"`
	SubmittedAt       *time.Time `db:"submitted_at"`
	ApprovedBy        string     `db:"approved_by"`
	StampsRecord
}

func declarationToRecord(d *declaration.Declaration) *DeclarationRecord {
	return &DeclarationRecord{
		ID:                d.ID,
		WasteStreamNumber: string(d.WasteStreamNumber),
		Period:            d.Period.String(),
		Kind:              string(d.Kind),
		TotalWeight:       d.TotalWeight,
		TotalShipments:    d.TotalShipments,
		Transporters:      nonNil(d.Transporters),
		Status:            string(d.Status),
		Errors:            nonNil(d.Errors),
		GatewayReference:  d.GatewayReference,
		SubmittedAt:       d.SubmittedAt,
		ApprovedBy:        d.ApprovedBy,
		StampsRecord:      stampsToRecord(d.Stamps),
	}
}

func (r *DeclarationRecord) toDomain() (*declaration.Declaration, error) {
	period, err := declaration.ParseYearMonth(r.Period)
	if err != nil {
		return nil, fmt.Errorf("declaration %s: %w", r.ID, err)
	}
	return &declaration.Declaration{
		ID:                r.ID,
		WasteStreamNumber: wastestream.Number(r.WasteStreamNumber),
		Period:            period,
		Kind:              declaration.Kind(r.Kind),
		TotalWeight:       r.TotalWeight,
		TotalShipments:    r.TotalShipments,
		Transporters:      r.Transporters,
		Status:            declaration.Status(r.Status),
		Errors:            r.Errors,
		GatewayReference:  r.GatewayReference,
		SubmittedAt:       r.SubmittedAt,
		ApprovedBy:        r.ApprovedBy,
		Stamps:            r.StampsRecord.stamps(),
	}, nil
}

// DeclarationRepo implements declaration.Repository.
type DeclarationRepo struct {
	t *table[DeclarationRecord]
}

var _ declaration.Repository = (*DeclarationRepo)(nil)

// NewDeclarationRepo creates a new declaration repository.
func NewDeclarationRepo(txManager *postgres.TxManager) *DeclarationRepo {
	t := newTable[DeclarationRecord](txManager, "lma_declarations", "declaration", "id")
	t.defaultOrder = "period DESC, waste_stream_number ASC, created_at ASC"
	return &DeclarationRepo{t: t}
}

// Create inserts d. A second regular declaration for the same stream and
// period violates uq_lma_declarations_regular and is reported as a duplicate.
func (r *DeclarationRepo) Create(ctx context.Context, d *declaration.Declaration) error {
	return r.t.insert(ctx, declarationToRecord(d))
}

func (r *DeclarationRepo) Update(ctx context.Context, d *declaration.Declaration) error {
	version, err := r.t.update(ctx, declarationToRecord(d))
	if err != nil {
		return err
	}
	d.SetVersion(version)
	return nil
}

func (r *DeclarationRepo) GetByID(ctx context.Context, declarationID id.ID) (*declaration.Declaration, error) {
	return r.get(ctx, declarationID, false)
}

func (r *DeclarationRepo) GetForUpdate(ctx context.Context, declarationID id.ID) (*declaration.Declaration, error) {
	return r.get(ctx, declarationID, true)
}

func (r *DeclarationRepo) get(ctx context.Context, declarationID id.ID, forUpdate bool) (*declaration.Declaration, error) {
	rec, ok, err := r.t.get(ctx, squirrel.Eq{"id": declarationID}, forUpdate)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperror.NewNotFoundWithCode(declaration.CodeNotFound, "declaration", declarationID.String())
	}
	return rec.toDomain()
}

func (r *DeclarationRepo) ForPeriod(ctx context.Context, period declaration.YearMonth) ([]*declaration.Declaration, error) {
	return r.selectDomain(ctx, r.t.selectAll().
		Where(squirrel.Eq{"period": period.String()}).
		OrderBy("waste_stream_number", "created_at"))
}

func (r *DeclarationRepo) ForStream(ctx context.Context, number wastestream.Number, period declaration.YearMonth) ([]*declaration.Declaration, error) {
	return r.selectDomain(ctx, r.t.selectAll().
		Where(squirrel.Eq{"waste_stream_number": string(number), "period": period.String()}).
		OrderBy("created_at"))
}

// DeclaredBefore compares periods as strings; YYYY-MM sorts chronologically.
func (r *DeclarationRepo) DeclaredBefore(ctx context.Context, numbers []wastestream.Number, period declaration.YearMonth) ([]wastestream.Number, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	sql, args, err := r.t.Builder().
		Select("DISTINCT waste_stream_number").
		From(r.t.name).
		Where(squirrel.Eq{
			"waste_stream_number": numberStrings(numbers),
			"status":              string(declaration.StatusSubmitted),
		}).
		Where(squirrel.Lt{"period": period.String()}).
		OrderBy("waste_stream_number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.t.querier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("declared before: %w", err)
	}
	defer rows.Close()

	var out []wastestream.Number
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan declared stream: %w", err)
		}
		out = append(out, wastestream.Number(n))
	}
	return out, rows.Err()
}

func (r *DeclarationRepo) List(ctx context.Context, filter declaration.Filter) (domain.ListResult[*declaration.Declaration], error) {
	result := domain.ListResult[*declaration.Declaration]{Limit: filter.Limit, Offset: filter.Offset}

	q := r.t.selectAll()
	if filter.Period != nil {
		q = q.Where(squirrel.Eq{"period": filter.Period.String()})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": string(filter.Status)})
	}
	if filter.WasteStreamNumber != "" {
		q = q.Where(squirrel.Eq{"waste_stream_number": string(filter.WasteStreamNumber)})
	}

	recs, total, err := r.t.page(ctx, q, "", filter.Limit, filter.Offset)
	if err != nil {
		return result, err
	}
	items, err := declarationsToDomain(recs)
	if err != nil {
		return result, err
	}
	result.Items = items
	result.TotalCount = total
	return result, nil
}

func (r *DeclarationRepo) selectDomain(ctx context.Context, q squirrel.SelectBuilder) ([]*declaration.Declaration, error) {
	recs, err := r.t.selectWhere(ctx, q)
	if err != nil {
		return nil, err
	}
	return declarationsToDomain(recs)
}

func declarationsToDomain(recs []*DeclarationRecord) ([]*declaration.Declaration, error) {
	out := make([]*declaration.Declaration, 0, len(recs))
	for _, rec := range recs {
		d, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

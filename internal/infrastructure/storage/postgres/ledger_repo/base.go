// Package ledger_repo provides PostgreSQL implementations of the ledger
// repositories and the read side of the company and catalog registries.
package ledger_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Colossus92/eazy-recycling-sub004/internal/core/apperror"
	"github.com/Colossus92/eazy-recycling-sub004/internal/infrastructure/storage/postgres"
)

// Postgres error codes mapped to AppErrors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// table provides common CRUD operations over one record type.
// R is the storage record; its "db" tags must match the table columns.
type table[R any] struct {
	txManager *postgres.TxManager
	name      string
	entity    string
	key       string
	cols      []string

	// sortable maps API field names to columns.
	sortable     map[string]string
	defaultOrder string
}

func newTable[R any](txManager *postgres.TxManager, name, entity, key string) *table[R] {
	return &table[R]{
		txManager:    txManager,
		name:         name,
		entity:       entity,
		key:          key,
		cols:         postgres.ExtractDBColumns[R](),
		sortable:     map[string]string{"created_at": "created_at", "updated_at": "updated_at"},
		defaultOrder: key + " ASC",
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (t *table[R]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (t *table[R]) querier(ctx context.Context) postgres.Querier {
	return t.txManager.GetQuerier(ctx)
}

func (t *table[R]) filtered(data map[string]any, skip ...string) map[string]any {
	out := make(map[string]any, len(t.cols))
	for _, col := range t.cols {
		if contains(skip, col) {
			continue
		}
		if val, ok := data[col]; ok {
			out[col] = val
		}
	}
	return out
}

// insert writes rec using its "db" tags.
func (t *table[R]) insert(ctx context.Context, rec *R) error {
	data := postgres.StructToMap(rec)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in %s record", t.name)
	}

	sql, args, err := t.Builder().Insert(t.name).SetMap(t.filtered(data)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := t.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return t.mapError(err, data[t.key])
	}
	return nil
}

// update writes rec if its version still matches and returns the new version.
func (t *table[R]) update(ctx context.Context, rec *R) (int, error) {
	data := postgres.StructToMap(rec)
	key, ok := data[t.key]
	if !ok {
		return 0, fmt.Errorf("%s record has no %q field with db tag", t.name, t.key)
	}
	version, ok := data["version"].(int)
	if !ok {
		return 0, fmt.Errorf("%s record has no int version field", t.name)
	}

	q := t.Builder().
		Update(t.name).
		SetMap(t.filtered(data, t.key, "version", "created_at", "created_by")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{t.key: key}).
		Where(squirrel.Eq{"version": version})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}
	result, err := t.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, t.mapError(err, key)
	}
	if result.RowsAffected() == 0 {
		return 0, apperror.NewConcurrentModification(t.entity, key)
	}
	return version + 1, nil
}

func (t *table[R]) selectAll() squirrel.SelectBuilder {
	return t.Builder().Select(t.cols...).From(t.name)
}

// get loads the single row matching where. ok is false when nothing matched.
func (t *table[R]) get(ctx context.Context, where any, forUpdate bool) (*R, bool, error) {
	q := t.selectAll().Where(where).Limit(1)
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build query: %w", err)
	}

	rec := new(R)
	if err := pgxscan.Get(ctx, t.querier(ctx), rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get %s: %w", t.name, err)
	}
	return rec, true, nil
}

func (t *table[R]) selectWhere(ctx context.Context, q squirrel.SelectBuilder) ([]*R, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var recs []*R
	if err := pgxscan.Select(ctx, t.querier(ctx), &recs, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", t.name, err)
	}
	return recs, nil
}

// page counts every row of q, then loads one ordered page.
func (t *table[R]) page(ctx context.Context, q squirrel.SelectBuilder, orderBy string, limit, offset int) ([]*R, int64, error) {
	countSQL, countArgs, err := t.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var total int64
	if err := t.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", t.name, err)
	}

	order, err := t.parseOrderBy(orderBy)
	if err != nil {
		return nil, 0, err
	}
	q = q.OrderBy(order)
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}

	recs, err := t.selectWhere(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

// parseOrderBy turns "field" or "-field" into an ORDER BY clause.
// Only allowlisted fields are accepted.
func (t *table[R]) parseOrderBy(orderBy string) (string, error) {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		return t.defaultOrder, nil
	}
	dir := "ASC"
	if strings.HasPrefix(orderBy, "-") {
		dir = "DESC"
		orderBy = orderBy[1:]
	}
	col, ok := t.sortable[orderBy]
	if !ok {
		return "", apperror.NewValidation(fmt.Sprintf("cannot order by %q", orderBy)).
			WithDetail("field", "orderBy")
	}
	return col + " " + dir, nil
}

func (t *table[R]) mapError(err error, key any) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.NewDuplicate(t.entity, pgErr.ConstraintName, fmt.Sprint(key)).WithCause(err)
		case pgForeignKeyViolation:
			return apperror.NewConflict(t.entity+" references a record that does not exist").
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		}
	}
	return fmt.Errorf("write %s: %w", t.name, err)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

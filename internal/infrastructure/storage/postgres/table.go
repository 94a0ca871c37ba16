package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"foodchain/internal/core/apperror"
	"foodchain/internal/domain"
)

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Table provides the CRUD plumbing shared by every repository.
// Columns come from the "db" tags of T.
type Table[T any] struct {
	txm        *TxManager
	name       string
	entity     string
	cols       []string
	onConflict ConflictMapper
}

// NewTable creates a table accessor. entity is the name used in errors.
func NewTable[T any](txm *TxManager, name, entity string) *Table[T] {
	return &Table[T]{
		txm:    txm,
		name:   name,
		entity: entity,
		cols:   ExtractDBColumns[T](),
	}
}

// OnConflict sets the unique violation mapper.
func (t *Table[T]) OnConflict(fn ConflictMapper) *Table[T] {
	t.onConflict = fn
	return t
}

// Name returns the table name.
func (t *Table[T]) Name() string { return t.name }

// Columns returns the selected columns.
func (t *Table[T]) Columns() []string { return t.cols }

// Querier returns the transaction in ctx or the pool.
func (t *Table[T]) Querier(ctx context.Context) Querier {
	return t.txm.GetQuerier(ctx)
}

// Select creates a SELECT builder over all columns.
func (t *Table[T]) Select() squirrel.SelectBuilder {
	return Builder().Select(t.cols...).From(t.name)
}

func (t *Table[T]) row(v *T) map[string]any {
	data := StructToMap(v)
	out := make(map[string]any, len(t.cols))
	for _, col := range t.cols {
		if val, ok := data[col]; ok {
			out[col] = val
		}
	}
	return out
}

// Insert writes v using its "db" tags.
func (t *Table[T]) Insert(ctx context.Context, v *T) error {
	sql, args, err := Builder().Insert(t.name).SetMap(t.row(v)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := t.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return t.translate(fmt.Errorf("insert %s: %w", t.name, err))
	}
	return nil
}

// Update writes v with optimistic locking. v carries the next version, which
// must be exactly one above the stored one.
func (t *Table[T]) Update(ctx context.Context, v *T) error {
	data := t.row(v)
	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("%s: entity has no 'id' column", t.name)
	}
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("%s: entity has no int 'version' column", t.name)
	}

	set := make(map[string]any, len(data))
	for col, val := range data {
		if col == "id" || col == "created_at" || col == "created_by" {
			continue
		}
		set[col] = val
	}

	sql, args, err := Builder().
		Update(t.name).
		SetMap(set).
		Where(squirrel.Eq{"id": entityID, "version": version - 1}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := t.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return t.translate(fmt.Errorf("update %s: %w", t.name, err))
	}
	if res.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(t.entity, entityID)
	}
	return nil
}

// Get runs q and scans one row. key is reported in NOT_FOUND.
func (t *Table[T]) Get(ctx context.Context, q squirrel.SelectBuilder, key any) (*T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	v := new(T)
	if err := pgxscan.Get(ctx, t.Querier(ctx), v, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(t.entity, key)
		}
		return nil, fmt.Errorf("get %s: %w", t.name, err)
	}
	return v, nil
}

// GetBy fetches the row matching where.
func (t *Table[T]) GetBy(ctx context.Context, where squirrel.Sqlizer, key any) (*T, error) {
	return t.Get(ctx, t.Select().Where(where).Limit(1), key)
}

// GetForUpdate fetches the row matching where and locks it until the
// surrounding transaction ends.
func (t *Table[T]) GetForUpdate(ctx context.Context, where squirrel.Sqlizer, key any) (*T, error) {
	return t.Get(ctx, t.Select().Where(where).Suffix("FOR UPDATE"), key)
}

// Find runs q and scans every row.
func (t *Table[T]) Find(ctx context.Context, q squirrel.SelectBuilder) ([]*T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	items := make([]*T, 0)
	if err := pgxscan.Select(ctx, t.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", t.name, err)
	}
	return items, nil
}

// Exists reports whether a row matches where.
func (t *Table[T]) Exists(ctx context.Context, where squirrel.Sqlizer) (bool, error) {
	sql, args, err := Builder().Select("1").From(t.name).Where(where).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	var one int
	err = t.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", t.name, err)
	}
	return true, nil
}

// Delete removes the rows matching where and returns how many went.
func (t *Table[T]) Delete(ctx context.Context, where squirrel.Sqlizer) (int64, error) {
	sql, args, err := Builder().Delete(t.name).Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	res, err := t.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, t.translate(fmt.Errorf("delete %s: %w", t.name, err))
	}
	return res.RowsAffected(), nil
}

// Page counts and fetches one page of q. sortable lists the columns OrderBy may name.
func (t *Table[T]) Page(ctx context.Context, q squirrel.SelectBuilder, f domain.ListFilter, sortable ...string) (domain.ListResult[*T], error) {
	result := domain.ListResult[*T]{Limit: f.Limit, Offset: f.Offset}

	countSQL, countArgs, err := Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := t.Querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count %s: %w", t.name, err)
	}

	orderBy, err := ParseOrderBy(f.OrderBy, "created_at DESC", sortable...)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy, "id")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	items, err := t.Find(ctx, q)
	if err != nil {
		return result, err
	}
	result.Items = items
	return result, nil
}

func (t *Table[T]) translate(err error) error {
	return TranslateError(t.entity, err, t.onConflict)
}

// ParseOrderBy validates "col" or "-col" against allowed columns.
func ParseOrderBy(orderBy, fallback string, allowed ...string) (string, error) {
	if orderBy == "" {
		return fallback, nil
	}
	desc := strings.HasPrefix(orderBy, "-")
	col := strings.TrimPrefix(orderBy, "-")

	for _, a := range append([]string{"created_at"}, allowed...) {
		if a != col {
			continue
		}
		if desc {
			return col + " DESC", nil
		}
		return col + " ASC", nil
	}
	return "", apperror.NewValidation("invalid sort field").WithDetail("orderBy", orderBy)
}

// DocumentFilter applies the party, status, search and date filters shared by
// document lists. numberCol is the column Search matches.
func DocumentFilter(q squirrel.SelectBuilder, f domain.ListFilter, numberCol string) squirrel.SelectBuilder {
	if f.RetailerID != nil {
		q = q.Where(squirrel.Eq{"retailer_id": *f.RetailerID})
	}
	if f.ManufacturerID != nil {
		q = q.Where(squirrel.Eq{"manufacturer_id": *f.ManufacturerID})
	}
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"status": f.Status})
	}
	if f.Search != "" && numberCol != "" {
		q = q.Where(squirrel.ILike{numberCol: "%" + f.Search + "%"})
	}
	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.DateFrom})
	}
	if f.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *f.DateTo})
	}
	return q
}

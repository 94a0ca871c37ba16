package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/domain"
	"foodchain/internal/domain/commission"
	"foodchain/internal/infrastructure/storage/postgres"
)

const commissionsTable = "reg_commissions"

// CommissionRepo implements commission.Repository.
type CommissionRepo struct {
	t *postgres.Table[commission.Commission]
}

var _ commission.Repository = (*CommissionRepo)(nil)

// NewCommissionRepo creates a new commission repository.
func NewCommissionRepo(txm *postgres.TxManager) *CommissionRepo {
	return &CommissionRepo{
		t: postgres.NewTable[commission.Commission](txm, commissionsTable, "commission"),
	}
}

func (r *CommissionRepo) Create(ctx context.Context, c *commission.Commission) error {
	err := r.t.Insert(ctx, c)
	if apperror.Is(err, apperror.CodeDuplicateReference) {
		return apperror.NewDuplicate("commission", "saleId", c.SaleID.String())
	}
	return err
}

func (r *CommissionRepo) GetByID(ctx context.Context, commissionID id.ID) (*commission.Commission, error) {
	return r.t.GetBy(ctx, squirrel.Eq{"id": commissionID}, commissionID)
}

func (r *CommissionRepo) GetForUpdate(ctx context.Context, commissionID id.ID) (*commission.Commission, error) {
	return r.t.GetForUpdate(ctx, squirrel.Eq{"id": commissionID}, commissionID)
}

func (r *CommissionRepo) Update(ctx context.Context, c *commission.Commission) error {
	return r.t.Update(ctx, c)
}

// ListPendingForUpdate locks rows in id order so concurrent settlements
// of the same retailer queue instead of deadlocking.
func (r *CommissionRepo) ListPendingForUpdate(ctx context.Context, retailerID id.ID) ([]*commission.Commission, error) {
	q := r.t.Select().
		Where(squirrel.Eq{"retailer_id": retailerID, "status": commission.StatusPending}).
		OrderBy("id").
		Suffix("FOR UPDATE")
	return r.t.Find(ctx, q)
}

func (r *CommissionRepo) Summary(ctx context.Context, retailerID id.ID) (commission.Summary, error) {
	sum := commission.Summary{RetailerID: retailerID}

	sql, args, err := postgres.Builder().
		Select(
			"COUNT(*) FILTER (WHERE status = 'PENDING') AS pending_count",
			"COALESCE(SUM(amount) FILTER (WHERE status = 'PENDING'), 0) AS pending_total",
			"COUNT(*) FILTER (WHERE status = 'PAID') AS paid_count",
			"COALESCE(SUM(amount) FILTER (WHERE status = 'PAID'), 0) AS paid_total",
		).
		From(commissionsTable).
		Where(squirrel.Eq{"retailer_id": retailerID}).
		ToSql()
	if err != nil {
		return sum, fmt.Errorf("build summary query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.t.Querier(ctx), &sum, sql, args...); err != nil {
		return sum, fmt.Errorf("commission summary: %w", err)
	}
	sum.RetailerID = retailerID
	return sum, nil
}

func (r *CommissionRepo) List(ctx context.Context, filter commission.ListFilter) (domain.ListResult[*commission.Commission], error) {
	f := filter.ListFilter
	f.ManufacturerID = nil

	q := postgres.DocumentFilter(r.t.Select(), f, "")
	if filter.MaterialID != nil {
		q = q.Where(squirrel.Eq{"material_id": *filter.MaterialID})
	}
	return r.t.Page(ctx, q, f, "amount", "paid_at")
}

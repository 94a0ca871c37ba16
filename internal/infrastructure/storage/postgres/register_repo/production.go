package register_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/domain"
	"foodchain/internal/domain/production"
	"foodchain/internal/infrastructure/storage/postgres"
)

const batchesTable = "reg_production_batches"

// ProductionRepo implements production.Repository.
type ProductionRepo struct {
	t *postgres.Table[production.Batch]
}

var _ production.Repository = (*ProductionRepo)(nil)

// NewProductionRepo creates a new production batch repository.
func NewProductionRepo(txm *postgres.TxManager) *ProductionRepo {
	return &ProductionRepo{
		t: postgres.NewTable[production.Batch](txm, batchesTable, "production_batch"),
	}
}

func (r *ProductionRepo) Create(ctx context.Context, b *production.Batch) error {
	err := r.t.Insert(ctx, b)
	if apperror.Is(err, apperror.CodeDuplicateReference) {
		return apperror.NewDuplicate("production_batch", "batchNumber", b.BatchNumber)
	}
	return err
}

func (r *ProductionRepo) GetByID(ctx context.Context, batchID id.ID) (*production.Batch, error) {
	return r.t.GetBy(ctx, squirrel.Eq{"id": batchID}, batchID)
}

func (r *ProductionRepo) ExistsByNumber(ctx context.Context, manufacturerID id.ID, batchNumber string) (bool, error) {
	return r.t.Exists(ctx, squirrel.Eq{"manufacturer_id": manufacturerID, "batch_number": batchNumber})
}

func (r *ProductionRepo) List(ctx context.Context, filter production.ListFilter) (domain.ListResult[*production.Batch], error) {
	f := filter.ListFilter
	f.RetailerID = nil
	f.Status = ""

	q := postgres.DocumentFilter(r.t.Select(), f, "batch_number")
	if filter.MaterialID != nil {
		q = q.Where(squirrel.Eq{"material_id": *filter.MaterialID})
	}
	return r.t.Page(ctx, q, f, "batch_number", "manufacture_date", "expiry_date")
}

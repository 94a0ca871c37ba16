package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/domain/catalogs/assignment"
	"foodchain/internal/infrastructure/storage/postgres"
)

const assignmentTable = "cat_assignments"

// AssignmentRepo implements assignment.Repository.
type AssignmentRepo struct {
	t *postgres.Table[assignment.Assignment]
}

var _ assignment.Repository = (*AssignmentRepo)(nil)

// NewAssignmentRepo creates a new assignment repository.
func NewAssignmentRepo(txm *postgres.TxManager) *AssignmentRepo {
	return &AssignmentRepo{
		t: postgres.NewTable[assignment.Assignment](txm, assignmentTable, "assignment"),
	}
}

func (r *AssignmentRepo) Create(ctx context.Context, a *assignment.Assignment) error {
	err := r.t.Insert(ctx, a)
	if apperror.Is(err, apperror.CodeDuplicateReference) {
		return apperror.NewDuplicate("assignment", "retailer_manufacturer",
			fmt.Sprintf("%s/%s", a.RetailerID, a.ManufacturerID))
	}
	return err
}

func (r *AssignmentRepo) Update(ctx context.Context, a *assignment.Assignment) error {
	return r.t.Update(ctx, a)
}

func (r *AssignmentRepo) GetByPair(ctx context.Context, retailerID, manufacturerID id.ID) (*assignment.Assignment, error) {
	return r.t.GetBy(ctx,
		squirrel.Eq{"retailer_id": retailerID, "manufacturer_id": manufacturerID},
		fmt.Sprintf("%s/%s", retailerID, manufacturerID))
}

func (r *AssignmentRepo) ListByRetailer(ctx context.Context, retailerID id.ID, activeOnly bool) ([]*assignment.Assignment, error) {
	return r.list(ctx, squirrel.Eq{"retailer_id": retailerID}, activeOnly)
}

func (r *AssignmentRepo) ListByManufacturer(ctx context.Context, manufacturerID id.ID, activeOnly bool) ([]*assignment.Assignment, error) {
	return r.list(ctx, squirrel.Eq{"manufacturer_id": manufacturerID}, activeOnly)
}

func (r *AssignmentRepo) list(ctx context.Context, where squirrel.Eq, activeOnly bool) ([]*assignment.Assignment, error) {
	q := r.t.Select().Where(where)
	if activeOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	return r.t.Find(ctx, q.OrderBy("created_at"))
}

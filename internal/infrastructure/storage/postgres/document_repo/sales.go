package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"foodchain/internal/core/id"
	"foodchain/internal/domain"
	"foodchain/internal/domain/sales"
	"foodchain/internal/infrastructure/storage/postgres"
)

// SaleRepo implements sales.Repository. Sales have no lines.
type SaleRepo struct {
	t *postgres.Table[sales.Sale]
}

var _ sales.Repository = (*SaleRepo)(nil)

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txm *postgres.TxManager) *SaleRepo {
	return &SaleRepo{t: postgres.NewTable[sales.Sale](txm, "doc_sales", "sale")}
}

func (r *SaleRepo) Create(ctx context.Context, s *sales.Sale) error {
	return r.t.Insert(ctx, s)
}

func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	return r.t.GetBy(ctx, squirrel.Eq{"id": saleID}, saleID)
}

func (r *SaleRepo) List(ctx context.Context, filter sales.ListFilter) (domain.ListResult[*sales.Sale], error) {
	f := filter.ListFilter
	f.ManufacturerID = nil
	f.Status = ""

	q := postgres.DocumentFilter(r.t.Select(), f, "number")
	if filter.MaterialID != nil {
		q = q.Where(squirrel.Eq{"material_id": *filter.MaterialID})
	}
	return r.t.Page(ctx, q, f, "number", "sale_amount", "units_sold")
}

// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/domain"
	"foodchain/internal/domain/catalogs/material"
	"foodchain/internal/infrastructure/storage/postgres"
)

const materialTable = "cat_materials"

// MaterialRepo implements material.Repository.
type MaterialRepo struct {
	t *postgres.Table[material.Material]
}

var _ material.Repository = (*MaterialRepo)(nil)

// NewMaterialRepo creates a new material repository.
func NewMaterialRepo(txm *postgres.TxManager) *MaterialRepo {
	return &MaterialRepo{
		t: postgres.NewTable[material.Material](txm, materialTable, "material").
			OnConflict(func(constraint string) error {
				if constraint == "ux_cat_materials_code" {
					return apperror.NewDuplicate("material", "code", "")
				}
				return nil
			}),
	}
}

func (r *MaterialRepo) Create(ctx context.Context, m *material.Material) error {
	return r.t.Insert(ctx, m)
}

func (r *MaterialRepo) Update(ctx context.Context, m *material.Material) error {
	return r.t.Update(ctx, m)
}

func (r *MaterialRepo) GetByID(ctx context.Context, materialID id.ID) (*material.Material, error) {
	return r.t.GetBy(ctx, squirrel.Eq{"id": materialID}, materialID)
}

// GetByCode matches codes case-insensitively.
func (r *MaterialRepo) GetByCode(ctx context.Context, code string) (*material.Material, error) {
	return r.t.GetBy(ctx, squirrel.Expr("lower(code) = lower(?)", code), code)
}

func (r *MaterialRepo) GetForUpdate(ctx context.Context, materialID id.ID) (*material.Material, error) {
	return r.t.GetForUpdate(ctx, squirrel.Eq{"id": materialID}, materialID)
}

func (r *MaterialRepo) List(ctx context.Context, filter material.ListFilter) (domain.ListResult[*material.Material], error) {
	q := r.t.Select()
	if !filter.IncludeInactive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"name": pattern},
		})
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "code"
	}
	return r.t.Page(ctx, q, filter.ListFilter, "code", "name", "updated_at")
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/domain"
	"foodchain/internal/domain/catalogs/assignment"
	"foodchain/internal/domain/catalogs/material"
)

// MaterialRepo implements material.Repository.
type MaterialRepo struct{ s *Store }

// Materials returns the material repository.
func (s *Store) Materials() *MaterialRepo { return &MaterialRepo{s: s} }

var _ material.Repository = (*MaterialRepo)(nil)

func (r *MaterialRepo) Create(ctx context.Context, m *material.Material) error {
	return r.s.write(ctx, func(u *undoLog) error {
		if _, ok := r.s.materials.get(m.ID); ok {
			return apperror.NewDuplicate("material", "id", m.ID.String())
		}
		if r.byCode(m.Code) != nil {
			return apperror.NewDuplicate("material", "code", m.Code)
		}
		r.s.materials.set(u, m.ID, *m)
		return nil
	})
}

func (r *MaterialRepo) Update(ctx context.Context, m *material.Material) error {
	return r.s.write(ctx, func(u *undoLog) error {
		stored, ok := r.s.materials.get(m.ID)
		if !ok {
			return apperror.NewNotFound("material", m.ID)
		}
		if err := checkVersion("material", m.ID, stored.Version, m.Version); err != nil {
			return err
		}
		if other := r.byCode(m.Code); other != nil && other.ID != m.ID {
			return apperror.NewDuplicate("material", "code", m.Code)
		}
		r.s.materials.set(u, m.ID, *m)
		return nil
	})
}

func (r *MaterialRepo) GetByID(ctx context.Context, materialID id.ID) (*material.Material, error) {
	var (
		m  material.Material
		ok bool
	)
	r.s.read(ctx, func() { m, ok = r.s.materials.get(materialID) })
	if !ok {
		return nil, apperror.NewNotFound("material", materialID)
	}
	return &m, nil
}

func (r *MaterialRepo) GetByCode(ctx context.Context, code string) (*material.Material, error) {
	var found *material.Material
	r.s.read(ctx, func() {
		if m := r.byCode(code); m != nil {
			v := *m
			found = &v
		}
	})
	if found == nil {
		return nil, apperror.NewNotFound("material", code)
	}
	return found, nil
}

func (r *MaterialRepo) GetForUpdate(ctx context.Context, materialID id.ID) (*material.Material, error) {
	return r.GetByID(ctx, materialID)
}

func (r *MaterialRepo) List(ctx context.Context, filter material.ListFilter) (domain.ListResult[*material.Material], error) {
	var items []*material.Material
	search := strings.ToLower(filter.Search)
	r.s.read(ctx, func() {
		for _, m := range r.s.materials.scan(func(m material.Material) bool {
			if !filter.IncludeInactive && !m.IsActive {
				return false
			}
			return search == "" ||
				strings.Contains(strings.ToLower(m.Code), search) ||
				strings.Contains(strings.ToLower(m.Name), search)
		}) {
			items = append(items, &m)
		}
	})
	sort.SliceStable(items, func(i, j int) bool { return items[i].Code < items[j].Code })
	return domain.Page(items, filter.ListFilter), nil
}

// byCode expects the caller to hold the store lock.
func (r *MaterialRepo) byCode(code string) *material.Material {
	for _, m := range r.s.materials.rows {
		if strings.EqualFold(m.Code, code) {
			return &m
		}
	}
	return nil
}

// AssignmentRepo implements assignment.Repository.
type AssignmentRepo struct{ s *Store }

// Assignments returns the assignment repository.
func (s *Store) Assignments() *AssignmentRepo { return &AssignmentRepo{s: s} }

var _ assignment.Repository = (*AssignmentRepo)(nil)

func (r *AssignmentRepo) Create(ctx context.Context, a *assignment.Assignment) error {
	return r.s.write(ctx, func(u *undoLog) error {
		if r.byPair(a.RetailerID, a.ManufacturerID) != nil {
			return apperror.NewDuplicate("assignment", "retailer_manufacturer",
				fmt.Sprintf("%s/%s", a.RetailerID, a.ManufacturerID))
		}
		r.s.assignments.set(u, a.ID, *a)
		return nil
	})
}

func (r *AssignmentRepo) Update(ctx context.Context, a *assignment.Assignment) error {
	return r.s.write(ctx, func(u *undoLog) error {
		stored, ok := r.s.assignments.get(a.ID)
		if !ok {
			return apperror.NewNotFound("assignment", a.ID)
		}
		if err := checkVersion("assignment", a.ID, stored.Version, a.Version); err != nil {
			return err
		}
		r.s.assignments.set(u, a.ID, *a)
		return nil
	})
}

func (r *AssignmentRepo) GetByPair(ctx context.Context, retailerID, manufacturerID id.ID) (*assignment.Assignment, error) {
	var found *assignment.Assignment
	r.s.read(ctx, func() { found = r.byPair(retailerID, manufacturerID) })
	if found == nil {
		return nil, apperror.NewNotFound("assignment", fmt.Sprintf("%s/%s", retailerID, manufacturerID))
	}
	return found, nil
}

func (r *AssignmentRepo) ListByRetailer(ctx context.Context, retailerID id.ID, activeOnly bool) ([]*assignment.Assignment, error) {
	return r.list(ctx, func(a assignment.Assignment) bool {
		return a.RetailerID == retailerID && (!activeOnly || a.IsActive)
	}), nil
}

func (r *AssignmentRepo) ListByManufacturer(ctx context.Context, manufacturerID id.ID, activeOnly bool) ([]*assignment.Assignment, error) {
	return r.list(ctx, func(a assignment.Assignment) bool {
		return a.ManufacturerID == manufacturerID && (!activeOnly || a.IsActive)
	}), nil
}

func (r *AssignmentRepo) list(ctx context.Context, keep func(assignment.Assignment) bool) []*assignment.Assignment {
	out := make([]*assignment.Assignment, 0)
	r.s.read(ctx, func() {
		for _, a := range r.s.assignments.scan(keep) {
			out = append(out, &a)
		}
	})
	return out
}

func (r *AssignmentRepo) byPair(retailerID, manufacturerID id.ID) *assignment.Assignment {
	for _, a := range r.s.assignments.rows {
		if a.RetailerID == retailerID && a.ManufacturerID == manufacturerID {
			return &a
		}
	}
	return nil
}

package memory

import (
	"context"
	"sort"
	"time"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/core/types"
	"foodchain/internal/domain"
	"foodchain/internal/domain/audit"
	"foodchain/internal/domain/commission"
	"foodchain/internal/domain/sales"
)

// SaleRepo implements sales.Repository.
type SaleRepo struct{ s *Store }

// Sales returns the sale repository.
func (s *Store) Sales() *SaleRepo { return &SaleRepo{s: s} }

var _ sales.Repository = (*SaleRepo)(nil)

func saleHeader(v *sales.Sale) docHeader {
	return docHeader{number: v.Number, retailerID: v.RetailerID, createdAt: v.CreatedAt}
}

func (r *SaleRepo) Create(ctx context.Context, v *sales.Sale) error {
	return r.s.write(ctx, func(u *undoLog) error {
		if _, ok := r.s.sales.get(v.ID); ok {
			return apperror.NewDuplicate("sale", "id", v.ID.String())
		}
		r.s.sales.set(u, v.ID, *v)
		return nil
	})
}

func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	var (
		v  sales.Sale
		ok bool
	)
	r.s.read(ctx, func() { v, ok = r.s.sales.get(saleID) })
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID)
	}
	return &v, nil
}

func (r *SaleRepo) List(ctx context.Context, filter sales.ListFilter) (domain.ListResult[*sales.Sale], error) {
	var items []*sales.Sale
	r.s.read(ctx, func() {
		for _, v := range r.s.sales.scan(func(v sales.Sale) bool {
			if filter.MaterialID != nil && v.MaterialID != *filter.MaterialID {
				return false
			}
			return saleHeader(&v).matches(filter.ListFilter)
		}) {
			items = append(items, &v)
		}
	})
	return sortAndPage(items, filter.ListFilter, saleHeader), nil
}

// CommissionRepo implements commission.Repository.
type CommissionRepo struct{ s *Store }

// Commissions returns the commission repository.
func (s *Store) Commissions() *CommissionRepo { return &CommissionRepo{s: s} }

var _ commission.Repository = (*CommissionRepo)(nil)

func commissionHeader(c *commission.Commission) docHeader {
	return docHeader{status: string(c.Status), retailerID: c.RetailerID, createdAt: c.CreatedAt}
}

func (r *CommissionRepo) Create(ctx context.Context, c *commission.Commission) error {
	return r.s.write(ctx, func(u *undoLog) error {
		for _, other := range r.s.commissions.rows {
			if other.SaleID == c.SaleID {
				return apperror.NewDuplicate("commission", "sale_id", c.SaleID.String())
			}
		}
		r.s.commissions.set(u, c.ID, *c)
		return nil
	})
}

func (r *CommissionRepo) GetByID(ctx context.Context, commissionID id.ID) (*commission.Commission, error) {
	var (
		c  commission.Commission
		ok bool
	)
	r.s.read(ctx, func() { c, ok = r.s.commissions.get(commissionID) })
	if !ok {
		return nil, apperror.NewNotFound("commission", commissionID)
	}
	return &c, nil
}

func (r *CommissionRepo) GetForUpdate(ctx context.Context, commissionID id.ID) (*commission.Commission, error) {
	return r.GetByID(ctx, commissionID)
}

func (r *CommissionRepo) Update(ctx context.Context, c *commission.Commission) error {
	return r.s.write(ctx, func(u *undoLog) error {
		stored, ok := r.s.commissions.get(c.ID)
		if !ok {
			return apperror.NewNotFound("commission", c.ID)
		}
		if err := checkVersion("commission", c.ID, stored.Version, c.Version); err != nil {
			return err
		}
		r.s.commissions.set(u, c.ID, *c)
		return nil
	})
}

func (r *CommissionRepo) ListPendingForUpdate(ctx context.Context, retailerID id.ID) ([]*commission.Commission, error) {
	out := make([]*commission.Commission, 0)
	r.s.read(ctx, func() {
		for _, c := range r.s.commissions.scan(func(c commission.Commission) bool {
			return c.RetailerID == retailerID && c.Status == commission.StatusPending
		}) {
			out = append(out, &c)
		}
	})
	return out, nil
}

func (r *CommissionRepo) Summary(ctx context.Context, retailerID id.ID) (commission.Summary, error) {
	sum := commission.Summary{RetailerID: retailerID, PendingTotal: types.Zero(), PaidTotal: types.Zero()}
	r.s.read(ctx, func() {
		for _, c := range r.s.commissions.rows {
			if c.RetailerID != retailerID {
				continue
			}
			switch c.Status {
			case commission.StatusPending:
				sum.PendingCount++
				sum.PendingTotal = sum.PendingTotal.Add(c.Amount)
			case commission.StatusPaid:
				sum.PaidCount++
				sum.PaidTotal = sum.PaidTotal.Add(c.Amount)
			}
		}
	})
	return sum, nil
}

func (r *CommissionRepo) List(ctx context.Context, filter commission.ListFilter) (domain.ListResult[*commission.Commission], error) {
	var items []*commission.Commission
	r.s.read(ctx, func() {
		for _, c := range r.s.commissions.scan(func(c commission.Commission) bool {
			if filter.MaterialID != nil && c.MaterialID != *filter.MaterialID {
				return false
			}
			return commissionHeader(&c).matches(filter.ListFilter)
		}) {
			items = append(items, &c)
		}
	})
	return sortAndPage(items, filter.ListFilter, commissionHeader), nil
}

// AuditRepo implements audit.Recorder.
type AuditRepo struct{ s *Store }

// Audit returns the audit trail.
func (s *Store) Audit() *AuditRepo { return &AuditRepo{s: s} }

var _ audit.Recorder = (*AuditRepo)(nil)

func (r *AuditRepo) Record(ctx context.Context, entry audit.Entry) error {
	return r.s.write(ctx, func(u *undoLog) error {
		if id.IsNil(entry.ID) {
			entry.ID = id.New()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now().UTC()
		}
		r.s.audit.set(u, entry.ID, entry)
		return nil
	})
}

func (r *AuditRepo) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	var out []audit.Entry
	r.s.read(ctx, func() {
		out = r.s.audit.scan(func(e audit.Entry) bool {
			return e.EntityType == entityType && e.EntityID == entityID
		})
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

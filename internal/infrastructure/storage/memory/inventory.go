package memory

import (
	"context"
	"sort"
	"time"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/domain"
	"foodchain/internal/domain/production"
	"foodchain/internal/domain/registers/inventory"
)

// InventoryRepo implements inventory.Repository.
type InventoryRepo struct{ s *Store }

// Inventory returns the inventory repository.
func (s *Store) Inventory() *InventoryRepo { return &InventoryRepo{s: s} }

var _ inventory.Repository = (*InventoryRepo)(nil)

func (r *InventoryRepo) GetForUpdate(ctx context.Context, key inventory.Key) (inventory.Balance, error) {
	var b inventory.Balance
	err := r.s.write(ctx, func(u *undoLog) error {
		stored, ok := r.s.balances.get(key)
		if !ok {
			stored = inventory.EmptyBalance(key)
			stored.UpdatedAt = time.Now().UTC()
			r.s.balances.set(u, key, stored)
		}
		b = stored
		return nil
	})
	return b, err
}

func (r *InventoryRepo) Get(ctx context.Context, key inventory.Key) (inventory.Balance, error) {
	var (
		b  inventory.Balance
		ok bool
	)
	r.s.read(ctx, func() { b, ok = r.s.balances.get(key) })
	if !ok {
		return inventory.EmptyBalance(key), nil
	}
	return b, nil
}

func (r *InventoryRepo) Save(ctx context.Context, balance inventory.Balance) error {
	return r.s.write(ctx, func(u *undoLog) error {
		key := balance.Key()
		if _, ok := r.s.balances.get(key); !ok {
			return apperror.NewNotFound("inventory", key.String())
		}
		balance.UpdatedAt = time.Now().UTC()
		r.s.balances.set(u, key, balance)
		return nil
	})
}

func (r *InventoryRepo) AppendTransaction(ctx context.Context, t inventory.Transaction) error {
	return r.s.write(ctx, func(u *undoLog) error {
		if id.IsNil(t.ID) {
			t.ID = id.New()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now().UTC()
		}
		r.s.ledger.set(u, t.ID, t)
		return nil
	})
}

func (r *InventoryRepo) ListBalances(ctx context.Context, filter inventory.BalanceFilter) ([]inventory.Balance, error) {
	var out []inventory.Balance
	r.s.read(ctx, func() {
		out = r.s.balances.scan(func(b inventory.Balance) bool {
			if filter.OwnerType != "" && b.OwnerType != filter.OwnerType {
				return false
			}
			if filter.OwnerID != nil && b.OwnerID != *filter.OwnerID {
				return false
			}
			if filter.MaterialID != nil && b.MaterialID != *filter.MaterialID {
				return false
			}
			if filter.ExcludeZero && b.FullPackets == 0 && b.LooseUnits == 0 {
				return false
			}
			return true
		})
	})
	return out, nil
}

func (r *InventoryRepo) ListTransactions(ctx context.Context, filter inventory.TransactionFilter) (domain.ListResult[inventory.Transaction], error) {
	var items []inventory.Transaction
	r.s.read(ctx, func() {
		items = r.s.ledger.scan(func(t inventory.Transaction) bool {
			switch {
			case filter.OwnerType != "" && t.OwnerType != filter.OwnerType:
				return false
			case filter.OwnerID != nil && t.OwnerID != *filter.OwnerID:
				return false
			case filter.MaterialID != nil && t.MaterialID != *filter.MaterialID:
				return false
			case filter.ReferenceID != nil && t.ReferenceID != *filter.ReferenceID:
				return false
			case filter.Type != "" && t.Type != filter.Type:
				return false
			case filter.From != nil && t.CreatedAt.Before(*filter.From):
				return false
			case filter.To != nil && t.CreatedAt.After(*filter.To):
				return false
			}
			return true
		})
	})
	// newest first, insertion order breaks ties
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return domain.Page(items, domain.ListFilter{Limit: filter.Limit, Offset: filter.Offset}), nil
}

// ProductionRepo implements production.Repository.
type ProductionRepo struct{ s *Store }

// Production returns the batch repository.
func (s *Store) Production() *ProductionRepo { return &ProductionRepo{s: s} }

var _ production.Repository = (*ProductionRepo)(nil)

func (r *ProductionRepo) Create(ctx context.Context, b *production.Batch) error {
	return r.s.write(ctx, func(u *undoLog) error {
		if r.exists(b.ManufacturerID, b.BatchNumber) {
			return apperror.NewDuplicate("production_batch", "batch_number", b.BatchNumber)
		}
		r.s.batches.set(u, b.ID, *b)
		return nil
	})
}

func (r *ProductionRepo) GetByID(ctx context.Context, batchID id.ID) (*production.Batch, error) {
	var (
		b  production.Batch
		ok bool
	)
	r.s.read(ctx, func() { b, ok = r.s.batches.get(batchID) })
	if !ok {
		return nil, apperror.NewNotFound("production_batch", batchID)
	}
	return &b, nil
}

func (r *ProductionRepo) ExistsByNumber(ctx context.Context, manufacturerID id.ID, batchNumber string) (bool, error) {
	var ok bool
	r.s.read(ctx, func() { ok = r.exists(manufacturerID, batchNumber) })
	return ok, nil
}

func (r *ProductionRepo) List(ctx context.Context, filter production.ListFilter) (domain.ListResult[*production.Batch], error) {
	var items []*production.Batch
	r.s.read(ctx, func() {
		for _, b := range r.s.batches.scan(func(b production.Batch) bool {
			if filter.ManufacturerID != nil && b.ManufacturerID != *filter.ManufacturerID {
				return false
			}
			if filter.MaterialID != nil && b.MaterialID != *filter.MaterialID {
				return false
			}
			return docHeader{number: b.BatchNumber, manufacturerID: b.ManufacturerID, createdAt: b.CreatedAt}.
				matches(domain.ListFilter{Search: filter.Search, DateFrom: filter.DateFrom, DateTo: filter.DateTo})
		}) {
			items = append(items, &b)
		}
	})
	return sortAndPage(items, filter.ListFilter, func(b *production.Batch) docHeader {
		return docHeader{number: b.BatchNumber, createdAt: b.CreatedAt}
	}), nil
}

func (r *ProductionRepo) exists(manufacturerID id.ID, batchNumber string) bool {
	for _, b := range r.s.batches.rows {
		if b.ManufacturerID == manufacturerID && b.BatchNumber == batchNumber {
			return true
		}
	}
	return false
}

// Package register_repo provides PostgreSQL implementations for register repositories:
// inventory balances and their transaction log, production batches and commissions.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/domain"
	"foodchain/internal/domain/registers/inventory"
	"foodchain/internal/infrastructure/storage/postgres"
)

const (
	balancesTable     = "reg_inventory_balances"
	transactionsTable = "reg_inventory_transactions"
)

// InventoryRepo implements inventory.Repository.
type InventoryRepo struct {
	balances     *postgres.Table[inventory.Balance]
	transactions *postgres.Table[inventory.Transaction]
}

var _ inventory.Repository = (*InventoryRepo)(nil)

// NewInventoryRepo creates a new inventory register repository.
func NewInventoryRepo(txm *postgres.TxManager) *InventoryRepo {
	return &InventoryRepo{
		balances:     postgres.NewTable[inventory.Balance](txm, balancesTable, "inventory"),
		transactions: postgres.NewTable[inventory.Transaction](txm, transactionsTable, "inventory_transaction"),
	}
}

func keyWhere(key inventory.Key) squirrel.Eq {
	return squirrel.Eq{
		"material_id": key.MaterialID,
		"owner_type":  key.OwnerType,
		"owner_id":    key.OwnerID,
	}
}

// GetForUpdate inserts a zero row when missing, then locks it.
func (r *InventoryRepo) GetForUpdate(ctx context.Context, key inventory.Key) (inventory.Balance, error) {
	empty := inventory.EmptyBalance(key)
	empty.UpdatedAt = time.Now().UTC()

	sql, args, err := postgres.Builder().
		Insert(balancesTable).
		SetMap(postgres.StructToMap(empty)).
		Suffix("ON CONFLICT (material_id, owner_type, owner_id) DO NOTHING").
		ToSql()
	if err != nil {
		return inventory.Balance{}, fmt.Errorf("build balance upsert: %w", err)
	}
	if _, err := r.balances.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return inventory.Balance{}, fmt.Errorf("ensure balance %s: %w", key, err)
	}

	b, err := r.balances.GetForUpdate(ctx, keyWhere(key), key.String())
	if err != nil {
		return inventory.Balance{}, err
	}
	return *b, nil
}

func (r *InventoryRepo) Get(ctx context.Context, key inventory.Key) (inventory.Balance, error) {
	b, err := r.balances.GetBy(ctx, keyWhere(key), key.String())
	if apperror.IsNotFound(err) {
		return inventory.EmptyBalance(key), nil
	}
	if err != nil {
		return inventory.Balance{}, err
	}
	return *b, nil
}

// Save writes the counters. The table's check constraints reject rows that
// break 0 <= blocked <= full.
func (r *InventoryRepo) Save(ctx context.Context, balance inventory.Balance) error {
	sql, args, err := postgres.Builder().
		Update(balancesTable).
		SetMap(map[string]any{
			"full_packets":        balance.FullPackets,
			"loose_units":         balance.LooseUnits,
			"blocked_packets":     balance.BlockedPackets,
			"blocked_loose_units": balance.BlockedLooseUnits,
			"updated_at":          time.Now().UTC(),
		}).
		Where(keyWhere(balance.Key())).
		ToSql()
	if err != nil {
		return fmt.Errorf("build balance update: %w", err)
	}

	res, err := r.balances.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError("inventory", fmt.Errorf("save balance: %w", err), nil)
	}
	if res.RowsAffected() == 0 {
		return apperror.NewNotFound("inventory", balance.Key().String())
	}
	return nil
}

func (r *InventoryRepo) AppendTransaction(ctx context.Context, t inventory.Transaction) error {
	if id.IsNil(t.ID) {
		t.ID = id.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return r.transactions.Insert(ctx, &t)
}

func (r *InventoryRepo) ListBalances(ctx context.Context, filter inventory.BalanceFilter) ([]inventory.Balance, error) {
	q := r.balances.Select()
	if filter.OwnerType != "" {
		q = q.Where(squirrel.Eq{"owner_type": filter.OwnerType})
	}
	if filter.OwnerID != nil {
		q = q.Where(squirrel.Eq{"owner_id": *filter.OwnerID})
	}
	if filter.MaterialID != nil {
		q = q.Where(squirrel.Eq{"material_id": *filter.MaterialID})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.Or{
			squirrel.NotEq{"full_packets": 0},
			squirrel.NotEq{"loose_units": 0},
		})
	}

	ptrs, err := r.balances.Find(ctx, q.OrderBy("owner_type", "owner_id", "material_id"))
	if err != nil {
		return nil, err
	}
	out := make([]inventory.Balance, len(ptrs))
	for i, b := range ptrs {
		out[i] = *b
	}
	return out, nil
}

// ListTransactions returns entries newest first.
func (r *InventoryRepo) ListTransactions(ctx context.Context, filter inventory.TransactionFilter) (domain.ListResult[inventory.Transaction], error) {
	q := r.transactions.Select()
	if filter.OwnerType != "" {
		q = q.Where(squirrel.Eq{"owner_type": filter.OwnerType})
	}
	if filter.OwnerID != nil {
		q = q.Where(squirrel.Eq{"owner_id": *filter.OwnerID})
	}
	if filter.MaterialID != nil {
		q = q.Where(squirrel.Eq{"material_id": *filter.MaterialID})
	}
	if filter.ReferenceID != nil {
		q = q.Where(squirrel.Eq{"reference_id": *filter.ReferenceID})
	}
	if filter.Type != "" {
		q = q.Where(squirrel.Eq{"tx_type": filter.Type})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.To})
	}

	page, err := r.transactions.Page(ctx, q, domain.ListFilter{
		OrderBy: "-created_at",
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	})
	if err != nil {
		return domain.ListResult[inventory.Transaction]{}, err
	}

	res := domain.ListResult[inventory.Transaction]{
		Items:      make([]inventory.Transaction, len(page.Items)),
		TotalCount: page.TotalCount,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	for i, t := range page.Items {
		res.Items[i] = *t
	}
	return res, nil
}

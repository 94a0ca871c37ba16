package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/core/numerator"
	"foodchain/internal/domain/catalogs/material"
	"foodchain/internal/domain/registers/inventory"
)

func newMaterial(code string) *material.Material {
	return material.NewMaterial(code, "Material "+code, 10, id.New())
}

func TestStore_RollbackRestoresEveryTable(t *testing.T) {
	s := New()
	ctx := context.Background()
	kept := newMaterial("KEEP")
	require.NoError(t, s.Materials().Create(ctx, kept))

	boom := errors.New("boom")
	key := inventory.Key{MaterialID: kept.ID, OwnerType: inventory.OwnerManufacturer, OwnerID: id.New()}
	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Materials().Create(ctx, newMaterial("DROP")))

		kept.Name = "renamed"
		kept.Touch()
		require.NoError(t, s.Materials().Update(ctx, kept))

		bal, err := s.Inventory().GetForUpdate(ctx, key)
		require.NoError(t, err)
		bal.FullPackets = 7
		require.NoError(t, s.Inventory().Save(ctx, bal))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Materials().GetByCode(ctx, "DROP")
	assert.True(t, apperror.IsNotFound(err))

	got, err := s.Materials().GetByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, "Material KEEP", got.Name)
	assert.Equal(t, 1, got.Version)

	balances, err := s.Inventory().ListBalances(ctx, inventory.BalanceFilter{})
	require.NoError(t, err)
	assert.Empty(t, balances)
}

func TestStore_NestedTransactionJoinsOuter(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.RunInTransaction(ctx, func(outer context.Context) error {
		assert.True(t, s.InTransaction(outer))
		return s.RunInTransaction(outer, func(inner context.Context) error {
			return s.Materials().Create(inner, newMaterial("NESTED"))
		})
	})
	require.NoError(t, err)
	assert.False(t, s.InTransaction(ctx))

	_, err = s.Materials().GetByCode(ctx, "nested")
	assert.NoError(t, err, "codes match case-insensitively")
}

func TestStore_UpdateRequiresNextVersion(t *testing.T) {
	s := New()
	ctx := context.Background()
	m := newMaterial("VER")
	require.NoError(t, s.Materials().Create(ctx, m))

	stale := *m
	m.Touch()
	require.NoError(t, s.Materials().Update(ctx, m))

	stale.Touch()
	err := s.Materials().Update(ctx, &stale)
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	m := newMaterial("COPY")
	require.NoError(t, s.Materials().Create(ctx, m))

	got, err := s.Materials().GetByID(ctx, m.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := s.Materials().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Material COPY", again.Name)
}

func TestStore_NumbersRollBackWithTransaction(t *testing.T) {
	s := New()
	ctx := context.Background()
	period := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	cfg := numerator.DefaultConfig(numerator.PrefixInvoice)

	first, err := s.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00001", first)

	_ = s.RunInTransaction(ctx, func(ctx context.Context) error {
		n, err := s.GetNextNumber(ctx, cfg, nil, period)
		require.NoError(t, err)
		assert.Equal(t, "INV-2026-00002", n)
		return errors.New("abort")
	})

	next, err := s.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00002", next)

	require.NoError(t, s.SetNextNumber(ctx, cfg, period, 100))
	n, _ := s.GetNextNumber(ctx, cfg, nil, period)
	assert.Equal(t, "INV-2026-00101", n)
}

func TestTable_RemoveUndoKeepsOrder(t *testing.T) {
	tbl := newTable[string, int]()
	var setup undoLog
	tbl.set(&setup, "a", 1)
	tbl.set(&setup, "b", 2)
	tbl.set(&setup, "c", 3)

	var u undoLog
	tbl.remove(&u, "b")
	assert.Equal(t, []int{1, 3}, tbl.scan(nil))

	u.rollback()
	assert.Equal(t, []int{1, 2, 3}, tbl.scan(nil))
}

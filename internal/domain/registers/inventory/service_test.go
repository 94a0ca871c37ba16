package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/domain/registers/inventory"
	"foodchain/internal/infrastructure/storage/memory"
)

type ledgerEnv struct {
	store    *memory.Store
	svc      *inventory.Service
	material id.ID
	owner    id.ID
}

func newLedger(t *testing.T) *ledgerEnv {
	t.Helper()
	store := memory.New()
	return &ledgerEnv{
		store:    store,
		svc:      inventory.NewService(store.Inventory(), store),
		material: id.New(),
		owner:    id.New(),
	}
}

func (e *ledgerEnv) move(packets, loose int64) inventory.Movement {
	return inventory.Movement{
		MaterialID:    e.material,
		OwnerID:       e.owner,
		Quantity:      inventory.Quantity{Packets: packets, LooseUnits: loose},
		ActorID:       e.owner,
		ReferenceType: inventory.RefProductionBatch,
		ReferenceID:   id.New(),
	}
}

func (e *ledgerEnv) key(owner inventory.OwnerType) inventory.Key {
	return inventory.Key{MaterialID: e.material, OwnerType: owner, OwnerID: e.owner}
}

func (e *ledgerEnv) history(t *testing.T) []inventory.Transaction {
	t.Helper()
	res, err := e.svc.History(context.Background(), inventory.TransactionFilter{MaterialID: &e.material})
	require.NoError(t, err)
	return res.Items
}

func TestLedger_ProductionBlockDispatch(t *testing.T) {
	e := newLedger(t)
	ctx := context.Background()

	_, err := e.svc.AddProduction(ctx, e.move(10, 4))
	require.NoError(t, err)

	bal, err := e.svc.BlockForDispatch(ctx, e.move(6, 4))
	require.NoError(t, err)
	assert.Equal(t, inventory.Quantity{Packets: 4, LooseUnits: 0}, bal.Available())

	avail, err := e.svc.GetAvailable(ctx, e.material, e.owner)
	require.NoError(t, err)
	assert.Equal(t, inventory.Quantity{Packets: 4}, avail)

	bal, err = e.svc.ExecuteDispatch(ctx, e.move(6, 4))
	require.NoError(t, err)
	assert.Equal(t, int64(4), bal.FullPackets)
	assert.Zero(t, bal.LooseUnits)
	assert.Zero(t, bal.BlockedPackets)
	assert.Zero(t, bal.BlockedLooseUnits)

	entries := e.history(t)
	require.Len(t, entries, 3)
	// newest first
	assert.Equal(t, inventory.TxDispatch, entries[0].Type)
	assert.Equal(t, int64(-6), entries[0].DeltaPackets)
	assert.Equal(t, int64(-6), entries[0].DeltaBlockedPackets)
	assert.Equal(t, int64(4), entries[0].FullPacketsAfter)
	assert.Equal(t, inventory.TxBlock, entries[1].Type)
	assert.Zero(t, entries[1].DeltaPackets)
	assert.Equal(t, int64(6), entries[1].DeltaBlockedPackets)
	assert.Equal(t, inventory.TxProduction, entries[2].Type)
}

func TestLedger_BlockBeyondAvailableLeavesNoTrace(t *testing.T) {
	e := newLedger(t)
	ctx := context.Background()
	_, err := e.svc.AddProduction(ctx, e.move(5, 0))
	require.NoError(t, err)
	_, err = e.svc.BlockForDispatch(ctx, e.move(3, 0))
	require.NoError(t, err)

	_, err = e.svc.BlockForDispatch(ctx, e.move(3, 0))
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientAvailable), "got %v", err)

	bal, err := e.svc.GetBalance(ctx, e.key(inventory.OwnerManufacturer))
	require.NoError(t, err)
	assert.Equal(t, int64(5), bal.FullPackets)
	assert.Equal(t, int64(3), bal.BlockedPackets)
	assert.Len(t, e.history(t), 2)
}

func TestLedger_ExecuteWithoutBlock(t *testing.T) {
	e := newLedger(t)
	ctx := context.Background()
	_, err := e.svc.AddProduction(ctx, e.move(5, 0))
	require.NoError(t, err)

	_, err = e.svc.ExecuteDispatch(ctx, e.move(1, 0))
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientBlocked), "got %v", err)
}

func TestLedger_UnblockAndRestock(t *testing.T) {
	e := newLedger(t)
	ctx := context.Background()
	_, err := e.svc.AddProduction(ctx, e.move(5, 5))
	require.NoError(t, err)
	_, err = e.svc.BlockForDispatch(ctx, e.move(2, 5))
	require.NoError(t, err)

	bal, err := e.svc.UnblockInventory(ctx, e.move(2, 5))
	require.NoError(t, err)
	assert.Equal(t, inventory.Quantity{Packets: 5, LooseUnits: 5}, bal.Available())

	_, err = e.svc.UnblockInventory(ctx, e.move(1, 0))
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientBlocked), "got %v", err)

	bal, err = e.svc.RestockFromReturn(ctx, e.move(1, 3))
	require.NoError(t, err)
	assert.Equal(t, int64(6), bal.FullPackets)
	assert.Equal(t, int64(8), bal.LooseUnits)
}

func TestLedger_RejectsEmptyAndNegative(t *testing.T) {
	e := newLedger(t)
	ctx := context.Background()

	_, err := e.svc.AddProduction(ctx, e.move(0, 0))
	assert.True(t, apperror.Is(err, apperror.CodeEmptyOperation), "got %v", err)

	_, err = e.svc.AddProduction(ctx, e.move(-1, 0))
	assert.True(t, apperror.Is(err, apperror.CodeInvalidQuantity), "got %v", err)

	assert.Empty(t, e.history(t))
}

func TestLedger_SaleOpensPackets(t *testing.T) {
	e := newLedger(t)
	ctx := context.Background()
	_, err := e.svc.ReceiveGoods(ctx, e.move(3, 2))
	require.NoError(t, err)

	// 1 packet + 15 loose with 10 units per packet: 2 loose on hand, so two
	// packets are opened (13 short).
	res, err := e.svc.RecordSale(ctx, e.move(1, 15), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.PacketsOpened)
	assert.Equal(t, int64(25), res.UnitsSold)
	assert.Zero(t, res.Balance.FullPackets)
	assert.Equal(t, int64(7), res.Balance.LooseUnits)

	entries := e.history(t)
	require.NotEmpty(t, entries)
	assert.Equal(t, inventory.TxSale, entries[0].Type)
	assert.Equal(t, int64(2), entries[0].PacketsOpened)
	assert.Equal(t, int64(-3), entries[0].DeltaPackets)
	assert.Equal(t, int64(5), entries[0].DeltaLooseUnits)
}

func TestLedger_SaleInsufficient(t *testing.T) {
	e := newLedger(t)
	ctx := context.Background()
	_, err := e.svc.ReceiveGoods(ctx, e.move(1, 0))
	require.NoError(t, err)

	tests := []struct {
		name    string
		packets int64
		loose   int64
	}{
		{"too many packets", 2, 0},
		{"opening exceeds remaining packets", 1, 1},
		{"loose beyond all stock", 0, 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.RecordSale(ctx, e.move(tt.packets, tt.loose), 10)
			assert.True(t, apperror.Is(err, apperror.CodeInsufficientAvailable), "got %v", err)
		})
	}

	avail, err := e.svc.GetRetailerAvailable(ctx, e.material, e.owner)
	require.NoError(t, err)
	assert.Equal(t, inventory.Quantity{Packets: 1}, avail)
}

func TestPacketsToOpen(t *testing.T) {
	tests := []struct {
		sold, loose, upp, want int64
	}{
		{0, 0, 12, 0},
		{5, 5, 12, 0},
		{6, 5, 12, 1},
		{17, 5, 12, 1},
		{18, 5, 12, 2},
		{24, 0, 12, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, inventory.PacketsToOpen(tt.sold, tt.loose, tt.upp),
			"sold=%d loose=%d upp=%d", tt.sold, tt.loose, tt.upp)
	}
}

func TestLedger_ConcurrentBlocksNeverOversell(t *testing.T) {
	e := newLedger(t)
	ctx := context.Background()
	_, err := e.svc.AddProduction(ctx, e.move(5, 0))
	require.NoError(t, err)

	const workers = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.svc.BlockForDispatch(ctx, e.move(1, 0))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			if apperror.Is(err, apperror.CodeInsufficientAvailable) {
				fail++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, workers-5, fail)

	bal, err := e.svc.GetBalance(ctx, e.key(inventory.OwnerManufacturer))
	require.NoError(t, err)
	assert.Equal(t, int64(5), bal.BlockedPackets)
	assert.NoError(t, bal.CheckInvariant())
}

func TestLedger_JoinsCallerTransaction(t *testing.T) {
	e := newLedger(t)
	ctx := context.Background()
	abort := errors.New("abort")

	err := e.store.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := e.svc.AddProduction(ctx, e.move(4, 0)); err != nil {
			return err
		}
		return abort
	})
	require.ErrorIs(t, err, abort)

	bal, err := e.svc.GetBalance(ctx, e.key(inventory.OwnerManufacturer))
	require.NoError(t, err)
	assert.Zero(t, bal.FullPackets)
	assert.Empty(t, e.history(t))
}

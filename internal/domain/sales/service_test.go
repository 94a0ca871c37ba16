package sales_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodchain/internal/app/apptest"
	"foodchain/internal/core/apperror"
	appctx "foodchain/internal/core/context"
	"foodchain/internal/core/id"
	"foodchain/internal/core/types"
	"foodchain/internal/domain/catalogs/material"
	"foodchain/internal/domain/commission"
	"foodchain/internal/domain/registers/inventory"
	"foodchain/internal/domain/sales"
)

// stocked delivers 5 packets and 6 loose units of a 12-unit material to the retailer.
func stocked(t *testing.T) (*apptest.Fixture, *material.Material) {
	t.Helper()
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	f.Assign(t)
	f.Produce(t, m, 10, 6)
	f.ConfirmedGRN(t, m, 5, 6)
	return f, m
}

func TestSales_RecordOpensPacketAndAccruesCommission(t *testing.T) {
	f, m := stocked(t)

	res, err := f.Sales.Record(f.Retailer(), sales.RecordCommand{
		Material:   material.Ref{Code: "MILK"},
		Packets:    1,
		LooseUnits: 8,
	})
	require.NoError(t, err)

	s := res.Sale
	assert.Equal(t, "SAL-", s.Number[:4])
	assert.Equal(t, int64(20), s.UnitsSold)
	assert.Equal(t, int64(1), s.PacketsOpened)
	// 1 × 120.00 + 8 × 10.00
	assert.Equal(t, "200.00", s.SaleAmount.StringFixed(2))

	bal := f.RetailerBalance(t, m)
	assert.Equal(t, int64(3), bal.FullPackets)
	assert.Equal(t, int64(10), bal.LooseUnits)

	require.NotNil(t, res.Commission)
	assert.Equal(t, commission.StatusPending, res.Commission.Status)
	assert.Equal(t, s.ID, res.Commission.SaleID)
	assert.Equal(t, "10.00", res.Commission.Amount.StringFixed(2))
}

func TestSales_ExplicitAmount(t *testing.T) {
	f, _ := stocked(t)

	amount := types.MustMoney("99.99")
	res, err := f.Sales.Record(f.Retailer(), sales.RecordCommand{
		Material:   material.Ref{Code: "MILK"},
		Packets:    1,
		SaleAmount: &amount,
	})
	require.NoError(t, err)
	assert.Equal(t, "99.99", res.Sale.SaleAmount.StringFixed(2))
	assert.Equal(t, "5.00", res.Commission.Amount.StringFixed(2))

	negative := types.MustMoney("-1")
	_, err = f.Sales.Record(f.Retailer(), sales.RecordCommand{
		Material:   material.Ref{Code: "MILK"},
		Packets:    1,
		SaleAmount: &negative,
	})
	assert.True(t, apperror.Is(err, apperror.CodeValidation), "got %v", err)
}

func TestSales_InsufficientStockPersistsNothing(t *testing.T) {
	f, m := stocked(t)
	before := f.RetailerBalance(t, m)

	_, err := f.Sales.Record(f.Retailer(), sales.RecordCommand{
		Material:   material.Ref{ID: &m.ID},
		Packets:    5,
		LooseUnits: 7,
	})
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientAvailable), "got %v", err)
	assert.Equal(t, before, f.RetailerBalance(t, m))

	list, err := f.Sales.List(f.Retailer(), sales.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	sum, err := f.Commissions.Summary(f.Retailer(), f.RetailerID)
	require.NoError(t, err)
	assert.Zero(t, sum.PendingCount)

	_, err = f.Sales.Record(f.Retailer(), sales.RecordCommand{Material: material.Ref{ID: &m.ID}})
	assert.True(t, apperror.Is(err, apperror.CodeEmptyOperation), "got %v", err)
}

func TestSales_LedgerEntryReferencesSale(t *testing.T) {
	f, m := stocked(t)

	res, err := f.Sales.Record(f.Retailer(), sales.RecordCommand{Material: material.Ref{ID: &m.ID}, LooseUnits: 2})
	require.NoError(t, err)

	history, err := f.Inventory.History(t.Context(), inventory.TransactionFilter{
		MaterialID: &m.ID,
		OwnerType:  inventory.OwnerRetailer,
	})
	require.NoError(t, err)
	require.NotEmpty(t, history.Items)
	assert.Equal(t, inventory.TxSale, history.Items[0].Type)
	assert.Equal(t, inventory.RefSale, history.Items[0].ReferenceType)
	assert.Equal(t, res.Sale.ID, history.Items[0].ReferenceID)
}

func TestSales_Visibility(t *testing.T) {
	f, m := stocked(t)
	res, err := f.Sales.Record(f.Retailer(), sales.RecordCommand{Material: material.Ref{ID: &m.ID}, Packets: 1})
	require.NoError(t, err)

	_, err = f.Sales.Record(f.Manufacturer(), sales.RecordCommand{Material: material.Ref{ID: &m.ID}, Packets: 1})
	assert.True(t, apperror.Is(err, apperror.CodeForbidden), "got %v", err)

	_, err = f.Sales.List(f.Manufacturer(), sales.ListFilter{})
	assert.True(t, apperror.Is(err, apperror.CodeForbidden), "got %v", err)

	other := apptest.As(appctx.RoleRetailer, id.New())
	_, err = f.Sales.GetByID(other, res.Sale.ID)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden), "got %v", err)

	all, err := f.Sales.List(f.Admin(), sales.ListFilter{MaterialID: &m.ID})
	require.NoError(t, err)
	assert.Len(t, all.Items, 1)
}

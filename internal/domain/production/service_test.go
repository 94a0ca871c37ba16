package production_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodchain/internal/app/apptest"
	"foodchain/internal/core/apperror"
	appctx "foodchain/internal/core/context"
	"foodchain/internal/core/id"
	"foodchain/internal/domain/production"
	"foodchain/internal/domain/registers/inventory"
)

func TestProduction_RecordCreditsManufacturer(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)

	b := f.Produce(t, m, 10, 5)
	assert.Equal(t, f.ManufacturerID, b.ManufacturerID)
	assert.Equal(t, "04021010", b.HSNCodeSnapshot)
	assert.True(t, b.GSTRateSnapshot.Equal(m.GSTRate))

	bal := f.ManufacturerBalance(t, m)
	assert.Equal(t, int64(10), bal.FullPackets)
	assert.Equal(t, int64(5), bal.LooseUnits)

	history, err := f.Inventory.History(t.Context(), inventory.TransactionFilter{MaterialID: &m.ID})
	require.NoError(t, err)
	require.Len(t, history.Items, 1)
	assert.Equal(t, inventory.TxProduction, history.Items[0].Type)
	assert.Equal(t, b.ID, history.Items[0].ReferenceID)
}

func TestProduction_DuplicateBatchNumber(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)

	cmd := apptest.BatchCommand(m, 1, 0)
	_, err := f.Production.Record(f.Manufacturer(), cmd)
	require.NoError(t, err)

	_, err = f.Production.Record(f.Manufacturer(), cmd)
	assert.True(t, apperror.Is(err, apperror.CodeDuplicateReference), "got %v", err)
	assert.Equal(t, int64(1), f.ManufacturerBalance(t, m).FullPackets)

	other := id.New()
	_, err = f.Production.Record(apptest.As(appctx.RoleManufacturer, other), cmd)
	assert.NoError(t, err, "batch numbers are unique per manufacturer")
}

func TestProduction_CommandValidation(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)

	tests := []struct {
		name string
		edit func(c *production.RecordCommand)
		code string
	}{
		{"blank batch number", func(c *production.RecordCommand) { c.BatchNumber = " " }, apperror.CodeValidation},
		{"expiry before manufacture", func(c *production.RecordCommand) {
			c.ExpiryDate = c.ManufactureDate.Add(-24 * time.Hour)
		}, apperror.CodeInvalidDateRange},
		{"negative packets", func(c *production.RecordCommand) { c.Packets = -1 }, apperror.CodeInvalidQuantity},
		{"nothing produced", func(c *production.RecordCommand) { c.Packets, c.LooseUnits = 0, 0 }, apperror.CodeEmptyOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := apptest.BatchCommand(m, 1, 0)
			tt.edit(&cmd)
			_, err := f.Production.Record(f.Manufacturer(), cmd)
			assert.True(t, apperror.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestProduction_OnlyManufacturers(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)

	_, err := f.Production.Record(f.Retailer(), apptest.BatchCommand(m, 1, 0))
	assert.True(t, apperror.Is(err, apperror.CodeForbidden), "got %v", err)

	_, err = f.Production.List(f.Retailer(), production.ListFilter{})
	assert.True(t, apperror.Is(err, apperror.CodeForbidden), "got %v", err)
}

func TestProduction_ListScopedToManufacturer(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	b := f.Produce(t, m, 1, 0)

	other := apptest.As(appctx.RoleManufacturer, id.New())
	_, err := f.Production.Record(other, apptest.BatchCommand(m, 2, 0))
	require.NoError(t, err)

	mine, err := f.Production.List(f.Manufacturer(), production.ListFilter{})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, b.ID, mine.Items[0].ID)

	all, err := f.Production.List(f.Admin(), production.ListFilter{MaterialID: &m.ID})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	_, err = f.Production.GetByID(other, b.ID)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden), "got %v", err)
}

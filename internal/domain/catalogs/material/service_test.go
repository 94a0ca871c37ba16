package material_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodchain/internal/app/apptest"
	"foodchain/internal/core/apperror"
	"foodchain/internal/core/types"
	"foodchain/internal/domain/catalogs/material"
)

func TestMaterial_Create(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	assert.True(t, m.IsActive)
	assert.False(t, m.HasProduction)
	assert.True(t, m.UnitPrice().Equal(types.MustMoney("10")))

	_, err := f.Materials.Create(f.Admin(), material.CreateCommand{
		Code: "milk", Name: "Another", UnitsPerPacket: 6,
	})
	assert.True(t, apperror.Is(err, apperror.CodeDuplicateReference), "got %v", err)
}

func TestMaterial_CreateValidation(t *testing.T) {
	f := apptest.New(t)
	base := material.CreateCommand{Code: "X", Name: "X", UnitsPerPacket: 1}

	tests := []struct {
		name string
		edit func(c *material.CreateCommand)
	}{
		{"zero units per packet", func(c *material.CreateCommand) { c.UnitsPerPacket = 0 }},
		{"hsn with five digits", func(c *material.CreateCommand) { c.HSNCode = "04021" }},
		{"hsn with letters", func(c *material.CreateCommand) { c.HSNCode = "04AB" }},
		{"gst above 100", func(c *material.CreateCommand) { c.GSTRate = types.MustMoney("101") }},
		{"negative mrp", func(c *material.CreateCommand) { c.MRPPerPacket = types.MustMoney("-1") }},
		{"unknown commission", func(c *material.CreateCommand) { c.CommissionType = "BONUS" }},
		{"percentage above 100", func(c *material.CreateCommand) { c.CommissionValue = types.MustMoney("150") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := base
			tt.edit(&cmd)
			_, err := f.Materials.Create(f.Admin(), cmd)
			assert.True(t, apperror.Is(err, apperror.CodeValidation), "got %v", err)
		})
	}
}

func TestMaterial_OnlyAdminWrites(t *testing.T) {
	f := apptest.New(t)
	_, err := f.Materials.Create(f.Manufacturer(), material.CreateCommand{Code: "X", Name: "X", UnitsPerPacket: 1})
	assert.True(t, apperror.Is(err, apperror.CodeForbidden), "got %v", err)

	_, err = f.Materials.Create(t.Context(), material.CreateCommand{Code: "X", Name: "X", UnitsPerPacket: 1})
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized), "got %v", err)
}

func TestMaterial_UnitsPerPacketImmutable(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)

	upp := int64(6)
	_, err := f.Materials.Update(f.Admin(), m.ID, material.UpdateCommand{UnitsPerPacket: &upp})
	assert.True(t, apperror.Is(err, apperror.CodeImmutableField), "got %v", err)

	same := int64(12)
	name := "Toned milk"
	got, err := f.Materials.Update(f.Admin(), m.ID, material.UpdateCommand{UnitsPerPacket: &same, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Toned milk", got.Name)
	assert.Equal(t, m.Version+1, got.Version)
}

func TestMaterial_TaxFieldsFrozenAfterProduction(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)

	hsn := "0401"
	_, err := f.Materials.Update(f.Admin(), m.ID, material.UpdateCommand{HSNCode: &hsn})
	require.NoError(t, err)

	f.Produce(t, m, 1, 0)

	got, err := f.Materials.GetByID(t.Context(), m.ID)
	require.NoError(t, err)
	assert.True(t, got.HasProduction)

	hsn = "0402"
	_, err = f.Materials.Update(f.Admin(), m.ID, material.UpdateCommand{HSNCode: &hsn})
	assert.True(t, apperror.Is(err, apperror.CodeImmutableField), "got %v", err)

	gst := types.MustMoney("5")
	_, err = f.Materials.Update(f.Admin(), m.ID, material.UpdateCommand{GSTRate: &gst})
	assert.True(t, apperror.Is(err, apperror.CodeImmutableField), "got %v", err)

	mrp := types.MustMoney("150.00")
	got, err = f.Materials.Update(f.Admin(), m.ID, material.UpdateCommand{MRPPerPacket: &mrp})
	require.NoError(t, err)
	assert.True(t, got.MRPPerPacket.Equal(mrp))
}

func TestMaterial_StaleVersionRejected(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)

	name := "n"
	_, err := f.Materials.Update(f.Admin(), m.ID, material.UpdateCommand{Name: &name, ExpectedVersion: m.Version + 5})
	assert.True(t, apperror.IsConcurrentModification(err), "got %v", err)
}

func TestMaterial_DeactivateBlocksProduction(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	require.NoError(t, f.Materials.Deactivate(f.Admin(), m.ID))

	_, err := f.Production.Record(f.Manufacturer(), apptest.BatchCommand(m, 1, 0))
	assert.True(t, apperror.Is(err, apperror.CodeMaterialInactive), "got %v", err)

	list, err := f.Materials.List(t.Context(), material.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	list, err = f.Materials.List(t.Context(), material.ListFilter{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)

	require.NoError(t, f.Materials.Activate(f.Admin(), m.ID))
	f.Produce(t, m, 1, 0)
}

func TestMaterial_Resolve(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)

	got, err := f.Materials.Resolve(t.Context(), material.Ref{Code: " MILK "})
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	_, err = f.Materials.Resolve(t.Context(), material.Ref{})
	assert.True(t, apperror.Is(err, apperror.CodeValidation), "got %v", err)
}

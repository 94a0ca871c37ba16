package invoice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodchain/internal/app/apptest"
	"foodchain/internal/core/apperror"
	"foodchain/internal/domain/documents/grn"
	"foodchain/internal/domain/documents/invoice"
)

func TestInvoice_GenerateFromReceivedQuantities(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	f.Assign(t)
	f.Produce(t, m, 10, 6)

	d := f.ExecutedDispatch(t, m, 5, 6)
	g, err := f.GRNs.GetByDispatch(f.Retailer(), d.ID)
	require.NoError(t, err)
	_, err = f.GRNs.Confirm(f.Retailer(), g.ID, grn.ConfirmCommand{
		Receipts: []grn.Receipt{{LineID: g.Lines[0].ID, ReceivedPackets: 4, ReceivedLooseUnits: 6}},
	})
	require.NoError(t, err)

	inv, err := f.Invoices.Generate(f.Manufacturer(), g.ID, invoice.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "INV-", inv.Number[:4])
	assert.Equal(t, f.RetailerID, inv.RetailerID)
	require.Len(t, inv.Lines, 1)

	l := inv.Lines[0]
	assert.Equal(t, "04021010", l.HSNCode)
	assert.Equal(t, int64(4), l.Packets)
	assert.Equal(t, int64(6), l.LooseUnits)
	// 4 × 120.00 + 6 × 10.00
	assert.Equal(t, "540.00", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "48.60", inv.CGST.StringFixed(2))
	assert.Equal(t, "637.20", inv.GrandTotal.StringFixed(2))

	got, err := f.Invoices.GetByGRN(f.Retailer(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
}

func TestInvoice_OnePerGRN(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	f.Assign(t)
	f.Produce(t, m, 10, 0)
	g := f.ConfirmedGRN(t, m, 2, 0)

	_, err := f.Invoices.Generate(f.Admin(), g.ID, invoice.GenerateOptions{Interstate: true})
	require.NoError(t, err)

	_, err = f.Invoices.Generate(f.Manufacturer(), g.ID, invoice.GenerateOptions{})
	assert.True(t, apperror.Is(err, apperror.CodeDuplicateReference), "got %v", err)
}

func TestInvoice_RequiresConfirmedGRN(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	f.Assign(t)
	f.Produce(t, m, 10, 0)
	d := f.ExecutedDispatch(t, m, 2, 0)
	g, err := f.GRNs.GetByDispatch(f.Retailer(), d.ID)
	require.NoError(t, err)

	_, err = f.Invoices.Generate(f.Manufacturer(), g.ID, invoice.GenerateOptions{})
	assert.True(t, apperror.Is(err, apperror.CodeInvalidState), "got %v", err)
}

func TestInvoice_NothingReceived(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	f.Assign(t)
	f.Produce(t, m, 10, 0)
	d := f.ExecutedDispatch(t, m, 2, 0)
	g, err := f.GRNs.GetByDispatch(f.Retailer(), d.ID)
	require.NoError(t, err)
	_, err = f.GRNs.Confirm(f.Retailer(), g.ID, grn.ConfirmCommand{
		Receipts: []grn.Receipt{{LineID: g.Lines[0].ID}},
	})
	require.NoError(t, err)

	_, err = f.Invoices.Generate(f.Manufacturer(), g.ID, invoice.GenerateOptions{})
	assert.True(t, apperror.Is(err, apperror.CodeValidation), "got %v", err)
}

func TestInvoice_RetailerCannotGenerate(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	f.Assign(t)
	f.Produce(t, m, 10, 0)
	g := f.ConfirmedGRN(t, m, 2, 0)

	_, err := f.Invoices.Generate(f.Retailer(), g.ID, invoice.GenerateOptions{})
	assert.True(t, apperror.Is(err, apperror.CodeForbidden), "got %v", err)
}

package commission_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodchain/internal/app/apptest"
	"foodchain/internal/core/apperror"
	"foodchain/internal/core/types"
	"foodchain/internal/domain/catalogs/material"
	"foodchain/internal/domain/commission"
	"foodchain/internal/domain/sales"
)

func sell(t *testing.T, f *apptest.Fixture, m *material.Material, packets int64) *commission.Commission {
	t.Helper()
	res, err := f.Sales.Record(f.Retailer(), sales.RecordCommand{Material: material.Ref{ID: &m.ID}, Packets: packets})
	require.NoError(t, err)
	return res.Commission
}

func newStocked(t *testing.T) (*apptest.Fixture, *material.Material) {
	t.Helper()
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	f.Assign(t)
	f.Produce(t, m, 10, 0)
	f.ConfirmedGRN(t, m, 10, 0)
	return f, m
}

func TestCommission_MarkPaid(t *testing.T) {
	f, m := newStocked(t)
	c := sell(t, f, m, 2)

	paid, err := f.Commissions.MarkPaid(f.Admin(), c.ID, " NEFT-001 ")
	require.NoError(t, err)
	assert.Equal(t, commission.StatusPaid, paid.Status)
	assert.Equal(t, "NEFT-001", paid.PaymentReference)
	assert.NotNil(t, paid.PaidAt)

	_, err = f.Commissions.MarkPaid(f.Admin(), c.ID, "again")
	assert.True(t, apperror.Is(err, apperror.CodeInvalidState), "got %v", err)

	_, err = f.Commissions.MarkPaid(f.Retailer(), c.ID, "self")
	assert.True(t, apperror.Is(err, apperror.CodeForbidden), "got %v", err)
}

func TestCommission_RuleSnapshotSurvivesMaterialChange(t *testing.T) {
	f, m := newStocked(t)
	first := sell(t, f, m, 1)

	flat := material.CommissionFlatPerUnit
	value := types.MustMoney("1")
	_, err := f.Materials.Update(f.Admin(), m.ID, material.UpdateCommand{CommissionType: &flat, CommissionValue: &value})
	require.NoError(t, err)
	second := sell(t, f, m, 1)

	got, err := f.Commissions.GetByID(f.Retailer(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, material.CommissionPercentage, got.RuleType)
	assert.Equal(t, "6.00", got.Amount.StringFixed(2))

	assert.Equal(t, material.CommissionFlatPerUnit, second.RuleType)
	assert.Equal(t, "12.00", second.Amount.StringFixed(2))
}

func TestCommission_SummaryAndBulkPay(t *testing.T) {
	f, m := newStocked(t)
	sell(t, f, m, 1)
	sell(t, f, m, 2)
	c := sell(t, f, m, 3)

	_, err := f.Commissions.MarkPaid(f.Admin(), c.ID, "first")
	require.NoError(t, err)

	sum, err := f.Commissions.Summary(f.Retailer(), f.RetailerID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.PendingCount)
	assert.Equal(t, "18.00", sum.PendingTotal.StringFixed(2))
	assert.Equal(t, int64(1), sum.PaidCount)
	assert.Equal(t, "18.00", sum.PaidTotal.StringFixed(2))

	n, err := f.Commissions.MarkAllPaid(f.Admin(), f.RetailerID, "batch")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sum, err = f.Commissions.Summary(f.Admin(), f.RetailerID)
	require.NoError(t, err)
	assert.Zero(t, sum.PendingCount)
	assert.Equal(t, "36.00", sum.PaidTotal.StringFixed(2))

	_, err = f.Commissions.Summary(f.Manufacturer(), f.RetailerID)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden), "got %v", err)

	list, err := f.Commissions.List(f.Retailer(), commission.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 3)
}

package dispatch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodchain/internal/app/apptest"
	"foodchain/internal/core/apperror"
	appctx "foodchain/internal/core/context"
	"foodchain/internal/core/id"
	"foodchain/internal/domain/documents/dispatch"
	"foodchain/internal/domain/documents/grn"
	"foodchain/internal/domain/documents/srn"
)

func TestDispatch_ExecuteShipsStockAndOpensGRN(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	f.Assign(t)
	f.Produce(t, m, 10, 6)

	doc := f.ApprovedSRN(t, m, 4, 6)
	d, err := f.Dispatches.CreateFromSRN(f.Manufacturer(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusPending, d.Status)
	assert.Equal(t, int64(4), d.TotalPackets)
	assert.Equal(t, int64(6), d.TotalLooseUnits)

	_, err = f.GRNs.GetByDispatch(f.Retailer(), d.ID)
	assert.True(t, apperror.IsNotFound(err), "no GRN before execution")

	d, err = f.Dispatches.Execute(f.Manufacturer(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusInTransit, d.Status)
	assert.NotNil(t, d.ExecutedAt)

	bal := f.ManufacturerBalance(t, m)
	assert.Equal(t, int64(6), bal.FullPackets)
	assert.Zero(t, bal.LooseUnits)
	assert.Zero(t, bal.BlockedPackets)
	assert.Zero(t, bal.BlockedLooseUnits)

	g, err := f.GRNs.GetByDispatch(f.Retailer(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, grn.StatusPending, g.Status)
	require.Len(t, g.Lines, 1)
	assert.Equal(t, int64(4), g.Lines[0].ExpectedPackets)
	assert.Equal(t, int64(6), g.Lines[0].ExpectedLooseUnits)

	_, err = f.Dispatches.Execute(f.Manufacturer(), d.ID)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidState), "got %v", err)
}

func TestDispatch_OnePerSRN(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	f.Assign(t)
	f.Produce(t, m, 10, 0)
	doc := f.ApprovedSRN(t, m, 2, 0)

	_, err := f.Dispatches.CreateFromSRN(f.Manufacturer(), doc.ID)
	require.NoError(t, err)

	_, err = f.Dispatches.CreateFromSRN(f.Manufacturer(), doc.ID)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidSRNState), "got %v", err)
}

func TestDispatch_RequiresProcessedSRN(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	f.Assign(t)
	doc := f.SubmittedSRN(t, m, 2, 0)

	_, err := f.Dispatches.CreateFromSRN(f.Manufacturer(), doc.ID)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidSRNState), "got %v", err)

	_, err = f.SRNs.Process(f.Admin(), doc.ID, srn.ProcessCommand{Decision: srn.DecisionReject, Note: "no"})
	require.NoError(t, err)
	_, err = f.Dispatches.CreateFromSRN(f.Manufacturer(), doc.ID)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidSRNState), "got %v", err)
}

func TestDispatch_OnlyOwningManufacturer(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	f.Assign(t)
	f.Produce(t, m, 10, 0)
	doc := f.ApprovedSRN(t, m, 2, 0)

	stranger := apptest.As(appctx.RoleManufacturer, id.New())
	_, err := f.Dispatches.CreateFromSRN(stranger, doc.ID)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden), "got %v", err)

	d, err := f.Dispatches.CreateFromSRN(f.Manufacturer(), doc.ID)
	require.NoError(t, err)
	_, err = f.Dispatches.Execute(stranger, d.ID)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden), "got %v", err)
	assert.Equal(t, int64(2), f.ManufacturerBalance(t, m).BlockedPackets)
}

func TestDispatch_CancelReleasesStock(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	f.Assign(t)
	f.Produce(t, m, 10, 0)
	doc := f.ApprovedSRN(t, m, 3, 0)
	d, err := f.Dispatches.CreateFromSRN(f.Manufacturer(), doc.ID)
	require.NoError(t, err)

	_, err = f.Dispatches.Cancel(f.Admin(), d.ID, " ")
	assert.True(t, apperror.Is(err, apperror.CodeValidation), "got %v", err)

	d, err = f.Dispatches.Cancel(f.Admin(), d.ID, "truck unavailable")
	require.NoError(t, err)
	assert.Equal(t, dispatch.StatusCancelled, d.Status)
	assert.Equal(t, "truck unavailable", d.CancelReason)

	bal := f.ManufacturerBalance(t, m)
	assert.Equal(t, int64(10), bal.FullPackets)
	assert.Zero(t, bal.BlockedPackets)

	_, err = f.Dispatches.Execute(f.Manufacturer(), d.ID)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidState), "got %v", err)
	_, err = f.Dispatches.CreateFromSRN(f.Manufacturer(), doc.ID)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidSRNState), "got %v", err)
}

func TestDispatch_SkipsLinesApprovedAtZero(t *testing.T) {
	f := apptest.New(t)
	milk := f.Material(t, "MILK", 12)
	ghee := f.Material(t, "GHEE", 6)
	f.Assign(t)
	f.Produce(t, milk, 10, 0)

	doc, err := f.SRNs.Create(f.Retailer(), srn.CreateCommand{
		ManufacturerID: f.ManufacturerID,
		Lines: []srn.LineInput{
			{MaterialID: milk.ID, Packets: 2},
			{MaterialID: ghee.ID, Packets: 2},
		},
	})
	require.NoError(t, err)
	_, err = f.SRNs.Submit(f.Retailer(), doc.ID)
	require.NoError(t, err)
	doc, err = f.SRNs.Process(f.Admin(), doc.ID, srn.ProcessCommand{
		Decision:  srn.DecisionApprove,
		Approvals: []srn.Approval{{LineID: doc.Lines[0].ID, Packets: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, srn.StatusPartial, doc.Status)

	d, err := f.Dispatches.CreateFromSRN(f.Manufacturer(), doc.ID)
	require.NoError(t, err)
	require.Len(t, d.Lines, 1)
	assert.Equal(t, milk.ID, d.Lines[0].MaterialID)
}

func TestDispatch_ListScopedToParties(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	f.Assign(t)
	f.Produce(t, m, 10, 0)
	f.ExecutedDispatch(t, m, 1, 0)

	for _, tt := range []struct {
		name string
		role string
		user id.ID
		want int
	}{
		{"retailer", appctx.RoleRetailer, f.RetailerID, 1},
		{"manufacturer", appctx.RoleManufacturer, f.ManufacturerID, 1},
		{"other retailer", appctx.RoleRetailer, id.New(), 0},
	} {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.Dispatches.List(apptest.As(tt.role, tt.user), dispatch.ListFilter{})
			require.NoError(t, err)
			assert.Len(t, res.Items, tt.want)
		})
	}
}

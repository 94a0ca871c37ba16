package srn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodchain/internal/app/apptest"
	"foodchain/internal/core/apperror"
	appctx "foodchain/internal/core/context"
	"foodchain/internal/core/id"
	"foodchain/internal/domain"
	"foodchain/internal/domain/documents/srn"
	"foodchain/internal/domain/registers/inventory"
)

func TestSRN_FullApprovalBlocksStock(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	f.Assign(t)
	f.Produce(t, m, 20, 0)

	doc := f.ApprovedSRN(t, m, 8, 0)
	assert.Equal(t, srn.StatusApproved, doc.Status)
	assert.NotNil(t, doc.ProcessedAt)
	require.NotNil(t, doc.ProcessedBy)
	assert.Equal(t, f.AdminID, *doc.ProcessedBy)

	bal := f.ManufacturerBalance(t, m)
	assert.Equal(t, int64(20), bal.FullPackets)
	assert.Equal(t, int64(8), bal.BlockedPackets)
	assert.Equal(t, inventory.Quantity{Packets: 12}, bal.Available())
}

func TestSRN_PartialApproval(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "CURD", 10)
	f.Assign(t)
	f.Produce(t, m, 20, 0)

	doc := f.SubmittedSRN(t, m, 10, 0)
	doc, err := f.SRNs.Process(f.Admin(), doc.ID, srn.ProcessCommand{
		Decision:  srn.DecisionApprove,
		Approvals: []srn.Approval{{LineID: doc.Lines[0].ID, Packets: 6}},
	})
	require.NoError(t, err)
	assert.Equal(t, srn.StatusPartial, doc.Status)
	assert.Equal(t, int64(6), f.ManufacturerBalance(t, m).BlockedPackets)
}

func TestSRN_ApprovalIsAllOrNothing(t *testing.T) {
	f := apptest.New(t)
	milk := f.Material(t, "MILK", 12)
	ghee := f.Material(t, "GHEE", 6)
	f.Assign(t)
	f.Produce(t, milk, 10, 0)
	f.Produce(t, ghee, 2, 0)

	doc, err := f.SRNs.Create(f.Retailer(), srn.CreateCommand{
		ManufacturerID: f.ManufacturerID,
		Lines: []srn.LineInput{
			{MaterialID: milk.ID, Packets: 5},
			{MaterialID: ghee.ID, Packets: 3},
		},
	})
	require.NoError(t, err)
	_, err = f.SRNs.Submit(f.Retailer(), doc.ID)
	require.NoError(t, err)

	_, err = f.SRNs.Process(f.Admin(), doc.ID, srn.ProcessCommand{
		Decision: srn.DecisionApprove,
		Approvals: []srn.Approval{
			{LineID: doc.Lines[0].ID, Packets: 5},
			{LineID: doc.Lines[1].ID, Packets: 3},
		},
	})
	assert.True(t, apperror.Is(err, apperror.CodeInsufficientAvailable), "got %v", err)

	assert.Zero(t, f.ManufacturerBalance(t, milk).BlockedPackets)
	assert.Zero(t, f.ManufacturerBalance(t, ghee).BlockedPackets)

	got, err := f.SRNs.GetByID(f.Admin(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, srn.StatusSubmitted, got.Status)
	assert.Nil(t, got.Lines[0].ApprovedPackets)
}

func TestSRN_RejectRequiresNote(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	f.Assign(t)
	doc := f.SubmittedSRN(t, m, 1, 0)

	_, err := f.SRNs.Process(f.Admin(), doc.ID, srn.ProcessCommand{Decision: srn.DecisionReject, Note: "  "})
	assert.True(t, apperror.Is(err, apperror.CodeValidation), "got %v", err)

	doc, err = f.SRNs.Process(f.Admin(), doc.ID, srn.ProcessCommand{Decision: srn.DecisionReject, Note: "out of season"})
	require.NoError(t, err)
	assert.Equal(t, srn.StatusRejected, doc.Status)
	assert.Equal(t, "out of season", doc.RejectionNote)

	_, err = f.SRNs.Process(f.Admin(), doc.ID, srn.ProcessCommand{Decision: srn.DecisionReject, Note: "again"})
	assert.True(t, apperror.Is(err, apperror.CodeInvalidState), "got %v", err)
}

func TestSRN_SubmitNeedsActiveAssignment(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)

	doc, err := f.SRNs.Create(f.Retailer(), srn.CreateCommand{
		ManufacturerID: f.ManufacturerID,
		Lines:          []srn.LineInput{{MaterialID: m.ID, Packets: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, srn.StatusDraft, doc.Status)
	assert.Equal(t, "SRN-", doc.Number[:4])

	_, err = f.SRNs.Submit(f.Retailer(), doc.ID)
	assert.True(t, apperror.Is(err, apperror.CodeNoActiveAssignment), "got %v", err)

	f.Assign(t)
	doc, err = f.SRNs.Submit(f.Retailer(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, srn.StatusSubmitted, doc.Status)

	_, err = f.SRNs.Submit(f.Retailer(), doc.ID)
	assert.True(t, apperror.Is(err, apperror.CodeInvalidState), "got %v", err)
}

func TestSRN_ProcessOnlyByAdmin(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	f.Assign(t)
	f.Produce(t, m, 5, 0)
	doc := f.SubmittedSRN(t, m, 1, 0)

	_, err := f.SRNs.Process(f.Manufacturer(), doc.ID, srn.ProcessCommand{Decision: srn.DecisionApprove})
	assert.True(t, apperror.Is(err, apperror.CodeForbidden), "got %v", err)
}

func TestSRN_DraftEditing(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	f.Assign(t)

	doc, err := f.SRNs.Create(f.Retailer(), srn.CreateCommand{
		ManufacturerID: f.ManufacturerID,
		Lines:          []srn.LineInput{{MaterialID: m.ID, Packets: 1}},
	})
	require.NoError(t, err)

	lines := []srn.LineInput{{MaterialID: m.ID, Packets: 4, LooseUnits: 2}}
	doc, err = f.SRNs.UpdateDraft(f.Retailer(), doc.ID, srn.UpdateCommand{Lines: &lines})
	require.NoError(t, err)
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, int64(4), doc.Lines[0].RequestedPackets)

	require.NoError(t, f.SRNs.DeleteDraft(f.Retailer(), doc.ID))
	_, err = f.SRNs.GetByID(f.Retailer(), doc.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestSRN_ListIsScopedToParties(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	f.Assign(t)
	f.SubmittedSRN(t, m, 1, 0)

	mine, err := f.SRNs.List(f.Retailer(), srn.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 1)

	other := apptest.As(appctx.RoleRetailer, id.New())
	theirs, err := f.SRNs.List(other, srn.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, theirs.Items)

	_, err = f.SRNs.GetByID(other, mine.Items[0].ID)
	assert.True(t, apperror.Is(err, apperror.CodeForbidden), "got %v", err)

	all, err := f.SRNs.List(f.Admin(), srn.ListFilter{ListFilter: domain.ListFilter{Status: string(srn.StatusSubmitted)}})
	require.NoError(t, err)
	assert.Len(t, all.Items, 1)
}

func TestSRN_Hooks(t *testing.T) {
	f := apptest.New(t)
	m := f.Material(t, "MILK", 12)
	f.Assign(t)

	var seen []srn.Status
	f.SRNs.Hooks().OnAfterTransition(func(_ context.Context, doc *srn.SRN) error {
		seen = append(seen, doc.Status)
		return nil
	})
	doc := f.SubmittedSRN(t, m, 1, 0)
	assert.Equal(t, []srn.Status{srn.StatusSubmitted}, seen)

	blocked := errors.New("blocked by hook")
	f.SRNs.Hooks().On(domain.BeforeCreate, func(context.Context, *srn.SRN) error { return blocked })
	_, err := f.SRNs.Create(f.Retailer(), srn.CreateCommand{
		ManufacturerID: f.ManufacturerID,
		Lines:          []srn.LineInput{{MaterialID: m.ID, Packets: 1}},
	})
	assert.ErrorIs(t, err, blocked)

	list, err := f.SRNs.List(f.Retailer(), srn.ListFilter{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, doc.ID, list.Items[0].ID)
}

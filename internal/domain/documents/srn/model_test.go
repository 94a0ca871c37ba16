package srn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
)

func twoLines() []Line {
	doc := New(id.New(), id.New())
	doc.SetLines([]LineInput{
		{MaterialID: id.New(), Packets: 10, LooseUnits: 4},
		{MaterialID: id.New(), Packets: 3},
	})
	return doc.Lines
}

func TestApplyApprovals(t *testing.T) {
	t.Run("full approval is APPROVED", func(t *testing.T) {
		lines := twoLines()
		err := applyApprovals(lines, []Approval{
			{LineID: lines[0].ID, Packets: 10, LooseUnits: 4},
			{LineID: lines[1].ID, Packets: 3},
		})
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, Classify(lines))
	})

	t.Run("omitted line is approved at zero", func(t *testing.T) {
		lines := twoLines()
		err := applyApprovals(lines, []Approval{{LineID: lines[0].ID, Packets: 10, LooseUnits: 4}})
		require.NoError(t, err)
		require.NotNil(t, lines[1].ApprovedPackets)
		assert.Zero(t, *lines[1].ApprovedPackets)
		assert.Equal(t, StatusPartial, Classify(lines))
	})

	t.Run("short loose units is PARTIAL", func(t *testing.T) {
		lines := twoLines()
		err := applyApprovals(lines, []Approval{
			{LineID: lines[0].ID, Packets: 10, LooseUnits: 3},
			{LineID: lines[1].ID, Packets: 3},
		})
		require.NoError(t, err)
		assert.Equal(t, StatusPartial, Classify(lines))
	})

	tests := []struct {
		name      string
		approvals func(l []Line) []Approval
		code      string
	}{
		{
			name:      "exceeds request",
			approvals: func(l []Line) []Approval { return []Approval{{LineID: l[1].ID, Packets: 4}} },
			code:      apperror.CodeValidation,
		},
		{
			name:      "negative",
			approvals: func(l []Line) []Approval { return []Approval{{LineID: l[0].ID, Packets: -1}} },
			code:      apperror.CodeInvalidQuantity,
		},
		{
			name:      "nothing approved",
			approvals: func(l []Line) []Approval { return nil },
			code:      apperror.CodeEmptyOperation,
		},
		{
			name:      "unknown line",
			approvals: func(l []Line) []Approval { return []Approval{{LineID: id.New(), Packets: 1}} },
			code:      apperror.CodeValidation,
		},
		{
			name: "line listed twice",
			approvals: func(l []Line) []Approval {
				return []Approval{{LineID: l[0].ID, Packets: 1}, {LineID: l[0].ID, Packets: 2}}
			},
			code: apperror.CodeValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := twoLines()
			err := applyApprovals(lines, tt.approvals(lines))
			assert.True(t, apperror.Is(err, tt.code), "got %v", err)
		})
	}
}

func TestSRN_Validate(t *testing.T) {
	ctx := t.Context()
	mat := id.New()

	doc := New(id.New(), id.New())
	doc.SetLines([]LineInput{{MaterialID: mat, Packets: 1}, {MaterialID: mat, LooseUnits: 2}})
	assert.True(t, apperror.Is(doc.Validate(ctx), apperror.CodeValidation))

	doc.SetLines([]LineInput{{MaterialID: mat}})
	assert.True(t, apperror.Is(doc.Validate(ctx), apperror.CodeEmptyOperation))

	doc.SetLines([]LineInput{{MaterialID: mat, Packets: 1}})
	assert.NoError(t, doc.Validate(ctx))
}

func TestStatus(t *testing.T) {
	assert.False(t, StatusSubmitted.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusPartial.Dispatchable())
	assert.False(t, StatusRejected.Dispatchable())
}

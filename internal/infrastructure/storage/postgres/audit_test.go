package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodchain/internal/core/id"
	"foodchain/internal/domain/audit"
)

func TestAuditRecorder_CompressesLargeChangeSets(t *testing.T) {
	rec, err := NewAuditRecorder(nil)
	require.NoError(t, err)

	entry := audit.Transition("grn", id.New(), "PENDING", "CONFIRMED", map[string]any{
		"note": strings.Repeat("short delivery on pallet 7; ", 400),
	})

	row, err := rec.encode(entry)
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, row.CompressionAlgo)
	assert.Nil(t, row.Changes)
	assert.Less(t, len(row.ChangesCompressed), 4*1024)
	assert.False(t, id.IsNil(row.ID))

	back, err := rec.decode(row)
	require.NoError(t, err)
	assert.Equal(t, entry.Changes["note"], back.Changes["note"])
	assert.Equal(t, "CONFIRMED", back.ToStatus)
}

func TestAuditRecorder_SmallChangesStayPlain(t *testing.T) {
	rec, err := NewAuditRecorder(nil)
	require.NoError(t, err)

	row, err := rec.encode(audit.Created("srn", id.New(), "DRAFT", map[string]any{"lines": 2}))
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, row.CompressionAlgo)
	assert.JSONEq(t, `{"lines":2}`, string(row.Changes))

	row, err = rec.encode(audit.Transition("srn", id.New(), "DRAFT", "SUBMITTED", nil))
	require.NoError(t, err)
	assert.Nil(t, row.Changes)
	assert.Nil(t, row.ChangesCompressed)
}

package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodchain/internal/core/entity"
	"foodchain/internal/core/id"
	"foodchain/internal/core/types"
	"foodchain/internal/domain/documents/invoice"
	"foodchain/internal/domain/documents/srn"
)

func TestExtractDBColumns_WalksEmbeddedStructs(t *testing.T) {
	cols := ExtractDBColumns[invoice.Invoice]()

	for _, expected := range []string{
		"id", "version", "created_at", "updated_by", "number",
		"retailer_id", "manufacturer_id",
		"subtotal", "grand_total", "grn_id", "interstate",
	} {
		assert.Contains(t, cols, expected)
	}
	assert.NotContains(t, cols, "lines")
}

func TestStructToMap_DocumentFields(t *testing.T) {
	actor := id.New()
	inv := &invoice.Invoice{
		Document: entity.NewDocument(actor),
		Parties:  entity.Parties{RetailerID: id.New(), ManufacturerID: id.New()},
		Totals:   invoice.Totals{GrandTotal: types.MustMoney("643.40")},
		GRNID:    id.New(),
	}
	inv.Number = "INV-2026-00001"

	m := StructToMap(inv)

	assert.Equal(t, inv.ID, m["id"])
	assert.Equal(t, 1, m["version"])
	assert.Equal(t, actor, m["created_by"])
	assert.Equal(t, "INV-2026-00001", m["number"])
	assert.Equal(t, inv.RetailerID, m["retailer_id"])
	assert.True(t, types.MustMoney("643.40").Equal(m["grand_total"].(types.Money)))
	_, hasLines := m["lines"]
	assert.False(t, hasLines)
}

func TestStructToRow_FollowsColumnOrder(t *testing.T) {
	approved := int64(4)
	line := srn.Line{
		ID:               id.New(),
		SRNID:            id.New(),
		LineNo:           2,
		MaterialID:       id.New(),
		RequestedPackets: 5,
		ApprovedPackets:  &approved,
	}
	cols := []string{"line_no", "requested_packets", "approved_packets", "approved_loose_units"}

	row := StructToRow(line, cols)

	require.Len(t, row, 4)
	assert.Equal(t, 2, row[0])
	assert.Equal(t, int64(5), row[1])
	assert.Equal(t, &approved, row[2])
	assert.Nil(t, row[3].(*int64))
}

package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"foodchain/internal/core/types"
)

func money(s string) types.Money { return types.MustMoney(s) }

func TestCompute(t *testing.T) {
	newLines := func() []Line {
		return []Line{
			{Packets: 4, LooseUnits: 5, UnitPrice: money("120.00"), LooseUnitPrice: money("10"), GSTRate: money("18")},
			{LooseUnits: 1, UnitPrice: money("120.00"), LooseUnitPrice: money("120").Div(money("7")), GSTRate: money("5")},
		}
	}

	t.Run("intrastate splits CGST and SGST", func(t *testing.T) {
		lines := newLines()
		totals := Compute(lines, false)

		assert.Equal(t, "530.00", lines[0].TaxableValue.StringFixed(2))
		assert.Equal(t, "47.70", lines[0].CGST.StringFixed(2))
		assert.Equal(t, "47.70", lines[0].SGST.StringFixed(2))
		assert.True(t, lines[0].IGST.IsZero())
		assert.Equal(t, "625.40", lines[0].LineTotal.StringFixed(2))

		// 120/7 rounds to 17.14; 2.5% of it is 0.4285, rounded per line.
		assert.Equal(t, "17.14", lines[1].TaxableValue.StringFixed(2))
		assert.Equal(t, "0.43", lines[1].CGST.StringFixed(2))
		assert.Equal(t, "0.43", lines[1].SGST.StringFixed(2))

		assert.Equal(t, "547.14", totals.Subtotal.StringFixed(2))
		assert.Equal(t, "48.13", totals.CGST.StringFixed(2))
		assert.Equal(t, "48.13", totals.SGST.StringFixed(2))
		assert.Equal(t, "96.26", totals.Tax.StringFixed(2))
		assert.Equal(t, "643.40", totals.GrandTotal.StringFixed(2))
	})

	t.Run("interstate charges IGST", func(t *testing.T) {
		lines := newLines()
		totals := Compute(lines, true)

		assert.Equal(t, "95.40", lines[0].IGST.StringFixed(2))
		assert.True(t, lines[0].CGST.IsZero())
		assert.Equal(t, "0.86", lines[1].IGST.StringFixed(2))
		assert.Equal(t, "96.26", totals.IGST.StringFixed(2))
		assert.True(t, totals.CGST.IsZero())
		assert.Equal(t, "643.40", totals.GrandTotal.StringFixed(2))
	})

	t.Run("no lines", func(t *testing.T) {
		totals := Compute(nil, false)
		assert.True(t, totals.GrandTotal.IsZero())
	})
}

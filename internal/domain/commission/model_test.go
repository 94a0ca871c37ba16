package commission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"foodchain/internal/core/types"
	"foodchain/internal/domain/catalogs/material"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name   string
		rule   material.CommissionType
		value  string
		units  int64
		amount string
		want   string
	}{
		{"percentage", material.CommissionPercentage, "5", 20, "200.00", "10.00"},
		{"percentage rounds to cents", material.CommissionPercentage, "2.5", 1, "0.50", "0.01"},
		{"flat per unit", material.CommissionFlatPerUnit, "0.75", 20, "200.00", "15.00"},
		{"flat ignores amount", material.CommissionFlatPerUnit, "1.255", 2, "0", "2.51"},
		{"unknown rule", "BONUS", "5", 20, "200.00", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.rule, types.MustMoney(tt.value), tt.units, types.MustMoney(tt.amount))
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

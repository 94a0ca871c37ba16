package dto

import (
	"foodchain/internal/core/types"
	"foodchain/internal/domain/sales"
)

// RecordSaleRequest records a retail sale.
// saleAmount defaults to MRP for the units sold.
type RecordSaleRequest struct {
	MaterialRef
	QuantityRequest
	SaleAmount *types.Money `json:"saleAmount"`
	Note       string       `json:"note" binding:"max=1000"`
}

// ToCommand converts the request to a service command.
func (r RecordSaleRequest) ToCommand() sales.RecordCommand {
	return sales.RecordCommand{
		Material:   r.ToRef(),
		Packets:    r.Packets,
		LooseUnits: r.LooseUnits,
		SaleAmount: r.SaleAmount,
		Note:       r.Note,
	}
}

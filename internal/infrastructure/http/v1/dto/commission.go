package dto

import "foodchain/internal/core/id"

// MarkPaidRequest marks commissions as paid.
type MarkPaidRequest struct {
	Reference string `json:"reference" binding:"required,max=255"`
}

// MarkAllPaidRequest pays every pending commission of a retailer.
type MarkAllPaidRequest struct {
	RetailerID id.ID  `json:"retailerId" binding:"required"`
	Reference  string `json:"reference" binding:"required,max=255"`
}

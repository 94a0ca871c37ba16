package dto

import "foodchain/internal/core/id"

// GenerateInvoiceRequest generates the invoice for a confirmed GRN.
type GenerateInvoiceRequest struct {
	GRNID      id.ID `json:"grnId" binding:"required"`
	Interstate bool  `json:"interstate"`
}

package dto

import "foodchain/internal/core/id"

// CreateDispatchRequest creates a dispatch from an approved SRN.
type CreateDispatchRequest struct {
	SRNID id.ID `json:"srnId" binding:"required"`
}

// CancelDispatchRequest carries the cancellation reason.
type CancelDispatchRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

package dto

import "foodchain/internal/core/id"

// AssignmentRequest links a retailer to a manufacturer.
type AssignmentRequest struct {
	RetailerID     id.ID `json:"retailerId" binding:"required"`
	ManufacturerID id.ID `json:"manufacturerId" binding:"required"`
}

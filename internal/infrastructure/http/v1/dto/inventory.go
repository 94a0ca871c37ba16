package dto

import (
	"foodchain/internal/core/id"
	"foodchain/internal/domain/registers/inventory"
)

// AvailabilityResponse reports free stock for one material and owner.
type AvailabilityResponse struct {
	MaterialID id.ID               `json:"materialId"`
	OwnerType  inventory.OwnerType `json:"ownerType"`
	OwnerID    id.ID               `json:"ownerId"`
	Available  inventory.Quantity  `json:"available"`
}

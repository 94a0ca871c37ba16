package assignment

import (
	"context"

	"foodchain/internal/core/id"
)

// Repository defines the interface for Assignment persistence.
// The (retailer, manufacturer) pair is unique.
type Repository interface {
	Create(ctx context.Context, a *Assignment) error
	Update(ctx context.Context, a *Assignment) error

	// GetByPair returns NOT_FOUND when the pair was never assigned.
	GetByPair(ctx context.Context, retailerID, manufacturerID id.ID) (*Assignment, error)

	ListByRetailer(ctx context.Context, retailerID id.ID, activeOnly bool) ([]*Assignment, error)
	ListByManufacturer(ctx context.Context, manufacturerID id.ID, activeOnly bool) ([]*Assignment, error)
}

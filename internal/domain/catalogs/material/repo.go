package material

import (
	"context"

	"foodchain/internal/core/id"
	"foodchain/internal/domain"
)

// Repository defines the interface for Material persistence.
type Repository interface {
	Create(ctx context.Context, m *Material) error
	Update(ctx context.Context, m *Material) error

	GetByID(ctx context.Context, id id.ID) (*Material, error)
	GetByCode(ctx context.Context, code string) (*Material, error)

	// GetForUpdate retrieves the material with a row lock (for transactional updates).
	GetForUpdate(ctx context.Context, id id.ID) (*Material, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Material], error)
}

// ListFilter for filtering materials.
type ListFilter struct {
	domain.ListFilter

	IncludeInactive bool
}

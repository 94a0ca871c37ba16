package entity

import (
	"context"
	"strings"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
)

// Catalog is the base type for reference data such as materials.
type Catalog struct {
	BaseEntity
	Timestamps

	// Code is a human-readable identifier (unique)
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	// IsActive is the soft-delete flag
	IsActive bool `db:"is_active" json:"isActive"`
}

// NewCatalog creates a new active Catalog with generated ID.
func NewCatalog(code, name string, actor id.ID) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Timestamps: NewTimestamps(actor),
		Code:       strings.TrimSpace(code),
		Name:       strings.TrimSpace(name),
		IsActive:   true,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Code == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}

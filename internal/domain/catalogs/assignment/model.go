// Package assignment provides the retailer to manufacturer assignment registry.
//
// A retailer may only submit stock requests to manufacturers it is actively
// assigned to. One row exists per pair; deactivation and reactivation flip the
// IsActive flag on that row.
package assignment

import (
	"context"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/entity"
	"foodchain/internal/core/id"
)

// Assignment links a retailer to a manufacturer.
type Assignment struct {
	entity.BaseEntity
	entity.Timestamps
	entity.Parties

	IsActive bool `db:"is_active" json:"isActive"`
}

// NewAssignment creates an active assignment.
func NewAssignment(retailerID, manufacturerID, actor id.ID) *Assignment {
	return &Assignment{
		BaseEntity: entity.NewBaseEntity(),
		Timestamps: entity.NewTimestamps(actor),
		Parties:    entity.Parties{RetailerID: retailerID, ManufacturerID: manufacturerID},
		IsActive:   true,
	}
}

// Validate implements entity.Validatable.
func (a *Assignment) Validate(_ context.Context) error {
	if err := a.ValidateParties(); err != nil {
		return err
	}
	if a.RetailerID == a.ManufacturerID {
		return apperror.NewValidation("retailer and manufacturer must differ")
	}
	return nil
}

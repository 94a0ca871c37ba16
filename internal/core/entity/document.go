package entity

import (
	"context"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
)

// Document is the base type for lifecycle documents (SRN, dispatch, GRN, invoice, return, sale).
type Document struct {
	BaseEntity
	Timestamps

	// Number is the human-readable document number (PREFIX-YEAR-NNNNN)
	Number string `db:"number" json:"number"`
}

// NewDocument creates a new Document with generated ID.
func NewDocument(actor id.ID) Document {
	return Document{
		BaseEntity: NewBaseEntity(),
		Timestamps: NewTimestamps(actor),
	}
}

// Touch records an update by actor and increments version.
func (d *Document) Touch(actor id.ID) {
	d.Stamp(actor)
	d.BaseEntity.Touch()
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if id.IsNil(d.ID) {
		return apperror.NewValidation("document id is required").
			WithDetail("field", "id")
	}
	return nil
}

// Parties links a document to the retailer and manufacturer it concerns.
type Parties struct {
	RetailerID     id.ID `db:"retailer_id" json:"retailerId"`
	ManufacturerID id.ID `db:"manufacturer_id" json:"manufacturerId"`
}

// Involves reports whether userID is the retailer or the manufacturer.
func (p Parties) Involves(userID id.ID) bool {
	return p.RetailerID == userID || p.ManufacturerID == userID
}

// ValidateParties ensures both sides are set.
func (p Parties) ValidateParties() error {
	if id.IsNil(p.RetailerID) {
		return apperror.NewValidation("retailer is required").
			WithDetail("field", "retailerId")
	}
	if id.IsNil(p.ManufacturerID) {
		return apperror.NewValidation("manufacturer is required").
			WithDetail("field", "manufacturerId")
	}
	return nil
}

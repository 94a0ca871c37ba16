// Package production records manufacturing batches.
//
// A batch is immutable once stored. It snapshots the material's tax fields so
// invoices for goods from the batch keep the classification valid at the time
// of manufacture.
package production

import (
	"context"
	"strings"
	"time"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/entity"
	"foodchain/internal/core/id"
	"foodchain/internal/core/types"
	"foodchain/internal/domain"
	"foodchain/internal/domain/catalogs/material"
)

// Batch is one production run of a material by a manufacturer.
type Batch struct {
	entity.BaseEntity
	entity.Timestamps

	ManufacturerID id.ID  `db:"manufacturer_id" json:"manufacturerId"`
	MaterialID     id.ID  `db:"material_id" json:"materialId"`
	BatchNumber    string `db:"batch_number" json:"batchNumber"`

	ManufactureDate time.Time `db:"manufacture_date" json:"manufactureDate"`
	ExpiryDate      time.Time `db:"expiry_date" json:"expiryDate"`

	Packets    int64 `db:"packets" json:"packets"`
	LooseUnits int64 `db:"loose_units" json:"looseUnits"`

	HSNCodeSnapshot string     `db:"hsn_code_snapshot" json:"hsnCodeSnapshot"`
	GSTRateSnapshot types.Rate `db:"gst_rate_snapshot" json:"gstRateSnapshot"`

	Note string `db:"note" json:"note,omitempty"`
}

// RecordCommand is the input of Service.Record.
type RecordCommand struct {
	Material        material.Ref
	BatchNumber     string
	ManufactureDate time.Time
	ExpiryDate      time.Time
	Packets         int64
	LooseUnits      int64
	Note            string
}

// Validate checks the command without touching storage.
func (c *RecordCommand) Validate(_ context.Context) error {
	c.BatchNumber = strings.TrimSpace(c.BatchNumber)
	if c.BatchNumber == "" {
		return apperror.NewValidation("batchNumber is required").
			WithDetail("field", "batchNumber")
	}
	if c.ManufactureDate.IsZero() || c.ExpiryDate.IsZero() {
		return apperror.NewValidation("manufactureDate and expiryDate are required")
	}
	if !c.ExpiryDate.After(c.ManufactureDate) {
		return apperror.NewInvalidDateRange("expiryDate must be after manufactureDate").
			WithDetail("manufactureDate", c.ManufactureDate).
			WithDetail("expiryDate", c.ExpiryDate)
	}
	if c.Packets < 0 {
		return apperror.NewInvalidQuantity("packets", c.Packets)
	}
	if c.LooseUnits < 0 {
		return apperror.NewInvalidQuantity("looseUnits", c.LooseUnits)
	}
	if c.Packets == 0 && c.LooseUnits == 0 {
		return apperror.NewEmptyOperation("production")
	}
	return nil
}

// newBatch builds the batch from a validated command and the locked material.
func newBatch(cmd RecordCommand, m *material.Material, manufacturerID id.ID) *Batch {
	return &Batch{
		BaseEntity:      entity.NewBaseEntity(),
		Timestamps:      entity.NewTimestamps(manufacturerID),
		ManufacturerID:  manufacturerID,
		MaterialID:      m.ID,
		BatchNumber:     cmd.BatchNumber,
		ManufactureDate: cmd.ManufactureDate,
		ExpiryDate:      cmd.ExpiryDate,
		Packets:         cmd.Packets,
		LooseUnits:      cmd.LooseUnits,
		HSNCodeSnapshot: m.HSNCode,
		GSTRateSnapshot: m.GSTRate,
		Note:            strings.TrimSpace(cmd.Note),
	}
}

// ListFilter for filtering batches.
type ListFilter struct {
	domain.ListFilter

	MaterialID *id.ID
}

// Repository persists batches.
type Repository interface {
	// Create inserts a batch. A (manufacturer, batch number) collision
	// returns DUPLICATE_REFERENCE.
	Create(ctx context.Context, b *Batch) error
	GetByID(ctx context.Context, id id.ID) (*Batch, error)
	ExistsByNumber(ctx context.Context, manufacturerID id.ID, batchNumber string) (bool, error)
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Batch], error)
}

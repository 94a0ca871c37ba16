// Package dispatch provides the Dispatch state machine.
//
// A dispatch is created by the manufacturer from an approved SRN and mirrors
// its approved quantities. Executing it ships the reserved stock; delivery is
// recorded when the retailer confirms the resulting GRN.
//
//	PENDING -> IN_TRANSIT -> DELIVERED
//	PENDING -> CANCELLED
package dispatch

import (
	"context"
	"time"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/entity"
	"foodchain/internal/core/id"
	"foodchain/internal/domain"
	"foodchain/internal/domain/documents/srn"
	"foodchain/internal/domain/registers/inventory"
)

const entityName = "dispatch"

// Status of a dispatch.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusInTransit Status = "IN_TRANSIT"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// Line is one shipped material.
type Line struct {
	ID         id.ID `db:"id" json:"id"`
	DispatchID id.ID `db:"dispatch_id" json:"dispatchId"`
	LineNo     int   `db:"line_no" json:"lineNo"`
	SRNLineID  id.ID `db:"srn_line_id" json:"srnLineId"`
	MaterialID id.ID `db:"material_id" json:"materialId"`
	Packets    int64 `db:"packets" json:"packets"`
	LooseUnits int64 `db:"loose_units" json:"looseUnits"`
}

// Quantity returns the shipped quantity.
func (l Line) Quantity() inventory.Quantity {
	return inventory.Quantity{Packets: l.Packets, LooseUnits: l.LooseUnits}
}

// Dispatch ships the approved quantities of one SRN.
type Dispatch struct {
	entity.Document
	entity.Parties

	SRNID  id.ID  `db:"srn_id" json:"srnId"`
	Status Status `db:"status" json:"status"`

	TotalPackets    int64 `db:"total_packets" json:"totalPackets"`
	TotalLooseUnits int64 `db:"total_loose_units" json:"totalLooseUnits"`

	ExecutedAt   *time.Time `db:"executed_at" json:"executedAt,omitempty"`
	DeliveredAt  *time.Time `db:"delivered_at" json:"deliveredAt,omitempty"`
	CancelledAt  *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
	CancelReason string     `db:"cancel_reason" json:"cancelReason,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// FromSRN builds a PENDING dispatch from the approved lines of doc.
// Lines approved at zero are skipped.
func FromSRN(doc *srn.SRN, actor id.ID) (*Dispatch, error) {
	if !doc.Status.Dispatchable() {
		return nil, invalidSRNState(doc)
	}

	d := &Dispatch{
		Document: entity.NewDocument(actor),
		Parties:  doc.Parties,
		SRNID:    doc.ID,
		Status:   StatusPending,
	}
	for _, l := range doc.Lines {
		q := l.Approved()
		if q.IsZero() {
			continue
		}
		d.Lines = append(d.Lines, Line{
			ID:         id.New(),
			DispatchID: d.ID,
			LineNo:     len(d.Lines) + 1,
			SRNLineID:  l.ID,
			MaterialID: l.MaterialID,
			Packets:    q.Packets,
			LooseUnits: q.LooseUnits,
		})
		d.TotalPackets += q.Packets
		d.TotalLooseUnits += q.LooseUnits
	}
	if len(d.Lines) == 0 {
		return nil, invalidSRNState(doc).WithDetail("reason", "nothing approved")
	}
	return d, nil
}

func invalidSRNState(doc *srn.SRN) *apperror.AppError {
	return apperror.NewBusinessRule(apperror.CodeInvalidSRNState,
		"srn must be APPROVED or PARTIAL and not yet dispatched").
		WithDetail("srn_id", doc.ID).
		WithDetail("status", string(doc.Status))
}

// Validate implements entity.Validatable.
func (d *Dispatch) Validate(ctx context.Context) error {
	if err := d.Document.Validate(ctx); err != nil {
		return err
	}
	return d.ValidateParties()
}

// ListFilter for filtering dispatches.
type ListFilter struct {
	domain.ListFilter

	SRNID *id.ID
}

// Repository defines operations for dispatch documents.
type Repository interface {
	// Create inserts the header. A second dispatch for the same SRN fails
	// with INVALID_SRN_STATE.
	Create(ctx context.Context, doc *Dispatch) error
	GetByID(ctx context.Context, docID id.ID) (*Dispatch, error)
	GetForUpdate(ctx context.Context, docID id.ID) (*Dispatch, error)
	Update(ctx context.Context, doc *Dispatch) error
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	ExistsForSRN(ctx context.Context, srnID id.ID) (bool, error)
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Dispatch], error)
}

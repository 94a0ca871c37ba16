// Package returns provides the return and resolution workflow.
//
// Retailers raise returns against delivered goods; admins review and resolve
// them. Only APPROVED_RESTOCK moves stock: the returned quantities go back
// into the manufacturer's on-hand inventory.
//
//	RAISED -> UNDER_REVIEW -> APPROVED_RESTOCK | APPROVED_REPLACE | REJECTED | RESOLVED
//	RAISED -> APPROVED_RESTOCK | APPROVED_REPLACE | REJECTED | RESOLVED
package returns

import (
	"context"
	"strings"
	"time"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/entity"
	"foodchain/internal/core/id"
	"foodchain/internal/domain"
	"foodchain/internal/domain/registers/inventory"
)

const entityName = "return"

// Status of a return.
type Status string

const (
	StatusRaised          Status = "RAISED"
	StatusUnderReview     Status = "UNDER_REVIEW"
	StatusApprovedRestock Status = "APPROVED_RESTOCK"
	StatusApprovedReplace Status = "APPROVED_REPLACE"
	StatusRejected        Status = "REJECTED"
	StatusResolved        Status = "RESOLVED"
)

// IsTerminal reports whether the return has been resolved.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApprovedRestock, StatusApprovedReplace, StatusRejected, StatusResolved:
		return true
	}
	return false
}

// Line is one returned material.
type Line struct {
	ID         id.ID `db:"id" json:"id"`
	ReturnID   id.ID `db:"return_id" json:"returnId"`
	LineNo     int   `db:"line_no" json:"lineNo"`
	MaterialID id.ID `db:"material_id" json:"materialId"`
	Packets    int64 `db:"packets" json:"packets"`
	LooseUnits int64 `db:"loose_units" json:"looseUnits"`
}

// Quantity returns the returned quantity.
func (l Line) Quantity() inventory.Quantity {
	return inventory.Quantity{Packets: l.Packets, LooseUnits: l.LooseUnits}
}

// Return is a retailer's claim against delivered goods.
type Return struct {
	entity.Document
	entity.Parties

	GRNID  *id.ID `db:"grn_id" json:"grnId,omitempty"`
	Reason string `db:"reason" json:"reason"`
	Status Status `db:"status" json:"status"`

	ResolutionNote string     `db:"resolution_note" json:"resolutionNote,omitempty"`
	ReviewedAt     *time.Time `db:"reviewed_at" json:"reviewedAt,omitempty"`
	ResolvedAt     *time.Time `db:"resolved_at" json:"resolvedAt,omitempty"`
	ResolvedBy     *id.ID     `db:"resolved_by" json:"resolvedBy,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// LineInput is a returned material on Raise.
type LineInput struct {
	MaterialID id.ID
	Packets    int64
	LooseUnits int64
}

// RaiseCommand is the input of Raise.
// With a GRN the manufacturer is taken from it; otherwise ManufacturerID is required.
type RaiseCommand struct {
	ManufacturerID id.ID
	GRNID          *id.ID
	Reason         string
	Lines          []LineInput
}

// ResolveCommand is the admin decision.
type ResolveCommand struct {
	Outcome Status
	Note    string
}

// New creates a RAISED return.
func New(retailerID, manufacturerID id.ID, reason string, inputs []LineInput) *Return {
	r := &Return{
		Document: entity.NewDocument(retailerID),
		Parties:  entity.Parties{RetailerID: retailerID, ManufacturerID: manufacturerID},
		Reason:   strings.TrimSpace(reason),
		Status:   StatusRaised,
	}
	for i, in := range inputs {
		r.Lines = append(r.Lines, Line{
			ID:         id.New(),
			ReturnID:   r.ID,
			LineNo:     i + 1,
			MaterialID: in.MaterialID,
			Packets:    in.Packets,
			LooseUnits: in.LooseUnits,
		})
	}
	return r
}

// Validate implements entity.Validatable.
func (r *Return) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}
	if err := r.ValidateParties(); err != nil {
		return err
	}
	if r.Reason == "" {
		return apperror.NewValidation("reason is required").WithDetail("field", "reason")
	}
	if len(r.Lines) == 0 {
		return apperror.NewValidation("return must have at least one line")
	}
	for _, l := range r.Lines {
		if id.IsNil(l.MaterialID) {
			return apperror.NewValidation("line material is required").WithDetail("line", l.LineNo)
		}
		if err := l.Quantity().Validate(); err != nil {
			return err
		}
		if l.Quantity().IsZero() {
			return apperror.NewEmptyOperation("return line").WithDetail("line", l.LineNo)
		}
	}
	return nil
}

// ByMaterial sums line quantities per material.
func (r *Return) ByMaterial() map[id.ID]inventory.Quantity {
	out := make(map[id.ID]inventory.Quantity, len(r.Lines))
	for _, l := range r.Lines {
		q := out[l.MaterialID]
		q.Packets += l.Packets
		q.LooseUnits += l.LooseUnits
		out[l.MaterialID] = q
	}
	return out
}

// ListFilter for filtering returns.
type ListFilter struct {
	domain.ListFilter

	GRNID *id.ID
}

// Repository defines operations for return documents.
type Repository interface {
	Create(ctx context.Context, doc *Return) error
	GetByID(ctx context.Context, docID id.ID) (*Return, error)
	GetForUpdate(ctx context.Context, docID id.ID) (*Return, error)
	Update(ctx context.Context, doc *Return) error
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	// ListByGRN returns every return raised against grnID, with lines.
	ListByGRN(ctx context.Context, grnID id.ID) ([]*Return, error)
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Return], error)
}

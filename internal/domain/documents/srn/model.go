// Package srn provides the Stock Requisition Note state machine.
//
// A retailer drafts a request against one assigned manufacturer and submits
// it. An admin then approves it (fully or partially), which reserves the
// manufacturer's stock, or rejects it with a note.
//
//	DRAFT -> SUBMITTED -> APPROVED | PARTIAL | REJECTED
package srn

import (
	"context"
	"time"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/entity"
	"foodchain/internal/core/id"
	"foodchain/internal/domain/registers/inventory"
)

const entityName = "srn"

// Status of an SRN.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusPartial   Status = "PARTIAL"
	StatusRejected  Status = "REJECTED"
)

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusPartial || s == StatusRejected
}

// Dispatchable reports whether a dispatch may be created from the SRN.
func (s Status) Dispatchable() bool {
	return s == StatusApproved || s == StatusPartial
}

// Line is one requested material.
// Approved quantities stay nil until the SRN is processed.
type Line struct {
	ID                  id.ID  `db:"id" json:"id"`
	SRNID               id.ID  `db:"srn_id" json:"srnId"`
	LineNo              int    `db:"line_no" json:"lineNo"`
	MaterialID          id.ID  `db:"material_id" json:"materialId"`
	RequestedPackets    int64  `db:"requested_packets" json:"requestedPackets"`
	RequestedLooseUnits int64  `db:"requested_loose_units" json:"requestedLooseUnits"`
	ApprovedPackets     *int64 `db:"approved_packets" json:"approvedPackets"`
	ApprovedLooseUnits  *int64 `db:"approved_loose_units" json:"approvedLooseUnits"`
}

// Requested returns the requested quantity.
func (l Line) Requested() inventory.Quantity {
	return inventory.Quantity{Packets: l.RequestedPackets, LooseUnits: l.RequestedLooseUnits}
}

// Approved returns the approved quantity, zero when unprocessed.
func (l Line) Approved() inventory.Quantity {
	var q inventory.Quantity
	if l.ApprovedPackets != nil {
		q.Packets = *l.ApprovedPackets
	}
	if l.ApprovedLooseUnits != nil {
		q.LooseUnits = *l.ApprovedLooseUnits
	}
	return q
}

// SRN is a stock requisition note.
type SRN struct {
	entity.Document
	entity.Parties

	Status Status `db:"status" json:"status"`
	Note   string `db:"note" json:"note,omitempty"`

	SubmittedAt   *time.Time `db:"submitted_at" json:"submittedAt,omitempty"`
	ProcessedAt   *time.Time `db:"processed_at" json:"processedAt,omitempty"`
	ProcessedBy   *id.ID     `db:"processed_by" json:"processedBy,omitempty"`
	RejectionNote string     `db:"rejection_note" json:"rejectionNote,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// New creates a DRAFT SRN for retailer addressed to manufacturer.
func New(retailerID, manufacturerID id.ID) *SRN {
	return &SRN{
		Document: entity.NewDocument(retailerID),
		Parties:  entity.Parties{RetailerID: retailerID, ManufacturerID: manufacturerID},
		Status:   StatusDraft,
	}
}

// Validate implements entity.Validatable.
func (s *SRN) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}
	if err := s.ValidateParties(); err != nil {
		return err
	}
	seen := make(map[id.ID]struct{}, len(s.Lines))
	for i, l := range s.Lines {
		if id.IsNil(l.MaterialID) {
			return apperror.NewValidation("line material is required").
				WithDetail("line", i+1)
		}
		if _, dup := seen[l.MaterialID]; dup {
			return apperror.NewValidation("material appears on more than one line").
				WithDetail("line", i+1).
				WithDetail("material_id", l.MaterialID)
		}
		seen[l.MaterialID] = struct{}{}
		if err := l.Requested().Validate(); err != nil {
			return err
		}
		if l.Requested().IsZero() {
			return apperror.NewEmptyOperation("srn line").WithDetail("line", i+1)
		}
	}
	return nil
}

// SetLines replaces the lines, assigning ids and numbers.
func (s *SRN) SetLines(inputs []LineInput) {
	s.Lines = make([]Line, 0, len(inputs))
	for i, in := range inputs {
		s.Lines = append(s.Lines, Line{
			ID:                  id.New(),
			SRNID:               s.ID,
			LineNo:              i + 1,
			MaterialID:          in.MaterialID,
			RequestedPackets:    in.Packets,
			RequestedLooseUnits: in.LooseUnits,
		})
	}
}

// LineInput is a requested material on create or update.
type LineInput struct {
	MaterialID id.ID
	Packets    int64
	LooseUnits int64
}

// Decision selects the outcome of Process.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// Approval sets the approved quantity of one line.
type Approval struct {
	LineID     id.ID
	Packets    int64
	LooseUnits int64
}

// ProcessCommand is the admin decision on a submitted SRN.
// Lines without an Approval are approved at zero.
type ProcessCommand struct {
	Decision  Decision
	Approvals []Approval
	Note      string
}

// Classify derives the status of a processed SRN from its lines:
// PARTIAL when any line was approved below the requested quantity, APPROVED otherwise.
func Classify(lines []Line) Status {
	for _, l := range lines {
		a, r := l.Approved(), l.Requested()
		if a.Packets < r.Packets || a.LooseUnits < r.LooseUnits {
			return StatusPartial
		}
	}
	return StatusApproved
}

// applyApprovals writes approved quantities onto lines. Quantities must be
// non-negative, not exceed the request and at least one unit must be approved.
func applyApprovals(lines []Line, approvals []Approval) error {
	byLine := make(map[id.ID]Approval, len(approvals))
	for _, a := range approvals {
		if _, dup := byLine[a.LineID]; dup {
			return apperror.NewValidation("line approved more than once").
				WithDetail("line_id", a.LineID)
		}
		byLine[a.LineID] = a
	}

	known := make(map[id.ID]struct{}, len(lines))
	var total int64
	for i := range lines {
		l := &lines[i]
		known[l.ID] = struct{}{}
		a := byLine[l.ID]
		q := inventory.Quantity{Packets: a.Packets, LooseUnits: a.LooseUnits}
		if err := q.Validate(); err != nil {
			return err
		}
		if q.Packets > l.RequestedPackets || q.LooseUnits > l.RequestedLooseUnits {
			return apperror.NewValidation("approved quantity exceeds requested").
				WithDetail("line", l.LineNo).
				WithDetail("requested_packets", l.RequestedPackets).
				WithDetail("requested_loose", l.RequestedLooseUnits)
		}
		p, u := q.Packets, q.LooseUnits
		l.ApprovedPackets, l.ApprovedLooseUnits = &p, &u
		total += p + u
	}

	for lineID := range byLine {
		if _, ok := known[lineID]; !ok {
			return apperror.NewValidation("approval references unknown line").
				WithDetail("line_id", lineID)
		}
	}
	if total == 0 {
		return apperror.NewEmptyOperation("srn approval")
	}
	return nil
}

// Package grn provides the Goods Receipt Note state machine.
//
// A GRN is opened automatically when a dispatch goes IN_TRANSIT and expects
// the dispatched quantities. The retailer confirms what actually arrived;
// only received quantities are credited to retailer stock.
//
//	PENDING -> CONFIRMED
package grn

import (
	"context"
	"time"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/entity"
	"foodchain/internal/core/id"
	"foodchain/internal/domain"
	"foodchain/internal/domain/documents/dispatch"
	"foodchain/internal/domain/registers/inventory"
)

const entityName = "grn"

// Status of a GRN.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
)

// Line compares expected and received quantities of one material.
type Line struct {
	ID                 id.ID  `db:"id" json:"id"`
	GRNID              id.ID  `db:"grn_id" json:"grnId"`
	LineNo             int    `db:"line_no" json:"lineNo"`
	DispatchLineID     id.ID  `db:"dispatch_line_id" json:"dispatchLineId"`
	MaterialID         id.ID  `db:"material_id" json:"materialId"`
	ExpectedPackets    int64  `db:"expected_packets" json:"expectedPackets"`
	ExpectedLooseUnits int64  `db:"expected_loose_units" json:"expectedLooseUnits"`
	ReceivedPackets    *int64 `db:"received_packets" json:"receivedPackets"`
	ReceivedLooseUnits *int64 `db:"received_loose_units" json:"receivedLooseUnits"`
	DamagedPackets     int64  `db:"damaged_packets" json:"damagedPackets"`
	DamagedLooseUnits  int64  `db:"damaged_loose_units" json:"damagedLooseUnits"`
}

// Expected returns the dispatched quantity.
func (l Line) Expected() inventory.Quantity {
	return inventory.Quantity{Packets: l.ExpectedPackets, LooseUnits: l.ExpectedLooseUnits}
}

// Received returns the confirmed quantity, zero while pending.
func (l Line) Received() inventory.Quantity {
	var q inventory.Quantity
	if l.ReceivedPackets != nil {
		q.Packets = *l.ReceivedPackets
	}
	if l.ReceivedLooseUnits != nil {
		q.LooseUnits = *l.ReceivedLooseUnits
	}
	return q
}

// GRN is a goods receipt note.
type GRN struct {
	entity.Document
	entity.Parties

	DispatchID  id.ID      `db:"dispatch_id" json:"dispatchId"`
	Status      Status     `db:"status" json:"status"`
	ConfirmedAt *time.Time `db:"confirmed_at" json:"confirmedAt,omitempty"`
	Note        string     `db:"note" json:"note,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// FromDispatch builds a PENDING GRN expecting the dispatched quantities.
func FromDispatch(d *dispatch.Dispatch) *GRN {
	g := &GRN{
		Document:   entity.NewDocument(d.ManufacturerID),
		Parties:    d.Parties,
		DispatchID: d.ID,
		Status:     StatusPending,
	}
	for _, l := range d.Lines {
		g.Lines = append(g.Lines, Line{
			ID:                 id.New(),
			GRNID:              g.ID,
			LineNo:             l.LineNo,
			DispatchLineID:     l.ID,
			MaterialID:         l.MaterialID,
			ExpectedPackets:    l.Packets,
			ExpectedLooseUnits: l.LooseUnits,
		})
	}
	return g
}

// ReceivedByMaterial sums confirmed quantities per material.
func (g *GRN) ReceivedByMaterial() map[id.ID]inventory.Quantity {
	out := make(map[id.ID]inventory.Quantity, len(g.Lines))
	for _, l := range g.Lines {
		q := out[l.MaterialID]
		r := l.Received()
		q.Packets += r.Packets
		q.LooseUnits += r.LooseUnits
		out[l.MaterialID] = q
	}
	return out
}

// Receipt is the retailer's count for one line.
type Receipt struct {
	LineID             id.ID
	ReceivedPackets    int64
	ReceivedLooseUnits int64
	DamagedPackets     int64
	DamagedLooseUnits  int64
}

// ConfirmCommand is the input of Confirm. Every line needs a Receipt.
type ConfirmCommand struct {
	Receipts []Receipt
	Note     string
}

// Discrepancy reports a line received below expectation.
type Discrepancy struct {
	LineNo            int   `json:"lineNo"`
	MaterialID        id.ID `json:"materialId"`
	ShortPackets      int64 `json:"shortPackets"`
	ShortLooseUnits   int64 `json:"shortLooseUnits"`
	DamagedPackets    int64 `json:"damagedPackets"`
	DamagedLooseUnits int64 `json:"damagedLooseUnits"`
}

// ConfirmResult is returned by Confirm.
type ConfirmResult struct {
	GRN           *GRN          `json:"grn"`
	Discrepancies []Discrepancy `json:"discrepancies"`
}

// applyReceipts validates receipts against lines and records them.
func applyReceipts(lines []Line, receipts []Receipt) ([]Discrepancy, error) {
	byLine := make(map[id.ID]Receipt, len(receipts))
	for _, r := range receipts {
		if _, dup := byLine[r.LineID]; dup {
			return nil, apperror.NewValidation("line confirmed more than once").
				WithDetail("line_id", r.LineID)
		}
		byLine[r.LineID] = r
	}
	if len(byLine) != len(lines) {
		return nil, apperror.NewValidation("every line must be confirmed").
			WithDetail("lines", len(lines)).
			WithDetail("receipts", len(byLine))
	}

	var discrepancies []Discrepancy
	for i := range lines {
		l := &lines[i]
		r, ok := byLine[l.ID]
		if !ok {
			return nil, apperror.NewValidation("line is not confirmed").
				WithDetail("line", l.LineNo)
		}
		for field, v := range map[string]int64{
			"receivedPackets":    r.ReceivedPackets,
			"receivedLooseUnits": r.ReceivedLooseUnits,
			"damagedPackets":     r.DamagedPackets,
			"damagedLooseUnits":  r.DamagedLooseUnits,
		} {
			if v < 0 {
				return nil, apperror.NewInvalidQuantity(field, v).WithDetail("line", l.LineNo)
			}
		}
		if r.ReceivedPackets > l.ExpectedPackets || r.ReceivedLooseUnits > l.ExpectedLooseUnits {
			return nil, apperror.NewBusinessRule(apperror.CodeReceivedExceedsExpected,
				"received quantity exceeds expected").
				WithDetail("line", l.LineNo).
				WithDetail("expected_packets", l.ExpectedPackets).
				WithDetail("expected_loose", l.ExpectedLooseUnits)
		}
		if r.ReceivedPackets+r.DamagedPackets > l.ExpectedPackets ||
			r.ReceivedLooseUnits+r.DamagedLooseUnits > l.ExpectedLooseUnits {
			return nil, apperror.NewValidation("received plus damaged exceeds expected").
				WithDetail("line", l.LineNo)
		}

		rp, rl := r.ReceivedPackets, r.ReceivedLooseUnits
		l.ReceivedPackets, l.ReceivedLooseUnits = &rp, &rl
		l.DamagedPackets, l.DamagedLooseUnits = r.DamagedPackets, r.DamagedLooseUnits

		if rp < l.ExpectedPackets || rl < l.ExpectedLooseUnits {
			discrepancies = append(discrepancies, Discrepancy{
				LineNo:            l.LineNo,
				MaterialID:        l.MaterialID,
				ShortPackets:      l.ExpectedPackets - rp,
				ShortLooseUnits:   l.ExpectedLooseUnits - rl,
				DamagedPackets:    r.DamagedPackets,
				DamagedLooseUnits: r.DamagedLooseUnits,
			})
		}
	}
	return discrepancies, nil
}

// Validate implements entity.Validatable.
func (g *GRN) Validate(ctx context.Context) error {
	if err := g.Document.Validate(ctx); err != nil {
		return err
	}
	return g.ValidateParties()
}

// ListFilter for filtering GRNs.
type ListFilter struct {
	domain.ListFilter
}

// Repository defines operations for GRN documents.
type Repository interface {
	Create(ctx context.Context, doc *GRN) error
	GetByID(ctx context.Context, docID id.ID) (*GRN, error)
	GetForUpdate(ctx context.Context, docID id.ID) (*GRN, error)
	GetByDispatch(ctx context.Context, dispatchID id.ID) (*GRN, error)
	Update(ctx context.Context, doc *GRN) error
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*GRN], error)
}

package dto

import (
	"foodchain/internal/core/id"
	"foodchain/internal/domain/documents/returns"
)

// ReturnLineRequest is one returned material.
type ReturnLineRequest struct {
	MaterialID id.ID `json:"materialId" binding:"required"`
	QuantityRequest
}

// RaiseReturnRequest raises a return against a manufacturer.
type RaiseReturnRequest struct {
	ManufacturerID id.ID               `json:"manufacturerId" binding:"required"`
	GRNID          *id.ID              `json:"grnId"`
	Reason         string              `json:"reason" binding:"required,max=1000"`
	Lines          []ReturnLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToCommand converts the request to a service command.
func (r RaiseReturnRequest) ToCommand() returns.RaiseCommand {
	cmd := returns.RaiseCommand{
		ManufacturerID: r.ManufacturerID,
		GRNID:          r.GRNID,
		Reason:         r.Reason,
		Lines:          make([]returns.LineInput, len(r.Lines)),
	}
	for i, l := range r.Lines {
		cmd.Lines[i] = returns.LineInput{MaterialID: l.MaterialID, Packets: l.Packets, LooseUnits: l.LooseUnits}
	}
	return cmd
}

// ResolveReturnRequest closes a return under review.
type ResolveReturnRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=APPROVED_RESTOCK APPROVED_REPLACE REJECTED RESOLVED"`
	Note    string `json:"note" binding:"max=1000"`
}

// ToCommand converts the request to a service command.
func (r ResolveReturnRequest) ToCommand() returns.ResolveCommand {
	return returns.ResolveCommand{Outcome: returns.Status(r.Outcome), Note: r.Note}
}

package dto

import (
	"foodchain/internal/core/id"
	"foodchain/internal/domain/documents/srn"
)

// SRNLineRequest is one requested material.
type SRNLineRequest struct {
	MaterialID id.ID `json:"materialId" binding:"required"`
	QuantityRequest
}

// CreateSRNRequest for drafting a stock requisition.
type CreateSRNRequest struct {
	ManufacturerID id.ID            `json:"manufacturerId" binding:"required"`
	Note           string           `json:"note" binding:"max=1000"`
	Lines          []SRNLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToCommand converts the request to a service command.
func (r CreateSRNRequest) ToCommand() srn.CreateCommand {
	return srn.CreateCommand{
		ManufacturerID: r.ManufacturerID,
		Note:           r.Note,
		Lines:          srnLines(r.Lines),
	}
}

// UpdateSRNRequest replaces the given parts of a draft.
type UpdateSRNRequest struct {
	ManufacturerID *id.ID            `json:"manufacturerId"`
	Note           *string           `json:"note" binding:"omitempty,max=1000"`
	Lines          *[]SRNLineRequest `json:"lines" binding:"omitempty,min=1,dive"`
}

// ToCommand converts the request to a service command.
func (r UpdateSRNRequest) ToCommand() srn.UpdateCommand {
	cmd := srn.UpdateCommand{ManufacturerID: r.ManufacturerID, Note: r.Note}
	if r.Lines != nil {
		lines := srnLines(*r.Lines)
		cmd.Lines = &lines
	}
	return cmd
}

func srnLines(in []SRNLineRequest) []srn.LineInput {
	out := make([]srn.LineInput, len(in))
	for i, l := range in {
		out[i] = srn.LineInput{MaterialID: l.MaterialID, Packets: l.Packets, LooseUnits: l.LooseUnits}
	}
	return out
}

// SRNApprovalRequest sets the approved quantity for one line.
type SRNApprovalRequest struct {
	LineID id.ID `json:"lineId" binding:"required"`
	QuantityRequest
}

// ProcessSRNRequest approves or rejects a submitted SRN.
// Lines missing from approvals are approved at zero.
type ProcessSRNRequest struct {
	Decision  string               `json:"decision" binding:"required,oneof=APPROVE REJECT"`
	Approvals []SRNApprovalRequest `json:"approvals" binding:"omitempty,dive"`
	Note      string               `json:"note" binding:"max=1000"`
}

// ToCommand converts the request to a service command.
func (r ProcessSRNRequest) ToCommand() srn.ProcessCommand {
	cmd := srn.ProcessCommand{Decision: srn.Decision(r.Decision), Note: r.Note}
	for _, a := range r.Approvals {
		cmd.Approvals = append(cmd.Approvals, srn.Approval{
			LineID:     a.LineID,
			Packets:    a.Packets,
			LooseUnits: a.LooseUnits,
		})
	}
	return cmd
}

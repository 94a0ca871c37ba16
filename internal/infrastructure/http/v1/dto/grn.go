package dto

import (
	"foodchain/internal/core/id"
	"foodchain/internal/domain/documents/grn"
)

// GRNReceiptRequest records what arrived for one line.
type GRNReceiptRequest struct {
	LineID             id.ID `json:"lineId" binding:"required"`
	ReceivedPackets    int64 `json:"receivedPackets" binding:"min=0"`
	ReceivedLooseUnits int64 `json:"receivedLooseUnits" binding:"min=0"`
	DamagedPackets     int64 `json:"damagedPackets" binding:"min=0"`
	DamagedLooseUnits  int64 `json:"damagedLooseUnits" binding:"min=0"`
}

// ConfirmGRNRequest confirms receipt of every line of a GRN.
type ConfirmGRNRequest struct {
	Receipts []GRNReceiptRequest `json:"receipts" binding:"required,min=1,dive"`
	Note     string              `json:"note" binding:"max=1000"`
}

// ToCommand converts the request to a service command.
func (r ConfirmGRNRequest) ToCommand() grn.ConfirmCommand {
	cmd := grn.ConfirmCommand{Note: r.Note, Receipts: make([]grn.Receipt, len(r.Receipts))}
	for i, rc := range r.Receipts {
		cmd.Receipts[i] = grn.Receipt{
			LineID:             rc.LineID,
			ReceivedPackets:    rc.ReceivedPackets,
			ReceivedLooseUnits: rc.ReceivedLooseUnits,
			DamagedPackets:     rc.DamagedPackets,
			DamagedLooseUnits:  rc.DamagedLooseUnits,
		}
	}
	return cmd
}

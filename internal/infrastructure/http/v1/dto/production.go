package dto

import (
	"foodchain/internal/core/apperror"
	"foodchain/internal/domain/production"
)

// RecordProductionRequest for recording a production batch.
type RecordProductionRequest struct {
	MaterialRef
	BatchNumber     string `json:"batchNumber" binding:"required,max=64"`
	ManufactureDate string `json:"manufactureDate" binding:"required"`
	ExpiryDate      string `json:"expiryDate" binding:"required"`
	Packets         int64  `json:"packets" binding:"min=0"`
	LooseUnits      int64  `json:"looseUnits" binding:"min=0"`
	Note            string `json:"note" binding:"max=1000"`
}

// ToCommand converts the request to a service command.
func (r RecordProductionRequest) ToCommand() (production.RecordCommand, error) {
	mfg, err := ParseDate(r.ManufactureDate)
	if err != nil {
		return production.RecordCommand{}, apperror.NewValidation("invalid manufactureDate").WithDetail("value", r.ManufactureDate)
	}
	exp, err := ParseDate(r.ExpiryDate)
	if err != nil {
		return production.RecordCommand{}, apperror.NewValidation("invalid expiryDate").WithDetail("value", r.ExpiryDate)
	}
	return production.RecordCommand{
		Material:        r.ToRef(),
		BatchNumber:     r.BatchNumber,
		ManufactureDate: mfg,
		ExpiryDate:      exp,
		Packets:         r.Packets,
		LooseUnits:      r.LooseUnits,
		Note:            r.Note,
	}, nil
}

package dto

import (
	"github.com/shopspring/decimal"

	"foodchain/internal/domain/catalogs/material"
)

// CreateMaterialRequest for registering a material.
type CreateMaterialRequest struct {
	Code            string          `json:"code" binding:"required,max=50"`
	Name            string          `json:"name" binding:"required,max=255"`
	UnitsPerPacket  int64           `json:"unitsPerPacket" binding:"required,min=1"`
	HSNCode         string          `json:"hsnCode" binding:"required,hsn"`
	GSTRate         decimal.Decimal `json:"gstRate"`
	MRPPerPacket    decimal.Decimal `json:"mrpPerPacket"`
	CommissionType  string          `json:"commissionType" binding:"omitempty,oneof=PERCENTAGE FLAT_PER_UNIT"`
	CommissionValue decimal.Decimal `json:"commissionValue"`
}

// ToCommand converts the request to a service command.
func (r CreateMaterialRequest) ToCommand() material.CreateCommand {
	return material.CreateCommand{
		Code:            r.Code,
		Name:            r.Name,
		UnitsPerPacket:  r.UnitsPerPacket,
		HSNCode:         r.HSNCode,
		GSTRate:         r.GSTRate,
		MRPPerPacket:    r.MRPPerPacket,
		CommissionType:  material.CommissionType(r.CommissionType),
		CommissionValue: r.CommissionValue,
	}
}

// UpdateMaterialRequest for partial material updates.
// unitsPerPacket is accepted only so the service can reject a change with IMMUTABLE_FIELD.
type UpdateMaterialRequest struct {
	Name            *string          `json:"name" binding:"omitempty,min=1,max=255"`
	UnitsPerPacket  *int64           `json:"unitsPerPacket"`
	HSNCode         *string          `json:"hsnCode" binding:"omitempty,hsn"`
	GSTRate         *decimal.Decimal `json:"gstRate"`
	MRPPerPacket    *decimal.Decimal `json:"mrpPerPacket"`
	CommissionType  *string          `json:"commissionType" binding:"omitempty,oneof=PERCENTAGE FLAT_PER_UNIT"`
	CommissionValue *decimal.Decimal `json:"commissionValue"`
	Version         int              `json:"version" binding:"min=0"`
}

// ToCommand converts the request to a service command.
func (r UpdateMaterialRequest) ToCommand() material.UpdateCommand {
	cmd := material.UpdateCommand{
		Name:            r.Name,
		UnitsPerPacket:  r.UnitsPerPacket,
		HSNCode:         r.HSNCode,
		GSTRate:         r.GSTRate,
		MRPPerPacket:    r.MRPPerPacket,
		CommissionValue: r.CommissionValue,
		ExpectedVersion: r.Version,
	}
	if r.CommissionType != nil {
		t := material.CommissionType(*r.CommissionType)
		cmd.CommissionType = &t
	}
	return cmd
}

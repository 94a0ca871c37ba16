// Package material provides the Material catalog.
//
// A material fixes its packet size at creation. Tax classification (HSN code
// and GST rate) stays editable until the first production batch, after which
// it is frozen; price and commission rule remain editable for the lifetime of
// the record.
package material

import (
	"context"
	"regexp"

	"github.com/shopspring/decimal"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/entity"
	"foodchain/internal/core/id"
	"foodchain/internal/core/types"
)

// CommissionType selects how retailer commission is computed on a sale.
type CommissionType string

const (
	// CommissionPercentage applies CommissionValue percent to the sale amount.
	CommissionPercentage CommissionType = "PERCENTAGE"
	// CommissionFlatPerUnit multiplies CommissionValue by units sold.
	CommissionFlatPerUnit CommissionType = "FLAT_PER_UNIT"
)

// IsValid reports whether t is a known commission type.
func (t CommissionType) IsValid() bool {
	return t == CommissionPercentage || t == CommissionFlatPerUnit
}

// hsnPattern accepts 4, 6 or 8 digit HSN codes.
var hsnPattern = regexp.MustCompile(`^(\d{4}|\d{6}|\d{8})$`)

// ValidHSN reports whether code is a well-formed HSN code.
func ValidHSN(code string) bool {
	return hsnPattern.MatchString(code)
}

// Material is a producible item.
type Material struct {
	entity.Catalog

	// UnitsPerPacket is the number of loose units in one sealed packet. Immutable.
	UnitsPerPacket int64 `db:"units_per_packet" json:"unitsPerPacket"`

	HSNCode string     `db:"hsn_code" json:"hsnCode"`
	GSTRate types.Rate `db:"gst_rate" json:"gstRate"`

	MRPPerPacket types.Money `db:"mrp_per_packet" json:"mrpPerPacket"`

	CommissionType  CommissionType  `db:"commission_type" json:"commissionType"`
	CommissionValue decimal.Decimal `db:"commission_value" json:"commissionValue"`

	// HasProduction is set by the first production batch and never cleared.
	HasProduction bool `db:"has_production" json:"hasProduction"`
}

// NewMaterial creates an active material.
func NewMaterial(code, name string, unitsPerPacket int64, actor id.ID) *Material {
	return &Material{
		Catalog:         entity.NewCatalog(code, name, actor),
		UnitsPerPacket:  unitsPerPacket,
		CommissionType:  CommissionPercentage,
		GSTRate:         decimal.Zero,
		MRPPerPacket:    decimal.Zero,
		CommissionValue: decimal.Zero,
	}
}

// Validate implements entity.Validatable.
func (m *Material) Validate(ctx context.Context) error {
	if err := m.Catalog.Validate(ctx); err != nil {
		return err
	}
	if m.UnitsPerPacket <= 0 {
		return apperror.NewValidation("unitsPerPacket must be positive").
			WithDetail("field", "unitsPerPacket")
	}
	if m.HSNCode != "" && !ValidHSN(m.HSNCode) {
		return apperror.NewValidation("hsnCode must have 4, 6 or 8 digits").
			WithDetail("field", "hsnCode")
	}
	if !types.IsValidRate(m.GSTRate) {
		return apperror.NewValidation("gstRate must be between 0 and 100").
			WithDetail("field", "gstRate")
	}
	if m.MRPPerPacket.IsNegative() {
		return apperror.NewValidation("mrpPerPacket must not be negative").
			WithDetail("field", "mrpPerPacket")
	}
	if !m.CommissionType.IsValid() {
		return apperror.NewValidation("unknown commission type").
			WithDetail("field", "commissionType")
	}
	if m.CommissionValue.IsNegative() {
		return apperror.NewValidation("commissionValue must not be negative").
			WithDetail("field", "commissionValue")
	}
	if m.CommissionType == CommissionPercentage && !types.IsValidRate(m.CommissionValue) {
		return apperror.NewValidation("percentage commission must be between 0 and 100").
			WithDetail("field", "commissionValue")
	}
	return nil
}

// UnitPrice is the price of one loose unit derived from the packet MRP.
func (m *Material) UnitPrice() types.Money {
	return m.MRPPerPacket.Div(decimal.NewFromInt(m.UnitsPerPacket))
}

// EnsureActive returns MATERIAL_INACTIVE for deactivated materials.
func (m *Material) EnsureActive() error {
	if !m.IsActive {
		return apperror.NewBusinessRule(apperror.CodeMaterialInactive, "material is inactive").
			WithDetail("material_id", m.ID).
			WithDetail("code", m.Code)
	}
	return nil
}

// Ref addresses a material by id or by code.
type Ref struct {
	ID   *id.ID `json:"id,omitempty"`
	Code string `json:"code,omitempty"`
}

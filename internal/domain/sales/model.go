// Package sales records retailer sales.
//
// A sale debits retailer stock, opening sealed packets into loose units when
// loose stock is short, and accrues one commission.
package sales

import (
	"context"

	"foodchain/internal/core/entity"
	"foodchain/internal/core/id"
	"foodchain/internal/core/types"
	"foodchain/internal/domain"
	"foodchain/internal/domain/catalogs/material"
	"foodchain/internal/domain/commission"
)

const entityName = "sale"

// Sale is one retailer consumption of stock.
type Sale struct {
	entity.Document

	RetailerID id.ID `db:"retailer_id" json:"retailerId"`
	MaterialID id.ID `db:"material_id" json:"materialId"`

	Packets       int64 `db:"packets" json:"packets"`
	LooseUnits    int64 `db:"loose_units" json:"looseUnits"`
	UnitsSold     int64 `db:"units_sold" json:"unitsSold"`
	PacketsOpened int64 `db:"packets_opened" json:"packetsOpened"`

	SaleAmount types.Money `db:"sale_amount" json:"saleAmount"`
	Note       string      `db:"note" json:"note,omitempty"`
}

// RecordCommand is the input of Service.Record.
// SaleAmount defaults to the MRP value of the quantity sold.
type RecordCommand struct {
	Material   material.Ref
	Packets    int64
	LooseUnits int64
	SaleAmount *types.Money
	Note       string
}

// Result is returned by Service.Record.
type Result struct {
	Sale       *Sale                  `json:"sale"`
	Commission *commission.Commission `json:"commission"`
}

// MRPValue is the list price of packets and loose units of m.
func MRPValue(m *material.Material, packets, looseUnits int64) types.Money {
	return types.Round(types.FromInt(packets).Mul(m.MRPPerPacket).
		Add(types.FromInt(looseUnits).Mul(m.UnitPrice())))
}

// ListFilter for filtering sales.
type ListFilter struct {
	domain.ListFilter

	MaterialID *id.ID
}

// Repository persists sales.
type Repository interface {
	Create(ctx context.Context, s *Sale) error
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error)
}

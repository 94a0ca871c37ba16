// Package commission provides the retailer commission ledger.
//
// A commission is accrued for every sale from the material's commission rule
// as configured at sale time. It is settled independently of invoices through
// a one-way PENDING -> PAID transition.
package commission

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"foodchain/internal/core/entity"
	"foodchain/internal/core/id"
	"foodchain/internal/core/types"
	"foodchain/internal/domain"
	"foodchain/internal/domain/catalogs/material"
)

const entityName = "commission"

// Status of a commission.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
)

// Commission is the amount owed to a retailer for one sale.
type Commission struct {
	entity.BaseEntity
	entity.Timestamps

	SaleID     id.ID `db:"sale_id" json:"saleId"`
	RetailerID id.ID `db:"retailer_id" json:"retailerId"`
	MaterialID id.ID `db:"material_id" json:"materialId"`

	// Rule snapshot
	RuleType  material.CommissionType `db:"rule_type" json:"ruleType"`
	RuleValue decimal.Decimal         `db:"rule_value" json:"ruleValue"`

	UnitsSold  int64       `db:"units_sold" json:"unitsSold"`
	SaleAmount types.Money `db:"sale_amount" json:"saleAmount"`
	Amount     types.Money `db:"amount" json:"amount"`

	Status           Status     `db:"status" json:"status"`
	PaidAt           *time.Time `db:"paid_at" json:"paidAt,omitempty"`
	PaymentReference string     `db:"payment_reference" json:"paymentReference,omitempty"`
}

// Compute returns the commission for a sale, rounded to two decimals.
// FLAT_PER_UNIT pays value per unit sold; PERCENTAGE pays value percent of the sale amount.
func Compute(rule material.CommissionType, value decimal.Decimal, unitsSold int64, saleAmount types.Money) types.Money {
	switch rule {
	case material.CommissionFlatPerUnit:
		return types.Round(value.Mul(types.FromInt(unitsSold)))
	case material.CommissionPercentage:
		return types.Round(types.Percent(saleAmount, value))
	default:
		return types.Zero()
	}
}

// AccrueCommand is the input of Service.Accrue.
type AccrueCommand struct {
	SaleID     id.ID
	RetailerID id.ID
	Material   *material.Material
	UnitsSold  int64
	SaleAmount types.Money
	ActorID    id.ID
}

// Summary aggregates a retailer's commissions.
type Summary struct {
	RetailerID   id.ID       `json:"retailerId"`
	PendingCount int64       `db:"pending_count" json:"pendingCount"`
	PendingTotal types.Money `db:"pending_total" json:"pendingTotal"`
	PaidCount    int64       `db:"paid_count" json:"paidCount"`
	PaidTotal    types.Money `db:"paid_total" json:"paidTotal"`
}

// ListFilter for filtering commissions.
type ListFilter struct {
	domain.ListFilter

	MaterialID *id.ID
}

// Repository persists commissions.
type Repository interface {
	// Create inserts a commission. One commission per sale.
	Create(ctx context.Context, c *Commission) error
	GetByID(ctx context.Context, commissionID id.ID) (*Commission, error)
	GetForUpdate(ctx context.Context, commissionID id.ID) (*Commission, error)
	Update(ctx context.Context, c *Commission) error

	// ListPendingForUpdate locks every PENDING commission of a retailer.
	ListPendingForUpdate(ctx context.Context, retailerID id.ID) ([]*Commission, error)

	Summary(ctx context.Context, retailerID id.ID) (Summary, error)
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Commission], error)
}

// Package invoice generates tax invoices from confirmed goods receipts.
//
// Invoices are write-once: the repository has no update or delete path and
// the database rejects both at trigger level.
package invoice

import (
	"context"

	"foodchain/internal/core/entity"
	"foodchain/internal/core/id"
	"foodchain/internal/core/types"
	"foodchain/internal/domain"
)

const entityName = "invoice"

// Line is one invoiced material.
type Line struct {
	ID             id.ID       `db:"id" json:"id"`
	InvoiceID      id.ID       `db:"invoice_id" json:"invoiceId"`
	LineNo         int         `db:"line_no" json:"lineNo"`
	MaterialID     id.ID       `db:"material_id" json:"materialId"`
	Description    string      `db:"description" json:"description"`
	HSNCode        string      `db:"hsn_code" json:"hsnCode"`
	GSTRate        types.Rate  `db:"gst_rate" json:"gstRate"`
	Packets        int64       `db:"packets" json:"packets"`
	LooseUnits     int64       `db:"loose_units" json:"looseUnits"`
	UnitPrice      types.Money `db:"unit_price" json:"unitPrice"`
	LooseUnitPrice types.Money `db:"loose_unit_price" json:"looseUnitPrice"`
	TaxableValue   types.Money `db:"taxable_value" json:"taxableValue"`
	CGST           types.Money `db:"cgst" json:"cgst"`
	SGST           types.Money `db:"sgst" json:"sgst"`
	IGST           types.Money `db:"igst" json:"igst"`
	LineTotal      types.Money `db:"line_total" json:"lineTotal"`
}

// Totals are the header amounts of an invoice.
type Totals struct {
	Subtotal   types.Money `db:"subtotal" json:"subtotal"`
	CGST       types.Money `db:"cgst_total" json:"cgstTotal"`
	SGST       types.Money `db:"sgst_total" json:"sgstTotal"`
	IGST       types.Money `db:"igst_total" json:"igstTotal"`
	Tax        types.Money `db:"tax_total" json:"taxTotal"`
	GrandTotal types.Money `db:"grand_total" json:"grandTotal"`
}

// Invoice is an immutable tax document for one GRN.
type Invoice struct {
	entity.Document
	entity.Parties
	Totals

	GRNID      id.ID `db:"grn_id" json:"grnId"`
	Interstate bool  `db:"interstate" json:"interstate"`

	Lines []Line `db:"-" json:"lines"`
}

// GenerateOptions controls tax treatment.
type GenerateOptions struct {
	// Interstate selects IGST instead of the CGST/SGST split.
	Interstate bool
}

var two = types.FromInt(2)

// Compute fills the amounts of every line and returns header totals.
//
// Taxable value is packets × unit price + loose units × loose-unit price.
// Intrastate supplies split the GST rate into equal CGST and SGST halves;
// interstate supplies charge IGST at the full rate. Every amount is rounded
// half away from zero to two decimals per line before summing.
func Compute(lines []Line, interstate bool) Totals {
	t := Totals{
		Subtotal:   types.Zero(),
		CGST:       types.Zero(),
		SGST:       types.Zero(),
		IGST:       types.Zero(),
		Tax:        types.Zero(),
		GrandTotal: types.Zero(),
	}
	for i := range lines {
		l := &lines[i]
		l.TaxableValue = types.Round(
			types.FromInt(l.Packets).Mul(l.UnitPrice).
				Add(types.FromInt(l.LooseUnits).Mul(l.LooseUnitPrice)))
		l.CGST, l.SGST, l.IGST = types.Zero(), types.Zero(), types.Zero()
		if interstate {
			l.IGST = types.Round(types.Percent(l.TaxableValue, l.GSTRate))
		} else {
			half := l.GSTRate.Div(two)
			l.CGST = types.Round(types.Percent(l.TaxableValue, half))
			l.SGST = types.Round(types.Percent(l.TaxableValue, half))
		}
		l.LineTotal = l.TaxableValue.Add(l.CGST).Add(l.SGST).Add(l.IGST)

		t.Subtotal = t.Subtotal.Add(l.TaxableValue)
		t.CGST = t.CGST.Add(l.CGST)
		t.SGST = t.SGST.Add(l.SGST)
		t.IGST = t.IGST.Add(l.IGST)
	}
	t.Tax = t.CGST.Add(t.SGST).Add(t.IGST)
	t.GrandTotal = t.Subtotal.Add(t.Tax)
	return t
}

// Validate implements entity.Validatable.
func (inv *Invoice) Validate(ctx context.Context) error {
	if err := inv.Document.Validate(ctx); err != nil {
		return err
	}
	return inv.ValidateParties()
}

// ListFilter for filtering invoices.
type ListFilter struct {
	domain.ListFilter
}

// Repository persists invoices. It has no Update or Delete.
type Repository interface {
	// Create inserts header and lines. A second invoice for the same GRN
	// returns DUPLICATE_REFERENCE.
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error)
	GetByGRN(ctx context.Context, grnID id.ID) (*Invoice, error)
	ExistsForGRN(ctx context.Context, grnID id.ID) (bool, error)
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error)
}

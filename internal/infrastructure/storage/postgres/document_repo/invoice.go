package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/domain"
	"foodchain/internal/domain/documents/invoice"
	"foodchain/internal/infrastructure/storage/postgres"
)

// InvoiceRepo implements invoice.Repository. It only inserts and reads;
// the database trigger on doc_invoices rejects UPDATE and DELETE.
type InvoiceRepo struct {
	store *documentStore[invoice.Invoice, invoice.Line]
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{store: &documentStore[invoice.Invoice, invoice.Line]{
		txm:      txm,
		head: postgres.NewTable[invoice.Invoice](txm, "doc_invoices", "invoice").
			OnConflict(func(constraint string) error {
				if constraint == "ux_doc_invoices_grn" {
					return apperror.NewDuplicate("invoice", "grn_id", "")
				}
				return nil
			}),
		lines:    postgres.NewLines[invoice.Line](txm, "doc_invoice_lines", "invoice_id").Batched(),
		entity:   "invoice",
		headID:   func(d *invoice.Invoice) id.ID { return d.ID },
		setLines: func(d *invoice.Invoice, lines []invoice.Line) { d.Lines = lines },
		lineDoc:  func(l invoice.Line) id.ID { return l.InvoiceID },
	}}
}

func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	return r.store.createWithLines(ctx, inv, inv.Lines)
}

func (r *InvoiceRepo) GetByID(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	return r.store.getByID(ctx, invoiceID)
}

func (r *InvoiceRepo) GetByGRN(ctx context.Context, grnID id.ID) (*invoice.Invoice, error) {
	return r.store.getBy(ctx, squirrel.Eq{"grn_id": grnID}, grnID)
}

func (r *InvoiceRepo) ExistsForGRN(ctx context.Context, grnID id.ID) (bool, error) {
	return r.store.head.Exists(ctx, squirrel.Eq{"grn_id": grnID})
}

func (r *InvoiceRepo) List(ctx context.Context, filter invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	q := postgres.DocumentFilter(r.store.head.Select(), filter.ListFilter, "number")
	return r.store.page(ctx, q, filter.ListFilter, "grand_total")
}

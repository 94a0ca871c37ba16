package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/domain"
	"foodchain/internal/domain/documents/grn"
	"foodchain/internal/infrastructure/storage/postgres"
)

// GRNRepo implements grn.Repository.
type GRNRepo struct {
	store *documentStore[grn.GRN, grn.Line]
}

var _ grn.Repository = (*GRNRepo)(nil)

// NewGRNRepo creates a new goods receipt repository.
func NewGRNRepo(txm *postgres.TxManager) *GRNRepo {
	return &GRNRepo{store: &documentStore[grn.GRN, grn.Line]{
		txm:      txm,
		head: postgres.NewTable[grn.GRN](txm, "doc_grns", "grn").
			OnConflict(func(constraint string) error {
				if constraint == "ux_doc_grns_dispatch" {
					return apperror.NewDuplicate("grn", "dispatch_id", "")
				}
				return nil
			}),
		lines:    postgres.NewLines[grn.Line](txm, "doc_grn_lines", "grn_id"),
		entity:   "grn",
		headID:   func(d *grn.GRN) id.ID { return d.ID },
		setLines: func(d *grn.GRN, lines []grn.Line) { d.Lines = lines },
		lineDoc:  func(l grn.Line) id.ID { return l.GRNID },
	}}
}

func (r *GRNRepo) Create(ctx context.Context, doc *grn.GRN) error {
	return r.store.create(ctx, doc)
}

func (r *GRNRepo) GetByID(ctx context.Context, docID id.ID) (*grn.GRN, error) {
	return r.store.getByID(ctx, docID)
}

func (r *GRNRepo) GetForUpdate(ctx context.Context, docID id.ID) (*grn.GRN, error) {
	return r.store.getForUpdate(ctx, docID)
}

func (r *GRNRepo) GetByDispatch(ctx context.Context, dispatchID id.ID) (*grn.GRN, error) {
	return r.store.getBy(ctx, squirrel.Eq{"dispatch_id": dispatchID}, dispatchID)
}

func (r *GRNRepo) Update(ctx context.Context, doc *grn.GRN) error {
	return r.store.update(ctx, doc)
}

func (r *GRNRepo) SaveLines(ctx context.Context, docID id.ID, lines []grn.Line) error {
	return r.store.saveLines(ctx, docID, lines)
}

func (r *GRNRepo) List(ctx context.Context, filter grn.ListFilter) (domain.ListResult[*grn.GRN], error) {
	q := postgres.DocumentFilter(r.store.head.Select(), filter.ListFilter, "number")
	return r.store.page(ctx, q, filter.ListFilter, "confirmed_at")
}

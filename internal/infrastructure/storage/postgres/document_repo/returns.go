package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"foodchain/internal/core/id"
	"foodchain/internal/domain"
	"foodchain/internal/domain/documents/returns"
	"foodchain/internal/infrastructure/storage/postgres"
)

// ReturnRepo implements returns.Repository.
type ReturnRepo struct {
	store *documentStore[returns.Return, returns.Line]
}

var _ returns.Repository = (*ReturnRepo)(nil)

// NewReturnRepo creates a new return repository.
func NewReturnRepo(txm *postgres.TxManager) *ReturnRepo {
	return &ReturnRepo{store: &documentStore[returns.Return, returns.Line]{
		txm:      txm,
		head:     postgres.NewTable[returns.Return](txm, "doc_returns", "return"),
		lines:    postgres.NewLines[returns.Line](txm, "doc_return_lines", "return_id"),
		entity:   "return",
		headID:   func(d *returns.Return) id.ID { return d.ID },
		setLines: func(d *returns.Return, lines []returns.Line) { d.Lines = lines },
		lineDoc:  func(l returns.Line) id.ID { return l.ReturnID },
	}}
}

func (r *ReturnRepo) Create(ctx context.Context, doc *returns.Return) error {
	return r.store.create(ctx, doc)
}

func (r *ReturnRepo) GetByID(ctx context.Context, docID id.ID) (*returns.Return, error) {
	return r.store.getByID(ctx, docID)
}

func (r *ReturnRepo) GetForUpdate(ctx context.Context, docID id.ID) (*returns.Return, error) {
	return r.store.getForUpdate(ctx, docID)
}

func (r *ReturnRepo) Update(ctx context.Context, doc *returns.Return) error {
	return r.store.update(ctx, doc)
}

func (r *ReturnRepo) SaveLines(ctx context.Context, docID id.ID, lines []returns.Line) error {
	return r.store.saveLines(ctx, docID, lines)
}

func (r *ReturnRepo) ListByGRN(ctx context.Context, grnID id.ID) ([]*returns.Return, error) {
	q := r.store.head.Select().
		Where(squirrel.Eq{"grn_id": grnID}).
		OrderBy("created_at", "id")
	return r.store.find(ctx, q)
}

func (r *ReturnRepo) List(ctx context.Context, filter returns.ListFilter) (domain.ListResult[*returns.Return], error) {
	q := postgres.DocumentFilter(r.store.head.Select(), filter.ListFilter, "number")
	if filter.GRNID != nil {
		q = q.Where(squirrel.Eq{"grn_id": *filter.GRNID})
	}
	return r.store.page(ctx, q, filter.ListFilter, "reviewed_at", "resolved_at")
}

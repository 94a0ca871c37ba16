package document_repo

import (
	"context"

	"foodchain/internal/core/id"
	"foodchain/internal/domain"
	"foodchain/internal/domain/documents/srn"
	"foodchain/internal/infrastructure/storage/postgres"
)

// SRNRepo implements srn.Repository.
type SRNRepo struct {
	store *documentStore[srn.SRN, srn.Line]
}

var _ srn.Repository = (*SRNRepo)(nil)

// NewSRNRepo creates a new stock requisition repository.
func NewSRNRepo(txm *postgres.TxManager) *SRNRepo {
	return &SRNRepo{store: &documentStore[srn.SRN, srn.Line]{
		txm:      txm,
		head:     postgres.NewTable[srn.SRN](txm, "doc_srns", "srn"),
		lines:    postgres.NewLines[srn.Line](txm, "doc_srn_lines", "srn_id"),
		entity:   "srn",
		headID:   func(d *srn.SRN) id.ID { return d.ID },
		setLines: func(d *srn.SRN, lines []srn.Line) { d.Lines = lines },
		lineDoc:  func(l srn.Line) id.ID { return l.SRNID },
	}}
}

func (r *SRNRepo) Create(ctx context.Context, doc *srn.SRN) error {
	return r.store.create(ctx, doc)
}

func (r *SRNRepo) GetByID(ctx context.Context, docID id.ID) (*srn.SRN, error) {
	return r.store.getByID(ctx, docID)
}

func (r *SRNRepo) GetForUpdate(ctx context.Context, docID id.ID) (*srn.SRN, error) {
	return r.store.getForUpdate(ctx, docID)
}

func (r *SRNRepo) Update(ctx context.Context, doc *srn.SRN) error {
	return r.store.update(ctx, doc)
}

func (r *SRNRepo) Delete(ctx context.Context, docID id.ID) error {
	return r.store.delete(ctx, docID)
}

func (r *SRNRepo) SaveLines(ctx context.Context, docID id.ID, lines []srn.Line) error {
	return r.store.saveLines(ctx, docID, lines)
}

func (r *SRNRepo) List(ctx context.Context, filter srn.ListFilter) (domain.ListResult[*srn.SRN], error) {
	q := postgres.DocumentFilter(r.store.head.Select(), filter.ListFilter, "number")
	return r.store.page(ctx, q, filter.ListFilter, "submitted_at", "processed_at")
}

package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/domain"
	"foodchain/internal/domain/documents/dispatch"
	"foodchain/internal/infrastructure/storage/postgres"
)

// DispatchRepo implements dispatch.Repository.
type DispatchRepo struct {
	store *documentStore[dispatch.Dispatch, dispatch.Line]
}

var _ dispatch.Repository = (*DispatchRepo)(nil)

// NewDispatchRepo creates a new dispatch repository.
// The unique index on srn_id enforces one dispatch per SRN.
func NewDispatchRepo(txm *postgres.TxManager) *DispatchRepo {
	head := postgres.NewTable[dispatch.Dispatch](txm, "doc_dispatches", "dispatch").
		OnConflict(func(constraint string) error {
			if constraint == "ux_doc_dispatches_srn" {
				return apperror.NewBusinessRule(apperror.CodeInvalidSRNState, "srn already has a dispatch")
			}
			return nil
		})

	return &DispatchRepo{store: &documentStore[dispatch.Dispatch, dispatch.Line]{
		txm:      txm,
		head:     head,
		lines:    postgres.NewLines[dispatch.Line](txm, "doc_dispatch_lines", "dispatch_id"),
		entity:   "dispatch",
		headID:   func(d *dispatch.Dispatch) id.ID { return d.ID },
		setLines: func(d *dispatch.Dispatch, lines []dispatch.Line) { d.Lines = lines },
		lineDoc:  func(l dispatch.Line) id.ID { return l.DispatchID },
	}}
}

func (r *DispatchRepo) Create(ctx context.Context, doc *dispatch.Dispatch) error {
	err := r.store.create(ctx, doc)
	if apperror.Is(err, apperror.CodeInvalidSRNState) {
		if appErr, ok := apperror.AsAppError(err); ok {
			return appErr.WithDetail("srn_id", doc.SRNID)
		}
	}
	return err
}

func (r *DispatchRepo) GetByID(ctx context.Context, docID id.ID) (*dispatch.Dispatch, error) {
	return r.store.getByID(ctx, docID)
}

func (r *DispatchRepo) GetForUpdate(ctx context.Context, docID id.ID) (*dispatch.Dispatch, error) {
	return r.store.getForUpdate(ctx, docID)
}

func (r *DispatchRepo) Update(ctx context.Context, doc *dispatch.Dispatch) error {
	return r.store.update(ctx, doc)
}

func (r *DispatchRepo) SaveLines(ctx context.Context, docID id.ID, lines []dispatch.Line) error {
	return r.store.saveLines(ctx, docID, lines)
}

func (r *DispatchRepo) ExistsForSRN(ctx context.Context, srnID id.ID) (bool, error) {
	return r.store.head.Exists(ctx, squirrel.Eq{"srn_id": srnID})
}

func (r *DispatchRepo) List(ctx context.Context, filter dispatch.ListFilter) (domain.ListResult[*dispatch.Dispatch], error) {
	q := postgres.DocumentFilter(r.store.head.Select(), filter.ListFilter, "number")
	if filter.SRNID != nil {
		q = q.Where(squirrel.Eq{"srn_id": *filter.SRNID})
	}
	return r.store.page(ctx, q, filter.ListFilter, "executed_at", "delivered_at")
}

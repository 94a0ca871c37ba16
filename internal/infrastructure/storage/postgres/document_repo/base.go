// Package document_repo provides PostgreSQL implementations for document repositories.
//
// Every document is a header row plus ordered line rows. Headers carry the
// optimistic lock version; lines are replaced as a whole.
package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/domain"
	"foodchain/internal/infrastructure/storage/postgres"
)

// documentStore joins a header table with its line table.
type documentStore[H any, L any] struct {
	txm    *postgres.TxManager
	head   *postgres.Table[H]
	lines  *postgres.Lines[L]
	entity string

	headID   func(*H) id.ID
	setLines func(*H, []L)
	lineDoc  func(L) id.ID
}

func (s *documentStore[H, L]) create(ctx context.Context, h *H) error {
	return s.head.Insert(ctx, h)
}

// createWithLines inserts the header and its lines atomically.
func (s *documentStore[H, L]) createWithLines(ctx context.Context, h *H, lines []L) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.head.Insert(ctx, h); err != nil {
			return err
		}
		return s.lines.Replace(ctx, s.headID(h), lines)
	})
}

func (s *documentStore[H, L]) update(ctx context.Context, h *H) error {
	return s.head.Update(ctx, h)
}

func (s *documentStore[H, L]) getBy(ctx context.Context, where squirrel.Sqlizer, key any) (*H, error) {
	h, err := s.head.GetBy(ctx, where, key)
	if err != nil {
		return nil, err
	}
	return h, s.load(ctx, h)
}

func (s *documentStore[H, L]) getByID(ctx context.Context, docID id.ID) (*H, error) {
	return s.getBy(ctx, squirrel.Eq{"id": docID}, docID)
}

// getForUpdate locks the header row. Lines are only written together with
// their header, so the header lock covers them.
func (s *documentStore[H, L]) getForUpdate(ctx context.Context, docID id.ID) (*H, error) {
	h, err := s.head.GetForUpdate(ctx, squirrel.Eq{"id": docID}, docID)
	if err != nil {
		return nil, err
	}
	return h, s.load(ctx, h)
}

func (s *documentStore[H, L]) load(ctx context.Context, h *H) error {
	lines, err := s.lines.Load(ctx, s.headID(h))
	if err != nil {
		return err
	}
	s.setLines(h, lines)
	return nil
}

func (s *documentStore[H, L]) saveLines(ctx context.Context, docID id.ID, lines []L) error {
	ok, err := s.head.Exists(ctx, squirrel.Eq{"id": docID})
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewNotFound(s.entity, docID)
	}
	return s.lines.Replace(ctx, docID, lines)
}

func (s *documentStore[H, L]) delete(ctx context.Context, docID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.lines.Delete(ctx, squirrel.Eq{s.lines.FK(): docID}); err != nil {
			return err
		}
		n, err := s.head.Delete(ctx, squirrel.Eq{"id": docID})
		if err != nil {
			return err
		}
		if n == 0 {
			return apperror.NewNotFound(s.entity, docID)
		}
		return nil
	})
}

// find returns every header matching q with lines attached.
func (s *documentStore[H, L]) find(ctx context.Context, q squirrel.SelectBuilder) ([]*H, error) {
	items, err := s.head.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return items, s.attach(ctx, items)
}

// page lists headers and attaches lines with one extra query.
func (s *documentStore[H, L]) page(ctx context.Context, q squirrel.SelectBuilder, f domain.ListFilter, sortable ...string) (domain.ListResult[*H], error) {
	res, err := s.head.Page(ctx, q, f, append([]string{"number", "status", "updated_at"}, sortable...)...)
	if err != nil {
		return res, err
	}
	return res, s.attach(ctx, res.Items)
}

func (s *documentStore[H, L]) attach(ctx context.Context, items []*H) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]id.ID, len(items))
	for i, h := range items {
		ids[i] = s.headID(h)
	}
	byDoc, err := s.lines.LoadMany(ctx, ids, s.lineDoc)
	if err != nil {
		return err
	}
	for _, h := range items {
		s.setLines(h, byDoc[s.headID(h)])
	}
	return nil
}

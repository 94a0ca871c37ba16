// Package memory provides a process-local implementation of every repository.
//
// A Store serialises transactions behind one write lock and rolls back through
// an undo log, which gives the same all-or-nothing behaviour as the Postgres
// backend. It backs the STORAGE=memory mode and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"foodchain/internal/app"
	"foodchain/internal/core/apperror"
	"foodchain/internal/core/id"
	"foodchain/internal/core/numerator"
	"foodchain/internal/core/tx"
	"foodchain/internal/domain"
	"foodchain/internal/domain/audit"
	"foodchain/internal/domain/catalogs/assignment"
	"foodchain/internal/domain/catalogs/material"
	"foodchain/internal/domain/commission"
	"foodchain/internal/domain/documents/dispatch"
	"foodchain/internal/domain/documents/grn"
	"foodchain/internal/domain/documents/invoice"
	"foodchain/internal/domain/documents/returns"
	"foodchain/internal/domain/documents/srn"
	"foodchain/internal/domain/production"
	"foodchain/internal/domain/registers/inventory"
	"foodchain/internal/domain/sales"
)

// Store holds all tables.
type Store struct {
	mu sync.RWMutex

	materials   *table[id.ID, material.Material]
	assignments *table[id.ID, assignment.Assignment]
	batches     *table[id.ID, production.Batch]
	balances    *table[inventory.Key, inventory.Balance]
	ledger      *table[id.ID, inventory.Transaction]

	srns          *table[id.ID, srn.SRN]
	srnLines      *table[id.ID, []srn.Line]
	dispatches    *table[id.ID, dispatch.Dispatch]
	dispatchLines *table[id.ID, []dispatch.Line]
	grns          *table[id.ID, grn.GRN]
	grnLines      *table[id.ID, []grn.Line]
	invoices      *table[id.ID, invoice.Invoice]
	returns       *table[id.ID, returns.Return]
	returnLines   *table[id.ID, []returns.Line]
	sales         *table[id.ID, sales.Sale]
	commissions   *table[id.ID, commission.Commission]

	audit     *table[id.ID, audit.Entry]
	sequences *table[string, int64]
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		materials:     newTable[id.ID, material.Material](),
		assignments:   newTable[id.ID, assignment.Assignment](),
		batches:       newTable[id.ID, production.Batch](),
		balances:      newTable[inventory.Key, inventory.Balance](),
		ledger:        newTable[id.ID, inventory.Transaction](),
		srns:          newTable[id.ID, srn.SRN](),
		srnLines:      newTable[id.ID, []srn.Line](),
		dispatches:    newTable[id.ID, dispatch.Dispatch](),
		dispatchLines: newTable[id.ID, []dispatch.Line](),
		grns:          newTable[id.ID, grn.GRN](),
		grnLines:      newTable[id.ID, []grn.Line](),
		invoices:      newTable[id.ID, invoice.Invoice](),
		returns:       newTable[id.ID, returns.Return](),
		returnLines:   newTable[id.ID, []returns.Line](),
		sales:         newTable[id.ID, sales.Sale](),
		commissions:   newTable[id.ID, commission.Commission](),
		audit:         newTable[id.ID, audit.Entry](),
		sequences:     newTable[string, int64](),
	}
}

// --- Transactions ---

type txKey struct{}

type txState struct {
	store *Store
	undo  undoLog
}

var _ tx.Manager = (*Store)(nil)

// RunInTransaction implements tx.Manager. The store is exclusively locked for
// the whole of fn; nested calls join the outer transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.InTransaction(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := &txState{store: s}
	defer func() {
		if p := recover(); p != nil {
			st.undo.rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, st)); err != nil {
		st.undo.rollback()
		return err
	}
	return nil
}

// InTransaction implements tx.Manager.
func (s *Store) InTransaction(ctx context.Context) bool {
	return s.current(ctx) != nil
}

func (s *Store) current(ctx context.Context) *txState {
	st, ok := ctx.Value(txKey{}).(*txState)
	if !ok || st.store != s {
		return nil
	}
	return st
}

// read runs fn under the read lock unless ctx already owns the store.
func (s *Store) read(ctx context.Context, fn func()) {
	if s.InTransaction(ctx) {
		fn()
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// write runs fn with an undo log. Outside a transaction the single write is
// atomic on its own.
func (s *Store) write(ctx context.Context, fn func(u *undoLog) error) error {
	if st := s.current(ctx); st != nil {
		return fn(&st.undo)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var u undoLog
	if err := fn(&u); err != nil {
		u.rollback()
		return err
	}
	return nil
}

type undoLog struct {
	fns []func()
}

func (u *undoLog) add(fn func()) {
	u.fns = append(u.fns, fn)
}

func (u *undoLog) rollback() {
	for i := len(u.fns) - 1; i >= 0; i-- {
		u.fns[i]()
	}
	u.fns = nil
}

// --- Tables ---

// table keeps rows in insertion order. Every mutation registers its inverse.
type table[K comparable, V any] struct {
	rows  map[K]V
	order []K
}

func newTable[K comparable, V any]() *table[K, V] {
	return &table[K, V]{rows: make(map[K]V)}
}

func (t *table[K, V]) get(key K) (V, bool) {
	v, ok := t.rows[key]
	return v, ok
}

func (t *table[K, V]) set(u *undoLog, key K, v V) {
	old, existed := t.rows[key]
	if !existed {
		t.order = append(t.order, key)
	}
	t.rows[key] = v
	u.add(func() {
		if existed {
			t.rows[key] = old
			return
		}
		delete(t.rows, key)
		t.order = t.order[:len(t.order)-1]
	})
}

func (t *table[K, V]) remove(u *undoLog, key K) {
	old, ok := t.rows[key]
	if !ok {
		return
	}
	idx := 0
	for i, k := range t.order {
		if k == key {
			idx = i
			break
		}
	}
	delete(t.rows, key)
	t.order = append(t.order[:idx], t.order[idx+1:]...)
	u.add(func() {
		t.rows[key] = old
		t.order = append(t.order, key)
		copy(t.order[idx+1:], t.order[idx:])
		t.order[idx] = key
	})
}

// scan returns the rows accepted by keep, in insertion order.
func (t *table[K, V]) scan(keep func(V) bool) []V {
	out := make([]V, 0)
	for _, k := range t.order {
		v := t.rows[k]
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// --- Numbering ---

var _ numerator.Generator = (*Store)(nil)

// GetNextNumber implements numerator.Generator. Sequences roll back with the
// surrounding transaction, so numbers are gapless regardless of strategy.
func (s *Store) GetNextNumber(ctx context.Context, cfg numerator.Config, _ *numerator.Options, period time.Time) (string, error) {
	var out string
	err := s.write(ctx, func(u *undoLog) error {
		key := cfg.Key(period)
		next, _ := s.sequences.get(key)
		next++
		s.sequences.set(u, key, next)
		out = cfg.Format(period, next)
		return nil
	})
	return out, err
}

// SetNextNumber implements numerator.Generator.
func (s *Store) SetNextNumber(ctx context.Context, cfg numerator.Config, period time.Time, value int64) error {
	return s.write(ctx, func(u *undoLog) error {
		s.sequences.set(u, cfg.Key(period), value)
		return nil
	})
}

// --- Shared helpers ---

func checkVersion(entity string, entityID id.ID, stored, next int) error {
	if next != stored+1 {
		return apperror.NewConcurrentModification(entity, entityID)
	}
	return nil
}

// docHeader is the part of a document the common filter looks at.
type docHeader struct {
	number         string
	status         string
	retailerID     id.ID
	manufacturerID id.ID
	createdAt      time.Time
}

func (h docHeader) matches(f domain.ListFilter) bool {
	if f.RetailerID != nil && *f.RetailerID != h.retailerID {
		return false
	}
	if f.ManufacturerID != nil && *f.ManufacturerID != h.manufacturerID {
		return false
	}
	if f.Status != "" && f.Status != h.status {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(h.number), strings.ToLower(f.Search)) {
		return false
	}
	if f.DateFrom != nil && h.createdAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && h.createdAt.After(*f.DateTo) {
		return false
	}
	return true
}

// sortAndPage orders items by f.OrderBy ("number", "created_at", optionally
// prefixed with "-") and applies the page window.
func sortAndPage[T any](items []T, f domain.ListFilter, header func(T) docHeader) domain.ListResult[T] {
	order := f.OrderBy
	if order == "" {
		order = "-created_at"
	}
	desc := strings.HasPrefix(order, "-")
	field := strings.TrimPrefix(order, "-")

	less := func(a, b docHeader) bool {
		if field == "number" {
			return a.number < b.number
		}
		return a.createdAt.Before(b.createdAt)
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := header(items[i]), header(items[j])
		if desc {
			return less(b, a)
		}
		return less(a, b)
	})
	return domain.Page(items, f)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Repositories exposes the store as an application backend.
func (s *Store) Repositories() app.Repositories {
	return app.Repositories{
		TxManager:   s,
		Numerator:   s,
		Audit:       s.Audit(),
		Materials:   s.Materials(),
		Assignments: s.Assignments(),
		Inventory:   s.Inventory(),
		Production:  s.Production(),
		SRNs:        s.SRNs(),
		Dispatches:  s.Dispatches(),
		GRNs:        s.GRNs(),
		Invoices:    s.Invoices(),
		Returns:     s.Returns(),
		Sales:       s.Sales(),
		Commissions: s.Commissions(),
	}
}

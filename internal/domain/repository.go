// Package domain provides core business logic interfaces and types.
package domain

import (
	"context"
	"time"

	"foodchain/internal/core/id"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search matches the document number or catalog code
	Search string

	// RetailerID / ManufacturerID restrict documents to one party
	RetailerID     *id.ID
	ManufacturerID *id.ID

	// Status filters by lifecycle status
	Status string

	// DateFrom / DateTo bound created_at
	DateFrom *time.Time
	DateTo   *time.Time

	// OrderBy specifies sorting (e.g., "number", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "-created_at",
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// Page slices items according to filter. Used by in-memory repositories.
func Page[T any](items []T, filter ListFilter) ListResult[T] {
	res := ListResult[T]{TotalCount: int64(len(items)), Limit: filter.Limit, Offset: filter.Offset}
	start := filter.Offset
	if start > len(items) {
		start = len(items)
	}
	end := len(items)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}
	res.Items = items[start:end]
	return res
}

// --- Hooks ---

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	// AfterTransition runs inside the transaction after a status change is persisted.
	AfterTransition HookEvent = "after_transition"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes all hooks for the specified event.
// The first failing hook stops the chain and its error is returned.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

// OnAfterTransition registers a hook to run after a status change.
func (r *HookRegistry[T]) OnAfterTransition(hook Hook[T]) {
	r.On(AfterTransition, hook)
}

// Package tx provides the unit-of-work abstraction used by every state transition.
//
// The active transaction travels in context.Context. A state machine opens it with
// RunInTransaction and every repository and ledger call made with the derived
// context joins the same unit of work. Nothing is committed until fn returns nil.
package tx

import (
	"context"
	"errors"
)

// ErrNoTransaction is returned by operations that must join an open unit of work.
var ErrNoTransaction = errors.New("operation requires an active transaction")

// Manager defines the contract for transaction management.
// Implementations handle BEGIN, COMMIT, ROLLBACK, and nested transaction support.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// InTransaction reports whether ctx carries an open transaction of this manager.
	InTransaction(ctx context.Context) bool
}

// Require returns ErrNoTransaction when ctx is outside a unit of work.
func Require(ctx context.Context, m Manager) error {
	if m == nil || !m.InTransaction(ctx) {
		return ErrNoTransaction
	}
	return nil
}

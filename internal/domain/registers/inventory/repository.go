package inventory

import (
	"context"
	"time"

	"foodchain/internal/core/id"
	"foodchain/internal/domain"
)

// Repository persists balances and the transaction log.
type Repository interface {
	// GetForUpdate returns the balance locked until the surrounding transaction ends.
	// A zero row is created first when none exists so the lock always has a target.
	GetForUpdate(ctx context.Context, key Key) (Balance, error)

	// Get returns the balance, or a zero balance when the row does not exist.
	Get(ctx context.Context, key Key) (Balance, error)

	// Save writes the counters of an existing row.
	Save(ctx context.Context, balance Balance) error

	// AppendTransaction inserts an immutable log entry.
	AppendTransaction(ctx context.Context, t Transaction) error

	ListBalances(ctx context.Context, filter BalanceFilter) ([]Balance, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) (domain.ListResult[Transaction], error)
}

// BalanceFilter selects balance rows.
type BalanceFilter struct {
	OwnerType   OwnerType
	OwnerID     *id.ID
	MaterialID  *id.ID
	ExcludeZero bool
}

// TransactionFilter selects log entries.
type TransactionFilter struct {
	OwnerType   OwnerType
	OwnerID     *id.ID
	MaterialID  *id.ID
	ReferenceID *id.ID
	Type        TxType
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

package numerator

import (
	"context"
	"time"
)

// Generator generates sequential document numbers.
// Implementations live in the storage layer.
type Generator interface {
	// GetNextNumber generates the next document number.
	// Pattern: PREFIX-YEAR-XXXXX (e.g., INV-2026-00001)
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber sets the current sequence value (for migration purposes).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}

// Next is a shortcut for GetNextNumber with the default config for prefix.
func Next(ctx context.Context, g Generator, prefix string, strategy Strategy) (string, error) {
	return g.GetNextNumber(ctx, DefaultConfig(prefix), &Options{Strategy: strategy}, time.Now().UTC())
}

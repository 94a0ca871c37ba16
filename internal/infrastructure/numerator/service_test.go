package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "foodchain/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates sys_sequences: one argument increments by 1, two
// arguments add the second (range reservation).
type mockQuerier struct {
	mu     sync.Mutex
	values map[string]int64
	calls  int
	err    error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{values: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return &mockRow{err: m.err}
	}

	key := args[0].(string)
	incr := int64(1)
	if len(args) == 2 {
		incr = args[1].(int64)
	}
	m.values[key] += incr
	return &mockRow{val: m.values[key]}
}

var period = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig(corenumerator.PrefixInvoice)

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00001", num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00002", num)
	assert.Equal(t, int64(2), q.values["INV_2026"])

	num, err = svc.GetNextNumber(ctx, cfg, nil, period.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "INV-2027-00001", num, "sequence resets yearly")
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig(corenumerator.PrefixSale)
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "SAL-2026-00001", num)
	assert.Equal(t, int64(10), q.values["SAL_2026"])

	for i := 0; i < 9; i++ {
		_, err = svc.GetNextNumber(ctx, cfg, opts, period)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, q.calls, "served from the reserved range")

	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "SAL-2026-00011", num)
	assert.Equal(t, int64(20), q.values["SAL_2026"])
	assert.Equal(t, 2, q.calls)
}

func TestSetNextNumber_InvalidatesCache(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig(corenumerator.PrefixSRN)
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	_, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	require.Contains(t, svc.ranges, "SRN_2026")

	require.NoError(t, svc.SetNextNumber(ctx, cfg, period, 100))
	assert.NotContains(t, svc.ranges, "SRN_2026")
}

func TestGetNextNumber_PropagatesErrors(t *testing.T) {
	q := newMockQuerier()
	q.err = errors.New("connection reset")
	svc := New(q)

	_, err := svc.GetNextNumber(context.Background(), corenumerator.DefaultConfig(corenumerator.PrefixGRN), nil, period)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GRN_2026")
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(42), ParseNumber("DSP-2026-00042"))
	assert.Equal(t, int64(7), ParseNumber("RET-007"))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}

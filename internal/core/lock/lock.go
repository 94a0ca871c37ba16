// Package lock defines keyed mutual exclusion for inventory read-modify-write.
//
// State machines acquire one key per (material, owner) pair they touch before
// opening a transaction and release them after commit or rollback. Keys are
// always taken in sorted order so overlapping requests cannot deadlock.
package lock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"foodchain/internal/core/id"
)

// Release frees every key taken by a single Obtain call.
type Release func(ctx context.Context)

// Locker obtains a set of keys atomically from the caller's point of view.
// Implementations must honour ctx cancellation while waiting.
type Locker interface {
	Obtain(ctx context.Context, keys []string) (Release, error)
}

// InventoryKey is the lock key for one inventory row.
func InventoryKey(materialID, ownerID id.ID) string {
	return fmt.Sprintf("inv:%s:%s", materialID, ownerID)
}

// Normalize sorts keys and drops duplicates.
func Normalize(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// With runs fn while holding keys.
func With(ctx context.Context, l Locker, keys []string, fn func(ctx context.Context) error) error {
	if l == nil || len(keys) == 0 {
		return fn(ctx)
	}
	release, err := l.Obtain(ctx, keys)
	if err != nil {
		return err
	}
	defer release(context.WithoutCancel(ctx))
	return fn(ctx)
}

// --- In-process implementation ---

type slot struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex is a process-local Locker.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*slot)}
}

var _ Locker = (*KeyedMutex)(nil)

// Obtain implements Locker.
func (m *KeyedMutex) Obtain(ctx context.Context, keys []string) (Release, error) {
	keys = Normalize(keys)
	held := make([]string, 0, len(keys))

	for _, k := range keys {
		s := m.ref(k)
		select {
		case s.ch <- struct{}{}:
			held = append(held, k)
		case <-ctx.Done():
			m.unref(k)
			m.release(held)
			return nil, fmt.Errorf("obtain lock %s: %w", k, ctx.Err())
		}
	}

	var once sync.Once
	return func(context.Context) {
		once.Do(func() { m.release(held) })
	}, nil
}

func (m *KeyedMutex) ref(key string) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	return s
}

func (m *KeyedMutex) unref(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.slots[key]
	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
}

func (m *KeyedMutex) release(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		m.mu.Lock()
		s := m.slots[keys[i]]
		m.mu.Unlock()
		<-s.ch
		m.unref(keys[i])
	}
}

// Size returns the number of keys currently referenced. Used by tests.
func (m *KeyedMutex) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

// Package store provides an in-memory Ledger implementation for tests
// and development.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridfare/shift-engine/shift"
)

// =============================================================================
// MEMORY LEDGER - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is an append-only in-memory ledger. It assigns identity and
// creation timestamps exactly like the SQLite store so tests exercise
// the same contract.
type Memory struct {
	mu       sync.RWMutex
	shifts   []shift.Shift
	expenses []shift.Expense
	seq      int
	now      func() time.Time

	// FailWrites makes every insert fail; tests use it to exercise the
	// persistence-error path.
	FailWrites error
}

func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// NewMemoryWithClock pins CreatedAt assignment for deterministic tests.
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{now: now}
}

func (m *Memory) InsertShift(_ context.Context, s shift.Shift) (shift.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return shift.Shift{}, m.FailWrites
	}
	s.ID = uuid.NewString()
	s.CreatedAt = m.stampLocked()
	m.shifts = append(m.shifts, s)
	return s, nil
}

func (m *Memory) InsertExpense(_ context.Context, e shift.Expense) (shift.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return shift.Expense{}, m.FailWrites
	}
	e.ID = uuid.NewString()
	e.CreatedAt = m.stampLocked()
	m.expenses = append(m.expenses, e)
	return e, nil
}

func (m *Memory) ListShifts(_ context.Context, f shift.ShiftFilter) ([]shift.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]shift.Shift, 0, len(m.shifts))
	for _, s := range m.shifts {
		if f.Matches(s) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ShiftDate.Equal(out[j].ShiftDate) {
			return out[i].ShiftDate.After(out[j].ShiftDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) ListExpenses(_ context.Context, f shift.ExpenseFilter) ([]shift.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]shift.Expense, 0, len(m.expenses))
	for _, e := range m.expenses {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ExpDate.Equal(out[j].ExpDate) {
			return out[i].ExpDate.After(out[j].ExpDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Len reports how many records are stored, for test assertions.
func (m *Memory) Len() (shifts, expenses int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.shifts), len(m.expenses)
}

// stampLocked produces strictly increasing CreatedAt values so the
// (date, created_at) ordering is stable even within one clock tick.
func (m *Memory) stampLocked() time.Time {
	m.seq++
	return m.now().Add(time.Duration(m.seq) * time.Microsecond)
}

var _ shift.Ledger = (*Memory)(nil)

/*
ledger.go - Persistence interface for shifts and expenses

PURPOSE:
  The Ledger is the append-only store of completed shifts and logged
  expenses. The core never updates or deletes a record; corrections are
  new records. Identity and creation timestamps belong to the ledger,
  not the caller - inserts return the stored record with both assigned.

FAILURE CONTRACT:
  Every write failure (connectivity, constraint violation) surfaces as
  a PersistenceError. The lifecycle controller does not retry; it keeps
  the in-flight shift intact so the operator can retry the save.
  A ledger that cannot be opened at startup is an ErrConfiguration -
  fatal for the session before any operation is attempted.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite store
  - shift/store:  In-memory store for tests and dev
*/
package shift

import "context"

// Ledger persists shifts and expenses. Append-only: no update, no
// delete. Each insert is a single atomic operation; the core never
// composes multi-record transactions.
type Ledger interface {
	// InsertShift persists a fully derived shift and returns it with
	// ID and CreatedAt assigned.
	InsertShift(ctx context.Context, s Shift) (Shift, error)

	// InsertExpense persists an expense and returns it with ID and
	// CreatedAt assigned.
	InsertExpense(ctx context.Context, e Expense) (Expense, error)

	// ListShifts returns shifts matching the filter, most recent first
	// by (shift date, created at).
	ListShifts(ctx context.Context, f ShiftFilter) ([]Shift, error)

	// ListExpenses returns expenses matching the filter, most recent
	// first by (expense date, created at).
	ListExpenses(ctx context.Context, f ExpenseFilter) ([]Expense, error)
}

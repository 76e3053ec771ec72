/*
expenses.go - Expense logging service

Validates an expense entry, clamps the business-use percentage into
[0,100], recomputes the deductible amount through the derivation engine,
and appends the record to the ledger. DeductibleAmount is never taken
from the caller.
*/
package shift

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gridfare/shift-engine/finance"
)

// ExpenseInput is one expense as entered by the operator.
type ExpenseInput struct {
	ExpDate        time.Time
	Category       Category
	Description    string
	Amount         decimal.Decimal
	BusinessUsePct int // clamped into [0,100]; presentation layers default it to 100
	Notes          string
}

// ExpenseLog records expenses against the ledger.
type ExpenseLog struct {
	Ledger Ledger
}

func NewExpenseLog(ledger Ledger) *ExpenseLog {
	return &ExpenseLog{Ledger: ledger}
}

// Log validates and persists one expense, returning the stored record
// with ledger-assigned identity and the derived deductible amount.
func (el *ExpenseLog) Log(ctx context.Context, in ExpenseInput) (Expense, error) {
	if in.ExpDate.IsZero() {
		return Expense{}, fmt.Errorf("%w: expense date is required", ErrInvalidInput)
	}
	if !in.Category.Valid() {
		return Expense{}, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.Category)
	}
	if in.Amount.Sign() < 0 {
		return Expense{}, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}

	pct := clampPct(in.BusinessUsePct)
	record := Expense{
		ExpDate:          in.ExpDate,
		Category:         in.Category,
		Description:      in.Description,
		Amount:           in.Amount.Round(2),
		BusinessUsePct:   pct,
		DeductibleAmount: finance.ExpenseDeductible(in.Amount, pct),
		Notes:            in.Notes,
	}

	persisted, err := el.Ledger.InsertExpense(ctx, record)
	if err != nil {
		return Expense{}, &PersistenceError{Op: "insert expense", Err: err}
	}
	return persisted, nil
}

func clampPct(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

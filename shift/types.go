/*
Package shift holds the domain model of the tracker - completed shifts,
logged expenses, and the lifecycle controller that captures one shift at
a time - plus the Ledger interface the storage layer implements.

KEY CONCEPTS:
  - Shift: One completed work session. Always persisted fully derived:
    online hours, miles, total income, and hourly rate are computed
    before the record reaches the ledger, never after.
  - Expense: One logged cost, prorated by business-use percentage.
  - Controller (lifecycle.go): The state machine owning the single
    in-flight shift between Start and Finalize.
  - Ledger (ledger.go): Append-only persistence of shifts and expenses.

The derivation formulas themselves live in the finance package; this
package wires raw captured inputs through them and owns validation.
*/
package shift

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gridfare/shift-engine/finance"
)

// =============================================================================
// ENUMS
// =============================================================================

// Platform is the rideshare service a shift was driven for.
type Platform string

const (
	PlatformLyft  Platform = "Lyft"
	PlatformUber  Platform = "Uber"
	PlatformBoth  Platform = "Both"
	PlatformOther Platform = "Other"
)

// Platforms lists the valid platforms in display order.
var Platforms = []Platform{PlatformLyft, PlatformUber, PlatformBoth, PlatformOther}

func (p Platform) Valid() bool {
	switch p {
	case PlatformLyft, PlatformUber, PlatformBoth, PlatformOther:
		return true
	}
	return false
}

// Category is the expense category.
type Category string

const (
	CategoryGas          Category = "Gas"
	CategoryMaintenance  Category = "Maintenance"
	CategoryCarWash      Category = "Car Wash"
	CategoryParkingTolls Category = "Parking/Tolls"
	CategoryInsurance    Category = "Insurance"
	CategoryPhone        Category = "Phone"
	CategorySupplies     Category = "Supplies"
	CategoryOther        Category = "Other"
)

// Categories lists the valid expense categories in display order.
var Categories = []Category{
	CategoryGas, CategoryMaintenance, CategoryCarWash, CategoryParkingTolls,
	CategoryInsurance, CategoryPhone, CategorySupplies, CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// =============================================================================
// SHIFT - One completed work session
// =============================================================================

// Shift is a persisted work session. ID and CreatedAt are assigned by
// the Ledger on insert; every derived field (OnlineHours, Miles,
// TotalIncome, HourlyRate) is computed by the lifecycle controller
// before the record is handed to the ledger.
type Shift struct {
	ID        string
	CreatedAt time.Time

	ShiftDate time.Time
	Platform  Platform
	Label     string
	Notes     string

	StartTS     time.Time
	EndTS       time.Time
	OnlineHours decimal.Decimal // (EndTS - StartTS) in hours, 2dp

	StartOdo decimal.Decimal
	EndOdo   decimal.Decimal
	Miles    decimal.Decimal // max(end - start, 0), 1dp; 0 when start unset

	GrossFares  decimal.Decimal
	InAppTips   decimal.Decimal
	Bonuses     decimal.Decimal
	CashTips    decimal.Decimal
	TotalIncome decimal.Decimal // sum of the four, 2dp

	HourlyRate decimal.Decimal // TotalIncome / OnlineHours, 2dp
	Rides      int
}

// StartTime and EndTime are the wall-clock display forms the record is
// stored with alongside the full timestamps.
func (s Shift) StartTime() string { return s.StartTS.Format("15:04") }
func (s Shift) EndTime() string   { return s.EndTS.Format("15:04") }

// Entry projects the shift onto the derivation engine's view.
func (s Shift) Entry() finance.ShiftEntry {
	return finance.ShiftEntry{
		Date:        s.ShiftDate,
		TotalIncome: s.TotalIncome,
		OnlineHours: s.OnlineHours,
		Miles:       s.Miles,
		Rides:       s.Rides,
	}
}

// Entries projects a list of shifts.
func Entries(shifts []Shift) []finance.ShiftEntry {
	out := make([]finance.ShiftEntry, len(shifts))
	for i, s := range shifts {
		out[i] = s.Entry()
	}
	return out
}

// =============================================================================
// EXPENSE - One logged cost
// =============================================================================

// Expense is a persisted cost record. DeductibleAmount is recomputed
// from Amount and BusinessUsePct when the record is created and never
// edited independently.
type Expense struct {
	ID        string
	CreatedAt time.Time

	ExpDate     time.Time
	Category    Category
	Description string

	Amount           decimal.Decimal
	BusinessUsePct   int             // 0-100
	DeductibleAmount decimal.Decimal // Amount x BusinessUsePct / 100, 2dp

	Notes string
}

// Entry projects the expense onto the derivation engine's view.
func (e Expense) Entry() finance.ExpenseEntry {
	return finance.ExpenseEntry{
		Date:       e.ExpDate,
		Category:   string(e.Category),
		Deductible: e.DeductibleAmount,
	}
}

// ExpenseEntries projects a list of expenses.
func ExpenseEntries(expenses []Expense) []finance.ExpenseEntry {
	out := make([]finance.ExpenseEntry, len(expenses))
	for i, e := range expenses {
		out[i] = e.Entry()
	}
	return out
}

// =============================================================================
// FILTERS
// =============================================================================

// ShiftFilter narrows ListShifts. Zero From/To leave that bound open;
// empty Platforms matches all platforms.
type ShiftFilter struct {
	From      time.Time
	To        time.Time
	Platforms []Platform
}

func (f ShiftFilter) Matches(s Shift) bool {
	if !f.From.IsZero() && s.ShiftDate.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && s.ShiftDate.After(f.To) {
		return false
	}
	if len(f.Platforms) > 0 {
		ok := false
		for _, p := range f.Platforms {
			if s.Platform == p {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// ExpenseFilter narrows ListExpenses. Expenses are not tied to a
// platform, so only the date range applies.
type ExpenseFilter struct {
	From time.Time
	To   time.Time
}

func (f ExpenseFilter) Matches(e Expense) bool {
	if !f.From.IsZero() && e.ExpDate.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.ExpDate.After(f.To) {
		return false
	}
	return true
}

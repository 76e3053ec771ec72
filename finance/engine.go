/*
Package finance provides the financial derivation engine.

PURPOSE:
  This package contains pure functions that turn raw logged numbers
  (fares, tips, odometer readings, hours) into the derived metrics the
  rest of the system stores and reports: total income, hourly rates,
  miles driven, deductible expense amounts, period summaries, and
  "true cost" net income.

KEY CONCEPTS IN THIS FILE (engine.go):
  - WeightedRate: The single guarded division used for every per-hour
    and per-mile metric in the system
  - ShiftFinancials: Income totals and hourly rate for one shift
  - Miles: Odometer delta with the invalid-reading fallback
  - ExpenseDeductible: Business-use proration of an expense

DESIGN PRINCIPLES:
  1. Purity: No side effects, deterministic given inputs. Safe to call
     from any goroutine.
  2. Precision: Uses decimal.Decimal to avoid floating-point errors in
     money math. Money rounds to 2 places, miles to 1, per-mile unit
     costs to 3.
  3. Defined fallbacks: Numeric edge cases (zero hours, end odometer
     below start) never panic or return errors the caller must abort
     on - they produce 0 and, where relevant, a recoverable condition.

SEE ALSO:
  - aggregate.go: Period grouping and range summaries
  - truecost.go: IRS-mileage and custom per-mile cost models
*/
package finance

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// WEIGHTED RATE - The guarded division behind every rate metric
// =============================================================================

// WeightedRate returns num/den when den is positive, and zero otherwise.
// Every "X per hour" / "X per mile" metric in the system goes through
// this function so that zero or negative denominators uniformly yield 0
// instead of a division error. Valid inputs never produce a negative
// denominator; if one appears it is treated the same as zero.
func WeightedRate(num, den decimal.Decimal) decimal.Decimal {
	if den.Sign() <= 0 {
		return decimal.Zero
	}
	return num.Div(den)
}

// =============================================================================
// SHIFT FINANCIALS - Income totals for one shift
// =============================================================================

// Financials holds the derived income fields of a single shift.
type Financials struct {
	TotalIncome decimal.Decimal // gross + in-app tips + bonuses + cash tips, 2dp
	HourlyRate  decimal.Decimal // total income / online hours, 2dp, 0 when hours <= 0
}

// ShiftFinancials derives total income and hourly rate from the four
// income components and the online hours of a shift.
func ShiftFinancials(gross, tips, bonuses, cash, onlineHours decimal.Decimal) Financials {
	total := gross.Add(tips).Add(bonuses).Add(cash).Round(2)
	return Financials{
		TotalIncome: total,
		HourlyRate:  WeightedRate(total, onlineHours).Round(2),
	}
}

// =============================================================================
// MILES - Odometer delta
// =============================================================================

// Miles derives the miles driven from the start and end odometer readings.
//
// A start reading of zero (or below) means the odometer was never
// captured for this shift: miles are 0 and no error is returned. An end
// reading below the start reading signals an InvalidOdometerError; the
// returned miles are still 0 so the caller can proceed with the safe
// fallback. Callers surface the error as a correctable warning, not a
// fatal failure.
func Miles(startOdo, endOdo decimal.Decimal) (decimal.Decimal, error) {
	if startOdo.Sign() <= 0 {
		return decimal.Zero, nil
	}
	if endOdo.LessThan(startOdo) {
		return decimal.Zero, &InvalidOdometerError{Start: startOdo, End: endOdo}
	}
	return endOdo.Sub(startOdo).Round(1), nil
}

// =============================================================================
// EXPENSE DEDUCTIBLE - Business-use proration
// =============================================================================

// ExpenseDeductible returns amount prorated by the business-use
// percentage, rounded to 2 places.
//
// Contract: businessUsePct must already be clamped to [0,100] by the
// caller; values outside that range are a caller bug, not an input this
// function defends against.
func ExpenseDeductible(amount decimal.Decimal, businessUsePct int) decimal.Decimal {
	pct := decimal.NewFromInt(int64(businessUsePct))
	return amount.Mul(pct).Div(decimal.NewFromInt(100)).Round(2)
}

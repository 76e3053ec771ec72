/*
truecost.go - "True cost" net income under two cost-accounting models

PURPOSE:
  Logged expenses only capture what the operator actually paid in the
  period; they miss depreciation and under-count wear. The true-cost
  models estimate the full vehicle operating cost from miles driven:

  IRS mileage rate:
    vehicle cost = miles x a flat $/mile rate (default 0.67). The rate
    already bundles depreciation, fuel, maintenance, and insurance, so
    only the expense categories outside that bundle (parking/tolls,
    phone, supplies, other) are added on top.

  Custom per-mile:
    vehicle cost = miles x (depreciation + fuel + maintenance + tires +
    misc per mile), each component supplied or derived from the
    operator's own vehicle numbers. The same extra-expense categories
    are added only when IncludeExtras is set.

CONTRACT:
  Custom parameters must be pre-validated: MPG > 0 and LifetimeMiles > 0.
  The engine clamps violations to 0 via WeightedRate rather than failing,
  but garbage in produces an understated cost, not an error.
*/
package finance

import (
	"github.com/shopspring/decimal"
)

// CostMethod selects the accounting model for TrueCost.
type CostMethod string

const (
	CostMethodIRS    CostMethod = "irs_mileage"
	CostMethodCustom CostMethod = "custom_per_mile"
)

// DefaultIRSRate is the fallback standard mileage rate in $/mile.
var DefaultIRSRate = decimal.NewFromFloat(0.67)

// extraExpenseCategories are the logged-expense categories counted on
// top of the per-mile vehicle cost. Everything else (gas, maintenance,
// car wash, insurance) is assumed to be covered by the mileage rate.
// Fixed allowlist; not configurable.
var extraExpenseCategories = map[string]bool{
	"Parking/Tolls": true,
	"Phone":         true,
	"Supplies":      true,
	"Other":         true,
}

// PeriodTotals are the pre-aggregated shift totals the cost models
// operate on (typically Summarize output for the active range).
type PeriodTotals struct {
	TotalIncome decimal.Decimal
	TotalHours  decimal.Decimal
	TotalMiles  decimal.Decimal
}

// CustomCostParams are the operator-supplied vehicle numbers for the
// custom per-mile model.
type CustomCostParams struct {
	PurchasePrice      decimal.Decimal
	ResaleValue        decimal.Decimal
	LifetimeMiles      decimal.Decimal // contract: > 0
	GasPrice           decimal.Decimal // $/gallon
	MPG                decimal.Decimal // contract: > 0
	MaintenancePerMile decimal.Decimal
	TiresPerMile       decimal.Decimal
	MiscPerMile        decimal.Decimal
	IncludeExtras      bool
}

// TrueCostInput bundles everything TrueCost needs. Expenses must
// already be filtered to the active date range; category filtering
// happens here.
type TrueCostInput struct {
	Method   CostMethod
	Totals   PeriodTotals
	Expenses []ExpenseEntry
	IRSRate  decimal.Decimal // zero means DefaultIRSRate
	Custom   CustomCostParams
}

// TrueCostResult is the full cost breakdown. Monetary fields are
// rounded to 2 places; per-mile unit costs to 3 for display precision.
type TrueCostResult struct {
	Method CostMethod

	// Per-mile breakdown. For the IRS method only PerMile is set.
	PerMile             decimal.Decimal
	DepreciationPerMile decimal.Decimal
	FuelPerMile         decimal.Decimal
	MaintenancePerMile  decimal.Decimal
	TiresPerMile        decimal.Decimal
	MiscPerMile         decimal.Decimal

	VehicleCost   decimal.Decimal
	ExtraExpenses decimal.Decimal
	TrueCostTotal decimal.Decimal
	TrueNet       decimal.Decimal
	TruePerHour   decimal.Decimal
}

// TrueCost computes net income after estimated vehicle operating cost
// under the selected method.
func TrueCost(in TrueCostInput) TrueCostResult {
	switch in.Method {
	case CostMethodCustom:
		return trueCostCustom(in)
	default:
		return trueCostIRS(in)
	}
}

func trueCostIRS(in TrueCostInput) TrueCostResult {
	rate := in.IRSRate
	if rate.Sign() <= 0 {
		rate = DefaultIRSRate
	}
	vehicleCost := in.Totals.TotalMiles.Mul(rate).Round(2)
	extras := sumExtraExpenses(in.Expenses)
	return finishTrueCost(TrueCostResult{
		Method:  CostMethodIRS,
		PerMile: rate.Round(3),
	}, in.Totals, vehicleCost, extras)
}

func trueCostCustom(in TrueCostInput) TrueCostResult {
	p := in.Custom

	netDepreciation := p.PurchasePrice.Sub(p.ResaleValue)
	if netDepreciation.Sign() < 0 {
		netDepreciation = decimal.Zero
	}
	depreciation := WeightedRate(netDepreciation, p.LifetimeMiles)
	fuel := WeightedRate(p.GasPrice, p.MPG)
	perMile := depreciation.Add(fuel).Add(p.MaintenancePerMile).Add(p.TiresPerMile).Add(p.MiscPerMile)

	vehicleCost := in.Totals.TotalMiles.Mul(perMile).Round(2)
	extras := decimal.Zero
	if p.IncludeExtras {
		extras = sumExtraExpenses(in.Expenses)
	}
	return finishTrueCost(TrueCostResult{
		Method:              CostMethodCustom,
		PerMile:             perMile.Round(3),
		DepreciationPerMile: depreciation.Round(3),
		FuelPerMile:         fuel.Round(3),
		MaintenancePerMile:  p.MaintenancePerMile.Round(3),
		TiresPerMile:        p.TiresPerMile.Round(3),
		MiscPerMile:         p.MiscPerMile.Round(3),
	}, in.Totals, vehicleCost, extras)
}

func finishTrueCost(r TrueCostResult, totals PeriodTotals, vehicleCost, extras decimal.Decimal) TrueCostResult {
	r.VehicleCost = vehicleCost
	r.ExtraExpenses = extras.Round(2)
	r.TrueCostTotal = vehicleCost.Add(extras).Round(2)
	r.TrueNet = totals.TotalIncome.Sub(r.TrueCostTotal).Round(2)
	r.TruePerHour = WeightedRate(r.TrueNet, totals.TotalHours).Round(2)
	return r
}

func sumExtraExpenses(expenses []ExpenseEntry) decimal.Decimal {
	var total decimal.Decimal
	for _, e := range expenses {
		if extraExpenseCategories[e.Category] {
			total = total.Add(e.Deductible)
		}
	}
	return total
}

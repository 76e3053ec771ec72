package finance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridfare/shift-engine/finance"
)

// =============================================================================
// IRS MILEAGE METHOD
// =============================================================================

func TestTrueCost_IRS_DefaultRate(t *testing.T) {
	// GIVEN: 1000 miles at the default 0.67 $/mile
	// WHEN:  Computing true cost under the IRS method
	// THEN:  Vehicle cost is exactly 670.00

	r := finance.TrueCost(finance.TrueCostInput{
		Method: finance.CostMethodIRS,
		Totals: finance.PeriodTotals{
			TotalIncome: dec("2000"),
			TotalHours:  dec("50"),
			TotalMiles:  dec("1000"),
		},
	})

	requireDecimal(t, "0.670", r.PerMile)
	requireDecimal(t, "670.00", r.VehicleCost)
	requireDecimal(t, "0", r.ExtraExpenses)
	requireDecimal(t, "670.00", r.TrueCostTotal)
	requireDecimal(t, "1330.00", r.TrueNet)
	requireDecimal(t, "26.60", r.TruePerHour)
}

func TestTrueCost_IRS_ExtraExpensesUseFixedAllowlist(t *testing.T) {
	// Gas and maintenance are already bundled into the mileage rate;
	// only parking/tolls, phone, supplies, and other count as extras.
	expenses := []finance.ExpenseEntry{
		{Category: "Gas", Deductible: dec("100")},
		{Category: "Maintenance", Deductible: dec("200")},
		{Category: "Parking/Tolls", Deductible: dec("15")},
		{Category: "Phone", Deductible: dec("30")},
		{Category: "Supplies", Deductible: dec("5")},
		{Category: "Other", Deductible: dec("10")},
		{Category: "Insurance", Deductible: dec("90")},
	}

	r := finance.TrueCost(finance.TrueCostInput{
		Method:   finance.CostMethodIRS,
		Totals:   finance.PeriodTotals{TotalIncome: dec("1000"), TotalHours: dec("40"), TotalMiles: dec("100")},
		Expenses: expenses,
	})

	requireDecimal(t, "60.00", r.ExtraExpenses)
	requireDecimal(t, "67.00", r.VehicleCost)
	requireDecimal(t, "127.00", r.TrueCostTotal)
}

func TestTrueCost_IRS_ExplicitRateOverridesDefault(t *testing.T) {
	r := finance.TrueCost(finance.TrueCostInput{
		Method:  finance.CostMethodIRS,
		Totals:  finance.PeriodTotals{TotalMiles: dec("100")},
		IRSRate: dec("0.70"),
	})
	requireDecimal(t, "70.00", r.VehicleCost)
}

// =============================================================================
// CUSTOM PER-MILE METHOD
// =============================================================================

func TestTrueCost_Custom_DepreciationPerMile(t *testing.T) {
	// GIVEN: $20k purchase, $8k resale, 200k lifetime miles
	// THEN:  Depreciation is exactly 0.06 $/mile

	r := finance.TrueCost(finance.TrueCostInput{
		Method: finance.CostMethodCustom,
		Totals: finance.PeriodTotals{TotalIncome: dec("1000"), TotalHours: dec("40"), TotalMiles: dec("500")},
		Custom: finance.CustomCostParams{
			PurchasePrice: dec("20000"),
			ResaleValue:   dec("8000"),
			LifetimeMiles: dec("200000"),
			GasPrice:      dec("3.50"),
			MPG:           dec("25"),
		},
	})

	requireDecimal(t, "0.060", r.DepreciationPerMile)
	requireDecimal(t, "0.140", r.FuelPerMile) // 3.50 / 25
	requireDecimal(t, "0.200", r.PerMile)
	requireDecimal(t, "100.00", r.VehicleCost) // 500 * 0.20
	requireDecimal(t, "900.00", r.TrueNet)
	requireDecimal(t, "22.50", r.TruePerHour)
}

func TestTrueCost_Custom_NegativeDepreciationClampsToZero(t *testing.T) {
	// Resale above purchase (classic-car edge) never produces a
	// negative depreciation component.
	r := finance.TrueCost(finance.TrueCostInput{
		Method: finance.CostMethodCustom,
		Totals: finance.PeriodTotals{TotalMiles: dec("100")},
		Custom: finance.CustomCostParams{
			PurchasePrice: dec("8000"),
			ResaleValue:   dec("9000"),
			LifetimeMiles: dec("100000"),
		},
	})
	requireDecimal(t, "0", r.DepreciationPerMile)
}

func TestTrueCost_Custom_ExtrasOnlyWhenFlagged(t *testing.T) {
	expenses := []finance.ExpenseEntry{
		{Category: "Phone", Deductible: dec("30")},
	}
	in := finance.TrueCostInput{
		Method:   finance.CostMethodCustom,
		Totals:   finance.PeriodTotals{TotalMiles: dec("100")},
		Expenses: expenses,
		Custom: finance.CustomCostParams{
			PurchasePrice: dec("20000"),
			ResaleValue:   dec("8000"),
			LifetimeMiles: dec("200000"),
		},
	}

	without := finance.TrueCost(in)
	requireDecimal(t, "0", without.ExtraExpenses)

	in.Custom.IncludeExtras = true
	with := finance.TrueCost(in)
	requireDecimal(t, "30.00", with.ExtraExpenses)
	assert.True(t, with.TrueCostTotal.GreaterThan(without.TrueCostTotal))
}

func TestTrueCost_Custom_AllComponentsSum(t *testing.T) {
	r := finance.TrueCost(finance.TrueCostInput{
		Method: finance.CostMethodCustom,
		Totals: finance.PeriodTotals{TotalMiles: dec("1000")},
		Custom: finance.CustomCostParams{
			PurchasePrice:      dec("30000"),
			ResaleValue:        dec("10000"),
			LifetimeMiles:      dec("200000"), // 0.10/mi
			GasPrice:           dec("4.00"),
			MPG:                dec("40"), // 0.10/mi
			MaintenancePerMile: dec("0.05"),
			TiresPerMile:       dec("0.01"),
			MiscPerMile:        dec("0.02"),
		},
	})
	requireDecimal(t, "0.280", r.PerMile)
	requireDecimal(t, "280.00", r.VehicleCost)
}

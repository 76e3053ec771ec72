/*
aggregate.go - Period grouping and range summaries

PURPOSE:
  Read-only reporting over sets of completed shifts and logged expenses.
  The engine has no knowledge of storage; callers load records from the
  ledger, project them to the entry types below, and hand them in.

GROUPING:
  AggregatePeriod buckets shifts by ISO week, calendar month, or year
  and computes a weighted hourly rate per bucket. Weighted means income
  and hours are summed first and divided once - averaging the per-shift
  rates would overweight short shifts.

SEE ALSO:
  - engine.go: WeightedRate and per-shift derivations
  - truecost.go: Cost-model reporting over the same entry types
*/
package finance

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENTRY TYPES - Minimal projections of stored records
// =============================================================================

// ShiftEntry is the slice of a persisted shift the engine needs for
// aggregation. Domain packages map their full records to this.
type ShiftEntry struct {
	Date        time.Time
	TotalIncome decimal.Decimal
	OnlineHours decimal.Decimal
	Miles       decimal.Decimal
	Rides       int
}

// ExpenseEntry is the slice of a persisted expense the engine needs.
type ExpenseEntry struct {
	Date       time.Time
	Category   string
	Deductible decimal.Decimal
}

// =============================================================================
// PERIOD AGGREGATION
// =============================================================================

// GroupKey selects the bucket a shift date falls into.
type GroupKey int

const (
	GroupWeek GroupKey = iota
	GroupMonth
	GroupYear
)

// Label returns the bucket label for a date. Labels are zero-padded so
// lexicographic order matches chronological order.
func (g GroupKey) Label(t time.Time) string {
	switch g {
	case GroupWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case GroupMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006")
	}
}

// PeriodSummary is one aggregation bucket.
type PeriodSummary struct {
	Group       string
	TotalIncome decimal.Decimal // 2dp
	TotalHours  decimal.Decimal // 2dp
	HourlyRate  decimal.Decimal // 2dp, weighted
}

// AggregatePeriod groups shifts by the given key, summing income and
// hours per group and computing the weighted hourly rate. Groups are
// returned most recent first.
func AggregatePeriod(shifts []ShiftEntry, key GroupKey) []PeriodSummary {
	type bucket struct {
		income decimal.Decimal
		hours  decimal.Decimal
	}
	buckets := make(map[string]*bucket)
	for _, s := range shifts {
		label := key.Label(s.Date)
		b, ok := buckets[label]
		if !ok {
			b = &bucket{}
			buckets[label] = b
		}
		b.income = b.income.Add(s.TotalIncome)
		b.hours = b.hours.Add(s.OnlineHours)
	}

	out := make([]PeriodSummary, 0, len(buckets))
	for label, b := range buckets {
		out = append(out, PeriodSummary{
			Group:       label,
			TotalIncome: b.income.Round(2),
			TotalHours:  b.hours.Round(2),
			HourlyRate:  WeightedRate(b.income, b.hours).Round(2),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group > out[j].Group })
	return out
}

// =============================================================================
// RANGE SUMMARY - Dashboard totals over a filtered set
// =============================================================================

// Summary holds the headline numbers for an arbitrary date range.
// "Net" subtracts only logged deductible expenses; the true-cost models
// in truecost.go subtract estimated vehicle operating cost instead.
type Summary struct {
	TotalIncome   decimal.Decimal // 2dp
	TotalHours    decimal.Decimal // 2dp
	TotalMiles    decimal.Decimal // 1dp
	TotalRides    int
	TotalExpenses decimal.Decimal // sum of deductible amounts, 2dp
	Net           decimal.Decimal // income - expenses, 2dp
	GrossPerHour  decimal.Decimal // 2dp
	NetPerHour    decimal.Decimal // 2dp
	NetPerMile    decimal.Decimal // 2dp
}

// Summarize computes range totals and rates. Callers filter shifts and
// expenses to the date range (and platforms) first; expenses are not
// tied to a platform.
func Summarize(shifts []ShiftEntry, expenses []ExpenseEntry) Summary {
	var income, hours, miles decimal.Decimal
	rides := 0
	for _, s := range shifts {
		income = income.Add(s.TotalIncome)
		hours = hours.Add(s.OnlineHours)
		miles = miles.Add(s.Miles)
		rides += s.Rides
	}
	var spent decimal.Decimal
	for _, e := range expenses {
		spent = spent.Add(e.Deductible)
	}
	net := income.Sub(spent)
	return Summary{
		TotalIncome:   income.Round(2),
		TotalHours:    hours.Round(2),
		TotalMiles:    miles.Round(1),
		TotalRides:    rides,
		TotalExpenses: spent.Round(2),
		Net:           net.Round(2),
		GrossPerHour:  WeightedRate(income, hours).Round(2),
		NetPerHour:    WeightedRate(net, hours).Round(2),
		NetPerMile:    WeightedRate(net, miles).Round(2),
	}
}

// DailyTotal is one day's summed income, for income-over-time series.
type DailyTotal struct {
	Date        time.Time // midnight UTC of the shift date
	TotalIncome decimal.Decimal
}

// DailyIncome sums income per shift date, oldest first.
func DailyIncome(shifts []ShiftEntry) []DailyTotal {
	totals := make(map[time.Time]decimal.Decimal)
	for _, s := range shifts {
		day := time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), 0, 0, 0, 0, time.UTC)
		totals[day] = totals[day].Add(s.TotalIncome)
	}
	out := make([]DailyTotal, 0, len(totals))
	for day, income := range totals {
		out = append(out, DailyTotal{Date: day, TotalIncome: income.Round(2)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

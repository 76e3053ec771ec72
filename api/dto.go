/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the domain model
  from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

CONVENTIONS:
  Monetary and odometer values are JSON strings ("125.00") in responses
  so clients never see floating-point artifacts, and json.Number in
  requests so they may be sent as plain numbers. Dates are YYYY-MM-DD;
  timestamps are RFC3339.
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/gridfare/shift-engine/finance"
	"github.com/gridfare/shift-engine/shift"
)

// =============================================================================
// SHIFT TYPES
// =============================================================================

// ShiftDTO represents a persisted shift in API responses.
type ShiftDTO struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`

	ShiftDate string `json:"shift_date"`
	Platform  string `json:"platform"`
	Label     string `json:"shift_label,omitempty"`
	Notes     string `json:"notes,omitempty"`

	StartTS     string `json:"start_ts"`
	EndTS       string `json:"end_ts"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	OnlineHours string `json:"online_hours"`

	StartOdo string `json:"start_odo"`
	EndOdo   string `json:"end_odo"`
	Miles    string `json:"miles"`

	GrossFares  string `json:"gross_fares"`
	InAppTips   string `json:"in_app_tips"`
	Bonuses     string `json:"bonuses"`
	CashTips    string `json:"cash_tips"`
	TotalIncome string `json:"total_income"`

	HourlyRate string `json:"hourly_rate"`
	Rides      int    `json:"rides"`
}

func toShiftDTO(s shift.Shift) ShiftDTO {
	return ShiftDTO{
		ID:          s.ID,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		ShiftDate:   s.ShiftDate.Format("2006-01-02"),
		Platform:    string(s.Platform),
		Label:       s.Label,
		Notes:       s.Notes,
		StartTS:     s.StartTS.Format(time.RFC3339),
		EndTS:       s.EndTS.Format(time.RFC3339),
		StartTime:   s.StartTime(),
		EndTime:     s.EndTime(),
		OnlineHours: s.OnlineHours.String(),
		StartOdo:    s.StartOdo.String(),
		EndOdo:      s.EndOdo.String(),
		Miles:       s.Miles.String(),
		GrossFares:  s.GrossFares.String(),
		InAppTips:   s.InAppTips.String(),
		Bonuses:     s.Bonuses.String(),
		CashTips:    s.CashTips.String(),
		TotalIncome: s.TotalIncome.String(),
		HourlyRate:  s.HourlyRate.String(),
		Rides:       s.Rides,
	}
}

// ActiveShiftDTO is the read-only projection of the in-flight shift.
type ActiveShiftDTO struct {
	State        string `json:"state"`
	ShiftDate    string `json:"shift_date,omitempty"`
	Platform     string `json:"platform,omitempty"`
	Label        string `json:"shift_label,omitempty"`
	Notes        string `json:"notes,omitempty"`
	StartTS      string `json:"start_ts,omitempty"`
	StartOdo     string `json:"start_odo,omitempty"`
	EndTS        string `json:"end_ts,omitempty"`
	ElapsedHours string `json:"elapsed_hours,omitempty"`
}

func toActiveShiftDTO(snap shift.Snapshot) ActiveShiftDTO {
	dto := ActiveShiftDTO{State: string(snap.State)}
	if snap.State == shift.StateNoActiveShift {
		return dto
	}
	dto.ShiftDate = snap.ShiftDate.Format("2006-01-02")
	dto.Platform = string(snap.Platform)
	dto.Label = snap.Label
	dto.Notes = snap.Notes
	dto.StartTS = snap.StartTS.Format(time.RFC3339)
	dto.StartOdo = snap.StartOdo.String()
	dto.ElapsedHours = snap.ElapsedHours.String()
	if !snap.EndTS.IsZero() {
		dto.EndTS = snap.EndTS.Format(time.RFC3339)
	}
	return dto
}

// StartShiftRequest opens a shift.
type StartShiftRequest struct {
	ShiftDate string `json:"shift_date"` // YYYY-MM-DD, empty means today
	Platform  string `json:"platform"`
	Label     string `json:"shift_label"`
	Notes     string `json:"notes"`
}

// OdometerRequest records the start odometer reading.
type OdometerRequest struct {
	Reading json.Number `json:"reading"`
}

// FinalizeShiftRequest completes a shift with end-of-shift entries.
type FinalizeShiftRequest struct {
	EndOdometer json.Number `json:"end_odometer"`
	Rides       int         `json:"rides"`
	GrossFares  json.Number `json:"gross_fares"`
	InAppTips   json.Number `json:"in_app_tips"`
	Bonuses     json.Number `json:"bonuses"`
	CashTips    json.Number `json:"cash_tips"`
	Notes       string      `json:"notes"`
}

// FinalizeShiftResponse carries the persisted shift. Warning is set
// when the end odometer was below the start reading and miles were
// recorded as 0.
type FinalizeShiftResponse struct {
	Shift   ShiftDTO `json:"shift"`
	Warning string   `json:"warning,omitempty"`
}

// =============================================================================
// EXPENSE TYPES
// =============================================================================

// ExpenseDTO represents a persisted expense in API responses.
type ExpenseDTO struct {
	ID               string `json:"id"`
	CreatedAt        string `json:"created_at"`
	ExpDate          string `json:"exp_date"`
	Category         string `json:"category"`
	Description      string `json:"description,omitempty"`
	Amount           string `json:"amount"`
	BusinessUsePct   int    `json:"business_use_pct"`
	DeductibleAmount string `json:"deductible_amount"`
	Notes            string `json:"notes,omitempty"`
}

func toExpenseDTO(e shift.Expense) ExpenseDTO {
	return ExpenseDTO{
		ID:               e.ID,
		CreatedAt:        e.CreatedAt.Format(time.RFC3339),
		ExpDate:          e.ExpDate.Format("2006-01-02"),
		Category:         string(e.Category),
		Description:      e.Description,
		Amount:           e.Amount.String(),
		BusinessUsePct:   e.BusinessUsePct,
		DeductibleAmount: e.DeductibleAmount.String(),
		Notes:            e.Notes,
	}
}

// CreateExpenseRequest logs one expense. BusinessUsePct defaults to
// 100 when omitted.
type CreateExpenseRequest struct {
	ExpDate        string      `json:"exp_date"`
	Category       string      `json:"category"`
	Description    string      `json:"description"`
	Amount         json.Number `json:"amount"`
	BusinessUsePct *int        `json:"business_use_pct"`
	Notes          string      `json:"notes"`
}

// =============================================================================
// REPORT TYPES
// =============================================================================

// SummaryDTO is the dashboard headline block for a date range.
type SummaryDTO struct {
	TotalIncome   string `json:"total_income"`
	TotalHours    string `json:"total_hours"`
	TotalMiles    string `json:"total_miles"`
	TotalRides    int    `json:"total_rides"`
	TotalExpenses string `json:"total_expenses"`
	Net           string `json:"net"`
	GrossPerHour  string `json:"gross_per_hour"`
	NetPerHour    string `json:"net_per_hour"`
	NetPerMile    string `json:"net_per_mile"`
}

func toSummaryDTO(s finance.Summary) SummaryDTO {
	return SummaryDTO{
		TotalIncome:   s.TotalIncome.String(),
		TotalHours:    s.TotalHours.String(),
		TotalMiles:    s.TotalMiles.String(),
		TotalRides:    s.TotalRides,
		TotalExpenses: s.TotalExpenses.String(),
		Net:           s.Net.String(),
		GrossPerHour:  s.GrossPerHour.String(),
		NetPerHour:    s.NetPerHour.String(),
		NetPerMile:    s.NetPerMile.String(),
	}
}

// DailyIncomeDTO is one point of the income-over-time series.
type DailyIncomeDTO struct {
	Date        string `json:"date"`
	TotalIncome string `json:"total_income"`
}

// SummaryResponse wraps the headline block and the daily series.
type SummaryResponse struct {
	Summary SummaryDTO       `json:"summary"`
	Daily   []DailyIncomeDTO `json:"daily_income"`
}

// PeriodSummaryDTO is one aggregation bucket (week/month/year).
type PeriodSummaryDTO struct {
	Group       string `json:"group"`
	TotalIncome string `json:"total_income"`
	TotalHours  string `json:"total_hours"`
	HourlyRate  string `json:"hourly_rate"`
}

// TrueCostRequest selects a cost model and the range it runs over.
type TrueCostRequest struct {
	Method    string   `json:"method"` // "irs_mileage" or "custom_per_mile"
	From      string   `json:"from"`
	To        string   `json:"to"`
	Platforms []string `json:"platforms"`

	IRSRate json.Number `json:"irs_rate"` // empty means the default 0.67

	Custom struct {
		PurchasePrice      json.Number `json:"purchase_price"`
		ResaleValue        json.Number `json:"resale_value"`
		LifetimeMiles      json.Number `json:"lifetime_miles"`
		GasPrice           json.Number `json:"gas_price"`
		MPG                json.Number `json:"mpg"`
		MaintenancePerMile json.Number `json:"maintenance_per_mile"`
		TiresPerMile       json.Number `json:"tires_per_mile"`
		MiscPerMile        json.Number `json:"misc_per_mile"`
		IncludeExtras      bool        `json:"include_extras"`
	} `json:"custom"`
}

// TrueCostDTO is the cost breakdown in API responses.
type TrueCostDTO struct {
	Method string `json:"method"`

	PerMile             string `json:"per_mile"`
	DepreciationPerMile string `json:"depreciation_per_mile,omitempty"`
	FuelPerMile         string `json:"fuel_per_mile,omitempty"`
	MaintenancePerMile  string `json:"maintenance_per_mile,omitempty"`
	TiresPerMile        string `json:"tires_per_mile,omitempty"`
	MiscPerMile         string `json:"misc_per_mile,omitempty"`

	VehicleCost   string `json:"vehicle_cost"`
	ExtraExpenses string `json:"extra_expenses"`
	TrueCostTotal string `json:"true_cost_total"`
	TrueNet       string `json:"true_net"`
	TruePerHour   string `json:"true_per_hour"`
}

func toTrueCostDTO(r finance.TrueCostResult) TrueCostDTO {
	dto := TrueCostDTO{
		Method:        string(r.Method),
		PerMile:       r.PerMile.String(),
		VehicleCost:   r.VehicleCost.String(),
		ExtraExpenses: r.ExtraExpenses.String(),
		TrueCostTotal: r.TrueCostTotal.String(),
		TrueNet:       r.TrueNet.String(),
		TruePerHour:   r.TruePerHour.String(),
	}
	if r.Method == finance.CostMethodCustom {
		dto.DepreciationPerMile = r.DepreciationPerMile.String()
		dto.FuelPerMile = r.FuelPerMile.String()
		dto.MaintenancePerMile = r.MaintenancePerMile.String()
		dto.TiresPerMile = r.TiresPerMile.String()
		dto.MiscPerMile = r.MiscPerMile.String()
	}
	return dto
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

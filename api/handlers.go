/*
handlers.go - HTTP API handlers for the rideshare income tracker

PURPOSE:
  Exposes the shift lifecycle, expense logging, and the derivation
  engine's reports over REST. Handles HTTP request/response and JSON;
  all domain logic lives in the shift and finance packages.

ENDPOINTS:
  Shift lifecycle (one in-flight shift process-wide):
    GET    /api/shift/active    Current state + in-flight snapshot
    POST   /api/shift/start     Start a shift (captures start timestamp)
    POST   /api/shift/odometer  Record the start odometer reading
    POST   /api/shift/end       End the shift (captures end timestamp)
    POST   /api/shift/finalize  Enter earnings/odometer, persist
    POST   /api/shift/cancel    Discard the in-flight shift

  Records:
    GET    /api/shifts          List shifts (from, to, platforms)
    GET    /api/expenses        List expenses (from, to)
    POST   /api/expenses        Log an expense

  Reports:
    GET    /api/reports/summary Range totals + daily income series
    GET    /api/reports/rates   Weighted hourly rates by week/month/year
    POST   /api/reports/truecost True-cost breakdown for a range

ERROR HANDLING:
  - 400: Validation errors, invalid input
  - 409: Action invalid for the current lifecycle state (a client bug)
  - 500: Ledger failures; for Finalize the in-flight shift survives
         them, so the client simply retries
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gridfare/shift-engine/finance"
	"github.com/gridfare/shift-engine/shift"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger     shift.Ledger
	Controller *shift.Controller
	Expenses   *shift.ExpenseLog
}

// NewHandler creates a handler over the given ledger with a fresh
// lifecycle controller.
func NewHandler(ledger shift.Ledger) *Handler {
	return &Handler{
		Ledger:     ledger,
		Controller: shift.NewController(ledger),
		Expenses:   shift.NewExpenseLog(ledger),
	}
}

// =============================================================================
// SHIFT LIFECYCLE
// =============================================================================

// GetActiveShift returns the lifecycle state and in-flight snapshot.
func (h *Handler) GetActiveShift(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toActiveShiftDTO(h.Controller.Snapshot()))
}

// StartShift opens a new shift.
func (h *Handler) StartShift(w http.ResponseWriter, r *http.Request) {
	var req StartShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var date time.Time
	if req.ShiftDate != "" {
		var err error
		if date, err = time.Parse("2006-01-02", req.ShiftDate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid shift_date format (use YYYY-MM-DD)", err)
			return
		}
	}

	snap, err := h.Controller.Start(shift.StartInput{
		ShiftDate: date,
		Platform:  shift.Platform(req.Platform),
		Label:     req.Label,
		Notes:     req.Notes,
	})
	if err != nil {
		writeDomainError(w, "Failed to start shift", err)
		return
	}
	writeJSON(w, http.StatusCreated, toActiveShiftDTO(snap))
}

// SaveStartOdometer records the start odometer reading.
func (h *Handler) SaveStartOdometer(w http.ResponseWriter, r *http.Request) {
	var req OdometerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	reading, err := parseDecimal(req.Reading, "reading")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	snap, err := h.Controller.SaveStartOdometer(reading)
	if err != nil {
		writeDomainError(w, "Failed to save start odometer", err)
		return
	}
	writeJSON(w, http.StatusOK, toActiveShiftDTO(snap))
}

// EndShift stops the clock on the running shift.
func (h *Handler) EndShift(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Controller.End()
	if err != nil {
		writeDomainError(w, "Failed to end shift", err)
		return
	}
	writeJSON(w, http.StatusOK, toActiveShiftDTO(snap))
}

// FinalizeShift persists the completed shift.
func (h *Handler) FinalizeShift(w http.ResponseWriter, r *http.Request) {
	var req FinalizeShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := shift.FinalizeInput{Rides: req.Rides, Notes: req.Notes}
	for _, fld := range []struct {
		dst  *decimal.Decimal
		src  json.Number
		name string
	}{
		{&in.EndOdo, req.EndOdometer, "end_odometer"},
		{&in.GrossFares, req.GrossFares, "gross_fares"},
		{&in.InAppTips, req.InAppTips, "in_app_tips"},
		{&in.Bonuses, req.Bonuses, "bonuses"},
		{&in.CashTips, req.CashTips, "cash_tips"},
	} {
		v, err := parseDecimal(fld.src, fld.name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		*fld.dst = v
	}

	result, err := h.Controller.Finalize(r.Context(), in)
	if err != nil {
		writeDomainError(w, "Failed to finalize shift", err)
		return
	}

	resp := FinalizeShiftResponse{Shift: toShiftDTO(result.Shift)}
	if result.OdometerWarning != nil {
		resp.Warning = result.OdometerWarning.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

// CancelShift discards the in-flight shift without persisting.
func (h *Handler) CancelShift(w http.ResponseWriter, r *http.Request) {
	h.Controller.Cancel()
	writeJSON(w, http.StatusOK, toActiveShiftDTO(h.Controller.Snapshot()))
}

// =============================================================================
// RECORDS
// =============================================================================

// ListShifts returns persisted shifts, most recent first.
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	filter, err := shiftFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	shifts, err := h.Ledger.ListShifts(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list shifts", err)
		return
	}

	dtos := make([]ShiftDTO, len(shifts))
	for i, s := range shifts {
		dtos[i] = toShiftDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateExpense logs one expense.
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	expDate, err := time.Parse("2006-01-02", req.ExpDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid exp_date format (use YYYY-MM-DD)", err)
		return
	}
	amount, err := parseDecimal(req.Amount, "amount")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	pct := 100
	if req.BusinessUsePct != nil {
		pct = *req.BusinessUsePct
	}

	expense, err := h.Expenses.Log(r.Context(), shift.ExpenseInput{
		ExpDate:        expDate,
		Category:       shift.Category(req.Category),
		Description:    req.Description,
		Amount:         amount,
		BusinessUsePct: pct,
		Notes:          req.Notes,
	})
	if err != nil {
		writeDomainError(w, "Failed to log expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseDTO(expense))
}

// ListExpenses returns logged expenses, most recent first.
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	filter, err := expenseFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	expenses, err := h.Ledger.ListExpenses(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list expenses", err)
		return
	}

	dtos := make([]ExpenseDTO, len(expenses))
	for i, e := range expenses {
		dtos[i] = toExpenseDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REPORTS
// =============================================================================

// GetSummary computes range totals and the daily income series.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := shiftFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	shifts, err := h.Ledger.ListShifts(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list shifts", err)
		return
	}
	// Expenses are not tied to a platform; only the date range applies.
	expenses, err := h.Ledger.ListExpenses(r.Context(), shift.ExpenseFilter{From: filter.From, To: filter.To})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list expenses", err)
		return
	}

	entries := shift.Entries(shifts)
	summary := finance.Summarize(entries, shift.ExpenseEntries(expenses))

	daily := finance.DailyIncome(entries)
	dailyDTOs := make([]DailyIncomeDTO, len(daily))
	for i, d := range daily {
		dailyDTOs[i] = DailyIncomeDTO{
			Date:        d.Date.Format("2006-01-02"),
			TotalIncome: d.TotalIncome.String(),
		}
	}

	writeJSON(w, http.StatusOK, SummaryResponse{
		Summary: toSummaryDTO(summary),
		Daily:   dailyDTOs,
	})
}

// GetRates returns weighted hourly-rate buckets. The group query
// parameter selects week (default), month, or year.
func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	var key finance.GroupKey
	switch group := r.URL.Query().Get("group"); group {
	case "", "week":
		key = finance.GroupWeek
	case "month":
		key = finance.GroupMonth
	case "year":
		key = finance.GroupYear
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown group %q (use week, month, or year)", group), nil)
		return
	}

	filter, err := shiftFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	shifts, err := h.Ledger.ListShifts(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list shifts", err)
		return
	}

	groups := finance.AggregatePeriod(shift.Entries(shifts), key)
	dtos := make([]PeriodSummaryDTO, len(groups))
	for i, g := range groups {
		dtos[i] = PeriodSummaryDTO{
			Group:       g.Group,
			TotalIncome: g.TotalIncome.String(),
			TotalHours:  g.TotalHours.String(),
			HourlyRate:  g.HourlyRate.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTrueCost computes the true-cost breakdown for a range under the
// requested accounting method.
func (h *Handler) GetTrueCost(w http.ResponseWriter, r *http.Request) {
	var req TrueCostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := finance.TrueCostInput{}
	switch req.Method {
	case "", string(finance.CostMethodIRS):
		in.Method = finance.CostMethodIRS
	case string(finance.CostMethodCustom):
		in.Method = finance.CostMethodCustom
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown method %q", req.Method), nil)
		return
	}

	filter, err := shiftFilterFromBody(req.From, req.To, req.Platforms)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if in.IRSRate, err = parseDecimal(req.IRSRate, "irs_rate"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if in.Method == finance.CostMethodCustom {
		c := &in.Custom
		for _, fld := range []struct {
			dst  *decimal.Decimal
			src  json.Number
			name string
		}{
			{&c.PurchasePrice, req.Custom.PurchasePrice, "purchase_price"},
			{&c.ResaleValue, req.Custom.ResaleValue, "resale_value"},
			{&c.LifetimeMiles, req.Custom.LifetimeMiles, "lifetime_miles"},
			{&c.GasPrice, req.Custom.GasPrice, "gas_price"},
			{&c.MPG, req.Custom.MPG, "mpg"},
			{&c.MaintenancePerMile, req.Custom.MaintenancePerMile, "maintenance_per_mile"},
			{&c.TiresPerMile, req.Custom.TiresPerMile, "tires_per_mile"},
			{&c.MiscPerMile, req.Custom.MiscPerMile, "misc_per_mile"},
		} {
			if *fld.dst, err = parseDecimal(fld.src, fld.name); err != nil {
				writeError(w, http.StatusBadRequest, err.Error(), nil)
				return
			}
		}
		c.IncludeExtras = req.Custom.IncludeExtras

		// Engine contract: these must be validated before the call.
		if c.MPG.Sign() <= 0 {
			writeError(w, http.StatusBadRequest, "mpg must be greater than 0", nil)
			return
		}
		if c.LifetimeMiles.Sign() <= 0 {
			writeError(w, http.StatusBadRequest, "lifetime_miles must be greater than 0", nil)
			return
		}
	}

	shifts, err := h.Ledger.ListShifts(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list shifts", err)
		return
	}
	expenses, err := h.Ledger.ListExpenses(r.Context(), shift.ExpenseFilter{From: filter.From, To: filter.To})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list expenses", err)
		return
	}

	summary := finance.Summarize(shift.Entries(shifts), nil)
	in.Totals = finance.PeriodTotals{
		TotalIncome: summary.TotalIncome,
		TotalHours:  summary.TotalHours,
		TotalMiles:  summary.TotalMiles,
	}
	in.Expenses = shift.ExpenseEntries(expenses)

	writeJSON(w, http.StatusOK, toTrueCostDTO(finance.TrueCost(in)))
}

// =============================================================================
// HELPERS
// =============================================================================

func shiftFilterFromQuery(r *http.Request) (shift.ShiftFilter, error) {
	q := r.URL.Query()
	var platforms []string
	if raw := q.Get("platforms"); raw != "" {
		platforms = strings.Split(raw, ",")
	}
	return shiftFilterFromBody(q.Get("from"), q.Get("to"), platforms)
}

func shiftFilterFromBody(from, to string, platforms []string) (shift.ShiftFilter, error) {
	var f shift.ShiftFilter
	var err error
	if from != "" {
		if f.From, err = time.Parse("2006-01-02", from); err != nil {
			return f, fmt.Errorf("invalid from date %q (use YYYY-MM-DD)", from)
		}
	}
	if to != "" {
		if f.To, err = time.Parse("2006-01-02", to); err != nil {
			return f, fmt.Errorf("invalid to date %q (use YYYY-MM-DD)", to)
		}
	}
	for _, raw := range platforms {
		p := shift.Platform(strings.TrimSpace(raw))
		if !p.Valid() {
			return f, fmt.Errorf("unknown platform %q", raw)
		}
		f.Platforms = append(f.Platforms, p)
	}
	return f, nil
}

func expenseFilterFromQuery(r *http.Request) (shift.ExpenseFilter, error) {
	sf, err := shiftFilterFromQuery(r)
	if err != nil {
		return shift.ExpenseFilter{}, err
	}
	return shift.ExpenseFilter{From: sf.From, To: sf.To}, nil
}

// parseDecimal converts a request number; empty means zero.
func parseDecimal(n json.Number, name string) (decimal.Decimal, error) {
	if n == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q", name, n)
	}
	return d, nil
}

// writeDomainError maps domain errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, shift.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, shift.ErrInvalidTransition):
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

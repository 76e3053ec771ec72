/*
lifecycle.go - The shift capture state machine

PURPOSE:
  Owns the single in-flight shift between Start and Finalize. At most
  one shift is being captured process-wide at any time; the controller
  is the only writer of that state.

STATES:
  NoActiveShift          -> Start                -> AwaitingStartOdometer
  AwaitingStartOdometer  -> SaveStartOdometer    -> Running
  Running                -> End                  -> AwaitingEndOdometer
  AwaitingEndOdometer    -> Finalize (persists)  -> NoActiveShift
  any non-initial state  -> Cancel               -> NoActiveShift

TIMING INVARIANT:
  StartTS is captured at the moment of Start and EndTS at the moment of
  End - never when the odometer entry that follows actually happens.
  Odometer capture is a separate step precisely so the driver can record
  it while safely stopped without skewing the online-hours clock. This
  sequencing is deliberate; do not "fix" it by moving the timestamps.

FAILURE SEMANTICS:
  An end odometer below the start reading is a recoverable warning:
  the shift still finalizes with miles recorded as 0 (the operator saw
  the warning and chose to proceed). A ledger failure during Finalize
  leaves the controller in AwaitingEndOdometer with everything captured
  so far intact - the operator retries the save, nothing is lost, and
  no partial record is ever persisted.
*/
package shift

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gridfare/shift-engine/finance"
)

// =============================================================================
// STATES
// =============================================================================

// State is the lifecycle position of the in-flight shift. The string
// values are the status tags persisted-adjacent layers key off.
type State string

const (
	StateNoActiveShift         State = "no_active_shift"
	StateAwaitingStartOdometer State = "awaiting_start_odo"
	StateRunning               State = "running"
	StateAwaitingEndOdometer   State = "awaiting_end_odo"
)

// inFlightShift holds the fields captured so far. It exists only inside
// the controller and is discarded on Cancel or after Finalize.
type inFlightShift struct {
	status State

	shiftDate time.Time
	platform  Platform
	label     string
	notes     string

	startTS  time.Time
	startOdo decimal.Decimal
	endTS    time.Time
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller drives the shift capture lifecycle. Safe for concurrent
// use, though by construction there is a single operator driving it.
type Controller struct {
	mu     sync.Mutex
	ledger Ledger
	now    func() time.Time

	active *inFlightShift
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithClock overrides the wall clock. Tests use this to simulate the
// gap between Start and End.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// NewController creates a controller in NoActiveShift.
func NewController(ledger Ledger, opts ...ControllerOption) *Controller {
	c := &Controller{ledger: ledger, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	if c.active == nil {
		return StateNoActiveShift
	}
	return c.active.status
}

// =============================================================================
// SNAPSHOT - Read-only projection for presentation layers
// =============================================================================

// Snapshot is what a presentation layer needs to render the in-flight
// shift. ElapsedHours is live while Running and the final online hours
// once the shift has ended.
type Snapshot struct {
	State State

	ShiftDate time.Time
	Platform  Platform
	Label     string
	Notes     string

	StartTS      time.Time
	StartOdo     decimal.Decimal
	EndTS        time.Time
	ElapsedHours decimal.Decimal
}

// Snapshot returns the current read-only projection.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	if c.active == nil {
		return Snapshot{State: StateNoActiveShift}
	}
	snap := Snapshot{
		State:     c.active.status,
		ShiftDate: c.active.shiftDate,
		Platform:  c.active.platform,
		Label:     c.active.label,
		Notes:     c.active.notes,
		StartTS:   c.active.startTS,
		StartOdo:  c.active.startOdo,
		EndTS:     c.active.endTS,
	}
	switch c.active.status {
	case StateAwaitingEndOdometer:
		snap.ElapsedHours = hoursBetween(c.active.startTS, c.active.endTS)
	default:
		snap.ElapsedHours = hoursBetween(c.active.startTS, c.now())
	}
	return snap
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// StartInput carries the fields captured when a shift begins.
type StartInput struct {
	ShiftDate time.Time // zero means today
	Platform  Platform
	Label     string
	Notes     string
}

// Start opens a new shift, capturing the start timestamp now. The
// start odometer comes later, once the driver is safely able to read
// it; waiting for it here would skew the online-hours clock.
func (c *Controller) Start(in StartInput) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return Snapshot{}, &InvalidTransitionError{State: c.active.status, Action: "start"}
	}
	if !in.Platform.Valid() {
		return Snapshot{}, fmt.Errorf("%w: unknown platform %q", ErrInvalidInput, in.Platform)
	}

	start := c.now()
	date := in.ShiftDate
	if date.IsZero() {
		date = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	}

	c.active = &inFlightShift{
		status:    StateAwaitingStartOdometer,
		shiftDate: date,
		platform:  in.Platform,
		label:     in.Label,
		notes:     in.Notes,
		startTS:   start,
	}
	return c.snapshotLocked(), nil
}

// SaveStartOdometer records the start odometer reading and moves the
// shift to Running.
func (c *Controller) SaveStartOdometer(reading decimal.Decimal) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stateLocked() != StateAwaitingStartOdometer {
		return Snapshot{}, &InvalidTransitionError{State: c.stateLocked(), Action: "save start odometer"}
	}
	if reading.Sign() < 0 {
		return Snapshot{}, fmt.Errorf("%w: odometer reading must not be negative", ErrInvalidInput)
	}

	c.active.startOdo = reading
	c.active.status = StateRunning
	return c.snapshotLocked(), nil
}

// End stops the clock, capturing the end timestamp now. Earnings and
// the end odometer are collected in the finalize step that follows.
func (c *Controller) End() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stateLocked() != StateRunning {
		return Snapshot{}, &InvalidTransitionError{State: c.stateLocked(), Action: "end"}
	}

	c.active.endTS = c.now()
	c.active.status = StateAwaitingEndOdometer
	return c.snapshotLocked(), nil
}

// FinalizeInput carries the end-of-shift entries.
type FinalizeInput struct {
	EndOdo     decimal.Decimal
	Rides      int
	GrossFares decimal.Decimal
	InAppTips  decimal.Decimal
	Bonuses    decimal.Decimal
	CashTips   decimal.Decimal
	Notes      string // empty keeps the notes captured at start
}

// FinalizeResult is the persisted shift plus the odometer warning, if
// any. A non-nil OdometerWarning means the end reading was below the
// start reading and miles were recorded as 0; the shift still saved.
type FinalizeResult struct {
	Shift           Shift
	OdometerWarning error
}

// Finalize derives the remaining fields, persists the completed shift
// via the ledger, and returns to NoActiveShift.
//
// On a persistence failure the in-flight shift is left untouched in
// AwaitingEndOdometer so the operator can retry; the end timestamp does
// not move on retry.
func (c *Controller) Finalize(ctx context.Context, in FinalizeInput) (FinalizeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stateLocked() != StateAwaitingEndOdometer {
		return FinalizeResult{}, &InvalidTransitionError{State: c.stateLocked(), Action: "finalize"}
	}
	if err := validateFinalize(in); err != nil {
		return FinalizeResult{}, err
	}

	a := c.active
	onlineHours := hoursBetween(a.startTS, a.endTS)

	miles, odoWarning := finance.Miles(a.startOdo, in.EndOdo)
	fin := finance.ShiftFinancials(in.GrossFares, in.InAppTips, in.Bonuses, in.CashTips, onlineHours)

	notes := in.Notes
	if notes == "" {
		notes = a.notes
	}

	record := Shift{
		ShiftDate:   a.shiftDate,
		Platform:    a.platform,
		Label:       a.label,
		Notes:       notes,
		StartTS:     a.startTS,
		EndTS:       a.endTS,
		OnlineHours: onlineHours,
		StartOdo:    a.startOdo,
		EndOdo:      in.EndOdo,
		Miles:       miles,
		GrossFares:  in.GrossFares,
		InAppTips:   in.InAppTips,
		Bonuses:     in.Bonuses,
		CashTips:    in.CashTips,
		TotalIncome: fin.TotalIncome,
		HourlyRate:  fin.HourlyRate,
		Rides:       in.Rides,
	}

	persisted, err := c.ledger.InsertShift(ctx, record)
	if err != nil {
		// In-flight data stays intact for a retry.
		return FinalizeResult{}, &PersistenceError{Op: "insert shift", Err: err}
	}

	c.active = nil
	return FinalizeResult{Shift: persisted, OdometerWarning: odoWarning}, nil
}

// Cancel discards the in-flight shift and returns to NoActiveShift.
// Nothing is persisted. Safe to call in any state; cancelling with no
// active shift is a no-op.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = nil
}

// =============================================================================
// HELPERS
// =============================================================================

func validateFinalize(in FinalizeInput) error {
	if in.EndOdo.Sign() < 0 {
		return fmt.Errorf("%w: end odometer must not be negative", ErrInvalidInput)
	}
	if in.Rides < 0 {
		return fmt.Errorf("%w: rides must not be negative", ErrInvalidInput)
	}
	for _, v := range []struct {
		name string
		val  decimal.Decimal
	}{
		{"gross fares", in.GrossFares},
		{"in-app tips", in.InAppTips},
		{"bonuses", in.Bonuses},
		{"cash tips", in.CashTips},
	} {
		if v.val.Sign() < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, v.name)
		}
	}
	return nil
}

// hoursBetween is the online-hours derivation: wall-clock hours between
// two timestamps, rounded to 2 places.
func hoursBetween(from, to time.Time) decimal.Decimal {
	if to.Before(from) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(to.Sub(from).Hours()).Round(2)
}

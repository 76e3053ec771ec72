package shift_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridfare/shift-engine/finance"
	"github.com/gridfare/shift-engine/shift"
	"github.com/gridfare/shift-engine/shift/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// fakeClock is a settable wall clock for simulating shift duration.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestController(t *testing.T) (*shift.Controller, *store.Memory, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)}
	ledger := store.NewMemoryWithClock(clock.Now)
	ctrl := shift.NewController(ledger, shift.WithClock(clock.Now))
	return ctrl, ledger, clock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}

func startUberShift(t *testing.T, ctrl *shift.Controller) {
	t.Helper()
	_, err := ctrl.Start(shift.StartInput{
		ShiftDate: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		Platform:  shift.PlatformUber,
	})
	require.NoError(t, err)
}

// =============================================================================
// TRANSITIONS
// =============================================================================

func TestController_StartCapturesTimestampImmediately(t *testing.T) {
	// The start timestamp belongs to the Start action, not to the
	// odometer entry that follows.
	ctrl, _, clock := newTestController(t)
	startedAt := clock.Now()

	startUberShift(t, ctrl)
	assert.Equal(t, shift.StateAwaitingStartOdometer, ctrl.State())

	// Odometer entered ten minutes later: start timestamp must not move.
	clock.Advance(10 * time.Minute)
	snap, err := ctrl.SaveStartOdometer(dec("1000"))
	require.NoError(t, err)
	assert.Equal(t, shift.StateRunning, snap.State)
	assert.Equal(t, startedAt, snap.StartTS)
}

func TestController_EndCapturesTimestampBeforeEarningsEntry(t *testing.T) {
	ctrl, _, clock := newTestController(t)
	startUberShift(t, ctrl)
	_, err := ctrl.SaveStartOdometer(dec("1000"))
	require.NoError(t, err)

	clock.Advance(4 * time.Hour)
	endedAt := clock.Now()
	snap, err := ctrl.End()
	require.NoError(t, err)
	assert.Equal(t, shift.StateAwaitingEndOdometer, snap.State)
	assert.Equal(t, endedAt, snap.EndTS)

	// Earnings entered later: online hours stay anchored to End.
	clock.Advance(30 * time.Minute)
	requireDecimal(t, "4", ctrl.Snapshot().ElapsedHours)
}

func TestController_InvalidActionsForState(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	ctx := context.Background()

	// Nothing in flight: only Start is legal.
	_, err := ctrl.SaveStartOdometer(dec("1000"))
	assert.ErrorIs(t, err, shift.ErrInvalidTransition)
	_, err = ctrl.End()
	assert.ErrorIs(t, err, shift.ErrInvalidTransition)
	_, err = ctrl.Finalize(ctx, shift.FinalizeInput{})
	assert.ErrorIs(t, err, shift.ErrInvalidTransition)

	// Started: starting again is a contract violation.
	startUberShift(t, ctrl)
	_, err = ctrl.Start(shift.StartInput{Platform: shift.PlatformLyft})
	assert.ErrorIs(t, err, shift.ErrInvalidTransition)

	var transErr *shift.InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, shift.StateAwaitingStartOdometer, transErr.State)
}

func TestController_StartRejectsUnknownPlatform(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	_, err := ctrl.Start(shift.StartInput{Platform: "Sidecar"})
	assert.ErrorIs(t, err, shift.ErrInvalidInput)
	assert.Equal(t, shift.StateNoActiveShift, ctrl.State())
}

// =============================================================================
// CANCEL - The only rollback path
// =============================================================================

func TestController_CancelFromEveryState_DiscardsWithoutPersisting(t *testing.T) {
	ctrl, ledger, clock := newTestController(t)
	ctx := context.Background()

	// From AwaitingStartOdometer.
	startUberShift(t, ctrl)
	ctrl.Cancel()
	assert.Equal(t, shift.StateNoActiveShift, ctrl.State())

	// From Running.
	startUberShift(t, ctrl)
	_, err := ctrl.SaveStartOdometer(dec("1000"))
	require.NoError(t, err)
	ctrl.Cancel()
	assert.Equal(t, shift.StateNoActiveShift, ctrl.State())

	// From AwaitingEndOdometer.
	startUberShift(t, ctrl)
	_, err = ctrl.SaveStartOdometer(dec("1000"))
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = ctrl.End()
	require.NoError(t, err)
	ctrl.Cancel()
	assert.Equal(t, shift.StateNoActiveShift, ctrl.State())

	// From the initial state it is a no-op.
	ctrl.Cancel()
	assert.Equal(t, shift.StateNoActiveShift, ctrl.State())

	// Nothing ever reached the ledger.
	shifts, err := ledger.ListShifts(ctx, shift.ShiftFilter{})
	require.NoError(t, err)
	assert.Empty(t, shifts)
}

// =============================================================================
// FINALIZE
// =============================================================================

func TestController_Finalize_PersistsFullyDerivedShift(t *testing.T) {
	// GIVEN: start -> odometer 1000 -> 4 hour shift -> end
	// WHEN:  finalizing with odometer 1120, 10 rides, $100+$20+$5+$0
	// THEN:  the persisted shift carries miles 120.0, income 125.00,
	//        hourly rate 31.25 - the derivations, not raw inputs

	ctrl, ledger, clock := newTestController(t)
	ctx := context.Background()

	startUberShift(t, ctrl)
	_, err := ctrl.SaveStartOdometer(dec("1000"))
	require.NoError(t, err)

	clock.Advance(4 * time.Hour)
	_, err = ctrl.End()
	require.NoError(t, err)

	result, err := ctrl.Finalize(ctx, shift.FinalizeInput{
		EndOdo:     dec("1120"),
		Rides:      10,
		GrossFares: dec("100"),
		InAppTips:  dec("20"),
		Bonuses:    dec("5"),
		CashTips:   dec("0"),
	})
	require.NoError(t, err)
	require.NoError(t, result.OdometerWarning)
	assert.Equal(t, shift.StateNoActiveShift, ctrl.State())

	s := result.Shift
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.CreatedAt.IsZero())
	assert.Equal(t, shift.PlatformUber, s.Platform)
	requireDecimal(t, "4", s.OnlineHours)
	requireDecimal(t, "120.0", s.Miles)
	requireDecimal(t, "125.00", s.TotalIncome)
	requireDecimal(t, "31.25", s.HourlyRate)
	assert.Equal(t, 10, s.Rides)
	assert.Equal(t, "09:00", s.StartTime())
	assert.Equal(t, "13:00", s.EndTime())

	// Exactly one record persisted, matching what Finalize returned.
	stored, err := ledger.ListShifts(ctx, shift.ShiftFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, s.ID, stored[0].ID)
	requireDecimal(t, "125.00", stored[0].TotalIncome)
}

func TestController_Finalize_InvalidEndOdometer_SavesWithZeroMilesAndWarns(t *testing.T) {
	// End odometer below start is a correctable warning, not a blocker:
	// the shift saves with miles recorded as 0.
	ctrl, ledger, clock := newTestController(t)
	ctx := context.Background()

	startUberShift(t, ctrl)
	_, err := ctrl.SaveStartOdometer(dec("1000"))
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)
	_, err = ctrl.End()
	require.NoError(t, err)

	result, err := ctrl.Finalize(ctx, shift.FinalizeInput{
		EndOdo:     dec("990"),
		GrossFares: dec("40"),
	})
	require.NoError(t, err)
	require.Error(t, result.OdometerWarning)
	assert.ErrorIs(t, result.OdometerWarning, finance.ErrInvalidOdometerReading)
	requireDecimal(t, "0", result.Shift.Miles)

	stored, err := ledger.ListShifts(ctx, shift.ShiftFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	requireDecimal(t, "0", stored[0].Miles)
}

func TestController_Finalize_StartOdometerNeverCaptured_MilesZero(t *testing.T) {
	ctrl, _, clock := newTestController(t)
	ctx := context.Background()

	startUberShift(t, ctrl)
	_, err := ctrl.SaveStartOdometer(dec("0")) // driver skipped the reading
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = ctrl.End()
	require.NoError(t, err)

	result, err := ctrl.Finalize(ctx, shift.FinalizeInput{EndOdo: dec("50000"), GrossFares: dec("10")})
	require.NoError(t, err)
	require.NoError(t, result.OdometerWarning)
	requireDecimal(t, "0", result.Shift.Miles)
}

func TestController_Finalize_LedgerFailure_KeepsInFlightShiftForRetry(t *testing.T) {
	// GIVEN: a ledger that rejects writes
	// WHEN:  Finalize fails
	// THEN:  the controller stays in AwaitingEndOdometer with the
	//        captured data intact, and a later retry succeeds with the
	//        original timestamps

	ctrl, ledger, clock := newTestController(t)
	ctx := context.Background()

	startUberShift(t, ctrl)
	_, err := ctrl.SaveStartOdometer(dec("1000"))
	require.NoError(t, err)
	clock.Advance(3 * time.Hour)
	endSnap, err := ctrl.End()
	require.NoError(t, err)

	ledger.FailWrites = errors.New("disk full")
	in := shift.FinalizeInput{EndOdo: dec("1100"), GrossFares: dec("60")}
	_, err = ctrl.Finalize(ctx, in)
	require.Error(t, err)
	assert.ErrorIs(t, err, shift.ErrPersistence)
	assert.Equal(t, shift.StateAwaitingEndOdometer, ctrl.State())

	// Retry after the ledger recovers; EndTS must not have moved.
	ledger.FailWrites = nil
	clock.Advance(10 * time.Minute)
	result, err := ctrl.Finalize(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, endSnap.EndTS, result.Shift.EndTS)
	requireDecimal(t, "3", result.Shift.OnlineHours)
	assert.Equal(t, shift.StateNoActiveShift, ctrl.State())
}

func TestController_Finalize_RejectsNegativeInputs(t *testing.T) {
	ctrl, _, clock := newTestController(t)
	ctx := context.Background()

	startUberShift(t, ctrl)
	_, err := ctrl.SaveStartOdometer(dec("1000"))
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = ctrl.End()
	require.NoError(t, err)

	_, err = ctrl.Finalize(ctx, shift.FinalizeInput{GrossFares: dec("-5")})
	assert.ErrorIs(t, err, shift.ErrInvalidInput)
	// Validation failure does not discard the shift.
	assert.Equal(t, shift.StateAwaitingEndOdometer, ctrl.State())
}

// =============================================================================
// SNAPSHOT
// =============================================================================

func TestController_Snapshot_ElapsedHoursTracksClockWhileRunning(t *testing.T) {
	ctrl, _, clock := newTestController(t)

	startUberShift(t, ctrl)
	_, err := ctrl.SaveStartOdometer(dec("500"))
	require.NoError(t, err)

	clock.Advance(90 * time.Minute)
	snap := ctrl.Snapshot()
	assert.Equal(t, shift.StateRunning, snap.State)
	requireDecimal(t, "1.5", snap.ElapsedHours)
	requireDecimal(t, "500", snap.StartOdo)
}

func TestController_Snapshot_InitialState(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	snap := ctrl.Snapshot()
	assert.Equal(t, shift.StateNoActiveShift, snap.State)
	assert.True(t, snap.StartTS.IsZero())
}

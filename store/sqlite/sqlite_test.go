package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridfare/shift-engine/shift"
	"github.com/gridfare/shift-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testShift(date string, platform shift.Platform) shift.Shift {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return shift.Shift{
		ShiftDate:   d,
		Platform:    platform,
		Label:       "morning",
		StartTS:     d.Add(9 * time.Hour),
		EndTS:       d.Add(13 * time.Hour),
		OnlineHours: dec("4"),
		StartOdo:    dec("1000"),
		EndOdo:      dec("1120"),
		Miles:       dec("120.0"),
		GrossFares:  dec("100"),
		InAppTips:   dec("20"),
		Bonuses:     dec("5"),
		CashTips:    dec("0"),
		TotalIncome: dec("125.00"),
		HourlyRate:  dec("31.25"),
		Rides:       10,
	}
}

// =============================================================================
// SHIFTS
// =============================================================================

func TestStore_InsertShift_AssignsIdentityAndRoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inserted, err := store.InsertShift(ctx, testShift("2024-06-01", shift.PlatformUber))
	require.NoError(t, err)
	assert.NotEmpty(t, inserted.ID)
	assert.False(t, inserted.CreatedAt.IsZero())

	out, err := store.ListShifts(ctx, shift.ShiftFilter{})
	require.NoError(t, err)
	require.Len(t, out, 1)

	got := out[0]
	assert.Equal(t, inserted.ID, got.ID)
	assert.Equal(t, shift.PlatformUber, got.Platform)
	assert.Equal(t, "morning", got.Label)
	assert.Equal(t, "09:00", got.StartTime())
	assert.Equal(t, 10, got.Rides)

	// Decimals survive the TEXT round trip exactly.
	assert.True(t, got.TotalIncome.Equal(dec("125.00")), "total income: %s", got.TotalIncome)
	assert.True(t, got.HourlyRate.Equal(dec("31.25")), "hourly rate: %s", got.HourlyRate)
	assert.True(t, got.Miles.Equal(dec("120.0")), "miles: %s", got.Miles)
}

func TestStore_ListShifts_MostRecentFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, date := range []string{"2024-06-01", "2024-06-03", "2024-06-02"} {
		_, err := store.InsertShift(ctx, testShift(date, shift.PlatformLyft))
		require.NoError(t, err)
	}

	out, err := store.ListShifts(ctx, shift.ShiftFilter{})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "2024-06-03", out[0].ShiftDate.Format("2006-01-02"))
	assert.Equal(t, "2024-06-02", out[1].ShiftDate.Format("2006-01-02"))
	assert.Equal(t, "2024-06-01", out[2].ShiftDate.Format("2006-01-02"))
}

func TestStore_ListShifts_SameDayOrderedByInsertion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.InsertShift(ctx, testShift("2024-06-01", shift.PlatformUber))
	require.NoError(t, err)
	second, err := store.InsertShift(ctx, testShift("2024-06-01", shift.PlatformLyft))
	require.NoError(t, err)

	out, err := store.ListShifts(ctx, shift.ShiftFilter{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	// Later insert wins the tie on shift_date.
	assert.Equal(t, second.ID, out[0].ID)
	assert.Equal(t, first.ID, out[1].ID)
}

func TestStore_ListShifts_FilterByDateRangeAndPlatform(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := []struct {
		date     string
		platform shift.Platform
	}{
		{"2024-05-20", shift.PlatformUber},
		{"2024-06-01", shift.PlatformUber},
		{"2024-06-02", shift.PlatformLyft},
		{"2024-06-10", shift.PlatformBoth},
		{"2024-07-01", shift.PlatformUber},
	}
	for _, s := range seed {
		_, err := store.InsertShift(ctx, testShift(s.date, s.platform))
		require.NoError(t, err)
	}

	june := func(day int) time.Time { return time.Date(2024, time.June, day, 0, 0, 0, 0, time.UTC) }

	out, err := store.ListShifts(ctx, shift.ShiftFilter{From: june(1), To: june(30)})
	require.NoError(t, err)
	assert.Len(t, out, 3)

	out, err = store.ListShifts(ctx, shift.ShiftFilter{
		From:      june(1),
		To:        june(30),
		Platforms: []shift.Platform{shift.PlatformUber, shift.PlatformLyft},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, shift.PlatformLyft, out[0].Platform)
	assert.Equal(t, shift.PlatformUber, out[1].Platform)
}

// =============================================================================
// EXPENSES
// =============================================================================

func TestStore_InsertExpense_RoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inserted, err := store.InsertExpense(ctx, shift.Expense{
		ExpDate:          time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC),
		Category:         shift.CategoryParkingTolls,
		Description:      "airport lot",
		Amount:           dec("12.50"),
		BusinessUsePct:   100,
		DeductibleAmount: dec("12.50"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, inserted.ID)

	out, err := store.ListExpenses(ctx, shift.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, shift.CategoryParkingTolls, out[0].Category)
	assert.Equal(t, "airport lot", out[0].Description)
	assert.Equal(t, 100, out[0].BusinessUsePct)
	assert.True(t, out[0].DeductibleAmount.Equal(dec("12.50")))
}

func TestStore_ListExpenses_DateRangeMostRecentFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, day := range []int{1, 20, 10} {
		_, err := store.InsertExpense(ctx, shift.Expense{
			ExpDate:          time.Date(2024, time.June, day, 0, 0, 0, 0, time.UTC),
			Category:         shift.CategoryGas,
			Amount:           dec("40"),
			BusinessUsePct:   100,
			DeductibleAmount: dec("40"),
		})
		require.NoError(t, err)
	}

	out, err := store.ListExpenses(ctx, shift.ExpenseFilter{
		From: time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 20, out[0].ExpDate.Day())
	assert.Equal(t, 10, out[1].ExpDate.Day())
}

// =============================================================================
// LIFECYCLE AGAINST SQLITE
// =============================================================================

func TestController_FinalizePersistsThroughSQLite(t *testing.T) {
	// The same end-to-end capture the in-memory tests run, through the
	// production store.
	store := newTestStore(t)
	ctx := context.Background()

	current := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	ctrl := shift.NewController(store, shift.WithClock(func() time.Time { return current }))

	_, err := ctrl.Start(shift.StartInput{
		ShiftDate: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		Platform:  shift.PlatformUber,
	})
	require.NoError(t, err)
	_, err = ctrl.SaveStartOdometer(dec("1000"))
	require.NoError(t, err)

	current = current.Add(4 * time.Hour)
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

	out, err := store.ListShifts(ctx, shift.ShiftFilter{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, result.Shift.ID, out[0].ID)
	assert.True(t, out[0].Miles.Equal(dec("120.0")))
	assert.True(t, out[0].TotalIncome.Equal(dec("125.00")))
	assert.True(t, out[0].HourlyRate.Equal(dec("31.25")))
	assert.Equal(t, shift.StateNoActiveShift, ctrl.State())
}

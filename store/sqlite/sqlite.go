/*
Package sqlite provides the SQLite-backed Ledger implementation.

PURPOSE:
  Persists completed shifts and logged expenses. The same patterns
  apply to PostgreSQL (where the schema originated) - only minor SQL
  dialect differences.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the shifts or expenses tables
  - No DELETE statements on the shifts or expenses tables
  - Identity and created_at are assigned here, never by the caller

PRECISION:
  Monetary and odometer values travel as decimal.Decimal and are stored
  as TEXT, round-tripping exactly. REAL columns would reintroduce the
  floating-point drift the decimal type exists to prevent.

WAL MODE:
  The database is opened with WAL so readers never block the single
  writer, and with foreign keys enabled.

ERRORS:
  A database that cannot be opened or migrated is a
  shift.ErrConfiguration - fatal before any operation is attempted.
  Individual read/write failures surface through the callers as
  shift.PersistenceError.

SEE ALSO:
  - shift/ledger.go: The interface this package implements
  - shift/store:     In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/gridfare/shift-engine/shift"
)

// timeLayout is fixed-width RFC3339 with nanoseconds so stored
// timestamps sort lexicographically in created_at order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements shift.Ledger using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (or creates) the database at dbPath and bootstraps the
// schema. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", shift.ErrConfiguration, dbPath, err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate: %v", shift.ErrConfiguration, err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the schema. Mirrors the original shifts/expenses
// tables, with TEXT for decimals and timestamps.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,

		shift_date TEXT NOT NULL,
		platform TEXT NOT NULL,
		shift_label TEXT,
		notes TEXT,

		start_ts TEXT NOT NULL,
		end_ts TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		online_hours TEXT NOT NULL,

		start_odo TEXT NOT NULL,
		end_odo TEXT NOT NULL,
		miles TEXT NOT NULL,

		gross_fares TEXT NOT NULL,
		in_app_tips TEXT NOT NULL,
		bonuses TEXT NOT NULL,
		cash_tips TEXT NOT NULL,
		total_income TEXT NOT NULL,

		hourly_rate TEXT NOT NULL,
		rides INTEGER NOT NULL DEFAULT 0
	);

	-- Listing is always most-recent-first by (shift_date, created_at).
	CREATE INDEX IF NOT EXISTS idx_shifts_date_created
		ON shifts(shift_date DESC, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_shifts_platform
		ON shifts(platform);

	CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,

		exp_date TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT,
		amount TEXT NOT NULL,

		business_use_pct INTEGER NOT NULL DEFAULT 100,
		deductible_amount TEXT NOT NULL DEFAULT '0',

		notes TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_expenses_date_created
		ON expenses(exp_date DESC, created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SHIFTS
// =============================================================================

const shiftColumns = `id, created_at, shift_date, platform, shift_label, notes,
	start_ts, end_ts, online_hours, start_odo, end_odo, miles,
	gross_fares, in_app_tips, bonuses, cash_tips, total_income, hourly_rate, rides`

func (s *Store) InsertShift(ctx context.Context, rec shift.Shift) (shift.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shifts (
			id, created_at, shift_date, platform, shift_label, notes,
			start_ts, end_ts, start_time, end_time, online_hours,
			start_odo, end_odo, miles,
			gross_fares, in_app_tips, bonuses, cash_tips, total_income,
			hourly_rate, rides
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.CreatedAt.Format(timeLayout),
		rec.ShiftDate.Format("2006-01-02"),
		string(rec.Platform),
		rec.Label,
		rec.Notes,
		rec.StartTS.Format(timeLayout),
		rec.EndTS.Format(timeLayout),
		rec.StartTime(),
		rec.EndTime(),
		rec.OnlineHours.String(),
		rec.StartOdo.String(),
		rec.EndOdo.String(),
		rec.Miles.String(),
		rec.GrossFares.String(),
		rec.InAppTips.String(),
		rec.Bonuses.String(),
		rec.CashTips.String(),
		rec.TotalIncome.String(),
		rec.HourlyRate.String(),
		rec.Rides,
	)
	if err != nil {
		return shift.Shift{}, fmt.Errorf("insert shift: %w", err)
	}
	return rec, nil
}

func (s *Store) ListShifts(ctx context.Context, f shift.ShiftFilter) ([]shift.Shift, error) {
	query := "SELECT " + shiftColumns + " FROM shifts"
	where, args := shiftWhere(f)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY shift_date DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	defer rows.Close()

	var out []shift.Shift
	for rows.Next() {
		rec, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shift: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func shiftWhere(f shift.ShiftFilter) (string, []any) {
	var clauses []string
	var args []any
	if !f.From.IsZero() {
		clauses = append(clauses, "shift_date >= ?")
		args = append(args, f.From.Format("2006-01-02"))
	}
	if !f.To.IsZero() {
		clauses = append(clauses, "shift_date <= ?")
		args = append(args, f.To.Format("2006-01-02"))
	}
	if len(f.Platforms) > 0 {
		placeholders := make([]string, len(f.Platforms))
		for i, p := range f.Platforms {
			placeholders[i] = "?"
			args = append(args, string(p))
		}
		clauses = append(clauses, "platform IN ("+strings.Join(placeholders, ", ")+")")
	}
	return strings.Join(clauses, " AND "), args
}

func scanShift(rows *sql.Rows) (shift.Shift, error) {
	var (
		rec                           shift.Shift
		createdAt, shiftDate          string
		platform                      string
		label, notes                  sql.NullString
		startTS, endTS                string
		onlineHours, startOdo, endOdo string
		miles                         string
		gross, tips, bonuses, cash    string
		totalIncome, hourlyRate       string
	)
	err := rows.Scan(
		&rec.ID, &createdAt, &shiftDate, &platform, &label, &notes,
		&startTS, &endTS, &onlineHours, &startOdo, &endOdo, &miles,
		&gross, &tips, &bonuses, &cash, &totalIncome, &hourlyRate, &rec.Rides,
	)
	if err != nil {
		return shift.Shift{}, err
	}

	rec.Platform = shift.Platform(platform)
	rec.Label = label.String
	rec.Notes = notes.String
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return shift.Shift{}, err
	}
	if rec.ShiftDate, err = time.Parse("2006-01-02", shiftDate); err != nil {
		return shift.Shift{}, err
	}
	if rec.StartTS, err = time.Parse(time.RFC3339Nano, startTS); err != nil {
		return shift.Shift{}, err
	}
	if rec.EndTS, err = time.Parse(time.RFC3339Nano, endTS); err != nil {
		return shift.Shift{}, err
	}

	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&rec.OnlineHours, onlineHours},
		{&rec.StartOdo, startOdo},
		{&rec.EndOdo, endOdo},
		{&rec.Miles, miles},
		{&rec.GrossFares, gross},
		{&rec.InAppTips, tips},
		{&rec.Bonuses, bonuses},
		{&rec.CashTips, cash},
		{&rec.TotalIncome, totalIncome},
		{&rec.HourlyRate, hourlyRate},
	}
	for _, fld := range fields {
		if *fld.dst, err = decimal.NewFromString(fld.src); err != nil {
			return shift.Shift{}, err
		}
	}
	return rec, nil
}

// =============================================================================
// EXPENSES
// =============================================================================

func (s *Store) InsertExpense(ctx context.Context, rec shift.Expense) (shift.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (
			id, created_at, exp_date, category, description, amount,
			business_use_pct, deductible_amount, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.CreatedAt.Format(timeLayout),
		rec.ExpDate.Format("2006-01-02"),
		string(rec.Category),
		rec.Description,
		rec.Amount.String(),
		rec.BusinessUsePct,
		rec.DeductibleAmount.String(),
		rec.Notes,
	)
	if err != nil {
		return shift.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return rec, nil
}

func (s *Store) ListExpenses(ctx context.Context, f shift.ExpenseFilter) ([]shift.Expense, error) {
	query := `SELECT id, created_at, exp_date, category, description, amount,
		business_use_pct, deductible_amount, notes FROM expenses`
	var clauses []string
	var args []any
	if !f.From.IsZero() {
		clauses = append(clauses, "exp_date >= ?")
		args = append(args, f.From.Format("2006-01-02"))
	}
	if !f.To.IsZero() {
		clauses = append(clauses, "exp_date <= ?")
		args = append(args, f.To.Format("2006-01-02"))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY exp_date DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []shift.Expense
	for rows.Next() {
		var (
			rec                shift.Expense
			createdAt, expDate string
			category           string
			description, notes sql.NullString
			amount, deductible string
		)
		err := rows.Scan(&rec.ID, &createdAt, &expDate, &category, &description,
			&amount, &rec.BusinessUsePct, &deductible, &notes)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		rec.Category = shift.Category(category)
		rec.Description = description.String
		rec.Notes = notes.String
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, err
		}
		if rec.ExpDate, err = time.Parse("2006-01-02", expDate); err != nil {
			return nil, err
		}
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		if rec.DeductibleAmount, err = decimal.NewFromString(deductible); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ shift.Ledger = (*Store)(nil)

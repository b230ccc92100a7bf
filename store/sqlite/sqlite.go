/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements all persistence interfaces (allocation.RecordStore,
  calendar.OverrideStore, payroll.ExpenseStore) using SQLite. In production
  the same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

INTERFACES IMPLEMENTED:
  allocation.RecordStore: Allocation records, whole-record upsert
  calendar.OverrideStore: Per-day absence/hours overrides
  payroll.ExpenseStore:   Variable expenses

UPSERT CONTRACT:
  allocation_records is keyed by (employee_id, project_id, month, year).
  Upsert uses INSERT .. ON CONFLICT DO UPDATE replacing every column in a
  single statement, so a record is swapped as a whole unit and concurrent
  writers on the same key are last-write-wins.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - allocation/store.go: Interface definition and aggregation helpers
  - allocation/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/payroll-engine/allocation"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payroll"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Compile-time interface checks.
var (
	_ allocation.RecordStore = (*Store)(nil)
	_ calendar.OverrideStore = (*Store)(nil)
	_ payroll.ExpenseStore   = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Allocation records (whole-record upsert by key)
	CREATE TABLE IF NOT EXISTS allocation_records (
		employee_id    TEXT NOT NULL,
		project_id     TEXT NOT NULL,
		month          INTEGER NOT NULL,
		year           INTEGER NOT NULL,
		days_active    INTEGER NOT NULL,
		working_days   INTEGER NOT NULL,
		gross_salary   TEXT NOT NULL,
		employer_ss    TEXT NOT NULL,
		worker_ss      TEXT NOT NULL,
		withholding    TEXT NOT NULL,
		garnishment    TEXT NOT NULL,
		normal_hours   TEXT NOT NULL,
		overtime_hours TEXT NOT NULL,
		holiday_hours  TEXT NOT NULL,
		overtime_pay   TEXT NOT NULL,
		holiday_pay    TEXT NOT NULL,
		expenses_json  TEXT NOT NULL,
		total          TEXT NOT NULL,
		updated_at     TEXT NOT NULL,
		PRIMARY KEY (employee_id, project_id, month, year)
	);

	CREATE INDEX IF NOT EXISTS idx_records_employee_month
		ON allocation_records(employee_id, year, month);
	CREATE INDEX IF NOT EXISTS idx_records_project_month
		ON allocation_records(project_id, year, month);

	-- Per-day overrides entered through absence tracking.
	-- Dates are kept as the raw persisted strings; validation happens at
	-- calendar build time so a malformed row degrades to the generated day
	-- instead of failing the build.
	CREATE TABLE IF NOT EXISTS absence_overrides (
		id          TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date        TEXT NOT NULL,
		absence     TEXT NOT NULL DEFAULT '',
		hours       REAL,
		created_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_overrides_employee_date
		ON absence_overrides(employee_id, date);

	-- Variable expenses (employee- or project-scoped)
	CREATE TABLE IF NOT EXISTS variable_expenses (
		id          TEXT PRIMARY KEY,
		scope       TEXT NOT NULL,
		employee_id TEXT NOT NULL DEFAULT '',
		project_id  TEXT NOT NULL DEFAULT '',
		date        TEXT NOT NULL,
		category    TEXT NOT NULL,
		amount      TEXT NOT NULL,
		invoice_ref TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_expenses_employee
		ON variable_expenses(employee_id, date);
	CREATE INDEX IF NOT EXISTS idx_expenses_project
		ON variable_expenses(project_id, date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD STORE (allocation.RecordStore interface)
// =============================================================================

// Upsert creates or replaces the record with the same key as a whole unit.
func (s *Store) Upsert(ctx context.Context, record allocation.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expensesJSON, err := json.Marshal(record.Expenses)
	if err != nil {
		return fmt.Errorf("failed to encode expenses: %w", err)
	}

	query := `
		INSERT INTO allocation_records
		(employee_id, project_id, month, year, days_active, working_days,
		 gross_salary, employer_ss, worker_ss, withholding, garnishment,
		 normal_hours, overtime_hours, holiday_hours, overtime_pay, holiday_pay,
		 expenses_json, total, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (employee_id, project_id, month, year) DO UPDATE SET
			days_active    = excluded.days_active,
			working_days   = excluded.working_days,
			gross_salary   = excluded.gross_salary,
			employer_ss    = excluded.employer_ss,
			worker_ss      = excluded.worker_ss,
			withholding    = excluded.withholding,
			garnishment    = excluded.garnishment,
			normal_hours   = excluded.normal_hours,
			overtime_hours = excluded.overtime_hours,
			holiday_hours  = excluded.holiday_hours,
			overtime_pay   = excluded.overtime_pay,
			holiday_pay    = excluded.holiday_pay,
			expenses_json  = excluded.expenses_json,
			total          = excluded.total,
			updated_at     = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		record.EmployeeID,
		record.ProjectID,
		int(record.Month),
		record.Year,
		record.DaysActive,
		record.WorkingDays,
		record.Prorated.GrossSalary.Value.String(),
		record.Prorated.EmployerSS.Value.String(),
		record.Prorated.WorkerSS.Value.String(),
		record.Prorated.Withholding.Value.String(),
		record.Prorated.Garnishment.Value.String(),
		record.NormalHours.Value.String(),
		record.OvertimeHours.Value.String(),
		record.HolidayHours.Value.String(),
		record.OvertimePay.Value.String(),
		record.HolidayPay.Value.String(),
		string(expensesJSON),
		record.Total.Value.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}
	return nil
}

// Get returns the record for a key.
func (s *Store) Get(ctx context.Context, key allocation.Key) (allocation.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := recordColumns + `
		FROM allocation_records
		WHERE employee_id = ? AND project_id = ? AND month = ? AND year = ?
	`
	records, err := s.queryRecords(ctx, query, key.EmployeeID, key.ProjectID, int(key.Month), key.Year)
	if err != nil {
		return allocation.Record{}, err
	}
	if len(records) == 0 {
		return allocation.Record{}, payroll.ErrRecordNotFound
	}
	return records[0], nil
}

// Query returns all records matching the filter.
func (s *Store) Query(ctx context.Context, filter allocation.Filter) ([]allocation.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := recordColumns + ` FROM allocation_records WHERE 1=1`
	var args []any
	if filter.EmployeeID != nil {
		query += ` AND employee_id = ?`
		args = append(args, *filter.EmployeeID)
	}
	if filter.ProjectID != nil {
		query += ` AND project_id = ?`
		args = append(args, *filter.ProjectID)
	}
	if filter.Month != nil {
		query += ` AND month = ?`
		args = append(args, int(*filter.Month))
	}
	if filter.Year != nil {
		query += ` AND year = ?`
		args = append(args, *filter.Year)
	}
	query += ` ORDER BY year ASC, month ASC, project_id ASC, employee_id ASC`

	return s.queryRecords(ctx, query, args...)
}

const recordColumns = `
	SELECT employee_id, project_id, month, year, days_active, working_days,
	       gross_salary, employer_ss, worker_ss, withholding, garnishment,
	       normal_hours, overtime_hours, holiday_hours, overtime_pay, holiday_pay,
	       expenses_json, total
`

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]allocation.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []allocation.Record
	for rows.Next() {
		var (
			r             allocation.Record
			month         int
			grossSalary   string
			employerSS    string
			workerSS      string
			withholding   string
			garnishment   string
			normalHours   string
			overtimeHours string
			holidayHours  string
			overtimePay   string
			holidayPay    string
			expensesJSON  string
			total         string
		)
		if err := rows.Scan(
			&r.EmployeeID, &r.ProjectID, &month, &r.Year, &r.DaysActive, &r.WorkingDays,
			&grossSalary, &employerSS, &workerSS, &withholding, &garnishment,
			&normalHours, &overtimeHours, &holidayHours, &overtimePay, &holidayPay,
			&expensesJSON, &total,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		r.Month = time.Month(month)
		r.Prorated = payroll.FixedCosts{
			GrossSalary: payroll.MustParseMoney(grossSalary),
			EmployerSS:  payroll.MustParseMoney(employerSS),
			WorkerSS:    payroll.MustParseMoney(workerSS),
			Withholding: payroll.MustParseMoney(withholding),
			Garnishment: payroll.MustParseMoney(garnishment),
		}
		r.NormalHours = parseHours(normalHours)
		r.OvertimeHours = parseHours(overtimeHours)
		r.HolidayHours = parseHours(holidayHours)
		r.OvertimePay = payroll.MustParseMoney(overtimePay)
		r.HolidayPay = payroll.MustParseMoney(holidayPay)
		r.Total = payroll.MustParseMoney(total)
		if err := json.Unmarshal([]byte(expensesJSON), &r.Expenses); err != nil {
			return nil, fmt.Errorf("failed to decode expenses: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func parseHours(s string) payroll.Hours {
	return payroll.Hours{Value: payroll.MustParseMoney(s).Value}
}

// =============================================================================
// OVERRIDE STORE (calendar.OverrideStore interface)
// =============================================================================

// SaveOverride persists a per-day override as entered, raw date included.
// One override per employee and day; saving again replaces it.
func (s *Store) SaveOverride(ctx context.Context, employeeID payroll.EmployeeID, o calendar.DayOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var hours any
	if o.Hours != nil {
		hours = *o.Hours
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO absence_overrides (id, employee_id, date, absence, hours, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			absence = excluded.absence,
			hours   = excluded.hours
	`,
		fmt.Sprintf("%s/%s", employeeID, o.Date),
		employeeID,
		o.Date,
		o.Absence,
		hours,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save override: %w", err)
	}
	return nil
}

// OverridesForMonth returns the overrides whose date prefix matches the
// year-month. Rows with dates too malformed to match simply never surface.
func (s *Store) OverridesForMonth(ctx context.Context, employeeID payroll.EmployeeID, month time.Month, year int) ([]calendar.DayOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := fmt.Sprintf("%04d-%02d", year, int(month))
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, absence, hours
		FROM absence_overrides
		WHERE employee_id = ? AND date LIKE ? || '%'
		ORDER BY date ASC
	`, employeeID, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides: %w", err)
	}
	defer rows.Close()

	var overrides []calendar.DayOverride
	for rows.Next() {
		var o calendar.DayOverride
		var hours sql.NullFloat64
		if err := rows.Scan(&o.Date, &o.Absence, &hours); err != nil {
			return nil, fmt.Errorf("failed to scan override: %w", err)
		}
		if hours.Valid {
			h := hours.Float64
			o.Hours = &h
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// =============================================================================
// EXPENSE STORE (payroll.ExpenseStore interface)
// =============================================================================

func (s *Store) SaveExpense(ctx context.Context, e payroll.VariableExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO variable_expenses
		(id, scope, employee_id, project_id, date, category, amount, invoice_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID,
		e.Scope,
		e.EmployeeID,
		e.ProjectID,
		e.Date.UTC().Format("2006-01-02"),
		e.Category,
		e.Amount.Value.String(),
		e.InvoiceRef,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}
	return nil
}

func (s *Store) ExpensesForEmployee(ctx context.Context, employeeID payroll.EmployeeID) ([]payroll.VariableExpense, error) {
	return s.queryExpenses(ctx, `WHERE scope = ? AND employee_id = ?`, payroll.ExpenseEmployee, employeeID)
}

func (s *Store) ExpensesForProject(ctx context.Context, projectID payroll.ProjectID) ([]payroll.VariableExpense, error) {
	return s.queryExpenses(ctx, `WHERE scope = ? AND project_id = ?`, payroll.ExpenseProject, projectID)
}

func (s *Store) queryExpenses(ctx context.Context, where string, args ...any) ([]payroll.VariableExpense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scope, employee_id, project_id, date, category, amount, invoice_ref
		FROM variable_expenses `+where+` ORDER BY date ASC, id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []payroll.VariableExpense
	for rows.Next() {
		var (
			e      payroll.VariableExpense
			date   string
			amount string
		)
		if err := rows.Scan(&e.ID, &e.Scope, &e.EmployeeID, &e.ProjectID, &date, &e.Category, &amount, &e.InvoiceRef); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse expense date: %w", err)
		}
		e.Date = parsed
		e.Amount = payroll.MustParseMoney(amount)
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

/*
store.go - Persistence contract for allocation records

PURPOSE:
  Defines the interface between the engine and the database, plus the
  aggregation helpers the reporting layer uses. Implementations live in
  allocation/store (in-memory) and store/sqlite (production).

UPSERT CONTRACT:
  Records are keyed by (employee, project, month, year). Upsert replaces
  the whole record atomically - never field-by-field - so concurrent
  recomputation for the same key is last-write-wins and recomputation for
  different keys is independent.
*/
package allocation

import (
	"context"
	"time"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// RECORD STORE
// =============================================================================

type RecordStore interface {
	// Upsert creates or atomically replaces the record with the same Key.
	Upsert(ctx context.Context, record Record) error

	// Get returns the record for a key, payroll.ErrRecordNotFound otherwise.
	Get(ctx context.Context, key Key) (Record, error)

	// Query returns all records matching the filter, ordered by year,
	// month, project, employee.
	Query(ctx context.Context, filter Filter) ([]Record, error)
}

// Filter selects a subset of records. Nil fields match everything.
type Filter struct {
	EmployeeID *payroll.EmployeeID
	ProjectID  *payroll.ProjectID
	Month      *time.Month
	Year       *int
}

// Matches reports whether the record satisfies every set field.
func (f Filter) Matches(r Record) bool {
	if f.EmployeeID != nil && r.EmployeeID != *f.EmployeeID {
		return false
	}
	if f.ProjectID != nil && r.ProjectID != *f.ProjectID {
		return false
	}
	if f.Month != nil && r.Month != *f.Month {
		return false
	}
	if f.Year != nil && r.Year != *f.Year {
		return false
	}
	return true
}

// =============================================================================
// AGGREGATION - Totals over a filtered subset of records
// =============================================================================

// Totals are the rollup figures the reporting layer consumes.
type Totals struct {
	Records          int
	SalaryAndSS      payroll.Money // gross salary + employer SS + worker SS
	Withholding      payroll.Money
	Garnishment      payroll.Money
	OvertimePay      payroll.Money
	HolidayPay       payroll.Money
	VariableExpenses payroll.Money
	Total            payroll.Money
}

// Summarize rolls up any subset of records.
func Summarize(records []Record) Totals {
	t := Totals{
		SalaryAndSS:      payroll.ZeroMoney(),
		Withholding:      payroll.ZeroMoney(),
		Garnishment:      payroll.ZeroMoney(),
		OvertimePay:      payroll.ZeroMoney(),
		HolidayPay:       payroll.ZeroMoney(),
		VariableExpenses: payroll.ZeroMoney(),
		Total:            payroll.ZeroMoney(),
	}
	for _, r := range records {
		t.Records++
		t.SalaryAndSS = t.SalaryAndSS.Add(r.Prorated.GrossSalary).Add(r.Prorated.EmployerSS).Add(r.Prorated.WorkerSS)
		t.Withholding = t.Withholding.Add(r.Prorated.Withholding)
		t.Garnishment = t.Garnishment.Add(r.Prorated.Garnishment)
		t.OvertimePay = t.OvertimePay.Add(r.OvertimePay)
		t.HolidayPay = t.HolidayPay.Add(r.HolidayPay)
		t.VariableExpenses = t.VariableExpenses.Add(r.ExpenseTotal())
		t.Total = t.Total.Add(r.Total)
	}
	return t
}

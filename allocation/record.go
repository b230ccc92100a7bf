/*
Package allocation prorates employee fixed costs and attributes them to projects.

PURPOSE:
  This package contains the cost-allocation engine: given an employee, a
  month and the projects the employee is assigned to, it prorates the fixed
  monthly cost components over the days the employee was active and splits
  the result across projects. The outcome is three-valued - resolved,
  needs-selection, or unallocated - so ambiguity is a first-class result
  instead of a silent average or an interactive prompt inside the engine.

KEY CONCEPTS IN THIS FILE (record.go):
  - Key: The unique (employee, project, month, year) identity of a record
  - Record: The allocation written for one project and one month

IDEMPOTENCE:
  A Record is fully derived from its inputs. Re-running the engine with
  identical inputs produces an identical record, and the store replaces the
  whole record on upsert - never field-by-field.

SEE ALSO:
  - engine.go: The allocation algorithm and outcome types
  - store.go: Persistence contract and aggregation
*/
package allocation

import (
	"sort"
	"time"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// KEY - Unique record identity
// =============================================================================

type Key struct {
	EmployeeID payroll.EmployeeID
	ProjectID  payroll.ProjectID
	Month      time.Month
	Year       int
}

// =============================================================================
// RECORD - One employee's allocated cost on one project for one month
// =============================================================================

type Record struct {
	Key

	// Proration inputs, kept for auditability.
	DaysActive  int
	WorkingDays int

	// Prorated fixed-cost components for this project's share.
	Prorated payroll.FixedCosts

	// Hours attributed to this project inside the month.
	NormalHours   payroll.Hours
	OvertimeHours payroll.Hours
	HolidayHours  payroll.Hours

	// Pay derived from the hour totals and the employee rates.
	OvertimePay payroll.Money
	HolidayPay  payroll.Money

	// Variable expenses matched to this allocation.
	Expenses []payroll.VariableExpense

	// Derived grand total. Set by Finalize, never edited separately.
	Total payroll.Money
}

// Finalize sorts the expense lines deterministically, rounds every money
// field to cents and computes the derived total. Called exactly once before
// a record is stored so that identical inputs always yield identical
// records and no division residue ever reaches the store.
func (r *Record) Finalize() {
	sort.SliceStable(r.Expenses, func(i, j int) bool {
		if !r.Expenses[i].Date.Equal(r.Expenses[j].Date) {
			return r.Expenses[i].Date.Before(r.Expenses[j].Date)
		}
		return r.Expenses[i].ID < r.Expenses[j].ID
	})

	r.Prorated = r.Prorated.Round2()
	r.OvertimePay = r.OvertimePay.Round2()
	r.HolidayPay = r.HolidayPay.Round2()

	total := r.Prorated.Total().Add(r.OvertimePay).Add(r.HolidayPay)
	for _, e := range r.Expenses {
		total = total.Add(e.Amount)
	}
	r.Total = total.Round2()
}

// ExpenseTotal sums the variable-expense lines on the record.
func (r Record) ExpenseTotal() payroll.Money {
	total := payroll.ZeroMoney()
	for _, e := range r.Expenses {
		total = total.Add(e.Amount)
	}
	return total
}

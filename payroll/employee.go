/*
employee.go - Employee entity and append-only salary history

PURPOSE:
  An employee carries the fixed monthly cost components that the allocation
  engine prorates across projects: gross salary, both sides of social
  security, withholding and garnishment. Salary changes are recorded as an
  append-only history so recomputing a past month always sees the components
  that were effective then.

APPEND-ONLY CONTRACT:
  SalaryHistory is never rewritten. A raise or a garnishment change appends
  a new SalaryChange with its effective date; CostsAt replays the history to
  find the components effective on a given date.

SEE ALSO:
  - allocation/engine.go: Prorates FixedCosts across projects
  - calendar/builder.go: Builds the per-employee month calendar
*/
package payroll

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FIXED COSTS - The monthly components the engine prorates
// =============================================================================

type FixedCosts struct {
	GrossSalary Money
	EmployerSS  Money
	WorkerSS    Money
	Withholding Money
	Garnishment Money
}

// Total returns the sum of all fixed components for one month.
func (f FixedCosts) Total() Money {
	return f.GrossSalary.Add(f.EmployerSS).Add(f.WorkerSS).Add(f.Withholding).Add(f.Garnishment)
}

// Scale multiplies every component by the same factor (daysActive/workingDays).
func (f FixedCosts) Scale(factor Money) FixedCosts {
	return FixedCosts{
		GrossSalary: f.GrossSalary.Mul(factor.Value),
		EmployerSS:  f.EmployerSS.Mul(factor.Value),
		WorkerSS:    f.WorkerSS.Mul(factor.Value),
		Withholding: f.Withholding.Mul(factor.Value),
		Garnishment: f.Garnishment.Mul(factor.Value),
	}
}

// MulDiv multiplies every component by num and then divides by den.
// Multiplying first keeps the result exact whenever the true quotient
// terminates: 2600 * 5/26 is exactly 500, not a 16-digit residue.
func (f FixedCosts) MulDiv(num, den decimal.Decimal) FixedCosts {
	scale := func(m Money) Money {
		return Money{Value: m.Value.Mul(num).Div(den)}
	}
	return FixedCosts{
		GrossSalary: scale(f.GrossSalary),
		EmployerSS:  scale(f.EmployerSS),
		WorkerSS:    scale(f.WorkerSS),
		Withholding: scale(f.Withholding),
		Garnishment: scale(f.Garnishment),
	}
}

// Round2 rounds every component to cents.
func (f FixedCosts) Round2() FixedCosts {
	return FixedCosts{
		GrossSalary: f.GrossSalary.Round2(),
		EmployerSS:  f.EmployerSS.Round2(),
		WorkerSS:    f.WorkerSS.Round2(),
		Withholding: f.Withholding.Round2(),
		Garnishment: f.Garnishment.Round2(),
	}
}

// =============================================================================
// EMPLOYEE
// =============================================================================

type Employee struct {
	ID       EmployeeID
	Name     string
	HireDate time.Time
	Active   bool

	// Current fixed monthly cost components.
	Costs FixedCosts

	// Per-hour rates for pay outside normal hours.
	OvertimeRate Money
	HolidayRate  Money

	// Append-only. Use AddSalaryChange, never mutate in place.
	SalaryHistory []SalaryChange
}

// SalaryChange records the fixed-cost components effective from a date.
type SalaryChange struct {
	EffectiveFrom time.Time
	Costs         FixedCosts
	OvertimeRate  Money
	HolidayRate   Money
	Reason        string
}

// AddSalaryChange appends a change and updates the current components.
// History stays sorted by effective date.
func (e *Employee) AddSalaryChange(change SalaryChange) {
	e.SalaryHistory = append(e.SalaryHistory, change)
	sort.SliceStable(e.SalaryHistory, func(i, j int) bool {
		return e.SalaryHistory[i].EffectiveFrom.Before(e.SalaryHistory[j].EffectiveFrom)
	})
	latest := e.SalaryHistory[len(e.SalaryHistory)-1]
	e.Costs = latest.Costs
	e.OvertimeRate = latest.OvertimeRate
	e.HolidayRate = latest.HolidayRate
}

// CostsAt returns the components effective on a date. With no history entry
// at or before the date, the employee's current components apply.
func (e *Employee) CostsAt(at time.Time) (FixedCosts, Money, Money) {
	costs, overtime, holiday := e.Costs, e.OvertimeRate, e.HolidayRate
	for i := len(e.SalaryHistory) - 1; i >= 0; i-- {
		if !e.SalaryHistory[i].EffectiveFrom.After(at) {
			c := e.SalaryHistory[i]
			return c.Costs, c.OvertimeRate, c.HolidayRate
		}
	}
	return costs, overtime, holiday
}

/*
engine.go - Fixed-cost proration and project allocation

PURPOSE:
  Implements the allocation algorithm:
    1. workingDaysInMonth = workdays + saturdays per the calendar policy
    2. daysActive = calendar days with at least one active assignment
    3. prorated component = fixed monthly amount * daysActive/workingDays
    4. one active project  -> everything goes there (upsert)
    5. several projects    -> split proportional to normal-hour shares;
                              zero total hours -> NeedsSelection outcome
    6. no active project   -> Unallocated outcome, cost still reported
    7. employee expenses in the month follow the fixed-cost allocation
    8. identical inputs -> identical records (replace, not append)

OUTCOME MODEL:
  Allocate never prompts and never guesses. The three-valued Outcome pushes
  resolution of ambiguous months to the caller: Resolve finalizes with a
  chosen project, AcceptUnallocated finalizes with no project. Both paths
  are explicit.

DETERMINISM:
  The engine takes an explicit asOf date to close open assignment windows
  instead of reading the wall clock, so recomputing a past month is
  reproducible.
*/
package allocation

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// INPUT & OUTCOME
// =============================================================================

// Input is the in-memory snapshot the engine computes over.
type Input struct {
	Employee *payroll.Employee
	Month    time.Month
	Year     int

	// AsOf closes open assignment windows. Callers recomputing a past
	// month pass the last day of that month (or any later date).
	AsOf time.Time

	// Projects the employee may be assigned to this month.
	Projects []*payroll.Project

	// Persisted per-day overrides for this employee and month.
	Overrides []calendar.DayOverride

	// Employee-scoped variable expenses (any date; the engine filters to
	// the month).
	Expenses []payroll.VariableExpense
}

type Status string

const (
	// StatusResolved: records were computed and upserted.
	StatusResolved Status = "resolved"
	// StatusNeedsSelection: several projects, zero total hours - the
	// caller must pick a target project or explicitly accept no
	// allocation before anything is written.
	StatusNeedsSelection Status = "needs-selection"
	// StatusUnallocated: no active assignment this month - the cost is a
	// general expense, computed and reported but written to no project.
	StatusUnallocated Status = "unallocated"
)

type Outcome struct {
	Status      Status
	Records     []Record
	Pending     *PendingAllocation
	Unallocated *UnallocatedCost
	Issues      []payroll.DataQualityIssue
}

// PendingAllocation carries everything needed to finalize an ambiguous
// month once the caller supplies a target.
type PendingAllocation struct {
	EmployeeID     payroll.EmployeeID
	Month          time.Month
	Year           int
	Candidates     []payroll.ProjectID
	DaysActive     int
	WorkingDays    int
	Prorated       payroll.FixedCosts
	HoursByProject map[payroll.ProjectID]calendar.HourTotals
	OvertimeRate   payroll.Money
	HolidayRate    payroll.Money
	Expenses       []payroll.VariableExpense
}

// UnallocatedCost is the general-expense figure for a month with no active
// assignment. Never dropped, never attached to a project.
type UnallocatedCost struct {
	EmployeeID  payroll.EmployeeID
	Month       time.Month
	Year        int
	Costs       payroll.FixedCosts
	Total       payroll.Money
	Expenses    []payroll.VariableExpense // company-level, unassigned
}

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	Calendar *calendar.Builder
	Records  RecordStore
}

func NewEngine(builder *calendar.Builder, records RecordStore) *Engine {
	return &Engine{Calendar: builder, Records: records}
}

// Allocate computes the month's allocation for one employee and persists
// resolved records. See the file header for the algorithm.
func (e *Engine) Allocate(ctx context.Context, in Input) (*Outcome, error) {
	month, issues := e.Calendar.BuildMonth(in.Employee.ID, in.Month, in.Year, in.Overrides)
	workingDays := month.WorkingDays()

	// Fixed-cost components effective in this month.
	monthEnd := calendar.EndOfMonth(in.Year, in.Month)
	costs, overtimeRate, holidayRate := in.Employee.CostsAt(monthEnd.Time)

	// Clip every assignment to the month and group windows per project.
	windowsByProject := make(map[payroll.ProjectID][]calendar.Window)
	var activeProjects []payroll.ProjectID
	activeDay := make([]bool, len(month.Days))
	for _, project := range in.Projects {
		for _, a := range project.AssignmentsFor(in.Employee.ID) {
			if a.EntryDate.IsZero() {
				issues = append(issues, payroll.DataQualityIssue{
					EmployeeID: in.Employee.ID,
					Field:      "assignment.entryDate",
					Detail:     "missing entry date on project " + string(project.ID) + ", assignment contributes zero days",
				})
				continue
			}
			w := calendar.AssignmentWindow(a, in.Month, in.Year, in.AsOf)
			if w.Empty {
				continue
			}
			if len(windowsByProject[project.ID]) == 0 {
				activeProjects = append(activeProjects, project.ID)
			}
			windowsByProject[project.ID] = append(windowsByProject[project.ID], w)
			for d := w.Start.Day(); d <= w.End.Day(); d++ {
				activeDay[d-1] = true
			}
		}
	}
	sort.Slice(activeProjects, func(i, j int) bool { return activeProjects[i] < activeProjects[j] })

	daysActive := 0
	for _, active := range activeDay {
		if active {
			daysActive++
		}
	}

	monthExpenses := expensesInMonth(in.Expenses, in.Month, in.Year)

	// No active project: the full monthly cost is a general expense.
	if len(activeProjects) == 0 {
		return &Outcome{
			Status: StatusUnallocated,
			Unallocated: &UnallocatedCost{
				EmployeeID: in.Employee.ID,
				Month:      in.Month,
				Year:       in.Year,
				Costs:      costs,
				Total:      costs.Total(),
				Expenses:   monthExpenses,
			},
			Issues: issues,
		}, nil
	}

	prorated := prorate(costs, daysActive, workingDays)

	// Hour totals per project across all of its windows in the month.
	hoursByProject := make(map[payroll.ProjectID]calendar.HourTotals, len(activeProjects))
	for id, windows := range windowsByProject {
		totals := calendar.ZeroTotals()
		for _, w := range windows {
			totals = totals.Add(calendar.AccumulateWindow(month, w))
		}
		hoursByProject[id] = totals
	}

	// Single active project: everything goes there.
	if len(activeProjects) == 1 {
		id := activeProjects[0]
		record := e.buildRecord(in, id, daysActive, workingDays, prorated,
			hoursByProject[id], overtimeRate, holidayRate, monthExpenses)
		if err := e.Records.Upsert(ctx, record); err != nil {
			return nil, err
		}
		return &Outcome{Status: StatusResolved, Records: []Record{record}, Issues: issues}, nil
	}

	// Several projects: split proportional to normal-hour shares.
	totalNormal := payroll.ZeroHours()
	for _, id := range activeProjects {
		totalNormal = totalNormal.Add(hoursByProject[id].Normal)
	}

	if totalNormal.IsZero() {
		// Ambiguous: nothing to weight the split by. First-class outcome,
		// resolution deferred to the caller.
		return &Outcome{
			Status: StatusNeedsSelection,
			Pending: &PendingAllocation{
				EmployeeID:     in.Employee.ID,
				Month:          in.Month,
				Year:           in.Year,
				Candidates:     activeProjects,
				DaysActive:     daysActive,
				WorkingDays:    workingDays,
				Prorated:       prorated,
				HoursByProject: hoursByProject,
				OvertimeRate:   overtimeRate,
				HolidayRate:    holidayRate,
				Expenses:       monthExpenses,
			},
			Issues: issues,
		}, nil
	}

	// Expenses follow the project with the largest normal-hour share.
	expenseTarget := activeProjects[0]
	for _, id := range activeProjects[1:] {
		if hoursByProject[id].Normal.GreaterThan(hoursByProject[expenseTarget].Normal) {
			expenseTarget = id
		}
	}

	records := make([]Record, 0, len(activeProjects))
	for _, id := range activeProjects {
		split := prorated.MulDiv(hoursByProject[id].Normal.Value, totalNormal.Value)
		var expenses []payroll.VariableExpense
		if id == expenseTarget {
			expenses = monthExpenses
		}
		record := e.buildRecord(in, id, daysActive, workingDays, split,
			hoursByProject[id], overtimeRate, holidayRate, expenses)
		records = append(records, record)
	}
	for _, record := range records {
		if err := e.Records.Upsert(ctx, record); err != nil {
			return nil, err
		}
	}
	return &Outcome{Status: StatusResolved, Records: records, Issues: issues}, nil
}

// Resolve finalizes a NeedsSelection outcome with a caller-chosen target
// project. The full prorated cost and that project's hour pay go to the
// selection.
func (e *Engine) Resolve(ctx context.Context, pending *PendingAllocation, projectID payroll.ProjectID) (Record, error) {
	if pending == nil {
		return Record{}, payroll.ErrUnresolvedAllocation
	}
	found := false
	for _, c := range pending.Candidates {
		if c == projectID {
			found = true
			break
		}
	}
	if !found {
		return Record{}, payroll.ErrUnknownProjectSelection
	}

	hours := pending.HoursByProject[projectID]
	record := Record{
		Key: Key{
			EmployeeID: pending.EmployeeID,
			ProjectID:  projectID,
			Month:      pending.Month,
			Year:       pending.Year,
		},
		DaysActive:    pending.DaysActive,
		WorkingDays:   pending.WorkingDays,
		Prorated:      pending.Prorated,
		NormalHours:   hours.Normal,
		OvertimeHours: hours.Overtime,
		HolidayHours:  hours.Holiday,
		OvertimePay:   pending.OvertimeRate.Mul(hours.Overtime.Value),
		HolidayPay:    pending.HolidayRate.Mul(hours.Holiday.Value),
		Expenses:      pending.Expenses,
	}
	record.Finalize()
	if err := e.Records.Upsert(ctx, record); err != nil {
		return Record{}, err
	}
	return record, nil
}

// AcceptUnallocated finalizes a NeedsSelection outcome with an explicit
// "no allocation": the cost becomes a general expense, no record is
// written.
func (e *Engine) AcceptUnallocated(pending *PendingAllocation) (*UnallocatedCost, error) {
	if pending == nil {
		return nil, payroll.ErrUnresolvedAllocation
	}
	return &UnallocatedCost{
		EmployeeID: pending.EmployeeID,
		Month:      pending.Month,
		Year:       pending.Year,
		Costs:      pending.Prorated,
		Total:      pending.Prorated.Total(),
		Expenses:   pending.Expenses,
	}, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

func (e *Engine) buildRecord(in Input, projectID payroll.ProjectID, daysActive, workingDays int,
	prorated payroll.FixedCosts, hours calendar.HourTotals,
	overtimeRate, holidayRate payroll.Money, expenses []payroll.VariableExpense) Record {

	record := Record{
		Key: Key{
			EmployeeID: in.Employee.ID,
			ProjectID:  projectID,
			Month:      in.Month,
			Year:       in.Year,
		},
		DaysActive:    daysActive,
		WorkingDays:   workingDays,
		Prorated:      prorated,
		NormalHours:   hours.Normal,
		OvertimeHours: hours.Overtime,
		HolidayHours:  hours.Holiday,
		OvertimePay:   overtimeRate.Mul(hours.Overtime.Value),
		HolidayPay:    holidayRate.Mul(hours.Holiday.Value),
		Expenses:      expenses,
	}
	record.Finalize()
	return record
}

// prorate scales every fixed component by daysActive/workingDays,
// multiplying before dividing so terminating results stay exact. The
// factor is capped at 1 so a fully active month allocates exactly the
// monthly cost: daysActive counts calendar days while the denominator
// counts working days, and the sum allocated must never exceed the month's
// cost.
func prorate(costs payroll.FixedCosts, daysActive, workingDays int) payroll.FixedCosts {
	if workingDays == 0 || daysActive == 0 {
		return costs.Scale(payroll.ZeroMoney())
	}
	if daysActive >= workingDays {
		return costs
	}
	return costs.MulDiv(decimal.NewFromInt(int64(daysActive)), decimal.NewFromInt(int64(workingDays)))
}

func expensesInMonth(expenses []payroll.VariableExpense, month time.Month, year int) []payroll.VariableExpense {
	var out []payroll.VariableExpense
	for _, e := range expenses {
		if e.InMonth(month, year) {
			out = append(out, e)
		}
	}
	return out
}

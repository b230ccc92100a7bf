/*
Package profit computes project profitability from allocated cost and revenue.

PURPOSE:
  Aggregates a project's gross revenue against the cost the allocation
  engine attributed to it, producing net profit, margin and a per-month
  breakdown. Everything here is derived on demand - nothing is stored.

REVENUE RECOGNITION:
  - Fixed-budget projects: sum of monthly certifications. A manually
    entered revenue override takes precedence over the computed figure
    (administración-style projects).
  - Time-and-materials projects: normal hours per assignment per month,
    clipped to the assignment window and excluding absence days, times the
    effective hourly rate (assignment override or project default).

MARGIN:
  netProfit / grossRevenue * 100 when revenue is positive, else 0 with a
  no-revenue flag - never a division error. Bands (>=20 excellent, >=10
  good, else low) are display-only classification.
*/
package profit

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/allocation"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// ANALYSIS - The profitability summary for one project
// =============================================================================

type MonthlyFigures struct {
	Year          int
	Month         time.Month
	Revenue       payroll.Money
	AllocatedCost payroll.Money
	VariableCost  payroll.Money
	NetProfit     payroll.Money
}

type Analysis struct {
	ProjectID     payroll.ProjectID
	GrossRevenue  payroll.Money
	AllocatedCost payroll.Money
	VariableCost  payroll.Money
	NetProfit     payroll.Money
	MarginPercent decimal.Decimal
	NoRevenue     bool
	// RevenueOverridden marks that GrossRevenue comes from a manual
	// override; the monthly breakdown keeps the computed figures and does
	// not reconcile to the total.
	RevenueOverridden bool
	Monthly           []MonthlyFigures
}

// =============================================================================
// MARGIN BANDS - Display-only classification
// =============================================================================

type MarginBand string

const (
	BandExcellent MarginBand = "excellent"
	BandGood      MarginBand = "good"
	BandLow       MarginBand = "low"
)

func ClassifyMargin(marginPercent decimal.Decimal) MarginBand {
	switch {
	case marginPercent.GreaterThanOrEqual(decimal.NewFromInt(20)):
		return BandExcellent
	case marginPercent.GreaterThanOrEqual(decimal.NewFromInt(10)):
		return BandGood
	default:
		return BandLow
	}
}

// Band classifies this analysis's margin.
func (a Analysis) Band() MarginBand { return ClassifyMargin(a.MarginPercent) }

// =============================================================================
// CALCULATOR
// =============================================================================

type Calculator struct {
	Calendar *calendar.Builder
	Records  allocation.RecordStore
}

func NewCalculator(builder *calendar.Builder, records allocation.RecordStore) *Calculator {
	return &Calculator{Calendar: builder, Records: records}
}

// Input is the snapshot Analyze computes over.
type Input struct {
	Project *payroll.Project

	// AsOf closes open assignment windows for time-and-materials revenue.
	AsOf time.Time

	// Per-day overrides by employee, needed to exclude absence days from
	// billed hours.
	OverridesByEmployee map[payroll.EmployeeID][]calendar.DayOverride

	// Project-scoped variable expenses.
	ProjectExpenses []payroll.VariableExpense
}

// Analyze produces the profitability summary for one project.
func (c *Calculator) Analyze(ctx context.Context, in Input) (*Analysis, error) {
	project := in.Project

	records, err := c.Records.Query(ctx, allocation.Filter{ProjectID: &project.ID})
	if err != nil {
		return nil, err
	}

	monthly := make(map[monthKey]*MonthlyFigures)

	allocated := payroll.ZeroMoney()
	for _, r := range records {
		allocated = allocated.Add(r.Total)
		f := figuresAt(monthly, r.Year, r.Month)
		f.AllocatedCost = f.AllocatedCost.Add(r.Total)
	}

	variable := payroll.ZeroMoney()
	for _, e := range in.ProjectExpenses {
		variable = variable.Add(e.Amount)
		f := figuresAt(monthly, e.Date.Year(), e.Date.Month())
		f.VariableCost = f.VariableCost.Add(e.Amount)
	}

	revenue, overridden := c.grossRevenue(project, in, monthly)

	netProfit := revenue.Sub(allocated).Sub(variable)

	margin := decimal.Zero
	noRevenue := !revenue.IsPositive()
	if !noRevenue {
		margin = netProfit.Value.Div(revenue.Value).Mul(decimal.NewFromInt(100))
	}

	return &Analysis{
		ProjectID:         project.ID,
		GrossRevenue:      revenue,
		AllocatedCost:     allocated,
		VariableCost:      variable,
		NetProfit:         netProfit,
		MarginPercent:     margin,
		NoRevenue:         noRevenue,
		RevenueOverridden: overridden,
		Monthly:           flattenMonthly(monthly),
	}, nil
}

// grossRevenue computes total revenue and fills the monthly map. The
// second return reports that a manual override replaced the computed
// total; the breakdown keeps the computed figures and the analysis carries
// the flag so consumers know the rows won't sum to the total.
func (c *Calculator) grossRevenue(project *payroll.Project, in Input, monthly map[monthKey]*MonthlyFigures) (payroll.Money, bool) {
	if project.BillingMode == payroll.BillingFixedBudget {
		for _, cert := range project.Certifications {
			f := figuresAt(monthly, cert.Year, cert.Month)
			f.Revenue = f.Revenue.Add(cert.Amount)
		}
		if project.RevenueOverride != nil {
			return *project.RevenueOverride, true
		}
		return project.CertifiedRevenue(), false
	}

	// Time-and-materials: billed hours per assignment per month.
	total := payroll.ZeroMoney()
	for _, a := range project.Assignments {
		if a.EntryDate.IsZero() {
			continue
		}
		rate := project.EffectiveRate(a)
		for _, mk := range assignmentMonths(a, in.AsOf) {
			window := calendar.AssignmentWindow(a, mk.Month, mk.Year, in.AsOf)
			if window.Empty {
				continue
			}
			month, _ := c.Calendar.BuildMonth(a.EmployeeID, mk.Month, mk.Year, in.OverridesByEmployee[a.EmployeeID])
			hours := calendar.AccumulateWindow(month, window)
			if hours.Normal.IsZero() {
				continue
			}
			amount := rate.Mul(hours.Normal.Value)
			total = total.Add(amount)
			f := figuresAt(monthly, mk.Year, mk.Month)
			f.Revenue = f.Revenue.Add(amount)
		}
	}
	if project.RevenueOverride != nil {
		return *project.RevenueOverride, true
	}
	return total, false
}

// =============================================================================
// INTERNALS
// =============================================================================

type monthKey struct {
	Year  int
	Month time.Month
}

func figuresAt(monthly map[monthKey]*MonthlyFigures, year int, month time.Month) *MonthlyFigures {
	key := monthKey{Year: year, Month: month}
	f, ok := monthly[key]
	if !ok {
		f = &MonthlyFigures{
			Year: year, Month: month,
			Revenue:       payroll.ZeroMoney(),
			AllocatedCost: payroll.ZeroMoney(),
			VariableCost:  payroll.ZeroMoney(),
		}
		monthly[key] = f
	}
	return f
}

// flattenMonthly orders the breakdown chronologically and drops months with
// zero activity. Totals are computed from the full sums, so omitted months
// never change them.
func flattenMonthly(monthly map[monthKey]*MonthlyFigures) []MonthlyFigures {
	var out []MonthlyFigures
	for _, f := range monthly {
		if f.Revenue.IsZero() && f.AllocatedCost.IsZero() && f.VariableCost.IsZero() {
			continue
		}
		f.NetProfit = f.Revenue.Sub(f.AllocatedCost).Sub(f.VariableCost)
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// assignmentMonths lists every month the assignment window touches, from
// entry to exit (or asOf for open assignments).
func assignmentMonths(a payroll.Assignment, asOf time.Time) []monthKey {
	end := calendar.DateOf(asOf)
	if a.ExitDate != nil {
		end = calendar.DateOf(*a.ExitDate)
	}
	start := calendar.DateOf(a.EntryDate)
	if end.Before(start) {
		return nil
	}

	var months []monthKey
	cursor := calendar.StartOfMonth(start.Year(), start.Month())
	last := calendar.StartOfMonth(end.Year(), end.Month())
	for cursor.BeforeOrEqual(last) {
		months = append(months, monthKey{Year: cursor.Year(), Month: cursor.Month()})
		cursor = calendar.StartOfMonth(cursor.Year(), cursor.Month()+1)
	}
	return months
}

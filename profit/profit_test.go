package profit_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/allocation"
	"github.com/warp/payroll-engine/allocation/store"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/profit"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestCalculator(t *testing.T) (*profit.Calculator, *store.Memory) {
	t.Helper()
	records := store.NewMemory()
	builder := calendar.NewBuilder(calendar.EmptyTable())
	return profit.NewCalculator(builder, records), records
}

func storeRecord(t *testing.T, records *store.Memory, project payroll.ProjectID, month time.Month, year int, gross int) {
	t.Helper()
	r := allocation.Record{
		Key:      allocation.Key{EmployeeID: "emp-1", ProjectID: project, Month: month, Year: year},
		Prorated: payroll.FixedCosts{GrossSalary: payroll.NewMoneyFromInt(gross)},
	}
	r.Finalize()
	require.NoError(t, records.Upsert(context.Background(), r))
}

func money(n int) payroll.Money { return payroll.NewMoneyFromInt(n) }

// =============================================================================
// FIXED-BUDGET REVENUE
// =============================================================================

func TestAnalyze_FixedBudgetSumsCertifications(t *testing.T) {
	// GIVEN: 5000 certified in September and 3000 in October, 2000 of
	//        allocated cost and a 500 project expense in September
	// WHEN: Analyzing the project
	// THEN: Revenue 8000, net 5500, margin 68.75 (excellent), and a
	//       chronological two-month breakdown

	calc, records := newTestCalculator(t)
	storeRecord(t, records, "proj-a", time.September, 2025, 2000)

	project := &payroll.Project{
		ID:          "proj-a",
		BillingMode: payroll.BillingFixedBudget,
		TotalBudget: money(20000),
		Certifications: []payroll.Certification{
			{Month: time.September, Year: 2025, Amount: money(5000)},
			{Month: time.October, Year: 2025, Amount: money(3000)},
		},
	}
	analysis, err := calc.Analyze(context.Background(), profit.Input{
		Project: project,
		AsOf:    time.Date(2025, time.October, 31, 0, 0, 0, 0, time.UTC),
		ProjectExpenses: []payroll.VariableExpense{
			payroll.NewProjectExpense("proj-a", time.Date(2025, time.September, 10, 0, 0, 0, 0, time.UTC), "materials", money(500)),
		},
	})
	require.NoError(t, err)

	assert.True(t, analysis.GrossRevenue.Equal(money(8000)), "revenue: %s", analysis.GrossRevenue)
	assert.True(t, analysis.AllocatedCost.Equal(money(2000)), "allocated: %s", analysis.AllocatedCost)
	assert.True(t, analysis.VariableCost.Equal(money(500)), "variable: %s", analysis.VariableCost)
	assert.True(t, analysis.NetProfit.Equal(money(5500)), "net: %s", analysis.NetProfit)
	assert.True(t, analysis.MarginPercent.Equal(decimal.RequireFromString("68.75")), "margin: %s", analysis.MarginPercent)
	assert.Equal(t, profit.BandExcellent, analysis.Band())
	assert.False(t, analysis.NoRevenue)
	assert.False(t, analysis.RevenueOverridden)

	require.Len(t, analysis.Monthly, 2)
	sep, oct := analysis.Monthly[0], analysis.Monthly[1]
	assert.Equal(t, time.September, sep.Month)
	assert.True(t, sep.Revenue.Equal(money(5000)))
	assert.True(t, sep.NetProfit.Equal(money(2500)))
	assert.Equal(t, time.October, oct.Month)
	assert.True(t, oct.NetProfit.Equal(money(3000)))
}

func TestAnalyze_RevenueOverrideReplacesTotalOnly(t *testing.T) {
	// The manual figure wins for the project total; the monthly breakdown
	// keeps the certifications as recorded and the analysis is flagged so
	// consumers know the rows won't sum to the total.
	calc, _ := newTestCalculator(t)

	override := money(10000)
	project := &payroll.Project{
		ID:          "proj-a",
		BillingMode: payroll.BillingFixedBudget,
		Certifications: []payroll.Certification{
			{Month: time.September, Year: 2025, Amount: money(5000)},
		},
		RevenueOverride: &override,
	}
	analysis, err := calc.Analyze(context.Background(), profit.Input{
		Project: project,
		AsOf:    time.Date(2025, time.September, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.True(t, analysis.GrossRevenue.Equal(money(10000)), "revenue: %s", analysis.GrossRevenue)
	assert.True(t, analysis.RevenueOverridden)
	require.Len(t, analysis.Monthly, 1)
	assert.True(t, analysis.Monthly[0].Revenue.Equal(money(5000)), "monthly revenue keeps certifications")
}

// =============================================================================
// TIME-AND-MATERIALS REVENUE
// =============================================================================

func TestAnalyze_TimeAndMaterialsBillsNormalHours(t *testing.T) {
	// GIVEN: One assignment covering Sep 1..5 (five 8h workdays) at 50/h
	// WHEN: Analyzing
	// THEN: Revenue is 40h * 50 = 2000

	calc, _ := newTestCalculator(t)

	exit := time.Date(2025, time.September, 5, 0, 0, 0, 0, time.UTC)
	project := &payroll.Project{
		ID:          "proj-a",
		BillingMode: payroll.BillingTimeAndMaterials,
		HourlyRate:  money(50),
		Assignments: []payroll.Assignment{
			{EmployeeID: "emp-1", EntryDate: time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), ExitDate: &exit},
		},
	}
	analysis, err := calc.Analyze(context.Background(), profit.Input{
		Project: project,
		AsOf:    time.Date(2025, time.September, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.True(t, analysis.GrossRevenue.Equal(money(2000)), "revenue: %s", analysis.GrossRevenue)
}

func TestAnalyze_AssignmentRateOverrideWins(t *testing.T) {
	calc, _ := newTestCalculator(t)

	rate := money(60)
	exit := time.Date(2025, time.September, 5, 0, 0, 0, 0, time.UTC)
	project := &payroll.Project{
		ID:          "proj-a",
		BillingMode: payroll.BillingTimeAndMaterials,
		HourlyRate:  money(50),
		Assignments: []payroll.Assignment{
			{EmployeeID: "emp-1", EntryDate: time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), ExitDate: &exit, RateOverride: &rate},
		},
	}
	analysis, err := calc.Analyze(context.Background(), profit.Input{
		Project: project,
		AsOf:    time.Date(2025, time.September, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.True(t, analysis.GrossRevenue.Equal(money(2400)), "revenue: %s", analysis.GrossRevenue)
}

func TestAnalyze_AbsenceDaysAreNotBilled(t *testing.T) {
	// A vacation day inside the assignment window drops 8 billable hours.
	calc, _ := newTestCalculator(t)

	exit := time.Date(2025, time.September, 5, 0, 0, 0, 0, time.UTC)
	project := &payroll.Project{
		ID:          "proj-a",
		BillingMode: payroll.BillingTimeAndMaterials,
		HourlyRate:  money(50),
		Assignments: []payroll.Assignment{
			{EmployeeID: "emp-1", EntryDate: time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), ExitDate: &exit},
		},
	}
	analysis, err := calc.Analyze(context.Background(), profit.Input{
		Project: project,
		AsOf:    time.Date(2025, time.September, 30, 0, 0, 0, 0, time.UTC),
		OverridesByEmployee: map[payroll.EmployeeID][]calendar.DayOverride{
			"emp-1": {{Date: "2025-09-03", Absence: "vacation"}},
		},
	})
	require.NoError(t, err)

	assert.True(t, analysis.GrossRevenue.Equal(money(1600)), "revenue: %s", analysis.GrossRevenue)
}

// =============================================================================
// MARGIN & BANDS
// =============================================================================

func TestAnalyze_ZeroRevenueFlagsInsteadOfDividing(t *testing.T) {
	// GIVEN: Allocated cost but no revenue at all
	// WHEN: Analyzing
	// THEN: Margin 0 with the no-revenue flag, never a division error

	calc, records := newTestCalculator(t)
	storeRecord(t, records, "proj-a", time.September, 2025, 2000)

	project := &payroll.Project{ID: "proj-a", BillingMode: payroll.BillingFixedBudget}
	analysis, err := calc.Analyze(context.Background(), profit.Input{
		Project: project,
		AsOf:    time.Date(2025, time.September, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.True(t, analysis.NoRevenue)
	assert.True(t, analysis.MarginPercent.IsZero())
	assert.True(t, analysis.NetProfit.Equal(money(-2000)), "net: %s", analysis.NetProfit)
	assert.Equal(t, profit.BandLow, analysis.Band())
}

func TestClassifyMargin_Bands(t *testing.T) {
	cases := []struct {
		margin string
		want   profit.MarginBand
	}{
		{"25", profit.BandExcellent},
		{"20", profit.BandExcellent},
		{"19.99", profit.BandGood},
		{"10", profit.BandGood},
		{"9.99", profit.BandLow},
		{"-5", profit.BandLow},
	}
	for _, c := range cases {
		got := profit.ClassifyMargin(decimal.RequireFromString(c.margin))
		assert.Equal(t, c.want, got, "margin %s", c.margin)
	}
}

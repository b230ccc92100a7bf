package calendar_test

import (
	"testing"
	"time"

	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// WINDOW CLIPPING
// =============================================================================

func TestClipToMonth_ClipsBothEnds(t *testing.T) {
	// GIVEN: A window from Aug 20 to Oct 10
	// WHEN: Clipping to September 2025
	// THEN: The window becomes Sep 1 .. Sep 30

	w := calendar.ClipToMonth(
		calendar.NewDate(2025, time.August, 20),
		calendar.NewDate(2025, time.October, 10),
		time.September, 2025,
	)
	if w.Empty {
		t.Fatal("window must not be empty")
	}
	if w.Start.Day() != 1 || w.End.Day() != 30 {
		t.Errorf("expected Sep 1..30, got %s..%s", w.Start, w.End)
	}
	if w.Days() != 30 {
		t.Errorf("expected 30 days, got %d", w.Days())
	}
}

func TestClipToMonth_NoOverlapIsEmpty(t *testing.T) {
	w := calendar.ClipToMonth(
		calendar.NewDate(2025, time.October, 1),
		calendar.NewDate(2025, time.October, 31),
		time.September, 2025,
	)
	if !w.Empty {
		t.Fatal("expected empty window")
	}
	if w.Days() != 0 {
		t.Errorf("empty window has 0 days, got %d", w.Days())
	}
}

func TestAssignmentWindow_OpenAssignmentClosesAtAsOf(t *testing.T) {
	// GIVEN: An open assignment entered Sep 18
	// WHEN: Clipping to September with asOf = Sep 30
	// THEN: The window is Sep 18 .. Sep 30, 13 days

	a := payroll.Assignment{
		EmployeeID: "emp-1",
		EntryDate:  time.Date(2025, time.September, 18, 0, 0, 0, 0, time.UTC),
	}
	w := calendar.AssignmentWindow(a, time.September, 2025, time.Date(2025, time.September, 30, 0, 0, 0, 0, time.UTC))

	if w.Empty {
		t.Fatal("window must not be empty")
	}
	if w.Days() != 13 {
		t.Errorf("expected 13 days, got %d", w.Days())
	}
}

func TestAssignmentWindow_MissingEntryDateIsEmpty(t *testing.T) {
	// A zero entry date yields zero days and zero hours, never a panic.
	a := payroll.Assignment{EmployeeID: "emp-1"}
	w := calendar.AssignmentWindow(a, time.September, 2025, time.Date(2025, time.September, 30, 0, 0, 0, 0, time.UTC))

	if !w.Empty {
		t.Fatal("expected empty window for missing entry date")
	}
}

// =============================================================================
// HOUR ACCUMULATION
// =============================================================================

func TestAccumulate_FullMonthNormalHours(t *testing.T) {
	// 26 working days (workdays + saturdays) at 8h each, sundays at 0.
	builder := newTestBuilder()
	month, _ := builder.BuildMonth("emp-1", testMonth, testYear, nil)

	totals := calendar.Accumulate(month,
		calendar.NewDate(2025, time.September, 1),
		calendar.NewDate(2025, time.September, 30))

	if !totals.Normal.Equal(payroll.NewHoursFromInt(208)) {
		t.Errorf("expected 208 normal hours, got %s", totals.Normal)
	}
	if !totals.Overtime.IsZero() || !totals.Holiday.IsZero() {
		t.Errorf("expected zero overtime and holiday hours, got %s/%s", totals.Overtime, totals.Holiday)
	}
}

func TestAccumulate_ExcessAboveThresholdIsOvertime(t *testing.T) {
	// GIVEN: 10 logged hours on a workday
	// WHEN: Accumulating that single day
	// THEN: 8 normal, 2 overtime

	builder := newTestBuilder()
	overrides := []calendar.DayOverride{{Date: "2025-09-02", Hours: floatPtr(10)}}
	month, _ := builder.BuildMonth("emp-1", testMonth, testYear, overrides)

	day := calendar.NewDate(2025, time.September, 2)
	totals := calendar.Accumulate(month, day, day)

	if !totals.Normal.Equal(payroll.NewHoursFromInt(8)) {
		t.Errorf("expected 8 normal hours, got %s", totals.Normal)
	}
	if !totals.Overtime.Equal(payroll.NewHoursFromInt(2)) {
		t.Errorf("expected 2 overtime hours, got %s", totals.Overtime)
	}
}

func TestAccumulate_AbsenceDayContributesNothing(t *testing.T) {
	// Vacation and the leave types exclude the day from every total.
	builder := newTestBuilder()
	overrides := []calendar.DayOverride{
		{Date: "2025-09-02", Absence: "vacation"},
		{Date: "2025-09-03", Absence: "medical-leave"},
	}
	month, _ := builder.BuildMonth("emp-1", testMonth, testYear, overrides)

	totals := calendar.Accumulate(month,
		calendar.NewDate(2025, time.September, 1),
		calendar.NewDate(2025, time.September, 5))

	// Sep 1..5 are five workdays; two are absent.
	if !totals.Normal.Equal(payroll.NewHoursFromInt(24)) {
		t.Errorf("expected 24 normal hours, got %s", totals.Normal)
	}
}

func TestAccumulate_SundayAndHolidayWorkIsHolidayHours(t *testing.T) {
	// GIVEN: 5 logged hours on a sunday and 3 on a national holiday
	// WHEN: Accumulating the window covering both
	// THEN: All 8 land in the holiday bucket

	builder := calendar.NewBuilder(calendar.SpainNational(2025))
	overrides := []calendar.DayOverride{
		{Date: "2025-12-07", Hours: floatPtr(5)}, // sunday
		{Date: "2025-12-08", Hours: floatPtr(3)}, // Inmaculada Concepción
	}
	month, _ := builder.BuildMonth("emp-1", time.December, 2025, overrides)

	totals := calendar.Accumulate(month,
		calendar.NewDate(2025, time.December, 7),
		calendar.NewDate(2025, time.December, 8))

	if !totals.Holiday.Equal(payroll.NewHoursFromInt(8)) {
		t.Errorf("expected 8 holiday hours, got %s", totals.Holiday)
	}
	if !totals.Normal.IsZero() || !totals.Overtime.IsZero() {
		t.Errorf("expected zero normal/overtime, got %s/%s", totals.Normal, totals.Overtime)
	}
}

func TestAccumulate_HolidayWithoutLoggedHoursCountsZero(t *testing.T) {
	// Holidays default to 0 hours; only an explicit positive override
	// produces holiday hours.
	builder := calendar.NewBuilder(calendar.SpainNational(2025))
	month, _ := builder.BuildMonth("emp-1", time.December, 2025, nil)

	day := calendar.NewDate(2025, time.December, 25)
	totals := calendar.Accumulate(month, day, day)

	if !totals.Holiday.IsZero() {
		t.Errorf("expected zero holiday hours, got %s", totals.Holiday)
	}
}

func TestAccumulateWindow_EmptyWindowIsAllZeros(t *testing.T) {
	builder := newTestBuilder()
	month, _ := builder.BuildMonth("emp-1", testMonth, testYear, nil)

	totals := calendar.AccumulateWindow(month, calendar.Window{Empty: true})
	if !totals.Normal.IsZero() || !totals.Overtime.IsZero() || !totals.Holiday.IsZero() {
		t.Errorf("expected all-zero totals, got %+v", totals)
	}
}

/*
Package calendar builds per-employee month calendars and derives hour totals.

PURPOSE:
  This package is the leaf of the computation chain. It knows how to turn
  (month, holiday table, absence overrides) into an ordered sequence of
  CalendarDay values, and how to accumulate worked/overtime/holiday hours
  over a date window clipped to that month.

KEY CONCEPTS IN THIS FILE (calendar.go):
  - Date: A day-granularity point in time (UTC midnight)
  - DayType: workday, saturday, sunday or holiday
  - CalendarDay: One day with default hours, actual hours and an optional absence
  - Month: The ordered calendar for one employee and one month

DESIGN PRINCIPLES:
  1. Purity: Building a calendar is deterministic given table + overrides
  2. Single month: Nothing here ever spans a month boundary; callers iterate
  3. Policy over constants: Default hours per day type are configuration

SEE ALSO:
  - holidays.go: Versioned immutable holiday tables
  - builder.go: Month construction with override handling
  - hours.go: Hour accumulation with window clipping
*/
package calendar

import (
	"time"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// DATE - Day-granularity time point
// =============================================================================

type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates any timestamp to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// Month helpers
func StartOfMonth(year int, month time.Month) Date { return NewDate(year, month, 1) }

func EndOfMonth(year int, month time.Month) Date {
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return Date{Time: t}
}

func DaysInMonth(year int, month time.Month) int {
	return EndOfMonth(year, month).Day()
}

// =============================================================================
// DAY TYPE - Derived from weekday plus the holiday table
// =============================================================================

type DayType string

const (
	DayWorkday  DayType = "workday"
	DaySaturday DayType = "saturday"
	DaySunday   DayType = "sunday"
	DayHoliday  DayType = "holiday"
)

// =============================================================================
// ABSENCE - Per-day override entered through absence tracking
// =============================================================================

type AbsenceType string

const (
	AbsenceVacation     AbsenceType = "vacation"
	AbsenceMedicalLeave AbsenceType = "medical-leave"
	AbsenceWorkLeave    AbsenceType = "work-leave"
	AbsencePersonal     AbsenceType = "personal-leave"
	AbsenceUnspecified  AbsenceType = "unspecified-absence"
)

// KnownAbsence reports whether the string is a recognized absence type.
// Unknown types make the override malformed; the day keeps its default.
func KnownAbsence(s string) (AbsenceType, bool) {
	switch AbsenceType(s) {
	case AbsenceVacation, AbsenceMedicalLeave, AbsenceWorkLeave, AbsencePersonal, AbsenceUnspecified:
		return AbsenceType(s), true
	}
	return "", false
}

// ExcludesRevenue reports whether days with this absence contribute nothing
// to revenue-bearing hour totals. They still count toward fixed-cost
// proration.
func (a AbsenceType) ExcludesRevenue() bool {
	switch a {
	case AbsenceVacation, AbsenceMedicalLeave, AbsenceWorkLeave, AbsencePersonal:
		return true
	}
	return false
}

// =============================================================================
// CALENDAR DAY & MONTH
// =============================================================================

type CalendarDay struct {
	Date         Date
	Type         DayType
	DefaultHours payroll.Hours
	ActualHours  payroll.Hours
	Absence      *AbsenceType
	HolidayName  string // set when Type == DayHoliday
}

// Month is the ordered calendar for one employee and one month.
type Month struct {
	EmployeeID payroll.EmployeeID
	Year       int
	MonthOf    time.Month
	Days       []CalendarDay
}

// WorkingDays counts workdays plus saturdays, per the billing policy.
func (m Month) WorkingDays() int {
	n := 0
	for _, d := range m.Days {
		if d.Type == DayWorkday || d.Type == DaySaturday {
			n++
		}
	}
	return n
}

// DayAt returns the calendar day for a date, if it belongs to this month.
func (m Month) DayAt(date Date) (CalendarDay, bool) {
	if date.Year() != m.Year || date.Month() != m.MonthOf {
		return CalendarDay{}, false
	}
	idx := date.Day() - 1
	if idx < 0 || idx >= len(m.Days) {
		return CalendarDay{}, false
	}
	return m.Days[idx], true
}

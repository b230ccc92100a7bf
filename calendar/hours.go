/*
hours.go - Hour accumulation over a clipped date window

PURPOSE:
  Derives {normal, overtime, holiday} hour totals from a month calendar,
  clipped to the caller-supplied assignment window. This component never
  spans months: a multi-month assignment is handled by the caller invoking
  it once per month and summing.

RULES PER DAY (inside the clipped window):
  - Revenue-excluding absence (vacation, medical/work/personal leave):
    contributes 0 to every total. The day still counts toward fixed-cost
    proration elsewhere.
  - Workday or saturday with hours above the overtime threshold: the excess
    is overtime, the threshold is normal.
  - Holiday or sunday with hours > 0: all of it is holiday hours. Holidays
    default to 0 hours, so holiday work only appears when an override
    explicitly logged it.
*/
package calendar

import (
	"time"

	"github.com/warp/payroll-engine/payroll"
)

// OvertimeThreshold is the daily hours above which work counts as overtime.
var OvertimeThreshold = payroll.NewHoursFromInt(8)

// HourTotals is the accumulator output.
type HourTotals struct {
	Normal   payroll.Hours
	Overtime payroll.Hours
	Holiday  payroll.Hours
}

func ZeroTotals() HourTotals {
	return HourTotals{Normal: payroll.ZeroHours(), Overtime: payroll.ZeroHours(), Holiday: payroll.ZeroHours()}
}

func (t HourTotals) Add(other HourTotals) HourTotals {
	return HourTotals{
		Normal:   t.Normal.Add(other.Normal),
		Overtime: t.Overtime.Add(other.Overtime),
		Holiday:  t.Holiday.Add(other.Holiday),
	}
}

// =============================================================================
// WINDOW - Assignment interval clipped to a month
// =============================================================================

// Window is a closed date interval. An empty window (no overlap after
// clipping) is a normal value, not an error.
type Window struct {
	Start Date
	End   Date
	Empty bool
}

// ClipToMonth intersects [start, end] with the given month.
func ClipToMonth(start, end Date, month time.Month, year int) Window {
	monthStart := StartOfMonth(year, month)
	monthEnd := EndOfMonth(year, month)
	if start.Before(monthStart) {
		start = monthStart
	}
	if end.After(monthEnd) {
		end = monthEnd
	}
	if start.After(end) {
		return Window{Empty: true}
	}
	return Window{Start: start, End: end}
}

// AssignmentWindow clips an assignment to a month. Open assignments close
// at asOf. A missing entry date yields an empty window - zero active days
// and hours, surfaced by the caller as a data-quality condition.
func AssignmentWindow(a payroll.Assignment, month time.Month, year int, asOf time.Time) Window {
	if a.EntryDate.IsZero() {
		return Window{Empty: true}
	}
	end := DateOf(asOf)
	if a.ExitDate != nil {
		end = DateOf(*a.ExitDate)
	}
	return ClipToMonth(DateOf(a.EntryDate), end, month, year)
}

// Days returns the number of calendar days in the window.
func (w Window) Days() int {
	if w.Empty {
		return 0
	}
	return int(w.End.Time.Sub(w.Start.Time).Hours()/24) + 1
}

// Contains reports whether the date falls inside the window.
func (w Window) Contains(date Date) bool {
	if w.Empty {
		return false
	}
	return date.AfterOrEqual(w.Start) && date.BeforeOrEqual(w.End)
}

// =============================================================================
// ACCUMULATOR
// =============================================================================

// Accumulate walks the month calendar inside [windowStart, windowEnd] and
// totals normal, overtime and holiday hours. The window is clipped to the
// calendar's month first; no overlap returns all zeros.
func Accumulate(m Month, windowStart, windowEnd Date) HourTotals {
	window := ClipToMonth(windowStart, windowEnd, m.MonthOf, m.Year)
	return AccumulateWindow(m, window)
}

// AccumulateWindow is Accumulate for an already-clipped window.
func AccumulateWindow(m Month, window Window) HourTotals {
	totals := ZeroTotals()
	if window.Empty {
		return totals
	}

	for _, day := range m.Days {
		if !window.Contains(day.Date) {
			continue
		}
		if day.Absence != nil && day.Absence.ExcludesRevenue() {
			continue
		}

		switch day.Type {
		case DayWorkday, DaySaturday:
			hours := day.ActualHours
			if hours.GreaterThan(OvertimeThreshold) {
				totals.Normal = totals.Normal.Add(OvertimeThreshold)
				totals.Overtime = totals.Overtime.Add(hours.Sub(OvertimeThreshold))
			} else {
				totals.Normal = totals.Normal.Add(hours)
			}
		case DaySunday, DayHoliday:
			if day.ActualHours.IsPositive() {
				totals.Holiday = totals.Holiday.Add(day.ActualHours)
			}
		}
	}
	return totals
}

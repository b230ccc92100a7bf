/*
builder.go - Month calendar construction

PURPOSE:
  Turns (employee, month, year, overrides) into a Month of CalendarDay
  values. Day type comes from the weekday plus the injected holiday table;
  default hours come from the injected HoursPolicy; persisted per-day
  overrides replace the generated day.

OVERRIDE HANDLING:
  Overrides arrive as raw persisted values (string date, string absence
  type) because they are entered through absence tracking outside this
  core. A malformed override - unparseable date, unknown absence type - is
  skipped and the generated default stands; the skip is reported as a
  DataQualityIssue, never as a fatal error. Overrides dated outside the
  requested month are ignored.

PURITY:
  BuildMonth is deterministic given the holiday table and the overrides.
  Recomputing must reproduce the same calendar.
*/
package calendar

import (
	"context"
	"time"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// HOURS POLICY - Default hours per day type
// =============================================================================

// HoursPolicy holds the default hours per day type. Saturdays default to 8
// billable hours; that is a deliberate business policy of this company, kept
// as configuration so a deployment can override it.
type HoursPolicy struct {
	Workday  payroll.Hours
	Saturday payroll.Hours
	Sunday   payroll.Hours
	Holiday  payroll.Hours
}

func DefaultHoursPolicy() HoursPolicy {
	return HoursPolicy{
		Workday:  payroll.NewHoursFromInt(8),
		Saturday: payroll.NewHoursFromInt(8),
		Sunday:   payroll.ZeroHours(),
		Holiday:  payroll.ZeroHours(),
	}
}

func (p HoursPolicy) hoursFor(t DayType) payroll.Hours {
	switch t {
	case DayWorkday:
		return p.Workday
	case DaySaturday:
		return p.Saturday
	case DaySunday:
		return p.Sunday
	default:
		return p.Holiday
	}
}

// =============================================================================
// DAY OVERRIDE - Persisted per-day adjustment
// =============================================================================

// DayOverride is the raw persisted form of a per-day adjustment. Date is a
// "2006-01-02" string and Absence a free string as stored by the absence
// tracker; both are validated during BuildMonth.
type DayOverride struct {
	Date    string
	Absence string   // empty = no absence, hours-only override
	Hours   *float64 // manual actual-hours override (e.g. logged holiday work)
}

// OverrideStore persists per-day overrides keyed by employee and year-month.
type OverrideStore interface {
	SaveOverride(ctx context.Context, employeeID payroll.EmployeeID, o DayOverride) error
	OverridesForMonth(ctx context.Context, employeeID payroll.EmployeeID, month time.Month, year int) ([]DayOverride, error)
}

// =============================================================================
// BUILDER
// =============================================================================

type Builder struct {
	Holidays Table
	Policy   HoursPolicy
}

func NewBuilder(holidays Table) *Builder {
	return &Builder{Holidays: holidays, Policy: DefaultHoursPolicy()}
}

// BuildMonth produces the ordered calendar for one employee and one month.
// It returns the calendar plus any data-quality issues found in overrides;
// issues never abort the build.
func (b *Builder) BuildMonth(employeeID payroll.EmployeeID, month time.Month, year int, overrides []DayOverride) (Month, []payroll.DataQualityIssue) {
	days := make([]CalendarDay, 0, DaysInMonth(year, month))
	for d := 1; d <= DaysInMonth(year, month); d++ {
		date := NewDate(year, month, d)
		days = append(days, b.generatedDay(date))
	}

	var issues []payroll.DataQualityIssue
	for _, o := range overrides {
		date, err := time.Parse("2006-01-02", o.Date)
		if err != nil {
			issues = append(issues, payroll.DataQualityIssue{
				EmployeeID: employeeID,
				Field:      "override.date",
				Detail:     "unparseable date " + o.Date + ", override skipped",
			})
			continue
		}
		if date.Year() != year || date.Month() != month {
			// Outside the requested month: ignored for this calendar.
			continue
		}

		day := &days[date.Day()-1]
		if o.Absence != "" {
			absence, ok := KnownAbsence(o.Absence)
			if !ok {
				issues = append(issues, payroll.DataQualityIssue{
					EmployeeID: employeeID,
					Date:       date,
					Field:      "override.absence",
					Detail:     "unknown absence type " + o.Absence + ", override skipped",
				})
				continue
			}
			// Absence replaces the generated day: hours forced to zero.
			day.Absence = &absence
			day.ActualHours = payroll.ZeroHours()
			continue
		}
		if o.Hours != nil {
			day.ActualHours = payroll.NewHours(*o.Hours)
		}
	}

	return Month{EmployeeID: employeeID, Year: year, MonthOf: month, Days: days}, issues
}

func (b *Builder) generatedDay(date Date) CalendarDay {
	var dayType DayType
	var holidayName string
	switch {
	case b.Holidays.IsHoliday(date):
		dayType = DayHoliday
		holidayName = b.Holidays.Name(date)
	case date.Weekday() == time.Saturday:
		dayType = DaySaturday
	case date.Weekday() == time.Sunday:
		dayType = DaySunday
	default:
		dayType = DayWorkday
	}

	hours := b.Policy.hoursFor(dayType)
	return CalendarDay{
		Date:         date,
		Type:         dayType,
		DefaultHours: hours,
		ActualHours:  hours,
		HolidayName:  holidayName,
	}
}

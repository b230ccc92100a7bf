/*
holidays.go - Versioned, immutable holiday tables

PURPOSE:
  Day types depend on a fixed table of national and regional holidays. The
  table is an immutable value injected into the Builder, never a mutable
  singleton: recomputing a past month with the same table version always
  reproduces the same calendar, and tests can run with alternate calendars.

VERSIONING:
  Each table carries a version string (e.g. "es-national/2025"). Adding
  regional days produces a NEW table with a derived version; the original
  is untouched.
*/
package calendar

import (
	"fmt"
	"time"
)

// Holiday is one dated entry of a table.
type Holiday struct {
	Date Date
	Name string
}

// Table is an immutable date -> name lookup.
type Table struct {
	version string
	names   map[Date]string
}

// NewTable builds a table from explicit entries.
func NewTable(version string, holidays []Holiday) Table {
	names := make(map[Date]string, len(holidays))
	for _, h := range holidays {
		names[h.Date] = h.Name
	}
	return Table{version: version, names: names}
}

// EmptyTable is a table with no holidays. Useful in tests.
func EmptyTable() Table {
	return Table{version: "empty", names: map[Date]string{}}
}

func (t Table) Version() string { return t.version }

// IsHoliday reports whether the date is in the table.
func (t Table) IsHoliday(date Date) bool {
	_, ok := t.names[date]
	return ok
}

// Name returns the holiday name for a date, empty when not a holiday.
func (t Table) Name(date Date) string { return t.names[date] }

// WithRegional returns a new table extended with regional holidays.
// The receiver is not modified.
func (t Table) WithRegional(region string, holidays []Holiday) Table {
	names := make(map[Date]string, len(t.names)+len(holidays))
	for d, n := range t.names {
		names[d] = n
	}
	for _, h := range holidays {
		names[h.Date] = h.Name
	}
	return Table{version: t.version + "+" + region, names: names}
}

// SpainNational returns the fixed-date national holidays for a year.
// Movable feasts (Good Friday etc.) vary by year and region and are added
// through WithRegional by whoever owns the regional calendar.
func SpainNational(year int) Table {
	entries := []struct {
		month time.Month
		day   int
		name  string
	}{
		{time.January, 1, "Año Nuevo"},
		{time.January, 6, "Epifanía del Señor"},
		{time.May, 1, "Fiesta del Trabajo"},
		{time.August, 15, "Asunción de la Virgen"},
		{time.October, 12, "Fiesta Nacional de España"},
		{time.November, 1, "Todos los Santos"},
		{time.December, 6, "Día de la Constitución"},
		{time.December, 8, "Inmaculada Concepción"},
		{time.December, 25, "Natividad del Señor"},
	}
	holidays := make([]Holiday, 0, len(entries))
	for _, e := range entries {
		holidays = append(holidays, Holiday{Date: NewDate(year, e.month, e.day), Name: e.name})
	}
	return NewTable(fmt.Sprintf("es-national/%d", year), holidays)
}

/*
Package payroll provides the core entities of the cost-allocation engine.

PURPOSE:
  This package contains the domain types shared by every component:
  employees with their fixed monthly cost components, projects with their
  billing modes and assignments, and the variable expenses that ride along
  with allocations. All computation lives in the calendar, allocation and
  profit packages; this package only defines the shapes they operate on.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A monetary amount backed by decimal.Decimal
  - Hours: An hour quantity with the same decimal backing
  - Employee/Project IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Type Safety: Strong typing for IDs prevents mixing employee/project IDs
  3. Immutability: Salary history is append-only, never rewritten

SEE ALSO:
  - employee.go: Employee and salary-change history
  - project.go: Project, Assignment, Certification
  - errors.go: Sentinel and structured errors
*/
package payroll

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Monetary amount (always EUR for this system)
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int) Money {
	return Money{Value: decimal.NewFromInt(int64(value))}
}

func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{Value: decimal.Zero}
	}
	return Money{Value: d}
}

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(b Money) Money          { return Money{Value: m.Value.Add(b.Value)} }
func (m Money) Sub(b Money) Money          { return Money{Value: m.Value.Sub(b.Value)} }
func (m Money) Mul(s decimal.Decimal) Money { return Money{Value: m.Value.Mul(s)} }
func (m Money) Div(s decimal.Decimal) Money { return Money{Value: m.Value.Div(s)} }
func (m Money) Neg() Money                 { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool               { return m.Value.IsZero() }
func (m Money) IsNegative() bool           { return m.Value.IsNegative() }
func (m Money) IsPositive() bool           { return m.Value.IsPositive() }
func (m Money) Equal(b Money) bool         { return m.Value.Equal(b.Value) }
func (m Money) GreaterThan(b Money) bool   { return m.Value.GreaterThan(b.Value) }

// Round2 rounds to cents. Used when a record is finalized, never mid-calculation.
func (m Money) Round2() Money { return Money{Value: m.Value.Round(2)} }

func (m Money) String() string { return m.Value.StringFixed(2) }

// =============================================================================
// HOURS - Hour quantity
// =============================================================================

type Hours struct {
	Value decimal.Decimal
}

func NewHours(value float64) Hours {
	return Hours{Value: decimal.NewFromFloat(value)}
}

func NewHoursFromInt(value int) Hours {
	return Hours{Value: decimal.NewFromInt(int64(value))}
}

func ZeroHours() Hours { return Hours{Value: decimal.Zero} }

func (h Hours) Add(b Hours) Hours        { return Hours{Value: h.Value.Add(b.Value)} }
func (h Hours) Sub(b Hours) Hours        { return Hours{Value: h.Value.Sub(b.Value)} }
func (h Hours) IsZero() bool             { return h.Value.IsZero() }
func (h Hours) IsPositive() bool         { return h.Value.IsPositive() }
func (h Hours) Equal(b Hours) bool       { return h.Value.Equal(b.Value) }
func (h Hours) GreaterThan(b Hours) bool { return h.Value.GreaterThan(b.Value) }

func (h Hours) String() string { return h.Value.String() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type ProjectID string

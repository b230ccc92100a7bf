// expense.go - Variable expenses attached to employees or projects.
package payroll

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ExpenseScope says who the expense belongs to before allocation.
type ExpenseScope string

const (
	ExpenseEmployee ExpenseScope = "employee"
	ExpenseProject  ExpenseScope = "project"
)

// VariableExpense is a one-off cost: travel, materials, per-diems.
// Employee-scoped expenses follow the employee's fixed-cost allocation for
// the month; project-scoped expenses count directly against the project.
type VariableExpense struct {
	ID         string
	Scope      ExpenseScope
	EmployeeID EmployeeID // set when Scope == ExpenseEmployee
	ProjectID  ProjectID  // set when Scope == ExpenseProject
	Date       time.Time
	Category   string
	Amount     Money
	InvoiceRef string // optional
}

// NewEmployeeExpense creates an employee-scoped expense with a fresh id.
func NewEmployeeExpense(employeeID EmployeeID, date time.Time, category string, amount Money) VariableExpense {
	return VariableExpense{
		ID:         uuid.NewString(),
		Scope:      ExpenseEmployee,
		EmployeeID: employeeID,
		Date:       date,
		Category:   category,
		Amount:     amount,
	}
}

// NewProjectExpense creates a project-scoped expense with a fresh id.
func NewProjectExpense(projectID ProjectID, date time.Time, category string, amount Money) VariableExpense {
	return VariableExpense{
		ID:        uuid.NewString(),
		Scope:     ExpenseProject,
		ProjectID: projectID,
		Date:      date,
		Category:  category,
		Amount:    amount,
	}
}

// InMonth reports whether the expense is dated within the given month.
func (e VariableExpense) InMonth(month time.Month, year int) bool {
	return e.Date.Year() == year && e.Date.Month() == month
}

// ExpenseStore persists variable expenses keyed by employee or project.
type ExpenseStore interface {
	SaveExpense(ctx context.Context, expense VariableExpense) error
	ExpensesForEmployee(ctx context.Context, employeeID EmployeeID) ([]VariableExpense, error)
	ExpensesForProject(ctx context.Context, projectID ProjectID) ([]VariableExpense, error)
}

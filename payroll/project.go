/*
project.go - Project, assignments and revenue certifications

PURPOSE:
  A project is the target of cost allocation and the unit of profitability
  reporting. Its billing mode decides how gross revenue is recognized:
  fixed-budget projects accumulate monthly certifications against a total
  budget, time-and-materials projects bill hours at an hourly rate.

KEY INVARIANTS:
  - At most one open assignment (no exit date) per employee per project.
  - ExitDate >= EntryDate whenever an exit date is present.

SEE ALSO:
  - profit/profit.go: Revenue recognition per billing mode
  - allocation/engine.go: Consumes assignment windows
*/
package payroll

import "time"

// =============================================================================
// BILLING MODE & STATUS
// =============================================================================

type BillingMode string

const (
	BillingFixedBudget      BillingMode = "fixed-budget"
	BillingTimeAndMaterials BillingMode = "time-and-materials"
)

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectPaused    ProjectStatus = "paused"
)

// =============================================================================
// CERTIFICATION - Monthly revenue recognition for fixed-budget projects
// =============================================================================

type Certification struct {
	Month  time.Month
	Year   int
	Amount Money
}

// =============================================================================
// ASSIGNMENT - Employee attached to a project for a date window
// =============================================================================

type Assignment struct {
	EmployeeID EmployeeID
	EntryDate  time.Time
	ExitDate   *time.Time // nil = still assigned
	// Overrides the project hourly rate for this assignment when set.
	RateOverride *Money
}

// IsOpen reports whether the assignment has no exit date.
func (a Assignment) IsOpen() bool { return a.ExitDate == nil }

// ActiveOn reports whether the date falls inside [EntryDate, ExitDate].
// An assignment with a zero entry date is never active; that is a
// data-quality condition the caller surfaces, not an error here.
func (a Assignment) ActiveOn(date time.Time) bool {
	if a.EntryDate.IsZero() {
		return false
	}
	if date.Before(a.EntryDate) {
		return false
	}
	if a.ExitDate != nil && date.After(*a.ExitDate) {
		return false
	}
	return true
}

// =============================================================================
// PROJECT
// =============================================================================

type Project struct {
	ID          ProjectID
	Name        string
	BillingMode BillingMode
	Status      ProjectStatus

	// Fixed-budget fields.
	TotalBudget    Money
	Certifications []Certification

	// Time-and-materials fields.
	HourlyRate Money
	// Manually entered real certification. When set it takes precedence
	// over the computed revenue figure (administración-style projects).
	RevenueOverride *Money

	Assignments []Assignment
}

// AddAssignment appends an assignment, enforcing the open-assignment and
// window invariants.
func (p *Project) AddAssignment(a Assignment) error {
	if a.ExitDate != nil && a.ExitDate.Before(a.EntryDate) {
		return ErrInvalidAssignmentWindow
	}
	if a.IsOpen() {
		for _, existing := range p.Assignments {
			if existing.EmployeeID == a.EmployeeID && existing.IsOpen() {
				return &DuplicateOpenAssignmentError{EmployeeID: a.EmployeeID, ProjectID: p.ID}
			}
		}
	}
	p.Assignments = append(p.Assignments, a)
	return nil
}

// AssignmentsFor returns all assignments for one employee.
func (p *Project) AssignmentsFor(employeeID EmployeeID) []Assignment {
	var out []Assignment
	for _, a := range p.Assignments {
		if a.EmployeeID == employeeID {
			out = append(out, a)
		}
	}
	return out
}

// EffectiveRate returns the billing rate for an assignment: the assignment
// override when present, otherwise the project default.
func (p *Project) EffectiveRate(a Assignment) Money {
	if a.RateOverride != nil {
		return *a.RateOverride
	}
	return p.HourlyRate
}

// CertifiedRevenue sums all certifications. The manual override, when
// present, replaces the computed figure entirely.
func (p *Project) CertifiedRevenue() Money {
	if p.RevenueOverride != nil {
		return *p.RevenueOverride
	}
	total := ZeroMoney()
	for _, c := range p.Certifications {
		total = total.Add(c.Amount)
	}
	return total
}

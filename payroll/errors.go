/*
errors.go - Centralized error types for the payroll core

PURPOSE:
  All error types in one place for consistency and discoverability.
  Computation components wrap these errors with additional context.

ERROR CATEGORIES:
  1. Data-quality errors - Malformed or inconsistent input entities
  2. Allocation errors - Invariant violations while writing records
  3. Store errors - Persistence-level failures

USAGE:
  if errors.Is(err, payroll.ErrRecordNotFound) { ... }

Note that an ambiguous multi-project allocation is NOT an error: the engine
returns it as a distinct outcome value (allocation.NeedsSelection) so the
caller can resolve it explicitly.
*/
package payroll

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAssignmentWindow is returned when an exit date precedes the
	// entry date.
	ErrInvalidAssignmentWindow = errors.New("invalid assignment window: exit before entry")

	// ErrOpenAssignmentExists is returned when a second open assignment is
	// added for the same employee on the same project.
	ErrOpenAssignmentExists = errors.New("open assignment already exists")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrProjectNotFound is returned when a referenced project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrRecordNotFound is returned when no allocation record matches a key.
	ErrRecordNotFound = errors.New("allocation record not found")

	// ErrUnresolvedAllocation is returned when finalizing an ambiguous
	// allocation without a chosen project or an explicit no-allocation.
	ErrUnresolvedAllocation = errors.New("allocation needs manual resolution")

	// ErrUnknownProjectSelection is returned when resolving an ambiguous
	// allocation with a project that was not among the candidates.
	ErrUnknownProjectSelection = errors.New("selected project is not a candidate")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateOpenAssignmentError identifies the conflicting employee/project.
type DuplicateOpenAssignmentError struct {
	EmployeeID EmployeeID
	ProjectID  ProjectID
}

func (e *DuplicateOpenAssignmentError) Error() string {
	return fmt.Sprintf("employee %s already has an open assignment on project %s",
		e.EmployeeID, e.ProjectID)
}

func (e *DuplicateOpenAssignmentError) Unwrap() error {
	return ErrOpenAssignmentExists
}

// DataQualityIssue reports a recoverable input problem, e.g. a malformed
// override or a missing entry date. The affected item is skipped and the
// issue collected; the computation never aborts on one.
type DataQualityIssue struct {
	EmployeeID EmployeeID
	Date       time.Time
	Field      string
	Detail     string
}

func (i DataQualityIssue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Field, i.Detail, i.EmployeeID)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrRecordNotFound)
}

// IsClientError returns true if the error is due to invalid input rather
// than an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAssignmentWindow) ||
		errors.Is(err, ErrOpenAssignmentExists) ||
		errors.Is(err, ErrUnknownProjectSelection) ||
		errors.Is(err, ErrUnresolvedAllocation)
}

/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request types carry validator struct tags; handlers run them through a
  shared validator.Validate before touching domain logic. Monetary fields
  travel as JSON numbers and are converted to decimal-backed Money at the
  boundary.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/payroll-engine/allocation"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/profit"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

type FixedCostsDTO struct {
	GrossSalary float64 `json:"gross_salary" validate:"gte=0"`
	EmployerSS  float64 `json:"employer_ss" validate:"gte=0"`
	WorkerSS    float64 `json:"worker_ss" validate:"gte=0"`
	Withholding float64 `json:"withholding" validate:"gte=0"`
	Garnishment float64 `json:"garnishment" validate:"gte=0"`
}

func (d FixedCostsDTO) toDomain() payroll.FixedCosts {
	return payroll.FixedCosts{
		GrossSalary: payroll.NewMoney(d.GrossSalary),
		EmployerSS:  payroll.NewMoney(d.EmployerSS),
		WorkerSS:    payroll.NewMoney(d.WorkerSS),
		Withholding: payroll.NewMoney(d.Withholding),
		Garnishment: payroll.NewMoney(d.Garnishment),
	}
}

func fixedCostsDTO(c payroll.FixedCosts) FixedCostsDTO {
	return FixedCostsDTO{
		GrossSalary: c.GrossSalary.Value.InexactFloat64(),
		EmployerSS:  c.EmployerSS.Value.InexactFloat64(),
		WorkerSS:    c.WorkerSS.Value.InexactFloat64(),
		Withholding: c.Withholding.Value.InexactFloat64(),
		Garnishment: c.Garnishment.Value.InexactFloat64(),
	}
}

type CreateEmployeeRequest struct {
	ID           string        `json:"id" validate:"required"`
	Name         string        `json:"name" validate:"required"`
	HireDate     string        `json:"hire_date" validate:"required,datetime=2006-01-02"`
	Costs        FixedCostsDTO `json:"costs"`
	OvertimeRate float64       `json:"overtime_rate" validate:"gte=0"`
	HolidayRate  float64       `json:"holiday_rate" validate:"gte=0"`
}

type SalaryChangeRequest struct {
	EffectiveFrom string        `json:"effective_from" validate:"required,datetime=2006-01-02"`
	Costs         FixedCostsDTO `json:"costs"`
	OvertimeRate  float64       `json:"overtime_rate" validate:"gte=0"`
	HolidayRate   float64       `json:"holiday_rate" validate:"gte=0"`
	Reason        string        `json:"reason"`
}

type EmployeeDTO struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	HireDate     string        `json:"hire_date"`
	Active       bool          `json:"active"`
	Costs        FixedCostsDTO `json:"costs"`
	OvertimeRate float64       `json:"overtime_rate"`
	HolidayRate  float64       `json:"holiday_rate"`
}

func employeeDTO(e *payroll.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:           string(e.ID),
		Name:         e.Name,
		HireDate:     e.HireDate.Format("2006-01-02"),
		Active:       e.Active,
		Costs:        fixedCostsDTO(e.Costs),
		OvertimeRate: e.OvertimeRate.Value.InexactFloat64(),
		HolidayRate:  e.HolidayRate.Value.InexactFloat64(),
	}
}

// =============================================================================
// PROJECT
// =============================================================================

type CreateProjectRequest struct {
	ID          string  `json:"id" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	BillingMode string  `json:"billing_mode" validate:"required,oneof=fixed-budget time-and-materials"`
	TotalBudget float64 `json:"total_budget" validate:"gte=0"`
	HourlyRate  float64 `json:"hourly_rate" validate:"gte=0"`
}

type ProjectDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	BillingMode string  `json:"billing_mode"`
	Status      string  `json:"status"`
	TotalBudget float64 `json:"total_budget"`
	HourlyRate  float64 `json:"hourly_rate"`
	Assignments int     `json:"assignments"`
}

func projectDTO(p *payroll.Project) ProjectDTO {
	return ProjectDTO{
		ID:          string(p.ID),
		Name:        p.Name,
		BillingMode: string(p.BillingMode),
		Status:      string(p.Status),
		TotalBudget: p.TotalBudget.Value.InexactFloat64(),
		HourlyRate:  p.HourlyRate.Value.InexactFloat64(),
		Assignments: len(p.Assignments),
	}
}

type CreateAssignmentRequest struct {
	EmployeeID   string   `json:"employee_id" validate:"required"`
	EntryDate    string   `json:"entry_date" validate:"required,datetime=2006-01-02"`
	ExitDate     *string  `json:"exit_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	RateOverride *float64 `json:"rate_override,omitempty" validate:"omitempty,gte=0"`
}

type CreateCertificationRequest struct {
	Month  int     `json:"month" validate:"required,min=1,max=12"`
	Year   int     `json:"year" validate:"required,min=2000"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

// =============================================================================
// OVERRIDES & EXPENSES
// =============================================================================

type CreateOverrideRequest struct {
	Date    string   `json:"date" validate:"required"`
	Absence string   `json:"absence"`
	Hours   *float64 `json:"hours,omitempty" validate:"omitempty,gte=0"`
}

type CreateExpenseRequest struct {
	Scope      string  `json:"scope" validate:"required,oneof=employee project"`
	EmployeeID string  `json:"employee_id" validate:"required_if=Scope employee"`
	ProjectID  string  `json:"project_id" validate:"required_if=Scope project"`
	Date       string  `json:"date" validate:"required,datetime=2006-01-02"`
	Category   string  `json:"category" validate:"required"`
	Amount     float64 `json:"amount" validate:"gt=0"`
	InvoiceRef string  `json:"invoice_ref"`
}

// =============================================================================
// CALENDAR
// =============================================================================

type CalendarDayDTO struct {
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	Hours       float64 `json:"hours"`
	Absence     *string `json:"absence,omitempty"`
	HolidayName string  `json:"holiday_name,omitempty"`
}

type CalendarMonthDTO struct {
	EmployeeID  string           `json:"employee_id"`
	Year        int              `json:"year"`
	Month       int              `json:"month"`
	WorkingDays int              `json:"working_days"`
	Days        []CalendarDayDTO `json:"days"`
	Issues      []string         `json:"issues,omitempty"`
}

func calendarMonthDTO(m calendar.Month, issues []payroll.DataQualityIssue) CalendarMonthDTO {
	dto := CalendarMonthDTO{
		EmployeeID:  string(m.EmployeeID),
		Year:        m.Year,
		Month:       int(m.MonthOf),
		WorkingDays: m.WorkingDays(),
		Days:        make([]CalendarDayDTO, 0, len(m.Days)),
	}
	for _, d := range m.Days {
		day := CalendarDayDTO{
			Date:        d.Date.String(),
			Type:        string(d.Type),
			Hours:       d.ActualHours.Value.InexactFloat64(),
			HolidayName: d.HolidayName,
		}
		if d.Absence != nil {
			a := string(*d.Absence)
			day.Absence = &a
		}
		dto.Days = append(dto.Days, day)
	}
	for _, issue := range issues {
		dto.Issues = append(dto.Issues, issue.String())
	}
	return dto
}

// =============================================================================
// ALLOCATION
// =============================================================================

type RunAllocationRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Month      int    `json:"month" validate:"required,min=1,max=12"`
	Year       int    `json:"year" validate:"required,min=2000"`
	// AsOf closes open assignment windows; defaults to the end of the
	// requested month.
	AsOf string `json:"as_of,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type ResolveAllocationRequest struct {
	EmployeeID        string `json:"employee_id" validate:"required"`
	Month             int    `json:"month" validate:"required,min=1,max=12"`
	Year              int    `json:"year" validate:"required,min=2000"`
	ProjectID         string `json:"project_id"`
	AcceptUnallocated bool   `json:"accept_unallocated"`
}

type RecordDTO struct {
	EmployeeID    string        `json:"employee_id"`
	ProjectID     string        `json:"project_id"`
	Month         int           `json:"month"`
	Year          int           `json:"year"`
	DaysActive    int           `json:"days_active"`
	WorkingDays   int           `json:"working_days"`
	Prorated      FixedCostsDTO `json:"prorated"`
	NormalHours   float64       `json:"normal_hours"`
	OvertimeHours float64       `json:"overtime_hours"`
	HolidayHours  float64       `json:"holiday_hours"`
	OvertimePay   float64       `json:"overtime_pay"`
	HolidayPay    float64       `json:"holiday_pay"`
	Expenses      float64       `json:"expenses"`
	Total         float64       `json:"total"`
}

func recordDTO(r allocation.Record) RecordDTO {
	return RecordDTO{
		EmployeeID:    string(r.EmployeeID),
		ProjectID:     string(r.ProjectID),
		Month:         int(r.Month),
		Year:          r.Year,
		DaysActive:    r.DaysActive,
		WorkingDays:   r.WorkingDays,
		Prorated:      fixedCostsDTO(r.Prorated),
		NormalHours:   r.NormalHours.Value.InexactFloat64(),
		OvertimeHours: r.OvertimeHours.Value.InexactFloat64(),
		HolidayHours:  r.HolidayHours.Value.InexactFloat64(),
		OvertimePay:   r.OvertimePay.Value.InexactFloat64(),
		HolidayPay:    r.HolidayPay.Value.InexactFloat64(),
		Expenses:      r.ExpenseTotal().Value.InexactFloat64(),
		Total:         r.Total.Value.InexactFloat64(),
	}
}

type OutcomeDTO struct {
	Status      string      `json:"status"`
	Records     []RecordDTO `json:"records,omitempty"`
	Candidates  []string    `json:"candidates,omitempty"`
	Unallocated *float64    `json:"unallocated_total,omitempty"`
	Issues      []string    `json:"issues,omitempty"`
}

func outcomeDTO(o *allocation.Outcome) OutcomeDTO {
	dto := OutcomeDTO{Status: string(o.Status)}
	for _, r := range o.Records {
		dto.Records = append(dto.Records, recordDTO(r))
	}
	if o.Pending != nil {
		for _, c := range o.Pending.Candidates {
			dto.Candidates = append(dto.Candidates, string(c))
		}
	}
	if o.Unallocated != nil {
		total := o.Unallocated.Total.Value.InexactFloat64()
		dto.Unallocated = &total
	}
	for _, issue := range o.Issues {
		dto.Issues = append(dto.Issues, issue.String())
	}
	return dto
}

type TotalsDTO struct {
	Records          int     `json:"records"`
	SalaryAndSS      float64 `json:"salary_and_ss"`
	Withholding      float64 `json:"withholding"`
	Garnishment      float64 `json:"garnishment"`
	OvertimePay      float64 `json:"overtime_pay"`
	HolidayPay       float64 `json:"holiday_pay"`
	VariableExpenses float64 `json:"variable_expenses"`
	Total            float64 `json:"total"`
}

func totalsDTO(t allocation.Totals) TotalsDTO {
	return TotalsDTO{
		Records:          t.Records,
		SalaryAndSS:      t.SalaryAndSS.Value.InexactFloat64(),
		Withholding:      t.Withholding.Value.InexactFloat64(),
		Garnishment:      t.Garnishment.Value.InexactFloat64(),
		OvertimePay:      t.OvertimePay.Value.InexactFloat64(),
		HolidayPay:       t.HolidayPay.Value.InexactFloat64(),
		VariableExpenses: t.VariableExpenses.Value.InexactFloat64(),
		Total:            t.Total.Value.InexactFloat64(),
	}
}

// =============================================================================
// PROFITABILITY
// =============================================================================

type MonthlyFiguresDTO struct {
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	Revenue       float64 `json:"revenue"`
	AllocatedCost float64 `json:"allocated_cost"`
	VariableCost  float64 `json:"variable_cost"`
	NetProfit     float64 `json:"net_profit"`
}

type AnalysisDTO struct {
	ProjectID     string  `json:"project_id"`
	GrossRevenue  float64 `json:"gross_revenue"`
	AllocatedCost float64 `json:"allocated_cost"`
	VariableCost  float64 `json:"variable_cost"`
	NetProfit     float64 `json:"net_profit"`
	MarginPercent float64 `json:"margin_percent"`
	NoRevenue     bool    `json:"no_revenue"`
	// RevenueOverridden signals that gross_revenue is a manual figure and
	// the monthly rows will not sum to it.
	RevenueOverridden bool                `json:"revenue_overridden"`
	Band              string              `json:"band"`
	Monthly           []MonthlyFiguresDTO `json:"monthly"`
}

func analysisDTO(a *profit.Analysis) AnalysisDTO {
	dto := AnalysisDTO{
		ProjectID:         string(a.ProjectID),
		GrossRevenue:      a.GrossRevenue.Value.InexactFloat64(),
		AllocatedCost:     a.AllocatedCost.Value.InexactFloat64(),
		VariableCost:      a.VariableCost.Value.InexactFloat64(),
		NetProfit:         a.NetProfit.Value.InexactFloat64(),
		MarginPercent:     a.MarginPercent.InexactFloat64(),
		NoRevenue:         a.NoRevenue,
		RevenueOverridden: a.RevenueOverridden,
		Band:              string(a.Band()),
	}
	for _, m := range a.Monthly {
		dto.Monthly = append(dto.Monthly, MonthlyFiguresDTO{
			Year:          m.Year,
			Month:         int(m.Month),
			Revenue:       m.Revenue.Value.InexactFloat64(),
			AllocatedCost: m.AllocatedCost.Value.InexactFloat64(),
			VariableCost:  m.VariableCost.Value.InexactFloat64(),
			NetProfit:     m.NetProfit.Value.InexactFloat64(),
		})
	}
	return dto
}

// =============================================================================
// COMMON
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

/*
handlers.go - HTTP API handlers for the payroll allocation engine

PURPOSE:
  Exposes the allocation and profitability engines via REST API. Handles
  HTTP request/response, JSON serialization and validation, and delegates
  to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                    List employees
    POST   /api/employees                    Create employee
    GET    /api/employees/{id}               Get employee details
    POST   /api/employees/{id}/salary-changes Append a salary change
    POST   /api/employees/{id}/overrides     Record an absence/hours override
    GET    /api/employees/{id}/calendar      Month calendar

  Projects:
    GET    /api/projects                     List projects
    POST   /api/projects                     Create project
    POST   /api/projects/{id}/assignments    Attach an employee
    POST   /api/projects/{id}/certifications Record monthly certification
    GET    /api/projects/{id}/profitability  Profitability summary

  Allocations:
    POST   /api/allocations/run              Recompute a month for an employee
    POST   /api/allocations/resolve          Finalize an ambiguous month
    GET    /api/allocations                  Query records
    GET    /api/allocations/totals           Aggregates over a filtered subset

  Expenses & reports:
    POST   /api/expenses                     Record a variable expense
    GET    /api/reports/profitability.xlsx   Workbook for all projects

ARCHITECTURE:
  Handler holds the engine, the calculators, the persistence interfaces
  and an in-memory registry of employees and projects. Entity CRUD beyond
  this registry is owned by the surrounding back-office application;
  records, overrides and expenses go through the stores.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (open-assignment invariant, unresolved allocation)
  - 500: Internal errors
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/warp/payroll-engine/allocation"
	"github.com/warp/payroll-engine/calendar"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/profit"
	"github.com/warp/payroll-engine/report"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine    *allocation.Engine
	Profit    *profit.Calculator
	Calendar  *calendar.Builder
	Records   allocation.RecordStore
	Overrides calendar.OverrideStore
	Expenses  payroll.ExpenseStore

	validate *validator.Validate

	mu        sync.RWMutex
	employees map[payroll.EmployeeID]*payroll.Employee
	projects  map[payroll.ProjectID]*payroll.Project
	// Ambiguous allocations awaiting explicit resolution.
	pending map[allocation.Key]*allocation.PendingAllocation
}

// Stores bundles the persistence interfaces the handler depends on.
type Stores struct {
	Records   allocation.RecordStore
	Overrides calendar.OverrideStore
	Expenses  payroll.ExpenseStore
}

// NewHandler creates a new handler wired to the given builder and stores.
func NewHandler(builder *calendar.Builder, stores Stores) *Handler {
	return &Handler{
		Engine:    allocation.NewEngine(builder, stores.Records),
		Profit:    profit.NewCalculator(builder, stores.Records),
		Calendar:  builder,
		Records:   stores.Records,
		Overrides: stores.Overrides,
		Expenses:  stores.Expenses,
		validate:  validator.New(),
		employees: make(map[payroll.EmployeeID]*payroll.Employee),
		projects:  make(map[payroll.ProjectID]*payroll.Project),
		pending:   make(map[allocation.Key]*allocation.PendingAllocation),
	}
}

// decodeAndValidate parses the JSON body into dst and runs validation.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all registered employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dtos := make([]EmployeeDTO, 0, len(h.employees))
	for _, e := range h.employees {
		dtos = append(dtos, employeeDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee registers an employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	hireDate, _ := parseDate(req.HireDate)

	employee := &payroll.Employee{
		ID:           payroll.EmployeeID(req.ID),
		Name:         req.Name,
		HireDate:     hireDate,
		Active:       true,
		Costs:        req.Costs.toDomain(),
		OvertimeRate: payroll.NewMoney(req.OvertimeRate),
		HolidayRate:  payroll.NewMoney(req.HolidayRate),
	}

	h.mu.Lock()
	h.employees[employee.ID] = employee
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, employeeDTO(employee))
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	employee, ok := h.employee(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, employeeDTO(employee))
}

// AddSalaryChange appends to the employee's salary history.
func (h *Handler) AddSalaryChange(w http.ResponseWriter, r *http.Request) {
	var req SalaryChangeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	effective, _ := parseDate(req.EffectiveFrom)

	h.mu.Lock()
	defer h.mu.Unlock()
	employee, ok := h.employees[payroll.EmployeeID(chi.URLParam(r, "id"))]
	if !ok {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	employee.AddSalaryChange(payroll.SalaryChange{
		EffectiveFrom: effective,
		Costs:         req.Costs.toDomain(),
		OvertimeRate:  payroll.NewMoney(req.OvertimeRate),
		HolidayRate:   payroll.NewMoney(req.HolidayRate),
		Reason:        req.Reason,
	})
	writeJSON(w, http.StatusOK, employeeDTO(employee))
}

// CreateOverride persists a per-day absence or hours override.
func (h *Handler) CreateOverride(w http.ResponseWriter, r *http.Request) {
	employee, ok := h.employee(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	var req CreateOverrideRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	// The date is stored as entered; the calendar builder validates it and
	// degrades gracefully on malformed values.
	override := calendar.DayOverride{Date: req.Date, Absence: req.Absence, Hours: req.Hours}
	if err := h.Overrides.SaveOverride(r.Context(), employee.ID, override); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save override", err)
		return
	}
	writeJSON(w, http.StatusCreated, override)
}

// GetCalendar returns the month calendar for an employee.
// GET /api/employees/{id}/calendar?month=3&year=2025
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	employee, ok := h.employee(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	month, year, err := monthYearParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month/year", err)
		return
	}

	overrides, err := h.Overrides.OverridesForMonth(r.Context(), employee.ID, month, year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load overrides", err)
		return
	}
	calMonth, issues := h.Calendar.BuildMonth(employee.ID, month, year, overrides)
	writeJSON(w, http.StatusOK, calendarMonthDTO(calMonth, issues))
}

// =============================================================================
// PROJECT HANDLERS
// =============================================================================

// ListProjects returns all registered projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dtos := make([]ProjectDTO, 0, len(h.projects))
	for _, p := range h.projects {
		dtos = append(dtos, projectDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProject registers a project.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	project := &payroll.Project{
		ID:          payroll.ProjectID(req.ID),
		Name:        req.Name,
		BillingMode: payroll.BillingMode(req.BillingMode),
		Status:      payroll.ProjectActive,
		TotalBudget: payroll.NewMoney(req.TotalBudget),
		HourlyRate:  payroll.NewMoney(req.HourlyRate),
	}

	h.mu.Lock()
	h.projects[project.ID] = project
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, projectDTO(project))
}

// GetProject returns a single project.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, ok := h.project(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Project not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, projectDTO(project))
}

// CreateAssignment attaches an employee to a project.
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	entry, _ := parseDate(req.EntryDate)

	assignment := payroll.Assignment{
		EmployeeID: payroll.EmployeeID(req.EmployeeID),
		EntryDate:  entry,
	}
	if req.ExitDate != nil {
		exit, _ := parseDate(*req.ExitDate)
		assignment.ExitDate = &exit
	}
	if req.RateOverride != nil {
		rate := payroll.NewMoney(*req.RateOverride)
		assignment.RateOverride = &rate
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	project, ok := h.projects[payroll.ProjectID(chi.URLParam(r, "id"))]
	if !ok {
		writeError(w, http.StatusNotFound, "Project not found", nil)
		return
	}
	if err := project.AddAssignment(assignment); err != nil {
		writeError(w, http.StatusConflict, "Cannot add assignment", err)
		return
	}
	writeJSON(w, http.StatusCreated, projectDTO(project))
}

// CreateCertification records a monthly certification on a fixed-budget
// project.
func (h *Handler) CreateCertification(w http.ResponseWriter, r *http.Request) {
	var req CreateCertificationRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	project, ok := h.projects[payroll.ProjectID(chi.URLParam(r, "id"))]
	if !ok {
		writeError(w, http.StatusNotFound, "Project not found", nil)
		return
	}
	project.Certifications = append(project.Certifications, payroll.Certification{
		Month:  time.Month(req.Month),
		Year:   req.Year,
		Amount: payroll.NewMoney(req.Amount),
	})
	writeJSON(w, http.StatusCreated, projectDTO(project))
}

// =============================================================================
// ALLOCATION HANDLERS
// =============================================================================

// RunAllocation recomputes one employee's month.
func (h *Handler) RunAllocation(w http.ResponseWriter, r *http.Request) {
	var req RunAllocationRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	employee, ok := h.employee(req.EmployeeID)
	if !ok {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	month := time.Month(req.Month)

	asOf := calendar.EndOfMonth(req.Year, month).Time
	if req.AsOf != "" {
		asOf, _ = parseDate(req.AsOf)
	}

	overrides, err := h.Overrides.OverridesForMonth(r.Context(), employee.ID, month, req.Year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load overrides", err)
		return
	}
	expenses, err := h.Expenses.ExpensesForEmployee(r.Context(), employee.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load expenses", err)
		return
	}

	outcome, err := h.Engine.Allocate(r.Context(), allocation.Input{
		Employee:  employee,
		Month:     month,
		Year:      req.Year,
		AsOf:      asOf,
		Projects:  h.projectList(),
		Overrides: overrides,
		Expenses:  expenses,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Allocation failed", err)
		return
	}

	if outcome.Status == allocation.StatusNeedsSelection {
		h.mu.Lock()
		h.pending[pendingKey(employee.ID, month, req.Year)] = outcome.Pending
		h.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, outcomeDTO(outcome))
}

// ResolveAllocation finalizes an ambiguous month with a chosen project or
// an explicit no-allocation.
func (h *Handler) ResolveAllocation(w http.ResponseWriter, r *http.Request) {
	var req ResolveAllocationRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	key := pendingKey(payroll.EmployeeID(req.EmployeeID), time.Month(req.Month), req.Year)

	h.mu.Lock()
	pending, ok := h.pending[key]
	if ok {
		delete(h.pending, key)
	}
	h.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "No pending allocation for that month", nil)
		return
	}

	if req.AcceptUnallocated {
		unallocated, err := h.Engine.AcceptUnallocated(pending)
		if err != nil {
			writeError(w, http.StatusConflict, "Cannot accept unallocated", err)
			return
		}
		total := unallocated.Total.Value.InexactFloat64()
		writeJSON(w, http.StatusOK, OutcomeDTO{
			Status:      string(allocation.StatusUnallocated),
			Unallocated: &total,
		})
		return
	}
	if req.ProjectID == "" {
		writeError(w, http.StatusBadRequest, "project_id or accept_unallocated is required", payroll.ErrUnresolvedAllocation)
		return
	}

	record, err := h.Engine.Resolve(r.Context(), pending, payroll.ProjectID(req.ProjectID))
	if err != nil {
		status := http.StatusInternalServerError
		if payroll.IsClientError(err) {
			status = http.StatusConflict
		}
		// Keep the pending allocation around for another attempt.
		h.mu.Lock()
		h.pending[key] = pending
		h.mu.Unlock()
		writeError(w, status, "Failed to resolve allocation", err)
		return
	}
	writeJSON(w, http.StatusOK, OutcomeDTO{
		Status:  string(allocation.StatusResolved),
		Records: []RecordDTO{recordDTO(record)},
	})
}

// QueryAllocations returns records matching the query filters.
// GET /api/allocations?employee_id=&project_id=&month=&year=
func (h *Handler) QueryAllocations(w http.ResponseWriter, r *http.Request) {
	filter, err := filterParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}
	records, err := h.Records.Query(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query records", err)
		return
	}
	dtos := make([]RecordDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, recordDTO(record))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AllocationTotals returns aggregates over a filtered subset of records.
func (h *Handler) AllocationTotals(w http.ResponseWriter, r *http.Request) {
	filter, err := filterParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}
	records, err := h.Records.Query(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to query records", err)
		return
	}
	writeJSON(w, http.StatusOK, totalsDTO(allocation.Summarize(records)))
}

// =============================================================================
// EXPENSE HANDLERS
// =============================================================================

// CreateExpense records a variable expense.
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	date, _ := parseDate(req.Date)

	var expense payroll.VariableExpense
	if payroll.ExpenseScope(req.Scope) == payroll.ExpenseEmployee {
		expense = payroll.NewEmployeeExpense(payroll.EmployeeID(req.EmployeeID), date, req.Category, payroll.NewMoney(req.Amount))
	} else {
		expense = payroll.NewProjectExpense(payroll.ProjectID(req.ProjectID), date, req.Category, payroll.NewMoney(req.Amount))
	}
	expense.InvoiceRef = req.InvoiceRef

	if err := h.Expenses.SaveExpense(r.Context(), expense); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

// =============================================================================
// PROFITABILITY HANDLERS
// =============================================================================

// GetProfitability returns the profitability summary for a project.
func (h *Handler) GetProfitability(w http.ResponseWriter, r *http.Request) {
	project, ok := h.project(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Project not found", nil)
		return
	}

	analysis, err := h.analyzeProject(r, project)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to analyze project", err)
		return
	}
	writeJSON(w, http.StatusOK, analysisDTO(analysis))
}

// ProfitabilityWorkbook streams an xlsx workbook for all projects.
func (h *Handler) ProfitabilityWorkbook(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	projects := make([]*payroll.Project, 0, len(h.projects))
	names := make(map[payroll.ProjectID]string, len(h.projects))
	for _, p := range h.projects {
		projects = append(projects, p)
		names[p.ID] = p.Name
	}
	h.mu.RUnlock()

	var analyses []*profit.Analysis
	for _, project := range projects {
		analysis, err := h.analyzeProject(r, project)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to analyze project", err)
			return
		}
		analyses = append(analyses, analysis)
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="profitability.xlsx"`)
	if err := report.Write(w, analyses, names); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to write workbook", err)
	}
}

func (h *Handler) analyzeProject(r *http.Request, project *payroll.Project) (*profit.Analysis, error) {
	ctx := r.Context()

	overridesByEmployee := make(map[payroll.EmployeeID][]calendar.DayOverride)
	for _, a := range project.Assignments {
		if _, done := overridesByEmployee[a.EmployeeID]; done || a.EntryDate.IsZero() {
			continue
		}
		var all []calendar.DayOverride
		for _, mk := range monthsOf(a, time.Now().UTC()) {
			overrides, err := h.Overrides.OverridesForMonth(ctx, a.EmployeeID, mk.Month, mk.Year)
			if err != nil {
				return nil, err
			}
			all = append(all, overrides...)
		}
		overridesByEmployee[a.EmployeeID] = all
	}

	expenses, err := h.Expenses.ExpensesForProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	return h.Profit.Analyze(ctx, profit.Input{
		Project:             project,
		AsOf:                time.Now().UTC(),
		OverridesByEmployee: overridesByEmployee,
		ProjectExpenses:     expenses,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) employee(id string) (*payroll.Employee, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.employees[payroll.EmployeeID(id)]
	return e, ok
}

func (h *Handler) project(id string) (*payroll.Project, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.projects[payroll.ProjectID(id)]
	return p, ok
}

func (h *Handler) projectList() []*payroll.Project {
	h.mu.RLock()
	defer h.mu.RUnlock()
	projects := make([]*payroll.Project, 0, len(h.projects))
	for _, p := range h.projects {
		projects = append(projects, p)
	}
	return projects
}

func pendingKey(employeeID payroll.EmployeeID, month time.Month, year int) allocation.Key {
	return allocation.Key{EmployeeID: employeeID, Month: month, Year: year}
}

type monthRef struct {
	Year  int
	Month time.Month
}

func monthsOf(a payroll.Assignment, asOf time.Time) []monthRef {
	end := calendar.DateOf(asOf)
	if a.ExitDate != nil {
		end = calendar.DateOf(*a.ExitDate)
	}
	start := calendar.DateOf(a.EntryDate)
	if end.Before(start) {
		return nil
	}
	var months []monthRef
	cursor := calendar.StartOfMonth(start.Year(), start.Month())
	last := calendar.StartOfMonth(end.Year(), end.Month())
	for cursor.BeforeOrEqual(last) {
		months = append(months, monthRef{Year: cursor.Year(), Month: cursor.Month()})
		cursor = calendar.StartOfMonth(cursor.Year(), cursor.Month()+1)
	}
	return months
}

func monthYearParams(r *http.Request) (time.Month, int, error) {
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		return 0, 0, err
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		return 0, 0, err
	}
	return time.Month(month), year, nil
}

func filterParams(r *http.Request) (allocation.Filter, error) {
	var filter allocation.Filter
	if v := r.URL.Query().Get("employee_id"); v != "" {
		id := payroll.EmployeeID(v)
		filter.EmployeeID = &id
	}
	if v := r.URL.Query().Get("project_id"); v != "" {
		id := payroll.ProjectID(v)
		filter.ProjectID = &id
	}
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return filter, err
		}
		month := time.Month(m)
		filter.Month = &month
	}
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return filter, err
		}
		filter.Year = &y
	}
	return filter, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

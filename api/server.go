/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the back-office frontend

ROUTE GROUPS:
  /api/employees/*    Employee registry, salary history, overrides, calendar
  /api/projects/*     Project registry, assignments, certifications, profitability
  /api/allocations/*  Recompute, resolve, query, totals
  /api/expenses       Variable expenses
  /api/reports/*      Spreadsheet exports

SECURITY NOTE:
  No authentication middleware; the engine sits behind the back-office
  application which owns auth.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Post("/{id}/salary-changes", h.AddSalaryChange)
			r.Post("/{id}/overrides", h.CreateOverride)
			r.Get("/{id}/calendar", h.GetCalendar)
		})

		// Project routes
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Get("/{id}", h.GetProject)
			r.Post("/{id}/assignments", h.CreateAssignment)
			r.Post("/{id}/certifications", h.CreateCertification)
			r.Get("/{id}/profitability", h.GetProfitability)
		})

		// Allocation routes
		r.Route("/allocations", func(r chi.Router) {
			r.Get("/", h.QueryAllocations)
			r.Get("/totals", h.AllocationTotals)
			r.Post("/run", h.RunAllocation)
			r.Post("/resolve", h.ResolveAllocation)
		})

		// Expense routes
		r.Post("/expenses", h.CreateExpense)

		// Report routes
		r.Get("/reports/profitability.xlsx", h.ProfitabilityWorkbook)
	})

	return r
}

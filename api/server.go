/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/shift/*      Active shift lifecycle
  /api/shifts       Completed shift records
  /api/expenses     Expense records
  /api/reports/*    Aggregations and true-cost analysis

SECURITY NOTE:
  No authentication middleware currently. Single-driver tool; all
  endpoints are public on the bound interface.

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
		// Active shift lifecycle
		r.Route("/shift", func(r chi.Router) {
			r.Get("/active", h.GetActiveShift)
			r.Post("/start", h.StartShift)
			r.Post("/odometer", h.SaveStartOdometer)
			r.Post("/end", h.EndShift)
			r.Post("/finalize", h.FinalizeShift)
			r.Post("/cancel", h.CancelShift)
		})

		// Records
		r.Get("/shifts", h.ListShifts)
		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.CreateExpense)
		})

		// Reports
		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", h.GetSummary)
			r.Get("/rates", h.GetRates)
			r.Post("/truecost", h.GetTrueCost)
		})
	})

	return r
}

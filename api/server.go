/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/users/*   Clock operations, timesheets, weekly submissions
  /api/jobs/*    Job catalog
  /api/sites/*   Site catalog
  /api/admin/*   Cross-user reporting

SECURITY NOTE:
  No authentication middleware here; identity and sessions belong to the
  fronting proxy in this deployment. Ownership checks live in the store.

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

	r.Route("/api", func(r chi.Router) {
		// User routes: clock operations and timesheets
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.SaveUser)
			r.Get("/{id}", h.GetUser)

			r.Post("/{id}/clock-in", h.ClockIn)
			r.Post("/{id}/clock-out", h.ClockOut)
			r.Post("/{id}/log-job", h.LogJob)
			r.Get("/{id}/clock-status", h.ClockStatus)

			r.Get("/{id}/timesheets", h.GetTimesheets)
			r.Post("/{id}/weeks/{weekID}/submit", h.SubmitWeek)
			r.Get("/{id}/weeks/{weekID}/export", h.ExportWeek)

			r.Put("/{id}/entries/{entryID}", h.UpdateEntry)
			r.Delete("/{id}/entries/{entryID}", h.DeleteEntry)

			r.Get("/{id}/jobs/upcoming", h.UpcomingJobs)
		})

		// Catalog routes
		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", h.ListJobs)
			r.Post("/", h.SaveJob)
			r.Put("/{id}/status", h.UpdateJobStatus)
		})
		r.Route("/sites", func(r chi.Router) {
			r.Get("/", h.ListSites)
			r.Post("/", h.SaveSite)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Get("/entries", h.AdminEntries)
		})
	})

	return r
}

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
  /api/mechanics/*      Mechanics and availability
  /api/locations/*      Service bays
  /api/appointments/*   Appointments and assignment
  /api/worklogs/*       Work logs and hour computation

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public;
  authentication is owned by the surrounding deployment.

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
		// Mechanic routes
		r.Route("/mechanics", func(r chi.Router) {
			r.Get("/", h.ListMechanics)
			r.Put("/{id}", h.SaveMechanic)
			r.Get("/{id}/availability", h.GetAvailability)
		})

		// Location routes
		r.Route("/locations", func(r chi.Router) {
			r.Get("/", h.ListLocations)
			r.Put("/{id}", h.SaveLocation)
		})

		// Appointment routes
		r.Route("/appointments", func(r chi.Router) {
			r.Get("/{id}", h.GetAppointment)
			r.Put("/{id}", h.SaveAppointment)
			r.Post("/{id}/assign-mechanic", h.AssignMechanic)
			r.Post("/{id}/assign-location", h.AssignLocation)
		})

		// Work log routes
		r.Route("/worklogs", func(r chi.Router) {
			r.Get("/{id}", h.GetWorkLog)
			r.Put("/{id}", h.SaveWorkLog)
			r.Post("/{id}/compute-hours", h.ComputeHours)
		})
	})

	return r
}

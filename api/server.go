/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RequestLogger: One zap line per request
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CORS:          Cross-origin requests for the admin UI
  5. Tenant:        X-Tenant-ID header into the request context

ROUTE GROUPS:
  /api/policies/*                  Policy management
  /api/instructors/{id}/*          Assignment and calculation history
  /api/calculations                Preview or persist one calculation
  /api/payroll/run                 Calculate a period for many instructors
  /api/scenarios/*                 Demo scenarios
  /api/health                      Liveness

SECURITY NOTE:
  No authentication middleware. The tenant header is trusted as given.

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
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", TenantHeader},
		AllowCredentials: true,
	}))
	r.Use(Tenant(h.DefaultTenant))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Policy routes
		r.Route("/policies", func(r chi.Router) {
			r.Get("/", h.ListPolicies)
			r.Post("/", h.CreatePolicy)
			r.Post("/validate", h.ValidatePolicy)
			r.Get("/{id}", h.GetPolicy)
			r.Put("/{id}", h.UpdatePolicy)
			r.Delete("/{id}", h.DeletePolicy)
		})

		// Instructor routes
		r.Route("/instructors/{id}", func(r chi.Router) {
			r.Get("/assignment", h.GetAssignment)
			r.Post("/assignment", h.AssignPolicy)
			r.Get("/calculations", h.ListCalculations)
			r.Get("/calculations/{period}", h.GetCalculation)
		})

		r.Post("/calculations", h.Calculate)
		r.Post("/payroll/run", h.RunPayroll)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}

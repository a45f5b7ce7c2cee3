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
  /api/contact-codes      Contact-code table
  /api/accounts/*         Account parsing, period resolution, proposals
  /api/contacts/*         Contact lookup, invoices, retirement
  /api/splits/*           Pro-rata split preview and execution
  /api/occupier-changes   Full occupier-change workflow
  /api/scenarios/*        Demo scenarios (dev only)

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public; run
  behind the office network only.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

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
		r.Get("/contact-codes", h.ListContactCodes)

		// Account routes
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/propose", h.ProposeAccount)
			r.Get("/{number}", h.ParseAccount)
			r.Get("/{number}/period", h.ResolvePeriod)
		})

		// Contact routes
		r.Route("/contacts", func(r chi.Router) {
			r.Get("/{id}", h.GetContact)
			r.Get("/{id}/invoices", h.ListInvoices)
			r.Get("/{id}/invoices/unpaid", h.GetUnpaidInvoice)
			r.Post("/{id}/retire", h.RetireContact)
		})

		// Split routes
		r.Route("/splits", func(r chi.Router) {
			r.Post("/preview", h.PreviewSplit)
			r.Post("/execute", h.ExecuteSplit)
		})

		// Occupier-change workflow
		r.Post("/occupier-changes", h.RunOccupierChange)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Tenancy Billing Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Tenancy Billing Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/contact-codes">/api/contact-codes</a> - Contact-code table</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
<li>/api/accounts/{number} - Parse an account number</li>
<li>/api/splits/preview - Pro-rata split preview</li>
</ul>
</body>
</html>`))
	})

	return r
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Leo190198/promoShare/internal/apierr"
	"github.com/Leo190198/promoShare/internal/pkg/httputil"
)

// SetupRoutes configures the router: open service/health endpoints, then
// the /api/v1 surface behind API-key admission.
func SetupRoutes(h *Handlers, apiKey string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	// The admin frontend is served from a different origin; admission is
	// the API key, not cookies.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	// Service descriptor and health probe stay open for load balancers.
	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiKeyAuth(apiKey))

		r.Route("/automation", func(r chi.Router) {
			r.Get("/status", h.GetStatus)
			r.Put("/settings", h.UpdateSettings)

			r.Get("/themes", h.ListThemes)
			r.Post("/themes", h.CreateTheme)
			r.Put("/themes/{id}", h.UpdateTheme)

			r.Get("/posting-windows", h.GetPostingWindow)
			r.Put("/posting-windows", h.UpdatePostingWindow)

			r.Post("/suggestions/generate", h.GenerateSuggestions)
			r.Get("/suggestions", h.ListSuggestions)
			r.Post("/suggestions/{id}/approve-schedule", h.ApproveSchedule)
			r.Post("/suggestions/{id}/approve-send-now", h.ApproveSendNow)
			r.Post("/suggestions/{id}/reject", h.RejectSuggestion)

			r.Get("/queue", h.ListQueue)
			r.Get("/history", h.ListHistory)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httputil.Error(w, http.StatusNotFound, apierr.CodeNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httputil.Error(w, http.StatusMethodNotAllowed, apierr.CodeHTTPError, "Method not allowed")
	})

	return r
}

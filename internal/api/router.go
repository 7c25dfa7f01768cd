// Package api assembles the HTTP surface: router, middleware chain, and
// handlers.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/nmoreno/careerhub/internal/analysis"
	"github.com/nmoreno/careerhub/internal/api/handler"
	"github.com/nmoreno/careerhub/internal/api/middleware"
	"github.com/nmoreno/careerhub/internal/api/response"
	"github.com/nmoreno/careerhub/internal/cache"
	"github.com/nmoreno/careerhub/internal/storage"
	"github.com/nmoreno/careerhub/internal/store"
)

// Dependencies carries everything the router needs.
type Dependencies struct {
	Store    store.Store
	Cache    cache.Cache
	Storage  storage.Storage
	Analysis *analysis.Service

	// RequestsPerMinute configures per-key rate limiting. Zero means default.
	RequestsPerMinute int

	// HealthHandler is mounted unauthenticated at /health.
	HealthHandler http.HandlerFunc
}

// NewRouter builds the chi router with the full middleware chain.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logger)

	if deps.HealthHandler != nil {
		r.Get("/health", deps.HealthHandler)
	}

	auth := middleware.NewAuth(deps.Store)
	rateLimit := middleware.NewRateLimit(deps.Cache, deps.RequestsPerMinute)

	analyzeHandler := handler.NewAnalyzeHandler(deps.Analysis)
	resumeHandler := handler.NewResumeHandler(deps.Store, deps.Storage)
	keysHandler := handler.NewKeysHandler(deps.Store)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(rateLimit.Limit)

		r.Route("/profile/cv", func(r chi.Router) {
			r.With(auth.RequireScope("write")).Post("/", resumeHandler.Upload)
			r.With(auth.RequireScope("read")).Get("/", resumeHandler.List)
			r.With(auth.RequireScope("read")).Get("/{resumeID}", resumeHandler.Download)
			r.With(auth.RequireScope("write")).Delete("/{resumeID}", resumeHandler.Delete)

			r.With(auth.RequireScope("write")).Post("/analyze", analyzeHandler.Analyze)
			r.With(auth.RequireScope("read")).Get("/analyze/{jobID}", analyzeHandler.GetJob)
		})

		r.Route("/keys", func(r chi.Router) {
			r.Use(auth.RequireScope("admin"))
			r.Post("/", keysHandler.Create)
			r.Get("/", keysHandler.List)
			r.Delete("/{keyID}", keysHandler.Revoke)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	return r
}

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dconn.dev/portfolio/internal/apperr"
	"dconn.dev/portfolio/internal/config"
	"dconn.dev/portfolio/internal/middleware"
	"dconn.dev/portfolio/internal/services"
	"dconn.dev/portfolio/internal/templates"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the router is built from. A nil Limiter
// disables rate limiting.
type Deps struct {
	Projects *services.ProjectService
	Renderer templates.Renderer
	Store    Pinger
	Limiter  *middleware.RateLimiter
}

// SetupRoutes configures all routes and returns the router
func SetupRoutes(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logger)
	r.Use(middleware.Metrics)
	if deps.Limiter != nil {
		r.Use(middleware.RateLimit(deps.Limiter))
	}

	projectHandler := NewProjectHandler(deps.Projects, deps.Renderer)

	// Pages
	r.Get("/", projectHandler.Home)
	r.Get("/projects", projectHandler.ProjectsPage)
	r.Get("/project/{slug}", projectHandler.ProjectPage)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", projectHandler.ListProjects)
		r.Get("/projects/{slug}", projectHandler.GetProject)
		r.Get("/categories", projectHandler.ListCategories)
	})

	// Probes and metrics
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("OK"))
	})
	r.Get("/readyz", readyHandler(deps.Store))
	r.Handle("/metrics", promhttp.Handler())

	// Static files
	fileServer := http.FileServer(http.Dir(cfg.StaticDir))
	r.Handle("/static/*", http.StripPrefix("/static", fileServer))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write(templates.NotFoundPage())
	})

	return r
}

func readyHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			slog.Warn("readiness check failed", "error", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encode JSON response", "error", err)
	}
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondAPIError logs err and writes its public form as JSON.
func respondAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := logFailure(r, err)
	respondError(w, status, apperr.PublicMessage(err))
}

// respondPageError logs err and writes its public form as plain text.
func respondPageError(w http.ResponseWriter, r *http.Request, err error) {
	status := logFailure(r, err)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(apperr.PublicMessage(err)))
}

// logFailure records err with full detail and returns the status to send.
// Faults are logged at error level; not-found and validation outcomes at debug.
func logFailure(r *http.Request, err error) int {
	status := apperr.HTTPStatus(err)
	level := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"kind", string(apperr.KindOf(err)),
		"error", err,
		"request_id", chimw.GetReqID(r.Context()),
	)
	return status
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/lunisolar-api/internal/config"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET  /health
//	GET  /api/v1/lunisolar/convert      ?datetime= | ?date=&time=, &tz=
//	POST /api/v1/lunisolar/batch        API key
//	GET  /api/v1/solar-terms/{year}
//	GET  /api/v1/months/{year}
//	GET  /api/v1/sexagenary/{cycle}
func SetupRoutes(handlers *Handlers, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(),
	)
	if cfg.RateLimitRPS > 0 {
		r.Use(RateLimitMiddleware(NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst), logger))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
	})

	// ==========================================================================
	// Public routes
	// ==========================================================================
	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/lunisolar/convert", handlers.Convert)
		r.Get("/solar-terms/{year}", handlers.SolarTerms)
		r.Get("/months/{year}", handlers.Months)
		r.Get("/sexagenary/{cycle}", handlers.Sexagenary)

		// ======================================================================
		// Protected routes (API key)
		// ======================================================================
		r.With(AuthMiddleware(cfg, logger)).Post("/lunisolar/batch", handlers.Batch)
	})

	return r
}

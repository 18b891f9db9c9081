package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/radif/media/internal/config"
	"github.com/radif/media/internal/media"
	"github.com/radif/media/internal/metrics"
	appMiddleware "github.com/radif/media/internal/middleware"
	"github.com/radif/media/internal/response"
)

const readyTimeout = 5 * time.Second

// readinessChecker reports whether the service can reach its storage.
type readinessChecker interface {
	Ready(ctx context.Context) error
}

func newRouter(
	cfg *config.Config,
	logger zerolog.Logger,
	gatherer prometheus.Gatherer,
	m *metrics.Metrics,
	ready readinessChecker,
	mediaHandler *media.Handler,
) chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(logger))
	r.Use(appMiddleware.Metrics(m))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Length", "ETag", "Last-Modified"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := ready.Ready(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
			response.ServiceUnavailable(w, "Storage unavailable")
			return
		}
		response.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Swagger UI at http://localhost:3000/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	var mediaRoutes chi.Router = r
	if cfg.AuthRequired {
		mediaRoutes = r.With(appMiddleware.RequireAuth(cfg.JWTSecret))
	}
	mediaRoutes.Mount("/media", mediaHandler.Routes())

	return r
}

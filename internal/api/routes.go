package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/careconnect/intake/internal/config"
	"github.com/careconnect/intake/internal/domain"
	"github.com/careconnect/intake/internal/metrics"
	"github.com/careconnect/intake/internal/pkg/logger"
	"github.com/careconnect/intake/internal/pkg/ratelimit"
)

// SetupRoutes configures all routes. limiter may be nil to disable intake
// rate limiting.
func SetupRoutes(h *Handlers, hc *HealthChecker, cfg config.ServerConfig, limiter *ratelimit.Limiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(ratelimit.CapturePeer)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Health and metrics
	r.Get("/health", hc.HandleHealth)
	r.Get("/health/live", hc.HandleLiveness)
	r.Get("/health/ready", hc.HandleReadiness)
	r.Method(http.MethodGet, "/metrics", h.Metrics().Handler())

	r.Get("/admin", h.AdminIndex)

	for _, schema := range domain.Schemas() {
		intake := http.Handler(h.Register(schema))
		if limiter != nil {
			kind := string(schema.Kind)
			intake = limiter.Middleware(kind, func() {
				h.metrics.IncrementSubmission(kind, metrics.OutcomeRateLimited)
			})(intake)
		}
		r.Method(http.MethodPost, "/register-"+string(schema.Kind), intake)

		r.Get(listingPath(schema), h.ListSubmissions(schema))
		r.Get("/admin/"+schema.Table, h.AdminTable(schema))
		r.Get("/admin/download/"+schema.ExportFilename(), h.DownloadCSV(schema))
		r.Post("/admin/archive/"+schema.Table, h.ArchiveTable(schema))
	}

	return r
}

// listingPath keeps facilities at the bare /submissions path the intake
// front-end already uses.
func listingPath(schema domain.Schema) string {
	if schema.Kind == domain.KindFacility {
		return "/submissions"
	}
	return "/submissions/" + schema.Table
}

// accessLog writes one structured line per request through the service logger.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

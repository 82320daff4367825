package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/careconnect/intake/internal/config"
	"github.com/careconnect/intake/internal/pkg/ratelimit"
)

// Server represents the API server
type Server struct {
	config   config.ServerConfig
	handlers *Handlers
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, handlers *Handlers, hc *HealthChecker, limiter *ratelimit.Limiter) *Server {
	router := SetupRoutes(handlers, hc, cfg, limiter)
	return &Server{
		config:   cfg,
		handlers: handlers,
		router:   router,
		server: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadTimeout:       30 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// ListenAndServe starts the HTTP server on the configured address
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server. It is safe to call from another
// goroutine than ListenAndServe, and before it.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.router
}

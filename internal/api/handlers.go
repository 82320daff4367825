package api

import (
	"context"

	"github.com/careconnect/intake/internal/archive"
	"github.com/careconnect/intake/internal/domain"
	"github.com/careconnect/intake/internal/metrics"
)

// Registrations is the registration service as seen by the HTTP layer.
type Registrations interface {
	Register(ctx context.Context, kind domain.Kind, payload map[string]string) (domain.Record, error)
	List(ctx context.Context, kind domain.Kind) ([]domain.Record, error)
}

// Archiver uploads a CSV snapshot of one table.
type Archiver interface {
	Archive(ctx context.Context, schema domain.Schema, recs []domain.Record) (archive.Snapshot, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	registrations Registrations
	metrics       *metrics.Metrics
	archiver      Archiver
}

// NewHandlers creates a new Handlers instance
func NewHandlers(registrations Registrations, m *metrics.Metrics) *Handlers {
	if m == nil {
		m = metrics.New()
	}
	return &Handlers{
		registrations: registrations,
		metrics:       m,
	}
}

// SetArchiver enables the snapshot endpoints.
func (h *Handlers) SetArchiver(a Archiver) {
	h.archiver = a
}

// Metrics returns the collectors the handlers record into.
func (h *Handlers) Metrics() *metrics.Metrics {
	return h.metrics
}

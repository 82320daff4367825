// Package metrics holds the Prometheus collectors for the intake service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes.
const (
	OutcomeAccepted    = "accepted"
	OutcomeInvalid     = "invalid"
	OutcomeFailed      = "failed"
	OutcomeRateLimited = "rate_limited"
)

// Metrics holds all Prometheus metrics for the service
type Metrics struct {
	registry *prometheus.Registry

	SubmissionsTotal     *prometheus.CounterVec
	ListingFailuresTotal *prometheus.CounterVec
	ArchivesTotal        *prometheus.CounterVec
}

// New creates and registers all metrics on a private registry, so several
// instances can coexist in tests.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SubmissionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Intake submissions by record kind and outcome",
		}, []string{"kind", "outcome"}),
		ListingFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_listing_failures_total",
			Help: "JSON listings answered with an empty result because the store read failed",
		}, []string{"kind"}),
		ArchivesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_archives_total",
			Help: "CSV snapshot uploads by table and outcome",
		}, []string{"table", "outcome"}),
	}
}

// IncrementSubmission counts one intake request.
func (m *Metrics) IncrementSubmission(kind, outcome string) {
	m.SubmissionsTotal.WithLabelValues(kind, outcome).Inc()
}

// IncrementListingFailure counts one degraded JSON listing.
func (m *Metrics) IncrementListingFailure(kind string) {
	m.ListingFailuresTotal.WithLabelValues(kind).Inc()
}

// IncrementArchive counts one snapshot upload attempt.
func (m *Metrics) IncrementArchive(table, outcome string) {
	m.ArchivesTotal.WithLabelValues(table, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

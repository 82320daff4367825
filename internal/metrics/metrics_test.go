package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.IncrementSubmission("facility", OutcomeAccepted)
	m.IncrementSubmission("facility", OutcomeAccepted)
	m.IncrementSubmission("facility", OutcomeInvalid)
	m.IncrementListingFailure("provider")
	m.IncrementArchive("volunteers", OutcomeAccepted)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SubmissionsTotal.WithLabelValues("facility", OutcomeAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubmissionsTotal.WithLabelValues("facility", OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ListingFailuresTotal.WithLabelValues("provider")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ArchivesTotal.WithLabelValues("volunteers", OutcomeAccepted)))
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.IncrementListingFailure("facility")

	assert.Equal(t, 0.0, testutil.ToFloat64(b.ListingFailuresTotal.WithLabelValues("facility")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.IncrementSubmission("volunteer", OutcomeAccepted)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `intake_submissions_total{kind="volunteer",outcome="accepted"} 1`)
}

package api

import (
	"net/http"

	"github.com/careconnect/intake/internal/domain"
	"github.com/careconnect/intake/internal/metrics"
	"github.com/careconnect/intake/internal/pkg/httputil"
	"github.com/careconnect/intake/internal/pkg/logger"
)

// ArchiveTable uploads the current CSV export of one kind to S3 and returns
// the snapshot location. 404 when archiving is not configured.
//
//	POST /admin/archive/{table}
func (h *Handlers) ArchiveTable(schema domain.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.archiver == nil {
			httputil.NotFound(w, "Archiving is not enabled")
			return
		}

		recs, err := h.registrations.List(r.Context(), schema.Kind)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}

		snap, err := h.archiver.Archive(r.Context(), schema, recs)
		if err != nil {
			h.metrics.IncrementArchive(schema.Table, metrics.OutcomeFailed)
			httputil.InternalError(w, err)
			return
		}

		h.metrics.IncrementArchive(schema.Table, metrics.OutcomeAccepted)
		logger.Info("export archived", "table", schema.Table, "key", snap.Key, "records", snap.Records)
		httputil.OK(w, snap)
	}
}

package api

import (
	"net/http"

	"github.com/samber/lo"

	"github.com/careconnect/intake/internal/domain"
	"github.com/careconnect/intake/internal/pkg/httputil"
	"github.com/careconnect/intake/internal/pkg/logger"
	"github.com/careconnect/intake/internal/render"
)

// ListingResponse is the JSON listing envelope.
type ListingResponse struct {
	Count       int              `json:"count"`
	Submissions []map[string]any `json:"submissions"`
}

// ListSubmissions returns every record of the kind, newest first. A failed
// read answers with an empty listing; the failure is logged and counted.
//
//	GET /submissions
//	GET /submissions/providers
//	GET /submissions/volunteers
func (h *Handlers) ListSubmissions(schema domain.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := h.registrations.List(r.Context(), schema.Kind)
		if err != nil {
			logger.Warn("listing read failed, returning empty result", "kind", schema.Kind, "error", err)
			h.metrics.IncrementListingFailure(string(schema.Kind))
			recs = nil
		}

		httputil.OK(w, ListingResponse{
			Count: len(recs),
			Submissions: lo.Map(recs, func(rec domain.Record, _ int) map[string]any {
				return rec.Map(schema)
			}),
		})
	}
}

// AdminIndex serves the admin landing page.
//
//	GET /admin
func (h *Handlers) AdminIndex(w http.ResponseWriter, r *http.Request) {
	body, err := render.AdminIndex(domain.Schemas())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.HTML(w, body)
}

// AdminTable serves the HTML table for one kind.
//
//	GET /admin/facilities
//	GET /admin/providers
//	GET /admin/volunteers
func (h *Handlers) AdminTable(schema domain.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := h.registrations.List(r.Context(), schema.Kind)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		body, err := render.AdminTable(schema, recs)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		httputil.HTML(w, body)
	}
}

// DownloadCSV serves one kind's records as a CSV attachment. An empty table
// yields an empty body.
//
//	GET /admin/download/{table}.csv
func (h *Handlers) DownloadCSV(schema domain.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := h.registrations.List(r.Context(), schema.Kind)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		body, err := render.CSV(schema, recs)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		httputil.Attachment(w, render.CSVContentType, schema.ExportFilename(), body)
	}
}

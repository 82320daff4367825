package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/careconnect/intake/internal/domain"
	"github.com/careconnect/intake/internal/metrics"
	"github.com/careconnect/intake/internal/pkg/httputil"
	"github.com/careconnect/intake/internal/pkg/logger"
	"github.com/careconnect/intake/internal/service/registration"
)

const (
	maxIntakeBody     = 1 << 20
	msgInvalidPayload = "Invalid JSON payload"
)

// Register accepts one registration of the given kind.
//
//	POST /register-facility
//	POST /register-provider
//	POST /register-volunteer
func (h *Handlers) Register(schema domain.Schema) http.HandlerFunc {
	kind := string(schema.Kind)
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := decodePayload(w, r, schema)
		if err == nil {
			_, err = h.registrations.Register(r.Context(), schema.Kind, payload)
		}

		var verr *registration.ValidationError
		switch {
		case err == nil:
			h.metrics.IncrementSubmission(kind, metrics.OutcomeAccepted)
			httputil.Created(w, schema.Message)
		case errors.Is(err, registration.ErrInvalidPayload):
			h.metrics.IncrementSubmission(kind, metrics.OutcomeInvalid)
			httputil.BadRequest(w, msgInvalidPayload)
		case errors.As(err, &verr):
			h.metrics.IncrementSubmission(kind, metrics.OutcomeInvalid)
			logger.Debug("registration rejected", "kind", kind, "missing", verr.Fields)
			httputil.BadRequest(w, verr.Error())
		default:
			h.metrics.IncrementSubmission(kind, metrics.OutcomeFailed)
			httputil.InternalError(w, rootCause(err))
		}
	}
}

// decodePayload reads a JSON object and keeps the schema's fields. Unknown
// keys are ignored whatever their type; schema fields must be strings or
// null. A JSON null body decodes to a nil map. The body must hold exactly
// one JSON value.
func decodePayload(w http.ResponseWriter, r *http.Request, schema domain.Schema) (map[string]string, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIntakeBody))
	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, registration.ErrInvalidPayload
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, registration.ErrInvalidPayload
	}
	if raw == nil {
		return nil, nil
	}

	payload := make(map[string]string, len(schema.Fields))
	for _, f := range schema.Fields {
		v, ok := raw[f]
		if !ok {
			continue
		}
		var s *string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, registration.ErrInvalidPayload
		}
		if s != nil {
			payload[f] = *s
		}
	}
	return payload, nil
}

// rootCause strips wrapping so the response carries the driver's own message.
func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

package registration

import (
	"errors"
	"strings"

	"github.com/careconnect/intake/internal/domain"
)

// Sentinel errors for the registration service layer.
var (
	ErrInvalidPayload = errors.New("invalid JSON payload")
	ErrUnknownKind    = errors.New("unknown record kind")
)

// ValidationError reports the required fields that were empty after trimming.
type ValidationError struct {
	Kind   domain.Kind
	Fields []string
}

func (e *ValidationError) Error() string {
	return "Missing required field(s): " + strings.Join(e.Fields, ", ")
}

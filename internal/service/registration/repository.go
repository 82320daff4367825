package registration

import (
	"context"

	"github.com/careconnect/intake/internal/domain"
)

// Repository defines the data access contract for registration records.
// Every method is parameterized by kind; implementations map it to a table.
type Repository interface {
	// EnsureSchema creates any missing tables. It must be safe to call on
	// every start against a store that already holds data.
	EnsureSchema(ctx context.Context) error

	// Insert appends rec to the kind's table and returns the identifier the
	// storage engine assigned. rec.ID is ignored.
	Insert(ctx context.Context, kind domain.Kind, rec domain.Record) (int64, error)

	// List returns every record of the kind, most recently created first.
	List(ctx context.Context, kind domain.Kind) ([]domain.Record, error)
}

// Notifier is told about every record that was stored successfully.
type Notifier interface {
	Notify(ctx context.Context, schema domain.Schema, rec domain.Record) error
}

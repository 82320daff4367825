package domain

import (
	"fmt"
	"strconv"
)

// Kind enumerates the registrant categories accepted by the intake service.
type Kind string

const (
	KindFacility  Kind = "facility"
	KindProvider  Kind = "provider"
	KindVolunteer Kind = "volunteer"
)

// Columns every table carries ahead of its kind-specific fields.
const (
	ColumnID        = "id"
	ColumnTimestamp = "timestamp"
)

// Schema describes how one record kind is stored and presented.
type Schema struct {
	Kind     Kind
	Table    string   // storage table, also used for admin paths and CSV names
	Title    string   // heading on the admin page
	Fields   []string // submitted fields in column order
	Required []string // subset of Fields that must be non-empty after trimming
	Message  string   // confirmation returned on successful intake
}

// Columns returns every column name in display order: id, timestamp, fields.
func (s Schema) Columns() []string {
	cols := make([]string, 0, len(s.Fields)+2)
	cols = append(cols, ColumnID, ColumnTimestamp)
	return append(cols, s.Fields...)
}

// ExportFilename is the attachment name used for CSV downloads.
func (s Schema) ExportFilename() string {
	return s.Table + ".csv"
}

var schemas = []Schema{
	{
		Kind:     KindFacility,
		Table:    "facilities",
		Title:    "Facilities",
		Fields:   []string{"facilityName", "contactPerson", "email", "phone", "city", "service", "description"},
		Required: []string{"facilityName", "email"},
		Message:  "Registration received",
	},
	{
		Kind:     KindProvider,
		Table:    "providers",
		Title:    "Providers",
		Fields:   []string{"providerName", "businessName", "email", "phone", "city", "service", "description"},
		Required: []string{"providerName", "email"},
		Message:  "Provider profile received",
	},
	{
		Kind:     KindVolunteer,
		Table:    "volunteers",
		Title:    "Volunteers",
		Fields:   []string{"name", "email", "phone", "city", "availability", "interests"},
		Required: []string{"name", "email"},
		Message:  "Volunteer registration received",
	},
}

// Schemas returns the schema of every kind in a stable order.
func Schemas() []Schema {
	out := make([]Schema, len(schemas))
	copy(out, schemas)
	return out
}

// SchemaFor returns the schema registered for kind.
func SchemaFor(kind Kind) (Schema, bool) {
	for _, s := range schemas {
		if s.Kind == kind {
			return s, true
		}
	}
	return Schema{}, false
}

// SchemaForTable looks a schema up by its table name ("facilities", ...).
func SchemaForTable(table string) (Schema, bool) {
	for _, s := range schemas {
		if s.Table == table {
			return s, true
		}
	}
	return Schema{}, false
}

// ParseKind accepts either a kind ("volunteer") or its table name ("volunteers").
func ParseKind(s string) (Kind, error) {
	if schema, ok := SchemaFor(Kind(s)); ok {
		return schema.Kind, nil
	}
	if schema, ok := SchemaForTable(s); ok {
		return schema.Kind, nil
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}

// Record is one stored registration. Fields holds the kind-specific columns
// keyed by column name; a missing key reads as the empty string.
type Record struct {
	ID        int64
	Timestamp string
	Fields    map[string]string
}

// Value returns the value of any column, including id and timestamp.
func (r Record) Value(column string) string {
	switch column {
	case ColumnID:
		return strconv.FormatInt(r.ID, 10)
	case ColumnTimestamp:
		return r.Timestamp
	}
	return r.Fields[column]
}

// Row returns the record's values in the schema's column order.
func (r Record) Row(s Schema) []string {
	cols := s.Columns()
	row := make([]string, len(cols))
	for i, c := range cols {
		row[i] = r.Value(c)
	}
	return row
}

// Map flattens the record into a column → value mapping for JSON responses.
// The id stays numeric; every other column is a string.
func (r Record) Map(s Schema) map[string]any {
	m := make(map[string]any, len(s.Fields)+2)
	m[ColumnID] = r.ID
	m[ColumnTimestamp] = r.Timestamp
	for _, f := range s.Fields {
		m[f] = r.Fields[f]
	}
	return m
}

// Package sqlstore implements registration.Repository on database/sql.
//
// One Store serves every record kind: each domain.Schema maps to its own
// table with an engine-assigned id, a server timestamp, and one TEXT column
// per field. SQLite (a single file in the submissions directory) and
// PostgreSQL are supported; they differ only in id column type and
// placeholder style.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/careconnect/intake/internal/domain"
)

// Dialect names the SQL flavour a Store speaks.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) idColumn() string {
	if d == Postgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

type statements struct {
	create string
	insert string
	list   string
}

// Store implements registration.Repository against a relational database.
type Store struct {
	db      *sql.DB
	dialect Dialect
	stmts   map[domain.Kind]statements
}

// New creates a Store over an open connection pool.
func New(db *sql.DB, dialect Dialect) *Store {
	s := &Store{db: db, dialect: dialect, stmts: make(map[domain.Kind]statements)}
	for _, schema := range domain.Schemas() {
		s.stmts[schema.Kind] = buildStatements(dialect, schema)
	}
	return s
}

// DB exposes the pool for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Ping verifies the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates the facilities, providers and volunteers tables if
// they do not exist. Existing tables and their rows are left untouched.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, schema := range domain.Schemas() {
		if _, err := s.db.ExecContext(ctx, s.stmts[schema.Kind].create); err != nil {
			return fmt.Errorf("create table %s: %w", schema.Table, err)
		}
	}
	return nil
}

// MissingTables reports which registration tables are absent from the
// database, in schema order.
func (s *Store) MissingTables(ctx context.Context) ([]string, error) {
	query := "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
	if s.dialect == Postgres {
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1"
	}

	var missing []string
	for _, schema := range domain.Schemas() {
		var n int
		if err := s.db.QueryRowContext(ctx, query, schema.Table).Scan(&n); err != nil {
			return nil, fmt.Errorf("inspect %s: %w", schema.Table, err)
		}
		if n == 0 {
			missing = append(missing, schema.Table)
		}
	}
	return missing, nil
}

// Insert appends one row and returns the id the engine assigned.
func (s *Store) Insert(ctx context.Context, kind domain.Kind, rec domain.Record) (int64, error) {
	schema, st, err := s.lookup(kind)
	if err != nil {
		return 0, err
	}

	args := make([]interface{}, 0, len(schema.Fields)+1)
	args = append(args, rec.Timestamp)
	for _, f := range schema.Fields {
		args = append(args, rec.Fields[f])
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, st.insert, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert %s: %w", schema.Table, err)
	}
	return id, nil
}

// List returns every row of the kind's table ordered by id descending.
func (s *Store) List(ctx context.Context, kind domain.Kind) ([]domain.Record, error) {
	schema, st, err := s.lookup(kind)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, st.list)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", schema.Table, err)
	}
	defer rows.Close()

	out := []domain.Record{}
	values := make([]string, len(schema.Fields))
	dest := make([]interface{}, 0, len(schema.Fields)+2)
	for rows.Next() {
		var rec domain.Record
		dest = append(dest[:0], &rec.ID, &rec.Timestamp)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", schema.Table, err)
		}
		rec.Fields = make(map[string]string, len(schema.Fields))
		for i, f := range schema.Fields {
			rec.Fields[f] = values[i]
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", schema.Table, err)
	}
	return out, nil
}

func (s *Store) lookup(kind domain.Kind) (domain.Schema, statements, error) {
	schema, ok := domain.SchemaFor(kind)
	if !ok {
		return domain.Schema{}, statements{}, fmt.Errorf("unknown record kind %q", kind)
	}
	return schema, s.stmts[kind], nil
}

func buildStatements(d Dialect, schema domain.Schema) statements {
	table := pq.QuoteIdentifier(schema.Table)
	id := pq.QuoteIdentifier(domain.ColumnID)
	ts := pq.QuoteIdentifier(domain.ColumnTimestamp)

	defs := []string{
		id + " " + d.idColumn(),
		ts + " TEXT NOT NULL",
	}
	insertCols := []string{ts}
	selectCols := []string{id, "COALESCE(" + ts + ", '')"}
	for _, f := range schema.Fields {
		col := pq.QuoteIdentifier(f)
		defs = append(defs, col+" TEXT NOT NULL DEFAULT ''")
		insertCols = append(insertCols, col)
		// Rows written by older tooling may hold NULLs.
		selectCols = append(selectCols, "COALESCE("+col+", '')")
	}

	marks := make([]string, len(insertCols))
	for i := range marks {
		marks[i] = d.placeholder(i + 1)
	}

	return statements{
		create: fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", ")),
		insert: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
			table, strings.Join(insertCols, ", "), strings.Join(marks, ", "), id),
		list: fmt.Sprintf("SELECT %s FROM %s ORDER BY %s DESC", strings.Join(selectCols, ", "), table, id),
	}
}

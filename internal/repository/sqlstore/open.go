package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver, registers "sqlite"

	"github.com/careconnect/intake/internal/config"
)

// Open connects to the store described by cfg and verifies the connection.
// For sqlite the submissions directory is created on demand.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, Dialect, error) {
	var (
		db      *sql.DB
		dialect Dialect
		err     error
	)

	switch Dialect(cfg.Driver) {
	case SQLite:
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, "", fmt.Errorf("creating submissions directory: %w", err)
		}
		dialect = SQLite
		db, err = sql.Open("sqlite", sqliteDSN(cfg.Path()))
	case Postgres:
		dialect = Postgres
		db, err = sql.Open("postgres", cfg.URL)
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", dialect, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", dialect, err)
	}
	return db, dialect, nil
}

// sqliteDSN waits on locks instead of failing fast and enables WAL so
// readers do not block the single writer.
func sqliteDSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

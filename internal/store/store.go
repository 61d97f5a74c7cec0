// Package store keeps scored results in a local DuckDB or SQLite database so
// runs can be summarized and served without rereading every artifact.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite"
)

const busyTimeout = 5 * time.Second

//go:embed schema.sql
var schemaDDL string

// SchemaDDL returns the schema applied on open.
func SchemaDDL() string {
	return schemaDDL
}

// Store is an open results database. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	driver string
	path   string
	now    func() time.Time
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, driver, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store: path is required")
	}
	var dsn string
	switch driver {
	case DriverDuckDB:
		dsn = path
	case DriverSQLite:
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, busyTimeout.Milliseconds())
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driver, err)
	}
	// Both engines serialize writers; one connection avoids lock errors.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", driver, err)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Store{db: db, driver: driver, path: path, now: time.Now}, nil
}

// Driver returns the driver name the store was opened with.
func (s *Store) Driver() string {
	return s.driver
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

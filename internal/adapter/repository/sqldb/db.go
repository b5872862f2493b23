package sqldb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// schema is created on open. Dates and closes are stored as text so the same
// statements behave identically on sqlite3 and postgres; dates use the
// ISO-8601 day format, which also sorts correctly as text.
const schema = `
CREATE TABLE IF NOT EXISTS valeur_marche (
	ticker TEXT NOT NULL,
	date   TEXT NOT NULL,
	close  TEXT NOT NULL,
	PRIMARY KEY (ticker, date)
)
`

// Open creates the database connection and ensures the schema exists.
// driver is "sqlite3" (dsn = file path) or "postgres" (dsn = connection string).
func Open(driver, dsn string) (*DB, error) {
	if driver == "sqlite3" {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if driver == "sqlite3" {
		// SQLite handles a single writer; avoid SQLITE_BUSY from pooling.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &DB{DB: db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

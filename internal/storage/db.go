// Package storage persists collections and deck statistics in SQLite and
// materializes the in-memory snapshots the analysis engine reads.
package storage

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// DB wraps the database connection.
type DB struct {
	conn *sql.DB
}

// Config holds database configuration settings.
type Config struct {
	// Path is the SQLite file. ":memory:" opens a private in-memory database.
	Path string

	// MaxOpenConns limits open connections. SQLite serializes writers, so
	// the CLI uses a small pool.
	MaxOpenConns int

	// BusyTimeout is how long a statement waits on a locked database.
	BusyTimeout time.Duration

	// JournalMode is the SQLite journal mode: WAL, DELETE, TRUNCATE or MEMORY.
	JournalMode string

	// AutoMigrate applies pending migrations on Open.
	AutoMigrate bool
}

// DefaultConfig returns a Config with default values for path.
func DefaultConfig(path string) *Config {
	return &Config{
		Path:         path,
		MaxOpenConns: 1,
		BusyTimeout:  5 * time.Second,
		JournalMode:  "WAL",
	}
}

// dsn builds a modernc.org/sqlite data source name with pragmas.
func (c *Config) dsn() string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	q.Add("_pragma", "foreign_keys(1)")
	if c.Path != ":memory:" && c.JournalMode != "" {
		q.Add("_pragma", fmt.Sprintf("journal_mode(%s)", c.JournalMode))
	}
	return c.Path + "?" + q.Encode()
}

// Open creates a database connection. With AutoMigrate set, pending
// migrations are applied before the connection is returned.
func Open(config *Config) (*DB, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	if config.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(config.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	if config.AutoMigrate && config.Path != ":memory:" {
		mgr, err := NewMigrationManager(config.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create migration manager: %w", err)
		}
		upErr := mgr.Up()
		closeErr := mgr.Close()
		if upErr != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", upErr)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("failed to close migration manager: %w", closeErr)
		}
	}

	conn, err := sql.Open("sqlite", config.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxConns := config.MaxOpenConns
	if maxConns <= 0 {
		maxConns = 1
	}
	conn.SetMaxOpenConns(maxConns)
	conn.SetMaxIdleConns(maxConns)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Ping verifies the connection is alive.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// Conn returns the underlying sql.DB connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

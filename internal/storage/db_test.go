package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig("test.db")

	if config.Path != "test.db" {
		t.Errorf("expected path 'test.db', got '%s'", config.Path)
	}
	if config.MaxOpenConns != 1 {
		t.Errorf("expected MaxOpenConns 1, got %d", config.MaxOpenConns)
	}
	if config.BusyTimeout != 5*time.Second {
		t.Errorf("expected BusyTimeout 5s, got %v", config.BusyTimeout)
	}
	if config.JournalMode != "WAL" {
		t.Errorf("expected JournalMode 'WAL', got '%s'", config.JournalMode)
	}
	if config.AutoMigrate {
		t.Error("expected AutoMigrate off by default")
	}
}

func TestOpen(t *testing.T) {
	db, err := Open(DefaultConfig(":memory:"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		t.Errorf("failed to ping database: %v", err)
	}
	if db.Conn() == nil {
		t.Error("expected non-nil connection")
	}

	var fk int
	if err := db.Conn().QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("failed to read pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign keys enabled, got %d", fk)
	}
}

func TestOpenInvalidConfig(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("expected error when opening with nil config")
	}
	if _, err := Open(&Config{}); err == nil {
		t.Error("expected error when opening with empty path")
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "ponderous.db")
	db, err := Open(DefaultConfig(path))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	var mode string
	if err := db.Conn().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("failed to read journal mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("expected wal journal mode, got %q", mode)
	}
}

func TestClose(t *testing.T) {
	db, err := Open(DefaultConfig(":memory:"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("failed to close database: %v", err)
	}
	if err := db.Ping(); err == nil {
		t.Error("expected error when pinging closed database")
	}
}

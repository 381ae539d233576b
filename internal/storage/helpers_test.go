package storage

import (
	"path/filepath"
	"testing"
)

// setupTestService creates a service over a migrated temporary database file.
func setupTestService(t *testing.T) *Service {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	config := DefaultConfig(dbPath)
	config.AutoMigrate = true
	db, err := Open(config)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return NewService(db)
}

package db

import (
	"path/filepath"
	"testing"
)

// SetupTestDB opens a throwaway sqlite database with the full schema.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	database, err := Open(Config{
		Driver: DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "ledger_test.db"),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := database.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() { database.Close() })
	return database
}

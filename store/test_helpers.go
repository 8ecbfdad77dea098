package store

import (
	"path/filepath"
	"testing"
)

// newTestDB opens a migrated database in a per-test temporary directory.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.MigrateUp(); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

// Package store persists grid-search runs and tracked experiments in
// SQLite. Schema changes are managed with embedded migrations.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection used by the stores.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the database at path and applies the standard
// PRAGMAs. Callers normally run MigrateUp next.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: applying %s: %w", pragma, err)
		}
	}

	return &DB{db}, nil
}

// isSQLiteBusy reports whether an error is a transient SQLITE_BUSY.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy retries fn with a short backoff while it returns busy errors.
// Other errors fail immediately.
func retryOnBusy(fn func() error) error {
	const maxAttempts = 5
	backoff := 10 * time.Millisecond

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn()
		if err == nil || !isSQLiteBusy(err) {
			return err
		}
		time.Sleep(backoff)
		backoff *= 2
	}
	return err
}

// nullStr converts empty strings to NULL parameters.
func nullStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

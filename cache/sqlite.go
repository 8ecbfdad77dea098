package cache

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is a KeyValue backed by a single-table SQLite database. Safe for
// concurrent use within one process; writes retry briefly when the database
// is busy.
type SQLite struct {
	db *sql.DB
}

var _ KeyValue = (*SQLite)(nil)

// OpenSQLite opens (or creates) a cache database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("cache: applying %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: creating kv table: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (c *SQLite) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := c.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: reading key %q: %w", key, err)
	}
	return value, true, nil
}

func (c *SQLite) Set(key string, value []byte) error {
	err := retryOnBusy(func() error {
		_, err := c.db.Exec(`
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, value)
		return err
	})
	if err != nil {
		return fmt.Errorf("cache: writing key %q: %w", key, err)
	}
	return nil
}

func (c *SQLite) Close() error { return c.db.Close() }

// isSQLiteBusy matches the lock-contention errors the modernc driver surfaces
// as plain strings.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// retryOnBusy retries fn with exponential backoff while it reports a busy
// database, up to 5 attempts. Non-busy errors fail immediately.
func retryOnBusy(fn func() error) error {
	const maxAttempts = 5
	delay := 10 * time.Millisecond
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay *= 2
		}
		err = fn()
		if err == nil || !isSQLiteBusy(err) {
			return err
		}
	}
	return err
}

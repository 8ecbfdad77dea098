package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses recorded in sweep_runs.status.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
	RunStatusCancelled = "cancelled"
)

// SweepRun is one persisted grid-search run.
type SweepRun struct {
	RunID        string          `json:"run_id"`
	Name         string          `json:"name"`
	Algorithm    string          `json:"algorithm"`
	ParamsJSON   json.RawMessage `json:"params_json"`
	Status       string          `json:"status"`
	Combinations int             `json:"combinations"`
	Error        string          `json:"error,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
}

// SweepResult is one scored parameter combination within a run.
type SweepResult struct {
	ResultID    string          `json:"result_id"`
	RunID       string          `json:"run_id"`
	ParamsJSON  json.RawMessage `json:"params_json"`
	MetricsJSON json.RawMessage `json:"metrics_json"`
	DurationMs  int64           `json:"duration_ms"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SweepStore persists grid-search runs and their per-combination results.
type SweepStore struct {
	db *DB
}

// NewSweepStore creates a SweepStore over an open database.
func NewSweepStore(db *DB) *SweepStore {
	return &SweepStore{db: db}
}

// InsertRun records a run at start time. An empty RunID is filled with a
// fresh UUID; an empty Status defaults to running.
func (s *SweepStore) InsertRun(run *SweepRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.Status == "" {
		run.Status = RunStatusRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO sweep_runs (run_id, name, algorithm, params_json, status, combinations, error, started_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.Name, run.Algorithm, string(run.ParamsJSON),
			run.Status, run.Combinations, nullStr(run.Error), run.StartedAt.UnixNano(),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("store: inserting run %s: %w", run.RunID, err)
	}
	return nil
}

// FinishRun finalises a run's status, error message and finish timestamp.
func (s *SweepStore) FinishRun(runID, status, errMsg string) error {
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			UPDATE sweep_runs SET status = ?, error = ?, finished_at = ? WHERE run_id = ?`,
			status, nullStr(errMsg), time.Now().UnixNano(), runID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("store: finishing run %s: %w", runID, err)
	}
	return nil
}

// InsertResult records one scored combination. An empty ResultID is filled
// with a fresh UUID.
func (s *SweepStore) InsertResult(result *SweepResult) error {
	if result.ResultID == "" {
		result.ResultID = uuid.New().String()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}

	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO sweep_results (result_id, run_id, params_json, metrics_json, duration_ms, error, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			result.ResultID, result.RunID, string(result.ParamsJSON), string(result.MetricsJSON),
			result.DurationMs, nullStr(result.Error), result.CreatedAt.UnixNano(),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("store: inserting result %s: %w", result.ResultID, err)
	}
	return nil
}

// GetRun returns a single run by id.
func (s *SweepStore) GetRun(runID string) (*SweepRun, error) {
	row := s.db.QueryRow(`
		SELECT run_id, name, algorithm, params_json, status, combinations, error, started_at, finished_at
		FROM sweep_runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("store: run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("store: getting run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns all runs, most recent first.
func (s *SweepStore) ListRuns() ([]*SweepRun, error) {
	rows, err := s.db.Query(`
		SELECT run_id, name, algorithm, params_json, status, combinations, error, started_at, finished_at
		FROM sweep_runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*SweepRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ResultsForRun returns all results of a run in insertion order.
func (s *SweepStore) ResultsForRun(runID string) ([]*SweepResult, error) {
	rows, err := s.db.Query(`
		SELECT result_id, run_id, params_json, metrics_json, duration_ms, error, created_at
		FROM sweep_results WHERE run_id = ? ORDER BY created_at ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: listing results for run %s: %w", runID, err)
	}
	defer rows.Close()

	var results []*SweepResult
	for rows.Next() {
		var r SweepResult
		var params, metrics string
		var errStr sql.NullString
		var createdAt int64
		if err := rows.Scan(&r.ResultID, &r.RunID, &params, &metrics, &r.DurationMs, &errStr, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scanning result: %w", err)
		}
		r.ParamsJSON = json.RawMessage(params)
		r.MetricsJSON = json.RawMessage(metrics)
		r.Error = errStr.String
		r.CreatedAt = time.Unix(0, createdAt)
		results = append(results, &r)
	}
	return results, rows.Err()
}

// DeleteRun removes a run and, via the foreign key cascade, its results.
func (s *SweepStore) DeleteRun(runID string) error {
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`DELETE FROM sweep_runs WHERE run_id = ?`, runID)
		return err
	})
	if err != nil {
		return fmt.Errorf("store: deleting run %s: %w", runID, err)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*SweepRun, error) {
	var run SweepRun
	var params string
	var errStr sql.NullString
	var startedAt int64
	var finishedAt sql.NullInt64

	err := row.Scan(&run.RunID, &run.Name, &run.Algorithm, &params, &run.Status,
		&run.Combinations, &errStr, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	run.ParamsJSON = json.RawMessage(params)
	run.Error = errStr.String
	run.StartedAt = time.Unix(0, startedAt)
	if finishedAt.Valid {
		t := time.Unix(0, finishedAt.Int64)
		run.FinishedAt = &t
	}
	return &run, nil
}

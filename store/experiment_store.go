package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Experiment is a named container for tracked metric records.
type Experiment struct {
	ExperimentID string    `json:"experiment_id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValueRecord is one tracked metrics dict with optional string context.
type ValueRecord struct {
	ValueID      string             `json:"value_id"`
	ExperimentID string             `json:"experiment_id"`
	Values       map[string]float64 `json:"values"`
	Context      map[string]string  `json:"context,omitempty"`
	RecordedAt   time.Time          `json:"recorded_at"`
}

// ExperimentStore persists experiments and their tracked values.
type ExperimentStore struct {
	db *DB
}

// NewExperimentStore creates an ExperimentStore over an open database.
func NewExperimentStore(db *DB) *ExperimentStore {
	return &ExperimentStore{db: db}
}

// CreateExperiment registers a named experiment and returns it with a fresh
// id.
func (s *ExperimentStore) CreateExperiment(name string) (*Experiment, error) {
	exp := &Experiment{
		ExperimentID: uuid.New().String(),
		Name:         name,
		CreatedAt:    time.Now(),
	}
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO experiments (experiment_id, name, created_at) VALUES (?, ?, ?)`,
			exp.ExperimentID, exp.Name, exp.CreatedAt.UnixNano(),
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("store: creating experiment %q: %w", name, err)
	}
	return exp, nil
}

// AppendValues records one tracked metrics dict for an experiment.
func (s *ExperimentStore) AppendValues(experimentID string, values map[string]float64, context map[string]string) error {
	valuesJSON, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("store: encoding values: %w", err)
	}
	var contextJSON interface{}
	if len(context) > 0 {
		data, err := json.Marshal(context)
		if err != nil {
			return fmt.Errorf("store: encoding context: %w", err)
		}
		contextJSON = string(data)
	}

	err = retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO experiment_values (value_id, experiment_id, values_json, context_json, recorded_at)
			VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), experimentID, string(valuesJSON), contextJSON, time.Now().UnixNano(),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("store: appending values to experiment %s: %w", experimentID, err)
	}
	return nil
}

// ValuesForExperiment returns all tracked records of an experiment in
// recording order.
func (s *ExperimentStore) ValuesForExperiment(experimentID string) ([]*ValueRecord, error) {
	rows, err := s.db.Query(`
		SELECT value_id, experiment_id, values_json, context_json, recorded_at
		FROM experiment_values WHERE experiment_id = ? ORDER BY recorded_at ASC`, experimentID)
	if err != nil {
		return nil, fmt.Errorf("store: listing values for experiment %s: %w", experimentID, err)
	}
	defer rows.Close()

	var records []*ValueRecord
	for rows.Next() {
		var r ValueRecord
		var valuesJSON string
		var contextJSON sql.NullString
		var recordedAt int64
		if err := rows.Scan(&r.ValueID, &r.ExperimentID, &valuesJSON, &contextJSON, &recordedAt); err != nil {
			return nil, fmt.Errorf("store: scanning value record: %w", err)
		}
		if err := json.Unmarshal([]byte(valuesJSON), &r.Values); err != nil {
			return nil, fmt.Errorf("store: decoding values for %s: %w", r.ValueID, err)
		}
		if contextJSON.Valid {
			if err := json.Unmarshal([]byte(contextJSON.String), &r.Context); err != nil {
				return nil, fmt.Errorf("store: decoding context for %s: %w", r.ValueID, err)
			}
		}
		r.RecordedAt = time.Unix(0, recordedAt)
		records = append(records, &r)
	}
	return records, rows.Err()
}

// ListExperiments returns all experiments, most recent first.
func (s *ExperimentStore) ListExperiments() ([]*Experiment, error) {
	rows, err := s.db.Query(`
		SELECT experiment_id, name, created_at FROM experiments ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: listing experiments: %w", err)
	}
	defer rows.Close()

	var exps []*Experiment
	for rows.Next() {
		var e Experiment
		var createdAt int64
		if err := rows.Scan(&e.ExperimentID, &e.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scanning experiment: %w", err)
		}
		e.CreatedAt = time.Unix(0, createdAt)
		exps = append(exps, &e)
	}
	return exps, rows.Err()
}

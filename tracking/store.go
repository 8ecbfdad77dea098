package tracking

import (
	"log"

	"github.com/jambit/sensAI/store"
)

// StoreExperiment appends tracked records to the SQLite experiment store.
// Persistence errors are logged, not returned.
type StoreExperiment struct {
	store      *store.ExperimentStore
	experiment *store.Experiment
	additional map[string]float64
}

var _ Experiment = (*StoreExperiment)(nil)

// NewStoreExperiment registers a named experiment in the store and returns
// a sink appending to it.
func NewStoreExperiment(s *store.ExperimentStore, name string) (*StoreExperiment, error) {
	exp, err := s.CreateExperiment(name)
	if err != nil {
		return nil, err
	}
	return &StoreExperiment{store: s, experiment: exp}, nil
}

// WithAdditionalValues merges the given values into every tracked dict.
// Tracked values win on key collision.
func (e *StoreExperiment) WithAdditionalValues(values map[string]float64) *StoreExperiment {
	e.additional = values
	return e
}

// ExperimentID returns the id under which records are stored.
func (e *StoreExperiment) ExperimentID() string { return e.experiment.ExperimentID }

// TrackValues implements Experiment.
func (e *StoreExperiment) TrackValues(values map[string]float64, opts ...TrackOption) {
	call := applyOptions(opts)
	merged := mergeAdditional(values, e.additional)

	if err := e.store.AppendValues(e.experiment.ExperimentID, merged, call.context); err != nil {
		log.Printf("[tracking] WARNING: dropping record for %s: %v", e.experiment.Name, err)
	}
}

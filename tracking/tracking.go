// Package tracking forwards run metrics and parameters to experiment sinks:
// the process log, an HTTP tracking service, or the SQLite experiment store.
// Evaluators and the grid search embed Mixin and call TrackValues with their
// metrics dicts; tracking failures are logged but never abort a run.
package tracking

import (
	"fmt"
	"log"
	"sort"
	"strings"
)

// Experiment receives metric dicts from tracked runs.
type Experiment interface {
	// TrackValues forwards one metrics dict. Options can attach string
	// context (model name, parameter assignment, fold index).
	TrackValues(values map[string]float64, opts ...TrackOption)
}

// TrackOption modifies a single TrackValues call.
type TrackOption func(*trackCall)

type trackCall struct {
	context map[string]string
}

// WithContextValues attaches string context columns to a tracked record.
func WithContextValues(context map[string]string) TrackOption {
	return func(c *trackCall) {
		if c.context == nil {
			c.context = make(map[string]string, len(context))
		}
		for k, v := range context {
			c.context[k] = v
		}
	}
}

func applyOptions(opts []TrackOption) trackCall {
	var c trackCall
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// ContextOf returns the merged context carried by the given options. It is
// for Experiment implementations outside this package.
func ContextOf(opts ...TrackOption) map[string]string {
	return applyOptions(opts).context
}

// mergeAdditional merges static additional values under the tracked dict;
// tracked values win on key collision.
func mergeAdditional(values, additional map[string]float64) map[string]float64 {
	if len(additional) == 0 {
		return values
	}
	merged := make(map[string]float64, len(values)+len(additional))
	for k, v := range additional {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}
	return merged
}

// Mixin makes a type trackable. The zero value is ready to use; tracking is
// disabled until SetTrackedExperiment is called.
type Mixin struct {
	experiment Experiment
}

// SetTrackedExperiment enables tracking to the given experiment.
func (m *Mixin) SetTrackedExperiment(e Experiment) { m.experiment = e }

// UnsetTrackedExperiment disables tracking.
func (m *Mixin) UnsetTrackedExperiment() { m.experiment = nil }

// TrackedExperiment returns the current experiment, nil when unset.
func (m *Mixin) TrackedExperiment() Experiment { return m.experiment }

// Track forwards values to the tracked experiment if one is set.
func (m *Mixin) Track(values map[string]float64, opts ...TrackOption) {
	if m.experiment == nil {
		return
	}
	m.experiment.TrackValues(values, opts...)
}

// LogExperiment writes tracked values to the process log, one sorted k=v
// line per call.
type LogExperiment struct {
	name       string
	additional map[string]float64
}

var _ Experiment = (*LogExperiment)(nil)

// NewLogExperiment builds a log-sink experiment.
func NewLogExperiment(name string) *LogExperiment {
	return &LogExperiment{name: name}
}

// WithAdditionalValues merges the given values into every tracked dict.
// Tracked values win on key collision.
func (e *LogExperiment) WithAdditionalValues(values map[string]float64) *LogExperiment {
	e.additional = values
	return e
}

// TrackValues implements Experiment.
func (e *LogExperiment) TrackValues(values map[string]float64, opts ...TrackOption) {
	call := applyOptions(opts)
	merged := mergeAdditional(values, e.additional)

	parts := make([]string, 0, len(merged)+len(call.context))
	for _, k := range sortedKeys(merged) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, merged[k]))
	}
	contextKeys := make([]string, 0, len(call.context))
	for k := range call.context {
		contextKeys = append(contextKeys, k)
	}
	sort.Strings(contextKeys)
	for _, k := range contextKeys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, call.context[k]))
	}

	log.Printf("[tracking] %s: %s", e.name, strings.Join(parts, " "))
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

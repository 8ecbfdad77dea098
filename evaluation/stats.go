package evaluation

import (
	"fmt"
	"math"
	"sort"

	"github.com/jambit/sensAI/model"
)

// ModelEvaluator is the common surface of the supervised evaluators: fit on
// the train partition, evaluate on the test partition, flatten to a metrics
// dict.
type ModelEvaluator interface {
	FitModel(m model.Model) error
	EvalMetrics(m model.Model) (map[string]float64, error)
}

// MetricsDict fits the model with the evaluator and returns its flattened
// metrics.
func MetricsDict(m model.Model, e ModelEvaluator) (map[string]float64, error) {
	if err := e.FitModel(m); err != nil {
		return nil, err
	}
	return e.EvalMetrics(m)
}

// StatsCollection accumulates metrics dicts, typically one per
// cross-validation fold, and aggregates them.
type StatsCollection struct {
	dicts []map[string]float64
}

// Add appends one metrics dict.
func (c *StatsCollection) Add(metrics map[string]float64) {
	c.dicts = append(c.dicts, metrics)
}

// Len returns the number of collected dicts.
func (c *StatsCollection) Len() int { return len(c.dicts) }

// Dicts returns the collected dicts in insertion order.
func (c *StatsCollection) Dicts() []map[string]float64 { return c.dicts }

// Agg returns mean[X] and std[X] entries for every metric X occurring in
// the collection. Metrics missing from some dicts are aggregated over the
// dicts that carry them.
func (c *StatsCollection) Agg() map[string]float64 {
	byMetric := make(map[string][]float64)
	for _, dict := range c.dicts {
		for k, v := range dict {
			byMetric[k] = append(byMetric[k], v)
		}
	}

	keys := make([]string, 0, len(byMetric))
	for k := range byMetric {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	agg := make(map[string]float64, 2*len(keys))
	for _, k := range keys {
		mean, std := MeanStddev(byMetric[k])
		agg[fmt.Sprintf("mean[%s]", k)] = mean
		agg[fmt.Sprintf("std[%s]", k)] = std
	}
	return agg
}

// MeanStddev returns the mean and sample standard deviation of a slice.
// Returns (0, 0) for empty input.
func MeanStddev(xs []float64) (mean, stddev float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	mean = sum / float64(len(xs))

	if len(xs) > 1 {
		var sq float64
		for _, v := range xs {
			d := v - mean
			sq += d * d
		}
		stddev = math.Sqrt(sq / float64(len(xs)-1))
	}
	return mean, stddev
}

package gridsearch

import (
	"fmt"
	"sort"
)

// Weights maps metric names to their contribution in a composite score.
// Positive weights reward high metric values, negative weights penalise
// them, so a minimised metric gets a negative weight.
type Weights map[string]float64

// Score computes the weighted sum of the result's metrics. Metrics absent
// from the result contribute nothing.
func (w Weights) Score(res Result) float64 {
	var score float64
	for metric, weight := range w {
		if v, ok := res.Metrics[metric]; ok {
			score += weight * v
		}
	}
	return score
}

// Rank returns the successful rows sorted by descending weighted score.
func Rank(results *Results, weights Weights) []Result {
	var rows []Result
	for _, row := range results.Rows() {
		if row.Err == nil {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return weights.Score(rows[i]) > weights.Score(rows[j])
	})
	return rows
}

// Bound constrains one metric; nil Min or Max means unconstrained on that
// side.
type Bound struct {
	Min *float64
	Max *float64
}

// Acceptance is a set of per-metric bounds a result must satisfy.
type Acceptance map[string]Bound

// Evaluate checks the result against all bounds. It returns whether the
// result passes and, when it does not, one reason per violated or missing
// bound.
func (a Acceptance) Evaluate(res Result) (pass bool, reasons []string) {
	metrics := make([]string, 0, len(a))
	for m := range a {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)

	for _, metric := range metrics {
		bound := a[metric]
		v, ok := res.Metrics[metric]
		if !ok {
			reasons = append(reasons, fmt.Sprintf("metric %s missing", metric))
			continue
		}
		if bound.Min != nil && v < *bound.Min {
			reasons = append(reasons, fmt.Sprintf("%s=%.6f below min %.6f", metric, v, *bound.Min))
		}
		if bound.Max != nil && v > *bound.Max {
			reasons = append(reasons, fmt.Sprintf("%s=%.6f above max %.6f", metric, v, *bound.Max))
		}
	}
	return len(reasons) == 0, reasons
}

// Filter returns the rows accepted by the criteria.
func (a Acceptance) Filter(results *Results) []Result {
	var accepted []Result
	for _, row := range results.Rows() {
		if row.Err != nil {
			continue
		}
		if pass, _ := a.Evaluate(row); pass {
			accepted = append(accepted, row)
		}
	}
	return accepted
}

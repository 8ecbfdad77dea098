package gridsearch

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"
)

// Result is the outcome of evaluating one parameter combination. A failed
// combination carries its error and an empty metrics dict.
type Result struct {
	ID       string             `json:"id"`
	Params   Assignment         `json:"params"`
	Metrics  map[string]float64 `json:"metrics"`
	Duration time.Duration      `json:"duration"`
	Err      error              `json:"-"`
}

// Results collects the result rows of a sweep with a stable column
// ordering.
type Results struct {
	rows       []Result
	paramNames []string
}

// NewResults builds a result collection with the given parameter column
// order.
func NewResults(paramNames []string) *Results {
	return &Results{paramNames: paramNames}
}

// Add appends a result row.
func (r *Results) Add(res Result) {
	r.rows = append(r.rows, res)
}

// Rows returns the result rows in completion order.
func (r *Results) Rows() []Result { return r.rows }

// Len returns the number of result rows.
func (r *Results) Len() int { return len(r.rows) }

// Failed returns the rows whose evaluation errored.
func (r *Results) Failed() []Result {
	var failed []Result
	for _, row := range r.rows {
		if row.Err != nil {
			failed = append(failed, row)
		}
	}
	return failed
}

// ParamColumns returns the parameter column names in declaration order.
func (r *Results) ParamColumns() []string { return r.paramNames }

// MetricColumns returns the union of metric names across all rows, sorted.
func (r *Results) MetricColumns() []string {
	set := make(map[string]bool)
	for _, row := range r.rows {
		for k := range row.Metrics {
			set[k] = true
		}
	}
	return sortedKeys(set)
}

// Best returns the successful row with the smallest (ascending) or largest
// metric value. Rows missing the metric are skipped; ok is false when no
// row carries it.
func (r *Results) Best(metric string, ascending bool) (Result, bool) {
	var best Result
	found := false
	for _, row := range r.rows {
		if row.Err != nil {
			continue
		}
		v, present := row.Metrics[metric]
		if !present {
			continue
		}
		if !found {
			best, found = row, true
			continue
		}
		if (ascending && v < best.Metrics[metric]) || (!ascending && v > best.Metrics[metric]) {
			best = row
		}
	}
	return best, found
}

// SortBy sorts the rows in place by the metric, ascending. Rows missing
// the metric (including failed rows) sort last, in their original order.
func (r *Results) SortBy(metric string) {
	sort.SliceStable(r.rows, func(i, j int) bool {
		vi, oki := r.rows[i].Metrics[metric]
		vj, okj := r.rows[j].Metrics[metric]
		if oki != okj {
			return oki
		}
		return vi < vj
	})
}

// ToCSV writes the results as CSV: one row per combination with parameter
// columns, metric columns, duration and error.
func (r *Results) ToCSV(w io.Writer) error {
	metricCols := r.MetricColumns()

	header := make([]string, 0, len(r.paramNames)+len(metricCols)+2)
	header = append(header, r.paramNames...)
	header = append(header, metricCols...)
	header = append(header, "duration_ms", "error")

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range r.rows {
		record := make([]string, 0, len(header))
		for _, name := range r.paramNames {
			record = append(record, formatValue(row.Params[name]))
		}
		for _, m := range metricCols {
			if v, ok := row.Metrics[m]; ok {
				record = append(record, fmt.Sprintf("%.6f", v))
			} else {
				record = append(record, "")
			}
		}
		record = append(record, strconv.FormatInt(row.Duration.Milliseconds(), 10))
		if row.Err != nil {
			record = append(record, row.Err.Error())
		} else {
			record = append(record, "")
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the results to the given path.
func (r *Results) WriteCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("gridsearch: creating %s: %w", path, err)
	}
	if err := r.ToCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("gridsearch: writing %s: %w", path, err)
	}
	return f.Close()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case float64:
		return fmt.Sprintf("%.6f", val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

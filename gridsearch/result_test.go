package gridsearch

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults() *Results {
	r := NewResults([]string{"eps", "minPts"})
	r.Add(Result{
		ID:       "r1",
		Params:   Assignment{"eps": 0.2, "minPts": 4},
		Metrics:  map[string]float64{"silhouette": 0.5, "numClusters": 3},
		Duration: 120 * time.Millisecond,
	})
	r.Add(Result{
		ID:       "r2",
		Params:   Assignment{"eps": 0.4, "minPts": 4},
		Metrics:  map[string]float64{"silhouette": 0.9, "numClusters": 2},
		Duration: 80 * time.Millisecond,
	})
	r.Add(Result{
		ID:     "r3",
		Params: Assignment{"eps": 0.8, "minPts": 4},
		Err:    errors.New("eps too large"),
	})
	return r
}

func TestResultsBest(t *testing.T) {
	t.Parallel()

	r := sampleResults()

	best, ok := r.Best("silhouette", false)
	require.True(t, ok)
	assert.Equal(t, "r2", best.ID)

	best, ok = r.Best("numClusters", true)
	require.True(t, ok)
	assert.Equal(t, "r2", best.ID)

	_, ok = r.Best("unknownMetric", false)
	assert.False(t, ok)
}

func TestResultsSortBy(t *testing.T) {
	t.Parallel()

	r := sampleResults()
	r.SortBy("silhouette")

	rows := r.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, "r1", rows[0].ID)
	assert.Equal(t, "r2", rows[1].ID)
	assert.Equal(t, "r3", rows[2].ID, "failed rows sort last")
}

func TestResultsColumns(t *testing.T) {
	t.Parallel()

	r := sampleResults()
	assert.Equal(t, []string{"eps", "minPts"}, r.ParamColumns())
	assert.Equal(t, []string{"numClusters", "silhouette"}, r.MetricColumns())
}

func TestResultsToCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, sampleResults().ToCSV(&buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, []string{"eps", "minPts", "numClusters", "silhouette", "duration_ms", "error"},
		records[0])
	assert.Equal(t, []string{"0.200000", "4", "3.000000", "0.500000", "120", ""}, records[1])
	// Failed row: empty metric cells, error message in the last column.
	assert.Equal(t, []string{"0.800000", "4", "", "", "0", "eps too large"}, records[3])
}

func TestResultsFailed(t *testing.T) {
	t.Parallel()

	failed := sampleResults().Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "r3", failed[0].ID)
}

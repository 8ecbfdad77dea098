package report

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jambit/sensAI/cluster"
	"github.com/jambit/sensAI/geom"
	"github.com/jambit/sensAI/gridsearch"
)

func testPoints() ([]geom.Point, []int) {
	points := []geom.Point{
		{X: 0, Y: 0}, {X: 0.5, Y: 0.3}, {X: 0.2, Y: 0.8},
		{X: 10, Y: 10}, {X: 10.4, Y: 9.7}, {X: 9.8, Y: 10.2},
		{X: 5, Y: 20},
	}
	labels := []int{0, 0, 0, 1, 1, 1, cluster.Noise}
	return points, labels
}

func TestClusterScatterPNG(t *testing.T) {
	points, labels := testPoints()

	var buf bytes.Buffer
	err := ClusterScatterPNG(&buf, points, labels, ScatterOptions{Title: "two blobs"})
	require.NoError(t, err)

	// PNG magic bytes.
	require.Greater(t, buf.Len(), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, buf.Bytes()[:4])
}

func TestSaveClusterScatterPNG(t *testing.T) {
	points, labels := testPoints()
	path := filepath.Join(t.TempDir(), "clusters.png")

	require.NoError(t, SaveClusterScatterPNG(path, points, labels, ScatterOptions{}))
	assert.FileExists(t, path)
}

func TestClusterScatterPNGValidation(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := ClusterScatterPNG(&buf, []geom.Point{{X: 1, Y: 1}}, []int{0, 1}, ScatterOptions{})
	require.Error(t, err, "length mismatch")

	err = ClusterScatterPNG(&buf, nil, nil, ScatterOptions{})
	require.Error(t, err, "empty input")
}

func sweepResults(twoParams bool) *gridsearch.Results {
	names := []string{"eps"}
	if twoParams {
		names = append(names, "minPts")
	}
	r := gridsearch.NewResults(names)

	epsValues := []float64{0.2, 0.4, 0.6}
	minPtsValues := []int{4, 8}
	for i, eps := range epsValues {
		if !twoParams {
			r.Add(gridsearch.Result{
				Params:   gridsearch.Assignment{"eps": eps},
				Metrics:  map[string]float64{"silhouette": 0.5 + 0.1*float64(i)},
				Duration: time.Millisecond,
			})
			continue
		}
		for _, minPts := range minPtsValues {
			r.Add(gridsearch.Result{
				Params:   gridsearch.Assignment{"eps": eps, "minPts": minPts},
				Metrics:  map[string]float64{"silhouette": 0.5 + 0.1*float64(i)},
				Duration: time.Millisecond,
			})
		}
	}
	return r
}

func TestSweepHTMLPlane(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := SweepHTML(&buf, sweepResults(true), "eps", "minPts", "silhouette")
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "<html>")
	assert.Contains(t, html, "silhouette")
	assert.Contains(t, html, "visualMap")
}

func TestSweepHTMLLineFallback(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := SweepHTML(&buf, sweepResults(false), "eps", "", "silhouette")
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "<html>")
	assert.True(t, strings.Contains(html, "line"), "single varying param renders a line chart")
}

func TestSweepHTMLLineSortsByParam(t *testing.T) {
	t.Parallel()

	// Insertion order is not x order, as for rows reloaded from the store.
	r := gridsearch.NewResults([]string{"eps"})
	for _, eps := range []float64{0.6, 0.2, 0.4} {
		r.Add(gridsearch.Result{
			Params:  gridsearch.Assignment{"eps": eps},
			Metrics: map[string]float64{"silhouette": eps},
		})
	}

	var buf bytes.Buffer
	require.NoError(t, SweepHTML(&buf, r, "eps", "", "silhouette"))

	html := buf.String()
	i02 := strings.Index(html, "0.2")
	i04 := strings.Index(html, "0.4")
	i06 := strings.Index(html, "0.6")
	require.True(t, i02 >= 0 && i04 >= 0 && i06 >= 0)
	assert.Less(t, i02, i04, "x labels must be in ascending eps order")
	assert.Less(t, i04, i06, "x labels must be in ascending eps order")
}

func TestSweepHTMLNoUsableRows(t *testing.T) {
	t.Parallel()

	r := gridsearch.NewResults([]string{"eps"})
	var buf bytes.Buffer
	err := SweepHTML(&buf, r, "eps", "", "silhouette")
	require.Error(t, err)
}

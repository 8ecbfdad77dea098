package evaluation

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/jambit/sensAI/geom"
	"github.com/jambit/sensAI/tracking"
)

// recordingExperiment captures Track calls for assertions.
type recordingExperiment struct {
	mu    sync.Mutex
	calls []recordedCall
}

type recordedCall struct {
	values  map[string]float64
	context map[string]string
}

var _ tracking.Experiment = (*recordingExperiment)(nil)

func (r *recordingExperiment) TrackValues(values map[string]float64, opts ...tracking.TrackOption) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{
		values:  values,
		context: tracking.ContextOf(opts...),
	})
}

// blobPoints returns two well-separated gaussian blobs of n points each,
// centered at (0,0) and (10,10).
func blobPoints(t *testing.T, n int, seed int64) []geom.Point {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	points := make([]geom.Point, 0, 2*n)
	for i := 0; i < n; i++ {
		points = append(points, geom.Point{X: rng.NormFloat64() * 0.5, Y: rng.NormFloat64() * 0.5})
	}
	for i := 0; i < n; i++ {
		points = append(points, geom.Point{X: 10 + rng.NormFloat64()*0.5, Y: 10 + rng.NormFloat64()*0.5})
	}
	return points
}

package cluster

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"github.com/jambit/sensAI/geom"
)

// KMeansParams configures k-means clustering.
type KMeansParams struct {
	// K is the number of clusters.
	K int
	// MaxIterations bounds the assign/update loop. Zero uses the default.
	MaxIterations int
	// Seed drives the k-means++ initialisation; the same seed on the same
	// data yields the same clustering.
	Seed int64
	// Tolerance is the centroid movement below which the loop converges.
	// Zero uses the default.
	Tolerance float64
}

// Defaults for optional KMeansParams fields.
const (
	DefaultKMeansMaxIterations = 100
	DefaultKMeansTolerance     = 1e-6
)

// KMeans partitions points into K clusters around centroids, seeded with
// k-means++. The assignment step runs in parallel across GOMAXPROCS workers.
// K-means labels every point, so it never produces noise.
type KMeans struct {
	params    KMeansParams
	centroids []geom.Point
	inertia   float64
}

var _ Algorithm = (*KMeans)(nil)

// NewKMeans validates parameters and builds the algorithm.
func NewKMeans(params KMeansParams) (*KMeans, error) {
	if params.K < 1 {
		return nil, fmt.Errorf("cluster: k must be >= 1, got %d", params.K)
	}
	if params.MaxIterations == 0 {
		params.MaxIterations = DefaultKMeansMaxIterations
	}
	if params.MaxIterations < 1 {
		return nil, fmt.Errorf("cluster: max iterations must be >= 1, got %d", params.MaxIterations)
	}
	if params.Tolerance == 0 {
		params.Tolerance = DefaultKMeansTolerance
	}
	if params.Tolerance < 0 {
		return nil, fmt.Errorf("cluster: tolerance must be >= 0, got %v", params.Tolerance)
	}
	return &KMeans{params: params}, nil
}

// Name implements Algorithm.
func (m *KMeans) Name() string { return "kmeans" }

// Params returns the configured parameters, with defaults filled in.
func (m *KMeans) Params() KMeansParams { return m.params }

// Centroids returns the fitted centroids.
func (m *KMeans) Centroids() []geom.Point { return m.centroids }

// Inertia returns the sum of squared distances from points to their
// assigned centroid after the last fit.
func (m *KMeans) Inertia() float64 { return m.inertia }

// Fit implements Algorithm.
func (m *KMeans) Fit(points []geom.Point) ([]int, error) {
	n := len(points)
	if n == 0 {
		return []int{}, nil
	}
	if n < m.params.K {
		return nil, fmt.Errorf("cluster: %d points is fewer than k=%d", n, m.params.K)
	}

	rng := rand.New(rand.NewSource(m.params.Seed))
	centroids := seedPlusPlus(points, m.params.K, rng)
	assign := make([]int, n)
	workers := runtime.GOMAXPROCS(0)

	for iter := 0; iter < m.params.MaxIterations; iter++ {
		assignParallel(points, centroids, assign, workers)

		// Update step: recompute centroids as member means.
		sums := make([]geom.Point, len(centroids))
		counts := make([]int, len(centroids))
		for i, p := range points {
			k := assign[i]
			sums[k].X += p.X
			sums[k].Y += p.Y
			counts[k]++
		}

		moved := 0.0
		for k := range centroids {
			if counts[k] == 0 {
				continue // empty cluster keeps its centroid
			}
			next := geom.Point{
				X: sums[k].X / float64(counts[k]),
				Y: sums[k].Y / float64(counts[k]),
			}
			moved = math.Max(moved, geom.Dist(centroids[k], next))
			centroids[k] = next
		}

		if moved < m.params.Tolerance {
			break
		}
	}

	assignParallel(points, centroids, assign, workers)

	m.centroids = centroids
	m.inertia = 0
	for i, p := range points {
		c := centroids[assign[i]]
		dx, dy := p.X-c.X, p.Y-c.Y
		m.inertia += dx*dx + dy*dy
	}
	return assign, nil
}

// seedPlusPlus picks k initial centroids with k-means++: the first uniformly
// at random, each following one with probability proportional to its squared
// distance from the nearest centroid chosen so far.
func seedPlusPlus(points []geom.Point, k int, rng *rand.Rand) []geom.Point {
	centroids := make([]geom.Point, 0, k)
	centroids = append(centroids, points[rng.Intn(len(points))])

	dist2 := make([]float64, len(points))
	for len(centroids) < k {
		var total float64
		last := centroids[len(centroids)-1]
		for i, p := range points {
			dx, dy := p.X-last.X, p.Y-last.Y
			d := dx*dx + dy*dy
			if len(centroids) == 1 || d < dist2[i] {
				dist2[i] = d
			}
			total += dist2[i]
		}

		if total == 0 {
			// All remaining points coincide with a centroid.
			centroids = append(centroids, points[rng.Intn(len(points))])
			continue
		}

		target := rng.Float64() * total
		chosen := len(points) - 1
		var cum float64
		for i, d := range dist2 {
			cum += d
			if cum >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, points[chosen])
	}
	return centroids
}

// assignParallel assigns each point to its nearest centroid, splitting the
// points across workers.
func assignParallel(points []geom.Point, centroids []geom.Point, assign []int, workers int) {
	n := len(points)
	rowsPerWorker := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := start + rowsPerWorker
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				best, bestDist := 0, math.MaxFloat64
				for k, c := range centroids {
					dx, dy := points[i].X-c.X, points[i].Y-c.Y
					d := dx*dx + dy*dy
					if d < bestDist {
						bestDist = d
						best = k
					}
				}
				assign[i] = best
			}
		}(start, end)
	}
	wg.Wait()
}

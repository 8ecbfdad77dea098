package cluster

import (
	"fmt"
	"math"

	"github.com/jambit/sensAI/geom"
)

// Default DBSCAN parameters, suitable for metre-scale coordinate data.
const (
	DefaultDBSCANEps       = 0.6
	DefaultDBSCANMinPts    = 12
	estimatedPointsPerCell = 4
)

// DBSCANParams configures density-based clustering.
type DBSCANParams struct {
	// Eps is the neighbourhood radius.
	Eps float64
	// MinPts is the minimum number of neighbours (including the point
	// itself) for a point to be a core point.
	MinPts int
}

// DefaultDBSCANParams returns the package defaults.
func DefaultDBSCANParams() DBSCANParams {
	return DBSCANParams{Eps: DefaultDBSCANEps, MinPts: DefaultDBSCANMinPts}
}

// DBSCAN is the density-based clustering algorithm. Region queries run
// against a regular grid index with cell size equal to eps, so each query
// touches at most a 3x3 cell neighbourhood.
type DBSCAN struct {
	params DBSCANParams
}

var _ Algorithm = (*DBSCAN)(nil)

// NewDBSCAN validates parameters and builds the algorithm.
func NewDBSCAN(params DBSCANParams) (*DBSCAN, error) {
	if params.Eps <= 0 {
		return nil, fmt.Errorf("cluster: eps must be > 0, got %v", params.Eps)
	}
	if params.MinPts < 1 {
		return nil, fmt.Errorf("cluster: min points must be >= 1, got %d", params.MinPts)
	}
	return &DBSCAN{params: params}, nil
}

// Name implements Algorithm.
func (d *DBSCAN) Name() string { return "dbscan" }

// Params returns the configured parameters.
func (d *DBSCAN) Params() DBSCANParams { return d.params }

// Fit implements Algorithm. Labels are 0=unvisited, -1=noise, >0=cluster id
// internally; the returned slice uses 0..k-1 and Noise.
func (d *DBSCAN) Fit(points []geom.Point) ([]int, error) {
	n := len(points)
	if n == 0 {
		return []int{}, nil
	}

	labels := make([]int, n)
	clusterID := 0

	index := newGridIndex(d.params.Eps)
	index.build(points)

	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}

		neighbors := index.regionQuery(points, i, d.params.Eps)
		if len(neighbors) < d.params.MinPts {
			labels[i] = -1
			continue
		}

		clusterID++
		expandCluster(points, index, labels, i, neighbors, clusterID, d.params.Eps, d.params.MinPts)
	}

	// Shift to the exported convention: 0..k-1 clusters, Noise outliers.
	out := make([]int, n)
	for i, l := range labels {
		if l <= 0 {
			out[i] = Noise
		} else {
			out[i] = l - 1
		}
	}
	return out, nil
}

// expandCluster grows a cluster outward from a core point, queue style:
// newly discovered core points append their neighbourhoods to the worklist.
func expandCluster(points []geom.Point, index *gridIndex, labels []int,
	seed int, neighbors []int, clusterID int, eps float64, minPts int) {

	labels[seed] = clusterID

	for j := 0; j < len(neighbors); j++ {
		idx := neighbors[j]

		if labels[idx] == -1 {
			labels[idx] = clusterID // noise becomes a border point
		}
		if labels[idx] != 0 {
			continue
		}

		labels[idx] = clusterID
		next := index.regionQuery(points, idx, eps)
		if len(next) >= minPts {
			neighbors = append(neighbors, next...)
		}
	}
}

// gridIndex buckets points into square cells for neighbourhood queries.
type gridIndex struct {
	cellSize float64
	grid     map[int64][]int
}

func newGridIndex(cellSize float64) *gridIndex {
	return &gridIndex{cellSize: cellSize, grid: make(map[int64][]int)}
}

func (gi *gridIndex) build(points []geom.Point) {
	gi.grid = make(map[int64][]int, len(points)/estimatedPointsPerCell+1)
	for i, p := range points {
		key := cellKey(
			int64(math.Floor(p.X/gi.cellSize)),
			int64(math.Floor(p.Y/gi.cellSize)),
		)
		gi.grid[key] = append(gi.grid[key], i)
	}
}

// cellKey maps a signed cell coordinate pair to a unique key using zigzag
// encoding followed by Szudzik's pairing function.
func cellKey(cellX, cellY int64) int64 {
	var a, b int64
	if cellX >= 0 {
		a = 2 * cellX
	} else {
		a = -2*cellX - 1
	}
	if cellY >= 0 {
		b = 2 * cellY
	} else {
		b = -2*cellY - 1
	}
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

// regionQuery returns the indices of all points within eps of points[idx],
// scanning the 3x3 cell neighbourhood around the query point.
func (gi *gridIndex) regionQuery(points []geom.Point, idx int, eps float64) []int {
	p := points[idx]
	eps2 := eps * eps

	cellX := int64(math.Floor(p.X / gi.cellSize))
	cellY := int64(math.Floor(p.Y / gi.cellSize))

	var neighbors []int
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, candidate := range gi.grid[cellKey(cellX+dx, cellY+dy)] {
				c := points[candidate]
				ddx := c.X - p.X
				ddy := c.Y - p.Y
				if ddx*ddx+ddy*ddy <= eps2 {
					neighbors = append(neighbors, candidate)
				}
			}
		}
	}
	return neighbors
}

// Package cluster implements coordinate clustering: grouping 2D point data
// into clusters with pluggable algorithms. The Model wrapper adapts data
// frames, filters undersized clusters to noise, and computes per-cluster
// summaries in a deterministic order.
package cluster

import (
	"fmt"
	"math"
	"sort"

	"github.com/jambit/sensAI/frame"
	"github.com/jambit/sensAI/geom"
)

// Noise is the label assigned to points that belong to no cluster.
const Noise = -1

// Algorithm assigns a cluster label to every input point. Labels are
// 0..k-1 for cluster membership and Noise for outliers; the returned slice
// always has one entry per input point.
type Algorithm interface {
	Fit(points []geom.Point) ([]int, error)
	Name() string
}

// Summary describes one fitted cluster.
type Summary struct {
	Label     int        `json:"label"`
	Size      int        `json:"size"`
	Centroid  geom.Point `json:"centroid"`
	MinX      float64    `json:"min_x"`
	MaxX      float64    `json:"max_x"`
	MinY      float64    `json:"min_y"`
	MaxY      float64    `json:"max_y"`
	RadiusP95 float64    `json:"radius_p95"`
	// Density is points per unit area of the bounding box; zero when the
	// box is degenerate.
	Density float64 `json:"density"`
}

// Model wraps an Algorithm with frame adaptation, minimum-cluster-size
// filtering and summary computation. Fitting twice replaces prior state.
type Model struct {
	algorithm      Algorithm
	minClusterSize int

	points   []geom.Point
	labels   []int
	clusters []Summary
	fitted   bool
}

// New wraps the given algorithm.
func New(algorithm Algorithm) *Model {
	return &Model{algorithm: algorithm}
}

// WithMinClusterSize relabels clusters smaller than n as noise.
func (m *Model) WithMinClusterSize(n int) *Model {
	m.minClusterSize = n
	return m
}

// Name returns the underlying algorithm name.
func (m *Model) Name() string { return m.algorithm.Name() }

// IsFitted reports whether the model holds a fitted clustering.
func (m *Model) IsFitted() bool { return m.fitted }

// FitPoints clusters the given points.
func (m *Model) FitPoints(points []geom.Point) error {
	labels, err := m.algorithm.Fit(points)
	if err != nil {
		return err
	}
	if len(labels) != len(points) {
		return fmt.Errorf("cluster: algorithm %s returned %d labels for %d points",
			m.algorithm.Name(), len(labels), len(points))
	}

	labels = append([]int(nil), labels...)
	applyMinSize(labels, m.minClusterSize)
	labels = relabelByCentroid(points, labels)

	m.points = points
	m.labels = labels
	m.clusters = summarise(points, labels)
	m.fitted = true
	return nil
}

// FitFrame clusters the rows of a frame, reading coordinates from the named
// float columns.
func (m *Model) FitFrame(fr *frame.Frame, xColumn, yColumn string) error {
	points, err := PointsFromFrame(fr, xColumn, yColumn)
	if err != nil {
		return err
	}
	return m.FitPoints(points)
}

// Labels returns the per-point cluster labels from the last fit.
func (m *Model) Labels() []int { return m.labels }

// Points returns the points from the last fit.
func (m *Model) Points() []geom.Point { return m.points }

// Clusters returns the cluster summaries from the last fit, ordered by
// centroid X then Y. Noise points are not represented.
func (m *Model) Clusters() []Summary { return m.clusters }

// NumClusters returns the cluster count from the last fit.
func (m *Model) NumClusters() int { return len(m.clusters) }

// NoiseCount returns the number of noise points from the last fit.
func (m *Model) NoiseCount() int {
	n := 0
	for _, l := range m.labels {
		if l == Noise {
			n++
		}
	}
	return n
}

// PointsFromFrame extracts 2D points from two float columns of a frame.
func PointsFromFrame(fr *frame.Frame, xColumn, yColumn string) ([]geom.Point, error) {
	xs, err := fr.Floats(xColumn)
	if err != nil {
		return nil, err
	}
	ys, err := fr.Floats(yColumn)
	if err != nil {
		return nil, err
	}
	points := make([]geom.Point, len(xs))
	for i := range xs {
		points[i] = geom.Point{X: xs[i], Y: ys[i]}
	}
	return points, nil
}

// applyMinSize relabels clusters with fewer than minSize members as noise.
func applyMinSize(labels []int, minSize int) {
	if minSize <= 1 {
		return
	}
	counts := make(map[int]int)
	for _, l := range labels {
		if l != Noise {
			counts[l]++
		}
	}
	for i, l := range labels {
		if l != Noise && counts[l] < minSize {
			labels[i] = Noise
		}
	}
}

// relabelByCentroid renumbers clusters 0..k-1 in order of centroid X then Y,
// making label assignment independent of algorithm iteration order.
func relabelByCentroid(points []geom.Point, labels []int) []int {
	type acc struct {
		label      int
		sumX, sumY float64
		n          int
	}
	byLabel := make(map[int]*acc)
	for i, l := range labels {
		if l == Noise {
			continue
		}
		a := byLabel[l]
		if a == nil {
			a = &acc{label: l}
			byLabel[l] = a
		}
		a.sumX += points[i].X
		a.sumY += points[i].Y
		a.n++
	}

	accs := make([]*acc, 0, len(byLabel))
	for _, a := range byLabel {
		accs = append(accs, a)
	}
	sort.Slice(accs, func(i, j int) bool {
		ci := geom.Point{X: accs[i].sumX / float64(accs[i].n), Y: accs[i].sumY / float64(accs[i].n)}
		cj := geom.Point{X: accs[j].sumX / float64(accs[j].n), Y: accs[j].sumY / float64(accs[j].n)}
		if ci.X != cj.X {
			return ci.X < cj.X
		}
		return ci.Y < cj.Y
	})

	remap := make(map[int]int, len(accs))
	for newLabel, a := range accs {
		remap[a.label] = newLabel
	}
	out := make([]int, len(labels))
	for i, l := range labels {
		if l == Noise {
			out[i] = Noise
		} else {
			out[i] = remap[l]
		}
	}
	return out
}

// summarise computes per-cluster summaries. Labels must already be
// normalised to 0..k-1.
func summarise(points []geom.Point, labels []int) []Summary {
	maxLabel := -1
	for _, l := range labels {
		if l > maxLabel {
			maxLabel = l
		}
	}
	if maxLabel < 0 {
		return nil
	}

	members := make([][]geom.Point, maxLabel+1)
	for i, l := range labels {
		if l != Noise {
			members[l] = append(members[l], points[i])
		}
	}

	summaries := make([]Summary, 0, maxLabel+1)
	for label, pts := range members {
		if len(pts) == 0 {
			continue
		}
		summaries = append(summaries, summariseOne(label, pts))
	}
	return summaries
}

func summariseOne(label int, pts []geom.Point) Summary {
	n := float64(len(pts))

	var sumX, sumY float64
	for _, p := range pts {
		sumX += p.X
		sumY += p.Y
	}
	centroid := geom.Point{X: sumX / n, Y: sumY / n}

	minX, maxX := pts[0].X, pts[0].X
	minY, maxY := pts[0].Y, pts[0].Y
	radii := make([]float64, len(pts))
	for i, p := range pts {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
		radii[i] = geom.Dist(centroid, p)
	}

	sort.Float64s(radii)
	p95 := int(0.95 * float64(len(radii)))
	if p95 >= len(radii) {
		p95 = len(radii) - 1
	}

	area := (maxX - minX) * (maxY - minY)
	var density float64
	if area > 0 {
		density = n / area
	}

	return Summary{
		Label:     label,
		Size:      len(pts),
		Centroid:  centroid,
		MinX:      minX,
		MaxX:      maxX,
		MinY:      minY,
		MaxY:      maxY,
		RadiusP95: radii[p95],
		Density:   density,
	}
}

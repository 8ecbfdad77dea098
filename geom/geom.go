// Package geom provides the 2D point and polygon primitives used by
// coordinate clustering and by ground-truth evaluation.
package geom

import (
	"fmt"
	"math"
)

// Point is a position in the 2D coordinate plane.
type Point struct {
	X, Y float64
}

// Dist returns the Euclidean distance between two points.
func Dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Polygon is a closed ring of vertices. The closing edge from the last
// vertex back to the first is implicit.
type Polygon struct {
	Vertices []Point
}

// NewPolygon builds a polygon, requiring at least three vertices.
func NewPolygon(vertices ...Point) (Polygon, error) {
	if len(vertices) < 3 {
		return Polygon{}, fmt.Errorf("geom: polygon needs >= 3 vertices, got %d", len(vertices))
	}
	return Polygon{Vertices: vertices}, nil
}

// Contains reports whether the point lies inside the polygon, using the
// even-odd ray casting rule. Points exactly on an edge may land on either
// side; callers needing exact boundary semantics should buffer their
// polygons.
func (p Polygon) Contains(pt Point) bool {
	n := len(p.Vertices)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := p.Vertices[i], p.Vertices[j]
		if (vi.Y > pt.Y) != (vj.Y > pt.Y) {
			xCross := (vj.X-vi.X)*(pt.Y-vi.Y)/(vj.Y-vi.Y) + vi.X
			if pt.X < xCross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// Bounds returns the axis-aligned bounding box of the polygon.
func (p Polygon) Bounds() (min, max Point) {
	min = Point{math.Inf(1), math.Inf(1)}
	max = Point{math.Inf(-1), math.Inf(-1)}
	for _, v := range p.Vertices {
		min.X = math.Min(min.X, v.X)
		min.Y = math.Min(min.Y, v.Y)
		max.X = math.Max(max.X, v.X)
		max.Y = math.Max(max.Y, v.Y)
	}
	return min, max
}

// Centroid returns the arithmetic mean of the vertices. For the convex,
// roughly box-shaped annotation regions this library deals with, the vertex
// mean is close enough to the area centroid.
func (p Polygon) Centroid() Point {
	var c Point
	for _, v := range p.Vertices {
		c.X += v.X
		c.Y += v.Y
	}
	n := float64(len(p.Vertices))
	c.X /= n
	c.Y /= n
	return c
}

// Region is a named ground-truth polygon annotation.
type Region struct {
	Name    string
	Polygon Polygon
}

// GroundTruth is an ordered set of annotation regions. Region order defines
// the label each region represents.
type GroundTruth struct {
	Regions []Region
}

// Label returns the index of the first region containing the point, or -1
// when no region contains it.
func (gt *GroundTruth) Label(pt Point) int {
	for i, r := range gt.Regions {
		if r.Polygon.Contains(pt) {
			return i
		}
	}
	return -1
}

// Labels applies Label to every point.
func (gt *GroundTruth) Labels(points []Point) []int {
	out := make([]int, len(points))
	for i, pt := range points {
		out[i] = gt.Label(pt)
	}
	return out
}

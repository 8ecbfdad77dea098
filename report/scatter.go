// Package report renders clustering and sweep outcomes: PNG scatter plots
// of clustered points and standalone HTML charts of sweep result tables.
package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/jambit/sensAI/cluster"
	"github.com/jambit/sensAI/geom"
)

// clusterPalette cycles across cluster labels.
var clusterPalette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
	{R: 0xe3, G: 0x77, B: 0xc2, A: 0xff},
	{R: 0xbc, G: 0xbd, B: 0x22, A: 0xff},
	{R: 0x17, G: 0xbe, B: 0xcf, A: 0xff},
}

var noiseGrey = color.RGBA{R: 0xb0, G: 0xb0, B: 0xb0, A: 0xff}

// ScatterOptions configures the cluster scatter plot.
type ScatterOptions struct {
	// Title is the plot title; empty means "clusters".
	Title string
	// WidthInches and HeightInches default to 8x8.
	WidthInches  float64
	HeightInches float64
}

func (o ScatterOptions) withDefaults() ScatterOptions {
	if o.Title == "" {
		o.Title = "clusters"
	}
	if o.WidthInches <= 0 {
		o.WidthInches = 8
	}
	if o.HeightInches <= 0 {
		o.HeightInches = 8
	}
	return o
}

// ClusterScatterPNG writes a PNG scatter plot of the labelled points to w:
// one colour per cluster label, noise points in grey, equal-scale axes.
func ClusterScatterPNG(w io.Writer, points []geom.Point, labels []int, opts ScatterOptions) error {
	wt, err := clusterScatter(points, labels, opts)
	if err != nil {
		return err
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("report: writing scatter png: %w", err)
	}
	return nil
}

// SaveClusterScatterPNG writes the scatter plot to a file.
func SaveClusterScatterPNG(path string, points []geom.Point, labels []int, opts ScatterOptions) error {
	p, o, err := buildClusterPlot(points, labels, opts)
	if err != nil {
		return err
	}
	if err := p.Save(vg.Length(o.WidthInches)*vg.Inch, vg.Length(o.HeightInches)*vg.Inch, path); err != nil {
		return fmt.Errorf("report: saving %s: %w", path, err)
	}
	return nil
}

func clusterScatter(points []geom.Point, labels []int, opts ScatterOptions) (io.WriterTo, error) {
	p, o, err := buildClusterPlot(points, labels, opts)
	if err != nil {
		return nil, err
	}
	wt, err := p.WriterTo(vg.Length(o.WidthInches)*vg.Inch, vg.Length(o.HeightInches)*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("report: rendering scatter: %w", err)
	}
	return wt, nil
}

func buildClusterPlot(points []geom.Point, labels []int, opts ScatterOptions) (*plot.Plot, ScatterOptions, error) {
	if len(points) != len(labels) {
		return nil, opts, fmt.Errorf("report: %d points but %d labels", len(points), len(labels))
	}
	if len(points) == 0 {
		return nil, opts, fmt.Errorf("report: no points to plot")
	}
	o := opts.withDefaults()

	p := plot.New()
	p.Title.Text = o.Title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	byLabel := make(map[int]plotter.XYs)
	maxLabel := -1
	for i, pt := range points {
		byLabel[labels[i]] = append(byLabel[labels[i]], plotter.XY{X: pt.X, Y: pt.Y})
		if labels[i] > maxLabel {
			maxLabel = labels[i]
		}
	}

	// Clusters in label order, noise last so it sits under the legend.
	for label := 0; label <= maxLabel; label++ {
		xys, ok := byLabel[label]
		if !ok {
			continue
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, o, fmt.Errorf("report: cluster %d scatter: %w", label, err)
		}
		s.GlyphStyle.Color = clusterPalette[label%len(clusterPalette)]
		s.GlyphStyle.Radius = vg.Points(2)
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("cluster %d", label), s)
	}

	if xys, ok := byLabel[cluster.Noise]; ok {
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, o, fmt.Errorf("report: noise scatter: %w", err)
		}
		s.GlyphStyle.Color = noiseGrey
		s.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(s)
		p.Legend.Add("noise", s)
	}

	equaliseAxes(p, points)
	return p, o, nil
}

// equaliseAxes pads both axes to the same span so distances read true.
func equaliseAxes(p *plot.Plot, points []geom.Point) {
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, pt := range points[1:] {
		if pt.X < minX {
			minX = pt.X
		}
		if pt.X > maxX {
			maxX = pt.X
		}
		if pt.Y < minY {
			minY = pt.Y
		}
		if pt.Y > maxY {
			maxY = pt.Y
		}
	}

	span := maxX - minX
	if s := maxY - minY; s > span {
		span = s
	}
	if span == 0 {
		span = 1
	}
	pad := span * 0.05

	cx := (minX + maxX) / 2
	cy := (minY + maxY) / 2
	p.X.Min, p.X.Max = cx-span/2-pad, cx+span/2+pad
	p.Y.Min, p.Y.Max = cy-span/2-pad, cy+span/2+pad
}

package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/jambit/sensAI/gridsearch"
)

// viridis is the visual-map colour ramp for metric values.
var viridis = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// SweepHTML renders a standalone HTML chart of sweep results to w. With
// two distinct varying parameters it draws the xParam/yParam plane as a
// scatter coloured by the metric; otherwise it falls back to a
// metric-over-combination line chart sorted by xParam.
func SweepHTML(w io.Writer, results *gridsearch.Results, xParam, yParam, metric string) error {
	rows := successfulRows(results, metric)
	if len(rows) == 0 {
		return fmt.Errorf("report: no successful results carrying metric %q", metric)
	}

	if yParam != "" && countDistinct(rows, xParam) > 1 && countDistinct(rows, yParam) > 1 {
		return renderPlane(w, rows, xParam, yParam, metric)
	}
	return renderLine(w, rows, xParam, metric)
}

func successfulRows(results *gridsearch.Results, metric string) []gridsearch.Result {
	var rows []gridsearch.Result
	for _, row := range results.Rows() {
		if row.Err != nil {
			continue
		}
		if _, ok := row.Metrics[metric]; !ok {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func countDistinct(rows []gridsearch.Result, param string) int {
	seen := make(map[float64]bool)
	for _, row := range rows {
		if v, ok := row.Params.Float(param); ok {
			seen[v] = true
		}
	}
	return len(seen)
}

func renderPlane(w io.Writer, rows []gridsearch.Result, xParam, yParam, metric string) error {
	data := make([]opts.ScatterData, 0, len(rows))
	minMetric, maxMetric := rows[0].Metrics[metric], rows[0].Metrics[metric]
	for _, row := range rows {
		x, okX := row.Params.Float(xParam)
		y, okY := row.Params.Float(yParam)
		if !okX || !okY {
			return fmt.Errorf("report: row %s missing numeric param %s or %s", row.ID, xParam, yParam)
		}
		m := row.Metrics[metric]
		if m < minMetric {
			minMetric = m
		}
		if m > maxMetric {
			maxMetric = m
		}
		data = append(data, opts.ScatterData{Value: []interface{}{x, y, m}})
	}
	if maxMetric == minMetric {
		maxMetric = minMetric + 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("sweep: %s", metric),
			Width:     "900px",
			Height:    "700px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s over %s/%s", metric, xParam, yParam),
			Subtitle: fmt.Sprintf("%d combinations", len(data)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: xParam, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: yParam, NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(minMetric),
			Max:        float32(maxMetric),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries(metric, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 14}))

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("report: rendering sweep scatter: %w", err)
	}
	return nil
}

func renderLine(w io.Writer, rows []gridsearch.Result, xParam, metric string) error {
	// Rows may arrive in store insertion order; the x axis must be monotonic.
	rows = append([]gridsearch.Result(nil), rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		vi, oki := rows[i].Params.Float(xParam)
		vj, okj := rows[j].Params.Float(xParam)
		if oki && okj {
			return vi < vj
		}
		return oki && !okj
	})

	labels := make([]string, 0, len(rows))
	data := make([]opts.LineData, 0, len(rows))
	for _, row := range rows {
		if v, ok := row.Params.Float(xParam); ok {
			labels = append(labels, fmt.Sprintf("%v", v))
		} else {
			labels = append(labels, fmt.Sprintf("#%d", len(labels)+1))
		}
		data = append(data, opts.LineData{Value: row.Metrics[metric]})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("sweep: %s", metric),
			Width:     "900px",
			Height:    "500px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s over %s", metric, xParam),
			Subtitle: fmt.Sprintf("%d combinations", len(data)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: xParam}),
		charts.WithYAxisOpts(opts.YAxis{Name: metric}),
	)
	line.SetXAxis(labels)
	line.AddSeries(metric, data)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("report: rendering sweep line: %w", err)
	}
	return nil
}

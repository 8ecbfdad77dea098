package featuregen

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/jambit/sensAI/frame"
	"github.com/jambit/sensAI/transform"
)

// targetStats summarises the target values observed for one category.
type targetStats struct {
	mean, std, median, p25, p75 float64
}

// TargetDistributionGenerator encodes a categorical column by the
// distribution of the training target within each category: mean, standard
// deviation, median and the quartiles. This leaks no per-row target
// information at generate time; only aggregates fitted on training data.
type TargetDistributionGenerator struct {
	Base
	column string
	stats  map[string]targetStats
}

var _ Generator = (*TargetDistributionGenerator)(nil)

// TargetDistribution builds a generator over the given categorical input
// column.
func TargetDistribution(column string) *TargetDistributionGenerator {
	return &TargetDistributionGenerator{column: column}
}

// WithRuleTemplate attaches a normalisation rule template.
func (g *TargetDistributionGenerator) WithRuleTemplate(t transform.RuleTemplate) *TargetDistributionGenerator {
	g.SetRuleTemplate(t)
	return g
}

// Fit groups the single target column by category and computes per-category
// distribution statistics.
func (g *TargetDistributionGenerator) Fit(inputs, targets *frame.Frame) error {
	if targets == nil || targets.NumCols() != 1 {
		return fmt.Errorf("featuregen: target distribution needs exactly one target column")
	}
	categories, err := inputs.Strings(g.column)
	if err != nil {
		return fmt.Errorf("featuregen: target distribution: %w", err)
	}
	targetName := targets.ColumnNames()[0]
	values, err := targets.Floats(targetName)
	if err != nil {
		return fmt.Errorf("featuregen: target distribution: %w", err)
	}
	if len(categories) != len(values) {
		return fmt.Errorf("featuregen: %d input rows but %d target rows", len(categories), len(values))
	}

	grouped := make(map[string][]float64)
	for i, cat := range categories {
		grouped[cat] = append(grouped[cat], values[i])
	}

	g.stats = make(map[string]targetStats, len(grouped))
	for cat, vs := range grouped {
		sort.Float64s(vs)
		mean, std := stat.MeanStdDev(vs, nil)
		if len(vs) < 2 {
			std = 0
		}
		g.stats[cat] = targetStats{
			mean:   mean,
			std:    std,
			median: stat.Quantile(0.5, stat.Empirical, vs, nil),
			p25:    stat.Quantile(0.25, stat.Empirical, vs, nil),
			p75:    stat.Quantile(0.75, stat.Empirical, vs, nil),
		}
	}
	return nil
}

// Generate emits the fitted per-category statistics for each row.
func (g *TargetDistributionGenerator) Generate(inputs *frame.Frame) (*frame.Frame, error) {
	if g.stats == nil {
		return nil, fmt.Errorf("featuregen: target distribution for %q is not fitted", g.column)
	}
	categories, err := inputs.Strings(g.column)
	if err != nil {
		return nil, fmt.Errorf("featuregen: target distribution: %w", err)
	}

	n := len(categories)
	means := make([]float64, n)
	stds := make([]float64, n)
	medians := make([]float64, n)
	p25s := make([]float64, n)
	p75s := make([]float64, n)
	for i, cat := range categories {
		s, ok := g.stats[cat]
		if !ok {
			return nil, fmt.Errorf("featuregen: category %q of column %q was not seen during fit", cat, g.column)
		}
		means[i] = s.mean
		stds[i] = s.std
		medians[i] = s.median
		p25s[i] = s.p25
		p75s[i] = s.p75
	}

	prefix := g.column + "_target_"
	out, err := frame.NewWithIndex(inputs.Index(),
		frame.FloatSeries(prefix+"mean", means),
		frame.FloatSeries(prefix+"std", stds),
		frame.FloatSeries(prefix+"median", medians),
		frame.FloatSeries(prefix+"p25", p25s),
		frame.FloatSeries(prefix+"p75", p75s),
	)
	if err != nil {
		return nil, err
	}
	g.noteGenerated(out)
	return out, nil
}

// Categories returns the fitted category names, sorted.
func (g *TargetDistributionGenerator) Categories() []string {
	cats := make([]string, 0, len(g.stats))
	for c := range g.stats {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

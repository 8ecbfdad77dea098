package featuregen

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jambit/sensAI/frame"
	"github.com/jambit/sensAI/transform"
)

func inputFrame() *frame.Frame {
	return frame.MustNew(
		frame.FloatSeries("x", []float64{1, 2, 3}),
		frame.FloatSeries("y", []float64{4, 5, 6}),
		frame.StringSeries("cat", []string{"a", "b", "a"}),
	)
}

func TestTakeColumns(t *testing.T) {
	g := TakeColumns("y", "cat")
	out, err := FitGenerate(g, inputFrame(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "cat"}, out.ColumnNames())

	missing := TakeColumns("nope")
	_, err = FitGenerate(missing, inputFrame(), nil)
	assert.Error(t, err, "missing column must be rejected")
}

func TestTakeColumnsAllByDefault(t *testing.T) {
	g := TakeColumns()
	out, err := FitGenerate(g, inputFrame(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "cat"}, out.ColumnNames())
}

func TestNormalisationRulesFromTemplate(t *testing.T) {
	g := TakeColumns("x", "cat").
		WithCategorical("cat").
		WithRuleTemplate(transform.RuleTemplate{Scaler: transform.MinMax})

	_, err := FitGenerate(g, inputFrame(), nil)
	require.NoError(t, err)

	rules := g.NormalisationRules()
	require.Len(t, rules, 1, "categorical column must not get a rule")
	assert.True(t, rules[0].Pattern.MatchString("x"))
	assert.False(t, rules[0].Pattern.MatchString("xx"))
	assert.Equal(t, []string{"cat"}, g.CategoricalColumns())
}

func TestFromFunc(t *testing.T) {
	g := FromFunc("x_plus_y", func(fr *frame.Frame, row int) (float64, error) {
		xs, err := fr.Floats("x")
		if err != nil {
			return 0, err
		}
		ys, err := fr.Floats("y")
		if err != nil {
			return 0, err
		}
		return xs[row] + ys[row], nil
	})

	out, err := FitGenerate(g, inputFrame(), nil)
	require.NoError(t, err)

	sums, err := out.Floats("x_plus_y")
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 7, 9}, sums)
}

func TestFromFuncPreservesIndex(t *testing.T) {
	fr := inputFrame()
	sub, err := fr.Slice([]int{2, 0})
	require.NoError(t, err)

	g := FromFunc("twice_x", func(fr *frame.Frame, row int) (float64, error) {
		xs, _ := fr.Floats("x")
		return 2 * xs[row], nil
	})
	out, err := FitGenerate(g, sub, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, out.Index())
}

func TestTargetDistribution(t *testing.T) {
	inputs := frame.MustNew(
		frame.StringSeries("cat", []string{"a", "a", "b", "b"}),
	)
	targets := frame.MustNew(
		frame.FloatSeries("price", []float64{10, 20, 100, 100}),
	)

	g := TargetDistribution("cat")
	out, err := FitGenerate(g, inputs, targets)
	require.NoError(t, err)

	means, err := out.Floats("cat_target_mean")
	require.NoError(t, err)
	assert.Equal(t, []float64{15, 15, 100, 100}, means)

	stds, err := out.Floats("cat_target_std")
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(50), stds[0], 1e-9, "sample stddev of {10,20}")
	assert.Equal(t, 0.0, stds[2])

	assert.Equal(t, []string{"a", "b"}, g.Categories())
}

func TestTargetDistributionErrors(t *testing.T) {
	inputs := frame.MustNew(frame.StringSeries("cat", []string{"a"}))
	targets := frame.MustNew(frame.FloatSeries("t", []float64{1}))

	g := TargetDistribution("cat")
	require.NoError(t, g.Fit(inputs, targets))

	unseen := frame.MustNew(frame.StringSeries("cat", []string{"zzz"}))
	_, err := g.Generate(unseen)
	assert.ErrorContains(t, err, "zzz")

	assert.Error(t, TargetDistribution("cat").Fit(inputs, nil), "nil targets")

	two := frame.MustNew(
		frame.FloatSeries("t1", []float64{1}),
		frame.FloatSeries("t2", []float64{1}),
	)
	assert.Error(t, TargetDistribution("cat").Fit(inputs, two), "two target columns")

	unfitted := TargetDistribution("cat")
	_, err = unfitted.Generate(inputs)
	assert.Error(t, err)
}

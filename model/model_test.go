package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jambit/sensAI/featuregen"
	"github.com/jambit/sensAI/frame"
	"github.com/jambit/sensAI/transform"
)

func regressionData() (*frame.Frame, *frame.Frame) {
	// y = 2x + 1 exactly.
	inputs := frame.MustNew(
		frame.FloatSeries("x", []float64{0, 1, 2, 3, 4}),
	)
	targets := frame.MustNew(
		frame.FloatSeries("y", []float64{1, 3, 5, 7, 9}),
	)
	return inputs, targets
}

func TestLinearRegressionRecoversLine(t *testing.T) {
	inputs, targets := regressionData()
	m := NewLinearRegression()
	require.NoError(t, m.Fit(inputs, targets))
	require.True(t, m.IsFitted())

	coeffs, intercept := m.Coefficients()
	assert.InDelta(t, 2.0, coeffs["x"], 1e-9)
	assert.InDelta(t, 1.0, intercept, 1e-9)

	test := frame.MustNew(frame.FloatSeries("x", []float64{10}))
	out, err := m.Predict(test)
	require.NoError(t, err)

	preds, err := out.Floats("y")
	require.NoError(t, err)
	assert.InDelta(t, 21.0, preds[0], 1e-9)
	assert.Equal(t, []string{"y"}, m.PredictedColumns())
}

func TestLinearRegressionMultiFeature(t *testing.T) {
	inputs := frame.MustNew(
		frame.FloatSeries("a", []float64{1, 2, 3, 4, 5, 6}),
		frame.FloatSeries("b", []float64{2, 1, 4, 3, 6, 5}),
	)
	// y = 3a - b
	ys := make([]float64, 6)
	as, _ := inputs.Floats("a")
	bs, _ := inputs.Floats("b")
	for i := range ys {
		ys[i] = 3*as[i] - bs[i]
	}
	targets := frame.MustNew(frame.FloatSeries("y", ys))

	m := NewLinearRegression()
	require.NoError(t, m.Fit(inputs, targets))

	coeffs, intercept := m.Coefficients()
	assert.InDelta(t, 3.0, coeffs["a"], 1e-9)
	assert.InDelta(t, -1.0, coeffs["b"], 1e-9)
	assert.InDelta(t, 0.0, intercept, 1e-9)
}

func TestLinearRegressionErrors(t *testing.T) {
	inputs, targets := regressionData()

	m := NewLinearRegression()
	_, err := m.Predict(inputs)
	assert.ErrorIs(t, err, ErrNotFitted)

	two := frame.MustNew(
		frame.FloatSeries("y1", []float64{1, 2, 3, 4, 5}),
		frame.FloatSeries("y2", []float64{1, 2, 3, 4, 5}),
	)
	assert.Error(t, m.Fit(inputs, two), "two target columns")

	short := frame.MustNew(frame.FloatSeries("y", []float64{1}))
	assert.Error(t, m.Fit(inputs, short), "row count mismatch")

	withString := frame.MustNew(
		frame.FloatSeries("x", []float64{1, 2, 3, 4, 5}),
		frame.StringSeries("c", []string{"a", "b", "a", "b", "a"}),
	)
	assert.Error(t, m.Fit(withString, targets), "unencoded categorical column")
}

func TestLinearRegressionPipeline(t *testing.T) {
	inputs := frame.MustNew(
		frame.FloatSeries("x", []float64{0, 1, 2, 3, 4}),
		frame.FloatSeries("noise", []float64{9, 9, 9, 9, 9}),
	)
	targets := frame.MustNew(frame.FloatSeries("y", []float64{1, 3, 5, 7, 9}))

	gen := featuregen.TakeColumns("x").
		WithRuleTemplate(transform.RuleTemplate{Scaler: transform.MinMax})
	norm := transform.NewNormalisation()

	m := NewLinearRegression().
		WithName("line").
		WithFeatureGenerator(gen).
		WithInputTransformers(norm)

	require.NoError(t, m.Fit(inputs, targets))
	assert.Equal(t, "line", m.Name())

	// The generator's rule template must have reached the normalisation.
	s, ok := norm.ScalerFor("x")
	require.True(t, ok, "generator rules should be injected into the normalisation")
	_, isMinMax := s.(*transform.MinMaxScaler)
	assert.True(t, isMinMax)

	out, err := m.Predict(frame.MustNew(
		frame.FloatSeries("x", []float64{4}),
		frame.FloatSeries("noise", []float64{0}),
	))
	require.NoError(t, err)
	preds, _ := out.Floats("y")
	assert.InDelta(t, 9.0, preds[0], 1e-9, "prediction through the full pipeline")
}

func TestLinearRegressionFeatureMismatchAtPredict(t *testing.T) {
	inputs, targets := regressionData()
	m := NewLinearRegression()
	require.NoError(t, m.Fit(inputs, targets))

	_, err := m.Predict(frame.MustNew(frame.FloatSeries("other", []float64{1})))
	assert.Error(t, err)
}

func TestKNNClassifier(t *testing.T) {
	inputs := frame.MustNew(
		frame.FloatSeries("x", []float64{0, 0.1, 0.2, 10, 10.1, 10.2}),
	)
	targets := frame.MustNew(
		frame.StringSeries("class", []string{"low", "low", "low", "high", "high", "high"}),
	)

	m := NewKNNClassifier(3)
	require.NoError(t, m.Fit(inputs, targets))

	out, err := m.Predict(frame.MustNew(frame.FloatSeries("x", []float64{0.05, 9.9})))
	require.NoError(t, err)

	preds, err := out.Strings("class")
	require.NoError(t, err)
	assert.Equal(t, []string{"low", "high"}, preds)
}

func TestKNNClassifierValidation(t *testing.T) {
	inputs := frame.MustNew(frame.FloatSeries("x", []float64{1, 2}))
	targets := frame.MustNew(frame.StringSeries("c", []string{"a", "b"}))

	bad := NewKNNClassifier(0)
	assert.Error(t, bad.Fit(inputs, targets), "k < 1")

	tooBig := NewKNNClassifier(5)
	assert.Error(t, tooBig.Fit(inputs, targets), "k > rows")

	numTarget := frame.MustNew(frame.FloatSeries("c", []float64{1, 2}))
	assert.Error(t, NewKNNClassifier(1).Fit(inputs, numTarget), "numeric target")
}

func TestKNNClassifierDeterministicTieBreak(t *testing.T) {
	inputs := frame.MustNew(frame.FloatSeries("x", []float64{-1, 1}))
	targets := frame.MustNew(frame.StringSeries("c", []string{"b", "a"}))

	m := NewKNNClassifier(2)
	require.NoError(t, m.Fit(inputs, targets))

	out, err := m.Predict(frame.MustNew(frame.FloatSeries("x", []float64{0})))
	require.NoError(t, err)
	preds, _ := out.Strings("c")
	assert.Equal(t, "a", preds[0], "vote tie should break to the smaller label")
}

func TestMeanRegressor(t *testing.T) {
	inputs, targets := regressionData()
	m := NewMeanRegressor()
	require.NoError(t, m.Fit(inputs, targets))

	out, err := m.Predict(frame.MustNew(frame.FloatSeries("x", []float64{42, -42})))
	require.NoError(t, err)
	preds, _ := out.Floats("y")
	assert.Equal(t, []float64{5, 5}, preds, "mean of 1,3,5,7,9")
}

func TestLinearRegressionWithFeatureCollector(t *testing.T) {
	inputs := frame.MustNew(
		frame.FloatSeries("x", []float64{0, 1, 2, 3, 4}),
		frame.FloatSeries("noise", []float64{9, 9, 9, 9, 9}),
	)
	targets := frame.MustNew(frame.FloatSeries("y", []float64{1, 3, 5, 7, 9}))

	r := featuregen.NewRegistry()
	require.NoError(t, r.Register("take_x", func() featuregen.Generator {
		return featuregen.TakeColumns("x")
	}))
	c := featuregen.NewCollector(r, "take_x")

	m := NewLinearRegression().WithFeatureCollector(c)
	require.NoError(t, m.Fit(inputs, targets))
	assert.Equal(t, []string{"x"}, c.CollectedColumns())

	out, err := m.Predict(frame.MustNew(
		frame.FloatSeries("x", []float64{10}),
		frame.FloatSeries("noise", []float64{0}),
	))
	require.NoError(t, err)
	preds, _ := out.Floats("y")
	assert.InDelta(t, 21.0, preds[0], 1e-9)
}

func TestLinearRegressionCollectorResolutionError(t *testing.T) {
	inputs, targets := regressionData()
	c := featuregen.NewCollector(featuregen.NewRegistry(), "missing")

	m := NewLinearRegression().WithFeatureCollector(c)
	err := m.Fit(inputs, targets)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestOneHotInPipeline(t *testing.T) {
	inputs := frame.MustNew(
		frame.FloatSeries("x", []float64{1, 2, 3, 4, 5, 6}),
		frame.StringSeries("kind", []string{"a", "b", "a", "b", "a", "b"}),
	)
	// y depends on both x and kind.
	targets := frame.MustNew(frame.FloatSeries("y", []float64{2, 13, 4, 15, 6, 17}))

	m := NewLinearRegression().
		WithFeatureGenerator(featuregen.TakeColumns("x", "kind").WithCategorical("kind")).
		WithInputTransformers(transform.NewOneHot("kind"))

	require.NoError(t, m.Fit(inputs, targets))

	out, err := m.Predict(frame.MustNew(
		frame.FloatSeries("x", []float64{7}),
		frame.StringSeries("kind", []string{"b"}),
	))
	require.NoError(t, err)
	preds, _ := out.Floats("y")
	assert.InDelta(t, 18.0, preds[0], 1e-6)
}

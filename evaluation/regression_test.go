package evaluation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jambit/sensAI/model"
)

func TestRegressionEvaluatorLinearFit(t *testing.T) {
	data := lineData(t, 60)
	eval, err := NewRegressionEvaluator(data, WithTestFraction(0.25), WithSeed(7))
	require.NoError(t, err)

	assert.Equal(t, 45, eval.TrainData().NumPoints())
	assert.Equal(t, 15, eval.TestData().NumPoints())

	m := model.NewLinearRegression()
	require.NoError(t, eval.FitModel(m))

	stats, err := eval.EvalModel(m)
	require.NoError(t, err)

	// The data is an exact line, so the fit should be near perfect.
	assert.InDelta(t, 0, stats.MAE, 1e-6)
	assert.InDelta(t, 0, stats.RMSE, 1e-6)
	assert.InDelta(t, 1, stats.R2, 1e-6)
	assert.Equal(t, 15, stats.NumPoints)
}

func TestRegressionEvaluatorMeanRegressorBaseline(t *testing.T) {
	data := lineData(t, 60)
	eval, err := NewRegressionEvaluator(data, WithTestFraction(0.25), WithSeed(7))
	require.NoError(t, err)

	m := model.NewMeanRegressor()
	require.NoError(t, eval.FitModel(m))

	stats, err := eval.EvalModel(m)
	require.NoError(t, err)
	assert.Greater(t, stats.MAE, 1.0, "predicting the mean should miss badly on a line")
	assert.Less(t, stats.R2, 0.5)
}

func TestRegressionEvaluatorPredictBeforeFit(t *testing.T) {
	data := lineData(t, 20)
	eval, err := NewRegressionEvaluator(data, WithTestFraction(0.2))
	require.NoError(t, err)

	_, err = eval.EvalModel(model.NewLinearRegression())
	require.ErrorIs(t, err, model.ErrNotFitted)
}

func TestRegressionEvaluatorTracksMetrics(t *testing.T) {
	data := lineData(t, 40)
	eval, err := NewRegressionEvaluator(data, WithTestFraction(0.25), WithSeed(1))
	require.NoError(t, err)

	rec := &recordingExperiment{}
	eval.SetTrackedExperiment(rec)

	m := model.NewLinearRegression().WithName("line")
	require.NoError(t, eval.FitModel(m))
	_, err = eval.EvalModel(m)
	require.NoError(t, err)

	require.Len(t, rec.calls, 1)
	assert.Contains(t, rec.calls[0].values, "MAE")
	assert.Contains(t, rec.calls[0].values, "R2")
	assert.Equal(t, "line", rec.calls[0].context["model"])
}

func TestComputeRegressionStats(t *testing.T) {
	t.Parallel()

	actual := []float64{1, 2, 3, 4}
	preds := []float64{1, 2, 3, 8}

	stats := computeRegressionStats(actual, preds)
	assert.InDelta(t, 1.0, stats.MAE, 1e-12)
	assert.InDelta(t, 4.0, stats.MSE, 1e-12)
	assert.InDelta(t, 2.0, stats.RMSE, 1e-12)
	assert.Equal(t, 4, stats.NumPoints)
	// ssTot = 5, ssRes = 16.
	assert.InDelta(t, 1-16.0/5.0, stats.R2, 1e-12)
}

func TestComputeRegressionStatsConstantActuals(t *testing.T) {
	t.Parallel()

	stats := computeRegressionStats([]float64{2, 2, 2}, []float64{2, 2, 2})
	assert.True(t, math.IsNaN(stats.R2), "R2 is undefined for constant targets")
	assert.Zero(t, stats.MAE)
}

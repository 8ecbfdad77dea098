package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jambit/sensAI/frame"
	"github.com/jambit/sensAI/model"
)

// separableData builds a two-class dataset: class "a" around x=0, class "b"
// around x=10.
func separableData(t *testing.T, perClass int) InputOutputData {
	t.Helper()
	n := 2 * perClass
	xs := make([]float64, n)
	labels := make([]string, n)
	for i := 0; i < perClass; i++ {
		xs[i] = float64(i%5) * 0.1
		labels[i] = "a"
		xs[perClass+i] = 10 + float64(i%5)*0.1
		labels[perClass+i] = "b"
	}
	inputs := frame.MustNew(frame.FloatSeries("x", xs))
	outputs := frame.MustNew(frame.StringSeries("class", labels))
	data, err := NewInputOutputData(inputs, outputs)
	require.NoError(t, err)
	return data
}

func TestClassificationEvaluatorKNN(t *testing.T) {
	data := separableData(t, 30)
	eval, err := NewClassificationEvaluator(data, WithTestFraction(0.25), WithSeed(3))
	require.NoError(t, err)

	m := model.NewKNNClassifier(3)
	require.NoError(t, eval.FitModel(m))

	stats, err := eval.EvalModel(m)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, stats.Accuracy, 1e-12, "classes are trivially separable")
	assert.InDelta(t, 1.0, stats.MacroF1, 1e-12)
	assert.Equal(t, 15, stats.NumPoints)
}

func TestClassificationEvaluatorTracksMetrics(t *testing.T) {
	data := separableData(t, 20)
	eval, err := NewClassificationEvaluator(data, WithTestFraction(0.25), WithSeed(3))
	require.NoError(t, err)

	rec := &recordingExperiment{}
	eval.SetTrackedExperiment(rec)

	m := model.NewKNNClassifier(1).WithName("knn1")
	require.NoError(t, eval.FitModel(m))
	_, err = eval.EvalModel(m)
	require.NoError(t, err)

	require.Len(t, rec.calls, 1)
	assert.Contains(t, rec.calls[0].values, "Accuracy")
	assert.Equal(t, "knn1", rec.calls[0].context["model"])
}

func TestComputeClassificationStats(t *testing.T) {
	t.Parallel()

	actual := []string{"a", "a", "a", "b", "b", "b"}
	preds := []string{"a", "a", "b", "b", "b", "a"}

	stats := computeClassificationStats(actual, preds)
	assert.InDelta(t, 4.0/6.0, stats.Accuracy, 1e-12)
	// Both classes: precision = recall = 2/3.
	assert.InDelta(t, 2.0/3.0, stats.MacroPrecision, 1e-12)
	assert.InDelta(t, 2.0/3.0, stats.MacroRecall, 1e-12)
	assert.InDelta(t, 2.0/3.0, stats.BalancedAccuracy, 1e-12)
	assert.Equal(t, 2, stats.Confusion["a"]["a"])
	assert.Equal(t, 1, stats.Confusion["a"]["b"])
	assert.Equal(t, 6, stats.NumPoints)
}

func TestComputeClassificationStatsUnseenPrediction(t *testing.T) {
	t.Parallel()

	// A predicted class absent from the actuals must not skew the macro
	// averages: they only run over classes present in the actual labels.
	actual := []string{"a", "a", "b", "b"}
	preds := []string{"a", "c", "b", "b"}

	stats := computeClassificationStats(actual, preds)
	assert.InDelta(t, 0.75, stats.Accuracy, 1e-12)
	// recall(a)=1/2, recall(b)=1.
	assert.InDelta(t, 0.75, stats.MacroRecall, 1e-12)
}

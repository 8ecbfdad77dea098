package evaluation

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/jambit/sensAI/model"
	"github.com/jambit/sensAI/tracking"
)

// RegressionStats is the standardized metric set for regression models.
type RegressionStats struct {
	MAE      float64 `json:"mae"`
	MSE      float64 `json:"mse"`
	RMSE     float64 `json:"rmse"`
	R2       float64 `json:"r2"`
	MedianAE float64 `json:"median_ae"`
	// StdDevErr is the sample standard deviation of the raw errors.
	StdDevErr float64 `json:"stddev_err"`
	NumPoints int     `json:"num_points"`
}

// Metrics flattens the stats into a metrics dict.
func (s *RegressionStats) Metrics() map[string]float64 {
	return map[string]float64{
		"MAE":       s.MAE,
		"MSE":       s.MSE,
		"RMSE":      s.RMSE,
		"R2":        s.R2,
		"MedianAE":  s.MedianAE,
		"StdDevErr": s.StdDevErr,
	}
}

// RegressionEvaluator fits regression models on a train set and computes
// RegressionStats on the held-out test set. When a tracked experiment is
// set, EvalModel forwards the metrics dict to it.
type RegressionEvaluator struct {
	tracking.Mixin

	train InputOutputData
	test  InputOutputData
}

// NewRegressionEvaluator splits the data per the given options and returns
// an evaluator over the split.
func NewRegressionEvaluator(data InputOutputData, opts ...SplitOption) (*RegressionEvaluator, error) {
	train, test, err := Split(data, opts...)
	if err != nil {
		return nil, err
	}
	return &RegressionEvaluator{train: train, test: test}, nil
}

// TrainData returns the training partition.
func (e *RegressionEvaluator) TrainData() InputOutputData { return e.train }

// TestData returns the test partition.
func (e *RegressionEvaluator) TestData() InputOutputData { return e.test }

// FitModel fits the model on the training partition, logging the duration.
func (e *RegressionEvaluator) FitModel(m model.Model) error {
	start := time.Now()
	if err := m.Fit(e.train.Inputs, e.train.Outputs); err != nil {
		return fmt.Errorf("evaluation: fitting %s: %w", m.Name(), err)
	}
	log.Printf("[evaluation] fitted %s on %d points in %s", m.Name(), e.train.NumPoints(), time.Since(start))
	return nil
}

// EvalModel computes regression stats for the model on the test partition.
func (e *RegressionEvaluator) EvalModel(m model.Model) (*RegressionStats, error) {
	predicted, err := m.Predict(e.test.Inputs)
	if err != nil {
		return nil, fmt.Errorf("evaluation: predicting with %s: %w", m.Name(), err)
	}

	targetCol := e.test.Outputs.ColumnNames()[0]
	actual, err := e.test.Outputs.Floats(targetCol)
	if err != nil {
		return nil, err
	}
	predCol := predicted.ColumnNames()[0]
	preds, err := predicted.Floats(predCol)
	if err != nil {
		return nil, err
	}
	if len(preds) != len(actual) {
		return nil, fmt.Errorf("evaluation: %d predictions for %d test points", len(preds), len(actual))
	}

	stats := computeRegressionStats(actual, preds)
	e.Track(stats.Metrics(), tracking.WithContextValues(map[string]string{"model": m.Name()}))
	return stats, nil
}

// EvalMetrics implements ModelEvaluator.
func (e *RegressionEvaluator) EvalMetrics(m model.Model) (map[string]float64, error) {
	s, err := e.EvalModel(m)
	if err != nil {
		return nil, err
	}
	return s.Metrics(), nil
}

func computeRegressionStats(actual, preds []float64) *RegressionStats {
	n := len(actual)
	errs := make([]float64, n)
	absErrs := make([]float64, n)
	var sumAbs, sumSq float64
	for i := range actual {
		e := preds[i] - actual[i]
		errs[i] = e
		absErrs[i] = math.Abs(e)
		sumAbs += absErrs[i]
		sumSq += e * e
	}

	mae := sumAbs / float64(n)
	mse := sumSq / float64(n)

	sort.Float64s(absErrs)
	medianAE := stat.Quantile(0.5, stat.Empirical, absErrs, nil)

	meanActual := stat.Mean(actual, nil)
	var ssTot float64
	for _, a := range actual {
		d := a - meanActual
		ssTot += d * d
	}
	r2 := math.NaN()
	if ssTot > 0 {
		r2 = 1 - sumSq/ssTot
	}

	var stddevErr float64
	if n > 1 {
		stddevErr = stat.StdDev(errs, nil)
	}

	return &RegressionStats{
		MAE:       mae,
		MSE:       mse,
		RMSE:      math.Sqrt(mse),
		R2:        r2,
		MedianAE:  medianAE,
		StdDevErr: stddevErr,
		NumPoints: n,
	}
}

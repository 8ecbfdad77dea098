package model

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/jambit/sensAI/frame"
)

// MeanRegressor always predicts the training-target mean. It serves as the
// baseline other regressors are compared against.
type MeanRegressor struct {
	Base

	mean       float64
	targetName string
}

var _ Model = (*MeanRegressor)(nil)

// NewMeanRegressor returns an unfitted baseline regressor.
func NewMeanRegressor() *MeanRegressor {
	m := &MeanRegressor{}
	m.SetName("MeanRegressor")
	return m
}

// Fit implements Fitter.
func (m *MeanRegressor) Fit(inputs, targets *frame.Frame) error {
	targetName, err := singleTarget(inputs, targets)
	if err != nil {
		return err
	}
	y, err := targets.Floats(targetName)
	if err != nil {
		return fmt.Errorf("model: mean regressor needs a numeric target: %w", err)
	}
	if len(y) == 0 {
		return fmt.Errorf("model: cannot fit on zero rows")
	}
	m.mean = stat.Mean(y, nil)
	m.targetName = targetName
	m.markFitted()
	return nil
}

// Predict implements Predictor.
func (m *MeanRegressor) Predict(inputs *frame.Frame) (*frame.Frame, error) {
	if !m.IsFitted() {
		return nil, ErrNotFitted
	}
	preds := make([]float64, inputs.NumRows())
	for i := range preds {
		preds[i] = m.mean
	}
	return frame.NewWithIndex(inputs.Index(), frame.FloatSeries(m.targetName, preds))
}

// PredictedColumns implements Predictor.
func (m *MeanRegressor) PredictedColumns() []string {
	if m.targetName == "" {
		return nil
	}
	return []string{m.targetName}
}

package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/jambit/sensAI/featuregen"
	"github.com/jambit/sensAI/frame"
	"github.com/jambit/sensAI/transform"
)

// LinearRegression fits ordinary least squares with an intercept. The system
// is solved via SVD, which yields the minimum-norm solution when feature
// columns are collinear (routine with one-hot encoded categoricals).
type LinearRegression struct {
	Base

	coeffs       []float64
	intercept    float64
	featureNames []string
	targetName   string
}

var _ Model = (*LinearRegression)(nil)

// NewLinearRegression returns an unfitted linear regression model.
func NewLinearRegression() *LinearRegression {
	m := &LinearRegression{}
	m.SetName("LinearRegression")
	return m
}

// WithName sets the model name.
func (m *LinearRegression) WithName(name string) *LinearRegression {
	m.SetName(name)
	return m
}

// WithFeatureGenerator sets the feature generator.
func (m *LinearRegression) WithFeatureGenerator(g featuregen.Generator) *LinearRegression {
	m.SetFeatureGenerator(g)
	return m
}

// WithFeatureCollector resolves the collector's named generators at fit time.
func (m *LinearRegression) WithFeatureCollector(c *featuregen.Collector) *LinearRegression {
	m.SetFeatureCollector(c)
	return m
}

// WithInputTransformers appends input transformers.
func (m *LinearRegression) WithInputTransformers(ts ...transform.Transformer) *LinearRegression {
	m.AddInputTransformers(ts...)
	return m
}

// Fit implements Fitter.
func (m *LinearRegression) Fit(inputs, targets *frame.Frame) error {
	targetName, err := singleTarget(inputs, targets)
	if err != nil {
		return err
	}
	features, err := m.processFit(inputs, targets)
	if err != nil {
		return err
	}
	rows, names, err := floatFeatures(features)
	if err != nil {
		return err
	}
	y, err := targets.Floats(targetName)
	if err != nil {
		return fmt.Errorf("model: linear regression needs a numeric target: %w", err)
	}
	n, p := len(rows), len(names)
	if n == 0 {
		return fmt.Errorf("model: cannot fit on zero rows")
	}

	// Design matrix with a leading bias column.
	a := mat.NewDense(n, p+1, nil)
	for i, row := range rows {
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
	}
	b := mat.NewVecDense(n, y)

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return fmt.Errorf("model: svd factorization failed")
	}
	rank := svd.Rank(1e-12)
	if rank == 0 {
		return fmt.Errorf("model: feature matrix has rank 0")
	}
	var sol mat.VecDense
	svd.SolveVecTo(&sol, b, rank)

	m.intercept = sol.AtVec(0)
	m.coeffs = make([]float64, p)
	for j := 0; j < p; j++ {
		m.coeffs[j] = sol.AtVec(j + 1)
	}
	m.featureNames = names
	m.targetName = targetName
	m.markFitted()
	return nil
}

// Predict implements Predictor.
func (m *LinearRegression) Predict(inputs *frame.Frame) (*frame.Frame, error) {
	if !m.IsFitted() {
		return nil, ErrNotFitted
	}
	features, err := m.processApply(inputs)
	if err != nil {
		return nil, err
	}
	rows, names, err := floatFeatures(features)
	if err != nil {
		return nil, err
	}
	if err := checkFeatureNames(m.featureNames, names); err != nil {
		return nil, err
	}

	preds := make([]float64, len(rows))
	for i, row := range rows {
		v := m.intercept
		for j, x := range row {
			v += m.coeffs[j] * x
		}
		preds[i] = v
	}
	return frame.NewWithIndex(inputs.Index(), frame.FloatSeries(m.targetName, preds))
}

// PredictedColumns implements Predictor.
func (m *LinearRegression) PredictedColumns() []string {
	if m.targetName == "" {
		return nil
	}
	return []string{m.targetName}
}

// Coefficients returns the fitted weights by feature name, plus the
// intercept.
func (m *LinearRegression) Coefficients() (map[string]float64, float64) {
	out := make(map[string]float64, len(m.coeffs))
	for i, name := range m.featureNames {
		out[name] = m.coeffs[i]
	}
	return out, m.intercept
}

// Package model defines trainable models over data frames and the input
// pipeline binding them to feature generation and normalisation. A model
// wraps a learning algorithm; its embedded Base runs the configured feature
// generator and input transformers before fitting and prediction.
package model

import (
	"errors"
	"fmt"

	"github.com/jambit/sensAI/featuregen"
	"github.com/jambit/sensAI/frame"
	"github.com/jambit/sensAI/transform"
)

// ErrNotFitted is returned when Predict runs before Fit.
var ErrNotFitted = errors.New("model: not fitted")

// Predictor produces outputs for input frames.
type Predictor interface {
	Predict(inputs *frame.Frame) (*frame.Frame, error)
	// PredictedColumns names the output columns, known after fitting.
	PredictedColumns() []string
}

// Fitter learns from inputs and targets.
type Fitter interface {
	Fit(inputs, targets *frame.Frame) error
	IsFitted() bool
}

// Model is a named, trainable predictor.
type Model interface {
	Predictor
	Fitter
	Name() string
}

// Base implements the shared input pipeline: an optional feature generator
// followed by input transformers. Concrete models embed it and call
// processFit / processApply around their algorithm.
type Base struct {
	name         string
	generator    featuregen.Generator
	collector    *featuregen.Collector
	transformers []transform.Transformer
	fitted       bool
}

// Name returns the model name (possibly empty).
func (b *Base) Name() string { return b.name }

// SetName assigns the model name.
func (b *Base) SetName(name string) { b.name = name }

// SetFeatureGenerator assigns the feature generator applied to raw inputs.
func (b *Base) SetFeatureGenerator(g featuregen.Generator) { b.generator = g }

// SetFeatureCollector assigns a collector whose combined generator is
// resolved at fit time. It replaces any directly set generator.
func (b *Base) SetFeatureCollector(c *featuregen.Collector) { b.collector = c }

// AddInputTransformers appends transformers applied after feature
// generation, in order.
func (b *Base) AddInputTransformers(ts ...transform.Transformer) {
	b.transformers = append(b.transformers, ts...)
}

// IsFitted implements Fitter.
func (b *Base) IsFitted() bool { return b.fitted }

func (b *Base) markFitted() { b.fitted = true }

// processFit runs the pipeline in training mode: fit-generate features, feed
// generator normalisation rules into any normalisation transformer, then
// fit-apply each transformer.
func (b *Base) processFit(inputs, targets *frame.Frame) (*frame.Frame, error) {
	if b.collector != nil {
		g, err := b.collector.Generator()
		if err != nil {
			return nil, fmt.Errorf("model: resolving feature collector: %w", err)
		}
		b.generator = g
	}
	features := inputs
	if b.generator != nil {
		var err error
		features, err = featuregen.FitGenerate(b.generator, inputs, targets)
		if err != nil {
			return nil, fmt.Errorf("model: feature generation: %w", err)
		}
		if rules := b.generator.NormalisationRules(); len(rules) > 0 {
			for _, t := range b.transformers {
				if n, ok := t.(*transform.Normalisation); ok {
					n.AddRules(rules...)
				}
			}
		}
	}
	for i, t := range b.transformers {
		var err error
		features, err = transform.FitApply(t, features)
		if err != nil {
			return nil, fmt.Errorf("model: input transformer %d: %w", i, err)
		}
	}
	return features, nil
}

// processApply runs the fitted pipeline in prediction mode.
func (b *Base) processApply(inputs *frame.Frame) (*frame.Frame, error) {
	features := inputs
	if b.generator != nil {
		var err error
		features, err = b.generator.Generate(inputs)
		if err != nil {
			return nil, fmt.Errorf("model: feature generation: %w", err)
		}
	}
	for i, t := range b.transformers {
		var err error
		features, err = t.Apply(features)
		if err != nil {
			return nil, fmt.Errorf("model: input transformer %d: %w", i, err)
		}
	}
	return features, nil
}

// singleTarget validates that targets holds exactly one column with the same
// row count as inputs, returning its name.
func singleTarget(inputs, targets *frame.Frame) (string, error) {
	if targets == nil || targets.NumCols() != 1 {
		n := 0
		if targets != nil {
			n = targets.NumCols()
		}
		return "", fmt.Errorf("model: exactly one target column required, got %d", n)
	}
	if targets.NumRows() != inputs.NumRows() {
		return "", fmt.Errorf("model: %d input rows but %d target rows", inputs.NumRows(), targets.NumRows())
	}
	return targets.ColumnNames()[0], nil
}

// floatFeatures extracts the feature matrix, rejecting frames that still
// carry string columns (categoricals must be encoded first).
func floatFeatures(features *frame.Frame) ([][]float64, []string, error) {
	for _, name := range features.ColumnNames() {
		col, _ := features.Column(name)
		if col.Kind != frame.Float {
			return nil, nil, fmt.Errorf("model: feature column %q is not numeric; encode categoricals before fitting", name)
		}
	}
	rows, names := features.FloatMatrix()
	if len(names) == 0 {
		return nil, nil, fmt.Errorf("model: no feature columns")
	}
	return rows, names, nil
}

// checkFeatureNames verifies prediction features line up with the fitted
// ones.
func checkFeatureNames(fitted, got []string) error {
	if len(fitted) != len(got) {
		return fmt.Errorf("model: fitted on %d feature columns, got %d", len(fitted), len(got))
	}
	for i := range fitted {
		if fitted[i] != got[i] {
			return fmt.Errorf("model: feature column %d is %q, fitted on %q", i, got[i], fitted[i])
		}
	}
	return nil
}

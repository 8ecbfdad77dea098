package model

import (
	"fmt"
	"sort"

	"github.com/jambit/sensAI/featuregen"
	"github.com/jambit/sensAI/frame"
	"github.com/jambit/sensAI/transform"
)

// KNNClassifier predicts the majority label among the k nearest training
// rows by Euclidean distance. Ties on the vote break toward the
// lexicographically smallest label so predictions are deterministic.
type KNNClassifier struct {
	Base

	k            int
	points       [][]float64
	labels       []string
	featureNames []string
	targetName   string
}

var _ Model = (*KNNClassifier)(nil)

// NewKNNClassifier returns an unfitted classifier with the given
// neighbourhood size.
func NewKNNClassifier(k int) *KNNClassifier {
	m := &KNNClassifier{k: k}
	m.SetName(fmt.Sprintf("KNNClassifier(k=%d)", k))
	return m
}

// WithName sets the model name.
func (m *KNNClassifier) WithName(name string) *KNNClassifier {
	m.SetName(name)
	return m
}

// WithFeatureGenerator sets the feature generator.
func (m *KNNClassifier) WithFeatureGenerator(g featuregen.Generator) *KNNClassifier {
	m.SetFeatureGenerator(g)
	return m
}

// WithFeatureCollector resolves the collector's named generators at fit time.
func (m *KNNClassifier) WithFeatureCollector(c *featuregen.Collector) *KNNClassifier {
	m.SetFeatureCollector(c)
	return m
}

// WithInputTransformers appends input transformers.
func (m *KNNClassifier) WithInputTransformers(ts ...transform.Transformer) *KNNClassifier {
	m.AddInputTransformers(ts...)
	return m
}

// Fit implements Fitter. The single target column must be categorical.
func (m *KNNClassifier) Fit(inputs, targets *frame.Frame) error {
	if m.k < 1 {
		return fmt.Errorf("model: k must be >= 1, got %d", m.k)
	}
	targetName, err := singleTarget(inputs, targets)
	if err != nil {
		return err
	}
	labels, err := targets.Strings(targetName)
	if err != nil {
		return fmt.Errorf("model: knn classifier needs a categorical target: %w", err)
	}
	features, err := m.processFit(inputs, targets)
	if err != nil {
		return err
	}
	rows, names, err := floatFeatures(features)
	if err != nil {
		return err
	}
	if m.k > len(rows) {
		return fmt.Errorf("model: k=%d exceeds %d training rows", m.k, len(rows))
	}

	m.points = rows
	m.labels = labels
	m.featureNames = names
	m.targetName = targetName
	m.markFitted()
	return nil
}

// Predict implements Predictor.
func (m *KNNClassifier) Predict(inputs *frame.Frame) (*frame.Frame, error) {
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

	preds := make([]string, len(rows))
	for i, row := range rows {
		preds[i] = m.vote(row)
	}
	return frame.NewWithIndex(inputs.Index(), frame.StringSeries(m.targetName, preds))
}

func (m *KNNClassifier) vote(query []float64) string {
	type neighbour struct {
		dist  float64
		label string
	}
	nbrs := make([]neighbour, len(m.points))
	for i, p := range m.points {
		nbrs[i] = neighbour{dist: euclidSquared(query, p), label: m.labels[i]}
	}
	sort.Slice(nbrs, func(i, j int) bool {
		if nbrs[i].dist != nbrs[j].dist {
			return nbrs[i].dist < nbrs[j].dist
		}
		return nbrs[i].label < nbrs[j].label
	})

	votes := make(map[string]int, m.k)
	for _, n := range nbrs[:m.k] {
		votes[n.label]++
	}
	best, bestCount := "", -1
	for label, count := range votes {
		if count > bestCount || (count == bestCount && label < best) {
			best, bestCount = label, count
		}
	}
	return best
}

func euclidSquared(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// PredictedColumns implements Predictor.
func (m *KNNClassifier) PredictedColumns() []string {
	if m.targetName == "" {
		return nil
	}
	return []string{m.targetName}
}

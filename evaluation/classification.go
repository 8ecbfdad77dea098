package evaluation

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/jambit/sensAI/model"
	"github.com/jambit/sensAI/tracking"
)

// ClassificationStats is the standardized metric set for classifiers.
// Precision, recall and F1 are macro-averaged over classes.
type ClassificationStats struct {
	Accuracy         float64 `json:"accuracy"`
	BalancedAccuracy float64 `json:"balanced_accuracy"`
	MacroPrecision   float64 `json:"macro_precision"`
	MacroRecall      float64 `json:"macro_recall"`
	MacroF1          float64 `json:"macro_f1"`
	NumPoints        int     `json:"num_points"`

	// Confusion counts predictions per (actual, predicted) label pair.
	Confusion map[string]map[string]int `json:"confusion"`
}

// Metrics flattens the stats into a metrics dict.
func (s *ClassificationStats) Metrics() map[string]float64 {
	return map[string]float64{
		"Accuracy":         s.Accuracy,
		"BalancedAccuracy": s.BalancedAccuracy,
		"MacroPrecision":   s.MacroPrecision,
		"MacroRecall":      s.MacroRecall,
		"MacroF1":          s.MacroF1,
	}
}

// ClassificationEvaluator fits classifiers on a train set and computes
// ClassificationStats on the held-out test set. When a tracked experiment
// is set, EvalModel forwards the metrics dict to it.
type ClassificationEvaluator struct {
	tracking.Mixin

	train InputOutputData
	test  InputOutputData
}

// NewClassificationEvaluator splits the data per the given options and
// returns an evaluator over the split.
func NewClassificationEvaluator(data InputOutputData, opts ...SplitOption) (*ClassificationEvaluator, error) {
	train, test, err := Split(data, opts...)
	if err != nil {
		return nil, err
	}
	return &ClassificationEvaluator{train: train, test: test}, nil
}

// TrainData returns the training partition.
func (e *ClassificationEvaluator) TrainData() InputOutputData { return e.train }

// TestData returns the test partition.
func (e *ClassificationEvaluator) TestData() InputOutputData { return e.test }

// FitModel fits the model on the training partition, logging the duration.
func (e *ClassificationEvaluator) FitModel(m model.Model) error {
	start := time.Now()
	if err := m.Fit(e.train.Inputs, e.train.Outputs); err != nil {
		return fmt.Errorf("evaluation: fitting %s: %w", m.Name(), err)
	}
	log.Printf("[evaluation] fitted %s on %d points in %s", m.Name(), e.train.NumPoints(), time.Since(start))
	return nil
}

// EvalModel computes classification stats for the model on the test
// partition.
func (e *ClassificationEvaluator) EvalModel(m model.Model) (*ClassificationStats, error) {
	predicted, err := m.Predict(e.test.Inputs)
	if err != nil {
		return nil, fmt.Errorf("evaluation: predicting with %s: %w", m.Name(), err)
	}

	targetCol := e.test.Outputs.ColumnNames()[0]
	actual, err := e.test.Outputs.Strings(targetCol)
	if err != nil {
		return nil, err
	}
	predCol := predicted.ColumnNames()[0]
	preds, err := predicted.Strings(predCol)
	if err != nil {
		return nil, err
	}
	if len(preds) != len(actual) {
		return nil, fmt.Errorf("evaluation: %d predictions for %d test points", len(preds), len(actual))
	}

	stats := computeClassificationStats(actual, preds)
	e.Track(stats.Metrics(), tracking.WithContextValues(map[string]string{"model": m.Name()}))
	return stats, nil
}

// EvalMetrics implements ModelEvaluator.
func (e *ClassificationEvaluator) EvalMetrics(m model.Model) (map[string]float64, error) {
	s, err := e.EvalModel(m)
	if err != nil {
		return nil, err
	}
	return s.Metrics(), nil
}

func computeClassificationStats(actual, preds []string) *ClassificationStats {
	n := len(actual)
	confusion := make(map[string]map[string]int)
	labelSet := make(map[string]bool)

	correct := 0
	for i := range actual {
		a, p := actual[i], preds[i]
		labelSet[a] = true
		labelSet[p] = true
		if confusion[a] == nil {
			confusion[a] = make(map[string]int)
		}
		confusion[a][p]++
		if a == p {
			correct++
		}
	}

	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	// Per-class precision/recall; classes absent from the test set do not
	// contribute to the macro averages.
	var sumPrecision, sumRecall, sumF1, sumRecallPresent float64
	present := 0
	for _, label := range labels {
		var tp, fp, fn int
		for _, a := range labels {
			for _, p := range labels {
				c := confusion[a][p]
				switch {
				case a == label && p == label:
					tp += c
				case a != label && p == label:
					fp += c
				case a == label && p != label:
					fn += c
				}
			}
		}
		if tp+fn == 0 {
			continue // class never actually occurs
		}
		present++

		var precision, recall float64
		if tp+fp > 0 {
			precision = float64(tp) / float64(tp+fp)
		}
		recall = float64(tp) / float64(tp+fn)

		var f1 float64
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		sumPrecision += precision
		sumRecall += recall
		sumF1 += f1
		sumRecallPresent += recall
	}

	stats := &ClassificationStats{
		Accuracy:  float64(correct) / float64(n),
		NumPoints: n,
		Confusion: confusion,
	}
	if present > 0 {
		stats.MacroPrecision = sumPrecision / float64(present)
		stats.MacroRecall = sumRecall / float64(present)
		stats.MacroF1 = sumF1 / float64(present)
		stats.BalancedAccuracy = sumRecallPresent / float64(present)
	}
	return stats
}

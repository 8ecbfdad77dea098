package evaluation

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/jambit/sensAI/model"
)

// DefaultNumFolds is the fold count used when none is configured.
const DefaultNumFolds = 5

// FoldResult holds the outcome of one cross-validation fold.
type FoldResult struct {
	Fold    int
	Metrics map[string]float64
	// Model is the fold's trained model when the cross-validator retains
	// models, nil otherwise.
	Model model.Model
}

// CrossValidationResult collects per-fold metrics and their aggregates.
type CrossValidationResult struct {
	Folds []FoldResult
	// Aggregates holds mean[X] and std[X] for every metric X.
	Aggregates map[string]float64
}

// CrossValidator evaluates model configurations with k-fold
// cross-validation: a seeded permutation of the data is cut into k
// contiguous stripes, each serving once as the test set.
type CrossValidator struct {
	data         InputOutputData
	folds        int
	seed         int64
	retainModels bool
}

// CrossValidatorOption configures a CrossValidator.
type CrossValidatorOption func(*CrossValidator)

// WithNumFolds sets the fold count (default 5).
func WithNumFolds(k int) CrossValidatorOption {
	return func(cv *CrossValidator) { cv.folds = k }
}

// WithFoldSeed sets the permutation seed.
func WithFoldSeed(seed int64) CrossValidatorOption {
	return func(cv *CrossValidator) { cv.seed = seed }
}

// WithTrainedModels retains each fold's trained model in the fold results.
func WithTrainedModels() CrossValidatorOption {
	return func(cv *CrossValidator) { cv.retainModels = true }
}

// NewCrossValidator builds a cross-validator over the data.
func NewCrossValidator(data InputOutputData, opts ...CrossValidatorOption) (*CrossValidator, error) {
	cv := &CrossValidator{data: data, folds: DefaultNumFolds}
	for _, opt := range opts {
		opt(cv)
	}
	if cv.folds < 2 {
		return nil, fmt.Errorf("evaluation: folds must be >= 2, got %d", cv.folds)
	}
	if data.NumPoints() < cv.folds {
		return nil, fmt.Errorf("evaluation: %d points is fewer than %d folds", data.NumPoints(), cv.folds)
	}
	return cv, nil
}

// EvalRegression cross-validates regression models produced by the factory,
// one fresh model per fold.
func (cv *CrossValidator) EvalRegression(factory func() model.Model) (*CrossValidationResult, error) {
	return cv.eval(factory, func(train, test InputOutputData) (ModelEvaluator, error) {
		return NewRegressionEvaluator(train, WithTestData(test))
	})
}

// EvalClassification cross-validates classifiers produced by the factory,
// one fresh model per fold.
func (cv *CrossValidator) EvalClassification(factory func() model.Model) (*CrossValidationResult, error) {
	return cv.eval(factory, func(train, test InputOutputData) (ModelEvaluator, error) {
		return NewClassificationEvaluator(train, WithTestData(test))
	})
}

func (cv *CrossValidator) eval(
	factory func() model.Model,
	newEvaluator func(train, test InputOutputData) (ModelEvaluator, error),
) (*CrossValidationResult, error) {
	n := cv.data.NumPoints()
	positions := rand.New(rand.NewSource(cv.seed)).Perm(n)

	result := &CrossValidationResult{}
	var collection StatsCollection

	for fold := 0; fold < cv.folds; fold++ {
		lo := fold * n / cv.folds
		hi := (fold + 1) * n / cv.folds

		testPositions := positions[lo:hi]
		trainPositions := make([]int, 0, n-len(testPositions))
		trainPositions = append(trainPositions, positions[:lo]...)
		trainPositions = append(trainPositions, positions[hi:]...)

		test, err := cv.data.Slice(testPositions)
		if err != nil {
			return nil, err
		}
		train, err := cv.data.Slice(trainPositions)
		if err != nil {
			return nil, err
		}

		evaluator, err := newEvaluator(train, test)
		if err != nil {
			return nil, err
		}

		m := factory()
		metrics, err := MetricsDict(m, evaluator)
		if err != nil {
			return nil, fmt.Errorf("evaluation: fold %d: %w", fold, err)
		}
		log.Printf("[evaluation] fold %d/%d: %d train, %d test points", fold+1, cv.folds,
			train.NumPoints(), test.NumPoints())

		fr := FoldResult{Fold: fold, Metrics: metrics}
		if cv.retainModels {
			fr.Model = m
		}
		result.Folds = append(result.Folds, fr)
		collection.Add(metrics)
	}

	result.Aggregates = collection.Agg()
	return result, nil
}

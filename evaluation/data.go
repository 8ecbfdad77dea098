// Package evaluation runs models against fixed datasets and computes
// standardized metric sets: supervised regression and classification
// evaluators over seeded train/test splits, k-fold cross-validation, and
// supervised/unsupervised clustering evaluators.
package evaluation

import (
	"fmt"
	"math/rand"

	"github.com/jambit/sensAI/frame"
)

// InputOutputData pairs model inputs with their target outputs over a
// shared row index.
type InputOutputData struct {
	Inputs  *frame.Frame
	Outputs *frame.Frame
}

// NewInputOutputData validates that inputs and outputs have matching row
// counts.
func NewInputOutputData(inputs, outputs *frame.Frame) (InputOutputData, error) {
	if inputs.NumRows() != outputs.NumRows() {
		return InputOutputData{}, fmt.Errorf("evaluation: %d input rows but %d output rows",
			inputs.NumRows(), outputs.NumRows())
	}
	return InputOutputData{Inputs: inputs, Outputs: outputs}, nil
}

// NumPoints returns the number of data points.
func (d InputOutputData) NumPoints() int {
	if d.Inputs == nil {
		return 0
	}
	return d.Inputs.NumRows()
}

// Slice returns the data points at the given row positions.
func (d InputOutputData) Slice(positions []int) (InputOutputData, error) {
	inputs, err := d.Inputs.Slice(positions)
	if err != nil {
		return InputOutputData{}, err
	}
	outputs, err := d.Outputs.Slice(positions)
	if err != nil {
		return InputOutputData{}, err
	}
	return InputOutputData{Inputs: inputs, Outputs: outputs}, nil
}

// splitConfig collects the options controlling a train/test split.
type splitConfig struct {
	testFraction *float64
	testData     *InputOutputData
	seed         int64
	shuffle      bool
}

// SplitOption configures how evaluators split their data.
type SplitOption func(*splitConfig)

// WithTestFraction holds out the given fraction of the data as the test
// set.
func WithTestFraction(fraction float64) SplitOption {
	return func(c *splitConfig) { c.testFraction = &fraction }
}

// WithTestData evaluates on a fixed, separately supplied test set; all of
// the primary data becomes training data.
func WithTestData(data InputOutputData) SplitOption {
	return func(c *splitConfig) { c.testData = &data }
}

// WithSeed sets the shuffle seed. The same seed on the same data produces
// the same split.
func WithSeed(seed int64) SplitOption {
	return func(c *splitConfig) { c.seed = seed }
}

// WithoutShuffle splits the data in its stored order, for ordered data
// such as time series.
func WithoutShuffle() SplitOption {
	return func(c *splitConfig) { c.shuffle = false }
}

// Split divides data into train and test sets. Exactly one of
// WithTestFraction and WithTestData must be given.
func Split(data InputOutputData, opts ...SplitOption) (train, test InputOutputData, err error) {
	cfg := splitConfig{shuffle: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	if (cfg.testFraction == nil) == (cfg.testData == nil) {
		return InputOutputData{}, InputOutputData{},
			fmt.Errorf("evaluation: exactly one of test fraction and test data must be provided")
	}

	if cfg.testData != nil {
		return data, *cfg.testData, nil
	}

	f := *cfg.testFraction
	if f <= 0 || f >= 1 {
		return InputOutputData{}, InputOutputData{},
			fmt.Errorf("evaluation: test fraction must be in (0,1), got %v", f)
	}

	n := data.NumPoints()
	if n < 2 {
		return InputOutputData{}, InputOutputData{},
			fmt.Errorf("evaluation: need at least 2 points to split, got %d", n)
	}
	positions := make([]int, n)
	for i := range positions {
		positions[i] = i
	}
	if cfg.shuffle {
		rng := rand.New(rand.NewSource(cfg.seed))
		rng.Shuffle(n, func(i, j int) {
			positions[i], positions[j] = positions[j], positions[i]
		})
	}

	numTest := int(float64(n) * f)
	if numTest < 1 {
		numTest = 1
	}
	if numTest >= n {
		numTest = n - 1
	}

	test, err = data.Slice(positions[:numTest])
	if err != nil {
		return InputOutputData{}, InputOutputData{}, err
	}
	train, err = data.Slice(positions[numTest:])
	if err != nil {
		return InputOutputData{}, InputOutputData{}, err
	}
	return train, test, nil
}

package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jambit/sensAI/frame"
)

func lineData(t *testing.T, n int) InputOutputData {
	t.Helper()
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
		ys[i] = 3*float64(i) + 1
	}
	inputs := frame.MustNew(frame.FloatSeries("x", xs))
	outputs := frame.MustNew(frame.FloatSeries("y", ys))
	data, err := NewInputOutputData(inputs, outputs)
	require.NoError(t, err)
	return data
}

func TestNewInputOutputDataLengthMismatch(t *testing.T) {
	t.Parallel()

	inputs := frame.MustNew(frame.FloatSeries("x", []float64{1, 2}))
	outputs := frame.MustNew(frame.FloatSeries("y", []float64{1}))
	_, err := NewInputOutputData(inputs, outputs)
	require.Error(t, err)
}

func TestSplitFraction(t *testing.T) {
	t.Parallel()

	data := lineData(t, 100)
	train, test, err := Split(data, WithTestFraction(0.2), WithSeed(1))
	require.NoError(t, err)

	assert.Equal(t, 20, test.NumPoints())
	assert.Equal(t, 80, train.NumPoints())

	// No row appears in both partitions: row indices are preserved.
	seen := map[int]bool{}
	for _, idx := range train.Inputs.Index() {
		seen[idx] = true
	}
	for _, idx := range test.Inputs.Index() {
		assert.False(t, seen[idx], "row %d appears in both partitions", idx)
	}
}

func TestSplitTooFewPoints(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1} {
		data := lineData(t, n)
		_, _, err := Split(data, WithTestFraction(0.2))
		require.Error(t, err, "%d points", n)
		assert.Contains(t, err.Error(), "at least 2 points")
	}
}

func TestSplitDeterministicForSeed(t *testing.T) {
	t.Parallel()

	data := lineData(t, 50)
	_, test1, err := Split(data, WithTestFraction(0.3), WithSeed(42))
	require.NoError(t, err)
	_, test2, err := Split(data, WithTestFraction(0.3), WithSeed(42))
	require.NoError(t, err)

	assert.Equal(t, test1.Inputs.Index(), test2.Inputs.Index())

	_, test3, err := Split(data, WithTestFraction(0.3), WithSeed(43))
	require.NoError(t, err)
	assert.NotEqual(t, test1.Inputs.Index(), test3.Inputs.Index(),
		"different seeds should shuffle differently")
}

func TestSplitWithoutShuffle(t *testing.T) {
	t.Parallel()

	data := lineData(t, 10)
	_, test, err := Split(data, WithTestFraction(0.2), WithoutShuffle())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, test.Inputs.Index())
}

func TestSplitWithTestData(t *testing.T) {
	t.Parallel()

	data := lineData(t, 10)
	held := lineData(t, 4)
	train, test, err := Split(data, WithTestData(held))
	require.NoError(t, err)
	assert.Equal(t, 10, train.NumPoints())
	assert.Equal(t, 4, test.NumPoints())
}

func TestSplitExactlyOneMode(t *testing.T) {
	t.Parallel()

	data := lineData(t, 10)

	_, _, err := Split(data)
	require.Error(t, err, "neither mode given")

	_, _, err = Split(data, WithTestFraction(0.5), WithTestData(data))
	require.Error(t, err, "both modes given")

	_, _, err = Split(data, WithTestFraction(1.5))
	require.Error(t, err, "fraction out of range")
}

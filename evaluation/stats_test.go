package evaluation

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStatsCollectionAgg(t *testing.T) {
	t.Parallel()

	var c StatsCollection
	c.Add(map[string]float64{"MAE": 1, "R2": 0.8})
	c.Add(map[string]float64{"MAE": 3, "R2": 0.6})

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}

	agg := c.Agg()
	want := map[string]float64{
		"mean[MAE]": 2,
		"std[MAE]":  math.Sqrt(2),
		"mean[R2]":  0.7,
		"std[R2]":   math.Sqrt(0.02),
	}
	if diff := cmp.Diff(want, agg, cmpFloatApprox()); diff != "" {
		t.Errorf("Agg() mismatch (-want +got):\n%s", diff)
	}
}

func cmpFloatApprox() cmp.Option {
	return cmp.Comparer(func(a, b float64) bool {
		return math.Abs(a-b) < 1e-12
	})
}

func TestStatsCollectionAggSingleEntry(t *testing.T) {
	t.Parallel()

	var c StatsCollection
	c.Add(map[string]float64{"MAE": 5})

	agg := c.Agg()
	if agg["mean[MAE]"] != 5 {
		t.Errorf("mean[MAE] = %v, want 5", agg["mean[MAE]"])
	}
	if agg["std[MAE]"] != 0 {
		t.Errorf("std[MAE] = %v, want 0 for a single entry", agg["std[MAE]"])
	}
}

func TestStatsCollectionAggEmpty(t *testing.T) {
	t.Parallel()

	var c StatsCollection
	if agg := c.Agg(); len(agg) != 0 {
		t.Errorf("Agg() on empty collection = %v, want empty", agg)
	}
}

func TestMeanStddev(t *testing.T) {
	t.Parallel()

	mean, stddev := MeanStddev([]float64{2, 4, 6})
	if mean != 4 {
		t.Errorf("mean = %v, want 4", mean)
	}
	if math.Abs(stddev-2) > 1e-12 {
		t.Errorf("stddev = %v, want 2", stddev)
	}

	mean, stddev = MeanStddev([]float64{7})
	if mean != 7 || stddev != 0 {
		t.Errorf("single value: got mean=%v stddev=%v, want 7, 0", mean, stddev)
	}
}

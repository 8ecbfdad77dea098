package transform

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestStandardScaler(t *testing.T) {
	t.Parallel()
	s := &StandardScaler{}
	s.Fit([]float64{2, 4, 6, 8})

	if !almostEqual(s.Mean, 5) {
		t.Errorf("Mean = %v, want 5", s.Mean)
	}

	out := s.Apply([]float64{5, 2})
	if !almostEqual(out[0], 0) {
		t.Errorf("scaled mean = %v, want 0", out[0])
	}
	if out[1] >= 0 {
		t.Errorf("value below mean should scale negative, got %v", out[1])
	}
}

func TestStandardScalerConstantColumn(t *testing.T) {
	t.Parallel()
	s := &StandardScaler{}
	s.Fit([]float64{3, 3, 3})

	out := s.Apply([]float64{3})
	if !almostEqual(out[0], 0) {
		t.Errorf("constant column should scale to 0, got %v", out[0])
	}
}

func TestStandardScalerSkipsNaN(t *testing.T) {
	t.Parallel()
	s := &StandardScaler{}
	s.Fit([]float64{1, math.NaN(), 3})
	if !almostEqual(s.Mean, 2) {
		t.Errorf("Mean with NaN skipped = %v, want 2", s.Mean)
	}
}

func TestMinMaxScaler(t *testing.T) {
	t.Parallel()
	s := &MinMaxScaler{}
	s.Fit([]float64{10, 20, 30})

	out := s.Apply([]float64{10, 20, 30})
	want := []float64{0, 0.5, 1}
	for i := range want {
		if !almostEqual(out[i], want[i]) {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}

	// Degenerate range maps to 0.
	c := &MinMaxScaler{}
	c.Fit([]float64{7, 7})
	if got := c.Apply([]float64{7})[0]; !almostEqual(got, 0) {
		t.Errorf("degenerate range should map to 0, got %v", got)
	}
}

func TestMaxAbsScaler(t *testing.T) {
	t.Parallel()
	s := &MaxAbsScaler{}
	s.Fit([]float64{-4, 2})

	out := s.Apply([]float64{-4, 2, 0})
	if !almostEqual(out[0], -1) || !almostEqual(out[1], 0.5) || !almostEqual(out[2], 0) {
		t.Errorf("MaxAbs output = %v", out)
	}

	z := &MaxAbsScaler{}
	z.Fit([]float64{0, 0})
	if got := z.Apply([]float64{0})[0]; !almostEqual(got, 0) {
		t.Errorf("all-zero column should stay 0, got %v", got)
	}
}

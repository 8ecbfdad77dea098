package gridsearch

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGridCombinationsOrder(t *testing.T) {
	t.Parallel()

	grid, err := NewGrid(
		Param{Name: "a", Kind: KindFloat, Values: []any{1.0, 2.0}},
		Param{Name: "b", Kind: KindInt, Values: []any{10, 20, 30}},
	)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	if grid.Size() != 6 {
		t.Errorf("Size() = %d, want 6", grid.Size())
	}

	combos, err := grid.Combinations()
	if err != nil {
		t.Fatalf("Combinations: %v", err)
	}

	// The last declared parameter varies fastest.
	want := []Assignment{
		{"a": 1.0, "b": 10},
		{"a": 1.0, "b": 20},
		{"a": 1.0, "b": 30},
		{"a": 2.0, "b": 10},
		{"a": 2.0, "b": 20},
		{"a": 2.0, "b": 30},
	}
	if diff := cmp.Diff(want, combos); diff != "" {
		t.Errorf("Combinations mismatch (-want +got):\n%s", diff)
	}
}

func TestNewGridDuplicateParam(t *testing.T) {
	t.Parallel()

	_, err := NewGrid(
		Param{Name: "a", Kind: KindFloat, Values: []any{1.0}},
		Param{Name: "a", Kind: KindFloat, Values: []any{2.0}},
	)
	if err == nil {
		t.Error("expected error for duplicate param name")
	}
}

func TestGridCombinationsLimit(t *testing.T) {
	t.Parallel()

	grid, err := NewGrid(
		Param{Name: "a", Kind: KindInt, Start: 1, End: 200, Step: 1},
		Param{Name: "b", Kind: KindInt, Start: 1, End: 200, Step: 1},
	)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	if _, err := grid.Combinations(); err == nil {
		t.Error("expected error for 40000 combinations")
	}
}

func TestGridEmpty(t *testing.T) {
	t.Parallel()

	grid, err := NewGrid()
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	combos, err := grid.Combinations()
	if err != nil || combos != nil {
		t.Errorf("empty grid: got %v, %v; want nil, nil", combos, err)
	}
}

func TestAssignmentAccessors(t *testing.T) {
	t.Parallel()

	a := Assignment{"eps": 0.5, "minPts": 12, "verbose": true, "mode": "fast"}

	if v, ok := a.Float("eps"); !ok || v != 0.5 {
		t.Errorf("Float(eps) = %v, %v", v, ok)
	}
	if v, ok := a.Float("minPts"); !ok || v != 12 {
		t.Errorf("Float(minPts) = %v, %v; ints convert to floats", v, ok)
	}
	if v, ok := a.Int("minPts"); !ok || v != 12 {
		t.Errorf("Int(minPts) = %v, %v", v, ok)
	}
	if v, ok := a.Bool("verbose"); !ok || !v {
		t.Errorf("Bool(verbose) = %v, %v", v, ok)
	}
	if v, ok := a.String("mode"); !ok || v != "fast" {
		t.Errorf("String(mode) = %v, %v", v, ok)
	}
	if _, ok := a.Float("missing"); ok {
		t.Error("Float(missing) reported ok")
	}
}

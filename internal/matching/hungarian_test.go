package matching

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAssignIdentity(t *testing.T) {
	t.Parallel()

	cost := [][]float64{
		{0, 5, 5},
		{5, 0, 5},
		{5, 5, 0},
	}
	got := Assign(cost)
	want := []int{0, 1, 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Assign mismatch (-want +got):\n%s", diff)
	}
}

func TestAssignAvoidsGreedyTrap(t *testing.T) {
	t.Parallel()

	// Greedy matching would give row 0 column 0 (cost 1) forcing row 1 onto
	// column 1 (cost 10, total 11). Optimal is the swap (total 6).
	cost := [][]float64{
		{1, 2},
		{4, 10},
	}
	got := Assign(cost)
	want := []int{1, 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Assign mismatch (-want +got):\n%s", diff)
	}
}

func TestAssignRectangular(t *testing.T) {
	t.Parallel()

	// More rows than columns: one row must stay unassigned.
	cost := [][]float64{
		{1, 9},
		{9, 1},
		{5, 5},
	}
	got := Assign(cost)
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("expected cheap diagonal, got %v", got)
	}
	if got[2] != -1 {
		t.Errorf("row 2 should be unassigned, got %d", got[2])
	}
}

func TestAssignForbidden(t *testing.T) {
	t.Parallel()

	cost := [][]float64{
		{Forbidden, Forbidden},
		{1, Forbidden},
	}
	got := Assign(cost)
	if got[0] != -1 {
		t.Errorf("row 0 has only forbidden pairings, got %d", got[0])
	}
	if got[1] != 0 {
		t.Errorf("row 1 should take column 0, got %d", got[1])
	}
}

func TestAssignEmpty(t *testing.T) {
	t.Parallel()

	if got := Assign(nil); got != nil {
		t.Errorf("expected nil for empty matrix, got %v", got)
	}
	got := Assign([][]float64{{}, {}})
	want := []int{-1, -1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Assign mismatch (-want +got):\n%s", diff)
	}
}

package gridsearch

import (
	"fmt"
	"sort"
)

// maxCombinations caps the size of an expanded grid.
const maxCombinations = 10000

// Assignment is one point of the grid: a value for every parameter.
type Assignment map[string]any

// Float returns the named parameter as a float64.
func (a Assignment) Float(name string) (float64, bool) {
	switch v := a[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Int returns the named parameter as an int.
func (a Assignment) Int(name string) (int, bool) {
	switch v := a[name].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Bool returns the named parameter as a bool.
func (a Assignment) Bool(name string) (bool, bool) {
	v, ok := a[name].(bool)
	return v, ok
}

// String returns the named parameter as a string.
func (a Assignment) String(name string) (string, bool) {
	v, ok := a[name].(string)
	return v, ok
}

// Grid is an ordered set of parameter dimensions.
type Grid struct {
	params []Param
}

// NewGrid expands all params and returns the grid. Parameter names must be
// unique.
func NewGrid(params ...Param) (*Grid, error) {
	seen := make(map[string]bool, len(params))
	expanded := make([]Param, len(params))
	for i, p := range params {
		if seen[p.Name] {
			return nil, fmt.Errorf("gridsearch: duplicate param %q", p.Name)
		}
		seen[p.Name] = true
		if err := p.Expand(); err != nil {
			return nil, err
		}
		expanded[i] = p
	}
	return &Grid{params: expanded}, nil
}

// Params returns the expanded parameter dimensions in declaration order.
func (g *Grid) Params() []Param { return g.params }

// ParamNames returns the parameter names in declaration order.
func (g *Grid) ParamNames() []string {
	names := make([]string, len(g.params))
	for i, p := range g.params {
		names[i] = p.Name
	}
	return names
}

// Size returns the number of combinations without materialising them.
func (g *Grid) Size() int {
	if len(g.params) == 0 {
		return 0
	}
	total := 1
	for _, p := range g.params {
		total *= len(p.Values)
	}
	return total
}

// Combinations returns the cartesian product of all parameter values in
// deterministic order: the last declared parameter varies fastest.
func (g *Grid) Combinations() ([]Assignment, error) {
	if len(g.params) == 0 {
		return nil, nil
	}

	total := int64(1)
	for _, p := range g.params {
		total *= int64(len(p.Values))
		if total > maxCombinations || total < 0 {
			return nil, fmt.Errorf("gridsearch: combinations would exceed limit of %d", maxCombinations)
		}
	}

	combos := make([]Assignment, total)
	for i := range combos {
		combos[i] = make(Assignment, len(g.params))
	}

	repeat := int64(1)
	for dim := len(g.params) - 1; dim >= 0; dim-- {
		vals := g.params[dim].Values
		name := g.params[dim].Name
		cycle := int64(len(vals))
		for i := int64(0); i < total; i++ {
			combos[i][name] = vals[(i/repeat)%cycle]
		}
		repeat *= cycle
	}

	return combos, nil
}

// sortedKeys returns the keys of a string-keyed map in sorted order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

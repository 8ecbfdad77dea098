// Package gridsearch runs parameter sweeps: it expands parameter
// declarations into a cartesian grid, evaluates every combination on a
// worker pool, and collects the metric rows for ranking, persistence and
// CSV export.
package gridsearch

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxValues caps the number of values a single range expansion may
// generate.
const maxValues = 10000

// Kind is the value type of a swept parameter.
type Kind string

const (
	KindFloat  Kind = "float64"
	KindInt    Kind = "int"
	KindBool   Kind = "bool"
	KindString Kind = "string"
)

// Param defines one parameter dimension of a sweep: either explicit Values
// or a numeric Start/End/Step range to expand.
type Param struct {
	Name   string `json:"name"`
	Kind   Kind   `json:"kind"`
	Values []any  `json:"values,omitempty"`

	Start float64 `json:"start,omitempty"`
	End   float64 `json:"end,omitempty"`
	Step  float64 `json:"step,omitempty"`
}

// Expand materialises the parameter's values. Explicit values are
// type-coerced to the declared kind; otherwise numeric kinds generate
// values from the Start/End/Step range and bool expands to {true, false}.
func (p *Param) Expand() error {
	if p.Name == "" {
		return fmt.Errorf("gridsearch: param name must not be empty")
	}
	if len(p.Values) > 0 {
		for i, v := range p.Values {
			coerced, err := coerceValue(v, p.Kind)
			if err != nil {
				return fmt.Errorf("gridsearch: param %q value[%d]: %w", p.Name, i, err)
			}
			p.Values[i] = coerced
		}
		return nil
	}

	switch p.Kind {
	case KindFloat:
		if p.Step <= 0 {
			return fmt.Errorf("gridsearch: param %q: step must be positive, got %v", p.Name, p.Step)
		}
		for _, v := range GenerateRange(p.Start, p.End, p.Step) {
			p.Values = append(p.Values, v)
		}
	case KindInt:
		if p.Step <= 0 {
			return fmt.Errorf("gridsearch: param %q: step must be positive, got %v", p.Name, p.Step)
		}
		for _, v := range GenerateIntRange(int(p.Start), int(p.End), int(p.Step)) {
			p.Values = append(p.Values, v)
		}
	case KindBool:
		p.Values = []any{true, false}
	case KindString:
		return fmt.Errorf("gridsearch: param %q: string params require explicit values", p.Name)
	default:
		return fmt.Errorf("gridsearch: param %q: unknown kind %q", p.Name, p.Kind)
	}

	if len(p.Values) == 0 {
		return fmt.Errorf("gridsearch: param %q expands to no values", p.Name)
	}
	return nil
}

// coerceValue converts a value to the Go type matching the declared kind.
func coerceValue(v any, kind Kind) (any, error) {
	switch kind {
	case KindFloat:
		switch val := v.(type) {
		case float64:
			return val, nil
		case int:
			return float64(val), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as float64: %w", val, err)
			}
			return f, nil
		}
	case KindInt:
		switch val := v.(type) {
		case int:
			return val, nil
		case float64:
			return int(val), nil
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as int: %w", val, err)
			}
			return n, nil
		}
	case KindBool:
		switch val := v.(type) {
		case bool:
			return val, nil
		case string:
			return strings.TrimSpace(strings.ToLower(val)) == "true", nil
		}
	case KindString:
		switch val := v.(type) {
		case string:
			return val, nil
		default:
			return fmt.Sprintf("%v", val), nil
		}
	}
	return nil, fmt.Errorf("unsupported coercion: %T to %s", v, kind)
}

// RangeSpec defines a floating-point parameter range.
type RangeSpec struct {
	Min  float64
	Max  float64
	Step float64
}

// ParseRangeSpec parses a "min:max:step" string into a RangeSpec.
func ParseRangeSpec(s string) (RangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return RangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}

	min, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid min value %q: %w", parts[0], err)
	}

	max, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid max value %q: %w", parts[1], err)
	}

	step, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return RangeSpec{}, fmt.Errorf("invalid step value %q: %w", parts[2], err)
	}

	if step <= 0 {
		return RangeSpec{}, fmt.Errorf("step must be positive, got %f", step)
	}

	return RangeSpec{Min: min, Max: max, Step: step}, nil
}

// GenerateRange generates float64 values from min to max inclusive,
// stepping by step, rounded to avoid floating point accumulation errors.
// Returns nil for invalid ranges or ranges exceeding the value cap.
func GenerateRange(min, max, step float64) []float64 {
	if step <= 0 || min > max {
		return nil
	}
	expectedCount := int((max-min)/step) + 1
	if expectedCount > maxValues || expectedCount < 0 {
		return nil
	}

	var result []float64
	for v := min; v <= max+step/1000; v += step {
		if len(result) >= maxValues {
			break
		}
		rounded := math.Round(v*1e6) / 1e6
		if rounded <= max {
			result = append(result, rounded)
		}
	}
	return result
}

// GenerateIntRange generates int values from min to max inclusive,
// stepping by step. Returns nil for invalid ranges or ranges exceeding the
// value cap.
func GenerateIntRange(min, max, step int) []int {
	if step <= 0 || min > max {
		return nil
	}
	expectedCount := (max-min)/step + 1
	if expectedCount > maxValues || expectedCount < 0 {
		return nil
	}

	var result []int
	for v := min; v <= max; v += step {
		result = append(result, v)
	}
	return result
}

// ParseParamList parses either a "min:max:step" range spec (when the
// string contains a colon) or a comma-separated list of floats.
func ParseParamList(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	if strings.Contains(s, ":") {
		spec, err := ParseRangeSpec(s)
		if err != nil {
			return nil, err
		}
		return GenerateRange(spec.Min, spec.Max, spec.Step), nil
	}
	return ParseCSVFloat64s(s)
}

// ParseCSVFloat64s parses a comma-separated list of floats.
func ParseCSVFloat64s(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	result := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", part, err)
		}
		result = append(result, f)
	}
	return result, nil
}

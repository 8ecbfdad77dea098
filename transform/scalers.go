package transform

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scaler maps the values of a single column. Instances are single-use: one
// fitted scaler per column.
type Scaler interface {
	Fit(values []float64)
	Apply(values []float64) []float64
}

// ScalerFactory produces a fresh scaler. Rules hold factories rather than
// instances because one rule may match several columns.
type ScalerFactory func() Scaler

// Factories for the built-in scalers.
var (
	Standard ScalerFactory = func() Scaler { return &StandardScaler{} }
	MinMax   ScalerFactory = func() Scaler { return &MinMaxScaler{} }
	MaxAbs   ScalerFactory = func() Scaler { return &MaxAbsScaler{} }
)

// StandardScaler centres to zero mean and scales to unit variance.
type StandardScaler struct {
	Mean, Std float64
}

func (s *StandardScaler) Fit(values []float64) {
	finite := finiteOnly(values)
	if len(finite) == 0 {
		s.Mean, s.Std = 0, 1
		return
	}
	s.Mean, s.Std = stat.MeanStdDev(finite, nil)
	if s.Std == 0 || math.IsNaN(s.Std) {
		s.Std = 1
	}
}

func (s *StandardScaler) Apply(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - s.Mean) / s.Std
	}
	return out
}

// MinMaxScaler rescales to [0, 1] over the fitted range.
type MinMaxScaler struct {
	Min, Max float64
}

func (s *MinMaxScaler) Fit(values []float64) {
	finite := finiteOnly(values)
	if len(finite) == 0 {
		s.Min, s.Max = 0, 1
		return
	}
	s.Min, s.Max = finite[0], finite[0]
	for _, v := range finite {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
}

func (s *MinMaxScaler) Apply(values []float64) []float64 {
	span := s.Max - s.Min
	out := make([]float64, len(values))
	for i, v := range values {
		if span == 0 {
			out[i] = 0
			continue
		}
		out[i] = (v - s.Min) / span
	}
	return out
}

// MaxAbsScaler divides by the largest absolute value, mapping into [-1, 1].
type MaxAbsScaler struct {
	Abs float64
}

func (s *MaxAbsScaler) Fit(values []float64) {
	s.Abs = 0
	for _, v := range finiteOnly(values) {
		s.Abs = math.Max(s.Abs, math.Abs(v))
	}
	if s.Abs == 0 {
		s.Abs = 1
	}
}

func (s *MaxAbsScaler) Apply(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v / s.Abs
	}
	return out
}

func finiteOnly(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// Package transform provides data-frame transformers: column normalisation
// driven by pattern rules, and one-hot encoding of categorical columns.
// Transformers sit between feature generation and model fitting.
package transform

import (
	"errors"
	"fmt"

	"github.com/jambit/sensAI/frame"
)

// ErrNotFitted is returned when Apply is called before Fit.
var ErrNotFitted = errors.New("transform: not fitted")

// Transformer adapts a frame. Fit learns column statistics from training
// data; Apply maps a frame through the fitted transformation.
type Transformer interface {
	Fit(fr *frame.Frame) error
	Apply(fr *frame.Frame) (*frame.Frame, error)
}

// FitApply fits the transformer and applies it to the same frame.
func FitApply(t Transformer, fr *frame.Frame) (*frame.Frame, error) {
	if err := t.Fit(fr); err != nil {
		return nil, err
	}
	return t.Apply(fr)
}

// UnhandledColumnError reports a float column that no normalisation rule
// matched while the normalisation requires full coverage.
type UnhandledColumnError struct {
	Column string
}

func (e *UnhandledColumnError) Error() string {
	return fmt.Sprintf("transform: no normalisation rule handles column %q", e.Column)
}

// UnsupportedColumnError reports a column matched by a rule that declares the
// column must not occur in the data.
type UnsupportedColumnError struct {
	Column string
}

func (e *UnsupportedColumnError) Error() string {
	return fmt.Sprintf("transform: column %q is marked unsupported by a normalisation rule", e.Column)
}

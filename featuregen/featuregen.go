// Package featuregen implements feature generators: transformations that
// derive model input columns from raw data frames. Generators can be
// combined (concatenated or chained), registered under names, collected into
// a single pipeline, and backed by a persistent cache. Each generator can
// declare which of its output columns are categorical and carry a
// normalisation rule template for the rest.
package featuregen

import (
	"fmt"

	"github.com/jambit/sensAI/frame"
	"github.com/jambit/sensAI/transform"
)

// Generator derives feature columns from input frames. Fit learns whatever
// the generator needs from training inputs and targets (targets may be nil
// for stateless generators); Generate produces the feature frame for any
// inputs, preserving the input row index.
type Generator interface {
	Fit(inputs, targets *frame.Frame) error
	Generate(inputs *frame.Frame) (*frame.Frame, error)
	// CategoricalColumns names the generated columns that hold categories
	// rather than measurements.
	CategoricalColumns() []string
	// NormalisationRules returns rules for the generated non-categorical
	// columns, instantiated from the generator's rule template. Only valid
	// after Generate has run at least once.
	NormalisationRules() []transform.Rule
}

// FitGenerate fits the generator on the given data and generates features
// for it in one step.
func FitGenerate(g Generator, inputs, targets *frame.Frame) (*frame.Frame, error) {
	if err := g.Fit(inputs, targets); err != nil {
		return nil, err
	}
	return g.Generate(inputs)
}

// DuplicateColumnError reports two generators emitting the same column name.
type DuplicateColumnError struct {
	Column string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("featuregen: multiple generators produce column %q", e.Column)
}

// Base carries the metadata shared by all generators: categorical column
// names and an optional normalisation rule template. Concrete generators
// embed it and record their generated columns.
type Base struct {
	categorical  []string
	ruleTemplate *transform.RuleTemplate
	generated    []string
}

// SetCategorical declares which generated columns are categorical.
func (b *Base) SetCategorical(columns ...string) {
	b.categorical = columns
}

// SetRuleTemplate attaches the normalisation rule template applied to
// generated non-categorical columns.
func (b *Base) SetRuleTemplate(t transform.RuleTemplate) {
	b.ruleTemplate = &t
}

// CategoricalColumns implements Generator.
func (b *Base) CategoricalColumns() []string {
	return b.categorical
}

// NormalisationRules implements Generator.
func (b *Base) NormalisationRules() []transform.Rule {
	if b.ruleTemplate == nil {
		return nil
	}
	isCategorical := make(map[string]bool, len(b.categorical))
	for _, c := range b.categorical {
		isCategorical[c] = true
	}
	var rules []transform.Rule
	for _, col := range b.generated {
		if isCategorical[col] {
			continue
		}
		rules = append(rules, b.ruleTemplate.RuleFor(col))
	}
	return rules
}

func (b *Base) noteGenerated(fr *frame.Frame) {
	b.generated = fr.ColumnNames()
}

// ColumnSelector passes through a subset of the input columns unchanged.
type ColumnSelector struct {
	Base
	columns []string
}

var _ Generator = (*ColumnSelector)(nil)

// TakeColumns builds a selector for the named columns. With no names, all
// input columns pass through.
func TakeColumns(columns ...string) *ColumnSelector {
	return &ColumnSelector{columns: columns}
}

// WithCategorical marks generated columns as categorical.
func (g *ColumnSelector) WithCategorical(columns ...string) *ColumnSelector {
	g.SetCategorical(columns...)
	return g
}

// WithRuleTemplate attaches a normalisation rule template.
func (g *ColumnSelector) WithRuleTemplate(t transform.RuleTemplate) *ColumnSelector {
	g.SetRuleTemplate(t)
	return g
}

// Fit implements Generator; the selector is stateless.
func (g *ColumnSelector) Fit(inputs, targets *frame.Frame) error { return nil }

// Generate selects the configured columns, verifying they exist.
func (g *ColumnSelector) Generate(inputs *frame.Frame) (*frame.Frame, error) {
	cols := g.columns
	if len(cols) == 0 {
		cols = inputs.ColumnNames()
	}
	out, err := inputs.Select(cols...)
	if err != nil {
		return nil, fmt.Errorf("featuregen: take columns: %w", err)
	}
	g.noteGenerated(out)
	return out, nil
}

// RowFunc computes one derived value from the row at the given position.
type RowFunc func(inputs *frame.Frame, row int) (float64, error)

// FuncGenerator derives a single float column by applying a function to
// every row.
type FuncGenerator struct {
	Base
	column string
	fn     RowFunc
}

var _ Generator = (*FuncGenerator)(nil)

// FromFunc builds a generator producing one column from a row function.
func FromFunc(column string, fn RowFunc) *FuncGenerator {
	return &FuncGenerator{column: column, fn: fn}
}

// WithRuleTemplate attaches a normalisation rule template.
func (g *FuncGenerator) WithRuleTemplate(t transform.RuleTemplate) *FuncGenerator {
	g.SetRuleTemplate(t)
	return g
}

// Fit implements Generator; the function is stateless.
func (g *FuncGenerator) Fit(inputs, targets *frame.Frame) error { return nil }

// Generate applies the row function across the frame.
func (g *FuncGenerator) Generate(inputs *frame.Frame) (*frame.Frame, error) {
	values := make([]float64, inputs.NumRows())
	for i := range values {
		v, err := g.fn(inputs, i)
		if err != nil {
			return nil, fmt.Errorf("featuregen: %s row %d: %w", g.column, i, err)
		}
		values[i] = v
	}
	out, err := frame.NewWithIndex(inputs.Index(), frame.FloatSeries(g.column, values))
	if err != nil {
		return nil, err
	}
	g.noteGenerated(out)
	return out, nil
}

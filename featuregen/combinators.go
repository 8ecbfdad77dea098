package featuregen

import (
	"fmt"

	"github.com/jambit/sensAI/frame"
	"github.com/jambit/sensAI/transform"
)

// MultiGenerator concatenates the outputs of several generators side by
// side. Generators emitting overlapping column names are rejected.
type MultiGenerator struct {
	generators []Generator
	columns    []string
}

var _ Generator = (*MultiGenerator)(nil)

// Multi combines generators into one.
func Multi(generators ...Generator) *MultiGenerator {
	return &MultiGenerator{generators: generators}
}

// Fit fits every wrapped generator on the same data.
func (g *MultiGenerator) Fit(inputs, targets *frame.Frame) error {
	for i, gen := range g.generators {
		if err := gen.Fit(inputs, targets); err != nil {
			return fmt.Errorf("featuregen: fitting generator %d: %w", i, err)
		}
	}
	return nil
}

// Generate runs every generator and concatenates the outputs over the input
// row index.
func (g *MultiGenerator) Generate(inputs *frame.Frame) (*frame.Frame, error) {
	frames := make([]*frame.Frame, len(g.generators))
	for i, gen := range g.generators {
		out, err := gen.Generate(inputs)
		if err != nil {
			return nil, fmt.Errorf("featuregen: generator %d: %w", i, err)
		}
		frames[i] = out
	}
	merged, err := frame.ConcatColumns(frames...)
	if err != nil {
		// Surface name collisions as the typed error callers match on.
		if col, ok := duplicateColumn(frames); ok {
			return nil, &DuplicateColumnError{Column: col}
		}
		return nil, err
	}
	g.columns = merged.ColumnNames()
	return merged, nil
}

// GeneratedColumns names the columns of the most recent Generate output.
func (g *MultiGenerator) GeneratedColumns() []string { return g.columns }

func duplicateColumn(frames []*frame.Frame) (string, bool) {
	seen := make(map[string]bool)
	for _, fr := range frames {
		for _, name := range fr.ColumnNames() {
			if seen[name] {
				return name, true
			}
			seen[name] = true
		}
	}
	return "", false
}

// CategoricalColumns is the union over the wrapped generators.
func (g *MultiGenerator) CategoricalColumns() []string {
	var out []string
	for _, gen := range g.generators {
		out = append(out, gen.CategoricalColumns()...)
	}
	return out
}

// NormalisationRules collects the rules of all wrapped generators.
func (g *MultiGenerator) NormalisationRules() []transform.Rule {
	var out []transform.Rule
	for _, gen := range g.generators {
		out = append(out, gen.NormalisationRules()...)
	}
	return out
}

// ChainedGenerator pipes generators: the output frame of one is the input of
// the next. Categorical columns and normalisation rules are those of the
// final generator.
type ChainedGenerator struct {
	generators []Generator
}

var _ Generator = (*ChainedGenerator)(nil)

// Chained builds a generator pipeline. At least one generator is required
// when the pipeline is used.
func Chained(generators ...Generator) *ChainedGenerator {
	return &ChainedGenerator{generators: generators}
}

// Fit fits each stage on the generated output of the previous stage.
func (g *ChainedGenerator) Fit(inputs, targets *frame.Frame) error {
	if len(g.generators) == 0 {
		return fmt.Errorf("featuregen: chained generator is empty")
	}
	current := inputs
	for i, gen := range g.generators {
		out, err := FitGenerate(gen, current, targets)
		if err != nil {
			return fmt.Errorf("featuregen: chain stage %d: %w", i, err)
		}
		current = out
	}
	return nil
}

// Generate pipes the inputs through all stages.
func (g *ChainedGenerator) Generate(inputs *frame.Frame) (*frame.Frame, error) {
	if len(g.generators) == 0 {
		return nil, fmt.Errorf("featuregen: chained generator is empty")
	}
	current := inputs
	for i, gen := range g.generators {
		out, err := gen.Generate(current)
		if err != nil {
			return nil, fmt.Errorf("featuregen: chain stage %d: %w", i, err)
		}
		current = out
	}
	return current, nil
}

func (g *ChainedGenerator) last() Generator {
	return g.generators[len(g.generators)-1]
}

// CategoricalColumns of the final stage.
func (g *ChainedGenerator) CategoricalColumns() []string {
	if len(g.generators) == 0 {
		return nil
	}
	return g.last().CategoricalColumns()
}

// NormalisationRules of the final stage.
func (g *ChainedGenerator) NormalisationRules() []transform.Rule {
	if len(g.generators) == 0 {
		return nil
	}
	return g.last().NormalisationRules()
}

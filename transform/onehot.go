package transform

import (
	"fmt"
	"sort"

	"github.com/jambit/sensAI/frame"
)

// OneHot replaces categorical (string) columns with one indicator float
// column per category, named "col=value". Category vocabularies are fixed at
// Fit time.
type OneHot struct {
	columns      []string
	ignoreUnseen bool
	vocab        map[string][]string
	fitted       bool
}

var _ Transformer = (*OneHot)(nil)

// NewOneHot encodes the named string columns. With no names, all string
// columns present at Fit time are encoded.
func NewOneHot(columns ...string) *OneHot {
	return &OneHot{columns: columns}
}

// IgnoreUnseen makes Apply encode categories unseen during Fit as all-zero
// rows instead of failing.
func (o *OneHot) IgnoreUnseen() *OneHot {
	o.ignoreUnseen = true
	return o
}

// Fit collects the sorted category vocabulary of each target column.
func (o *OneHot) Fit(fr *frame.Frame) error {
	targets := o.columns
	if len(targets) == 0 {
		for _, name := range fr.ColumnNames() {
			col, _ := fr.Column(name)
			if col.Kind == frame.String {
				targets = append(targets, name)
			}
		}
	}

	o.vocab = make(map[string][]string, len(targets))
	for _, name := range targets {
		values, err := fr.Strings(name)
		if err != nil {
			return fmt.Errorf("transform: one-hot fit: %w", err)
		}
		seen := make(map[string]bool)
		for _, v := range values {
			seen[v] = true
		}
		cats := make([]string, 0, len(seen))
		for v := range seen {
			cats = append(cats, v)
		}
		sort.Strings(cats)
		o.vocab[name] = cats
	}
	o.fitted = true
	return nil
}

// Apply expands each fitted column into its indicator columns, preserving
// overall column order.
func (o *OneHot) Apply(fr *frame.Frame) (*frame.Frame, error) {
	if !o.fitted {
		return nil, ErrNotFitted
	}
	var series []frame.Series
	for _, name := range fr.ColumnNames() {
		col, err := fr.Column(name)
		if err != nil {
			return nil, err
		}
		cats, encode := o.vocab[name]
		if !encode {
			series = append(series, col)
			continue
		}
		values, err := fr.Strings(name)
		if err != nil {
			return nil, fmt.Errorf("transform: one-hot apply: %w", err)
		}
		catIndex := make(map[string]int, len(cats))
		for i, c := range cats {
			catIndex[c] = i
		}
		indicators := make([][]float64, len(cats))
		for i := range indicators {
			indicators[i] = make([]float64, len(values))
		}
		for row, v := range values {
			ci, known := catIndex[v]
			if !known {
				if o.ignoreUnseen {
					continue
				}
				return nil, fmt.Errorf("transform: one-hot: column %q has unseen category %q", name, v)
			}
			indicators[ci][row] = 1
		}
		for i, c := range cats {
			series = append(series, frame.FloatSeries(name+"="+c, indicators[i]))
		}
	}
	return frame.NewWithIndex(fr.Index(), series...)
}

// Vocabulary returns the fitted categories for a column.
func (o *OneHot) Vocabulary(column string) ([]string, bool) {
	cats, ok := o.vocab[column]
	return cats, ok
}

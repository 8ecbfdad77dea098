package transform

import (
	"fmt"
	"regexp"

	"github.com/jambit/sensAI/frame"
)

// Rule matches float columns by name and states how they are normalised.
// A nil Scaler means the matched column passes through unscaled; Unsupported
// means the column must not occur at all.
type Rule struct {
	Pattern     *regexp.Regexp
	Unsupported bool
	Scaler      ScalerFactory
}

func (r Rule) matches(column string) bool {
	return r.Pattern != nil && r.Pattern.MatchString(column)
}

// RuleTemplate is a rule without a pattern. Feature generators carry
// templates describing how their generated columns should be normalised; the
// template is instantiated per generated column.
type RuleTemplate struct {
	Skip        bool
	Unsupported bool
	Scaler      ScalerFactory
}

// RuleFor instantiates the template into a rule matching exactly the given
// column name.
func (t RuleTemplate) RuleFor(column string) Rule {
	r := Rule{Pattern: regexp.MustCompile("^" + regexp.QuoteMeta(column) + "$")}
	if t.Unsupported {
		r.Unsupported = true
		return r
	}
	if !t.Skip {
		r.Scaler = t.Scaler
	}
	return r
}

// Normalisation scales float columns according to an ordered rule list. The
// first matching rule wins. With RequireAllHandled (the default behaviour), a
// float column matched by no rule fails Fit with *UnhandledColumnError.
// String columns are left untouched.
type Normalisation struct {
	rules      []Rule
	lenient    bool
	fitted     bool
	scalers    map[string]Scaler
	skipped    map[string]bool
	fitColumns []string
}

var _ Transformer = (*Normalisation)(nil)

// NewNormalisation builds a normalisation over the given rules.
func NewNormalisation(rules ...Rule) *Normalisation {
	return &Normalisation{rules: rules}
}

// Lenient disables the full-coverage requirement: unmatched columns pass
// through instead of failing Fit.
func (n *Normalisation) Lenient() *Normalisation {
	n.lenient = true
	return n
}

// AddRules appends rules; later rules only apply to columns no earlier rule
// matched. Must be called before Fit.
func (n *Normalisation) AddRules(rules ...Rule) {
	n.rules = append(n.rules, rules...)
}

// Fit matches every float column against the rules and fits the selected
// scalers on the column values.
func (n *Normalisation) Fit(fr *frame.Frame) error {
	n.scalers = make(map[string]Scaler)
	n.skipped = make(map[string]bool)
	n.fitColumns = nil

	for _, name := range fr.ColumnNames() {
		col, err := fr.Column(name)
		if err != nil {
			return err
		}
		if col.Kind != frame.Float {
			continue
		}
		rule, matched := n.firstMatch(name)
		if !matched {
			if n.lenient {
				n.skipped[name] = true
				continue
			}
			return &UnhandledColumnError{Column: name}
		}
		if rule.Unsupported {
			return &UnsupportedColumnError{Column: name}
		}
		if rule.Scaler == nil {
			n.skipped[name] = true
			continue
		}
		s := rule.Scaler()
		s.Fit(col.Floats())
		n.scalers[name] = s
		n.fitColumns = append(n.fitColumns, name)
	}
	n.fitted = true
	return nil
}

func (n *Normalisation) firstMatch(column string) (Rule, bool) {
	for _, r := range n.rules {
		if r.matches(column) {
			return r, true
		}
	}
	return Rule{}, false
}

// Apply scales the fitted columns, passing everything else through. Columns
// that were fitted must be present.
func (n *Normalisation) Apply(fr *frame.Frame) (*frame.Frame, error) {
	if !n.fitted {
		return nil, ErrNotFitted
	}
	out := fr.Clone()
	for _, name := range n.fitColumns {
		values, err := out.Floats(name)
		if err != nil {
			return nil, fmt.Errorf("transform: applying normalisation: %w", err)
		}
		if err := out.SetFloats(name, n.scalers[name].Apply(values)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ScalerFor returns the fitted scaler for a column, if any. Useful for
// inspecting fitted parameters.
func (n *Normalisation) ScalerFor(column string) (Scaler, bool) {
	s, ok := n.scalers[column]
	return s, ok
}

package featuregen

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jambit/sensAI/cache"
	"github.com/jambit/sensAI/frame"
	"github.com/jambit/sensAI/transform"
)

// cachedRow is the stored form of one generated row. Floats are serialised
// as strings so NaN survives the JSON round trip.
type cachedRow struct {
	Order   []string          `json:"order"`
	Floats  map[string]string `json:"floats,omitempty"`
	Strings map[string]string `json:"strings,omitempty"`
}

// CachedGenerator wraps a generator with a persistent per-row cache. Rows
// whose key is already cached skip generation entirely; the remainder is
// generated in one batch and written back. Keys combine a prefix with the
// frame row index, so cached features survive filtering and splitting.
type CachedGenerator struct {
	gen    Generator
	kv     cache.KeyValue
	prefix string

	// CacheHits and CacheMisses count rows served from / missing in the
	// cache across all Generate calls.
	CacheHits   int
	CacheMisses int
}

var _ Generator = (*CachedGenerator)(nil)

// Cached wraps gen with the given cache. The prefix namespaces the keys so
// several generators can share one cache database.
func Cached(gen Generator, kv cache.KeyValue, prefix string) *CachedGenerator {
	return &CachedGenerator{gen: gen, kv: kv, prefix: prefix}
}

// Fit delegates to the wrapped generator.
func (g *CachedGenerator) Fit(inputs, targets *frame.Frame) error {
	return g.gen.Fit(inputs, targets)
}

// Generate serves cached rows and generates only the missing ones.
func (g *CachedGenerator) Generate(inputs *frame.Frame) (*frame.Frame, error) {
	n := inputs.NumRows()
	index := inputs.Index()

	cached := make(map[int]cachedRow)
	var missing []int
	for pos := 0; pos < n; pos++ {
		raw, ok, err := g.kv.Get(g.key(index[pos]))
		if err != nil {
			return nil, fmt.Errorf("featuregen: cache read: %w", err)
		}
		if !ok {
			missing = append(missing, pos)
			continue
		}
		var row cachedRow
		if err := json.Unmarshal(raw, &row); err != nil {
			// Treat undecodable entries as misses; they get rewritten.
			missing = append(missing, pos)
			continue
		}
		cached[pos] = row
	}
	g.CacheHits += n - len(missing)
	g.CacheMisses += len(missing)

	var generated *frame.Frame
	if len(missing) > 0 {
		sub, err := inputs.Slice(missing)
		if err != nil {
			return nil, err
		}
		generated, err = g.gen.Generate(sub)
		if err != nil {
			return nil, err
		}
		if err := g.storeRows(generated); err != nil {
			return nil, err
		}
	}

	return g.assemble(inputs, cached, missing, generated)
}

func (g *CachedGenerator) key(indexValue int) string {
	return g.prefix + ":" + strconv.Itoa(indexValue)
}

func (g *CachedGenerator) storeRows(generated *frame.Frame) error {
	names := generated.ColumnNames()
	for pos := 0; pos < generated.NumRows(); pos++ {
		row := cachedRow{Order: names}
		for _, name := range names {
			col, _ := generated.Column(name)
			if col.Kind == frame.Float {
				if row.Floats == nil {
					row.Floats = make(map[string]string)
				}
				row.Floats[name] = strconv.FormatFloat(col.Floats()[pos], 'g', -1, 64)
			} else {
				if row.Strings == nil {
					row.Strings = make(map[string]string)
				}
				row.Strings[name] = col.Strings()[pos]
			}
		}
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("featuregen: encoding cache row: %w", err)
		}
		if err := g.kv.Set(g.key(generated.Index()[pos]), data); err != nil {
			return fmt.Errorf("featuregen: cache write: %w", err)
		}
	}
	return nil
}

// assemble merges cached and freshly generated rows back into input order.
func (g *CachedGenerator) assemble(inputs *frame.Frame, cached map[int]cachedRow, missing []int, generated *frame.Frame) (*frame.Frame, error) {
	// Column layout comes from the generated frame when present, otherwise
	// from any cached row (all rows share one layout).
	var order []string
	kinds := make(map[string]frame.Kind)
	switch {
	case generated != nil:
		order = generated.ColumnNames()
		for _, name := range order {
			col, _ := generated.Column(name)
			kinds[name] = col.Kind
		}
	default:
		for _, row := range cached {
			order = row.Order
			for _, name := range order {
				if _, ok := row.Floats[name]; ok {
					kinds[name] = frame.Float
				} else {
					kinds[name] = frame.String
				}
			}
			break
		}
	}
	if order == nil {
		return frame.NewWithIndex(inputs.Index())
	}

	n := inputs.NumRows()
	floatCols := make(map[string][]float64)
	stringCols := make(map[string][]string)
	for _, name := range order {
		if kinds[name] == frame.Float {
			floatCols[name] = make([]float64, n)
		} else {
			stringCols[name] = make([]string, n)
		}
	}

	genPos := make(map[int]int, len(missing))
	for i, pos := range missing {
		genPos[pos] = i
	}

	for pos := 0; pos < n; pos++ {
		if row, ok := cached[pos]; ok {
			for _, name := range order {
				if kinds[name] == frame.Float {
					raw, ok := row.Floats[name]
					if !ok {
						return nil, fmt.Errorf("featuregen: cached row %d lacks column %q", inputs.Index()[pos], name)
					}
					v, err := strconv.ParseFloat(raw, 64)
					if err != nil {
						return nil, fmt.Errorf("featuregen: cached value %q for column %q: %w", raw, name, err)
					}
					floatCols[name][pos] = v
				} else {
					s, ok := row.Strings[name]
					if !ok {
						return nil, fmt.Errorf("featuregen: cached row %d lacks column %q", inputs.Index()[pos], name)
					}
					stringCols[name][pos] = s
				}
			}
			continue
		}
		gi, ok := genPos[pos]
		if !ok {
			return nil, fmt.Errorf("featuregen: row position %d neither cached nor generated", pos)
		}
		for _, name := range order {
			col, _ := generated.Column(name)
			if kinds[name] == frame.Float {
				floatCols[name][pos] = col.Floats()[gi]
			} else {
				stringCols[name][pos] = col.Strings()[gi]
			}
		}
	}

	series := make([]frame.Series, 0, len(order))
	for _, name := range order {
		if kinds[name] == frame.Float {
			series = append(series, frame.FloatSeries(name, floatCols[name]))
		} else {
			series = append(series, frame.StringSeries(name, stringCols[name]))
		}
	}
	return frame.NewWithIndex(inputs.Index(), series...)
}

// CategoricalColumns delegates to the wrapped generator.
func (g *CachedGenerator) CategoricalColumns() []string {
	return g.gen.CategoricalColumns()
}

// NormalisationRules delegates to the wrapped generator.
func (g *CachedGenerator) NormalisationRules() []transform.Rule {
	return g.gen.NormalisationRules()
}

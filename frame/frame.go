package frame

import (
	"fmt"
)

// Kind identifies the storage type of a Series.
type Kind int

const (
	// Float columns hold float64 values.
	Float Kind = iota
	// String columns hold string values (categorical data, labels).
	String
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case String:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Series is a single named column.
type Series struct {
	Name string
	Kind Kind

	floats  []float64
	strings []string
}

// FloatSeries builds a float column. The slice is not copied.
func FloatSeries(name string, values []float64) Series {
	return Series{Name: name, Kind: Float, floats: values}
}

// StringSeries builds a string column. The slice is not copied.
func StringSeries(name string, values []string) Series {
	return Series{Name: name, Kind: String, strings: values}
}

// Len returns the number of rows in the series.
func (s Series) Len() int {
	if s.Kind == Float {
		return len(s.floats)
	}
	return len(s.strings)
}

// Floats returns the backing float slice. Callers must not assume a copy.
func (s Series) Floats() []float64 { return s.floats }

// Strings returns the backing string slice. Callers must not assume a copy.
func (s Series) Strings() []string { return s.strings }

// Slice returns a new series containing the rows at the given positions.
func (s Series) Slice(positions []int) Series {
	out := Series{Name: s.Name, Kind: s.Kind}
	if s.Kind == Float {
		out.floats = make([]float64, len(positions))
		for i, p := range positions {
			out.floats[i] = s.floats[p]
		}
		return out
	}
	out.strings = make([]string, len(positions))
	for i, p := range positions {
		out.strings[i] = s.strings[p]
	}
	return out
}

func (s Series) clone() Series {
	out := Series{Name: s.Name, Kind: s.Kind}
	if s.Kind == Float {
		out.floats = append([]float64(nil), s.floats...)
	} else {
		out.strings = append([]string(nil), s.strings...)
	}
	return out
}

// Frame is an ordered collection of equal-length series sharing a row index.
type Frame struct {
	index  []int
	series []Series
	byName map[string]int
}

// New builds a frame with an automatic 0..n-1 row index.
func New(series ...Series) (*Frame, error) {
	n := 0
	if len(series) > 0 {
		n = series[0].Len()
	}
	index := make([]int, n)
	for i := range index {
		index[i] = i
	}
	return NewWithIndex(index, series...)
}

// NewWithIndex builds a frame over an explicit row index. All series must
// have exactly len(index) rows and unique names.
func NewWithIndex(index []int, series ...Series) (*Frame, error) {
	f := &Frame{
		index:  index,
		series: make([]Series, 0, len(series)),
		byName: make(map[string]int, len(series)),
	}
	for _, s := range series {
		if s.Len() != len(index) {
			return nil, fmt.Errorf("frame: column %q has %d rows, index has %d", s.Name, s.Len(), len(index))
		}
		if _, dup := f.byName[s.Name]; dup {
			return nil, fmt.Errorf("frame: duplicate column %q", s.Name)
		}
		f.byName[s.Name] = len(f.series)
		f.series = append(f.series, s)
	}
	return f, nil
}

// MustNew is New for statically known columns; it panics on error.
// Intended for tests and examples.
func MustNew(series ...Series) *Frame {
	f, err := New(series...)
	if err != nil {
		panic(err)
	}
	return f
}

// NumRows returns the row count.
func (f *Frame) NumRows() int { return len(f.index) }

// NumCols returns the column count.
func (f *Frame) NumCols() int { return len(f.series) }

// Index returns the row index. Callers must not modify it.
func (f *Frame) Index() []int { return f.index }

// ColumnNames returns the column names in frame order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.series))
	for i, s := range f.series {
		names[i] = s.Name
	}
	return names
}

// HasColumn reports whether a column with the given name exists.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.byName[name]
	return ok
}

// Column returns the named series.
func (f *Frame) Column(name string) (Series, error) {
	i, ok := f.byName[name]
	if !ok {
		return Series{}, fmt.Errorf("frame: column %q does not exist", name)
	}
	return f.series[i], nil
}

// Floats returns the values of a float column.
func (f *Frame) Floats(name string) ([]float64, error) {
	s, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	if s.Kind != Float {
		return nil, fmt.Errorf("frame: column %q is %s, not float", name, s.Kind)
	}
	return s.floats, nil
}

// Strings returns the values of a string column.
func (f *Frame) Strings(name string) ([]string, error) {
	s, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	if s.Kind != String {
		return nil, fmt.Errorf("frame: column %q is %s, not string", name, s.Kind)
	}
	return s.strings, nil
}

// Select returns a frame containing only the named columns, in the given
// order, sharing the row index and column storage.
func (f *Frame) Select(names ...string) (*Frame, error) {
	out := &Frame{
		index:  f.index,
		series: make([]Series, 0, len(names)),
		byName: make(map[string]int, len(names)),
	}
	for _, name := range names {
		i, ok := f.byName[name]
		if !ok {
			return nil, fmt.Errorf("frame: column %q does not exist", name)
		}
		if _, dup := out.byName[name]; dup {
			return nil, fmt.Errorf("frame: duplicate column %q", name)
		}
		out.byName[name] = len(out.series)
		out.series = append(out.series, f.series[i])
	}
	return out, nil
}

// Drop returns a frame without the named columns. Unknown names are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := &Frame{index: f.index, byName: make(map[string]int)}
	for _, s := range f.series {
		if drop[s.Name] {
			continue
		}
		out.byName[s.Name] = len(out.series)
		out.series = append(out.series, s)
	}
	return out
}

// Slice returns a frame containing the rows at the given positions. The row
// index values of the selected rows are preserved.
func (f *Frame) Slice(positions []int) (*Frame, error) {
	for _, p := range positions {
		if p < 0 || p >= len(f.index) {
			return nil, fmt.Errorf("frame: row position %d out of range [0,%d)", p, len(f.index))
		}
	}
	out := &Frame{
		index:  make([]int, len(positions)),
		series: make([]Series, len(f.series)),
		byName: make(map[string]int, len(f.series)),
	}
	for i, p := range positions {
		out.index[i] = f.index[p]
	}
	for i, s := range f.series {
		out.series[i] = s.Slice(positions)
		out.byName[s.Name] = i
	}
	return out, nil
}

// Head returns the first n rows (all rows if n exceeds the row count).
func (f *Frame) Head(n int) *Frame {
	if n > len(f.index) {
		n = len(f.index)
	}
	positions := make([]int, n)
	for i := range positions {
		positions[i] = i
	}
	out, _ := f.Slice(positions)
	return out
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	out := &Frame{
		index:  append([]int(nil), f.index...),
		series: make([]Series, len(f.series)),
		byName: make(map[string]int, len(f.series)),
	}
	for i, s := range f.series {
		out.series[i] = s.clone()
		out.byName[s.Name] = i
	}
	return out
}

// SetFloats replaces the named float column, or appends it if absent.
func (f *Frame) SetFloats(name string, values []float64) error {
	return f.set(FloatSeries(name, values))
}

// SetStrings replaces the named string column, or appends it if absent.
func (f *Frame) SetStrings(name string, values []string) error {
	return f.set(StringSeries(name, values))
}

func (f *Frame) set(s Series) error {
	if s.Len() != len(f.index) {
		return fmt.Errorf("frame: column %q has %d rows, frame has %d", s.Name, s.Len(), len(f.index))
	}
	if i, ok := f.byName[s.Name]; ok {
		f.series[i] = s
		return nil
	}
	f.byName[s.Name] = len(f.series)
	f.series = append(f.series, s)
	return nil
}

// ConcatColumns merges frames side by side over the first frame's row index.
// All frames must have the same row count; a column name appearing in more
// than one frame is an error.
func ConcatColumns(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return New()
	}
	out := &Frame{
		index:  frames[0].index,
		byName: make(map[string]int),
	}
	for _, fr := range frames {
		if fr.NumRows() != len(out.index) {
			return nil, fmt.Errorf("frame: cannot concat %d rows with %d rows", fr.NumRows(), len(out.index))
		}
		for _, s := range fr.series {
			if _, dup := out.byName[s.Name]; dup {
				return nil, fmt.Errorf("frame: duplicate column %q in concat", s.Name)
			}
			out.byName[s.Name] = len(out.series)
			out.series = append(out.series, s)
		}
	}
	return out, nil
}

// FloatMatrix returns the float columns as a row-major matrix together with
// the column names, in frame order. String columns are skipped.
func (f *Frame) FloatMatrix() ([][]float64, []string) {
	var names []string
	var cols [][]float64
	for _, s := range f.series {
		if s.Kind != Float {
			continue
		}
		names = append(names, s.Name)
		cols = append(cols, s.floats)
	}
	rows := make([][]float64, len(f.index))
	for i := range rows {
		row := make([]float64, len(cols))
		for j, c := range cols {
			row[j] = c[i]
		}
		rows[i] = row
	}
	return rows, names
}

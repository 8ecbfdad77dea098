package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

type csvOptions struct {
	stringColumns map[string]bool
}

// CSVOption adjusts CSV parsing behaviour.
type CSVOption func(*csvOptions)

// WithStringColumns forces the named columns to be read as strings even when
// every value parses as a number (zip codes, categorical ids).
func WithStringColumns(names ...string) CSVOption {
	return func(o *csvOptions) {
		for _, n := range names {
			o.stringColumns[n] = true
		}
	}
}

// ReadCSV parses a headed CSV stream into a frame. Columns whose values all
// parse as floats become Float series (empty cells become NaN); everything
// else becomes a String series.
func ReadCSV(r io.Reader, opts ...CSVOption) (*Frame, error) {
	o := csvOptions{stringColumns: make(map[string]bool)}
	for _, opt := range opts {
		opt(&o)
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("frame: reading csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("frame: csv has no header row")
	}
	header := records[0]
	rows := records[1:]

	series := make([]Series, 0, len(header))
	for col, name := range header {
		raw := make([]string, len(rows))
		for i, rec := range rows {
			if col >= len(rec) {
				return nil, fmt.Errorf("frame: csv row %d has %d fields, header has %d", i+2, len(rec), len(header))
			}
			raw[i] = rec[col]
		}
		if o.stringColumns[name] {
			series = append(series, StringSeries(name, raw))
			continue
		}
		floats, ok := tryParseFloats(raw)
		if ok {
			series = append(series, FloatSeries(name, floats))
		} else {
			series = append(series, StringSeries(name, raw))
		}
	}
	return New(series...)
}

// ReadCSVFile is ReadCSV over a file path.
func ReadCSVFile(path string, opts ...CSVOption) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("frame: opening %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f, opts...)
}

func tryParseFloats(raw []string) ([]float64, bool) {
	out := make([]float64, len(raw))
	seenValue := false
	for i, v := range raw {
		if v == "" {
			out[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		out[i] = f
		seenValue = true
	}
	// A column of only empty cells stays a string column.
	return out, seenValue
}

// WriteCSV writes the frame as headed CSV. Floats are formatted with
// strconv's shortest representation; NaN cells are written empty.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.ColumnNames()); err != nil {
		return fmt.Errorf("frame: writing csv header: %w", err)
	}
	record := make([]string, len(f.series))
	for i := 0; i < f.NumRows(); i++ {
		for j, s := range f.series {
			if s.Kind == Float {
				v := s.floats[i]
				if math.IsNaN(v) {
					record[j] = ""
				} else {
					record[j] = strconv.FormatFloat(v, 'g', -1, 64)
				}
			} else {
				record[j] = s.strings[i]
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("frame: writing csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile is WriteCSV to a file path.
func (f *Frame) WriteCSVFile(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("frame: creating %s: %w", path, err)
	}
	if err := f.WriteCSV(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

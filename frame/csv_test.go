package frame

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVTypeInference(t *testing.T) {
	in := strings.NewReader("x,y,label\n1.5,2,a\n3.25,,b\n")
	f, err := ReadCSV(in)
	require.NoError(t, err)

	require.Equal(t, 2, f.NumRows())
	require.Equal(t, []string{"x", "y", "label"}, f.ColumnNames())

	xs, err := f.Floats("x")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 3.25}, xs)

	ys, err := f.Floats("y")
	require.NoError(t, err)
	assert.Equal(t, 2.0, ys[0])
	assert.True(t, math.IsNaN(ys[1]), "empty cell should parse as NaN")

	labels, err := f.Strings("label")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, labels)
}

func TestReadCSVForcedStringColumn(t *testing.T) {
	in := strings.NewReader("zip,v\n01234,1\n99999,2\n")
	f, err := ReadCSV(in, WithStringColumns("zip"))
	require.NoError(t, err)

	zips, err := f.Strings("zip")
	require.NoError(t, err)
	assert.Equal(t, []string{"01234", "99999"}, zips)
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err, "empty input has no header")

	_, err = ReadCSV(strings.NewReader("a,b\n1\n"))
	assert.Error(t, err, "short row should be rejected")
}

func TestCSVRoundTrip(t *testing.T) {
	f := MustNew(
		FloatSeries("x", []float64{1.5, math.NaN()}),
		StringSeries("s", []string{"hello", "world"}),
	)

	var buf bytes.Buffer
	require.NoError(t, f.WriteCSV(&buf))

	back, err := ReadCSV(&buf)
	require.NoError(t, err)

	xs, err := back.Floats("x")
	require.NoError(t, err)
	assert.Equal(t, 1.5, xs[0])
	assert.True(t, math.IsNaN(xs[1]))

	ss, err := back.Strings("s")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, ss)
}

func TestCSVFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.csv")
	f := MustNew(FloatSeries("x", []float64{1, 2, 3}))

	require.NoError(t, f.WriteCSVFile(path))
	back, err := ReadCSVFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, back.NumRows())

	_, err = ReadCSVFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

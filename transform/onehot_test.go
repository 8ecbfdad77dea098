package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jambit/sensAI/frame"
)

func TestOneHotFitApply(t *testing.T) {
	fr := frame.MustNew(
		frame.FloatSeries("x", []float64{1, 2, 3}),
		frame.StringSeries("color", []string{"red", "blue", "red"}),
	)

	o := NewOneHot("color")
	out, err := FitApply(o, fr)
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "color=blue", "color=red"}, out.ColumnNames())

	blue, _ := out.Floats("color=blue")
	red, _ := out.Floats("color=red")
	assert.Equal(t, []float64{0, 1, 0}, blue)
	assert.Equal(t, []float64{1, 0, 1}, red)

	cats, ok := o.Vocabulary("color")
	require.True(t, ok)
	assert.Equal(t, []string{"blue", "red"}, cats, "vocabulary is sorted")
}

func TestOneHotAllStringColumnsByDefault(t *testing.T) {
	fr := frame.MustNew(
		frame.StringSeries("a", []string{"p", "q"}),
		frame.StringSeries("b", []string{"u", "v"}),
	)
	o := NewOneHot()
	out, err := FitApply(o, fr)
	require.NoError(t, err)
	assert.Equal(t, []string{"a=p", "a=q", "b=u", "b=v"}, out.ColumnNames())
}

func TestOneHotUnseenCategory(t *testing.T) {
	train := frame.MustNew(frame.StringSeries("c", []string{"a", "b"}))
	test := frame.MustNew(frame.StringSeries("c", []string{"a", "zzz"}))

	strict := NewOneHot("c")
	require.NoError(t, strict.Fit(train))
	_, err := strict.Apply(test)
	assert.Error(t, err, "unseen category should fail by default")

	lenient := NewOneHot("c").IgnoreUnseen()
	require.NoError(t, lenient.Fit(train))
	out, err := lenient.Apply(test)
	require.NoError(t, err)

	a, _ := out.Floats("c=a")
	b, _ := out.Floats("c=b")
	assert.Equal(t, []float64{1, 0}, a)
	assert.Equal(t, []float64{0, 0}, b, "unseen row encodes as all zeros")
}

func TestOneHotErrors(t *testing.T) {
	fr := frame.MustNew(frame.FloatSeries("x", []float64{1}))

	o := NewOneHot("x")
	assert.Error(t, o.Fit(fr), "one-hot on a float column is an error")

	missing := NewOneHot("nope")
	assert.Error(t, missing.Fit(fr))

	unfitted := NewOneHot("x")
	_, err := unfitted.Apply(fr)
	assert.ErrorIs(t, err, ErrNotFitted)
}

package table

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumberLocales(t *testing.T) {
	cases := []struct {
		in   string
		opt  ParseOptions
		want float64
		ok   bool
	}{
		{"42", ParseOptions{}, 42, true},
		{"1.000,5", ParseOptions{}, 1000.5, true},
		{"1,000.5", ParseOptions{}, 1000.5, true},
		{"0,55", ParseOptions{}, 0.55, true},
		{"1 234", ParseOptions{}, 1234, true},
		{"1\u00a0234", ParseOptions{}, 1234, true},
		{"45%", ParseOptions{}, 45, true},
		{"1.5E2", ParseOptions{}, 150, true},
		{"1.234", ParseOptions{DecimalSeparator: ',', ThousandsSeparator: '.'}, 1234, true},
		{"NaN", ParseOptions{}, 0, false},
		{"-Inf", ParseOptions{}, 0, false},
		{"Bon", ParseOptions{}, 0, false},
		{"", ParseOptions{}, 0, false},
	}
	for _, c := range cases {
		got, ok := ParseNumber(c.in, c.opt)
		assert.Equal(t, c.ok, ok, "ok for %q", c.in)
		if c.ok {
			assert.InDelta(t, c.want, got, 1e-9, "value for %q", c.in)
		}
	}
}

func TestParseCellKinds(t *testing.T) {
	assert.True(t, ParseCell("  ", ParseOptions{}).IsNull())
	assert.True(t, ParseCell("N/A", ParseOptions{}).IsNull())
	assert.Equal(t, Number, ParseCell("12", ParseOptions{}).Kind())
	v := ParseCell(" Bon état ", ParseOptions{})
	assert.Equal(t, Text, v.Kind())
	assert.Equal(t, "Bon état", v.String())
}

func TestNumRejectsNaNAndInf(t *testing.T) {
	assert.True(t, Num(math.NaN()).IsNull())
	assert.True(t, Num(math.Inf(1)).IsNull())
	assert.Equal(t, "17.8", Num(17.8).String())
	assert.Equal(t, "160", Num(160).String())
	assert.Equal(t, "3.33", Num(10.0/3).Format(2))
	assert.Equal(t, "2", Num(2.0).Format(2))
}

func TestUniqueHeaders(t *testing.T) {
	tb := New("s", "Ecole", "Ecole", "", "Ecole.1", "Ecole")
	assert.Equal(t, []string{"Ecole", "Ecole.1", "Unnamed: 2", "Ecole.1.1", "Ecole.2"}, tb.Columns())
}

func TestFromRecordsPadsAndTruncates(t *testing.T) {
	tb := FromRecords("s", []string{"a", "b"}, [][]string{{"1"}, {"2", "x", "extra"}}, ParseOptions{})
	require.Equal(t, 2, tb.Len())
	assert.True(t, tb.Get(0, "b").IsNull())
	assert.Equal(t, "x", tb.Get(1, "b").String())
	assert.True(t, tb.IsNumeric("a"))
	assert.False(t, tb.IsNumeric("b"))
	assert.Equal(t, []string{"a"}, tb.NumericColumns())
}

func TestSetColumnSelectAndSort(t *testing.T) {
	tb := New("s", "name", "n")
	tb.Append(Str("b"), Num(2))
	tb.Append(Str("a"), Num(2))
	tb.Append(Str("c"), Num(5))

	require.NoError(t, tb.SetColumn("double", []Value{Num(4), Num(4), Num(10)}))
	assert.Equal(t, []string{"name", "n", "double"}, tb.Columns())
	require.Error(t, tb.SetColumn("bad", []Value{Num(1)}))

	sorted := tb.SortStable(func(a, b int) bool {
		x, _ := tb.Get(a, "n").Float()
		y, _ := tb.Get(b, "n").Float()
		return x > y
	})
	assert.Equal(t, "c", sorted.Get(0, "name").String())
	// ties keep load order
	assert.Equal(t, "b", sorted.Get(1, "name").String())
	assert.Equal(t, "a", sorted.Get(2, "name").String())
	// source untouched
	assert.Equal(t, "b", tb.Get(0, "name").String())

	sel, err := tb.Select("double", "name")
	require.NoError(t, err)
	assert.Equal(t, []string{"double", "name"}, sel.Columns())

	_, err = tb.Select("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "missing")
}

func TestWithHeaderRejectsDuplicates(t *testing.T) {
	tb := New("s", "a", "b")
	_, err := tb.WithHeader([]string{"x", "x"})
	require.Error(t, err)
	out, err := tb.WithHeader([]string{"x", "y"})
	require.NoError(t, err)
	assert.True(t, out.Has("x", "y"))
	assert.True(t, tb.Has("a", "b"))
}

func TestRecords(t *testing.T) {
	tb := New("s", "a", "b")
	tb.Append(Num(1.5), NullValue())
	assert.Equal(t, [][]string{{"a", "b"}, {"1.5", ""}}, tb.Records())
}

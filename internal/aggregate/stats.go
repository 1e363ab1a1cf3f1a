// Package aggregate computes summary statistics, group-by tables and rankings.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

// Func is an aggregate function.
type Func int

const (
	Count Func = iota
	Sum
	Mean
	Median
	Min
	Max
	Std
	Distinct
)

var funcNames = []struct {
	fn    Func
	name  string
	label string
}{
	{Count, "count", "Nombre"},
	{Sum, "sum", "Total"},
	{Mean, "mean", "Moyenne"},
	{Median, "median", "Médiane"},
	{Min, "min", "Min"},
	{Max, "max", "Max"},
	{Std, "std", "Écart-type"},
	{Distinct, "distinct", "Distincts"},
}

func (f Func) String() string {
	for _, n := range funcNames {
		if n.fn == f {
			return n.name
		}
	}
	return fmt.Sprintf("func(%d)", int(f))
}

// Label is the French display label used in summary keys.
func (f Func) Label() string {
	for _, n := range funcNames {
		if n.fn == f {
			return n.label
		}
	}
	return f.String()
}

// ParseFunc accepts the English names ("mean", "std", "nunique" for distinct).
func ParseFunc(s string) (Func, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "nunique" || s == "distinct-count" {
		return Distinct, nil
	}
	for _, n := range funcNames {
		if n.name == s {
			return n.fn, nil
		}
	}
	return 0, fmt.Errorf("unknown aggregate %q (use count, sum, mean, median, min, max, std, distinct)", s)
}

// Compute aggregates one column. An absent column behaves like an empty one.
func Compute(t *table.Table, col string, fn Func) table.Value {
	vals, _ := t.Column(col)
	return Values(vals, fn)
}

// Values aggregates cells. Count, Sum and Distinct of nothing are 0; the rest are null.
// Text cells count for Count and Distinct only.
func Values(vals []table.Value, fn Func) table.Value {
	switch fn {
	case Count:
		n := 0
		for _, v := range vals {
			if !v.IsNull() {
				n++
			}
		}
		return table.Num(float64(n))
	case Distinct:
		seen := map[string]struct{}{}
		for _, v := range vals {
			if !v.IsNull() {
				seen[v.String()] = struct{}{}
			}
		}
		return table.Num(float64(len(seen)))
	}
	xs := numbers(vals)
	switch fn {
	case Sum:
		return table.Num(floats.Sum(xs))
	}
	if len(xs) == 0 {
		return table.NullValue()
	}
	switch fn {
	case Mean:
		return table.Num(stat.Mean(xs, nil))
	case Median:
		sort.Float64s(xs)
		return table.Num(Quantile(xs, 0.5))
	case Min:
		return table.Num(floats.Min(xs))
	case Max:
		return table.Num(floats.Max(xs))
	case Std:
		if len(xs) < 2 {
			return table.NullValue()
		}
		return table.Num(stat.StdDev(xs, nil))
	}
	return table.NullValue()
}

func numbers(vals []table.Value) []float64 {
	xs := make([]float64, 0, len(vals))
	for _, v := range vals {
		if f, ok := v.Float(); ok {
			xs = append(xs, f)
		}
	}
	return xs
}

// Quantile interpolates linearly between closest ranks of sorted values.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// CorrMatrix is a symmetric Pearson correlation matrix.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64
}

// Correlation computes pairwise-complete Pearson correlations. Undefined pairs are 0.
func Correlation(t *table.Table, cols []string) *CorrMatrix {
	n := len(cols)
	m := &CorrMatrix{Columns: cols, Values: make([][]float64, n)}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
		m.Values[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			var xs, ys []float64
			for i := 0; i < t.Len(); i++ {
				x, okx := t.Get(i, cols[a]).Float()
				y, oky := t.Get(i, cols[b]).Float()
				if okx && oky {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			r := 0.0
			if len(xs) >= 2 {
				r = stat.Correlation(xs, ys, nil)
				if math.IsNaN(r) || math.IsInf(r, 0) {
					r = 0
				}
				r = math.Max(-1, math.Min(1, r))
			}
			m.Values[a][b], m.Values[b][a] = r, r
		}
	}
	return m
}

// Package derive computes derived metric columns with safe sentinels.
package derive

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

// Kind selects the formula and the sentinel used when it is undefined.
type Kind int

const (
	// Ratio is A/B; 0 when an operand is null or B is 0.
	Ratio Kind = iota
	// Percent is A/B*100; null when an operand is null or B is 0.
	Percent
	// Difference is A-B; null when an operand is null.
	Difference
	// Product is A*B; null when an operand is null.
	Product
)

func (k Kind) String() string {
	switch k {
	case Ratio:
		return "ratio"
	case Percent:
		return "percent"
	case Difference:
		return "difference"
	case Product:
		return "product"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Metric is one derived column.
type Metric struct {
	Name string
	Kind Kind
	A, B string
	// Overwrite replaces an existing column of the same name; otherwise an existing column is kept.
	Overwrite bool
}

// Eval computes the metric for one pair of operands. Results are rounded to one decimal.
func (m Metric) Eval(a, b table.Value) table.Value {
	x, okA := a.Float()
	y, okB := b.Float()
	switch m.Kind {
	case Ratio:
		if !okA || !okB || y == 0 {
			return table.Num(0)
		}
		q := x / y
		if math.IsInf(q, 0) || math.IsNaN(q) {
			return table.Num(0)
		}
		return table.Num(table.Round1(q))
	case Percent:
		if !okA || !okB || y == 0 {
			return table.NullValue()
		}
		return table.Num(table.Round1(x / y * 100))
	case Difference:
		if !okA || !okB {
			return table.NullValue()
		}
		return table.Num(table.Round1(x - y))
	case Product:
		if !okA || !okB {
			return table.NullValue()
		}
		return table.Num(table.Round1(x * y))
	}
	return table.NullValue()
}

// Result lists metrics that were computed and those skipped for missing operands.
type Result struct {
	Added   []string
	Skipped []string
}

// Apply returns a copy of t extended with the metrics, evaluated in order so a metric may use
// an earlier one as operand. Metrics with an absent operand are skipped, never an error.
func Apply(t *table.Table, metrics ...Metric) (*table.Table, Result) {
	out := t.Clone()
	var res Result
	for _, m := range metrics {
		if !out.Has(m.A, m.B) {
			res.Skipped = append(res.Skipped, fmt.Sprintf("%s: requires %s and %s", m.Name, m.A, m.B))
			continue
		}
		if out.Has(m.Name) && !m.Overwrite {
			continue
		}
		vals := make([]table.Value, out.Len())
		for i := range vals {
			vals[i] = m.Eval(out.Get(i, m.A), out.Get(i, m.B))
		}
		// widths always match here
		_ = out.SetColumn(m.Name, vals)
		res.Added = append(res.Added, m.Name)
	}
	return out, res
}

// CoerceNumeric returns a copy of t where text cells of the named columns become null.
// Absent columns are ignored. The count of coerced cells is returned for reporting.
func CoerceNumeric(t *table.Table, cols ...string) (*table.Table, int) {
	out := t.Clone()
	n := 0
	for _, c := range cols {
		vals, ok := out.Column(c)
		if !ok {
			continue
		}
		for i, v := range vals {
			if v.Kind() == table.Text {
				vals[i] = table.NullValue()
				n++
			}
		}
		_ = out.SetColumn(c, vals)
	}
	return out, n
}

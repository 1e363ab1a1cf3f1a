package aggregate

import (
	"fmt"

	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

// RankColumn is the 1-based rank column added by TopN.
const RankColumn = "Rang"

// GroupBy aggregates specs per distinct value of dim, in order of first appearance.
// Rows whose group value is null are left out. An empty input yields an empty table.
func GroupBy(t *table.Table, dim string, specs ...Spec) (*table.Table, error) {
	if err := t.Require(dim); err != nil {
		return nil, fmt.Errorf("group by: %w", err)
	}
	cols := []string{dim}
	for _, sp := range specs {
		cols = append(cols, sp.Name())
	}
	out := table.New(t.Name, cols...)

	var keys []table.Value
	members := map[string][]int{}
	for i := 0; i < t.Len(); i++ {
		k := t.Get(i, dim)
		if k.IsNull() {
			continue
		}
		ks := k.String()
		if _, ok := members[ks]; !ok {
			keys = append(keys, k)
		}
		members[ks] = append(members[ks], i)
	}
	for _, k := range keys {
		rows := members[k.String()]
		row := []table.Value{k}
		for _, sp := range specs {
			vals := make([]table.Value, len(rows))
			for n, i := range rows {
				vals[n] = t.Get(i, sp.Column)
			}
			row = append(row, Values(vals, sp.Func))
		}
		out.Append(row...)
	}
	return out, nil
}

// SortDesc returns t ordered by col descending; nulls go last and ties keep row order.
func SortDesc(t *table.Table, col string) *table.Table {
	return t.SortStable(func(a, b int) bool {
		x, okx := t.Get(a, col).Float()
		y, oky := t.Get(b, col).Float()
		if !okx {
			return false
		}
		if !oky {
			return true
		}
		return x > y
	})
}

// TopN ranks rows by metric descending and keeps the first n (all when n <= 0).
// Ranks are contiguous and 1-based; ties keep original row order.
func TopN(t *table.Table, metric string, n int, cols ...string) (*table.Table, error) {
	if err := t.Require(metric); err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	if len(cols) == 0 {
		cols = t.Columns()
	}
	if err := t.Require(cols...); err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	sorted := SortDesc(t, metric)
	if n <= 0 || n > sorted.Len() {
		n = sorted.Len()
	}
	out := table.New(t.Name, append([]string{RankColumn}, cols...)...)
	for i := 0; i < n; i++ {
		row := []table.Value{table.Num(float64(i + 1))}
		for _, c := range cols {
			row = append(row, sorted.Get(i, c))
		}
		out.Append(row...)
	}
	return out, nil
}

// CountColumn is the frequency column of ValueCounts.
const CountColumn = "Nombre"

// ValueCounts tabulates non-null values of col by descending frequency.
func ValueCounts(t *table.Table, col string) (*table.Table, error) {
	g, err := GroupBy(t, col, Spec{Column: col, Func: Count, As: CountColumn})
	if err != nil {
		return nil, err
	}
	return SortDesc(g, CountColumn), nil
}

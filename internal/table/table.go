// Package table holds the in-memory tabular model shared by every pipeline stage.
package table

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMissingColumn is returned when an operation references a column the table does not have.
var ErrMissingColumn = errors.New("missing column")

// Table is an ordered sequence of rows sharing one column set.
// Row order is the load order; callers rely on it for stable tie-breaks.
type Table struct {
	Name  string
	cols  []string
	index map[string]int
	rows  [][]Value
}

// New creates an empty table. Duplicate or blank headers are made unique.
func New(name string, columns ...string) *Table {
	t := &Table{Name: name}
	t.setColumns(uniqueHeaders(columns))
	return t
}

func (t *Table) setColumns(cols []string) {
	t.cols = cols
	t.index = make(map[string]int, len(cols))
	for i, c := range cols {
		t.index[c] = i
	}
}

// uniqueHeaders mirrors how spreadsheet tools disambiguate headers: "x", "x.1", "x.2".
func uniqueHeaders(in []string) []string {
	out := make([]string, len(in))
	used := make(map[string]bool, len(in))
	for i, h := range in {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s.%d", h, n)
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// FromRecords builds a table from a header and raw string records.
// Short records are padded with nulls, long ones truncated.
func FromRecords(name string, header []string, records [][]string, opt ParseOptions) *Table {
	t := New(name, header...)
	for _, rec := range records {
		row := make([]Value, len(t.cols))
		for j := 0; j < len(row) && j < len(rec); j++ {
			row[j] = ParseCell(rec[j], opt)
		}
		t.rows = append(t.rows, row)
	}
	return t
}

// Columns returns a copy of the header.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	copy(out, t.cols)
	return out
}

func (t *Table) Width() int { return len(t.cols) }
func (t *Table) Len() int   { return len(t.rows) }

// Has reports whether every named column exists.
func (t *Table) Has(cols ...string) bool {
	for _, c := range cols {
		if _, ok := t.index[c]; !ok {
			return false
		}
	}
	return true
}

// Index returns the position of a column.
func (t *Table) Index(col string) (int, bool) {
	i, ok := t.index[col]
	return i, ok
}

// Require returns an ErrMissingColumn error naming every absent column.
func (t *Table) Require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s (available: %s)", ErrMissingColumn, strings.Join(missing, ", "), strings.Join(t.cols, ", "))
	}
	return nil
}

// Append adds a row, padding or truncating to the table width.
func (t *Table) Append(vals ...Value) {
	row := make([]Value, len(t.cols))
	copy(row, vals)
	t.rows = append(t.rows, row)
}

// At returns the cell at row i, column j.
func (t *Table) At(i, j int) Value { return t.rows[i][j] }

// Get returns the cell at row i of the named column, or null when the column is absent.
func (t *Table) Get(i int, col string) Value {
	j, ok := t.index[col]
	if !ok {
		return Value{}
	}
	return t.rows[i][j]
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.rows[i]))
	copy(out, t.rows[i])
	return out
}

// Column returns a copy of the named column.
func (t *Table) Column(col string) ([]Value, bool) {
	j, ok := t.index[col]
	if !ok {
		return nil, false
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out, true
}

// Floats returns the non-null numeric values of a column in row order.
func (t *Table) Floats(col string) []float64 {
	j, ok := t.index[col]
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(t.rows))
	for _, r := range t.rows {
		if f, ok := r[j].Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// IsNumeric reports whether the column holds at least one number and no text.
func (t *Table) IsNumeric(col string) bool {
	j, ok := t.index[col]
	if !ok {
		return false
	}
	nums := 0
	for _, r := range t.rows {
		switch r[j].kind {
		case Text:
			return false
		case Number:
			nums++
		}
	}
	return nums > 0
}

// NumericColumns lists numeric columns in header order.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, c := range t.cols {
		if t.IsNumeric(c) {
			out = append(out, c)
		}
	}
	return out
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	c := &Table{Name: t.Name}
	c.setColumns(t.Columns())
	c.rows = make([][]Value, len(t.rows))
	for i := range t.rows {
		c.rows[i] = t.Row(i)
	}
	return c
}

// WithHeader returns a copy of the table under a new header of the same width.
func (t *Table) WithHeader(cols []string) (*Table, error) {
	if len(cols) != len(t.cols) {
		return nil, fmt.Errorf("header width %d does not match table width %d", len(cols), len(t.cols))
	}
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		seen[c] = struct{}{}
	}
	c := t.Clone()
	hdr := make([]string, len(cols))
	copy(hdr, cols)
	c.setColumns(hdr)
	return c, nil
}

// SetColumn replaces an existing column or appends a new one. vals must have Len() entries.
func (t *Table) SetColumn(col string, vals []Value) error {
	if len(vals) != len(t.rows) {
		return fmt.Errorf("column %q has %d values, table has %d rows", col, len(vals), len(t.rows))
	}
	j, ok := t.index[col]
	if !ok {
		t.cols = append(t.cols, col)
		j = len(t.cols) - 1
		t.index[col] = j
		for i := range t.rows {
			t.rows[i] = append(t.rows[i], Value{})
		}
	}
	for i := range t.rows {
		t.rows[i][j] = vals[i]
	}
	return nil
}

// Select returns a new table restricted to the named columns, in that order.
func (t *Table) Select(cols ...string) (*Table, error) {
	if err := t.Require(cols...); err != nil {
		return nil, err
	}
	out := New(t.Name, cols...)
	for _, r := range t.rows {
		row := make([]Value, len(cols))
		for k, c := range cols {
			row[k] = r[t.index[c]]
		}
		out.rows = append(out.rows, row)
	}
	return out, nil
}

// Filter returns the rows for which keep returns true.
func (t *Table) Filter(keep func(i int) bool) *Table {
	out := New(t.Name)
	out.setColumns(t.Columns())
	for i := range t.rows {
		if keep(i) {
			out.rows = append(out.rows, t.Row(i))
		}
	}
	return out
}

// SortStable returns a new table with rows ordered by less over original row indices.
func (t *Table) SortStable(less func(a, b int) bool) *Table {
	idx := make([]int, len(t.rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return less(idx[a], idx[b]) })
	out := New(t.Name)
	out.setColumns(t.Columns())
	out.rows = make([][]Value, len(idx))
	for k, i := range idx {
		out.rows[k] = t.Row(i)
	}
	return out
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	return t.Filter(func(i int) bool { return i < n })
}

// Records renders the table as strings, header first.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.rows)+1)
	out = append(out, t.Columns())
	for _, r := range t.rows {
		rec := make([]string, len(r))
		for j, v := range r {
			rec[j] = v.String()
		}
		out = append(out, rec)
	}
	return out
}

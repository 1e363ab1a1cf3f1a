package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/scolaire-cli/internal/export"
	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

// Markdown renders a compact report suitable for standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("Sheet: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		name := safeName(c.Name)
		if c.Unit != "" {
			name = fmt.Sprintf("%s [%s]", name, c.Unit)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", name, c.Kind, c.NonNull, c.MissingPct()))
		switch c.Kind {
		case KindNumeric, KindMixed:
			b.WriteString(fmt.Sprintf("; min %.4g, max %.4g, mean %.4g, median %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Median, c.Std))
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		}
		if len(c.TopValues) > 0 {
			b.WriteString("; top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
			if c.Unique > len(c.TopValues) {
				b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
			}
		} else if c.Kind == KindText && len(c.ExampleTexts) > 0 {
			b.WriteString("; e.g., ")
			for i, ex := range c.ExampleTexts {
				if i > 0 {
					b.WriteString(" | ")
				}
				b.WriteString(safeVal(ex))
			}
		}
		b.WriteString("\n")
	}
	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			// print up to 6 metrics
			for _, k := range keys[:min(6, len(keys))] {
				m := g.Metrics[k]
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g (min %.4g, max %.4g)\n", k, m.Mean, m.Min, m.Max))
			}
		}
	}
	if pairs := r.TopPairs(10); len(pairs) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}
	if r.Aggregates != nil {
		b.WriteString("\n[AGGREGATES]\n")
		_ = export.Markdown(&b, r.Aggregates)
	}
	if r.Samples != nil && r.Samples.Len() > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		_ = export.Markdown(&b, r.Samples)
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// TopPairs lists up to n correlation pairs by descending |r|.
func (r *Report) TopPairs(n int) []PairCorr {
	if r.Corr == nil || len(r.Corr.Columns) < 2 {
		return nil
	}
	var pairs []PairCorr
	cols := r.Corr.Columns
	for i := range cols {
		for j := i + 1; j < len(cols); j++ {
			pairs = append(pairs, PairCorr{A: cols[i], B: cols[j], R: r.Corr.Values[i][j]})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	return pairs[:min(n, len(pairs))]
}

// SchemaTable tabulates the column summaries for console output.
func (r *Report) SchemaTable() *table.Table {
	t := table.New("Schema", "Column", "Kind", "Unit", "Non-null", "Missing %", "Unique", "Min", "Max", "Mean", "Outliers")
	for _, c := range r.Cols {
		row := []table.Value{
			table.Str(c.Name), table.Str(c.Kind), table.Str(c.Unit),
			table.Num(float64(c.NonNull)), table.Num(table.Round1(c.MissingPct())), table.Num(float64(c.Unique)),
		}
		if c.Kind == KindNumeric || c.Kind == KindMixed {
			row = append(row, table.Num(c.Min), table.Num(c.Max), table.Num(math.Round(c.Mean*100)/100), table.Num(float64(c.OutliersCount)))
		} else {
			row = append(row, table.NullValue(), table.NullValue(), table.NullValue(), table.NullValue())
		}
		t.Append(row...)
	}
	return t
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return safeVal(s)
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

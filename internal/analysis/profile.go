// Package analysis profiles an arbitrary worksheet: column kinds, missing values,
// numeric statistics with robust outliers, top categories, groups and correlations.
package analysis

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/scolaire-cli/internal/aggregate"
	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

// Column kinds.
const (
	KindNumeric     = "numeric"
	KindCategorical = "categorical"
	KindText        = "text"
	KindMixed       = "mixed"
	KindEmpty       = "empty"
)

// Options controls profiling.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupBy computes per-group summaries of numeric columns.
	GroupBy string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
	// TopValues bounds the categories listed per column.
	TopValues int
	// Aggregates adds one table row per numeric column with these functions.
	Aggregates []aggregate.Func
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		SampleRows:       5,
		Outliers:         true,
		OutlierThreshold: 3.5,
		TopValues:        8,
	}
}

// Report is a profile of one table.
type Report struct {
	Name       string
	Rows       int
	Cols       []ColumnSummary
	Samples    *table.Table
	Warnings   []string
	Groups     []GroupResult
	Corr       *aggregate.CorrMatrix
	Aggregates *table.Table
}

// ColumnSummary captures inferred kind and statistics per column.
type ColumnSummary struct {
	Name    string
	Unit    string
	Kind    string
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min, Max, Mean, Median, Std float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

// MissingPct is the share of null cells, in percent.
func (c ColumnSummary) MissingPct() float64 {
	total := c.NonNull + c.Missing
	if total == 0 {
		return 0
	}
	return float64(c.Missing) * 100 / float64(total)
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures numeric means per group key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// Profile analyzes t. An unknown GroupBy column is reported as a warning.
func Profile(t *table.Table, opt Options) *Report {
	rep := &Report{Name: t.Name, Rows: t.Len()}
	sample := opt.SampleRows
	if sample <= 0 {
		sample = 5
	}
	rep.Samples = t.Head(sample)

	var numCols []string
	for _, name := range t.Columns() {
		s := summarize(t, name, opt)
		if s.Kind == KindNumeric {
			numCols = append(numCols, name)
		}
		if s.Kind == KindMixed {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %q mixes numbers and text", name))
		}
		rep.Cols = append(rep.Cols, s)
	}

	if opt.GroupBy != "" {
		if !t.Has(opt.GroupBy) {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("group-by column %q not found", opt.GroupBy))
		} else {
			rep.Groups = groups(t, opt.GroupBy, numCols)
		}
	}
	if opt.Correlations && len(numCols) >= 2 {
		rep.Corr = aggregate.Correlation(t, numCols)
	}
	if len(opt.Aggregates) > 0 && len(numCols) > 0 {
		rep.Aggregates = aggregates(t, numCols, opt.Aggregates)
	}
	return rep
}

func aggregates(t *table.Table, cols []string, fns []aggregate.Func) *table.Table {
	header := []string{"Column"}
	for _, fn := range fns {
		header = append(header, fn.String())
	}
	out := table.New("Aggregates", header...)
	for _, c := range cols {
		row := []table.Value{table.Str(c)}
		for _, fn := range fns {
			row = append(row, aggregate.Compute(t, c, fn))
		}
		out.Append(row...)
	}
	return out
}

func summarize(t *table.Table, name string, opt Options) ColumnSummary {
	clean, unit := splitUnits(name)
	s := ColumnSummary{Name: clean, Unit: unit}
	vals, _ := t.Column(name)
	var nums []float64
	cats := map[string]int{}
	texts := 0
	for _, v := range vals {
		switch v.Kind() {
		case table.Null:
			s.Missing++
			continue
		case table.Number:
			f, _ := v.Float()
			nums = append(nums, f)
		default:
			texts++
			if len(s.ExampleTexts) < 3 {
				s.ExampleTexts = append(s.ExampleTexts, v.String())
			}
		}
		s.NonNull++
		cats[v.String()]++
	}
	s.Unique = len(cats)

	switch {
	case s.NonNull == 0:
		s.Kind = KindEmpty
	case texts == 0:
		s.Kind = KindNumeric
	case len(nums) > 0:
		s.Kind = KindMixed
	case s.Unique <= max(20, s.NonNull/2):
		s.Kind = KindCategorical
	default:
		s.Kind = KindText
	}

	if len(nums) > 0 {
		sorted := append([]float64(nil), nums...)
		sort.Float64s(sorted)
		s.Min, s.Max = sorted[0], sorted[len(sorted)-1]
		s.Mean = stat.Mean(nums, nil)
		s.Median = aggregate.Quantile(sorted, 0.5)
		if len(nums) > 1 {
			s.Std = stat.StdDev(nums, nil)
		}
		if opt.Outliers && len(nums) >= 8 {
			thr := opt.OutlierThreshold
			if thr <= 0 {
				thr = 3.5
			}
			s.OutlierThreshold = thr
			s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(sorted, thr)
		}
	}
	if s.Kind == KindCategorical || s.Kind == KindMixed {
		s.TopValues = topValues(cats, opt.TopValues)
	}
	return s
}

// robustOutliers counts values with |0.6745*(x-median)/MAD| above thr.
func robustOutliers(sorted []float64, thr float64) (int, float64) {
	median, mad := medianMAD(sorted)
	if mad == 0 {
		return 0, 0
	}
	cnt, maxAbsZ := 0, 0.0
	for _, v := range sorted {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			cnt++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return cnt, maxAbsZ
}

// medianMAD computes median and MAD (median absolute deviation) of sorted values.
func medianMAD(sorted []float64) (median, mad float64) {
	if len(sorted) == 0 {
		return 0, 0
	}
	median = aggregate.Quantile(sorted, 0.5)
	dev := make([]float64, len(sorted))
	for i, v := range sorted {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	return median, aggregate.Quantile(dev, 0.5)
}

func topValues(cats map[string]int, n int) []CategoryCount {
	if n <= 0 {
		n = 8
	}
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > n {
		tops = tops[:n]
	}
	return tops
}

func groups(t *table.Table, dim string, numCols []string) []GroupResult {
	index := map[string]*GroupResult{}
	var out []*GroupResult
	for i := 0; i < t.Len(); i++ {
		k := t.Get(i, dim)
		if k.IsNull() {
			continue
		}
		g := index[k.String()]
		if g == nil {
			g = &GroupResult{Key: k.String(), Metrics: map[string]NumSummary{}}
			index[g.Key] = g
			out = append(out, g)
		}
		g.Size++
		for _, c := range numCols {
			if c == dim {
				continue
			}
			x, ok := t.Get(i, c).Float()
			if !ok {
				continue
			}
			m, seen := g.Metrics[c]
			if !seen || x < m.Min {
				m.Min = x
			}
			if !seen || x > m.Max {
				m.Max = x
			}
			// running mean
			m.Count++
			m.Mean += (x - m.Mean) / float64(m.Count)
			g.Metrics[c] = m
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	res := make([]GroupResult, len(out))
	for i, g := range out {
		res[i] = *g
	}
	return res
}

var unitPatterns = []struct {
	re   *regexp.Regexp
	pick int
}{
	{regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`), 2},  // e.g., Longueur (m)
	{regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), 2}, // e.g., Surface [m²]
	{regexp.MustCompile(`^(.*?)[_\s-]+(m²|m|%)$`), 2},
}

// splitUnits separates a trailing unit from a header: "Superficie (m²)" -> "Superficie", "m²".
func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, p := range unitPatterns {
		if m := p.re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[p.pick])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}

// Package categorize assigns threshold-based labels to rows.
package categorize

import (
	"math"
	"sort"

	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

// Undefined is the label for null values and values below every threshold.
const Undefined = "undefined"

// Bucket labels values greater than or equal to Min.
type Bucket struct {
	Min   float64
	Label string
}

// Below is a catch-all bucket for any non-null value.
func Below(label string) Bucket { return Bucket{Min: math.Inf(-1), Label: label} }

// Categorizer writes Target from the numeric Source column.
type Categorizer struct {
	Source  string
	Target  string
	Buckets []Bucket
	// Default replaces Undefined when set.
	Default string
}

func (c Categorizer) sorted() []Bucket {
	b := make([]Bucket, len(c.Buckets))
	copy(b, c.Buckets)
	sort.SliceStable(b, func(i, j int) bool { return b[i].Min > b[j].Min })
	return b
}

func (c Categorizer) fallback() string {
	if c.Default != "" {
		return c.Default
	}
	return Undefined
}

// Label returns the label of the highest threshold v meets.
func (c Categorizer) Label(v table.Value) string {
	f, ok := v.Float()
	if !ok {
		return c.fallback()
	}
	for _, b := range c.sorted() {
		if f >= b.Min {
			return b.Label
		}
	}
	return c.fallback()
}

// Labels lists bucket labels from the highest threshold down, then the fallback.
func (c Categorizer) Labels() []string {
	var out []string
	for _, b := range c.sorted() {
		out = append(out, b.Label)
	}
	return append(out, c.fallback())
}

// Apply returns a copy of t with the Target column. It reports false when Source is absent.
func (c Categorizer) Apply(t *table.Table) (*table.Table, bool) {
	src, ok := t.Column(c.Source)
	if !ok {
		return t.Clone(), false
	}
	buckets := c.sorted()
	vals := make([]table.Value, len(src))
	for i, v := range src {
		label := c.fallback()
		if f, ok := v.Float(); ok {
			for _, b := range buckets {
				if f >= b.Min {
					label = b.Label
					break
				}
			}
		}
		vals[i] = table.Str(label)
	}
	out := t.Clone()
	_ = out.SetColumn(c.Target, vals)
	return out, true
}

package aggregate

import (
	"fmt"

	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

// Entry is one key of a summary record.
type Entry struct {
	Key   string
	Value table.Value
}

// Summary is a flat, insertion-ordered key/value record.
type Summary struct {
	entries []Entry
	index   map[string]int
}

// NewSummary returns an empty summary.
func NewSummary() *Summary {
	return &Summary{index: map[string]int{}}
}

// Set stores a value; re-setting a key keeps its original position.
func (s *Summary) Set(key string, v table.Value) {
	if i, ok := s.index[key]; ok {
		s.entries[i].Value = v
		return
	}
	s.index[key] = len(s.entries)
	s.entries = append(s.entries, Entry{Key: key, Value: v})
}

// SetNum is Set for plain numbers.
func (s *Summary) SetNum(key string, f float64) { s.Set(key, table.Num(f)) }

// SetText is Set for labels.
func (s *Summary) SetText(key, text string) { s.Set(key, table.Str(text)) }

// Add aggregates col with fn under key. An empty key uses "<col> - <label>".
func (s *Summary) Add(t *table.Table, key, col string, fn Func) {
	if key == "" {
		key = fmt.Sprintf("%s - %s", col, fn.Label())
	}
	s.Set(key, Compute(t, col, fn))
}

// Get looks a key up.
func (s *Summary) Get(key string) (table.Value, bool) {
	i, ok := s.index[key]
	if !ok {
		return table.Value{}, false
	}
	return s.entries[i].Value, true
}

// Float is Get for numeric entries.
func (s *Summary) Float(key string) (float64, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	return v.Float()
}

// Entries returns the record in insertion order.
func (s *Summary) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Summary) Len() int { return len(s.entries) }

// Table renders the record as a two-column table for display or export.
func (s *Summary) Table() *table.Table {
	t := table.New("Statistiques", "Indicateur", "Valeur")
	for _, e := range s.entries {
		t.Append(table.Str(e.Key), e.Value)
	}
	return t
}

// Spec pairs a column with an aggregate function. As overrides the output name.
type Spec struct {
	Column string
	Func   Func
	As     string
}

// Name is the output key or column name of the spec.
func (s Spec) Name() string {
	if s.As != "" {
		return s.As
	}
	return fmt.Sprintf("%s - %s", s.Column, s.Func.Label())
}

// Summarize builds a flat record with one entry per spec.
func Summarize(t *table.Table, specs ...Spec) *Summary {
	s := NewSummary()
	for _, sp := range specs {
		s.Set(sp.Name(), Compute(t, sp.Column, sp.Func))
	}
	return s
}

// Package normalize maps free-text worksheet headers onto canonical column names.
package normalize

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

// Rule renames any column whose header contains one of the patterns.
// Matching is a case-sensitive substring test on NFC-normalized text.
type Rule struct {
	Contains  []string
	Canonical string
	// NumericOnly restricts the rule to columns holding numeric data.
	NumericOnly bool
}

// Rename records a single header change.
type Rename struct {
	From, To string
}

// Report describes what Apply did.
type Report struct {
	Renamed []Rename
	// Collisions lists headers left untouched because their canonical name was already taken.
	Collisions []string
}

// Normalizer applies an ordered rule list. The first matching rule wins, so
// specific rules must come before the generic ones they overlap with
// (e.g. "Salle de classe non utilisée" before "Salle de classe utilisée").
type Normalizer struct {
	Rules  []Rule
	Logger *slog.Logger
}

// New returns a normalizer over rules.
func New(rules ...Rule) *Normalizer {
	return &Normalizer{Rules: rules}
}

// Contains is shorthand for a single-pattern rule.
func Contains(pattern, canonical string) Rule {
	return Rule{Contains: []string{pattern}, Canonical: canonical}
}

// Keep is a rule that pins an already-canonical header to itself.
func Keep(name string) Rule { return Contains(name, name) }

func (n *Normalizer) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return n.Logger
}

// fold prepares a header or pattern for matching.
func fold(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	return strings.NewReplacer("\u2019", "'", "\u2018", "'", "\u00a0", " ").Replace(s)
}

// Match returns the canonical name for a header, if any rule matches.
func (n *Normalizer) Match(t *table.Table, header string) (string, bool) {
	h := fold(header)
	for _, r := range n.Rules {
		if r.NumericOnly && !t.IsNumeric(header) {
			continue
		}
		for _, p := range r.Contains {
			if strings.Contains(h, fold(p)) {
				return r.Canonical, true
			}
		}
	}
	return "", false
}

// Apply returns a copy of t with matched headers renamed. Unmatched headers pass through.
// Canonical names stay unique: a header already equal to its canonical name keeps it,
// otherwise the first column in header order claims it and later ones keep their own header.
func (n *Normalizer) Apply(t *table.Table) (*table.Table, Report) {
	var rep Report
	cols := t.Columns()
	targets := make([]string, len(cols))
	taken := map[string]bool{}
	for i, c := range cols {
		canon, ok := n.Match(t, c)
		if !ok || canon == c {
			taken[c] = true
			continue
		}
		targets[i] = canon
	}
	out := make([]string, len(cols))
	for i, c := range cols {
		canon := targets[i]
		switch {
		case canon == "":
			out[i] = c
		case taken[canon]:
			out[i] = c
			taken[c] = true
			rep.Collisions = append(rep.Collisions, fmt.Sprintf("column %q also maps to %q; kept original header", c, canon))
		default:
			taken[canon] = true
			out[i] = canon
			rep.Renamed = append(rep.Renamed, Rename{From: c, To: canon})
		}
	}
	res, err := t.WithHeader(out)
	if err != nil {
		n.logger().Warn("header normalization skipped", "sheet", t.Name, "err", err)
		return t.Clone(), Report{Collisions: append(rep.Collisions, err.Error())}
	}
	n.logger().Debug("headers normalized", "sheet", t.Name, "renamed", len(rep.Renamed), "collisions", len(rep.Collisions))
	return res, rep
}

// Warnings renders the collisions as user-facing messages.
func (r Report) Warnings() []string {
	out := make([]string, len(r.Collisions))
	copy(out, r.Collisions)
	return out
}

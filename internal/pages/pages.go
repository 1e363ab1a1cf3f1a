// Package pages implements the analysis pages: each one cleans a fixed worksheet layout,
// derives its metrics and renders a report with optional charts and exports.
package pages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/KaramelBytes/scolaire-cli/internal/aggregate"
	"github.com/KaramelBytes/scolaire-cli/internal/chart"
	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

// AppTitle heads every report.
const AppTitle = "Plateforme d'Analyse Scolaire"

// ErrUnknownPage is returned by Lookup.
var ErrUnknownPage = errors.New("unknown page")

// Widget toggles one report block.
type Widget string

const (
	WidgetSummary      Widget = "summary"
	WidgetGroups       Widget = "groups"
	WidgetRankings     Widget = "rankings"
	WidgetDistribution Widget = "distribution"
	WidgetChart        Widget = "chart"
	WidgetExport       Widget = "export"
	WidgetPreview      Widget = "preview"
)

// AllWidgets in report order.
var AllWidgets = []Widget{WidgetPreview, WidgetSummary, WidgetGroups, WidgetRankings, WidgetDistribution, WidgetChart, WidgetExport}

// ParseWidgets validates a comma or list separated widget selection.
func ParseWidgets(in []string) ([]Widget, error) {
	var out []Widget
	for _, item := range in {
		for _, s := range strings.Split(item, ",") {
			s = strings.ToLower(strings.TrimSpace(s))
			if s == "" {
				continue
			}
			ok := false
			for _, w := range AllWidgets {
				if string(w) == s {
					out = append(out, w)
					ok = true
					break
				}
			}
			if !ok {
				return nil, fmt.Errorf("unknown widget %q (valid: %s)", s, joinWidgets(AllWidgets))
			}
		}
	}
	return out, nil
}

func joinWidgets(ws []Widget) string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = string(w)
	}
	return strings.Join(parts, ", ")
}

// Config is the per-render page configuration.
type Config struct {
	Title   string
	Theme   string
	Widgets []Widget
}

// Enabled reports whether w is on. An empty widget list enables everything.
func (c Config) Enabled(w Widget) bool {
	if len(c.Widgets) == 0 {
		return true
	}
	for _, x := range c.Widgets {
		if x == w {
			return true
		}
	}
	return false
}

// Merge overlays the non-zero fields of o on c.
func (c Config) Merge(o Config) Config {
	if o.Title != "" {
		c.Title = o.Title
	}
	if o.Theme != "" {
		c.Theme = o.Theme
	}
	if len(o.Widgets) > 0 {
		c.Widgets = o.Widgets
	}
	return c
}

// SheetRef names the worksheet a page reads by default. Index is 1-based.
type SheetRef struct {
	Name  string
	Index int
}

func (s SheetRef) String() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Index > 0:
		return fmt.Sprintf("feuille n°%d", s.Index)
	}
	return "aucune"
}

// Request is one page render.
type Request struct {
	// Table is the loaded worksheet; nil for pages without data.
	Table  *table.Table
	Source string
	Config Config
	// TopN bounds rankings; <= 0 means 10.
	TopN int
	// Chart is built when set and the chart widget is on.
	Chart        *chart.Request
	ChartOptions chart.Options
	// Year selects the school year on pages that split by year (1-based, default 1).
	Year int
	// Column restricts the distribution widget to one column.
	Column string
	// Recompute replaces derived columns the sheet already carries.
	Recompute bool
	// SampleRows bounds the preview; <= 0 means 20.
	SampleRows int
	Logger     *slog.Logger
}

func (r Request) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}

func (r Request) topN() int {
	if r.TopN <= 0 {
		return 10
	}
	return r.TopN
}

func (r Request) sampleRows() int {
	if r.SampleRows <= 0 {
		return 20
	}
	return r.SampleRows
}

// Section is one titled block of the report.
type Section struct {
	Title string
	Text  string
	Table *table.Table
}

// Artifact is a file the page can produce.
type Artifact struct {
	Name        string
	Kind        string
	Description string
	Write       func(w io.Writer) error
}

// Result is a rendered page.
type Result struct {
	Page     string
	Title    string
	Source   string
	Sections []Section
	Summary  *aggregate.Summary
	// Data is the cleaned and derived table.
	Data      *table.Table
	Chart     *chart.Result
	ChartErr  error
	Artifacts []Artifact
	Warnings  []string

	logger *slog.Logger
}

// Warn records a user-facing warning.
func (r *Result) Warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Result) add(s Section) { r.Sections = append(r.Sections, s) }

// Page is one analysis page.
type Page interface {
	ID() string
	// Config returns the page defaults.
	Config() Config
	Description() string
	// Sheet is the default worksheet; ok is false for pages that read no data.
	Sheet() (ref SheetRef, ok bool)
	Render(ctx context.Context, req Request) (*Result, error)
}

var (
	registry map[string]Page
	order    []string
)

func init() {
	all := []Page{accueil{}, tableauxPage(), sallesPage(), totauxPage(), ratiosPage()}
	registry = make(map[string]Page, len(all))
	for _, p := range all {
		registry[p.ID()] = p
		order = append(order, p.ID())
	}
}

// Registry returns the static page table keyed by id.
func Registry() map[string]Page {
	out := make(map[string]Page, len(registry))
	for k, v := range registry {
		out[k] = v
	}
	return out
}

// IDs lists page ids in menu order.
func IDs() []string { return append([]string(nil), order...) }

// Lookup returns the page with the given id.
func Lookup(id string) (Page, error) {
	p, ok := registry[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		ids := IDs()
		sort.Strings(ids)
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownPage, id, strings.Join(ids, ", "))
	}
	return p, nil
}

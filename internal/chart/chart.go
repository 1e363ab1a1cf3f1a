// Package chart maps a chart request over a table to one go-echarts chart.
package chart

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-echarts/go-echarts/v2/components"

	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

// ErrVariableNotFound is returned when a bound variable is not a column of the table.
var ErrVariableNotFound = errors.New("variable not found")

// ErrUnknownType is returned by ParseType.
var ErrUnknownType = errors.New("unknown chart type")

// Type selects a renderer.
type Type int

const (
	Scatter Type = iota
	Histogram
	Bar
	Box
	Heatmap
	Pie
	Violin
	Treemap
	Bubble
	Radar
)

var typeNames = []struct {
	id    string
	label string
}{
	Scatter:   {"scatter", "Nuage de points"},
	Histogram: {"histogram", "Histogramme"},
	Bar:       {"bar", "Diagramme en barres"},
	Box:       {"box", "Box plot"},
	Heatmap:   {"heatmap", "Carte thermique (heatmap)"},
	Pie:       {"pie", "Diagramme circulaire"},
	Violin:    {"violin", "Graphique en violon"},
	Treemap:   {"treemap", "Treemap"},
	Bubble:    {"bubble", "Graphique à bulles"},
	Radar:     {"radar", "Graphique en radar"},
}

func (t Type) String() string {
	if int(t) < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t].id
}

// Label is the French display name.
func (t Type) Label() string {
	if int(t) < 0 || int(t) >= len(typeNames) {
		return t.String()
	}
	return typeNames[t].label
}

// Types lists every chart type in menu order.
func Types() []Type {
	out := make([]Type, len(typeNames))
	for i := range typeNames {
		out[i] = Type(i)
	}
	return out
}

// ParseType accepts an id ("bar") or a display label ("Diagramme en barres"), case-insensitively.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	for i, n := range typeNames {
		if strings.EqualFold(s, n.id) || strings.EqualFold(s, n.label) {
			return Type(i), nil
		}
	}
	ids := make([]string, len(typeNames))
	for i, n := range typeNames {
		ids[i] = n.id
	}
	return 0, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownType, s, strings.Join(ids, ", "))
}

// Filter keeps rows whose Column renders to one of Values.
type Filter struct {
	Column string
	Values []string
}

// Request binds table columns to chart roles. Empty names are unbound.
type Request struct {
	Type  Type
	X     string
	Y     string
	Color string
	Size  string
	// Filter is applied before charting.
	Filter *Filter
	// DefaultSize is the page's size column, used when Size is unbound and the column exists.
	DefaultSize string
	// Label names each row in tooltips and treemap leaves.
	Label string
	Title string
}

// Options control chart canvas and assets.
type Options struct {
	Theme      string
	Width      string
	Height     string
	AssetsHost string
}

// Renderer is a chart that can be added to a page and rendered alone.
type Renderer interface {
	components.Charter
	Render(w io.Writer) error
}

// Result holds the built chart, or only warnings when the request cannot produce one.
type Result struct {
	Type     Type
	Title    string
	Chart    Renderer
	Rows     int
	Warnings []string
}

// Rendered reports whether a chart was produced.
func (r *Result) Rendered() bool { return r != nil && r.Chart != nil }

// Render writes the chart as a standalone HTML document.
func (r *Result) Render(w io.Writer) error {
	if !r.Rendered() {
		return fmt.Errorf("no chart to render")
	}
	return r.Chart.Render(w)
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Dispatcher builds charts with shared canvas options.
type Dispatcher struct {
	Options Options
	Logger  *slog.Logger
}

// New returns a Dispatcher. A nil logger discards.
func New(opt Options, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{Options: opt, Logger: logger}
}

// Build validates the request against t and builds the chart. t is never modified.
// Conditions that only prevent a chart (too few numeric columns, no size or color column)
// yield a Result with warnings and no chart, not an error.
func (d *Dispatcher) Build(t *table.Table, req Request) (*Result, error) {
	if err := validate(t, req); err != nil {
		return nil, err
	}
	data := t
	if req.Filter != nil && len(req.Filter.Values) > 0 {
		data = applyFilter(t, req.Filter)
	}
	res := &Result{Type: req.Type, Rows: data.Len()}
	res.Title = req.Title
	if res.Title == "" {
		res.Title = defaultTitle(req)
	}
	b := &builder{d: d, t: data, req: req, res: res}
	var err error
	switch req.Type {
	case Scatter:
		err = b.scatter(false)
	case Bubble:
		err = b.scatter(true)
	case Histogram:
		err = b.histogram()
	case Bar:
		err = b.bar()
	case Box:
		err = b.box(false)
	case Violin:
		err = b.box(true)
	case Heatmap:
		err = b.heatmap()
	case Pie:
		err = b.pie()
	case Treemap:
		err = b.treemap()
	case Radar:
		err = b.radar()
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(req.Type))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build %s chart: %w", req.Type, err)
	}
	for _, w := range res.Warnings {
		d.Logger.Warn("chart not rendered", "type", req.Type.String(), "reason", w)
	}
	return res, nil
}

// needs lists the roles a chart type cannot do without.
func needs(tp Type) (x, y bool) {
	switch tp {
	case Heatmap:
		return false, false
	case Scatter, Bubble, Bar, Radar:
		return true, true
	default:
		return true, false
	}
}

func validate(t *table.Table, req Request) error {
	needX, needY := needs(req.Type)
	if needX && req.X == "" {
		return fmt.Errorf("%s chart needs an x variable", req.Type)
	}
	if needY && req.Y == "" {
		return fmt.Errorf("%s chart needs a y variable", req.Type)
	}
	bound := []string{req.X, req.Y, req.Color, req.Size}
	if req.Filter != nil {
		bound = append(bound, req.Filter.Column)
	}
	for _, v := range bound {
		if v != "" && !t.Has(v) {
			return fmt.Errorf("%w: %s", ErrVariableNotFound, v)
		}
	}
	return nil
}

func applyFilter(t *table.Table, f *Filter) *table.Table {
	allowed := make(map[string]bool, len(f.Values))
	for _, v := range f.Values {
		allowed[v] = true
	}
	return t.Filter(func(i int) bool {
		v := t.Get(i, f.Column)
		return !v.IsNull() && allowed[v.String()]
	})
}

func defaultTitle(req Request) string {
	switch req.Type {
	case Scatter:
		return fmt.Sprintf("Nuage de points: %s vs %s", req.X, req.Y)
	case Bubble:
		return fmt.Sprintf("Graphique à bulles: %s vs %s", req.X, req.Y)
	case Histogram, Box, Violin:
		if req.Color != "" {
			return fmt.Sprintf("Distribution de %s par %s", req.X, req.Color)
		}
		return fmt.Sprintf("Distribution de %s", req.X)
	case Bar:
		if req.Color != "" {
			return fmt.Sprintf("Moyenne de %s et %s par %s", req.X, req.Y, req.Color)
		}
		return fmt.Sprintf("%s vs %s", req.X, req.Y)
	case Heatmap:
		return "Matrice de corrélation entre variables numériques"
	case Pie:
		return fmt.Sprintf("Répartition de %s", req.X)
	case Treemap:
		return fmt.Sprintf("Treemap de %s par %s", req.X, req.Color)
	case Radar:
		return fmt.Sprintf("Comparaison de %s et %s par %s", req.X, req.Y, req.Color)
	}
	return req.Type.Label()
}

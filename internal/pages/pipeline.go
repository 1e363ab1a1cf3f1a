package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/KaramelBytes/scolaire-cli/internal/aggregate"
	"github.com/KaramelBytes/scolaire-cli/internal/categorize"
	"github.com/KaramelBytes/scolaire-cli/internal/chart"
	"github.com/KaramelBytes/scolaire-cli/internal/derive"
	"github.com/KaramelBytes/scolaire-cli/internal/export"
	"github.com/KaramelBytes/scolaire-cli/internal/normalize"
	"github.com/KaramelBytes/scolaire-cli/internal/table"
	"github.com/KaramelBytes/scolaire-cli/internal/utils"
)

// ranking is one top-N table.
type ranking struct {
	title  string
	metric string
	cols   []string
}

// schemaPage is a page over one named worksheet with a fixed cleaning recipe.
type schemaPage struct {
	id          string
	config      Config
	description string
	sheet       SheetRef
	rules       []normalize.Rule
	required    []string
	numeric     []string
	metrics     []derive.Metric
	categories  []categorize.Categorizer
	// categorical columns offered by the distribution widget.
	categorical []string
	summarize   func(t *table.Table) *aggregate.Summary
	groups      func(t *table.Table) ([]Section, error)
	rankings    []ranking
	chart       chart.Request
	exportName  string
}

func (p *schemaPage) ID() string              { return p.id }
func (p *schemaPage) Config() Config          { return p.config }
func (p *schemaPage) Description() string     { return p.description }
func (p *schemaPage) Sheet() (SheetRef, bool) { return p.sheet, true }

// Normalizer returns the page's header rules.
func (p *schemaPage) Normalizer() *normalize.Normalizer { return normalize.New(p.rules...) }

// Clean runs normalize, coerce, derive and categorize, recording warnings on res.
// With recompute, derived columns present in t are replaced instead of kept.
func (p *schemaPage) Clean(t *table.Table, recompute bool, res *Result) (*table.Table, error) {
	n := p.Normalizer()
	n.Logger = res.logger
	cleaned, rep := n.Apply(t)
	for _, w := range rep.Warnings() {
		res.Warn("%s", w)
	}
	if err := cleaned.Require(p.required...); err != nil {
		return nil, fmt.Errorf("page %s expects sheet %s with columns %v: %w", p.id, p.sheet, p.required, err)
	}
	cleaned, coerced := derive.CoerceNumeric(cleaned, p.numeric...)
	if coerced > 0 {
		res.Warn("%d non-numeric cell(s) in numeric columns were treated as missing", coerced)
	}
	metrics := make([]derive.Metric, len(p.metrics))
	for i, m := range p.metrics {
		m.Overwrite = m.Overwrite || recompute
		metrics[i] = m
	}
	cleaned, dres := derive.Apply(cleaned, metrics...)
	for _, s := range dres.Skipped {
		res.Warn("metric skipped (%s)", s)
	}
	for _, c := range p.categories {
		var ok bool
		cleaned, ok = c.Apply(cleaned)
		if !ok {
			res.Warn("category %s skipped: column %s is missing", c.Target, c.Source)
		}
	}
	return cleaned, nil
}

func (p *schemaPage) Render(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Table == nil {
		return nil, fmt.Errorf("page %s needs sheet %s", p.id, p.sheet)
	}
	cfg := p.config.Merge(req.Config)
	res := &Result{Page: p.id, Title: cfg.Title, Source: req.Source, logger: req.logger()}

	data, err := p.Clean(req.Table, req.Recompute, res)
	if err != nil {
		return nil, err
	}
	res.Data = data
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Enabled(WidgetPreview) {
		res.add(preview(data, req.sampleRows()))
	}
	if cfg.Enabled(WidgetSummary) && p.summarize != nil {
		res.Summary = p.summarize(data)
		res.add(Section{Title: "Statistiques descriptives", Table: res.Summary.Table()})
	}
	if cfg.Enabled(WidgetGroups) && p.groups != nil {
		secs, err := p.groups(data)
		if err != nil {
			return nil, err
		}
		res.Sections = append(res.Sections, secs...)
	}
	if cfg.Enabled(WidgetRankings) {
		for _, r := range p.rankings {
			p.rank(data, r, req.topN(), res)
		}
	}
	if cfg.Enabled(WidgetDistribution) {
		distributions(data, p.categorical, req.Column, res)
	}
	if cfg.Enabled(WidgetChart) && req.Chart != nil {
		buildChart(data, p.chart, cfg, req, res)
	}
	if cfg.Enabled(WidgetExport) {
		res.Artifacts = append(res.Artifacts, csvArtifact(p.exportName, "données nettoyées", data))
		if a, ok := chartDataArtifact(data, req.Chart); ok {
			res.Artifacts = append(res.Artifacts, a)
		}
	}
	return res, nil
}

func (p *schemaPage) rank(t *table.Table, r ranking, n int, res *Result) {
	if !t.Has(r.metric) {
		res.Warn("ranking by %s skipped: column missing", r.metric)
		return
	}
	var cols []string
	for _, c := range r.cols {
		if t.Has(c) {
			cols = append(cols, c)
		}
	}
	top, err := aggregate.TopN(t, r.metric, n, cols...)
	if err != nil {
		res.Warn("ranking by %s skipped: %v", r.metric, err)
		return
	}
	res.add(Section{Title: fmt.Sprintf("%s (top %d)", r.title, n), Table: top})
}

func preview(t *table.Table, n int) Section {
	return Section{
		Title: "Aperçu des données",
		Text:  fmt.Sprintf("Dimensions : %d lignes × %d colonnes", t.Len(), t.Width()),
		Table: t.Head(n),
	}
}

// distributions adds value-count tables for the available categorical columns, or only col.
func distributions(t *table.Table, categorical []string, col string, res *Result) {
	cols := categorical
	if col != "" {
		if !t.Has(col) {
			res.Warn("distribution skipped: %v: %s", chart.ErrVariableNotFound, col)
			return
		}
		cols = []string{col}
	}
	for _, c := range cols {
		if !t.Has(c) {
			continue
		}
		vc, err := aggregate.ValueCounts(t, c)
		if err != nil || vc.Len() == 0 {
			continue
		}
		res.add(Section{Title: "Distribution de " + c, Table: vc})
	}
}

// buildChart merges page defaults into the chart request. A chart that cannot be built
// leaves a warning and never aborts the page.
func buildChart(t *table.Table, defaults chart.Request, cfg Config, req Request, res *Result) {
	cr := *req.Chart
	if cr.DefaultSize == "" {
		cr.DefaultSize = defaults.DefaultSize
	}
	if cr.Label == "" {
		cr.Label = defaults.Label
	}
	if cr.Color == "" {
		cr.Color = defaults.Color
	}
	if cr.X == "" {
		cr.X = defaults.X
	}
	if cr.Y == "" {
		cr.Y = defaults.Y
	}
	opt := req.ChartOptions
	if cfg.Theme != "" {
		opt.Theme = cfg.Theme
	}
	out, err := chart.New(opt, res.logger).Build(t, cr)
	if err != nil {
		res.ChartErr = err
		res.Warn("chart not built: %v", err)
		return
	}
	res.Chart = out
	res.Warnings = append(res.Warnings, out.Warnings...)
	if out.Rendered() {
		res.Artifacts = append(res.Artifacts, Artifact{
			Name:        "graphique_" + cr.Type.String() + ".html",
			Kind:        "html",
			Description: out.Title,
			Write:       out.Render,
		})
	}
}

func csvArtifact(name, desc string, t *table.Table) Artifact {
	return Artifact{
		Name:        name,
		Kind:        "csv",
		Description: desc,
		Write:       func(w io.Writer) error { return export.CSV(w, t) },
	}
}

// chartDataArtifact exports the columns bound to the chart request.
func chartDataArtifact(t *table.Table, cr *chart.Request) (Artifact, bool) {
	if cr == nil || cr.X == "" || cr.Y == "" || !t.Has(cr.X, cr.Y) {
		return Artifact{}, false
	}
	cols := []string{cr.X, cr.Y}
	if cr.Color != "" && t.Has(cr.Color) && cr.Color != cr.X && cr.Color != cr.Y {
		cols = append(cols, cr.Color)
	}
	sel, err := t.Select(cols...)
	if err != nil {
		return Artifact{}, false
	}
	name := fmt.Sprintf("donnees_analyse_%s_vs_%s.csv", utils.Slug(cr.X), utils.Slug(cr.Y))
	return csvArtifact(name, "variables du graphique", sel), true
}

package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/KaramelBytes/scolaire-cli/internal/aggregate"
	"github.com/KaramelBytes/scolaire-cli/internal/chart"
	"github.com/KaramelBytes/scolaire-cli/internal/table"
	"github.com/KaramelBytes/scolaire-cli/internal/yearsheet"
)

// tableaux splits the 21-column enrolment sheet by school year.
type tableaux struct {
	config Config
}

func tableauxPage() *tableaux {
	return &tableaux{config: Config{Title: "Tableaux Scolaires", Widgets: AllWidgets}}
}

func (p *tableaux) ID() string          { return "tableaux" }
func (p *tableaux) Config() Config      { return p.config }
func (p *tableaux) Description() string { return "Découpage par année scolaire, totaux et classeur formaté" }

func (p *tableaux) Sheet() (SheetRef, bool) { return SheetRef{Index: 1}, true }

var tableauxChart = chart.Request{
	X:     yearsheet.AnaStudents,
	Y:     yearsheet.AnaDP,
	Color: yearsheet.ColMoughataa,
	Label: yearsheet.ColSchool,
}

func (p *tableaux) Render(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Table == nil {
		return nil, fmt.Errorf("page %s needs a %d-column sheet", p.ID(), yearsheet.Columns)
	}
	years, err := yearsheet.Split(req.Table)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", p.ID(), err)
	}
	n := req.Year
	if n == 0 {
		n = 1
	}
	if n < 1 || n > len(years) {
		return nil, fmt.Errorf("year %d out of range 1..%d", n, len(years))
	}
	year := years[n-1]

	cfg := p.config.Merge(req.Config)
	res := &Result{Page: p.ID(), Title: cfg.Title, Source: req.Source, logger: req.logger()}
	data := year.Analysis()
	res.Data = data
	res.logger.Debug("year split", "years", len(years), "selected", n, "schools", year.Totals.Schools)

	if cfg.Enabled(WidgetPreview) {
		res.add(Section{
			Title: "Format attendu",
			Text: fmt.Sprintf("%d colonnes : Région, Moughataa, École, puis %d blocs annuels (Nbre DP, Nbre enseign, Nbre Eleves). L'ordre des colonnes n'est pas vérifié.",
				yearsheet.Columns, yearsheet.Years),
		})
		res.add(Section{Title: "Aperçu " + year.SheetName(), Table: year.Table.Head(req.sampleRows())})
	}
	if cfg.Enabled(WidgetSummary) {
		res.add(Section{Title: "Métriques par année", Table: yearMetrics(years)})
		res.Summary = yearSummary(year)
		res.add(Section{Title: fmt.Sprintf("Statistiques année %d", n), Table: res.Summary.Table()})
	}
	if cfg.Enabled(WidgetGroups) {
		g, err := aggregate.GroupBy(data, yearsheet.ColMoughataa,
			aggregate.Spec{Column: yearsheet.ColSchool, Func: aggregate.Count, As: "Nombre d'écoles"},
			aggregate.Spec{Column: yearsheet.AnaStudents, Func: aggregate.Sum, As: "Total élèves"},
			aggregate.Spec{Column: yearsheet.AnaStaff, Func: aggregate.Sum, As: "Total enseignants"},
			aggregate.Spec{Column: yearsheet.AnaDP, Func: aggregate.Sum, As: "Total DP"},
			aggregate.Spec{Column: yearsheet.AnaRatio, Func: aggregate.Mean, As: "Ratio moyen"},
		)
		if err != nil {
			return nil, err
		}
		res.add(Section{Title: "Par Moughataa", Table: rounded(aggregate.SortDesc(g, "Total élèves"), 1)})
	}
	if cfg.Enabled(WidgetRankings) {
		top, err := aggregate.TopN(data, yearsheet.AnaRatio, req.topN(),
			yearsheet.ColSchool, yearsheet.ColMoughataa, yearsheet.AnaStudents, yearsheet.AnaDP, yearsheet.AnaRatio)
		if err != nil {
			return nil, err
		}
		res.add(Section{Title: fmt.Sprintf("Classement par ratio élèves/DP (top %d)", req.topN()), Table: top})
	}
	if cfg.Enabled(WidgetDistribution) {
		distributions(data, []string{yearsheet.ColMoughataa, yearsheet.ColCommune}, req.Column, res)
	}
	if cfg.Enabled(WidgetChart) && req.Chart != nil {
		buildChart(data, tableauxChart, cfg, req, res)
	}
	if cfg.Enabled(WidgetExport) {
		res.Artifacts = append(res.Artifacts,
			Artifact{
				Name:        yearsheet.WorkbookName,
				Kind:        "xlsx",
				Description: fmt.Sprintf("%d feuilles annuelles avec totaux", len(years)),
				Write:       func(w io.Writer) error { return yearsheet.WriteWorkbook(w, years) },
			},
			csvArtifact(fmt.Sprintf("donnees_analyse_annee_%d.csv", n), "tableau d'analyse trié par ratio",
				aggregate.SortDesc(data, yearsheet.AnaRatio)),
		)
		if a, ok := chartDataArtifact(data, req.Chart); ok {
			res.Artifacts = append(res.Artifacts, a)
		}
	}
	return res, nil
}

// yearMetrics tabulates the totals of every year.
func yearMetrics(years []yearsheet.Year) *table.Table {
	t := table.New("Métriques", "Année", "Moyenne élèves/DP", "Total élèves", "Total enseignants", "Total DP", "Nombre d'écoles")
	for _, y := range years {
		t.Append(table.Str(y.SheetName()),
			table.Num(table.Round1(y.Totals.MeanRatio)),
			table.Num(y.Totals.Students),
			table.Num(y.Totals.Staff),
			table.Num(y.Totals.DP),
			table.Num(float64(y.Totals.Schools)))
	}
	return t
}

func yearSummary(y yearsheet.Year) *aggregate.Summary {
	s := aggregate.NewSummary()
	s.SetNum("Moyenne élèves/DP", table.Round1(y.Totals.MeanRatio))
	s.SetNum("Ratio global élèves/DP", y.Totals.Ratio)
	s.SetNum("Total élèves", y.Totals.Students)
	s.SetNum("Total enseignants", y.Totals.Staff)
	s.SetNum("Total DP", y.Totals.DP)
	s.SetNum("Nombre d'écoles", float64(y.Totals.Schools))
	return s
}

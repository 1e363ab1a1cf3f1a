package pages

import (
	"github.com/KaramelBytes/scolaire-cli/internal/aggregate"
	"github.com/KaramelBytes/scolaire-cli/internal/categorize"
	"github.com/KaramelBytes/scolaire-cli/internal/chart"
	"github.com/KaramelBytes/scolaire-cli/internal/derive"
	"github.com/KaramelBytes/scolaire-cli/internal/normalize"
	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

// Canonical columns of the per-school totals sheet.
const (
	TotRegion          = "Région"
	TotEcole           = "Ecole"
	TotDP              = "Nbre DP total"
	TotEnseignants     = "Nbre enseignants total"
	TotEleves          = "Nbre élèves total"
	TotRatioElevesDP   = "Ratio élèves/DP total"
	TotRatioElevesEns  = "Ratio élèves/enseignants total"
	TotRatioEnsDP      = "Ratio enseignants/DP total"
	TotCharge          = "Charge par enseignant"
	TotEfficaciteDP    = "Efficacité DP"
	TotCategorieTaille = "Catégorie taille"
	TotCategorieRatio  = "Catégorie ratio"
)

var tailleCategories = categorize.Categorizer{
	Source: TotEleves,
	Target: TotCategorieTaille,
	Buckets: []categorize.Bucket{
		{Min: 500, Label: "Très grande (≥500)"},
		{Min: 300, Label: "Grande (300-500)"},
		{Min: 100, Label: "Moyenne (100-300)"},
		categorize.Below("Petite (<100)"),
	},
}

var ratioCategories = categorize.Categorizer{
	Source: TotRatioElevesDP,
	Target: TotCategorieRatio,
	Buckets: []categorize.Bucket{
		{Min: 60, Label: "Très élevé (≥60)"},
		{Min: 40, Label: "Élevé (40-60)"},
		{Min: 20, Label: "Normal (20-40)"},
		categorize.Below("Faible (<20)"),
	},
}

func totauxPage() *schemaPage {
	return &schemaPage{
		id:          "totaux",
		config:      Config{Title: "Analyse des Totaux par École", Widgets: []Widget{WidgetPreview, WidgetSummary, WidgetGroups, WidgetRankings, WidgetDistribution, WidgetChart, WidgetExport}},
		description: "Totaux annuels par école : élèves, enseignants, DP, ratios et catégories",
		sheet:       SheetRef{Name: "Sheet4"},
		rules: []normalize.Rule{
			normalize.Keep(TotRegion),
			normalize.Keep(TotEcole),
			normalize.Contains("Nbre DP", TotDP),
			normalize.Contains("Nbre enseign", TotEnseignants),
			normalize.Contains("Nbre Eleves", TotEleves),
		},
		required: []string{TotEcole},
		numeric:  []string{TotDP, TotEnseignants, TotEleves},
		metrics: []derive.Metric{
			{Name: TotRatioElevesDP, Kind: derive.Ratio, A: TotEleves, B: TotDP},
			{Name: TotRatioElevesEns, Kind: derive.Ratio, A: TotEleves, B: TotEnseignants},
			{Name: TotRatioEnsDP, Kind: derive.Ratio, A: TotEnseignants, B: TotDP},
			{Name: TotCharge, Kind: derive.Ratio, A: TotEleves, B: TotEnseignants},
			{Name: TotEfficaciteDP, Kind: derive.Ratio, A: TotEleves, B: TotDP},
		},
		categories:  []categorize.Categorizer{tailleCategories, ratioCategories},
		categorical: []string{TotCategorieTaille, TotCategorieRatio},
		summarize:   totauxSummary,
		groups:      totauxGroups,
		rankings: []ranking{
			{title: "Classement par nombre d'élèves", metric: TotEleves, cols: []string{TotEcole, TotRegion, TotEleves, TotEnseignants, TotDP, TotRatioElevesDP}},
			{title: "Classement par ratio élèves/DP", metric: TotRatioElevesDP, cols: []string{TotEcole, TotRegion, TotRatioElevesDP, TotEleves, TotDP}},
		},
		chart:      chart.Request{X: TotEleves, Y: TotRatioElevesDP, DefaultSize: TotEleves, Label: TotEcole},
		exportName: "donnees_totaux_ecoles_nettoyees.csv",
	}
}

func totauxSummary(t *table.Table) *aggregate.Summary {
	s := aggregate.NewSummary()
	s.SetNum("Nombre d'écoles", float64(t.Len()))
	s.Add(t, "Nombre de régions", TotRegion, aggregate.Distinct)
	if t.Has(TotEleves) {
		s.Add(t, "Total élèves", TotEleves, aggregate.Sum)
		setRounded(s, t, "Moyenne élèves par école", TotEleves, aggregate.Mean)
		s.Add(t, "Max élèves", TotEleves, aggregate.Max)
		s.Add(t, "Min élèves", TotEleves, aggregate.Min)
	}
	if t.Has(TotEnseignants) {
		s.Add(t, "Total enseignants", TotEnseignants, aggregate.Sum)
		setRounded(s, t, "Moyenne enseignants par école", TotEnseignants, aggregate.Mean)
	}
	if t.Has(TotDP) {
		s.Add(t, "Total DP", TotDP, aggregate.Sum)
		setRounded(s, t, "Moyenne DP par école", TotDP, aggregate.Mean)
	}
	if t.Has(TotRatioElevesDP) {
		setRounded(s, t, "Ratio élèves/DP moyen", TotRatioElevesDP, aggregate.Mean)
		setRounded(s, t, "Ratio élèves/DP max", TotRatioElevesDP, aggregate.Max)
		setRounded(s, t, "Ratio élèves/DP min", TotRatioElevesDP, aggregate.Min)
	}
	if t.Has(TotRatioElevesEns) {
		setRounded(s, t, "Ratio élèves/enseignants moyen", TotRatioElevesEns, aggregate.Mean)
	}
	addCounts(s, t, TotCategorieTaille, "Écoles ")
	addCounts(s, t, TotCategorieRatio, "Ratio ")
	if t.Has(TotRegion, TotEleves) {
		g, err := aggregate.GroupBy(t, TotRegion,
			aggregate.Spec{Column: TotEcole, Func: aggregate.Count},
			aggregate.Spec{Column: TotEleves, Func: aggregate.Sum},
		)
		if err == nil {
			for i := 0; i < g.Len(); i++ {
				region := g.At(i, 0).String()
				s.Set(region+" - Nombre d'écoles", g.At(i, 1))
				s.Set(region+" - Total élèves", g.At(i, 2))
			}
		}
	}
	return s
}

func totauxGroups(t *table.Table) ([]Section, error) {
	var out []Section
	if t.Has(TotRegion) {
		specs := []aggregate.Spec{{Column: TotEcole, Func: aggregate.Count, As: "Nombre d'écoles"}}
		for _, c := range []struct{ col, as string }{
			{TotEleves, "Total élèves"},
			{TotEnseignants, "Total enseignants"},
			{TotDP, "Total DP"},
		} {
			if t.Has(c.col) {
				specs = append(specs, aggregate.Spec{Column: c.col, Func: aggregate.Sum, As: c.as})
			}
		}
		g, err := aggregate.GroupBy(t, TotRegion, specs...)
		if err != nil {
			return nil, err
		}
		if g.Has("Total élèves") {
			g = aggregate.SortDesc(g, "Total élèves")
		}
		out = append(out, Section{Title: "Totaux par région", Table: g})
	}
	if t.Has(TotCategorieTaille, TotEleves) {
		specs := []aggregate.Spec{
			{Column: TotEleves, Func: aggregate.Mean, As: "Élèves moyen"},
			{Column: TotEleves, Func: aggregate.Count, As: "Nombre écoles"},
			{Column: TotEleves, Func: aggregate.Sum, As: "Total élèves"},
		}
		if t.Has(TotRatioElevesDP) {
			specs = append(specs, aggregate.Spec{Column: TotRatioElevesDP, Func: aggregate.Mean, As: "Ratio moyen"})
		}
		g, err := aggregate.GroupBy(t, TotCategorieTaille, specs...)
		if err != nil {
			return nil, err
		}
		out = append(out, Section{Title: "Analyse par catégorie de taille", Table: rounded(g, 1)})
	}
	return out, nil
}

// setRounded stores a one-decimal aggregate.
func setRounded(s *aggregate.Summary, t *table.Table, key, col string, fn aggregate.Func) {
	v := aggregate.Compute(t, col, fn)
	if f, ok := v.Float(); ok {
		v = table.Num(table.Round1(f))
	}
	s.Set(key, v)
}

// addCounts stores the value counts of col under prefix+value.
func addCounts(s *aggregate.Summary, t *table.Table, col, prefix string) {
	if !t.Has(col) {
		return
	}
	vc, err := aggregate.ValueCounts(t, col)
	if err != nil {
		return
	}
	for i := 0; i < vc.Len(); i++ {
		s.Set(prefix+vc.At(i, 0).String(), vc.At(i, 1))
	}
}

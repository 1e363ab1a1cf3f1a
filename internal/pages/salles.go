package pages

import (
	"github.com/KaramelBytes/scolaire-cli/internal/aggregate"
	"github.com/KaramelBytes/scolaire-cli/internal/chart"
	"github.com/KaramelBytes/scolaire-cli/internal/derive"
	"github.com/KaramelBytes/scolaire-cli/internal/normalize"
	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

// Canonical columns of the classroom sheet.
const (
	SalleMoughataa  = "Moughataa"
	SalleEcole      = "Ecole"
	SalleEtat       = "Etat général"
	SalleLongueur   = "Longueur (m)"
	SalleLargeur    = "Largeur (m)"
	SalleSuperficie = "Superficie (m²)"
	SallePorte      = "Etat de la porte"
	SalleFenetres   = "Etat des fenêtres"
	SalleAeration   = "Type d'aération"
	SalleNbFenetres = "Nombre de fenêtres"
	SallePrises     = "Nombre de prises"
	SalleProjection = "Espace projection"
	SalleRehab      = "Réhabilitation nécessaire"
	SalleMobilier   = "Besoins mobilier"
)

var sallesNumeric = []string{SalleLongueur, SalleLargeur, SalleSuperficie, SalleNbFenetres, SallePrises}

var sallesCategorical = []string{SalleEtat, SallePorte, SalleFenetres, SalleAeration, SalleProjection, SalleRehab, SalleMobilier}

func sallesPage() *schemaPage {
	return &schemaPage{
		id:          "salles",
		config:      Config{Title: "Analyse des Salles de Classe", Widgets: []Widget{WidgetPreview, WidgetSummary, WidgetGroups, WidgetDistribution, WidgetChart, WidgetExport}},
		description: "Infrastructure des salles de classe : dimensions, état, équipements",
		sheet:       SheetRef{Name: "Sheet5"},
		rules: []normalize.Rule{
			normalize.Keep(SalleMoughataa),
			normalize.Keep(SalleEcole),
			normalize.Contains("Etat général de la salle", SalleEtat),
			normalize.Contains("Longueur de la salle", SalleLongueur),
			normalize.Contains("Largeur de la salle", SalleLargeur),
			normalize.Contains("La superficie de la salle", SalleSuperficie),
			normalize.Contains("Etat de la porte de la salle est-elle", SallePorte),
			normalize.Contains("La fenêtre est-elle", SalleFenetres),
			normalize.Keep(SalleAeration),
			{Contains: []string{"Fenêtres"}, Canonical: SalleNbFenetres, NumericOnly: true},
			normalize.Contains("Nombre de prises de la salle", SallePrises),
			normalize.Contains("Espace de projection prévu", SalleProjection),
			normalize.Contains("La salle nécessite-t-elle une réhabilitation", SalleRehab),
			normalize.Contains("Besoins en mobilier", SalleMobilier),
		},
		required: []string{SalleMoughataa, SalleEcole},
		numeric:  sallesNumeric,
		metrics: []derive.Metric{
			// only fills the area when the sheet has no area column, unless recomputing
			{Name: SalleSuperficie, Kind: derive.Product, A: SalleLongueur, B: SalleLargeur},
		},
		categorical: sallesCategorical,
		summarize:   sallesSummary,
		groups:      sallesGroups,
		chart:       chart.Request{X: SalleLongueur, Y: SalleLargeur, Label: SalleEcole},
		exportName:  "donnees_salles_classe_nettoyees.csv",
	}
}

func sallesSummary(t *table.Table) *aggregate.Summary {
	s := aggregate.NewSummary()
	s.SetNum("Nombre de salles", float64(t.Len()))
	s.Add(t, "Nombre d'écoles", SalleEcole, aggregate.Distinct)
	s.Add(t, "Nombre de Moughataas", SalleMoughataa, aggregate.Distinct)
	for _, c := range sallesNumeric {
		if !t.Has(c) {
			continue
		}
		for _, fn := range []aggregate.Func{aggregate.Mean, aggregate.Median, aggregate.Min, aggregate.Max} {
			s.Add(t, "", c, fn)
		}
	}
	for _, c := range sallesCategorical {
		if !t.Has(c) {
			continue
		}
		vc, err := aggregate.ValueCounts(t, c)
		if err != nil {
			continue
		}
		for i := 0; i < vc.Len(); i++ {
			s.Set(c+" - "+vc.At(i, 0).String(), vc.At(i, 1))
		}
	}
	return s
}

func sallesGroups(t *table.Table) ([]Section, error) {
	specs := []aggregate.Spec{
		{Column: SalleEcole, Func: aggregate.Count, As: "Nombre de salles"},
		{Column: SalleEcole, Func: aggregate.Distinct, As: "Nombre d'écoles"},
	}
	if t.Has(SalleSuperficie) {
		specs = append(specs, aggregate.Spec{Column: SalleSuperficie, Func: aggregate.Mean, As: "Superficie moyenne (m²)"})
	}
	if t.Has(SallePrises) {
		specs = append(specs, aggregate.Spec{Column: SallePrises, Func: aggregate.Sum, As: "Total prises"})
	}
	g, err := aggregate.GroupBy(t, SalleMoughataa, specs...)
	if err != nil {
		return nil, err
	}
	return []Section{{Title: "Salles par Moughataa", Table: aggregate.SortDesc(g, "Nombre de salles")}}, nil
}

package pages

import (
	"math"

	"github.com/KaramelBytes/scolaire-cli/internal/aggregate"
	"github.com/KaramelBytes/scolaire-cli/internal/categorize"
	"github.com/KaramelBytes/scolaire-cli/internal/chart"
	"github.com/KaramelBytes/scolaire-cli/internal/derive"
	"github.com/KaramelBytes/scolaire-cli/internal/normalize"
	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

// Canonical columns of the room ratio sheet.
const (
	RatRegion          = "Région"
	RatEcole           = "Ecole"
	RatMax             = "Ratio maximum"
	RatMin             = "Ratio minimum"
	RatMoyen           = "Ratio moyen"
	RatStdMoyenMax     = "Écart-type moyen/max"
	RatStdMinMax       = "Écart-type min/max"
	RatTotalSalles     = "Total salles"
	RatNonUtilisees    = "Salles non utilisées"
	RatUtilisees       = "Salles utilisées"
	RatAutresUsages    = "Autres usages"
	RatMotif           = "Motif autre usage"
	RatTaille          = "Taille salle"
	RatTauxUtilisation = "Taux utilisation (%)"
	RatTauxNonUtil     = "Taux non utilisation (%)"
	RatTauxAutres      = "Taux autres usages (%)"
	RatEcart           = "Écart ratio"
	RatCategorie       = "Catégorie utilisation"
)

var (
	ratiosStats = []string{RatMax, RatMin, RatMoyen, RatStdMoyenMax, RatStdMinMax}
	ratiosRooms = []string{RatTotalSalles, RatNonUtilisees, RatUtilisees, RatAutresUsages}
)

var utilisationCategories = categorize.Categorizer{
	Source: RatTauxUtilisation,
	Target: RatCategorie,
	Buckets: []categorize.Bucket{
		{Min: 90, Label: "Très élevé (≥90%)"},
		{Min: 70, Label: "Élevé (70-90%)"},
		{Min: 50, Label: "Moyen (50-70%)"},
		categorize.Below("Faible (<50%)"),
	},
}

func ratiosPage() *schemaPage {
	return &schemaPage{
		id:          "ratios",
		config:      Config{Title: "Ratios et Statistiques des Salles", Widgets: AllWidgets},
		description: "Ratios élèves/salle, taux d'utilisation des salles et écarts par école",
		sheet:       SheetRef{Name: "Sheet3"},
		rules: []normalize.Rule{
			normalize.Keep(RatRegion),
			normalize.Keep(RatEcole),
			normalize.Contains("Ratio maximum approximatif", RatMax),
			normalize.Contains("Ratio minimum approximatif", RatMin),
			normalize.Contains("Écart-type du ratio moyen/max", RatStdMoyenMax),
			normalize.Contains("Écart-type du ratio min/max", RatStdMinMax),
			normalize.Keep(RatMoyen),
			normalize.Contains("Nombre total de salles de classe dans l'école", RatTotalSalles),
			normalize.Contains("Salle de classe non utilisée", RatNonUtilisees),
			normalize.Contains("Salle de classe utilisée", RatUtilisees),
			normalize.Keep(RatMotif),
			normalize.Contains("Autre usage", RatAutresUsages),
			{Contains: []string{"Taille de la salle", "mètres carrés"}, Canonical: RatTaille},
		},
		required: []string{RatEcole},
		numeric:  []string{RatMax, RatMin, RatMoyen, RatStdMoyenMax, RatStdMinMax, RatTotalSalles, RatNonUtilisees, RatUtilisees, RatAutresUsages, RatTaille},
		metrics: []derive.Metric{
			{Name: RatTauxUtilisation, Kind: derive.Percent, A: RatUtilisees, B: RatTotalSalles},
			{Name: RatTauxNonUtil, Kind: derive.Percent, A: RatNonUtilisees, B: RatTotalSalles},
			{Name: RatTauxAutres, Kind: derive.Percent, A: RatAutresUsages, B: RatTotalSalles},
			{Name: RatEcart, Kind: derive.Difference, A: RatMax, B: RatMin},
		},
		categories:  []categorize.Categorizer{utilisationCategories},
		categorical: []string{RatCategorie, RatRegion, RatMotif},
		summarize:   ratiosSummary,
		groups:      ratiosGroups,
		rankings: []ranking{
			{title: "Classement par ratio moyen", metric: RatMoyen, cols: []string{RatEcole, RatRegion, RatMoyen, RatMax, RatMin}},
			{title: "Classement par taux d'utilisation", metric: RatTauxUtilisation, cols: []string{RatEcole, RatRegion, RatTauxUtilisation, RatUtilisees, RatTotalSalles}},
		},
		chart:      chart.Request{X: RatMoyen, Y: RatTauxUtilisation, DefaultSize: RatTotalSalles, Label: RatEcole},
		exportName: "donnees_ratios_salles_nettoyees.csv",
	}
}

func ratiosSummary(t *table.Table) *aggregate.Summary {
	s := aggregate.NewSummary()
	s.SetNum("Nombre d'écoles", float64(t.Len()))
	s.Add(t, "Nombre de régions", RatRegion, aggregate.Distinct)
	for _, c := range ratiosStats {
		if !t.Has(c) {
			continue
		}
		for _, fn := range []aggregate.Func{aggregate.Mean, aggregate.Median, aggregate.Min, aggregate.Max, aggregate.Std} {
			s.Add(t, "", c, fn)
		}
	}
	for _, c := range ratiosRooms {
		if !t.Has(c) {
			continue
		}
		s.Add(t, c+" - Total", c, aggregate.Sum)
		s.Add(t, c+" - Moyenne par école", c, aggregate.Mean)
	}
	if t.Has(RatTauxUtilisation) {
		setRounded(s, t, "Taux utilisation moyen", RatTauxUtilisation, aggregate.Mean)
		if best, ok := extremeRow(t, RatTauxUtilisation, true); ok {
			s.Set("École meilleur taux", t.Get(best, RatEcole))
			s.Set("Meilleur taux (%)", t.Get(best, RatTauxUtilisation))
		}
		if worst, ok := extremeRow(t, RatTauxUtilisation, false); ok {
			s.Set("École plus faible taux", t.Get(worst, RatEcole))
			s.Set("Plus faible taux (%)", t.Get(worst, RatTauxUtilisation))
		}
	}
	addCounts(s, t, RatRegion, "Écoles en ")
	return s
}

// extremeRow returns the first row holding the max (or min) of col.
func extremeRow(t *table.Table, col string, max bool) (int, bool) {
	row, best := -1, math.Inf(1)
	if max {
		best = math.Inf(-1)
	}
	for i := 0; i < t.Len(); i++ {
		f, ok := t.Get(i, col).Float()
		if !ok {
			continue
		}
		if (max && f > best) || (!max && f < best) {
			row, best = i, f
		}
	}
	return row, row >= 0
}

func ratiosGroups(t *table.Table) ([]Section, error) {
	if !t.Has(RatRegion) {
		return nil, nil
	}
	var specs []aggregate.Spec
	if t.Has(RatMoyen) {
		specs = append(specs, aggregate.Spec{Column: RatMoyen, Func: aggregate.Mean, As: "Ratio moyen"})
	}
	if t.Has(RatTauxUtilisation) {
		specs = append(specs, aggregate.Spec{Column: RatTauxUtilisation, Func: aggregate.Mean, As: "Taux utilisation moyen (%)"})
	}
	specs = append(specs, aggregate.Spec{Column: RatEcole, Func: aggregate.Count, As: "Nombre d'écoles"})
	g, err := aggregate.GroupBy(t, RatRegion, specs...)
	if err != nil {
		return nil, err
	}
	return []Section{{Title: "Statistiques par région", Table: rounded(g, 1)}}, nil
}

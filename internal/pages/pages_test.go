package pages

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/scolaire-cli/internal/categorize"
	"github.com/KaramelBytes/scolaire-cli/internal/chart"
	"github.com/KaramelBytes/scolaire-cli/internal/table"
	"github.com/KaramelBytes/scolaire-cli/internal/yearsheet"
)

func rawTotaux() *table.Table {
	t := table.New("Sheet4", "Région", "Ecole", "Nbre DP", "Nbre enseign", "Nbre Eleves")
	t.Append(table.Str("Trarza"), table.Str("A"), table.Num(5), table.Num(10), table.Num(600))
	t.Append(table.Str("Trarza"), table.Str("B"), table.Num(4), table.Num(8), table.Num(150))
	t.Append(table.Str("Adrar"), table.Str("C"), table.Num(0), table.Num(3), table.Num(80))
	return t
}

func rawRatios() *table.Table {
	t := table.New("Sheet3", "Région", "Ecole",
		"Ratio maximum approximatif", "Ratio minimum approximatif", "Ratio moyen",
		"Nombre total de salles de classe dans l'école",
		"Salle de classe non utilisée", "Salle de classe utilisée", "Autre usage")
	t.Append(table.Str("Trarza"), table.Str("A"), table.Num(60), table.Num(20), table.Num(40),
		table.Num(10), table.Num(1), table.Num(9), table.Num(0))
	t.Append(table.Str("Adrar"), table.Str("B"), table.Num(50), table.Num(30), table.Num(35),
		table.Num(0), table.Num(0), table.Num(5), table.Num(0))
	return t
}

func rawSalles() *table.Table {
	t := table.New("Sheet5", "Moughataa", "Ecole", "Etat général de la salle",
		"Longueur de la salle (m)", "Largeur de la salle (m)", "Fenêtres", "Nombre de prises de la salle")
	t.Append(table.Str("Ksar"), table.Str("A"), table.Str("Bon"), table.Num(8), table.Num(6), table.Num(4), table.Num(2))
	t.Append(table.Str("Ksar"), table.Str("A"), table.Str("Mauvais"), table.Num(7), table.Num(5), table.Num(2), table.Str("n/a"))
	t.Append(table.Str("Tevragh Zeina"), table.Str("B"), table.Str("Bon"), table.Num(9), table.Num(6), table.Num(3), table.Num(1))
	return t
}

func rawTableaux() *table.Table {
	h := []string{"Région", "Moughataa", "Ecole"}
	for y := 1; y <= yearsheet.Years; y++ {
		h = append(h, fmt.Sprintf("Nbre DP %d", y), fmt.Sprintf("Nbre enseign %d", y), fmt.Sprintf("Nbre Eleves %d", y))
	}
	t := table.New("Feuil1", h...)
	for _, r := range []struct {
		mough, school       string
		dp, staff, students float64
	}{
		{"Ksar", "A", 5, 5, 100},
		{"Tevragh Zeina", "B", 4, 4, 60},
	} {
		row := []table.Value{table.Str("Nouakchott"), table.Str(r.mough), table.Str(r.school)}
		for y := 0; y < yearsheet.Years; y++ {
			row = append(row, table.Num(r.dp), table.Num(r.staff), table.Num(r.students))
		}
		t.Append(row...)
	}
	return t
}

func render(t *testing.T, id string, req Request) *Result {
	t.Helper()
	p, err := Lookup(id)
	require.NoError(t, err)
	res, err := p.Render(context.Background(), req)
	require.NoError(t, err)
	return res
}

func section(res *Result, prefix string) *Section {
	for i := range res.Sections {
		if strings.HasPrefix(res.Sections[i].Title, prefix) {
			return &res.Sections[i]
		}
	}
	return nil
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"accueil", "tableaux", "salles", "totaux", "ratios"}, IDs())
	assert.Len(t, Registry(), 5)

	p, err := Lookup(" Salles ")
	require.NoError(t, err)
	assert.Equal(t, "salles", p.ID())
	ref, ok := p.Sheet()
	assert.True(t, ok)
	assert.Equal(t, "Sheet5", ref.String())

	_, err = Lookup("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownPage))
	assert.Contains(t, err.Error(), "ratios")
}

func TestNormalizerIdempotent(t *testing.T) {
	cases := map[string]*table.Table{
		"salles": rawSalles(),
		"totaux": rawTotaux(),
		"ratios": rawRatios(),
	}
	for id, raw := range cases {
		t.Run(id, func(t *testing.T) {
			p, err := Lookup(id)
			require.NoError(t, err)
			n := p.(*schemaPage).Normalizer()
			once, _ := n.Apply(raw)
			twice, rep := n.Apply(once)
			assert.Equal(t, once.Columns(), twice.Columns())
			assert.Empty(t, rep.Renamed)
		})
	}
}

func TestRatiosPrecedenceAndZeroTotal(t *testing.T) {
	res := render(t, "ratios", Request{Table: rawRatios()})
	d := res.Data
	require.True(t, d.Has(RatNonUtilisees, RatUtilisees, RatAutresUsages, RatTotalSalles))
	assert.Equal(t, "1", d.Get(0, RatNonUtilisees).String())
	assert.Equal(t, "9", d.Get(0, RatUtilisees).String())

	assert.Equal(t, "90", d.Get(0, RatTauxUtilisation).String())
	assert.Equal(t, "Très élevé (≥90%)", d.Get(0, RatCategorie).String())
	assert.Equal(t, "40", d.Get(0, RatEcart).String())

	// zero rooms: rate is null, never NaN or Inf
	assert.True(t, d.Get(1, RatTauxUtilisation).IsNull())
	assert.Equal(t, categorize.Undefined, d.Get(1, RatCategorie).String())

	best, ok := res.Summary.Get("École meilleur taux")
	require.True(t, ok)
	assert.Equal(t, "A", best.String())
	n, _ := res.Summary.Float("Écoles en Adrar")
	assert.Equal(t, 1.0, n)
	require.NotNil(t, section(res, "Statistiques par région"))
}

func TestTotaux(t *testing.T) {
	res := render(t, "totaux", Request{Table: rawTotaux(), TopN: 2})
	d := res.Data
	assert.Equal(t, "120", d.Get(0, TotRatioElevesDP).String())
	assert.Equal(t, "0", d.Get(2, TotRatioElevesDP).String(), "zero DP gives the ratio sentinel")
	assert.Equal(t, "Très grande (≥500)", d.Get(0, TotCategorieTaille).String())
	assert.Equal(t, "Petite (<100)", d.Get(2, TotCategorieTaille).String())
	assert.Equal(t, "Faible (<20)", d.Get(2, TotCategorieRatio).String())

	for key, want := range map[string]float64{
		"Total élèves":             830,
		"Nombre de régions":        2,
		"Trarza - Total élèves":    750,
		"Trarza - Nombre d'écoles": 2,
		"Écoles Moyenne (100-300)": 1,
		"Moyenne élèves par école": 276.7,
		"Ratio élèves/DP max":      120,
	} {
		got, ok := res.Summary.Float(key)
		require.True(t, ok, key)
		assert.InDelta(t, want, got, 1e-9, key)
	}

	regions := section(res, "Totaux par région")
	require.NotNil(t, regions)
	assert.Equal(t, "Trarza", regions.Table.At(0, 0).String())

	top := section(res, "Classement par nombre d'élèves")
	require.NotNil(t, top)
	assert.Equal(t, 2, top.Table.Len())
	assert.Equal(t, "A", top.Table.Get(0, TotEcole).String())
	assert.Empty(t, res.Warnings)
}

func TestSallesArea(t *testing.T) {
	res := render(t, "salles", Request{Table: rawSalles()})
	d := res.Data
	assert.Equal(t, "48", d.Get(0, SalleSuperficie).String())
	assert.Equal(t, "3", d.Get(2, SalleNbFenetres).String())
	assert.True(t, d.Get(1, SallePrises).IsNull())
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "non-numeric")

	n, _ := res.Summary.Float("Nombre d'écoles")
	assert.Equal(t, 2.0, n)
	bon, _ := res.Summary.Float(SalleEtat + " - Bon")
	assert.Equal(t, 2.0, bon)
}

func TestSallesRecomputeArea(t *testing.T) {
	raw := table.New("Sheet5", "Moughataa", "Ecole", "Longueur de la salle (m)", "Largeur de la salle (m)", "La superficie de la salle")
	raw.Append(table.Str("Ksar"), table.Str("A"), table.Num(8), table.Num(6), table.Num(99))

	kept := render(t, "salles", Request{Table: raw})
	assert.Equal(t, "99", kept.Data.Get(0, SalleSuperficie).String())

	recomputed := render(t, "salles", Request{Table: raw, Recompute: true})
	assert.Equal(t, "48", recomputed.Data.Get(0, SalleSuperficie).String())
}

func TestMissingRequiredColumn(t *testing.T) {
	raw := table.New("Sheet5", "Moughataa", "Longueur de la salle")
	raw.Append(table.Str("Ksar"), table.Num(8))
	p, err := Lookup("salles")
	require.NoError(t, err)
	_, err = p.Render(context.Background(), Request{Table: raw})
	require.Error(t, err)
	assert.True(t, errors.Is(err, table.ErrMissingColumn))
	assert.Contains(t, err.Error(), "Sheet5")
}

func TestTableauxScenario(t *testing.T) {
	res := render(t, "tableaux", Request{Table: rawTableaux()})
	for key, want := range map[string]float64{
		"Total élèves":           160,
		"Total DP":               9,
		"Ratio global élèves/DP": 17.8,
		"Nombre d'écoles":        2,
	} {
		got, ok := res.Summary.Float(key)
		require.True(t, ok, key)
		assert.InDelta(t, want, got, 1e-9, key)
	}
	metrics := section(res, "Métriques par année")
	require.NotNil(t, metrics)
	assert.Equal(t, yearsheet.Years, metrics.Table.Len())

	var names []string
	for _, a := range res.Artifacts {
		names = append(names, a.Name)
	}
	assert.Contains(t, names, yearsheet.WorkbookName)
	assert.Contains(t, names, "donnees_analyse_annee_1.csv")

	var buf bytes.Buffer
	require.NoError(t, res.Artifacts[0].Write(&buf))
	assert.NotZero(t, buf.Len())
}

func TestTableauxErrors(t *testing.T) {
	p, err := Lookup("tableaux")
	require.NoError(t, err)

	_, err = p.Render(context.Background(), Request{Table: rawTableaux(), Year: 7})
	require.Error(t, err)

	narrow := table.New("x", "a", "b")
	_, err = p.Render(context.Background(), Request{Table: narrow})
	require.Error(t, err)
	assert.True(t, errors.Is(err, yearsheet.ErrColumnCount))
}

func TestWidgetsAndChart(t *testing.T) {
	res := render(t, "totaux", Request{
		Table:  rawTotaux(),
		Config: Config{Widgets: []Widget{WidgetSummary, WidgetChart}},
		Chart:  &chart.Request{Type: chart.Bubble, X: TotEleves, Y: TotRatioElevesDP},
	})
	require.Len(t, res.Sections, 1)
	assert.Equal(t, "Statistiques descriptives", res.Sections[0].Title)
	require.True(t, res.Chart.Rendered(), "default size column fills the bubble chart")
	require.Len(t, res.Artifacts, 1)
	assert.Equal(t, "html", res.Artifacts[0].Kind)

	res = render(t, "totaux", Request{
		Table: rawTotaux(),
		Chart: &chart.Request{Type: chart.Scatter, X: "absente", Y: TotEleves},
	})
	require.Error(t, res.ChartErr)
	assert.True(t, errors.Is(res.ChartErr, chart.ErrVariableNotFound))
	assert.NotEmpty(t, res.Warnings)
}

func TestParseWidgets(t *testing.T) {
	ws, err := ParseWidgets([]string{"summary, chart", "export"})
	require.NoError(t, err)
	assert.Equal(t, []Widget{WidgetSummary, WidgetChart, WidgetExport}, ws)

	_, err = ParseWidgets([]string{"bogus"})
	require.Error(t, err)

	cfg := Config{Widgets: ws}
	assert.True(t, cfg.Enabled(WidgetChart))
	assert.False(t, cfg.Enabled(WidgetGroups))
	assert.True(t, Config{}.Enabled(WidgetGroups))
	assert.Equal(t, "X", Config{Title: "A"}.Merge(Config{Title: "X"}).Title)
}

func TestAccueilAndMarkdown(t *testing.T) {
	home := render(t, "accueil", Request{})
	require.Len(t, home.Sections, 1)
	assert.Equal(t, len(IDs()), home.Sections[0].Table.Len())

	res := render(t, "totaux", Request{Table: rawTotaux(), Source: "ecoles.xlsx"})
	var buf bytes.Buffer
	require.NoError(t, res.Markdown(&buf))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# Analyse des Totaux par École\n"))
	assert.Contains(t, out, AppTitle)
	assert.Contains(t, out, "Source : `ecoles.xlsx` (3 lignes")
	assert.Contains(t, out, "## Statistiques descriptives")
	assert.Contains(t, out, "## Exports disponibles")
	assert.Contains(t, out, "donnees_totaux_ecoles_nettoyees.csv")
}

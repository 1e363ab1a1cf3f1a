package chart

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

func schools() *table.Table {
	t := table.New("totaux", "Région", "Ecole", "Nbre élèves total", "Nbre DP total", "Ratio élèves/DP")
	rows := []struct {
		region, school string
		students, dp   float64
	}{
		{"Trarza", "A", 120, 4},
		{"Trarza", "B", 300, 6},
		{"Adrar", "C", 50, 2},
		{"Adrar", "D", 200, 5},
		{"Brakna", "E", 80, 0},
	}
	for _, r := range rows {
		ratio := 0.0
		if r.dp > 0 {
			ratio = table.Round1(r.students / r.dp)
		}
		t.Append(table.Str(r.region), table.Str(r.school), table.Num(r.students), table.Num(r.dp), table.Num(ratio))
	}
	return t
}

func render(t *testing.T, res *Result) string {
	t.Helper()
	require.True(t, res.Rendered(), "warnings: %v", res.Warnings)
	var buf bytes.Buffer
	require.NoError(t, res.Render(&buf))
	return buf.String()
}

func TestEveryTypeRenders(t *testing.T) {
	d := New(Options{Width: "800px", Height: "500px"}, nil)
	src := schools()
	before := src.Records()
	for _, tp := range Types() {
		req := Request{Type: tp, X: "Nbre élèves total", Y: "Nbre DP total", Color: "Région", Label: "Ecole", DefaultSize: "Nbre élèves total"}
		res, err := d.Build(src, req)
		require.NoError(t, err, tp.String())
		html := render(t, res)
		assert.Contains(t, html, "echarts", tp.String())
		assert.NotEmpty(t, res.Title, tp.String())
	}
	assert.Equal(t, before, src.Records(), "charts must not modify the table")
}

func TestParseType(t *testing.T) {
	tp, err := ParseType("Diagramme en barres")
	require.NoError(t, err)
	assert.Equal(t, Bar, tp)

	tp, err = ParseType(" HEATMAP ")
	require.NoError(t, err)
	assert.Equal(t, Heatmap, tp)

	_, err = ParseType("sankey")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownType))
	assert.Equal(t, "Graphique à bulles", Bubble.Label())
}

func TestMissingVariable(t *testing.T) {
	d := New(Options{}, nil)
	_, err := d.Build(schools(), Request{Type: Scatter, X: "Nbre élèves total", Y: "Inconnue"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVariableNotFound))
	assert.Contains(t, err.Error(), "variable not found: Inconnue")

	_, err = d.Build(schools(), Request{Type: Pie, X: "Région", Filter: &Filter{Column: "Zone", Values: []string{"x"}}})
	require.ErrorIs(t, err, ErrVariableNotFound)

	_, err = d.Build(schools(), Request{Type: Scatter, X: "Nbre élèves total"})
	require.Error(t, err, "scatter without y")
}

func TestHeatmapNeedsTwoNumericColumns(t *testing.T) {
	src := table.New("s", "Ecole", "n")
	src.Append(table.Str("A"), table.Num(1))
	src.Append(table.Str("B"), table.Num(2))

	res, err := New(Options{}, nil).Build(src, Request{Type: Heatmap})
	require.NoError(t, err)
	assert.False(t, res.Rendered())
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "not enough numeric variables")
}

func TestHeatmapIgnoresXY(t *testing.T) {
	res, err := New(Options{}, nil).Build(schools(), Request{Type: Heatmap, X: "Région"})
	require.NoError(t, err)
	html := render(t, res)
	assert.Contains(t, html, "Ratio élèves/DP")
}

func TestBubbleWithoutSize(t *testing.T) {
	src, err := schools().Select("Région", "Ecole", "Nbre DP total", "Ratio élèves/DP")
	require.NoError(t, err)
	res, err := New(Options{}, nil).Build(src, Request{Type: Bubble, X: "Nbre DP total", Y: "Ratio élèves/DP", DefaultSize: "Nbre élèves total"})
	require.NoError(t, err)
	assert.False(t, res.Rendered())
	assert.NotEmpty(t, res.Warnings)
}

func TestTreemapAndRadarNeedColor(t *testing.T) {
	d := New(Options{}, nil)
	for _, tp := range []Type{Treemap, Radar} {
		res, err := d.Build(schools(), Request{Type: tp, X: "Nbre élèves total", Y: "Nbre DP total"})
		require.NoError(t, err)
		assert.False(t, res.Rendered(), tp.String())
		assert.Len(t, res.Warnings, 1, tp.String())
	}
}

func TestBarWithColorIsDualAxis(t *testing.T) {
	res, err := New(Options{}, nil).Build(schools(), Request{Type: Bar, X: "Nbre élèves total", Y: "Ratio élèves/DP", Color: "Région"})
	require.NoError(t, err)
	html := render(t, res)
	assert.Contains(t, html, `"type":"line"`)
	assert.Contains(t, html, `"yAxisIndex":1`)
	// Trarza mean students = (120+300)/2
	assert.Contains(t, html, "210")
	assert.Equal(t, "Moyenne de Nbre élèves total et Ratio élèves/DP par Région", res.Title)
}

func TestFilterAppliesBeforeCharting(t *testing.T) {
	res, err := New(Options{}, nil).Build(schools(), Request{
		Type:   Pie,
		X:      "Région",
		Filter: &Filter{Column: "Région", Values: []string{"Adrar"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)
	html := render(t, res)
	assert.Contains(t, html, "Adrar")
	assert.NotContains(t, html, "Trarza")
}

func TestHistogramBins(t *testing.T) {
	lo, width := binEdges([]float64{0, 100})
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 5.0, width)
	assert.Equal(t, 0, binOf(0, lo, width))
	assert.Equal(t, HistogramBins-1, binOf(100, lo, width))
	assert.Equal(t, 10, binOf(50, lo, width))

	_, width = binEdges([]float64{7, 7})
	assert.Equal(t, 1.0, width)
}

func TestFiveNumbers(t *testing.T) {
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, fiveNumbers([]float64{5, 1, 4, 2, 3}))
}

package chart

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/scolaire-cli/internal/aggregate"
	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

// HistogramBins is the fixed bin count of histograms.
const HistogramBins = 20

const (
	minSymbol    = 6
	maxSymbol    = 30
	maxBubble    = 60
	barColor     = "#3B82F6"
	lineColor    = "#EF4444"
	pointColor   = "#6B7280"
	noGroupLabel = "Toutes"
)

var divergingColors = []string{"#b2182b", "#ef8a62", "#fddbc7", "#f7f7f7", "#d1e5f0", "#67a9cf", "#2166ac"}

type builder struct {
	d   *Dispatcher
	t   *table.Table
	req Request
	res *Result
}

func (b *builder) global() []charts.GlobalOpts {
	o := b.d.Options
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  b.res.Title,
			Theme:      o.Theme,
			Width:      o.Width,
			Height:     o.Height,
			AssetsHost: o.AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{Title: b.res.Title, Subtitle: fmt.Sprintf("n=%d", b.t.Len())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	}
}

// group is a set of row indices sharing one color value.
type group struct {
	name string
	rows []int
}

// groups splits rows by the color column in first-appearance order. Unbound color gives one group.
// Rows with a null color are dropped.
func (b *builder) groups() []group {
	if b.req.Color == "" {
		all := group{name: noGroupLabel}
		for i := 0; i < b.t.Len(); i++ {
			all.rows = append(all.rows, i)
		}
		return []group{all}
	}
	var out []group
	pos := map[string]int{}
	for i := 0; i < b.t.Len(); i++ {
		v := b.t.Get(i, b.req.Color)
		if v.IsNull() {
			continue
		}
		k := v.String()
		p, ok := pos[k]
		if !ok {
			p = len(out)
			pos[k] = p
			out = append(out, group{name: k})
		}
		out[p].rows = append(out[p].rows, i)
	}
	return out
}

func (b *builder) floats(col string, rows []int) []float64 {
	out := make([]float64, 0, len(rows))
	for _, i := range rows {
		if f, ok := b.t.Get(i, col).Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

func (b *builder) mean(col string, rows []int) float64 {
	xs := b.floats(col, rows)
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

func (b *builder) label(i int) string {
	if b.req.Label != "" && b.t.Has(b.req.Label) {
		if v := b.t.Get(i, b.req.Label); !v.IsNull() {
			return v.String()
		}
	}
	return fmt.Sprintf("#%d", i+1)
}

// sizeColumn resolves the size binding: explicit first, then the page default when present.
func (b *builder) sizeColumn() string {
	if b.req.Size != "" {
		return b.req.Size
	}
	if b.req.DefaultSize != "" && b.t.Has(b.req.DefaultSize) {
		return b.req.DefaultSize
	}
	return ""
}

func scaler(vals []float64, lo, hi int) func(float64) int {
	if len(vals) == 0 {
		return func(float64) int { return lo }
	}
	mn, mx := floats.Min(vals), floats.Max(vals)
	return func(v float64) int {
		if mx <= mn {
			return (lo + hi) / 2
		}
		return lo + int(math.Round((v-mn)/(mx-mn)*float64(hi-lo)))
	}
}

func (b *builder) scatter(bubble bool) error {
	size := b.sizeColumn()
	if bubble && size == "" {
		b.res.warn("bubble chart needs a size column; set one explicitly or load a sheet with %q", b.req.DefaultSize)
		return nil
	}
	hi := maxSymbol
	if bubble {
		hi = maxBubble
	}
	var scale func(float64) int
	if size != "" {
		all := make([]int, b.t.Len())
		for i := range all {
			all[i] = i
		}
		scale = scaler(b.floats(size, all), minSymbol, hi)
	}

	sc := charts.NewScatter()
	sc.SetGlobalOptions(append(b.global(),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: b.req.X, NameLocation: "middle", NameGap: 25, Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: b.req.Y, NameLocation: "middle", NameGap: 40, Scale: opts.Bool(true)}),
	)...)
	points := 0
	for _, g := range b.groups() {
		data := make([]opts.ScatterData, 0, len(g.rows))
		for _, i := range g.rows {
			x, okx := b.t.Get(i, b.req.X).Float()
			y, oky := b.t.Get(i, b.req.Y).Float()
			if !okx || !oky {
				continue
			}
			pt := opts.ScatterData{Name: b.label(i), Value: []interface{}{x, y}, SymbolSize: minSymbol + 2}
			if scale != nil {
				if s, ok := b.t.Get(i, size).Float(); ok {
					pt.SymbolSize = scale(s)
				} else if bubble {
					continue
				}
			}
			data = append(data, pt)
		}
		points += len(data)
		sc.AddSeries(g.name, data)
	}
	if points == 0 {
		b.res.warn("no rows with numeric %s and %s", b.req.X, b.req.Y)
		return nil
	}
	b.res.Chart = sc
	return nil
}

// binEdges splits [min, max] into HistogramBins equal bins.
func binEdges(vals []float64) (lo, width float64) {
	lo, hi := floats.Min(vals), floats.Max(vals)
	width = (hi - lo) / HistogramBins
	if width == 0 {
		width = 1
	}
	return lo, width
}

func binOf(v, lo, width float64) int {
	k := int((v - lo) / width)
	if k >= HistogramBins {
		k = HistogramBins - 1
	}
	if k < 0 {
		k = 0
	}
	return k
}

func (b *builder) histogram() error {
	all := make([]int, b.t.Len())
	for i := range all {
		all[i] = i
	}
	vals := b.floats(b.req.X, all)
	if len(vals) == 0 {
		b.res.warn("%s has no numeric values", b.req.X)
		return nil
	}
	lo, width := binEdges(vals)
	labels := make([]string, HistogramBins)
	for k := range labels {
		labels[k] = fmt.Sprintf("%s–%s", table.Num(lo+float64(k)*width).Format(1), table.Num(lo+float64(k+1)*width).Format(1))
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(append(b.global(),
		charts.WithXAxisOpts(opts.XAxis{Name: b.req.X, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Nombre d'écoles"}),
	)...)
	bar.SetXAxis(labels)
	for _, g := range b.groups() {
		counts := make([]int, HistogramBins)
		for _, v := range b.floats(b.req.X, g.rows) {
			counts[binOf(v, lo, width)]++
		}
		data := make([]opts.BarData, HistogramBins)
		for k, c := range counts {
			data[k] = opts.BarData{Name: labels[k], Value: c}
		}
		bar.AddSeries(g.name, data, charts.WithBarChartOpts(opts.BarChart{Stack: "histogram"}))
	}
	b.res.Chart = bar
	return nil
}

func (b *builder) bar() error {
	if b.req.Color == "" {
		return b.simpleBar()
	}
	gs := b.groups()
	if len(gs) == 0 {
		b.res.warn("%s has no values to group by", b.req.Color)
		return nil
	}
	names := make([]string, len(gs))
	xs := make([]opts.BarData, len(gs))
	ys := make([]opts.LineData, len(gs))
	for k, g := range gs {
		names[k] = g.name
		xs[k] = opts.BarData{Name: g.name, Value: table.Round1(b.mean(b.req.X, g.rows))}
		ys[k] = opts.LineData{Name: g.name, Value: table.Round1(b.mean(b.req.Y, g.rows))}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(append(b.global(),
		charts.WithXAxisOpts(opts.XAxis{Name: b.req.Color, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: b.req.X}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)...)
	bar.ExtendYAxis(opts.YAxis{Name: b.req.Y, Position: "right"})
	bar.SetXAxis(names).
		AddSeries(b.req.X, xs, charts.WithItemStyleOpts(opts.ItemStyle{Color: barColor}))

	line := charts.NewLine()
	line.SetXAxis(names).
		AddSeries(b.req.Y, ys,
			charts.WithLineChartOpts(opts.LineChart{YAxisIndex: 1}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: lineColor}),
			charts.WithLineStyleOpts(opts.LineStyle{Width: 3}),
		)
	bar.Overlap(line)
	b.res.Chart = bar
	return nil
}

func (b *builder) simpleBar() error {
	var cats []string
	var data []opts.BarData
	for i := 0; i < b.t.Len(); i++ {
		x := b.t.Get(i, b.req.X)
		y, ok := b.t.Get(i, b.req.Y).Float()
		if x.IsNull() || !ok {
			continue
		}
		cats = append(cats, x.String())
		data = append(data, opts.BarData{Name: x.String(), Value: y})
	}
	if len(data) == 0 {
		b.res.warn("no rows with %s and numeric %s", b.req.X, b.req.Y)
		return nil
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(append(b.global(),
		charts.WithXAxisOpts(opts.XAxis{Name: b.req.X, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: b.req.Y}),
	)...)
	bar.SetXAxis(cats).AddSeries(b.req.Y, data)
	b.res.Chart = bar
	return nil
}

// fiveNumbers returns min, Q1, median, Q3, max.
func fiveNumbers(vals []float64) []float64 {
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	return []float64{
		s[0],
		table.Round1(aggregate.Quantile(s, 0.25)),
		table.Round1(aggregate.Quantile(s, 0.5)),
		table.Round1(aggregate.Quantile(s, 0.75)),
		s[len(s)-1],
	}
}

// box renders one box per color group. withPoints overlays the raw values (violin rendering).
func (b *builder) box(withPoints bool) error {
	var names []string
	var boxes []opts.BoxPlotData
	var points []opts.ScatterData
	for _, g := range b.groups() {
		vals := b.floats(b.req.X, g.rows)
		if len(vals) == 0 {
			continue
		}
		names = append(names, g.name)
		boxes = append(boxes, opts.BoxPlotData{Name: g.name, Value: fiveNumbers(vals)})
		for _, i := range g.rows {
			if v, ok := b.t.Get(i, b.req.X).Float(); ok {
				points = append(points, opts.ScatterData{Name: b.label(i), Value: []interface{}{g.name, v}, SymbolSize: 5})
			}
		}
	}
	if len(boxes) == 0 {
		b.res.warn("%s has no numeric values", b.req.X)
		return nil
	}
	xName := b.req.Color
	bp := charts.NewBoxPlot()
	bp.SetGlobalOptions(append(b.global(),
		charts.WithXAxisOpts(opts.XAxis{Name: xName, NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: b.req.X, Scale: opts.Bool(true)}),
	)...)
	bp.SetXAxis(names).AddSeries(b.req.X, boxes)
	if withPoints {
		sc := charts.NewScatter()
		sc.SetXAxis(names).AddSeries("valeurs", points, charts.WithItemStyleOpts(opts.ItemStyle{Color: pointColor, Opacity: opts.Float(0.6)}))
		bp.Overlap(sc)
	}
	b.res.Chart = bp
	return nil
}

func (b *builder) heatmap() error {
	cols := b.t.NumericColumns()
	if len(cols) < 2 {
		b.res.warn("not enough numeric variables for a heatmap (found %d, need 2)", len(cols))
		return nil
	}
	m := aggregate.Correlation(b.t, cols)
	data := make([]opts.HeatMapData, 0, len(cols)*len(cols))
	for i := range cols {
		for j := range cols {
			v := math.Round(m.Values[i][j]*100) / 100
			data = append(data, opts.HeatMapData{Value: [3]interface{}{i, j, v}})
		}
	}
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(append(b.global(),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: cols, AxisLabel: &opts.AxisLabel{Rotate: 30}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: cols}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        -1,
			Max:        1,
			InRange:    &opts.VisualMapInRange{Color: divergingColors},
		}),
	)...)
	hm.SetXAxis(cols).AddSeries("corrélation", data, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}))
	b.res.Chart = hm
	return nil
}

func (b *builder) pie() error {
	counts, err := aggregate.ValueCounts(b.t, b.req.X)
	if err != nil {
		return err
	}
	if counts.Len() == 0 {
		b.res.warn("%s has no values", b.req.X)
		return nil
	}
	data := make([]opts.PieData, counts.Len())
	for i := range data {
		n, _ := counts.Get(i, aggregate.CountColumn).Float()
		data[i] = opts.PieData{Name: counts.At(i, 0).String(), Value: int(n)}
	}
	pie := charts.NewPie()
	pie.SetGlobalOptions(b.global()...)
	pie.AddSeries(b.req.X, data, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}))
	b.res.Chart = pie
	return nil
}

func (b *builder) treemap() error {
	if b.req.Color == "" {
		b.res.warn("treemap needs a color variable to build the hierarchy")
		return nil
	}
	var nodes []opts.TreeMapNode
	for _, g := range b.groups() {
		parent := opts.TreeMapNode{Name: g.name}
		for _, i := range g.rows {
			v, ok := b.t.Get(i, b.req.X).Float()
			if !ok || v <= 0 {
				continue
			}
			n := int(math.Round(v))
			parent.Children = append(parent.Children, opts.TreeMapNode{Name: b.label(i), Value: n})
			parent.Value += n
		}
		if len(parent.Children) > 0 {
			nodes = append(nodes, parent)
		}
	}
	if len(nodes) == 0 {
		b.res.warn("%s has no positive values", b.req.X)
		return nil
	}
	tm := charts.NewTreeMap()
	tm.SetGlobalOptions(b.global()...)
	tm.AddSeries(b.req.X, nodes, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}))
	b.res.Chart = tm
	return nil
}

func (b *builder) radar() error {
	if b.req.Color == "" {
		b.res.warn("radar chart needs a color variable for its axes")
		return nil
	}
	gs := b.groups()
	if len(gs) == 0 {
		b.res.warn("%s has no values", b.req.Color)
		return nil
	}
	xs := make([]float64, len(gs))
	ys := make([]float64, len(gs))
	for k, g := range gs {
		xs[k] = table.Round1(b.mean(b.req.X, g.rows))
		ys[k] = table.Round1(b.mean(b.req.Y, g.rows))
	}
	top := math.Max(floats.Max(xs), floats.Max(ys)) * 1.1
	if top <= 0 {
		top = 1
	}
	indicators := make([]*opts.Indicator, len(gs))
	for k, g := range gs {
		indicators[k] = &opts.Indicator{Name: g.name, Max: float32(top)}
	}
	rd := charts.NewRadar()
	rd.SetGlobalOptions(append(b.global(),
		charts.WithRadarComponentOpts(opts.RadarComponent{Indicator: indicators, Shape: "polygon"}),
	)...)
	rd.AddSeries(b.req.X, []opts.RadarData{{Name: b.req.X, Value: xs}}).
		AddSeries(b.req.Y, []opts.RadarData{{Name: b.req.Y, Value: ys}})
	b.res.Chart = rd
	return nil
}

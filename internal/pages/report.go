package pages

import (
	"fmt"
	"io"
	"math"

	"github.com/KaramelBytes/scolaire-cli/internal/export"
	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

// Markdown writes the report.
func (r *Result) Markdown(w io.Writer) error {
	p := &printer{w: w}
	p.printf("# %s\n\n", r.Title)
	p.printf("_%s_\n\n", AppTitle)
	if r.Source != "" {
		p.printf("Source : `%s`", r.Source)
		if r.Data != nil {
			p.printf(" (%d lignes × %d colonnes)", r.Data.Len(), r.Data.Width())
		}
		p.printf("\n\n")
	}
	if len(r.Warnings) > 0 {
		p.printf("## Avertissements\n\n")
		for _, warn := range r.Warnings {
			p.printf("- ⚠ %s\n", warn)
		}
		p.printf("\n")
	}
	for _, s := range r.Sections {
		p.printf("## %s\n\n", s.Title)
		if s.Text != "" {
			p.printf("%s\n\n", s.Text)
		}
		if s.Table != nil && p.err == nil {
			p.err = export.Markdown(w, rounded(s.Table, 2))
			p.printf("\n")
		}
	}
	if r.Chart.Rendered() {
		p.printf("## Graphique\n\n%s (%s, %d lignes)\n\n", r.Chart.Title, r.Chart.Type.Label(), r.Chart.Rows)
	}
	if len(r.Artifacts) > 0 {
		p.printf("## Exports disponibles\n\n")
		for _, a := range r.Artifacts {
			p.printf("- `%s` (%s) %s\n", a.Name, a.Kind, a.Description)
		}
		p.printf("\n")
	}
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// rounded returns a display copy of t with numbers rounded to prec decimals.
func rounded(t *table.Table, prec int) *table.Table {
	scale := math.Pow(10, float64(prec))
	out := t.Clone()
	for _, c := range out.Columns() {
		vals, _ := out.Column(c)
		changed := false
		for i, v := range vals {
			if f, ok := v.Float(); ok {
				vals[i] = table.Num(math.Round(f*scale) / scale)
				changed = true
			}
		}
		if changed {
			_ = out.SetColumn(c, vals)
		}
	}
	return out
}

package pages

import (
	"context"
	"strings"

	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

// accueil is the home page: a directory of the other pages.
type accueil struct{}

func (accueil) ID() string              { return "accueil" }
func (accueil) Config() Config          { return Config{Title: "Accueil"} }
func (accueil) Description() string     { return "Liste des pages et des feuilles attendues" }
func (accueil) Sheet() (SheetRef, bool) { return SheetRef{}, false }

func (a accueil) Render(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := a.Config().Merge(req.Config)
	res := &Result{Page: a.ID(), Title: cfg.Title, logger: req.logger()}
	res.add(Section{
		Title: "Pages disponibles",
		Text:  "Chaque page lit une feuille de classeur à la structure fixe.",
		Table: Directory(),
	})
	return res, nil
}

// Directory lists every page with its sheet and widgets, in menu order.
func Directory() *table.Table {
	t := table.New("Pages", "Page", "Titre", "Feuille", "Widgets", "Description")
	for _, id := range order {
		p := registry[id]
		sheet := "aucune"
		if ref, ok := p.Sheet(); ok {
			sheet = ref.String()
		}
		cfg := p.Config()
		widgets := "aucun"
		if len(cfg.Widgets) > 0 {
			ws := make([]string, len(cfg.Widgets))
			for i, w := range cfg.Widgets {
				ws[i] = string(w)
			}
			widgets = strings.Join(ws, ", ")
		}
		t.Append(table.Str(id), table.Str(cfg.Title), table.Str(sheet), table.Str(widgets), table.Str(p.Description()))
	}
	return t
}

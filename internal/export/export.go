// Package export renders tables to the console, Markdown, CSV, JSON and XLSX.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	pretty "github.com/jedib0t/go-pretty/v6/table"

	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

// Format is an output encoding for a table.
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "md"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatXLSX     Format = "xlsx"
)

// ParseFormat maps user input to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table", "text":
		return FormatTable, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported format %q (use table, md, csv, json or xlsx)", s)
}

// Write renders t in the given format.
func Write(w io.Writer, t *table.Table, f Format) error {
	switch f {
	case FormatTable:
		return Console(w, t)
	case FormatMarkdown:
		return Markdown(w, t)
	case FormatCSV:
		return CSV(w, t)
	case FormatJSON:
		return JSON(w, t)
	case FormatXLSX:
		return XLSX(w, t, t.Name)
	}
	return fmt.Errorf("unsupported format %q", f)
}

func newWriter(t *table.Table) pretty.Writer {
	tw := pretty.NewWriter()
	header := make(pretty.Row, t.Width())
	for i, c := range t.Columns() {
		header[i] = c
	}
	tw.AppendHeader(header)
	for i := 0; i < t.Len(); i++ {
		row := make(pretty.Row, t.Width())
		for j := range row {
			row[j] = t.At(i, j).String()
		}
		tw.AppendRow(row)
	}
	return tw
}

// Console draws a boxed terminal table followed by the row count.
func Console(w io.Writer, t *table.Table) error {
	if t.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}
	tw := newWriter(t)
	tw.SetOutputMirror(w)
	tw.SetStyle(pretty.StyleLight)
	tw.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", t.Len())
	return nil
}

// Markdown writes a GitHub-flavored Markdown table.
func Markdown(w io.Writer, t *table.Table) error {
	if t.Len() == 0 {
		_, err := fmt.Fprintln(w, "_(aucune ligne)_")
		return err
	}
	_, err := fmt.Fprintln(w, newWriter(t).RenderMarkdown())
	return err
}

// CSV writes UTF-8 CSV with a header row. Nulls are empty fields.
func CSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// JSON writes an array of row objects. Numbers stay numbers and nulls are null.
func JSON(w io.Writer, t *table.Table) error {
	cols := t.Columns()
	out := make([]map[string]any, t.Len())
	for i := range out {
		row := make(map[string]any, len(cols))
		for j, c := range cols {
			v := t.At(i, j)
			switch v.Kind() {
			case table.Number:
				f, _ := v.Float()
				row[c] = f
			case table.Text:
				row[c] = v.String()
			default:
				row[c] = nil
			}
		}
		out[i] = row
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

package export

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

const maxSheetName = 31

// SheetName makes s usable as a worksheet name.
func SheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return "Données"
	}
	for utf8.RuneCountInString(s) > maxSheetName {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s
}

// XLSX writes t as a single-sheet workbook with a bold header row.
func XLSX(w io.Writer, t *table.Table, sheet string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet = SheetName(sheet)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	header := make([]interface{}, t.Width())
	for i, c := range t.Columns() {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F4E78"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if t.Width() > 0 {
		last, _ := excelize.ColumnNumberToName(t.Width())
		if err := f.SetCellStyle(sheet, "A1", last+"1", style); err != nil {
			return err
		}
	}

	for i := 0; i < t.Len(); i++ {
		for j := 0; j < t.Width(); j++ {
			v := t.At(i, j)
			if v.IsNull() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if n, ok := v.Float(); ok {
				err = f.SetCellValue(sheet, cell, n)
			} else {
				err = f.SetCellValue(sheet, cell, v.String())
			}
			if err != nil {
				return err
			}
		}
	}
	for j, c := range t.Columns() {
		name, _ := excelize.ColumnNumberToName(j + 1)
		width := float64(utf8.RuneCountInString(c)) + 4
		if width < 10 {
			width = 10
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	return f.Write(w)
}

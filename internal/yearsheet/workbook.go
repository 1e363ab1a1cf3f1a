package yearsheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

// WorkbookName is the default file name of the split output.
const WorkbookName = "Tableaux_Scolaires_Par_Annee.xlsx"

var columnWidths = []struct {
	col   string
	width float64
}{
	{"A", 30}, {"B", 15}, {"C", 20}, {"D", 12}, {"E", 15}, {"F", 12}, {"G", 20},
}

type styles struct {
	header, text, number, totalText, totalNumber int
}

func thinBorders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F4E78"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	}); err != nil {
		return s, err
	}
	if s.text, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		Border:    thinBorders(),
	}); err != nil {
		return s, err
	}
	if s.number, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	}); err != nil {
		return s, err
	}
	if s.totalText, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		Border:    thinBorders(),
	}); err != nil {
		return s, err
	}
	s.totalNumber, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"F2F2F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	return s, err
}

// WriteWorkbook writes one formatted sheet per year.
func WriteWorkbook(w io.Writer, years []Year) error {
	if len(years) == 0 {
		return fmt.Errorf("no year tables to write")
	}
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("failed to create styles: %w", err)
	}
	for i, y := range years {
		name := y.SheetName()
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}
		if err := writeSheet(f, name, y.Table, st); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", name, err)
		}
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet string, t *table.Table, st styles) error {
	header := make([]interface{}, 0, t.Width())
	for _, c := range t.Columns() {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last := t.Width()
	lastCol, _ := excelize.ColumnNumberToName(last)
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", st.header); err != nil {
		return err
	}

	for i := 0; i < t.Len(); i++ {
		rowNum := i + 2
		total := i == t.Len()-1
		for j := 0; j < last; j++ {
			cell, err := excelize.CoordinatesToCellName(j+1, rowNum)
			if err != nil {
				return err
			}
			v := t.At(i, j)
			if f64, ok := v.Float(); ok {
				err = f.SetCellValue(sheet, cell, f64)
			} else if !v.IsNull() {
				err = f.SetCellValue(sheet, cell, v.String())
			}
			if err != nil {
				return err
			}
			style := st.number
			switch {
			case j < IdentityColumns && total:
				style = st.totalText
			case j < IdentityColumns:
				style = st.text
			case total:
				style = st.totalNumber
			}
			if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
				return err
			}
		}
	}

	for _, cw := range columnWidths {
		if err := f.SetColWidth(sheet, cw.col, cw.col, cw.width); err != nil {
			return err
		}
	}
	return nil
}

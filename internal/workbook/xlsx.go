package workbook

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm")
}

func (xlsxLoader) Load(path string, opt Options) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	return fromExcelize(filepath.Base(path), f, opt), nil
}

func loadXLSX(name string, r io.Reader, opt Options) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	return fromExcelize(name, f, opt), nil
}

func fromExcelize(name string, f *excelize.File, opt Options) *Workbook {
	// Raw cell values always write decimals with '.', whatever the locale of the file or the
	// CSV separator setting. Text-typed cells still get per-value detection.
	opt.Parse = table.ParseOptions{}
	return &Workbook{
		Name:   name,
		sheets: f.GetSheetList(),
		rows: func(sheet string) ([][]string, error) {
			// raw values keep numbers unformatted ("1234.5" rather than "1,234.50")
			return f.GetRows(sheet, excelize.Options{RawCellValue: true})
		},
		close: f.Close,
		opt:   opt,
	}
}

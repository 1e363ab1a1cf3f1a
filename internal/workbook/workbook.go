// Package workbook loads spreadsheet files into tables, one table per worksheet.
package workbook

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

var (
	// ErrSheetNotFound is returned when a requested worksheet does not exist.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrUnsupported indicates a file format no loader accepts.
	ErrUnsupported = errors.New("unsupported workbook format")
)

// Options controls how sheets are read.
type Options struct {
	// Delimiter for CSV. If 0, sniffed from the file name and first line.
	Delimiter rune
	// Parse controls numeric parsing of cells.
	Parse table.ParseOptions
	// MaxRows limits data rows per sheet; 0 means unlimited.
	MaxRows int
	Logger  *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// Workbook is an opened spreadsheet. Sheets are materialized on demand.
type Workbook struct {
	Name   string
	sheets []string
	rows   func(sheet string) ([][]string, error)
	close  func() error
	opt    Options
}

// Loader opens one family of file formats.
type Loader interface {
	CanLoad(filename string) bool
	Load(path string, opt Options) (*Workbook, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(xlsxLoader{})
	Register(csvLoader{})
}

// Open selects a loader based on the file name.
func Open(path string, opt Options) (*Workbook, error) {
	for _, l := range registry {
		if l.CanLoad(path) {
			wb, err := l.Load(path, opt)
			if err != nil {
				return nil, err
			}
			opt.logger().Debug("workbook opened", "file", wb.Name, "sheets", len(wb.sheets))
			return wb, nil
		}
	}
	return nil, fmt.Errorf("%w: %s (expected .xlsx, .csv or .tsv)", ErrUnsupported, filepath.Base(path))
}

// Sheets lists worksheet names in workbook order.
func (w *Workbook) Sheets() []string {
	out := make([]string, len(w.sheets))
	copy(out, w.sheets)
	return out
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	if w.close == nil {
		return nil
	}
	return w.close()
}

// Sheet loads a worksheet by name (case-insensitive).
func (w *Workbook) Sheet(name string) (*table.Table, error) {
	for _, s := range w.sheets {
		if strings.EqualFold(s, name) {
			return w.load(s)
		}
	}
	return nil, fmt.Errorf("%w: '%s' in workbook '%s'.\nAvailable sheets: %s",
		ErrSheetNotFound, name, w.Name, strings.Join(w.sheets, ", "))
}

// SheetAt loads a worksheet by 1-based position.
func (w *Workbook) SheetAt(index int) (*table.Table, error) {
	if index < 1 || index > len(w.sheets) {
		return nil, fmt.Errorf("%w: index %d in workbook '%s' (it has %d sheets: %s)",
			ErrSheetNotFound, index, w.Name, len(w.sheets), strings.Join(w.sheets, ", "))
	}
	return w.load(w.sheets[index-1])
}

// Select loads by name when given, otherwise by 1-based index (first sheet when index <= 0).
func (w *Workbook) Select(name string, index int) (*table.Table, error) {
	if name != "" {
		return w.Sheet(name)
	}
	if index <= 0 {
		index = 1
	}
	return w.SheetAt(index)
}

func (w *Workbook) load(sheet string) (*table.Table, error) {
	rows, err := w.rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet '%s': %w", sheet, err)
	}
	// skip leading blank rows before the header
	for len(rows) > 0 && blank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return table.New(sheet), nil
	}
	header, data := rows[0], rows[1:]
	// drop trailing blank rows
	for len(data) > 0 && blank(data[len(data)-1]) {
		data = data[:len(data)-1]
	}
	if w.opt.MaxRows > 0 && len(data) > w.opt.MaxRows {
		w.opt.logger().Warn("sheet truncated", "sheet", sheet, "rows", len(data), "max_rows", w.opt.MaxRows)
		data = data[:w.opt.MaxRows]
	}
	t := table.FromRecords(sheet, header, data, w.opt.Parse)
	w.opt.logger().Debug("sheet loaded", "sheet", sheet, "rows", t.Len(), "columns", t.Width())
	return t, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// FromReader opens an in-memory workbook; name decides the format.
func FromReader(name string, r io.Reader, opt Options) (*Workbook, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".xlsx"):
		return loadXLSX(name, r, opt)
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".tsv"):
		return loadCSV(name, r, opt)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
}

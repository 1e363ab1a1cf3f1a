package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/scolaire-cli/internal/chart"
	"github.com/KaramelBytes/scolaire-cli/internal/pages"
	"github.com/KaramelBytes/scolaire-cli/internal/table"
	"github.com/KaramelBytes/scolaire-cli/internal/utils"
	"github.com/KaramelBytes/scolaire-cli/internal/workbook"
	"github.com/KaramelBytes/scolaire-cli/internal/workspace"
	"github.com/spf13/cobra"
)

// sheetFlags select and parse the worksheet a command reads.
type sheetFlags struct {
	name      string
	index     int
	delimiter string
	decimal   string
	maxRows   int
}

func (f *sheetFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.name, "sheet-name", "", "XLSX: sheet name (default: the page's sheet)")
	c.Flags().IntVar(&f.index, "sheet-index", 0, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	c.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	c.Flags().StringVar(&f.decimal, "decimal", "", "CSV decimal separator: '.'|'comma'|'auto' (config decimal_separator if omitted)")
	c.Flags().IntVar(&f.maxRows, "max-rows", 0, "maximum data rows to read (0 = config max_rows)")
}

func (f *sheetFlags) options() (workbook.Options, error) {
	c := settings()
	opt := workbook.Options{MaxRows: c.MaxRows, Logger: logger()}
	if f.maxRows > 0 {
		opt.MaxRows = f.maxRows
	}
	switch f.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	dec := f.decimal
	if dec == "" {
		dec = c.DecimalSeparator
	}
	switch strings.ToLower(strings.TrimSpace(dec)) {
	case ",", "comma":
		opt.Parse.DecimalSeparator = ','
	case ".", "dot":
		opt.Parse.DecimalSeparator = '.'
	case "", "auto":
		// 0 detects the separator per value
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma'|'auto')", dec)
	}
	return opt, nil
}

// load opens path and picks a sheet: explicit flags first, then the only sheet of a
// single-sheet file, then the page default, then the first sheet.
func (f *sheetFlags) load(path string, def pages.SheetRef) (*table.Table, error) {
	opt, err := f.options()
	if err != nil {
		return nil, err
	}
	wb, err := workbook.Open(path, opt)
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	switch {
	case f.name != "" || f.index > 0:
		return wb.Select(f.name, f.index)
	case len(wb.Sheets()) == 1:
		return wb.SheetAt(1)
	default:
		return wb.Select(def.Name, def.Index)
	}
}

// parseFilter reads "column=v1,v2".
func parseFilter(s string) (*chart.Filter, error) {
	if s == "" {
		return nil, nil
	}
	col, vals, ok := strings.Cut(s, "=")
	col = strings.TrimSpace(col)
	if !ok || col == "" || strings.TrimSpace(vals) == "" {
		return nil, fmt.Errorf("invalid --filter %q (use column=value1,value2)", s)
	}
	var values []string
	for _, v := range strings.Split(vals, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return &chart.Filter{Column: col, Values: values}, nil
}

// sink stores artifacts in a workspace when one is named, otherwise in a plain directory.
type sink struct {
	dir    string
	ws     *workspace.Workspace
	prefix string
}

func newSink(wsName, dir string) (*sink, error) {
	if wsName != "" {
		w, err := loadWorkspace(wsName)
		if err != nil {
			return nil, err
		}
		return &sink{dir: w.RootDir(), ws: w}, nil
	}
	if dir == "" {
		dir = settings().OutputDir
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &sink{dir: dir}, nil
}

// put writes one artifact and returns its path.
func (s *sink) put(page, source string, a pages.Artifact) (string, error) {
	name := s.prefix + a.Name
	if s.ws != nil {
		rec, err := s.ws.Add(workspace.Entry{Page: page, Kind: a.Kind, Name: name, Description: a.Description, Source: source, Write: a.Write})
		if err != nil {
			return "", err
		}
		return filepath.Join(s.dir, rec.Path), nil
	}
	path := filepath.Join(s.dir, name)
	if err := writeTo(path, a.Write); err != nil {
		return "", err
	}
	return path, nil
}

// close persists the workspace manifest.
func (s *sink) close() error {
	if s.ws == nil {
		return nil
	}
	return s.ws.Save()
}

// writeTo renders fully in memory before touching path.
func writeTo(path string, fn func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// emit writes text to path, or to w when path is empty.
func emit(w io.Writer, path string, fn func(io.Writer) error) error {
	if path == "" {
		return fn(w)
	}
	if err := writeTo(path, fn); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// expandInputs resolves globs and literal paths, deduplicated, in sorted order.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, errors.New("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

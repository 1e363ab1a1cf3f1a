package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/KaramelBytes/scolaire-cli/internal/chart"
	"github.com/KaramelBytes/scolaire-cli/internal/pages"
	"github.com/spf13/cobra"
)

// renderFlags are shared by render and batch.
type renderFlags struct {
	sheet     sheetFlags
	title     string
	theme     string
	widgets   []string
	topN      int
	year      int
	column    string
	chartType string
	x, y      string
	color     string
	size      string
	filter    string
	workspace string
	exportDir string
	export    bool
	recompute bool
}

func (f *renderFlags) register(c *cobra.Command) {
	f.sheet.register(c)
	c.Flags().StringVar(&f.title, "title", "", "override the page title")
	c.Flags().StringVar(&f.theme, "theme", "", "chart theme (config chart_theme if omitted)")
	c.Flags().StringSliceVar(&f.widgets, "widgets", nil, "widgets to render: summary,groups,rankings,distribution,chart,export,preview")
	c.Flags().IntVar(&f.topN, "top", 0, "rows per ranking (0 = config top_n)")
	c.Flags().IntVar(&f.year, "year", 1, "tableaux: school year to analyze (1-6)")
	c.Flags().StringVar(&f.column, "column", "", "restrict the distribution widget to one column")
	c.Flags().StringVar(&f.chartType, "chart", "", "chart type: scatter, histogram, bar, box, heatmap, pie, violin, treemap, bubble, radar")
	c.Flags().StringVar(&f.x, "x", "", "chart X variable")
	c.Flags().StringVar(&f.y, "y", "", "chart Y variable")
	c.Flags().StringVar(&f.color, "color", "", "chart color/group variable")
	c.Flags().StringVar(&f.size, "size", "", "chart size variable (bubble)")
	c.Flags().StringVar(&f.filter, "filter", "", "keep rows where column=value1,value2 before charting")
	c.Flags().StringVarP(&f.workspace, "workspace", "w", "", "workspace to store exports in")
	c.Flags().StringVar(&f.exportDir, "export-dir", "", "directory for exports (config output_dir if omitted)")
	c.Flags().BoolVar(&f.export, "export", false, "write the page exports (implied by -w or --export-dir)")
	c.Flags().BoolVar(&f.recompute, "recompute", false, "recompute derived columns the sheet already contains")
}

func (f *renderFlags) exporting() bool { return f.export || f.workspace != "" || f.exportDir != "" }

// request builds the page request for one loaded table.
func (f *renderFlags) request(cmd *cobra.Command) (pages.Request, error) {
	c := settings()
	widgets, err := pages.ParseWidgets(f.widgets)
	if err != nil {
		return pages.Request{}, err
	}
	req := pages.Request{
		Config:     pages.Config{Title: f.title, Theme: f.theme, Widgets: widgets},
		TopN:       c.TopN,
		Year:       f.year,
		Column:     f.column,
		SampleRows: c.SampleRows,
		Recompute:  f.recompute,
		Logger:     logger(),
		ChartOptions: chart.Options{
			Theme:      c.ChartTheme,
			Width:      c.ChartWidth,
			Height:     c.ChartHeight,
			AssetsHost: c.AssetsHost,
		},
	}
	if f.topN > 0 {
		req.TopN = f.topN
	}
	if f.chartType != "" {
		typ, err := chart.ParseType(f.chartType)
		if err != nil {
			return req, err
		}
		filter, err := parseFilter(f.filter)
		if err != nil {
			return req, err
		}
		req.Chart = &chart.Request{Type: typ, X: f.x, Y: f.y, Color: f.color, Size: f.size, Filter: filter}
	} else if cmd.Flags().Changed("x") || cmd.Flags().Changed("y") {
		return req, fmt.Errorf("--x/--y need --chart")
	}
	return req, nil
}

var (
	rf           renderFlags
	renderOutput string
	chartOutput  string
)

var renderCmd = &cobra.Command{
	Use:   "render <page> [file]",
	Short: "Render one analysis page over a workbook as a Markdown report",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := pages.Lookup(args[0])
		if err != nil {
			return err
		}
		req, err := rf.request(cmd)
		if err != nil {
			return err
		}
		ref, needsData := page.Sheet()
		if needsData {
			if len(args) < 2 {
				return fmt.Errorf("page %s needs a workbook (expected sheet: %s)", page.ID(), ref)
			}
			t, err := rf.sheet.load(args[1], ref)
			if err != nil {
				return err
			}
			req.Table = t
			req.Source = filepath.Base(args[1])
		}
		res, err := page.Render(context.Background(), req)
		if err != nil {
			return fmt.Errorf("render %s: %w", page.ID(), err)
		}
		out := cmd.OutOrStdout()
		for _, w := range res.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s\n", w)
		}
		if err := emit(out, renderOutput, res.Markdown); err != nil {
			return err
		}
		if renderOutput != "" {
			fmt.Fprintf(out, "✓ Wrote report to %s\n", renderOutput)
		}
		if chartOutput != "" {
			if !res.Chart.Rendered() {
				if res.ChartErr != nil {
					return fmt.Errorf("no chart to write: %w", res.ChartErr)
				}
				return errors.New("no chart to write (use --chart with the chart widget on)")
			}
			if err := writeTo(chartOutput, res.Chart.Render); err != nil {
				return fmt.Errorf("write chart: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote chart to %s\n", chartOutput)
		}
		if rf.exporting() {
			s, err := newSink(rf.workspace, rf.exportDir)
			if err != nil {
				return err
			}
			if err := saveArtifacts(out, s, res, req.Source); err != nil {
				return err
			}
		}
		return nil
	},
}

func saveArtifacts(out io.Writer, s *sink, res *pages.Result, source string) error {
	for _, a := range res.Artifacts {
		path, err := s.put(res.Page, source, a)
		if err != nil {
			return fmt.Errorf("export %s: %w", a.Name, err)
		}
		fmt.Fprintf(out, "✓ Exported %s\n", path)
	}
	return s.close()
}

func init() {
	rootCmd.AddCommand(renderCmd)
	rf.register(renderCmd)
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "write the Markdown report to this path instead of stdout")
	renderCmd.Flags().StringVar(&chartOutput, "chart-out", "", "write the chart HTML to this path")
}

package cmd

import (
	"fmt"
	"io"

	"github.com/KaramelBytes/scolaire-cli/internal/aggregate"
	"github.com/KaramelBytes/scolaire-cli/internal/analysis"
	"github.com/KaramelBytes/scolaire-cli/internal/export"
	"github.com/KaramelBytes/scolaire-cli/internal/pages"
	"github.com/spf13/cobra"
)

var (
	profSheet      sheetFlags
	profOutputPath string
	profSampleRows int
	profGroupBy    string
	profCorr       bool
	profOutliers   bool
	profOutlierThr float64
	profTop        int
	profFormat     string
	profAgg        []string
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Profile any sheet: column kinds, missing values, statistics and outliers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := profSheet.load(args[0], pages.SheetRef{Index: 1})
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		if profSampleRows > 0 {
			opt.SampleRows = profSampleRows
		}
		opt.GroupBy = profGroupBy
		opt.Correlations = profCorr
		if cmd.Flags().Changed("outliers") {
			opt.Outliers = profOutliers
		}
		if profOutlierThr > 0 {
			opt.OutlierThreshold = profOutlierThr
		}
		if profTop > 0 {
			opt.TopValues = profTop
		}
		for _, name := range profAgg {
			fn, err := aggregate.ParseFunc(name)
			if err != nil {
				return err
			}
			opt.Aggregates = append(opt.Aggregates, fn)
		}
		rep := analysis.Profile(t, opt)
		logger().Debug("profiled", "sheet", t.Name, "rows", rep.Rows, "columns", len(rep.Cols))

		var render func(io.Writer) error
		switch profFormat {
		case "md", "markdown":
			render = func(w io.Writer) error {
				_, err := io.WriteString(w, rep.Markdown())
				return err
			}
		case "table":
			render = func(w io.Writer) error {
				if err := export.Console(w, rep.SchemaTable()); err != nil {
					return err
				}
				for _, warn := range rep.Warnings {
					fmt.Fprintf(w, "⚠ %s\n", warn)
				}
				return nil
			}
		default:
			return fmt.Errorf("unsupported --format: %s (use md or table)", profFormat)
		}
		if err := emit(cmd.OutOrStdout(), profOutputPath, render); err != nil {
			return err
		}
		if profOutputPath != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote profile to %s\n", profOutputPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profSheet.register(profileCmd)
	profileCmd.Flags().StringVarP(&profOutputPath, "output", "o", "", "optional path to write the profile")
	profileCmd.Flags().IntVar(&profSampleRows, "sample-rows", 5, "number of sample rows to include")
	profileCmd.Flags().StringVar(&profGroupBy, "group-by", "", "column to group numeric summaries by")
	profileCmd.Flags().BoolVar(&profCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	profileCmd.Flags().BoolVar(&profOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	profileCmd.Flags().Float64Var(&profOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	profileCmd.Flags().IntVar(&profTop, "top-values", 8, "categories listed per column")
	profileCmd.Flags().StringVar(&profFormat, "format", "md", "output format: md or table")
	profileCmd.Flags().StringSliceVar(&profAgg, "agg", nil, "extra aggregates per numeric column: count,sum,mean,median,min,max,std,distinct")
}

package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/KaramelBytes/scolaire-cli/internal/export"
	"github.com/KaramelBytes/scolaire-cli/internal/pages"
	"github.com/KaramelBytes/scolaire-cli/internal/table"
	"github.com/KaramelBytes/scolaire-cli/internal/yearsheet"
	"github.com/spf13/cobra"
)

var (
	splitSheet     sheetFlags
	splitOutput    string
	splitWorkspace string
	splitDryRun    bool
)

var splitCmd = &cobra.Command{
	Use:   "split <file>",
	Short: "Split the 21-column enrolment sheet into one formatted sheet per school year",
	Long: `split reads a sheet of exactly 21 columns: Région, Moughataa, École, then six yearly
blocks of (Nbre DP, Nbre enseign, Nbre Eleves) in that order. Headers are not checked.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := splitSheet.load(args[0], pages.SheetRef{Index: 1})
		if err != nil {
			return err
		}
		years, err := yearsheet.Split(t)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if err := export.Console(out, yearTotals(years)); err != nil {
			return err
		}
		if splitDryRun {
			return nil
		}
		write := func(w io.Writer) error { return yearsheet.WriteWorkbook(w, years) }
		if splitWorkspace != "" {
			s, err := newSink(splitWorkspace, "")
			if err != nil {
				return err
			}
			return saveArtifacts(out, s, &pages.Result{
				Page: "tableaux",
				Artifacts: []pages.Artifact{{
					Name:        yearsheet.WorkbookName,
					Kind:        "xlsx",
					Description: fmt.Sprintf("%d feuilles annuelles avec totaux", len(years)),
					Write:       write,
				}},
			}, filepath.Base(args[0]))
		}
		path := splitOutput
		if path == "" {
			path = filepath.Join(settings().OutputDir, yearsheet.WorkbookName)
		}
		if err := writeTo(path, write); err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		fmt.Fprintf(out, "✓ Wrote %d sheets to %s\n", len(years), path)
		return nil
	},
}

// yearTotals is the per-year totals overview printed by split.
func yearTotals(years []yearsheet.Year) *table.Table {
	t := table.New("Années", "Feuille", "Écoles", "Élèves", "Enseignants", "DP", "Ratio élèves/DP")
	for _, y := range years {
		t.Append(table.Str(y.SheetName()), table.Num(float64(y.Totals.Schools)),
			table.Num(y.Totals.Students), table.Num(y.Totals.Staff), table.Num(y.Totals.DP), table.Num(y.Totals.Ratio))
	}
	return t
}

func init() {
	rootCmd.AddCommand(splitCmd)
	splitSheet.register(splitCmd)
	splitCmd.Flags().StringVarP(&splitOutput, "output", "o", "", "workbook path (default: <output_dir>/"+yearsheet.WorkbookName+")")
	splitCmd.Flags().StringVarP(&splitWorkspace, "workspace", "w", "", "store the workbook in this workspace")
	splitCmd.Flags().BoolVar(&splitDryRun, "dry-run", false, "print the yearly totals without writing the workbook")
}

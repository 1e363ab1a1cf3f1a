package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/scolaire-cli/internal/pages"
	"github.com/spf13/cobra"
)

var (
	bf      renderFlags
	bQuiet  bool
	bReport bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <page> <files...>",
	Short: "Render one page over several workbooks and store the reports and exports",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := pages.Lookup(args[0])
		if err != nil {
			return err
		}
		ref, needsData := page.Sheet()
		if !needsData {
			return fmt.Errorf("page %s does not read a workbook", page.ID())
		}
		files, err := expandInputs(args[1:])
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		out := cmd.OutOrStdout()
		if bQuiet {
			out = io.Discard
		}
		s, err := newSink(bf.workspace, bf.exportDir)
		if err != nil {
			return err
		}

		total := len(files)
		for i, path := range files {
			base := filepath.Base(path)
			fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, base)
			req, err := bf.request(cmd)
			if err != nil {
				return err
			}
			t, err := bf.sheet.load(path, ref)
			if err != nil {
				return fmt.Errorf("%s: %w", base, err)
			}
			req.Table = t
			req.Source = base
			res, err := page.Render(context.Background(), req)
			if err != nil {
				return fmt.Errorf("%s: render %s: %w", base, page.ID(), err)
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s: %s\n", base, w)
			}

			stem := strings.TrimSuffix(base, filepath.Ext(base))
			s.prefix = stem + "__"
			if bReport {
				name := uniqueName(s.dir, s.prefix+page.ID(), ".md")
				if name != s.prefix+page.ID()+".md" {
					fmt.Fprintf(out, "⚠ Detected existing report, writing to %s to avoid overwrite.\n", name)
				}
				res.Artifacts = append([]pages.Artifact{{
					Name:        strings.TrimPrefix(name, s.prefix),
					Kind:        "md",
					Description: fmt.Sprintf("Rapport %s de %s", page.ID(), base),
					Write:       res.Markdown,
				}}, res.Artifacts...)
			}
			for _, a := range res.Artifacts {
				p, err := s.put(res.Page, base, a)
				if err != nil {
					return fmt.Errorf("%s: export %s: %w", base, a.Name, err)
				}
				fmt.Fprintf(out, "✓ Exported %s\n", p)
			}
		}
		if err := s.close(); err != nil {
			return err
		}
		if s.ws != nil {
			fmt.Fprintf(out, "✓ Added %d file(s) to workspace '%s'\n", total, s.ws.Name)
		}
		return nil
	},
}

// uniqueName returns stem+ext, or the first free stem__N+ext (N >= 2) in dir.
func uniqueName(dir, stem, ext string) string {
	name := stem + ext
	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		return name
	}
	for idx := 2; ; idx++ {
		cand := fmt.Sprintf("%s__%d%s", stem, idx, ext)
		if _, err := os.Stat(filepath.Join(dir, cand)); os.IsNotExist(err) {
			return cand
		}
	}
}

func init() {
	rootCmd.AddCommand(batchCmd)
	bf.register(batchCmd)
	batchCmd.Flags().BoolVar(&bQuiet, "quiet", false, "suppress progress and non-essential output")
	batchCmd.Flags().BoolVar(&bReport, "report", true, "store the Markdown report of each file next to its exports")
}

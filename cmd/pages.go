package cmd

import (
	"github.com/KaramelBytes/scolaire-cli/internal/export"
	"github.com/KaramelBytes/scolaire-cli/internal/pages"
	"github.com/spf13/cobra"
)

var pagesFormat string

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List the analysis pages and the sheet each one expects",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := export.ParseFormat(pagesFormat)
		if err != nil {
			return err
		}
		return export.Write(cmd.OutOrStdout(), pages.Directory(), f)
	},
}

func init() {
	rootCmd.AddCommand(pagesCmd)
	pagesCmd.Flags().StringVar(&pagesFormat, "format", "table", "output format: table, md, csv, json")
}

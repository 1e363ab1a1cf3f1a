package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/scolaire-cli/internal/export"
	"github.com/KaramelBytes/scolaire-cli/internal/table"
	"github.com/KaramelBytes/scolaire-cli/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	listWorkspace string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces, or the artifacts of one workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if listWorkspace == "" {
			return listAllWorkspaces(cmd)
		}
		w, err := loadWorkspace(listWorkspace)
		if err != nil {
			return err
		}
		arts := w.List()
		if len(arts) == 0 {
			fmt.Fprintln(out, "(no artifacts)")
			return nil
		}
		t := table.New("artifacts", "ID", "Page", "Kind", "Path", "Description", "Created")
		for _, a := range arts {
			t.Append(table.Str(a.ID), table.Str(a.Page), table.Str(a.Kind), table.Str(a.Path),
				table.Str(a.Description), table.Str(a.CreatedAt.Format("2006-01-02 15:04")))
		}
		return export.Console(out, t)
	},
}

func listAllWorkspaces(cmd *cobra.Command) error {
	root, err := defaultWorkspacesDir()
	if err != nil {
		return err
	}
	dirs, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	found := false
	for _, e := range dirs {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), workspace.FileName)); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", e.Name())
			found = true
		}
	}
	if !found {
		fmt.Fprintln(cmd.OutOrStdout(), "(no workspaces)")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listWorkspace, "workspace", "w", "", "list the artifacts of this workspace")
}

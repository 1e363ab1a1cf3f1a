package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/xuri/excelize/v2"
)

func resetFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Flag values are package state and stick between invocations.
	resetFlags(rootCmd.PersistentFlags())
	for _, c := range rootCmd.Commands() {
		resetFlags(c.Flags())
		for _, sub := range c.Commands() {
			resetFlags(sub.Flags())
		}
	}
	cfg = nil
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func setHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeXLSX(t *testing.T, path string, rows [][]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
}

func totauxFixture(t *testing.T, dir string) string {
	path := filepath.Join(dir, "totaux.xlsx")
	writeXLSX(t, path, [][]any{
		{"Région", "Ecole", "Nbre DP", "Nbre enseign", "Nbre Eleves"},
		{"Trarza", "A", 5, 10, 600},
		{"Trarza", "B", 4, 8, 150},
		{"Adrar", "C", 0, 3, 80},
	})
	return path
}

func yearsFixture(t *testing.T, dir string) string {
	path := filepath.Join(dir, "annees.xlsx")
	header := []any{"Région", "Moughataa", "Ecole"}
	for y := 1; y <= 6; y++ {
		header = append(header, fmt.Sprintf("Nbre DP %d", y), fmt.Sprintf("Nbre enseign %d", y), fmt.Sprintf("Nbre Eleves %d", y))
	}
	rows := [][]any{header}
	for _, s := range []struct {
		mough, name         string
		dp, staff, students int
	}{
		{"Ksar", "A", 5, 5, 100},
		{"Tevragh Zeina", "B", 4, 4, 60},
	} {
		row := []any{"Nouakchott", s.mough, s.name}
		for y := 0; y < 6; y++ {
			row = append(row, s.dp, s.staff, s.students)
		}
		rows = append(rows, row)
	}
	writeXLSX(t, path, rows)
	return path
}

func TestCLI_RenderTotauxWritesReport(t *testing.T) {
	home := setHome(t)
	in := totauxFixture(t, home)
	report := filepath.Join(home, "out", "totaux.md")

	out := mustRun(t, "render", "totaux", in, "-o", report)
	if !strings.Contains(out, "✓ Wrote report") {
		t.Fatalf("missing confirmation: %q", out)
	}
	b, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	md := string(b)
	for _, want := range []string{"# Analyse des Totaux par École", "Totaux par région", "Trarza", "830"} {
		if !strings.Contains(md, want) {
			t.Fatalf("report missing %q:\n%s", want, md)
		}
	}
}

func TestCLI_RenderUnknownPage(t *testing.T) {
	setHome(t)
	_, err := runCmd(t, "render", "nope")
	if err == nil || !strings.Contains(err.Error(), "unknown page") {
		t.Fatalf("expected unknown page error, got %v", err)
	}
}

func TestCLI_RenderNeedsWorkbook(t *testing.T) {
	setHome(t)
	if _, err := runCmd(t, "render", "ratios"); err == nil {
		t.Fatal("expected an error without input file")
	}
	out := mustRun(t, "render", "accueil")
	if !strings.Contains(out, "Pages disponibles") {
		t.Fatalf("accueil output: %q", out)
	}
}

func TestCLI_RenderChartOut(t *testing.T) {
	home := setHome(t)
	in := totauxFixture(t, home)
	html := filepath.Join(home, "chart.html")
	mustRun(t, "render", "totaux", in, "--chart", "scatter", "--chart-out", html)
	b, err := os.ReadFile(html)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !strings.Contains(string(b), "echarts") {
		t.Fatalf("chart html does not reference echarts")
	}
	if _, err := runCmd(t, "render", "totaux", in, "--x", "Ecole"); err == nil {
		t.Fatal("expected --x without --chart to fail")
	}
}

func TestCLI_WorkspaceExportAndList(t *testing.T) {
	home := setHome(t)
	in := totauxFixture(t, home)
	mustRun(t, "init", "rentree", "-d", "Rentrée scolaire")
	if _, err := runCmd(t, "init", "rentree"); err == nil {
		t.Fatal("expected second init to fail")
	}
	out := mustRun(t, "render", "totaux", in, "-w", "rentree")
	if !strings.Contains(out, "donnees_totaux_ecoles_nettoyees.csv") {
		t.Fatalf("export not reported: %q", out)
	}

	wsFile := filepath.Join(home, ".scolaire", "workspaces", "rentree", "workspace.json")
	b, err := os.ReadFile(wsFile)
	if err != nil {
		t.Fatalf("read workspace: %v", err)
	}
	var ws struct {
		Name      string                     `json:"name"`
		Artifacts map[string]json.RawMessage `json:"artifacts"`
	}
	if err := json.Unmarshal(b, &ws); err != nil {
		t.Fatalf("decode workspace: %v", err)
	}
	if ws.Name != "rentree" || len(ws.Artifacts) == 0 {
		t.Fatalf("unexpected workspace: %+v", ws)
	}

	all := mustRun(t, "list")
	if !strings.Contains(all, "- rentree") {
		t.Fatalf("list output: %q", all)
	}
	arts := mustRun(t, "list", "-w", "rentree")
	if !strings.Contains(arts, "donnees_totaux_ecoles_nettoyees.csv") {
		t.Fatalf("artifact list: %q", arts)
	}
}

func TestCLI_SplitWritesWorkbook(t *testing.T) {
	home := setHome(t)
	in := yearsFixture(t, home)
	dest := filepath.Join(home, "annees_out.xlsx")
	out := mustRun(t, "split", in, "-o", dest)
	if !strings.Contains(out, "✓ Wrote 6 sheets") {
		t.Fatalf("split output: %q", out)
	}
	f, err := excelize.OpenFile(dest)
	if err != nil {
		t.Fatalf("open split workbook: %v", err)
	}
	defer f.Close()
	if got := f.GetSheetList(); len(got) != 6 || got[0] != "Année_1" {
		t.Fatalf("sheets: %v", got)
	}
}

func TestCLI_SplitRejectsWrongWidth(t *testing.T) {
	home := setHome(t)
	in := totauxFixture(t, home)
	if _, err := runCmd(t, "split", in, "--dry-run"); err == nil {
		t.Fatal("expected a column count error")
	}
}

func TestCLI_ProfileFormats(t *testing.T) {
	home := setHome(t)
	in := totauxFixture(t, home)
	md := mustRun(t, "profile", in, "--group-by", "Région", "--correlations")
	for _, want := range []string{"[DATASET SUMMARY]", "[GROUP-BY SUMMARY]", "[CORRELATIONS]"} {
		if !strings.Contains(md, want) {
			t.Fatalf("profile missing %s:\n%s", want, md)
		}
	}
	tbl := mustRun(t, "profile", in, "--format", "table")
	if !strings.Contains(tbl, "Nbre Eleves") {
		t.Fatalf("schema table: %q", tbl)
	}
	if _, err := runCmd(t, "profile", in, "--format", "pdf"); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestCLI_BatchCollisionSuffix(t *testing.T) {
	home := setHome(t)
	in := totauxFixture(t, home)
	dir := filepath.Join(home, "exports")
	mustRun(t, "batch", "totaux", in, "--export-dir", dir, "--quiet")
	mustRun(t, "batch", "totaux", in, "--export-dir", dir, "--quiet")
	for _, name := range []string{"totaux__totaux.md", "totaux__totaux__2.md", "totaux__donnees_totaux_ecoles_nettoyees.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	setHome(t)
	mustRun(t, "config", "set", "top_n", "3")
	out := mustRun(t, "config", "show")
	if !strings.Contains(out, "top_n: 3") {
		t.Fatalf("config show: %q", out)
	}
	if _, err := runCmd(t, "config", "set", "decimal_separator", ";"); err == nil {
		t.Fatal("expected invalid separator to fail")
	}
}

func TestCLI_PagesDirectory(t *testing.T) {
	setHome(t)
	out := mustRun(t, "pages", "--format", "csv")
	for _, id := range []string{"accueil", "totaux", "ratios", "salles", "tableaux"} {
		if !strings.Contains(out, id) {
			t.Fatalf("pages missing %s: %q", id, out)
		}
	}
}

func exportedRatios(t *testing.T, dir string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, "donnees_ratios_salles_nettoyees.csv"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	return string(b)
}

func TestCLI_DecimalCommaCSV(t *testing.T) {
	home := setHome(t)
	in := filepath.Join(home, "ratios.csv")
	body := "Région;Ecole;Ratio moyen;Nombre total de salles de classe dans l'école;Salle de classe utilisée\n" +
		"Trarza;A;12,5;10;9\n"
	if err := os.WriteFile(in, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(home, "exports")
	mustRun(t, "render", "ratios", in, "--export-dir", dir)
	csv := exportedRatios(t, dir)
	if !strings.Contains(csv, ",12.5,") || strings.Contains(csv, "125") {
		t.Fatalf("decimal comma misread:\n%s", csv)
	}
}

func TestCLI_DecimalCommaSettingLeavesXLSX(t *testing.T) {
	home := setHome(t)
	in := filepath.Join(home, "ratios.xlsx")
	writeXLSX(t, in, [][]any{
		{"Région", "Ecole", "Ratio moyen"},
		{"Trarza", "A", 12.5},
	})
	dir := filepath.Join(home, "exports")
	mustRun(t, "render", "ratios", in, "--decimal", "comma", "--export-dir", dir)
	csv := exportedRatios(t, dir)
	if !strings.Contains(csv, ",12.5") || strings.Contains(csv, "125") {
		t.Fatalf("xlsx decimal misread:\n%s", csv)
	}
}

func TestCLI_ProfileAgg(t *testing.T) {
	home := setHome(t)
	in := totauxFixture(t, home)
	out := mustRun(t, "profile", in, "--agg", "sum,median")
	if !strings.Contains(out, "[AGGREGATES]") || !strings.Contains(out, "830") {
		t.Fatalf("profile --agg output:\n%s", out)
	}
	if _, err := runCmd(t, "profile", in, "--agg", "mode"); err == nil {
		t.Fatal("expected unknown aggregate error")
	}
}

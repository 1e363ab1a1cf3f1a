package export

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/scolaire-cli/internal/table"
	"github.com/KaramelBytes/scolaire-cli/internal/utils"
)

// FormatFor picks a format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	case ".md":
		return FormatMarkdown, nil
	case ".txt":
		return FormatTable, nil
	}
	return "", fmt.Errorf("cannot infer export format from %q (use .csv, .xlsx, .json, .md or .txt)", filepath.Base(path))
}

// WriteFile exports t to path, choosing the format from the extension. The write is atomic.
func WriteFile(path string, t *table.Table) error {
	f, err := FormatFor(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Write(&buf, t, f); err != nil {
		return fmt.Errorf("failed to export %s: %w", filepath.Base(path), err)
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

package workbook

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

func buildXLSX(t *testing.T) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Sheet3"))
	_, err := f.NewSheet("Sheet5")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Sheet3", "A1", &[]interface{}{"Ecole", "Ratio moyen"}))
	require.NoError(t, f.SetSheetRow("Sheet3", "A2", &[]interface{}{"EC1", 31.5}))
	require.NoError(t, f.SetSheetRow("Sheet3", "A3", &[]interface{}{"EC2", 1234.25}))
	// header on row 2 with a blank first row
	require.NoError(t, f.SetSheetRow("Sheet5", "A2", &[]interface{}{"Moughataa", "Longueur de la salle"}))
	require.NoError(t, f.SetSheetRow("Sheet5", "A3", &[]interface{}{"Tevragh Zeina", "7"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestXLSXSheetByNameAndIndex(t *testing.T) {
	wb, err := FromReader("ecoles.xlsx", buildXLSX(t), Options{})
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"Sheet3", "Sheet5"}, wb.Sheets())

	tb, err := wb.Sheet("sheet3")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ecole", "Ratio moyen"}, tb.Columns())
	require.Equal(t, 2, tb.Len())
	f, ok := tb.Get(1, "Ratio moyen").Float()
	require.True(t, ok)
	assert.InDelta(t, 1234.25, f, 1e-9)

	tb, err = wb.SheetAt(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Moughataa", "Longueur de la salle"}, tb.Columns())
	assert.Equal(t, 1, tb.Len())
	assert.True(t, tb.IsNumeric("Longueur de la salle"))
}

func TestMissingSheetListsAvailable(t *testing.T) {
	wb, err := FromReader("ecoles.xlsx", buildXLSX(t), Options{})
	require.NoError(t, err)
	defer wb.Close()
	_, err = wb.Sheet("Sheet4")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSheetNotFound))
	assert.Contains(t, err.Error(), "Available sheets: Sheet3, Sheet5")

	_, err = wb.SheetAt(9)
	assert.True(t, errors.Is(err, ErrSheetNotFound))
}

func TestOpenCSVSniffsSemicolon(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "salles.csv")
	body := "\xef\xbb\xbfEcole;Superficie\nEC1;42,5\nEC2;\n\n"
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))

	wb, err := Open(p, Options{MaxRows: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"salles"}, wb.Sheets())
	tb, err := wb.Select("", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ecole", "Superficie"}, tb.Columns())
	require.Equal(t, 2, tb.Len())
	v, ok := tb.Get(0, "Superficie").Float()
	require.True(t, ok)
	assert.InDelta(t, 42.5, v, 1e-9)
	assert.True(t, tb.Get(1, "Superficie").IsNull())
}

func TestMaxRowsTruncates(t *testing.T) {
	wb, err := FromReader("a.csv", bytes.NewBufferString("a\n1\n2\n3\n"), Options{MaxRows: 2})
	require.NoError(t, err)
	tb, err := wb.SheetAt(1)
	require.NoError(t, err)
	assert.Equal(t, 2, tb.Len())
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open("notes.docx", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestXLSXIgnoresCommaDecimalSetting(t *testing.T) {
	wb, err := FromReader("ecoles.xlsx", buildXLSX(t), Options{Parse: table.ParseOptions{DecimalSeparator: ','}})
	require.NoError(t, err)
	defer wb.Close()
	tb, err := wb.Sheet("Sheet3")
	require.NoError(t, err)
	for i, want := range []float64{31.5, 1234.25} {
		f, ok := tb.Get(i, "Ratio moyen").Float()
		require.True(t, ok)
		assert.InDelta(t, want, f, 1e-9)
	}
}

func TestCSVDetectsDecimalCommaByDefault(t *testing.T) {
	wb, err := FromReader("s.csv", bytes.NewBufferString("Ecole;Ratio moyen\nA;12,5\nB;1.234,5\n"), Options{})
	require.NoError(t, err)
	tb, err := wb.SheetAt(1)
	require.NoError(t, err)
	f, ok := tb.Get(0, "Ratio moyen").Float()
	require.True(t, ok)
	assert.InDelta(t, 12.5, f, 1e-9)
	f, ok = tb.Get(1, "Ratio moyen").Float()
	require.True(t, ok)
	assert.InDelta(t, 1234.5, f, 1e-9)
}

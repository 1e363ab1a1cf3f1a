package yearsheet

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

func header() []string {
	h := []string{"Région", "Moughataa", "Nom de l'ecole"}
	for y := 1; y <= Years; y++ {
		h = append(h, fmt.Sprintf("Nbre DP %d", y), fmt.Sprintf("Nbre enseign %d", y), fmt.Sprintf("Nbre Eleves %d", y))
	}
	return h
}

// school builds a row repeating the same (dp, staff, students) block for every year.
func school(region, mough, name string, dp, staff, students table.Value) []table.Value {
	row := []table.Value{table.Str(region), table.Str(mough), table.Str(name)}
	for y := 0; y < Years; y++ {
		row = append(row, dp, staff, students)
	}
	return row
}

func sample() *table.Table {
	t := table.New("Sheet1", header()...)
	t.Append(school("Nouakchott", "Tevragh Zeina", "B", table.Num(4), table.Num(4), table.Num(60))...)
	t.Append(school("Nouakchott", "Ksar", "A", table.Num(5), table.Num(5), table.Num(100))...)
	return t
}

func TestSplitTotals(t *testing.T) {
	years, err := Split(sample())
	require.NoError(t, err)
	require.Len(t, years, Years)

	for i, y := range years {
		assert.Equal(t, i+1, y.Number)
		assert.Equal(t, fmt.Sprintf("Année_%d", i+1), y.SheetName())
		assert.Equal(t, 3, y.Table.Len(), "two schools plus TOTAL")
		assert.Equal(t, []string{ColSchool, ColMoughataa, ColCommune, ColStudents, ColStaff, ColDP, ColRatio}, y.Table.Columns())
	}

	y1 := years[0].Table
	// sorted by Moughataa then École
	assert.Equal(t, "A", y1.Get(0, ColSchool).String())
	assert.Equal(t, "20", y1.Get(0, ColRatio).String())
	assert.Equal(t, "B", y1.Get(1, ColSchool).String())
	assert.Equal(t, "15", y1.Get(1, ColRatio).String())

	total := 2
	assert.Equal(t, TotalLabel, y1.Get(total, ColSchool).String())
	assert.True(t, y1.Get(total, ColMoughataa).IsNull())
	assert.Equal(t, "160", y1.Get(total, ColStudents).String())
	assert.Equal(t, "9", y1.Get(total, ColDP).String())
	assert.Equal(t, "17.8", y1.Get(total, ColRatio).String())

	assert.Equal(t, 2, years[0].Totals.Schools)
	assert.InDelta(t, 17.5, years[0].Totals.MeanRatio, 1e-9)
}

func TestSplitZeroAndMissingDP(t *testing.T) {
	src := table.New("Sheet1", header()...)
	src.Append(school("R", "M", "Zero", table.Num(0), table.Num(1), table.Num(30))...)
	src.Append(school("R", "M", "Blank", table.NullValue(), table.Num(1), table.Num(30))...)
	src.Append(school("R", "M", "Text", table.Str("?"), table.Num(1), table.NullValue())...)

	years, err := Split(src)
	require.NoError(t, err)
	y := years[0].Table
	for i := 0; i < 3; i++ {
		assert.Equal(t, "0", y.Get(i, ColRatio).String(), "row %d", i)
	}
	// sorted: Blank, Text, Zero
	assert.True(t, y.Get(1, ColDP).IsNull(), "text DP coerced to null")
	assert.Equal(t, "0", y.Get(3, ColDP).String())
	assert.Equal(t, "0", y.Get(3, ColRatio).String())
	assert.Equal(t, "60", y.Get(3, ColStudents).String())
}

func TestSplitRejectsWrongWidth(t *testing.T) {
	h := header()[:20]
	_, err := Split(table.New("Sheet1", h...))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrColumnCount))
	assert.Contains(t, err.Error(), "expected 21 columns, got 20")
}

func TestAnalysisFrame(t *testing.T) {
	ana, err := Analysis(sample(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{ColCommune, ColMoughataa, ColSchool, AnaDP, AnaStaff, AnaStudents, AnaRatio}, ana.Columns())
	// load order is preserved
	assert.Equal(t, "B", ana.Get(0, ColSchool).String())
	assert.Equal(t, "Nouakchott", ana.Get(0, ColCommune).String())

	_, err = Analysis(sample(), 7)
	require.Error(t, err)
}

func TestWriteWorkbook(t *testing.T) {
	years, err := Split(sample())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, years))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, Years)
	assert.Equal(t, "Année_1", sheets[0])
	assert.Equal(t, "Année_6", sheets[5])

	rows, err := f.GetRows("Année_3")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, ColSchool, rows[0][0])
	assert.Equal(t, "TOTAL", rows[3][0])
	assert.Equal(t, "17.8", rows[3][6])

	w, err := f.GetColWidth("Année_1", "A")
	require.NoError(t, err)
	assert.Equal(t, 30.0, w)

	require.Error(t, WriteWorkbook(&buf, nil))
}

func TestWriteWorkbookStylesOnlyLastRowAsTotal(t *testing.T) {
	in := table.New("Sheet1", header()...)
	in.Append(school("Nouakchott", "Zouerat", "A", table.Num(2), table.Num(2), table.Num(40))...)
	in.Append(school("Nouakchott", "Ksar", TotalLabel, table.Num(3), table.Num(3), table.Num(90))...)
	years, err := Split(in)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, years))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	// row 2 is the school named TOTAL, row 4 the real totals row
	named, err := f.GetCellStyle("Année_1", "D2")
	require.NoError(t, err)
	plain, err := f.GetCellStyle("Année_1", "D3")
	require.NoError(t, err)
	totals, err := f.GetCellStyle("Année_1", "D4")
	require.NoError(t, err)
	assert.Equal(t, plain, named)
	assert.NotEqual(t, totals, named)
}

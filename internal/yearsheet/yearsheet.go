// Package yearsheet splits the 21-column enrolment workbook into one table per school year.
//
// Input layout contract (positional, headers are NOT checked):
//
//	col 0      Région (written out as "Commune")
//	col 1      Moughataa
//	col 2      school name
//	col 3+3k   year k+1: Nbre DP       (k = 0..5)
//	col 4+3k   year k+1: Nbre enseign
//	col 5+3k   year k+1: Nbre Eleves
//
// If a source workbook ever orders a block differently, values are silently mislabeled.
// Callers must guarantee the block order.
package yearsheet

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/scolaire-cli/internal/table"
)

const (
	// Columns is the exact width of an accepted input table.
	Columns = IdentityColumns + Years*BlockWidth
	// IdentityColumns precede the yearly blocks.
	IdentityColumns = 3
	// Years is the number of yearly blocks.
	Years = 6
	// BlockWidth is DP, staff, students.
	BlockWidth = 3
	// TotalLabel marks the synthetic totals row.
	TotalLabel = "TOTAL"
)

// Year table columns, in output order.
const (
	ColSchool    = "École"
	ColMoughataa = "Moughataa"
	ColCommune   = "Commune"
	ColStudents  = "Nbre d'élèves"
	ColStaff     = "Nbre d'enseignants"
	ColDP        = "Nbre de DP"
	ColRatio     = "Ratio moyen élèves/DP"
)

// Analysis frame columns.
const (
	AnaDP       = "Nbre DP"
	AnaStaff    = "Nbre enseign"
	AnaStudents = "Nbre Eleves"
	AnaRatio    = "Ratio élèves/DP"
)

// ErrColumnCount rejects inputs that do not have exactly Columns columns.
var ErrColumnCount = errors.New("unexpected column count")

// Totals are the column sums of one year.
type Totals struct {
	Schools  int
	Students float64
	Staff    float64
	DP       float64
	// Ratio is round1(Students/DP), 0 when DP <= 0.
	Ratio float64
	// MeanRatio is the mean of per-school ratios (sentinel zeros included).
	MeanRatio float64
}

// Year is one output sheet.
type Year struct {
	Number int
	// Table holds the sorted school rows followed by the TOTAL row.
	Table    *table.Table
	Totals   Totals
	analysis *table.Table
}

// SheetName is the workbook sheet name for the year.
func (y Year) SheetName() string { return fmt.Sprintf("Année_%d", y.Number) }

// Analysis returns the per-year analysis frame (load order, no totals row).
func (y Year) Analysis() *table.Table { return y.analysis }

// CheckShape validates the input width.
func CheckShape(t *table.Table) error {
	if t.Width() != Columns {
		return fmt.Errorf("%w: expected %d columns, got %d (3 identity columns: Région, Moughataa, École; then 6 yearly blocks of Nbre DP, Nbre enseign, Nbre Eleves)",
			ErrColumnCount, Columns, t.Width())
	}
	return nil
}

// Split builds the six year tables. It fails as a whole on a wrong column count.
func Split(t *table.Table) ([]Year, error) {
	if err := CheckShape(t); err != nil {
		return nil, err
	}
	years := make([]Year, 0, Years)
	for y := 1; y <= Years; y++ {
		ana, err := Analysis(t, y)
		if err != nil {
			return nil, err
		}
		years = append(years, build(y, ana))
	}
	return years, nil
}

// Analysis extracts one year as Commune, Moughataa, École, Nbre DP, Nbre enseign, Nbre Eleves, Ratio élèves/DP.
func Analysis(t *table.Table, year int) (*table.Table, error) {
	if err := CheckShape(t); err != nil {
		return nil, err
	}
	if year < 1 || year > Years {
		return nil, fmt.Errorf("year %d out of range 1..%d", year, Years)
	}
	start := IdentityColumns + (year-1)*BlockWidth
	out := table.New(fmt.Sprintf("Année %d", year),
		ColCommune, ColMoughataa, ColSchool, AnaDP, AnaStaff, AnaStudents, AnaRatio)
	for i := 0; i < t.Len(); i++ {
		dp := numeric(t.At(i, start))
		staff := numeric(t.At(i, start+1))
		students := numeric(t.At(i, start+2))
		out.Append(t.At(i, 0), t.At(i, 1), t.At(i, 2), dp, staff, students, table.Num(ratio(students, dp)))
	}
	return out, nil
}

// numeric coerces text to null so it drops out of sums.
func numeric(v table.Value) table.Value {
	if v.Kind() == table.Text {
		return table.NullValue()
	}
	return v
}

// ratio is round1(students/dp), 0 when dp is null or <= 0 or students is null.
func ratio(students, dp table.Value) float64 {
	d, ok := dp.Float()
	if !ok || d <= 0 {
		return 0
	}
	s, ok := students.Float()
	if !ok {
		return 0
	}
	return table.Round1(s / d)
}

func build(year int, ana *table.Table) Year {
	sorted := ana.SortStable(func(a, b int) bool {
		if c := compareText(ana.Get(a, ColMoughataa), ana.Get(b, ColMoughataa)); c != 0 {
			return c < 0
		}
		return compareText(ana.Get(a, ColSchool), ana.Get(b, ColSchool)) < 0
	})
	out := table.New(fmt.Sprintf("Année_%d", year),
		ColSchool, ColMoughataa, ColCommune, ColStudents, ColStaff, ColDP, ColRatio)
	var tot Totals
	var ratioSum float64
	for i := 0; i < sorted.Len(); i++ {
		students := sorted.Get(i, AnaStudents)
		staff := sorted.Get(i, AnaStaff)
		dp := sorted.Get(i, AnaDP)
		r := sorted.Get(i, AnaRatio)
		out.Append(sorted.Get(i, ColSchool), sorted.Get(i, ColMoughataa), sorted.Get(i, ColCommune), students, staff, dp, r)
		tot.Students += floatOr0(students)
		tot.Staff += floatOr0(staff)
		tot.DP += floatOr0(dp)
		ratioSum += floatOr0(r)
	}
	tot.Schools = sorted.Len()
	if tot.DP > 0 {
		tot.Ratio = table.Round1(tot.Students / tot.DP)
	}
	if tot.Schools > 0 {
		tot.MeanRatio = ratioSum / float64(tot.Schools)
	}
	out.Append(table.Str(TotalLabel), table.NullValue(), table.NullValue(),
		table.Num(tot.Students), table.Num(tot.Staff), table.Num(tot.DP), table.Num(tot.Ratio))
	return Year{Number: year, Table: out, Totals: tot, analysis: ana}
}

func floatOr0(v table.Value) float64 {
	f, _ := v.Float()
	return f
}

// compareText orders by rendered text with nulls last.
func compareText(a, b table.Value) int {
	switch {
	case a.IsNull() && b.IsNull():
		return 0
	case a.IsNull():
		return 1
	case b.IsNull():
		return -1
	}
	as, bs := a.String(), b.String()
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

package table

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the dynamic type of a cell.
type Kind uint8

const (
	Null Kind = iota
	Number
	Text
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Text:
		return "text"
	default:
		return "null"
	}
}

// Value is a single cell. The zero Value is null.
type Value struct {
	kind Kind
	num  float64
	str  string
}

// NullValue returns the null cell.
func NullValue() Value { return Value{} }

// Num wraps a float. NaN and infinities collapse to null so they never reach an output.
func Num(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: Number, num: f}
}

// Str wraps a string; blank strings are null.
func Str(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Value{}
	}
	return Value{kind: Text, str: s}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == Null }
func (v Value) IsNumber() bool { return v.kind == Number }

// Float returns the numeric payload and whether the cell is a number.
func (v Value) Float() (float64, bool) {
	if v.kind != Number {
		return 0, false
	}
	return v.num, true
}

// String renders the cell the way it is written to CSV: numbers in shortest form, null as "".
func (v Value) String() string {
	switch v.kind {
	case Number:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case Text:
		return v.str
	default:
		return ""
	}
}

// Format renders numbers with at most prec decimals (trailing zeros trimmed).
func (v Value) Format(prec int) string {
	if v.kind != Number {
		return v.String()
	}
	s := strconv.FormatFloat(v.num, 'f', prec, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

// Equal compares kind and payload.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.num == o.num && v.str == o.str
}

// Round1 rounds half away from zero to one decimal.
func Round1(f float64) float64 {
	return math.Round(f*10) / 10
}

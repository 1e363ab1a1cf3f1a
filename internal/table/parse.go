package table

import (
	"strconv"
	"strings"
)

// ParseOptions controls numeric parsing of raw spreadsheet text.
type ParseOptions struct {
	// DecimalSeparator; if 0, auto-detect per value.
	DecimalSeparator rune
	// ThousandsSeparator; if 0, common separators (',' '.' space) other than the decimal are stripped.
	ThousandsSeparator rune
}

var missingMarkers = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "NULL": {}, "null": {}, "#N/A": {}, "None": {},
}

// ParseCell turns raw text into a null, numeric or text cell.
func ParseCell(s string, opt ParseOptions) Value {
	raw := strings.TrimSpace(s)
	if _, ok := missingMarkers[raw]; ok {
		return Value{}
	}
	if f, ok := ParseNumber(raw, opt); ok {
		return Num(f)
	}
	return Value{kind: Text, str: raw}
}

// ParseNumber parses locale-formatted numbers such as "1.234,5", "1 234" or "45%".
func ParseNumber(s string, opt ParseOptions) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	// strconv accepts these spellings; spreadsheets never mean them as numbers.
	switch strings.ToLower(strings.TrimLeft(raw, "+-")) {
	case "nan", "inf", "infinity":
		return 0, false
	}
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0:
			if cpos > dpos {
				dec, thou = ',', '.'
			} else {
				dec, thou = '.', ','
			}
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

package tabular

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindText
)

// Value is a single cell. Raw keeps the trimmed source text so that keys
// such as "007" survive even though they also parse as numbers.
type Value struct {
	Kind   Kind
	Raw    string
	Number float64
}

// missingMarkers are textual cells treated as "not a value", compared
// case-insensitively. The set follows the usual spreadsheet export markers.
var missingMarkers = map[string]struct{}{
	"nan":      {},
	"-nan":     {},
	"nat":      {},
	"none":     {},
	"null":     {},
	"n/a":      {},
	"na":       {},
	"#n/a":     {},
	"#n/a n/a": {},
	"#na":      {},
	"<na>":     {},
	"-1.#ind":  {},
	"1.#ind":   {},
	"-1.#qnan": {},
	"1.#qnan":  {},
}

func NullValue() Value {
	return Value{Kind: KindNull}
}

func TextValue(s string) Value {
	return Value{Kind: KindText, Raw: s}
}

func NumberValue(f float64) Value {
	return Value{Kind: KindNumber, Number: f, Raw: strconv.FormatFloat(f, 'f', -1, 64)}
}

// ParseValue converts cell text into a typed value.
func ParseValue(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return NullValue()
	}
	if f, ok := parseNumber(s); ok {
		return Value{Kind: KindNumber, Raw: s, Number: f}
	}
	return TextValue(s)
}

func parseNumber(s string) (float64, bool) {
	// strconv accepts "NaN", "Inf" and hex floats; none of those are numeric cells
	lower := strings.ToLower(s)
	if strings.Contains(lower, "nan") || strings.Contains(lower, "inf") || strings.Contains(lower, "x") || strings.Contains(s, "_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// IsMissing reports null cells and textual not-a-value markers.
func (v Value) IsMissing() bool {
	if v.Kind == KindNull {
		return true
	}
	if v.Kind == KindText {
		s := strings.TrimSpace(v.Raw)
		if s == "" {
			return true
		}
		_, ok := missingMarkers[strings.ToLower(s)]
		return ok
	}
	return false
}

// String returns the cell text as it appeared in the file.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindNumber:
		if v.Raw != "" {
			return v.Raw
		}
		return FormatNumber(v.Number)
	default:
		return v.Raw
	}
}

// Normalized is the stored representation: numbers lose trailing zeros and
// a trailing decimal point, everything else keeps its plain string form.
// Plain decimal literals are trimmed as text so long values keep every digit.
func (v Value) Normalized() string {
	if v.Kind != KindNumber {
		return v.String()
	}
	if s, ok := trimDecimal(v.Raw); ok {
		return s
	}
	return FormatNumber(v.Number)
}

// trimDecimal strips fractional trailing zeros from a literal made of an
// optional sign, digits and at most one point. Anything else is rejected.
func trimDecimal(raw string) (string, bool) {
	s := strings.TrimPrefix(raw, "+")
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || digits == "." {
		return "", false
	}

	point := false
	for i := 0; i < len(digits); i++ {
		switch c := digits[i]; {
		case c == '.':
			if point {
				return "", false
			}
			point = true
		case c < '0' || c > '9':
			return "", false
		}
	}

	if point {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	switch s {
	case "", "-", "-0":
		return "0", true
	}
	return s, true
}

// FormatNumber renders f without trailing zeros after the decimal point.
func FormatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		return "0"
	}
	return s
}

// Float returns the numeric content of the cell.
func (v Value) Float() (float64, bool) {
	if v.Kind == KindNumber {
		return v.Number, true
	}
	return 0, false
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindNumber:
		return json.Marshal(v.Number)
	default:
		return json.Marshal(v.Raw)
	}
}

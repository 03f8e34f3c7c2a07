package tabular

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// builtinDateFormats are the predefined number format ids that render a
// calendar date. Time-only formats are left numeric.
var builtinDateFormats = map[int]struct{}{
	14: {}, 15: {}, 16: {}, 17: {}, 22: {},
	27: {}, 28: {}, 29: {}, 30: {}, 31: {}, 32: {}, 33: {}, 34: {}, 35: {}, 36: {},
	50: {}, 51: {}, 52: {}, 53: {}, 54: {}, 55: {}, 56: {}, 57: {}, 58: {},
}

// cellReader turns raw worksheet values into cell text. Date-styled serials
// become ISO dates and fractional numbers take their shortest float form.
type cellReader struct {
	file     *excelize.File
	sheet    string
	date1904 bool
	styles   map[int]bool
}

func newCellReader(file *excelize.File, sheet string) *cellReader {
	reader := &cellReader{file: file, sheet: sheet, styles: make(map[int]bool)}
	if props, err := file.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		reader.date1904 = *props.Date1904
	}
	return reader
}

func (c *cellReader) text(col, row int, raw string) string {
	s := strings.TrimSpace(raw)
	f, ok := parseNumber(s)
	if !ok {
		return raw
	}

	if c.dateStyled(col, row) {
		if t, err := excelize.ExcelDateToTime(f, c.date1904); err == nil {
			if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
				return t.Format("2006-01-02")
			}
			return t.Format("2006-01-02 15:04:05")
		}
	}

	// Stored doubles may carry 17 significant digits, e.g. 0.29999999999999999.
	if strings.ContainsAny(s, ".eE") {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return s
}

func (c *cellReader) dateStyled(col, row int) bool {
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return false
	}
	id, err := c.file.GetCellStyle(c.sheet, cell)
	if err != nil || id == 0 {
		return false
	}
	if date, ok := c.styles[id]; ok {
		return date
	}

	date := false
	if style, err := c.file.GetStyle(id); err == nil && style != nil {
		if _, ok := builtinDateFormats[style.NumFmt]; ok {
			date = true
		} else if style.CustomNumFmt != nil {
			date = isDateFormatCode(*style.CustomNumFmt)
		}
	}
	c.styles[id] = date
	return date
}

// isDateFormatCode reports whether a custom number format renders a day or
// year. Quoted literals, bracketed sections and escaped characters are ignored.
func isDateFormatCode(code string) bool {
	section, _, _ := strings.Cut(code, ";")
	var plain strings.Builder
	quoted, bracket, escaped := false, false, false
	for _, r := range strings.ToLower(section) {
		switch {
		case escaped:
			escaped = false
		case quoted:
			quoted = r != '"'
		case bracket:
			bracket = r != ']'
		case r == '\\':
			escaped = true
		case r == '"':
			quoted = true
		case r == '[':
			bracket = true
		default:
			plain.WriteRune(r)
		}
	}
	return strings.ContainsAny(plain.String(), "yd")
}

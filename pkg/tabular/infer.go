package tabular

import (
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

type ColumnType string

const (
	ColumnNumeric  ColumnType = "numeric"
	ColumnDatetime ColumnType = "datetime"
	ColumnText     ColumnType = "text"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1-2-06",
	"02-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate accepts the date layouts commonly produced by spreadsheets.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateValue converts a cell to a date. Numeric cells are read as
// spreadsheet serial dates.
func DateValue(v Value) (time.Time, bool) {
	switch v.Kind {
	case KindText:
		return ParseDate(v.Raw)
	case KindNumber:
		if v.Number <= 0 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(v.Number, false)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}

// InferColumnTypes classifies each column from its non-null values.
func InferColumnTypes(t *Table) map[string]ColumnType {
	types := make(map[string]ColumnType, len(t.Columns))
	for _, column := range t.Columns {
		types[column] = inferColumn(t.Rows, column)
	}
	return types
}

func inferColumn(rows []Row, column string) ColumnType {
	numeric, dates, seen := true, true, 0
	for _, row := range rows {
		v := row.Get(column)
		if v.IsNull() {
			continue
		}
		seen++
		if v.Kind != KindNumber {
			numeric = false
		}
		if v.Kind != KindText {
			dates = false
		} else if _, ok := ParseDate(v.Raw); !ok {
			dates = false
		}
		if !numeric && !dates {
			return ColumnText
		}
	}

	switch {
	case seen == 0:
		return ColumnText
	case numeric:
		return ColumnNumeric
	case dates:
		return ColumnDatetime
	default:
		return ColumnText
	}
}

package tabular

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildXLSX(t *testing.T, rows [][]any) []byte {
	t.Helper()
	return buildStyledXLSX(t, rows, nil)
}

// buildStyledXLSX applies a number format style to the named cells.
func buildStyledXLSX(t *testing.T, rows [][]any, styles map[string]*excelize.Style) []byte {
	t.Helper()
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("set cell %s: %v", cell, err)
			}
		}
	}
	for cell, style := range styles {
		id, err := file.NewStyle(style)
		if err != nil {
			t.Fatalf("new style: %v", err)
		}
		if err := file.SetCellStyle(sheet, cell, cell, id); err != nil {
			t.Fatalf("style cell %s: %v", cell, err)
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestParseCSVPreservesRowsAndHeaderOrder(t *testing.T) {
	data := []byte("sample_id,height,color\nA1,1.20,green\nA2,,red\n007,3,\n")

	table, err := Parse(data, FormatCSV)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if want := []string{"sample_id", "height", "color"}; !reflect.DeepEqual(table.Columns, want) {
		t.Fatalf("columns = %v, want %v", table.Columns, want)
	}
	if table.Len() != 3 {
		t.Fatalf("rows = %d, want 3", table.Len())
	}
	if got := table.Rows[0].Get("height"); got.Kind != KindNumber || got.Number != 1.2 {
		t.Errorf("height = %+v, want number 1.2", got)
	}
	if got := table.Rows[1].Get("height"); !got.IsNull() {
		t.Errorf("empty cell = %+v, want null", got)
	}
	if got := table.Rows[2].Get("sample_id").String(); got != "007" {
		t.Errorf("sample_id = %q, want raw text 007", got)
	}
}

func TestParseXLSXPreservesRowsAndHeaderOrder(t *testing.T) {
	data := buildXLSX(t, [][]any{
		{"sample_id", "weight", "note"},
		{"S1", 2.5, "ok"},
		{"S2", 4, "late"},
	})

	table, err := Parse(data, FormatXLSX)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if want := []string{"sample_id", "weight", "note"}; !reflect.DeepEqual(table.Columns, want) {
		t.Fatalf("columns = %v, want %v", table.Columns, want)
	}
	if table.Len() != 2 {
		t.Fatalf("rows = %d, want 2", table.Len())
	}
	if got := table.Rows[1].Get("weight"); got.Kind != KindNumber || got.Number != 4 {
		t.Errorf("weight = %+v, want number 4", got)
	}
}

func TestParseXLSXReadsStoredValues(t *testing.T) {
	dateFormat := "yyyy-mm-dd hh:mm"
	data := buildStyledXLSX(t, [][]any{
		{"sample_id", "weight", "brix", "ratio", "harvest", "measured"},
		{"S1", 1234.5, 0.125, 3.14159, 45366, 45366.5},
	}, map[string]*excelize.Style{
		"B2": {NumFmt: 4},  // #,##0.00
		"C2": {NumFmt: 10}, // 0.00%
		"D2": {NumFmt: 2},  // 0.00
		"E2": {NumFmt: 14}, // m/d/yyyy
		"F2": {CustomNumFmt: &dateFormat},
	})

	table, err := Parse(data, FormatXLSX)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	row := table.Rows[0]

	numbers := []struct {
		column     string
		number     float64
		normalized string
	}{
		{"weight", 1234.5, "1234.5"},
		{"brix", 0.125, "0.125"},
		{"ratio", 3.14159, "3.14159"},
	}
	for _, tt := range numbers {
		got := row.Get(tt.column)
		if got.Kind != KindNumber || got.Number != tt.number {
			t.Errorf("%s = %+v, want number %v", tt.column, got, tt.number)
		}
		if n := got.Normalized(); n != tt.normalized {
			t.Errorf("%s normalized = %q, want %q", tt.column, n, tt.normalized)
		}
	}

	if got := row.Get("harvest").String(); got != "2024-03-15" {
		t.Errorf("harvest = %q, want 2024-03-15", got)
	}
	if got := row.Get("measured").String(); got != "2024-03-15 12:00:00" {
		t.Errorf("measured = %q, want 2024-03-15 12:00:00", got)
	}
	if d, ok := DateValue(row.Get("harvest")); !ok || d.Format("2006-01-02") != "2024-03-15" {
		t.Errorf("DateValue(harvest) = %v, %v", d, ok)
	}
}

func TestIsDateFormatCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"yyyy-mm-dd", true},
		{"d-mmm", true},
		{"[$-409]mmmm d, yyyy", true},
		{"0.00", false},
		{"#,##0.00\\ \"days\"", false},
		{"hh:mm:ss", false},
		{"[Red]0.0;[Blue]-0.0", false},
	}
	for _, tt := range tests {
		if got := isDateFormatCode(tt.code); got != tt.want {
			t.Errorf("isDateFormatCode(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestParseHeaderOnlyIsEmpty(t *testing.T) {
	for name, data := range map[string][]byte{
		"header only": []byte("sample_id,height\n"),
		"no content":  {},
		"blank rows":  []byte("sample_id,height\n,\n , \n"),
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(data, FormatCSV); !errors.Is(err, ErrEmptyFile) {
				t.Fatalf("err = %v, want ErrEmptyFile", err)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("a,b\n1,\"unterminated\n"), FormatCSV)
	var malformedErr *MalformedFileError
	if !errors.As(err, &malformedErr) {
		t.Fatalf("err = %v, want *MalformedFileError", err)
	}

	_, err = Parse([]byte("definitely not a workbook"), FormatXLSX)
	if !errors.As(err, &malformedErr) || malformedErr.Format != FormatXLSX {
		t.Fatalf("err = %v, want xlsx *MalformedFileError", err)
	}
}

func TestParseTooManyFields(t *testing.T) {
	_, err := Parse([]byte("a,b\n1,2,3\n"), FormatCSV)
	var malformedErr *MalformedFileError
	if !errors.As(err, &malformedErr) {
		t.Fatalf("err = %v, want *MalformedFileError", err)
	}
}

func TestNormalizeHeader(t *testing.T) {
	got := normalizeHeader([]string{" id ", "value", "", "value", "value", "value.1"})
	want := []string{"id", "value", "Unnamed: 2", "value.1", "value.2", "value.1.1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("normalizeHeader = %v, want %v", got, want)
	}
}

func TestParseAutoFallsBackToXLSX(t *testing.T) {
	data := buildXLSX(t, [][]any{{"sample_id"}, {"X1"}})

	table, format, err := ParseAuto(data)
	if err != nil {
		t.Fatalf("ParseAuto: %v", err)
	}
	if format != FormatXLSX {
		t.Fatalf("format = %s, want xlsx", format)
	}
	if table.Rows[0].Get("sample_id").String() != "X1" {
		t.Fatalf("row = %+v", table.Rows[0])
	}
}

func TestParseAutoKeepsCSVError(t *testing.T) {
	_, format, err := ParseAuto([]byte("a,b\n1,\"open\n"))
	if err == nil || format != FormatCSV {
		t.Fatalf("format=%s err=%v, want csv error", format, err)
	}
}

func TestLooksLikeCSV(t *testing.T) {
	if !LooksLikeCSV([]byte("a,b\n1,2")) {
		t.Error("comma and newline not detected")
	}
	if LooksLikeCSV([]byte("a;b\n1;2")) {
		t.Error("semicolon content reported as csv")
	}
	late := strings.Repeat("x", 2048) + ",\n"
	if LooksLikeCSV([]byte(late)) {
		t.Error("markers past the first KiB counted")
	}
}

func TestFormatFromFilename(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"data.csv", FormatCSV, false},
		{"Data.XLSX", FormatXLSX, false},
		{"legacy.xls", FormatUnknown, true},
		{"notes.txt", FormatUnknown, true},
		{"noext", FormatUnknown, true},
	}
	for _, tt := range tests {
		got, err := FormatFromFilename(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("FormatFromFilename(%q) err = %v", tt.name, err)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("FormatFromFilename(%q) err = %v, want ErrUnsupportedFormat", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("FormatFromFilename(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

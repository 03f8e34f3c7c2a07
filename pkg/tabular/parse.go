package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const sniffWindow = 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse decodes data in the given format. The first row is the header.
func Parse(data []byte, format Format) (*Table, error) {
	switch format {
	case FormatCSV:
		return parseCSV(data)
	case FormatXLSX:
		return parseXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// LooksLikeCSV reports whether the first KiB holds both a comma and a newline.
func LooksLikeCSV(data []byte) bool {
	window := head(data)
	return bytes.IndexByte(window, ',') >= 0 && bytes.IndexByte(window, '\n') >= 0
}

func head(data []byte) []byte {
	if len(data) > sniffWindow {
		return data[:sniffWindow]
	}
	return data
}

// Sniff guesses the format of undeclared content.
func Sniff(data []byte) Format {
	if LooksLikeCSV(data) {
		return FormatCSV
	}
	return FormatXLSX
}

// ParseAuto tries CSV first and falls back to XLSX when CSV parsing fails
// on content that does not look like CSV.
func ParseAuto(data []byte) (*Table, Format, error) {
	table, err := parseCSV(data)
	if err == nil {
		return table, FormatCSV, nil
	}
	if Sniff(data) == FormatCSV {
		return nil, FormatCSV, err
	}

	table, xerr := parseXLSX(data)
	if xerr != nil {
		return nil, FormatCSV, err
	}
	return table, FormatXLSX, nil
}

func parseCSV(data []byte) (*Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if bytes.IndexByte(head(data), 0) >= 0 {
		return nil, malformed(FormatCSV, errors.New("binary content"))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, malformed(FormatCSV, err)
	}

	records := make([][]string, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(FormatCSV, err)
		}
		if len(record) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, malformed(FormatCSV, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(header), len(record)))
		}
		records = append(records, record)
	}

	return buildTable(header, records)
}

func parseXLSX(data []byte) (*Table, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, malformed(FormatXLSX, err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	sheet := sheets[0]

	// Raw values: display formats would round numbers or turn them into text.
	rows, err := file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, malformed(FormatXLSX, fmt.Errorf("failed to read sheet '%s': %w", sheet, err))
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	cells := newCellReader(file, sheet)
	for r := 1; r < len(rows); r++ {
		for c, raw := range rows[r] {
			rows[r][c] = cells.text(c, r, raw)
		}
	}

	return buildTable(rows[0], rows[1:])
}

func buildTable(header []string, records [][]string) (*Table, error) {
	columns := normalizeHeader(header)
	if len(columns) == 0 {
		return nil, ErrEmptyFile
	}

	rows := make([]Row, 0, len(records))
	for _, record := range records {
		if blankRecord(record) {
			continue
		}
		row := make(Row, len(columns))
		for i, column := range columns {
			if i < len(record) {
				row[column] = ParseValue(record[i])
			} else {
				row[column] = NullValue()
			}
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	return &Table{Columns: columns, Rows: rows}, nil
}

// normalizeHeader trims names, names blank columns "Unnamed: N" and
// suffixes repeated names with ".1", ".2", ...
func normalizeHeader(header []string) []string {
	columns := make([]string, 0, len(header))
	seen := make(map[string]int, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if count, ok := seen[name]; ok {
			base := name
			for {
				count++
				name = base + "." + strconv.Itoa(count)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = count
		}
		seen[name] = 0
		columns = append(columns, name)
	}
	return columns
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

package tabular

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies how a tabular byte stream is encoded.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatXLSX
)

var ErrUnsupportedFormat = errors.New("unsupported file type")

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	default:
		return "unknown"
	}
}

// ContentType returns the MIME type conventionally used for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// ParseFormat maps a declared file type ("csv", "xlsx") to a Format.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(value, "."))) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: '%s'", ErrUnsupportedFormat, value)
	}
}

// FormatFromFilename derives the format from a file extension.
func FormatFromFilename(name string) (Format, error) {
	ext := filepath.Ext(name)
	if ext == "" {
		return FormatUnknown, fmt.Errorf("%w: '%s' has no extension", ErrUnsupportedFormat, name)
	}
	return ParseFormat(ext)
}

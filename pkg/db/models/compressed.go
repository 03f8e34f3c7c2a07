package models

import (
	"database/sql/driver"
	"fmt"
	"runtime"

	"github.com/klauspost/compress/zstd"
)

var encoder = func() *zstd.Encoder {
	encoder, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(runtime.NumCPU()),
	)
	if err != nil {
		panic(err)
	}
	return encoder
}()

var decoder = func() *zstd.Decoder {
	decoder, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(runtime.NumCPU()),
	)
	if err != nil {
		panic(err)
	}
	return decoder
}()

// CompressedBytes is a binary column stored zstd-compressed.
type CompressedBytes []byte

func (CompressedBytes) GormDataType() string {
	return "bytes"
}

// Scan implements sql.Scanner
func (c *CompressedBytes) Scan(value any) error {
	if value == nil {
		*c = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to scan compressed column from %T", value)
	}

	out, err := decoder.DecodeAll(raw, nil)
	if err != nil {
		return fmt.Errorf("failed to decompress column: %w", err)
	}
	*c = CompressedBytes(out)
	return nil
}

// Value implements driver.Valuer
func (c CompressedBytes) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	return encoder.EncodeAll(c, nil), nil
}

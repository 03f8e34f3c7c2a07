package tabular

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

const (
	DefaultChunkSize      = 1 << 20
	DefaultChunkThreshold = 10 << 20
)

type ReadOptions struct {
	ChunkSize      int
	ChunkThreshold int64
}

// ReadAll reads r fully. Inputs whose declared size exceeds the threshold
// are read in bounded chunks; a negative size means unknown.
func ReadAll(r io.Reader, size int64, opts ReadOptions) ([]byte, error) {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkThreshold <= 0 {
		opts.ChunkThreshold = DefaultChunkThreshold
	}

	if size >= 0 && size <= opts.ChunkThreshold {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read content: %w", err)
		}
		return data, nil
	}

	var buffer bytes.Buffer
	chunk := make([]byte, opts.ChunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buffer.Write(chunk[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read content chunk: %w", err)
		}
	}
	return buffer.Bytes(), nil
}

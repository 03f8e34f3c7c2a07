package tabular

import (
	"errors"
	"fmt"
)

var ErrEmptyFile = errors.New("file contains no data rows")

// MalformedFileError is returned when content cannot be read in the declared format.
type MalformedFileError struct {
	Format Format
	Err    error
}

func (e *MalformedFileError) Error() string {
	return fmt.Sprintf("failed to parse %s content: %v", e.Format, e.Err)
}

func (e *MalformedFileError) Unwrap() error {
	return e.Err
}

func malformed(format Format, err error) error {
	return &MalformedFileError{Format: format, Err: err}
}

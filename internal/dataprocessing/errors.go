package dataprocessing

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownFile      = errors.New("file name does not identify a GGSN or IX feed")
	ErrMissingColumn    = errors.New("required column missing")
	ErrInvalidTimestamp = errors.New("invalid util_time")
	ErrInvalidNumber    = errors.New("invalid utilization value")
	ErrNoData           = errors.New("workbook has no data rows")
)

// IngestionError describes why a workbook was rejected. Row is the 1-based
// sheet row, zero when the problem is not tied to a row.
type IngestionError struct {
	File   string
	Row    int
	Column string
	Err    error
}

func (e *IngestionError) Error() string {
	switch {
	case e.Row > 0 && e.Column != "":
		return fmt.Sprintf("%s: row %d, column %s: %v", e.File, e.Row, e.Column, e.Err)
	case e.Column != "":
		return fmt.Sprintf("%s: column %s: %v", e.File, e.Column, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.File, e.Err)
	}
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

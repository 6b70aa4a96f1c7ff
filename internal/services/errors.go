package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingData is returned when the requested source kind was not
	// loaded in the session. The text is shown to operators verbatim.
	ErrMissingData = errors.New("Please upload the correct files.")

	// ErrNoUsableFiles is returned when none of the uploaded files could be
	// loaded.
	ErrNoUsableFiles = errors.New("no usable files uploaded")
)

// NoUsableFilesError carries the per-file warnings of a failed upload.
type NoUsableFilesError struct {
	Warnings []string
}

func (e *NoUsableFilesError) Error() string {
	if len(e.Warnings) == 0 {
		return ErrNoUsableFiles.Error()
	}
	return fmt.Sprintf("%v: %s", ErrNoUsableFiles, strings.Join(e.Warnings, "; "))
}

func (e *NoUsableFilesError) Unwrap() error {
	return ErrNoUsableFiles
}

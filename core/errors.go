package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no CSV is present after extracting a dataset
	ErrNotFound = errors.New("no CSV file found in the extracted dataset")

	// ErrColumnNotFound is returned when a table lacks the requested column
	ErrColumnNotFound = errors.New("column not found")
)

// RemoteServiceError wraps any failure of the remote dataset service
type RemoteServiceError struct {
	Dataset    string
	File       string
	StatusCode int
	Err        error
}

func (e *RemoteServiceError) Error() string {
	target := e.Dataset
	if e.File != "" {
		target = fmt.Sprintf("%s (%s)", e.Dataset, e.File)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s failed with status %d: %v", target, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("download %s failed: %v", target, e.Err)
}

func (e *RemoteServiceError) Unwrap() error { return e.Err }

// ArchiveError reports a missing or malformed archive
type ArchiveError struct {
	Path string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive %s: %v", e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// DateParseError is raised for an unparseable date under the strict policy
type DateParseError struct {
	Column string
	Row    int
	Value  string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("unparseable date %q in column %s at row %d", e.Value, e.Column, e.Row)
}

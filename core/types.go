package core

import (
	"fmt"
	"path"
	"strings"
)

// Format tags a local artifact by how it can be read
type Format string

const (
	FormatCSV         Format = "csv"
	FormatSpreadsheet Format = "spreadsheet"
	FormatArchive     Format = "archive"
	FormatUnknown     Format = "unknown"
)

// FormatOf derives the artifact format from a file name extension
func FormatOf(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return FormatCSV
	case ".xlsx", ".xlsm":
		return FormatSpreadsheet
	case ".zip":
		return FormatArchive
	}
	return FormatUnknown
}

// IsArchive reports whether name carries an archive extension
func IsArchive(name string) bool {
	return FormatOf(name) == FormatArchive
}

// DatasetReference identifies a remote dataset, optionally narrowed to a
// single file inside it
type DatasetReference struct {
	Owner string
	Name  string
	File  string
}

// ParseDatasetReference parses "owner/name" into a reference
func ParseDatasetReference(dataset string) (DatasetReference, error) {
	parts := strings.Split(strings.Trim(dataset, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return DatasetReference{}, fmt.Errorf("invalid dataset reference %q: expected owner/name", dataset)
	}
	return DatasetReference{Owner: parts[0], Name: parts[1]}, nil
}

// WithFile returns a copy of the reference scoped to one file
func (r DatasetReference) WithFile(file string) DatasetReference {
	r.File = file
	return r
}

// String returns the owner/name identifier used by the remote service
func (r DatasetReference) String() string {
	return r.Owner + "/" + r.Name
}

// Slug is the trailing name segment, used to name the local archive
func (r DatasetReference) Slug() string {
	return r.Name
}

// ArchiveName is the local file name of the whole-dataset archive
func (r DatasetReference) ArchiveName() string {
	return r.Slug() + ".zip"
}

// LocalArtifact is a file in the working directory produced by acquisition
type LocalArtifact struct {
	Path   string
	Format Format
}

// NewArtifact builds an artifact, tagging it by extension
func NewArtifact(p string) LocalArtifact {
	return LocalArtifact{Path: p, Format: FormatOf(p)}
}

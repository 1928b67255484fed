// Package history describes saved exports
package history

import (
	"strings"

	"psycdata/domain/core"
)

// Format of an exported file
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Valid reports whether f is a supported export format
func (f Format) Valid() bool {
	return f == FormatCSV || f == FormatJSON
}

// Extension returns the file extension including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// FormatForPath infers the format from a file extension, defaulting to CSV
func FormatForPath(path string) Format {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return FormatJSON
	}
	return FormatCSV
}

// Record is one saved export
type Record struct {
	ID        core.ExportID  `json:"id" db:"id"`
	Path      string         `json:"path" db:"path"`
	Format    Format         `json:"format" db:"format"`
	Analysis  string         `json:"analysis" db:"analysis"`
	Sheet     string         `json:"sheet" db:"sheet"`
	Bytes     int            `json:"bytes" db:"bytes"`
	CreatedAt core.Timestamp `json:"created_at" db:"-"`
}

// NewRecord stamps a new record with an id and the current time
func NewRecord(path string, format Format, analysisKind, sheet string, size int) *Record {
	return &Record{
		ID:        core.NewExportID(),
		Path:      path,
		Format:    format,
		Analysis:  analysisKind,
		Sheet:     sheet,
		Bytes:     size,
		CreatedAt: core.Now(),
	}
}

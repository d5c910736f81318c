package models

import (
	"path/filepath"
	"strings"
)

// Limits bounds the input workbooks accepted by the pipeline.
type Limits struct {
	// MaxFileSize is the largest accepted file in bytes.
	MaxFileSize int64
	// MinSheets and MaxSheets bound the number of sheets per workbook.
	MinSheets int
	MaxSheets int
	// Extensions lists accepted lower-case file extensions.
	Extensions []string
}

// DefaultLimits returns the default input limits: 10 MiB, 1-10 sheets,
// .xlsx or .xls.
func DefaultLimits() Limits {
	return Limits{
		MaxFileSize: 10 * 1024 * 1024,
		MinSheets:   1,
		MaxSheets:   10,
		Extensions:  []string{".xlsx", ".xls"},
	}
}

// AllowsExtension reports whether the path has an accepted extension.
func (l Limits) AllowsExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range l.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

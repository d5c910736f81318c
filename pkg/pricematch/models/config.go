package models

import (
	"path/filepath"
	"strings"
)

// DefaultThreshold is the similarity threshold used when none is given.
const DefaultThreshold = 80

// WorkingFile describes the spreadsheet that receives prices.
type WorkingFile struct {
	// FilePath is the path to the working workbook.
	FilePath string `json:"file_path" yaml:"file_path"`
	// DescriptionColumn holds the descriptions to price (A-Z).
	DescriptionColumn string `json:"description_column" yaml:"description_column"`
	// DescriptionRange is the inclusive row range of descriptions.
	DescriptionRange CellRange `json:"description_range" yaml:"description_range"`
	// PriceTargetColumn receives the resolved prices (A-Z).
	PriceTargetColumn string `json:"price_target_column" yaml:"price_target_column"`
}

// ReferenceFile describes the spreadsheet that supplies prices.
type ReferenceFile struct {
	// FilePath is the path to the reference workbook.
	FilePath string `json:"file_path" yaml:"file_path"`
	// DescriptionColumn holds the reference descriptions (A-Z).
	DescriptionColumn string `json:"description_column" yaml:"description_column"`
	// DescriptionRange is the inclusive row range of descriptions; prices
	// are read over the same rows.
	DescriptionRange CellRange `json:"description_range" yaml:"description_range"`
	// PriceSourceColumn holds the reference prices (A-Z).
	PriceSourceColumn string `json:"price_source_column" yaml:"price_source_column"`
}

// MatchingConfig is the complete, immutable description of one matching run.
// It is passed by value; nothing in the pipeline mutates it.
type MatchingConfig struct {
	WorkingFile   WorkingFile   `json:"working_file" yaml:"working_file"`
	ReferenceFile ReferenceFile `json:"reference_file" yaml:"reference_file"`
	// Threshold is the minimum accepted similarity score, 1-100.
	Threshold int `json:"matching_threshold" yaml:"matching_threshold"`
}

// Normalized returns a copy with trimmed, upper-cased columns and cleaned
// paths. The threshold is kept as given; callers that read configuration
// from a source apply DefaultThreshold when the key is absent.
func (c MatchingConfig) Normalized() MatchingConfig {
	c.WorkingFile.FilePath = cleanPath(c.WorkingFile.FilePath)
	c.WorkingFile.DescriptionColumn = normColumn(c.WorkingFile.DescriptionColumn)
	c.WorkingFile.PriceTargetColumn = normColumn(c.WorkingFile.PriceTargetColumn)
	c.ReferenceFile.FilePath = cleanPath(c.ReferenceFile.FilePath)
	c.ReferenceFile.DescriptionColumn = normColumn(c.ReferenceFile.DescriptionColumn)
	c.ReferenceFile.PriceSourceColumn = normColumn(c.ReferenceFile.PriceSourceColumn)
	return c
}

func normColumn(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}

package models

import (
	"github.com/shopspring/decimal"
)

// DescriptionEntry is one non-empty description cell.
type DescriptionEntry struct {
	// Text is the trimmed cell content.
	Text string `json:"text" yaml:"text"`
	// Cell is the cell address, e.g. "C4".
	Cell string `json:"cell" yaml:"cell"`
}

// PriceMap maps a cell address to its parsed price. Empty cells are absent.
type PriceMap map[string]decimal.Decimal

// Lookup returns the price stored at cell, or zero when absent.
func (m PriceMap) Lookup(cell string) (decimal.Decimal, bool) {
	p, ok := m[cell]
	if !ok {
		return decimal.Zero, false
	}
	return p, true
}

// MatchCandidate is the best reference entry seen so far for one working
// description.
type MatchCandidate struct {
	Description string
	Cell        string
	Price       decimal.Decimal
	Score       float64
}

// MatchResult is an accepted match between a working and a reference entry.
type MatchResult struct {
	// WorkingDescription is the description from the working file.
	WorkingDescription string `json:"working_description" yaml:"working_description"`
	// WorkingCell is the address of the working description.
	WorkingCell string `json:"working_cell" yaml:"working_cell"`
	// ReferenceDescription is the matched reference description.
	ReferenceDescription string `json:"reference_description" yaml:"reference_description"`
	// ReferenceCell is the address of the matched reference description.
	ReferenceCell string `json:"reference_cell" yaml:"reference_cell"`
	// Score is the similarity score in [0, 100].
	Score float64 `json:"score" yaml:"score"`
	// Price is the reference price resolved for the match.
	Price decimal.Decimal `json:"price" yaml:"price"`
}

// WorkingRow returns the row of the working description.
func (r MatchResult) WorkingRow() (int, error) {
	return RowOf(r.WorkingCell)
}

// Statistics summarizes a set of match results.
type Statistics struct {
	Total   int     `json:"total_matches" yaml:"total_matches"`
	Average float64 `json:"average_score" yaml:"average_score"`
	Min     float64 `json:"min_score" yaml:"min_score"`
	Max     float64 `json:"max_score" yaml:"max_score"`
}

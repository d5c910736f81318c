// Package models defines data structures shared by the matching pipeline.
package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// IsColumn reports whether s is a single uppercase column letter A-Z.
// Multi-letter columns (AA and beyond) are not supported.
func IsColumn(s string) bool {
	return len(s) == 1 && s[0] >= 'A' && s[0] <= 'Z'
}

// CellName joins a column and a 1-based row into an address such as "C12".
func CellName(column string, row int) string {
	return column + strconv.Itoa(row)
}

// SplitCell splits an address such as "C12" into its column and row.
func SplitCell(cell string) (string, int, error) {
	col, row, err := excelize.SplitCellName(cell)
	if err != nil {
		return "", 0, fmt.Errorf("invalid cell address %q: %w", cell, err)
	}
	return col, row, nil
}

// RowOf returns the row number of a cell address.
func RowOf(cell string) (int, error) {
	_, row, err := SplitCell(cell)
	return row, err
}

// CellRange is an inclusive row range inside one column.
// Each endpoint is either a row number ("2") or a cell address ("C2").
type CellRange struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// String formats the range as "start:end".
func (r CellRange) String() string {
	return r.Start + ":" + r.End
}

// Rows resolves both endpoints to row numbers. Endpoints written as cell
// addresses must use the given column unless column is empty. It does not
// check start < end.
func (r CellRange) Rows(column string) (int, int, error) {
	start, err := parseEndpoint(r.Start, column)
	if err != nil {
		return 0, 0, fmt.Errorf("start: %w", err)
	}
	end, err := parseEndpoint(r.End, column)
	if err != nil {
		return 0, 0, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}

// Bounds resolves the range and additionally requires start < end.
func (r CellRange) Bounds(column string) (int, int, error) {
	start, end, err := r.Rows(column)
	if err != nil {
		return 0, 0, err
	}
	if start >= end {
		return 0, 0, fmt.Errorf("start row %d must be less than end row %d", start, end)
	}
	return start, end, nil
}

func parseEndpoint(s, column string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty row")
	}
	if isDigits(s) {
		row, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid row %q: %w", s, err)
		}
		if row < 1 {
			return 0, fmt.Errorf("row %d must be positive", row)
		}
		return row, nil
	}
	col, row, err := SplitCell(strings.ToUpper(s))
	if err != nil {
		return 0, err
	}
	if column != "" && col != column {
		return 0, fmt.Errorf("cell %s is not in column %s", s, column)
	}
	return row, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

package parser

import (
	"github.com/xuri/excelize/v2"
)

// Bounds is the 1-based bounding box of the non-empty cells of a sheet.
// All fields are zero for an empty sheet.
type Bounds struct {
	MinRow, MaxRow int
	MinCol, MaxCol int
}

// Empty reports whether the sheet had no data.
func (b Bounds) Empty() bool {
	return b.MaxRow == 0
}

// UsedBounds returns the data bounds of the active sheet of path.
func (s *Store) UsedBounds(path string) (Bounds, error) {
	wb, err := s.Handle(path)
	if err != nil {
		return Bounds{}, err
	}
	return sheetBounds(wb.File, wb.Sheet)
}

func sheetBounds(f *excelize.File, sheet string) (Bounds, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Bounds{}, err
	}
	return dataBounds(rows), nil
}

// dataBounds scans rows as returned by GetRows.
func dataBounds(rows [][]string) Bounds {
	var b Bounds
	for rowIdx, row := range rows {
		for colIdx, cell := range row {
			if cell == "" {
				continue
			}
			r, c := rowIdx+1, colIdx+1
			if b.MinRow == 0 || r < b.MinRow {
				b.MinRow = r
			}
			if r > b.MaxRow {
				b.MaxRow = r
			}
			if b.MinCol == 0 || c < b.MinCol {
				b.MinCol = c
			}
			if c > b.MaxCol {
				b.MaxCol = c
			}
		}
	}
	return b
}

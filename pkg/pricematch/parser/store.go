// Package parser owns the workbooks of a matching run. A Store opens the
// working and reference files once, extracts description and price cells
// from them, and lets the report writer modify the same handles.
//
// A Store is not safe for concurrent use. Build one per run.
package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	pmerrors "github.com/ukaji3/pricematch-go/pkg/pricematch/errors"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/models"
)

// Workbook is an open spreadsheet and the sheet the pipeline works on.
type Workbook struct {
	// Path is the normalized absolute path the handle is keyed by.
	Path string
	// File is the excelize handle.
	File *excelize.File
	// Sheet is the active sheet name; it is the only sheet read or written.
	Sheet string
}

// Store is a table of open workbooks keyed by normalized path.
type Store struct {
	limits  models.Limits
	handles map[string]*Workbook
}

// NewStore creates an empty store enforcing the given limits on Load.
func NewStore(limits models.Limits) *Store {
	return &Store{
		limits:  limits,
		handles: make(map[string]*Workbook),
	}
}

// Load closes previously held handles and opens both workbooks. The same
// path given twice yields a single handle.
//
// Cell reads return the value cached in the file for formula cells;
// formulas are never evaluated.
func (s *Store) Load(workingPath, referencePath string) error {
	if err := s.CloseAll(); err != nil {
		return pmerrors.NewProcessingError("load", "", err)
	}
	for _, path := range []string{workingPath, referencePath} {
		if err := s.open(path); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) open(path string) error {
	key, err := normalizePath(path)
	if err != nil {
		return pmerrors.NewProcessingError("load", path, err)
	}
	if _, ok := s.handles[key]; ok {
		return nil
	}

	info, err := os.Stat(key)
	if err != nil {
		return pmerrors.NewProcessingError("load", path, err)
	}
	if s.limits.MaxFileSize > 0 && info.Size() > s.limits.MaxFileSize {
		return pmerrors.NewProcessingError("load", path,
			fmt.Errorf("file size %d bytes exceeds limit of %d bytes", info.Size(), s.limits.MaxFileSize))
	}

	f, err := excelize.OpenFile(key)
	if err != nil {
		return pmerrors.NewProcessingError("load", path, err)
	}

	sheets := f.GetSheetList()
	if n := len(sheets); (s.limits.MaxSheets > 0 && n > s.limits.MaxSheets) || n < s.limits.MinSheets || n == 0 {
		_ = f.Close()
		return pmerrors.NewProcessingError("load", path,
			fmt.Errorf("workbook has %d sheets, allowed %d-%d", n, s.limits.MinSheets, s.limits.MaxSheets))
	}

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		sheet = sheets[0]
	}
	s.handles[key] = &Workbook{Path: key, File: f, Sheet: sheet}
	return nil
}

// Handle returns the open workbook for path.
func (s *Store) Handle(path string) (*Workbook, error) {
	key, err := normalizePath(path)
	if err != nil {
		return nil, pmerrors.NewProcessingError("lookup", path, err)
	}
	wb, ok := s.handles[key]
	if !ok {
		return nil, pmerrors.NewProcessingError("lookup", path, pmerrors.ErrNoHandle)
	}
	return wb, nil
}

// ReadDescriptions reads column over the inclusive row range of the active
// sheet. Empty cells are skipped, text is trimmed, and row order is kept.
func (s *Store) ReadDescriptions(path, column string, rng models.CellRange) ([]models.DescriptionEntry, error) {
	wb, err := s.Handle(path)
	if err != nil {
		return nil, err
	}
	start, end, err := rng.Rows(column)
	if err != nil {
		return nil, pmerrors.NewProcessingError("read_descriptions", path, err)
	}

	var entries []models.DescriptionEntry
	for row := start; row <= end; row++ {
		cell := models.CellName(column, row)
		value, err := wb.File.GetCellValue(wb.Sheet, cell)
		if err != nil {
			return nil, pmerrors.NewCellError("read_descriptions", path, cell, err)
		}
		text := strings.TrimSpace(value)
		if text == "" {
			continue
		}
		entries = append(entries, models.DescriptionEntry{Text: text, Cell: cell})
	}
	return entries, nil
}

// ReadPrices reads column over the inclusive row range and parses every
// non-empty cell as a decimal. The first non-numeric cell fails the read;
// boolean and date cells count as non-numeric.
func (s *Store) ReadPrices(path, column string, rng models.CellRange) (models.PriceMap, error) {
	wb, err := s.Handle(path)
	if err != nil {
		return nil, err
	}
	// Prices are read over the description rows, whose endpoints may carry
	// the description column letter.
	start, end, err := rng.Rows("")
	if err != nil {
		return nil, pmerrors.NewProcessingError("read_prices", path, err)
	}

	prices := make(models.PriceMap)
	for row := start; row <= end; row++ {
		cell := models.CellName(column, row)
		raw, err := wb.File.GetCellValue(wb.Sheet, cell, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, pmerrors.NewCellError("read_prices", path, cell, err)
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if err := checkPriceCell(wb.File, wb.Sheet, cell); err != nil {
			return nil, pmerrors.NewCellError("read_prices", path, cell, err)
		}
		price, err := parsePrice(raw)
		if err != nil {
			return nil, pmerrors.NewCellError("read_prices", path, cell, err)
		}
		prices[cell] = price
	}
	return prices, nil
}

// WriteValue writes a scalar into cell of the already open workbook.
// decimal.Decimal values are stored as numbers.
func (s *Store) WriteValue(path, cell string, value any) error {
	wb, err := s.Handle(path)
	if err != nil {
		return err
	}
	if d, ok := value.(decimal.Decimal); ok {
		value = d.InexactFloat64()
	}
	if err := wb.File.SetCellValue(wb.Sheet, cell, value); err != nil {
		return pmerrors.NewCellError("write", path, cell, err)
	}
	return nil
}

// Save persists the workbook for path in place.
func (s *Store) Save(path string) error {
	wb, err := s.Handle(path)
	if err != nil {
		return err
	}
	if err := wb.File.Save(); err != nil {
		return pmerrors.NewProcessingError("save", path, err)
	}
	return nil
}

// Paths returns the normalized paths of all open workbooks, sorted.
func (s *Store) Paths() []string {
	paths := make([]string, 0, len(s.handles))
	for p := range s.handles {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of open workbooks.
func (s *Store) Len() int {
	return len(s.handles)
}

// CloseAll releases every open workbook and clears the table. It is safe to
// call repeatedly; close failures are joined into the returned error.
func (s *Store) CloseAll() error {
	var errs []error
	for key, wb := range s.handles {
		if err := wb.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", key, err))
		}
		delete(s.handles, key)
	}
	return errors.Join(errs...)
}

// SheetCount opens path just long enough to count its sheets.
func SheetCount(path string) (int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return len(f.GetSheetList()), nil
}

func normalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("empty path")
	}
	return filepath.Abs(filepath.Clean(path))
}

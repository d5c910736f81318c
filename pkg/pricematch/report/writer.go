// Package report writes match results back into the working workbook and
// produces a standalone audit workbook listing every match.
package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	pmerrors "github.com/ukaji3/pricematch-go/pkg/pricematch/errors"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/models"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/parser"
)

const (
	// SourceHeader labels the provenance column in row 1 of the working sheet.
	SourceHeader = "Price Source"

	// SheetName is the only sheet of the audit workbook.
	SheetName = "Matching Report"

	// SourceFill is the background of provenance cells.
	SourceFill = "#E6E6FA"

	reportPrefix = "matching_report_"
	stampLayout  = "20060102_150405"
)

// Headers are the audit workbook columns.
var Headers = []string{
	"Working description",
	"Working cell",
	"Reference description",
	"Reference cell",
	"Price",
	"Similarity (%)",
	"Target cell",
}

// Writer records results through the handles of a parser.Store.
type Writer struct {
	store *parser.Store
	now   func() time.Time
}

// NewWriter creates a Writer over store. The working workbook must already be
// loaded into it.
func NewWriter(store *parser.Store) *Writer {
	return &Writer{store: store, now: time.Now}
}

// WithClock overrides the clock used to name the audit workbook.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// WriteResults writes each matched price into priceTargetColumn of the
// working workbook, tags it in the provenance column, saves the workbook in
// place, and then writes the audit workbook next to it. It returns the path
// of the audit workbook.
func (w *Writer) WriteResults(results []models.MatchResult, workingPath, priceTargetColumn string) (string, error) {
	if _, err := os.Stat(workingPath); err != nil {
		return "", pmerrors.NewProcessingError("report", workingPath, fmt.Errorf("working file not found: %w", err))
	}
	if err := w.annotate(results, workingPath, priceTargetColumn); err != nil {
		return "", err
	}
	return w.writeAudit(results, workingPath, priceTargetColumn)
}

func (w *Writer) annotate(results []models.MatchResult, path, priceColumn string) error {
	wb, err := w.store.Handle(path)
	if err != nil {
		return err
	}

	sourceColumn, err := w.sourceColumn(wb, path, priceColumn)
	if err != nil {
		return err
	}

	style, err := wb.File.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{SourceFill}, Pattern: 1},
	})
	if err != nil {
		return pmerrors.NewProcessingError("style", path, err)
	}

	for _, r := range results {
		row, err := r.WorkingRow()
		if err != nil {
			return pmerrors.NewCellError("write", path, r.WorkingCell, err)
		}
		if err := w.store.WriteValue(path, models.CellName(priceColumn, row), r.Price); err != nil {
			return err
		}

		cell := models.CellName(sourceColumn, row)
		if err := w.store.WriteValue(path, cell, Provenance(r)); err != nil {
			return err
		}
		if err := wb.File.SetCellStyle(wb.Sheet, cell, cell, style); err != nil {
			return pmerrors.NewCellError("style", path, cell, err)
		}
	}

	return w.store.Save(path)
}

// sourceColumn returns the column whose row 1 holds SourceHeader. If there
// is none, a new one is created after both the last used column and the
// price column.
func (w *Writer) sourceColumn(wb *parser.Workbook, path, priceColumn string) (string, error) {
	bounds, err := w.store.UsedBounds(path)
	if err != nil {
		return "", pmerrors.NewProcessingError("report", path, err)
	}

	for col := 1; col <= bounds.MaxCol; col++ {
		cell, err := excelize.CoordinatesToCellName(col, 1)
		if err != nil {
			return "", pmerrors.NewProcessingError("report", path, err)
		}
		v, err := wb.File.GetCellValue(wb.Sheet, cell)
		if err != nil {
			return "", pmerrors.NewCellError("read", path, cell, err)
		}
		if v == SourceHeader {
			return excelize.ColumnNumberToName(col)
		}
	}

	priceIdx, err := excelize.ColumnNameToNumber(priceColumn)
	if err != nil {
		return "", pmerrors.NewProcessingError("report", path, err)
	}
	name, err := excelize.ColumnNumberToName(max(bounds.MaxCol, priceIdx) + 1)
	if err != nil {
		return "", pmerrors.NewProcessingError("report", path, err)
	}
	if err := w.store.WriteValue(path, models.CellName(name, 1), SourceHeader); err != nil {
		return "", err
	}
	return name, nil
}

// Provenance formats the source note written next to a filled price.
func Provenance(r models.MatchResult) string {
	return fmt.Sprintf("REF:%s, similarity: %.1f%%", r.ReferenceCell, r.Score)
}

// FileName returns the audit workbook name for the given time.
func FileName(t time.Time) string {
	return reportPrefix + t.Format(stampLayout) + ".xlsx"
}

// maxNameAttempts bounds the numbered names tried when reports collide.
const maxNameAttempts = 1000

// createReport creates a new, empty report file in dir. When the timestamped
// name is taken, for instance by another run in the same second, it appends
// _2, _3, ... before the extension. Existing reports are never overwritten.
func createReport(dir string, t time.Time) (string, *os.File, error) {
	base := reportPrefix + t.Format(stampLayout)
	for n := 1; n <= maxNameAttempts; n++ {
		name := base + ".xlsx"
		if n > 1 {
			name = fmt.Sprintf("%s_%d.xlsx", base, n)
		}
		path := filepath.Join(dir, name)
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return path, file, nil
		}
		if !os.IsExist(err) {
			return path, nil, err
		}
	}
	return "", nil, fmt.Errorf("no free report name for %s in %s", base, dir)
}

func (w *Writer) writeAudit(results []models.MatchResult, workingPath, priceColumn string) (string, error) {
	dir, now := filepath.Dir(workingPath), w.now()
	path := filepath.Join(dir, FileName(now))

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return "", pmerrors.NewProcessingError("report", path, err)
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return "", pmerrors.NewProcessingError("report", path, err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", pmerrors.NewProcessingError("report", path, err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return "", pmerrors.NewProcessingError("report", path, err)
	}

	for i, r := range results {
		row, err := r.WorkingRow()
		if err != nil {
			return "", pmerrors.NewCellError("report", path, r.WorkingCell, err)
		}
		values := []any{
			r.WorkingDescription,
			r.WorkingCell,
			r.ReferenceDescription,
			r.ReferenceCell,
			r.Price.InexactFloat64(),
			math.Round(r.Score*10) / 10,
			models.CellName(priceColumn, row),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return "", pmerrors.NewProcessingError("report", path, err)
		}
	}

	for _, c := range []struct {
		from, to string
		width    float64
	}{
		{"A", "A", 40},
		{"B", "B", 14},
		{"C", "C", 40},
		{"D", "G", 14},
	} {
		if err := f.SetColWidth(SheetName, c.from, c.to, c.width); err != nil {
			return "", pmerrors.NewProcessingError("report", path, err)
		}
	}

	path, out, err := createReport(dir, now)
	if err != nil {
		return "", pmerrors.NewProcessingError("report", path, err)
	}
	if err := f.Write(out); err != nil {
		out.Close()
		os.Remove(path)
		return "", pmerrors.NewProcessingError("report", path, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", pmerrors.NewProcessingError("report", path, err)
	}
	return path, nil
}

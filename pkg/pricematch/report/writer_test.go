package report

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	pmerrors "github.com/ukaji3/pricematch-go/pkg/pricematch/errors"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/models"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/parser"
)

var fixedTime = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func writeWorkbook(t *testing.T, dir string, cells map[string]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for cell, value := range cells {
		require.NoError(t, f.SetCellValue("Sheet1", cell, value))
	}
	path := filepath.Join(dir, "working.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func openStore(t *testing.T, path string) *parser.Store {
	t.Helper()
	store := parser.NewStore(models.DefaultLimits())
	t.Cleanup(func() { store.CloseAll() })
	require.NoError(t, store.Load(path, path))
	return store
}

func cellValue(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell)
	require.NoError(t, err)
	return v
}

func sampleResults() []models.MatchResult {
	return []models.MatchResult{
		{
			WorkingDescription:   "Bolt M6",
			WorkingCell:          "A2",
			ReferenceDescription: "Bolt M6",
			ReferenceCell:        "C2",
			Score:                100,
			Price:                decimal.RequireFromString("5.00"),
		},
		{
			WorkingDescription:   "Hex nut",
			WorkingCell:          "A4",
			ReferenceDescription: "Hex nuts",
			ReferenceCell:        "C7",
			Score:                93.33333,
			Price:                decimal.RequireFromString("0.35"),
		},
	}
}

func TestWriteResults(t *testing.T) {
	dir := t.TempDir()
	working := writeWorkbook(t, dir, map[string]any{
		"A1": "Description", "B1": "Qty", "F1": "Price",
		"A2": "Bolt M6", "A3": "Unknown", "A4": "Hex nut",
	})
	store := openStore(t, working)

	reportPath, err := NewWriter(store).WithClock(func() time.Time { return fixedTime }).
		WriteResults(sampleResults(), working, "F")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "matching_report_20240309_140507.xlsx"), reportPath)
	require.NoError(t, store.CloseAll())

	f, err := excelize.OpenFile(working)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "5", cellValue(t, f, "Sheet1", "F2"))
	assert.Equal(t, "", cellValue(t, f, "Sheet1", "F3"))
	assert.Equal(t, "0.35", cellValue(t, f, "Sheet1", "F4"))

	// F is both the price column and the last used column.
	assert.Equal(t, SourceHeader, cellValue(t, f, "Sheet1", "G1"))
	assert.Equal(t, "REF:C2, similarity: 100.0%", cellValue(t, f, "Sheet1", "G2"))
	assert.Equal(t, "REF:C7, similarity: 93.3%", cellValue(t, f, "Sheet1", "G4"))

	styleID, err := f.GetCellStyle("Sheet1", "G2")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	assert.Equal(t, "pattern", style.Fill.Type)
	require.NotEmpty(t, style.Fill.Color)
	assert.Contains(t, style.Fill.Color[0], "E6E6FA")

	rf, err := excelize.OpenFile(reportPath)
	require.NoError(t, err)
	defer rf.Close()

	assert.Equal(t, []string{SheetName}, rf.GetSheetList())
	rows, err := rf.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Headers, rows[0])
	assert.Equal(t, []string{"Hex nut", "A4", "Hex nuts", "C7", "0.35", "93.3", "F4"}, rows[2])
}

func TestWriteResults_ProvenanceColumnPlacement(t *testing.T) {
	tests := []struct {
		name  string
		cells map[string]any
		price string
		want  string
	}{
		{
			name:  "price column beyond used range",
			cells: map[string]any{"A1": "Description", "B1": "Unit", "A2": "Bolt M6"},
			price: "E",
			want:  "F",
		},
		{
			name:  "used range beyond price column",
			cells: map[string]any{"A1": "Description", "H1": "Notes", "A2": "Bolt M6"},
			price: "C",
			want:  "I",
		},
		{
			name:  "existing header is reused",
			cells: map[string]any{"A1": "Description", "D1": SourceHeader, "H1": "Notes", "A2": "Bolt M6"},
			price: "C",
			want:  "D",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			working := writeWorkbook(t, t.TempDir(), tt.cells)
			store := openStore(t, working)

			_, err := NewWriter(store).WriteResults(sampleResults()[:1], working, tt.price)
			require.NoError(t, err)

			wb, err := store.Handle(working)
			require.NoError(t, err)
			assert.Equal(t, SourceHeader, cellValue(t, wb.File, wb.Sheet, tt.want+"1"))
			assert.Equal(t, "REF:C2, similarity: 100.0%", cellValue(t, wb.File, wb.Sheet, tt.want+"2"))
		})
	}
}

func TestWriteResults_Empty(t *testing.T) {
	working := writeWorkbook(t, t.TempDir(), map[string]any{"A1": "Description"})
	store := openStore(t, working)

	reportPath, err := NewWriter(store).WriteResults(nil, working, "B")
	require.NoError(t, err)

	rf, err := excelize.OpenFile(reportPath)
	require.NoError(t, err)
	defer rf.Close()
	rows, err := rf.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriteResults_Errors(t *testing.T) {
	t.Run("working file removed", func(t *testing.T) {
		working := writeWorkbook(t, t.TempDir(), map[string]any{"A1": "x"})
		store := openStore(t, working)
		require.NoError(t, os.Remove(working))

		_, err := NewWriter(store).WriteResults(sampleResults(), working, "F")
		require.Error(t, err)
		assert.True(t, pmerrors.IsProcessing(err))
		assert.Contains(t, err.Error(), "working file not found")
	})

	t.Run("not loaded", func(t *testing.T) {
		working := writeWorkbook(t, t.TempDir(), map[string]any{"A1": "x"})
		store := parser.NewStore(models.DefaultLimits())

		_, err := NewWriter(store).WriteResults(sampleResults(), working, "F")
		assert.ErrorIs(t, err, pmerrors.ErrNoHandle)
		assert.True(t, pmerrors.IsProcessing(err))
	})
}

func TestProvenance(t *testing.T) {
	assert.Equal(t, "REF:C12, similarity: 80.0%", Provenance(models.MatchResult{ReferenceCell: "C12", Score: 80}))
	assert.Equal(t, "REF:B3, similarity: 85.7%", Provenance(models.MatchResult{ReferenceCell: "B3", Score: 85.714}))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "matching_report_20240309_140507.xlsx", FileName(fixedTime))
}

func TestWriteResults_SameSecondKeepsEarlierReport(t *testing.T) {
	working := writeWorkbook(t, t.TempDir(), map[string]any{
		"A2": "Bolt M6", "A4": "Hex nut",
	})
	store := openStore(t, working)
	clock := func() time.Time { return fixedTime }

	first, err := NewWriter(store).WithClock(clock).WriteResults(sampleResults(), working, "F")
	require.NoError(t, err)
	second, err := NewWriter(store).WithClock(clock).WriteResults(sampleResults()[:1], working, "F")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "matching_report_20240309_140507_2.xlsx", filepath.Base(second))

	rf, err := excelize.OpenFile(first)
	require.NoError(t, err)
	defer rf.Close()
	rows, err := rf.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 3, "first report must not be overwritten")
}

func TestCreateReport_Concurrent(t *testing.T) {
	dir := t.TempDir()
	const n = 8

	paths := make(chan string, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			path, f, err := createReport(dir, fixedTime)
			if !assert.NoError(t, err) {
				return
			}
			f.Close()
			paths <- path
		}()
	}
	wg.Wait()
	close(paths)

	seen := make(map[string]bool)
	for p := range paths {
		assert.False(t, seen[p], "duplicate report path %s", p)
		seen[p] = true
	}
	assert.Len(t, seen, n)
}

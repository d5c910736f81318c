package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	pmerrors "github.com/ukaji3/pricematch-go/pkg/pricematch/errors"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/models"
)

func newWorkbook(t *testing.T, dir, name string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Bolt"))
	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func validConfig(t *testing.T) models.MatchingConfig {
	t.Helper()
	dir := t.TempDir()
	return models.MatchingConfig{
		WorkingFile: models.WorkingFile{
			FilePath:          newWorkbook(t, dir, "working.xlsx"),
			DescriptionColumn: "A",
			DescriptionRange:  models.CellRange{Start: "2", End: "10"},
			PriceTargetColumn: "F",
		},
		ReferenceFile: models.ReferenceFile{
			FilePath:          newWorkbook(t, dir, "reference.xlsx"),
			DescriptionColumn: "C",
			DescriptionRange:  models.CellRange{Start: "C2", End: "C20"},
			PriceSourceColumn: "E",
		},
		Threshold: 80,
	}
}

func fields(res Result) []string {
	out := make([]string, len(res.Violations))
	for i, v := range res.Violations {
		out[i] = v.Field
	}
	return out
}

func TestValidate_Valid(t *testing.T) {
	res := New(models.DefaultLimits()).Validate(validConfig(t))
	assert.True(t, res.Valid, "violations: %v", res.Violations)
	assert.NoError(t, res.Err())
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name  string
		rng   models.CellRange
		valid bool
	}{
		{"ascending rows", models.CellRange{Start: "2", End: "3"}, true},
		{"equal rows", models.CellRange{Start: "5", End: "5"}, false},
		{"descending rows", models.CellRange{Start: "9", End: "3"}, false},
		{"own column addresses", models.CellRange{Start: "A2", End: "A9"}, true},
		{"lower-case own column", models.CellRange{Start: "a2", End: "a9"}, true},
		{"other column start", models.CellRange{Start: "B2", End: "A9"}, false},
		{"other column end", models.CellRange{Start: "A2", End: "B9"}, false},
		{"zero row", models.CellRange{Start: "0", End: "9"}, false},
		{"empty start", models.CellRange{Start: "", End: "9"}, false},
		{"garbage", models.CellRange{Start: "x-1", End: "9"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			cfg.WorkingFile.DescriptionRange = tt.rng
			res := New(models.DefaultLimits()).Validate(cfg)
			assert.Equal(t, tt.valid, res.Valid, "violations: %v", res.Violations)
			if !tt.valid {
				assert.Contains(t, fields(res), "working_file.description_range")
			}
		})
	}
}

func TestValidate_RangeOrderMessage(t *testing.T) {
	cfg := validConfig(t)
	cfg.ReferenceFile.DescriptionRange = models.CellRange{Start: "C7", End: "4"}

	res := New(models.DefaultLimits()).Validate(cfg)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "reference_file.description_range", res.Violations[0].Field)
	assert.Equal(t, "invalid range C7:4: start row 7 must be less than end row 4", res.Violations[0].Message)
}

func TestValidate_Columns(t *testing.T) {
	for _, col := range []string{"", "AA", "a", "1", "É"} {
		cfg := validConfig(t)
		cfg.ReferenceFile.PriceSourceColumn = col
		res := New(models.DefaultLimits()).Validate(cfg)
		assert.False(t, res.Valid, "column %q should be rejected", col)
		assert.Contains(t, fields(res), "reference_file.price_source_column")
	}
}

func TestValidate_PriceColumnMustDifferFromDescription(t *testing.T) {
	cfg := validConfig(t)
	cfg.WorkingFile.PriceTargetColumn = "A"
	cfg.ReferenceFile.PriceSourceColumn = "C"

	res := New(models.DefaultLimits()).Validate(cfg)
	require.False(t, res.Valid)
	assert.ElementsMatch(t, []string{
		"working_file.price_target_column",
		"reference_file.price_source_column",
	}, fields(res))
}

func TestValidate_Threshold(t *testing.T) {
	for _, th := range []int{-1, 0, 101} {
		cfg := validConfig(t)
		cfg.Threshold = th
		res := New(models.DefaultLimits()).Validate(cfg)
		assert.Equal(t, []string{"matching_threshold"}, fields(res), "threshold %d", th)
	}
	for _, th := range []int{1, 100} {
		cfg := validConfig(t)
		cfg.Threshold = th
		assert.True(t, New(models.DefaultLimits()).Validate(cfg).Valid, "threshold %d", th)
	}
}

func TestValidate_Files(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing", func(t *testing.T) {
		cfg := validConfig(t)
		cfg.WorkingFile.FilePath = filepath.Join(dir, "nope.xlsx")
		res := New(models.DefaultLimits()).Validate(cfg)
		require.Len(t, res.Violations, 1)
		assert.Contains(t, res.Violations[0].Message, "does not exist")
	})

	t.Run("extension", func(t *testing.T) {
		path := filepath.Join(dir, "prices.csv")
		require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))
		cfg := validConfig(t)
		cfg.ReferenceFile.FilePath = path
		res := New(models.DefaultLimits()).Validate(cfg)
		require.Len(t, res.Violations, 1)
		assert.Contains(t, res.Violations[0].Message, "extension")
	})

	t.Run("too large", func(t *testing.T) {
		limits := models.DefaultLimits()
		limits.MaxFileSize = 16
		res := New(limits).Validate(validConfig(t))
		assert.Equal(t, []string{"working_file.file_path", "reference_file.file_path"}, fields(res))
	})

	t.Run("unreadable workbook", func(t *testing.T) {
		path := filepath.Join(dir, "legacy.xls")
		require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o644))
		cfg := validConfig(t)
		cfg.WorkingFile.FilePath = path
		res := New(models.DefaultLimits()).Validate(cfg)
		require.Len(t, res.Violations, 1)
		assert.Contains(t, res.Violations[0].Message, "cannot open workbook")
	})

	t.Run("sheet count", func(t *testing.T) {
		v := New(models.DefaultLimits())
		v.sheetCount = func(string) (int, error) { return 11, nil }
		res := v.Validate(validConfig(t))
		require.Len(t, res.Violations, 2)
		assert.Contains(t, res.Violations[0].Message, "11 sheets")
	})
}

func TestValidate_AccumulatesEveryViolation(t *testing.T) {
	cfg := models.MatchingConfig{
		WorkingFile: models.WorkingFile{
			FilePath:          "/does/not/exist.xlsx",
			DescriptionColumn: "AB",
			DescriptionRange:  models.CellRange{Start: "10", End: "2"},
			PriceTargetColumn: "F",
		},
		ReferenceFile: models.ReferenceFile{
			FilePath:          "",
			DescriptionColumn: "C",
			DescriptionRange:  models.CellRange{Start: "D2", End: "D9"},
			PriceSourceColumn: "",
		},
		Threshold: 0,
	}

	res := New(models.DefaultLimits()).Validate(cfg)
	require.False(t, res.Valid)
	assert.Equal(t, []string{
		"working_file.file_path",
		"working_file.description_column",
		"working_file.description_range",
		"reference_file.file_path",
		"reference_file.price_source_column",
		"reference_file.description_range",
		"matching_threshold",
	}, fields(res))

	err := res.Err()
	require.Error(t, err)
	assert.True(t, pmerrors.IsValidation(err))
	assert.ErrorIs(t, err, pmerrors.ErrMatching)
	assert.Equal(t, len(res.Violations)+1, strings.Count(err.Error(), "\n")+1)
}

// Package validate checks a matching configuration and its input files
// before any processing begins.
//
// Validation accumulates: every problem found in one pass is reported, and
// the result converts to a single error only when the caller asks for it.
package validate

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	pmerrors "github.com/ukaji3/pricematch-go/pkg/pricematch/errors"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/models"
	"github.com/ukaji3/pricematch-go/pkg/pricematch/parser"
)

// Result contains the outcome of validating a configuration.
type Result struct {
	Valid      bool                 `json:"valid" yaml:"valid"`           // True if no violation was found
	Violations []pmerrors.Violation `json:"violations" yaml:"violations"` // Every violation, in discovery order
}

// Err returns nil for a valid result, or a *errors.ValidationError listing
// every violation.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return pmerrors.NewValidationError(r.Violations...)
}

func (r *Result) add(field, value, format string, args ...any) {
	r.Valid = false
	r.Violations = append(r.Violations, pmerrors.Violation{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	})
}

// Validator checks configurations against input limits.
type Validator struct {
	limits     models.Limits
	sheetCount func(path string) (int, error)
}

// New creates a validator enforcing limits.
func New(limits models.Limits) *Validator {
	return &Validator{
		limits:     limits,
		sheetCount: parser.SheetCount,
	}
}

// Validate checks cfg and both input files and returns all violations.
func (v *Validator) Validate(cfg models.MatchingConfig) Result {
	res := Result{Valid: true}

	wf := cfg.WorkingFile
	v.checkFile(&res, "working_file.file_path", wf.FilePath)
	checkColumn(&res, "working_file.description_column", wf.DescriptionColumn)
	checkColumn(&res, "working_file.price_target_column", wf.PriceTargetColumn)
	checkRange(&res, "working_file.description_range", wf.DescriptionColumn, wf.DescriptionRange)
	checkDistinct(&res, "working_file.price_target_column", wf.PriceTargetColumn, wf.DescriptionColumn)

	ref := cfg.ReferenceFile
	v.checkFile(&res, "reference_file.file_path", ref.FilePath)
	checkColumn(&res, "reference_file.description_column", ref.DescriptionColumn)
	checkColumn(&res, "reference_file.price_source_column", ref.PriceSourceColumn)
	checkRange(&res, "reference_file.description_range", ref.DescriptionColumn, ref.DescriptionRange)
	checkDistinct(&res, "reference_file.price_source_column", ref.PriceSourceColumn, ref.DescriptionColumn)

	if cfg.Threshold < 1 || cfg.Threshold > 100 {
		res.add("matching_threshold", strconv.Itoa(cfg.Threshold), "must be an integer between 1 and 100")
	}

	return res
}

func (v *Validator) checkFile(res *Result, field, path string) {
	if strings.TrimSpace(path) == "" {
		res.add(field, path, "file path is required")
		return
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		res.add(field, path, "file does not exist: %s", path)
		return
	}
	if err != nil {
		res.add(field, path, "cannot access file: %v", err)
		return
	}
	if info.IsDir() {
		res.add(field, path, "path is a directory: %s", path)
		return
	}

	extOK := v.limits.AllowsExtension(path)
	if !extOK {
		res.add(field, path, "extension not allowed for %s; allowed: %s",
			path, strings.Join(v.limits.Extensions, ", "))
	}

	sizeOK := v.limits.MaxFileSize <= 0 || info.Size() <= v.limits.MaxFileSize
	if !sizeOK {
		res.add(field, path, "file %s is too large (%d bytes); maximum is %d MB",
			path, info.Size(), v.limits.MaxFileSize/(1024*1024))
	}

	if !extOK || !sizeOK {
		return
	}

	n, err := v.sheetCount(path)
	if err != nil {
		res.add(field, path, "cannot open workbook %s: %v", path, err)
		return
	}
	if n < v.limits.MinSheets || n > v.limits.MaxSheets {
		res.add(field, path, "workbook %s has %d sheets; required %d to %d",
			path, n, v.limits.MinSheets, v.limits.MaxSheets)
	}
}

func checkColumn(res *Result, field, column string) {
	if !models.IsColumn(column) {
		res.add(field, column, "must be a single letter A-Z")
	}
}

func checkRange(res *Result, field, column string, rng models.CellRange) {
	if !models.IsColumn(column) {
		// The column itself is reported elsewhere; still check row order.
		column = ""
	}
	if _, _, err := rng.Bounds(column); err != nil {
		res.add(field, rng.String(), "invalid range %s: %v", rng, err)
	}
}

func checkDistinct(res *Result, field, priceColumn, descriptionColumn string) {
	if priceColumn != "" && priceColumn == descriptionColumn {
		res.add(field, priceColumn, "price column must differ from description column %s", descriptionColumn)
	}
}

// Package errors defines the error taxonomy of the matching pipeline.
// Every error raised by the pipeline matches ErrMatching via errors.Is, and
// additionally one of ErrValidation, ErrProcessing or ErrComparison.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMatching is the common base of all pipeline errors.
var ErrMatching = errors.New("matching error")

// ErrValidation indicates bad configuration or input files.
var ErrValidation = errors.New("validation failed")

// ErrProcessing indicates a spreadsheet open, read, write or parse failure.
var ErrProcessing = errors.New("spreadsheet processing failed")

// ErrComparison indicates a failure inside the similarity comparison itself.
var ErrComparison = errors.New("comparison failed")

// ErrNoHandle indicates a write or read against a path without an open workbook.
var ErrNoHandle = errors.New("no open workbook")

// Violation is a single problem found while validating a configuration.
type Violation struct {
	Field   string `json:"field" yaml:"field"`                     // e.g. "working_file.description_range"
	Value   string `json:"value,omitempty" yaml:"value,omitempty"` // offending value, if any
	Message string `json:"message" yaml:"message"`
}

func (v Violation) String() string {
	if v.Field != "" {
		return fmt.Sprintf("%s: %s", v.Field, v.Message)
	}
	return v.Message
}

// ValidationError reports every violation discovered in one validation pass.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return ErrValidation.Error()
	}
	lines := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		lines[i] = v.String()
	}
	return fmt.Sprintf("%s:\n  - %s", ErrValidation, strings.Join(lines, "\n  - "))
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation || target == ErrMatching
}

// NewValidationError creates a ValidationError from the given violations.
func NewValidationError(violations ...Violation) *ValidationError {
	return &ValidationError{Violations: violations}
}

// ProcessingError represents a failure while touching a spreadsheet.
// File and Cell are set when known so the message names the culprit.
type ProcessingError struct {
	Op   string // "load", "read_prices", "write", "save", "report", ...
	File string
	Cell string
	Err  error
}

func (e *ProcessingError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.File != "" {
		fmt.Fprintf(&b, " %q", e.File)
	}
	if e.Cell != "" {
		fmt.Fprintf(&b, " cell %s", e.Cell)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap implements errors.Unwrap.
func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *ProcessingError) Is(target error) bool {
	return target == ErrProcessing || target == ErrMatching
}

// NewProcessingError creates a ProcessingError for a file.
func NewProcessingError(op, file string, err error) *ProcessingError {
	return &ProcessingError{Op: op, File: file, Err: err}
}

// NewCellError creates a ProcessingError pointing at a single cell.
func NewCellError(op, file, cell string, err error) *ProcessingError {
	return &ProcessingError{Op: op, File: file, Cell: cell, Err: err}
}

// MatchingError represents a failure raised while comparing two descriptions.
type MatchingError struct {
	WorkingCell   string
	ReferenceCell string
	Err           error
}

func (e *MatchingError) Error() string {
	return fmt.Sprintf("%s comparing %s with %s: %v", ErrComparison, e.WorkingCell, e.ReferenceCell, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *MatchingError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *MatchingError) Is(target error) bool {
	return target == ErrComparison || target == ErrMatching
}

// NewMatchingError creates a MatchingError.
func NewMatchingError(workingCell, referenceCell string, err error) *MatchingError {
	return &MatchingError{WorkingCell: workingCell, ReferenceCell: referenceCell, Err: err}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsProcessing reports whether err is a spreadsheet processing error.
func IsProcessing(err error) bool {
	return errors.Is(err, ErrProcessing)
}

// IsMatching reports whether err is a comparison error.
func IsMatching(err error) bool {
	return errors.Is(err, ErrComparison)
}

package extract

import (
	"fmt"

	"github.com/turtacn/dimpat/pkg/errors"
)

// MissingKeyError reports a record without a patent id. It aborts the run:
// every extract depends on the key to stay joinable.
type MissingKeyError struct {
	Index int
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("record %d has no patent_id", e.Index)
}

// Unwrap exposes the error as an EXT_001 AppError.
func (e *MissingKeyError) Unwrap() error {
	return errors.New(errors.CodeMissingKey, e.Error())
}

// MalformedCategoryError reports a category_for_2020 entry whose name is
// empty. The entry still yields a row with empty code and name.
type MalformedCategoryError struct {
	PatentID string
	Index    int
	Name     string
}

func (e *MalformedCategoryError) Error() string {
	return fmt.Sprintf("patent %s: category %d has malformed name %q", e.PatentID, e.Index, e.Name)
}

// Unwrap exposes the error as an EXT_002 AppError.
func (e *MalformedCategoryError) Unwrap() error {
	return errors.New(errors.CodeMalformedCategory, e.Error())
}

// UnknownExtractError is returned when a caller selects an extract name that
// is not one of the five fixed extracts.
type UnknownExtractError struct {
	Name string
}

func (e *UnknownExtractError) Error() string {
	return fmt.Sprintf("unknown extract %q", e.Name)
}

func (e *UnknownExtractError) Unwrap() error {
	return errors.New(errors.CodeUnknownExtract, e.Error())
}

//Personal.AI order the ending

package dataset

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyColumn  = errors.New("empty column")
	ErrTypeMismatch = errors.New("type mismatch")
	ErrEmptyDataset = errors.New("empty dataset")
)

// EmptyColumnError indicates an operation needs at least one non-missing value
// (e.g. mode fill on an all-missing column).
type EmptyColumnError struct {
	Column string
	Op     string
}

func (e *EmptyColumnError) Error() string {
	return fmt.Sprintf("%s: column %q has no non-missing values", e.Op, e.Column)
}

func (e *EmptyColumnError) Is(target error) bool { return target == ErrEmptyColumn }

// TypeMismatchError indicates a numeric-only operation was requested on a
// text column.
type TypeMismatchError struct {
	Column string
	Op     string
	Kind   Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: column %q is %s, want numeric", e.Op, e.Column, e.Kind)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// EmptyDatasetError indicates the dataset has zero rows or zero columns.
type EmptyDatasetError struct {
	Op string
}

func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("%s: dataset has no rows or no columns", e.Op)
}

func (e *EmptyDatasetError) Is(target error) bool { return target == ErrEmptyDataset }

// RequireData returns an EmptyDatasetError for op if d has no rows or columns.
func RequireData(d *Dataset, op string) error {
	if d == nil || d.Empty() {
		return &EmptyDatasetError{Op: op}
	}
	return nil
}

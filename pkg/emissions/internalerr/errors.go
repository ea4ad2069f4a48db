package internalerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrMissingColumn    = errors.New("missing column")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrRender           = errors.New("render failed")
)

// InputError labels a rejected input with the column and value that caused it.
// Row is 1-based; zero means the error is not tied to a single row.
type InputError struct {
	Column string
	Value  string
	Row    int
	Err    error
}

func (e *InputError) Error() string {
	msg := e.Err.Error()
	if e.Column != "" {
		msg += ": column " + e.Column
	}
	if e.Value != "" {
		msg += fmt.Sprintf(" value %q", e.Value)
	}
	if e.Row > 0 {
		msg += fmt.Sprintf(" (row %d)", e.Row)
	}
	return msg
}

func (e *InputError) Unwrap() error { return e.Err }

// Missing reports a required column that is absent from the input.
func Missing(column string) error {
	return &InputError{Column: column, Err: ErrMissingColumn}
}

// Invalid reports a value that cannot be used for column at row.
func Invalid(column, value string, row int) error {
	return &InputError{Column: column, Value: value, Row: row, Err: ErrInvalidInput}
}

// Unknown reports a category value outside the configured enumeration.
func Unknown(column, value string) error {
	return &InputError{Column: column, Value: value, Err: ErrUnknownCategory}
}

package slips

import (
	"errors"
	"fmt"
)

var ErrMissingField = errors.New("required field is missing")

// FormatError reports a required PO line attribute that is missing or
// cannot be parsed.
type FormatError struct {
	Field string
	Value string
	Err   error
}

func missingField(field string) *FormatError {
	return &FormatError{Field: field, Err: ErrMissingField}
}

func (e *FormatError) Error() string {
	if errors.Is(e.Err, ErrMissingField) {
		return fmt.Sprintf("PO line field %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("PO line field %s has invalid value %q: %v", e.Field, e.Value, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

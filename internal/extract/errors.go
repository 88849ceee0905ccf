package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned before any model call when the transcript
	// or field list cannot be used.
	ErrInvalidInput = errors.New("invalid extraction input")

	// ErrDuplicateField matches any *DuplicateFieldError.
	ErrDuplicateField = errors.New("duplicate field")

	// ErrNotPlural is returned when list splitting is asked to split a reply
	// that has no separator.
	ErrNotPlural = errors.New("value is not plural")
)

// DuplicateFieldError reports a field name requested more than once.
type DuplicateFieldError struct {
	Field string
	// Index is the position of the second occurrence in the request.
	Index int
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("duplicate field %q at position %d", e.Field, e.Index)
}

func (e *DuplicateFieldError) Is(target error) bool {
	return target == ErrDuplicateField
}

// FieldError wraps a failure that happened while extracting one field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("extract field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

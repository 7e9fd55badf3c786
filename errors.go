package codefirst

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("codefirst: entity not found")

	// ErrConcurrencyConflict is returned when an update guarded by concurrency
	// tokens matched no row, because the row was changed or deleted since it was read.
	ErrConcurrencyConflict = errors.New("codefirst: optimistic concurrency conflict")
)

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("codefirst: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// NewNotFoundError returns a new NotFoundError for the given entity type.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ConcurrencyError is returned when an update checked one or more concurrency
// tokens and no row matched the original values.
type ConcurrencyError struct {
	Table   string   // Table being updated.
	Columns []string // Concurrency token columns that were checked.
}

// Error returns the error string.
func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("codefirst: optimistic concurrency conflict on %s (tokens: %s)", e.Table, strings.Join(e.Columns, ", "))
}

// Is reports whether the target error matches ConcurrencyError.
// This allows errors.Is(err, ErrConcurrencyConflict) to return true.
func (e *ConcurrencyError) Is(err error) bool {
	return err == ErrConcurrencyConflict
}

// NewConcurrencyError returns a new ConcurrencyError.
func NewConcurrencyError(table string, columns ...string) *ConcurrencyError {
	return &ConcurrencyError{Table: table, Columns: columns}
}

// IsConcurrencyError returns true if the error is a ConcurrencyError.
func IsConcurrencyError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConcurrencyError
	return errors.As(err, &e) || errors.Is(err, ErrConcurrencyConflict)
}

// ValidationError represents a validation error for field values.
type ValidationError struct {
	Name string // Field or entity name
	Err  error  // Underlying validation error
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("codefirst: validator failed for field %q: %s", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a new ValidationError for the given field.
func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "codefirst: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("codefirst: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}

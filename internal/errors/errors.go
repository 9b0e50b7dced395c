// Package errors holds the error definitions shared by every smartbid component.
//
// This file provides:
// - Sentinel errors for all error conditions
// - Error category checking functions
// - Error wrapping utilities
// - A collector for configuration validation errors

package errors

import (
	"errors"
	"fmt"
)

// ============================================================================
// Sentinel errors
// ============================================================================

var (
	// Argument and configuration errors
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrMissingField      = errors.New("missing required field")
	ErrInvalidWindow     = errors.New("invalid time window")
	ErrInvalidPercentage = errors.New("down sampling percentage must be between 0 and 1")

	// Query template errors
	ErrUnresolvedPlaceholder = errors.New("unresolved query placeholder")
	ErrInvalidIdentifier     = errors.New("invalid SQL identifier")

	// Pipeline stage errors
	ErrQueryExecution = errors.New("query execution failed")
	ErrTransform      = errors.New("transform failed")
	ErrStorageWrite   = errors.New("storage write failed")
	ErrStorageRead    = errors.New("storage read failed")

	// Lookup errors
	ErrNotFound          = errors.New("not found")
	ErrUnknownDictionary = errors.New("unknown dictionary")
	ErrUnsupportedDriver = errors.New("unsupported event store driver")
)

// ============================================================================
// Helper functions for error checking
// ============================================================================

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// Join is a convenience wrapper for errors.Join
var Join = errors.Join

// New is a convenience wrapper for errors.New
var New = errors.New

// IsValidation returns true if err was caused by bad input rather than a
// failing collaborator.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidWindow) ||
		errors.Is(err, ErrInvalidPercentage) ||
		errors.Is(err, ErrUnresolvedPlaceholder) ||
		errors.Is(err, ErrInvalidIdentifier)
}

// IsPipeline returns true if err was raised by one of the extract, transform
// or load stages.
func IsPipeline(err error) bool {
	return errors.Is(err, ErrQueryExecution) ||
		errors.Is(err, ErrTransform) ||
		errors.Is(err, ErrStorageWrite) ||
		errors.Is(err, ErrStorageRead)
}

// Stage names the pipeline stage an error belongs to, or "" if none.
func Stage(err error) string {
	switch {
	case errors.Is(err, ErrQueryExecution):
		return "extract"
	case errors.Is(err, ErrTransform):
		return "transform"
	case errors.Is(err, ErrStorageWrite), errors.Is(err, ErrStorageRead):
		return "load"
	default:
		return ""
	}
}

// ============================================================================
// Error wrapping utilities
// ============================================================================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewValidation creates a validation error with context.
func NewValidation(field, reason string) error {
	return fmt.Errorf("invalid %s: %s: %w", field, reason, ErrInvalidConfig)
}

// NewMissingField creates a missing field error.
func NewMissingField(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}

// NewInvalidArgument creates an invalid argument error for a CLI value.
func NewInvalidArgument(name string, value interface{}, reason string) error {
	return fmt.Errorf("%s '%v': %s: %w", name, value, reason, ErrInvalidArgument)
}

// ============================================================================
// Validation Errors Collection
// ============================================================================

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []error
}

// NewValidationErrors creates a new ValidationErrors collector.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{}
}

// Add adds an error to the collection.
func (v *ValidationErrors) Add(err error) {
	if err != nil {
		v.Errors = append(v.Errors, err)
	}
}

// AddField adds a field validation error.
func (v *ValidationErrors) AddField(field, reason string) {
	v.Errors = append(v.Errors, NewValidation(field, reason))
}

// AddMissing adds a missing field error.
func (v *ValidationErrors) AddMissing(field string) {
	v.Errors = append(v.Errors, NewMissingField(field))
}

// HasErrors returns true if there are any errors.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}
	if len(v.Errors) == 1 {
		return v.Errors[0].Error()
	}

	msg := fmt.Sprintf("validation failed with %d errors:", len(v.Errors))
	for _, err := range v.Errors {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Err returns nil if no errors, otherwise returns the ValidationErrors.
func (v *ValidationErrors) Err() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v
}

// Unwrap exposes every collected error to errors.Is/As.
func (v *ValidationErrors) Unwrap() []error {
	return v.Errors
}

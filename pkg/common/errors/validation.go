package errors

import "fmt"

// ValidationError describes a configuration value rejected before any work
// (or any process spawn) has happened.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError for the given module and field.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the error for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s (%v): %s", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// Unwrap ties every ValidationError to ErrInvalidConfiguration so callers can
// test the class with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

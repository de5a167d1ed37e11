// Package validation provides common validation utilities for the goshell library.
package validation

import (
	gserrors "github.com/vnykmshr/goshell/pkg/common/errors"
)

// Positive validates that an integer value is positive (> 0).
func Positive(module, field string, value int) error {
	if value <= 0 {
		return gserrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// NonNegative validates that an integer value is non-negative (>= 0).
func NonNegative(module, field string, value int) error {
	if value < 0 {
		return gserrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 or a positive value")
	}
	return nil
}

// NotEmpty validates that a string value is not empty.
func NotEmpty(module, field, value string) error {
	if value == "" {
		return gserrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}

// NotNil validates that an interface value is not nil.
func NotNil(module, field string, value interface{}) error {
	if value == nil {
		return gserrors.NewValidationError(module, field, nil, "cannot be nil").
			WithHint("provide a valid " + field)
	}
	return nil
}

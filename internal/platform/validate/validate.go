// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate collects field-level failures and reports them as one
// VALIDATION_ERROR.
//
// Services run every rule before touching storage or the asset store, so a
// rejected request leaves no partial writes and the editor sees every problem
// at once.
package validate

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/taibuivan/storybook/internal/platform/apperr"
)

var (
	// ErrInvalidJSON is returned when a JSON request body cannot be decoded.
	ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")

	// ErrInvalidForm is returned when a multipart body cannot be parsed.
	ErrInvalidForm = apperr.ValidationError("Invalid multipart form payload")
)

// Validator accumulates failures in rule order. The zero value is ready to
// use; it is not safe for concurrent use.
type Validator struct {
	errs []apperr.FieldError
}

// Required fails if value is empty after trimming.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.Fail(field, "This field is required")
	}
	return v
}

// MaxLen fails if value has more than max characters. Devanagari and
// other multi-byte text is counted per rune.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.Fail(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

// Min fails if value is below min.
func (v *Validator) Min(field string, value, min int) *Validator {
	if value < min {
		v.Fail(field, fmt.Sprintf("Must be at least %d", min))
	}
	return v
}

// OneOf fails unless value is one of allowed.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	if !slices.Contains(allowed, value) {
		v.Fail(field, "Must be one of: "+strings.Join(allowed, ", "))
	}
	return v
}

// Custom fails with message when failed is true.
//
//	v.Custom("languages", len(languages) == 0, "At least one language must be selected")
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.Fail(field, message)
	}
	return v
}

// Fail records a failure unconditionally.
func (v *Validator) Fail(field, message string) *Validator {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
	return v
}

// HasErrors reports whether any rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// Err returns the accumulated failures as a VALIDATION_ERROR, or nil.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// RequiredError builds a single-field VALIDATION_ERROR outside a chain,
// typically for a form value that could not be parsed.
func RequiredError(field, message string) *apperr.AppError {
	return apperr.ValidationError("Validation failed", apperr.FieldError{Field: field, Message: message})
}

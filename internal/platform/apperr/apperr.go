// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr is the error vocabulary of the storybook service.

Services return an [AppError] for anything a client should see; the respond
package turns it into the JSON error envelope. Storage and asset failures are
wrapped with [Internal] or [AssetStore] so their cause is logged but never sent.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// # Codes

// Machine-readable values of the "code" field.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeConflict     = "CONFLICT"
	CodeValidation   = "VALIDATION_ERROR"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
	CodeAssetStore   = "ASSET_STORE_ERROR"
)

// AppError is an error with a client-facing code, message and status.
type AppError struct {
	Code       string       `json:"code"`
	Message    string       `json:"error"`
	HTTPStatus int          `json:"-"`
	Details    []FieldError `json:"details,omitempty"`

	// Cause is logged server-side and never serialized.
	Cause error `json:"-"`
}

// FieldError names one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func newError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// Error returns the client message.
func (e *AppError) Error() string { return e.Message }

// Unwrap exposes Cause to [errors.Is] and [errors.As].
func (e *AppError) Unwrap() error { return e.Cause }

// # 4xx

// NotFound reports that resource does not exist or is hidden from the caller,
// for example "Storybook not found".
func NotFound(resource string) *AppError {
	return newError(http.StatusNotFound, CodeNotFound, resource+" not found")
}

func Unauthorized(message string) *AppError {
	return newError(http.StatusUnauthorized, CodeUnauthorized, message)
}

// Conflict reports a uniqueness violation such as a taken page number.
func Conflict(message string) *AppError {
	return newError(http.StatusConflict, CodeConflict, message)
}

// ValidationError reports rejected input. Details lists the offending fields.
func ValidationError(message string, details ...FieldError) *AppError {
	appError := newError(http.StatusBadRequest, CodeValidation, message)
	appError.Details = details
	return appError
}

func RateLimited(retryAfterSeconds int) *AppError {
	return newError(http.StatusTooManyRequests, CodeRateLimited,
		fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds))
}

// # 5xx

// Internal hides cause behind a generic message.
func Internal(cause error) *AppError {
	appError := newError(http.StatusInternalServerError, CodeInternal, "An unexpected error occurred")
	appError.Cause = cause
	return appError
}

// AssetStore reports a failed asset write. It is returned before any row or
// previous asset has been modified.
func AssetStore(cause error) *AppError {
	appError := newError(http.StatusInternalServerError, CodeAssetStore, "Failed to store the uploaded file")
	appError.Cause = cause
	return appError
}

// # Inspection

// IsAppError reports whether err wraps an [*AppError].
func IsAppError(err error) bool {
	return As(err) != nil
}

// As returns the first [*AppError] in err's chain, or nil.
func As(err error) *AppError {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError
	}
	return nil
}

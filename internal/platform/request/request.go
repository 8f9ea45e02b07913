// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns (JSON and multipart), ensuring consistent error
handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/storybook/internal/platform/apperr"
	"github.com/taibuivan/storybook/internal/platform/blob"
	"github.com/taibuivan/storybook/internal/platform/constants"
	"github.com/taibuivan/storybook/internal/platform/ctxutil"
	"github.com/taibuivan/storybook/internal/platform/sec"
	"github.com/taibuivan/storybook/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
IsMultipart reports whether the request body is multipart/form-data.
*/
func IsMultipart(request *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(request.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

/*
ParseMultipart parses a multipart body bounded by [constants.MaxUploadBodyBytes].

Returns:
  - error: validate.ErrInvalidForm if the body is malformed or too large
*/
func ParseMultipart(writer http.ResponseWriter, request *http.Request) error {
	request.Body = http.MaxBytesReader(writer, request.Body, constants.MaxUploadBodyBytes)

	if err := request.ParseMultipartForm(constants.MultipartMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.ValidationError(fmt.Sprintf("Request body exceeds %d MB", constants.MaxUploadBodyBytes>>20))
		}
		return validate.ErrInvalidForm
	}

	return nil
}

/*
FormFile reads an optional uploaded file from a parsed multipart form.

Returns:
  - *blob.File: nil when the field is absent
  - error: Read failures
*/
func FormFile(request *http.Request, field string) (*blob.File, error) {
	file, header, err := request.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, validate.ErrInvalidForm
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("request: failed to read upload %s: %w", field, err)
	}

	return &blob.File{Name: header.Filename, Content: content}, nil
}

/*
FormValues returns every non-blank value submitted for field.

Both repeated keys ("tags=a&tags=b") and the bracketed form ("tags[]=a") are read.
*/
func FormValues(request *http.Request, field string) []string {
	var values []string
	for _, key := range []string{field, field + "[]"} {
		for _, value := range request.MultipartForm.Value[key] {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				values = append(values, trimmed)
			}
		}
	}
	return values
}

/*
FormValue returns a single trimmed form value and whether the field was present.
*/
func FormValue(request *http.Request, field string) (string, bool) {
	values, ok := request.MultipartForm.Value[field]
	if !ok || len(values) == 0 {
		return "", false
	}
	return strings.TrimSpace(values[0]), true
}

/*
ID retrieves a named URL parameter (UUID) from the request.
*/
func ID(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Claims extracts the authenticated user claims from the request context.

Returns nil if the request is not authenticated.
*/
func Claims(request *http.Request) *sec.AuthClaims {
	return ctxutil.GetAuthUser(request.Context())
}

/*
IsAuthenticated reports whether the request carries verified editor claims.
*/
func IsAuthenticated(request *http.Request) bool {
	return Claims(request) != nil
}

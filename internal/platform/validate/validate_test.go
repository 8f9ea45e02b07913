// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storybook/internal/platform/apperr"
	"github.com/taibuivan/storybook/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "title", "The Clever Crow", false},
		{"empty_string", "title", "", true},
		{"whitespace_only", "title", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "VALIDATION_ERROR", ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

/*
TestValidator_MaxLen counts runes rather than bytes.
*/
func TestValidator_MaxLen(t *testing.T) {
	v := &validate.Validator{}

	// Six Devanagari runes, eighteen bytes
	v.MaxLen("title", "कहानीक", 6)
	assert.False(t, v.HasErrors())

	v.MaxLen("title", "abcdefg", 6)
	assert.True(t, v.HasErrors())
}

/*
TestValidator_Min checks the lower bound rule.
*/
func TestValidator_Min(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		isValid bool
	}{
		{"above", 3, true},
		{"boundary", 1, true},
		{"zero", 0, false},
		{"negative", -4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Min("page_number", tt.value, 1)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

/*
TestValidator_OneOf checks enum membership.
*/
func TestValidator_OneOf(t *testing.T) {
	v := &validate.Validator{}
	v.OneOf("status", "published", "draft", "published", "archived")
	assert.False(t, v.HasErrors())

	v.OneOf("status", "deleted", "draft", "published", "archived")
	require.True(t, v.HasErrors())
	assert.Equal(t, "Must be one of: draft, published, archived", apperr.As(v.Err()).Details[0].Message)
}

/*
TestValidator_Chain_Failure tests error accumulation in the chain.
*/
func TestValidator_Chain_Failure(t *testing.T) {
	v := &validate.Validator{}

	err := v.
		Required("title", "").
		MaxLen("author", "a very long author name", 5).
		Custom("languages", true, "At least one language must be selected").
		Custom("status", false, "never reported").
		Fail("audio_hi", "Unsupported language: hi").
		Err()

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)

	require.Len(t, ae.Details, 4)
	assert.Equal(t, "languages", ae.Details[2].Field)
	assert.Equal(t, "audio_hi", ae.Details[3].Field)
}

/*
TestRequiredError builds a single-field validation error.
*/
func TestRequiredError(t *testing.T) {
	ae := validate.RequiredError("page_number", "Page number must be an integer")

	require.Len(t, ae.Details, 1)
	assert.Equal(t, "page_number", ae.Details[0].Field)
}

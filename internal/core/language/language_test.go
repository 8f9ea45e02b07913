// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package language_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storybook/internal/core/language"
)

/*
TestNormalize verifies query values are trimmed and lower-cased without being validated.
*/
func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want language.Code
	}{
		{"en", language.English},
		{" EN ", language.English},
		{"Hi", language.Hindi},
		{"FR", "fr"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, language.Normalize(tt.raw))
	}
}

/*
TestCode_IsValid verifies membership in the closed language set.
*/
func TestCode_IsValid(t *testing.T) {
	tests := []struct {
		code language.Code
		want bool
	}{
		{language.English, true},
		{language.Hindi, true},
		{"fr", false},
		{"EN", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.IsValid())
		})
	}
}

/*
TestSupported_ReturnsCopy verifies callers cannot mutate the catalogue.
*/
func TestSupported_ReturnsCopy(t *testing.T) {
	codes := language.Supported()
	codes[0] = "fr"

	assert.Equal(t, []language.Code{language.English, language.Hindi}, language.Supported())
	assert.Equal(t, []string{"en", "hi"}, language.Strings())
}

/*
TestDescribe resolves display names from CLDR data.
*/
func TestDescribe(t *testing.T) {
	english := language.Describe(language.English)
	assert.Equal(t, "English", english.Name)
	assert.Equal(t, "English", english.NativeName)

	hindi := language.Describe(language.Hindi)
	assert.Equal(t, "Hindi", hindi.Name)
	assert.NotEmpty(t, hindi.NativeName)
	assert.NotEqual(t, "Hindi", hindi.NativeName)
}

/*
TestHandler_Routes covers the list and lookup endpoints.
*/
func TestHandler_Routes(t *testing.T) {
	router := language.NewHandler().Routes()

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Data []language.Info `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/fr", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package language defines the closed set of languages a storybook can be told in.

Language codes are the keys of every localized page field (text and narration
audio), so the set is fixed at compile time and validated at every boundary.
*/
package language

import (
	"slices"
	"strings"

	textlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Code is a two-letter language code such as "en".
type Code string

const (
	English Code = "en"
	Hindi   Code = "hi"
)

// supported keeps the display order of the catalogue.
var supported = []Code{English, Hindi}

// Supported returns the supported codes in display order.
func Supported() []Code {
	return slices.Clone(supported)
}

// Normalize lower-cases and trims a code taken from a query string.
// The result may still be unsupported.
func Normalize(raw string) Code {
	return Code(strings.ToLower(strings.TrimSpace(raw)))
}

// IsValid reports whether the code belongs to the supported set.
func (c Code) IsValid() bool {
	return slices.Contains(supported, c)
}

// Strings returns the supported codes as plain strings, for enum validation.
func Strings() []string {
	values := make([]string, len(supported))
	for i, code := range supported {
		values[i] = string(code)
	}
	return values
}

// Info describes a supported language for clients.
type Info struct {
	Code       Code   `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
}

// Describe resolves the English and native display names of a code.
func Describe(code Code) Info {
	tag := textlang.Make(string(code))

	return Info{
		Code:       code,
		Name:       display.English.Languages().Name(tag),
		NativeName: display.Self.Name(tag),
	}
}

// Catalogue returns [Info] for every supported language.
func Catalogue() []Info {
	infos := make([]Info, 0, len(supported))
	for _, code := range supported {
		infos = append(infos, Describe(code))
	}
	return infos
}

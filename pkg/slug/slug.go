// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug turns uploaded file names into short ASCII fragments.
//
// Stored asset names keep a readable hint of the original file
// ("thirsty-crow" from "Thirsty Crow (final).PNG") after their unique prefix.
// Scripts without a Latin decomposition, such as Devanagari, produce an
// empty slug and callers drop the hint.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes accented letters and removes the combining marks.
var stripMarks = transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}))

// From converts s into lowercase ASCII words joined by single hyphens.
func From(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var builder strings.Builder
	pendingHyphen := false

	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && builder.Len() > 0 {
				builder.WriteByte('-')
			}
			pendingHyphen = false
			builder.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	return builder.String()
}

// Limit returns at most max bytes of slug without a trailing hyphen.
func Limit(slug string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(slug) <= max {
		return slug
	}
	return strings.TrimRight(slug[:max], "-")
}

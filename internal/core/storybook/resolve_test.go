// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storybook/internal/core/language"
	"github.com/taibuivan/storybook/internal/core/storybook"
	"github.com/taibuivan/storybook/pkg/pointer"
)

/*
TestResolveLocalized verifies text and audio are picked for the requested language only.
*/
func TestResolveLocalized(t *testing.T) {
	page := &storybook.Page{
		TextContent: map[language.Code]string{language.Hindi: "एक बार की बात है"},
		AudioPaths:  map[language.Code]string{language.Hindi: "storybooks/pages/audio/hi.mp3", language.English: ""},
	}

	tests := []struct {
		name      string
		code      language.Code
		wantText  *string
		wantAudio *string
	}{
		{"Requested language present", language.Hindi, pointer.To("एक बार की बात है"), pointer.To("storybooks/pages/audio/hi.mp3")},
		{"No fallback to another language", language.English, nil, nil},
		{"Unknown language", language.Code("fr"), nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved := storybook.ResolveLocalized(page, tt.code)
			assert.Equal(t, tt.wantText, resolved.Text)
			assert.Equal(t, tt.wantAudio, resolved.Audio)
		})
	}
}

/*
TestResolveLocalized_EmptyPage verifies a page without maps resolves to nulls.
*/
func TestResolveLocalized_EmptyPage(t *testing.T) {
	resolved := storybook.ResolveLocalized(&storybook.Page{}, language.English)
	assert.Nil(t, resolved.Text)
	assert.Nil(t, resolved.Audio)
}

/*
TestLocalizeStorybook verifies every page is flattened and the image is kept regardless of language.
*/
func TestLocalizeStorybook(t *testing.T) {
	book := &storybook.Storybook{
		ID:    "book-1",
		Title: "Ocean Friends",
		Pages: []*storybook.Page{
			{
				ID:          "page-1",
				PageNumber:  1,
				TextContent: map[language.Code]string{language.English: "Hello"},
				ImagePath:   pointer.To("storybooks/pages/images/1.png"),
				AudioPaths:  map[language.Code]string{language.English: "storybooks/pages/audio/1.mp3"},
			},
			{
				ID:          "page-2",
				PageNumber:  2,
				TextContent: map[language.Code]string{language.Hindi: "नमस्ते"},
			},
		},
	}

	localized := storybook.LocalizeStorybook(book, language.English)

	assert.Equal(t, "Ocean Friends", localized.Title)
	require.Len(t, localized.Pages, 2)

	first := localized.Pages[0]
	assert.Equal(t, "page-1", first.ID)
	assert.Equal(t, pointer.To("Hello"), first.TextContent)
	assert.Equal(t, pointer.To("storybooks/pages/images/1.png"), first.ImagePath)
	assert.Equal(t, pointer.To("storybooks/pages/audio/1.mp3"), first.AudioPath)

	second := localized.Pages[1]
	assert.Equal(t, 2, second.PageNumber)
	assert.Nil(t, second.TextContent)
	assert.Nil(t, second.AudioPath)
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook

import "github.com/taibuivan/storybook/internal/core/language"

// # Localization

// Localized is a page's content in one language. A nil field means the page
// has no content in that language.
type Localized struct {
	Text  *string
	Audio *string
}

/*
ResolveLocalized picks the text and the audio of page for code.

There is no fallback: if the page has no English audio, asking for English
audio yields nil even when Hindi audio exists. Empty strings count as absent.
*/
func ResolveLocalized(page *Page, code language.Code) Localized {
	var resolved Localized

	if text, ok := page.TextContent[code]; ok && text != "" {
		resolved.Text = &text
	}

	if audio, ok := page.AudioPaths[code]; ok && audio != "" {
		resolved.Audio = &audio
	}

	return resolved
}

// LocalizedPage is the flattened page shape served to a reader who picked a language.
type LocalizedPage struct {
	ID          string  `json:"id"`
	PageNumber  int     `json:"page_number"`
	TextContent *string `json:"text_content"`
	ImagePath   *string `json:"image_path"`
	AudioPath   *string `json:"audio_path"`
}

// Localize flattens page for code.
func Localize(page *Page, code language.Code) LocalizedPage {
	resolved := ResolveLocalized(page, code)

	return LocalizedPage{
		ID:          page.ID,
		PageNumber:  page.PageNumber,
		TextContent: resolved.Text,
		ImagePath:   page.ImagePath,
		AudioPath:   resolved.Audio,
	}
}

// LocalizedStorybook is a storybook whose pages are flattened to one language.
type LocalizedStorybook struct {
	*Storybook
	Pages []LocalizedPage `json:"pages"`
}

// LocalizeStorybook flattens every loaded page of storybook for code.
func LocalizeStorybook(storybook *Storybook, code language.Code) LocalizedStorybook {
	pages := make([]LocalizedPage, 0, len(storybook.Pages))
	for _, page := range storybook.Pages {
		pages = append(pages, Localize(page, code))
	}

	return LocalizedStorybook{Storybook: storybook, Pages: pages}
}

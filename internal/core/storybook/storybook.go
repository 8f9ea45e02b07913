// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package storybook defines the storybook aggregate and its pages.

A storybook is an illustrated, narrated book for children told in one or more
supported languages. Every page carries per-language text, an optional image,
and optional per-language narration audio.

Core Responsibility:

  - Aggregate: A storybook exclusively owns its pages and keeps page_count in sync.
  - Assets: Cover, page image, and audio files live in the asset store; rows hold paths.
  - Localization: A page resolves to one language with no fallback to another.

The package exposes two HTTP surfaces over the same [Service]: the editor
surface (authenticated writes) and the read-only mobile API.
*/
package storybook

import (
	"encoding/json"
	"maps"
	"slices"
	"time"

	"github.com/taibuivan/storybook/internal/core/language"
)

// # Domain Enums

// Status is the publication state of a storybook.
type Status string

const (
	// StatusDraft is the default state. Drafts are visible to editors only.
	StatusDraft Status = "draft"

	// StatusPublished storybooks are served by the mobile API.
	StatusPublished Status = "published"

	// StatusArchived storybooks are retired and hidden from readers.
	StatusArchived Status = "archived"
)

// IsValid reports whether s is a recognised [Status] value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// statusValues lists the enum for validation messages.
var statusValues = []string{string(StatusDraft), string(StatusPublished), string(StatusArchived)}

// # Field Names

const (
	FieldTitle         = "title"
	FieldAuthor        = "author"
	FieldLanguages     = "languages"
	FieldDescription   = "description"
	FieldStatus        = "status"
	FieldAgeGroup      = "age_group"
	FieldTags          = "tags"
	FieldCoverImage    = "cover_image"
	FieldPageNumber    = "page_number"
	FieldTextContent   = "text_content"
	FieldAnimationData = "animation_data"
	FieldImage         = "image"
	FieldAudioPrefix   = "audio_"
)

// AudioField returns the upload field carrying narration for code (e.g. "audio_en").
func AudioField(code language.Code) string {
	return FieldAudioPrefix + string(code)
}

// # Field Limits

const (
	maxTitleLength    = 255
	maxAuthorLength   = 255
	maxAgeGroupLength = 50
	maxTagLength      = 100
)

// # Core Entities

// Storybook is the aggregate root. PageCount is derived and never accepted from input.
type Storybook struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	CoverImage  *string         `json:"cover_image"`
	Languages   []language.Code `json:"languages"`
	Description *string         `json:"description"`
	Status      Status          `json:"status"`
	PageCount   int             `json:"page_count"`
	AgeGroup    *string         `json:"age_group"`
	Tags        []string        `json:"tags"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Pages is nil unless the query eager-loads the aggregate; an eager-loaded
	// book without pages carries an empty slice and encodes as [].
	Pages []*Page `json:"pages,omitzero"`
}

// HasLanguage reports whether the storybook is told in code.
func (storybook *Storybook) HasLanguage(code language.Code) bool {
	return slices.Contains(storybook.Languages, code)
}

// IsPublished reports whether readers may see the storybook.
func (storybook *Storybook) IsPublished() bool {
	return storybook.Status == StatusPublished
}

// Page is one page of a storybook.
type Page struct {
	ID          string `json:"id"`
	StorybookID string `json:"storybook_id"`
	PageNumber  int    `json:"page_number"`

	// TextContent maps a language to the page text. It has at least one entry.
	TextContent map[language.Code]string `json:"text_content"`

	ImagePath *string `json:"image_path"`

	// AudioPaths maps a language to its narration asset. Nil when no audio exists.
	AudioPaths map[language.Code]string `json:"audio_paths"`

	// AnimationData is an opaque JSON object or array interpreted by the mobile app.
	AnimationData json.RawMessage `json:"animation_data"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AssetPaths returns every asset referenced by the page.
func (page *Page) AssetPaths() []string {
	var paths []string
	if page.ImagePath != nil && *page.ImagePath != "" {
		paths = append(paths, *page.ImagePath)
	}
	codes := slices.Sorted(maps.Keys(page.AudioPaths))
	for _, code := range codes {
		if audio := page.AudioPaths[code]; audio != "" {
			paths = append(paths, audio)
		}
	}
	return paths
}

// AssetPaths returns the cover plus every asset of the loaded pages.
func (storybook *Storybook) AssetPaths() []string {
	var paths []string
	if storybook.CoverImage != nil && *storybook.CoverImage != "" {
		paths = append(paths, *storybook.CoverImage)
	}
	for _, page := range storybook.Pages {
		paths = append(paths, page.AssetPaths()...)
	}
	return paths
}

// # Query Criteria

// Order selects the sort applied by [Repository.ListFiltered].
type Order int

const (
	// OrderNewest sorts by creation time, most recent first (editor index).
	OrderNewest Order = iota

	// OrderInsertion sorts by creation time, oldest first (mobile listing).
	OrderInsertion
)

// Filter holds the criteria for storybook listings.
type Filter struct {
	// Status restricts the listing to these states. Empty means any state.
	Status []Status

	// Language keeps storybooks whose language set contains the code.
	Language language.Code

	// AgeGroup is matched exactly.
	AgeGroup string

	// Search is a case-insensitive substring of title or author.
	Search string

	Order Order
}

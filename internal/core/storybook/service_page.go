// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/taibuivan/storybook/internal/core/language"
	"github.com/taibuivan/storybook/internal/platform/blob"
	"github.com/taibuivan/storybook/internal/platform/validate"
	"github.com/taibuivan/storybook/pkg/uuid"
)

// PageInput carries the editable attributes of a page.
//
// On update every field is optional: a zero PageNumber, a nil TextContent, a
// nil AnimationData, and absent uploads leave the stored value untouched. An
// AnimationData of JSON null clears it.
type PageInput struct {
	PageNumber    int
	TextContent   map[language.Code]string
	AnimationData json.RawMessage

	Image *blob.File
	Audio map[language.Code]*blob.File
}

// # Page Lookups

/*
ListPages returns a page of a storybook's pages ordered by page_number.

Returns:
  - error: apperr.NotFound if the storybook does not exist
*/
func (service *Service) ListPages(context context.Context, storybookID string, limit, offset int) ([]*Page, int, error) {
	if _, err := service.repo.FindByID(context, storybookID); err != nil {
		return nil, 0, err
	}
	return service.repo.ListPages(context, storybookID, limit, offset)
}

// GetPage returns one page of a storybook.
func (service *Service) GetPage(context context.Context, storybookID, pageID string) (*Page, error) {
	return service.repo.FindPage(context, storybookID, pageID)
}

/*
NextPageNumber suggests the number for a new page: the highest existing number plus one.

Returns:
  - int: 1 for a storybook without pages
  - error: apperr.NotFound if the storybook does not exist
*/
func (service *Service) NextPageNumber(context context.Context, storybookID string) (int, error) {
	if _, err := service.repo.FindByID(context, storybookID); err != nil {
		return 0, err
	}

	highest, err := service.repo.MaxPageNumber(context, storybookID)
	if err != nil {
		return 0, err
	}

	return highest + 1, nil
}

// # Page Management

/*
AddPage validates and inserts a page, then recomputes page_count.

Description: Image and audio uploads are stored before the row is inserted.
A duplicate page number is rejected with a conflict before any asset is
stored; the unique index backs the check against concurrent inserts.

Parameters:
  - context: context.Context
  - storybookID: string
  - input: PageInput

Returns:
  - *Page: The persisted page
  - error: apperr.NotFound, apperr.ValidationError, apperr.Conflict, or apperr.AssetStore
*/
func (service *Service) AddPage(context context.Context, storybookID string, input PageInput) (*Page, error) {
	if _, err := service.repo.FindByID(context, storybookID); err != nil {
		return nil, err
	}

	// Business attribute validation
	validator := &validate.Validator{}
	validator.Min(FieldPageNumber, input.PageNumber, 1)
	text := checkTextContent(validator, input.TextContent)
	animation := checkAnimation(validator, input.AnimationData)
	checkPageUploads(validator, input)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	// Uniqueness of (storybook_id, page_number)
	if err := service.ensurePageNumberFree(context, storybookID, input.PageNumber, ""); err != nil {
		return nil, err
	}

	now := service.now()
	page := &Page{
		ID:            uuid.New(),
		StorybookID:   storybookID,
		PageNumber:    input.PageNumber,
		TextContent:   text,
		AnimationData: animation,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Store new assets before the insert
	stored, err := service.storePageAssets(context, page, input)
	if err != nil {
		return nil, err
	}

	count, err := service.repo.CreatePage(context, page)
	if err != nil {
		service.discardAssets(context, stored)
		return nil, err
	}

	service.invalidate(context, storybookID)

	service.logger.InfoContext(context, "page_added",
		slog.String("storybook_id", storybookID),
		slog.String("page_id", page.ID),
		slog.Int("page_number", page.PageNumber),
		slog.Int("page_count", count),
	)

	return page, nil
}

/*
UpdatePage applies a partial update to a page.

Description: Each asset slot is handled independently. A replacement is
stored first and the previous asset is deleted only after the row update
succeeds. Slots without an upload keep their current asset.

Returns:
  - *Page: The updated page
  - error: apperr.NotFound, apperr.ValidationError, apperr.Conflict, or apperr.AssetStore
*/
func (service *Service) UpdatePage(context context.Context, storybookID, pageID string, input PageInput) (*Page, error) {
	current, err := service.repo.FindPage(context, storybookID, pageID)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.TextContent = maps.Clone(current.TextContent)
	updated.AudioPaths = maps.Clone(current.AudioPaths)

	// Optional attribute validation
	validator := &validate.Validator{}
	if input.PageNumber != 0 {
		validator.Min(FieldPageNumber, input.PageNumber, 1)
		updated.PageNumber = input.PageNumber
	}
	if input.TextContent != nil {
		updated.TextContent = checkTextContent(validator, input.TextContent)
	}
	if input.AnimationData != nil {
		updated.AnimationData = checkAnimation(validator, input.AnimationData)
	}
	checkPageUploads(validator, input)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	// A renumbered page must not collide with a sibling
	if updated.PageNumber != current.PageNumber {
		if err := service.ensurePageNumberFree(context, storybookID, updated.PageNumber, pageID); err != nil {
			return nil, err
		}
	}

	// Store replacements first
	stored, err := service.storePageAssets(context, &updated, input)
	if err != nil {
		return nil, err
	}

	updated.UpdatedAt = service.now()
	if err := service.repo.UpdatePage(context, &updated); err != nil {
		service.discardAssets(context, stored)
		return nil, err
	}

	// Only now are the replaced assets unreferenced
	service.discardAssets(context, replacedPaths(current, &updated))
	service.invalidate(context, storybookID)

	service.logger.InfoContext(context, "page_updated",
		slog.String("storybook_id", storybookID),
		slog.String("page_id", pageID),
		slog.Int("replaced_assets", len(stored)),
	)

	return &updated, nil
}

/*
RemovePage deletes a page's assets, then the row, and recomputes page_count.

Returns:
  - error: apperr.NotFound if the page does not belong to the storybook
*/
func (service *Service) RemovePage(context context.Context, storybookID, pageID string) error {
	page, err := service.repo.FindPage(context, storybookID, pageID)
	if err != nil {
		return err
	}

	service.discardAssets(context, page.AssetPaths())

	count, err := service.repo.DeletePage(context, storybookID, pageID)
	if err != nil {
		return err
	}

	service.invalidate(context, storybookID)

	service.logger.InfoContext(context, "page_removed",
		slog.String("storybook_id", storybookID),
		slog.String("page_id", pageID),
		slog.Int("page_count", count),
	)

	return nil
}

// # Page Helpers

func (service *Service) ensurePageNumberFree(context context.Context, storybookID string, number int, exceptPageID string) error {
	taken, err := service.repo.PageNumberTaken(context, storybookID, number, exceptPageID)
	if err != nil {
		return err
	}
	if taken {
		return duplicatePageNumber()
	}
	return nil
}

/*
storePageAssets stores every supplied upload and points page at the new paths.

If any store fails the uploads already stored by this call are deleted and
apperr.AssetStore is returned, leaving page and the database untouched.
*/
func (service *Service) storePageAssets(context context.Context, page *Page, input PageInput) ([]string, error) {
	var stored []string
	imagePath := page.ImagePath
	audioPaths := maps.Clone(page.AudioPaths)

	if input.Image != nil {
		path, err := service.storeAsset(context, ImageSlot, input.Image)
		if err != nil {
			return nil, err
		}
		stored = append(stored, path)
		imagePath = &path
	}

	for _, code := range slices.Sorted(maps.Keys(input.Audio)) {
		file := input.Audio[code]
		if file == nil {
			continue
		}

		path, err := service.storeAsset(context, AudioSlot, file)
		if err != nil {
			service.discardAssets(context, stored)
			return nil, err
		}
		stored = append(stored, path)

		if audioPaths == nil {
			audioPaths = map[language.Code]string{}
		}
		audioPaths[code] = path
	}

	page.ImagePath = imagePath
	page.AudioPaths = audioPaths
	return stored, nil
}

// replacedPaths lists assets referenced by before but no longer by after.
func replacedPaths(before, after *Page) []string {
	kept := after.AssetPaths()

	var replaced []string
	for _, path := range before.AssetPaths() {
		if !slices.Contains(kept, path) {
			replaced = append(replaced, path)
		}
	}
	return replaced
}

// checkTextContent validates the per-language text and returns it without blank entries.
func checkTextContent(validator *validate.Validator, text map[language.Code]string) map[language.Code]string {
	cleaned := make(map[language.Code]string, len(text))
	for code, value := range text {
		if !code.IsValid() {
			validator.Fail(FieldTextContent, "Unsupported language: "+string(code))
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			cleaned[code] = value
		}
	}

	validator.Custom(FieldTextContent, len(cleaned) == 0, "Text is required in at least one language")
	return cleaned
}

// checkAnimation accepts a JSON object or array. JSON null maps to no data.
func checkAnimation(validator *validate.Validator, data json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}

	valid := json.Valid(trimmed) && (trimmed[0] == '{' || trimmed[0] == '[')
	validator.Custom(FieldAnimationData, !valid, "Must be a JSON object or array")

	return json.RawMessage(trimmed)
}

// checkPageUploads validates the image and every audio upload against their slots.
func checkPageUploads(validator *validate.Validator, input PageInput) {
	ImageSlot.Check(validator, FieldImage, input.Image)

	for code, file := range input.Audio {
		if !code.IsValid() {
			validator.Fail(AudioField(code), "Unsupported language: "+string(code))
			continue
		}
		AudioSlot.Check(validator, AudioField(code), file)
	}
}

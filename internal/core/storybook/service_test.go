// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storybook/internal/core/language"
	"github.com/taibuivan/storybook/internal/core/storybook"
	"github.com/taibuivan/storybook/internal/platform/apperr"
	"github.com/taibuivan/storybook/internal/platform/blob"
	"github.com/taibuivan/storybook/pkg/pointer"
	"github.com/taibuivan/storybook/pkg/uuid"
)

// fieldsOf returns the fields named in a validation error.
func fieldsOf(t *testing.T, err error) []string {
	t.Helper()

	appError := apperr.As(err)
	require.NotNil(t, appError, "expected an application error, got %v", err)
	require.Equal(t, http.StatusBadRequest, appError.HTTPStatus)

	var fields []string
	for _, detail := range appError.Details {
		fields = append(fields, detail.Field)
	}
	return fields
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()

	appError := apperr.As(err)
	require.NotNil(t, appError, "expected an application error, got %v", err)
	assert.Equal(t, status, appError.HTTPStatus)
}

// # Storybook Lifecycle

/*
TestService_Create_Defaults verifies a new storybook starts as a draft with no pages.
*/
func TestService_Create_Defaults(t *testing.T) {
	h := newHarness(t)

	created := h.createStorybook(t, storybook.StorybookInput{
		Title:       "  Journey to the Moon ",
		Languages:   []language.Code{"EN", "en", "hi"},
		Description: pointer.To("   "),
		Tags:        []string{" space ", "", "exploration"},
	})

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Journey to the Moon", created.Title)
	assert.Equal(t, storybook.StatusDraft, created.Status)
	assert.Equal(t, 0, created.PageCount)
	assert.Equal(t, []language.Code{language.English, language.Hindi}, created.Languages)
	assert.Nil(t, created.Description)
	assert.Equal(t, []string{"space", "exploration"}, created.Tags)

	stored, err := h.repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, stored.Title)
	assert.Equal(t, created.Languages, stored.Languages)
	assert.True(t, created.CreatedAt.Equal(stored.CreatedAt))
}

/*
TestService_Create_Validation verifies each rule is reported against its field.
*/
func TestService_Create_Validation(t *testing.T) {
	valid := storybook.StorybookInput{
		Title:     "Ocean Friends",
		Author:    "Priya Singh",
		Languages: []language.Code{language.English},
	}

	tests := []struct {
		name   string
		mutate func(input *storybook.StorybookInput)
		field  string
	}{
		{"Missing title", func(input *storybook.StorybookInput) { input.Title = " " }, storybook.FieldTitle},
		{"Title too long", func(input *storybook.StorybookInput) { input.Title = strings.Repeat("a", 256) }, storybook.FieldTitle},
		{"Missing author", func(input *storybook.StorybookInput) { input.Author = "" }, storybook.FieldAuthor},
		{"Empty languages", func(input *storybook.StorybookInput) { input.Languages = []language.Code{} }, storybook.FieldLanguages},
		{"Unsupported language", func(input *storybook.StorybookInput) { input.Languages = []language.Code{"fr"} }, storybook.FieldLanguages},
		{"Unknown status", func(input *storybook.StorybookInput) { input.Status = "deleted" }, storybook.FieldStatus},
		{"Age group too long", func(input *storybook.StorybookInput) { input.AgeGroup = pointer.To(strings.Repeat("9", 51)) }, storybook.FieldAgeGroup},
		{"Cover is not an image", func(input *storybook.StorybookInput) {
			input.Cover = &blob.File{Name: "cover.png", Content: textBytes}
		}, storybook.FieldCoverImage},
		{"Cover too large", func(input *storybook.StorybookInput) {
			input.Cover = &blob.File{Name: "cover.png", Content: append(pngBytes, make([]byte, 2<<20)...)}
		}, storybook.FieldCoverImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			input := valid
			tt.mutate(&input)

			_, err := h.service.Create(context.Background(), input)
			require.Error(t, err)
			assert.Contains(t, fieldsOf(t, err), tt.field)

			// Rejected atomically: nothing stored, nothing written
			assert.Empty(t, h.assets.puts)
			books, total, err := h.repo.ListFiltered(context.Background(), storybook.Filter{}, 10, 0)
			require.NoError(t, err)
			assert.Zero(t, total)
			assert.Empty(t, books)
		})
	}
}

/*
TestService_Create_StoresCover verifies the cover lands in the cover directory.
*/
func TestService_Create_StoresCover(t *testing.T) {
	h := newHarness(t)

	created := h.createStorybook(t, storybook.StorybookInput{Cover: pngFile("Crow Cover.png")})

	require.NotNil(t, created.CoverImage)
	assert.True(t, strings.HasPrefix(*created.CoverImage, storybook.CoverSlot.Directory+"/"))
	assert.True(t, strings.HasSuffix(*created.CoverImage, "-crow-cover.png"))
	assert.True(t, h.assets.has(*created.CoverImage))
}

/*
TestService_Create_AssetStoreFailure verifies a failed cover upload writes no row.
*/
func TestService_Create_AssetStoreFailure(t *testing.T) {
	h := newHarness(t)
	h.assets.failPutOn = 1

	_, err := h.service.Create(context.Background(), storybook.StorybookInput{
		Title:     "The Kind Dragon",
		Author:    "Arjun Kumar",
		Languages: []language.Code{language.English},
		Cover:     pngFile("cover.png"),
	})
	requireStatus(t, err, http.StatusInternalServerError)
	assert.Equal(t, "ASSET_STORE_ERROR", apperr.As(err).Code)

	_, total, err := h.repo.ListFiltered(context.Background(), storybook.Filter{}, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

/*
TestService_Update_ReplacesCover verifies the old cover is deleted only after the replacement is stored.
*/
func TestService_Update_ReplacesCover(t *testing.T) {
	h := newHarness(t)
	created := h.createStorybook(t, storybook.StorybookInput{Cover: pngFile("first.png")})
	oldCover := *created.CoverImage

	updated, err := h.service.Update(context.Background(), created.ID, storybook.StorybookInput{
		Title:     "The Clever Crow, Revised",
		Author:    created.Author,
		Languages: created.Languages,
		Cover:     pngFile("second.png"),
	})
	require.NoError(t, err)

	require.NotNil(t, updated.CoverImage)
	assert.NotEqual(t, oldCover, *updated.CoverImage)
	assert.True(t, h.assets.has(*updated.CoverImage))
	assert.False(t, h.assets.has(oldCover))
	assert.Equal(t, []string{oldCover}, h.assets.deleted())

	// Status is kept when omitted
	assert.Equal(t, storybook.StatusDraft, updated.Status)
	assert.Contains(t, h.cache.invalidated, created.ID)
}

/*
TestService_Update_FailedReplacementKeepsCover verifies a failed upload leaves the previous cover in place.
*/
func TestService_Update_FailedReplacementKeepsCover(t *testing.T) {
	h := newHarness(t)
	created := h.createStorybook(t, storybook.StorybookInput{Cover: pngFile("first.png")})
	h.assets.failPutOn = 2

	_, err := h.service.Update(context.Background(), created.ID, storybook.StorybookInput{
		Title:     created.Title,
		Author:    created.Author,
		Languages: created.Languages,
		Cover:     pngFile("second.png"),
	})
	requireStatus(t, err, http.StatusInternalServerError)

	stored, err := h.repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.CoverImage, stored.CoverImage)
	assert.True(t, h.assets.has(*created.CoverImage))
	assert.Empty(t, h.assets.deleted())
}

/*
TestService_Update_NotFound verifies updates to unknown ids are reported as missing.
*/
func TestService_Update_NotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.service.Update(context.Background(), "0192f3c1-0000-7000-8000-000000000000", storybook.StorybookInput{
		Title: "Ghost", Author: "Nobody", Languages: []language.Code{language.English},
	})
	requireStatus(t, err, http.StatusNotFound)
}

/*
TestService_Update_StatusTransitions verifies any status may follow any other.
*/
func TestService_Update_StatusTransitions(t *testing.T) {
	h := newHarness(t)
	created := h.createStorybook(t, storybook.StorybookInput{})

	for _, status := range []storybook.Status{storybook.StatusPublished, storybook.StatusDraft, storybook.StatusArchived, storybook.StatusPublished} {
		updated, err := h.service.Update(context.Background(), created.ID, storybook.StorybookInput{
			Title:     created.Title,
			Author:    created.Author,
			Languages: created.Languages,
			Status:    status,
		})
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}
}

/*
TestService_Delete_Cascades verifies every referenced asset and every row is removed.
*/
func TestService_Delete_Cascades(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	created := h.createStorybook(t, storybook.StorybookInput{Cover: pngFile("cover.png")})

	first, err := h.service.AddPage(ctx, created.ID, storybook.PageInput{
		PageNumber:  1,
		TextContent: map[language.Code]string{language.English: "One"},
		Image:       pngFile("one.png"),
		Audio: map[language.Code]*blob.File{
			language.English: mp3File("one-en.mp3"),
			language.Hindi:   mp3File("one-hi.mp3"),
		},
	})
	require.NoError(t, err)
	second := h.addPage(t, created.ID, 2)

	expected := append([]string{*created.CoverImage}, first.AssetPaths()...)
	expected = append(expected, second.AssetPaths()...)
	require.Len(t, expected, 4)

	require.NoError(t, h.service.Delete(ctx, created.ID))

	for _, assetPath := range expected {
		assert.False(t, h.assets.has(assetPath), assetPath)
	}
	assert.ElementsMatch(t, expected, h.assets.deleted())

	_, err = h.repo.FindByID(ctx, created.ID)
	requireStatus(t, err, http.StatusNotFound)

	_, err = h.repo.FindPage(ctx, created.ID, first.ID)
	requireStatus(t, err, http.StatusNotFound)

	// A second delete reports the missing storybook
	requireStatus(t, h.service.Delete(ctx, created.ID), http.StatusNotFound)
}

// # Pages

/*
TestService_PageCount verifies page_count follows every add and remove.
*/
func TestService_PageCount(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	created := h.createStorybook(t, storybook.StorybookInput{})

	pageCount := func() int {
		stored, err := h.repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		return stored.PageCount
	}

	first := h.addPage(t, created.ID, 1)
	h.addPage(t, created.ID, 2)
	h.addPage(t, created.ID, 5)
	assert.Equal(t, 3, pageCount())

	require.NoError(t, h.service.RemovePage(ctx, created.ID, first.ID))
	assert.Equal(t, 2, pageCount())

	next, err := h.service.NextPageNumber(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, next)
}

/*
TestService_AddPage_DuplicateNumber verifies a taken page number is a conflict and stores nothing.
*/
func TestService_AddPage_DuplicateNumber(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	created := h.createStorybook(t, storybook.StorybookInput{})
	h.addPage(t, created.ID, 1)

	_, err := h.service.AddPage(ctx, created.ID, storybook.PageInput{
		PageNumber:  1,
		TextContent: map[language.Code]string{language.Hindi: "दूसरा"},
		Image:       pngFile("dup.png"),
	})
	requireStatus(t, err, http.StatusConflict)
	assert.Empty(t, h.assets.puts)

	stored, err := h.repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.PageCount)
}

/*
TestService_AddPage_Validation verifies page attribute rules.
*/
func TestService_AddPage_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input storybook.PageInput
		field string
	}{
		{
			name:  "Page number below one",
			input: storybook.PageInput{PageNumber: 0, TextContent: map[language.Code]string{language.English: "Hi"}},
			field: storybook.FieldPageNumber,
		},
		{
			name:  "No text in any language",
			input: storybook.PageInput{PageNumber: 1, TextContent: map[language.Code]string{language.English: "  "}},
			field: storybook.FieldTextContent,
		},
		{
			name:  "Unsupported text language",
			input: storybook.PageInput{PageNumber: 1, TextContent: map[language.Code]string{"fr": "Bonjour"}},
			field: storybook.FieldTextContent,
		},
		{
			name: "Animation data is a scalar",
			input: storybook.PageInput{
				PageNumber:    1,
				TextContent:   map[language.Code]string{language.English: "Hi"},
				AnimationData: json.RawMessage(`"bounce"`),
			},
			field: storybook.FieldAnimationData,
		},
		{
			name: "Image is audio",
			input: storybook.PageInput{
				PageNumber:  1,
				TextContent: map[language.Code]string{language.English: "Hi"},
				Image:       mp3File("image.png"),
			},
			field: storybook.FieldImage,
		},
		{
			name: "Audio is an image",
			input: storybook.PageInput{
				PageNumber:  1,
				TextContent: map[language.Code]string{language.English: "Hi"},
				Audio:       map[language.Code]*blob.File{language.Hindi: pngFile("audio.mp3")},
			},
			field: storybook.AudioField(language.Hindi),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			created := h.createStorybook(t, storybook.StorybookInput{})

			_, err := h.service.AddPage(context.Background(), created.ID, tt.input)
			require.Error(t, err)
			assert.Contains(t, fieldsOf(t, err), tt.field)
			assert.Empty(t, h.assets.puts)
		})
	}
}

/*
TestService_AddPage_UnknownStorybook verifies pages cannot be attached to a missing storybook.
*/
func TestService_AddPage_UnknownStorybook(t *testing.T) {
	h := newHarness(t)

	_, err := h.service.AddPage(context.Background(), "0192f3c1-0000-7000-8000-000000000000", storybook.PageInput{
		PageNumber:  1,
		TextContent: map[language.Code]string{language.English: "Hi"},
	})
	requireStatus(t, err, http.StatusNotFound)
}

/*
TestService_AddPage_PartialUploadFailure verifies assets stored before a failing upload are removed.
*/
func TestService_AddPage_PartialUploadFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	created := h.createStorybook(t, storybook.StorybookInput{})
	h.assets.failPutOn = 2

	_, err := h.service.AddPage(ctx, created.ID, storybook.PageInput{
		PageNumber:  1,
		TextContent: map[language.Code]string{language.English: "Hi"},
		Image:       pngFile("image.png"),
		Audio:       map[language.Code]*blob.File{language.English: mp3File("en.mp3")},
	})
	requireStatus(t, err, http.StatusInternalServerError)

	require.Len(t, h.assets.puts, 1)
	assert.False(t, h.assets.has(h.assets.puts[0]))

	stored, err := h.repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.PageCount)
}

/*
TestService_UpdatePage_ReplacesOneAudioSlot verifies replacing one language's audio leaves the other untouched.
*/
func TestService_UpdatePage_ReplacesOneAudioSlot(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	created := h.createStorybook(t, storybook.StorybookInput{})

	page, err := h.service.AddPage(ctx, created.ID, storybook.PageInput{
		PageNumber:    1,
		TextContent:   map[language.Code]string{language.English: "Hello", language.Hindi: "नमस्ते"},
		AnimationData: json.RawMessage(`{"effect":"fade"}`),
		Image:         pngFile("image.png"),
		Audio: map[language.Code]*blob.File{
			language.English: mp3File("en.mp3"),
			language.Hindi:   mp3File("hi.mp3"),
		},
	})
	require.NoError(t, err)

	oldEnglish := page.AudioPaths[language.English]
	hindi := page.AudioPaths[language.Hindi]
	image := *page.ImagePath

	updated, err := h.service.UpdatePage(ctx, created.ID, page.ID, storybook.PageInput{
		Audio: map[language.Code]*blob.File{language.English: mp3File("en-v2.mp3")},
	})
	require.NoError(t, err)

	assert.NotEqual(t, oldEnglish, updated.AudioPaths[language.English])
	assert.Equal(t, hindi, updated.AudioPaths[language.Hindi])
	assert.Equal(t, image, *updated.ImagePath)
	assert.Equal(t, 1, updated.PageNumber)
	assert.Equal(t, "Hello", updated.TextContent[language.English])
	assert.JSONEq(t, `{"effect":"fade"}`, string(updated.AnimationData))

	assert.Equal(t, []string{oldEnglish}, h.assets.deleted())
	assert.True(t, h.assets.has(hindi))

	stored, err := h.repo.FindPage(ctx, created.ID, page.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.AudioPaths, stored.AudioPaths)
}

/*
TestService_UpdatePage_Renumber verifies renumbering checks siblings and clearing animation works.
*/
func TestService_UpdatePage_Renumber(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	created := h.createStorybook(t, storybook.StorybookInput{})
	first := h.addPage(t, created.ID, 1)
	h.addPage(t, created.ID, 2)

	_, err := h.service.UpdatePage(ctx, created.ID, first.ID, storybook.PageInput{PageNumber: 2})
	requireStatus(t, err, http.StatusConflict)

	// Keeping its own number is not a conflict
	_, err = h.service.UpdatePage(ctx, created.ID, first.ID, storybook.PageInput{PageNumber: 1})
	require.NoError(t, err)

	updated, err := h.service.UpdatePage(ctx, created.ID, first.ID, storybook.PageInput{
		PageNumber:    3,
		AnimationData: json.RawMessage("null"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.PageNumber)
	assert.Nil(t, updated.AnimationData)
}

/*
TestService_UpdatePage_WrongStorybook verifies a page cannot be reached through another storybook.
*/
func TestService_UpdatePage_WrongStorybook(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	owner := h.createStorybook(t, storybook.StorybookInput{})
	other := h.createStorybook(t, storybook.StorybookInput{Title: "Other"})
	page := h.addPage(t, owner.ID, 1)

	_, err := h.service.UpdatePage(ctx, other.ID, page.ID, storybook.PageInput{PageNumber: 4})
	requireStatus(t, err, http.StatusNotFound)

	requireStatus(t, h.service.RemovePage(ctx, other.ID, page.ID), http.StatusNotFound)
}

/*
TestService_RemovePage_DeletesAssets verifies a removed page's image and audio are deleted.
*/
func TestService_RemovePage_DeletesAssets(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	created := h.createStorybook(t, storybook.StorybookInput{})

	page, err := h.service.AddPage(ctx, created.ID, storybook.PageInput{
		PageNumber:  1,
		TextContent: map[language.Code]string{language.English: "Hi"},
		Image:       pngFile("image.png"),
		Audio:       map[language.Code]*blob.File{language.Hindi: mp3File("hi.mp3")},
	})
	require.NoError(t, err)

	require.NoError(t, h.service.RemovePage(ctx, created.ID, page.ID))
	assert.ElementsMatch(t, page.AssetPaths(), h.assets.deleted())
}

/*
TestService_RecomputeAll verifies drifted counters are repaired.
*/
func TestService_RecomputeAll(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	created := h.createStorybook(t, storybook.StorybookInput{})
	h.addPage(t, created.ID, 1)
	h.addPage(t, created.ID, 2)

	// A row written with a stale counter and no pages
	now := time.Now().UTC().Truncate(time.Millisecond)
	drifted := &storybook.Storybook{
		ID:        uuid.New(),
		Title:     "Drifted",
		Author:    "Vikram Joshi",
		Languages: []language.Code{language.Hindi},
		Status:    storybook.StatusDraft,
		PageCount: 7,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, h.repo.Create(ctx, drifted))

	total, changed, err := h.service.RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, changed)

	stored, err := h.repo.FindByID(ctx, drifted.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.PageCount)

	stored, err = h.repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.PageCount)
}

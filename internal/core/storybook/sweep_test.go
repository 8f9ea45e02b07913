// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook_test

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storybook/internal/core/language"
	"github.com/taibuivan/storybook/internal/core/storybook"
	"github.com/taibuivan/storybook/internal/platform/blob"
)

/*
TestService_SweepOrphans verifies only old, unreferenced assets are removed.
*/
func TestService_SweepOrphans(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	created := h.createStorybook(t, storybook.StorybookInput{Cover: pngFile("cover.png")})
	page, err := h.service.AddPage(ctx, created.ID, storybook.PageInput{
		PageNumber:  1,
		TextContent: map[language.Code]string{language.English: "Hi"},
		Audio:       map[language.Code]*blob.File{language.English: mp3File("en.mp3")},
	})
	require.NoError(t, err)

	oldOrphan := "storybooks/pages/images/old-orphan.png"
	freshOrphan := "storybooks/pages/audio/fresh-upload.mp3"
	outside := "exports/not-ours.csv"
	h.assets.seed(oldOrphan, time.Now().Add(-48*time.Hour))
	h.assets.seed(freshOrphan, time.Now())
	h.assets.seed(outside, time.Now().Add(-48*time.Hour))

	t.Run("Dry run reports without deleting", func(t *testing.T) {
		report, err := h.service.SweepOrphans(ctx, time.Hour, true)
		require.NoError(t, err)

		assert.True(t, report.DryRun)
		assert.Equal(t, 4, report.Scanned)
		assert.Equal(t, 2, report.Referenced)
		require.Len(t, report.Orphans, 1)
		assert.Equal(t, oldOrphan, report.Orphans[0].Path)
		assert.Zero(t, report.Deleted)
		assert.True(t, h.assets.has(oldOrphan))
	})

	t.Run("Sweep deletes the orphan", func(t *testing.T) {
		report, err := h.service.SweepOrphans(ctx, time.Hour, false)
		require.NoError(t, err)

		assert.Equal(t, 1, report.Deleted)
		assert.Zero(t, report.Failed)
		assert.False(t, h.assets.has(oldOrphan))
		assert.True(t, h.assets.has(freshOrphan))
		assert.True(t, h.assets.has(outside))
		assert.True(t, h.assets.has(*created.CoverImage))
		assert.True(t, h.assets.has(page.AudioPaths[language.English]))
	})
}

/*
TestService_Seed verifies demo content goes through validation and keeps page_count accurate.
*/
func TestService_Seed(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	plans := []storybook.SeedPlan{
		{Status: storybook.StatusPublished, Books: 3, MinPages: 2, MaxPages: 4},
		{Status: storybook.StatusDraft, Books: 2, MinPages: 1, MaxPages: 1},
	}

	created, err := h.service.Seed(ctx, rand.New(rand.NewPCG(1, 2)), plans)
	require.NoError(t, err)
	require.Len(t, created, 5)

	for _, book := range created {
		stored, err := h.repo.FindByID(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, book.PageCount, stored.PageCount)
		assert.NotEmpty(t, stored.Languages)

		pages, total, err := h.service.ListPages(ctx, book.ID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, stored.PageCount, total)
		assert.Len(t, pages, total)

		for _, page := range pages {
			for code := range page.TextContent {
				assert.True(t, stored.HasLanguage(code), "page text in %s outside the storybook languages", code)
			}
		}
	}

	published, total, err := h.service.ListPublic(ctx, storybook.Filter{}, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, published, 3)
}

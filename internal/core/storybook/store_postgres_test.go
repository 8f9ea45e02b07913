// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook_test

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storybook/internal/core/language"
	"github.com/taibuivan/storybook/internal/core/storybook"
	"github.com/taibuivan/storybook/internal/platform/migration"
	pgstore "github.com/taibuivan/storybook/internal/platform/postgres"
)

// postgresURLEnv names a disposable database. Its storybook tables are
// truncated before each test.
const postgresURLEnv = "STORYBOOK_TEST_POSTGRES_URL"

func newPostgresHarness(t *testing.T) *harness {
	t.Helper()

	dsn := os.Getenv(postgresURLEnv)
	if dsn == "" {
		t.Skipf("%s not set", postgresURLEnv)
	}

	ctx := context.Background()
	logger := discardLogger()
	require.NoError(t, migration.RunUp(migration.DialectPostgres, dsn, logger))

	pool, err := pgstore.NewPool(ctx, dsn, pgstore.Options{MaxConns: 4}, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, "TRUNCATE storybooks CASCADE")
	require.NoError(t, err)

	repo := storybook.NewPostgresRepository(pool)
	assets := newMemoryStore()
	cache := newMemoryCache()

	return &harness{
		service: storybook.NewService(repo, assets, cache, discardLogger()),
		repo:    repo,
		assets:  assets,
		cache:   cache,
	}
}

/*
TestPostgres_ListPublic verifies JSONB language membership and ILIKE search against a live server.
*/
func TestPostgres_ListPublic(t *testing.T) {
	h := newPostgresHarness(t)
	catalogue(t, h)

	tests := []struct {
		name   string
		filter storybook.Filter
		want   []string
	}{
		{"Language membership", storybook.Filter{Language: language.Hindi}, []string{"Hindi Only", "Bilingual Tales"}},
		{"Search is case-insensitive", storybook.Filter{Search: "ONLY"}, []string{"English Only", "Hindi Only"}},
		{"Wildcards are literal", storybook.Filter{Search: "%"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, total, err := h.service.ListPublic(context.Background(), tt.filter, 20, 0)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), total)
			if tt.want == nil {
				assert.Empty(t, books)
				return
			}
			assert.Equal(t, tt.want, titles(books))
		})
	}
}

/*
TestPostgres_PageLifecycle verifies page_count, the page number conflict, and the cascading delete.
*/
func TestPostgres_PageLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newPostgresHarness(t)

	book := h.createStorybook(t, storybook.StorybookInput{})
	h.addPage(t, book.ID, 1)
	second := h.addPage(t, book.ID, 2)

	_, err := h.service.AddPage(ctx, book.ID, storybook.PageInput{
		PageNumber:  2,
		TextContent: map[language.Code]string{language.English: "Again"},
	})
	requireStatus(t, err, http.StatusConflict)

	reloaded, err := h.repo.FindByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.PageCount)

	require.NoError(t, h.service.RemovePage(ctx, book.ID, second.ID))
	next, err := h.service.NextPageNumber(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, next)

	require.NoError(t, h.service.Delete(ctx, book.ID))
	_, err = h.repo.FindByID(ctx, book.ID)
	requireStatus(t, err, http.StatusNotFound)
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storybook/internal/core/language"
	"github.com/taibuivan/storybook/internal/core/storybook"
	"github.com/taibuivan/storybook/internal/platform/blob"
	"github.com/taibuivan/storybook/internal/platform/migration"
	"github.com/taibuivan/storybook/internal/platform/sqlite"
)

// # Fixtures

var (
	// pngBytes is the PNG signature followed by padding; enough for content sniffing.
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

	// mp3Bytes starts with an ID3 tag header.
	mp3Bytes = append([]byte("ID3\x03\x00\x00\x00\x00\x00\x00"), make([]byte, 32)...)

	// textBytes sniffs as text/plain and is rejected by every slot.
	textBytes = []byte("just some words, not an image")
)

func pngFile(name string) *blob.File { return &blob.File{Name: name, Content: pngBytes} }
func mp3File(name string) *blob.File { return &blob.File{Name: name, Content: mp3Bytes} }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newRepository returns a repository over a fresh, migrated SQLite file.
func newRepository(t *testing.T) storybook.Repository {
	t.Helper()

	logger := discardLogger()
	path := filepath.Join(t.TempDir(), "storybook.db")
	require.NoError(t, migration.RunUp(migration.DialectSQLite, path, logger))

	db, err := sqlite.Open(context.Background(), path, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return storybook.NewSQLiteRepository(db)
}

type harness struct {
	service *storybook.Service
	repo    storybook.Repository
	assets  *memoryStore
	cache   *memoryCache
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	repo := newRepository(t)
	assets := newMemoryStore()
	cache := newMemoryCache()

	return &harness{
		service: storybook.NewService(repo, assets, cache, discardLogger()),
		repo:    repo,
		assets:  assets,
		cache:   cache,
	}
}

// createStorybook creates a storybook with sensible defaults for fields the test does not care about.
func (h *harness) createStorybook(t *testing.T, input storybook.StorybookInput) *storybook.Storybook {
	t.Helper()

	if input.Title == "" {
		input.Title = "The Clever Crow"
	}
	if input.Author == "" {
		input.Author = "Maya Sharma"
	}
	if input.Languages == nil {
		input.Languages = []language.Code{language.English, language.Hindi}
	}

	created, err := h.service.Create(context.Background(), input)
	require.NoError(t, err)
	return created
}

// addPage adds a page with English text.
func (h *harness) addPage(t *testing.T, storybookID string, number int) *storybook.Page {
	t.Helper()

	page, err := h.service.AddPage(context.Background(), storybookID, storybook.PageInput{
		PageNumber:  number,
		TextContent: map[language.Code]string{language.English: "Once upon a time"},
	})
	require.NoError(t, err)
	return page
}

// # Asset Store Double

var errStoreDown = errors.New("memory store: unavailable")

// memoryStore is an in-memory blob.Store that records every call.
type memoryStore struct {
	mu sync.Mutex

	objects map[string]blob.Object
	puts    []string
	deletes []string

	// failPutOn makes the n-th Put (1-based) fail. Zero disables it.
	failPutOn int
	putCalls  int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string]blob.Object{}}
}

func (store *memoryStore) Put(_ context.Context, directory string, file *blob.File) (string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.putCalls++
	if store.failPutOn != 0 && store.putCalls == store.failPutOn {
		return "", errStoreDown
	}

	assetPath := directory + "/" + blob.ObjectName(file)
	store.objects[assetPath] = blob.Object{Path: assetPath, Size: file.Size(), ModTime: time.Now().Add(-time.Hour)}
	store.puts = append(store.puts, assetPath)
	return assetPath, nil
}

func (store *memoryStore) Delete(_ context.Context, assetPath string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.objects, assetPath)
	store.deletes = append(store.deletes, assetPath)
	return nil
}

func (store *memoryStore) List(_ context.Context, prefix string) ([]blob.Object, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	var objects []blob.Object
	for assetPath, object := range store.objects {
		if strings.HasPrefix(assetPath, prefix) {
			objects = append(objects, object)
		}
	}
	return objects, nil
}

// seed places an object directly in the store, bypassing Put.
func (store *memoryStore) seed(assetPath string, modTime time.Time) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.objects[assetPath] = blob.Object{Path: assetPath, Size: 1, ModTime: modTime}
}

func (store *memoryStore) has(assetPath string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()
	_, ok := store.objects[assetPath]
	return ok
}

func (store *memoryStore) deleted() []string {
	store.mu.Lock()
	defer store.mu.Unlock()
	return slices.Sorted(slices.Values(store.deletes))
}

// # Cache Double

type memoryCache struct {
	mu          sync.Mutex
	entries     map[string]*storybook.Storybook
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]*storybook.Storybook{}}
}

func (cache *memoryCache) Get(_ context.Context, id string) (*storybook.Storybook, bool, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	entry, ok := cache.entries[id]
	return entry, ok, nil
}

func (cache *memoryCache) Set(_ context.Context, entry *storybook.Storybook) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.entries[entry.ID] = entry
	return nil
}

func (cache *memoryCache) Invalidate(_ context.Context, id string) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	delete(cache.entries, id)
	cache.invalidated = append(cache.invalidated, id)
	return nil
}

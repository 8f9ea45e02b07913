// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/storybook/internal/core/language"
	"github.com/taibuivan/storybook/internal/platform/apperr"
	"github.com/taibuivan/storybook/internal/platform/blob"
	"github.com/taibuivan/storybook/internal/platform/validate"
	"github.com/taibuivan/storybook/pkg/pointer"
	"github.com/taibuivan/storybook/pkg/slice"
	"github.com/taibuivan/storybook/pkg/uuid"
)

// assetDeleteConcurrency bounds parallel deletes against the asset store.
const assetDeleteConcurrency = 8

// # Service Layer

// Service orchestrates the storybook aggregate: metadata, pages, assets, and listings.
type Service struct {
	repo   Repository
	assets blob.Store
	cache  Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a [Service]. A nil cache disables caching.
func NewService(repo Repository, assets blob.Store, cache Cache, logger *slog.Logger) *Service {
	if cache == nil {
		cache = NoopCache{}
	}

	return &Service{
		repo:   repo,
		assets: assets,
		cache:  cache,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// StorybookInput carries the editable attributes of a storybook.
type StorybookInput struct {
	Title       string
	Author      string
	Languages   []language.Code
	Description *string

	// Status is optional on update, where empty keeps the current value.
	Status Status

	AgeGroup *string
	Tags     []string

	// Cover is an optional replacement cover upload.
	Cover *blob.File
}

// # Listings

/*
ListPublic lists published storybooks with their pages for the mobile API.

Description: The status predicate is forced to published and results are
ordered by insertion so pagination stays stable while new books are added.

Parameters:
  - context: context.Context
  - filter: Filter (language, age group, search)
  - limit: int
  - offset: int

Returns:
  - []*Storybook: Published storybooks with pages eager-loaded
  - int: Total count of matching rows
  - error: Repository errors
*/
func (service *Service) ListPublic(context context.Context, filter Filter, limit, offset int) ([]*Storybook, int, error) {
	filter.Status = []Status{StatusPublished}
	filter.Order = OrderInsertion

	storybooks, total, err := service.repo.ListFiltered(context, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	if err := service.attachPages(context, storybooks); err != nil {
		return nil, 0, err
	}

	return storybooks, total, nil
}

/*
ListForOwner lists storybooks in every status, newest first, for editors.

The filter status is honoured when the caller narrows the index.
*/
func (service *Service) ListForOwner(context context.Context, filter Filter, limit, offset int) ([]*Storybook, int, error) {
	filter.Order = OrderNewest
	return service.repo.ListFiltered(context, filter, limit, offset)
}

/*
ListForViewer lists storybooks for the editor index.

Description: Authenticated viewers see every status. Anonymous viewers get
the published-only query, and the result is filtered on status once more
before it is returned.
*/
func (service *Service) ListForViewer(context context.Context, authenticated bool, filter Filter, limit, offset int) ([]*Storybook, int, error) {
	if authenticated {
		return service.ListForOwner(context, filter, limit, offset)
	}

	filter.Status = []Status{StatusPublished}
	storybooks, total, err := service.ListForOwner(context, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	visible := slice.Filter(storybooks, (*Storybook).IsPublished)
	if visible == nil {
		visible = []*Storybook{}
	}

	return visible, total, nil
}

// # Lookups

/*
GetForViewer returns a storybook with its pages for the editor surface.

Returns:
  - error: apperr.NotFound when missing, or when an anonymous viewer asks for a non-published storybook
*/
func (service *Service) GetForViewer(context context.Context, authenticated bool, id string) (*Storybook, error) {
	var storybook *Storybook
	var err error

	if authenticated {
		storybook, err = service.repo.FindByID(context, id)
	} else {
		storybook, err = service.repo.FindPublished(context, id)
	}
	if err != nil {
		return nil, err
	}

	if err := service.attachPages(context, []*Storybook{storybook}); err != nil {
		return nil, err
	}

	return storybook, nil
}

/*
GetPublished returns a published storybook with its pages, served from the cache when possible.

Returns:
  - error: apperr.NotFound for missing and non-published storybooks alike
*/
func (service *Service) GetPublished(context context.Context, id string) (*Storybook, error) {
	cached, ok, err := service.cache.Get(context, id)
	if err != nil {
		service.logger.WarnContext(context, "storybook_cache_read_failed", slog.String("storybook_id", id), slog.Any("error", err))
	}
	if ok && cached.IsPublished() {
		return cached, nil
	}

	storybook, err := service.repo.FindPublished(context, id)
	if err != nil {
		return nil, err
	}

	if err := service.attachPages(context, []*Storybook{storybook}); err != nil {
		return nil, err
	}

	if err := service.cache.Set(context, storybook); err != nil {
		service.logger.WarnContext(context, "storybook_cache_write_failed", slog.String("storybook_id", id), slog.Any("error", err))
	}

	return storybook, nil
}

// attachPages eager-loads pages for storybooks with a single query.
func (service *Service) attachPages(context context.Context, storybooks []*Storybook) error {
	if len(storybooks) == 0 {
		return nil
	}

	ids := slice.Map(storybooks, func(storybook *Storybook) string { return storybook.ID })
	pages, err := service.repo.PagesFor(context, ids)
	if err != nil {
		return err
	}

	for _, storybook := range storybooks {
		storybook.Pages = pages[storybook.ID]
		if storybook.Pages == nil {
			storybook.Pages = []*Page{}
		}
	}

	return nil
}

// # Storybook Management

/*
Create validates and persists a new storybook.

Description: The storybook starts with zero pages and defaults to draft. A
supplied cover is stored before the row is written; if the insert fails the
freshly stored cover is removed again.

Parameters:
  - context: context.Context
  - input: StorybookInput

Returns:
  - *Storybook: The persisted storybook
  - error: apperr.ValidationError, apperr.AssetStore, or repository errors
*/
func (service *Service) Create(context context.Context, input StorybookInput) (*Storybook, error) {
	if input.Status == "" {
		input.Status = StatusDraft
	}

	normalized, err := validateStorybook(input)
	if err != nil {
		return nil, err
	}

	now := service.now()
	storybook := &Storybook{
		ID:          uuid.New(),
		Title:       normalized.Title,
		Author:      normalized.Author,
		Languages:   normalized.Languages,
		Description: normalized.Description,
		Status:      normalized.Status,
		PageCount:   0,
		AgeGroup:    normalized.AgeGroup,
		Tags:        normalized.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Store the cover before touching the database
	if input.Cover != nil {
		coverPath, err := service.storeAsset(context, CoverSlot, input.Cover)
		if err != nil {
			return nil, err
		}
		storybook.CoverImage = &coverPath
	}

	if err := service.repo.Create(context, storybook); err != nil {
		service.discardAssets(context, optionalPaths(storybook.CoverImage))
		return nil, err
	}

	service.logger.InfoContext(context, "storybook_created",
		slog.String("storybook_id", storybook.ID),
		slog.String("title", storybook.Title),
		slog.String("status", string(storybook.Status)),
	)

	return storybook, nil
}

/*
Update replaces the editable attributes of a storybook.

Description: A replacement cover is stored first. The previous cover is
deleted only after the new one is stored and the row is updated. An empty
status keeps the current status.

Returns:
  - *Storybook: The updated storybook
  - error: apperr.NotFound, apperr.ValidationError, apperr.AssetStore, or repository errors
*/
func (service *Service) Update(context context.Context, id string, input StorybookInput) (*Storybook, error) {
	current, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if input.Status == "" {
		input.Status = current.Status
	}

	normalized, err := validateStorybook(input)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.Title = normalized.Title
	updated.Author = normalized.Author
	updated.Languages = normalized.Languages
	updated.Description = normalized.Description
	updated.Status = normalized.Status
	updated.AgeGroup = normalized.AgeGroup
	updated.Tags = normalized.Tags
	updated.UpdatedAt = service.now()

	// Store the replacement cover first
	var previousCover []string
	if input.Cover != nil {
		coverPath, err := service.storeAsset(context, CoverSlot, input.Cover)
		if err != nil {
			return nil, err
		}
		updated.CoverImage = &coverPath
		previousCover = optionalPaths(current.CoverImage)
	}

	if err := service.repo.Update(context, &updated); err != nil {
		if input.Cover != nil {
			service.discardAssets(context, optionalPaths(updated.CoverImage))
		}
		return nil, err
	}

	// The row points at the new cover, so the old one is now orphaned
	service.discardAssets(context, previousCover)
	service.invalidate(context, id)

	service.logger.InfoContext(context, "storybook_updated",
		slog.String("storybook_id", id),
		slog.String("status", string(updated.Status)),
	)

	return &updated, nil
}

/*
Delete removes a storybook, its pages, and every asset they reference.

Description: Two phases. All asset paths are collected and deleted first,
best effort. Then the page rows and the storybook row are deleted in one
transaction.

Returns:
  - error: apperr.NotFound if the storybook does not exist
*/
func (service *Service) Delete(context context.Context, id string) error {
	storybook, err := service.repo.FindByID(context, id)
	if err != nil {
		return err
	}

	if err := service.attachPages(context, []*Storybook{storybook}); err != nil {
		return err
	}

	// Phase 1: assets
	paths := storybook.AssetPaths()
	service.discardAssets(context, paths)

	// Phase 2: rows
	if err := service.repo.Delete(context, id); err != nil {
		return err
	}

	service.invalidate(context, id)

	service.logger.InfoContext(context, "storybook_deleted",
		slog.String("storybook_id", id),
		slog.Int("pages", len(storybook.Pages)),
		slog.Int("assets", len(paths)),
	)

	return nil
}

/*
RecomputePageCount sets page_count to the live number of pages.

Page mutations already recount inside their transaction. This is exposed for repair.
*/
func (service *Service) RecomputePageCount(context context.Context, id string) (int, error) {
	count, err := service.repo.RecountPages(context, id)
	if err != nil {
		return 0, err
	}

	service.invalidate(context, id)
	return count, nil
}

/*
RecomputeAll recounts every storybook and reports how many changed.
*/
func (service *Service) RecomputeAll(context context.Context) (int, int, error) {
	ids, err := service.repo.ListIDs(context)
	if err != nil {
		return 0, 0, err
	}

	changed := 0
	for _, id := range ids {
		before, err := service.repo.FindByID(context, id)
		if err != nil {
			return 0, 0, err
		}

		after, err := service.RecomputePageCount(context, id)
		if err != nil {
			return 0, 0, err
		}

		if before.PageCount != after {
			changed++
			service.logger.InfoContext(context, "page_count_repaired",
				slog.String("storybook_id", id),
				slog.Int("from", before.PageCount),
				slog.Int("to", after),
			)
		}
	}

	return len(ids), changed, nil
}

// # Validation

// validateStorybook checks input and returns a normalized copy.
func validateStorybook(input StorybookInput) (StorybookInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Author = strings.TrimSpace(input.Author)
	input.Languages = uniqueLanguages(input.Languages)
	input.Description = trimmedOrNil(input.Description)
	input.AgeGroup = trimmedOrNil(input.AgeGroup)
	input.Tags = cleanTags(input.Tags)

	validator := &validate.Validator{}

	// Identity attributes
	validator.Required(FieldTitle, input.Title).MaxLen(FieldTitle, input.Title, maxTitleLength)
	validator.Required(FieldAuthor, input.Author).MaxLen(FieldAuthor, input.Author, maxAuthorLength)

	// Language set
	validator.Custom(FieldLanguages, len(input.Languages) == 0, "At least one language must be selected")
	for _, code := range input.Languages {
		if !code.IsValid() {
			validator.Fail(FieldLanguages, "Must be one of: "+strings.Join(language.Strings(), ", "))
			break
		}
	}

	// Lifecycle state
	validator.OneOf(FieldStatus, string(input.Status), statusValues...)

	// Optional attributes
	if input.AgeGroup != nil {
		validator.MaxLen(FieldAgeGroup, *input.AgeGroup, maxAgeGroupLength)
	}
	for _, tag := range input.Tags {
		validator.MaxLen(FieldTags, tag, maxTagLength)
	}

	// Cover upload
	CoverSlot.Check(validator, FieldCoverImage, input.Cover)

	if err := validator.Err(); err != nil {
		return input, err
	}

	return input, nil
}

func uniqueLanguages(codes []language.Code) []language.Code {
	unique := make([]language.Code, 0, len(codes))
	for _, code := range codes {
		code = language.Code(strings.ToLower(strings.TrimSpace(string(code))))
		if code != "" && !slices.Contains(unique, code) {
			unique = append(unique, code)
		}
	}
	return unique
}

func cleanTags(tags []string) []string {
	var cleaned []string
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return cleaned
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return pointer.To(trimmed)
}

// # Asset Handling

// storeAsset writes an upload into its slot directory. Failures surface as ASSET_STORE_ERROR.
func (service *Service) storeAsset(context context.Context, slot Slot, file *blob.File) (string, error) {
	path, err := service.assets.Put(context, slot.Directory, file)
	if err != nil {
		service.logger.ErrorContext(context, "asset_store_failed",
			slog.String("directory", slot.Directory),
			slog.Any("error", err),
		)
		return "", apperr.AssetStore(err)
	}
	return path, nil
}

// discardAssets deletes paths concurrently. Failures are logged and swallowed.
func (service *Service) discardAssets(context context.Context, paths []string) {
	if len(paths) == 0 {
		return
	}

	group, groupContext := errgroup.WithContext(context)
	group.SetLimit(assetDeleteConcurrency)

	for _, path := range paths {
		group.Go(func() error {
			if err := service.assets.Delete(groupContext, path); err != nil {
				service.logger.WarnContext(context, "asset_delete_failed",
					slog.String("path", path),
					slog.Any("error", err),
				)
			}
			return nil
		})
	}

	_ = group.Wait()
}

func (service *Service) invalidate(context context.Context, id string) {
	if err := service.cache.Invalidate(context, id); err != nil {
		service.logger.WarnContext(context, "storybook_cache_invalidate_failed",
			slog.String("storybook_id", id),
			slog.Any("error", err),
		)
	}
}

func optionalPaths(path *string) []string {
	if path == nil || *path == "" {
		return nil
	}
	return []string{*path}
}

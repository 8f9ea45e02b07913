// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook

import "context"

// # Storybook Data Access

// Repository defines the data access contract for the storybook aggregate.
//
// Every mutating method runs in a single transaction. Methods that change the
// set of pages recompute page_count inside that same transaction.
type Repository interface {

	/*
		ListFiltered returns a filtered, paginated slice of storybooks and the total count.

		Parameters:
		  - context: context.Context
		  - filter: Filter (Status, language, age group, search, order)
		  - limit: int
		  - offset: int

		Returns:
		  - []*Storybook: Matching storybooks without pages
		  - int: Total count of rows matching the filter
		  - error: Database retrieval failures
	*/
	ListFiltered(context context.Context, filter Filter, limit, offset int) ([]*Storybook, int, error)

	/*
		FindByID returns the storybook with the given ID in any status.

		Returns:
		  - *Storybook: The entity without pages
		  - error: apperr.NotFound if missing
	*/
	FindByID(context context.Context, id string) (*Storybook, error)

	/*
		FindPublished returns the storybook only when its status is published.

		Returns:
		  - error: apperr.NotFound for missing and non-published rows alike
	*/
	FindPublished(context context.Context, id string) (*Storybook, error)

	// ListIDs returns the ID of every storybook, oldest first.
	ListIDs(context context.Context) ([]string, error)

	// Create inserts a new storybook row.
	Create(context context.Context, storybook *Storybook) error

	/*
		Update persists the mutable metadata of a storybook.

		page_count and created_at are never written by this method.
	*/
	Update(context context.Context, storybook *Storybook) error

	/*
		Delete removes the page rows and then the storybook row in one transaction.

		Returns:
		  - error: apperr.NotFound if the storybook does not exist
	*/
	Delete(context context.Context, id string) error

	/*
		RecountPages sets page_count to the live number of pages.

		Returns:
		  - int: The recomputed page_count
		  - error: apperr.NotFound if the storybook does not exist
	*/
	RecountPages(context context.Context, id string) (int, error)

	// # Pages

	/*
		ListPages returns a page of a storybook's pages ordered by page_number.

		Returns:
		  - []*Page: Matching pages
		  - int: Total number of pages of the storybook
		  - error: Database retrieval failures
	*/
	ListPages(context context.Context, storybookID string, limit, offset int) ([]*Page, int, error)

	/*
		PagesFor eager-loads the pages of several storybooks in one query.

		Returns:
		  - map[string][]*Page: Pages keyed by storybook ID, ordered by page_number
	*/
	PagesFor(context context.Context, storybookIDs []string) (map[string][]*Page, error)

	/*
		FindPage returns a page only when it belongs to storybookID.

		Returns:
		  - error: apperr.NotFound if missing or owned by another storybook
	*/
	FindPage(context context.Context, storybookID, pageID string) (*Page, error)

	/*
		CreatePage inserts a page and recomputes the owner's page_count.

		Returns:
		  - int: The new page_count
		  - error: apperr.Conflict on a duplicate page number
	*/
	CreatePage(context context.Context, page *Page) (int, error)

	/*
		UpdatePage persists a page's number, text, assets, and animation data.

		Returns:
		  - error: apperr.Conflict on a duplicate page number
	*/
	UpdatePage(context context.Context, page *Page) error

	/*
		DeletePage removes a page and recomputes the owner's page_count.

		Returns:
		  - int: The new page_count
		  - error: apperr.NotFound if the page does not belong to the storybook
	*/
	DeletePage(context context.Context, storybookID, pageID string) (int, error)

	// PageNumberTaken reports whether another page of the storybook uses number.
	PageNumberTaken(context context.Context, storybookID string, number int, exceptPageID string) (bool, error)

	// MaxPageNumber returns the highest page_number of the storybook, or 0 when it has no pages.
	MaxPageNumber(context context.Context, storybookID string) (int, error)

	// ListAssetPaths returns every asset path referenced by any storybook or page row.
	ListAssetPaths(context context.Context) ([]string, error)
}

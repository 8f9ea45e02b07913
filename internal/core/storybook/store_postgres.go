// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/storybook/internal/platform/apperr"
	"github.com/taibuivan/storybook/internal/platform/database/schema"
	"github.com/taibuivan/storybook/internal/platform/dberr"
)

// # PostgreSQL Repository

// postgresRepository implements [Repository] using pgx.
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed storybook store.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

// postgresDialect renders $n placeholders and JSONB containment.
type postgresDialect struct{}

func (postgresDialect) placeholder(position int) string { return fmt.Sprintf("$%d", position) }

func (postgresDialect) languageContains(column, placeholder string) string {
	return fmt.Sprintf("%s @> jsonb_build_array(%s::text)", column, placeholder)
}

func (postgresDialect) containsFolded(column, pattern string) string {
	return fmt.Sprintf(`%s ILIKE %s ESCAPE '\'`, column, pattern)
}

// pgQuerier is satisfied by both the pool and an open transaction.
type pgQuerier interface {
	QueryRow(context context.Context, sql string, args ...any) pgx.Row
}

// # Storybook Queries

/*
ListFiltered returns a filtered, paginated slice of storybooks and the total count.

Description: The total is computed by a separate COUNT over the same predicate
so the page query stays a plain indexed scan. Language membership uses the
GIN-indexed JSONB containment operator.

Parameters:
  - context: context.Context
  - filter: Filter
  - limit: int
  - offset: int

Returns:
  - []*Storybook: Storybooks without pages
  - int: Total count matching the filter
  - error: Database execution errors
*/
func (repository *postgresRepository) ListFiltered(context context.Context, filter Filter, limit, offset int) ([]*Storybook, int, error) {

	// Shared predicate
	where := filterClause(postgresDialect{}, filter)

	// Total count
	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, schema.Storybooks.Table, where)
	if err := repository.pool.QueryRow(context, countQuery, where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to count storybooks: %w", err)
	}

	// Page query
	limitPlaceholder := where.bind(limit)
	offsetPlaceholder := where.bind(offset)
	query := fmt.Sprintf(`SELECT %s FROM %s%s%s LIMIT %s OFFSET %s`,
		selectColumns(schema.Storybooks.Columns()),
		schema.Storybooks.Table,
		where,
		orderClause(filter.Order),
		limitPlaceholder, offsetPlaceholder,
	)

	rows, err := repository.pool.Query(context, query, where.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list storybooks: %w", err)
	}
	defer rows.Close()

	storybooks := []*Storybook{}
	for rows.Next() {
		storybook, err := scanPostgresStorybook(rows)
		if err != nil {
			return nil, 0, err
		}
		storybooks = append(storybooks, storybook)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to iterate storybooks: %w", err)
	}

	return storybooks, total, nil
}

// FindByID retrieves a storybook in any status.
func (repository *postgresRepository) FindByID(context context.Context, id string) (*Storybook, error) {
	return repository.findOne(context, fmt.Sprintf("%s = $1", schema.Storybooks.ID), id)
}

// FindPublished retrieves a storybook only when it is published.
func (repository *postgresRepository) FindPublished(context context.Context, id string) (*Storybook, error) {
	return repository.findOne(context,
		fmt.Sprintf("%s = $1 AND %s = $2", schema.Storybooks.ID, schema.Storybooks.Status),
		id, string(StatusPublished),
	)
}

func (repository *postgresRepository) findOne(context context.Context, condition string, args ...any) (*Storybook, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s`,
		selectColumns(schema.Storybooks.Columns()),
		schema.Storybooks.Table,
		condition,
	)

	storybook, err := scanPostgresStorybook(repository.pool.QueryRow(context, query, args...))
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, apperr.NotFound("Storybook")
		}
		return nil, err
	}

	return storybook, nil
}

// ListIDs returns every storybook ID, oldest first.
func (repository *postgresRepository) ListIDs(context context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s%s`, schema.Storybooks.ID, schema.Storybooks.Table, orderClause(OrderInsertion))

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list storybook ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to scan storybook ids: %w", err)
	}

	return ids, nil
}

// # Storybook Mutations

/*
Create inserts a new storybook row.

Parameters:
  - context: context.Context
  - storybook: *Storybook (ID and timestamps already assigned)

Returns:
  - error: Encoding or database failures
*/
func (repository *postgresRepository) Create(context context.Context, storybook *Storybook) error {
	languages, tags, err := storybookJSONArgs(storybook)
	if err != nil {
		return err
	}

	columns := schema.Storybooks.Columns()
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		schema.Storybooks.Table,
		selectColumns(columns),
		placeholders(postgresDialect{}, len(columns)),
	)

	_, err = repository.pool.Exec(context, query,
		storybook.ID,
		storybook.Title,
		storybook.Author,
		storybook.CoverImage,
		languages,
		storybook.Description,
		string(storybook.Status),
		storybook.PageCount,
		storybook.AgeGroup,
		tags,
		storybook.CreatedAt,
		storybook.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to create storybook: %w", err)
	}

	return nil
}

// Update persists the mutable metadata of a storybook.
func (repository *postgresRepository) Update(context context.Context, storybook *Storybook) error {
	languages, tags, err := storybookJSONArgs(storybook)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET
			%s = $2, %s = $3, %s = $4, %s = $5, %s = $6,
			%s = $7, %s = $8, %s = $9, %s = $10
		WHERE %s = $1
	`,
		schema.Storybooks.Table,
		schema.Storybooks.Title,
		schema.Storybooks.Author,
		schema.Storybooks.CoverImage,
		schema.Storybooks.Languages,
		schema.Storybooks.Description,
		schema.Storybooks.Status,
		schema.Storybooks.AgeGroup,
		schema.Storybooks.Tags,
		schema.Storybooks.UpdatedAt,
		schema.Storybooks.ID,
	)

	tag, err := repository.pool.Exec(context, query,
		storybook.ID,
		storybook.Title,
		storybook.Author,
		storybook.CoverImage,
		languages,
		storybook.Description,
		string(storybook.Status),
		storybook.AgeGroup,
		tags,
		storybook.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to update storybook: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Storybook")
	}

	return nil
}

/*
Delete removes the page rows and then the storybook row.

Description: Pages are deleted explicitly before the parent so the operation
does not depend on the ON DELETE CASCADE clause being present.

Returns:
  - error: apperr.NotFound if the storybook does not exist
*/
func (repository *postgresRepository) Delete(context context.Context, id string) error {

	// Transaction Initialization
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(context)

	// Child rows first
	pagesQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.StorybookPages.Table, schema.StorybookPages.StorybookID)
	if _, err := transaction.Exec(context, pagesQuery, id); err != nil {
		return fmt.Errorf("postgres: failed to delete storybook pages: %w", err)
	}

	// Parent row
	storybookQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Storybooks.Table, schema.Storybooks.ID)
	tag, err := transaction.Exec(context, storybookQuery, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete storybook: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Storybook")
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres: failed to commit transaction: %w", err)
	}

	return nil
}

// RecountPages sets page_count to the live number of pages.
func (repository *postgresRepository) RecountPages(context context.Context, id string) (int, error) {
	return recountPostgres(context, repository.pool, id)
}

// recountPostgres runs the recount on the pool or inside a page transaction.
func recountPostgres(context context.Context, querier pgQuerier, storybookID string) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = (SELECT COUNT(*) FROM %s WHERE %s = $1)
		WHERE %s = $1
		RETURNING %s
	`,
		schema.Storybooks.Table,
		schema.Storybooks.PageCount,
		schema.StorybookPages.Table,
		schema.StorybookPages.StorybookID,
		schema.Storybooks.ID,
		schema.Storybooks.PageCount,
	)

	var count int
	if err := querier.QueryRow(context, query, storybookID).Scan(&count); err != nil {
		if dberr.IsNoRows(err) {
			return 0, apperr.NotFound("Storybook")
		}
		return 0, fmt.Errorf("postgres: failed to recount pages: %w", err)
	}

	return count, nil
}

// # Page Queries

// ListPages returns a page of a storybook's pages ordered by page_number.
func (repository *postgresRepository) ListPages(context context.Context, storybookID string, limit, offset int) ([]*Page, int, error) {

	// Total count
	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`, schema.StorybookPages.Table, schema.StorybookPages.StorybookID)
	if err := repository.pool.QueryRow(context, countQuery, storybookID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to count pages: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s ASC LIMIT $2 OFFSET $3`,
		selectColumns(schema.StorybookPages.Columns()),
		schema.StorybookPages.Table,
		schema.StorybookPages.StorybookID,
		schema.StorybookPages.PageNumber,
	)

	pages, err := repository.queryPages(context, query, storybookID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return pages, total, nil
}

/*
PagesFor eager-loads the pages of several storybooks in one query.

Returns:
  - map[string][]*Page: Pages keyed by storybook ID (absent key means no pages)
*/
func (repository *postgresRepository) PagesFor(context context.Context, storybookIDs []string) (map[string][]*Page, error) {
	grouped := make(map[string][]*Page, len(storybookIDs))
	if len(storybookIDs) == 0 {
		return grouped, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1::uuid[]) ORDER BY %s, %s ASC`,
		selectColumns(schema.StorybookPages.Columns()),
		schema.StorybookPages.Table,
		schema.StorybookPages.StorybookID,
		schema.StorybookPages.StorybookID,
		schema.StorybookPages.PageNumber,
	)

	pages, err := repository.queryPages(context, query, storybookIDs)
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		grouped[page.StorybookID] = append(grouped[page.StorybookID], page)
	}

	return grouped, nil
}

// FindPage returns a page only when it belongs to storybookID.
func (repository *postgresRepository) FindPage(context context.Context, storybookID, pageID string) (*Page, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		selectColumns(schema.StorybookPages.Columns()),
		schema.StorybookPages.Table,
		schema.StorybookPages.ID,
		schema.StorybookPages.StorybookID,
	)

	page, err := scanPostgresPage(repository.pool.QueryRow(context, query, pageID, storybookID))
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, apperr.NotFound("Page")
		}
		return nil, err
	}

	return page, nil
}

func (repository *postgresRepository) queryPages(context context.Context, query string, args ...any) ([]*Page, error) {
	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list pages: %w", err)
	}
	defer rows.Close()

	pages := []*Page{}
	for rows.Next() {
		page, err := scanPostgresPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to iterate pages: %w", err)
	}

	return pages, nil
}

// # Page Mutations

/*
CreatePage inserts a page and recomputes the owner's page_count.

Description: Both statements share one transaction, so page_count never
observes a half-applied insert.

Returns:
  - int: The new page_count
  - error: apperr.Conflict on a duplicate page number
*/
func (repository *postgresRepository) CreatePage(context context.Context, page *Page) (int, error) {
	textContent, audioPaths, err := pageJSONArgs(page)
	if err != nil {
		return 0, err
	}

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(context)

	columns := schema.StorybookPages.Columns()
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		schema.StorybookPages.Table,
		selectColumns(columns),
		placeholders(postgresDialect{}, len(columns)),
	)

	_, err = transaction.Exec(context, query,
		page.ID,
		page.StorybookID,
		page.PageNumber,
		textContent,
		page.ImagePath,
		audioPaths,
		animationArg(page.AnimationData),
		page.CreatedAt,
		page.UpdatedAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return 0, duplicatePageNumber()
		}
		return 0, fmt.Errorf("postgres: failed to create page: %w", err)
	}

	count, err := recountPostgres(context, transaction, page.StorybookID)
	if err != nil {
		return 0, err
	}

	if err := transaction.Commit(context); err != nil {
		return 0, fmt.Errorf("postgres: failed to commit transaction: %w", err)
	}

	return count, nil
}

// UpdatePage persists a page's number, text, assets, and animation data.
func (repository *postgresRepository) UpdatePage(context context.Context, page *Page) error {
	textContent, audioPaths, err := pageJSONArgs(page)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8
		WHERE %s = $1 AND %s = $2
	`,
		schema.StorybookPages.Table,
		schema.StorybookPages.PageNumber,
		schema.StorybookPages.TextContent,
		schema.StorybookPages.ImagePath,
		schema.StorybookPages.AudioPaths,
		schema.StorybookPages.AnimationData,
		schema.StorybookPages.UpdatedAt,
		schema.StorybookPages.ID,
		schema.StorybookPages.StorybookID,
	)

	tag, err := repository.pool.Exec(context, query,
		page.ID,
		page.StorybookID,
		page.PageNumber,
		textContent,
		page.ImagePath,
		audioPaths,
		animationArg(page.AnimationData),
		page.UpdatedAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return duplicatePageNumber()
		}
		return fmt.Errorf("postgres: failed to update page: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Page")
	}

	return nil
}

// DeletePage removes a page and recomputes the owner's page_count in one transaction.
func (repository *postgresRepository) DeletePage(context context.Context, storybookID, pageID string) (int, error) {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(context)

	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		schema.StorybookPages.Table,
		schema.StorybookPages.ID,
		schema.StorybookPages.StorybookID,
	)

	tag, err := transaction.Exec(context, query, pageID, storybookID)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to delete page: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return 0, apperr.NotFound("Page")
	}

	count, err := recountPostgres(context, transaction, storybookID)
	if err != nil {
		return 0, err
	}

	if err := transaction.Commit(context); err != nil {
		return 0, fmt.Errorf("postgres: failed to commit transaction: %w", err)
	}

	return count, nil
}

// PageNumberTaken reports whether another page of the storybook uses number.
func (repository *postgresRepository) PageNumberTaken(context context.Context, storybookID string, number int, exceptPageID string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND %s = $2`,
		schema.StorybookPages.Table,
		schema.StorybookPages.StorybookID,
		schema.StorybookPages.PageNumber,
	)
	args := []any{storybookID, number}

	if exceptPageID != "" {
		query += fmt.Sprintf(" AND %s <> $3", schema.StorybookPages.ID)
		args = append(args, exceptPageID)
	}
	query += ")"

	var taken bool
	if err := repository.pool.QueryRow(context, query, args...).Scan(&taken); err != nil {
		return false, fmt.Errorf("postgres: failed to check page number: %w", err)
	}

	return taken, nil
}

// MaxPageNumber returns the highest page_number of the storybook, or 0.
func (repository *postgresRepository) MaxPageNumber(context context.Context, storybookID string) (int, error) {
	query := fmt.Sprintf(`SELECT COALESCE(MAX(%s), 0) FROM %s WHERE %s = $1`,
		schema.StorybookPages.PageNumber,
		schema.StorybookPages.Table,
		schema.StorybookPages.StorybookID,
	)

	var number int
	if err := repository.pool.QueryRow(context, query, storybookID).Scan(&number); err != nil {
		return 0, fmt.Errorf("postgres: failed to read max page number: %w", err)
	}

	return number, nil
}

// ListAssetPaths returns every asset path referenced by any storybook or page row.
func (repository *postgresRepository) ListAssetPaths(context context.Context) ([]string, error) {
	coverQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE %s IS NOT NULL`,
		schema.Storybooks.CoverImage, schema.Storybooks.Table, schema.Storybooks.CoverImage)

	rows, err := repository.pool.Query(context, coverQuery)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list covers: %w", err)
	}

	paths, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to scan covers: %w", err)
	}

	pageQuery := fmt.Sprintf(`SELECT %s, %s FROM %s`,
		schema.StorybookPages.ImagePath, schema.StorybookPages.AudioPaths, schema.StorybookPages.Table)

	pageRows, err := repository.pool.Query(context, pageQuery)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list page assets: %w", err)
	}
	defer pageRows.Close()

	for pageRows.Next() {
		var image *string
		var audio []byte
		if err := pageRows.Scan(&image, &audio); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan page assets: %w", err)
		}

		pagePaths, err := collectPagePaths(image, audio)
		if err != nil {
			return nil, err
		}
		paths = append(paths, pagePaths...)
	}

	if err := pageRows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to iterate page assets: %w", err)
	}

	return paths, nil
}

// # Scanning

func scanPostgresStorybook(scanner rowScanner) (*Storybook, error) {
	storybook := &Storybook{}
	var raw storybookRow
	var status string

	err := scanner.Scan(
		&storybook.ID,
		&storybook.Title,
		&storybook.Author,
		&storybook.CoverImage,
		&raw.languages,
		&storybook.Description,
		&status,
		&storybook.PageCount,
		&storybook.AgeGroup,
		&raw.tags,
		&storybook.CreatedAt,
		&storybook.UpdatedAt,
	)
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("postgres: failed to scan storybook: %w", err)
	}

	storybook.Status = Status(status)
	if err := raw.apply(storybook); err != nil {
		return nil, err
	}

	return storybook, nil
}

func scanPostgresPage(scanner rowScanner) (*Page, error) {
	page := &Page{}
	var raw pageRow

	err := scanner.Scan(
		&page.ID,
		&page.StorybookID,
		&page.PageNumber,
		&raw.textContent,
		&page.ImagePath,
		&raw.audioPaths,
		&raw.animationData,
		&page.CreatedAt,
		&page.UpdatedAt,
	)
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("postgres: failed to scan page: %w", err)
	}

	if err := raw.apply(page); err != nil {
		return nil, err
	}

	return page, nil
}

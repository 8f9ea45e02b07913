// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/taibuivan/storybook/internal/platform/apperr"
	"github.com/taibuivan/storybook/internal/platform/database/schema"
	"github.com/taibuivan/storybook/internal/platform/dberr"
	sqlitestore "github.com/taibuivan/storybook/internal/platform/sqlite"
)

// # SQLite Repository

// sqliteRepository implements [Repository] on an embedded SQLite database.
//
// Timestamps are stored as INTEGER unix milliseconds and JSON columns as TEXT.
type sqliteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository constructs a SQLite backed storybook store.
func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db}
}

// sqliteDialect renders numbered ?NNN placeholders, so one argument may be referenced twice.
type sqliteDialect struct{}

func (sqliteDialect) placeholder(position int) string { return fmt.Sprintf("?%d", position) }

func (sqliteDialect) languageContains(column, placeholder string) string {
	return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE json_each.value = %s)", column, placeholder)
}

// containsFolded lower-cases both sides with the Unicode fold function, since
// LIKE alone ignores case for ASCII letters only.
func (sqliteDialect) containsFolded(column, pattern string) string {
	return fmt.Sprintf(`%[1]s(%[2]s) LIKE %[1]s(%[3]s) ESCAPE '\'`, sqlitestore.FoldFunction, column, pattern)
}

// sqlQuerier is satisfied by both *sql.DB and *sql.Tx.
type sqlQuerier interface {
	QueryRowContext(context context.Context, query string, args ...any) *sql.Row
}

// # Storybook Queries

// ListFiltered returns a filtered, paginated slice of storybooks and the total count.
func (repository *sqliteRepository) ListFiltered(context context.Context, filter Filter, limit, offset int) ([]*Storybook, int, error) {
	where := filterClause(sqliteDialect{}, filter)

	// Total count
	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, schema.Storybooks.Table, where)
	if err := repository.db.QueryRowContext(context, countQuery, where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: failed to count storybooks: %w", err)
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

	rows, err := repository.db.QueryContext(context, query, where.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: failed to list storybooks: %w", err)
	}
	defer rows.Close()

	storybooks := []*Storybook{}
	for rows.Next() {
		storybook, err := scanSQLiteStorybook(rows)
		if err != nil {
			return nil, 0, err
		}
		storybooks = append(storybooks, storybook)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: failed to iterate storybooks: %w", err)
	}

	return storybooks, total, nil
}

// FindByID retrieves a storybook in any status.
func (repository *sqliteRepository) FindByID(context context.Context, id string) (*Storybook, error) {
	return repository.findOne(context, fmt.Sprintf("%s = ?", schema.Storybooks.ID), id)
}

// FindPublished retrieves a storybook only when it is published.
func (repository *sqliteRepository) FindPublished(context context.Context, id string) (*Storybook, error) {
	return repository.findOne(context,
		fmt.Sprintf("%s = ? AND %s = ?", schema.Storybooks.ID, schema.Storybooks.Status),
		id, string(StatusPublished),
	)
}

func (repository *sqliteRepository) findOne(context context.Context, condition string, args ...any) (*Storybook, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s`,
		selectColumns(schema.Storybooks.Columns()),
		schema.Storybooks.Table,
		condition,
	)

	storybook, err := scanSQLiteStorybook(repository.db.QueryRowContext(context, query, args...))
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, apperr.NotFound("Storybook")
		}
		return nil, err
	}

	return storybook, nil
}

// ListIDs returns every storybook ID, oldest first.
func (repository *sqliteRepository) ListIDs(context context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s%s`, schema.Storybooks.ID, schema.Storybooks.Table, orderClause(OrderInsertion))
	return repository.queryStrings(context, query)
}

// # Storybook Mutations

// Create inserts a new storybook row.
func (repository *sqliteRepository) Create(context context.Context, storybook *Storybook) error {
	languages, tags, err := storybookJSONArgs(storybook)
	if err != nil {
		return err
	}

	columns := schema.Storybooks.Columns()
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		schema.Storybooks.Table,
		selectColumns(columns),
		placeholders(sqliteDialect{}, len(columns)),
	)

	_, err = repository.db.ExecContext(context, query,
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
		toMillis(storybook.CreatedAt),
		toMillis(storybook.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to create storybook: %w", err)
	}

	return nil
}

// Update persists the mutable metadata of a storybook.
func (repository *sqliteRepository) Update(context context.Context, storybook *Storybook) error {
	languages, tags, err := storybookJSONArgs(storybook)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET %s = ?, %s = ?, %s = ?, %s = ?, %s = ?, %s = ?, %s = ?, %s = ?, %s = ?
		WHERE %s = ?
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

	result, err := repository.db.ExecContext(context, query,
		storybook.Title,
		storybook.Author,
		storybook.CoverImage,
		languages,
		storybook.Description,
		string(storybook.Status),
		storybook.AgeGroup,
		tags,
		toMillis(storybook.UpdatedAt),
		storybook.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to update storybook: %w", err)
	}

	return requireAffected(result, "Storybook")
}

// Delete removes the page rows and then the storybook row in one transaction.
func (repository *sqliteRepository) Delete(context context.Context, id string) error {
	transaction, err := repository.db.BeginTx(context, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback()

	pagesQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, schema.StorybookPages.Table, schema.StorybookPages.StorybookID)
	if _, err := transaction.ExecContext(context, pagesQuery, id); err != nil {
		return fmt.Errorf("sqlite: failed to delete storybook pages: %w", err)
	}

	storybookQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, schema.Storybooks.Table, schema.Storybooks.ID)
	result, err := transaction.ExecContext(context, storybookQuery, id)
	if err != nil {
		return fmt.Errorf("sqlite: failed to delete storybook: %w", err)
	}

	if err := requireAffected(result, "Storybook"); err != nil {
		return err
	}

	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("sqlite: failed to commit transaction: %w", err)
	}

	return nil
}

// RecountPages sets page_count to the live number of pages.
func (repository *sqliteRepository) RecountPages(context context.Context, id string) (int, error) {
	return recountSQLite(context, repository.db, id)
}

func recountSQLite(context context.Context, querier sqlQuerier, storybookID string) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = (SELECT COUNT(*) FROM %s WHERE %s = ?1)
		WHERE %s = ?1
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
	if err := querier.QueryRowContext(context, query, storybookID).Scan(&count); err != nil {
		if dberr.IsNoRows(err) {
			return 0, apperr.NotFound("Storybook")
		}
		return 0, fmt.Errorf("sqlite: failed to recount pages: %w", err)
	}

	return count, nil
}

// # Page Queries

// ListPages returns a page of a storybook's pages ordered by page_number.
func (repository *sqliteRepository) ListPages(context context.Context, storybookID string, limit, offset int) ([]*Page, int, error) {
	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = ?`, schema.StorybookPages.Table, schema.StorybookPages.StorybookID)
	if err := repository.db.QueryRowContext(context, countQuery, storybookID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: failed to count pages: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? ORDER BY %s ASC LIMIT ? OFFSET ?`,
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

// PagesFor eager-loads the pages of several storybooks in one query.
func (repository *sqliteRepository) PagesFor(context context.Context, storybookIDs []string) (map[string][]*Page, error) {
	grouped := make(map[string][]*Page, len(storybookIDs))
	if len(storybookIDs) == 0 {
		return grouped, nil
	}

	args := make([]any, len(storybookIDs))
	for i, id := range storybookIDs {
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s IN (%s) ORDER BY %s, %s ASC`,
		selectColumns(schema.StorybookPages.Columns()),
		schema.StorybookPages.Table,
		schema.StorybookPages.StorybookID,
		placeholders(sqliteDialect{}, len(args)),
		schema.StorybookPages.StorybookID,
		schema.StorybookPages.PageNumber,
	)

	pages, err := repository.queryPages(context, query, args...)
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		grouped[page.StorybookID] = append(grouped[page.StorybookID], page)
	}

	return grouped, nil
}

// FindPage returns a page only when it belongs to storybookID.
func (repository *sqliteRepository) FindPage(context context.Context, storybookID, pageID string) (*Page, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? AND %s = ?`,
		selectColumns(schema.StorybookPages.Columns()),
		schema.StorybookPages.Table,
		schema.StorybookPages.ID,
		schema.StorybookPages.StorybookID,
	)

	page, err := scanSQLitePage(repository.db.QueryRowContext(context, query, pageID, storybookID))
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, apperr.NotFound("Page")
		}
		return nil, err
	}

	return page, nil
}

func (repository *sqliteRepository) queryPages(context context.Context, query string, args ...any) ([]*Page, error) {
	rows, err := repository.db.QueryContext(context, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list pages: %w", err)
	}
	defer rows.Close()

	pages := []*Page{}
	for rows.Next() {
		page, err := scanSQLitePage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to iterate pages: %w", err)
	}

	return pages, nil
}

// # Page Mutations

// CreatePage inserts a page and recomputes the owner's page_count in one transaction.
func (repository *sqliteRepository) CreatePage(context context.Context, page *Page) (int, error) {
	textContent, audioPaths, err := pageJSONArgs(page)
	if err != nil {
		return 0, err
	}

	transaction, err := repository.db.BeginTx(context, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback()

	columns := schema.StorybookPages.Columns()
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		schema.StorybookPages.Table,
		selectColumns(columns),
		placeholders(sqliteDialect{}, len(columns)),
	)

	_, err = transaction.ExecContext(context, query,
		page.ID,
		page.StorybookID,
		page.PageNumber,
		textContent,
		page.ImagePath,
		audioPaths,
		animationArg(page.AnimationData),
		toMillis(page.CreatedAt),
		toMillis(page.UpdatedAt),
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return 0, duplicatePageNumber()
		}
		return 0, fmt.Errorf("sqlite: failed to create page: %w", err)
	}

	count, err := recountSQLite(context, transaction, page.StorybookID)
	if err != nil {
		return 0, err
	}

	if err := transaction.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: failed to commit transaction: %w", err)
	}

	return count, nil
}

// UpdatePage persists a page's number, text, assets, and animation data.
func (repository *sqliteRepository) UpdatePage(context context.Context, page *Page) error {
	textContent, audioPaths, err := pageJSONArgs(page)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET %s = ?, %s = ?, %s = ?, %s = ?, %s = ?, %s = ?
		WHERE %s = ? AND %s = ?
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

	result, err := repository.db.ExecContext(context, query,
		page.PageNumber,
		textContent,
		page.ImagePath,
		audioPaths,
		animationArg(page.AnimationData),
		toMillis(page.UpdatedAt),
		page.ID,
		page.StorybookID,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return duplicatePageNumber()
		}
		return fmt.Errorf("sqlite: failed to update page: %w", err)
	}

	return requireAffected(result, "Page")
}

// DeletePage removes a page and recomputes the owner's page_count in one transaction.
func (repository *sqliteRepository) DeletePage(context context.Context, storybookID, pageID string) (int, error) {
	transaction, err := repository.db.BeginTx(context, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback()

	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND %s = ?`,
		schema.StorybookPages.Table,
		schema.StorybookPages.ID,
		schema.StorybookPages.StorybookID,
	)

	result, err := transaction.ExecContext(context, query, pageID, storybookID)
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to delete page: %w", err)
	}

	if err := requireAffected(result, "Page"); err != nil {
		return 0, err
	}

	count, err := recountSQLite(context, transaction, storybookID)
	if err != nil {
		return 0, err
	}

	if err := transaction.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: failed to commit transaction: %w", err)
	}

	return count, nil
}

// PageNumberTaken reports whether another page of the storybook uses number.
func (repository *sqliteRepository) PageNumberTaken(context context.Context, storybookID string, number int, exceptPageID string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = ? AND %s = ? AND %s <> ?)`,
		schema.StorybookPages.Table,
		schema.StorybookPages.StorybookID,
		schema.StorybookPages.PageNumber,
		schema.StorybookPages.ID,
	)

	var taken bool
	if err := repository.db.QueryRowContext(context, query, storybookID, number, exceptPageID).Scan(&taken); err != nil {
		return false, fmt.Errorf("sqlite: failed to check page number: %w", err)
	}

	return taken, nil
}

// MaxPageNumber returns the highest page_number of the storybook, or 0.
func (repository *sqliteRepository) MaxPageNumber(context context.Context, storybookID string) (int, error) {
	query := fmt.Sprintf(`SELECT COALESCE(MAX(%s), 0) FROM %s WHERE %s = ?`,
		schema.StorybookPages.PageNumber,
		schema.StorybookPages.Table,
		schema.StorybookPages.StorybookID,
	)

	var number int
	if err := repository.db.QueryRowContext(context, query, storybookID).Scan(&number); err != nil {
		return 0, fmt.Errorf("sqlite: failed to read max page number: %w", err)
	}

	return number, nil
}

// ListAssetPaths returns every asset path referenced by any storybook or page row.
func (repository *sqliteRepository) ListAssetPaths(context context.Context) ([]string, error) {
	coverQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE %s IS NOT NULL`,
		schema.Storybooks.CoverImage, schema.Storybooks.Table, schema.Storybooks.CoverImage)

	paths, err := repository.queryStrings(context, coverQuery)
	if err != nil {
		return nil, err
	}

	pageQuery := fmt.Sprintf(`SELECT %s, %s FROM %s`,
		schema.StorybookPages.ImagePath, schema.StorybookPages.AudioPaths, schema.StorybookPages.Table)

	rows, err := repository.db.QueryContext(context, pageQuery)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list page assets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var image *string
		var audio []byte
		if err := rows.Scan(&image, &audio); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan page assets: %w", err)
		}

		pagePaths, err := collectPagePaths(image, audio)
		if err != nil {
			return nil, err
		}
		paths = append(paths, pagePaths...)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to iterate page assets: %w", err)
	}

	return paths, nil
}

func (repository *sqliteRepository) queryStrings(context context.Context, query string, args ...any) ([]string, error) {
	rows, err := repository.db.QueryContext(context, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query: %w", err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan: %w", err)
		}
		values = append(values, value)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to iterate: %w", err)
	}

	return values, nil
}

// # Scanning

func scanSQLiteStorybook(scanner rowScanner) (*Storybook, error) {
	storybook := &Storybook{}
	var raw storybookRow
	var languages string
	var tags sql.NullString
	var status string
	var createdAt, updatedAt int64

	err := scanner.Scan(
		&storybook.ID,
		&storybook.Title,
		&storybook.Author,
		&storybook.CoverImage,
		&languages,
		&storybook.Description,
		&status,
		&storybook.PageCount,
		&storybook.AgeGroup,
		&tags,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: failed to scan storybook: %w", err)
	}

	raw.languages = []byte(languages)
	if tags.Valid {
		raw.tags = []byte(tags.String)
	}

	storybook.Status = Status(status)
	storybook.CreatedAt = fromMillis(createdAt)
	storybook.UpdatedAt = fromMillis(updatedAt)

	if err := raw.apply(storybook); err != nil {
		return nil, err
	}

	return storybook, nil
}

func scanSQLitePage(scanner rowScanner) (*Page, error) {
	page := &Page{}
	var raw pageRow
	var textContent string
	var audioPaths, animationData sql.NullString
	var createdAt, updatedAt int64

	err := scanner.Scan(
		&page.ID,
		&page.StorybookID,
		&page.PageNumber,
		&textContent,
		&page.ImagePath,
		&audioPaths,
		&animationData,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: failed to scan page: %w", err)
	}

	raw.textContent = []byte(textContent)
	if audioPaths.Valid {
		raw.audioPaths = []byte(audioPaths.String)
	}
	if animationData.Valid {
		raw.animationData = []byte(animationData.String)
	}

	page.CreatedAt = fromMillis(createdAt)
	page.UpdatedAt = fromMillis(updatedAt)

	if err := raw.apply(page); err != nil {
		return nil, err
	}

	return page, nil
}

// # Helpers

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// requireAffected maps a zero-row mutation to NOT_FOUND for resource.
func requireAffected(result sql.Result, resource string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return apperr.NotFound(resource)
	}
	return nil
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/taibuivan/storybook/internal/core/language"
	"github.com/taibuivan/storybook/internal/platform/apperr"
	"github.com/taibuivan/storybook/internal/platform/database/schema"
)

// # Shared SQL Helpers
//
// Both SQL backends build the listing predicate and encode JSON columns here.
// JSON columns travel as marshalled text so the same values bind to JSONB and
// to SQLite TEXT. A nil argument stores SQL NULL.

// dialect abstracts the differences between the SQL backends used by the builder.
type dialect interface {
	placeholder(position int) string
	languageContains(column, placeholder string) string
	// containsFolded matches column against a LIKE pattern ignoring case.
	containsFolded(column, pattern string) string
}

// rowScanner is satisfied by the single-row and multi-row results of pgx and database/sql.
type rowScanner interface {
	Scan(dest ...any) error
}

// clauseBuilder accumulates a WHERE clause and its positional arguments.
type clauseBuilder struct {
	dialect    dialect
	conditions []string
	args       []any
}

// bind registers an argument and returns its placeholder.
func (builder *clauseBuilder) bind(value any) string {
	builder.args = append(builder.args, value)
	return builder.dialect.placeholder(len(builder.args))
}

// where appends a condition joined with AND.
func (builder *clauseBuilder) where(condition string) {
	builder.conditions = append(builder.conditions, condition)
}

// String renders the WHERE clause, or an empty string when no condition applies.
func (builder *clauseBuilder) String() string {
	if len(builder.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(builder.conditions, " AND ")
}

// filterClause translates a [Filter] into a WHERE clause for the storybooks table.
func filterClause(dialect dialect, filter Filter) *clauseBuilder {
	builder := &clauseBuilder{dialect: dialect}

	// Status Filtering
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			placeholders[i] = builder.bind(string(status))
		}
		builder.where(fmt.Sprintf("%s IN (%s)", schema.Storybooks.Status, strings.Join(placeholders, ", ")))
	}

	// Language set membership
	if filter.Language != "" {
		builder.where(dialect.languageContains(schema.Storybooks.Languages, builder.bind(string(filter.Language))))
	}

	// Age group exact match
	if filter.AgeGroup != "" {
		builder.where(fmt.Sprintf("%s = %s", schema.Storybooks.AgeGroup, builder.bind(filter.AgeGroup)))
	}

	// Title or author substring
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := builder.bind(likePattern(search))
		builder.where(fmt.Sprintf("(%s OR %s)",
			dialect.containsFolded(schema.Storybooks.Title, pattern),
			dialect.containsFolded(schema.Storybooks.Author, pattern),
		))
	}

	return builder
}

// orderClause renders the ORDER BY for a listing. The ID breaks ties between equal timestamps.
func orderClause(order Order) string {
	direction := "DESC"
	if order == OrderInsertion {
		direction = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, %s %s", schema.Storybooks.CreatedAt, direction, schema.Storybooks.ID, direction)
}

// likePattern escapes LIKE wildcards in term and wraps it for substring matching.
func likePattern(term string) string {
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + escaper.Replace(term) + "%"
}

// # JSON Column Encoding

// languagesArg encodes the languages column. It is never NULL.
func languagesArg(codes []language.Code) (string, error) {
	if codes == nil {
		codes = []language.Code{}
	}
	return marshalText(codes)
}

// tagsArg encodes the tags column, NULL when no tags are set.
func tagsArg(tags []string) (any, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	return marshalText(tags)
}

// textContentArg encodes the text_content column. It is never NULL.
func textContentArg(text map[language.Code]string) (string, error) {
	if text == nil {
		text = map[language.Code]string{}
	}
	return marshalText(text)
}

// audioPathsArg encodes audio_paths, NULL when the page has no audio.
func audioPathsArg(paths map[language.Code]string) (any, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	return marshalText(paths)
}

// animationArg passes animation_data through untouched, NULL when absent.
func animationArg(data json.RawMessage) any {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return string(data)
}

func marshalText(value any) (string, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("storybook: failed to encode json column: %w", err)
	}
	return string(encoded), nil
}

// decodeColumn unmarshals a scanned JSON column. NULL leaves target untouched.
func decodeColumn(raw []byte, target any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("storybook: failed to decode json column: %w", err)
	}
	return nil
}

// storybookRow carries the raw JSON columns of a scanned storybook.
type storybookRow struct {
	languages []byte
	tags      []byte
}

// apply decodes the raw columns into storybook.
func (row storybookRow) apply(storybook *Storybook) error {
	if err := decodeColumn(row.languages, &storybook.Languages); err != nil {
		return err
	}
	if storybook.Languages == nil {
		storybook.Languages = []language.Code{}
	}
	return decodeColumn(row.tags, &storybook.Tags)
}

// pageRow carries the raw JSON columns of a scanned page.
type pageRow struct {
	textContent   []byte
	audioPaths    []byte
	animationData []byte
}

// apply decodes the raw columns into page.
func (row pageRow) apply(page *Page) error {
	if err := decodeColumn(row.textContent, &page.TextContent); err != nil {
		return err
	}
	if err := decodeColumn(row.audioPaths, &page.AudioPaths); err != nil {
		return err
	}
	if len(row.animationData) > 0 && string(row.animationData) != "null" {
		page.AnimationData = json.RawMessage(append([]byte(nil), row.animationData...))
	}
	return nil
}

// selectColumns renders a comma separated column list.
func selectColumns(columns []string) string {
	return strings.Join(columns, ", ")
}

// collectPagePaths flattens the image and audio columns of scanned pages into asset paths.
func collectPagePaths(image *string, audioRaw []byte) ([]string, error) {
	page := &Page{ImagePath: image}
	if err := decodeColumn(audioRaw, &page.AudioPaths); err != nil {
		return nil, err
	}
	return page.AssetPaths(), nil
}

// # Argument Helpers

func storybookJSONArgs(storybook *Storybook) (string, any, error) {
	languages, err := languagesArg(storybook.Languages)
	if err != nil {
		return "", nil, err
	}
	tags, err := tagsArg(storybook.Tags)
	if err != nil {
		return "", nil, err
	}
	return languages, tags, nil
}

func pageJSONArgs(page *Page) (string, any, error) {
	textContent, err := textContentArg(page.TextContent)
	if err != nil {
		return "", nil, err
	}
	audioPaths, err := audioPathsArg(page.AudioPaths)
	if err != nil {
		return "", nil, err
	}
	return textContent, audioPaths, nil
}

// placeholders renders count positional placeholders starting at 1.
func placeholders(dialect dialect, count int) string {
	rendered := make([]string, count)
	for i := range rendered {
		rendered[i] = dialect.placeholder(i + 1)
	}
	return strings.Join(rendered, ", ")
}

func duplicatePageNumber() error {
	return apperr.Conflict("A page with this number already exists in this storybook")
}

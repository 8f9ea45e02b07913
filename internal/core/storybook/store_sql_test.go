// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/storybook/internal/core/language"
)

/*
TestFilterClause_Postgres verifies the JSONB containment, ILIKE, and placeholder numbering.
*/
func TestFilterClause_Postgres(t *testing.T) {
	where := filterClause(postgresDialect{}, Filter{
		Status:   []Status{StatusPublished},
		Language: language.Hindi,
		AgeGroup: "3-5",
		Search:   "50%_off",
	})

	assert.Equal(t,
		` WHERE status IN ($1) AND languages @> jsonb_build_array($2::text) AND age_group = $3`+
			` AND (title ILIKE $4 ESCAPE '\' OR author ILIKE $4 ESCAPE '\')`,
		where.String())
	assert.Equal(t, []any{"published", "hi", "3-5", `%50\%\_off%`}, where.args)

	assert.Equal(t, "$5", where.bind(20))
}

/*
TestFilterClause_SQLite verifies json_each membership and the Unicode fold around LIKE.
*/
func TestFilterClause_SQLite(t *testing.T) {
	where := filterClause(sqliteDialect{}, Filter{Language: language.English, Search: "Crow"})

	assert.Equal(t,
		` WHERE EXISTS (SELECT 1 FROM json_each(languages) WHERE json_each.value = ?1)`+
			` AND (unicode_lower(title) LIKE unicode_lower(?2) ESCAPE '\' OR unicode_lower(author) LIKE unicode_lower(?2) ESCAPE '\')`,
		where.String())
	assert.Equal(t, []any{"en", "%Crow%"}, where.args)
}

/*
TestFilterClause_Empty verifies an empty filter renders no WHERE clause.
*/
func TestFilterClause_Empty(t *testing.T) {
	where := filterClause(postgresDialect{}, Filter{Search: "   "})
	assert.Empty(t, where.String())
	assert.Empty(t, where.args)
}

/*
TestOrderClause verifies both listing orders break ties on the id.
*/
func TestOrderClause(t *testing.T) {
	assert.Equal(t, " ORDER BY created_at DESC, id DESC", orderClause(OrderNewest))
	assert.Equal(t, " ORDER BY created_at ASC, id ASC", orderClause(OrderInsertion))
}

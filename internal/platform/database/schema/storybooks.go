// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns shared by every SQL backend.
package schema

// StorybooksTable represents the 'storybooks' table
type StorybooksTable struct {
	Table       string
	ID          string
	Title       string
	Author      string
	CoverImage  string
	Languages   string
	Description string
	Status      string
	PageCount   string
	AgeGroup    string
	Tags        string
	CreatedAt   string
	UpdatedAt   string
}

// Storybooks is the schema definition for storybooks
var Storybooks = StorybooksTable{
	Table:       "storybooks",
	ID:          "id",
	Title:       "title",
	Author:      "author",
	CoverImage:  "cover_image",
	Languages:   "languages",
	Description: "description",
	Status:      "status",
	PageCount:   "page_count",
	AgeGroup:    "age_group",
	Tags:        "tags",
	CreatedAt:   "created_at",
	UpdatedAt:   "updated_at",
}

// Columns lists every column in scan order.
func (t StorybooksTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.Author, t.CoverImage, t.Languages, t.Description,
		t.Status, t.PageCount, t.AgeGroup, t.Tags, t.CreatedAt, t.UpdatedAt,
	}
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// StorybookPagesTable represents the 'storybook_pages' table
type StorybookPagesTable struct {
	Table         string
	ID            string
	StorybookID   string
	PageNumber    string
	TextContent   string
	ImagePath     string
	AudioPaths    string
	AnimationData string
	CreatedAt     string
	UpdatedAt     string
}

// StorybookPages is the schema definition for storybook_pages
var StorybookPages = StorybookPagesTable{
	Table:         "storybook_pages",
	ID:            "id",
	StorybookID:   "storybook_id",
	PageNumber:    "page_number",
	TextContent:   "text_content",
	ImagePath:     "image_path",
	AudioPaths:    "audio_paths",
	AnimationData: "animation_data",
	CreatedAt:     "created_at",
	UpdatedAt:     "updated_at",
}

// Columns lists every column in scan order.
func (t StorybookPagesTable) Columns() []string {
	return []string{
		t.ID, t.StorybookID, t.PageNumber, t.TextContent, t.ImagePath,
		t.AudioPaths, t.AnimationData, t.CreatedAt, t.UpdatedAt,
	}
}

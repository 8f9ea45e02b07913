// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storybook/internal/core/language"
	"github.com/taibuivan/storybook/internal/core/storybook"
	"github.com/taibuivan/storybook/internal/platform/blob"
)

/*
TestRenderTable verifies headers, padding of short rows, and empty input.
*/
func TestRenderTable(t *testing.T) {
	assert.Empty(t, renderTable(nil, [][]string{{"x"}}, nil))

	out := renderTable([]string{"Name", "Count"}, [][]string{{"crow", "12"}, {"fox"}}, []columnAlignment{alignLeft, alignRight})
	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Contains(t, out, "Name")
	assert.NotContains(t, out, "NAME")
	assert.Contains(t, out, "crow")
	assert.Contains(t, out, "fox")
	assert.True(t, strings.HasPrefix(lines[0], "╭"))
}

/*
TestStorybookTable verifies the listing columns.
*/
func TestStorybookTable(t *testing.T) {
	out := storybookTable([]*storybook.Storybook{{
		ID:        "0192f3c1-0000-7000-8000-000000000001",
		Title:     "The Thirsty Crow",
		Status:    storybook.StatusPublished,
		Languages: []language.Code{language.English, language.Hindi},
		PageCount: 4,
		UpdatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}})

	assert.Contains(t, out, "The Thirsty Crow")
	assert.Contains(t, out, "published")
	assert.Contains(t, out, "en,hi")
	assert.Contains(t, out, "2026-03-01 09:30:00")
}

/*
TestRenderSweepReport verifies dry runs and real sweeps are summarised differently.
*/
func TestRenderSweepReport(t *testing.T) {
	orphan := blob.Object{Path: "storybooks/covers/old.png", Size: 2048, ModTime: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}

	tests := []struct {
		name   string
		report storybook.SweepReport
		want   []string
		absent []string
	}{
		{
			name:   "Dry run",
			report: storybook.SweepReport{Scanned: 3, Referenced: 2, Orphans: []blob.Object{orphan}, DryRun: true},
			want:   []string{"storybooks/covers/old.png", "2048", "Scanned 3 objects, 2 referenced, 1 orphaned", "Dry run: nothing deleted"},
			absent: []string{"Deleted"},
		},
		{
			name:   "Nothing to reclaim",
			report: storybook.SweepReport{Scanned: 2, Referenced: 2},
			want:   []string{"Scanned 2 objects, 2 referenced, 0 orphaned", "Deleted 0, failed 0"},
			absent: []string{"Path"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := renderSweepReport(&tt.report)
			for _, fragment := range tt.want {
				assert.Contains(t, out, fragment)
			}
			for _, fragment := range tt.absent {
				assert.NotContains(t, out, fragment)
			}
		})
	}
}

/*
TestRootCommand verifies the command tree and that help needs no configuration.
*/
func TestRootCommand(t *testing.T) {
	root := newRootCommand()

	names := make([]string, 0, len(root.Commands()))
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"migrate", "seed", "recount", "sweep", "list", "token"} {
		assert.Contains(t, names, want)
	}

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"sweep", "--help"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "--dry-run")
	assert.Contains(t, out.String(), "--older-than")
}

/*
TestTokenCommand_RequiresUsername verifies the flag check runs before any key is read.
*/
func TestTokenCommand_RequiresUsername(t *testing.T) {
	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"token", "--private-key", "a.pem", "--public-key", "b.pem"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--username")
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/taibuivan/storybook/internal/core/language"
	"github.com/taibuivan/storybook/internal/core/storybook"
	"github.com/taibuivan/storybook/internal/platform/blob"
	"github.com/taibuivan/storybook/pkg/slice"
)

// # Content Commands

func newSeedCommand(ctx *commandContext) *cobra.Command {
	var seed uint64

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo storybooks with multilingual pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}
			random := rand.New(rand.NewPCG(seed, seed>>1))

			return ctx.withService(cmd.Context(), func(service *storybook.Service) error {
				created, err := service.Seed(cmd.Context(), random, storybook.DefaultSeedPlans)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), storybookTable(created))
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d storybooks (seed %d)\n", len(created), seed)
				return nil
			})
		},
	}
	seedCmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed for reproducible content (0 picks one)")

	return seedCmd
}

func newRecountCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "recount",
		Short: "Recompute page_count for every storybook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(service *storybook.Service) error {
				total, changed, err := service.RecomputeAll(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recounted %d storybooks, %d repaired\n", total, changed)
				return nil
			})
		},
	}
}

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var olderThan time.Duration

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete stored assets no storybook or page references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < 0 {
				return fmt.Errorf("--older-than must not be negative")
			}
			return ctx.withService(cmd.Context(), func(service *storybook.Service) error {
				report, err := service.SweepOrphans(cmd.Context(), olderThan, dryRun)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), renderSweepReport(report))
				return nil
			})
		},
	}
	sweepCmd.Flags().BoolVar(&dryRun, "dry-run", false, "List orphans without deleting them")
	sweepCmd.Flags().DurationVar(&olderThan, "older-than", time.Hour, "Skip objects younger than this")

	return sweepCmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var status string
	var lang string
	var search string
	var limit int

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List storybooks as the editor index shows them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := storybook.Filter{
				Language: languageFlag(lang),
				Search:   strings.TrimSpace(search),
			}
			if status != "" {
				parsed := storybook.Status(strings.ToLower(status))
				if !parsed.IsValid() {
					return fmt.Errorf("unknown status %q", status)
				}
				filter.Status = []storybook.Status{parsed}
			}

			return ctx.withService(cmd.Context(), func(service *storybook.Service) error {
				items, total, err := service.ListForOwner(cmd.Context(), filter, limit, 0)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No storybooks")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), storybookTable(items))
				fmt.Fprintf(cmd.OutOrStdout(), "Showing %d of %d\n", len(items), total)
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&status, "status", "", "Restrict to draft, published, or archived")
	listCmd.Flags().StringVar(&lang, "language", "", "Restrict to storybooks told in this language")
	listCmd.Flags().StringVar(&search, "search", "", "Match title or author")
	listCmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows to print")

	return listCmd
}

// # Rendering

func storybookTable(items []*storybook.Storybook) string {
	rows := slice.Map(items, func(item *storybook.Storybook) []string {
		languages := slice.Map(item.Languages, func(code language.Code) string { return string(code) })
		return []string{
			item.ID,
			item.Title,
			string(item.Status),
			strings.Join(languages, ","),
			strconv.Itoa(item.PageCount),
			item.UpdatedAt.UTC().Format(time.DateTime),
		}
	})
	return renderTable(
		[]string{"ID", "Title", "Status", "Languages", "Pages", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func renderSweepReport(report *storybook.SweepReport) string {
	var out strings.Builder

	if len(report.Orphans) > 0 {
		rows := slice.Map(report.Orphans, func(object blob.Object) []string {
			return []string{object.Path, strconv.FormatInt(object.Size, 10), object.ModTime.UTC().Format(time.DateTime)}
		})
		out.WriteString(renderTable([]string{"Path", "Bytes", "Modified"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
		out.WriteString("\n")
	}

	fmt.Fprintf(&out, "Scanned %d objects, %d referenced, %d orphaned\n", report.Scanned, report.Referenced, len(report.Orphans))
	if report.DryRun {
		out.WriteString("Dry run: nothing deleted\n")
	} else {
		fmt.Fprintf(&out, "Deleted %d, failed %d\n", report.Deleted, report.Failed)
	}
	return out.String()
}

func languageFlag(value string) language.Code {
	return language.Code(strings.ToLower(strings.TrimSpace(value)))
}

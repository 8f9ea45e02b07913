// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/taibuivan/storybook/internal/platform/migration"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := migration.RunUp(cfg.DatabaseDriver, cfg.DatabaseURL, ctx.logger()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	})

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := migration.RunDown(cfg.DatabaseDriver, cfg.DatabaseURL, steps, ctx.logger()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	migrateCmd.AddCommand(downCmd)

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			status, err := migration.CurrentStatus(cfg.DatabaseDriver, cfg.DatabaseURL, ctx.logger())
			if err != nil {
				return err
			}

			state := "clean"
			if status.Dirty {
				state = "dirty"
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Driver", "Version", "State"},
				[][]string{{cfg.DatabaseDriver, strconv.FormatUint(uint64(status.Version), 10), state}},
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	})

	return migrateCmd
}

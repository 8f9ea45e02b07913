// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storybook

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/storybook/internal/platform/blob"
)

// # Orphan Reconciliation

// SweepReport summarises one reconciliation run.
type SweepReport struct {
	// Scanned is the number of stored objects under the storybook prefix.
	Scanned int

	// Referenced is the number of distinct paths referenced by rows.
	Referenced int

	// Orphans are unreferenced objects older than the grace period.
	Orphans []blob.Object

	// Deleted and Failed count delete outcomes. Both are zero on a dry run.
	Deleted int
	Failed  int

	DryRun bool
}

/*
SweepOrphans deletes stored assets that no storybook or page references.

Description: Objects younger than the grace period are skipped, since a
concurrent upload is stored before its row is written. Crashes between a
row commit and an old-asset delete leave files that this sweep reclaims.

Parameters:
  - context: context.Context
  - grace: time.Duration (Minimum object age)
  - dryRun: bool (Report without deleting)

Returns:
  - *SweepReport: What was found and removed
  - error: Listing failures
*/
func (service *Service) SweepOrphans(context context.Context, grace time.Duration, dryRun bool) (*SweepReport, error) {
	objects, err := service.assets.List(context, AssetRoot)
	if err != nil {
		return nil, err
	}

	paths, err := service.repo.ListAssetPaths(context)
	if err != nil {
		return nil, err
	}

	referenced := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		referenced[path] = struct{}{}
	}

	report := &SweepReport{Scanned: len(objects), Referenced: len(referenced), DryRun: dryRun}
	cutoff := service.now().Add(-grace)

	for _, object := range objects {
		if _, ok := referenced[object.Path]; ok {
			continue
		}
		if object.ModTime.After(cutoff) {
			continue
		}
		report.Orphans = append(report.Orphans, object)
	}

	if dryRun || len(report.Orphans) == 0 {
		return report, nil
	}

	var deleted, failed atomic.Int64
	group, groupContext := errgroup.WithContext(context)
	group.SetLimit(assetDeleteConcurrency)

	for _, orphan := range report.Orphans {
		group.Go(func() error {
			if err := service.assets.Delete(groupContext, orphan.Path); err != nil {
				failed.Add(1)
				service.logger.WarnContext(context, "asset_delete_failed",
					slog.String("path", orphan.Path),
					slog.Any("error", err),
				)
				return nil
			}
			deleted.Add(1)
			return nil
		})
	}

	_ = group.Wait()

	report.Deleted = int(deleted.Load())
	report.Failed = int(failed.Load())

	service.logger.InfoContext(context, "orphan_sweep_completed",
		slog.Int("scanned", report.Scanned),
		slog.Int("orphans", len(report.Orphans)),
		slog.Int("deleted", report.Deleted),
		slog.Int("failed", report.Failed),
	)

	return report, nil
}

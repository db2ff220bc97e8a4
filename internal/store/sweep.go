// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/kestrane/hivestore/internal/backup"
	"github.com/kestrane/hivestore/internal/logging"
	"github.com/kestrane/hivestore/internal/metrics"
	"github.com/kestrane/hivestore/internal/reaper"
)

// SweepResult summarizes a store-wide backup retention sweep.
type SweepResult struct {
	// TotalFound is the number of backup-named files observed.
	TotalFound int `json:"total_found"`

	// Deleted is the number of expired backups removed.
	Deleted int `json:"deleted"`

	// WouldDelete lists the paths a dry run would have removed.
	WouldDelete []string `json:"would_delete,omitempty"`

	// Failures records per-file deletion failures; they never abort
	// the sweep.
	Failures []backup.CleanupFailure `json:"failures,omitempty"`
}

// SweepBackups walks the whole store and deletes backups older than
// the configured retention, regardless of which record they belong to.
// The per-record backup.Cleanup covers the co-located case; this pass
// exists so records deleted since their last backup still age out.
func (s *Store) SweepBackups(ctx context.Context, dryRun bool) (SweepResult, error) {
	maxAge := s.cfg.BackupMaxAge
	if maxAge == 0 {
		maxAge = backup.DefaultMaxAge
	}
	cutoff := time.Now().Add(-maxAge)

	var result SweepResult
	err := filepath.WalkDir(s.cfg.BaseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			result.Failures = append(result.Failures, backup.CleanupFailure{Path: path, Error: err.Error()})
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		if _, _, ok := backup.ParseName(d.Name()); !ok {
			return nil
		}
		result.TotalFound++

		info, infoErr := d.Info()
		if infoErr != nil {
			result.Failures = append(result.Failures, backup.CleanupFailure{Path: path, Error: infoErr.Error()})
			return nil
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}

		if dryRun {
			result.WouldDelete = append(result.WouldDelete, path)
			return nil
		}
		if rmErr := os.Remove(path); rmErr != nil {
			result.Failures = append(result.Failures, backup.CleanupFailure{Path: path, Error: rmErr.Error()})
			logging.Warn().Err(rmErr).Str("backup", path).Msg("store sweep failed to delete backup")
			return nil
		}
		result.Deleted++
		metrics.BackupsDeleted.Inc()
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("sweep backups under %q: %w", s.cfg.BaseDir, err)
	}

	if result.Deleted > 0 || len(result.Failures) > 0 {
		logging.Info().
			Int("total_found", result.TotalFound).
			Int("deleted", result.Deleted).
			Int("failures", len(result.Failures)).
			Msg("store-wide backup sweep complete")
	}
	return result, nil
}

// SweepTemps removes orphaned temp files left under the store root by
// crashed writers.
func (s *Store) SweepTemps(ctx context.Context, gracePeriod time.Duration) (reaper.Result, error) {
	return reaper.Sweep(ctx, s.cfg.BaseDir, reaper.Options{GracePeriod: gracePeriod})
}

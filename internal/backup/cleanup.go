// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kestrane/hivestore/internal/logging"
	"github.com/kestrane/hivestore/internal/metrics"
)

// DefaultMaxAge is the retention threshold applied when CleanupOptions
// leaves MaxAge zero: backups older than seven days are deleted.
const DefaultMaxAge = 7 * 24 * time.Hour

// CleanupOptions control a retention sweep for one record's backups.
type CleanupOptions struct {
	// MaxAge is the retention threshold. Zero means DefaultMaxAge.
	MaxAge time.Duration

	// BackupDir overrides the backup directory. Default: the source
	// file's own directory.
	BackupDir string

	// DryRun reports what would be deleted without deleting anything.
	// Used by audit and preview tooling.
	DryRun bool

	// now overrides the clock in tests.
	now func() time.Time
}

// CleanupFailure records one file the sweep could not delete.
type CleanupFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// CleanupResult summarizes a retention sweep.
type CleanupResult struct {
	// TotalFound is the number of backups of this record observed in
	// the directory listing.
	TotalFound int `json:"total_found"`

	// Deleted is the number of expired backups actually removed.
	Deleted int `json:"deleted"`

	// WouldDelete lists the paths a dry run would have removed.
	WouldDelete []string `json:"would_delete,omitempty"`

	// Failures records per-file deletion failures. A failure never
	// aborts the sweep; partial failure is the expected case under
	// concurrent access or permission drift.
	Failures []CleanupFailure `json:"failures,omitempty"`
}

// Cleanup deletes every backup of the file at path whose modification
// time is older than MaxAge. Only files matching the exact backup
// naming pattern for this record are considered. A backup created after
// the directory listing was taken is never touched by this pass, which
// is why the sweep needs no locking against concurrent backup creation.
func Cleanup(ctx context.Context, path string, opts CleanupOptions) (CleanupResult, error) {
	maxAge := opts.MaxAge
	if maxAge == 0 {
		maxAge = DefaultMaxAge
	}
	now := opts.now
	if now == nil {
		now = time.Now
	}

	dir := opts.BackupDir
	if dir == "" {
		dir = filepath.Dir(path)
	}

	dirents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return CleanupResult{}, nil
		}
		return CleanupResult{}, &BackupError{Source: path, Err: fmt.Errorf("list backup directory: %w", err)}
	}

	cutoff := now().Add(-maxAge)
	source := filepath.Base(path)
	var result CleanupResult

	for _, de := range dirents {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if de.IsDir() {
			continue
		}
		if _, ok := Match(source, de.Name()); !ok {
			continue
		}
		result.TotalFound++

		full := filepath.Join(dir, de.Name())
		info, err := de.Info()
		if err != nil {
			result.Failures = append(result.Failures, CleanupFailure{Path: full, Error: err.Error()})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if opts.DryRun {
			result.WouldDelete = append(result.WouldDelete, full)
			continue
		}
		if err := os.Remove(full); err != nil {
			result.Failures = append(result.Failures, CleanupFailure{Path: full, Error: err.Error()})
			logging.Warn().Err(err).Str("backup", full).Msg("retention sweep failed to delete backup")
			continue
		}
		result.Deleted++
		metrics.BackupsDeleted.Inc()
	}

	if result.Deleted > 0 || len(result.Failures) > 0 {
		logging.Info().
			Str("source", path).
			Int("total_found", result.TotalFound).
			Int("deleted", result.Deleted).
			Int("failures", len(result.Failures)).
			Msg("retention sweep complete")
	}
	return result, nil
}

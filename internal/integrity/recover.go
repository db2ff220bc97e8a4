// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package integrity

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kestrane/hivestore/internal/atomicfile"
	"github.com/kestrane/hivestore/internal/backup"
	"github.com/kestrane/hivestore/internal/logging"
	"github.com/kestrane/hivestore/internal/metrics"
)

// RecoveryMethod names how a recovery attempt restored the file.
type RecoveryMethod string

const (
	// MethodBackup means content was restored from a backup copy.
	MethodBackup RecoveryMethod = "backup"

	// MethodNone means no recovery method succeeded.
	MethodNone RecoveryMethod = "none"
)

// noRecoveryReason is the failure reason reported when no healthy
// backup exists or restoration could not be verified.
const noRecoveryReason = "No valid recovery method found"

// RecoveryResult describes one recovery attempt. Produced fresh per
// attempt, never persisted.
type RecoveryResult struct {
	Success     bool
	Method      RecoveryMethod
	BackupPath  string
	Err         error
	AttemptedAt time.Time
}

// RecoverOptions configure a recovery attempt.
type RecoverOptions struct {
	// BackupDir overrides where backups of the target are searched.
	// Default: the target's own directory.
	BackupDir string

	// Detect configures the health check applied to backup candidates
	// and to the restored file.
	Detect DetectOptions
}

// AttemptRecovery restores the file at path from its newest healthy
// backup. The strict priority chain:
//
//  1. preserve the corrupt file as <path>.corrupt.<epochMillis>
//     (best-effort; a failure here never aborts recovery);
//  2. walk backups newest-first, skipping any that fail the same
//     corruption detector;
//  3. copy the first healthy backup onto the target and re-verify;
//  4. otherwise report failure.
//
// The target is never partially overwritten with an unverified
// candidate: restoration goes through the atomic writer and only a
// candidate that already passed detection is copied.
func AttemptRecovery(ctx context.Context, path string, opts RecoverOptions) RecoveryResult {
	result := RecoveryResult{Method: MethodNone, AttemptedAt: time.Now()}

	preserveCorrupt(path)

	entries, err := backup.List(path, opts.BackupDir)
	if err != nil {
		result.Err = fmt.Errorf("%s: %w", noRecoveryReason, err)
		metrics.RecoveryAttempts.WithLabelValues("unrecoverable").Inc()
		return result
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			result.Err = err
			return result
		}

		// A backup can itself be corrupt; skip it and keep walking
		// older candidates.
		if report := detect(entry.Path, opts.Detect); report != nil {
			logging.Warn().
				Str("backup", entry.Path).
				Str("type", string(report.Type)).
				Msg("skipping corrupt backup during recovery")
			continue
		}

		if err := restore(path, entry.Path); err != nil {
			logging.Warn().Err(err).Str("backup", entry.Path).Msg("failed to restore backup candidate")
			continue
		}

		// Re-verify: restoration is only a success if the restored
		// target now passes the same detector.
		if report := detect(path, opts.Detect); report != nil {
			logging.Warn().
				Str("backup", entry.Path).
				Str("type", string(report.Type)).
				Msg("restored file failed post-copy verification")
			continue
		}

		result.Success = true
		result.Method = MethodBackup
		result.BackupPath = entry.Path
		metrics.RecoveryAttempts.WithLabelValues("recovered").Inc()
		logging.Info().Str("path", path).Str("backup", entry.Path).Msg("record recovered from backup")
		return result
	}

	result.Err = fmt.Errorf("%s", noRecoveryReason)
	metrics.RecoveryAttempts.WithLabelValues("unrecoverable").Inc()
	return result
}

// preserveCorrupt keeps a side copy of the corrupt file for forensics
// before recovery overwrites it. Best-effort: the copy is secondary to
// the recovery itself.
func preserveCorrupt(path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn().Err(err).Str("path", path).Msg("failed to read corrupt file for preservation")
		}
		return
	}

	sidecar := fmt.Sprintf("%s.corrupt.%d", path, time.Now().UnixMilli())
	if err := os.WriteFile(sidecar, content, 0o644); err != nil {
		logging.Warn().Err(err).Str("sidecar", sidecar).Msg("failed to preserve corrupt file")
		return
	}
	logging.Debug().Str("path", path).Str("sidecar", sidecar).Msg("corrupt file preserved")
}

// restore copies a verified backup onto the target atomically.
func restore(path, backupPath string) error {
	content, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}

	mode := atomicfile.DefaultFileMode
	if info, err := os.Stat(backupPath); err == nil {
		mode = info.Mode().Perm()
	}

	return atomicfile.Write(path, content, atomicfile.Options{Mode: mode, CreateParents: true})
}

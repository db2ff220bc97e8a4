// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

// Package reaper removes orphaned temp files left behind by crashed
// writers. The atomic writer stages content in hidden .tmp. files and
// cleans them up on every failure path it can observe; a hard crash
// between staging and rename cannot be observed, so orphans accumulate
// until something sweeps them.
//
// The sweep runs once at daemon startup and periodically thereafter.
// Only files older than a grace period are removed: a temp file younger
// than that may belong to a write still in flight.
package reaper

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/kestrane/hivestore/internal/atomicfile"
	"github.com/kestrane/hivestore/internal/logging"
	"github.com/kestrane/hivestore/internal/metrics"
)

// DefaultGracePeriod is how old a temp file must be before the reaper
// considers it orphaned.
const DefaultGracePeriod = time.Hour

// Options configure a sweep.
type Options struct {
	// GracePeriod overrides DefaultGracePeriod.
	GracePeriod time.Duration

	// DryRun reports what would be removed without removing it.
	DryRun bool

	// now is stubbed in tests.
	now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.GracePeriod <= 0 {
		o.GracePeriod = DefaultGracePeriod
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Result summarizes one sweep.
type Result struct {
	Scanned int
	Reaped  int
	Skipped int
	Failed  int
}

// Sweep walks root recursively and removes orphaned temp files older
// than the grace period. Per-file failures are logged and counted but
// never abort the walk; a missing root is a no-op.
func Sweep(ctx context.Context, root string, opts Options) (Result, error) {
	opts = opts.withDefaults()
	cutoff := opts.now().Add(-opts.GracePeriod)

	var result Result
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			logging.Warn().Err(err).Str("path", path).Msg("reaper cannot access path")
			result.Failed++
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		target, created, ok := atomicfile.ParseTempName(d.Name())
		if !ok {
			return nil
		}
		result.Scanned++

		// Prefer the timestamp embedded in the name; fall back to
		// mtime if the name's epoch is implausible.
		age := created
		if created.IsZero() || created.After(opts.now()) {
			info, infoErr := d.Info()
			if infoErr != nil {
				result.Failed++
				return nil
			}
			age = info.ModTime()
		}
		if age.After(cutoff) {
			result.Skipped++
			return nil
		}

		if opts.DryRun {
			result.Reaped++
			return nil
		}
		if rmErr := os.Remove(path); rmErr != nil {
			if os.IsNotExist(rmErr) {
				return nil
			}
			logging.Warn().Err(rmErr).Str("path", path).Msg("failed to reap orphan temp file")
			result.Failed++
			return nil
		}

		result.Reaped++
		metrics.OrphanTempsReaped.Inc()
		logging.Info().Str("path", path).Str("target", target).Msg("reaped orphan temp file")
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("sweep %q: %w", root, err)
	}
	return result, nil
}

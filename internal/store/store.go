// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kestrane/hivestore/internal/atomicfile"
	"github.com/kestrane/hivestore/internal/backup"
	"github.com/kestrane/hivestore/internal/dirperm"
	"github.com/kestrane/hivestore/internal/diskspace"
	"github.com/kestrane/hivestore/internal/integrity"
	"github.com/kestrane/hivestore/internal/logging"
	"github.com/kestrane/hivestore/internal/metrics"
	"github.com/kestrane/hivestore/internal/paths"
	"github.com/kestrane/hivestore/internal/schema"
)

// Config configures a Store.
type Config struct {
	// BaseDir is the store root. Created with default permissions if
	// missing.
	BaseDir string

	// Thresholds configure the disk-space admission floors. Zero
	// values mean the package defaults.
	Thresholds diskspace.Thresholds

	// BackupMaxAge is the retention threshold for the backup sweep.
	// Zero means backup.DefaultMaxAge.
	BackupMaxAge time.Duration

	// DirMode is the permission mode asserted on the store root and
	// managed directories. Zero means dirperm's default.
	DirMode os.FileMode
}

// Store is the composed durability facade. Safe for concurrent use;
// all mutable state lives on disk.
type Store struct {
	cfg      Config
	resolver *paths.Resolver
	registry *schema.Registry
}

// Open prepares the store root and returns a Store over it.
func Open(cfg Config) (*Store, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("store base directory is required")
	}
	dirOpts := dirperm.DefaultOptions()
	if cfg.DirMode != 0 {
		dirOpts.Mode = cfg.DirMode
	}
	if err := dirperm.Ensure(cfg.BaseDir, dirOpts); err != nil {
		return nil, fmt.Errorf("prepare store root: %w", err)
	}
	resolver, err := paths.NewResolver(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve store root: %w", err)
	}
	return &Store{
		cfg:      cfg,
		resolver: resolver,
		registry: schema.NewRegistry(),
	}, nil
}

// BaseDir returns the store root.
func (s *Store) BaseDir() string {
	return s.cfg.BaseDir
}

// Resolver returns the store's path resolver.
func (s *Store) Resolver() *paths.Resolver {
	return s.resolver
}

// Schemas returns the store's record schema registry.
func (s *Store) Schemas() *schema.Registry {
	return s.registry
}

// WriteOptions control one write.
type WriteOptions struct {
	// Snapshot takes a backup of the existing content before the
	// write. A missing target is not an error; there is simply
	// nothing to snapshot.
	Snapshot bool

	// RequiredBytes enables the disk-space gate when non-zero: the
	// write is rejected up front if it would breach an admission
	// floor.
	RequiredBytes uint64

	// Mode is the file mode for the target. Zero means the atomic
	// writer's default.
	Mode os.FileMode
}

// Write persists content at path atomically. The path must resolve
// inside the store root; containment is re-checked here rather than
// trusted from the caller.
func (s *Store) Write(ctx context.Context, path string, content []byte, opts WriteOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := paths.ValidatePathContainment(s.cfg.BaseDir, path); err != nil {
		metrics.WriteErrors.Inc()
		return err
	}

	if opts.RequiredBytes > 0 {
		res, err := diskspace.Check(s.cfg.BaseDir, opts.RequiredBytes, s.cfg.Thresholds)
		if err != nil {
			metrics.WriteErrors.Inc()
			return err
		}
		metrics.DiskAvailableBytes.Set(float64(res.Snapshot.AvailableBytes))
		if !res.Sufficient {
			metrics.DiskChecksRejected.Inc()
			metrics.WriteErrors.Inc()
			return &diskspace.InsufficientSpaceError{
				Path:           s.cfg.BaseDir,
				AvailableBytes: res.Snapshot.AvailableBytes,
				TotalBytes:     res.Snapshot.TotalBytes,
				RequiredBytes:  opts.RequiredBytes,
				Reason:         res.Reason,
			}
		}
	}

	if opts.Snapshot {
		if _, err := backup.Create(path, backup.CreateOptions{}); err != nil {
			metrics.WriteErrors.Inc()
			return fmt.Errorf("pre-write snapshot: %w", err)
		}
	}

	if err := atomicfile.Write(path, content, atomicfile.Options{Mode: opts.Mode, CreateParents: true}); err != nil {
		metrics.WriteErrors.Inc()
		return err
	}

	metrics.WritesTotal.Inc()
	metrics.WriteBytes.Add(float64(len(content)))
	logging.Debug().Str("path", path).Int("bytes", len(content)).Msg("record written")
	return nil
}

// LoadOptions control one load.
type LoadOptions struct {
	// Validate is the content predicate applied during corruption
	// detection. Nil skips semantic validation; parse checking still
	// applies.
	Validate integrity.Validator
}

// Load reads the record at path, recovering from backup if it is
// corrupt.
func (s *Store) Load(ctx context.Context, path string, opts LoadOptions) ([]byte, error) {
	if err := paths.ValidatePathContainment(s.cfg.BaseDir, path); err != nil {
		return nil, err
	}
	return integrity.SafeLoad(ctx, path, integrity.RecoverOptions{
		Detect: integrity.DetectOptions{Validate: opts.Validate},
	})
}

// Snapshot takes an on-demand backup of the record at path, returning
// the backup path. A missing source returns "" without error.
func (s *Store) Snapshot(path string) (string, error) {
	if err := paths.ValidatePathContainment(s.cfg.BaseDir, path); err != nil {
		return "", err
	}
	return backup.Create(path, backup.CreateOptions{})
}

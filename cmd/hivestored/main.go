// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

// Package main is the entry point for the hivestored daemon.
//
// Hivestore is the durable record store backing a hierarchical
// multi-agent orchestration platform: agent configs, task records, and
// runtime metadata live as JSON files in a sharded directory layout,
// written atomically, backed up with timestamped copies, and recovered
// automatically when corruption is detected.
//
// # Startup order
//
//  1. Configuration: Koanf v2 layering defaults, config.yaml, and
//     environment variables
//  2. Logging: zerolog, optionally with a rotating file sink
//  3. Process lock: exactly one hivestored per store, enforced with a
//     PID file
//  4. Store: root directory preparation and path resolver
//  5. Startup reaper pass: orphaned temp files from a previous crash
//     are removed synchronously before anything writes
//  6. Supervisor tree: retention sweeper, periodic reaper, and the
//     admin server under suture
//
// # Signal handling
//
// SIGINT and SIGTERM stop the tree gracefully and release the process
// lock.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kestrane/hivestore/internal/config"
	"github.com/kestrane/hivestore/internal/diskspace"
	"github.com/kestrane/hivestore/internal/logging"
	"github.com/kestrane/hivestore/internal/proclock"
	"github.com/kestrane/hivestore/internal/server"
	"github.com/kestrane/hivestore/internal/store"
	"github.com/kestrane/hivestore/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hivestored: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		Caller:         cfg.Logging.Caller,
		File:           cfg.Logging.File,
		FileMaxSizeMB:  cfg.Logging.FileMaxSizeMB,
		FileMaxBackups: cfg.Logging.FileMaxBackups,
		FileMaxAgeDays: cfg.Logging.FileMaxAgeDays,
	})

	dirMode, err := cfg.Store.Mode()
	if err != nil {
		return err
	}

	st, err := store.Open(store.Config{
		BaseDir: cfg.Store.BaseDir,
		DirMode: dirMode,
		Thresholds: diskspace.Thresholds{
			MinFreeBytes:   cfg.Disk.MinFreeBytes,
			MinFreePercent: cfg.Disk.MinFreePercent,
		},
		BackupMaxAge: cfg.Backup.MaxAge,
	})
	if err != nil {
		return err
	}

	lockDir := st.Resolver().PIDDir()
	release, err := proclock.Acquire(lockDir, cfg.Lock.ProcessName)
	if err != nil {
		var le *proclock.LockError
		if errors.As(err, &le) {
			return fmt.Errorf("another instance is running: %w", err)
		}
		return err
	}
	defer func() {
		if err := release(); err != nil {
			logging.Warn().Err(err).Msg("failed to release process lock")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Clear crash debris before the first write of this run.
	if result, err := st.SweepTemps(ctx, cfg.Reaper.GracePeriod); err != nil {
		logging.Warn().Err(err).Msg("startup temp sweep failed")
	} else if result.Reaped > 0 {
		logging.Info().Int("reaped", result.Reaped).Msg("startup temp sweep complete")
	}

	tree := supervisor.NewTree(slog.New(logging.NewSlogHandler()), supervisor.DefaultTreeConfig())
	tree.AddMaintenanceService(supervisor.NewSweeperService(st, cfg.Backup.SweepInterval))
	tree.AddMaintenanceService(supervisor.NewReaperService(st, cfg.Reaper.GracePeriod, cfg.Reaper.Interval))
	if cfg.Server.Enabled {
		tree.AddAPIService(server.New(cfg.Server, st, lockDir))
	}

	logging.Info().
		Str("base_dir", cfg.Store.BaseDir).
		Bool("admin_server", cfg.Server.Enabled).
		Msg("hivestored started")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("hivestored stopped")
	return nil
}

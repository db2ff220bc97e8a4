// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

// Package metrics registers the Prometheus instrumentation for the
// store: write throughput, backup churn, corruption and recovery
// outcomes, disk admission rejections, and lock activity. The daemon
// serves them on /metrics via the admin server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Atomic writer.
	WritesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hivestore_writes_total",
			Help: "Total number of completed atomic record writes",
		},
	)

	WriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hivestore_write_errors_total",
			Help: "Total number of failed atomic record writes",
		},
	)

	WriteBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hivestore_write_bytes_total",
			Help: "Total bytes written through the atomic writer",
		},
	)

	// Backup manager.
	BackupsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hivestore_backups_created_total",
			Help: "Total number of backups created",
		},
	)

	BackupsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hivestore_backups_deleted_total",
			Help: "Total number of backups removed by retention sweeps",
		},
	)

	// Corruption detector and recovery engine.
	CorruptionsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hivestore_corruptions_detected_total",
			Help: "Total number of corrupt records detected, by classification",
		},
		[]string{"type"}, // "missing_file", "read_error", "parse_error", "validation_error"
	)

	RecoveryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hivestore_recovery_attempts_total",
			Help: "Total number of recovery attempts, by outcome",
		},
		[]string{"outcome"}, // "recovered", "unrecoverable"
	)

	// Disk space guard.
	DiskChecksRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hivestore_disk_checks_rejected_total",
			Help: "Total number of writes rejected by the disk space guard",
		},
	)

	DiskAvailableBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hivestore_disk_available_bytes",
			Help: "Available bytes on the filesystem backing the store, from the last snapshot",
		},
	)

	// Process lock manager.
	LockAcquisitions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hivestore_lock_acquisitions_total",
			Help: "Total number of successful process lock acquisitions",
		},
	)

	LockContention = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hivestore_lock_contention_total",
			Help: "Total number of lock acquisitions refused because the holder was alive",
		},
	)

	StaleLocksReclaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hivestore_stale_locks_reclaimed_total",
			Help: "Total number of dead-process lock files reclaimed",
		},
	)

	// Temp-file reaper.
	OrphanTempsReaped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hivestore_orphan_temps_reaped_total",
			Help: "Total number of orphaned temp files deleted by the reaper",
		},
	)
)

// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

// Package diskspace is the admission-control gate consulted before
// large writes.
//
// The guard is advisory by design: the filesystem stat and the write it
// gates are separate system calls with nothing held in between, so
// another process can consume the remaining space in the gap. The check
// shrinks the failure window; it cannot close it. It is also not wired
// into atomicfile automatically because most record writes are far too
// small to justify the extra system call; callers opt in for large
// payloads.
package diskspace

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

// Default admission thresholds.
const (
	// DefaultMinFreeBytes is the absolute free-space floor no write may
	// breach: 100MB.
	DefaultMinFreeBytes = uint64(100 * 1024 * 1024)

	// DefaultMinFreePercent is the relative free-space floor.
	DefaultMinFreePercent = 5.0
)

// Snapshot is a point-in-time read of the filesystem backing a path.
// Values are never cached; they can change between check and use.
type Snapshot struct {
	Path             string  `json:"path"`
	TotalBytes       uint64  `json:"total_bytes"`
	FreeBytes        uint64  `json:"free_bytes"`
	AvailableBytes   uint64  `json:"available_bytes"`
	UsedBytes        uint64  `json:"used_bytes"`
	UsedPercent      float64 `json:"used_percent"`
	AvailablePercent float64 `json:"available_percent"`
}

// Result is the verdict of an admission check.
type Result struct {
	// Sufficient is true when the operation clears all three floors.
	Sufficient bool `json:"sufficient"`

	// Reason names the first breached condition when insufficient.
	Reason string `json:"reason,omitempty"`

	// RequiredBytes is the operation size the check was asked about.
	RequiredBytes uint64 `json:"required_bytes"`

	// Snapshot is the filesystem state the verdict was computed from.
	Snapshot Snapshot `json:"snapshot"`
}

// StatError reports a failed filesystem stat.
type StatError struct {
	Path string
	Err  error
}

func (e *StatError) Error() string {
	return fmt.Sprintf("stat filesystem for %q: %v", e.Path, e.Err)
}

func (e *StatError) Unwrap() error {
	return e.Err
}

// InsufficientSpaceError reports a rejected admission check with the
// byte counts needed to diagnose it.
type InsufficientSpaceError struct {
	Path           string
	AvailableBytes uint64
	TotalBytes     uint64
	RequiredBytes  uint64
	Reason         string
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("insufficient disk space at %q: %s (available %s, total %s, required %s)",
		e.Path, e.Reason,
		humanize.IBytes(e.AvailableBytes),
		humanize.IBytes(e.TotalBytes),
		humanize.IBytes(e.RequiredBytes))
}

// Thresholds configure the admission floors. Zero values mean the
// defaults.
type Thresholds struct {
	// MinFreeBytes is the absolute floor of available bytes that must
	// remain after the operation.
	MinFreeBytes uint64

	// MinFreePercent is the relative floor of available space that must
	// remain after the operation.
	MinFreePercent float64
}

func (t Thresholds) withDefaults() Thresholds {
	if t.MinFreeBytes == 0 {
		t.MinFreeBytes = DefaultMinFreeBytes
	}
	if t.MinFreePercent == 0 {
		t.MinFreePercent = DefaultMinFreePercent
	}
	return t
}

// Stat reads a fresh snapshot of the filesystem backing path.
func Stat(path string) (Snapshot, error) {
	var fs unix.Statfs_t
	if err := unix.Statfs(path, &fs); err != nil {
		return Snapshot{}, &StatError{Path: path, Err: err}
	}

	bsize := uint64(fs.Bsize)
	snap := Snapshot{
		Path:           path,
		TotalBytes:     fs.Blocks * bsize,
		FreeBytes:      fs.Bfree * bsize,
		AvailableBytes: fs.Bavail * bsize,
	}
	snap.UsedBytes = snap.TotalBytes - snap.FreeBytes
	if snap.TotalBytes > 0 {
		snap.UsedPercent = float64(snap.UsedBytes) / float64(snap.TotalBytes) * 100
		snap.AvailablePercent = float64(snap.AvailableBytes) / float64(snap.TotalBytes) * 100
	}
	return snap, nil
}

// Check returns the admission verdict for writing requiredBytes at
// path. Three conditions are evaluated in order, first failure wins:
// outright insufficiency, the absolute floor, then the relative floor.
// The returned error is non-nil only when the filesystem itself could
// not be statted.
func Check(path string, requiredBytes uint64, th Thresholds) (Result, error) {
	snap, err := Stat(path)
	if err != nil {
		return Result{}, err
	}
	return evaluate(snap, requiredBytes, th.withDefaults()), nil
}

// evaluate applies the ordered admission conditions to a snapshot.
func evaluate(snap Snapshot, requiredBytes uint64, th Thresholds) Result {
	res := Result{RequiredBytes: requiredBytes, Snapshot: snap}

	if snap.AvailableBytes < requiredBytes {
		res.Reason = "not enough available space for the operation"
		return res
	}

	remaining := snap.AvailableBytes - requiredBytes
	if remaining < th.MinFreeBytes {
		res.Reason = fmt.Sprintf("operation would breach the %s free-space floor",
			humanize.IBytes(th.MinFreeBytes))
		return res
	}

	if snap.TotalBytes > 0 {
		remainingPercent := float64(remaining) / float64(snap.TotalBytes) * 100
		if remainingPercent < th.MinFreePercent {
			res.Reason = fmt.Sprintf("operation would leave %.1f%% free, below the %.1f%% floor",
				remainingPercent, th.MinFreePercent)
			return res
		}
	}

	res.Sufficient = true
	return res
}

// Ensure is the throwing variant of Check, used as a pre-flight gate
// before large writes. It returns an *InsufficientSpaceError when the
// verdict is negative.
func Ensure(path string, requiredBytes uint64, th Thresholds) error {
	res, err := Check(path, requiredBytes, th)
	if err != nil {
		return err
	}
	if !res.Sufficient {
		return &InsufficientSpaceError{
			Path:           path,
			AvailableBytes: res.Snapshot.AvailableBytes,
			TotalBytes:     res.Snapshot.TotalBytes,
			RequiredBytes:  requiredBytes,
			Reason:         res.Reason,
		}
	}
	return nil
}

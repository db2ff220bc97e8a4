// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

// Package atomicfile replaces a file's contents atomically.
//
// Content is first written to a hidden temp file in the same directory
// as the target, then renamed onto the target path. Because both paths
// are on one filesystem the rename is atomic: a reader observes either
// the old content in full or the new content in full, never a partial
// write. A crash before the rename leaves the original file intact and
// an orphaned temp file; package reaper sweeps those at daemon startup.
//
// Temp names embed the creation time and a random suffix
// (.<filename>.tmp.<epochMillis>.<suffix>) so concurrent writers to the
// same target never collide on their in-flight files. When two writers
// race, the last rename to land wins; callers needing ordering must
// serialize externally, e.g. through proclock.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kestrane/hivestore/internal/logging"
)

// Default permission bits.
const (
	DefaultFileMode = os.FileMode(0o644)
	DefaultDirMode  = os.FileMode(0o755)
)

// tempInfix marks an in-flight temp file. The full temp name is
// .<filename>.tmp.<epochMillis>.<suffix>, same directory as the target.
const tempInfix = ".tmp."

// WriteError reports a failed atomic write with enough context to
// diagnose it: the target path, the temp path in use at the time, and
// the underlying cause.
type WriteError struct {
	Target string
	Temp   string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("atomic write of %q failed (temp %q): %v", e.Target, e.Temp, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Options control a single atomic write.
type Options struct {
	// Mode is the permission mode for the target file. Zero means
	// DefaultFileMode; callers writing secrets must pass a restrictive
	// mode explicitly.
	Mode os.FileMode

	// CreateParents creates missing parent directories with
	// DefaultDirMode before writing.
	CreateParents bool
}

// Write atomically replaces the contents of path with content. Either
// the target ends up containing content in full, or it is left exactly
// as it was (possibly absent). On failure the temp file is removed
// best-effort and a *WriteError is returned.
func Write(path string, content []byte, opts Options) error {
	mode := opts.Mode
	if mode == 0 {
		mode = DefaultFileMode
	}

	dir := filepath.Dir(path)
	if opts.CreateParents {
		if err := os.MkdirAll(dir, DefaultDirMode); err != nil {
			return &WriteError{Target: path, Err: fmt.Errorf("create parent directory: %w", err)}
		}
	}

	temp := filepath.Join(dir, TempName(filepath.Base(path)))

	f, err := os.OpenFile(temp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return &WriteError{Target: path, Temp: temp, Err: fmt.Errorf("create temp file: %w", err)}
	}

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		discardTemp(temp)
		return &WriteError{Target: path, Temp: temp, Err: fmt.Errorf("write temp file: %w", err)}
	}

	// Flush file data before the rename so a crash immediately after
	// cannot surface the new name with missing content.
	if err := f.Sync(); err != nil {
		_ = f.Close()
		discardTemp(temp)
		return &WriteError{Target: path, Temp: temp, Err: fmt.Errorf("sync temp file: %w", err)}
	}
	if err := f.Close(); err != nil {
		discardTemp(temp)
		return &WriteError{Target: path, Temp: temp, Err: fmt.Errorf("close temp file: %w", err)}
	}

	if err := os.Rename(temp, path); err != nil {
		discardTemp(temp)
		return &WriteError{Target: path, Temp: temp, Err: fmt.Errorf("rename temp file: %w", err)}
	}

	syncDir(dir)
	return nil
}

// discardTemp removes a temp file after a failed write. The write
// already failed, so a cleanup failure is only worth a warning.
func discardTemp(temp string) {
	if err := os.Remove(temp); err != nil && !os.IsNotExist(err) {
		logging.Warn().Err(err).Str("temp", temp).Msg("failed to remove temp file after failed write")
	}
}

// syncDir flushes the directory entry for a completed rename.
// Best-effort: some filesystems reject directory fsync.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer func() { _ = d.Close() }()
	_ = d.Sync()
}

// TempName builds the temp filename for a target filename.
func TempName(filename string) string {
	suffix := uuid.New().String()[:8]
	return fmt.Sprintf(".%s%s%d.%s", filename, tempInfix, time.Now().UnixMilli(), suffix)
}

// ParseTempName reports whether name is a temp filename, and if so the
// target filename it belongs to and when the write began. The reaper
// uses this to find orphans left by crashed writers.
func ParseTempName(name string) (target string, created time.Time, ok bool) {
	if !strings.HasPrefix(name, ".") {
		return "", time.Time{}, false
	}
	idx := strings.LastIndex(name, tempInfix)
	if idx <= 0 {
		return "", time.Time{}, false
	}

	target = name[1:idx]
	rest := name[idx+len(tempInfix):]

	millis, _, found := strings.Cut(rest, ".")
	if !found {
		return "", time.Time{}, false
	}
	epoch, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return target, time.UnixMilli(epoch), true
}

// IsTempName reports whether name looks like an in-flight temp file.
func IsTempName(name string) bool {
	_, _, ok := ParseTempName(name)
	return ok
}

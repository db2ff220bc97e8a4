// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

// Package backup creates timestamped copies of record files and sweeps
// them by age.
//
// Backups are created on demand, never automatically on every write;
// the store facade exposes an opt-in pre-write snapshot for callers
// that need guaranteed recoverability. Each backup is an immutable
// co-located copy named <basename>.<timestamp><ext>; multiple backups
// of one record coexist and the fixed-width timestamp keeps
// lexicographic order chronological, which is what the recovery engine
// relies on when walking candidates newest-first.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kestrane/hivestore/internal/atomicfile"
	"github.com/kestrane/hivestore/internal/dirperm"
	"github.com/kestrane/hivestore/internal/logging"
	"github.com/kestrane/hivestore/internal/metrics"
)

// BackupError reports a failed backup with its source and destination.
type BackupError struct {
	Source string
	Backup string
	Err    error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup of %q to %q failed: %v", e.Source, e.Backup, e.Err)
}

func (e *BackupError) Unwrap() error {
	return e.Err
}

// CreateOptions control a single backup.
type CreateOptions struct {
	// BackupDir overrides the backup directory. Default: the source
	// file's own directory.
	BackupDir string

	// Mode overrides the backup file's permission bits. Zero preserves
	// the source file's bits.
	Mode os.FileMode

	// now overrides the timestamp source in tests.
	now func() time.Time
}

// Create copies the file at path into the backup directory and returns
// the backup's path. A missing source is not an error condition —
// backup-of-nothing returns ("", nil) so callers can snapshot
// unconditionally before a first write.
func Create(path string, opts CreateOptions) (string, error) {
	now := opts.now
	if now == nil {
		now = time.Now
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", &BackupError{Source: path, Err: fmt.Errorf("read source: %w", err)}
	}

	mode := opts.Mode
	if mode == 0 {
		info, err := os.Stat(path)
		if err != nil {
			return "", &BackupError{Source: path, Err: fmt.Errorf("stat source: %w", err)}
		}
		mode = info.Mode().Perm()
	}

	dir := opts.BackupDir
	if dir == "" {
		dir = filepath.Dir(path)
	} else {
		if err := dirperm.Ensure(dir, dirperm.DefaultOptions()); err != nil {
			return "", &BackupError{Source: path, Err: err}
		}
	}

	backupPath := filepath.Join(dir, Name(filepath.Base(path), now()))
	if err := atomicfile.Write(backupPath, content, atomicfile.Options{Mode: mode}); err != nil {
		return "", &BackupError{Source: path, Backup: backupPath, Err: err}
	}

	metrics.BackupsCreated.Inc()
	logging.Debug().Str("source", path).Str("backup", backupPath).Msg("backup created")
	return backupPath, nil
}

// Entry is one backup of a record file, discovered by List.
type Entry struct {
	// Path is the backup file's location.
	Path string

	// Timestamp is the creation time embedded in the filename.
	Timestamp time.Time
}

// List returns every backup of the file at path found in the backup
// directory, newest first. The listing matches names exactly; unrelated
// files and backups of other records are ignored.
func List(path, backupDir string) ([]Entry, error) {
	dir := backupDir
	if dir == "" {
		dir = filepath.Dir(path)
	}

	dirents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &BackupError{Source: path, Err: fmt.Errorf("list backup directory: %w", err)}
	}

	source := filepath.Base(path)
	var entries []Entry
	for _, de := range dirents {
		if de.IsDir() {
			continue
		}
		if ts, ok := Match(source, de.Name()); ok {
			entries = append(entries, Entry{Path: filepath.Join(dir, de.Name()), Timestamp: ts})
		}
	}

	// Lexicographic order of names is chronological; ReadDir returns
	// names sorted ascending, so reversing yields newest first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Newest returns the most recent backup of the file at path, or ok
// false when none exists.
func Newest(ctx context.Context, path, backupDir string) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}
	entries, err := List(path, backupDir)
	if err != nil || len(entries) == 0 {
		return Entry{}, false, err
	}
	return entries[0], true, nil
}

// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

// Package proclock enforces at most one live process per logical
// process name, system-wide, via PID files.
//
// A lock file <sanitizedName>.pid holds a JSON record naming the
// holder. Acquisition claims the file with an exclusive create
// (O_CREATE|O_EXCL), which makes the claim a single atomic filesystem
// step; the earlier read-then-write approach had a TOCTOU window where
// two racing processes could both believe they held the lock.
//
// Liveness probing sends signal 0 to the recorded PID. "No such
// process" means dead. "Permission denied" means the signal reached a
// real process owned by someone else and is treated as alive:
// over-reporting liveness is the safe default, since the alternative
// risks two writers. A lock file whose PID is confirmed dead is
// reclaimed automatically and silently — a dead process's lock is
// definitionally not protecting anything.
package proclock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sys/unix"

	"github.com/kestrane/hivestore/internal/dirperm"
	"github.com/kestrane/hivestore/internal/logging"
	"github.com/kestrane/hivestore/internal/metrics"
)

// acquireAttempts bounds the claim loop: each pass either claims the
// file or removes a stale/malformed one and tries again.
const acquireAttempts = 3

// Record is the content of a lock file.
type Record struct {
	PID         int    `json:"pid"`
	ProcessName string `json:"processName"`
	CreatedAt   string `json:"createdAt"`
	Hostname    string `json:"hostname"`
}

// LockError reports an acquisition refused because the holder is alive.
type LockError struct {
	ProcessName string
	BlockingPID int
}

func (e *LockError) Error() string {
	return fmt.Sprintf("process %q is already running (pid %d)", e.ProcessName, e.BlockingPID)
}

// SanitizeName maps a process name onto the lock filename alphabet:
// any character outside [A-Za-z0-9-_] becomes a hyphen.
func SanitizeName(name string) string {
	return strings.Map(func(c rune) rune {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
			return c
		default:
			return '-'
		}
	}, name)
}

// LockPath returns the lock file path for a process name.
func LockPath(lockDir, processName string) string {
	return filepath.Join(lockDir, SanitizeName(processName)+".pid")
}

// Alive probes whether pid refers to a running process.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	switch {
	case err == nil:
		return true
	case errors.Is(err, unix.ESRCH):
		return false
	case errors.Is(err, unix.EPERM):
		// The signal reached a real process we don't own.
		return true
	default:
		return true
	}
}

// Acquire takes the lock for processName, returning a release function
// the holder calls on clean shutdown. A live holder produces a
// *LockError naming the blocking PID; a dead holder's file is reclaimed
// and acquisition proceeds.
func Acquire(lockDir, processName string) (func() error, error) {
	if strings.TrimSpace(processName) == "" {
		return nil, fmt.Errorf("process name is required")
	}
	if err := dirperm.Ensure(lockDir, dirperm.DefaultOptions()); err != nil {
		return nil, fmt.Errorf("prepare lock directory: %w", err)
	}

	path := LockPath(lockDir, processName)

	for attempt := 0; attempt < acquireAttempts; attempt++ {
		claimed, err := claim(path, processName)
		if err == nil && claimed {
			metrics.LockAcquisitions.Inc()
			logging.Info().Str("process", processName).Int("pid", os.Getpid()).Str("lock", path).
				Msg("process lock acquired")
			return func() error { return release(path, processName) }, nil
		}
		if err != nil {
			return nil, err
		}

		// The file exists. Decide between contention and staleness.
		rec, readErr := readRecord(path)
		switch {
		case readErr != nil:
			// Unreadable or malformed, most likely a writer mid-claim.
			// Give it a moment, then treat it as abandoned.
			if attempt < acquireAttempts-1 {
				time.Sleep(20 * time.Millisecond)
			}
			if rec2, err2 := readRecord(path); err2 == nil {
				rec = rec2
			} else {
				logging.Warn().Str("lock", path).Msg("removing malformed lock file")
				removeLock(path)
				continue
			}
			fallthrough
		default:
			if Alive(rec.PID) {
				metrics.LockContention.Inc()
				return nil, &LockError{ProcessName: processName, BlockingPID: rec.PID}
			}
			removeLock(path)
			metrics.StaleLocksReclaimed.Inc()
			logging.Info().Str("process", processName).Int("stale_pid", rec.PID).
				Msg("reclaimed stale process lock")
		}
	}

	return nil, fmt.Errorf("could not acquire lock for %q after %d attempts", processName, acquireAttempts)
}

// claim attempts the exclusive create. Returns (true, nil) on success,
// (false, nil) when the file already exists, and an error otherwise.
func claim(path, processName string) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("create lock file %q: %w", path, err)
	}

	hostname, _ := os.Hostname()
	rec := Record{
		PID:         os.Getpid(),
		ProcessName: processName,
		CreatedAt:   time.Now().Format(time.RFC3339),
		Hostname:    hostname,
	}

	content, err := json.Marshal(rec)
	if err != nil {
		_ = f.Close()
		removeLock(path)
		return false, fmt.Errorf("encode lock record: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		removeLock(path)
		return false, fmt.Errorf("write lock record: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		removeLock(path)
		return false, fmt.Errorf("sync lock record: %w", err)
	}
	if err := f.Close(); err != nil {
		removeLock(path)
		return false, fmt.Errorf("close lock file: %w", err)
	}
	return true, nil
}

// release removes the lock file, but only if this process still owns it.
func release(path, processName string) error {
	rec, err := readRecord(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read lock record on release: %w", err)
	}
	if rec.PID != os.Getpid() {
		return fmt.Errorf("lock for %q is held by pid %d, not this process", processName, rec.PID)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	logging.Info().Str("process", processName).Str("lock", path).Msg("process lock released")
	return nil
}

// readRecord reads and decodes a lock file.
func readRecord(path string) (Record, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(content, &rec); err != nil {
		return Record{}, fmt.Errorf("decode lock record %q: %w", path, err)
	}
	if rec.PID <= 0 {
		return Record{}, fmt.Errorf("lock record %q has no pid", path)
	}
	return rec, nil
}

// removeLock deletes a lock file, tolerating a concurrent removal.
func removeLock(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn().Err(err).Str("lock", path).Msg("failed to remove lock file")
	}
}

// ListActive enumerates the lock directory and returns the records of
// holders that are still alive. Malformed and stale entries are
// silently dropped: this is an observability aid, not a locking
// primitive.
func ListActive(lockDir string) ([]Record, error) {
	dirents, err := os.ReadDir(lockDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list lock directory %q: %w", lockDir, err)
	}

	var active []Record
	for _, de := range dirents {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".pid") {
			continue
		}
		rec, err := readRecord(filepath.Join(lockDir, de.Name()))
		if err != nil {
			continue
		}
		if !Alive(rec.PID) {
			continue
		}
		active = append(active, rec)
	}
	return active, nil
}

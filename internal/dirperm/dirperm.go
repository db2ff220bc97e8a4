// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

// Package dirperm creates and verifies directories with explicit mode
// bits.
//
// Ensure is idempotent and re-asserts the mode even when the directory
// already exists, because the mode argument to mkdir is filtered by the
// umask and not honored identically on every platform. Ownership
// assignment is best-effort only: chown routinely fails under
// restricted privileges and is not required for correctness, so a
// failure is logged as a warning rather than raised.
package dirperm

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/kestrane/hivestore/internal/logging"
)

// DefaultMode is the mode used when Options.Mode is zero.
const DefaultMode = os.FileMode(0o755)

// PermissionError reports a directory that is missing or not
// sufficiently accessible. Missing distinguishes "does not exist" from
// "exists but insufficient permission".
type PermissionError struct {
	Path         string
	RequiredMode os.FileMode
	ActualMode   os.FileMode
	Missing      bool
	Err          error
}

func (e *PermissionError) Error() string {
	if e.Missing {
		return fmt.Sprintf("directory %q does not exist", e.Path)
	}
	return fmt.Sprintf("directory %q has insufficient permission (mode %04o, required %04o): %v",
		e.Path, e.ActualMode.Perm(), e.RequiredMode.Perm(), e.Err)
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

// Options control directory creation.
type Options struct {
	// Mode is the permission mode to create and assert. Zero means
	// DefaultMode.
	Mode os.FileMode

	// Recursive creates missing ancestor directories too.
	Recursive bool

	// SetOwnership chowns the directory to UID/GID. Best-effort.
	SetOwnership bool
	UID          int
	GID          int
}

// DefaultOptions returns the standard creation options: mode 0755,
// recursive, no ownership change.
func DefaultOptions() Options {
	return Options{Mode: DefaultMode, Recursive: true}
}

// Ensure creates the directory if absent and re-asserts its mode if it
// already exists.
func Ensure(path string, opts Options) error {
	mode := opts.Mode
	if mode == 0 {
		mode = DefaultMode
	}

	var err error
	if opts.Recursive {
		err = os.MkdirAll(path, mode)
	} else {
		err = os.Mkdir(path, mode)
		if err != nil && errors.Is(err, os.ErrExist) {
			err = nil
		}
	}
	if err != nil {
		return &PermissionError{Path: path, RequiredMode: mode, Err: fmt.Errorf("create directory: %w", err)}
	}

	// mkdir's mode is filtered by the umask; chmod asserts the exact bits.
	if err := os.Chmod(path, mode); err != nil {
		actual := os.FileMode(0)
		if info, statErr := os.Stat(path); statErr == nil {
			actual = info.Mode()
		}
		return &PermissionError{
			Path:         path,
			RequiredMode: mode,
			ActualMode:   actual,
			Err:          fmt.Errorf("assert directory mode: %w", err),
		}
	}

	if opts.SetOwnership {
		if err := os.Chown(path, opts.UID, opts.GID); err != nil {
			logging.Warn().Err(err).
				Str("path", path).
				Int("uid", opts.UID).
				Int("gid", opts.GID).
				Msg("failed to set directory ownership")
		}
	}

	return nil
}

// Check verifies that path exists, is a directory, and is readable and
// writable by this process. It returns a *PermissionError whose Missing
// field distinguishes absence from inaccessibility.
func Check(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &PermissionError{Path: path, Missing: true, Err: err}
		}
		return &PermissionError{Path: path, Err: fmt.Errorf("stat directory: %w", err)}
	}
	if !info.IsDir() {
		return &PermissionError{Path: path, ActualMode: info.Mode(),
			Err: fmt.Errorf("not a directory")}
	}

	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return &PermissionError{
			Path:       path,
			ActualMode: info.Mode(),
			Err:        fmt.Errorf("access check: %w", err),
		}
	}
	return nil
}

// Permissions is a structured snapshot of a directory's mode and this
// process's effective access to it. The access flags are probed with
// access(2) rather than derived from the mode bits, because effective
// access also depends on process identity and ACLs the bits don't
// capture.
type Permissions struct {
	Path       string      `json:"path"`
	Mode       os.FileMode `json:"-"`
	ModeOctal  string      `json:"mode"`
	UID        int         `json:"uid"`
	GID        int         `json:"gid"`
	Readable   bool        `json:"readable"`
	Writable   bool        `json:"writable"`
	Executable bool        `json:"executable"`
}

// Inspect returns a permissions snapshot for path.
func Inspect(path string) (Permissions, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Permissions{}, &PermissionError{Path: path, Missing: true, Err: err}
		}
		return Permissions{}, &PermissionError{Path: path, Err: fmt.Errorf("stat: %w", err)}
	}

	p := Permissions{
		Path:      path,
		Mode:      info.Mode(),
		ModeOctal: fmt.Sprintf("%04o", info.Mode().Perm()),
		UID:       -1,
		GID:       -1,
	}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		p.UID = int(st.Uid)
		p.GID = int(st.Gid)
	}

	p.Readable = unix.Access(path, unix.R_OK) == nil
	p.Writable = unix.Access(path, unix.W_OK) == nil
	p.Executable = unix.Access(path, unix.X_OK) == nil

	return p, nil
}

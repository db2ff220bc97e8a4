// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package paths

import (
	"fmt"
	"path/filepath"
	"strings"
)

// InvalidIdentifierError reports an identifier rejected by the strict
// validators, with the reason it was rejected.
type InvalidIdentifierError struct {
	ID     string
	Reason string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid identifier %q: %s", e.ID, e.Reason)
}

// ContainmentError reports a path that resolves outside its base
// directory.
type ContainmentError struct {
	Base string
	Path string
}

func (e *ContainmentError) Error() string {
	return fmt.Sprintf("path %q resolves outside base directory %q", e.Path, e.Base)
}

// ValidateAgentID rejects identifiers that are empty, padded with
// whitespace, contain path separators or NUL bytes, or name the current
// or parent directory. Identifiers that pass are safe to join into a
// path, but AgentRoot still re-checks containment afterward.
func ValidateAgentID(id string) error {
	return validateIdentifier(id)
}

// ValidateTaskID applies the same rules as ValidateAgentID to task
// identifiers and task status names.
func ValidateTaskID(id string) error {
	return validateIdentifier(id)
}

func validateIdentifier(id string) error {
	if strings.TrimSpace(id) == "" {
		return &InvalidIdentifierError{ID: id, Reason: "empty or whitespace-only"}
	}
	if id != strings.TrimSpace(id) {
		return &InvalidIdentifierError{ID: id, Reason: "leading or trailing whitespace"}
	}
	if id == "." || id == ".." {
		return &InvalidIdentifierError{ID: id, Reason: "reserved directory name"}
	}
	if strings.ContainsAny(id, "/\\") {
		return &InvalidIdentifierError{ID: id, Reason: "contains path separator"}
	}
	if strings.ContainsRune(id, 0) {
		return &InvalidIdentifierError{ID: id, Reason: "contains NUL byte"}
	}
	return nil
}

// ValidatePathContainment resolves candidate against base and fails
// closed unless the resolved path is base itself or a descendant of it.
// Resolution is lexical; symlinks inside base are not followed.
func ValidatePathContainment(base, candidate string) error {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return &ContainmentError{Base: base, Path: candidate}
	}

	resolved := candidate
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(absBase, resolved)
	}
	resolved = filepath.Clean(resolved)

	rel, err := filepath.Rel(absBase, resolved)
	if err != nil {
		return &ContainmentError{Base: absBase, Path: resolved}
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return &ContainmentError{Base: absBase, Path: resolved}
	}
	return nil
}

// SanitizePathComponent is a best-effort cleaner for display names that
// are not validated identifiers: control characters are stripped, path
// separators become hyphens, hyphen runs collapse to one, and leading
// or trailing dots and hyphens are removed. It must not be used in
// place of ValidateAgentID for anything that reaches the filesystem as
// an identifier.
func SanitizePathComponent(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	for _, c := range name {
		switch {
		case c < 0x20 || c == 0x7f:
			// drop control characters
		case c == '/' || c == '\\':
			b.WriteByte('-')
		default:
			b.WriteRune(c)
		}
	}

	cleaned := b.String()
	for strings.Contains(cleaned, "--") {
		cleaned = strings.ReplaceAll(cleaned, "--", "-")
	}
	cleaned = strings.Trim(cleaned, "-.")
	return strings.TrimSpace(cleaned)
}

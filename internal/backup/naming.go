// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package backup

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Backups are named <basename>.<timestamp><ext>, co-located with the
// original by default. The timestamp is fixed-width and zero-padded
// (YYYY-MM-DDTHH-mm-ss-SSS, hyphens replacing colons for filesystem
// safety), so lexicographic order equals chronological order.

// timestampPattern matches exactly one backup timestamp.
const timestampPattern = `\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}-\d{3}`

// FormatTimestamp renders t in the backup timestamp format.
func FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("%s-%03d", t.Format("2006-01-02T15-04-05"), t.Nanosecond()/int(time.Millisecond))
}

// ParseTimestamp parses a backup timestamp back into a time value.
func ParseTimestamp(s string) (time.Time, error) {
	if len(s) < 4 {
		return time.Time{}, fmt.Errorf("timestamp %q too short", s)
	}
	base, millis := s[:len(s)-4], s[len(s)-3:]
	t, err := time.ParseInLocation("2006-01-02T15-04-05", base, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	var ms int
	if _, err := fmt.Sscanf(millis, "%03d", &ms); err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp millis %q: %w", s, err)
	}
	return t.Add(time.Duration(ms) * time.Millisecond), nil
}

// splitName splits a filename into basename and extension, where the
// extension includes the leading dot ("config.json" -> "config",
// ".json").
func splitName(filename string) (base, ext string) {
	ext = filepath.Ext(filename)
	return strings.TrimSuffix(filename, ext), ext
}

// Name builds the backup filename for a source filename at time t.
func Name(sourceFilename string, t time.Time) string {
	base, ext := splitName(sourceFilename)
	return fmt.Sprintf("%s.%s%s", base, FormatTimestamp(t), ext)
}

// pattern compiles the exact matcher for backups of one source file.
// Files that do not match — including backups of other files sharing
// the directory — are never touched by the sweep or considered during
// recovery.
func pattern(sourceFilename string) *regexp.Regexp {
	base, ext := splitName(sourceFilename)
	return regexp.MustCompile(
		`^` + regexp.QuoteMeta(base) + `\.(` + timestampPattern + `)` + regexp.QuoteMeta(ext) + `$`)
}

// Match reports whether candidate is a backup of sourceFilename, and if
// so the timestamp embedded in its name.
func Match(sourceFilename, candidate string) (time.Time, bool) {
	m := pattern(sourceFilename).FindStringSubmatch(candidate)
	if m == nil {
		return time.Time{}, false
	}
	ts, err := ParseTimestamp(m[1])
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// anyPattern matches a backup of any source file, capturing the source
// filename pieces and the timestamp. Used by store-wide sweeps that
// have no single source in hand.
var anyPattern = regexp.MustCompile(`^(.+)\.(` + timestampPattern + `)(\.[^.]*)?$`)

// ParseName reports whether filename is backup-shaped, and if so the
// source filename it was taken from and the embedded timestamp.
func ParseName(filename string) (source string, ts time.Time, ok bool) {
	m := anyPattern.FindStringSubmatch(filename)
	if m == nil {
		return "", time.Time{}, false
	}
	ts, err := ParseTimestamp(m[2])
	if err != nil {
		return "", time.Time{}, false
	}
	return m[1] + m[3], ts, true
}

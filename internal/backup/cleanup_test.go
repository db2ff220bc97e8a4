// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeAgedBackup creates a backup file for src whose name and mtime
// both say it is age old.
func writeAgedBackup(t *testing.T, dir, srcName string, age time.Duration) string {
	t.Helper()
	at := time.Now().Add(-age)
	path := filepath.Join(dir, Name(srcName, at))
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, at, at); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCleanupRetention(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "config.json")

	const day = 24 * time.Hour
	fresh := writeAgedBackup(t, dir, "config.json", 0)
	young := writeAgedBackup(t, dir, "config.json", 2*day)
	old := writeAgedBackup(t, dir, "config.json", 8*day)

	res, err := Cleanup(context.Background(), src, CleanupOptions{MaxAge: 7 * day})
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	if res.TotalFound != 3 {
		t.Errorf("TotalFound = %d, want 3", res.TotalFound)
	}
	if res.Deleted != 1 {
		t.Errorf("Deleted = %d, want 1", res.Deleted)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("8-day backup survived the sweep")
	}
	for _, p := range []string{fresh, young} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("young backup %q was deleted", p)
		}
	}
}

func TestCleanupDryRun(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "config.json")

	const day = 24 * time.Hour
	old := writeAgedBackup(t, dir, "config.json", 10*day)
	writeAgedBackup(t, dir, "config.json", 1*day)

	res, err := Cleanup(context.Background(), src, CleanupOptions{MaxAge: 7 * day, DryRun: true})
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	if res.Deleted != 0 {
		t.Errorf("Deleted = %d, want 0 in dry run", res.Deleted)
	}
	if len(res.WouldDelete) != 1 || res.WouldDelete[0] != old {
		t.Errorf("WouldDelete = %v, want [%q]", res.WouldDelete, old)
	}
	if _, err := os.Stat(old); err != nil {
		t.Error("dry run deleted a file")
	}
}

func TestCleanupIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "config.json")

	const day = 24 * time.Hour
	// Old backup of a different record sharing the directory.
	otherOld := writeAgedBackup(t, dir, "schedule.json", 30*day)
	// Old file that merely resembles a backup name.
	lookalike := filepath.Join(dir, "config.oldstyle.json")
	if err := os.WriteFile(lookalike, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Cleanup(context.Background(), src, CleanupOptions{MaxAge: 7 * day})
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if res.TotalFound != 0 {
		t.Errorf("TotalFound = %d, want 0", res.TotalFound)
	}
	for _, p := range []string{otherOld, lookalike} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("sweep deleted unrelated file %q", p)
		}
	}
}

func TestCleanupMissingDirectory(t *testing.T) {
	src := filepath.Join(t.TempDir(), "gone", "config.json")
	res, err := Cleanup(context.Background(), src, CleanupOptions{})
	if err != nil {
		t.Fatalf("Cleanup of missing directory: %v", err)
	}
	if res.TotalFound != 0 {
		t.Errorf("TotalFound = %d, want 0", res.TotalFound)
	}
}

func TestCleanupHonorsContextCancellation(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "config.json")
	writeAgedBackup(t, dir, "config.json", 10*24*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Cleanup(ctx, src, CleanupOptions{}); err == nil {
		t.Error("expected context cancellation error")
	}
}

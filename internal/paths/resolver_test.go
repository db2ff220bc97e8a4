// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package paths

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestShardDeterminism(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"CEO", "c0-cf"},
		{"ceo", "c0-cf"},
		{"0-agent", "00-0f"},
		{"9worker", "90-9f"},
		{"architect", "a0-af"},
		{"Foreman", "f0-ff"},
	}

	for _, tt := range tests {
		if got := Shard(tt.id); got != tt.want {
			t.Errorf("Shard(%q) = %q, want %q", tt.id, got, tt.want)
		}
		// Repeated calls must agree.
		if Shard(tt.id) != Shard(tt.id) {
			t.Errorf("Shard(%q) is not deterministic", tt.id)
		}
	}
}

func TestShardNonHexCharacters(t *testing.T) {
	// 'z' is 0x7a; 0x7a mod 16 = 10 -> "a0-af".
	if got := Shard("zebra"); got != "a0-af" {
		t.Errorf("Shard(\"zebra\") = %q, want \"a0-af\"", got)
	}
	// Same character upper- and lowercase land in the same bucket.
	if Shard("Zebra") != Shard("zebra") {
		t.Error("sharding is not case-insensitive for non-hex characters")
	}
}

func TestAgentRootLayout(t *testing.T) {
	r, err := NewResolver("/data/hive")
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	root, err := r.AgentRoot("CEO")
	if err != nil {
		t.Fatalf("AgentRoot: %v", err)
	}
	want := filepath.Join("/data/hive", "agents", "c0-cf", "CEO")
	if root != want {
		t.Errorf("AgentRoot = %q, want %q", root, want)
	}
}

func TestWellKnownPaths(t *testing.T) {
	r, err := NewResolver("/data/hive")
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	tests := []struct {
		name string
		fn   func(string) (string, error)
		want string
	}{
		{"config", r.ConfigPath, "/data/hive/agents/c0-cf/CEO/config"},
		{"schedule", r.SchedulePath, "/data/hive/agents/c0-cf/CEO/schedule"},
		{"metadata", r.MetadataPath, "/data/hive/agents/c0-cf/CEO/metadata"},
		{"inbox", r.InboxDir, "/data/hive/agents/c0-cf/CEO/inbox"},
		{"outbox", r.OutboxDir, "/data/hive/agents/c0-cf/CEO/outbox"},
		{"workspace", r.WorkspaceDir, "/data/hive/agents/c0-cf/CEO/workspace"},
		{"subordinates", r.SubordinatesDir, "/data/hive/agents/c0-cf/CEO/subordinates"},
		{"log", r.AgentLogPath, "/data/hive/logs/agents/CEO.log"},
	}

	for _, tt := range tests {
		got, err := tt.fn("CEO")
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if got != filepath.FromSlash(tt.want) {
			t.Errorf("%s = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestTaskPaths(t *testing.T) {
	r, err := NewResolver("/data/hive")
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	dir, err := r.TaskDir("CEO", "pending", "task-42")
	if err != nil {
		t.Fatalf("TaskDir: %v", err)
	}
	want := filepath.Join("/data/hive", "agents", "c0-cf", "CEO", "tasks", "pending", "task-42")
	if dir != want {
		t.Errorf("TaskDir = %q, want %q", dir, want)
	}

	if _, err := r.TaskDir("CEO", "pending", "../escape"); err == nil {
		t.Error("TaskDir accepted a traversal task id")
	}
	if _, err := r.TasksDir("CEO", ".."); err == nil {
		t.Error("TasksDir accepted a traversal status")
	}
}

func TestFixedDirectories(t *testing.T) {
	r, err := NewResolver("/data/hive")
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if got := r.PIDDir(); got != filepath.Join("/data/hive", "pids") {
		t.Errorf("PIDDir = %q", got)
	}
	if got := r.BackupsDir(); got != filepath.Join("/data/hive", "backups") {
		t.Errorf("BackupsDir = %q", got)
	}
}

func TestNewResolverRejectsEmptyBase(t *testing.T) {
	if _, err := NewResolver("   "); err == nil {
		t.Error("expected error for whitespace base directory")
	}
}

func TestAgentRootRejectsHostileIDs(t *testing.T) {
	r, err := NewResolver("/data/hive")
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	hostile := []string{
		"",
		"   ",
		".",
		"..",
		"../../etc",
		"a/b",
		`a\b`,
		"agent\x00",
		" padded",
		"padded ",
	}

	for _, id := range hostile {
		if _, err := r.AgentRoot(id); err == nil {
			t.Errorf("AgentRoot(%q) accepted a hostile identifier", id)
		}
		if p, err := r.AgentRoot(id); err == nil && !strings.HasPrefix(p, "/data/hive") {
			t.Errorf("AgentRoot(%q) escaped the base: %q", id, p)
		}
	}
}

// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package paths

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// ShardCount is the fixed number of shard buckets.
const ShardCount = 16

// Well-known names under the base directory.
const (
	agentsDirName  = "agents"
	logsDirName    = "logs"
	pidsDirName    = "pids"
	backupsDirName = "backups"
)

// Well-known names under an agent root.
const (
	ConfigFileName   = "config"
	ScheduleFileName = "schedule"
	MetadataFileName = "metadata"
	InboxDirName     = "inbox"
	OutboxDirName    = "outbox"
	WorkspaceDirName = "workspace"
	SubordsDirName   = "subordinates"
	TasksDirName     = "tasks"
)

// Resolver computes agent file locations under a single base directory.
// A Resolver performs no I/O; it only derives paths.
type Resolver struct {
	base string
}

// NewResolver creates a resolver rooted at the given base directory.
func NewResolver(base string) (*Resolver, error) {
	if strings.TrimSpace(base) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	return &Resolver{base: filepath.Clean(base)}, nil
}

// Base returns the resolver's base directory.
func (r *Resolver) Base() string {
	return r.base
}

// Shard returns the shard label for an agent identifier, e.g. "c0-cf".
// Digits 0-9 map to buckets 0-9, letters a-f map to buckets 10-15, and
// any other character is reduced via its code point mod 16. Sharding is
// case-insensitive: Shard("CEO") == Shard("ceo").
func Shard(agentID string) string {
	bucket := 0
	for _, c := range agentID {
		bucket = shardBucket(unicode.ToLower(c))
		break
	}
	return fmt.Sprintf("%x0-%xf", bucket, bucket)
}

// shardBucket maps a lowercased rune to one of the 16 buckets.
func shardBucket(c rune) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return 10 + int(c-'a')
	default:
		return int(c) % ShardCount
	}
}

// AgentRoot returns the root directory for an agent, validating the
// identifier and confirming the result stays inside the base directory.
func (r *Resolver) AgentRoot(agentID string) (string, error) {
	if err := ValidateAgentID(agentID); err != nil {
		return "", err
	}
	root := filepath.Join(r.base, agentsDirName, Shard(agentID), agentID)
	if err := ValidatePathContainment(r.base, root); err != nil {
		return "", err
	}
	return root, nil
}

// ConfigPath returns the agent's configuration record path.
func (r *Resolver) ConfigPath(agentID string) (string, error) {
	return r.agentFile(agentID, ConfigFileName)
}

// SchedulePath returns the agent's schedule record path.
func (r *Resolver) SchedulePath(agentID string) (string, error) {
	return r.agentFile(agentID, ScheduleFileName)
}

// MetadataPath returns the agent's metadata record path.
func (r *Resolver) MetadataPath(agentID string) (string, error) {
	return r.agentFile(agentID, MetadataFileName)
}

// InboxDir returns the agent's inbox directory.
func (r *Resolver) InboxDir(agentID string) (string, error) {
	return r.agentFile(agentID, InboxDirName)
}

// OutboxDir returns the agent's outbox directory.
func (r *Resolver) OutboxDir(agentID string) (string, error) {
	return r.agentFile(agentID, OutboxDirName)
}

// WorkspaceDir returns the agent's scratch workspace directory.
func (r *Resolver) WorkspaceDir(agentID string) (string, error) {
	return r.agentFile(agentID, WorkspaceDirName)
}

// SubordinatesDir returns the directory recording the agent's direct
// subordinates in the hierarchy.
func (r *Resolver) SubordinatesDir(agentID string) (string, error) {
	return r.agentFile(agentID, SubordsDirName)
}

// TasksDir returns the directory holding an agent's tasks in the given
// status (e.g. "pending", "active", "done").
func (r *Resolver) TasksDir(agentID, status string) (string, error) {
	if err := ValidateTaskID(status); err != nil {
		return "", fmt.Errorf("invalid task status: %w", err)
	}
	root, err := r.AgentRoot(agentID)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, TasksDirName, status)
	if err := ValidatePathContainment(r.base, dir); err != nil {
		return "", err
	}
	return dir, nil
}

// TaskDir returns the directory for one task of an agent.
func (r *Resolver) TaskDir(agentID, status, taskID string) (string, error) {
	if err := ValidateTaskID(taskID); err != nil {
		return "", err
	}
	statusDir, err := r.TasksDir(agentID, status)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(statusDir, taskID)
	if err := ValidatePathContainment(r.base, dir); err != nil {
		return "", err
	}
	return dir, nil
}

// AgentLogPath returns the agent's log file path. Logs are not sharded;
// the logs tree stays flat for straightforward tailing and shipping.
func (r *Resolver) AgentLogPath(agentID string) (string, error) {
	if err := ValidateAgentID(agentID); err != nil {
		return "", err
	}
	p := filepath.Join(r.base, logsDirName, agentsDirName, agentID+".log")
	if err := ValidatePathContainment(r.base, p); err != nil {
		return "", err
	}
	return p, nil
}

// PIDDir returns the directory holding process lock files.
func (r *Resolver) PIDDir() string {
	return filepath.Join(r.base, pidsDirName)
}

// BackupsDir returns the shared backup directory for callers that opt
// out of co-located backups.
func (r *Resolver) BackupsDir() string {
	return filepath.Join(r.base, backupsDirName)
}

// agentFile joins a validated agent root with a well-known child name.
func (r *Resolver) agentFile(agentID, name string) (string, error) {
	root, err := r.AgentRoot(agentID)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}

// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

// Package paths computes every well-known file location for an agent
// deterministically from a base directory and the agent's identifier.
//
// Agent directories are sharded: the agent root nests one level under a
// 16-bucket shard derived from the lowercased first character of the
// identifier. Without sharding, a deployment with tens of thousands of
// agents accumulates that many entries in one directory, which degrades
// directory-listing performance on common filesystems.
//
// Layout under the base directory:
//
//	agents/<shard>/<agentID>/config
//	agents/<shard>/<agentID>/schedule
//	agents/<shard>/<agentID>/metadata
//	agents/<shard>/<agentID>/{inbox,outbox,workspace,subordinates}
//	agents/<shard>/<agentID>/tasks/<status>/<taskID>
//	logs/agents/<agentID>.log
//	pids/<name>.pid
//	backups/
//
// The package also owns identifier validation. ValidateAgentID and
// ValidateTaskID are strict gates; ValidatePathContainment is the sole
// defense against path traversal through attacker-influenced
// identifiers and fails closed. SanitizePathComponent is a best-effort
// cleaner for display names only and must never substitute for the
// strict validators.
package paths

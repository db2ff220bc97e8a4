// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

// Package store composes the durability layers into one coherent
// contract: path resolution, schema validation, the disk-space gate,
// atomic writes with optional pre-write snapshots, corruption-checked
// loads with automatic backup recovery, and the maintenance sweeps.
//
// The generic Write/Load operations take absolute paths already
// resolved through the store's Resolver, re-checking containment at
// the write boundary. The typed helpers (WriteAgentConfig and friends)
// bundle resolution, validation, and serialization for the platform's
// record types.
package store

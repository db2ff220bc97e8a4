// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/kestrane/hivestore/internal/schema"
)

// taskFileName is the record file inside a task directory.
const taskFileName = "task.json"

// WriteAgentConfig validates and persists an agent's config record.
// Invalid records are rejected before anything touches disk.
func (s *Store) WriteAgentConfig(ctx context.Context, cfg *schema.AgentConfig, opts WriteOptions) error {
	if err := s.registry.ValidateStruct(cfg); err != nil {
		return fmt.Errorf("agent config rejected: %w", err)
	}
	path, err := s.resolver.ConfigPath(cfg.ID)
	if err != nil {
		return err
	}
	content, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode agent config: %w", err)
	}
	return s.Write(ctx, path, content, opts)
}

// LoadAgentConfig loads and validates an agent's config record,
// recovering from backup on corruption.
func (s *Store) LoadAgentConfig(ctx context.Context, agentID string) (*schema.AgentConfig, error) {
	path, err := s.resolver.ConfigPath(agentID)
	if err != nil {
		return nil, err
	}
	content, err := s.Load(ctx, path, LoadOptions{Validate: s.registry.AgentConfigValidator()})
	if err != nil {
		return nil, err
	}
	var cfg schema.AgentConfig
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("decode agent config: %w", err)
	}
	return &cfg, nil
}

// WriteAgentMetadata validates and persists an agent's runtime
// metadata record.
func (s *Store) WriteAgentMetadata(ctx context.Context, meta *schema.AgentMetadata, opts WriteOptions) error {
	if err := s.registry.ValidateStruct(meta); err != nil {
		return fmt.Errorf("agent metadata rejected: %w", err)
	}
	path, err := s.resolver.MetadataPath(meta.AgentID)
	if err != nil {
		return err
	}
	content, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode agent metadata: %w", err)
	}
	return s.Write(ctx, path, content, opts)
}

// LoadAgentMetadata loads and validates an agent's metadata record.
func (s *Store) LoadAgentMetadata(ctx context.Context, agentID string) (*schema.AgentMetadata, error) {
	path, err := s.resolver.MetadataPath(agentID)
	if err != nil {
		return nil, err
	}
	content, err := s.Load(ctx, path, LoadOptions{Validate: s.registry.AgentMetadataValidator()})
	if err != nil {
		return nil, err
	}
	var meta schema.AgentMetadata
	if err := json.Unmarshal(content, &meta); err != nil {
		return nil, fmt.Errorf("decode agent metadata: %w", err)
	}
	return &meta, nil
}

// WriteTaskRecord validates and persists a task record under the
// owning agent's tasks/<status>/<taskID>/ directory.
func (s *Store) WriteTaskRecord(ctx context.Context, task *schema.TaskRecord, opts WriteOptions) error {
	if err := s.registry.ValidateStruct(task); err != nil {
		return fmt.Errorf("task record rejected: %w", err)
	}
	dir, err := s.resolver.TaskDir(task.AgentID, task.Status, task.ID)
	if err != nil {
		return err
	}
	content, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return fmt.Errorf("encode task record: %w", err)
	}
	return s.Write(ctx, filepath.Join(dir, taskFileName), content, opts)
}

// LoadTaskRecord loads and validates one task record.
func (s *Store) LoadTaskRecord(ctx context.Context, agentID, status, taskID string) (*schema.TaskRecord, error) {
	dir, err := s.resolver.TaskDir(agentID, status, taskID)
	if err != nil {
		return nil, err
	}
	content, err := s.Load(ctx, filepath.Join(dir, taskFileName), LoadOptions{Validate: s.registry.TaskRecordValidator()})
	if err != nil {
		return nil, err
	}
	var task schema.TaskRecord
	if err := json.Unmarshal(content, &task); err != nil {
		return nil, fmt.Errorf("decode task record: %w", err)
	}
	return &task, nil
}

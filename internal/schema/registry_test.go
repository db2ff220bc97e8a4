// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package schema

import (
	"errors"
	"strings"
	"testing"
)

func validAgentConfig() AgentConfig {
	return AgentConfig{
		ID:        "agent-ceo",
		Role:      "chief executive",
		CreatedAt: "2026-08-27T10:00:00Z",
	}
}

func TestValidateAgentConfig(t *testing.T) {
	r := NewRegistry()

	if err := r.ValidateStruct(validAgentConfig()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*AgentConfig)
		field   string
	}{
		{"missing id", func(c *AgentConfig) { c.ID = "" }, "ID"},
		{"traversal id", func(c *AgentConfig) { c.ID = "../evil" }, "ID"},
		{"separator id", func(c *AgentConfig) { c.ID = "a/b" }, "ID"},
		{"missing role", func(c *AgentConfig) { c.Role = "" }, "Role"},
		{"bad parent", func(c *AgentConfig) { c.ParentID = ".." }, "ParentID"},
		{"negative subordinates", func(c *AgentConfig) { c.MaxSubordinates = -1 }, "MaxSubordinates"},
		{"bad timestamp", func(c *AgentConfig) { c.CreatedAt = "yesterday" }, "CreatedAt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAgentConfig()
			tt.mutate(&cfg)

			err := r.ValidateStruct(cfg)
			if err == nil {
				t.Fatal("invalid config accepted")
			}
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("error is not *SchemaError: %T", err)
			}
			found := false
			for _, v := range se.Violations {
				if v.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("violations %v do not name field %s", se.Violations, tt.field)
			}
		})
	}
}

func TestValidateTaskRecordStatus(t *testing.T) {
	r := NewRegistry()

	task := TaskRecord{
		ID:        "task-001",
		AgentID:   "agent-ceo",
		Title:     "quarterly report",
		Status:    "pending",
		CreatedAt: "2026-08-27T10:00:00Z",
	}
	if err := r.ValidateStruct(task); err != nil {
		t.Fatalf("valid task rejected: %v", err)
	}

	task.Status = "paused"
	err := r.ValidateStruct(task)
	if err == nil {
		t.Fatal("unknown status accepted")
	}
	if !strings.Contains(err.Error(), "Status") {
		t.Errorf("error %q does not name the Status field", err)
	}
}

func TestValidateAgentMetadata(t *testing.T) {
	r := NewRegistry()

	meta := AgentMetadata{
		AgentID: "agent-ceo",
		State:   "working",
	}
	if err := r.ValidateStruct(meta); err != nil {
		t.Fatalf("valid metadata rejected: %v", err)
	}

	meta.SessionID = "not-a-uuid"
	if err := r.ValidateStruct(meta); err == nil {
		t.Error("malformed session id accepted")
	}
}

func TestValidatorPredicate(t *testing.T) {
	r := NewRegistry()
	validate := r.AgentConfigValidator()

	valid := []byte(`{"id":"agent-ceo","role":"boss","maxSubordinates":3,"createdAt":"2026-08-27T10:00:00Z"}`)
	if err := validate(valid); err != nil {
		t.Errorf("valid content rejected: %v", err)
	}

	// Parseable JSON, wrong shape.
	invalid := []byte(`{"id":"../evil","role":"boss","createdAt":"2026-08-27T10:00:00Z"}`)
	if err := validate(invalid); err == nil {
		t.Error("traversal id accepted by predicate")
	}

	// Not JSON at all: the predicate reports a decode error rather
	// than panicking; classification as parse-vs-validation is the
	// detector's concern.
	if err := validate([]byte("garbage")); err == nil {
		t.Error("non-JSON content accepted by predicate")
	}
}

func TestRegistryReset(t *testing.T) {
	r := NewRegistry()
	if err := r.ValidateStruct(validAgentConfig()); err != nil {
		t.Fatalf("before reset: %v", err)
	}
	r.Reset()
	if err := r.ValidateStruct(validAgentConfig()); err != nil {
		t.Fatalf("after reset: %v", err)
	}
	if err := r.ValidateStruct(AgentConfig{}); err == nil {
		t.Error("custom rules lost after reset")
	}
}

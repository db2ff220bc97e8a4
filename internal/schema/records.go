// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package schema

// AgentConfig is the durable configuration record for one agent in the
// hierarchy, stored at <agentRoot>/config.json.
type AgentConfig struct {
	ID              string   `json:"id" validate:"required,agentid"`
	Role            string   `json:"role" validate:"required,min=1,max=256"`
	ParentID        string   `json:"parentId,omitempty" validate:"omitempty,agentid"`
	Model           string   `json:"model,omitempty" validate:"omitempty,max=128"`
	SystemPrompt    string   `json:"systemPrompt,omitempty"`
	Tools           []string `json:"tools,omitempty" validate:"dive,min=1,max=128"`
	MaxSubordinates int      `json:"maxSubordinates" validate:"min=0,max=1024"`
	CreatedAt       string   `json:"createdAt" validate:"required,rfc3339"`
}

// TaskRecord is one unit of delegated work, stored under the owning
// agent's tasks/<status>/ directory.
type TaskRecord struct {
	ID          string `json:"id" validate:"required,taskid"`
	AgentID     string `json:"agentId" validate:"required,agentid"`
	Title       string `json:"title" validate:"required,min=1,max=512"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status" validate:"required,oneof=pending active completed failed"`
	Priority    int    `json:"priority" validate:"min=0,max=9"`
	CreatedAt   string `json:"createdAt" validate:"required,rfc3339"`
	CompletedAt string `json:"completedAt,omitempty" validate:"omitempty,rfc3339"`
}

// AgentMetadata is the mutable runtime state record for an agent,
// stored at <agentRoot>/metadata.json.
type AgentMetadata struct {
	AgentID      string `json:"agentId" validate:"required,agentid"`
	State        string `json:"state" validate:"required,oneof=idle working blocked terminated"`
	SessionID    string `json:"sessionId,omitempty" validate:"omitempty,uuid4"`
	LastActiveAt string `json:"lastActiveAt,omitempty" validate:"omitempty,rfc3339"`
	TasksOpen    int    `json:"tasksOpen" validate:"min=0"`
	TasksDone    int    `json:"tasksDone" validate:"min=0"`
}

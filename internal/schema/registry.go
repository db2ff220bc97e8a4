// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package schema

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/kestrane/hivestore/internal/integrity"
	"github.com/kestrane/hivestore/internal/paths"
)

// RecordError is a single failed validation rule on a record field.
type RecordError struct {
	Field string
	Tag   string
	Param string
}

func (e *RecordError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("field %q failed rule %q (param %q)", e.Field, e.Tag, e.Param)
	}
	return fmt.Sprintf("field %q failed rule %q", e.Field, e.Tag)
}

// SchemaError aggregates every rule violation found on one record.
type SchemaError struct {
	Violations []RecordError
}

func (e *SchemaError) Error() string {
	if len(e.Violations) == 0 {
		return "record failed schema validation"
	}
	messages := make([]string, len(e.Violations))
	for i := range e.Violations {
		messages[i] = e.Violations[i].Error()
	}
	return strings.Join(messages, "; ")
}

// Registry holds a compiled validator instance. The validator caches
// struct rule info internally, so one Registry should be shared per
// store; Reset discards the cache and recompiles custom rules.
type Registry struct {
	mu       sync.RWMutex
	validate *validator.Validate
}

// NewRegistry builds a Registry with the platform's custom rules
// registered.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Reset rebuilds the compiled-rule cache from scratch.
func (r *Registry) Reset() {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Registration only fails for empty tag names or nil funcs.
	_ = v.RegisterValidation("agentid", func(fl validator.FieldLevel) bool {
		return paths.ValidateAgentID(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("taskid", func(fl validator.FieldLevel) bool {
		return paths.ValidateTaskID(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("rfc3339", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.RFC3339, fl.Field().String())
		return err == nil
	})

	r.mu.Lock()
	r.validate = v
	r.mu.Unlock()
}

// ValidateStruct checks one record against its declared rules,
// returning a *SchemaError listing every violation.
func (r *Registry) ValidateStruct(record any) error {
	r.mu.RLock()
	v := r.validate
	r.mu.RUnlock()

	err := v.Struct(record)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate record: %w", err)
	}

	se := &SchemaError{}
	for _, fe := range fieldErrs {
		se.Violations = append(se.Violations, RecordError{
			Field: fe.Field(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return se
}

// Validator adapts a record type into a content predicate: the
// returned function decodes raw bytes into a fresh instance from
// factory and validates it. Decode failures and rule violations both
// surface as errors, which the integrity layer records as the
// corruption reason.
func (r *Registry) Validator(factory func() any) integrity.Validator {
	return func(content []byte) error {
		record := factory()
		if err := json.Unmarshal(content, record); err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		return r.ValidateStruct(record)
	}
}

// AgentConfigValidator returns the content predicate for agent config
// records.
func (r *Registry) AgentConfigValidator() integrity.Validator {
	return r.Validator(func() any { return &AgentConfig{} })
}

// TaskRecordValidator returns the content predicate for task records.
func (r *Registry) TaskRecordValidator() integrity.Validator {
	return r.Validator(func() any { return &TaskRecord{} })
}

// AgentMetadataValidator returns the content predicate for agent
// metadata records.
func (r *Registry) AgentMetadataValidator() integrity.Validator {
	return r.Validator(func() any { return &AgentMetadata{} })
}

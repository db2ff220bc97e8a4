// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

// Package schema defines the platform's persisted record types and
// validates their content using go-playground/validator v10.
//
// The compiled-rule cache lives in an explicit Registry object rather
// than package-level singleton state, so embedders running several
// stores in one process get isolated validator instances and tests can
// rebuild the cache with Reset.
//
// Registry.Validator bridges struct validation into the content
// predicate form the integrity package consumes: a predicate decodes
// raw bytes into a fresh record instance and reports the first rule
// violation as an error.
package schema

// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

// Package config loads daemon configuration with koanf, layering three
// sources in increasing priority: built-in defaults, an optional YAML
// config file, and environment variables.
//
// The config file is searched at config.yaml, config.yml, and
// /etc/hivestore/, overridable with CONFIG_PATH. Environment variables
// map onto nested keys through an explicit table (HIVE_BASE_DIR ->
// store.base_dir, HTTP_PORT -> server.port), so adding a setting means
// adding one struct field, one default, and one table row.
package config

// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the complete daemon configuration.
type Config struct {
	Store   StoreConfig   `koanf:"store"`
	Disk    DiskConfig    `koanf:"disk"`
	Backup  BackupConfig  `koanf:"backup"`
	Reaper  ReaperConfig  `koanf:"reaper"`
	Lock    LockConfig    `koanf:"lock"`
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
}

// StoreConfig locates the record store on disk.
type StoreConfig struct {
	// BaseDir is the store root. Everything the daemon persists lives
	// under it.
	BaseDir string `koanf:"base_dir"`

	// DirMode is the permission mode asserted on managed directories,
	// in octal string form ("0755").
	DirMode string `koanf:"dir_mode"`
}

// DiskConfig sets the disk-space admission floors.
type DiskConfig struct {
	// MinFreeBytes is the absolute free-space floor. Zero means the
	// built-in default (100 MiB).
	MinFreeBytes uint64 `koanf:"min_free_bytes"`

	// MinFreePercent is the relative free-space floor. Zero means the
	// built-in default (5%).
	MinFreePercent float64 `koanf:"min_free_percent"`
}

// BackupConfig controls backup retention.
type BackupConfig struct {
	// MaxAge is how long backups are kept before the sweep deletes
	// them.
	MaxAge time.Duration `koanf:"max_age"`

	// SweepInterval is how often the retention sweep runs.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// ReaperConfig controls the orphan temp-file reaper.
type ReaperConfig struct {
	// GracePeriod is how old a temp file must be before it is
	// considered orphaned.
	GracePeriod time.Duration `koanf:"grace_period"`

	// Interval is how often the reaper runs after the startup pass.
	Interval time.Duration `koanf:"interval"`
}

// LockConfig controls the daemon's process lock.
type LockConfig struct {
	// ProcessName is the logical name locked at startup.
	ProcessName string `koanf:"process_name"`
}

// ServerConfig configures the admin/observability HTTP server.
type ServerConfig struct {
	// Enabled turns the admin server on. The store itself works
	// without it.
	Enabled bool `koanf:"enabled"`

	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimitReqs requests per RateLimitWindow per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig configures the zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`

	// File enables an additional rotating file sink when non-empty.
	File           string `koanf:"file"`
	FileMaxSizeMB  int    `koanf:"file_max_size_mb"`
	FileMaxBackups int    `koanf:"file_max_backups"`
	FileMaxAgeDays int    `koanf:"file_max_age_days"`
}

// defaultConfig returns the built-in defaults, applied before the
// config file and environment layers.
func defaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			BaseDir: "/data/hivestore",
			DirMode: "0755",
		},
		Disk: DiskConfig{
			MinFreeBytes:   0, // package default: 100 MiB
			MinFreePercent: 0, // package default: 5%
		},
		Backup: BackupConfig{
			MaxAge:        7 * 24 * time.Hour,
			SweepInterval: time.Hour,
		},
		Reaper: ReaperConfig{
			GracePeriod: time.Hour,
			Interval:    time.Hour,
		},
		Lock: LockConfig{
			ProcessName: "hivestored",
		},
		Server: ServerConfig{
			Enabled:         true,
			Host:            "127.0.0.1",
			Port:            7420,
			Timeout:         30 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "json",
			Caller:         false,
			FileMaxSizeMB:  100,
			FileMaxBackups: 3,
			FileMaxAgeDays: 28,
		},
	}
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Store.BaseDir == "" {
		return fmt.Errorf("store.base_dir is required")
	}
	if _, err := c.Store.Mode(); err != nil {
		return err
	}
	if c.Disk.MinFreePercent < 0 || c.Disk.MinFreePercent > 100 {
		return fmt.Errorf("disk.min_free_percent must be between 0 and 100, got %v", c.Disk.MinFreePercent)
	}
	if c.Backup.MaxAge < 0 {
		return fmt.Errorf("backup.max_age must not be negative")
	}
	if c.Backup.SweepInterval <= 0 {
		return fmt.Errorf("backup.sweep_interval must be positive")
	}
	if c.Reaper.GracePeriod <= 0 {
		return fmt.Errorf("reaper.grace_period must be positive")
	}
	if c.Reaper.Interval <= 0 {
		return fmt.Errorf("reaper.interval must be positive")
	}
	if c.Lock.ProcessName == "" {
		return fmt.Errorf("lock.process_name is required")
	}
	if c.Server.Enabled {
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
		}
		if c.Server.Timeout <= 0 {
			return fmt.Errorf("server.timeout must be positive")
		}
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// ListenAddr renders the admin server bind address.
func (c *ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Mode parses the octal directory mode string.
func (c *StoreConfig) Mode() (os.FileMode, error) {
	parsed, err := strconv.ParseUint(c.DirMode, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("store.dir_mode %q is not an octal mode: %w", c.DirMode, err)
	}
	return os.FileMode(parsed), nil
}

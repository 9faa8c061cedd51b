// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates Cambist configuration.
//
// Configuration is loaded via Koanf v2 with layered sources, highest
// priority last:
//  1. Built-in defaults
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables (BACKUP_DIR, SCHEDULER_TIMEZONE, ...)
package config

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the Cambist server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Backup    BackupConfig    `koanf:"backup"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" opens an in-memory store.
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	// Threads limits DuckDB worker threads; 0 means runtime.NumCPU().
	Threads int `koanf:"threads" validate:"min=0"`
}

// BackupConfig holds backup engine settings.
type BackupConfig struct {
	Enabled bool `koanf:"enabled"`

	// Dir is where snapshot files are written.
	Dir string `koanf:"dir" validate:"required_if=Enabled true"`

	// RetentionDays is the age window used by CleanupOldBackups.
	// Snapshots younger than this are never deleted.
	RetentionDays int `koanf:"retention_days" validate:"min=0"`

	// SchemaVersion is recorded in every snapshot document.
	SchemaVersion string `koanf:"schema_version"`
}

// SchedulerConfig holds automatic backup scheduler settings.
type SchedulerConfig struct {
	Enabled bool `koanf:"enabled"`

	// Timezone is the business-local zone trigger times are evaluated in.
	// Operators expect "run at 2 AM" to mean 2 AM at the counter, not UTC.
	Timezone string `koanf:"timezone" validate:"required"`

	// ReloadInterval is how often schedule rows are re-read from the store
	// and every trigger rebuilt, so edits take effect without a restart.
	ReloadInterval time.Duration `koanf:"reload_interval"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8480,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/cambist.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Backup: BackupConfig{
			Enabled:       true,
			Dir:           "/data/backups",
			RetentionDays: 30,
			SchemaVersion: "1",
		},
		Scheduler: SchedulerConfig{
			Enabled:        true,
			Timezone:       "Local",
			ReloadInterval: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

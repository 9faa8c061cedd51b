// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

// schemaStatements is executed in order at startup. All statements are
// idempotent so a restart against an existing file is a no-op.
//
// The audit_events table is owned by the audit package and created there.
var schemaStatements = []string{
	// Reference / master data. Restored by upsert, never deleted.
	`CREATE TABLE IF NOT EXISTS currencies (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		symbol TEXT,
		decimals INTEGER NOT NULL DEFAULT 2,
		active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		display_name TEXT,
		role TEXT NOT NULL DEFAULT 'operator',
		active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	// Operational data. Restored by delete+insert.
	`CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		document TEXT,
		phone TEXT,
		email TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS exchange_rates (
		id TEXT PRIMARY KEY,
		currency_code TEXT NOT NULL,
		buy_rate DECIMAL(18,6) NOT NULL,
		sell_rate DECIMAL(18,6) NOT NULL,
		valid_from TIMESTAMP NOT NULL,
		source TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		client_id TEXT,
		from_currency TEXT NOT NULL,
		to_currency TEXT NOT NULL,
		amount_in DECIMAL(18,4) NOT NULL,
		amount_out DECIMAL(18,4) NOT NULL,
		rate DECIMAL(18,6) NOT NULL,
		commission DECIMAL(18,4) NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'completed',
		operator TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_created ON transactions(created_at)`,

	// Backup engine tables. Never part of a snapshot.
	`CREATE TABLE IF NOT EXISTS backup_catalog (
		backup_id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		description TEXT,
		user_id TEXT,
		file_path TEXT NOT NULL,
		total_records BIGINT NOT NULL DEFAULT 0,
		file_size BIGINT NOT NULL DEFAULT 0,
		tables_included TEXT,
		created_at TIMESTAMP NOT NULL,
		status TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_backup_catalog_created ON backup_catalog(created_at)`,
	`CREATE SEQUENCE IF NOT EXISTS backup_schedules_seq START 1`,
	`CREATE TABLE IF NOT EXISTS backup_schedules (
		id BIGINT PRIMARY KEY DEFAULT nextval('backup_schedules_seq'),
		name TEXT NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT true,
		cadence_type TEXT NOT NULL,
		trigger_time TEXT NOT NULL,
		days_of_week TEXT,
		day_of_month INTEGER,
		retention_days INTEGER NOT NULL DEFAULT 30,
		max_snapshots INTEGER NOT NULL DEFAULT 0,
		last_run_at TIMESTAMP,
		last_run_status TEXT NOT NULL DEFAULT 'idle',
		next_run_at TIMESTAMP
	)`,
}

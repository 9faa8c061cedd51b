// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package models holds shared data types persisted in the backing store.
package models

import "time"

// CadenceType is the recurring schedule kind for automatic backups.
type CadenceType string

const (
	// CadenceDaily triggers every day at the configured time.
	CadenceDaily CadenceType = "daily"

	// CadenceWeekly triggers on the configured weekdays at the configured time.
	CadenceWeekly CadenceType = "weekly"

	// CadenceMonthly triggers on the configured day of month at the configured time.
	CadenceMonthly CadenceType = "monthly"
)

// RunStatus is the lifecycle state of a schedule's most recent run.
type RunStatus string

const (
	// RunStatusIdle means the schedule has never fired.
	RunStatusIdle RunStatus = "idle"

	// RunStatusScheduled means a trigger is armed and waiting.
	RunStatusScheduled RunStatus = "scheduled"

	// RunStatusRunning means a backup for this schedule is in flight.
	RunStatusRunning RunStatus = "running"

	// RunStatusSuccess means the last run completed successfully.
	RunStatusSuccess RunStatus = "success"

	// RunStatusError means the last run failed; future triggers are unaffected.
	RunStatusError RunStatus = "error"
)

// BackupSchedule is an operator-defined cadence configuration driving
// unattended snapshot creation. Rows live in the backup_schedules table.
type BackupSchedule struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`

	// CadenceType selects daily, weekly or monthly recurrence.
	CadenceType CadenceType `json:"cadence_type"`

	// TriggerTime is the time of day in "HH:MM" 24h format, evaluated in the
	// business-local time zone, not UTC.
	TriggerTime string `json:"trigger_time"`

	// DaysOfWeek selects weekdays for weekly cadences (0 = Sunday).
	DaysOfWeek []int `json:"days_of_week,omitempty"`

	// DayOfMonth selects the day for monthly cadences (1-31).
	DayOfMonth int `json:"day_of_month,omitempty"`

	// RetentionDays is the age window applied to this schedule's snapshots.
	RetentionDays int `json:"retention_days"`

	// MaxSnapshots caps how many of this schedule's snapshots are kept.
	// Zero means uncapped.
	MaxSnapshots int `json:"max_snapshots"`

	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	LastRunStatus RunStatus  `json:"last_run_status"`
	NextRunAt     *time.Time `json:"next_run_at,omitempty"`
}

// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/cambist/cambist/internal/models"
)

// ErrScheduleNotFound is returned when a schedule id has no row.
var ErrScheduleNotFound = errors.New("backup schedule not found")

// CreateSchedule inserts a new backup schedule and returns its id.
func (db *DB) CreateSchedule(ctx context.Context, s *models.BackupSchedule) (int64, error) {
	days, err := json.Marshal(s.DaysOfWeek)
	if err != nil {
		return 0, fmt.Errorf("failed to encode days_of_week: %w", err)
	}

	row := db.conn.QueryRowContext(ctx, `
		INSERT INTO backup_schedules
			(name, enabled, cadence_type, trigger_time, days_of_week,
			 day_of_month, retention_days, max_snapshots, last_run_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		s.Name, s.Enabled, string(s.CadenceType), s.TriggerTime, string(days),
		s.DayOfMonth, s.RetentionDays, s.MaxSnapshots, string(models.RunStatusIdle))

	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create schedule %q: %w", s.Name, err)
	}
	return id, nil
}

// ListEnabledSchedules returns all enabled schedule configurations.
func (db *DB) ListEnabledSchedules(ctx context.Context) ([]models.BackupSchedule, error) {
	return db.listSchedules(ctx, true)
}

// ListSchedules returns all schedule configurations regardless of state.
func (db *DB) ListSchedules(ctx context.Context) ([]models.BackupSchedule, error) {
	return db.listSchedules(ctx, false)
}

func (db *DB) listSchedules(ctx context.Context, enabledOnly bool) ([]models.BackupSchedule, error) {
	query := `
		SELECT id, name, enabled, cadence_type, trigger_time, days_of_week,
		       day_of_month, retention_days, max_snapshots,
		       last_run_at, last_run_status, next_run_at
		FROM backup_schedules`
	if enabledOnly {
		query += " WHERE enabled"
	}
	query += " ORDER BY id"

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []models.BackupSchedule
	for rows.Next() {
		var (
			s          models.BackupSchedule
			daysRaw    sql.NullString
			dayOfMonth sql.NullInt64
			lastRunAt  sql.NullTime
			nextRunAt  sql.NullTime
			cadence    string
			status     string
		)
		err := rows.Scan(&s.ID, &s.Name, &s.Enabled, &cadence, &s.TriggerTime,
			&daysRaw, &dayOfMonth, &s.RetentionDays, &s.MaxSnapshots,
			&lastRunAt, &status, &nextRunAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}

		s.CadenceType = models.CadenceType(cadence)
		s.LastRunStatus = models.RunStatus(status)
		if daysRaw.Valid && daysRaw.String != "" {
			if err := json.Unmarshal([]byte(daysRaw.String), &s.DaysOfWeek); err != nil {
				return nil, fmt.Errorf("failed to decode days_of_week for schedule %d: %w", s.ID, err)
			}
		}
		if dayOfMonth.Valid {
			s.DayOfMonth = int(dayOfMonth.Int64)
		}
		if lastRunAt.Valid {
			t := lastRunAt.Time
			s.LastRunAt = &t
		}
		if nextRunAt.Valid {
			t := nextRunAt.Time
			s.NextRunAt = &t
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedules: %w", err)
	}
	return schedules, nil
}

// MarkScheduleRunning records the start of a scheduled run.
func (db *DB) MarkScheduleRunning(ctx context.Context, id int64, startedAt time.Time) error {
	return db.updateScheduleRun(ctx, id,
		"UPDATE backup_schedules SET last_run_at = ?, last_run_status = ? WHERE id = ?",
		startedAt, string(models.RunStatusRunning), id)
}

// MarkScheduleResult records the outcome of a scheduled run along with the
// next trigger estimate.
func (db *DB) MarkScheduleResult(ctx context.Context, id int64, status models.RunStatus, nextRunAt *time.Time) error {
	return db.updateScheduleRun(ctx, id,
		"UPDATE backup_schedules SET last_run_status = ?, next_run_at = ? WHERE id = ?",
		string(status), nextRunAt, id)
}

// UpdateScheduleNextRun stores the next trigger time for a schedule.
func (db *DB) UpdateScheduleNextRun(ctx context.Context, id int64, nextRunAt time.Time) error {
	return db.updateScheduleRun(ctx, id,
		"UPDATE backup_schedules SET next_run_at = ?, last_run_status = CASE WHEN last_run_status = 'idle' THEN 'scheduled' ELSE last_run_status END WHERE id = ?",
		nextRunAt, id)
}

func (db *DB) updateScheduleRun(ctx context.Context, id int64, query string, args ...any) error {
	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update schedule %d: %w", id, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: %d", ErrScheduleNotFound, id)
	}
	return nil
}

// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DuckDBStore implements Store using DuckDB for persistent storage.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore creates a DuckDB-backed audit store. Call CreateTable
// during startup before saving events.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the audit_events table if it doesn't exist.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_events (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMP NOT NULL,
			component TEXT NOT NULL,
			action TEXT NOT NULL,
			actor TEXT NOT NULL,
			target TEXT,
			outcome TEXT NOT NULL,
			description TEXT NOT NULL,
			details TEXT
		)`)
	if err != nil {
		return fmt.Errorf("failed to create audit_events table: %w", err)
	}
	return nil
}

// Save appends one event.
func (s *DuckDBStore) Save(ctx context.Context, event *Event) error {
	var details any
	if event.Details != nil {
		encoded, err := json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("failed to encode audit details: %w", err)
		}
		details = string(encoded)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events
			(id, timestamp, component, action, actor, target, outcome, description, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Timestamp, event.Component, event.Action, event.Actor,
		event.Target, string(event.Outcome), event.Description, details)
	if err != nil {
		return fmt.Errorf("failed to save audit event: %w", err)
	}
	return nil
}

// Query retrieves events matching the filter, most recent first.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	var (
		conditions []string
		args       []any
	)
	addCondition := func(column, value string) {
		if value != "" {
			conditions = append(conditions, column+" = ?")
			args = append(args, value)
		}
	}
	addCondition("component", filter.Component)
	addCondition("action", filter.Action)
	addCondition("actor", filter.Actor)
	addCondition("target", filter.Target)
	if filter.Since != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, *filter.Since)
	}

	query := `
		SELECT id, timestamp, component, action, actor, target, outcome, description, details
		FROM audit_events`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event      Event
			target     sql.NullString
			detailsRaw sql.NullString
			outcome    string
			ts         time.Time
		)
		err := rows.Scan(&event.ID, &ts, &event.Component, &event.Action,
			&event.Actor, &target, &outcome, &event.Description, &detailsRaw)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		event.Timestamp = ts
		event.Outcome = Outcome(outcome)
		event.Target = target.String
		if detailsRaw.Valid && detailsRaw.String != "" {
			if err := json.Unmarshal([]byte(detailsRaw.String), &event.Details); err != nil {
				return nil, fmt.Errorf("failed to decode audit details: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit events: %w", err)
	}
	return events, nil
}

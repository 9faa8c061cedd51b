// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit provides append-only audit logging for operational events.
//
// The backup engine writes an audit entry for every snapshot creation,
// restore (with the full per-table result map), and retention cleanup.
// Events are persisted through a Store; the DuckDB store is used in
// production, the in-memory store in tests.
package audit

import "time"

// Outcome classifies how an audited action ended.
type Outcome string

const (
	// OutcomeSuccess means the action completed without failures.
	OutcomeSuccess Outcome = "success"

	// OutcomePartial means the action completed but some parts failed.
	OutcomePartial Outcome = "partial"

	// OutcomeFailure means the action failed outright.
	OutcomeFailure Outcome = "failure"
)

// Event is one audit log entry.
type Event struct {
	// ID is a unique event identifier.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Component identifies the subsystem that emitted the event.
	Component string `json:"component"`

	// Action names what happened (backup.create, backup.restore, ...).
	Action string `json:"action"`

	// Actor is who initiated the action (user id or "scheduler:<name>").
	Actor string `json:"actor"`

	// Target is the object acted on, typically a snapshot id.
	Target string `json:"target,omitempty"`

	// Outcome classifies the result.
	Outcome Outcome `json:"outcome"`

	// Description is a human-readable summary.
	Description string `json:"description"`

	// Details carries structured context, such as per-table restore results.
	Details map[string]any `json:"details,omitempty"`
}

// QueryFilter narrows audit event queries.
type QueryFilter struct {
	Component string
	Action    string
	Actor     string
	Target    string
	Since     *time.Time
	Limit     int
}

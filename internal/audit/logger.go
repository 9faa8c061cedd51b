// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cambist/cambist/internal/logging"
)

// Logger is the write-only audit surface handed to other subsystems.
// Recording never fails the caller: persistence errors are logged and
// swallowed, because an audit write must not abort the audited operation.
type Logger struct {
	store Store
	log   zerolog.Logger
}

// NewLogger creates an audit logger backed by the given store.
func NewLogger(store Store) *Logger {
	return &Logger{
		store: store,
		log:   logging.With().Str("component", "audit").Logger(),
	}
}

// Record appends one audit event.
func (l *Logger) Record(ctx context.Context, component, action, actor, target string, outcome Outcome, description string, details map[string]any) {
	event := &Event{
		ID:          uuid.New().String(),
		Timestamp:   time.Now(),
		Component:   component,
		Action:      action,
		Actor:       actor,
		Target:      target,
		Outcome:     outcome,
		Description: description,
		Details:     details,
	}

	if err := l.store.Save(ctx, event); err != nil {
		l.log.Error().Err(err).
			Str("action", action).
			Str("target", target).
			Msg("Failed to persist audit event")
	}
}

// Query exposes the underlying store's query for the status surfaces.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	return l.store.Query(ctx, filter)
}

// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"context"
	"sync"
)

// Store persists audit events.
type Store interface {
	// Save appends one event.
	Save(ctx context.Context, event *Event) error

	// Query retrieves events matching the filter, most recent first.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)
}

// MemoryStore implements Store in memory. Suitable for tests and
// development; data is lost on restart.
type MemoryStore struct {
	events []Event
	mu     sync.RWMutex
	maxLen int
}

// NewMemoryStore creates a new in-memory audit store.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{
		events: make([]Event, 0, maxLen),
		maxLen: maxLen,
	}
}

// Save appends an event, evicting the oldest 10% when full.
func (s *MemoryStore) Save(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.events) >= s.maxLen {
		s.events = s.events[s.maxLen/10:]
	}
	s.events = append(s.events, *event)
	return nil
}

// Query returns matching events, most recent first.
func (s *MemoryStore) Query(_ context.Context, filter QueryFilter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []Event
	for i := len(s.events) - 1; i >= 0; i-- {
		event := s.events[i]
		if !matchesFilter(&event, &filter) {
			continue
		}
		results = append(results, event)
		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
	}
	return results, nil
}

// matchesFilter returns true if the event matches all filter criteria.
func matchesFilter(event *Event, filter *QueryFilter) bool {
	if filter.Component != "" && event.Component != filter.Component {
		return false
	}
	if filter.Action != "" && event.Action != filter.Action {
		return false
	}
	if filter.Actor != "" && event.Actor != filter.Actor {
		return false
	}
	if filter.Target != "" && event.Target != filter.Target {
		return false
	}
	if filter.Since != nil && event.Timestamp.Before(*filter.Since) {
		return false
	}
	return true
}

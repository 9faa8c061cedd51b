// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cambist/cambist/internal/logging"
	"github.com/cambist/cambist/internal/metrics"
	"github.com/cambist/cambist/internal/models"
)

// RetentionManager prunes expired snapshots. Deletion goes through the
// SnapshotStore so file and catalog row always go together; one snapshot
// failing to delete never stops the sweep.
type RetentionManager struct {
	store  *SnapshotStore
	logger zerolog.Logger
}

// NewRetentionManager creates a RetentionManager over the given store.
func NewRetentionManager(store *SnapshotStore) *RetentionManager {
	return &RetentionManager{
		store:  store,
		logger: logging.With().Str("component", "backup-retention").Logger(),
	}
}

// Cleanup deletes every snapshot older than retentionDays, oldest first.
// Safety snapshots age out like any other type.
func (m *RetentionManager) Cleanup(ctx context.Context, retentionDays int) (*CleanupResult, error) {
	if retentionDays <= 0 {
		return nil, fmt.Errorf("%w: retention days must be positive, got %d", ErrValidation, retentionDays)
	}

	records, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	expired := filterExpired(records, cutoff, "", 0)
	return m.deleteAll(ctx, retentionDays, expired), nil
}

// CleanupFor enforces one schedule's retention policy: the age window
// plus, when maxSnapshots is positive, a count cap over the snapshots
// that schedule produced (matched by initiator). The cap keeps the
// newest maxSnapshots and expires the rest regardless of age.
func (m *RetentionManager) CleanupFor(ctx context.Context, initiator string, retentionDays, maxSnapshots int) (*CleanupResult, error) {
	if retentionDays <= 0 {
		return nil, fmt.Errorf("%w: retention days must be positive, got %d", ErrValidation, retentionDays)
	}

	records, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	expired := filterExpired(records, cutoff, initiator, maxSnapshots)
	return m.deleteAll(ctx, retentionDays, expired), nil
}

func (m *RetentionManager) deleteAll(ctx context.Context, retentionDays int, expired []models.CatalogRecord) *CleanupResult {
	result := &CleanupResult{
		RetentionDays: retentionDays,
		Deleted:       []string{},
	}

	for _, record := range expired {
		if err := m.store.Delete(ctx, record.BackupID); err != nil {
			if result.Failed == nil {
				result.Failed = make(map[string]string)
			}
			result.Failed[record.BackupID] = err.Error()
			m.logger.Error().Err(err).Str("backup_id", record.BackupID).Msg("Retention delete failed")
			continue
		}
		result.Deleted = append(result.Deleted, record.BackupID)
		metrics.RetentionDeletionsTotal.Inc()
	}

	if len(result.Deleted) > 0 || len(result.Failed) > 0 {
		m.logger.Info().
			Int("deleted", len(result.Deleted)).
			Int("failed", len(result.Failed)).
			Int("retention_days", retentionDays).
			Msg("Retention sweep finished")
	}
	return result
}

// filterExpired selects deletion candidates, oldest first. With an
// initiator the count cap applies to that initiator's snapshots; the
// age window still applies to them as well.
func filterExpired(records []models.CatalogRecord, cutoff time.Time, initiator string, maxSnapshots int) []models.CatalogRecord {
	var mine []models.CatalogRecord
	var expired []models.CatalogRecord

	// List returns newest first; walk backwards for oldest-first order.
	for i := len(records) - 1; i >= 0; i-- {
		record := records[i]
		if initiator != "" {
			if record.UserID != initiator {
				continue
			}
			mine = append(mine, record)
		}
		if record.CreatedAt.Before(cutoff) {
			expired = append(expired, record)
		}
	}

	if initiator == "" || maxSnapshots <= 0 {
		return expired
	}

	over := len(mine) - maxSnapshots
	seen := make(map[string]bool, len(expired))
	for _, record := range expired {
		seen[record.BackupID] = true
	}
	// mine is oldest first; expire the overflow not already aged out.
	for _, record := range mine {
		if over <= 0 {
			break
		}
		over--
		if !seen[record.BackupID] {
			expired = append(expired, record)
		}
	}
	return expired
}

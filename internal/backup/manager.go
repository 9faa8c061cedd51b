// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backup

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cambist/cambist/internal/audit"
	"github.com/cambist/cambist/internal/config"
	"github.com/cambist/cambist/internal/logging"
	"github.com/cambist/cambist/internal/models"
)

// Manager is the backup subsystem facade. The API layer and the scheduler
// talk to it exclusively; the components behind it are wired once here.
type Manager struct {
	cfg       config.BackupConfig
	store     *SnapshotStore
	builder   *SnapshotBuilder
	restore   *RestoreEngine
	verifier  *Verifier
	retention *RetentionManager
	audit     AuditSink
	logger    zerolog.Logger
}

// NewManager wires the backup components against the given table store,
// catalog and audit sink.
func NewManager(cfg config.BackupConfig, tables TableStore, catalog Catalog, sink AuditSink) *Manager {
	store := NewSnapshotStore(cfg.Dir, catalog)
	exporter := NewTableExporter(tables)
	builder := NewSnapshotBuilder(exporter, store, cfg.SchemaVersion)

	return &Manager{
		cfg:       cfg,
		store:     store,
		builder:   builder,
		restore:   NewRestoreEngine(tables, store, builder, sink),
		verifier:  NewVerifier(store),
		retention: NewRetentionManager(store),
		audit:     sink,
		logger:    logging.With().Str("component", "backup-manager").Logger(),
	}
}

// CreateBackup creates a snapshot of the given type.
func (m *Manager) CreateBackup(ctx context.Context, typ Type, description, userID string) (*CreateResult, error) {
	if !m.cfg.Enabled {
		return nil, ErrDisabled
	}
	if !ValidType(typ) {
		return nil, fmt.Errorf("%w: unknown backup type %q", ErrValidation, typ)
	}

	result, err := m.builder.Create(ctx, typ, description, userID)
	if err != nil {
		m.audit.Record(ctx, "backup", "create", userID, "", audit.OutcomeFailure,
			"backup creation failed", map[string]any{"type": string(typ), "error": err.Error()})
		return nil, err
	}

	m.audit.Record(ctx, "backup", "create", userID, result.SnapshotID, audit.OutcomeSuccess,
		"backup created", map[string]any{
			"type":          string(typ),
			"total_records": result.Metadata.TotalRecords,
			"file_size":     result.Metadata.TotalSize,
		})
	return result, nil
}

// ListBackups returns all catalog records, newest first.
func (m *Manager) ListBackups(ctx context.Context) ([]models.CatalogRecord, error) {
	return m.store.List(ctx)
}

// GetBackup returns one catalog record, or ErrNotFound.
func (m *Manager) GetBackup(ctx context.Context, backupID string) (*models.CatalogRecord, error) {
	record, err := m.store.catalog.GetCatalogRecord(ctx, backupID)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup %s: %v", ErrCatalog, backupID, err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, backupID)
	}
	return record, nil
}

// DeleteBackup removes a snapshot's catalog record and file.
func (m *Manager) DeleteBackup(ctx context.Context, backupID, userID string) error {
	if err := m.store.Delete(ctx, backupID); err != nil {
		return err
	}
	m.audit.Record(ctx, "backup", "delete", userID, backupID, audit.OutcomeSuccess,
		"backup deleted", nil)
	return nil
}

// RestoreBackup applies a snapshot onto the operational tables.
func (m *Manager) RestoreBackup(ctx context.Context, backupID, userID string) (*RestoreResult, error) {
	if !m.cfg.Enabled {
		return nil, ErrDisabled
	}
	return m.restore.Restore(ctx, backupID, userID)
}

// VerifyBackup runs the structural integrity checks for a snapshot.
func (m *Manager) VerifyBackup(ctx context.Context, backupID string) (*VerifyResult, error) {
	return m.verifier.Verify(ctx, backupID)
}

// CleanupOldBackups deletes snapshots older than the configured retention
// window. A zero retentionDays falls back to the configured default.
func (m *Manager) CleanupOldBackups(ctx context.Context, retentionDays int, userID string) (*CleanupResult, error) {
	if retentionDays <= 0 {
		retentionDays = m.cfg.RetentionDays
	}

	result, err := m.retention.Cleanup(ctx, retentionDays)
	if err != nil {
		return nil, err
	}

	outcome := audit.OutcomeSuccess
	if len(result.Failed) > 0 {
		outcome = audit.OutcomePartial
	}
	m.audit.Record(ctx, "backup", "cleanup", userID, "", outcome,
		fmt.Sprintf("retention sweep deleted %d snapshots", len(result.Deleted)),
		map[string]any{"retention_days": retentionDays, "deleted": len(result.Deleted), "failed": len(result.Failed)})
	return result, nil
}

// ApplyScheduleRetention enforces one schedule's retention policy after a
// scheduled run: the age window plus its snapshot count cap.
func (m *Manager) ApplyScheduleRetention(ctx context.Context, initiator string, retentionDays, maxSnapshots int) (*CleanupResult, error) {
	if retentionDays <= 0 {
		retentionDays = m.cfg.RetentionDays
	}
	return m.retention.CleanupFor(ctx, initiator, retentionDays, maxSnapshots)
}

// Stats summarizes the catalog.
func (m *Manager) Stats(ctx context.Context) (*Stats, error) {
	records, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalCount: len(records)}
	for i := range records {
		record := &records[i]
		stats.TotalSizeBytes += record.FileSize
		if stats.OldestCreated == nil || record.CreatedAt.Before(*stats.OldestCreated) {
			t := record.CreatedAt
			stats.OldestCreated = &t
		}
		if stats.NewestCreated == nil || record.CreatedAt.After(*stats.NewestCreated) {
			t := record.CreatedAt
			stats.NewestCreated = &t
		}
	}
	return stats, nil
}

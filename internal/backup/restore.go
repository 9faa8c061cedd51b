// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cambist/cambist/internal/audit"
	"github.com/cambist/cambist/internal/logging"
	"github.com/cambist/cambist/internal/metrics"
	"github.com/cambist/cambist/internal/models"
)

// RestoreEngine applies snapshot documents back onto the operational
// tables. Every restore is preceded by a mandatory safety snapshot of the
// current state; if that snapshot cannot be taken the restore aborts
// before touching any data.
type RestoreEngine struct {
	tables  TableStore
	store   *SnapshotStore
	builder *SnapshotBuilder
	audit   AuditSink
	logger  zerolog.Logger
}

// NewRestoreEngine creates a RestoreEngine.
func NewRestoreEngine(tables TableStore, store *SnapshotStore, builder *SnapshotBuilder, sink AuditSink) *RestoreEngine {
	return &RestoreEngine{
		tables:  tables,
		store:   store,
		builder: builder,
		audit:   sink,
		logger:  logging.With().Str("component", "backup-restore").Logger(),
	}
}

// Restore applies the identified snapshot. Tables are processed in the
// fixed core order; protected tables are upserted by primary key while
// standard tables are replaced wholesale. One table's failure never
// aborts the others, and a dump that recorded an export error is skipped
// so a broken export cannot wipe live data. The outcome lists every
// table individually.
func (r *RestoreEngine) Restore(ctx context.Context, backupID, userID string) (*RestoreResult, error) {
	start := time.Now()

	snapshot, _, err := r.store.Load(ctx, backupID)
	if err != nil {
		return nil, err
	}
	if err := snapshot.Normalize(); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", backupID, err)
	}

	safetyDesc := fmt.Sprintf("Safety snapshot before restoring %s", backupID)
	safety, err := r.builder.Create(ctx, TypePreRestore, safetyDesc, userID)
	if err != nil {
		r.audit.Record(ctx, "backup", "restore", userID, backupID, audit.OutcomeFailure,
			"restore aborted: safety snapshot failed", map[string]any{"error": err.Error()})
		return nil, fmt.Errorf("safety snapshot failed, restore aborted: %w", err)
	}

	result := &RestoreResult{
		SnapshotID:       backupID,
		SafetySnapshotID: safety.SnapshotID,
		Tables:           make(map[string]TableRestoreResult, len(coreTables)),
	}

	for _, table := range coreTables {
		outcome := r.restoreTable(ctx, table, snapshot.Tables[table.Name])
		result.Tables[table.Name] = outcome
		if outcome.Success {
			result.TablesRestored++
			metrics.RestoreTablesTotal.WithLabelValues("success").Inc()
		} else {
			result.TablesFailed++
			metrics.RestoreTablesTotal.WithLabelValues("error").Inc()
			r.logger.Error().
				Str("backup_id", backupID).
				Str("table", table.Name).
				Str("error", outcome.Error).
				Msg("Table restore failed")
		}
	}

	// Tables in the document that are not on the core list have no
	// reconciliation strategy and are never applied; report them so the
	// caller sees the snapshot carried data the restore did not touch.
	for name := range snapshot.Tables {
		if _, ok := result.Tables[name]; ok {
			continue
		}
		result.Tables[name] = TableRestoreResult{Error: "table not registered"}
		result.TablesFailed++
		metrics.RestoreTablesTotal.WithLabelValues("error").Inc()
		r.logger.Warn().
			Str("backup_id", backupID).
			Str("table", name).
			Msg("Snapshot contains unregistered table, not restored")
	}

	result.Success = result.TablesFailed == 0
	result.Duration = time.Since(start)
	if result.Success {
		result.Message = fmt.Sprintf("restored %d tables", result.TablesRestored)
	} else {
		result.Message = fmt.Sprintf("restored %d tables, %d failed", result.TablesRestored, result.TablesFailed)
	}

	if err := r.store.catalog.UpdateCatalogStatus(ctx, backupID, models.CatalogStatusRestored); err != nil {
		r.logger.Error().Err(err).Str("backup_id", backupID).Msg("Failed to mark catalog record restored")
	}

	outcome := auditOutcome(result)
	details := map[string]any{
		"safety_snapshot_id": safety.SnapshotID,
		"tables_restored":    result.TablesRestored,
		"tables_failed":      result.TablesFailed,
	}
	for name, t := range result.Tables {
		if !t.Success {
			details["failed_"+name] = t.Error
		}
	}
	r.audit.Record(ctx, "backup", "restore", userID, backupID, outcome, result.Message, details)

	r.logger.Info().
		Str("backup_id", backupID).
		Str("safety_snapshot_id", safety.SnapshotID).
		Int("tables_restored", result.TablesRestored).
		Int("tables_failed", result.TablesFailed).
		Dur("duration", result.Duration).
		Msg("Restore finished")

	return result, nil
}

// restoreTable reconciles a single core table from its dump.
func (r *RestoreEngine) restoreTable(ctx context.Context, table CoreTable, dump *TableDump) TableRestoreResult {
	if dump == nil {
		return TableRestoreResult{Error: "table missing from snapshot"}
	}
	if dump.Error != "" {
		return TableRestoreResult{Error: "snapshot export failed for this table: " + dump.Error}
	}

	var rows int64
	var err error
	switch table.Kind {
	case KindProtected:
		rows, err = r.tables.UpsertRows(ctx, table.Name, dump.Data)
	default:
		rows, err = r.tables.ReplaceRows(ctx, table.Name, dump.Data)
	}
	if err != nil {
		return TableRestoreResult{Error: err.Error()}
	}
	return TableRestoreResult{Success: true, RowsRestored: rows}
}

func auditOutcome(result *RestoreResult) audit.Outcome {
	switch {
	case result.TablesFailed == 0:
		return audit.OutcomeSuccess
	case result.TablesRestored > 0:
		return audit.OutcomePartial
	default:
		return audit.OutcomeFailure
	}
}

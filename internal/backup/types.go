// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/cambist/cambist/internal/audit"
	"github.com/cambist/cambist/internal/models"
)

// Row is one exported table row.
type Row = map[string]any

// Type classifies what produced a snapshot.
type Type string

const (
	// TypeManual marks a snapshot created by an operator request.
	TypeManual Type = "manual"

	// TypeAutomatic marks a snapshot created by the scheduler.
	TypeAutomatic Type = "automatic"

	// TypePreRestore marks the safety snapshot taken before every restore.
	TypePreRestore Type = "pre-restore-safety"
)

// ValidType reports whether t is a known snapshot type.
func ValidType(t Type) bool {
	switch t {
	case TypeManual, TypeAutomatic, TypePreRestore:
		return true
	default:
		return false
	}
}

// TableDump holds one table's exported rows inside a snapshot document.
type TableDump struct {
	Data  []Row `json:"data"`
	Count int   `json:"count"`

	ExportedAt time.Time `json:"exported_at"`

	// Error records an export failure. The dump is then empty and the
	// table is skipped on restore rather than wiped.
	Error string `json:"error,omitempty"`
}

// Metadata summarizes a snapshot document. TotalSize is the compact
// JSON encoding of the document; the indented file on disk is larger,
// and its true size lives in the catalog record.
type Metadata struct {
	TotalRecords    int64 `json:"totalRecords"`
	TotalSize       int64 `json:"totalSize"`
	CompressionUsed bool  `json:"compressionUsed"`
}

// Snapshot is the serialized snapshot document. Immutable once persisted.
type Snapshot struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Type        Type      `json:"type"`
	Description string    `json:"description"`
	UserID      string    `json:"userId"`
	Version     string    `json:"version"`

	Tables map[string]*TableDump `json:"tables,omitempty"`

	// Data is the alternate shape used by externally produced snapshots:
	// table row arrays nested directly under a top-level data key.
	// Normalize folds it into Tables before any restore or verify.
	Data map[string][]Row `json:"data,omitempty"`

	Metadata Metadata `json:"metadata"`
}

// Normalize folds the alternate document shape into the canonical Tables
// map. It fails when the document carries no table data in either shape.
func (s *Snapshot) Normalize() error {
	if len(s.Tables) > 0 {
		return nil
	}
	if len(s.Data) == 0 {
		return fmt.Errorf("%w: snapshot contains no table data", ErrValidation)
	}

	s.Tables = make(map[string]*TableDump, len(s.Data))
	for name, rows := range s.Data {
		s.Tables[name] = &TableDump{
			Data:       rows,
			Count:      len(rows),
			ExportedAt: s.Timestamp,
		}
	}
	s.Data = nil
	return nil
}

// CreateResult is the outcome of a snapshot creation.
type CreateResult struct {
	Success    bool      `json:"success"`
	SnapshotID string    `json:"snapshot_id,omitempty"`
	FilePath   string    `json:"file_path,omitempty"`
	Metadata   Metadata  `json:"metadata"`
	Timestamp  time.Time `json:"timestamp"`
	Message    string    `json:"message,omitempty"`
}

// TableRestoreResult is one table's outcome within a restore.
type TableRestoreResult struct {
	Success      bool   `json:"success"`
	RowsRestored int64  `json:"rows_restored"`
	Error        string `json:"error,omitempty"`
}

// RestoreResult is the outcome of a restore. Success means every table
// reconciled; callers must still inspect Tables, because partial success
// is an expected outcome, not an abort.
type RestoreResult struct {
	Success          bool                          `json:"success"`
	SnapshotID       string                        `json:"snapshot_id"`
	SafetySnapshotID string                        `json:"safety_snapshot_id,omitempty"`
	Tables           map[string]TableRestoreResult `json:"tables"`
	TablesRestored   int                           `json:"tables_restored"`
	TablesFailed     int                           `json:"tables_failed"`
	Message          string                        `json:"message,omitempty"`
	Duration         time.Duration                 `json:"duration_ms"`
}

// VerifyResult is the outcome of a structural snapshot check.
type VerifyResult struct {
	Valid        bool     `json:"valid"`
	SnapshotID   string   `json:"snapshot_id"`
	Reason       string   `json:"reason,omitempty"`
	Tables       []string `json:"tables,omitempty"`
	TotalRecords int64    `json:"total_records"`
	FileSize     int64    `json:"file_size"`
}

// CleanupResult is the outcome of a retention pass.
type CleanupResult struct {
	RetentionDays int               `json:"retention_days"`
	Deleted       []string          `json:"deleted"`
	Failed        map[string]string `json:"failed,omitempty"`
}

// Stats summarizes the catalog for the status surface.
type Stats struct {
	TotalCount     int        `json:"total_count"`
	TotalSizeBytes int64      `json:"total_size_bytes"`
	OldestCreated  *time.Time `json:"oldest_created,omitempty"`
	NewestCreated  *time.Time `json:"newest_created,omitempty"`
}

// TableStore is the relational surface the engine reads and reconciles.
// Implemented by the database package.
type TableStore interface {
	// ExportRows returns all rows of a table ordered by primary key.
	ExportRows(ctx context.Context, table string) ([]Row, error)

	// CountRows returns a table's current row count.
	CountRows(ctx context.Context, table string) (int64, error)

	// ReplaceRows deletes all rows and inserts the given ones in order.
	ReplaceRows(ctx context.Context, table string, rows []Row) (int64, error)

	// UpsertRows applies every row as a primary-key insert-or-update.
	UpsertRows(ctx context.Context, table string, rows []Row) (int64, error)
}

// Catalog is the durable snapshot index. Implemented by the database
// package. GetRecord returns (nil, nil) when the id is unknown.
type Catalog interface {
	InsertCatalogRecord(ctx context.Context, record *models.CatalogRecord) error
	GetCatalogRecord(ctx context.Context, backupID string) (*models.CatalogRecord, error)
	ListCatalogRecords(ctx context.Context) ([]models.CatalogRecord, error)
	DeleteCatalogRecord(ctx context.Context, backupID string) error
	UpdateCatalogStatus(ctx context.Context, backupID string, status models.CatalogStatus) error
}

// AuditSink is the write-only audit surface the engine records to.
// Satisfied by *audit.Logger.
type AuditSink interface {
	Record(ctx context.Context, component, action, actor, target string, outcome audit.Outcome, description string, details map[string]any)
}

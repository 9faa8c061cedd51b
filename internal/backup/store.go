// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cambist/cambist/internal/logging"
	"github.com/cambist/cambist/internal/models"
)

// snapshotFileMode keeps snapshot files readable by the service user only;
// dumps contain full user and client records.
const snapshotFileMode = 0o600

// SnapshotStore persists snapshot documents to the backup directory and
// keeps the catalog consistent with the files on disk. A snapshot exists
// iff both its file and its catalog record exist; Save and Delete maintain
// that pairing with compensating actions.
type SnapshotStore struct {
	dir     string
	catalog Catalog
	logger  zerolog.Logger
}

// NewSnapshotStore creates a SnapshotStore rooted at dir.
func NewSnapshotStore(dir string, catalog Catalog) *SnapshotStore {
	return &SnapshotStore{
		dir:     dir,
		catalog: catalog,
		logger:  logging.With().Str("component", "backup-store").Logger(),
	}
}

// Dir returns the backup directory.
func (s *SnapshotStore) Dir() string {
	return s.dir
}

// EnsureDir creates the backup directory if it does not exist.
func (s *SnapshotStore) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("%w: create backup directory %s: %v", ErrStorage, s.dir, err)
	}
	return nil
}

// FilePath returns the snapshot file path for a backup id.
func (s *SnapshotStore) FilePath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes the snapshot document and inserts its catalog record.
// metadata.totalSize carries the compact encoding of the document; the
// on-disk size of the indented file goes to the catalog record instead.
// When the catalog insert fails the file is removed again; an
// unreferenced file must not outlive a failed registration.
func (s *SnapshotStore) Save(ctx context.Context, snapshot *Snapshot) (*models.CatalogRecord, error) {
	sizing, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal snapshot %s: %v", ErrStorage, snapshot.ID, err)
	}
	snapshot.Metadata.TotalSize = int64(len(sizing))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: marshal snapshot %s: %v", ErrStorage, snapshot.ID, err)
	}

	path := s.FilePath(snapshot.ID)
	if err := os.WriteFile(path, data, snapshotFileMode); err != nil {
		return nil, fmt.Errorf("%w: write snapshot file %s: %v", ErrStorage, path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		s.removeFile(path)
		return nil, fmt.Errorf("%w: stat snapshot file %s: %v", ErrStorage, path, err)
	}

	record := &models.CatalogRecord{
		BackupID:       snapshot.ID,
		Type:           string(snapshot.Type),
		Description:    snapshot.Description,
		UserID:         snapshot.UserID,
		FilePath:       path,
		TotalRecords:   snapshot.Metadata.TotalRecords,
		FileSize:       info.Size(),
		TablesIncluded: tableNames(snapshot),
		CreatedAt:      snapshot.Timestamp,
		Status:         models.CatalogStatusCompleted,
	}

	if err := s.catalog.InsertCatalogRecord(ctx, record); err != nil {
		s.removeFile(path)
		return nil, fmt.Errorf("%w: register snapshot %s: %v", ErrCatalog, snapshot.ID, err)
	}

	return record, nil
}

// ReadSnapshot loads and parses a snapshot document from path.
func (s *SnapshotStore) ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: snapshot file missing: %s", ErrStorage, path)
		}
		return nil, fmt.Errorf("%w: read snapshot file %s: %v", ErrStorage, path, err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: parse snapshot file %s: %v", ErrValidation, path, err)
	}
	return &snapshot, nil
}

// Load resolves a backup id through the catalog and reads its document.
func (s *SnapshotStore) Load(ctx context.Context, backupID string) (*Snapshot, *models.CatalogRecord, error) {
	record, err := s.catalog.GetCatalogRecord(ctx, backupID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: lookup %s: %v", ErrCatalog, backupID, err)
	}
	if record == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, backupID)
	}

	snapshot, err := s.ReadSnapshot(record.FilePath)
	if err != nil {
		return nil, record, err
	}
	return snapshot, record, nil
}

// List returns all catalog records, newest first.
func (s *SnapshotStore) List(ctx context.Context) ([]models.CatalogRecord, error) {
	records, err := s.catalog.ListCatalogRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list snapshots: %v", ErrCatalog, err)
	}
	return records, nil
}

// Delete removes a snapshot's catalog record, then its file. The row goes
// first: an orphaned file is harmless clutter, while a catalog row whose
// file is gone breaks restore and verify. A missing file is not an error.
func (s *SnapshotStore) Delete(ctx context.Context, backupID string) error {
	record, err := s.catalog.GetCatalogRecord(ctx, backupID)
	if err != nil {
		return fmt.Errorf("%w: lookup %s: %v", ErrCatalog, backupID, err)
	}
	if record == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, backupID)
	}

	if err := s.catalog.DeleteCatalogRecord(ctx, backupID); err != nil {
		return fmt.Errorf("%w: delete record %s: %v", ErrCatalog, backupID, err)
	}

	if err := os.Remove(record.FilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: delete snapshot file %s: %v", ErrStorage, record.FilePath, err)
	}
	return nil
}

func (s *SnapshotStore) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Error().Err(err).Str("path", path).Msg("Failed to remove orphaned snapshot file")
	}
}

// tableNames lists the snapshot's tables in core order, then any extras.
func tableNames(snapshot *Snapshot) []string {
	names := make([]string, 0, len(snapshot.Tables))
	seen := make(map[string]bool, len(snapshot.Tables))
	for _, core := range coreTables {
		if _, ok := snapshot.Tables[core.Name]; ok {
			names = append(names, core.Name)
			seen[core.Name] = true
		}
	}
	for name := range snapshot.Tables {
		if !seen[name] {
			names = append(names, name)
		}
	}
	return names
}

// newSnapshotID builds a time-sortable snapshot id with a random suffix.
func newSnapshotID(now time.Time, suffix string) string {
	return "backup-" + now.UTC().Format("20060102-150405") + "-" + suffix
}

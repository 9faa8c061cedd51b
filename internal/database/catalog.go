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

// ErrCatalogRecordNotFound is returned when a backup id has no catalog row.
var ErrCatalogRecordNotFound = errors.New("catalog record not found")

// InsertCatalogRecord inserts a new backup_catalog row.
func (db *DB) InsertCatalogRecord(ctx context.Context, record *models.CatalogRecord) error {
	tables, err := json.Marshal(record.TablesIncluded)
	if err != nil {
		return fmt.Errorf("failed to encode tables_included: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO backup_catalog
			(backup_id, type, description, user_id, file_path,
			 total_records, file_size, tables_included, created_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.BackupID, record.Type, record.Description, record.UserID,
		record.FilePath, record.TotalRecords, record.FileSize,
		string(tables), record.CreatedAt, string(record.Status))
	if err != nil {
		return fmt.Errorf("failed to insert catalog record %s: %w", record.BackupID, err)
	}
	return nil
}

// GetCatalogRecord looks up one catalog row by backup id. Returns
// (nil, nil) when the id is unknown.
func (db *DB) GetCatalogRecord(ctx context.Context, backupID string) (*models.CatalogRecord, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT backup_id, type, description, user_id, file_path,
		       total_records, file_size, tables_included, created_at, status
		FROM backup_catalog WHERE backup_id = ?`, backupID)

	record, err := scanCatalogRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog record %s: %w", backupID, err)
	}
	return record, nil
}

// ListCatalogRecords returns all catalog rows, newest first.
func (db *DB) ListCatalogRecords(ctx context.Context) ([]models.CatalogRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT backup_id, type, description, user_id, file_path,
		       total_records, file_size, tables_included, created_at, status
		FROM backup_catalog ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog records: %w", err)
	}
	defer rows.Close()

	var records []models.CatalogRecord
	for rows.Next() {
		record, err := scanCatalogRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog record: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog records: %w", err)
	}
	return records, nil
}

// DeleteCatalogRecord removes one catalog row.
func (db *DB) DeleteCatalogRecord(ctx context.Context, backupID string) error {
	result, err := db.conn.ExecContext(ctx,
		"DELETE FROM backup_catalog WHERE backup_id = ?", backupID)
	if err != nil {
		return fmt.Errorf("failed to delete catalog record %s: %w", backupID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: %s", ErrCatalogRecordNotFound, backupID)
	}
	return nil
}

// UpdateCatalogStatus changes the status column of one catalog row.
func (db *DB) UpdateCatalogStatus(ctx context.Context, backupID string, status models.CatalogStatus) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE backup_catalog SET status = ? WHERE backup_id = ?", string(status), backupID)
	if err != nil {
		return fmt.Errorf("failed to update catalog status for %s: %w", backupID, err)
	}
	return nil
}

// scanCatalogRecord reads one catalog row from a Scan-compatible source.
func scanCatalogRecord(scan func(...any) error) (*models.CatalogRecord, error) {
	var (
		record    models.CatalogRecord
		tablesRaw sql.NullString
		status    string
		createdAt time.Time
	)
	err := scan(&record.BackupID, &record.Type, &record.Description,
		&record.UserID, &record.FilePath, &record.TotalRecords,
		&record.FileSize, &tablesRaw, &createdAt, &status)
	if err != nil {
		return nil, err
	}

	record.CreatedAt = createdAt
	record.Status = models.CatalogStatus(status)
	if tablesRaw.Valid && tablesRaw.String != "" {
		if err := json.Unmarshal([]byte(tablesRaw.String), &record.TablesIncluded); err != nil {
			return nil, fmt.Errorf("failed to decode tables_included: %w", err)
		}
	}
	return &record, nil
}

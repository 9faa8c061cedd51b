// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import "time"

// CatalogStatus is the state recorded on a backup_catalog row.
type CatalogStatus string

const (
	// CatalogStatusCompleted marks a snapshot whose file was fully written.
	CatalogStatusCompleted CatalogStatus = "completed"

	// CatalogStatusRestored marks a snapshot that has been restored at least once.
	CatalogStatusRestored CatalogStatus = "restored"
)

// CatalogRecord is the durable index entry describing one snapshot without
// holding its row data. A record exists iff the snapshot file exists; the
// verifier reports violations of that pairing, nothing auto-repairs them.
type CatalogRecord struct {
	BackupID       string        `json:"backup_id"`
	Type           string        `json:"type"`
	Description    string        `json:"description"`
	UserID         string        `json:"user_id"`
	FilePath       string        `json:"file_path"`
	TotalRecords   int64         `json:"total_records"`
	FileSize       int64         `json:"file_size"`
	TablesIncluded []string      `json:"tables_included"`
	CreatedAt      time.Time     `json:"created_at"`
	Status         CatalogStatus `json:"status"`
}

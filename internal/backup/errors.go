// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backup

import "errors"

// Sentinel errors for the backup subsystem. Callers match with errors.Is;
// wrapping preserves the operational detail alongside the category.
var (
	// ErrValidation indicates a malformed request or snapshot document.
	ErrValidation = errors.New("backup validation failed")

	// ErrStorage indicates a filesystem-level failure writing, reading or
	// deleting a snapshot file.
	ErrStorage = errors.New("backup storage failed")

	// ErrCatalog indicates a catalog database failure.
	ErrCatalog = errors.New("backup catalog failed")

	// ErrNotFound indicates the requested backup id has no catalog record.
	ErrNotFound = errors.New("backup not found")

	// ErrDisabled indicates the backup subsystem is switched off in config.
	ErrDisabled = errors.New("backups are disabled")
)

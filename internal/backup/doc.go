// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backup implements the automated backup/restore engine for the
// Cambist operational dataset.
//
// A snapshot is a point-in-time export of every core table, persisted as
// one JSON document plus one catalog row in the backing store. The two
// exist together or not at all: creation is atomic at the file/catalog
// pair level, with a compensating file delete when the catalog insert
// fails.
//
// Components, leaves first:
//
//   - TableExporter: reads all rows of one table in primary-key order.
//     Never fails the snapshot; a bad table is recorded and skipped.
//   - SnapshotBuilder: orchestrates sequential per-table export into one
//     snapshot document and its catalog entry.
//   - SnapshotStore: the durable file/catalog pairing with lookup,
//     listing and deletion.
//   - RestoreEngine: takes a fresh safety snapshot, then reconciles every
//     core table. Protected tables are upserted by primary key so rows
//     created after the snapshot survive; standard tables are replaced
//     wholesale. One table's failure never stops the others.
//   - RetentionManager: deletes snapshots older than the retention window,
//     oldest first.
//   - Verifier: structural checks of a snapshot without mutating anything.
//
// The Manager facade wires these together and is the only type callers
// outside this package need:
//
//	mgr := backup.NewManager(cfg, db, db, auditLog)
//	result, err := mgr.CreateBackup(ctx, backup.TypeManual, "before rate import", "admin")
//	restore, err := mgr.RestoreBackup(ctx, result.SnapshotID, "admin")
//
// Callers must inspect the per-table result map of a restore: partial
// success is a first-class, expected outcome.
package backup

// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backup

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

func TestCreateWritesFileAndCatalogTogether(t *testing.T) {
	env := newTestEnv(t.TempDir())
	seedCoreTables(env.tables)

	result, err := env.builder.Create(context.Background(), TypeManual, "nightly check", "ops")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !result.Success {
		t.Error("expected success result")
	}
	if result.SnapshotID == "" {
		t.Fatal("expected a snapshot id")
	}

	data, err := os.ReadFile(result.FilePath)
	if err != nil {
		t.Fatalf("snapshot file not written: %v", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		t.Fatalf("snapshot file is not valid JSON: %v", err)
	}
	if snapshot.ID != result.SnapshotID {
		t.Errorf("snapshot id = %q, want %q", snapshot.ID, result.SnapshotID)
	}
	if snapshot.Version != "1" {
		t.Errorf("schema version = %q, want %q", snapshot.Version, "1")
	}
	for _, name := range CoreTableNames() {
		if _, ok := snapshot.Tables[name]; !ok {
			t.Errorf("snapshot missing table %q", name)
		}
	}
	if snapshot.Tables["transactions"].Count != 3 {
		t.Errorf("transactions count = %d, want 3", snapshot.Tables["transactions"].Count)
	}

	record, err := env.catalog.GetCatalogRecord(context.Background(), result.SnapshotID)
	if err != nil || record == nil {
		t.Fatalf("catalog record missing: %v", err)
	}
	// 2 currencies + 1 user + 1 setting + 2 clients + 1 rate + 3 transactions
	if record.TotalRecords != 10 {
		t.Errorf("total records = %d, want 10", record.TotalRecords)
	}
	if record.FileSize != int64(len(data)) {
		t.Errorf("file size = %d, want %d", record.FileSize, len(data))
	}
	// totalSize is the compact encoding; the indented file is larger.
	if snapshot.Metadata.TotalSize <= 0 || snapshot.Metadata.TotalSize > record.FileSize {
		t.Errorf("metadata total size = %d, want within (0, %d]", snapshot.Metadata.TotalSize, record.FileSize)
	}
	if len(record.TablesIncluded) != len(CoreTableNames()) {
		t.Errorf("tables included = %v", record.TablesIncluded)
	}
}

func TestCreateRecordsTableFailureWithoutAborting(t *testing.T) {
	env := newTestEnv(t.TempDir())
	env.tables.seed("transactions",
		Row{"id": "t1", "amount": 1.0},
		Row{"id": "t2", "amount": 2.0},
		Row{"id": "t3", "amount": 3.0},
	)
	env.tables.exportErr["exchange_rates"] = errors.New("relation is locked")

	result, err := env.builder.Create(context.Background(), TypeManual, "", "ops")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if result.Metadata.TotalRecords != 3 {
		t.Errorf("total records = %d, want 3 (failed table contributes none)", result.Metadata.TotalRecords)
	}

	snapshot, err := env.store.ReadSnapshot(result.FilePath)
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
	dump := snapshot.Tables["exchange_rates"]
	if dump.Error == "" {
		t.Error("expected export error recorded in dump")
	}
	if dump.Count != 0 || len(dump.Data) != 0 {
		t.Error("failed export must produce an empty dump")
	}
	if snapshot.Tables["transactions"].Count != 3 {
		t.Error("healthy tables must still be exported")
	}
}

func TestCreateRemovesFileWhenCatalogInsertFails(t *testing.T) {
	dir := t.TempDir()
	env := newTestEnv(dir)
	seedCoreTables(env.tables)
	env.catalog.insertErr = errors.New("disk full")

	_, err := env.builder.Create(context.Background(), TypeManual, "", "ops")
	if !errors.Is(err, ErrCatalog) {
		t.Fatalf("expected ErrCatalog, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("orphaned files left behind: %v", entries)
	}
	if env.catalog.count() != 0 {
		t.Error("no catalog record should exist")
	}
}

func TestSnapshotIDIsTimeSortable(t *testing.T) {
	earlier := newSnapshotID(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), "aaaaaaaa")
	later := newSnapshotID(time.Date(2026, 3, 1, 9, 0, 1, 0, time.UTC), "00000000")

	if earlier != "backup-20260301-090000-aaaaaaaa" {
		t.Errorf("unexpected id format: %q", earlier)
	}
	if !(earlier < later) {
		t.Errorf("ids must sort chronologically: %q vs %q", earlier, later)
	}
}

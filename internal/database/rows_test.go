// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import (
	"testing"
	"time"
)

func TestSelectAllSQLOrdersByPrimaryKey(t *testing.T) {
	got := selectAllSQL("currencies", "code")
	want := "SELECT * FROM currencies ORDER BY code ASC"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestInsertSQL(t *testing.T) {
	got := insertSQL("clients", []string{"id", "name"})
	want := "INSERT INTO clients (id, name) VALUES (?,?)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUpsertSQLUpdatesNonKeyColumns(t *testing.T) {
	got := upsertSQL("currencies", "code", []string{"code", "name", "symbol"})
	want := "INSERT INTO currencies (code, name, symbol) VALUES (?,?,?)" +
		" ON CONFLICT (code) DO UPDATE SET name = excluded.name, symbol = excluded.symbol"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUpsertSQLKeyOnlyRowDoesNothing(t *testing.T) {
	got := upsertSQL("settings", "key", []string{"key"})
	want := "INSERT INTO settings (key) VALUES (?) ON CONFLICT (key) DO NOTHING"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRowColumnsSortedAndValidated(t *testing.T) {
	columns, err := rowColumns("clients", map[string]any{"name": "Acme", "id": "c1", "phone": nil})
	if err != nil {
		t.Fatalf("rowColumns failed: %v", err)
	}
	want := []string{"id", "name", "phone"}
	for i := range want {
		if columns[i] != want[i] {
			t.Errorf("columns = %v, want %v", columns, want)
			break
		}
	}
}

func TestRowColumnsRejectsUnsafeIdentifier(t *testing.T) {
	unsafe := []string{"id; DROP TABLE clients", "name)", "", "1col", `a"b`}
	for _, col := range unsafe {
		if _, err := rowColumns("clients", map[string]any{col: 1}); err == nil {
			t.Errorf("column %q must be rejected", col)
		}
	}
}

func TestColumnValuesMissingKeyIsNull(t *testing.T) {
	values := columnValues(map[string]any{"id": "c1"}, []string{"id", "name"})
	if values[0] != "c1" || values[1] != nil {
		t.Errorf("values = %v, want [c1 <nil>]", values)
	}
}

func TestLookupTableRejectsUnregistered(t *testing.T) {
	for _, name := range []string{"backup_catalog", "backup_schedules", "audit_events", "pg_tables", ""} {
		if _, err := lookupTable(name); err == nil {
			t.Errorf("table %q must not be exportable", name)
		}
	}
	if _, err := lookupTable("transactions"); err != nil {
		t.Errorf("transactions must be registered: %v", err)
	}
}

func TestNormalizeValue(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	ts := time.Date(2026, 3, 1, 12, 30, 0, 0, loc)
	if got := normalizeValue(ts); got != "2026-03-01T09:30:00Z" {
		t.Errorf("time normalized to %v", got)
	}
	if got := normalizeValue([]byte("hello")); got != "hello" {
		t.Errorf("bytes normalized to %v", got)
	}
	if got := normalizeValue(int64(7)); got != int64(7) {
		t.Errorf("int64 changed to %v", got)
	}
	if got := normalizeValue(nil); got != nil {
		t.Errorf("nil changed to %v", got)
	}
}

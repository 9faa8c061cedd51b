// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backup

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cambist/cambist/internal/audit"
	"github.com/cambist/cambist/internal/models"
)

// primaryKeys mirrors the live schema's key columns for the fake store.
var primaryKeys = map[string]string{
	"currencies":     "code",
	"users":          "id",
	"settings":       "key",
	"clients":        "id",
	"exchange_rates": "id",
	"transactions":   "id",
}

// fakeTableStore is an in-memory TableStore with per-table fault
// injection.
type fakeTableStore struct {
	mu         sync.Mutex
	rows       map[string][]Row
	exportErr  map[string]error
	replaceErr map[string]error
	upsertErr  map[string]error

	replaceCalls []string
	upsertCalls  []string
}

func newFakeTableStore() *fakeTableStore {
	return &fakeTableStore{
		rows:       make(map[string][]Row),
		exportErr:  make(map[string]error),
		replaceErr: make(map[string]error),
		upsertErr:  make(map[string]error),
	}
}

func (f *fakeTableStore) seed(table string, rows ...Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[table] = append([]Row{}, rows...)
}

func (f *fakeTableStore) ExportRows(_ context.Context, table string) ([]Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.exportErr[table]; err != nil {
		return nil, err
	}
	return append([]Row{}, f.rows[table]...), nil
}

func (f *fakeTableStore) CountRows(_ context.Context, table string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.rows[table])), nil
}

func (f *fakeTableStore) ReplaceRows(_ context.Context, table string, rows []Row) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.replaceErr[table]; err != nil {
		return 0, err
	}
	f.replaceCalls = append(f.replaceCalls, table)
	f.rows[table] = append([]Row{}, rows...)
	return int64(len(rows)), nil
}

func (f *fakeTableStore) UpsertRows(_ context.Context, table string, rows []Row) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.upsertErr[table]; err != nil {
		return 0, err
	}
	f.upsertCalls = append(f.upsertCalls, table)

	pk := primaryKeys[table]
	existing := f.rows[table]
	for _, row := range rows {
		replaced := false
		for i, have := range existing {
			if have[pk] == row[pk] {
				existing[i] = row
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, row)
		}
	}
	f.rows[table] = existing
	return int64(len(rows)), nil
}

var errCatalogRowMissing = errors.New("catalog row missing")

// fakeCatalog is an in-memory Catalog with fault injection.
type fakeCatalog struct {
	mu        sync.Mutex
	records   []*models.CatalogRecord
	insertErr error
	deleteErr map[string]error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{deleteErr: make(map[string]error)}
}

func (f *fakeCatalog) InsertCatalogRecord(_ context.Context, record *models.CatalogRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	clone := *record
	f.records = append(f.records, &clone)
	return nil
}

func (f *fakeCatalog) GetCatalogRecord(_ context.Context, backupID string) (*models.CatalogRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range f.records {
		if record.BackupID == backupID {
			clone := *record
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) ListCatalogRecords(_ context.Context) ([]models.CatalogRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.CatalogRecord, 0, len(f.records))
	for _, record := range f.records {
		out = append(out, *record)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeCatalog) DeleteCatalogRecord(_ context.Context, backupID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[backupID]; err != nil {
		return err
	}
	for i, record := range f.records {
		if record.BackupID == backupID {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return errCatalogRowMissing
}

func (f *fakeCatalog) UpdateCatalogStatus(_ context.Context, backupID string, status models.CatalogStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range f.records {
		if record.BackupID == backupID {
			record.Status = status
			return nil
		}
	}
	return errCatalogRowMissing
}

func (f *fakeCatalog) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type auditEntry struct {
	Component   string
	Action      string
	Actor       string
	Target      string
	Outcome     audit.Outcome
	Description string
	Details     map[string]any
}

// fakeAudit records audit calls for assertions.
type fakeAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (f *fakeAudit) Record(_ context.Context, component, action, actor, target string, outcome audit.Outcome, description string, details map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, auditEntry{
		Component:   component,
		Action:      action,
		Actor:       actor,
		Target:      target,
		Outcome:     outcome,
		Description: description,
		Details:     details,
	})
}

func (f *fakeAudit) last() *auditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.entries) == 0 {
		return nil
	}
	return &f.entries[len(f.entries)-1]
}

// seedCoreTables fills every core table with a small realistic data set.
func seedCoreTables(ts *fakeTableStore) {
	ts.seed("currencies",
		Row{"code": "USD", "name": "US Dollar", "symbol": "$"},
		Row{"code": "EUR", "name": "Euro", "symbol": "€"},
	)
	ts.seed("users",
		Row{"id": "u1", "username": "teller1", "role": "teller"},
	)
	ts.seed("settings",
		Row{"key": "business_name", "value": "Cambist"},
	)
	ts.seed("clients",
		Row{"id": "c1", "name": "Acme Imports"},
		Row{"id": "c2", "name": "Globex"},
	)
	ts.seed("exchange_rates",
		Row{"id": "r1", "currency_code": "EUR", "buy_rate": 1.08, "sell_rate": 1.1},
	)
	ts.seed("transactions",
		Row{"id": "t1", "client_id": "c1", "amount": 250.0},
		Row{"id": "t2", "client_id": "c2", "amount": 90.5},
		Row{"id": "t3", "client_id": "c1", "amount": 1200.0},
	)
}

// newTestEnv wires a builder, store, restore engine and friends over the
// fakes with snapshots written to a temp dir.
type testEnv struct {
	tables  *fakeTableStore
	catalog *fakeCatalog
	audit   *fakeAudit
	store   *SnapshotStore
	builder *SnapshotBuilder
	restore *RestoreEngine
}

func newTestEnv(dir string) *testEnv {
	tables := newFakeTableStore()
	catalog := newFakeCatalog()
	sink := &fakeAudit{}
	store := NewSnapshotStore(dir, catalog)
	exporter := NewTableExporter(tables)
	builder := NewSnapshotBuilder(exporter, store, "1")

	return &testEnv{
		tables:  tables,
		catalog: catalog,
		audit:   sink,
		store:   store,
		builder: builder,
		restore: NewRestoreEngine(tables, store, builder, sink),
	}
}

func pastTime(daysAgo int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -daysAgo)
}

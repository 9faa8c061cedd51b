// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/cambist/cambist/internal/backup"
	"github.com/cambist/cambist/internal/models"
)

type fakeBackupService struct {
	records   []models.CatalogRecord
	created   []string
	restored  []string
	deleted   []string
	cleanups  []int
	lastActor string
}

func (f *fakeBackupService) CreateBackup(_ context.Context, typ backup.Type, description, userID string) (*backup.CreateResult, error) {
	if !backup.ValidType(typ) {
		return nil, fmt.Errorf("%w: unknown backup type %q", backup.ErrValidation, typ)
	}
	f.created = append(f.created, string(typ))
	f.lastActor = userID
	return &backup.CreateResult{
		Success:    true,
		SnapshotID: "backup-20260301-090000-cafe0001",
		Timestamp:  time.Now().UTC(),
	}, nil
}

func (f *fakeBackupService) ListBackups(context.Context) ([]models.CatalogRecord, error) {
	return f.records, nil
}

func (f *fakeBackupService) GetBackup(_ context.Context, backupID string) (*models.CatalogRecord, error) {
	for i := range f.records {
		if f.records[i].BackupID == backupID {
			return &f.records[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", backup.ErrNotFound, backupID)
}

func (f *fakeBackupService) DeleteBackup(_ context.Context, backupID, _ string) error {
	f.deleted = append(f.deleted, backupID)
	return nil
}

func (f *fakeBackupService) RestoreBackup(_ context.Context, backupID, userID string) (*backup.RestoreResult, error) {
	if backupID == "backup-gone" {
		return nil, fmt.Errorf("%w: %s", backup.ErrNotFound, backupID)
	}
	f.restored = append(f.restored, backupID)
	f.lastActor = userID
	return &backup.RestoreResult{
		Success:          true,
		SnapshotID:       backupID,
		SafetySnapshotID: "backup-20260301-090001-cafe0002",
		TablesRestored:   6,
	}, nil
}

func (f *fakeBackupService) VerifyBackup(_ context.Context, backupID string) (*backup.VerifyResult, error) {
	return &backup.VerifyResult{Valid: true, SnapshotID: backupID}, nil
}

func (f *fakeBackupService) CleanupOldBackups(_ context.Context, retentionDays int, _ string) (*backup.CleanupResult, error) {
	f.cleanups = append(f.cleanups, retentionDays)
	return &backup.CleanupResult{RetentionDays: retentionDays, Deleted: []string{}}, nil
}

func (f *fakeBackupService) Stats(context.Context) (*backup.Stats, error) {
	return &backup.Stats{TotalCount: len(f.records)}, nil
}

type fakeScheduleService struct {
	schedules []models.BackupSchedule
}

func (f *fakeScheduleService) CreateSchedule(_ context.Context, s *models.BackupSchedule) (int64, error) {
	id := int64(len(f.schedules) + 1)
	s.ID = id
	f.schedules = append(f.schedules, *s)
	return id, nil
}

func (f *fakeScheduleService) ListSchedules(context.Context) ([]models.BackupSchedule, error) {
	return f.schedules, nil
}

type fakeHealth struct {
	err error
}

func (f *fakeHealth) Ping(context.Context) error {
	return f.err
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeBackupService, *fakeScheduleService) {
	t.Helper()
	backups := &fakeBackupService{}
	schedules := &fakeScheduleService{}
	server := httptest.NewServer(NewRouter(NewHandler(backups, schedules, &fakeHealth{})))
	t.Cleanup(server.Close)
	return server, backups, schedules
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return resp, decoded
}

func TestCreateBackupEndpoint(t *testing.T) {
	server, backups, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/backups",
		`{"type":"manual","description":"month end","user_id":"maria"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%v)", resp.StatusCode, body)
	}
	if id, _ := body["snapshot_id"].(string); id == "" {
		t.Error("expected a snapshot id in the response")
	}
	if backups.lastActor != "maria" {
		t.Errorf("actor = %q, want maria", backups.lastActor)
	}
}

func TestCreateBackupDefaultsToManual(t *testing.T) {
	server, backups, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/v1/backups", `{}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if len(backups.created) != 1 || backups.created[0] != "manual" {
		t.Errorf("created types = %v, want [manual]", backups.created)
	}
	if backups.lastActor != defaultActor {
		t.Errorf("actor = %q, want default", backups.lastActor)
	}
}

func TestCreateBackupRejectsUnknownType(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/v1/backups", `{"type":"incremental"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGetBackupNotFound(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/backups/backup-gone", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if msg, _ := body["error"].(string); msg == "" {
		t.Error("expected an error message")
	}
}

func TestListBackupsEndpoint(t *testing.T) {
	server, backups, _ := newTestServer(t)
	backups.records = []models.CatalogRecord{
		{BackupID: "backup-20260301-090000-cafe0001", Type: "manual"},
		{BackupID: "backup-20260302-090000-cafe0002", Type: "automatic"},
	}

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/v1/backups", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["count"].(float64) != 2 {
		t.Errorf("count = %v, want 2", body["count"])
	}
}

func TestRestoreBackupEndpoint(t *testing.T) {
	server, backups, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost,
		server.URL+"/api/v1/backups/backup-20260301-090000-cafe0001/restore",
		`{"user_id":"maria"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%v)", resp.StatusCode, body)
	}
	if id, _ := body["safety_snapshot_id"].(string); id == "" {
		t.Error("expected a safety snapshot id")
	}
	if len(backups.restored) != 1 {
		t.Errorf("restored = %v, want one call", backups.restored)
	}
}

func TestVerifyBackupEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet,
		server.URL+"/api/v1/backups/backup-20260301-090000-cafe0001/verify", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["valid"] != true {
		t.Errorf("valid = %v, want true", body["valid"])
	}
}

func TestCleanupEndpoint(t *testing.T) {
	server, backups, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/v1/backups/cleanup", `{"retention_days":14}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(backups.cleanups) != 1 || backups.cleanups[0] != 14 {
		t.Errorf("cleanups = %v, want [14]", backups.cleanups)
	}
}

func TestCreateScheduleEndpoint(t *testing.T) {
	server, _, schedules := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/v1/schedules",
		`{"name":"nightly","cadence_type":"daily","trigger_time":"02:00","retention_days":14,"max_snapshots":5}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%v)", resp.StatusCode, body)
	}
	if len(schedules.schedules) != 1 {
		t.Fatalf("schedules = %v, want one", schedules.schedules)
	}
	sched := schedules.schedules[0]
	if !sched.Enabled {
		t.Error("schedules default to enabled")
	}
	if sched.LastRunStatus != models.RunStatusIdle {
		t.Errorf("initial status = %q, want idle", sched.LastRunStatus)
	}
}

func TestCreateScheduleRejectsBadCadence(t *testing.T) {
	server, _, schedules := newTestServer(t)

	cases := []string{
		`{"name":"x","cadence_type":"daily","trigger_time":"26:00"}`,
		`{"name":"x","cadence_type":"weekly","trigger_time":"02:00"}`,
		`{"name":"x","cadence_type":"monthly","trigger_time":"02:00","day_of_month":0}`,
		`{"name":"x","cadence_type":"hourly","trigger_time":"02:00"}`,
		`{"cadence_type":"daily","trigger_time":"02:00"}`,
	}
	for _, payload := range cases {
		resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/v1/schedules", payload)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("payload %s: status = %d, want 400", payload, resp.StatusCode)
		}
	}
	if len(schedules.schedules) != 0 {
		t.Errorf("no schedule may be created, got %v", schedules.schedules)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("status body = %v", body)
	}
}

func TestHealthEndpointDegraded(t *testing.T) {
	backups := &fakeBackupService{}
	schedules := &fakeScheduleService{}
	health := &fakeHealth{err: errors.New("database closed")}
	server := httptest.NewServer(NewRouter(NewHandler(backups, schedules, health)))
	t.Cleanup(server.Close)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/healthz", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	if body["status"] != "degraded" {
		t.Errorf("status body = %v", body)
	}
}

// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/cambist/cambist/internal/backup"
	"github.com/cambist/cambist/internal/logging"
	"github.com/cambist/cambist/internal/models"
	"github.com/cambist/cambist/internal/scheduler"
)

var validate = validator.New()

// defaultActor attributes API calls that carry no user id.
const defaultActor = "api"

type createBackupRequest struct {
	Type        string `json:"type" validate:"omitempty,oneof=manual automatic pre-restore-safety"`
	Description string `json:"description" validate:"max=500"`
	UserID      string `json:"user_id" validate:"max=100"`
}

type cleanupRequest struct {
	RetentionDays int    `json:"retention_days" validate:"min=0,max=3650"`
	UserID        string `json:"user_id" validate:"max=100"`
}

type restoreRequest struct {
	UserID string `json:"user_id" validate:"max=100"`
}

type createScheduleRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	Enabled       *bool  `json:"enabled"`
	CadenceType   string `json:"cadence_type" validate:"required,oneof=daily weekly monthly"`
	TriggerTime   string `json:"trigger_time" validate:"required"`
	DaysOfWeek    []int  `json:"days_of_week"`
	DayOfMonth    int    `json:"day_of_month" validate:"min=0,max=31"`
	RetentionDays int    `json:"retention_days" validate:"min=0,max=3650"`
	MaxSnapshots  int    `json:"max_snapshots" validate:"min=0"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.health.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	var req createBackupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	typ := backup.Type(req.Type)
	if req.Type == "" {
		typ = backup.TypeManual
	}

	result, err := h.backups.CreateBackup(r.Context(), typ, req.Description, actor(req.UserID))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleListBackups(w http.ResponseWriter, r *http.Request) {
	records, err := h.backups.ListBackups(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"backups": records, "count": len(records)})
}

func (h *Handler) handleBackupStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.backups.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleGetBackup(w http.ResponseWriter, r *http.Request) {
	record, err := h.backups.GetBackup(r.Context(), chi.URLParam(r, "backupID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) handleDeleteBackup(w http.ResponseWriter, r *http.Request) {
	if err := h.backups.DeleteBackup(r.Context(), chi.URLParam(r, "backupID"), defaultActor); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.backups.RestoreBackup(r.Context(), chi.URLParam(r, "backupID"), actor(req.UserID))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleVerifyBackup(w http.ResponseWriter, r *http.Request) {
	result, err := h.backups.VerifyBackup(r.Context(), chi.URLParam(r, "backupID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCleanup(w http.ResponseWriter, r *http.Request) {
	var req cleanupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.backups.CleanupOldBackups(r.Context(), req.RetentionDays, actor(req.UserID))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req createScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sched := &models.BackupSchedule{
		Name:          req.Name,
		Enabled:       req.Enabled == nil || *req.Enabled,
		CadenceType:   models.CadenceType(req.CadenceType),
		TriggerTime:   req.TriggerTime,
		DaysOfWeek:    req.DaysOfWeek,
		DayOfMonth:    req.DayOfMonth,
		RetentionDays: req.RetentionDays,
		MaxSnapshots:  req.MaxSnapshots,
		LastRunStatus: models.RunStatusIdle,
	}

	if err := scheduler.CadenceOf(sched).Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.schedules.CreateSchedule(r.Context(), sched)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	sched.ID = id
	writeJSON(w, http.StatusCreated, sched)
}

func (h *Handler) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.schedules.ListSchedules(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schedules": schedules, "count": len(schedules)})
}

// decodeBody parses and validates a JSON request body. An empty body is
// accepted and leaves the zero value in place. Returns false after
// writing the error response.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, dst); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return false
		}
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func actor(userID string) string {
	if userID == "" {
		return defaultActor
	}
	return userID
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, backup.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, backup.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, backup.ErrDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}

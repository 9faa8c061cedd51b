// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api exposes the backup engine over HTTP. Handlers depend on
// narrow service interfaces so they are testable without a database.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cambist/cambist/internal/backup"
	"github.com/cambist/cambist/internal/logging"
	"github.com/cambist/cambist/internal/models"
)

// BackupService is the backup manager surface the handlers call.
// Satisfied by *backup.Manager.
type BackupService interface {
	CreateBackup(ctx context.Context, typ backup.Type, description, userID string) (*backup.CreateResult, error)
	ListBackups(ctx context.Context) ([]models.CatalogRecord, error)
	GetBackup(ctx context.Context, backupID string) (*models.CatalogRecord, error)
	DeleteBackup(ctx context.Context, backupID, userID string) error
	RestoreBackup(ctx context.Context, backupID, userID string) (*backup.RestoreResult, error)
	VerifyBackup(ctx context.Context, backupID string) (*backup.VerifyResult, error)
	CleanupOldBackups(ctx context.Context, retentionDays int, userID string) (*backup.CleanupResult, error)
	Stats(ctx context.Context) (*backup.Stats, error)
}

// ScheduleService is the schedule surface the handlers call.
type ScheduleService interface {
	CreateSchedule(ctx context.Context, s *models.BackupSchedule) (int64, error)
	ListSchedules(ctx context.Context) ([]models.BackupSchedule, error)
}

// HealthChecker reports backing-store liveness for the health endpoint.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler bundles the HTTP handlers and their dependencies.
type Handler struct {
	backups   BackupService
	schedules ScheduleService
	health    HealthChecker
}

// NewHandler creates the handler set.
func NewHandler(backups BackupService, schedules ScheduleService, health HealthChecker) *Handler {
	return &Handler{backups: backups, schedules: schedules, health: health}
}

// NewRouter builds the HTTP routing tree.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/backups", func(r chi.Router) {
			r.Post("/", h.handleCreateBackup)
			r.Get("/", h.handleListBackups)
			r.Get("/stats", h.handleBackupStats)
			r.Post("/cleanup", h.handleCleanup)
			r.Route("/{backupID}", func(r chi.Router) {
				r.Get("/", h.handleGetBackup)
				r.Delete("/", h.handleDeleteBackup)
				r.Post("/restore", h.handleRestoreBackup)
				r.Get("/verify", h.handleVerifyBackup)
			})
		})
		r.Route("/schedules", func(r chi.Router) {
			r.Post("/", h.handleCreateSchedule)
			r.Get("/", h.handleListSchedules)
		})
	})

	return r
}

// requestLogger logs one line per request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

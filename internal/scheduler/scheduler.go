// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scheduler triggers automatic backups on operator-defined
// cadences. Each enabled schedule gets its own timer goroutine; the set
// is rebuilt from the database on a fixed reload interval so edits take
// effect without a restart. Schedules fire independently: two schedules
// sharing a trigger time both run, and one failed run never disarms the
// schedule that produced it.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cambist/cambist/internal/backup"
	"github.com/cambist/cambist/internal/config"
	"github.com/cambist/cambist/internal/logging"
	"github.com/cambist/cambist/internal/metrics"
	"github.com/cambist/cambist/internal/models"
)

// Store is the schedule persistence surface. Implemented by the
// database package.
type Store interface {
	ListEnabledSchedules(ctx context.Context) ([]models.BackupSchedule, error)
	MarkScheduleRunning(ctx context.Context, id int64, startedAt time.Time) error
	MarkScheduleResult(ctx context.Context, id int64, status models.RunStatus, nextRunAt *time.Time) error
	UpdateScheduleNextRun(ctx context.Context, id int64, nextRunAt time.Time) error
}

// BackupEngine is the slice of the backup manager the scheduler drives.
// Satisfied by *backup.Manager.
type BackupEngine interface {
	CreateBackup(ctx context.Context, typ backup.Type, description, userID string) (*backup.CreateResult, error)
	ApplyScheduleRetention(ctx context.Context, initiator string, retentionDays, maxSnapshots int) (*backup.CleanupResult, error)
}

// Scheduler owns the timer goroutines for all enabled schedules.
type Scheduler struct {
	store  Store
	engine BackupEngine
	loc    *time.Location
	reload time.Duration
	logger zerolog.Logger

	mu       sync.Mutex
	cancels  []context.CancelFunc
	inFlight map[int64]bool
}

// New creates a Scheduler. The configured time zone is resolved here so
// a bad name fails at startup, not at the first trigger.
func New(cfg config.SchedulerConfig, store Store, engine BackupEngine) (*Scheduler, error) {
	loc := time.Local
	if cfg.Timezone != "" && cfg.Timezone != "Local" {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Timezone, err)
		}
	}

	reload := cfg.ReloadInterval
	if reload <= 0 {
		reload = time.Hour
	}

	return &Scheduler{
		store:    store,
		engine:   engine,
		loc:      loc,
		reload:   reload,
		logger:   logging.With().Str("component", "scheduler").Logger(),
		inFlight: make(map[int64]bool),
	}, nil
}

// Serve runs the scheduler until ctx is cancelled. Implements
// suture.Service.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.logger.Info().Str("timezone", s.loc.String()).Dur("reload_interval", s.reload).Msg("Scheduler starting")

	s.reloadSchedules(ctx)

	ticker := time.NewTicker(s.reload)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.stopEntries()
			s.logger.Info().Msg("Scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.reloadSchedules(ctx)
		}
	}
}

// reloadSchedules replaces the running timer set with one built from the
// current database state. In-flight runs are not interrupted; the
// in-flight guard keeps a rebuilt timer from doubling them up.
func (s *Scheduler) reloadSchedules(ctx context.Context) {
	schedules, err := s.store.ListEnabledSchedules(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load schedules, keeping current timer set")
		return
	}

	s.stopEntries()

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range schedules {
		sched := schedules[i]
		cadence := CadenceOf(&sched)
		if err := cadence.Validate(); err != nil {
			s.logger.Error().Err(err).Int64("schedule_id", sched.ID).Str("name", sched.Name).Msg("Skipping invalid schedule")
			continue
		}

		entryCtx, cancel := context.WithCancel(ctx)
		s.cancels = append(s.cancels, cancel)
		go s.runEntry(entryCtx, sched, cadence)
	}
	s.logger.Debug().Int("schedules", len(schedules)).Msg("Schedules reloaded")
}

func (s *Scheduler) stopEntries() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
}

// runEntry arms a timer for one schedule and re-arms it after every
// trigger until the entry is cancelled.
func (s *Scheduler) runEntry(ctx context.Context, sched models.BackupSchedule, cadence Cadence) {
	for {
		next, err := cadence.NextRun(time.Now(), s.loc)
		if err != nil {
			s.logger.Error().Err(err).Int64("schedule_id", sched.ID).Msg("Cannot compute next trigger, disarming")
			return
		}

		if err := s.store.UpdateScheduleNextRun(ctx, sched.ID, next); err != nil {
			s.logger.Error().Err(err).Int64("schedule_id", sched.ID).Msg("Failed to persist next trigger")
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.runSchedule(ctx, sched, cadence)
		}
	}
}

// runSchedule executes one scheduled backup. A schedule never overlaps
// itself: if its previous run is still in flight the trigger is skipped
// and the timer re-arms for the next occurrence. A panic in the run is
// recorded as a failed run and does not take the scheduler down.
func (s *Scheduler) runSchedule(ctx context.Context, sched models.BackupSchedule, cadence Cadence) {
	// Reloads cancel the entry's timer context while runs may still be in
	// flight. The run itself executes detached so a rebuild of the timer
	// set never aborts its database and file work.
	ctx = context.WithoutCancel(ctx)

	if !s.tryAcquire(sched.ID) {
		s.logger.Warn().Int64("schedule_id", sched.ID).Str("name", sched.Name).Msg("Previous run still in flight, skipping trigger")
		metrics.ScheduledRunsTotal.WithLabelValues("skipped").Inc()
		return
	}
	defer s.release(sched.ID)

	status := models.RunStatusSuccess
	defer func() {
		if r := recover(); r != nil {
			status = models.RunStatusError
			s.logger.Error().Any("panic", r).Int64("schedule_id", sched.ID).Msg("Scheduled run panicked")
		}
		s.finishRun(ctx, sched, cadence, status)
	}()

	started := time.Now()
	if err := s.store.MarkScheduleRunning(ctx, sched.ID, started); err != nil {
		s.logger.Error().Err(err).Int64("schedule_id", sched.ID).Msg("Failed to mark schedule running")
	}

	initiator := "scheduler:" + sched.Name
	description := fmt.Sprintf("Scheduled backup (%s, %s)", sched.Name, sched.CadenceType)

	result, err := s.engine.CreateBackup(ctx, backup.TypeAutomatic, description, initiator)
	if err != nil {
		status = models.RunStatusError
		s.logger.Error().Err(err).Int64("schedule_id", sched.ID).Str("name", sched.Name).Msg("Scheduled backup failed")
		return
	}

	s.logger.Info().
		Int64("schedule_id", sched.ID).
		Str("name", sched.Name).
		Str("backup_id", result.SnapshotID).
		Dur("duration", time.Since(started)).
		Msg("Scheduled backup completed")

	if _, err := s.engine.ApplyScheduleRetention(ctx, initiator, sched.RetentionDays, sched.MaxSnapshots); err != nil {
		s.logger.Error().Err(err).Int64("schedule_id", sched.ID).Msg("Schedule retention pass failed")
	}
}

// finishRun persists the run outcome and the next trigger time.
func (s *Scheduler) finishRun(ctx context.Context, sched models.BackupSchedule, cadence Cadence, status models.RunStatus) {
	if status == models.RunStatusSuccess {
		metrics.ScheduledRunsTotal.WithLabelValues("success").Inc()
	} else {
		metrics.ScheduledRunsTotal.WithLabelValues("error").Inc()
	}

	var nextPtr *time.Time
	if next, err := cadence.NextRun(time.Now(), s.loc); err == nil {
		nextPtr = &next
	}
	if err := s.store.MarkScheduleResult(ctx, sched.ID, status, nextPtr); err != nil {
		s.logger.Error().Err(err).Int64("schedule_id", sched.ID).Msg("Failed to persist run result")
	}
}

func (s *Scheduler) tryAcquire(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[id] {
		return false
	}
	s.inFlight[id] = true
	return true
}

func (s *Scheduler) release(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

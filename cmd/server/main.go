// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command server runs the Cambist backup service: the HTTP API and the
// automatic backup scheduler, supervised until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cambist/cambist/internal/api"
	"github.com/cambist/cambist/internal/audit"
	"github.com/cambist/cambist/internal/backup"
	"github.com/cambist/cambist/internal/config"
	"github.com/cambist/cambist/internal/database"
	"github.com/cambist/cambist/internal/logging"
	"github.com/cambist/cambist/internal/scheduler"
	"github.com/cambist/cambist/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Timestamp: true,
	})
	logging.Info().Str("version", version).Msg("Cambist backup service starting")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close database")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditStore := audit.NewDuckDBStore(db.Conn())
	if err := auditStore.CreateTable(ctx); err != nil {
		return fmt.Errorf("create audit table: %w", err)
	}
	auditLog := audit.NewLogger(auditStore)

	manager := backup.NewManager(cfg.Backup, db, db, auditLog)

	handler := api.NewHandler(manager, db, db)
	server := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, fmt.Sprintf("%d", cfg.Server.Port)),
		Handler: api.NewRouter(handler),
	}

	sup := supervisor.New()
	sup.Add(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.New(cfg.Scheduler, db, manager)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sup.Add(sched)
	} else {
		logging.Info().Msg("Scheduler disabled")
	}

	if err := sup.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}

	logging.Info().Msg("Cambist backup service stopped")
	return nil
}

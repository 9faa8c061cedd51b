// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics provides Prometheus instrumentation for the backup engine.
//
// Metrics are exposed at /metrics in Prometheus text format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BackupsTotal counts snapshot creations by type and result.
	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backup_runs_total",
			Help: "Total number of snapshot creation attempts",
		},
		[]string{"type", "status"},
	)

	// BackupDuration observes snapshot creation duration.
	BackupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backup_duration_seconds",
			Help:    "Duration of snapshot creation in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	// BackupSizeBytes reports the size of the most recent snapshot file.
	BackupSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backup_last_size_bytes",
			Help: "Size in bytes of the most recently written snapshot file",
		},
	)

	// RestoreTablesTotal counts per-table restore outcomes.
	RestoreTablesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restore_tables_total",
			Help: "Total number of per-table restore attempts",
		},
		[]string{"status"},
	)

	// RetentionDeletionsTotal counts snapshots removed by retention.
	RetentionDeletionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "retention_deletions_total",
			Help: "Total number of snapshots deleted by retention",
		},
	)

	// ScheduledRunsTotal counts scheduler-triggered runs by result.
	ScheduledRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_runs_total",
			Help: "Total number of scheduler-triggered backup runs",
		},
		[]string{"status"},
	)
)

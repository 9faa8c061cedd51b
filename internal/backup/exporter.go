// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backup

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cambist/cambist/internal/logging"
)

// TableExporter reads full table contents into snapshot dumps. Export
// never fails: a table that cannot be read produces an empty dump with
// the error recorded, so one broken table never sinks a whole snapshot.
type TableExporter struct {
	store  TableStore
	logger zerolog.Logger
}

// NewTableExporter creates a TableExporter backed by the given store.
func NewTableExporter(store TableStore) *TableExporter {
	return &TableExporter{
		store:  store,
		logger: logging.With().Str("component", "backup-exporter").Logger(),
	}
}

// Export reads every row of a table ordered by primary key and returns
// the dump. On failure the dump is empty with Error set.
func (e *TableExporter) Export(ctx context.Context, table string) *TableDump {
	dump := &TableDump{
		Data:       []Row{},
		ExportedAt: time.Now().UTC(),
	}

	rows, err := e.store.ExportRows(ctx, table)
	if err != nil {
		e.logger.Error().Err(err).Str("table", table).Msg("Table export failed")
		dump.Error = err.Error()
		return dump
	}

	dump.Data = rows
	dump.Count = len(rows)
	return dump
}

// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import (
	"fmt"
	"regexp"
)

// tableMeta describes a table the generic row operations may touch.
// Only registered tables are reachable; arbitrary names are rejected so
// table and column identifiers never flow into SQL unchecked.
type tableMeta struct {
	primaryKey string
}

// snapshotTables registers every table the backup engine may export or
// reconcile. The engine-owned tables (backup_catalog, backup_schedules,
// audit_events) are deliberately absent.
var snapshotTables = map[string]tableMeta{
	"currencies":     {primaryKey: "code"},
	"users":          {primaryKey: "id"},
	"settings":       {primaryKey: "key"},
	"clients":        {primaryKey: "id"},
	"exchange_rates": {primaryKey: "id"},
	"transactions":   {primaryKey: "id"},
}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// lookupTable resolves table metadata, rejecting unregistered names.
func lookupTable(name string) (tableMeta, error) {
	meta, ok := snapshotTables[name]
	if !ok {
		return tableMeta{}, fmt.Errorf("table %q is not registered for export/restore", name)
	}
	return meta, nil
}

// validColumn reports whether a column name is a safe SQL identifier.
// Snapshot documents can originate outside this process, so column names
// read from them are untrusted input.
func validColumn(name string) bool {
	return identifierPattern.MatchString(name)
}

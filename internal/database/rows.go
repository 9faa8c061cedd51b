// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ExportRows reads all rows of a registered table ordered by primary key
// ascending, so repeated exports of unchanged data are byte-identical.
func (db *DB) ExportRows(ctx context.Context, table string) ([]map[string]any, error) {
	meta, err := lookupTable(table)
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, selectAllSQL(table, meta.primaryKey))
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", table, err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows of %s: %w", table, err)
	}

	return result, nil
}

// CountRows returns the current row count of a registered table.
func (db *DB) CountRows(ctx context.Context, table string) (int64, error) {
	if _, err := lookupTable(table); err != nil {
		return 0, err
	}
	var count int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return count, nil
}

// ReplaceRows deletes all current rows of a registered table and inserts
// the given rows in order, preserving original keys. Runs in a single
// transaction so readers never observe the table half-replaced.
func (db *DB) ReplaceRows(ctx context.Context, table string, rows []map[string]any) (int64, error) {
	if _, err := lookupTable(table); err != nil {
		return 0, err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction for %s: %w", table, err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", table, err)
	}

	if len(rows) > 0 {
		columns, err := rowColumns(table, rows[0])
		if err != nil {
			return 0, err
		}
		stmt, err := tx.PrepareContext(ctx, insertSQL(table, columns))
		if err != nil {
			return 0, fmt.Errorf("failed to prepare insert for %s: %w", table, err)
		}
		defer stmt.Close() //nolint:errcheck // Statement closed with tx

		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, columnValues(row, columns)...); err != nil {
				return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit %s replacement: %w", table, err)
	}
	return int64(len(rows)), nil
}

// UpsertRows applies every row as a primary-key insert-or-update without
// deleting anything, so rows created after a snapshot was taken survive.
func (db *DB) UpsertRows(ctx context.Context, table string, rows []map[string]any) (int64, error) {
	meta, err := lookupTable(table)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	columns, err := rowColumns(table, rows[0])
	if err != nil {
		return 0, err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction for %s: %w", table, err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	stmt, err := tx.PrepareContext(ctx, upsertSQL(table, meta.primaryKey, columns))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert for %s: %w", table, err)
	}
	defer stmt.Close() //nolint:errcheck // Statement closed with tx

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, columnValues(row, columns)...); err != nil {
			return 0, fmt.Errorf("failed to upsert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit %s upsert: %w", table, err)
	}
	return int64(len(rows)), nil
}

// selectAllSQL builds the ordered full-table export query.
func selectAllSQL(table, primaryKey string) string {
	return fmt.Sprintf("SELECT * FROM %s ORDER BY %s ASC", table, primaryKey)
}

// insertSQL builds a positional insert statement for the given columns.
func insertSQL(table string, columns []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders)
}

// upsertSQL builds an INSERT ... ON CONFLICT statement keyed on the primary
// key. When the row consists of only the key there is nothing to update.
func upsertSQL(table, primaryKey string, columns []string) string {
	base := insertSQL(table, columns)

	var updates []string
	for _, col := range columns {
		if col == primaryKey {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
	}
	if len(updates) == 0 {
		return base + fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", primaryKey)
	}
	return base + fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s",
		primaryKey, strings.Join(updates, ", "))
}

// rowColumns returns the sorted, validated column names of a row. Rows in
// one table dump share a shape, so the first row determines the columns.
func rowColumns(table string, row map[string]any) ([]string, error) {
	columns := make([]string, 0, len(row))
	for col := range row {
		if !validColumn(col) {
			return nil, fmt.Errorf("invalid column name %q in %s rows", col, table)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns, nil
}

// columnValues extracts row values in column order. Missing keys insert NULL.
func columnValues(row map[string]any, columns []string) []any {
	values := make([]any, len(columns))
	for i, col := range columns {
		values[i] = row[col]
	}
	return values
}

// normalizeValue converts driver types into JSON-stable representations.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case []byte:
		return string(val)
	default:
		return v
	}
}

// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Verifier checks snapshot integrity without touching any operational
// table. Checks run in order and stop at the first failure: catalog
// record, file existence, parseable JSON, required fields, then presence
// of every core table.
type Verifier struct {
	store *SnapshotStore
}

// NewVerifier creates a Verifier over the given store.
func NewVerifier(store *SnapshotStore) *Verifier {
	return &Verifier{store: store}
}

// Verify runs the structural checks for a backup id. A failed check
// yields Valid=false with the reason; only infrastructure errors (catalog
// unreachable) are returned as errors.
func (v *Verifier) Verify(ctx context.Context, backupID string) (*VerifyResult, error) {
	result := &VerifyResult{SnapshotID: backupID}

	record, err := v.store.catalog.GetCatalogRecord(ctx, backupID)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup %s: %v", ErrCatalog, backupID, err)
	}
	if record == nil {
		result.Reason = "no catalog record for this backup id"
		return result, nil
	}

	info, err := os.Stat(record.FilePath)
	if err != nil {
		result.Reason = fmt.Sprintf("snapshot file missing: %s", record.FilePath)
		return result, nil
	}
	result.FileSize = info.Size()

	snapshot, err := v.store.ReadSnapshot(record.FilePath)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			result.Reason = "snapshot file is not valid JSON"
			return result, nil
		}
		return nil, err
	}

	if snapshot.ID == "" || snapshot.Timestamp.IsZero() || snapshot.Type == "" {
		result.Reason = "snapshot document is missing required fields"
		return result, nil
	}

	if err := snapshot.Normalize(); err != nil {
		result.Reason = "snapshot contains no table data"
		return result, nil
	}

	for _, table := range coreTables {
		dump, ok := snapshot.Tables[table.Name]
		if !ok || dump == nil {
			result.Reason = fmt.Sprintf("missing table: %s", table.Name)
			return result, nil
		}
		result.Tables = append(result.Tables, table.Name)
		result.TotalRecords += int64(dump.Count)
	}

	result.Valid = true
	return result, nil
}

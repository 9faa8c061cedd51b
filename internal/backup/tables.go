// Cambist - Currency Exchange Operations Dashboard
// Copyright 2026 Cambist Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package backup

// TableKind selects the reconciliation strategy applied on restore.
type TableKind int

const (
	// KindStandard tables are restored by delete+insert, preserving the
	// snapshot's keys and order exactly.
	KindStandard TableKind = iota

	// KindProtected tables hold reference/master data and are restored by
	// primary-key upsert only. Rows created after the snapshot was taken
	// survive a restore; nothing is ever deleted from them.
	KindProtected
)

// CoreTable is one entry of the fixed core-table list.
type CoreTable struct {
	Name string
	Kind TableKind
}

// coreTables is the fixed core-table list. Its order is the export and
// restore order. A snapshot is restorable only if its tables map contains
// every name listed here.
var coreTables = []CoreTable{
	{Name: "currencies", Kind: KindProtected},
	{Name: "users", Kind: KindProtected},
	{Name: "settings", Kind: KindProtected},
	{Name: "clients", Kind: KindStandard},
	{Name: "exchange_rates", Kind: KindStandard},
	{Name: "transactions", Kind: KindStandard},
}

// CoreTables returns the fixed core-table list in export/restore order.
func CoreTables() []CoreTable {
	result := make([]CoreTable, len(coreTables))
	copy(result, coreTables)
	return result
}

// CoreTableNames returns the core table names in order.
func CoreTableNames() []string {
	names := make([]string, len(coreTables))
	for i, t := range coreTables {
		names[i] = t.Name
	}
	return names
}

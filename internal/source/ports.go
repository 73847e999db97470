// Package source defines the port for the raw backing data of the
// dashboard: two tabular sheets of material movement tickets. Backends
// return untyped tables; all normalization happens in internal/store.
package source

import (
	"context"

	"wastedash/internal/core"
)

// Sheet names of the backing workbook (input schema contract).
const (
	IncomingSheet = "INCOMING MASTER"
	OutgoingSheet = "OUTGOING MASTER"
)

// Table is one raw sheet: a header row plus data rows, all strings.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Source loads the two raw record sheets. Load is all-or-nothing: on any
// error neither table is usable and nothing is partially populated.
type Source interface {
	Load(ctx context.Context) (incoming Table, outgoing Table, err error)
}

// TableFromRows splits a sheet's rows into header and data. A sheet with
// no header row at all is a schema failure; a header-only sheet is valid.
func TableFromRows(name string, rows [][]string) (Table, error) {
	if len(rows) == 0 {
		return Table{}, &core.SchemaError{Sheet: name, Reason: "sheet has no header row"}
	}
	return Table{Name: name, Header: rows[0], Rows: rows[1:]}, nil
}

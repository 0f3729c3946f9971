package etl

import (
	"context"
	"fmt"

	"jsonload/internal/dbclient"
)

// ── Destination ────────────────────────────────────────────
// A Destination writes records into a target system.
//
// Pattern: Singer target protocol.

// SyncMode determines how records are written to the destination.
type SyncMode string

const (
	SyncAppend  SyncMode = "append"  // add rows without deleting existing
	SyncReplace SyncMode = "replace" // drop and recreate the table, insert fresh
)

// ParseSyncMode validates a mode name; empty means append.
func ParseSyncMode(s string) (SyncMode, error) {
	switch SyncMode(s) {
	case "":
		return SyncAppend, nil
	case SyncAppend, SyncReplace:
		return SyncMode(s), nil
	default:
		return "", fmt.Errorf("invalid mode %q: want %s or %s", s, SyncAppend, SyncReplace)
	}
}

// Destination writes records to a target system.
type Destination interface {
	Write(ctx context.Context, table string, schema *Schema, records []Record, mode SyncMode) (int, error)
}

// ── Table Destination ──────────────────────────────────────
// Writes records as rows of a database table through a dbclient.Connector.

// TableWriter implements Destination for SQL and document databases.
type TableWriter struct {
	Conn dbclient.Connector
}

// Write sends all records as one batch. The table is created from schema
// when absent; the batch is all-or-nothing.
func (w *TableWriter) Write(ctx context.Context, table string, schema *Schema, records []Record, mode SyncMode) (int, error) {
	names := schema.FieldNames()
	rows := make([][]any, len(records))
	for i, rec := range records {
		rows[i] = rec.Values(names)
	}

	return w.Conn.Load(ctx, dbclient.LoadRequest{
		Table:   table,
		Columns: schema.Columns(),
		Rows:    rows,
		Replace: mode == SyncReplace,
	})
}

// Package cdc implements the CDC Applier (spec.md §4.D): parses
// pending_data/pending_keys, translates each row to an idempotent SQL
// statement, and applies rows per-xid in transaction order.
package cdc

// Op is a pending_data row's operation kind.
type Op string

const (
	OpInsert Op = "i"
	OpUpdate Op = "u"
	OpDelete Op = "d"
)

// PendingRow is one row in pending_data joined with its primary-key
// column names from pending_keys (spec.md §3).
type PendingRow struct {
	Xid       int64
	Seqid     int64
	Schema    string
	Table     string
	Op        Op
	OldData   map[string]any
	NewData   map[string]any // nil for delete
	KeyCols   []string
}

// FullTable renders "schema.table".
func (r PendingRow) FullTable() string {
	return r.Schema + "." + r.Table
}

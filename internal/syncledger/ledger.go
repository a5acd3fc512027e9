// Package syncledger implements the Sync Ledger (spec.md §4.F): one
// table per entity kind tracking which rows still need to be pushed
// to the search index.
package syncledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Ledger is the sync-tracking table for one entity kind, e.g.
// "artists_sync" or "releases_sync".
type Ledger struct {
	db    pgxIface
	table string
}

// pgxIface is the narrow pool surface Ledger needs, satisfied by both
// *pgxpool.Pool and pgx.Tx — tests can substitute a fake.
type pgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// New builds a Ledger bound to table, e.g. "artists_sync".
func New(db pgxIface, table string) *Ledger {
	return &Ledger{db: db, table: table}
}

// InsertIDs registers ids as needing sync, defaulting sync=false.
// Idempotent — existing rows are left untouched (spec.md §4.F:
// "called before pushing documents... so a crash... leaves a
// retryable marker").
func (l *Ledger) InsertIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	sql := fmt.Sprintf(`INSERT INTO %s (id, sync) SELECT unnest($1::uuid[]), false
		ON CONFLICT (id) DO NOTHING`, l.table)
	_, err := l.db.Exec(ctx, sql, ids)
	if err != nil {
		return fmt.Errorf("syncledger: insert ids into %s: %w", l.table, err)
	}
	return nil
}

// MarkSynced sets sync=true for ids, called only after the search
// backend confirms the push succeeded.
func (l *Ledger) MarkSynced(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	sql := fmt.Sprintf(`UPDATE %s SET sync = true WHERE id = ANY($1::uuid[])`, l.table)
	_, err := l.db.Exec(ctx, sql, ids)
	if err != nil {
		return fmt.Errorf("syncledger: mark synced in %s: %w", l.table, err)
	}
	return nil
}

// CountUnsynced returns how many rows still have sync=false.
func (l *Ledger) CountUnsynced(ctx context.Context) (int64, error) {
	var n int64
	sql := fmt.Sprintf(`SELECT count(*) FROM %s WHERE sync = false`, l.table)
	if err := l.db.QueryRow(ctx, sql).Scan(&n); err != nil {
		return 0, fmt.Errorf("syncledger: count unsynced in %s: %w", l.table, err)
	}
	return n, nil
}

// Unsynced returns up to limit ids with sync=false, in ascending id
// order, for the incremental-sync drain loop.
func (l *Ledger) Unsynced(ctx context.Context, limit int) ([]uuid.UUID, error) {
	sql := fmt.Sprintf(`SELECT id FROM %s WHERE sync = false ORDER BY id LIMIT $1`, l.table)
	rows, err := l.db.Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("syncledger: unsynced from %s: %w", l.table, err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

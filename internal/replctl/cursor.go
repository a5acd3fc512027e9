// Package replctl implements Replication Control (spec.md §4.E): the
// singleton cursor row tracking how far incremental replication has
// progressed, plus the pure helpers derived from it.
package replctl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Cursor is the singleton replication_control row (spec.md §3).
type Cursor struct {
	CurrentSchemaSequence      *int32
	CurrentReplicationSequence *int32
	LastReplicationDate        *time.Time
}

// ErrNoCursor means current_replication_sequence is null — replication
// has not been bootstrapped yet.
var ErrNoCursor = errors.New("replctl: replication sequence not set")

// Get reads the singleton cursor row.
func Get(ctx context.Context, tx pgx.Tx) (Cursor, error) {
	var c Cursor
	err := tx.QueryRow(ctx, `SELECT current_schema_sequence, current_replication_sequence, last_replication_date
		FROM musicbrainz.replication_control LIMIT 1`).
		Scan(&c.CurrentSchemaSequence, &c.CurrentReplicationSequence, &c.LastReplicationDate)
	if err != nil {
		return Cursor{}, fmt.Errorf("replctl: get cursor: %w", err)
	}
	return c, nil
}

// Advance sets the cursor to nextSeq, bumping last_replication_date
// atomically with the sequence (spec.md §3 invariant).
func Advance(ctx context.Context, tx pgx.Tx, nextSeq int32) error {
	_, err := tx.Exec(ctx, `UPDATE musicbrainz.replication_control
		SET current_replication_sequence = $1, last_replication_date = now()`, nextSeq)
	if err != nil {
		return fmt.Errorf("replctl: advance cursor: %w", err)
	}
	return nil
}

// NextReplicationSequence returns cursor.current_replication_sequence+1,
// or ErrNoCursor if unset.
func (c Cursor) NextReplicationSequence() (int32, error) {
	if c.CurrentReplicationSequence == nil {
		return 0, ErrNoCursor
	}
	return *c.CurrentReplicationSequence + 1, nil
}

// SchemaSequenceMatch reports whether actual equals the cursor's
// current schema sequence.
func (c Cursor) SchemaSequenceMatch(actual int32) bool {
	return c.CurrentSchemaSequence != nil && *c.CurrentSchemaSequence == actual
}

// NextReplicationPacketURL builds the URL for the next expected packet
// (spec.md §4.D step 3).
func NextReplicationPacketURL(base, token string, nextSeq int32) string {
	return fmt.Sprintf("%s/replication-%d-v2.tar.bz2?token=%s", base, nextSeq, token)
}

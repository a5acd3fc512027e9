package cdc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/metadada/metamirror/internal/archivereader"
	"github.com/metadada/metamirror/internal/fetch"
	"github.com/metadada/metamirror/internal/pgstore"
	"github.com/metadada/metamirror/internal/reindexbus"
	"github.com/metadada/metamirror/internal/replctl"
	"github.com/metadada/metamirror/internal/scope"
)

// IdleInterval is how long ApplyAllPending sleeps after a NotFound
// (spec.md §5: "sleep 15 min after NotFound").
const IdleInterval = 15 * time.Minute

// ErrIdle is returned by ApplyPending when the next packet does not
// exist yet — treat as idle, not failure (spec.md §7).
var ErrIdle = errors.New("cdc: no next packet yet")

// uniqueViolation is Postgres error code 23505.
const uniqueViolation = "23505"

// Applier drives the CDC Applier state machine (spec.md §4.D).
type Applier struct {
	Mirror  *pgstore.Pool
	Fetcher *fetch.Fetcher
	BaseURL string
	Token   string
	Scope   scope.Predicate
	Bus     *reindexbus.Bus
	TempDir string
	Logger  *slog.Logger

	dropConstraintOnce sync.Once
}

// ApplyAllPending loops ApplyPending forever: each idle result sleeps
// IdleInterval and retries; any other error is fatal and stops the
// loop (spec.md §4.D, §7).
func (a *Applier) ApplyAllPending(ctx context.Context) error {
	for {
		err := a.ApplyPending(ctx)
		switch {
		case err == nil:
			continue
		case errors.Is(err, ErrIdle):
			a.Bus.Signal()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(IdleInterval):
			}
		default:
			return fmt.Errorf("cdc: apply pending: %w", err)
		}
	}
}

// ApplyPending applies exactly one packet: recovery of a crashed
// previous attempt if necessary, then download/parse/apply/advance/
// signal for the next sequence. Returns ErrIdle if the next packet has
// not been published yet.
func (a *Applier) ApplyPending(ctx context.Context) error {
	if err := a.recoverIfNeeded(ctx); err != nil {
		return fmt.Errorf("cdc: recovery: %w", err)
	}

	cursor, err := a.getCursor(ctx)
	if err != nil {
		return err
	}
	nextSeq, err := cursor.NextReplicationSequence()
	if err != nil {
		return err
	}

	url := replctl.NextReplicationPacketURL(a.BaseURL, a.Token, nextSeq)
	tmpFile, cleanup, err := a.download(ctx, url)
	if err != nil {
		if errors.Is(err, fetch.ErrNotFound) {
			return ErrIdle
		}
		return fmt.Errorf("cdc: download packet %d: %w", nextSeq, err)
	}
	defer cleanup()

	if err := a.ingestPacket(ctx, tmpFile, cursor, nextSeq); err != nil {
		return fmt.Errorf("cdc: ingest packet %d: %w", nextSeq, err)
	}

	if err := a.applyAndAdvance(ctx, nextSeq); err != nil {
		return fmt.Errorf("cdc: apply packet %d: %w", nextSeq, err)
	}

	a.Bus.Signal()
	return nil
}

func (a *Applier) getCursor(ctx context.Context) (replctl.Cursor, error) {
	var cursor replctl.Cursor
	err := a.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		cursor, err = replctl.Get(ctx, tx)
		return err
	})
	return cursor, err
}

// recoverIfNeeded re-applies leftover pending_data rows from a crash
// between committing an xid and truncating pending_data/pending_keys
// (spec.md §4.D step 1, §8 scenario 4).
func (a *Applier) recoverIfNeeded(ctx context.Context) error {
	var count int
	err := a.withTx(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `SELECT count(*) FROM dbmirror2.pending_data`).Scan(&count)
	})
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	a.logger().Warn("recovering leftover pending rows from a previous crash", "rows", count)
	cursor, err := a.getCursor(ctx)
	if err != nil {
		return err
	}
	nextSeq, err := cursor.NextReplicationSequence()
	if err != nil {
		return err
	}
	return a.applyAndAdvance(ctx, nextSeq)
}

// download streams url to a fresh temp file under TempDir, scoped so
// the file is removed on every exit path (Design Notes §9).
func (a *Applier) download(ctx context.Context, url string) (string, func(), error) {
	f, err := os.CreateTemp(a.TempDir, "replication-*.tar.bz2")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() {
		f.Close()
		os.Remove(f.Name())
	}

	if err := a.Fetcher.Fetch(ctx, url, f); err != nil {
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, err
	}
	return f.Name(), cleanup, nil
}

// ingestPacket reads every tar entry in path, COPYing pending_data/
// pending_keys into dbmirror2 and validating the sequence markers
// (spec.md §4.D step 4).
func (a *Applier) ingestPacket(ctx context.Context, path string, cursor replctl.Cursor, nextSeq int32) error {
	a.dropConstraintOnce.Do(func() {
		if err := a.dropPendingDataConstraint(ctx); err != nil {
			a.logger().Error("drop pending_data constraint failed", "err", err)
		}
	})

	reader, closer, err := archivereader.Open(path)
	if err != nil {
		return err
	}
	defer closer.Close()

	return reader.Each(func(e archivereader.Entry) error {
		switch filepath.Base(e.Path) {
		case "pending_data":
			return a.copyEntry(ctx, "dbmirror2", "pending_data", e)
		case "pending_keys":
			return a.copyEntry(ctx, "dbmirror2", "pending_keys", e)
		case "REPLICATION_SEQUENCE":
			got, err := readSequenceEntry(e)
			if err != nil {
				return err
			}
			return CheckReplicationSequence(got, nextSeq)
		case "SCHEMA_SEQUENCE":
			got, err := readSequenceEntry(e)
			if err != nil {
				return err
			}
			want := int32(0)
			if cursor.CurrentSchemaSequence != nil {
				want = *cursor.CurrentSchemaSequence
			}
			return CheckSchemaSequence(got, want)
		case "TIMESTAMP":
			b := make([]byte, e.Size)
			if _, err := io.ReadFull(e.R, b); err != nil {
				return err
			}
			ts, err := ParseTimestamp(string(b))
			if err != nil {
				a.logger().Warn("unparsable packet timestamp", "err", err)
				return nil
			}
			a.logger().Info("packet timestamp", "ts", ts)
			return nil
		default:
			return nil
		}
	})
}

func (a *Applier) copyEntry(ctx context.Context, schema, table string, e archivereader.Entry) error {
	return a.withTx(ctx, func(tx pgx.Tx) error {
		_, err := pgstore.NewRawCopySink(tx).CopyInto(ctx, schema, table, e.R)
		return err
	})
}

// dropPendingDataConstraint removes the named check constraint on
// dbmirror2.pending_data.tablename once per run, so new tables the
// mirror does not yet know about don't abort the COPY (spec.md §4.D
// step 4 constraint).
func (a *Applier) dropPendingDataConstraint(ctx context.Context) error {
	return a.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `ALTER TABLE dbmirror2.pending_data DROP CONSTRAINT IF EXISTS pending_data_tablename_check`)
		return err
	})
}

// applyAndAdvance loads pending rows, applies every xid group in its
// own transaction, truncates the scratch tables, then advances the
// cursor to nextSeq (spec.md §4.D steps 5-6).
func (a *Applier) applyAndAdvance(ctx context.Context, nextSeq int32) error {
	rows, err := a.loadPendingRows(ctx)
	if err != nil {
		return err
	}
	rows = FilterScope(rows, a.Scope.Skip)
	groups := GroupByXid(OrderRows(rows))

	for _, g := range groups {
		if err := a.applyGroup(ctx, g); err != nil {
			return fmt.Errorf("apply xid %d: %w", g.Xid, err)
		}
	}

	return a.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE dbmirror2.pending_data, dbmirror2.pending_keys`); err != nil {
			return err
		}
		return replctl.Advance(ctx, tx, nextSeq)
	})
}

// applyGroup executes one xid's row statements in seqid order inside
// a single transaction, committing or rolling back as a unit, then
// deletes its pending_data rows (spec.md §4.D step 5, §5 ordering
// guarantees).
func (a *Applier) applyGroup(ctx context.Context, g XidGroup) error {
	return a.withTx(ctx, func(tx pgx.Tx) error {
		for _, row := range g.Rows {
			sql, err := Translate(row)
			if err != nil {
				return fmt.Errorf("translate %s op=%s: %w", row.FullTable(), row.Op, err)
			}
			if sql == "" {
				continue
			}
			if err := execWithSavepoint(ctx, tx, sql); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `DELETE FROM dbmirror2.pending_data WHERE xid = $1`, g.Xid)
		return err
	})
}

// execWithSavepoint runs sql inside a savepoint and swallows a unique-
// violation, implementing the "replay a committed-but-undeleted xid"
// open question (spec.md §9, DESIGN.md): plain re-INSERTs during crash
// recovery are expected to conflict on primary key; that's tolerated
// rather than fatal.
func execWithSavepoint(ctx context.Context, tx pgx.Tx, sql string) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return err
	}
	if _, err := sp.Exec(ctx, sql); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sp.Rollback(ctx)
		}
		sp.Rollback(ctx)
		return err
	}
	return sp.Commit(ctx)
}

type pendingDataRecord struct {
	Xid     int64
	Seqid   int64
	Table   string
	Op      string
	OldData []byte
	NewData []byte
}

// loadPendingRows loads pending_data joined with pending_keys, decoding
// JSON payloads with goccy/go-json (spec.md §4.D step 5).
func (a *Applier) loadPendingRows(ctx context.Context) ([]PendingRow, error) {
	var records []pendingDataRecord
	err := a.withTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT xid, seqid, tablename, op, olddata, newdata FROM dbmirror2.pending_data`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var rec pendingDataRecord
			var newdata []byte
			if err := rows.Scan(&rec.Xid, &rec.Seqid, &rec.Table, &rec.Op, &rec.OldData, &newdata); err != nil {
				return err
			}
			rec.NewData = newdata
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("load pending_data: %w", err)
	}

	keys, err := a.loadPendingKeys(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]PendingRow, 0, len(records))
	for _, rec := range records {
		schema, table := splitFullTable(rec.Table)
		row := PendingRow{
			Xid:     rec.Xid,
			Seqid:   rec.Seqid,
			Schema:  schema,
			Table:   table,
			Op:      Op(rec.Op),
			KeyCols: keys[rec.Table],
		}
		if err := json.Unmarshal(rec.OldData, &row.OldData); err != nil {
			return nil, fmt.Errorf("decode olddata for %s: %w", rec.Table, err)
		}
		if len(rec.NewData) > 0 {
			if err := json.Unmarshal(rec.NewData, &row.NewData); err != nil {
				return nil, fmt.Errorf("decode newdata for %s: %w", rec.Table, err)
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (a *Applier) loadPendingKeys(ctx context.Context) (map[string][]string, error) {
	keys := make(map[string][]string)
	err := a.withTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT fulltable, pkcols FROM dbmirror2.pending_keys`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var fulltable string
			var pkcols []string
			if err := rows.Scan(&fulltable, &pkcols); err != nil {
				return err
			}
			keys[fulltable] = pkcols
		}
		return rows.Err()
	})
	return keys, err
}

func splitFullTable(fulltable string) (schema, table string) {
	for i := 0; i < len(fulltable); i++ {
		if fulltable[i] == '.' {
			return fulltable[:i], fulltable[i+1:]
		}
	}
	return "musicbrainz", fulltable
}

func (a *Applier) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := a.Mirror.Raw().Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (a *Applier) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}

func readSequenceEntry(e archivereader.Entry) (int32, error) {
	b := make([]byte, e.Size)
	if _, err := io.ReadFull(e.R, b); err != nil {
		return 0, err
	}
	return ParseSequenceMarker(string(b))
}

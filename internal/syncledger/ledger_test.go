package syncledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type fakeDB struct {
	lastExecSQL string
	lastArgs    []any
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.lastExecSQL = sql
	f.lastArgs = args
	return pgconn.CommandTag{}, nil
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func TestInsertIDs_SkipsEmpty(t *testing.T) {
	db := &fakeDB{}
	l := New(db, "artists_sync")
	require.NoError(t, l.InsertIDs(context.Background(), nil))
	require.Empty(t, db.lastExecSQL)
}

func TestInsertIDs_BuildsOnConflictDoNothing(t *testing.T) {
	db := &fakeDB{}
	l := New(db, "artists_sync")
	ids := []uuid.UUID{uuid.New()}
	require.NoError(t, l.InsertIDs(context.Background(), ids))
	require.Contains(t, db.lastExecSQL, "ON CONFLICT (id) DO NOTHING")
	require.Contains(t, db.lastExecSQL, "artists_sync")
}

func TestMarkSynced_BuildsUpdate(t *testing.T) {
	db := &fakeDB{}
	l := New(db, "releases_sync")
	ids := []uuid.UUID{uuid.New()}
	require.NoError(t, l.MarkSynced(context.Background(), ids))
	require.Contains(t, db.lastExecSQL, "SET sync = true")
	require.Contains(t, db.lastExecSQL, "releases_sync")
}

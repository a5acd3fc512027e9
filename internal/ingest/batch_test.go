package ingest

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/metadada/metamirror/internal/search"
)

type fakeRow struct {
	id   uuid.UUID
	name string
}

type fakeCapability struct {
	mu        sync.Mutex
	all       []fakeRow
	unsynced  []fakeRow
	inserted  []uuid.UUID
	synced    []uuid.UUID
	// neverConsume makes Unsynced return the full backlog every call
	// instead of draining it, simulating a batch that keeps failing to
	// push and so is never marked synced.
	neverConsume bool
}

func (f *fakeCapability) IndexName() string { return "fake" }
func (f *fakeCapability) IDField() string   { return "id" }
func (f *fakeCapability) BatchSize() int    { return 2 }

func (f *fakeCapability) Page(ctx context.Context, lastID uuid.UUID, limit int) ([]fakeRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeRow
	started := lastID == uuid.Nil
	for _, r := range f.all {
		if started {
			out = append(out, r)
			if len(out) >= limit {
				break
			}
		}
		if r.id == lastID {
			started = true
		}
	}
	return out, nil
}

func (f *fakeCapability) Unsynced(ctx context.Context, limit int) ([]fakeRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.unsynced) == 0 {
		return nil, nil
	}
	n := limit
	if n > len(f.unsynced) {
		n = len(f.unsynced)
	}
	batch := f.unsynced[:n]
	if !f.neverConsume {
		f.unsynced = f.unsynced[n:]
	}
	return batch, nil
}

func (f *fakeCapability) CountUnsynced(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.unsynced)), nil
}

func (f *fakeCapability) InsertIDs(ctx context.Context, ids []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, ids...)
	return nil
}

func (f *fakeCapability) MarkSynced(ctx context.Context, ids []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synced = append(f.synced, ids...)
	return nil
}

func (f *fakeCapability) Project(row fakeRow) (search.Document, uuid.UUID) {
	return search.Document{"id": row.id.String(), "name": row.name}, row.id
}

type fakeTaskHandle struct{ status search.TaskStatus }

func (h *fakeTaskHandle) Wait(ctx context.Context) (search.TaskStatus, error) {
	return h.status, nil
}

type fakeIndex struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeIndex) AddDocuments(ctx context.Context, indexName string, items []search.Document, idField string) (search.TaskHandle, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return &fakeTaskHandle{status: search.TaskSucceeded}, nil
}

func (f *fakeIndex) ConfigureAttributes(ctx context.Context, indexName string, cfg search.AttributeConfig) error {
	return nil
}

// failingTaskHandle always reports TaskFailed, simulating a document
// that a search backend keeps rejecting.
type failingTaskHandle struct{}

func (failingTaskHandle) Wait(ctx context.Context) (search.TaskStatus, error) {
	return search.TaskFailed, nil
}

type failingIndex struct{}

func (failingIndex) AddDocuments(ctx context.Context, indexName string, items []search.Document, idField string) (search.TaskHandle, error) {
	return failingTaskHandle{}, nil
}

func (failingIndex) ConfigureAttributes(ctx context.Context, indexName string, cfg search.AttributeConfig) error {
	return nil
}

func TestBatchIngest_PushesEveryPageAndMarksSynced(t *testing.T) {
	rows := []fakeRow{{id: uuid.New(), name: "a"}, {id: uuid.New(), name: "b"}, {id: uuid.New(), name: "c"}}
	cap := &fakeCapability{all: rows}
	idx := &fakeIndex{}
	ing := New[fakeRow](cap, idx, nil)

	require.NoError(t, ing.BatchIngest(context.Background()))
	require.Len(t, cap.inserted, 3)
	require.Len(t, cap.synced, 3)
	require.GreaterOrEqual(t, idx.calls, 1)
}

func TestSync_DrainsUntilEmpty(t *testing.T) {
	rows := []fakeRow{{id: uuid.New()}, {id: uuid.New()}, {id: uuid.New()}}
	cap := &fakeCapability{unsynced: rows}
	idx := &fakeIndex{}
	ing := New[fakeRow](cap, idx, nil)

	require.NoError(t, ing.Sync(context.Background()))
	require.Empty(t, cap.unsynced)
	require.Len(t, cap.synced, 3)
}

func TestSync_GivesUpAfterRepeatedlyStaleBatch(t *testing.T) {
	rows := []fakeRow{{id: uuid.New()}, {id: uuid.New()}}
	cap := &fakeCapability{unsynced: rows, neverConsume: true}
	ing := New[fakeRow](cap, failingIndex{}, nil)

	err := ing.Sync(context.Background())
	require.Error(t, err)
	require.Empty(t, cap.synced)
}

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/metadada/metamirror/internal/search"
)

// fanOut bounds how many batches may be in flight against the search
// backend concurrently (spec.md §4.G: "bounded fan-out (≈10)").
const fanOut = 10

// taskWaitBound is the combined queue-wait + completion bound a search
// task is allowed before ingest(items) gives up and leaves the batch
// unsynced for the next retry (spec.md §4.G: "360 s of queue wait + 60
// s of completion").
const taskWaitBound = 360*time.Second + 60*time.Second

// maxStaleSyncAttempts bounds how many times in a row Sync may pull
// back the exact same unsynced batch (because it keeps failing to
// push and so is never marked synced) before giving up instead of
// busy-looping on a persistently-failing document.
const maxStaleSyncAttempts = 5

// Ingester pushes entity documents of kind T to a search.Index,
// tracking completion through T's Capability.
type Ingester[T any] struct {
	cap    Capability[T]
	index  search.Index
	logger *slog.Logger
}

// New builds an Ingester for the given capability and search backend.
func New[T any](cap Capability[T], index search.Index, logger *slog.Logger) *Ingester[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester[T]{cap: cap, index: index, logger: logger}
}

// BatchIngest performs a full rebuild: keyset-paginates every row of
// T in ascending id order and pushes each page, up to fanOut pages
// concurrently in flight (spec.md §4.G "Full rebuild").
func (ing *Ingester[T]) BatchIngest(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)

	lastID := uuid.Nil
	for {
		page, err := ing.cap.Page(gctx, lastID, ing.cap.BatchSize())
		if err != nil {
			return fmt.Errorf("ingest: page %s: %w", ing.cap.IndexName(), err)
		}
		if len(page) == 0 {
			break
		}
		lastID = ing.lastIDOf(page)

		batch := page
		g.Go(func() error {
			return ing.ingest(gctx, batch)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("ingest: batch ingest %s: %w", ing.cap.IndexName(), err)
	}
	return nil
}

// Sync drains every row with sync=false, in batches, pushing each to
// search and marking it synced (spec.md §4.G "Incremental sync"). Runs
// once per Reindex Bus signal; the caller loops it. Gives up with an
// error if the same batch comes back unsynced maxStaleSyncAttempts
// times in a row, rather than busy-looping on it forever.
func (ing *Ingester[T]) Sync(ctx context.Context) error {
	var lastLeadID uuid.UUID
	staleAttempts := 0

	for {
		batch, err := ing.cap.Unsynced(ctx, ing.cap.BatchSize())
		if err != nil {
			return fmt.Errorf("ingest: unsynced %s: %w", ing.cap.IndexName(), err)
		}
		if len(batch) == 0 {
			return nil
		}

		_, leadID := ing.cap.Project(batch[0])
		if leadID == lastLeadID {
			staleAttempts++
		} else {
			staleAttempts = 0
			lastLeadID = leadID
		}
		if staleAttempts >= maxStaleSyncAttempts {
			return fmt.Errorf("ingest: sync %s: batch leading id %s still unsynced after %d attempts",
				ing.cap.IndexName(), leadID, staleAttempts)
		}

		if err := ing.ingest(ctx, batch); err != nil {
			return fmt.Errorf("ingest: sync %s: %w", ing.cap.IndexName(), err)
		}
	}
}

// ingest is the atomic-per-batch protocol (spec.md §4.G): register ids
// in the ledger, push documents, wait for the search task, then mark
// synced on success or leave sync=false to retry on failure.
func (ing *Ingester[T]) ingest(ctx context.Context, rows []T) error {
	docs := make([]search.Document, 0, len(rows))
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		doc, id := ing.cap.Project(row)
		docs = append(docs, doc)
		ids = append(ids, id)
	}

	if err := ing.cap.InsertIDs(ctx, ids); err != nil {
		return fmt.Errorf("insert ids: %w", err)
	}

	task, err := ing.index.AddDocuments(ctx, ing.cap.IndexName(), docs, ing.cap.IDField())
	if err != nil {
		return fmt.Errorf("add documents: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, taskWaitBound)
	defer cancel()

	status, err := task.Wait(waitCtx)
	if err != nil {
		ing.logger.Warn("search task wait failed, leaving batch unsynced", "index", ing.cap.IndexName(), "err", err)
		return nil
	}
	switch status {
	case search.TaskSucceeded:
		if err := ing.cap.MarkSynced(ctx, ids); err != nil {
			return fmt.Errorf("mark synced: %w", err)
		}
	default:
		ing.logger.Warn("search task failed, leaving batch unsynced for retry", "index", ing.cap.IndexName())
	}
	return nil
}

func (ing *Ingester[T]) lastIDOf(page []T) uuid.UUID {
	_, id := ing.cap.Project(page[len(page)-1])
	return id
}

// Package supervisor runs the three long-lived tasks spec.md §5
// describes — the out-of-scope query API, the batch ingester's Sync
// drain loop, and the CDC applier loop — under one shared cancellation
// token, mirroring the teacher cmd's signal.NotifyContext shutdown.
package supervisor

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/metadada/metamirror/internal/reindexbus"
)

// Syncer is anything with a drain-loop Sync method — satisfied by
// ingest.Ingester[T] for whichever T the caller wires in.
type Syncer interface {
	Sync(ctx context.Context) error
}

// APITask is anything with a Run method bound to ctx cancellation —
// satisfied by api.Server.
type APITask interface {
	Run(ctx context.Context) error
}

// Applier is anything with an ApplyAllPending loop — satisfied by
// cdc.Applier.
type Applier interface {
	ApplyAllPending(ctx context.Context) error
}

// Supervisor runs the API task, the CDC applier loop, and one ingest
// loop that runs every registered Syncer's drain in turn each time the
// Reindex Bus fires. It returns when the API task or the applier loop
// errors, or ctx is canceled; a failed Sync is logged and the ingest
// loop keeps going.
type Supervisor struct {
	API     APITask
	Applier Applier
	Bus     *reindexbus.Bus
	Syncers []Syncer
	Logger  *slog.Logger
}

// Run starts every task under an errgroup.Group sharing ctx: the first
// task to return an error cancels the rest (spec.md §5 "shared
// cancellation token").
func (s *Supervisor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.API.Run(gctx)
	})

	g.Go(func() error {
		return s.Applier.ApplyAllPending(gctx)
	})

	g.Go(func() error {
		return s.runIngestLoop(gctx)
	})

	return g.Wait()
}

// runIngestLoop blocks on the Reindex Bus and, each time it fires,
// runs every registered Syncer's drain loop (spec.md §4.G "This runs
// when the Reindex Bus fires").
func (s *Supervisor) runIngestLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.Bus.Wait():
			for _, syncer := range s.Syncers {
				if err := syncer.Sync(ctx); err != nil {
					s.logger().Error("sync drain failed", "err", err)
				}
			}
		}
	}
}

func (s *Supervisor) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Package ingest implements the Batch Ingester (spec.md §4.G): full
// rebuild and incremental sync over any entity kind satisfying
// Capability, pushing projected documents to a search.Index and
// tracking completion in a syncledger.Ledger.
package ingest

import (
	"context"

	"github.com/google/uuid"

	"github.com/metadada/metamirror/internal/search"
)

// Capability is the polymorphism boundary across entity kinds (spec.md
// §9 Design Notes: "Express this as a capability interface... Avoid
// inheritance; pass the capability by reference"). Artist and Album
// each implement it.
type Capability[T any] interface {
	// IndexName is the search index this entity kind upserts into.
	IndexName() string
	// IDField is the document field the search backend should key on.
	IDField() string
	// Page returns up to limit rows with id > lastID, in ascending id
	// order, for the full-rebuild keyset scan.
	Page(ctx context.Context, lastID uuid.UUID, limit int) ([]T, error)
	// Unsynced returns up to limit rows whose ledger entry has
	// sync=false, for the incremental drain loop.
	Unsynced(ctx context.Context, limit int) ([]T, error)
	// CountUnsynced reports how many rows still have sync=false.
	CountUnsynced(ctx context.Context) (int64, error)
	// InsertIDs registers ids in the ledger before a search push.
	InsertIDs(ctx context.Context, ids []uuid.UUID) error
	// MarkSynced marks ids synced after a confirmed search push.
	MarkSynced(ctx context.Context, ids []uuid.UUID) error
	// Project converts a row to its search.Document and ID.
	Project(row T) (search.Document, uuid.UUID)
	// BatchSize is the configured page/push size for this entity kind.
	BatchSize() int
}

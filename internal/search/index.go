// Package search defines the Search Index interface this system
// pushes denormalized documents to (spec.md §1: "a search index with
// document-upsert and attribute configuration" — an external
// collaborator; this package only defines the contract and one HTTP
// client satisfying it).
package search

import "context"

// Document is a denormalized search document, keyed by ID for upsert
// and dedup (spec.md §3 Search Document).
type Document map[string]any

// TaskStatus is the outcome of an asynchronous indexing task.
type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskSucceeded
	TaskFailed
)

// AttributeConfig configures which fields are filterable vs
// searchable for one index (spec.md §6 Outputs).
type AttributeConfig struct {
	Filterable []string
	Searchable []string
}

// Index is the capability this system requires of a search backend.
type Index interface {
	// AddDocuments upserts items (documents keyed by idField) and
	// returns a task handle to poll for completion.
	AddDocuments(ctx context.Context, indexName string, items []Document, idField string) (TaskHandle, error)

	// ConfigureAttributes sets the filterable/searchable attribute
	// lists for indexName. Idempotent. cmd/metamirror does not call
	// it, so index attribute settings stay as the backend has them.
	ConfigureAttributes(ctx context.Context, indexName string, cfg AttributeConfig) error
}

// TaskHandle lets a caller poll an asynchronous indexing task to
// completion.
type TaskHandle interface {
	// Wait blocks until the task reaches a terminal status or ctx is
	// done, whichever comes first.
	Wait(ctx context.Context) (TaskStatus, error)
}

package storage

import (
	"context"

	"github.com/codemem/codemem/core"
)

// SnippetStore provides document persistence and similarity search for
// snippet documents. Implementations must be thread-safe and support
// concurrent access from multiple goroutines.
type SnippetStore interface {
	// UpsertSnippet writes a document, replacing any existing document with
	// the same id. The write is atomic at single-document granularity.
	// Returns the persisted document.
	UpsertSnippet(ctx context.Context, doc *core.SnippetDocument) (*core.SnippetDocument, error)

	// GetSnippet retrieves a document by its natural key.
	// Returns ErrNotFound if no document exists for the pair.
	GetSnippet(ctx context.Context, projectID, name string) (*core.SnippetDocument, error)

	// GetSnippetByID retrieves a document by id.
	// Returns ErrNotFound if the document doesn't exist.
	GetSnippetByID(ctx context.Context, id core.ID) (*core.SnippetDocument, error)

	// DeleteSnippets removes documents by natural key.
	// Returns ErrNotFound if any named document doesn't exist.
	DeleteSnippets(ctx context.Context, projectID string, names ...string) error

	// FindSimilar returns up to limit documents ranked by cosine similarity
	// to the given vector, highest first. Equal scores tie-break by
	// ascending id. An empty projectID searches across all projects;
	// otherwise results are restricted to the project.
	FindSimilar(ctx context.Context, vector []float32, projectID string, limit int) ([]*core.ScoredSnippet, error)

	// IterateSnippets calls fn for every stored document, optionally scoped
	// to a project. Iteration stops on the first error, which is returned.
	IterateSnippets(ctx context.Context, projectID string, fn func(*core.SnippetDocument) error) error

	// CountSnippets reports the number of stored documents, optionally
	// scoped to a project.
	CountSnippets(ctx context.Context, projectID string) (int, error)

	// WithTransaction executes fn within a storage transaction. If fn
	// returns an error the transaction is rolled back, otherwise committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the store and releases resources.
	Close() error
}

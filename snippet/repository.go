// Copyright 2026 The Codemem Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package snippet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codemem/codemem/ai"
	"github.com/codemem/codemem/core"
	"github.com/codemem/codemem/retry"
	"github.com/codemem/codemem/storage"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 250 * time.Millisecond
)

// Repository owns document shaping, the dedup key policy and upsert
// orchestration for snippet documents.
type Repository struct {
	store        storage.SnippetStore
	embedder     ai.Embedder
	embeddingDim int
	maxRetries   int
	retryDelay   time.Duration
	writeLocks   *keyedMutex
	logger       *slog.Logger
}

// Option configures a Repository.
type Option func(*Repository) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithEmbeddingDim sets the expected embedding dimension. When non-zero, a
// mismatched vector from the embedder is a fatal configuration error.
func WithEmbeddingDim(dim int) Option {
	return func(r *Repository) error {
		r.embeddingDim = dim
		return nil
	}
}

// WithRetryPolicy sets the attempt cap and base backoff delay for
// collaborator calls.
func WithRetryPolicy(maxRetries int, baseDelay time.Duration) Option {
	return func(r *Repository) error {
		if maxRetries < 1 {
			maxRetries = 1
		}
		r.maxRetries = maxRetries
		r.retryDelay = baseDelay
		return nil
	}
}

// NewRepository creates a snippet repository over the given store and
// embedder.
func NewRepository(store storage.SnippetStore, embedder ai.Embedder, opts ...Option) (*Repository, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Repository{
		store:      store,
		embedder:   embedder,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		writeLocks: newKeyedMutex(),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// UpsertInput is the caller-supplied shape of a snippet write.
type UpsertInput struct {
	Name        string
	ProjectID   string
	Code        string
	Language    string
	Description string
}

// Upsert validates the input, computes the embedding and writes the
// document, replacing any existing document with the same (project, name)
// natural key while preserving its id.
//
// Writes to the same key are serialized in-process; a write conflict at the
// storage layer is retried once against a fresh read before surfacing.
func (r *Repository) Upsert(ctx context.Context, in UpsertInput) (*core.SnippetDocument, error) {
	if err := core.ValidateSnippetInput(in.Name, in.ProjectID, in.Code); err != nil {
		return nil, err
	}

	vector, err := r.embed(ctx, EmbeddingText(in.Code, in.Description))
	if err != nil {
		return nil, err
	}

	doc := &core.SnippetDocument{
		Id:          core.IDFromContent(core.NaturalKey(in.ProjectID, in.Name)),
		ProjectID:   in.ProjectID,
		Name:        in.Name,
		Code:        in.Code,
		Language:    core.NormalizeLanguage(in.Language),
		Description: in.Description,
		Vector:      core.NormalizeVector(vector),
	}

	r.writeLocks.lock(doc.Id)
	defer r.writeLocks.unlock(doc.Id)

	persisted, err := r.persist(ctx, doc)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("snippet upserted",
		"project", persisted.ProjectID, "name", persisted.Name, "dim", len(persisted.Vector))
	return persisted, nil
}

// Get retrieves a document by its natural key.
// Returns storage.ErrNotFound if no document exists.
func (r *Repository) Get(ctx context.Context, projectID, name string) (*core.SnippetDocument, error) {
	return r.store.GetSnippet(ctx, projectID, name)
}

// Delete removes documents by natural key.
func (r *Repository) Delete(ctx context.Context, projectID string, names ...string) error {
	return r.store.DeleteSnippets(ctx, projectID, names...)
}

// embed calls the embedding client with bounded backoff and verifies the
// configured dimension.
func (r *Repository) embed(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := retry.Do(ctx, func() error {
		var err error
		vector, err = r.embedder.EmbedText(ctx, text)
		return err
	}, r.maxRetries, r.retryDelay)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrTimeout, ctxErr)
		}
		return nil, core.DependencyError("embedder", err)
	}

	if r.embeddingDim > 0 && len(vector) != r.embeddingDim {
		return nil, fmt.Errorf("%w: got %d, want %d", ai.ErrDimensionMismatch, len(vector), r.embeddingDim)
	}
	return vector, nil
}

// persist writes the document with backoff for transient store failures and
// a single fresh-read retry for optimistic-concurrency conflicts.
func (r *Repository) persist(ctx context.Context, doc *core.SnippetDocument) (*core.SnippetDocument, error) {
	var persisted *core.SnippetDocument
	write := func() error {
		var err error
		persisted, err = r.store.UpsertSnippet(ctx, doc)
		return err
	}

	err := write()
	if errors.Is(err, storage.ErrConflict) {
		// The store re-reads current state inside the fresh transaction.
		err = write()
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("%w: %w", core.ErrConflict, err)
		}
	}
	if err == nil {
		return persisted, nil
	}

	remaining := r.maxRetries - 1
	if remaining < 1 {
		remaining = 1
	}
	err = retry.Do(ctx, write, remaining, r.retryDelay)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrTimeout, ctxErr)
		}
		return nil, core.DependencyError("document store", err)
	}
	return persisted, nil
}

// EmbeddingText builds the embedder input for a snippet: code, with the
// description concatenated when present. Re-embedding uses the same policy
// so stored vectors stay comparable.
func EmbeddingText(code, description string) string {
	if description == "" {
		return code
	}
	return code + "\n" + description
}

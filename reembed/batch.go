package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/codemem/codemem/ai"
	"github.com/codemem/codemem/core"
	"github.com/codemem/codemem/retry"
	"github.com/codemem/codemem/snippet"
	"github.com/codemem/codemem/storage"
)

// BatchProcessor recomputes embeddings for batches of snippet documents.
type BatchProcessor struct {
	store          storage.SnippetStore
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(store storage.SnippetStore, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		store:          store,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds a batch of documents and writes the updated vectors back.
// The embedding input matches the upsert path so old and new vectors score
// against the same text. Ids and natural keys are untouched.
func (bp *BatchProcessor) Process(ctx context.Context, docs []*core.SnippetDocument) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = snippet.EmbeddingText(doc.Code, doc.Description)
	}

	var embeddings [][]float32
	err := retry.Do(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w",
			bp.maxRetries, core.DependencyError("embedder", err))
	}

	if len(embeddings) != len(docs) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(docs), len(embeddings))
	}

	for i, doc := range docs {
		doc.Vector = core.NormalizeVector(embeddings[i])
		if _, err := bp.store.UpsertSnippet(ctx, doc); err != nil {
			return fmt.Errorf("failed to update %q: %w", doc.Key(), err)
		}
	}

	return nil
}

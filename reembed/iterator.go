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


package reembed

import (
	"context"

	"github.com/codemem/codemem/core"
	"github.com/codemem/codemem/storage"
)

const (
	// DefaultBatchSize is the default number of documents per batch.
	DefaultBatchSize = 100
)

// SnippetIterator walks the stored snippet documents in batches, optionally
// scoped to one project.
type SnippetIterator struct {
	store     storage.SnippetStore
	projectID string
	batchSize int
}

// NewSnippetIterator creates an iterator over stored documents.
// An empty projectID iterates every project; batchSize must be > 0 or the
// default is used.
func NewSnippetIterator(store storage.SnippetStore, projectID string, batchSize int) *SnippetIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &SnippetIterator{
		store:     store,
		projectID: projectID,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of documents. Iteration stops on the
// first error from fn; context cancellation is checked between batches.
func (it *SnippetIterator) ForEach(ctx context.Context, fn func([]*core.SnippetDocument) error) error {
	batch := make([]*core.SnippetDocument, 0, it.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return ctx.Err()
	}

	err := it.store.IterateSnippets(ctx, it.projectID, func(doc *core.SnippetDocument) error {
		batch = append(batch, doc)
		if len(batch) >= it.batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return err
	}

	return flush()
}

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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/codemem/codemem/core"
	"github.com/codemem/codemem/snippet"
)

// Item is one snippet in an ingestion batch.
type Item struct {
	Name        string `json:"name"`
	ProjectID   string `json:"project_id"`
	Code        string `json:"code"`
	Language    string `json:"language,omitempty"`
	Description string `json:"description,omitempty"`
}

// ItemError records why a single item was not accepted.
type ItemError struct {
	Index int    // zero-based position in the batch (line number - 1 for readers)
	Name  string // item name when known
	Kind  string // error kind per the core taxonomy
	Err   error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %d (%s): %s: %v", e.Index, e.Name, e.Kind, e.Err)
}

func (e ItemError) Unwrap() error { return e.Err }

// Summary reports the outcome of a batch. Accepted + Skipped + Failed equals
// the number of items seen; every non-accepted item has an entry in Errors.
type Summary struct {
	Source   string
	Accepted int
	Skipped  int
	Failed   int
	Errors   []ItemError
}

// Pipeline ingests snippet batches through the repository with bounded
// parallelism. Items are independent; one bad item never aborts the batch.
type Pipeline struct {
	repository *snippet.Repository
	pool       *ants.Pool
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithWorkers sets the worker pool size.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithWorkers(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline over the given repository.
func NewPipeline(repository *snippet.Repository, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository: repository,
		pool:       pool,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// IngestItems processes a batch of items concurrently and reports a summary.
// Invalid items are skipped, collaborator failures are recorded as failed;
// all other items are accepted. Context cancellation aborts the remainder of
// the batch and returns the partial summary alongside the context error.
func (p *Pipeline) IngestItems(ctx context.Context, source string, items []Item) (*Summary, error) {
	summary := &Summary{Source: source}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	record := func(index int, name string, err error) {
		mu.Lock()
		defer mu.Unlock()

		if err == nil {
			summary.Accepted++
			return
		}

		kind := core.Kind(err)
		if kind == "validation" {
			summary.Skipped++
		} else {
			summary.Failed++
		}
		summary.Errors = append(summary.Errors, ItemError{
			Index: index, Name: name, Kind: kind, Err: err,
		})
	}

	var batchErr error
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			batchErr = err
			break
		}

		wg.Add(1)
		index, it := i, item
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			_, err := p.repository.Upsert(ctx, snippet.UpsertInput{
				Name:        it.Name,
				ProjectID:   it.ProjectID,
				Code:        it.Code,
				Language:    it.Language,
				Description: it.Description,
			})
			record(index, it.Name, err)
		})
		if submitErr != nil {
			wg.Done()
			record(index, it.Name, core.DependencyError("worker pool", submitErr))
		}
	}
	wg.Wait()

	p.logger.Info("ingestion batch finished",
		"source", source,
		"accepted", summary.Accepted,
		"skipped", summary.Skipped,
		"failed", summary.Failed)

	if batchErr != nil {
		return summary, fmt.Errorf("%w: %w", core.ErrIngestion, batchErr)
	}
	return summary, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

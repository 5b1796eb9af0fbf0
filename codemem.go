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


// Package codemem is a semantic memory store for code snippets: documents
// are embedded on write, retrieved by vector similarity and fanned out to
// reasoning agents for summaries, style guides and documentation.
package codemem

import (
	"context"
	"io"
	"log/slog"

	"github.com/codemem/codemem/ai"
	"github.com/codemem/codemem/ai/openai"
	"github.com/codemem/codemem/ingestion"
	"github.com/codemem/codemem/orchestration"
	"github.com/codemem/codemem/query"
	"github.com/codemem/codemem/reembed"
	"github.com/codemem/codemem/registry"
	"github.com/codemem/codemem/snippet"
	"github.com/codemem/codemem/storage"
	"github.com/codemem/codemem/storage/badger"
)

// Store wires the document store, snippet repository and AI collaborators
// behind one handle, and registers the resulting capabilities.
type Store struct {
	backend      *badger.Backend
	snippetStore storage.SnippetStore
	repository   *snippet.Repository
	provider     ai.AIProvider
	registry     *registry.Registry
	logger       *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
	logger   *slog.Logger
}

// WithAIConfig sets the embedding/agent host configuration.
func WithAIConfig(config *ai.Config) StoreOption {
	return func(o *storeOptions) { o.aiConfig = config }
}

// WithProvider injects a prebuilt AI provider, bypassing the OpenAI client.
// Used by tests, which pass the mock provider.
func WithProvider(provider ai.AIProvider) StoreOption {
	return func(o *storeOptions) { o.provider = provider }
}

// WithInMemory keeps all data in memory instead of on disk.
func WithInMemory() StoreOption {
	return func(o *storeOptions) { o.inMemory = true }
}

// WithStoreLogger sets a custom logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(o *storeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open opens (creating if necessary) a store at the given path.
func Open(filePath string, opts ...StoreOption) (*Store, error) {
	options := &storeOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	snippetStore, err := badger.NewSnippetStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			snippetStore.Close()
			backend.Close()
			return nil, err
		}
	}

	repository, err := snippet.NewRepository(snippetStore, provider.Embedder(),
		snippet.WithLogger(options.logger),
		snippet.WithEmbeddingDim(options.aiConfig.EmbeddingDim))
	if err != nil {
		provider.Close()
		snippetStore.Close()
		backend.Close()
		return nil, err
	}

	s := &Store{
		backend:      backend,
		snippetStore: snippetStore,
		repository:   repository,
		provider:     provider,
		registry:     registry.NewRegistry(),
		logger:       options.logger,
	}
	s.registerCapabilities()

	return s, nil
}

// registerCapabilities records what this store can do, with health probes
// for the per-capability checks.
func (s *Store) registerCapabilities() {
	register := func(cap registry.Capability) {
		if err := s.registry.Register(cap); err != nil {
			s.logger.Error("error registering capability", "capability", cap.Name, "err", err)
		}
	}

	register(registry.Capability{
		Name:    "storage",
		Enabled: true,
		Check: func(ctx context.Context) error {
			_, err := s.snippetStore.CountSnippets(ctx, "")
			return err
		},
	})
	register(registry.Capability{
		Name:    "embeddings",
		Enabled: true,
		Check: func(ctx context.Context) error {
			_, err := s.provider.Embedder().EmbedText(ctx, "ping")
			return err
		},
	})
	register(registry.Capability{
		Name:    "agents",
		Enabled: true,
		Check: func(ctx context.Context) error {
			_, err := s.provider.Agent().Run(ctx, ai.AgentTask{
				Kind:     ai.TaskKindSummarize,
				Snippets: []string{"func ping() {}"},
			})
			return err
		},
	})
	register(registry.Capability{Name: "ingestion", Enabled: true})
	register(registry.Capability{Name: "orchestration", Enabled: true})
}

// Close closes the store and releases resources.
func (s *Store) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}

	if err := s.snippetStore.Close(); err != nil {
		s.logger.Error("error closing snippet store", "err", err)
		return err
	}

	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Snippets returns the snippet repository.
func (s *Store) Snippets() *snippet.Repository {
	return s.repository
}

// SnippetStore returns the underlying document store.
func (s *Store) SnippetStore() storage.SnippetStore {
	return s.snippetStore
}

// Registry returns the capability registry.
func (s *Store) Registry() *registry.Registry {
	return s.registry
}

// Health reports the current capability health.
func (s *Store) Health(ctx context.Context) *registry.Report {
	return s.registry.Report(ctx)
}

// NewIngestionPipeline builds an ingestion pipeline over this store.
func (s *Store) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(s.repository, opts...)
}

// NewQueryEngine builds a query engine over this store.
func (s *Store) NewQueryEngine(opts ...query.Option) (*query.Engine, error) {
	return query.NewEngine(s.snippetStore, s.provider.Embedder(), opts...)
}

// NewOrchestrator builds an orchestrator sharing this store's engine and
// reasoning agent.
func (s *Store) NewOrchestrator(opts ...orchestration.Option) (*orchestration.Orchestrator, error) {
	engine, err := s.NewQueryEngine()
	if err != nil {
		return nil, err
	}
	return orchestration.NewOrchestrator(engine, s.provider.Agent(), opts...)
}

// NewReembedder builds a reembedder for this store's documents.
func (s *Store) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(s.snippetStore, s.provider.Embedder(), config, progress)
}

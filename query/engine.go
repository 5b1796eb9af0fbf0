package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/codemem/codemem/ai"
	"github.com/codemem/codemem/core"
	"github.com/codemem/codemem/retry"
	"github.com/codemem/codemem/storage"
)

// DefaultTopK is the result count when the caller does not specify one.
const DefaultTopK = 5

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 250 * time.Millisecond
)

// Engine turns a natural-language query into ranked snippet results:
// embed the query, run a similarity search, filter by minimum score and
// truncate to the top k.
type Engine struct {
	store      storage.SnippetStore
	embedder   ai.Embedder
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithRetryPolicy sets the attempt cap and base backoff delay for
// collaborator calls.
func WithRetryPolicy(maxRetries int, baseDelay time.Duration) Option {
	return func(e *Engine) error {
		if maxRetries < 1 {
			maxRetries = 1
		}
		e.maxRetries = maxRetries
		e.retryDelay = baseDelay
		return nil
	}
}

// NewEngine creates a query engine over the given store and embedder.
func NewEngine(store storage.SnippetStore, embedder ai.Embedder, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	e := &Engine{
		store:      store,
		embedder:   embedder,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// searchParams carries the per-call knobs.
type searchParams struct {
	projectID string
	topK      int
	minScore  float32
	monitor   SearchMonitor
}

// SearchOption configures a single Search call.
type SearchOption func(*searchParams)

// WithProject restricts results to one project.
// Default searches across all projects.
func WithProject(projectID string) SearchOption {
	return func(p *searchParams) { p.projectID = projectID }
}

// WithTopK sets the maximum number of results.
// Default is DefaultTopK; values below 1 are rejected at search time.
func WithTopK(k int) SearchOption {
	return func(p *searchParams) { p.topK = k }
}

// WithMinScore drops results scoring below the threshold.
// Default is 0, which keeps every candidate.
func WithMinScore(score float32) SearchOption {
	return func(p *searchParams) { p.minScore = score }
}

// WithMonitor attaches stage callbacks to the call.
func WithMonitor(monitor SearchMonitor) SearchOption {
	return func(p *searchParams) { p.monitor = monitor }
}

// Search returns up to k snippets ranked by similarity to the query,
// highest score first. An empty result set is not an error.
func (e *Engine) Search(ctx context.Context, query string, opts ...SearchOption) ([]*core.ScoredSnippet, error) {
	params := searchParams{topK: DefaultTopK, monitor: &noopMonitor{}}
	for _, opt := range opts {
		opt(&params)
	}
	if params.monitor == nil {
		params.monitor = &noopMonitor{}
	}

	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrValidation, core.ErrEmptyQuery)
	}
	if params.topK < 1 {
		return nil, fmt.Errorf("%w: %w: %d", core.ErrValidation, core.ErrInvalidTopK, params.topK)
	}

	params.monitor.Start(query)

	vector, err := e.embed(ctx, query)
	if err != nil {
		return nil, err
	}
	params.monitor.AfterEmbedding(len(vector))

	candidates, err := e.findSimilar(ctx, vector, params.projectID, params.topK)
	if err != nil {
		return nil, err
	}
	params.monitor.AfterSimilaritySearch(candidates)

	results := candidates
	if params.minScore > 0 {
		results = make([]*core.ScoredSnippet, 0, len(candidates))
		for _, hit := range candidates {
			if hit.Score >= params.minScore {
				results = append(results, hit)
			}
		}
		params.monitor.AfterScoreFilter(len(results), len(candidates)-len(results))
	} else {
		params.monitor.AfterScoreFilter(len(candidates), 0)
	}

	e.logger.Debug("search finished",
		"project", params.projectID, "topK", params.topK, "hits", len(results))
	params.monitor.Finish(results)
	return results, nil
}

func (e *Engine) embed(ctx context.Context, query string) ([]float32, error) {
	var vector []float32
	err := retry.Do(ctx, func() error {
		var err error
		vector, err = e.embedder.EmbedText(ctx, query)
		return err
	}, e.maxRetries, e.retryDelay)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrTimeout, ctxErr)
		}
		e.logger.Error("error embedding query", "err", err)
		return nil, core.DependencyError("embedder", err)
	}
	return core.NormalizeVector(vector), nil
}

func (e *Engine) findSimilar(ctx context.Context, vector []float32, projectID string, limit int) ([]*core.ScoredSnippet, error) {
	var hits []*core.ScoredSnippet
	err := retry.Do(ctx, func() error {
		var err error
		hits, err = e.store.FindSimilar(ctx, vector, projectID, limit)
		return err
	}, e.maxRetries, e.retryDelay)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrTimeout, ctxErr)
		}
		e.logger.Error("error querying for similar snippets", "err", err)
		return nil, core.DependencyError("document store", err)
	}
	return hits, nil
}

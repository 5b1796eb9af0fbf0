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


package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/codemem/codemem/ai"
	"github.com/codemem/codemem/core"
	"github.com/codemem/codemem/query"
)

const (
	// DefaultTimeout bounds a whole run, retrieval included.
	DefaultTimeout = 2 * time.Minute

	defaultRetrievalTopK = 5
)

// Orchestrator executes a task graph over snippets retrieved for a query.
// Independent tasks run concurrently on a bounded worker pool; dependent
// tasks receive the outputs of their dependencies.
type Orchestrator struct {
	engine      *query.Engine
	agent       ai.ReasoningAgent
	pool        *ants.Pool
	timeout     time.Duration
	mergePolicy MergePolicy
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithWorkers sets the agent worker pool size.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithWorkers(size int) Option {
	return func(o *Orchestrator) error {
		if size < 1 {
			size = 1
		}

		if o.pool != nil {
			o.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		o.pool = pool
		return nil
	}
}

// WithTimeout bounds a run when the caller's context carries no deadline.
// Default is DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) error {
		if d > 0 {
			o.timeout = d
		}
		return nil
	}
}

// WithMergePolicy sets how task failures affect the merged artifact.
// Default is MergeStrict.
func WithMergePolicy(policy MergePolicy) Option {
	return func(o *Orchestrator) error {
		o.mergePolicy = policy
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates an orchestrator over the given engine and agent.
func NewOrchestrator(engine *query.Engine, agent ai.ReasoningAgent, opts ...Option) (*Orchestrator, error) {
	if engine == nil {
		return nil, ErrEngineRequired
	}
	if agent == nil {
		return nil, ErrAgentRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		engine:      engine,
		agent:       agent,
		pool:        pool,
		timeout:     DefaultTimeout,
		mergePolicy: MergeStrict,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(o); optErr != nil {
			o.Release()
			return nil, optErr
		}
	}

	return o, nil
}

// Release releases the worker pool.
// The orchestrator should not be used after calling Release.
func (o *Orchestrator) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
}

// task is the scheduler's per-task runtime state. It is owned by the event
// loop; workers only receive copies of their inputs.
type task struct {
	spec       TaskSpec
	state      TaskState
	unmetDeps  int
	dependents []string
	output     string
	err        error
}

// completion is one worker's result, delivered over the event channel.
type completion struct {
	id     string
	output string
	err    error
}

// Run validates the request, retrieves the shared snippet context and
// executes the task graph. The returned artifact carries one section per
// completed task, ordered by task id.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Artifact, error) {
	if err := validateGraph(req.Graph); err != nil {
		return nil, err
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	requestID := uuid.NewString()
	logger := o.logger.With("requestID", requestID)

	snippets, err := o.retrieve(ctx, req)
	if err != nil {
		return nil, err
	}
	logger.Debug("retrieval finished", "snippets", len(snippets), "tasks", len(req.Graph.Tasks))

	tasks := o.execute(ctx, logger, req.Graph, snippets)

	return o.merge(requestID, req, tasks)
}

// retrieve runs the ranked search whose results become the shared context
// for every task.
func (o *Orchestrator) retrieve(ctx context.Context, req Request) ([]string, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = defaultRetrievalTopK
	}

	opts := []query.SearchOption{query.WithTopK(topK)}
	if req.ProjectID != "" {
		opts = append(opts, query.WithProject(req.ProjectID))
	}

	hits, err := o.engine.Search(ctx, req.Query, opts...)
	if err != nil {
		return nil, err
	}

	snippets := make([]string, len(hits))
	for i, hit := range hits {
		snippets[i] = formatSnippet(hit.Document)
	}
	return snippets, nil
}

func formatSnippet(doc *core.SnippetDocument) string {
	return fmt.Sprintf("%s [%s]\n%s", doc.Name, doc.Language, doc.Code)
}

// execute drives the ready-set scheduler until every task reaches a
// terminal state. Task state is only touched by this event loop; workers
// communicate through the buffered completion channel and never block.
func (o *Orchestrator) execute(ctx context.Context, logger *slog.Logger, graph GraphSpec, snippets []string) map[string]*task {
	tasks := make(map[string]*task, len(graph.Tasks))
	for _, spec := range graph.Tasks {
		tasks[spec.ID] = &task{spec: spec, state: StatePending, unmetDeps: len(spec.DependsOn)}
	}
	for _, spec := range graph.Tasks {
		for _, dep := range spec.DependsOn {
			tasks[dep].dependents = append(tasks[dep].dependents, spec.ID)
		}
	}

	events := make(chan completion, len(tasks))
	terminal := 0

	start := func(t *task) {
		t.state = StateRunning

		inputs := make(map[string]string, len(t.spec.DependsOn))
		for _, dep := range t.spec.DependsOn {
			inputs[dep] = tasks[dep].output
		}
		id, kind := t.spec.ID, t.spec.Kind.String()

		submitErr := o.pool.Submit(func() {
			output, err := o.agent.Run(ctx, ai.AgentTask{
				Kind:     kind,
				Snippets: snippets,
				Inputs:   inputs,
			})
			events <- completion{id: id, output: output, err: err}
		})
		if submitErr != nil {
			events <- completion{id: id, err: core.DependencyError("worker pool", submitErr)}
		}
	}

	// fail marks t and every still-pending transitive dependent failed.
	var fail func(t *task, cause error) int
	fail = func(t *task, cause error) int {
		t.state = StateFailed
		t.err = cause
		failed := 1
		for _, depID := range t.dependents {
			dependent := tasks[depID]
			if dependent.state != StatePending {
				continue
			}
			failed += fail(dependent, fmt.Errorf("%w: %q", ErrDependencyFailed, t.spec.ID))
		}
		return failed
	}

	for _, spec := range graph.Tasks {
		if t := tasks[spec.ID]; t.unmetDeps == 0 {
			start(t)
		}
	}

	for terminal < len(tasks) {
		select {
		case event := <-events:
			t := tasks[event.id]
			if t.state != StateRunning {
				// Already failed by timeout sweep; late result is dropped.
				continue
			}

			if event.err != nil {
				logger.Warn("task failed", "task", event.id, "err", event.err)
				terminal += fail(t, wrapAgentError(ctx, event.err))
				continue
			}

			t.state = StateDone
			t.output = event.output
			terminal++
			logger.Debug("task finished", "task", event.id)

			for _, depID := range t.dependents {
				dependent := tasks[depID]
				dependent.unmetDeps--
				if dependent.unmetDeps == 0 && dependent.state == StatePending {
					start(dependent)
				}
			}

		case <-ctx.Done():
			// Deadline: everything not finished fails with a timeout
			// reason. In-flight agent calls observe the same ctx.
			cause := fmt.Errorf("%w: %w", core.ErrTimeout, ctx.Err())
			for _, t := range tasks {
				if t.state == StatePending || t.state == StateRunning {
					t.state = StateFailed
					t.err = cause
					terminal++
				}
			}
		}
	}

	return tasks
}

// wrapAgentError classifies a worker failure: context expiry is a timeout,
// anything else is an agent dependency failure.
func wrapAgentError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", core.ErrTimeout, ctxErr)
	}
	return core.DependencyError("reasoning agent", err)
}

// merge assembles the artifact from terminal task states per the configured
// policy.
func (o *Orchestrator) merge(requestID string, req Request, tasks map[string]*task) (*Artifact, error) {
	ids := make([]string, 0, len(tasks))
	for id := range tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	artifact := &Artifact{
		RequestID: requestID,
		ProjectID: req.ProjectID,
		Query:     req.Query,
		CreatedAt: time.Now().UTC(),
	}

	for _, id := range ids {
		t := tasks[id]
		switch t.state {
		case StateDone:
			artifact.Sections = append(artifact.Sections, Section{
				TaskID:  id,
				Kind:    t.spec.Kind,
				Content: t.output,
			})
		case StateFailed:
			artifact.Failures = append(artifact.Failures, TaskFailure{
				TaskID: id,
				Kind:   t.spec.Kind,
				Err:    t.err,
			})
		}
	}

	if len(artifact.Failures) == 0 {
		return artifact, nil
	}

	if o.mergePolicy == MergeStrict {
		first := artifact.Failures[0]
		return nil, fmt.Errorf("%w: %q: %w", ErrTaskFailed, first.TaskID, first.Err)
	}

	if len(artifact.Sections) == 0 {
		first := artifact.Failures[0]
		return nil, fmt.Errorf("%w: first: %q: %w", ErrAllTasksFailed, first.TaskID, first.Err)
	}

	artifact.Partial = true
	return artifact, nil
}
